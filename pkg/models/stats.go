package models

// ServiceStats summarizes store contents for the health-check endpoint
type ServiceStats struct {
	TotalMetrics    int64 `json:"total_metrics"`
	ActiveRules     int64 `json:"active_alerts"`
	RecentEvents24h int64 `json:"recent_events_24h"`
}
