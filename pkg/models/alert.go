package models

import (
	"time"
)

// AlertStatus represents the lifecycle state of an alert event
type AlertStatus string

const (
	AlertStatusOpen         AlertStatus = "open"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
)

// IsValid reports whether the status is one of the known values
func (s AlertStatus) IsValid() bool {
	switch s {
	case AlertStatusOpen, AlertStatusAcknowledged, AlertStatusResolved:
		return true
	}
	return false
}

// AlertContext captures the metric occurrence that fired a rule.
// It is serialized to JSON only at the storage boundary.
type AlertContext struct {
	MetricID    string    `json:"metric_id"`
	ServiceName string    `json:"service_name,omitempty"`
	AffiliateID string    `json:"affiliate_id,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// AlertEvent is the record of one rule firing against one metric occurrence.
// Severity, threshold and rule name are copied from the rule at trigger time
// and are not re-derived when the rule is later edited or deleted.
type AlertEvent struct {
	ID          string       `json:"id"`
	RuleID      string       `json:"alert_rule_id"`
	RuleName    string       `json:"rule_name"`
	MetricValue float64      `json:"metric_value"`
	Threshold   float64      `json:"threshold_value"`
	Severity    RuleSeverity `json:"severity"`

	Message string       `json:"message"`
	Context AlertContext `json:"context"`

	Status         AlertStatus `json:"status"`
	AcknowledgedBy string      `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time  `json:"acknowledged_at,omitempty"`
	ResolvedAt     *time.Time  `json:"resolved_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// AcknowledgeAlertRequest represents the request payload for acknowledging an alert event
type AcknowledgeAlertRequest struct {
	AcknowledgedBy string `json:"acknowledged_by"`
}

// AlertEventFilter holds the optional filters for listing alert events
type AlertEventFilter struct {
	Status   AlertStatus
	Severity RuleSeverity
	Limit    int
}
