package models

import (
	"time"
)

// HealthStatus represents the reported health of a service
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// IsValid reports whether the status is one of the known values
func (s HealthStatus) IsValid() bool {
	switch s {
	case HealthStatusHealthy, HealthStatusDegraded, HealthStatusUnhealthy:
		return true
	}
	return false
}

// ServiceHealth is one point-in-time status report for a service.
// Snapshots are append-only; the current state of a service is the
// snapshot with the maximum timestamp for its name.
type ServiceHealth struct {
	ID             string       `json:"id"`
	ServiceName    string       `json:"service_name"`
	Status         HealthStatus `json:"status"`
	ResponseTimeMs float64      `json:"response_time_ms"`
	ErrorRate      float64      `json:"error_rate"`
	CPUUsage       float64      `json:"cpu_usage"`
	MemoryUsage    float64      `json:"memory_usage"`
	Version        string       `json:"version,omitempty"`
	UptimeSeconds  int64        `json:"uptime_seconds"`
	LastError      string       `json:"last_error,omitempty"`
	Timestamp      time.Time    `json:"timestamp"`
}

// Validate checks the required fields of a health snapshot
func (h *ServiceHealth) Validate() error {
	if h.ServiceName == "" {
		return NewValidationError("service_name", "is required")
	}
	if h.Status == "" {
		return NewValidationError("status", "is required")
	}
	if !h.Status.IsValid() {
		return NewValidationError("status", "unknown value: "+string(h.Status))
	}
	return nil
}
