package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fature/monitoring-service/pkg/models"
	"github.com/fature/monitoring-service/pkg/store"
)

// HealthService records service health snapshots and reports the
// monitoring service's own health.
type HealthService struct {
	store store.MetricStore
}

// NewHealthService creates a health service.
func NewHealthService(db store.MetricStore) *HealthService {
	return &HealthService{store: db}
}

// RecordServiceHealth validates and appends one health snapshot,
// defaulting the timestamp to now (UTC).
func (s *HealthService) RecordServiceHealth(ctx context.Context, h *models.ServiceHealth) (*models.ServiceHealth, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	if h.Timestamp.IsZero() {
		h.Timestamp = time.Now().UTC()
	} else {
		h.Timestamp = h.Timestamp.UTC()
	}

	if err := s.store.InsertServiceHealth(ctx, h); err != nil {
		return nil, fmt.Errorf("failed to record service health: %w", err)
	}
	return h, nil
}

// LatestServiceHealth returns the most recent snapshot per service.
func (s *HealthService) LatestServiceHealth(ctx context.Context) ([]*models.ServiceHealth, error) {
	return s.store.LatestServiceHealth(ctx)
}

// Overview describes the monitoring service's own health.
type Overview struct {
	Status   string               `json:"status"`
	Database string               `json:"database"`
	Stats    *models.ServiceStats `json:"stats,omitempty"`
}

// Overview checks database connectivity and collects summary counters.
func (s *HealthService) Overview(ctx context.Context) *Overview {
	o := &Overview{Status: "healthy", Database: "connected"}
	if err := s.store.Ping(ctx); err != nil {
		o.Status = "unhealthy"
		o.Database = "unreachable"
		return o
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		o.Status = "degraded"
		return o
	}
	o.Stats = stats
	return o
}
