package store

import (
	"context"
	"time"

	"github.com/fature/monitoring-service/pkg/models"
)

// MetricStore defines the interface for the persistence layer
// This allows us to mock the store for testing
type MetricStore interface {
	InsertMetric(ctx context.Context, m *models.Metric) error
	InsertMetricBatch(ctx context.Context, metrics []*models.Metric) error
	QueryMetrics(ctx context.Context, f models.MetricFilter) ([]*models.Metric, error)
	Aggregate(ctx context.Context, metricName string, agg models.Aggregation, period models.AggregationPeriod, start, end *time.Time) ([]models.AggregatedPoint, error)

	CreateAlertRule(ctx context.Context, rule *models.AlertRule) error
	RuleNameExists(ctx context.Context, name string) (bool, error)
	ListAlertRules(ctx context.Context) ([]*models.AlertRule, error)
	GetAlertRule(ctx context.Context, id string) (*models.AlertRule, error)
	GetActiveRulesForMetric(ctx context.Context, metricName string) ([]*models.AlertRule, error)
	UpdateAlertRule(ctx context.Context, rule *models.AlertRule) error
	DeleteAlertRule(ctx context.Context, id string) error

	SaveEvaluation(ctx context.Context, events []*models.AlertEvent) error
	ListAlertEvents(ctx context.Context, f models.AlertEventFilter) ([]*models.AlertEvent, error)
	GetAlertEvent(ctx context.Context, id string) (*models.AlertEvent, error)
	AcknowledgeAlertEvent(ctx context.Context, id, acknowledgedBy string, at time.Time) error
	ResolveAlertEvent(ctx context.Context, id string, at time.Time) error

	InsertServiceHealth(ctx context.Context, h *models.ServiceHealth) error
	LatestServiceHealth(ctx context.Context) ([]*models.ServiceHealth, error)

	Stats(ctx context.Context) (*models.ServiceStats, error)
	Ping(ctx context.Context) error
}

// Ensure Store implements MetricStore
var _ MetricStore = (*Store)(nil)
