package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/fature/monitoring-service/pkg/models"
	"github.com/fature/monitoring-service/pkg/store"
)

// MockStore is a mock implementation of the MetricStore interface
type MockStore struct {
	mock.Mock
}

// Ensure MockStore implements MetricStore
var _ store.MetricStore = (*MockStore)(nil)

func (m *MockStore) InsertMetric(ctx context.Context, metric *models.Metric) error {
	args := m.Called(ctx, metric)
	return args.Error(0)
}

func (m *MockStore) InsertMetricBatch(ctx context.Context, metrics []*models.Metric) error {
	args := m.Called(ctx, metrics)
	return args.Error(0)
}

func (m *MockStore) QueryMetrics(ctx context.Context, f models.MetricFilter) ([]*models.Metric, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]*models.Metric), args.Error(1)
}

func (m *MockStore) Aggregate(ctx context.Context, metricName string, agg models.Aggregation, period models.AggregationPeriod, start, end *time.Time) ([]models.AggregatedPoint, error) {
	args := m.Called(ctx, metricName, agg, period, start, end)
	return args.Get(0).([]models.AggregatedPoint), args.Error(1)
}

func (m *MockStore) CreateAlertRule(ctx context.Context, rule *models.AlertRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockStore) RuleNameExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) ListAlertRules(ctx context.Context) ([]*models.AlertRule, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.AlertRule), args.Error(1)
}

func (m *MockStore) GetAlertRule(ctx context.Context, id string) (*models.AlertRule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AlertRule), args.Error(1)
}

func (m *MockStore) GetActiveRulesForMetric(ctx context.Context, metricName string) ([]*models.AlertRule, error) {
	args := m.Called(ctx, metricName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AlertRule), args.Error(1)
}

func (m *MockStore) UpdateAlertRule(ctx context.Context, rule *models.AlertRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockStore) DeleteAlertRule(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) SaveEvaluation(ctx context.Context, events []*models.AlertEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func (m *MockStore) ListAlertEvents(ctx context.Context, f models.AlertEventFilter) ([]*models.AlertEvent, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]*models.AlertEvent), args.Error(1)
}

func (m *MockStore) GetAlertEvent(ctx context.Context, id string) (*models.AlertEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AlertEvent), args.Error(1)
}

func (m *MockStore) AcknowledgeAlertEvent(ctx context.Context, id, acknowledgedBy string, at time.Time) error {
	args := m.Called(ctx, id, acknowledgedBy, at)
	return args.Error(0)
}

func (m *MockStore) ResolveAlertEvent(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockStore) InsertServiceHealth(ctx context.Context, h *models.ServiceHealth) error {
	args := m.Called(ctx, h)
	return args.Error(0)
}

func (m *MockStore) LatestServiceHealth(ctx context.Context) ([]*models.ServiceHealth, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.ServiceHealth), args.Error(1)
}

func (m *MockStore) Stats(ctx context.Context) (*models.ServiceStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceStats), args.Error(1)
}

func (m *MockStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
