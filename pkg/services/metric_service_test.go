package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fature/monitoring-service/pkg/configservice"
	"github.com/fature/monitoring-service/pkg/models"
	"github.com/fature/monitoring-service/pkg/store"
)

func testConfig() *configservice.MonitoringConfig {
	return configservice.NewClient("http://127.0.0.1:1").FetchMonitoringConfig(context.Background())
}

func newMemoryCache(ttl time.Duration) *AggregationCache {
	return NewAggregationCache("", "", 0, ttl)
}

func newTestMetricService(t *testing.T) (*MetricService, *AlertService) {
	t.Helper()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMetricService(db, newMemoryCache(time.Minute), testConfig()),
		NewAlertService(db)
}

func floatPtr(v float64) *float64 { return &v }

func revenueRequest(value float64) *models.RecordMetricRequest {
	return &models.RecordMetricRequest{
		Name:      "revenue_hourly",
		Type:      models.MetricTypeRevenue,
		Value:     floatPtr(value),
		Unit:      "BRL",
		Frequency: models.FrequencyHourly,
	}
}

func TestRecordMetricTriggersAlert(t *testing.T) {
	metrics, alerts := newTestMetricService(t)
	ctx := context.Background()

	_, err := alerts.CreateAlertRule(ctx, &models.CreateAlertRuleRequest{
		Name:       "Low Revenue Alert",
		MetricName: "revenue_hourly",
		Operator:   models.OperatorLessThan,
		Threshold:  floatPtr(1500),
		Severity:   models.SeverityMedium,
		Channels:   []string{"email"},
		Recipients: []string{"admin@fature.com"},
	})
	require.NoError(t, err)

	result, err := metrics.RecordMetric(ctx, revenueRequest(1200))
	require.NoError(t, err)
	assert.True(t, result.AlertsEvaluated)
	assert.Equal(t, 1, result.AlertsTriggered)
	assert.Empty(t, result.Warning)

	events, err := alerts.ListAlertEvents(ctx, models.AlertEventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Low Revenue Alert", events[0].RuleName)
	assert.Equal(t, models.SeverityMedium, events[0].Severity)
	assert.Equal(t, models.AlertStatusOpen, events[0].Status)
	assert.Contains(t, events[0].Message, "1200.0")
	assert.Contains(t, events[0].Message, "1500.0")
	assert.Equal(t, result.MetricID, events[0].Context.MetricID)

	rules, err := alerts.ListAlertRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, int64(1), rules[0].TriggerCount)
	assert.NotNil(t, rules[0].LastTriggered)
}

func TestRecordMetricNoTrigger(t *testing.T) {
	metrics, alerts := newTestMetricService(t)
	ctx := context.Background()

	_, err := alerts.CreateAlertRule(ctx, &models.CreateAlertRuleRequest{
		Name:       "Low Revenue Alert",
		MetricName: "revenue_hourly",
		Operator:   models.OperatorLessThan,
		Threshold:  floatPtr(1500),
		Severity:   models.SeverityMedium,
	})
	require.NoError(t, err)

	result, err := metrics.RecordMetric(ctx, revenueRequest(1600))
	require.NoError(t, err)
	assert.Equal(t, 0, result.AlertsTriggered)

	events, err := alerts.ListAlertEvents(ctx, models.AlertEventFilter{})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRecordMetricValidation(t *testing.T) {
	metrics, _ := newTestMetricService(t)
	ctx := context.Background()

	_, err := metrics.RecordMetric(ctx, &models.RecordMetricRequest{
		Type:      models.MetricTypeRevenue,
		Value:     floatPtr(1),
		Frequency: models.FrequencyHourly,
	})
	assert.True(t, models.IsValidationError(err))

	_, err = metrics.RecordMetric(ctx, &models.RecordMetricRequest{
		Name:      "revenue_hourly",
		Type:      "finance",
		Value:     floatPtr(1),
		Frequency: models.FrequencyHourly,
	})
	assert.True(t, models.IsValidationError(err))

	req := revenueRequest(1)
	req.Value = nil
	_, err = metrics.RecordMetric(ctx, req)
	assert.True(t, models.IsValidationError(err))
}

func TestRecordMetricDegradedOnEvaluationFailure(t *testing.T) {
	mockStore := new(MockStore)
	svc := NewMetricService(mockStore, newMemoryCache(time.Minute), testConfig())
	ctx := context.Background()

	mockStore.On("InsertMetric", ctx, mock.AnythingOfType("*models.Metric")).Return(nil)
	mockStore.On("GetActiveRulesForMetric", ctx, "revenue_hourly").
		Return(nil, errors.New("database is locked"))

	result, err := svc.RecordMetric(ctx, revenueRequest(1200))
	require.NoError(t, err)
	assert.NotEmpty(t, result.MetricID)
	assert.False(t, result.AlertsEvaluated)
	assert.NotEmpty(t, result.Warning)
	mockStore.AssertExpectations(t)
}

func TestRecordMetricBatchSizeLimit(t *testing.T) {
	mockStore := new(MockStore)
	svc := NewMetricService(mockStore, newMemoryCache(time.Minute), testConfig())
	ctx := context.Background()

	reqs := make([]*models.RecordMetricRequest, 1001)
	for i := range reqs {
		reqs[i] = revenueRequest(float64(i))
	}

	_, err := svc.RecordMetricBatch(ctx, reqs)
	assert.True(t, models.IsValidationError(err))
	// Nothing may be written when the batch is rejected
	mockStore.AssertNotCalled(t, "InsertMetricBatch", mock.Anything, mock.Anything)
	mockStore.AssertNotCalled(t, "InsertMetric", mock.Anything, mock.Anything)

	// Exactly at the limit is accepted
	mockStore.On("InsertMetricBatch", ctx, mock.Anything).Return(nil)
	mockStore.On("GetActiveRulesForMetric", ctx, "revenue_hourly").Return([]*models.AlertRule{}, nil)
	mockStore.On("SaveEvaluation", ctx, mock.Anything).Return(nil)

	result, err := svc.RecordMetricBatch(ctx, reqs[:1000])
	require.NoError(t, err)
	assert.Equal(t, 1000, result.Recorded)
}

func TestRecordMetricBatchInvalidEntry(t *testing.T) {
	mockStore := new(MockStore)
	svc := NewMetricService(mockStore, newMemoryCache(time.Minute), testConfig())
	ctx := context.Background()

	bad := revenueRequest(1)
	bad.Name = ""
	_, err := svc.RecordMetricBatch(ctx, []*models.RecordMetricRequest{revenueRequest(1), bad})
	assert.True(t, models.IsValidationError(err))
	assert.Contains(t, err.Error(), "metric 1")
	mockStore.AssertNotCalled(t, "InsertMetricBatch", mock.Anything, mock.Anything)
}

func TestRecordMetricBatch(t *testing.T) {
	metrics, alerts := newTestMetricService(t)
	ctx := context.Background()

	_, err := alerts.CreateAlertRule(ctx, &models.CreateAlertRuleRequest{
		Name:       "Low Revenue Alert",
		MetricName: "revenue_hourly",
		Operator:   models.OperatorLessThan,
		Threshold:  floatPtr(1500),
		Severity:   models.SeverityMedium,
	})
	require.NoError(t, err)

	result, err := metrics.RecordMetricBatch(ctx, []*models.RecordMetricRequest{
		revenueRequest(1200),
		revenueRequest(1600),
		revenueRequest(900),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Recorded)
	assert.Equal(t, 2, result.AlertsTriggered)
	assert.True(t, result.AlertsEvaluated)

	stored, err := metrics.QueryMetrics(ctx, models.MetricFilter{Name: "revenue_hourly"})
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}

func TestAggregateValidatesBeforeStorage(t *testing.T) {
	mockStore := new(MockStore)
	svc := NewMetricService(mockStore, newMemoryCache(time.Minute), testConfig())
	ctx := context.Background()

	_, err := svc.Aggregate(ctx, "", models.AggregationSum, models.PeriodHour, nil, nil)
	assert.True(t, models.IsValidationError(err))

	_, err = svc.Aggregate(ctx, "revenue_hourly", "median", models.PeriodHour, nil, nil)
	assert.True(t, models.IsValidationError(err))

	_, err = svc.Aggregate(ctx, "revenue_hourly", models.AggregationSum, "quarter", nil, nil)
	assert.True(t, models.IsValidationError(err))

	mockStore.AssertNotCalled(t, "Aggregate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAggregateUsesCache(t *testing.T) {
	mockStore := new(MockStore)
	svc := NewMetricService(mockStore, newMemoryCache(time.Minute), testConfig())
	ctx := context.Background()

	points := []models.AggregatedPoint{{Period: "2025-03-10", Value: 300}}
	mockStore.On("Aggregate", ctx, "revenue_hourly", models.AggregationSum, models.PeriodDay,
		(*time.Time)(nil), (*time.Time)(nil)).Return(points, nil).Once()

	first, err := svc.Aggregate(ctx, "revenue_hourly", models.AggregationSum, models.PeriodDay, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, points, first)

	// Second call is served from cache; the mock allows only one store hit
	second, err := svc.Aggregate(ctx, "revenue_hourly", models.AggregationSum, models.PeriodDay, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, points, second)
	mockStore.AssertExpectations(t)
}

func TestQueryMetricsLimitCap(t *testing.T) {
	mockStore := new(MockStore)
	svc := NewMetricService(mockStore, newMemoryCache(time.Minute), testConfig())
	ctx := context.Background()

	mockStore.On("QueryMetrics", ctx, models.MetricFilter{Name: "x", Limit: defaultQueryLimit}).
		Return([]*models.Metric{}, nil).Once()
	_, err := svc.QueryMetrics(ctx, models.MetricFilter{Name: "x"})
	require.NoError(t, err)

	mockStore.On("QueryMetrics", ctx, models.MetricFilter{Name: "x", Limit: maxQueryLimit}).
		Return([]*models.Metric{}, nil).Once()
	_, err = svc.QueryMetrics(ctx, models.MetricFilter{Name: "x", Limit: 5000})
	require.NoError(t, err)

	mockStore.AssertExpectations(t)
}
