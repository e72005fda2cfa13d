package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fature/monitoring-service/pkg/configservice"
	"github.com/fature/monitoring-service/pkg/models"
	"github.com/fature/monitoring-service/pkg/store"
)

const (
	defaultQueryLimit = 100
	maxQueryLimit     = 1000
)

// MetricService records metrics, evaluates alert rules against them and
// answers queries and aggregations.
type MetricService struct {
	store store.MetricStore
	cache *AggregationCache
	cfg   *configservice.MonitoringConfig
}

// NewMetricService creates a metric service.
func NewMetricService(db store.MetricStore, cache *AggregationCache, cfg *configservice.MonitoringConfig) *MetricService {
	return &MetricService{store: db, cache: cache, cfg: cfg}
}

// RecordResult reports the outcome of recording one metric.
type RecordResult struct {
	MetricID        string `json:"metric_id"`
	AlertsEvaluated bool   `json:"alerts_evaluated"`
	AlertsTriggered int    `json:"alerts_triggered"`
	Warning         string `json:"warning,omitempty"`
}

// RecordMetric validates, persists and evaluates one metric. A failure
// during evaluation does not fail the recording: the metric is already
// durable, so the result carries a warning instead.
func (s *MetricService) RecordMetric(ctx context.Context, req *models.RecordMetricRequest) (*RecordResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	metric := req.ToMetric(now)
	if err := s.store.InsertMetric(ctx, metric); err != nil {
		return nil, fmt.Errorf("failed to record metric: %w", err)
	}

	result := &RecordResult{MetricID: metric.ID, AlertsEvaluated: true}
	events, err := evaluateMetric(ctx, s.store, metric, now)
	if err != nil {
		logrus.Warnf("Alert evaluation failed for metric %s (%s): %v", metric.ID, metric.Name, err)
		result.AlertsEvaluated = false
		result.Warning = "metric recorded but alert evaluation failed"
		return result, nil
	}
	result.AlertsTriggered = len(events)
	return result, nil
}

// BatchResult reports the outcome of recording a batch.
type BatchResult struct {
	Recorded        int  `json:"recorded"`
	AlertsTriggered int  `json:"alerts_triggered"`
	AlertsEvaluated bool `json:"alerts_evaluated"`
}

// RecordMetricBatch validates and persists a batch of metrics in one
// transaction, then evaluates alerts per metric. The batch is rejected
// before any write if it exceeds the configured size limit or if any
// entry fails validation.
func (s *MetricService) RecordMetricBatch(ctx context.Context, reqs []*models.RecordMetricRequest) (*BatchResult, error) {
	if len(reqs) == 0 {
		return nil, models.NewValidationError("metrics", "batch is empty")
	}
	if limit := s.cfg.BatchSizeLimit; len(reqs) > limit {
		return nil, models.NewValidationError("metrics",
			fmt.Sprintf("batch size %d exceeds limit %d", len(reqs), limit))
	}

	now := time.Now().UTC()
	metrics := make([]*models.Metric, 0, len(reqs))
	for i, req := range reqs {
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("metric %d: %w", i, err)
		}
		metrics = append(metrics, req.ToMetric(now))
	}

	if err := s.store.InsertMetricBatch(ctx, metrics); err != nil {
		return nil, fmt.Errorf("failed to record metric batch: %w", err)
	}

	result := &BatchResult{Recorded: len(metrics), AlertsEvaluated: true}
	for _, m := range metrics {
		events, err := evaluateMetric(ctx, s.store, m, now)
		if err != nil {
			logrus.Warnf("Alert evaluation failed for metric %s (%s): %v", m.ID, m.Name, err)
			result.AlertsEvaluated = false
			continue
		}
		result.AlertsTriggered += len(events)
	}
	return result, nil
}

// QueryMetrics returns metrics matching the filter, newest first. The
// limit defaults to 100 and is capped at 1000.
func (s *MetricService) QueryMetrics(ctx context.Context, f models.MetricFilter) ([]*models.Metric, error) {
	if f.Type != "" && !f.Type.IsValid() {
		return nil, models.NewValidationError("metric_type", "unknown value: "+string(f.Type))
	}
	if f.Limit <= 0 {
		f.Limit = defaultQueryLimit
	}
	if f.Limit > maxQueryLimit {
		f.Limit = maxQueryLimit
	}
	return s.store.QueryMetrics(ctx, f)
}

// Aggregate returns the bucketed aggregation for a metric name, serving
// repeated queries from the cache.
func (s *MetricService) Aggregate(ctx context.Context, metricName string, agg models.Aggregation, period models.AggregationPeriod, start, end *time.Time) ([]models.AggregatedPoint, error) {
	if metricName == "" {
		return nil, models.NewValidationError("metric_name", "is required")
	}
	if !agg.IsValid() {
		return nil, models.NewValidationError("aggregation", "unknown value: "+string(agg))
	}
	if !period.IsValid() {
		return nil, models.NewValidationError("period", "unknown value: "+string(period))
	}

	key := CacheKey(metricName, agg, period, start, end)
	if points, ok := s.cache.Get(ctx, key); ok {
		return points, nil
	}

	points, err := s.store.Aggregate(ctx, metricName, agg, period, start, end)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, points)
	return points, nil
}
