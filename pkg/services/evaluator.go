package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fature/monitoring-service/pkg/models"
	"github.com/fature/monitoring-service/pkg/store"
)

// EvaluateCondition applies a rule operator to a metric value. Equality
// operators compare floats exactly; thresholds come from the same JSON
// pipeline as values, so exact matches are meaningful.
func EvaluateCondition(value float64, op models.RuleOperator, threshold float64) bool {
	switch op {
	case models.OperatorGreaterThan:
		return value > threshold
	case models.OperatorLessThan:
		return value < threshold
	case models.OperatorGreaterOrEqual:
		return value >= threshold
	case models.OperatorLessOrEqual:
		return value <= threshold
	case models.OperatorEqual:
		return value == threshold
	case models.OperatorNotEqual:
		return value != threshold
	}
	return false
}

// formatMetricValue renders a float the way alert consumers expect:
// integral values keep a trailing ".0" (1500 renders as "1500.0").
func formatMetricValue(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func buildAlertMessage(metricName string, value float64, unit string, op models.RuleOperator, threshold float64) string {
	return fmt.Sprintf("Alert triggered: %s = %s %s (%s %s)",
		metricName, formatMetricValue(value), unit, op, formatMetricValue(threshold))
}

// evaluateMetric checks the metric against every active rule bound to its
// name and persists any triggered events atomically with the rules'
// trigger bookkeeping. It returns the triggered events.
func evaluateMetric(ctx context.Context, db store.MetricStore, m *models.Metric, now time.Time) ([]*models.AlertEvent, error) {
	rules, err := db.GetActiveRulesForMetric(ctx, m.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules for %s: %w", m.Name, err)
	}

	events := make([]*models.AlertEvent, 0)
	for _, rule := range rules {
		if !EvaluateCondition(m.Value, rule.Operator, rule.Threshold) {
			continue
		}
		events = append(events, &models.AlertEvent{
			ID:          uuid.New().String(),
			RuleID:      rule.ID,
			RuleName:    rule.Name,
			MetricValue: m.Value,
			Threshold:   rule.Threshold,
			Severity:    rule.Severity,
			Message:     buildAlertMessage(m.Name, m.Value, m.Unit, rule.Operator, rule.Threshold),
			Context: models.AlertContext{
				MetricID:    m.ID,
				ServiceName: m.ServiceName,
				AffiliateID: m.AffiliateID,
				UserID:      m.UserID,
				Timestamp:   m.Timestamp,
			},
			Status:    models.AlertStatusOpen,
			CreatedAt: now.UTC(),
		})
	}

	if err := db.SaveEvaluation(ctx, events); err != nil {
		return nil, fmt.Errorf("failed to save evaluation: %w", err)
	}
	return events, nil
}
