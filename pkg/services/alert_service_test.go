package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fature/monitoring-service/pkg/configservice"
	"github.com/fature/monitoring-service/pkg/models"
	"github.com/fature/monitoring-service/pkg/store"
)

func newTestAlertService(t *testing.T) *AlertService {
	t.Helper()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAlertService(db)
}

func validRuleRequest(name string) *models.CreateAlertRuleRequest {
	return &models.CreateAlertRuleRequest{
		Name:       name,
		MetricName: "revenue_hourly",
		Operator:   models.OperatorLessThan,
		Threshold:  floatPtr(1500),
		Severity:   models.SeverityMedium,
		Channels:   []string{"email"},
		Recipients: []string{"admin@fature.com"},
	}
}

func TestCreateAlertRuleDefaults(t *testing.T) {
	svc := newTestAlertService(t)
	ctx := context.Background()

	rule, err := svc.CreateAlertRule(ctx, validRuleRequest("Low Revenue Alert"))
	require.NoError(t, err)
	assert.NotEmpty(t, rule.ID)
	assert.True(t, rule.IsActive)
	assert.Equal(t, int64(0), rule.TriggerCount)
	assert.Nil(t, rule.LastTriggered)
}

func TestCreateAlertRuleDuplicateName(t *testing.T) {
	svc := newTestAlertService(t)
	ctx := context.Background()

	_, err := svc.CreateAlertRule(ctx, validRuleRequest("Low Revenue Alert"))
	require.NoError(t, err)

	_, err = svc.CreateAlertRule(ctx, validRuleRequest("Low Revenue Alert"))
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))
	assert.Contains(t, err.Error(), "already exists")
}

func TestCreateAlertRuleValidation(t *testing.T) {
	svc := newTestAlertService(t)
	ctx := context.Background()

	req := validRuleRequest("Bad Operator")
	req.Operator = "~"
	_, err := svc.CreateAlertRule(ctx, req)
	assert.True(t, models.IsValidationError(err))

	req = validRuleRequest("No Threshold")
	req.Threshold = nil
	_, err = svc.CreateAlertRule(ctx, req)
	assert.True(t, models.IsValidationError(err))

	req = validRuleRequest("Bad Severity")
	req.Severity = "urgent"
	_, err = svc.CreateAlertRule(ctx, req)
	assert.True(t, models.IsValidationError(err))
}

func TestUpdateAlertRulePreservesTriggerState(t *testing.T) {
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	alerts := NewAlertService(db)
	metrics := NewMetricService(db, newMemoryCache(0), testConfig())
	ctx := context.Background()

	rule, err := alerts.CreateAlertRule(ctx, validRuleRequest("Low Revenue Alert"))
	require.NoError(t, err)

	_, err = metrics.RecordMetric(ctx, revenueRequest(1200))
	require.NoError(t, err)

	threshold := 2000.0
	updated, err := alerts.UpdateAlertRule(ctx, rule.ID, &models.UpdateAlertRuleRequest{
		Threshold: &threshold,
	})
	require.NoError(t, err)
	assert.Equal(t, 2000.0, updated.Threshold)
	// Trigger bookkeeping survives the definition update
	assert.Equal(t, int64(1), updated.TriggerCount)
	assert.NotNil(t, updated.LastTriggered)
}

func TestUpdateAlertRuleNotFound(t *testing.T) {
	svc := newTestAlertService(t)
	ctx := context.Background()

	threshold := 10.0
	_, err := svc.UpdateAlertRule(ctx, "missing", &models.UpdateAlertRuleRequest{Threshold: &threshold})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteAlertRuleKeepsEvents(t *testing.T) {
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	alerts := NewAlertService(db)
	metrics := NewMetricService(db, newMemoryCache(0), testConfig())
	ctx := context.Background()

	rule, err := alerts.CreateAlertRule(ctx, validRuleRequest("Low Revenue Alert"))
	require.NoError(t, err)
	_, err = metrics.RecordMetric(ctx, revenueRequest(1200))
	require.NoError(t, err)

	require.NoError(t, alerts.DeleteAlertRule(ctx, rule.ID))

	events, err := alerts.ListAlertEvents(ctx, models.AlertEventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, rule.ID, events[0].RuleID)
	assert.Equal(t, "Low Revenue Alert", events[0].RuleName)
}

func TestListAlertEventsValidatesFilters(t *testing.T) {
	svc := newTestAlertService(t)
	ctx := context.Background()

	_, err := svc.ListAlertEvents(ctx, models.AlertEventFilter{Status: "closed"})
	assert.True(t, models.IsValidationError(err))

	_, err = svc.ListAlertEvents(ctx, models.AlertEventFilter{Severity: "urgent"})
	assert.True(t, models.IsValidationError(err))
}

func TestAcknowledgeAndResolveLifecycle(t *testing.T) {
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	alerts := NewAlertService(db)
	metrics := NewMetricService(db, newMemoryCache(0), testConfig())
	ctx := context.Background()

	_, err = alerts.CreateAlertRule(ctx, validRuleRequest("Low Revenue Alert"))
	require.NoError(t, err)
	_, err = metrics.RecordMetric(ctx, revenueRequest(1200))
	require.NoError(t, err)

	events, err := alerts.ListAlertEvents(ctx, models.AlertEventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)

	acked, err := alerts.AcknowledgeAlertEvent(ctx, events[0].ID, "oncall")
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusAcknowledged, acked.Status)
	assert.Equal(t, "oncall", acked.AcknowledgedBy)
	assert.NotNil(t, acked.AcknowledgedAt)

	resolved, err := alerts.ResolveAlertEvent(ctx, events[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusResolved, resolved.Status)
	assert.NotNil(t, resolved.ResolvedAt)

	_, err = alerts.AcknowledgeAlertEvent(ctx, "missing", "oncall")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSyncGeneratedRules(t *testing.T) {
	svc := newTestAlertService(t)
	ctx := context.Background()

	cfg := configservice.NewClient("http://127.0.0.1:1").FetchMonitoringConfig(ctx)
	generated := configservice.BuildAlertRules(cfg)
	require.NoError(t, svc.SyncGeneratedRules(ctx, generated))

	rules, err := svc.ListAlertRules(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, len(generated))

	// Re-syncing is idempotent and keeps operator edits
	var revenueID string
	for _, r := range rules {
		if r.Name == "Low Revenue Alert" {
			revenueID = r.ID
		}
	}
	require.NotEmpty(t, revenueID)
	threshold := 9999.0
	_, err = svc.UpdateAlertRule(ctx, revenueID, &models.UpdateAlertRuleRequest{Threshold: &threshold})
	require.NoError(t, err)

	require.NoError(t, svc.SyncGeneratedRules(ctx, generated))
	rules, err = svc.ListAlertRules(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, len(generated))

	edited, err := svc.GetAlertRule(ctx, revenueID)
	require.NoError(t, err)
	assert.Equal(t, 9999.0, edited.Threshold)
}
