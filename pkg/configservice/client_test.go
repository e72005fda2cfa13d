package configservice

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fature/monitoring-service/pkg/models"
)

func TestFetchMonitoringConfigFromService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/api/v1/config/")
		switch key {
		case "monitoring.thresholds.revenue_low":
			fmt.Fprint(w, `{"success":true,"data":{"value":2500.0}}`)
		case "monitoring.collection.batch_size_limit":
			fmt.Fprint(w, `{"success":true,"data":{"value":500}}`)
		case "monitoring.notifications.slack_enabled":
			fmt.Fprint(w, `{"success":true,"data":{"value":false}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	cfg := NewClient(server.URL).FetchMonitoringConfig(context.Background())

	// Served values win
	assert.Equal(t, 2500.0, cfg.RevenueLowThreshold)
	assert.Equal(t, 500, cfg.BatchSizeLimit)
	assert.False(t, cfg.SlackEnabled)

	// Everything else degrades to fallbacks
	assert.Equal(t, 300, cfg.CacheTTLSecs)
	assert.Equal(t, 0.05, cfg.ErrorRateThreshold)
	assert.True(t, cfg.EmailEnabled)
	assert.Equal(t, "smtp.gmail.com", cfg.SMTPHost)
}

func TestFetchMonitoringConfigUnreachable(t *testing.T) {
	cfg := NewClient("http://127.0.0.1:1").FetchMonitoringConfig(context.Background())

	assert.Equal(t, 1000, cfg.BatchSizeLimit)
	assert.Equal(t, 1500.0, cfg.RevenueLowThreshold)
	assert.Equal(t, 250.0, cfg.APIResponseThresholdMs)
	assert.Equal(t, 0.03, cfg.ConversionLowThreshold)
	assert.Equal(t, "medium", cfg.DefaultSeverity)
	assert.Equal(t, 7, cfg.RetentionRealtimeDays)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.True(t, cfg.EmailEnabled)
	assert.True(t, cfg.SlackEnabled)
	assert.False(t, cfg.WebhookEnabled)
	assert.False(t, cfg.SMSEnabled)
}

func TestResolveChannels(t *testing.T) {
	toggles := ChannelToggles{Email: true, Slack: false, Webhook: true}

	assert.Equal(t, []string{"email"}, ResolveChannels([]string{"email", "slack"}, toggles))
	assert.Equal(t, []string{"email", "webhook"}, ResolveChannels([]string{"email", "slack", "webhook"}, toggles))
	assert.Empty(t, ResolveChannels([]string{"slack", "sms"}, toggles))
}

func TestBuildAlertRules(t *testing.T) {
	cfg := NewClient("http://127.0.0.1:1").FetchMonitoringConfig(context.Background())

	rules := BuildAlertRules(cfg)
	require.Len(t, rules, 8)

	byName := make(map[string]models.CreateAlertRuleRequest, len(rules))
	for _, r := range rules {
		byName[r.Name] = r
	}

	revenue := byName["Low Revenue Alert"]
	assert.Equal(t, "revenue_hourly", revenue.MetricName)
	assert.Equal(t, models.OperatorLessThan, revenue.Operator)
	require.NotNil(t, revenue.Threshold)
	assert.Equal(t, 1500.0, *revenue.Threshold)
	assert.Equal(t, models.SeverityMedium, revenue.Severity)
	assert.Equal(t, []string{"email", "slack"}, revenue.Channels)

	errorRate := byName["High Error Rate"]
	assert.Equal(t, models.SeverityCritical, errorRate.Severity)
	// Webhook is off by default, so it drops out of the requested set
	assert.Equal(t, []string{"email", "slack"}, errorRate.Channels)

	apiTime := byName["High API Response Time"]
	// Only slack survives with webhook disabled
	assert.Equal(t, []string{"slack"}, apiTime.Channels)
}

func TestBuildAlertRulesDropsChannellessRules(t *testing.T) {
	cfg := NewClient("http://127.0.0.1:1").FetchMonitoringConfig(context.Background())
	cfg.EmailEnabled = false
	cfg.SlackEnabled = false
	cfg.WebhookEnabled = false
	cfg.SMSEnabled = false

	assert.Empty(t, BuildAlertRules(cfg))

	cfg.EmailEnabled = true
	rules := BuildAlertRules(cfg)
	// Only the rules that request email survive
	require.Len(t, rules, 5)
	for _, r := range rules {
		assert.Equal(t, []string{"email"}, r.Channels)
	}
}
