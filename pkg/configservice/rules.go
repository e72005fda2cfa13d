package configservice

import (
	"github.com/fature/monitoring-service/pkg/models"
)

// ChannelToggles mirrors the notification feature flags from the config
// service.
type ChannelToggles struct {
	Email   bool
	Slack   bool
	Webhook bool
	SMS     bool
}

// Toggles extracts the channel toggles from a monitoring config.
func (c *MonitoringConfig) Toggles() ChannelToggles {
	return ChannelToggles{
		Email:   c.EmailEnabled,
		Slack:   c.SlackEnabled,
		Webhook: c.WebhookEnabled,
		SMS:     c.SMSEnabled,
	}
}

// ResolveChannels returns the requested channels that are currently
// enabled, preserving the requested order.
func ResolveChannels(requested []string, toggles ChannelToggles) []string {
	enabled := map[string]bool{
		"email":   toggles.Email,
		"slack":   toggles.Slack,
		"webhook": toggles.Webhook,
		"sms":     toggles.SMS,
	}
	resolved := make([]string, 0, len(requested))
	for _, ch := range requested {
		if enabled[ch] {
			resolved = append(resolved, ch)
		}
	}
	return resolved
}

// BuildAlertRules produces the standard rule set from configured
// thresholds. Rules whose requested channels are all disabled are
// dropped entirely.
func BuildAlertRules(cfg *MonitoringConfig) []models.CreateAlertRuleRequest {
	toggles := cfg.Toggles()

	candidates := []struct {
		name       string
		metricName string
		operator   models.RuleOperator
		threshold  float64
		severity   models.RuleSeverity
		channels   []string
		recipients []string
	}{
		{
			name:       "Low Revenue Alert",
			metricName: "revenue_hourly",
			operator:   models.OperatorLessThan,
			threshold:  cfg.RevenueLowThreshold,
			severity:   models.SeverityMedium,
			channels:   []string{"email", "slack"},
			recipients: []string{"admin@fature.com", "finance@fature.com"},
		},
		{
			name:       "High API Response Time",
			metricName: "api_response_time",
			operator:   models.OperatorGreaterThan,
			threshold:  cfg.APIResponseThresholdMs,
			severity:   models.SeverityHigh,
			channels:   []string{"slack", "webhook"},
			recipients: []string{"devops@fature.com"},
		},
		{
			name:       "Low Conversion Rate",
			metricName: "conversion_rate",
			operator:   models.OperatorLessThan,
			threshold:  cfg.ConversionLowThreshold,
			severity:   models.SeverityMedium,
			channels:   []string{"email"},
			recipients: []string{"marketing@fature.com"},
		},
		{
			name:       "High Commission Payout",
			metricName: "commission_paid",
			operator:   models.OperatorGreaterThan,
			threshold:  cfg.CommissionHighThreshold,
			severity:   models.SeverityLow,
			channels:   []string{"email"},
			recipients: []string{"finance@fature.com"},
		},
		{
			name:       "Low Active Users",
			metricName: "active_users",
			operator:   models.OperatorLessThan,
			threshold:  cfg.ActiveUsersLowThreshold,
			severity:   models.SeverityMedium,
			channels:   []string{"email", "slack"},
			recipients: []string{"product@fature.com"},
		},
		{
			name:       "High Error Rate",
			metricName: "error_rate",
			operator:   models.OperatorGreaterThan,
			threshold:  cfg.ErrorRateThreshold,
			severity:   models.SeverityCritical,
			channels:   []string{"email", "slack", "webhook"},
			recipients: []string{"devops@fature.com", "admin@fature.com"},
		},
		{
			name:       "High CPU Usage",
			metricName: "cpu_usage",
			operator:   models.OperatorGreaterThan,
			threshold:  cfg.CPUUsageThreshold,
			severity:   models.SeverityHigh,
			channels:   []string{"slack"},
			recipients: []string{"devops@fature.com"},
		},
		{
			name:       "High Memory Usage",
			metricName: "memory_usage",
			operator:   models.OperatorGreaterThan,
			threshold:  cfg.MemoryUsageThreshold,
			severity:   models.SeverityHigh,
			channels:   []string{"slack"},
			recipients: []string{"devops@fature.com"},
		},
	}

	active := true
	rules := make([]models.CreateAlertRuleRequest, 0, len(candidates))
	for _, c := range candidates {
		channels := ResolveChannels(c.channels, toggles)
		if len(channels) == 0 {
			continue
		}
		threshold := c.threshold
		rules = append(rules, models.CreateAlertRuleRequest{
			Name:       c.name,
			MetricName: c.metricName,
			Operator:   c.operator,
			Threshold:  &threshold,
			Severity:   c.severity,
			Channels:   channels,
			Recipients: c.recipients,
			IsActive:   &active,
		})
	}
	return rules
}
