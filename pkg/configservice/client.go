package configservice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// MonitoringConfig holds every tunable the monitoring service reads from
// the central config service. Missing or unreachable keys fall back to
// the defaults below, so a populated config is always available.
type MonitoringConfig struct {
	// Retention, in days
	RetentionRealtimeDays int
	RetentionHourlyDays   int
	RetentionDailyDays    int
	RetentionMonthlyDays  int
	RetentionAlertsDays   int
	RetentionHealthDays   int

	// Collection and query limits
	BatchSizeLimit          int
	CollectionIntervalSecs  int
	AggregationIntervalSecs int
	QueryTimeoutSecs        int
	CacheTTLSecs            int

	// Alerting
	DefaultSeverity       string
	NotificationTimeout   int
	NotificationRetries   int
	NotificationRetryWait int

	// Alert thresholds
	RevenueLowThreshold     float64
	APIResponseThresholdMs  float64
	ConversionLowThreshold  float64
	CommissionHighThreshold float64
	ActiveUsersLowThreshold float64
	ErrorRateThreshold      float64
	CPUUsageThreshold       float64
	MemoryUsageThreshold    float64

	// Notification channel toggles
	EmailEnabled   bool
	SlackEnabled   bool
	WebhookEnabled bool
	SMSEnabled     bool

	// Notification endpoints
	SMTPHost        string
	SMTPPort        int
	SlackWebhookURL string
	WebhookURL      string
}

// fallbacks is the complete default value set, keyed by config-service key.
var fallbacks = map[string]interface{}{
	"monitoring.retention.realtime_days": 7,
	"monitoring.retention.hourly_days":   90,
	"monitoring.retention.daily_days":    730,
	"monitoring.retention.monthly_days":  1825,
	"monitoring.retention.alerts_days":   365,
	"monitoring.retention.health_days":   30,

	"monitoring.collection.batch_size_limit":     1000,
	"monitoring.collection.interval_seconds":     60,
	"monitoring.aggregation.interval_seconds":    300,
	"monitoring.query.timeout_seconds":           30,
	"monitoring.query.cache_ttl_seconds":         300,
	"monitoring.alerting.default_severity":       "medium",
	"monitoring.alerting.notification_timeout":   30,
	"monitoring.alerting.notification_retries":   3,
	"monitoring.alerting.notification_delay":     60,
	"monitoring.thresholds.revenue_low":          1500.0,
	"monitoring.thresholds.api_response_ms":      250.0,
	"monitoring.thresholds.conversion_low":       0.03,
	"monitoring.thresholds.commission_high":      500.0,
	"monitoring.thresholds.active_users_low":     75.0,
	"monitoring.thresholds.error_rate":           0.05,
	"monitoring.thresholds.cpu_usage":            0.80,
	"monitoring.thresholds.memory_usage":         0.85,
	"monitoring.notifications.email_enabled":     true,
	"monitoring.notifications.slack_enabled":     true,
	"monitoring.notifications.webhook_enabled":   false,
	"monitoring.notifications.sms_enabled":       false,
	"monitoring.notifications.smtp_host":         "smtp.gmail.com",
	"monitoring.notifications.smtp_port":         587,
	"monitoring.notifications.slack_webhook_url": "",
	"monitoring.notifications.webhook_url":       "",
}

// Client fetches configuration values from the central config service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a config-service client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type configResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Value interface{} `json:"value"`
	} `json:"data"`
}

// getValue fetches one key; on any failure it logs and returns the fallback.
func (c *Client) getValue(ctx context.Context, key string) interface{} {
	fallback := fallbacks[key]

	url := fmt.Sprintf("%s/api/v1/config/%s", c.baseURL, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fallback
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logrus.Warnf("Config service unreachable for %s, using fallback: %v", key, err)
		return fallback
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logrus.Warnf("Config service returned %d for %s, using fallback", resp.StatusCode, key)
		return fallback
	}

	var body configResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		logrus.Warnf("Failed to decode config response for %s, using fallback: %v", key, err)
		return fallback
	}
	if !body.Success || body.Data.Value == nil {
		return fallback
	}
	return body.Data.Value
}

func (c *Client) getInt(ctx context.Context, key string) int {
	return toInt(c.getValue(ctx, key), fallbacks[key])
}

func (c *Client) getFloat(ctx context.Context, key string) float64 {
	return toFloat(c.getValue(ctx, key), fallbacks[key])
}

func (c *Client) getBool(ctx context.Context, key string) bool {
	return toBool(c.getValue(ctx, key), fallbacks[key])
}

func (c *Client) getString(ctx context.Context, key string) string {
	if s, ok := c.getValue(ctx, key).(string); ok {
		return s
	}
	if s, ok := fallbacks[key].(string); ok {
		return s
	}
	return ""
}

// FetchMonitoringConfig loads the full monitoring configuration. It never
// fails: every key degrades to its fallback independently.
func (c *Client) FetchMonitoringConfig(ctx context.Context) *MonitoringConfig {
	return &MonitoringConfig{
		RetentionRealtimeDays: c.getInt(ctx, "monitoring.retention.realtime_days"),
		RetentionHourlyDays:   c.getInt(ctx, "monitoring.retention.hourly_days"),
		RetentionDailyDays:    c.getInt(ctx, "monitoring.retention.daily_days"),
		RetentionMonthlyDays:  c.getInt(ctx, "monitoring.retention.monthly_days"),
		RetentionAlertsDays:   c.getInt(ctx, "monitoring.retention.alerts_days"),
		RetentionHealthDays:   c.getInt(ctx, "monitoring.retention.health_days"),

		BatchSizeLimit:          c.getInt(ctx, "monitoring.collection.batch_size_limit"),
		CollectionIntervalSecs:  c.getInt(ctx, "monitoring.collection.interval_seconds"),
		AggregationIntervalSecs: c.getInt(ctx, "monitoring.aggregation.interval_seconds"),
		QueryTimeoutSecs:        c.getInt(ctx, "monitoring.query.timeout_seconds"),
		CacheTTLSecs:            c.getInt(ctx, "monitoring.query.cache_ttl_seconds"),

		DefaultSeverity:       c.getString(ctx, "monitoring.alerting.default_severity"),
		NotificationTimeout:   c.getInt(ctx, "monitoring.alerting.notification_timeout"),
		NotificationRetries:   c.getInt(ctx, "monitoring.alerting.notification_retries"),
		NotificationRetryWait: c.getInt(ctx, "monitoring.alerting.notification_delay"),

		RevenueLowThreshold:     c.getFloat(ctx, "monitoring.thresholds.revenue_low"),
		APIResponseThresholdMs:  c.getFloat(ctx, "monitoring.thresholds.api_response_ms"),
		ConversionLowThreshold:  c.getFloat(ctx, "monitoring.thresholds.conversion_low"),
		CommissionHighThreshold: c.getFloat(ctx, "monitoring.thresholds.commission_high"),
		ActiveUsersLowThreshold: c.getFloat(ctx, "monitoring.thresholds.active_users_low"),
		ErrorRateThreshold:      c.getFloat(ctx, "monitoring.thresholds.error_rate"),
		CPUUsageThreshold:       c.getFloat(ctx, "monitoring.thresholds.cpu_usage"),
		MemoryUsageThreshold:    c.getFloat(ctx, "monitoring.thresholds.memory_usage"),

		EmailEnabled:   c.getBool(ctx, "monitoring.notifications.email_enabled"),
		SlackEnabled:   c.getBool(ctx, "monitoring.notifications.slack_enabled"),
		WebhookEnabled: c.getBool(ctx, "monitoring.notifications.webhook_enabled"),
		SMSEnabled:     c.getBool(ctx, "monitoring.notifications.sms_enabled"),

		SMTPHost:        c.getString(ctx, "monitoring.notifications.smtp_host"),
		SMTPPort:        c.getInt(ctx, "monitoring.notifications.smtp_port"),
		SlackWebhookURL: c.getString(ctx, "monitoring.notifications.slack_webhook_url"),
		WebhookURL:      c.getString(ctx, "monitoring.notifications.webhook_url"),
	}
}

func toInt(v, fallback interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	case string:
		if parsed, err := strconv.Atoi(n); err == nil {
			return parsed
		}
	}
	if n, ok := fallback.(int); ok {
		return n
	}
	return 0
}

func toFloat(v, fallback interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		if parsed, err := strconv.ParseFloat(n, 64); err == nil {
			return parsed
		}
	}
	switch n := fallback.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}

func toBool(v, fallback interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(b); err == nil {
			return parsed
		}
	}
	if b, ok := fallback.(bool); ok {
		return b
	}
	return false
}
