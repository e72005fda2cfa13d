package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fature/monitoring-service/pkg/models"
)

// ErrNotFound is returned when a lookup by ID matches no row.
var ErrNotFound = errors.New("not found")

const ruleColumns = `id, rule_name, metric_name, condition, threshold_value, severity,
	notification_channels, notification_recipients, is_active, last_triggered,
	trigger_count, created_at, updated_at`

// CreateAlertRule persists a new rule.
func (s *Store) CreateAlertRule(ctx context.Context, rule *models.AlertRule) error {
	channels, err := marshalStringList(rule.Channels)
	if err != nil {
		return err
	}
	recipients, err := marshalStringList(rule.Recipients)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO alert_rules (`+ruleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.ID, rule.Name, rule.MetricName, string(rule.Operator), rule.Threshold,
		string(rule.Severity), channels, recipients, boolToInt(rule.IsActive),
		formatNullableTime(rule.LastTriggered), rule.TriggerCount,
		formatTime(rule.CreatedAt), formatTime(rule.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert alert rule: %w", err)
	}
	return nil
}

// RuleNameExists reports whether a rule with this name already exists.
func (s *Store) RuleNameExists(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM alert_rules WHERE rule_name = ?", name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check rule name: %w", err)
	}
	return n > 0, nil
}

// ListAlertRules returns all rules, newest first.
func (s *Store) ListAlertRules(ctx context.Context) ([]*models.AlertRule, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+ruleColumns+" FROM alert_rules ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list alert rules: %w", err)
	}
	defer rows.Close()
	return collectRules(rows)
}

// GetAlertRule returns the rule with the given ID, or ErrNotFound.
func (s *Store) GetAlertRule(ctx context.Context, id string) (*models.AlertRule, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+ruleColumns+" FROM alert_rules WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get alert rule: %w", err)
	}
	defer rows.Close()

	rules, err := collectRules(rows)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, ErrNotFound
	}
	return rules[0], nil
}

// GetActiveRulesForMetric returns the active rules bound to a metric name.
func (s *Store) GetActiveRulesForMetric(ctx context.Context, metricName string) ([]*models.AlertRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+ruleColumns+` FROM alert_rules
		WHERE metric_name = ? AND is_active = 1`, metricName)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules for metric: %w", err)
	}
	defer rows.Close()
	return collectRules(rows)
}

// UpdateAlertRule overwrites the rule's definition fields. Trigger
// bookkeeping is deliberately not written through this path.
func (s *Store) UpdateAlertRule(ctx context.Context, rule *models.AlertRule) error {
	channels, err := marshalStringList(rule.Channels)
	if err != nil {
		return err
	}
	recipients, err := marshalStringList(rule.Recipients)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE alert_rules
		SET metric_name = ?, condition = ?, threshold_value = ?, severity = ?,
			notification_channels = ?, notification_recipients = ?,
			is_active = ?, updated_at = ?
		WHERE id = ?`,
		rule.MetricName, string(rule.Operator), rule.Threshold, string(rule.Severity),
		channels, recipients, boolToInt(rule.IsActive),
		formatTime(rule.UpdatedAt), rule.ID)
	if err != nil {
		return fmt.Errorf("failed to update alert rule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAlertRule removes the rule with the given ID, or returns
// ErrNotFound. Past alert events referencing the rule are kept.
func (s *Store) DeleteAlertRule(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM alert_rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete alert rule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func collectRules(rows *sql.Rows) ([]*models.AlertRule, error) {
	rules := make([]*models.AlertRule, 0)
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func scanRule(rows *sql.Rows) (*models.AlertRule, error) {
	var r models.AlertRule
	var operator, severity, channels, recipients, createdAt, updatedAt string
	var isActive int
	var lastTriggered sql.NullString

	if err := rows.Scan(&r.ID, &r.Name, &r.MetricName, &operator, &r.Threshold,
		&severity, &channels, &recipients, &isActive, &lastTriggered,
		&r.TriggerCount, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan alert rule: %w", err)
	}

	r.Operator = models.RuleOperator(operator)
	r.Severity = models.RuleSeverity(severity)
	r.IsActive = isActive != 0
	r.LastTriggered = parseNullableTime(lastTriggered)
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)

	var err error
	if r.Channels, err = unmarshalStringList(channels); err != nil {
		return nil, fmt.Errorf("failed to decode rule channels: %w", err)
	}
	if r.Recipients, err = unmarshalStringList(recipients); err != nil {
		return nil, fmt.Errorf("failed to decode rule recipients: %w", err)
	}
	return &r, nil
}

func marshalStringList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode string list: %w", err)
	}
	return string(raw), nil
}

func unmarshalStringList(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, err
	}
	return values, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
