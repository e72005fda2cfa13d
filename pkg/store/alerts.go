package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fature/monitoring-service/pkg/models"
)

const eventColumns = `id, alert_rule_id, rule_name, metric_value, threshold_value, severity,
	message, context, status, acknowledged_by, acknowledged_at, resolved_at, created_at`

// SaveEvaluation persists the outcome of evaluating one metric: every
// triggered event is inserted and its rule's trigger bookkeeping is
// bumped, all in a single transaction.
func (s *Store) SaveEvaluation(ctx context.Context, events []*models.AlertEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, e := range events {
		contextJSON, err := json.Marshal(e.Context)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to encode alert context: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO alert_events (`+eventColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.RuleID, e.RuleName, e.MetricValue, e.Threshold,
			string(e.Severity), e.Message, string(contextJSON), string(e.Status),
			nullableString(e.AcknowledgedBy), formatNullableTime(e.AcknowledgedAt),
			formatNullableTime(e.ResolvedAt), formatTime(e.CreatedAt)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert alert event: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE alert_rules
			SET trigger_count = trigger_count + 1, last_triggered = ?, updated_at = ?
			WHERE id = ?`,
			formatTime(e.CreatedAt), formatTime(e.CreatedAt), e.RuleID); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to update rule trigger state: %w", err)
		}
	}
	return tx.Commit()
}

// ListAlertEvents returns events matching the filter, newest first.
func (s *Store) ListAlertEvents(ctx context.Context, f models.AlertEventFilter) ([]*models.AlertEvent, error) {
	query := "SELECT " + eventColumns + " FROM alert_events WHERE 1=1"
	args := make([]interface{}, 0, 3)

	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, string(f.Status))
	}
	if f.Severity != "" {
		query += " AND severity = ?"
		args = append(args, string(f.Severity))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alert events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.AlertEvent, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetAlertEvent returns the event with the given ID, or ErrNotFound.
func (s *Store) GetAlertEvent(ctx context.Context, id string) (*models.AlertEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM alert_events WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get alert event: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return scanEvent(rows)
}

// AcknowledgeAlertEvent transitions an event to acknowledged.
func (s *Store) AcknowledgeAlertEvent(ctx context.Context, id, acknowledgedBy string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE alert_events
		SET status = ?, acknowledged_by = ?, acknowledged_at = ?
		WHERE id = ?`,
		string(models.AlertStatusAcknowledged), nullableString(acknowledgedBy),
		formatTime(at), id)
	if err != nil {
		return fmt.Errorf("failed to acknowledge alert event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read acknowledge result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ResolveAlertEvent transitions an event to resolved.
func (s *Store) ResolveAlertEvent(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE alert_events SET status = ?, resolved_at = ? WHERE id = ?`,
		string(models.AlertStatusResolved), formatTime(at), id)
	if err != nil {
		return fmt.Errorf("failed to resolve alert event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read resolve result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanEvent(rows *sql.Rows) (*models.AlertEvent, error) {
	var e models.AlertEvent
	var severity, status, createdAt string
	var contextJSON, acknowledgedBy, acknowledgedAt, resolvedAt sql.NullString

	if err := rows.Scan(&e.ID, &e.RuleID, &e.RuleName, &e.MetricValue, &e.Threshold,
		&severity, &e.Message, &contextJSON, &status, &acknowledgedBy,
		&acknowledgedAt, &resolvedAt, &createdAt); err != nil {
		return nil, fmt.Errorf("failed to scan alert event: %w", err)
	}

	e.Severity = models.RuleSeverity(severity)
	e.Status = models.AlertStatus(status)
	e.AcknowledgedBy = acknowledgedBy.String
	e.AcknowledgedAt = parseNullableTime(acknowledgedAt)
	e.ResolvedAt = parseNullableTime(resolvedAt)
	e.CreatedAt = parseTime(createdAt)

	if contextJSON.Valid && contextJSON.String != "" {
		if err := json.Unmarshal([]byte(contextJSON.String), &e.Context); err != nil {
			return nil, fmt.Errorf("failed to decode alert context: %w", err)
		}
	}
	return &e, nil
}
