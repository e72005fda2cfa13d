package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fature/monitoring-service/pkg/models"
)

const healthColumns = `id, service_name, status, response_time_ms, error_rate,
	cpu_usage, memory_usage, version, uptime_seconds, last_error, timestamp`

// InsertServiceHealth appends one health snapshot.
func (s *Store) InsertServiceHealth(ctx context.Context, h *models.ServiceHealth) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO service_health (`+healthColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.ServiceName, string(h.Status), h.ResponseTimeMs, h.ErrorRate,
		h.CPUUsage, h.MemoryUsage, nullableString(h.Version), h.UptimeSeconds,
		nullableString(h.LastError), formatTime(h.Timestamp))
	if err != nil {
		return fmt.Errorf("failed to insert service health: %w", err)
	}
	return nil
}

// LatestServiceHealth returns the most recent snapshot per service name,
// ordered by service name. Ties on timestamp resolve to one arbitrary row.
func (s *Store) LatestServiceHealth(ctx context.Context) ([]*models.ServiceHealth, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT h.id, h.service_name, h.status, h.response_time_ms, h.error_rate,
			h.cpu_usage, h.memory_usage, h.version, h.uptime_seconds, h.last_error, h.timestamp
		FROM service_health h
		JOIN (
			SELECT service_name, MAX(timestamp) AS max_ts
			FROM service_health
			GROUP BY service_name
		) latest ON h.service_name = latest.service_name AND h.timestamp = latest.max_ts
		GROUP BY h.service_name
		ORDER BY h.service_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest service health: %w", err)
	}
	defer rows.Close()

	snapshots := make([]*models.ServiceHealth, 0)
	for rows.Next() {
		h, err := scanHealth(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, h)
	}
	return snapshots, rows.Err()
}

func scanHealth(rows *sql.Rows) (*models.ServiceHealth, error) {
	var h models.ServiceHealth
	var status, ts string
	var version, lastError sql.NullString

	if err := rows.Scan(&h.ID, &h.ServiceName, &status, &h.ResponseTimeMs,
		&h.ErrorRate, &h.CPUUsage, &h.MemoryUsage, &version, &h.UptimeSeconds,
		&lastError, &ts); err != nil {
		return nil, fmt.Errorf("failed to scan service health: %w", err)
	}

	h.Status = models.HealthStatus(status)
	h.Version = version.String
	h.LastError = lastError.String
	h.Timestamp = parseTime(ts)
	return &h, nil
}
