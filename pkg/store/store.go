package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/fature/monitoring-service/pkg/models"
)

// timeLayout is how timestamps are persisted: UTC, millisecond precision,
// lexically sortable and compatible with sqlite strftime().
const timeLayout = "2006-01-02 15:04:05.000"

// Store provides durable persistence for metrics, alert rules, alert
// events and service health snapshots on a single sqlite database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens (or creates) the sqlite database and ensures the schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite single-writer; also serializes rule counter updates
	db.SetMaxOpenConns(1)

	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	logrus.Infof("Opened metric store at %s", dbPath)
	return &Store{db: db, dbPath: dbPath}, nil
}

// DBPath returns the database file path.
func (s *Store) DBPath() string { return s.dbPath }

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func ensureSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS business_metrics (
			id TEXT PRIMARY KEY,
			metric_name TEXT NOT NULL,
			metric_type TEXT NOT NULL,
			value REAL NOT NULL,
			unit TEXT,
			timestamp TEXT NOT NULL,
			frequency TEXT NOT NULL,
			affiliate_id TEXT,
			user_id TEXT,
			service_name TEXT,
			region TEXT,
			metadata TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_name_ts ON business_metrics (metric_name, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_type ON business_metrics (metric_type)`,
		`CREATE TABLE IF NOT EXISTS alert_rules (
			id TEXT PRIMARY KEY,
			rule_name TEXT NOT NULL UNIQUE,
			metric_name TEXT NOT NULL,
			condition TEXT NOT NULL,
			threshold_value REAL NOT NULL,
			severity TEXT NOT NULL,
			notification_channels TEXT NOT NULL,
			notification_recipients TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			last_triggered TEXT,
			trigger_count INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rules_metric ON alert_rules (metric_name, is_active)`,
		`CREATE TABLE IF NOT EXISTS alert_events (
			id TEXT PRIMARY KEY,
			alert_rule_id TEXT NOT NULL,
			rule_name TEXT NOT NULL,
			metric_value REAL NOT NULL,
			threshold_value REAL NOT NULL,
			severity TEXT NOT NULL,
			message TEXT NOT NULL,
			context TEXT,
			status TEXT NOT NULL DEFAULT 'open',
			acknowledged_by TEXT,
			acknowledged_at TEXT,
			resolved_at TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_created ON alert_events (created_at)`,
		`CREATE TABLE IF NOT EXISTS service_health (
			id TEXT PRIMARY KEY,
			service_name TEXT NOT NULL,
			status TEXT NOT NULL,
			response_time_ms REAL NOT NULL DEFAULT 0,
			error_rate REAL NOT NULL DEFAULT 0,
			cpu_usage REAL NOT NULL DEFAULT 0,
			memory_usage REAL NOT NULL DEFAULT 0,
			version TEXT,
			uptime_seconds INTEGER NOT NULL DEFAULT 0,
			last_error TEXT,
			timestamp TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_health_name_ts ON service_health (service_name, timestamp)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// Stats returns the summary counters reported by the health-check endpoint.
func (s *Store) Stats(ctx context.Context) (*models.ServiceStats, error) {
	stats := &models.ServiceStats{}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM business_metrics").Scan(&stats.TotalMetrics); err != nil {
		return nil, fmt.Errorf("failed to count metrics: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM alert_rules WHERE is_active = 1").Scan(&stats.ActiveRules); err != nil {
		return nil, fmt.Errorf("failed to count active rules: %w", err)
	}
	cutoff := formatTime(time.Now().UTC().Add(-24 * time.Hour))
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM alert_events WHERE created_at >= ?", cutoff).Scan(&stats.RecentEvents24h); err != nil {
		return nil, fmt.Errorf("failed to count recent events: %w", err)
	}
	return stats, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		logrus.Warnf("Failed to parse stored timestamp %q: %v", s, err)
	}
	return t
}

func formatNullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseNullableTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}
