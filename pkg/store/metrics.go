package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fature/monitoring-service/pkg/models"
)

const metricColumns = `id, metric_name, metric_type, value, unit, timestamp, frequency,
	affiliate_id, user_id, service_name, region, metadata, created_at`

// InsertMetric persists a single metric, assigning an ID if the caller
// has not set one.
func (s *Store) InsertMetric(ctx context.Context, m *models.Metric) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	metadata, err := marshalMetadata(m.Metadata)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO business_metrics (`+metricColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, string(m.Type), m.Value, nullableString(m.Unit),
		formatTime(m.Timestamp), string(m.Frequency),
		nullableString(m.AffiliateID), nullableString(m.UserID),
		nullableString(m.ServiceName), nullableString(m.Region),
		metadata, formatTime(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert metric: %w", err)
	}
	return nil
}

// InsertMetricBatch persists all metrics in one transaction; on any
// failure nothing is written.
func (s *Store) InsertMetricBatch(ctx context.Context, metrics []*models.Metric) error {
	if len(metrics) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO business_metrics (`+metricColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare batch insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range metrics {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		metadata, err := marshalMetadata(m.Metadata)
		if err != nil {
			tx.Rollback()
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			m.ID, m.Name, string(m.Type), m.Value, nullableString(m.Unit),
			formatTime(m.Timestamp), string(m.Frequency),
			nullableString(m.AffiliateID), nullableString(m.UserID),
			nullableString(m.ServiceName), nullableString(m.Region),
			metadata, formatTime(m.CreatedAt)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert metric in batch: %w", err)
		}
	}
	return tx.Commit()
}

// QueryMetrics returns metrics matching all provided filters, newest first.
func (s *Store) QueryMetrics(ctx context.Context, f models.MetricFilter) ([]*models.Metric, error) {
	query := "SELECT " + metricColumns + " FROM business_metrics WHERE 1=1"
	args := make([]interface{}, 0, 8)

	if f.Name != "" {
		query += " AND metric_name = ?"
		args = append(args, f.Name)
	}
	if f.Type != "" {
		query += " AND metric_type = ?"
		args = append(args, string(f.Type))
	}
	if f.ServiceName != "" {
		query += " AND service_name = ?"
		args = append(args, f.ServiceName)
	}
	if f.AffiliateID != "" {
		query += " AND affiliate_id = ?"
		args = append(args, f.AffiliateID)
	}
	if f.Start != nil {
		query += " AND timestamp >= ?"
		args = append(args, formatTime(*f.Start))
	}
	if f.End != nil {
		query += " AND timestamp <= ?"
		args = append(args, formatTime(*f.End))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close()

	metrics := make([]*models.Metric, 0)
	for rows.Next() {
		m, err := scanMetric(rows)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// bucketFormats maps aggregation periods to sqlite strftime formats. The
// labels sort lexically in chronological order.
var bucketFormats = map[models.AggregationPeriod]string{
	models.PeriodHour:  "%Y-%m-%d %H:00:00",
	models.PeriodDay:   "%Y-%m-%d",
	models.PeriodWeek:  "%Y-W%W",
	models.PeriodMonth: "%Y-%m",
}

var aggregationFuncs = map[models.Aggregation]string{
	models.AggregationSum:   "SUM(value)",
	models.AggregationAvg:   "AVG(value)",
	models.AggregationMin:   "MIN(value)",
	models.AggregationMax:   "MAX(value)",
	models.AggregationCount: "COUNT(id)",
}

// Aggregate groups metrics with the given name into time buckets and
// applies the aggregation function. Buckets with no metrics are omitted.
func (s *Store) Aggregate(ctx context.Context, metricName string, agg models.Aggregation, period models.AggregationPeriod, start, end *time.Time) ([]models.AggregatedPoint, error) {
	aggFunc, ok := aggregationFuncs[agg]
	if !ok {
		return nil, models.NewValidationError("aggregation", "unknown value: "+string(agg))
	}
	bucket, ok := bucketFormats[period]
	if !ok {
		return nil, models.NewValidationError("period", "unknown value: "+string(period))
	}

	query := fmt.Sprintf(`
		SELECT strftime('%s', timestamp) AS period, %s AS value
		FROM business_metrics
		WHERE metric_name = ?`, bucket, aggFunc)
	args := []interface{}{metricName}

	if start != nil {
		query += " AND timestamp >= ?"
		args = append(args, formatTime(*start))
	}
	if end != nil {
		query += " AND timestamp <= ?"
		args = append(args, formatTime(*end))
	}
	query += " GROUP BY period ORDER BY period"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate metrics: %w", err)
	}
	defer rows.Close()

	points := make([]models.AggregatedPoint, 0)
	for rows.Next() {
		var p models.AggregatedPoint
		if err := rows.Scan(&p.Period, &p.Value); err != nil {
			return nil, fmt.Errorf("failed to scan aggregation row: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func scanMetric(rows *sql.Rows) (*models.Metric, error) {
	var m models.Metric
	var typ, freq, ts, createdAt string
	var unit, affiliateID, userID, serviceName, region, metadata sql.NullString

	if err := rows.Scan(&m.ID, &m.Name, &typ, &m.Value, &unit, &ts, &freq,
		&affiliateID, &userID, &serviceName, &region, &metadata, &createdAt); err != nil {
		return nil, fmt.Errorf("failed to scan metric: %w", err)
	}

	m.Type = models.MetricType(typ)
	m.Frequency = models.MetricFrequency(freq)
	m.Timestamp = parseTime(ts)
	m.CreatedAt = parseTime(createdAt)
	m.Unit = unit.String
	m.AffiliateID = affiliateID.String
	m.UserID = userID.String
	m.ServiceName = serviceName.String
	m.Region = region.String

	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &m.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metric metadata: %w", err)
		}
	}
	return &m, nil
}

func marshalMetadata(metadata map[string]interface{}) (interface{}, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metric metadata: %w", err)
	}
	return string(raw), nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
