package models

import (
	"time"
)

// MetricType represents the business domain a metric belongs to
type MetricType string

const (
	MetricTypeRevenue      MetricType = "revenue"
	MetricTypeCommission   MetricType = "commission"
	MetricTypeUserActivity MetricType = "user_activity"
	MetricTypeConversion   MetricType = "conversion"
	MetricTypePerformance  MetricType = "performance"
	MetricTypeGamification MetricType = "gamification"
	MetricTypeValidation   MetricType = "validation"
)

// IsValid reports whether the metric type is one of the known values
func (t MetricType) IsValid() bool {
	switch t {
	case MetricTypeRevenue, MetricTypeCommission, MetricTypeUserActivity,
		MetricTypeConversion, MetricTypePerformance, MetricTypeGamification,
		MetricTypeValidation:
		return true
	}
	return false
}

// MetricFrequency represents the collection cadence of a metric
type MetricFrequency string

const (
	FrequencyRealTime MetricFrequency = "real_time"
	FrequencyHourly   MetricFrequency = "hourly"
	FrequencyDaily    MetricFrequency = "daily"
	FrequencyWeekly   MetricFrequency = "weekly"
	FrequencyMonthly  MetricFrequency = "monthly"
)

// IsValid reports whether the frequency is one of the known values
func (f MetricFrequency) IsValid() bool {
	switch f {
	case FrequencyRealTime, FrequencyHourly, FrequencyDaily,
		FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// Metric represents a single timestamped business observation.
// Metrics are immutable once recorded.
type Metric struct {
	ID        string          `json:"id"`
	Name      string          `json:"metric_name"`
	Type      MetricType      `json:"metric_type"`
	Value     float64         `json:"value"`
	Unit      string          `json:"unit,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Frequency MetricFrequency `json:"frequency"`

	// Dimensions for segmentation
	AffiliateID string `json:"affiliate_id,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	ServiceName string `json:"service_name,omitempty"`
	Region      string `json:"region,omitempty"`

	// Metadata is serialized to JSON only at the storage boundary
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// RecordMetricRequest represents the request payload for recording a metric.
// Value is a pointer so a missing field can be told apart from zero.
type RecordMetricRequest struct {
	Name        string                 `json:"metric_name"`
	Type        MetricType             `json:"metric_type"`
	Value       *float64               `json:"value"`
	Unit        string                 `json:"unit,omitempty"`
	Timestamp   *time.Time             `json:"timestamp,omitempty"`
	Frequency   MetricFrequency        `json:"frequency"`
	AffiliateID string                 `json:"affiliate_id,omitempty"`
	UserID      string                 `json:"user_id,omitempty"`
	ServiceName string                 `json:"service_name,omitempty"`
	Region      string                 `json:"region,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// Validate checks required fields and enum domains
func (r *RecordMetricRequest) Validate() error {
	if r.Name == "" {
		return NewValidationError("metric_name", "is required")
	}
	if r.Type == "" {
		return NewValidationError("metric_type", "is required")
	}
	if !r.Type.IsValid() {
		return NewValidationError("metric_type", "unknown value: "+string(r.Type))
	}
	if r.Value == nil {
		return NewValidationError("value", "is required")
	}
	if r.Frequency == "" {
		return NewValidationError("frequency", "is required")
	}
	if !r.Frequency.IsValid() {
		return NewValidationError("frequency", "unknown value: "+string(r.Frequency))
	}
	return nil
}

// ToMetric converts the request to a Metric, defaulting the timestamp to now (UTC)
func (r *RecordMetricRequest) ToMetric(now time.Time) *Metric {
	ts := now.UTC()
	if r.Timestamp != nil {
		ts = r.Timestamp.UTC()
	}
	return &Metric{
		Name:        r.Name,
		Type:        r.Type,
		Value:       *r.Value,
		Unit:        r.Unit,
		Timestamp:   ts,
		Frequency:   r.Frequency,
		AffiliateID: r.AffiliateID,
		UserID:      r.UserID,
		ServiceName: r.ServiceName,
		Region:      r.Region,
		Metadata:    r.Metadata,
		CreatedAt:   now.UTC(),
	}
}

// MetricFilter holds the optional, conjunctive filters for metric queries
type MetricFilter struct {
	Name        string
	Type        MetricType
	ServiceName string
	AffiliateID string
	Start       *time.Time
	End         *time.Time
	Limit       int
}

// Aggregation represents an aggregation function over metric values
type Aggregation string

const (
	AggregationSum   Aggregation = "sum"
	AggregationAvg   Aggregation = "avg"
	AggregationMin   Aggregation = "min"
	AggregationMax   Aggregation = "max"
	AggregationCount Aggregation = "count"
)

// IsValid reports whether the aggregation is one of the known values
func (a Aggregation) IsValid() bool {
	switch a {
	case AggregationSum, AggregationAvg, AggregationMin, AggregationMax, AggregationCount:
		return true
	}
	return false
}

// AggregationPeriod represents a time-bucket granularity
type AggregationPeriod string

const (
	PeriodHour  AggregationPeriod = "hour"
	PeriodDay   AggregationPeriod = "day"
	PeriodWeek  AggregationPeriod = "week"
	PeriodMonth AggregationPeriod = "month"
)

// IsValid reports whether the period is one of the known values
func (p AggregationPeriod) IsValid() bool {
	switch p {
	case PeriodHour, PeriodDay, PeriodWeek, PeriodMonth:
		return true
	}
	return false
}

// AggregatedPoint is one time bucket of an aggregation result
type AggregatedPoint struct {
	Period string  `json:"period"`
	Value  float64 `json:"value"`
}
