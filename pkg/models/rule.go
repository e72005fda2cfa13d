package models

import (
	"time"
)

// RuleOperator represents the comparison operator of an alert rule
type RuleOperator string

const (
	OperatorGreaterThan    RuleOperator = ">"
	OperatorLessThan       RuleOperator = "<"
	OperatorGreaterOrEqual RuleOperator = ">="
	OperatorLessOrEqual    RuleOperator = "<="
	OperatorEqual          RuleOperator = "=="
	OperatorNotEqual       RuleOperator = "!="
)

// IsValid reports whether the operator is one of the six known values
func (o RuleOperator) IsValid() bool {
	switch o {
	case OperatorGreaterThan, OperatorLessThan, OperatorGreaterOrEqual,
		OperatorLessOrEqual, OperatorEqual, OperatorNotEqual:
		return true
	}
	return false
}

// RuleSeverity represents the severity level of an alert rule
type RuleSeverity string

const (
	SeverityLow      RuleSeverity = "low"
	SeverityMedium   RuleSeverity = "medium"
	SeverityHigh     RuleSeverity = "high"
	SeverityCritical RuleSeverity = "critical"
)

// IsValid reports whether the severity is one of the known values
func (s RuleSeverity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// AlertRule represents a persisted threshold condition bound to a metric name.
// TriggerCount and LastTriggered are only ever mutated by the evaluator.
type AlertRule struct {
	ID         string       `json:"id"`
	Name       string       `json:"rule_name"`
	MetricName string       `json:"metric_name"`
	Operator   RuleOperator `json:"condition"`
	Threshold  float64      `json:"threshold_value"`
	Severity   RuleSeverity `json:"severity"`

	// Notification configuration; dispatch itself is out of scope
	Channels   []string `json:"notification_channels"`
	Recipients []string `json:"notification_recipients"`

	IsActive      bool       `json:"is_active"`
	LastTriggered *time.Time `json:"last_triggered,omitempty"`
	TriggerCount  int64      `json:"trigger_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateAlertRuleRequest represents the request payload for creating a rule.
// Threshold and IsActive are pointers so missing fields can be detected.
type CreateAlertRuleRequest struct {
	Name       string       `json:"rule_name"`
	MetricName string       `json:"metric_name"`
	Operator   RuleOperator `json:"condition"`
	Threshold  *float64     `json:"threshold_value"`
	Severity   RuleSeverity `json:"severity"`
	Channels   []string     `json:"notification_channels"`
	Recipients []string     `json:"notification_recipients"`
	IsActive   *bool        `json:"is_active,omitempty"`
}

// Validate checks required fields and enum domains
func (r *CreateAlertRuleRequest) Validate() error {
	if r.Name == "" {
		return NewValidationError("rule_name", "is required")
	}
	if r.MetricName == "" {
		return NewValidationError("metric_name", "is required")
	}
	if r.Operator == "" {
		return NewValidationError("condition", "is required")
	}
	if !r.Operator.IsValid() {
		return NewValidationError("condition", "unknown operator: "+string(r.Operator))
	}
	if r.Threshold == nil {
		return NewValidationError("threshold_value", "is required")
	}
	if r.Severity == "" {
		return NewValidationError("severity", "is required")
	}
	if !r.Severity.IsValid() {
		return NewValidationError("severity", "unknown value: "+string(r.Severity))
	}
	return nil
}

// UpdateAlertRuleRequest represents the request payload for updating a rule
// definition. Trigger bookkeeping cannot be changed through this path.
type UpdateAlertRuleRequest struct {
	MetricName *string       `json:"metric_name,omitempty"`
	Operator   *RuleOperator `json:"condition,omitempty"`
	Threshold  *float64      `json:"threshold_value,omitempty"`
	Severity   *RuleSeverity `json:"severity,omitempty"`
	Channels   []string      `json:"notification_channels,omitempty"`
	Recipients []string      `json:"notification_recipients,omitempty"`
	IsActive   *bool         `json:"is_active,omitempty"`
}

// Validate checks enum domains on the fields that are present
func (r *UpdateAlertRuleRequest) Validate() error {
	if r.Operator != nil && !r.Operator.IsValid() {
		return NewValidationError("condition", "unknown operator: "+string(*r.Operator))
	}
	if r.Severity != nil && !r.Severity.IsValid() {
		return NewValidationError("severity", "unknown value: "+string(*r.Severity))
	}
	return nil
}
