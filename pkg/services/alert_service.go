package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fature/monitoring-service/pkg/models"
	"github.com/fature/monitoring-service/pkg/store"
)

const defaultEventLimit = 50

// AlertService manages alert rules and the lifecycle of alert events.
type AlertService struct {
	store store.MetricStore
}

// NewAlertService creates an alert service.
func NewAlertService(db store.MetricStore) *AlertService {
	return &AlertService{store: db}
}

// CreateAlertRule validates and persists a new rule. Rule names are
// unique; a duplicate is a validation error, not a storage error.
func (s *AlertService) CreateAlertRule(ctx context.Context, req *models.CreateAlertRuleRequest) (*models.AlertRule, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.store.RuleNameExists(ctx, req.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check rule name: %w", err)
	}
	if exists {
		return nil, models.NewValidationError("rule_name", "already exists")
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	now := time.Now().UTC()
	rule := &models.AlertRule{
		ID:         uuid.New().String(),
		Name:       req.Name,
		MetricName: req.MetricName,
		Operator:   req.Operator,
		Threshold:  *req.Threshold,
		Severity:   req.Severity,
		Channels:   req.Channels,
		Recipients: req.Recipients,
		IsActive:   isActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if rule.Channels == nil {
		rule.Channels = []string{}
	}
	if rule.Recipients == nil {
		rule.Recipients = []string{}
	}

	if err := s.store.CreateAlertRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to create alert rule: %w", err)
	}
	logrus.Infof("Created alert rule %q on metric %s (%s %v)", rule.Name, rule.MetricName, rule.Operator, rule.Threshold)
	return rule, nil
}

// ListAlertRules returns all rules.
func (s *AlertService) ListAlertRules(ctx context.Context) ([]*models.AlertRule, error) {
	return s.store.ListAlertRules(ctx)
}

// GetAlertRule returns one rule by ID.
func (s *AlertService) GetAlertRule(ctx context.Context, id string) (*models.AlertRule, error) {
	return s.store.GetAlertRule(ctx, id)
}

// UpdateAlertRule applies the provided fields to a rule's definition.
// Trigger bookkeeping cannot be changed through this path.
func (s *AlertService) UpdateAlertRule(ctx context.Context, id string, req *models.UpdateAlertRuleRequest) (*models.AlertRule, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rule, err := s.store.GetAlertRule(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.MetricName != nil {
		rule.MetricName = *req.MetricName
	}
	if req.Operator != nil {
		rule.Operator = *req.Operator
	}
	if req.Threshold != nil {
		rule.Threshold = *req.Threshold
	}
	if req.Severity != nil {
		rule.Severity = *req.Severity
	}
	if req.Channels != nil {
		rule.Channels = req.Channels
	}
	if req.Recipients != nil {
		rule.Recipients = req.Recipients
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	rule.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateAlertRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to update alert rule: %w", err)
	}
	return rule, nil
}

// DeleteAlertRule removes a rule. Past alert events referencing it are kept.
func (s *AlertService) DeleteAlertRule(ctx context.Context, id string) error {
	if err := s.store.DeleteAlertRule(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete alert rule: %w", err)
	}
	logrus.Infof("Deleted alert rule %s", id)
	return nil
}

// ListAlertEvents returns events matching the filter, newest first.
func (s *AlertService) ListAlertEvents(ctx context.Context, f models.AlertEventFilter) ([]*models.AlertEvent, error) {
	if f.Status != "" && !f.Status.IsValid() {
		return nil, models.NewValidationError("status", "unknown value: "+string(f.Status))
	}
	if f.Severity != "" && !f.Severity.IsValid() {
		return nil, models.NewValidationError("severity", "unknown value: "+string(f.Severity))
	}
	if f.Limit <= 0 {
		f.Limit = defaultEventLimit
	}
	return s.store.ListAlertEvents(ctx, f)
}

// AcknowledgeAlertEvent marks an event as acknowledged.
func (s *AlertService) AcknowledgeAlertEvent(ctx context.Context, id, acknowledgedBy string) (*models.AlertEvent, error) {
	if err := s.store.AcknowledgeAlertEvent(ctx, id, acknowledgedBy, time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.store.GetAlertEvent(ctx, id)
}

// ResolveAlertEvent marks an event as resolved.
func (s *AlertService) ResolveAlertEvent(ctx context.Context, id string) (*models.AlertEvent, error) {
	if err := s.store.ResolveAlertEvent(ctx, id, time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.store.GetAlertEvent(ctx, id)
}

// SyncGeneratedRules creates the config-derived rules that do not exist
// yet. Existing rules are left untouched so operator edits survive
// restarts.
func (s *AlertService) SyncGeneratedRules(ctx context.Context, reqs []models.CreateAlertRuleRequest) error {
	created := 0
	for i := range reqs {
		req := reqs[i]
		exists, err := s.store.RuleNameExists(ctx, req.Name)
		if err != nil {
			return fmt.Errorf("failed to check rule name %q: %w", req.Name, err)
		}
		if exists {
			continue
		}
		if _, err := s.CreateAlertRule(ctx, &req); err != nil {
			return fmt.Errorf("failed to create generated rule %q: %w", req.Name, err)
		}
		created++
	}
	logrus.Infof("Synced generated alert rules: %d created, %d already present", created, len(reqs)-created)
	return nil
}
