package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/fature/monitoring-service/pkg/models"
	"github.com/fature/monitoring-service/pkg/services"
	"github.com/fature/monitoring-service/pkg/store"
)

// APIHandler handles HTTP API requests
type APIHandler struct {
	metricService *services.MetricService
	alertService  *services.AlertService
	healthService *services.HealthService
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(metricService *services.MetricService, alertService *services.AlertService, healthService *services.HealthService) *APIHandler {
	return &APIHandler{
		metricService: metricService,
		alertService:  alertService,
		healthService: healthService,
	}
}

// SetupRoutes registers all API routes on the echo instance
func (h *APIHandler) SetupRoutes(e *echo.Echo) {
	e.GET("/api/health", h.GetHealth)

	e.POST("/api/metrics", h.RecordMetric)
	e.POST("/api/metrics/batch", h.RecordMetricBatch)
	e.GET("/api/metrics/query", h.QueryMetrics)
	e.GET("/api/metrics/aggregate", h.AggregateMetrics)

	e.GET("/api/alerts/rules", h.GetAlertRules)
	e.POST("/api/alerts/rules", h.CreateAlertRule)
	e.PUT("/api/alerts/rules/:id", h.UpdateAlertRule)
	e.DELETE("/api/alerts/rules/:id", h.DeleteAlertRule)

	e.GET("/api/alerts/events", h.GetAlertEvents)
	e.POST("/api/alerts/events/:id/acknowledge", h.AcknowledgeAlertEvent)
	e.POST("/api/alerts/events/:id/resolve", h.ResolveAlertEvent)

	e.POST("/api/services/health", h.RecordServiceHealth)
	e.GET("/api/services/health", h.GetServiceHealth)
}

// GetHealth returns the monitoring service's own health
func (h *APIHandler) GetHealth(c echo.Context) error {
	overview := h.healthService.Overview(c.Request().Context())
	status := http.StatusOK
	if overview.Status == "unhealthy" {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, overview)
}

// RecordMetric records a single metric and evaluates alert rules against it
func (h *APIHandler) RecordMetric(c echo.Context) error {
	var req models.RecordMetricRequest
	if err := c.Bind(&req); err != nil {
		logrus.Errorf("Error binding record metric request: %v", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}

	result, err := h.metricService.RecordMetric(c.Request().Context(), &req)
	if err != nil {
		if models.IsValidationError(err) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		logrus.Errorf("Error recording metric: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to record metric"})
	}
	return c.JSON(http.StatusCreated, result)
}

// RecordMetricBatch records a batch of metrics in one transaction
func (h *APIHandler) RecordMetricBatch(c echo.Context) error {
	var req struct {
		Metrics []*models.RecordMetricRequest `json:"metrics"`
	}
	if err := c.Bind(&req); err != nil {
		logrus.Errorf("Error binding metric batch request: %v", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}

	result, err := h.metricService.RecordMetricBatch(c.Request().Context(), req.Metrics)
	if err != nil {
		if models.IsValidationError(err) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		logrus.Errorf("Error recording metric batch: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to record metric batch"})
	}
	return c.JSON(http.StatusCreated, result)
}

// QueryMetrics returns metrics matching the query parameters
func (h *APIHandler) QueryMetrics(c echo.Context) error {
	filter := models.MetricFilter{
		Name:        c.QueryParam("metric_name"),
		Type:        models.MetricType(c.QueryParam("metric_type")),
		ServiceName: c.QueryParam("service_name"),
		AffiliateID: c.QueryParam("affiliate_id"),
	}

	var err error
	if filter.Start, err = parseTimeParam(c.QueryParam("start_date")); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid start_date, expected RFC3339"})
	}
	if filter.End, err = parseTimeParam(c.QueryParam("end_date")); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid end_date, expected RFC3339"})
	}
	if filter.Limit, err = parseIntParam(c.QueryParam("limit")); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid limit"})
	}

	metrics, err := h.metricService.QueryMetrics(c.Request().Context(), filter)
	if err != nil {
		if models.IsValidationError(err) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		logrus.Errorf("Error querying metrics: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to query metrics"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"metrics": metrics,
		"count":   len(metrics),
	})
}

// AggregateMetrics returns a bucketed aggregation for a metric name
func (h *APIHandler) AggregateMetrics(c echo.Context) error {
	metricName := c.QueryParam("metric_name")
	agg := models.Aggregation(c.QueryParam("aggregation"))
	if agg == "" {
		agg = models.AggregationAvg
	}
	period := models.AggregationPeriod(c.QueryParam("period"))
	if period == "" {
		period = models.PeriodHour
	}

	start, err := parseTimeParam(c.QueryParam("start_date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid start_date, expected RFC3339"})
	}
	end, err := parseTimeParam(c.QueryParam("end_date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid end_date, expected RFC3339"})
	}

	points, err := h.metricService.Aggregate(c.Request().Context(), metricName, agg, period, start, end)
	if err != nil {
		if models.IsValidationError(err) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		logrus.Errorf("Error aggregating metrics: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to aggregate metrics"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"metric_name": metricName,
		"aggregation": agg,
		"period":      period,
		"points":      points,
	})
}

// GetAlertRules returns all alert rules
func (h *APIHandler) GetAlertRules(c echo.Context) error {
	rules, err := h.alertService.ListAlertRules(c.Request().Context())
	if err != nil {
		logrus.Errorf("Error getting alert rules: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to get alert rules"})
	}
	return c.JSON(http.StatusOK, rules)
}

// CreateAlertRule creates a new alert rule
func (h *APIHandler) CreateAlertRule(c echo.Context) error {
	var req models.CreateAlertRuleRequest
	if err := c.Bind(&req); err != nil {
		logrus.Errorf("Error binding create rule request: %v", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}

	rule, err := h.alertService.CreateAlertRule(c.Request().Context(), &req)
	if err != nil {
		if models.IsValidationError(err) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		logrus.Errorf("Error creating alert rule: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create alert rule"})
	}
	return c.JSON(http.StatusCreated, rule)
}

// UpdateAlertRule updates an alert rule's definition
func (h *APIHandler) UpdateAlertRule(c echo.Context) error {
	id := c.Param("id")
	var req models.UpdateAlertRuleRequest
	if err := c.Bind(&req); err != nil {
		logrus.Errorf("Error binding update rule request: %v", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}

	rule, err := h.alertService.UpdateAlertRule(c.Request().Context(), id, &req)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": fmt.Sprintf("Rule with ID %s not found", id)})
		}
		if models.IsValidationError(err) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		logrus.Errorf("Error updating alert rule %s: %v", id, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update alert rule"})
	}
	return c.JSON(http.StatusOK, rule)
}

// DeleteAlertRule deletes an alert rule
func (h *APIHandler) DeleteAlertRule(c echo.Context) error {
	id := c.Param("id")
	if err := h.alertService.DeleteAlertRule(c.Request().Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": fmt.Sprintf("Rule with ID %s not found", id)})
		}
		logrus.Errorf("Error deleting alert rule %s: %v", id, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete alert rule"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Alert rule deleted successfully"})
}

// GetAlertEvents returns alert events matching the query parameters
func (h *APIHandler) GetAlertEvents(c echo.Context) error {
	filter := models.AlertEventFilter{
		Status:   models.AlertStatus(c.QueryParam("status")),
		Severity: models.RuleSeverity(c.QueryParam("severity")),
	}
	var err error
	if filter.Limit, err = parseIntParam(c.QueryParam("limit")); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid limit"})
	}

	events, err := h.alertService.ListAlertEvents(c.Request().Context(), filter)
	if err != nil {
		if models.IsValidationError(err) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		logrus.Errorf("Error getting alert events: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to get alert events"})
	}
	return c.JSON(http.StatusOK, events)
}

// AcknowledgeAlertEvent marks an alert event as acknowledged
func (h *APIHandler) AcknowledgeAlertEvent(c echo.Context) error {
	id := c.Param("id")
	var req models.AcknowledgeAlertRequest
	if err := c.Bind(&req); err != nil {
		logrus.Errorf("Error binding acknowledge request: %v", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}

	event, err := h.alertService.AcknowledgeAlertEvent(c.Request().Context(), id, req.AcknowledgedBy)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": fmt.Sprintf("Alert event with ID %s not found", id)})
		}
		logrus.Errorf("Error acknowledging alert event %s: %v", id, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to acknowledge alert event"})
	}
	return c.JSON(http.StatusOK, event)
}

// ResolveAlertEvent marks an alert event as resolved
func (h *APIHandler) ResolveAlertEvent(c echo.Context) error {
	id := c.Param("id")
	event, err := h.alertService.ResolveAlertEvent(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": fmt.Sprintf("Alert event with ID %s not found", id)})
		}
		logrus.Errorf("Error resolving alert event %s: %v", id, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to resolve alert event"})
	}
	return c.JSON(http.StatusOK, event)
}

// RecordServiceHealth appends a service health snapshot
func (h *APIHandler) RecordServiceHealth(c echo.Context) error {
	var snapshot models.ServiceHealth
	if err := c.Bind(&snapshot); err != nil {
		logrus.Errorf("Error binding service health request: %v", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}

	recorded, err := h.healthService.RecordServiceHealth(c.Request().Context(), &snapshot)
	if err != nil {
		if models.IsValidationError(err) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		logrus.Errorf("Error recording service health: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to record service health"})
	}
	return c.JSON(http.StatusCreated, recorded)
}

// GetServiceHealth returns the latest health snapshot per service
func (h *APIHandler) GetServiceHealth(c echo.Context) error {
	latest, err := h.healthService.LatestServiceHealth(c.Request().Context())
	if err != nil {
		logrus.Errorf("Error getting service health: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to get service health"})
	}
	return c.JSON(http.StatusOK, latest)
}

func parseTimeParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseIntParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
