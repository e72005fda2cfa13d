package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/fature/monitoring-service/pkg/configservice"
	"github.com/fature/monitoring-service/pkg/models"
	"github.com/fature/monitoring-service/pkg/services"
	"github.com/fature/monitoring-service/pkg/store"
)

// Seed tool - fills the metric store with a week of sample data so the
// query, aggregation and alerting endpoints have something to work with.

type metricProfile struct {
	name      string
	typ       models.MetricType
	unit      string
	base      float64
	amplitude float64
	jitter    float64
}

var profiles = []metricProfile{
	{"revenue_hourly", models.MetricTypeRevenue, "BRL", 2000, 800, 200},
	{"commission_paid", models.MetricTypeCommission, "BRL", 300, 150, 50},
	{"active_users", models.MetricTypeUserActivity, "", 120, 60, 15},
	{"conversion_rate", models.MetricTypeConversion, "", 0.045, 0.02, 0.005},
	{"api_response_time", models.MetricTypePerformance, "ms", 180, 60, 30},
	{"error_rate", models.MetricTypeValidation, "", 0.02, 0.015, 0.005},
	{"cpu_usage", models.MetricTypePerformance, "", 0.55, 0.2, 0.05},
}

var healthServices = []string{
	"affiliate-service",
	"payment-service",
	"commission-service",
	"gamification-service",
	"notification-service",
	"user-service",
	"reporting-service",
	"config-service",
}

func main() {
	dbPath := flag.String("db", "./monitoring.db", "path to the sqlite database")
	days := flag.Int("days", 7, "days of hourly metrics to generate")
	flag.Parse()

	db, err := store.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open metric store: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now().UTC().Truncate(time.Hour)
	start := now.Add(-time.Duration(*days) * 24 * time.Hour)

	fmt.Printf("Generating %d days of hourly metrics from %s\n", *days, start.Format(time.RFC3339))

	total := 0
	for _, p := range profiles {
		metrics := make([]*models.Metric, 0, *days*24)
		for ts := start; ts.Before(now); ts = ts.Add(time.Hour) {
			// Daily cycle with some noise
			phase := float64(ts.Hour()) / 24 * 2 * math.Pi
			value := p.base + p.amplitude*math.Sin(phase) + rng.NormFloat64()*p.jitter
			if value < 0 {
				value = 0
			}
			metrics = append(metrics, &models.Metric{
				Name:      p.name,
				Type:      p.typ,
				Value:     value,
				Unit:      p.unit,
				Timestamp: ts,
				Frequency: models.FrequencyHourly,
				CreatedAt: ts,
			})
		}
		if err := db.InsertMetricBatch(ctx, metrics); err != nil {
			log.Fatalf("Failed to insert %s metrics: %v", p.name, err)
		}
		total += len(metrics)
		fmt.Printf("  %s: %d points\n", p.name, len(metrics))
	}
	fmt.Printf("Inserted %d metrics\n", total)

	// Standard alert rules from the default thresholds
	cfg := configservice.NewClient("http://127.0.0.1:1").FetchMonitoringConfig(ctx)
	alertService := services.NewAlertService(db)
	if err := alertService.SyncGeneratedRules(ctx, configservice.BuildAlertRules(cfg)); err != nil {
		log.Fatalf("Failed to create alert rules: %v", err)
	}
	fmt.Println("Created standard alert rules")

	// One current health snapshot per service
	statuses := []models.HealthStatus{
		models.HealthStatusHealthy, models.HealthStatusHealthy, models.HealthStatusHealthy,
		models.HealthStatusHealthy, models.HealthStatusDegraded,
	}
	healthService := services.NewHealthService(db)
	for _, name := range healthServices {
		h := &models.ServiceHealth{
			ServiceName:    name,
			Status:         statuses[rng.Intn(len(statuses))],
			ResponseTimeMs: 50 + rng.Float64()*200,
			ErrorRate:      rng.Float64() * 0.03,
			CPUUsage:       0.2 + rng.Float64()*0.5,
			MemoryUsage:    0.3 + rng.Float64()*0.4,
			Version:        fmt.Sprintf("1.%d.%d", rng.Intn(9), rng.Intn(20)),
			UptimeSeconds:  int64(rng.Intn(30 * 24 * 3600)),
			Timestamp:      now,
		}
		if _, err := healthService.RecordServiceHealth(ctx, h); err != nil {
			log.Fatalf("Failed to record health for %s: %v", name, err)
		}
	}
	fmt.Printf("Recorded health snapshots for %d services\n", len(healthServices))

	fmt.Println("\nDone. Start the server and try: curl http://localhost:8080/api/metrics/aggregate?metric_name=revenue_hourly\\&aggregation=avg\\&period=day")
}
