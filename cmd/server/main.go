package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/fature/monitoring-service/pkg/api"
	"github.com/fature/monitoring-service/pkg/config"
	"github.com/fature/monitoring-service/pkg/configservice"
	"github.com/fature/monitoring-service/pkg/services"
	"github.com/fature/monitoring-service/pkg/store"
)

// @title Fature Monitoring Service API
// @version 1.0
// @description API for recording business metrics, evaluating alert rules and tracking service health
// @BasePath /api

func main() {
	// Configure Log Level from Environment Variable
	logLevelStr := os.Getenv("LOG_LEVEL")
	switch strings.ToLower(logLevelStr) {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	case "fatal":
		logrus.SetLevel(logrus.FatalLevel)
	case "panic":
		logrus.SetLevel(logrus.PanicLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel) // Default to Info
	}
	logrus.Infof("Log level set to: %s", logrus.GetLevel().String())

	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Open the metric store
	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		logrus.Fatalf("Failed to open metric store: %v", err)
	}
	defer db.Close()

	// Load the monitoring configuration from the central config service.
	// Every key degrades to its fallback, so startup never blocks on it.
	ctx := context.Background()
	monitoringCfg := configservice.NewClient(cfg.ConfigService.URL).FetchMonitoringConfig(ctx)

	// Initialize the aggregation cache
	cache := services.NewAggregationCache(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB,
		time.Duration(monitoringCfg.CacheTTLSecs)*time.Second)
	defer cache.Close()

	// Initialize services
	metricService := services.NewMetricService(db, cache, monitoringCfg)
	alertService := services.NewAlertService(db)
	healthService := services.NewHealthService(db)

	// Create the config-derived alert rules that do not exist yet
	if err := alertService.SyncGeneratedRules(ctx, configservice.BuildAlertRules(monitoringCfg)); err != nil {
		logrus.Warnf("Failed to sync generated alert rules: %v", err)
	}

	// Set up the Echo server
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// API routes
	apiHandler := api.NewAPIHandler(metricService, alertService, healthService)
	apiHandler.SetupRoutes(e)

	// Swagger documentation
	e.GET("/swagger/*", echo.WrapHandler(httpSwagger.Handler()))

	// Create HTTP server
	// Use PORT environment variable if available, otherwise use config
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Server.Port
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      e,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start the server in a goroutine
	go func() {
		logrus.Infof("Starting server on port %s", port)
		if err := e.StartServer(server); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Create a deadline for graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	// Shutdown the server
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited properly")
}
