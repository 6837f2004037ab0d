package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"lineswipe/api"
	"lineswipe/config"
	"lineswipe/database"
	"lineswipe/events"
	"lineswipe/metrics"
	"lineswipe/repository"
	"lineswipe/service"
	"lineswipe/worker"

	"github.com/sirupsen/logrus"
)

// Run initializes and starts the swipe engine
func Run(ctx context.Context) error {
	// Load configuration
	cfg := config.Get()
	configureLogging(cfg)

	log.Println("Starting lineswipe engine...")

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Println("Database connection established successfully")

	// Initialize event bus and its observers
	eventBus := events.NewBus()
	metrics.ObserveBus(eventBus)

	// Mirror events to NATS when configured
	if cfg.NATSURL != "" {
		log.Println("Connecting to NATS...")
		relay := events.NewNATSRelay(cfg.NATSURL)
		if err := relay.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer relay.Close()
		relay.Attach(eventBus)
		log.Println("NATS event relay attached")
	}

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	log.Println("Initializing services...")
	lineService := service.NewLineService(uowFactory)
	swipeService := service.NewSwipeService(uowFactory)
	quotaService := service.NewQuotaService(uowFactory)
	insightService := service.NewInsightService(uowFactory)
	snapshotService := service.NewSnapshotService(
		repository.NewLineRepository(db),
		repository.NewLineAggregateRepository(db),
		repository.NewLineSnapshotRepository(db),
		eventBus,
	)
	log.Println("Services initialized successfully")

	// Start the API server
	apiServer := api.NewServer(cfg, swipeService, quotaService, insightService, lineService)
	apiErrChan := make(chan error, 1)
	go func() {
		apiErrChan <- apiServer.Start()
	}()

	// Start the metrics server with a database health probe
	metricsServer := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return db.Ping(ctx)
	})
	log.Printf("Metrics server listening on :%d", cfg.MetricsPort)

	// Start the daily snapshot worker
	snapshotWorker := worker.NewSnapshotWorker(snapshotService)
	stopWorker := snapshotWorker.Start(ctx, cfg.SnapshotHour, cfg.SnapshotTimezone)

	// Wait for shutdown or an API failure
	log.Printf("Engine is running in %s mode...", cfg.Environment)
	select {
	case <-ctx.Done():
	case err := <-apiErrChan:
		if err != nil {
			stopWorker()
			return err
		}
	}

	// Cleanup resources
	log.Println("Shutting down...")
	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down API server: %v", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down metrics server: %v", err)
	}

	log.Println("Shutdown completed")
	return nil
}

// RunSnapshot performs one snapshot capture and exits. Used by the
// snapshot subcommand as a manual or cron-driven trigger.
func RunSnapshot(ctx context.Context) error {
	cfg := config.Get()
	configureLogging(cfg)

	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	loc, err := time.LoadLocation(cfg.SnapshotTimezone)
	if err != nil {
		loc = time.UTC
	}

	snapshotService := service.NewSnapshotService(
		repository.NewLineRepository(db),
		repository.NewLineAggregateRepository(db),
		repository.NewLineSnapshotRepository(db),
		events.NewBus(),
	)

	run, err := snapshotService.CaptureDailySnapshots(ctx, time.Now().In(loc))
	if err != nil {
		return fmt.Errorf("snapshot capture failed: %w", err)
	}

	log.Printf("Snapshot run for %s: %d captured, %d skipped, %d failed",
		run.RunDate.Format("2006-01-02"), run.LinesCaptured, run.LinesSkipped, run.LinesFailed)
	return nil
}

// configureLogging applies the configured level and format to the
// application wide logger
func configureLogging(cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}
