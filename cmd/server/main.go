package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/aldermarket/alder/internal"
	"github.com/aldermarket/alder/internal/events"
	"github.com/aldermarket/alder/internal/handler/admin"
	"github.com/aldermarket/alder/internal/middleware"
	"github.com/aldermarket/alder/internal/postgres"
	"github.com/aldermarket/alder/internal/router"
	"github.com/aldermarket/alder/internal/service"
	"github.com/aldermarket/alder/internal/telemetry"
	"github.com/aldermarket/alder/internal/worker"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	// Run migrations
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize pgx connection pool for application
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	store := postgres.NewStore(pool)

	// Schema guard: older deployments may predate the denormalized
	// image column, and rows written while it was absent have no value.
	logger.Info("Checking products schema...")
	if err := store.EnsureImageColumn(ctx); err != nil {
		return fmt.Errorf("image column check failed: %w", err)
	}
	backfilled, err := store.BackfillMissingImages(ctx)
	if err != nil {
		return fmt.Errorf("image backfill failed: %w", err)
	}
	if backfilled > 0 {
		logger.Info("Backfilled products with placeholder image", "count", backfilled)
	}

	// Initialize event publisher
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NatsUrl != "" {
		logger.Info("Connecting to NATS...", "url", cfg.NatsUrl)
		np, err := events.NewNATSPublisher(cfg.NatsUrl, logger)
		if err != nil {
			return fmt.Errorf("NATS connection failed: %w", err)
		}
		publisher = np
		logger.Info("NATS connection established")
	} else {
		logger.Info("NATS_URL not set, event publishing disabled")
	}
	defer publisher.Close()

	// Initialize metrics and services
	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)
	productService := service.NewProductService(store, publisher, metrics, logger)
	verifier := service.NewVerifier(store, metrics, logger)

	// Repair any drift left behind by crashed or partial writers
	if cfg.VerifyOnStartup {
		logger.Info("Running consistency verifier...")
		report, err := verifier.VerifyAndRepair(ctx)
		if err != nil {
			return fmt.Errorf("startup verification failed: %w", err)
		}
		logger.Info("Consistency verification complete",
			"scanned", report.Scanned,
			"repaired", report.Repaired,
			"placeholders", report.Placeholders)
	}

	// Start the background verifier when an interval is configured
	if cfg.VerifyInterval > 0 {
		verifyWorker := worker.NewWorker(verifier, worker.Config{Interval: cfg.VerifyInterval}, logger)
		go func() {
			if err := verifyWorker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("verification worker stopped", "error", err)
			}
		}()
	}

	// Initialize handlers
	productHandler := admin.NewProductHandler(productService)
	verifyHandler := admin.NewVerifyHandler(verifier)
	httpMetrics := middleware.NewHTTPMetrics("alder")

	// Build router
	r := router.New(
		middleware.RequestID,
		middleware.WithRequestLogger(logger),
		router.Logger(logger),
		httpMetrics.Middleware,
		router.Recovery(logger),
	)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle(http.MethodGet, "/metrics", httpMetrics.Handler())

	r.Get("/admin/products", productHandler.List)
	r.Post("/admin/products", productHandler.Create)
	r.Get("/admin/products/{id}", productHandler.Detail)
	r.Patch("/admin/products/{id}", productHandler.Update)
	r.Delete("/admin/products/{id}", productHandler.Delete)
	r.Post("/admin/products/{id}/images", productHandler.AddImage)
	r.Delete("/admin/images/{id}", productHandler.RemoveImage)
	r.Post("/admin/images/{id}/primary", productHandler.SetPrimaryImage)
	r.Post("/admin/verify", verifyHandler.Run)

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("Starting server", "addr", addr, "env", cfg.Env)
	return http.ListenAndServe(addr, r)
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
