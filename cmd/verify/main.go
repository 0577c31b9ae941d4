package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aldermarket/alder/internal"
	"github.com/aldermarket/alder/internal/postgres"
	"github.com/aldermarket/alder/internal/service"
	"github.com/aldermarket/alder/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// One-shot consistency check for operators. Scans every product,
// repairs primary image drift and prints a report. Per-product repair
// failures are logged and skipped so the pass covers the whole catalog.
func run() error {
	ctx := context.Background()

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	store := postgres.NewStore(pool)
	metrics := telemetry.NewMetrics(prometheus.NewRegistry())
	verifier := service.NewVerifier(store, metrics, logger)

	report, err := verifier.VerifyAndRepair(ctx)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	fmt.Printf("scanned:      %d\n", report.Scanned)
	fmt.Printf("repaired:     %d\n", report.Repaired)
	fmt.Printf("placeholders: %d\n", report.Placeholders)
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
