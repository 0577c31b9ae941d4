package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aldermarket/alder/internal/service"
)

// Config holds verification worker configuration
type Config struct {
	// WorkerID uniquely identifies this worker instance in logs
	WorkerID string

	// Interval is how often to run a verification pass
	Interval time.Duration
}

// Worker runs the consistency verifier on a fixed interval. It is the
// background counterpart to the on-demand admin endpoint: drift left by
// crashed writers gets picked up without operator action.
type Worker struct {
	config   Config
	verifier *service.Verifier
	logger   *slog.Logger
}

// NewWorker creates a new background verification worker
func NewWorker(verifier *service.Verifier, config Config, logger *slog.Logger) *Worker {
	// Set defaults
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("verifier-%s", uuid.New().String()[:8])
	}
	if config.Interval == 0 {
		config.Interval = 15 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		config:   config,
		verifier: verifier,
		logger:   logger,
	}
}

// Start runs verification passes until the context is cancelled.
// A failed pass is logged and the worker keeps going; the next tick
// retries from scratch.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("verification worker starting",
		"worker_id", w.config.WorkerID,
		"interval", w.config.Interval,
	)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("verification worker shutting down", "worker_id", w.config.WorkerID)
			return ctx.Err()

		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// runOnce executes a single verification pass.
func (w *Worker) runOnce(ctx context.Context) {
	start := time.Now()
	report, err := w.verifier.VerifyAndRepair(ctx)
	if err != nil {
		w.logger.Error("verification pass failed",
			"worker_id", w.config.WorkerID,
			"error", err,
		)
		return
	}

	w.logger.Info("verification pass completed",
		"worker_id", w.config.WorkerID,
		"duration", time.Since(start),
		"scanned", report.Scanned,
		"repaired", report.Repaired,
		"placeholders", report.Placeholders,
	)
}
