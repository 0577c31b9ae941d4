package service

import (
	"context"
	"log/slog"

	"github.com/aldermarket/alder/internal/domain"
	"github.com/aldermarket/alder/internal/postgres"
	"github.com/aldermarket/alder/internal/telemetry"
)

// Verifier is the audit and repair pass for the denormalized primary
// image. It reconstructs the expected value of every Product.image from
// the product_images collection alone, proving the denormalization is
// not a second source of truth. Run on demand, not on every write.
type Verifier struct {
	store   Store
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// NewVerifier creates a consistency verifier.
func NewVerifier(store Store, metrics *telemetry.Metrics, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{
		store:   store,
		metrics: metrics,
		logger:  logger,
	}
}

// VerifyAndRepair scans every product, computes the expected primary
// image (current primary row, else earliest by display order, else the
// placeholder) and corrects any divergence. A single product's repair
// failure is logged and skipped so the pass completes for the rest.
func (v *Verifier) VerifyAndRepair(ctx context.Context) (*domain.RepairReport, error) {
	products, err := v.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	report := &domain.RepairReport{}
	for _, product := range products {
		report.Scanned++

		expected, repaired, err := v.repairOne(ctx, product.ID)
		if err != nil {
			v.metrics.VerifierFailures.Inc()
			v.logger.Error("failed to repair product image, skipping",
				slog.String("product_id", product.ID),
				slog.String("error", err.Error()))
			continue
		}

		if repaired {
			report.Repaired++
		}
		if expected == domain.PlaceholderImageURL {
			report.Placeholders++
		}
	}

	v.metrics.VerifierRuns.Inc()
	v.metrics.VerifierRepairs.Add(float64(report.Repaired))
	v.logger.Info("consistency verification completed",
		slog.Int("scanned", report.Scanned),
		slog.Int("repaired", report.Repaired),
		slog.Int("placeholders", report.Placeholders))
	return report, nil
}

// repairOne resolves the expected primary for one product and corrects
// the denormalized field, and the primary flag itself, when they have
// drifted. Returns the expected image URL and whether anything was
// corrected.
func (v *Verifier) repairOne(ctx context.Context, productID string) (string, bool, error) {
	expected := domain.PlaceholderImageURL
	repaired := false
	err := v.store.WithTx(ctx, func(q postgres.Querier) error {
		// Lock the product so the repair cannot interleave with a
		// concurrent image-set mutation.
		current, err := q.GetProductForUpdate(ctx, productID)
		if err != nil {
			return err
		}

		candidate, err := q.ResolvePrimaryImage(ctx, productID)
		switch {
		case domain.IsCode(err, domain.ENOTFOUND):
			// No images at all: placeholder is correct.
		case err != nil:
			return err
		default:
			expected = candidate.URL
			if !candidate.IsPrimary {
				if err := q.DemoteOtherImages(ctx, productID, candidate.ID); err != nil {
					return err
				}
				if err := q.PromoteImage(ctx, candidate.ID); err != nil {
					return err
				}
				repaired = true
			}
		}

		if current.Image == expected {
			return nil
		}
		repaired = true
		return q.SetProductImage(ctx, productID, expected)
	})
	if err != nil {
		return expected, false, err
	}
	return expected, repaired, nil
}
