package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for catalog-level observability.
type Metrics struct {
	// Product lifecycle
	ProductsCreated prometheus.Counter
	ProductsUpdated prometheus.Counter
	ProductsDeleted prometheus.Counter

	// Image synchronizer
	PrimaryImageSyncs    prometheus.Counter
	PrimaryPromotions    prometheus.Counter
	PlaceholderFallbacks prometheus.Counter

	// Consistency verifier
	VerifierRuns     prometheus.Counter
	VerifierRepairs  prometheus.Counter
	VerifierFailures prometheus.Counter

	// Errors by code, labeled so dashboards can split validation noise
	// from systemic failures
	OperationErrors *prometheus.CounterVec
}

// NewMetrics creates and registers catalog metrics on the given
// registerer. Pass prometheus.DefaultRegisterer in production.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ProductsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "alder_products_created_total",
			Help: "Total number of products created",
		}),
		ProductsUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "alder_products_updated_total",
			Help: "Total number of products updated",
		}),
		ProductsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "alder_products_deleted_total",
			Help: "Total number of products deleted",
		}),
		PrimaryImageSyncs: factory.NewCounter(prometheus.CounterOpts{
			Name: "alder_primary_image_syncs_total",
			Help: "Times the denormalized product image was propagated from an image write",
		}),
		PrimaryPromotions: factory.NewCounter(prometheus.CounterOpts{
			Name: "alder_primary_image_promotions_total",
			Help: "Times a replacement primary image was promoted after a delete",
		}),
		PlaceholderFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "alder_placeholder_fallbacks_total",
			Help: "Times a product fell back to the placeholder image",
		}),
		VerifierRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "alder_verifier_runs_total",
			Help: "Consistency verifier passes completed",
		}),
		VerifierRepairs: factory.NewCounter(prometheus.CounterOpts{
			Name: "alder_verifier_repairs_total",
			Help: "Products whose denormalized image the verifier corrected",
		}),
		VerifierFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "alder_verifier_failures_total",
			Help: "Per-product repair failures skipped by the verifier",
		}),
		OperationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "alder_operation_errors_total",
			Help: "Catalog operation errors by domain error code",
		}, []string{"op", "code"}),
	}
}
