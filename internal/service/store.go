package service

import (
	"context"

	"github.com/aldermarket/alder/internal/postgres"
)

// Store is the storage dependency of the catalog services: pooled
// queries plus a transaction boundary. *postgres.Store implements it;
// tests substitute an in-memory fake.
type Store interface {
	postgres.Querier

	// WithTx runs fn as one all-or-nothing unit of work.
	WithTx(ctx context.Context, fn func(q postgres.Querier) error) error
}
