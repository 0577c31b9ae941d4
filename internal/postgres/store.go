package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aldermarket/alder/internal/domain"
)

// DBTX is the subset of pgx used by Queries. Both *pgxpool.Pool and
// pgx.Tx satisfy it, so the same query methods run pooled or inside a
// transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries holds all SQL access for the catalog core.
type Queries struct {
	db DBTX
}

// New creates Queries bound to a pool or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Store combines pooled queries with transaction management.
type Store struct {
	*Queries
	pool *pgxpool.Pool
}

// NewStore creates a Store backed by a pgx connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Queries: New(pool),
		pool:    pool,
	}
}

// WithTx runs fn inside a transaction with read-committed isolation.
// The transaction commits when fn returns nil and rolls back otherwise,
// so multi-row writes (product + images + inventory) are all-or-nothing.
func (s *Store) WithTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(New(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// PostgreSQL error codes translated into the domain taxonomy.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgUndefinedColumn     = "42703"
)

// translateError maps low-level pgx errors onto domain errors so the
// service layer never inspects driver codes directly.
func translateError(err error, op string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NotFound(op, "row", "")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return domain.Conflict(op, "duplicate key: "+pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return domain.Invalid(op, "invalid reference: "+pgErr.ConstraintName)
		case pgUndefinedColumn:
			return domain.SchemaMismatch(err, op, "schema is missing an expected column")
		}
	}

	return domain.Internal(err, op, "database operation failed")
}

// IsUndefinedColumn reports whether err is a PostgreSQL undefined
// column error, the signal for the schema drift degrade path.
func IsUndefinedColumn(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUndefinedColumn
	}
	return domain.IsCode(err, domain.ESCHEMA)
}
