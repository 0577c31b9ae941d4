package postgres

import (
	"context"
	"fmt"

	"github.com/aldermarket/alder/internal/domain"
)

// Schema guard: the image column on products has drifted in and out of
// deployed databases over this system's history. These operations make
// the column's presence and default a startup guarantee so the
// transaction engine can assume a known-good schema afterwards.

// EnsureImageColumn adds the denormalized image column if it is absent
// and re-asserts its non-null default either way. Safe to invoke on
// every deployment. Privilege errors are surfaced verbatim.
func (s *Store) EnsureImageColumn(ctx context.Context) error {
	addColumn := fmt.Sprintf(
		`ALTER TABLE products ADD COLUMN IF NOT EXISTS image text NOT NULL DEFAULT '%s'`,
		domain.PlaceholderImageURL)
	if _, err := s.pool.Exec(ctx, addColumn); err != nil {
		return fmt.Errorf("ensure image column: %w", err)
	}

	setDefault := fmt.Sprintf(
		`ALTER TABLE products ALTER COLUMN image SET DEFAULT '%s'`,
		domain.PlaceholderImageURL)
	if _, err := s.pool.Exec(ctx, setDefault); err != nil {
		return fmt.Errorf("assert image default: %w", err)
	}

	return nil
}

// BackfillMissingImages sets the placeholder on every product whose
// image is null or blank and returns the number of rows touched. Rows
// predating the column carry nulls despite the default.
func (s *Store) BackfillMissingImages(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE products SET image = $1 WHERE image IS NULL OR btrim(image) = ''`,
		domain.PlaceholderImageURL)
	if err != nil {
		return 0, fmt.Errorf("backfill missing images: %w", err)
	}
	return tag.RowsAffected(), nil
}
