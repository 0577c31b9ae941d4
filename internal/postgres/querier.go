package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/aldermarket/alder/internal/domain"
)

// Querier is the storage access contract for the catalog core. The
// service layer depends on this interface so tests can substitute
// in-memory implementations.
type Querier interface {
	// Products
	InsertProduct(ctx context.Context, arg InsertProductParams) (domain.Product, error)
	InsertProductNoImage(ctx context.Context, arg InsertProductParams) (domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	GetProductForUpdate(ctx context.Context, id string) (domain.Product, error)
	UpdateProduct(ctx context.Context, arg UpdateProductParams) (domain.Product, error)
	SetProductImage(ctx context.Context, id, url string) error
	DeleteProduct(ctx context.Context, id string) error
	ListProducts(ctx context.Context) ([]domain.Product, error)

	// Product images
	InsertImage(ctx context.Context, arg InsertImageParams) (domain.ProductImage, error)
	UpsertPrimaryImage(ctx context.Context, productID, url string) (domain.ProductImage, error)
	DemoteOtherImages(ctx context.Context, productID string, exceptID uuid.UUID) error
	DemoteAllImages(ctx context.Context, productID string) error
	PromoteImage(ctx context.Context, id uuid.UUID) error
	GetImage(ctx context.Context, id uuid.UUID) (domain.ProductImage, error)
	GetProductImages(ctx context.Context, productID string) ([]domain.ProductImage, error)
	DeleteImage(ctx context.Context, id uuid.UUID) (domain.ProductImage, error)
	ResolvePrimaryImage(ctx context.Context, productID string) (domain.ProductImage, error)

	// Inventory
	UpsertInventory(ctx context.Context, productID, location string, quantity, reorderLevel int32) error
	GetInventory(ctx context.Context, productID string) ([]domain.Inventory, error)

	// Categories
	CategoryExists(ctx context.Context, id string) (bool, error)
}

// Compile-time check that Queries implements Querier.
var _ Querier = (*Queries)(nil)
