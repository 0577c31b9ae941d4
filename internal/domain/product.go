package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlaceholderImageURL is the fallback image for products with no
// resolvable image. Product.Image is never null or empty: it always
// holds either an uploaded image URL or this constant.
const PlaceholderImageURL = "/images/placeholder-product.png"

// DefaultLocation is the inventory location a product is stocked at
// when it is created.
const DefaultLocation = "main"

// DefaultReorderLevel is the reorder threshold for a freshly created
// inventory record.
const DefaultReorderLevel = 10

// =============================================================================
// PRODUCT DOMAIN TYPES
// =============================================================================

// Product represents a catalog product.
// This is the domain type - implementations map from storage rows.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	CategoryID  string
	Tags        []string
	Unit        string
	Available   bool
	Featured    bool

	// Image is the denormalized primary image URL. It is owned by the
	// image synchronizer whenever product_images rows change and must
	// equal the current primary image's URL, or PlaceholderImageURL.
	Image string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProductImage represents one image attached to a product. At most one
// image per product has IsPrimary set at any committed state.
type ProductImage struct {
	ID           uuid.UUID
	ProductID    string
	URL          string
	DisplayOrder int32
	IsPrimary    bool
	CreatedAt    time.Time
}

// Inventory is the stock record for a (product, location) pair.
type Inventory struct {
	ProductID    string
	Location     string
	Quantity     int32
	ReorderLevel int32
	UpdatedAt    time.Time
}

// Category is a read-only dependency: existence is validated before
// product create/update, lifecycle is managed elsewhere.
type Category struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// =============================================================================
// OPERATION PARAMETERS
// =============================================================================

// CreateProductParams is the field bag for product creation.
// ID is optional: when blank an identifier is generated.
// Image is optional: when blank the primary image resolves to the first
// uploaded image URL, else the placeholder.
type CreateProductParams struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	CategoryID  string
	Tags        string // comma-separated, parsed to a deduplicated set
	Unit        string
	Available   bool
	Featured    bool
	Image       string
}

// UpdateProductParams carries a partial update. String fields that are
// blank after trimming are left unchanged; pointer fields are merged by
// presence. A non-blank Image becomes the new primary image.
type UpdateProductParams struct {
	Name        string
	Description string
	Price       *decimal.Decimal
	CategoryID  string
	Tags        string
	Unit        string
	Available   *bool
	Featured    *bool
	Image       string
}

// ProductResult is the structured success payload returned to callers.
type ProductResult struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Image     string    `json:"image"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ProductDetail aggregates a product with its images and inventory for
// the admin dashboard.
type ProductDetail struct {
	Product   Product
	Images    []ProductImage
	Inventory []Inventory
}

// RepairReport summarizes a consistency verifier pass.
type RepairReport struct {
	Scanned      int `json:"scanned"`
	Repaired     int `json:"repaired"`
	Placeholders int `json:"placeholders"`
}
