package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/aldermarket/alder/internal/domain"
)

// =============================================================================
// PRODUCTS
// =============================================================================

// InsertProductParams holds a fully resolved product row.
type InsertProductParams struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	CategoryID  string
	Tags        []string
	Unit        string
	Available   bool
	Featured    bool
	Image       string
}

const insertProduct = `
INSERT INTO products (id, name, description, price, category_id, tags, unit, available, featured, image)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, name, description, price, category_id, tags, unit, available, featured, image, created_at, updated_at`

func (q *Queries) InsertProduct(ctx context.Context, arg InsertProductParams) (domain.Product, error) {
	row := q.db.QueryRow(ctx, insertProduct,
		arg.ID, arg.Name, arg.Description, decimalToNumeric(arg.Price), arg.CategoryID,
		arg.Tags, arg.Unit, arg.Available, arg.Featured, arg.Image)
	p, err := scanProduct(row)
	if err != nil {
		return domain.Product{}, translateError(err, "product.insert")
	}
	return p, nil
}

// InsertProductNoImage is the schema drift fallback: it writes the same
// row without touching the image column, for databases where the column
// has not been added yet. The returned Image is the placeholder.
const insertProductNoImage = `
INSERT INTO products (id, name, description, price, category_id, tags, unit, available, featured)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, name, description, price, category_id, tags, unit, available, featured, created_at, updated_at`

func (q *Queries) InsertProductNoImage(ctx context.Context, arg InsertProductParams) (domain.Product, error) {
	row := q.db.QueryRow(ctx, insertProductNoImage,
		arg.ID, arg.Name, arg.Description, decimalToNumeric(arg.Price), arg.CategoryID,
		arg.Tags, arg.Unit, arg.Available, arg.Featured)

	var p domain.Product
	var price pgtype.Numeric
	err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.CategoryID,
		&p.Tags, &p.Unit, &p.Available, &p.Featured, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Product{}, translateError(err, "product.insert")
	}
	p.Price = numericToDecimal(price)
	p.Image = domain.PlaceholderImageURL
	return p, nil
}

const getProduct = `
SELECT id, name, description, price, category_id, tags, unit, available, featured, image, created_at, updated_at
FROM products WHERE id = $1`

func (q *Queries) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	p, err := scanProduct(q.db.QueryRow(ctx, getProduct, id))
	if err != nil {
		return domain.Product{}, translateError(err, "product.get")
	}
	return p, nil
}

// GetProductForUpdate locks the product row for the duration of the
// surrounding transaction. Every image-set mutation takes this lock
// first so "set new primary, demote all others" sequences for the same
// product never interleave.
const getProductForUpdate = getProduct + ` FOR UPDATE`

func (q *Queries) GetProductForUpdate(ctx context.Context, id string) (domain.Product, error) {
	p, err := scanProduct(q.db.QueryRow(ctx, getProductForUpdate, id))
	if err != nil {
		return domain.Product{}, translateError(err, "product.lock")
	}
	return p, nil
}

// UpdateProductParams holds already-merged product fields. Callers
// fetch the existing row and overlay supplied values before calling.
// The image column is owned by the image synchronizer and is not
// written here.
type UpdateProductParams struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	CategoryID  string
	Tags        []string
	Unit        string
	Available   bool
	Featured    bool
}

const updateProduct = `
UPDATE products
SET name = $2, description = $3, price = $4, category_id = $5, tags = $6,
    unit = $7, available = $8, featured = $9, updated_at = now()
WHERE id = $1
RETURNING id, name, description, price, category_id, tags, unit, available, featured, image, created_at, updated_at`

func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (domain.Product, error) {
	row := q.db.QueryRow(ctx, updateProduct,
		arg.ID, arg.Name, arg.Description, decimalToNumeric(arg.Price), arg.CategoryID,
		arg.Tags, arg.Unit, arg.Available, arg.Featured)
	p, err := scanProduct(row)
	if err != nil {
		return domain.Product{}, translateError(err, "product.update")
	}
	return p, nil
}

// SetProductImage writes the denormalized primary image URL. Only the
// image synchronizer and the consistency verifier call this.
const setProductImage = `UPDATE products SET image = $2, updated_at = now() WHERE id = $1`

func (q *Queries) SetProductImage(ctx context.Context, id, url string) error {
	tag, err := q.db.Exec(ctx, setProductImage, id, url)
	if err != nil {
		return translateError(err, "product.set_image")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("product.set_image", "product", id)
	}
	return nil
}

const deleteProduct = `DELETE FROM products WHERE id = $1`

// DeleteProduct removes the product row. Images and inventory cascade
// at the schema level.
func (q *Queries) DeleteProduct(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, deleteProduct, id)
	if err != nil {
		return translateError(err, "product.delete")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("product.delete", "product", id)
	}
	return nil
}

const listProducts = `
SELECT id, name, description, price, category_id, tags, unit, available, featured, image, created_at, updated_at
FROM products ORDER BY created_at DESC`

func (q *Queries) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := q.db.Query(ctx, listProducts)
	if err != nil {
		return nil, translateError(err, "product.list")
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, translateError(err, "product.list")
		}
		products = append(products, p)
	}
	return products, translateError(rows.Err(), "product.list")
}

// =============================================================================
// PRODUCT IMAGES
// =============================================================================

// InsertImageParams describes a new product_images row.
type InsertImageParams struct {
	ID           uuid.UUID
	ProductID    string
	URL          string
	DisplayOrder int32
	IsPrimary    bool
}

const insertImage = `
INSERT INTO product_images (id, product_id, url, display_order, is_primary)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, product_id, url, display_order, is_primary, created_at`

func (q *Queries) InsertImage(ctx context.Context, arg InsertImageParams) (domain.ProductImage, error) {
	row := q.db.QueryRow(ctx, insertImage,
		pgUUID(arg.ID), arg.ProductID, arg.URL, arg.DisplayOrder, arg.IsPrimary)
	img, err := scanImage(row)
	if err != nil {
		return domain.ProductImage{}, translateError(err, "image.insert")
	}
	return img, nil
}

// UpsertPrimaryImage writes url as the product's primary image at
// display order zero, updating in place when the URL already exists for
// the product. Callers must demote existing primaries first: the
// partial unique index enforces one primary per statement.
const upsertPrimaryImage = `
INSERT INTO product_images (id, product_id, url, display_order, is_primary)
VALUES ($1, $2, $3, 0, true)
ON CONFLICT (product_id, url)
DO UPDATE SET is_primary = true, display_order = 0
RETURNING id, product_id, url, display_order, is_primary, created_at`

func (q *Queries) UpsertPrimaryImage(ctx context.Context, productID, url string) (domain.ProductImage, error) {
	row := q.db.QueryRow(ctx, upsertPrimaryImage, pgUUID(uuid.New()), productID, url)
	img, err := scanImage(row)
	if err != nil {
		return domain.ProductImage{}, translateError(err, "image.upsert_primary")
	}
	return img, nil
}

const demoteOtherImages = `
UPDATE product_images SET is_primary = false
WHERE product_id = $1 AND id <> $2 AND is_primary`

// DemoteOtherImages unsets is_primary on every image of the product
// except the one just written.
func (q *Queries) DemoteOtherImages(ctx context.Context, productID string, exceptID uuid.UUID) error {
	_, err := q.db.Exec(ctx, demoteOtherImages, productID, pgUUID(exceptID))
	return translateError(err, "image.demote_others")
}

const demoteAllImages = `
UPDATE product_images SET is_primary = false
WHERE product_id = $1 AND is_primary`

// DemoteAllImages unsets is_primary across the product's image set,
// clearing the way for a new primary write.
func (q *Queries) DemoteAllImages(ctx context.Context, productID string) error {
	_, err := q.db.Exec(ctx, demoteAllImages, productID)
	return translateError(err, "image.demote_all")
}

const promoteImage = `UPDATE product_images SET is_primary = true WHERE id = $1`

func (q *Queries) PromoteImage(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, promoteImage, pgUUID(id))
	return translateError(err, "image.promote")
}

const getImage = `
SELECT id, product_id, url, display_order, is_primary, created_at
FROM product_images WHERE id = $1`

func (q *Queries) GetImage(ctx context.Context, id uuid.UUID) (domain.ProductImage, error) {
	img, err := scanImage(q.db.QueryRow(ctx, getImage, pgUUID(id)))
	if err != nil {
		return domain.ProductImage{}, translateError(err, "image.get")
	}
	return img, nil
}

const getProductImages = `
SELECT id, product_id, url, display_order, is_primary, created_at
FROM product_images WHERE product_id = $1
ORDER BY display_order, created_at`

func (q *Queries) GetProductImages(ctx context.Context, productID string) ([]domain.ProductImage, error) {
	rows, err := q.db.Query(ctx, getProductImages, productID)
	if err != nil {
		return nil, translateError(err, "image.list")
	}
	defer rows.Close()

	var images []domain.ProductImage
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, translateError(err, "image.list")
		}
		images = append(images, img)
	}
	return images, translateError(rows.Err(), "image.list")
}

const deleteImage = `
DELETE FROM product_images WHERE id = $1
RETURNING id, product_id, url, display_order, is_primary, created_at`

// DeleteImage removes the row and returns it, so the caller can tell
// whether the deleted image was primary and for which product.
func (q *Queries) DeleteImage(ctx context.Context, id uuid.UUID) (domain.ProductImage, error) {
	img, err := scanImage(q.db.QueryRow(ctx, deleteImage, pgUUID(id)))
	if err != nil {
		return domain.ProductImage{}, translateError(err, "image.delete")
	}
	return img, nil
}

// ResolvePrimaryImage returns the image that should be primary for the
// product: the current primary if one exists, else the lowest display
// order with ties broken by earliest created_at. pgx.ErrNoRows maps to
// ENOTFOUND when the product has no images at all.
const resolvePrimaryImage = `
SELECT id, product_id, url, display_order, is_primary, created_at
FROM product_images WHERE product_id = $1
ORDER BY is_primary DESC, display_order, created_at
LIMIT 1`

func (q *Queries) ResolvePrimaryImage(ctx context.Context, productID string) (domain.ProductImage, error) {
	img, err := scanImage(q.db.QueryRow(ctx, resolvePrimaryImage, productID))
	if err != nil {
		return domain.ProductImage{}, translateError(err, "image.resolve_primary")
	}
	return img, nil
}

// =============================================================================
// INVENTORY
// =============================================================================

// UpsertInventory ensures one stock record exists for the (product,
// location) pair. An existing pair is left untouched.
const upsertInventory = `
INSERT INTO inventory (product_id, location, quantity, reorder_level)
VALUES ($1, $2, $3, $4)
ON CONFLICT (product_id, location) DO NOTHING`

func (q *Queries) UpsertInventory(ctx context.Context, productID, location string, quantity, reorderLevel int32) error {
	_, err := q.db.Exec(ctx, upsertInventory, productID, location, quantity, reorderLevel)
	return translateError(err, "inventory.upsert")
}

const getInventory = `
SELECT product_id, location, quantity, reorder_level, updated_at
FROM inventory WHERE product_id = $1 ORDER BY location`

func (q *Queries) GetInventory(ctx context.Context, productID string) ([]domain.Inventory, error) {
	rows, err := q.db.Query(ctx, getInventory, productID)
	if err != nil {
		return nil, translateError(err, "inventory.get")
	}
	defer rows.Close()

	var records []domain.Inventory
	for rows.Next() {
		var inv domain.Inventory
		if err := rows.Scan(&inv.ProductID, &inv.Location, &inv.Quantity, &inv.ReorderLevel, &inv.UpdatedAt); err != nil {
			return nil, translateError(err, "inventory.get")
		}
		records = append(records, inv)
	}
	return records, translateError(rows.Err(), "inventory.get")
}

// =============================================================================
// CATEGORIES
// =============================================================================

const categoryExists = `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`

func (q *Queries) CategoryExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := q.db.QueryRow(ctx, categoryExists, id).Scan(&exists); err != nil {
		return false, translateError(err, "category.exists")
	}
	return exists, nil
}

// =============================================================================
// MAPPING HELPERS
// =============================================================================

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	var price pgtype.Numeric
	err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.CategoryID,
		&p.Tags, &p.Unit, &p.Available, &p.Featured, &p.Image, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Product{}, err
	}
	p.Price = numericToDecimal(price)
	return p, nil
}

func scanImage(row pgx.Row) (domain.ProductImage, error) {
	var img domain.ProductImage
	var id pgtype.UUID
	err := row.Scan(&id, &img.ProductID, &img.URL, &img.DisplayOrder, &img.IsPrimary, &img.CreatedAt)
	if err != nil {
		return domain.ProductImage{}, err
	}
	img.ID = uuid.UUID(id.Bytes)
	return img, nil
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}
