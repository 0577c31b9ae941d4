package service

import (
	"context"
	"maps"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aldermarket/alder/internal/domain"
	"github.com/aldermarket/alder/internal/postgres"
)

// fakeStore is an in-memory postgres.Querier with transactional WithTx
// semantics: mutations inside a failed transaction are rolled back by
// restoring a snapshot. Good enough to exercise the all-or-nothing
// behavior of the service layer without a database.
type fakeStore struct {
	products   map[string]domain.Product
	images     map[uuid.UUID]domain.ProductImage
	inventory  map[string]domain.Inventory // keyed productID + "/" + location
	categories map[string]bool

	// noImageColumn simulates schema drift: writes touching the
	// products.image column fail with a schema mismatch.
	noImageColumn bool

	// failInventory forces UpsertInventory to fail, for rollback tests.
	failInventory bool

	// failSetImageFor makes SetProductImage fail for one product id.
	failSetImageFor string

	seq int
}

func newFakeStore(categories ...string) *fakeStore {
	f := &fakeStore{
		products:   make(map[string]domain.Product),
		images:     make(map[uuid.UUID]domain.ProductImage),
		inventory:  make(map[string]domain.Inventory),
		categories: make(map[string]bool),
	}
	for _, c := range categories {
		f.categories[c] = true
	}
	return f
}

func (f *fakeStore) tick() time.Time {
	f.seq++
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(f.seq) * time.Second)
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(q postgres.Querier) error) error {
	products := maps.Clone(f.products)
	images := maps.Clone(f.images)
	inventory := maps.Clone(f.inventory)

	if err := fn(f); err != nil {
		f.products = products
		f.images = images
		f.inventory = inventory
		return err
	}
	return nil
}

// =============================================================================
// Products
// =============================================================================

func (f *fakeStore) InsertProduct(ctx context.Context, arg postgres.InsertProductParams) (domain.Product, error) {
	if f.noImageColumn {
		return domain.Product{}, domain.SchemaMismatch(nil, "postgres.InsertProduct", "column image does not exist")
	}
	return f.insert(arg, arg.Image)
}

func (f *fakeStore) InsertProductNoImage(ctx context.Context, arg postgres.InsertProductParams) (domain.Product, error) {
	return f.insert(arg, "")
}

func (f *fakeStore) insert(arg postgres.InsertProductParams, image string) (domain.Product, error) {
	if _, ok := f.products[arg.ID]; ok {
		return domain.Product{}, domain.Conflict("postgres.InsertProduct", "duplicate key")
	}
	now := f.tick()
	p := domain.Product{
		ID:          arg.ID,
		Name:        arg.Name,
		Description: arg.Description,
		Price:       arg.Price,
		CategoryID:  arg.CategoryID,
		Tags:        arg.Tags,
		Unit:        arg.Unit,
		Available:   arg.Available,
		Featured:    arg.Featured,
		Image:       image,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeStore) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return domain.Product{}, domain.NotFound("postgres.GetProduct", "product", id)
	}
	return p, nil
}

func (f *fakeStore) GetProductForUpdate(ctx context.Context, id string) (domain.Product, error) {
	return f.GetProduct(ctx, id)
}

func (f *fakeStore) UpdateProduct(ctx context.Context, arg postgres.UpdateProductParams) (domain.Product, error) {
	p, ok := f.products[arg.ID]
	if !ok {
		return domain.Product{}, domain.NotFound("postgres.UpdateProduct", "product", arg.ID)
	}
	p.Name = arg.Name
	p.Description = arg.Description
	p.Price = arg.Price
	p.CategoryID = arg.CategoryID
	p.Tags = arg.Tags
	p.Unit = arg.Unit
	p.Available = arg.Available
	p.Featured = arg.Featured
	p.UpdatedAt = f.tick()
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeStore) SetProductImage(ctx context.Context, id, url string) error {
	if f.noImageColumn {
		return domain.SchemaMismatch(nil, "postgres.SetProductImage", "column image does not exist")
	}
	if f.failSetImageFor != "" && f.failSetImageFor == id {
		return domain.Internal(nil, "postgres.SetProductImage", "forced failure")
	}
	p, ok := f.products[id]
	if !ok {
		return nil
	}
	p.Image = url
	p.UpdatedAt = f.tick()
	f.products[id] = p
	return nil
}

func (f *fakeStore) DeleteProduct(ctx context.Context, id string) error {
	if _, ok := f.products[id]; !ok {
		return domain.NotFound("postgres.DeleteProduct", "product", id)
	}
	delete(f.products, id)
	for imgID, img := range f.images {
		if img.ProductID == id {
			delete(f.images, imgID)
		}
	}
	for key, inv := range f.inventory {
		if inv.ProductID == id {
			delete(f.inventory, key)
		}
	}
	return nil
}

func (f *fakeStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products := slices.Collect(maps.Values(f.products))
	sort.Slice(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	return products, nil
}

// =============================================================================
// Product images
// =============================================================================

func (f *fakeStore) InsertImage(ctx context.Context, arg postgres.InsertImageParams) (domain.ProductImage, error) {
	for _, img := range f.images {
		if img.ProductID == arg.ProductID && img.URL == arg.URL {
			return domain.ProductImage{}, domain.Conflict("postgres.InsertImage", "duplicate key")
		}
	}
	img := domain.ProductImage{
		ID:           arg.ID,
		ProductID:    arg.ProductID,
		URL:          arg.URL,
		DisplayOrder: arg.DisplayOrder,
		IsPrimary:    arg.IsPrimary,
		CreatedAt:    f.tick(),
	}
	f.images[img.ID] = img
	return img, nil
}

func (f *fakeStore) UpsertPrimaryImage(ctx context.Context, productID, url string) (domain.ProductImage, error) {
	for id, img := range f.images {
		if img.ProductID == productID && img.URL == url {
			img.IsPrimary = true
			img.DisplayOrder = 0
			f.images[id] = img
			return img, nil
		}
	}
	return f.InsertImage(ctx, postgres.InsertImageParams{
		ID:           uuid.New(),
		ProductID:    productID,
		URL:          url,
		DisplayOrder: 0,
		IsPrimary:    true,
	})
}

func (f *fakeStore) DemoteOtherImages(ctx context.Context, productID string, exceptID uuid.UUID) error {
	for id, img := range f.images {
		if img.ProductID == productID && id != exceptID && img.IsPrimary {
			img.IsPrimary = false
			f.images[id] = img
		}
	}
	return nil
}

func (f *fakeStore) DemoteAllImages(ctx context.Context, productID string) error {
	return f.DemoteOtherImages(ctx, productID, uuid.Nil)
}

func (f *fakeStore) PromoteImage(ctx context.Context, id uuid.UUID) error {
	img, ok := f.images[id]
	if !ok {
		return domain.NotFound("postgres.PromoteImage", "image", id.String())
	}
	img.IsPrimary = true
	f.images[id] = img
	return nil
}

func (f *fakeStore) GetImage(ctx context.Context, id uuid.UUID) (domain.ProductImage, error) {
	img, ok := f.images[id]
	if !ok {
		return domain.ProductImage{}, domain.NotFound("postgres.GetImage", "image", id.String())
	}
	return img, nil
}

func (f *fakeStore) GetProductImages(ctx context.Context, productID string) ([]domain.ProductImage, error) {
	var images []domain.ProductImage
	for _, img := range f.images {
		if img.ProductID == productID {
			images = append(images, img)
		}
	}
	sort.Slice(images, func(i, j int) bool {
		if images[i].DisplayOrder != images[j].DisplayOrder {
			return images[i].DisplayOrder < images[j].DisplayOrder
		}
		return images[i].CreatedAt.Before(images[j].CreatedAt)
	})
	return images, nil
}

func (f *fakeStore) DeleteImage(ctx context.Context, id uuid.UUID) (domain.ProductImage, error) {
	img, ok := f.images[id]
	if !ok {
		return domain.ProductImage{}, domain.NotFound("postgres.DeleteImage", "image", id.String())
	}
	delete(f.images, id)
	return img, nil
}

func (f *fakeStore) ResolvePrimaryImage(ctx context.Context, productID string) (domain.ProductImage, error) {
	images, _ := f.GetProductImages(ctx, productID)
	if len(images) == 0 {
		return domain.ProductImage{}, domain.NotFound("postgres.ResolvePrimaryImage", "image", productID)
	}
	sort.SliceStable(images, func(i, j int) bool {
		return images[i].IsPrimary && !images[j].IsPrimary
	})
	return images[0], nil
}

// =============================================================================
// Inventory and categories
// =============================================================================

func (f *fakeStore) UpsertInventory(ctx context.Context, productID, location string, quantity, reorderLevel int32) error {
	if f.failInventory {
		return domain.Internal(nil, "postgres.UpsertInventory", "forced failure")
	}
	key := productID + "/" + location
	if _, ok := f.inventory[key]; ok {
		return nil
	}
	f.inventory[key] = domain.Inventory{
		ProductID:    productID,
		Location:     location,
		Quantity:     quantity,
		ReorderLevel: reorderLevel,
		UpdatedAt:    f.tick(),
	}
	return nil
}

func (f *fakeStore) GetInventory(ctx context.Context, productID string) ([]domain.Inventory, error) {
	var records []domain.Inventory
	for _, inv := range f.inventory {
		if inv.ProductID == productID {
			records = append(records, inv)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Location < records[j].Location
	})
	return records, nil
}

func (f *fakeStore) CategoryExists(ctx context.Context, id string) (bool, error) {
	return f.categories[id], nil
}

var _ Store = (*fakeStore)(nil)
