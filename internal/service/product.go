package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/aldermarket/alder/internal/domain"
	"github.com/aldermarket/alder/internal/events"
	"github.com/aldermarket/alder/internal/postgres"
	"github.com/aldermarket/alder/internal/telemetry"
)

// ProductService executes product create, update and delete as single
// logical transactions spanning the product row, its image set and its
// inventory record. The primary-image invariant is maintained by the
// image synchronizer functions in imagesync.go, invoked inside the same
// transaction as every image write.
type ProductService struct {
	store    Store
	events   events.Publisher
	metrics  *telemetry.Metrics
	logger   *slog.Logger
	validate *validator.Validate
}

// NewProductService creates the transaction engine. publisher may be
// events.NoopPublisher when no broker is configured.
func NewProductService(store Store, publisher events.Publisher, metrics *telemetry.Metrics, logger *slog.Logger) *ProductService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductService{
		store:    store,
		events:   publisher,
		metrics:  metrics,
		logger:   logger,
		validate: newValidator(),
	}
}

// Create validates and writes a product together with its image rows
// and inventory record. imageURLs are already-uploaded URLs; the first
// becomes primary unless params.Image names an explicit main image.
func (s *ProductService) Create(ctx context.Context, actorID string, params domain.CreateProductParams, imageURLs []string) (*domain.ProductResult, error) {
	const op = "product.create"

	if strings.TrimSpace(actorID) == "" {
		return nil, s.fail(op, domain.Unauthorized(op, "actor is required"))
	}

	input := createProductInput{
		ID:          strings.TrimSpace(params.ID),
		Name:        strings.TrimSpace(params.Name),
		Description: strings.TrimSpace(params.Description),
		Price:       params.Price,
		CategoryID:  strings.TrimSpace(params.CategoryID),
		Unit:        strings.TrimSpace(params.Unit),
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, s.fail(op, translateValidation(err, op))
	}

	exists, err := s.store.CategoryExists(ctx, input.CategoryID)
	if err != nil {
		return nil, s.fail(op, err)
	}
	if !exists {
		return nil, s.fail(op, domain.Errorf(domain.EINVALID, op, "category not found: %s", input.CategoryID))
	}

	productID := input.ID
	if productID == "" {
		productID = newProductID()
	}

	urls, mainImage := resolveImages(params.Image, imageURLs)

	var created domain.Product
	err = s.store.WithTx(ctx, func(q postgres.Querier) error {
		insert := postgres.InsertProductParams{
			ID:          productID,
			Name:        input.Name,
			Description: input.Description,
			Price:       params.Price,
			CategoryID:  input.CategoryID,
			Tags:        parseTags(params.Tags),
			Unit:        input.Unit,
			Available:   params.Available,
			Featured:    params.Featured,
			Image:       mainImage,
		}

		p, err := q.InsertProduct(ctx, insert)
		if domain.IsCode(err, domain.ESCHEMA) {
			// Schema drift: write the row without the image column and
			// let the image rows below carry the primary instead.
			s.logger.Warn("products.image column missing, retrying without it",
				slog.String("product_id", productID))
			p, err = q.InsertProductNoImage(ctx, insert)
		}
		if err != nil {
			if domain.IsCode(err, domain.ECONFLICT) {
				return domain.Conflict(op, fmt.Sprintf("product id already exists: %s", productID))
			}
			return err
		}

		for i, url := range urls {
			_, err := q.InsertImage(ctx, postgres.InsertImageParams{
				ID:           uuid.New(),
				ProductID:    p.ID,
				URL:          url,
				DisplayOrder: int32(i),
				IsPrimary:    i == 0,
			})
			if err != nil {
				return err
			}
		}

		if err := q.UpsertInventory(ctx, p.ID, domain.DefaultLocation, 0, domain.DefaultReorderLevel); err != nil {
			return err
		}

		created = p
		return nil
	})
	if err != nil {
		return nil, s.fail(op, err)
	}

	s.metrics.ProductsCreated.Inc()
	s.events.Publish(events.ProductEvent{
		Type:      events.TypeProductCreated,
		ProductID: created.ID,
		Name:      created.Name,
		Image:     mainImage,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
	})

	return &domain.ProductResult{
		ID:        created.ID,
		Name:      created.Name,
		Image:     mainImage,
		Success:   true,
		Message:   "Product created successfully",
		Timestamp: created.CreatedAt,
	}, nil
}

// Update applies a partial update: fields blank after trimming are left
// unchanged, booleans merge by presence, and a supplied image becomes
// the new primary through the image synchronizer.
func (s *ProductService) Update(ctx context.Context, actorID, productID string, params domain.UpdateProductParams) (*domain.ProductResult, error) {
	const op = "product.update"

	if strings.TrimSpace(actorID) == "" {
		return nil, s.fail(op, domain.Unauthorized(op, "actor is required"))
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, s.fail(op, domain.Invalid(op, "product id is required"))
	}
	if params.Price != nil && !params.Price.IsPositive() {
		return nil, s.fail(op, domain.NewValidationError(op, "price", "price must be positive"))
	}

	if categoryID := strings.TrimSpace(params.CategoryID); categoryID != "" {
		exists, err := s.store.CategoryExists(ctx, categoryID)
		if err != nil {
			return nil, s.fail(op, err)
		}
		if !exists {
			return nil, s.fail(op, domain.Errorf(domain.EINVALID, op, "category not found: %s", categoryID))
		}
	}

	var updated domain.Product
	err := s.store.WithTx(ctx, func(q postgres.Querier) error {
		existing, err := q.GetProductForUpdate(ctx, productID)
		if err != nil {
			if domain.IsCode(err, domain.ENOTFOUND) {
				return domain.NotFound(op, "product", productID)
			}
			return err
		}

		merged := mergeProduct(existing, params)
		updated, err = q.UpdateProduct(ctx, merged)
		if err != nil {
			return err
		}

		if image := strings.TrimSpace(params.Image); image != "" {
			if err := s.setPrimaryByURL(ctx, q, productID, image); err != nil {
				return err
			}
			updated.Image = image
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(op, err)
	}

	s.metrics.ProductsUpdated.Inc()
	s.events.Publish(events.ProductEvent{
		Type:      events.TypeProductUpdated,
		ProductID: updated.ID,
		Name:      updated.Name,
		Image:     updated.Image,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
	})

	return &domain.ProductResult{
		ID:        updated.ID,
		Name:      updated.Name,
		Image:     updated.Image,
		Success:   true,
		Message:   "Product updated successfully",
		Timestamp: updated.UpdatedAt,
	}, nil
}

// Delete removes the product; image and inventory rows cascade at the
// schema level. Irreversible. The deleted event carries the image URLs
// so an external consumer may clean up blob storage.
func (s *ProductService) Delete(ctx context.Context, actorID, productID string) error {
	const op = "product.delete"

	if strings.TrimSpace(actorID) == "" {
		return s.fail(op, domain.Unauthorized(op, "actor is required"))
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return s.fail(op, domain.Invalid(op, "product id is required"))
	}

	var urls []string
	err := s.store.WithTx(ctx, func(q postgres.Querier) error {
		images, err := q.GetProductImages(ctx, productID)
		if err != nil {
			return err
		}
		for _, img := range images {
			urls = append(urls, img.URL)
		}
		return q.DeleteProduct(ctx, productID)
	})
	if err != nil {
		return s.fail(op, err)
	}

	s.metrics.ProductsDeleted.Inc()
	s.events.Publish(events.ProductEvent{
		Type:      events.TypeProductDeleted,
		ProductID: productID,
		ImageURLs: urls,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// Get returns a product with its images and inventory records.
func (s *ProductService) Get(ctx context.Context, productID string) (*domain.ProductDetail, error) {
	const op = "product.get"

	product, err := s.store.GetProduct(ctx, strings.TrimSpace(productID))
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return nil, domain.NotFound(op, "product", productID)
		}
		return nil, err
	}

	images, err := s.store.GetProductImages(ctx, product.ID)
	if err != nil {
		return nil, err
	}

	inventory, err := s.store.GetInventory(ctx, product.ID)
	if err != nil {
		return nil, err
	}

	return &domain.ProductDetail{
		Product:   product,
		Images:    images,
		Inventory: inventory,
	}, nil
}

// List returns all products, newest first.
func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	return s.store.ListProducts(ctx)
}

// fail records the error code in telemetry and passes the error through.
func (s *ProductService) fail(op string, err error) error {
	s.metrics.OperationErrors.WithLabelValues(op, domain.ErrorCode(err)).Inc()
	return err
}

// mergeProduct overlays supplied update fields on the existing row.
func mergeProduct(existing domain.Product, params domain.UpdateProductParams) postgres.UpdateProductParams {
	merged := postgres.UpdateProductParams{
		ID:          existing.ID,
		Name:        existing.Name,
		Description: existing.Description,
		Price:       existing.Price,
		CategoryID:  existing.CategoryID,
		Tags:        existing.Tags,
		Unit:        existing.Unit,
		Available:   existing.Available,
		Featured:    existing.Featured,
	}

	if v := strings.TrimSpace(params.Name); v != "" {
		merged.Name = v
	}
	if v := strings.TrimSpace(params.Description); v != "" {
		merged.Description = v
	}
	if v := strings.TrimSpace(params.CategoryID); v != "" {
		merged.CategoryID = v
	}
	if v := strings.TrimSpace(params.Unit); v != "" {
		merged.Unit = v
	}
	if params.Price != nil {
		merged.Price = *params.Price
	}
	if params.Available != nil {
		merged.Available = *params.Available
	}
	if params.Featured != nil {
		merged.Featured = *params.Featured
	}
	if tags := parseTags(params.Tags); len(tags) > 0 {
		merged.Tags = tags
	}
	return merged
}

// resolveImages normalizes the uploaded URL list and resolves the main
// image: explicit image field first, else the first uploaded URL, else
// the placeholder. An explicit main image is moved to the front of the
// list so the primary flag and the denormalized column always agree.
func resolveImages(explicit string, imageURLs []string) (urls []string, mainImage string) {
	for _, u := range imageURLs {
		u = strings.TrimSpace(u)
		if u != "" && !slices.Contains(urls, u) {
			urls = append(urls, u)
		}
	}

	mainImage = strings.TrimSpace(explicit)
	switch {
	case mainImage != "":
		if i := slices.Index(urls, mainImage); i >= 0 {
			urls = slices.Delete(urls, i, i+1)
		}
		urls = slices.Insert(urls, 0, mainImage)
	case len(urls) > 0:
		mainImage = urls[0]
	default:
		mainImage = domain.PlaceholderImageURL
	}
	return urls, mainImage
}

// parseTags splits a comma-separated tag string into a trimmed,
// deduplicated set, preserving first-seen order.
func parseTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t != "" && !slices.Contains(tags, t) {
			tags = append(tags, t)
		}
	}
	return tags
}

// newProductID generates an identifier from the current epoch seconds
// and a small random suffix. Collisions are not pre-checked; the
// primary-key constraint surfaces them as conflicts to the caller.
func newProductID() string {
	return fmt.Sprintf("product-%d-%d", time.Now().Unix(), rand.IntN(1000))
}
