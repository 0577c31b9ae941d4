package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aldermarket/alder/internal/domain"
	"github.com/aldermarket/alder/internal/events"
	"github.com/aldermarket/alder/internal/postgres"
)

// Image synchronizer: every ProductImage write path ends here, inside
// the same transaction as the write itself, so the denormalized
// Product.image never observably diverges from the image set. Each
// mutation first locks the owning product row (GetProductForUpdate),
// serializing "set new primary, demote all others" sequences per
// product. Concurrent mutations on different products do not contend.

// AddImage attaches an already-uploaded URL to the product. The image
// becomes primary when makePrimary is set or when it is the product's
// first image; otherwise it is appended at the end of the display order
// and no product mutation occurs.
func (s *ProductService) AddImage(ctx context.Context, actorID, productID, url string, makePrimary bool) (*domain.ProductImage, error) {
	const op = "image.add"

	if strings.TrimSpace(actorID) == "" {
		return nil, s.fail(op, domain.Unauthorized(op, "actor is required"))
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, s.fail(op, domain.Invalid(op, "image url is required"))
	}

	var added domain.ProductImage
	err := s.store.WithTx(ctx, func(q postgres.Querier) error {
		if _, err := q.GetProductForUpdate(ctx, productID); err != nil {
			if domain.IsCode(err, domain.ENOTFOUND) {
				return domain.NotFound(op, "product", productID)
			}
			return err
		}

		images, err := q.GetProductImages(ctx, productID)
		if err != nil {
			return err
		}

		if makePrimary || len(images) == 0 {
			if err := s.setPrimaryByURL(ctx, q, productID, url); err != nil {
				return err
			}
			added, err = q.ResolvePrimaryImage(ctx, productID)
			return err
		}

		added, err = q.InsertImage(ctx, postgres.InsertImageParams{
			ID:           uuid.New(),
			ProductID:    productID,
			URL:          url,
			DisplayOrder: int32(len(images)),
			IsPrimary:    false,
		})
		if domain.IsCode(err, domain.ECONFLICT) {
			return domain.Conflict(op, "image already attached to product: "+url)
		}
		return err
	})
	if err != nil {
		return nil, s.fail(op, err)
	}

	s.publishUpdated(actorID, productID, added.URL, added.IsPrimary)
	return &added, nil
}

// RemoveImage detaches an image. When the removed image was primary, a
// replacement is promoted (lowest display order, ties by earliest
// created_at); with no images left the product falls back to the
// placeholder. Removing a non-primary image leaves the product row
// untouched.
func (s *ProductService) RemoveImage(ctx context.Context, actorID string, imageID uuid.UUID) error {
	const op = "image.remove"

	if strings.TrimSpace(actorID) == "" {
		return s.fail(op, domain.Unauthorized(op, "actor is required"))
	}

	var (
		productID string
		promoted  bool
		fallback  bool
		newImage  string
	)
	err := s.store.WithTx(ctx, func(q postgres.Querier) error {
		img, err := q.GetImage(ctx, imageID)
		if err != nil {
			if domain.IsCode(err, domain.ENOTFOUND) {
				return domain.NotFound(op, "image", imageID.String())
			}
			return err
		}
		productID = img.ProductID

		if _, err := q.GetProductForUpdate(ctx, productID); err != nil {
			return err
		}

		deleted, err := q.DeleteImage(ctx, imageID)
		if err != nil {
			return err
		}
		if !deleted.IsPrimary {
			return nil
		}

		candidate, err := q.ResolvePrimaryImage(ctx, productID)
		if err != nil {
			if domain.IsCode(err, domain.ENOTFOUND) {
				fallback = true
				newImage = domain.PlaceholderImageURL
				return s.propagate(ctx, q, productID, domain.PlaceholderImageURL)
			}
			return err
		}

		if err := q.PromoteImage(ctx, candidate.ID); err != nil {
			return err
		}
		promoted = true
		newImage = candidate.URL
		return s.propagate(ctx, q, productID, candidate.URL)
	})
	if err != nil {
		return s.fail(op, err)
	}

	if promoted {
		s.metrics.PrimaryPromotions.Inc()
	}
	if fallback {
		s.metrics.PlaceholderFallbacks.Inc()
	}
	if promoted || fallback {
		s.publishUpdated(actorID, productID, newImage, true)
	}
	return nil
}

// SetPrimaryImage makes an existing image the product's primary.
func (s *ProductService) SetPrimaryImage(ctx context.Context, actorID string, imageID uuid.UUID) error {
	const op = "image.set_primary"

	if strings.TrimSpace(actorID) == "" {
		return s.fail(op, domain.Unauthorized(op, "actor is required"))
	}

	var productID, url string
	err := s.store.WithTx(ctx, func(q postgres.Querier) error {
		img, err := q.GetImage(ctx, imageID)
		if err != nil {
			if domain.IsCode(err, domain.ENOTFOUND) {
				return domain.NotFound(op, "image", imageID.String())
			}
			return err
		}
		productID, url = img.ProductID, img.URL

		if _, err := q.GetProductForUpdate(ctx, productID); err != nil {
			return err
		}

		// Demote before promote: the partial unique index enforces one
		// primary per statement, not per transaction.
		if err := q.DemoteOtherImages(ctx, productID, imageID); err != nil {
			return err
		}
		if err := q.PromoteImage(ctx, imageID); err != nil {
			return err
		}
		return s.propagate(ctx, q, productID, url)
	})
	if err != nil {
		return s.fail(op, err)
	}

	s.publishUpdated(actorID, productID, url, true)
	return nil
}

// setPrimaryByURL demotes the product's current primary and upserts url
// as the new primary row at display order zero, then propagates it onto
// the product. Runs inside the caller's transaction, after the caller
// has locked the product row.
func (s *ProductService) setPrimaryByURL(ctx context.Context, q postgres.Querier, productID, url string) error {
	if err := q.DemoteAllImages(ctx, productID); err != nil {
		return err
	}
	if _, err := q.UpsertPrimaryImage(ctx, productID, url); err != nil {
		return err
	}
	return s.propagate(ctx, q, productID, url)
}

// propagate writes the denormalized image URL onto the product row.
// A missing image column is tolerated: the image rows already hold the
// primary, which is exactly the degraded state the schema guard and
// verifier recover from.
func (s *ProductService) propagate(ctx context.Context, q postgres.Querier, productID, url string) error {
	err := q.SetProductImage(ctx, productID, url)
	if domain.IsCode(err, domain.ESCHEMA) {
		s.logger.Warn("products.image column missing, primary recorded on image rows only",
			slog.String("product_id", productID))
		return nil
	}
	if err != nil {
		return err
	}
	s.metrics.PrimaryImageSyncs.Inc()
	return nil
}

func (s *ProductService) publishUpdated(actorID, productID, image string, primaryChanged bool) {
	if !primaryChanged {
		image = ""
	}
	s.events.Publish(events.ProductEvent{
		Type:      events.TypeProductUpdated,
		ProductID: productID,
		Image:     image,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
	})
}
