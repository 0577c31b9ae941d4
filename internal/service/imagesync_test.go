package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldermarket/alder/internal/domain"
	"github.com/aldermarket/alder/internal/events"
)

// countPrimaries returns how many of the product's images carry the
// primary flag. Any value other than one (or zero with no images) is an
// invariant violation.
func countPrimaries(t *testing.T, store *fakeStore, productID string) int {
	t.Helper()
	images, err := store.GetProductImages(context.Background(), productID)
	require.NoError(t, err)
	n := 0
	for _, img := range images {
		if img.IsPrimary {
			n++
		}
	}
	return n
}

func seedProduct(t *testing.T, store *fakeStore, imageURLs ...string) string {
	t.Helper()
	svc, _ := newTestService(store)
	result, err := svc.Create(context.Background(), "staff-1", validCreateParams(), imageURLs)
	require.NoError(t, err)
	return result.ID
}

func TestAddImage(t *testing.T) {
	ctx := context.Background()

	t.Run("first image becomes primary", func(t *testing.T) {
		store := newFakeStore("cat-rice")
		id := seedProduct(t, store)
		svc, _ := newTestService(store)

		img, err := svc.AddImage(ctx, "staff-1", id, "/images/a.jpg", false)
		require.NoError(t, err)
		assert.True(t, img.IsPrimary)

		product, err := store.GetProduct(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "/images/a.jpg", product.Image)
	})

	t.Run("later images append without touching the product", func(t *testing.T) {
		store := newFakeStore("cat-rice")
		id := seedProduct(t, store, "/images/a.jpg")
		svc, publisher := newTestService(store)

		img, err := svc.AddImage(ctx, "staff-1", id, "/images/b.jpg", false)
		require.NoError(t, err)
		assert.False(t, img.IsPrimary)
		assert.Equal(t, int32(1), img.DisplayOrder)

		product, err := store.GetProduct(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "/images/a.jpg", product.Image)
		assert.Equal(t, 1, countPrimaries(t, store, id))

		published := publisher.all()
		require.Len(t, published, 1)
		assert.Equal(t, events.TypeProductUpdated, published[0].Type)
		assert.Empty(t, published[0].Image)
	})

	t.Run("make primary demotes the old primary", func(t *testing.T) {
		store := newFakeStore("cat-rice")
		id := seedProduct(t, store, "/images/a.jpg")
		svc, _ := newTestService(store)

		img, err := svc.AddImage(ctx, "staff-1", id, "/images/b.jpg", true)
		require.NoError(t, err)
		assert.True(t, img.IsPrimary)
		assert.Equal(t, 1, countPrimaries(t, store, id))

		product, err := store.GetProduct(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "/images/b.jpg", product.Image)
	})

	t.Run("duplicate url is a conflict", func(t *testing.T) {
		store := newFakeStore("cat-rice")
		id := seedProduct(t, store, "/images/a.jpg", "/images/b.jpg")
		svc, _ := newTestService(store)

		_, err := svc.AddImage(ctx, "staff-1", id, "/images/b.jpg", false)
		require.Error(t, err)
		assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))
	})

	t.Run("unknown product is not found", func(t *testing.T) {
		store := newFakeStore("cat-rice")
		svc, _ := newTestService(store)

		_, err := svc.AddImage(ctx, "staff-1", "nope", "/images/a.jpg", false)
		require.Error(t, err)
		assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	})

	t.Run("blank url is invalid", func(t *testing.T) {
		store := newFakeStore("cat-rice")
		id := seedProduct(t, store)
		svc, _ := newTestService(store)

		_, err := svc.AddImage(ctx, "staff-1", id, "  ", false)
		require.Error(t, err)
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	})
}

func TestRemoveImage(t *testing.T) {
	ctx := context.Background()

	imageByURL := func(t *testing.T, store *fakeStore, productID, url string) domain.ProductImage {
		t.Helper()
		images, err := store.GetProductImages(ctx, productID)
		require.NoError(t, err)
		for _, img := range images {
			if img.URL == url {
				return img
			}
		}
		t.Fatalf("image %s not found", url)
		return domain.ProductImage{}
	}

	t.Run("removing the primary promotes the next image", func(t *testing.T) {
		store := newFakeStore("cat-rice")
		id := seedProduct(t, store, "/images/a.jpg", "/images/b.jpg")
		svc, _ := newTestService(store)

		primary := imageByURL(t, store, id, "/images/a.jpg")
		require.NoError(t, svc.RemoveImage(ctx, "staff-1", primary.ID))

		product, err := store.GetProduct(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "/images/b.jpg", product.Image)
		assert.Equal(t, 1, countPrimaries(t, store, id))
		assert.Equal(t, float64(1), testutil.ToFloat64(svc.metrics.PrimaryPromotions))
	})

	t.Run("removing the last image falls back to placeholder", func(t *testing.T) {
		store := newFakeStore("cat-rice")
		id := seedProduct(t, store, "/images/a.jpg")
		svc, _ := newTestService(store)

		primary := imageByURL(t, store, id, "/images/a.jpg")
		require.NoError(t, svc.RemoveImage(ctx, "staff-1", primary.ID))

		product, err := store.GetProduct(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.PlaceholderImageURL, product.Image)
		assert.Equal(t, float64(1), testutil.ToFloat64(svc.metrics.PlaceholderFallbacks))
	})

	t.Run("removing a non-primary image leaves the product alone", func(t *testing.T) {
		store := newFakeStore("cat-rice")
		id := seedProduct(t, store, "/images/a.jpg", "/images/b.jpg")
		svc, publisher := newTestService(store)

		other := imageByURL(t, store, id, "/images/b.jpg")
		require.NoError(t, svc.RemoveImage(ctx, "staff-1", other.ID))

		product, err := store.GetProduct(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "/images/a.jpg", product.Image)
		assert.Empty(t, publisher.all())
	})

	t.Run("unknown image is not found", func(t *testing.T) {
		store := newFakeStore("cat-rice")
		svc, _ := newTestService(store)

		err := svc.RemoveImage(ctx, "staff-1", uuid.New())
		require.Error(t, err)
		assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	})
}

func TestSetPrimaryImage(t *testing.T) {
	ctx := context.Background()

	t.Run("moves the primary flag and the denormalized field together", func(t *testing.T) {
		store := newFakeStore("cat-rice")
		id := seedProduct(t, store, "/images/a.jpg", "/images/b.jpg")
		svc, publisher := newTestService(store)

		images, err := store.GetProductImages(ctx, id)
		require.NoError(t, err)
		var target domain.ProductImage
		for _, img := range images {
			if !img.IsPrimary {
				target = img
			}
		}
		require.NotEqual(t, uuid.Nil, target.ID)

		require.NoError(t, svc.SetPrimaryImage(ctx, "staff-1", target.ID))

		product, err := store.GetProduct(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, target.URL, product.Image)
		assert.Equal(t, 1, countPrimaries(t, store, id))

		published := publisher.all()
		require.Len(t, published, 1)
		assert.Equal(t, target.URL, published[0].Image)
	})

	t.Run("unknown image is not found", func(t *testing.T) {
		store := newFakeStore("cat-rice")
		svc, _ := newTestService(store)

		err := svc.SetPrimaryImage(ctx, "staff-1", uuid.New())
		require.Error(t, err)
		assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	})

	t.Run("missing actor is unauthorized", func(t *testing.T) {
		store := newFakeStore("cat-rice")
		svc, _ := newTestService(store)

		err := svc.SetPrimaryImage(ctx, "", uuid.New())
		require.Error(t, err)
		assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))
	})
}
