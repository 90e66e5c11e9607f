package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textile-studio/capture"
	"textile-studio/models"
)

const testToken = "6f1c2a9e-3b7d-4c52-9a0e-1d2f3a4b5c6d"

func newCartService(t *testing.T, carts *fakeCarts, mounter Mounter, u capture.Uploader, mutate ...func(*CartOptions)) *CartService {
	t.Helper()
	opts := DefaultCartOptions()
	opts.SettleDelay = 0
	opts.Tiers = smallTiers()
	for _, m := range mutate {
		m(&opts)
	}
	products := fakeProducts{
		"tee": {ID: "tee", Name: "Tee", Price: 1299, IsActive: true},
		"old": {ID: "old", Name: "Retired", Price: 999, IsActive: false},
	}
	return NewCartService(carts, products, testPricing(t), mounter, nativePipeline(u), opts)
}

func addRequest(price float64, rec *models.CustomizationRecord) *models.AddToCartRequest {
	return &models.AddToCartRequest{
		CartToken:     testToken,
		ProductID:     "tee",
		Quantity:      2,
		Price:         price,
		Size:          "M",
		Color:         "black",
		Customization: rec,
	}
}

func TestAddCustomizedItemRejectsPriceMismatch(t *testing.T) {
	carts := &fakeCarts{}
	uploader := &memUploader{}
	svc := newCartService(t, carts, nativeMounter(), uploader)

	_, err := svc.AddCustomizedItem(context.Background(), addRequest(9.99, textRecord("Hi", "")))
	require.ErrorIs(t, err, ErrPriceMismatch)
	assert.Contains(t, err.Error(), "9.99 EUR")
	assert.Contains(t, err.Error(), "12.99 EUR")

	assert.Empty(t, carts.items, "nothing is inserted on a price mismatch")
	assert.Empty(t, uploader.Names(), "nothing is captured on a price mismatch")
}

func TestAddCustomizedItemCapturesVisuals(t *testing.T) {
	carts := &fakeCarts{}
	uploader := &memUploader{}
	svc := newCartService(t, carts, nativeMounter(), uploader)
	rec := textRecord("Hi", "")

	resp, err := svc.AddCustomizedItem(context.Background(), addRequest(12.99, rec))
	require.NoError(t, err)
	require.Len(t, carts.items, 1)

	item := resp.Item
	assert.Empty(t, resp.CaptureWarning)
	assert.Equal(t, int64(1299), item.Price)
	require.NotNil(t, item.Customization)
	assert.True(t, strings.HasPrefix(item.Customization.HDRectoURL, "https://cdn.example.com/production-hd-production-front-only-"), item.Customization.HDRectoURL)
	assert.Empty(t, item.Customization.HDVersoURL, "empty back side is never captured")
	assert.True(t, strings.HasPrefix(item.VisualFrontURL, "https://cdn.example.com/preview-preview-front-complete-"), item.VisualFrontURL)
	assert.Empty(t, item.VisualBackURL)

	// everything but the capture urls is preserved
	assert.Equal(t, rec.FrontText, item.Customization.FrontText)
	assert.Equal(t, rec.MockupID, item.Customization.MockupID)
	assert.Empty(t, rec.HDRectoURL, "the request record is not mutated")

	assert.Len(t, uploader.Names(), 2)
}

func TestAddCustomizedItemFallsBackWhenTargetsAreMissing(t *testing.T) {
	carts := &fakeCarts{}
	uploader := &memUploader{}
	svc := newCartService(t, carts, nopMounter{}, uploader)
	rec := textRecord("Front", "Back")
	original := *rec

	resp, err := svc.AddCustomizedItem(context.Background(), addRequest(12.99, rec))
	require.NoError(t, err)

	require.NotNil(t, resp.Item.Customization)
	assert.Equal(t, original, *resp.Item.Customization)
	assert.NotEmpty(t, resp.CaptureWarning)
	assert.Empty(t, resp.Item.VisualFrontURL)
	assert.Empty(t, uploader.Names())
	require.Len(t, carts.items, 1)
}

func TestAddCustomizedItemWarnsOnUploadFailure(t *testing.T) {
	carts := &fakeCarts{}
	svc := newCartService(t, carts, nativeMounter(), &memUploader{fail: true})

	resp, err := svc.AddCustomizedItem(context.Background(), addRequest(12.99, textRecord("Hi", "There")))
	require.NoError(t, err, "capture failures never fail the cart add")
	assert.Equal(t, "4 visual(s) could not be captured", resp.CaptureWarning)
	assert.Empty(t, resp.Item.Customization.HDRectoURL)
	assert.Empty(t, resp.Item.Customization.HDVersoURL)
	require.Len(t, carts.items, 1)
}

func TestAddCustomizedItemDropsClientCaptureURLs(t *testing.T) {
	forged := func() *models.CustomizationRecord {
		rec := textRecord("Hi", "There")
		rec.HDRectoURL = "https://attacker.example/forged.png"
		rec.HDVersoURL = "https://attacker.example/stale.png"
		return rec
	}

	t.Run("upload failure", func(t *testing.T) {
		carts := &fakeCarts{}
		svc := newCartService(t, carts, nativeMounter(), &memUploader{fail: true})

		resp, err := svc.AddCustomizedItem(context.Background(), addRequest(12.99, forged()))
		require.NoError(t, err)
		assert.NotEmpty(t, resp.CaptureWarning)
		require.Len(t, carts.items, 1)
		assert.Empty(t, carts.items[0].Customization.HDRectoURL)
		assert.Empty(t, carts.items[0].Customization.HDVersoURL)
	})

	t.Run("targets missing", func(t *testing.T) {
		carts := &fakeCarts{}
		svc := newCartService(t, carts, nopMounter{}, &memUploader{})

		resp, err := svc.AddCustomizedItem(context.Background(), addRequest(12.99, forged()))
		require.NoError(t, err)
		assert.Empty(t, resp.Item.Customization.HDRectoURL)
		assert.Empty(t, resp.Item.Customization.HDVersoURL)
	})

	t.Run("capture replaces them", func(t *testing.T) {
		svc := newCartService(t, &fakeCarts{}, nativeMounter(), &memUploader{})

		resp, err := svc.AddCustomizedItem(context.Background(), addRequest(12.99, forged()))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(resp.Item.Customization.HDRectoURL, "https://cdn.example.com/"), resp.Item.Customization.HDRectoURL)
		assert.True(t, strings.HasPrefix(resp.Item.Customization.HDVersoURL, "https://cdn.example.com/"), resp.Item.Customization.HDVersoURL)
	})
}

func TestAddCustomizedItemPropagatesPersistenceErrors(t *testing.T) {
	carts := &fakeCarts{addErr: errors.New("connection reset")}
	svc := newCartService(t, carts, nopMounter{}, &memUploader{})

	_, err := svc.AddCustomizedItem(context.Background(), addRequest(12.99, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestAddCustomizedItemValidation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*models.AddToCartRequest)
		field string
	}{
		{"bad token", func(r *models.AddToCartRequest) { r.CartToken = "nope" }, "cartToken"},
		{"no product", func(r *models.AddToCartRequest) { r.ProductID = " " }, "productId"},
		{"zero quantity", func(r *models.AddToCartRequest) { r.Quantity = 0 }, "quantity"},
		{"too many", func(r *models.AddToCartRequest) { r.Quantity = 100 }, "quantity"},
		{"no size", func(r *models.AddToCartRequest) { r.Size = "" }, "size"},
		{"no price", func(r *models.AddToCartRequest) { r.Price = 0 }, "price"},
		{"blob design", func(r *models.AddToCartRequest) {
			r.Customization = &models.CustomizationRecord{FrontDesign: &models.DesignSelection{
				DesignURL: "blob:https://studio/123", Transform: models.DefaultTransform(),
			}}
		}, "customization"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			carts := &fakeCarts{}
			svc := newCartService(t, carts, nopMounter{}, &memUploader{})
			req := addRequest(12.99, nil)
			tt.edit(req)

			_, err := svc.AddCustomizedItem(context.Background(), req)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
			assert.Empty(t, carts.items)
		})
	}
}

func TestAddCustomizedItemLimits(t *testing.T) {
	t.Run("cart full", func(t *testing.T) {
		svc := newCartService(t, &fakeCarts{count: 50}, nopMounter{}, &memUploader{})
		_, err := svc.AddCustomizedItem(context.Background(), addRequest(12.99, nil))
		assert.ErrorIs(t, err, ErrCartFull)
	})

	t.Run("rate limited", func(t *testing.T) {
		svc := newCartService(t, &fakeCarts{}, nopMounter{}, &memUploader{}, func(o *CartOptions) { o.AddsPerMinute = 1 })
		_, err := svc.AddCustomizedItem(context.Background(), addRequest(12.99, nil))
		require.NoError(t, err)
		_, err = svc.AddCustomizedItem(context.Background(), addRequest(12.99, nil))
		assert.ErrorIs(t, err, ErrRateLimited)
	})

	t.Run("unknown and inactive products", func(t *testing.T) {
		svc := newCartService(t, &fakeCarts{}, nopMounter{}, &memUploader{})
		req := addRequest(12.99, nil)
		req.ProductID = "ghost"
		_, err := svc.AddCustomizedItem(context.Background(), req)
		assert.ErrorIs(t, err, ErrProductNotFound)

		req = addRequest(9.99, nil)
		req.ProductID = "old"
		_, err = svc.AddCustomizedItem(context.Background(), req)
		assert.ErrorIs(t, err, ErrProductNotFound)
	})
}

func TestLimitersOfIdleCartsAreEvicted(t *testing.T) {
	svc := newCartService(t, &fakeCarts{}, nopMounter{}, &memUploader{}, func(o *CartOptions) { o.AddsPerMinute = 1 })
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	for _, token := range []string{"a", "b", "c"} {
		svc.limiter(token)
	}
	assert.Len(t, svc.limiters, 3)

	clock = clock.Add(30 * time.Second)
	svc.limiter("a")
	clock = clock.Add(45 * time.Second)
	svc.limiter("d")

	assert.Len(t, svc.limiters, 2, "b and c were idle for over a minute")
	assert.Contains(t, svc.limiters, "a")
	assert.Contains(t, svc.limiters, "d")
}

func TestGetCart(t *testing.T) {
	carts := &fakeCarts{}
	svc := newCartService(t, carts, nopMounter{}, &memUploader{})
	_, err := svc.AddCustomizedItem(context.Background(), addRequest(12.99, nil))
	require.NoError(t, err)

	items, err := svc.GetCart(context.Background(), testToken)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = svc.GetCart(context.Background(), "")
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))

	assert.NotEqual(t, NewCartToken(), NewCartToken())
}
