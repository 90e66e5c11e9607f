package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textile-studio/models"
	"textile-studio/repository"
)

type fakeOrders struct {
	mu      sync.Mutex
	orders  map[string]*models.Order
	updates map[string]models.OrderItemVisuals
}

func (f *fakeOrders) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, repository.ErrNotFound)
	}
	return o, nil
}

func (f *fakeOrders) UpdateOrderItemVisuals(ctx context.Context, itemID string, v models.OrderItemVisuals) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updates == nil {
		f.updates = map[string]models.OrderItemVisuals{}
	}
	f.updates[itemID] = v
	return nil
}

func testOrders() *fakeOrders {
	return &fakeOrders{orders: map[string]*models.Order{
		"ord-1": {ID: "ord-1", Items: []models.OrderItem{
			{ID: "it-1", OrderID: "ord-1", Customization: textRecord("Front", "Back")},
			{ID: "it-2", OrderID: "ord-1"},
		}},
		"ord-2": {ID: "ord-2", Items: []models.OrderItem{
			{ID: "it-3", OrderID: "ord-2", Customization: textRecord("Only front", "")},
		}},
		"plain": {ID: "plain", Items: []models.OrderItem{{ID: "it-4", OrderID: "plain"}}},
	}}
}

func newRegenerationService(orders *fakeOrders, mounter Mounter, u *memUploader) *RegenerationService {
	return NewRegenerationService(orders, mounter, nativePipeline(u), smallTiers().Production, 2*time.Second)
}

func TestRegenerateWritesNamespacedCaptures(t *testing.T) {
	orders := testOrders()
	uploader := &memUploader{}
	mounter := &trackingMounter{inner: nativeMounter()}
	svc := newRegenerationService(orders, mounter, uploader)

	res, err := svc.Regenerate(context.Background(), "ord-1")
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "it-1", res.Items[0].ItemID)

	names := uploader.Names()
	assert.Len(t, names, 2)
	assert.True(t, hasPrefix(names, "production-hd-retro-ord-1-it-1-production-front-only-"), names)
	assert.True(t, hasPrefix(names, "production-hd-retro-ord-1-it-1-production-back-only-"), names)

	v := orders.updates["it-1"]
	require.NotNil(t, v.VisualFrontURL)
	require.NotNil(t, v.VisualBackURL)
	assert.Equal(t, res.Items[0].FrontURL, *v.VisualFrontURL)
	assert.True(t, strings.HasSuffix(*v.VisualBackURL, ".png"))
	_, touched := orders.updates["it-2"]
	assert.False(t, touched, "items without customization are left alone")

	for _, s := range mounter.Sessions() {
		assert.Equal(t, 0, s.Len(), "session %s left mounted", s.Namespace)
	}
}

func TestRegenerateAlwaysUnmountsOnFailure(t *testing.T) {
	orders := testOrders()
	mounter := &trackingMounter{inner: nativeMounter()}
	svc := newRegenerationService(orders, mounter, &memUploader{fail: true})

	_, err := svc.Regenerate(context.Background(), "ord-2")
	require.Error(t, err)
	assert.Empty(t, orders.updates)

	sessions := mounter.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, "retro-ord-2-it-3", sessions[0].Namespace)
	assert.Equal(t, 0, sessions[0].Len())
}

func TestRegenerateErrors(t *testing.T) {
	svc := newRegenerationService(testOrders(), nativeMounter(), &memUploader{})

	_, err := svc.Regenerate(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = svc.Regenerate(context.Background(), "plain")
	assert.ErrorIs(t, err, ErrNoCustomization)
}

func TestRegenerateBatchIsSequentialWithPauses(t *testing.T) {
	orders := testOrders()
	uploader := &memUploader{}
	svc := newRegenerationService(orders, nativeMounter(), uploader)

	var pauses []time.Duration
	svc.sleep = func(ctx context.Context, d time.Duration) error {
		pauses = append(pauses, d)
		return nil
	}

	report := svc.RegenerateBatch(context.Background(), []string{"ord-1", "missing", "ord-2"})
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 3, report.Uploaded)
	assert.Equal(t, 0, report.CaptureFailures)
	assert.Contains(t, report.Errors, "missing")
	assert.Len(t, report.Results, 2)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, pauses)
}

func TestRegenerateBatchStopsWhenCancelled(t *testing.T) {
	svc := newRegenerationService(testOrders(), nativeMounter(), &memUploader{})
	ctx, cancel := context.WithCancel(context.Background())
	svc.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	report := svc.RegenerateBatch(ctx, []string{"ord-1", "ord-2", "plain"})
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 2, report.Failed)
	assert.Contains(t, report.Errors, "ord-2")
	assert.Contains(t, report.Errors, "plain")
}
