package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"textile-studio/capture"
	"textile-studio/composition"
	"textile-studio/models"
	"textile-studio/pricing"
	"textile-studio/repository"
)

type fakeCarts struct {
	mu     sync.Mutex
	items  []models.CartItem
	count  int
	addErr error
}

func (f *fakeCarts) AddCartItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return nil, f.addErr
	}
	stored := *item
	stored.ID = int64(len(f.items) + 1)
	stored.CreatedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	f.items = append(f.items, stored)
	return &stored, nil
}

func (f *fakeCarts) GetCartItems(ctx context.Context, token string) ([]models.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CartItem
	for _, it := range f.items {
		if it.CartToken == token {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeCarts) CountCartItems(ctx context.Context, token string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count + len(f.items), nil
}

type fakeProducts map[string]*models.Product

func (f fakeProducts) FetchProductByID(ctx context.Context, id string) (*models.Product, error) {
	if p, ok := f[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("product %s: %w", id, repository.ErrNotFound)
}

type memUploader struct {
	mu    sync.Mutex
	names []string
	fail  bool
}

func (u *memUploader) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.fail {
		return "", errors.New("upload host unavailable")
	}
	u.names = append(u.names, filename)
	return "https://cdn.example.com/" + filename, nil
}

func (u *memUploader) Names() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.names...)
}

// nopMounter never mounts anything, like a studio whose mirrors failed to render
type nopMounter struct{}

func (nopMounter) MountRecord(ctx context.Context, s *capture.Session, rec *models.CustomizationRecord, tiers ...capture.Tier) error {
	return nil
}

// trackingMounter remembers every session it mounted into
type trackingMounter struct {
	inner    Mounter
	mu       sync.Mutex
	sessions []*capture.Session
}

func (m *trackingMounter) MountRecord(ctx context.Context, s *capture.Session, rec *models.CustomizationRecord, tiers ...capture.Tier) error {
	m.mu.Lock()
	m.sessions = append(m.sessions, s)
	m.mu.Unlock()
	return m.inner.MountRecord(ctx, s, rec, tiers...)
}

func (m *trackingMounter) Sessions() []*capture.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*capture.Session(nil), m.sessions...)
}

// smallTiers keeps native painting cheap in tests
func smallTiers() Tiers {
	preview := capture.PreviewTier
	preview.Size = 60
	production := capture.ProductionTier
	production.Size = 120
	return Tiers{Preview: preview, Production: production}
}

func nativeMounter() *RendererMounter {
	return NewRendererMounter(composition.NewRenderer(nil, nil), nil)
}

func nativePipeline(u capture.Uploader) *capture.Pipeline {
	return capture.NewPipeline(
		capture.NewNativeRasterizer(nil),
		u,
		capture.LogObserver{},
		capture.WithDOMWait(5, 10*time.Millisecond),
		capture.WithClock(func() time.Time { return time.UnixMilli(1700000000123) }),
	)
}

const plainPricing = `{"currency": "EUR", "printSizes": {"A4": 0}}`

func testPricing(t *testing.T) *pricing.Engine {
	t.Helper()
	e, err := pricing.ParseConfig([]byte(plainPricing))
	require.NoError(t, err)
	return e
}

func textRecord(front, back string) *models.CustomizationRecord {
	rec := &models.CustomizationRecord{MockupID: "tee-mockup"}
	if front != "" {
		rec.FrontText = &models.TextSelection{Content: front, Font: "Inter", Color: "#112233", Transform: models.DefaultTransform()}
	}
	if back != "" {
		rec.BackText = &models.TextSelection{Content: back, Font: "Inter", Color: "#445566", Transform: models.DefaultTransform()}
	}
	return rec
}

func hasPrefix(names []string, prefix string) bool {
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	return false
}

type fakeDrive struct {
	files    []models.DriveDesignFile
	contents map[string]string
	uploads  map[string]string
}

func (f *fakeDrive) ListDesignFiles(ctx context.Context, folderID string) ([]models.DriveDesignFile, error) {
	return f.files, nil
}

func (f *fakeDrive) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	c, ok := f.contents[fileID]
	if !ok {
		return nil, fmt.Errorf("file %s not found", fileID)
	}
	return []byte(c), nil
}

func (f *fakeDrive) UploadFile(ctx context.Context, folderID, name, mimeType string, content io.Reader) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	if f.uploads == nil {
		f.uploads = map[string]string{}
	}
	f.uploads[name] = string(data)
	return "https://drive.example.com/" + name, nil
}

type fakeCatalog struct {
	designs     map[string]*models.Design
	deactivated []string
	updated     map[string]string
}

func newFakeCatalog(designs ...models.Design) *fakeCatalog {
	c := &fakeCatalog{designs: map[string]*models.Design{}, updated: map[string]string{}}
	for i := range designs {
		d := designs[i]
		c.designs[d.ID] = &d
	}
	return c
}

func (c *fakeCatalog) FetchAllDesigns(ctx context.Context) ([]models.Design, error) {
	var out []models.Design
	for _, id := range sortedKeys(c.designs) {
		if c.designs[id].IsActive {
			out = append(out, *c.designs[id])
		}
	}
	return out, nil
}

func (c *fakeCatalog) FetchDesignByID(ctx context.Context, id string) (*models.Design, error) {
	if d, ok := c.designs[id]; ok {
		return d, nil
	}
	return nil, repository.ErrNotFound
}

func (c *fakeCatalog) FetchMockupByID(ctx context.Context, id string) (*models.Mockup, error) {
	return nil, repository.ErrNotFound
}

func (c *fakeCatalog) FetchProductByID(ctx context.Context, id string) (*models.Product, error) {
	return nil, repository.ErrNotFound
}

func (c *fakeCatalog) ExistsByDriveFileID(ctx context.Context, driveFileID string) (bool, error) {
	for _, d := range c.designs {
		if d.DriveFileID == driveFileID {
			return true, nil
		}
	}
	return false, nil
}

func (c *fakeCatalog) UpsertDesign(ctx context.Context, design *models.Design) error {
	d := *design
	c.designs[d.ID] = &d
	return nil
}

func (c *fakeCatalog) DeactivateDesign(ctx context.Context, id string) error {
	d, ok := c.designs[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.IsActive = false
	c.deactivated = append(c.deactivated, id)
	return nil
}

func (c *fakeCatalog) UpdateDesignURL(ctx context.Context, id, url string, isSVG bool) error {
	d, ok := c.designs[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.URL, d.IsSVG = url, isSVG
	c.updated[id] = url
	return nil
}

var _ repository.CatalogRepositoryInterface = (*fakeCatalog)(nil)

func sortedKeys(m map[string]*models.Design) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
