package composition

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	lru "github.com/hashicorp/golang-lru/v2"
	_ "golang.org/x/image/webp"

	"textile-studio/svgasset"
	"textile-studio/utils"
)

const (
	maxAssetBytes = 25 << 20
	// MaxAssetDimension caps decoded assets; HD exports never need more
	MaxAssetDimension = 4000
	// maxMemoryAssets bounds the decoded images kept in memory
	maxMemoryAssets = 64
)

// AssetLoader fetches and decodes the raster images of a composition.
// The most recently used decoded images stay in memory; when cacheDir is set
// they are also written to disk as PNG so restarts do not refetch.
type AssetLoader struct {
	client   *http.Client
	cacheDir string
	images   *lru.Cache[string, image.Image]
}

// NewAssetLoader creates a loader; an empty cacheDir disables the disk cache.
// A nil client gets the public-only client, since design urls come from users.
func NewAssetLoader(client *http.Client, cacheDir string) *AssetLoader {
	if client == nil {
		client = utils.NewPublicClient(20 * time.Second)
	}
	images, _ := lru.New[string, image.Image](maxMemoryAssets)
	return &AssetLoader{
		client:   client,
		cacheDir: cacheDir,
		images:   images,
	}
}

// Load returns the decoded image behind u, bounded to MaxAssetDimension
func (l *AssetLoader) Load(ctx context.Context, u string) (image.Image, error) {
	if img, ok := l.images.Get(u); ok {
		return img, nil
	}

	cachePath := l.cachePath(u)
	if cachePath != "" && cacheExists(cachePath) {
		if img, err := imaging.Open(cachePath); err == nil {
			l.remember(u, img)
			return img, nil
		}
	}

	data, err := l.fetch(ctx, u)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > MaxAssetDimension || bounds.Dy() > MaxAssetDimension {
		log.Printf("🔄 Resizing asset: %dx%d -> fit %d", bounds.Dx(), bounds.Dy(), MaxAssetDimension)
		img = imaging.Fit(img, MaxAssetDimension, MaxAssetDimension, imaging.Lanczos)
	}

	if cachePath != "" {
		if err := saveToCache(cachePath, img); err != nil {
			log.Printf("⚠️  Asset cache write failed: %v", err)
		}
	}
	l.remember(u, img)
	return img, nil
}

func (l *AssetLoader) remember(u string, img image.Image) {
	l.images.Add(u, img)
}

func (l *AssetLoader) fetch(ctx context.Context, u string) ([]byte, error) {
	if svgasset.IsBlobURL(u) {
		return nil, svgasset.ErrBlobURL
	}
	if svgasset.IsDataURI(u) {
		_, data, err := svgasset.DecodeDataURI(u)
		return data, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image host returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return data, nil
}

// cachePath returns the disk cache file for u; data uris are not cached
func (l *AssetLoader) cachePath(u string) string {
	if l.cacheDir == "" || svgasset.IsDataURI(u) {
		return ""
	}
	sum := sha1.Sum([]byte(u))
	return filepath.Join(l.cacheDir, "asset_"+hex.EncodeToString(sum[:])+".png")
}

// EnsureCacheDir creates dir if it does not exist
func EnsureCacheDir(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	return nil
}

func cacheExists(cachePath string) bool {
	_, err := os.Stat(cachePath)
	return err == nil
}

func saveToCache(cachePath string, img image.Image) error {
	if err := EnsureCacheDir(filepath.Dir(cachePath)); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode cache png: %w", err)
	}
	if err := os.WriteFile(cachePath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	log.Printf("✓ Asset cached: %s", cachePath)
	return nil
}
