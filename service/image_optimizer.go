package service

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"log"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

const (
	SizeFull   = ""
	SizeThumb  = "thumb"
	SizeMedium = "medium"

	// Quality settings
	qualityThumb  = 60
	qualityMedium = 75
	// Size settings (max dimension)
	maxSizeThumb  = 300
	maxSizeMedium = 800
)

// ImageOptimizer encodes studio previews and keeps them in a disk cache
type ImageOptimizer struct {
	cacheDir string
}

// NewImageOptimizer creates an optimizer; an empty cacheDir disables caching
func NewImageOptimizer(cacheDir string) *ImageOptimizer {
	return &ImageOptimizer{cacheDir: cacheDir}
}

// EnsureCacheDir ensures the cache directory exists, creates it if it doesn't
func (o *ImageOptimizer) EnsureCacheDir() error {
	if o.cacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(o.cacheDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	return nil
}

// CacheKey hashes the inputs that determine a preview
func CacheKey(parts ...[]byte) string {
	h := sha1.New()
	for _, p := range parts {
		h.Write(p)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// GetCachePath returns the cache file path for a given key and size
func (o *ImageOptimizer) GetCachePath(key, size string) string {
	if size == SizeFull {
		return filepath.Join(o.cacheDir, fmt.Sprintf("preview_%s.png", key))
	}
	return filepath.Join(o.cacheDir, fmt.Sprintf("preview_%s_%s.jpg", key, size))
}

// ReadFromCache returns cached bytes, or false when missing or disabled
func (o *ImageOptimizer) ReadFromCache(key, size string) ([]byte, bool) {
	if o.cacheDir == "" {
		return nil, false
	}
	data, err := os.ReadFile(o.GetCachePath(key, size))
	if err != nil {
		return nil, false
	}
	return data, true
}

// SaveToCache saves an encoded image to the cache
func (o *ImageOptimizer) SaveToCache(key, size string, data []byte) error {
	if o.cacheDir == "" {
		return nil
	}
	cachePath := o.GetCachePath(key, size)
	if err := os.MkdirAll(filepath.Dir(cachePath), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.WriteFile(cachePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	log.Printf("✓ Preview cached: %s", cachePath)
	return nil
}

// Encode returns img as lossless PNG for SizeFull, or as a resized JPEG
// flattened on white for thumb and medium. It also returns the MIME type.
func (o *ImageOptimizer) Encode(img image.Image, size string) ([]byte, string, error) {
	var buf bytes.Buffer
	if size == SizeFull {
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", fmt.Errorf("failed to encode to PNG: %w", err)
		}
		return buf.Bytes(), "image/png", nil
	}

	var maxDim, quality int
	switch size {
	case SizeThumb:
		maxDim = maxSizeThumb
		quality = qualityThumb
	case SizeMedium:
		maxDim = maxSizeMedium
		quality = qualityMedium
	default:
		maxDim = maxSizeMedium
		quality = qualityMedium
		log.Printf("⚠️  Unknown size '%s', defaulting to medium", size)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxDim || bounds.Dy() > maxDim {
		log.Printf("🔄 Resizing preview: %dx%d -> fit %d", bounds.Dx(), bounds.Dy(), maxDim)
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}

	// JPEG has no alpha
	flat := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), color.White)
	flat = imaging.Overlay(flat, img, image.Pt(0, 0), 1.0)

	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: quality}); err != nil {
		return nil, "", fmt.Errorf("failed to encode to JPEG: %w", err)
	}
	log.Printf("✓ Preview optimized: size=%s, quality=%d, output_size=%d bytes", size, quality, buf.Len())
	return buf.Bytes(), "image/jpeg", nil
}
