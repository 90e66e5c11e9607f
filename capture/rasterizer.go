package capture

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"textile-studio/composition"
)

// Rasterizer turns a settled target into lossless PNG bytes of
// Tier.Size × Tier.Size pixels
type Rasterizer interface {
	Rasterize(ctx context.Context, t *Target) ([]byte, error)
}

// NativeRasterizer paints targets in-process with composition.Painter
type NativeRasterizer struct {
	painter *composition.Painter
}

var _ Rasterizer = (*NativeRasterizer)(nil)

func NewNativeRasterizer(painter *composition.Painter) *NativeRasterizer {
	if painter == nil {
		painter = composition.NewPainter()
	}
	return &NativeRasterizer{painter: painter}
}

func (r *NativeRasterizer) Rasterize(ctx context.Context, t *Target) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := r.painter.PaintMirror(t.Mirror, t.Tier.Size, !t.Tier.WithProduct)
	if err != nil {
		return nil, fmt.Errorf("failed to paint %s: %w", t.ID, err)
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: compressionFor(t.Tier)}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// compressionFor picks the zlib level. Print files get the strongest one;
// the pixels are identical at every level.
func compressionFor(tier Tier) png.CompressionLevel {
	if tier.Mode() == composition.ProductionExport {
		return png.BestCompression
	}
	return png.DefaultCompression
}
