package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"textile-studio/composition"
	"textile-studio/models"
	"textile-studio/svgasset"
)

// PreviewEdge is the pixel edge of studio previews
const PreviewEdge = 600

// StudioService resolves SVGs and renders mirrors for the studio
// Implements StudioServiceInterface
type StudioService struct {
	renderer  *composition.Renderer
	loader    *composition.AssetLoader
	painter   *composition.Painter
	svgs      *svgasset.Cache
	optimizer *ImageOptimizer
}

var _ StudioServiceInterface = (*StudioService)(nil)

func NewStudioService(renderer *composition.Renderer, loader *composition.AssetLoader, painter *composition.Painter, svgs *svgasset.Cache, optimizer *ImageOptimizer) *StudioService {
	return &StudioService{
		renderer:  renderer,
		loader:    loader,
		painter:   painter,
		svgs:      svgs,
		optimizer: optimizer,
	}
}

// ResolveSVG returns sanitized markup for url, recolored to color
func (s *StudioService) ResolveSVG(ctx context.Context, url, color string) (*ResolvedSVG, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, invalid("url", "is required")
	}
	if color != "" && !models.IsHexColor(color) {
		return nil, invalid("color", "must be a hex color")
	}

	entry, err := s.svgs.Load(ctx, url, url, color)
	if err != nil {
		return nil, err
	}
	if entry.Fallback {
		// keep retrying the host on later requests
		s.svgs.Forget(url)
	}
	return &ResolvedSVG{Markup: entry.DerivedMarkup, Fallback: entry.Fallback}, nil
}

func (s *StudioService) compose(ctx context.Context, req *RenderRequest, scale float64) (*composition.Composition, error) {
	if req == nil || req.Customization == nil {
		return nil, invalid("customization", "is required")
	}
	if !req.Side.Valid() {
		return nil, invalid("side", "must be front or back")
	}
	mode := composition.ProductionExport
	if req.Background {
		mode = composition.WithBackground
	}
	return s.renderer.Compose(ctx, req.Customization, req.Side, mode, scale)
}

// Render returns the mirror document of one side
func (s *StudioService) Render(ctx context.Context, req *RenderRequest) (*Rendered, error) {
	scale := 1.0
	if req != nil && req.Scale != 0 {
		scale = req.Scale
	}
	comp, err := s.compose(ctx, req, scale)
	if err != nil {
		return nil, err
	}

	targetID := fmt.Sprintf("studio-%s-%s", req.Side, comp.Mode)
	html, err := composition.RenderHTML(comp, targetID)
	if err != nil {
		return nil, err
	}
	return &Rendered{TargetID: targetID, HTML: html, Size: comp.Size}, nil
}

// Preview paints one side in-process at PreviewEdge pixels
func (s *StudioService) Preview(ctx context.Context, req *RenderRequest) (*Preview, error) {
	comp, err := s.compose(ctx, req, PreviewEdge/composition.StageSize)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode preview key: %w", err)
	}
	key := CacheKey(raw)
	if data, ok := s.optimizer.ReadFromCache(key, req.Size); ok {
		return &Preview{Data: data, ContentType: contentTypeOf(req.Size), Cached: true}, nil
	}

	mirror := composition.Mount(ctx, "studio-preview-"+string(req.Side), comp, s.loader)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-mirror.Settled():
	}

	img, err := s.painter.PaintMirror(mirror, PreviewEdge, !req.Background)
	if err != nil {
		return nil, err
	}
	data, contentType, err := s.optimizer.Encode(img, req.Size)
	if err != nil {
		return nil, err
	}
	if err := s.optimizer.SaveToCache(key, req.Size, data); err != nil {
		log.Printf("⚠️  Preview cache write failed: %v", err)
	}
	return &Preview{Data: data, ContentType: contentType}, nil
}

func contentTypeOf(size string) string {
	if size == SizeFull {
		return "image/png"
	}
	return "image/jpeg"
}
