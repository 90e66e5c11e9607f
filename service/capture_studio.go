package service

import (
	"context"

	"textile-studio/capture"
	"textile-studio/composition"
	"textile-studio/models"
)

// Mounter mounts the mirrors of a record into a capture session
type Mounter interface {
	MountRecord(ctx context.Context, s *capture.Session, rec *models.CustomizationRecord, tiers ...capture.Tier) error
}

// Capturer runs the capture pipeline over a mounted session
type Capturer interface {
	Capture(ctx context.Context, s *capture.Session, rec *models.CustomizationRecord, tiers []capture.Tier, extra ...capture.Observer) capture.Results
}

var _ Capturer = (*capture.Pipeline)(nil)

// RendererMounter composes records with the shared renderer
type RendererMounter struct {
	renderer *composition.Renderer
	loader   *composition.AssetLoader
}

var _ Mounter = (*RendererMounter)(nil)

func NewRendererMounter(renderer *composition.Renderer, loader *composition.AssetLoader) *RendererMounter {
	return &RendererMounter{renderer: renderer, loader: loader}
}

func (m *RendererMounter) MountRecord(ctx context.Context, s *capture.Session, rec *models.CustomizationRecord, tiers ...capture.Tier) error {
	return s.MountRecord(ctx, m.renderer, m.loader, rec, tiers...)
}

// Tiers holds the two capture tiers with their configured upload timeouts
type Tiers struct {
	Preview    capture.Tier
	Production capture.Tier
}

// DefaultTiers returns the standard preview and production tiers
func DefaultTiers() Tiers {
	return Tiers{Preview: capture.PreviewTier, Production: capture.ProductionTier}
}
