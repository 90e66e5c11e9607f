package service

import (
	"context"

	"textile-studio/models"
)

// ResolvedSVG is SVG markup ready to inline in the studio
type ResolvedSVG struct {
	Markup   string `json:"markup"`
	Fallback bool   `json:"fallback"`
}

// RenderRequest asks for one side of a customization
type RenderRequest struct {
	Customization *models.CustomizationRecord `json:"customization"`
	Side          models.Side                 `json:"side"`
	Background    bool                        `json:"background"`
	Scale         float64                     `json:"scale"`
	// Size selects the preview encoding: "" (PNG), "thumb" or "medium" (JPEG)
	Size string `json:"size,omitempty"`
}

// Rendered is a mirror document
type Rendered struct {
	TargetID string  `json:"targetId"`
	HTML     string  `json:"html"`
	Size     float64 `json:"size"`
}

// Preview is an encoded preview image
type Preview struct {
	Data        []byte
	ContentType string
	Cached      bool
}

// StudioServiceInterface defines the contract for the studio's server-side helpers
type StudioServiceInterface interface {
	ResolveSVG(ctx context.Context, url, color string) (*ResolvedSVG, error)
	Render(ctx context.Context, req *RenderRequest) (*Rendered, error)
	Preview(ctx context.Context, req *RenderRequest) (*Preview, error)
}
