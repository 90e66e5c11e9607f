package composition

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"textile-studio/models"
	"textile-studio/svgasset"
)

// Mode selects whether the garment photo is part of the composition
type Mode int

const (
	// WithBackground composes onto the mockup photo (on-screen preview)
	WithBackground Mode = iota
	// ProductionExport leaves the garment out so the output is transparent
	ProductionExport
)

func (m Mode) String() string {
	if m == ProductionExport {
		return "production"
	}
	return "background"
}

const (
	// StageSize is the edge of the square stage at scale factor 1
	StageSize = 300.0
	// DesignBoxSize is the edge of the box a design is fitted into before its own scale
	DesignBoxSize = 120.0
	// BaseFontSize is used when a text layer has no explicit font size
	BaseFontSize = 24.0
)

var (
	ErrInvalidScale = errors.New("scale factor must be positive")
	ErrInvalidSide  = errors.New("side must be front or back")
)

// ContentKind tells how a design layer is drawn
type ContentKind string

const (
	ContentInlineSVG ContentKind = "inline-svg"
	ContentImage     ContentKind = "image"
)

// DesignLayer is a design placed for one render. Offsets and Scale already
// include the scale factor; Rotation never does.
type DesignLayer struct {
	DesignID  string      `json:"designId"`
	Kind      ContentKind `json:"kind"`
	Markup    string      `json:"markup,omitempty"`
	Src       string      `json:"src,omitempty"`
	Fallback  bool        `json:"fallback,omitempty"`
	Invalid   bool        `json:"invalid,omitempty"`
	OffsetX   float64     `json:"offsetX"`
	OffsetY   float64     `json:"offsetY"`
	Scale     float64     `json:"scale"`
	Rotation  float64     `json:"rotation"`
	Transform string      `json:"transform"`
}

// ShadowLayer is a text shadow with offsets and blur in output pixels
type ShadowLayer struct {
	Color   string  `json:"color"`
	Blur    float64 `json:"blur"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// TextLayer is a text placed for one render. FontSize, offsets and the
// shadow include the scale factor; Scale is the user's text scale.
type TextLayer struct {
	Content   string       `json:"content"`
	Font      string       `json:"font"`
	Color     string       `json:"color"`
	Bold      bool         `json:"bold"`
	Italic    bool         `json:"italic"`
	Underline bool         `json:"underline"`
	FontSize  float64      `json:"fontSize"`
	OffsetX   float64      `json:"offsetX"`
	OffsetY   float64      `json:"offsetY"`
	Scale     float64      `json:"scale"`
	Rotation  float64      `json:"rotation"`
	Shadow    *ShadowLayer `json:"shadow,omitempty"`
	Transform string       `json:"transform"`
}

// Background is the garment photo under the layers. Placeholder is set when
// no photo could be resolved or loaded.
type Background struct {
	URL         string `json:"url,omitempty"`
	Placeholder bool   `json:"placeholder"`
	SideLabel   string `json:"sideLabel"`
}

// Composition is the layered visual of one side at one scale factor
type Composition struct {
	Side        models.Side  `json:"side"`
	Mode        Mode         `json:"mode"`
	ScaleFactor float64      `json:"scaleFactor"`
	Size        float64      `json:"size"`
	Background  *Background  `json:"background,omitempty"`
	Design      *DesignLayer `json:"design,omitempty"`
	Text        *TextLayer   `json:"text,omitempty"`
}

// HasLayers reports whether a design or text is placed
func (c *Composition) HasLayers() bool {
	return c != nil && (c.Design != nil || c.Text != nil)
}

// MockupSource reads garment photos
type MockupSource interface {
	FetchMockupByID(ctx context.Context, id string) (*models.Mockup, error)
}

// SVGResolver fetches remote SVG markup
type SVGResolver interface {
	Resolve(ctx context.Context, u string) (svgasset.Resolved, error)
}

// Renderer builds compositions. Every caller, on-screen preview or HD
// export, goes through Compose so both use the same placement formula.
type Renderer struct {
	mockups MockupSource
	svg     SVGResolver
}

// NewRenderer creates a Renderer. A nil resolver renders remote SVGs as images.
func NewRenderer(mockups MockupSource, svg SVGResolver) *Renderer {
	return &Renderer{mockups: mockups, svg: svg}
}

// Compose lays out one side of rec at scaleFactor
func (r *Renderer) Compose(ctx context.Context, rec *models.CustomizationRecord, side models.Side, mode Mode, scaleFactor float64) (*Composition, error) {
	if rec == nil {
		return nil, fmt.Errorf("customization is required")
	}
	if !side.Valid() {
		return nil, ErrInvalidSide
	}
	if scaleFactor <= 0 || math.IsNaN(scaleFactor) || math.IsInf(scaleFactor, 0) {
		return nil, ErrInvalidScale
	}

	comp := &Composition{
		Side:        side,
		Mode:        mode,
		ScaleFactor: scaleFactor,
		Size:        round4(StageSize * scaleFactor),
	}

	if mode == WithBackground {
		comp.Background = r.background(ctx, rec, side)
	}
	if d := rec.Design(side); d != nil {
		comp.Design = r.designLayer(ctx, d, scaleFactor)
	}
	if t := rec.Text(side); t != nil {
		comp.Text = textLayer(t, scaleFactor)
	}
	return comp, nil
}

func (r *Renderer) background(ctx context.Context, rec *models.CustomizationRecord, side models.Side) *Background {
	bg := &Background{SideLabel: SideLabel(side)}
	if r.mockups == nil || rec.MockupID == "" {
		bg.Placeholder = true
		return bg
	}

	mockup, err := r.mockups.FetchMockupByID(ctx, rec.MockupID)
	if err != nil {
		log.Printf("⚠️  Compose: mockup %s unavailable, using placeholder: %v", rec.MockupID, err)
		bg.Placeholder = true
		return bg
	}

	bg.URL = mockup.ImageURL(side, rec.ColorVariant)
	if bg.URL == "" {
		bg.Placeholder = true
	}
	return bg
}

func (r *Renderer) designLayer(ctx context.Context, d *models.DesignSelection, k float64) *DesignLayer {
	t := d.Transform
	layer := &DesignLayer{
		DesignID: d.DesignID,
		OffsetX:  round4(t.Position.X * k),
		OffsetY:  round4(t.Position.Y * k),
		Scale:    round4(t.Scale * k),
		Rotation: t.Rotation,
	}
	layer.Transform = DesignTransform(t, k)

	markup, fallback, err := r.designMarkup(ctx, d)
	switch {
	case err != nil:
		log.Printf("❌ Compose: design %s svg invalid, using raster fallback: %v", d.DesignID, err)
		layer.Kind = ContentImage
		layer.Src = d.DesignURL
		layer.Invalid = true
	case fallback:
		layer.Kind = ContentInlineSVG
		layer.Markup = svgasset.Compact(markup)
		layer.Fallback = true
	case markup != "":
		layer.Kind = ContentInlineSVG
		layer.Markup = svgasset.Compact(markup)
	default:
		layer.Kind = ContentImage
		layer.Src = d.DesignURL
	}
	return layer
}

// designMarkup returns sanitized inline markup for SVG designs, or "" for rasters.
// The flag reports that the markup is the placeholder of an unreadable host.
func (r *Renderer) designMarkup(ctx context.Context, d *models.DesignSelection) (string, bool, error) {
	u := d.DesignURL
	switch {
	case svgasset.IsSVGDataURI(u):
		_, data, err := svgasset.DecodeDataURI(u)
		if err != nil {
			return "", false, err
		}
		out, err := svgasset.Prepare(string(data), d.Color)
		return out, false, err

	case svgasset.IsSVGURL(u) && r.svg != nil:
		res, err := r.svg.Resolve(ctx, u)
		if err != nil {
			return "", false, err
		}
		// an unreadable host yields the placeholder, painted in the design color
		out, err := svgasset.Prepare(res.Markup, d.Color)
		return out, res.Fallback, err
	}
	return "", false, nil
}

func textLayer(t *models.TextSelection, k float64) *TextLayer {
	fontSize := t.FontSize
	if fontSize <= 0 {
		fontSize = BaseFontSize
	}
	color := t.Color
	if !models.IsHexColor(color) {
		color = "#000000"
	}

	layer := &TextLayer{
		Content:   t.Content,
		Font:      t.Font,
		Color:     color,
		Bold:      t.Styles.Bold,
		Italic:    t.Styles.Italic,
		Underline: t.Styles.Underline,
		FontSize:  round4(fontSize * k),
		OffsetX:   round4(t.Transform.Position.X * k),
		OffsetY:   round4(t.Transform.Position.Y * k),
		Scale:     round4(t.Transform.Scale),
		Rotation:  t.Transform.Rotation,
		Transform: TextTransform(t.Transform, k),
	}
	if s := t.Shadow; s != nil && s.Enabled {
		shadowColor := s.Color
		if !models.IsHexColor(shadowColor) {
			shadowColor = "#000000"
		}
		layer.Shadow = &ShadowLayer{
			Color:   shadowColor,
			Blur:    round4(s.Blur * k),
			OffsetX: round4(s.OffsetX * k),
			OffsetY: round4(s.OffsetY * k),
		}
	}
	return layer
}

// DesignTransform is the CSS transform of a design layer at scale factor k.
// Translation and scale grow with k, rotation does not.
func DesignTransform(t models.Transform, k float64) string {
	return cssTransform(t.Position.X*k, t.Position.Y*k, t.Scale*k, t.Rotation)
}

// TextTransform is the CSS transform of a text layer at scale factor k.
// The font size carries k, so the scale term stays the user's text scale.
func TextTransform(t models.Transform, k float64) string {
	return cssTransform(t.Position.X*k, t.Position.Y*k, t.Scale, t.Rotation)
}

func cssTransform(x, y, scale, rotation float64) string {
	return fmt.Sprintf("translate(-50%%, -50%%) translate(%spx, %spx) scale(%s) rotate(%sdeg)",
		FormatNumber(x), FormatNumber(y), FormatNumber(scale), FormatNumber(rotation))
}

// FormatNumber prints v rounded to 4 decimals without trailing zeros
func FormatNumber(v float64) string {
	return strconv.FormatFloat(round4(v), 'f', -1, 64)
}

func round4(v float64) float64 {
	r := math.Round(v*1e4) / 1e4
	if r == 0 {
		return 0 // no "-0"
	}
	return r
}

// SideLabel is the human label printed on a background placeholder
func SideLabel(side models.Side) string {
	return strings.ToUpper(string(side))
}
