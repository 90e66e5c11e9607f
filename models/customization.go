package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Side identifies the printable face of a garment
type Side string

const (
	SideFront Side = "front"
	SideBack  Side = "back"
)

// Sides lists the printable faces in capture order
var Sides = []Side{SideFront, SideBack}

// Valid reports whether the side is front or back
func (s Side) Valid() bool {
	return s == SideFront || s == SideBack
}

// ElementKind identifies a layer type that carries its own transform
type ElementKind string

const (
	ElementDesign ElementKind = "design"
	ElementText   ElementKind = "text"
)

// PrintSize is the physical print format chosen for a design
type PrintSize string

const (
	PrintA3     PrintSize = "A3"
	PrintA4     PrintSize = "A4"
	PrintA5     PrintSize = "A5"
	PrintA6     PrintSize = "A6"
	PrintA7     PrintSize = "A7"
	PrintFull   PrintSize = "Full"
	PrintPocket PrintSize = "Pocket"
)

const MaxTextLength = 500

var (
	ErrTransientDesignURL = errors.New("design url is a session-local blob reference")
	ErrInvalidTransform   = errors.New("invalid transform")
	ErrInvalidText        = errors.New("invalid text selection")
)

var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// IsHexColor reports whether s is a #rgb, #rrggbb or #rrggbbaa color
func IsHexColor(s string) bool {
	return hexColorRegex.MatchString(s)
}

// Position is an offset from the center of the print area, in stage pixels
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Transform places a layer on the stage
type Transform struct {
	Position Position `json:"position"`
	Scale    float64  `json:"scale"`
	Rotation float64  `json:"rotation"` // degrees
}

// DefaultTransform is the transform of a freshly placed element
func DefaultTransform() Transform {
	return Transform{Scale: 1}
}

// DisplayRotation normalizes the stored rotation into (-180, 180]
func (t Transform) DisplayRotation() float64 {
	r := t.Rotation
	for r > 180 {
		r -= 360
	}
	for r <= -180 {
		r += 360
	}
	return r
}

// DesignSelection is a design placed on one side
type DesignSelection struct {
	DesignID       string    `json:"designId"`
	DesignURL      string    `json:"designUrl"`
	DesignName     string    `json:"designName"`
	DesignCategory string    `json:"designCategory,omitempty"`
	PrintSize      PrintSize `json:"printSize,omitempty"`
	Color          string    `json:"color,omitempty"` // recolor target for SVG designs
	Transform      Transform `json:"transform"`
}

// TextStyles holds the toggles of the text toolbar
type TextStyles struct {
	Bold      bool `json:"bold"`
	Italic    bool `json:"italic"`
	Underline bool `json:"underline"`
}

// TextShadow is the optional drop shadow of a text layer
type TextShadow struct {
	Enabled bool    `json:"enabled"`
	Color   string  `json:"color"`
	Blur    float64 `json:"blur"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// TextSelection is styled text placed on one side
type TextSelection struct {
	Content   string      `json:"content"`
	Font      string      `json:"font"`
	FontSize  float64     `json:"fontSize,omitempty"`
	Color     string      `json:"color"`
	Styles    TextStyles  `json:"styles"`
	Shadow    *TextShadow `json:"shadow,omitempty"`
	Transform Transform   `json:"transform"`
}

// CustomizationRecord is the durable representation of a customized garment.
// Once written to an order it is the only input regeneration has.
type CustomizationRecord struct {
	FrontDesign  *DesignSelection `json:"frontDesign,omitempty"`
	BackDesign   *DesignSelection `json:"backDesign,omitempty"`
	FrontText    *TextSelection   `json:"frontText,omitempty"`
	BackText     *TextSelection   `json:"backText,omitempty"`
	HDRectoURL   string           `json:"hdRectoUrl,omitempty"`
	HDVersoURL   string           `json:"hdVersoUrl,omitempty"`
	MockupID     string           `json:"mockupId,omitempty"`
	ColorVariant string           `json:"colorVariant,omitempty"`
}

// Design returns the design placed on the given side, or nil
func (c *CustomizationRecord) Design(side Side) *DesignSelection {
	if c == nil {
		return nil
	}
	if side == SideBack {
		return c.BackDesign
	}
	return c.FrontDesign
}

// Text returns the text placed on the given side, or nil.
// A text with empty content counts as absent.
func (c *CustomizationRecord) Text(side Side) *TextSelection {
	if c == nil {
		return nil
	}
	t := c.FrontText
	if side == SideBack {
		t = c.BackText
	}
	if t == nil || t.Content == "" {
		return nil
	}
	return t
}

// SetDesign replaces the design of a side wholesale; nil clears it
func (c *CustomizationRecord) SetDesign(side Side, d *DesignSelection) {
	if side == SideBack {
		c.BackDesign = d
		return
	}
	c.FrontDesign = d
}

// SetText replaces the text of a side; nil or empty content clears it
func (c *CustomizationRecord) SetText(side Side, t *TextSelection) {
	if t != nil && t.Content == "" {
		t = nil
	}
	if side == SideBack {
		c.BackText = t
		return
	}
	c.FrontText = t
}

// HasContent reports whether anything is printed on the side
func (c *CustomizationRecord) HasContent(side Side) bool {
	return c.Design(side) != nil || c.Text(side) != nil
}

// IsEmpty reports whether neither side carries content
func (c *CustomizationRecord) IsEmpty() bool {
	return !c.HasContent(SideFront) && !c.HasContent(SideBack)
}

// HDURL returns the production capture url stored for a side
func (c *CustomizationRecord) HDURL(side Side) string {
	if side == SideBack {
		return c.HDVersoURL
	}
	return c.HDRectoURL
}

// WithCaptureURLs returns a copy with the given HD urls merged in.
// Empty arguments keep the existing value; every other field is preserved.
func (c CustomizationRecord) WithCaptureURLs(front, back string) CustomizationRecord {
	if front != "" {
		c.HDRectoURL = front
	}
	if back != "" {
		c.HDVersoURL = back
	}
	return c
}

// WithoutCaptureURLs returns a copy with both HD urls cleared
func (c CustomizationRecord) WithoutCaptureURLs() CustomizationRecord {
	c.HDRectoURL = ""
	c.HDVersoURL = ""
	return c
}

// Validate closes the gaps the studio leaves open before a record is persisted
func (c *CustomizationRecord) Validate() error {
	for _, side := range Sides {
		if d := c.Design(side); d != nil {
			if strings.HasPrefix(strings.ToLower(d.DesignURL), "blob:") {
				return fmt.Errorf("%s design: %w", side, ErrTransientDesignURL)
			}
			if strings.TrimSpace(d.DesignURL) == "" {
				return fmt.Errorf("%s design: designUrl is required", side)
			}
			if d.Transform.Scale <= 0 {
				return fmt.Errorf("%s design: %w: scale must be greater than 0", side, ErrInvalidTransform)
			}
			if d.Color != "" && !IsHexColor(d.Color) {
				return fmt.Errorf("%s design: color %q is not a hex color", side, d.Color)
			}
		}
		if t := c.Text(side); t != nil {
			if utf8.RuneCountInString(t.Content) > MaxTextLength {
				return fmt.Errorf("%s text: %w: content exceeds %d characters", side, ErrInvalidText, MaxTextLength)
			}
			if !IsHexColor(t.Color) {
				return fmt.Errorf("%s text: %w: color %q is not a hex color", side, ErrInvalidText, t.Color)
			}
			if t.Transform.Scale <= 0 {
				return fmt.Errorf("%s text: %w: scale must be greater than 0", side, ErrInvalidTransform)
			}
		}
	}
	return nil
}
