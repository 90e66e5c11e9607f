package composition

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var ErrEmptyMirror = errors.New("mirror has nothing to paint")

// AssetLookup returns a preloaded image by url
type AssetLookup func(u string) (image.Image, bool)

// Painter draws compositions without a browser. It places layers with the
// same numbers the HTML mirror uses; text is set in the Go font family.
type Painter struct {
	once  sync.Once
	fonts map[fontStyle]*opentype.Font
	err   error
}

type fontStyle struct {
	bold, italic bool
}

// NewPainter creates a Painter; fonts are parsed on first use
func NewPainter() *Painter {
	return &Painter{}
}

// PaintMirror paints a settled mirror at size×size pixels
func (p *Painter) PaintMirror(m *Mirror, size int, excludeBase bool) (*image.NRGBA, error) {
	if !m.HasContent() {
		return nil, ErrEmptyMirror
	}
	return p.Paint(m.Composition(), m.Asset, size, excludeBase)
}

// Paint draws comp into a transparent size×size image. excludeBase leaves
// the garment photo out even when the composition carries one.
func (p *Painter) Paint(comp *Composition, assets AssetLookup, size int, excludeBase bool) (*image.NRGBA, error) {
	if comp == nil || comp.Size <= 0 {
		return nil, ErrEmptyMirror
	}
	if size <= 0 {
		return nil, fmt.Errorf("invalid output size %d", size)
	}
	if assets == nil {
		assets = func(string) (image.Image, bool) { return nil, false }
	}
	if err := p.loadFonts(); err != nil {
		return nil, err
	}

	f := float64(size) / comp.Size
	dst := imaging.New(size, size, color.NRGBA{})

	if bg := comp.Background; bg != nil && !excludeBase {
		img, ok := assets(bg.URL)
		if bg.Placeholder || !ok {
			dst = p.paintPlaceholder(dst, bg.SideLabel, comp.ScaleFactor*f)
		} else {
			fitted := containResize(img, size)
			dst = imaging.OverlayCenter(dst, fitted, 1.0)
		}
	}

	if d := comp.Design; d != nil {
		layer, err := p.designImage(d, assets, DesignBoxSize*d.Scale*f)
		if err != nil {
			return nil, err
		}
		if layer != nil {
			dst = place(dst, layer, d.OffsetX*f, d.OffsetY*f, d.Rotation)
		}
	}

	if t := comp.Text; t != nil && t.Content != "" {
		layer, err := p.textImage(t, f)
		if err != nil {
			return nil, err
		}
		dst = place(dst, layer, t.OffsetX*f, t.OffsetY*f, t.Rotation)
	}
	return dst, nil
}

func (p *Painter) designImage(d *DesignLayer, assets AssetLookup, box float64) (image.Image, error) {
	if box < 1 {
		return nil, nil
	}
	if d.Kind == ContentInlineSVG {
		return rasterizeSVG(d.Markup, box)
	}
	img, ok := assets(d.Src)
	if !ok {
		return nil, fmt.Errorf("design %s was not preloaded", d.DesignID)
	}
	return containResize(img, int(math.Round(box))), nil
}

var svgTextElement = regexp.MustCompile(`(?is)<text\b.*?</text\s*>`)

// rasterizeSVG draws markup so its longest edge is box pixels. When the
// markup names a font the host does not have, its text is left out.
func rasterizeSVG(markup string, box float64) (image.Image, error) {
	c, err := parseSVG(markup)
	if errors.Is(err, errMissingFont) {
		log.Printf("⚠️  Painter: %v, drawing svg without its text", err)
		c, err = parseSVG(svgTextElement.ReplaceAllString(markup, ""))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse svg: %w", err)
	}
	if c.W <= 0 || c.H <= 0 {
		return nil, fmt.Errorf("svg has no size")
	}
	dpmm := box / math.Max(c.W, c.H)
	return rasterizer.Draw(c, canvas.DPMM(dpmm), canvas.DefaultColorSpace), nil
}

var errMissingFont = errors.New("svg font is not installed")

// parseSVG wraps canvas.ParseSVG, which panics when a <text> font cannot be loaded
func parseSVG(markup string) (c *canvas.Canvas, err error) {
	defer func() {
		if r := recover(); r != nil {
			c, err = nil, fmt.Errorf("%w: %v", errMissingFont, r)
		}
	}()
	return canvas.ParseSVG(strings.NewReader(markup))
}

func (p *Painter) textImage(t *TextLayer, f float64) (image.Image, error) {
	px := t.FontSize * t.Scale * f
	if px < 1 {
		px = 1
	}
	face, err := opentype.NewFace(p.fonts[fontStyle{t.Bold, t.Italic}], &opentype.FaceOptions{
		Size:    px,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	defer face.Close()

	lines := strings.Split(t.Content, "\n")
	lineHeight := px * 1.2
	ascent := float64(face.Metrics().Ascent.Ceil())

	textW := 0.0
	for _, line := range lines {
		w := float64(font.MeasureString(face, line)) / 64
		textW = math.Max(textW, w)
	}
	textH := lineHeight * float64(len(lines))

	pad := 2.0
	var shadow *ShadowLayer
	if t.Shadow != nil {
		shadow = t.Shadow
		pad += 2*shadow.Blur*f + math.Max(math.Abs(shadow.OffsetX), math.Abs(shadow.OffsetY))*f
	}

	w := int(math.Ceil(textW + 2*pad))
	h := int(math.Ceil(textH + 2*pad))
	out := imaging.New(w, h, color.NRGBA{})

	if shadow != nil {
		layer := imaging.New(w, h, color.NRGBA{})
		drawLines(layer, face, lines, parseHexColor(shadow.Color), pad+shadow.OffsetX*f, pad+shadow.OffsetY*f, ascent, lineHeight, t.Underline, px)
		var blurred image.Image = layer
		if shadow.Blur > 0 {
			blurred = imaging.Blur(layer, shadow.Blur*f/2)
		}
		out = imaging.Overlay(out, blurred, image.Pt(0, 0), 1.0)
	}
	drawLines(out, face, lines, parseHexColor(t.Color), pad, pad, ascent, lineHeight, t.Underline, px)
	return out, nil
}

func drawLines(dst *image.NRGBA, face font.Face, lines []string, col color.Color, x, y, ascent, lineHeight float64, underline bool, px float64) {
	src := image.NewUniform(col)
	d := &font.Drawer{Dst: dst, Src: src, Face: face}
	for i, line := range lines {
		baseline := y + float64(i)*lineHeight + (lineHeight-px)/2 + ascent
		d.Dot = fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(baseline * 64)}
		d.DrawString(line)

		if underline && line != "" {
			thickness := math.Max(1, px/15)
			w := float64(font.MeasureString(face, line)) / 64
			top := int(baseline + thickness)
			for yy := top; yy < top+int(math.Ceil(thickness)); yy++ {
				for xx := int(x); xx < int(x+w); xx++ {
					dst.Set(xx, yy, col)
				}
			}
		}
	}
}

func (p *Painter) paintPlaceholder(dst *image.NRGBA, label string, k float64) *image.NRGBA {
	bounds := dst.Bounds()
	bg := imaging.New(bounds.Dx(), bounds.Dy(), color.NRGBA{R: 0xf3, G: 0xf4, B: 0xf6, A: 0xff})
	dst = imaging.Overlay(dst, bg, image.Pt(0, 0), 1.0)

	px := math.Max(8, 14*k)
	face, err := opentype.NewFace(p.fonts[fontStyle{}], &opentype.FaceOptions{Size: px, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return dst
	}
	defer face.Close()

	gray := color.NRGBA{R: 0x6b, G: 0x72, B: 0x80, A: 0xff}
	ascent := float64(face.Metrics().Ascent.Ceil())
	cx := float64(bounds.Dx()) / 2
	cy := float64(bounds.Dy()) / 2
	for i, line := range []string{"image not available", label} {
		w := float64(font.MeasureString(face, line)) / 64
		drawLines(dst, face, []string{line}, gray, cx-w/2, cy+float64(i)*px*1.4-px, ascent, px*1.2, false, px)
	}
	return dst
}

// place overlays layer centered on the stage center plus (dx, dy), turned
// clockwise by rotation degrees like CSS rotate
func place(dst *image.NRGBA, layer image.Image, dx, dy, rotation float64) *image.NRGBA {
	if math.Mod(rotation, 360) != 0 {
		layer = imaging.Rotate(layer, -rotation, color.NRGBA{})
	}
	b := layer.Bounds()
	cx := float64(dst.Bounds().Dx())/2 + dx
	cy := float64(dst.Bounds().Dy())/2 + dy
	pt := image.Pt(int(math.Round(cx-float64(b.Dx())/2)), int(math.Round(cy-float64(b.Dy())/2)))
	return imaging.Overlay(dst, layer, pt, 1.0)
}

// containResize scales img up or down so its longest edge is edge pixels
func containResize(img image.Image, edge int) image.Image {
	b := img.Bounds()
	if edge <= 0 || b.Dx() == 0 || b.Dy() == 0 {
		return img
	}
	ratio := math.Min(float64(edge)/float64(b.Dx()), float64(edge)/float64(b.Dy()))
	w := int(math.Max(1, math.Round(float64(b.Dx())*ratio)))
	h := int(math.Max(1, math.Round(float64(b.Dy())*ratio)))
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

func (p *Painter) loadFonts() error {
	p.once.Do(func() {
		sources := map[fontStyle][]byte{
			{}:                         goregular.TTF,
			{bold: true}:               gobold.TTF,
			{italic: true}:             goitalic.TTF,
			{bold: true, italic: true}: gobolditalic.TTF,
		}
		p.fonts = make(map[fontStyle]*opentype.Font, len(sources))
		for style, ttf := range sources {
			f, err := opentype.Parse(ttf)
			if err != nil {
				p.err = fmt.Errorf("failed to parse go font: %w", err)
				return
			}
			p.fonts[style] = f
		}
	})
	return p.err
}

// parseHexColor reads #rgb, #rrggbb and #rrggbbaa; anything else is black
func parseHexColor(s string) color.NRGBA {
	black := color.NRGBA{A: 0xff}
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) == 6 {
		s += "ff"
	}
	if len(s) != 8 {
		return black
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return black
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
}
