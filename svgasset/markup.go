package svgasset

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tdewolff/minify/v2"
	minifysvg "github.com/tdewolff/minify/v2/svg"
)

// ErrInvalidSVG is returned for markup that has no <svg> root.
// Callers show an "SVG invalid" state and fall back to raster display.
var ErrInvalidSVG = errors.New("svg markup invalid")

const DefaultViewBox = "0 0 200 200"

var (
	svgOpenTagRegex = regexp.MustCompile(`(?is)<svg\b[^>]*>`)
	viewBoxRegex    = regexp.MustCompile(`(?i)\sviewBox\s*=\s*["']([^"']*)["']`)
	widthAttrRegex  = regexp.MustCompile(`(?i)\swidth\s*=`)
	heightAttrRegex = regexp.MustCompile(`(?i)\sheight\s*=`)

	fillAttrRegex     = regexp.MustCompile(`\bfill\s*=\s*("[^"]*"|'[^']*')`)
	strokeAttrRegex   = regexp.MustCompile(`\bstroke\s*=\s*("[^"]*"|'[^']*')`)
	fillStyleRegex    = regexp.MustCompile(`\bfill\s*:\s*([^;"'}]+)(;?)`)
	strokeStyleRegex  = regexp.MustCompile(`\bstroke\s*:\s*([^;"'}]+)(;?)`)
	currentColorRegex = regexp.MustCompile(`currentColor`)
)

var minifier = func() *minify.M {
	m := minify.New()
	m.AddFunc("image/svg+xml", minifysvg.Minify)
	return m
}()

// HasSVGRoot reports whether markup contains an <svg> element
func HasSVGRoot(markup string) bool {
	return svgOpenTagRegex.MatchString(markup)
}

// Normalize makes sure the root element carries a viewBox and explicit
// width/height. It runs once per fetch; the result is the cached original.
func Normalize(markup string) (string, error) {
	loc := svgOpenTagRegex.FindStringIndex(markup)
	if loc == nil {
		return "", ErrInvalidSVG
	}
	tag := markup[loc[0]:loc[1]]

	var inject []string
	viewBox := DefaultViewBox
	if m := viewBoxRegex.FindStringSubmatch(tag); m != nil && strings.TrimSpace(m[1]) != "" {
		viewBox = m[1]
	} else {
		inject = append(inject, fmt.Sprintf(`viewBox="%s"`, DefaultViewBox))
	}

	w, h := viewBoxSize(viewBox)
	if !widthAttrRegex.MatchString(tag) {
		inject = append(inject, fmt.Sprintf(`width="%s"`, formatDimension(w)))
	}
	if !heightAttrRegex.MatchString(tag) {
		inject = append(inject, fmt.Sprintf(`height="%s"`, formatDimension(h)))
	}
	if len(inject) == 0 {
		return markup, nil
	}

	// insert right after "<svg"
	insertAt := loc[0] + len("<svg")
	return markup[:insertAt] + " " + strings.Join(inject, " ") + markup[insertAt:], nil
}

func viewBoxSize(viewBox string) (float64, float64) {
	fields := strings.FieldsFunc(viewBox, func(r rune) bool { return r == ' ' || r == ',' })
	if len(fields) != 4 {
		return 200, 200
	}
	w, errW := strconv.ParseFloat(fields[2], 64)
	h, errH := strconv.ParseFloat(fields[3], 64)
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 200, 200
	}
	return w, h
}

func formatDimension(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Colorize substitutes the paint of every fill and stroke, attribute and
// inline-style forms, and every literal currentColor with color.
// It must be given the original markup, never a previously colorized one.
// Markup without any fill gets one on its root element.
func Colorize(markup, color string) string {
	keep := func(v string) bool {
		v = strings.ToLower(strings.Trim(strings.TrimSpace(v), `"'`))
		return v == "none" || strings.HasPrefix(v, "url(")
	}

	hadFill := fillAttrRegex.MatchString(markup) || fillStyleRegex.MatchString(markup)

	out := fillAttrRegex.ReplaceAllStringFunc(markup, func(m string) string {
		if keep(fillAttrRegex.FindStringSubmatch(m)[1]) {
			return m
		}
		return fmt.Sprintf(`fill="%s"`, color)
	})
	out = strokeAttrRegex.ReplaceAllStringFunc(out, func(m string) string {
		if keep(strokeAttrRegex.FindStringSubmatch(m)[1]) {
			return m
		}
		return fmt.Sprintf(`stroke="%s"`, color)
	})
	out = fillStyleRegex.ReplaceAllStringFunc(out, func(m string) string {
		sub := fillStyleRegex.FindStringSubmatch(m)
		if keep(sub[1]) {
			return m
		}
		return "fill:" + color + sub[2]
	})
	out = strokeStyleRegex.ReplaceAllStringFunc(out, func(m string) string {
		sub := strokeStyleRegex.FindStringSubmatch(m)
		if keep(sub[1]) {
			return m
		}
		return "stroke:" + color + sub[2]
	})
	out = currentColorRegex.ReplaceAllLiteralString(out, color)

	if !hadFill {
		if loc := svgOpenTagRegex.FindStringIndex(out); loc != nil {
			insertAt := loc[0] + len("<svg")
			out = out[:insertAt] + fmt.Sprintf(` fill="%s"`, color) + out[insertAt:]
		}
	}
	return out
}

// Prepare turns original markup into injectable markup: normalized,
// optionally recolored, and sanitized last.
func Prepare(markup, color string) (string, error) {
	normalized, err := Normalize(markup)
	if err != nil {
		return "", err
	}
	if color != "" {
		normalized = Colorize(normalized, color)
	}
	return Sanitize(normalized)
}

// Compact minifies sanitized markup before it is embedded in a mirror
// document. The input is returned unchanged if the minifier rejects it.
func Compact(markup string) string {
	out, err := minifier.String("image/svg+xml", markup)
	if err != nil || !HasSVGRoot(out) {
		return markup
	}
	return out
}
