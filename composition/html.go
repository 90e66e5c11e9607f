package composition

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// GarmentBaseAttr marks the garment photo so product-less captures can exclude it
const GarmentBaseAttr = "data-garment-base"

var mirrorTemplate = template.Must(template.New("mirror").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
html, body { margin: 0; padding: 0; background: transparent; }
.stage { position: relative; overflow: hidden; }
.layer { position: absolute; left: 50%; top: 50%; transform-origin: center center; }
.layer.design svg, .layer.design img { display: block; width: 100%; height: 100%; object-fit: contain; }
.garment { position: absolute; inset: 0; width: 100%; height: 100%; object-fit: contain; }
.garment-placeholder { position: absolute; inset: 0; display: flex; flex-direction: column; align-items: center; justify-content: center; background: #f3f4f6; color: #6b7280; font-family: sans-serif; }
</style>
</head>
<body>
<div id="{{.TargetID}}" class="stage" data-capture-target data-side="{{.Side}}" data-mode="{{.Mode}}" style="{{.StageStyle}}">
{{- with .Background}}
{{- if .Placeholder}}
<div class="garment-placeholder" data-garment-base style="{{$.PlaceholderStyle}}">
<svg viewBox="0 0 64 64" width="25%" height="25%" fill="none" stroke="currentColor" stroke-width="2"><path d="M22 6l-12 6-6 14 9 4 3-6v34h32V24l3 6 9-4-6-14-12-6c-1 5-5 8-10 8s-9-3-10-8z"/></svg>
<span>image not available</span>
<strong>{{.SideLabel}}</strong>
</div>
{{- else}}
<img class="garment" data-garment-base src="{{$.BackgroundSrc}}" crossorigin="anonymous" loading="eager" alt="">
{{- end}}
{{- end}}
{{- with .Design}}
<div class="layer design" data-design-id="{{.DesignID}}" style="{{$.DesignStyle}}">
{{- if $.DesignMarkup}}{{$.DesignMarkup}}{{else}}<img src="{{$.DesignSrc}}" crossorigin="anonymous" loading="eager" alt="">{{end -}}
</div>
{{- end}}
{{- with .Text}}
<div class="layer text" style="{{$.TextStyle}}">{{.Content}}</div>
{{- end}}
</div>
</body>
</html>
`))

type mirrorView struct {
	*Composition
	TargetID         string
	StageStyle       template.CSS
	PlaceholderStyle template.CSS
	BackgroundSrc    template.URL
	DesignStyle      template.CSS
	DesignMarkup     template.HTML
	DesignSrc        template.URL
	TextStyle        template.CSS
}

// RenderHTML renders comp as a standalone mirror document whose root
// element carries targetID
func RenderHTML(comp *Composition, targetID string) (string, error) {
	if comp == nil {
		return "", fmt.Errorf("composition is required")
	}

	view := mirrorView{
		Composition:      comp,
		TargetID:         targetID,
		StageStyle:       template.CSS(fmt.Sprintf("width: %spx; height: %spx;", FormatNumber(comp.Size), FormatNumber(comp.Size))),
		PlaceholderStyle: template.CSS(fmt.Sprintf("font-size: %spx;", FormatNumber(14*comp.ScaleFactor))),
	}
	if bg := comp.Background; bg != nil && !bg.Placeholder {
		view.BackgroundSrc = safeSrc(bg.URL)
	}
	if d := comp.Design; d != nil {
		view.DesignStyle = template.CSS(fmt.Sprintf("width: %spx; height: %spx; transform: %s;",
			FormatNumber(DesignBoxSize), FormatNumber(DesignBoxSize), d.Transform))
		if d.Kind == ContentInlineSVG {
			// sanitized by svgasset.Prepare
			view.DesignMarkup = template.HTML(d.Markup)
		} else {
			view.DesignSrc = safeSrc(d.Src)
		}
	}
	if t := comp.Text; t != nil {
		view.TextStyle = template.CSS(textCSS(t))
	}

	var buf bytes.Buffer
	if err := mirrorTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to execute mirror template: %w", err)
	}
	return buf.String(), nil
}

func textCSS(t *TextLayer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "font-family: %s; font-size: %spx; color: %s; white-space: pre; line-height: 1.2;",
		fontFamily(t.Font), FormatNumber(t.FontSize), t.Color)
	if t.Bold {
		b.WriteString(" font-weight: bold;")
	}
	if t.Italic {
		b.WriteString(" font-style: italic;")
	}
	if t.Underline {
		b.WriteString(" text-decoration: underline;")
	}
	if s := t.Shadow; s != nil {
		fmt.Fprintf(&b, " text-shadow: %spx %spx %spx %s;",
			FormatNumber(s.OffsetX), FormatNumber(s.OffsetY), FormatNumber(s.Blur), s.Color)
	}
	fmt.Fprintf(&b, " transform: %s;", t.Transform)
	return b.String()
}

// fontFamily quotes a user supplied family, keeping only name characters
func fontFamily(name string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ', r == '-', r == '_':
			return r
		}
		return -1
	}, name)
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return "sans-serif"
	}
	return fmt.Sprintf("'%s', sans-serif", clean)
}

// safeSrc lets http(s) urls and inline raster data through to an <img>
func safeSrc(u string) template.URL {
	lower := strings.ToLower(strings.TrimSpace(u))
	if strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "data:image/") {
		return template.URL(u)
	}
	return ""
}
