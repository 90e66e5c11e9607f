package svgasset

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/xml"
)

// allowedElements lists the SVG elements kept by Sanitize. Anything else is
// dropped with its whole subtree: an HTML element such as <p> or <img> ends
// SVG parsing once the markup is injected into a page.
var allowedElements = map[string]bool{
	"svg": true, "g": true, "defs": true, "symbol": true, "use": true, "switch": true,
	"a": true, "view": true, "style": true, "title": true, "desc": true, "metadata": true,
	"path": true, "rect": true, "circle": true, "ellipse": true, "line": true,
	"polyline": true, "polygon": true, "text": true, "tspan": true, "textpath": true,
	"image": true, "lineargradient": true, "radialgradient": true, "stop": true,
	"pattern": true, "clippath": true, "mask": true, "marker": true, "filter": true,
	"feblend": true, "fecolormatrix": true, "fecomponenttransfer": true, "fecomposite": true,
	"feconvolvematrix": true, "fediffuselighting": true, "fedisplacementmap": true,
	"fedistantlight": true, "fedropshadow": true, "feflood": true, "fefunca": true,
	"fefuncb": true, "fefuncg": true, "fefuncr": true, "fegaussianblur": true,
	"feimage": true, "femerge": true, "femergenode": true, "femorphology": true,
	"feoffset": true, "fepointlight": true, "fespecularlighting": true, "fespotlight": true,
	"fetile": true, "feturbulence": true,
}

// textOnlyElements keep their text but no child elements. title and desc are
// HTML integration points, style is CSS.
var textOnlyElements = map[string]bool{
	"title":    true,
	"desc":     true,
	"metadata": true,
	"style":    true,
}

var safeDataImagePrefixes = []string{
	"data:image/png",
	"data:image/jpeg",
	"data:image/jpg",
	"data:image/gif",
	"data:image/webp",
}

// Sanitize strips executable and externally-referencing constructs from
// untrusted SVG markup. Only allowlisted SVG elements survive; DOCTYPE,
// processing instructions, comments, event-handler attributes, javascript:
// values and hrefs that leave the document are removed, and CDATA is
// re-emitted as escaped text. It is the only path from fetched or uploaded
// markup into a page or mirror document.
func Sanitize(markup string) (string, error) {
	l := xml.NewLexer(parse.NewInputString(markup))

	var b strings.Builder
	b.Grow(len(markup))

	var open []string
	skipDepth := 0
	dropTag := false
	inPI := false
	sawSVG := false
	var style *strings.Builder

	text := func(s string) {
		if style != nil {
			style.WriteString(s)
			return
		}
		b.WriteString(s)
	}

	for {
		tt, data := l.Next()
		switch tt {
		case xml.ErrorToken:
			if err := l.Err(); err != nil && err != io.EOF {
				return "", fmt.Errorf("%w: %v", ErrInvalidSVG, err)
			}
			if !sawSVG {
				return "", ErrInvalidSVG
			}
			if style != nil {
				writeStyle(&b, style.String())
			}
			for i := len(open) - 1; i >= 0; i-- {
				b.WriteString("</" + open[i] + ">")
			}
			return b.String(), nil

		case xml.StartTagPIToken:
			inPI = true
		case xml.StartTagClosePIToken:
			inPI = false

		case xml.StartTagToken:
			tag := string(l.Text())
			name := localName(tag)
			parentTextOnly := len(open) > 0 && textOnlyElements[localName(open[len(open)-1])]
			if skipDepth > 0 || !allowedElements[name] || parentTextOnly {
				skipDepth++
				dropTag = true
				continue
			}
			dropTag = false
			if name == "svg" {
				sawSVG = true
			}
			open = append(open, tag)
			b.Write(data)

		case xml.AttributeToken:
			if inPI || dropTag {
				continue
			}
			name := strings.ToLower(string(l.Text()))
			if unsafeAttribute(name, attrValue(l.AttrVal())) {
				continue
			}
			b.Write(data)

		case xml.StartTagCloseToken:
			if dropTag {
				continue
			}
			b.Write(data)
			if localName(open[len(open)-1]) == "style" {
				style = &strings.Builder{}
			}

		case xml.StartTagCloseVoidToken:
			if dropTag {
				skipDepth--
				dropTag = false
				continue
			}
			open = open[:len(open)-1]
			b.Write(data)

		case xml.EndTagToken:
			if skipDepth > 0 {
				skipDepth--
				continue
			}
			// stray or mismatched end tags are dropped; </p> and </br> leave SVG parsing in HTML
			if len(open) == 0 || !strings.EqualFold(string(l.Text()), open[len(open)-1]) {
				continue
			}
			if style != nil {
				writeStyle(&b, style.String())
				style = nil
			}
			b.WriteString("</" + open[len(open)-1] + ">")
			open = open[:len(open)-1]

		case xml.TextToken:
			if skipDepth > 0 || inPI || len(open) == 0 {
				continue
			}
			text(string(data))

		case xml.CDATAToken:
			if skipDepth > 0 || inPI || len(open) == 0 {
				continue
			}
			text(html.EscapeString(string(l.Text())))

		case xml.CommentToken, xml.DOCTYPEToken:
			// dropped: comments can hide conditional markup, DOCTYPE carries entities
		}
	}
}

// writeStyle emits a stylesheet body unless it pulls in external or scripted content
func writeStyle(b *strings.Builder, css string) {
	compact := strings.ToLower(strings.Join(strings.Fields(css), ""))
	for _, bad := range []string{"@import", "expression(", "javascript:", "url(http", "url('http", `url("http`, "url(//", "url('//", `url("//`} {
		if strings.Contains(compact, bad) {
			return
		}
	}
	b.WriteString(css)
}

func localName(tag string) string {
	tag = strings.ToLower(tag)
	if i := strings.LastIndexByte(tag, ':'); i >= 0 {
		return tag[i+1:]
	}
	return tag
}

func attrValue(raw []byte) string {
	v := string(raw)
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		v = v[1 : len(v)-1]
	}
	return v
}

func unsafeAttribute(name, value string) bool {
	if strings.HasPrefix(name, "on") {
		return true
	}

	compact := strings.ToLower(strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, value))
	if strings.Contains(compact, "javascript:") || strings.Contains(compact, "vbscript:") {
		return true
	}
	if name == "style" && (strings.Contains(compact, "expression(") || strings.Contains(compact, "@import")) {
		return true
	}

	if name == "href" || strings.HasSuffix(name, ":href") {
		if strings.HasPrefix(compact, "#") {
			return false
		}
		for _, prefix := range safeDataImagePrefixes {
			if strings.HasPrefix(compact, prefix) {
				return false
			}
		}
		return true
	}
	return false
}
