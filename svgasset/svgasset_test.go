package svgasset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const logoSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"><path fill="#000" stroke='blue' style="fill:red;stroke:green"/><circle fill="none"/><g color="currentColor"/></svg>`

func TestNormalizeInjectsViewBoxAndSize(t *testing.T) {
	out, err := Normalize(`<svg xmlns="http://www.w3.org/2000/svg"><path d="M0 0"/></svg>`)
	require.NoError(t, err)
	assert.Contains(t, out, `viewBox="0 0 200 200"`)
	assert.Contains(t, out, `width="200"`)
	assert.Contains(t, out, `height="200"`)

	out, err = Normalize(`<svg viewBox="0 0 24 12"><rect stroke-width="2"/></svg>`)
	require.NoError(t, err)
	assert.Equal(t, `<svg width="24" height="12" viewBox="0 0 24 12"><rect stroke-width="2"/></svg>`, out)

	complete := `<svg viewBox="0 0 5 5" width="50" height="50"></svg>`
	out, err = Normalize(complete)
	require.NoError(t, err)
	assert.Equal(t, complete, out)
}

func TestNormalizeRejectsMarkupWithoutSVG(t *testing.T) {
	_, err := Normalize(`<html><body>nope</body></html>`)
	assert.ErrorIs(t, err, ErrInvalidSVG)
}

func TestColorizeReplacesEveryPaintForm(t *testing.T) {
	got := Colorize(logoSVG, "#ff0000")
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"><path fill="#ff0000" stroke="#ff0000" style="fill:#ff0000;stroke:#ff0000"/><circle fill="none"/><g color="#ff0000"/></svg>`
	assert.Equal(t, want, got)
}

func TestColorizeAddsRootFillWhenMissing(t *testing.T) {
	got := Colorize(`<svg viewBox="0 0 1 1"><path d="M0 0"/></svg>`, "#123456")
	assert.Equal(t, `<svg fill="#123456" viewBox="0 0 1 1"><path d="M0 0"/></svg>`, got)
}

func TestColorizeMustStartFromOriginal(t *testing.T) {
	once := Colorize(logoSVG, "#abcdef")
	assert.Equal(t, once, Colorize(logoSVG, "#abcdef"))

	// a literal currentColor is gone after the first pass
	twice := Colorize(Colorize(logoSVG, "#111111"), "#abcdef")
	assert.NotEqual(t, once, twice)
	assert.Contains(t, twice, `color="#111111"`)
}

func TestCacheRecolorsFromOriginal(t *testing.T) {
	ctx := context.Background()
	uri := EncodeSVGDataURI(logoSVG)

	c := NewCache(NewResolver(nil))
	_, err := c.Load(ctx, "front", uri, "#111111")
	require.NoError(t, err)
	_, err = c.SetColor("front", "#00ff00")
	require.NoError(t, err)
	second, err := c.SetColor("front", "#abcdef")
	require.NoError(t, err)

	fresh := NewCache(NewResolver(nil))
	direct, err := fresh.Load(ctx, "front", uri, "#abcdef")
	require.NoError(t, err)

	assert.Equal(t, direct.DerivedMarkup, second.DerivedMarkup)
	assert.Equal(t, "#abcdef", second.CurrentColor)
	assert.NotContains(t, second.DerivedMarkup, "#00ff00")
	assert.NotContains(t, second.DerivedMarkup, "#111111")

	stored, ok := c.Get("front")
	require.True(t, ok)
	assert.Equal(t, direct.OriginalMarkup, stored.OriginalMarkup)

	_, err = c.SetColor("back", "#000000")
	assert.Error(t, err)
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewCacheSize(NewResolver(nil), 2)

	for _, key := range []string{"a", "b"} {
		_, err := c.Load(ctx, key, EncodeSVGDataURI(logoSVG), "")
		require.NoError(t, err)
	}
	_, ok := c.Get("a")
	require.True(t, ok)

	_, err := c.Load(ctx, "c", EncodeSVGDataURI(logoSVG), "")
	require.NoError(t, err)

	assert.Equal(t, 2, c.Len())
	_, ok = c.Get("b")
	assert.False(t, ok, "b was the least recently used")
	_, ok = c.Get("a")
	assert.True(t, ok)
}

func TestResolveDefaultClientRefusesInternalHosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("internal host must not be reached")
	}))
	defer srv.Close()

	for _, u := range []string{srv.URL + "/logo.svg", "http://169.254.169.254/latest/meta-data/x.svg"} {
		res, err := NewResolver(nil).Resolve(context.Background(), u)
		require.NoError(t, err)
		assert.True(t, res.Fallback, u)
		assert.Equal(t, SourcePlaceholder, res.Source)
	}
}

func TestSanitizeStripsUnsafeConstructs(t *testing.T) {
	in := `<?xml version="1.0"?><!DOCTYPE svg [<!ENTITY x SYSTEM "file:///etc/passwd">]>` +
		`<svg xmlns="http://www.w3.org/2000/svg" onload="alert(1)">` +
		`<script>alert(2)</script>` +
		`<a href="javascript:alert(3)"><rect width="10" height="10" onclick="x()"/></a>` +
		`<image href="https://evil.example/x.png"/>` +
		`<use xlink:href="#shape"/>` +
		`<foreignObject><div>hi</div></foreignObject>` +
		`<!-- c --></svg>`

	out, err := Sanitize(in)
	require.NoError(t, err)
	assert.Equal(t, `<svg xmlns="http://www.w3.org/2000/svg"><a><rect width="10" height="10"/></a><image/><use xlink:href="#shape"/></svg>`, out)
}

func TestSanitizeNeutralizesParserDifferentials(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"html element ends svg parsing",
			`<svg><p><style><![CDATA[</style><img src=x onerror=alert(document.domain)>]]></style></p></svg>`,
			`<svg></svg>`,
		},
		{
			"cdata in style is escaped",
			`<svg><style><![CDATA[</style><img src=x onerror=alert(1)>]]></style></svg>`,
			`<svg><style>&lt;/style&gt;&lt;img src=x onerror=alert(1)&gt;</style></svg>`,
		},
		{
			"cdata in text is escaped",
			`<svg><text><![CDATA[<b>x</b>]]></text></svg>`,
			`<svg><text>&lt;b&gt;x&lt;/b&gt;</text></svg>`,
		},
		{
			"stray html end tag",
			`<svg><g></p><img src=x onerror=alert(1)></g></svg>`,
			`<svg><g></g></svg>`,
		},
		{
			"children of title are dropped",
			`<svg><title>Logo<style>x</style></title><path d="M0 0"/></svg>`,
			`<svg><title>Logo</title><path d="M0 0"/></svg>`,
		},
		{
			"remote stylesheet",
			`<svg><style>@import url(https://evil.example/x.css);</style></svg>`,
			`<svg><style></style></svg>`,
		},
		{
			"unclosed elements are closed",
			`<svg><g><rect/>`,
			`<svg><g><rect/></g></svg>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Sanitize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
			assert.Empty(t, liveHTMLElements(t, out))
		})
	}
}

func TestSanitizeKeepsStyleSheetsAndGradients(t *testing.T) {
	in := `<svg viewBox="0 0 10 10"><defs><style>.cls-1{fill:#f00}</style><linearGradient id="g"><stop offset="0"/></linearGradient></defs><rect class="cls-1" fill="url(#g)"/></svg>`
	out, err := Sanitize(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

// liveHTMLElements injects markup into a body the way innerHTML does and
// returns the elements that ended up outside the SVG namespace
func liveHTMLElements(t *testing.T, markup string) []string {
	t.Helper()
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), body)
	require.NoError(t, err)

	var found []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Namespace == "" {
			found = append(found, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return found
}

func TestSanitizeKeepsSafeMarkup(t *testing.T) {
	in := `<svg viewBox="0 0 10 10"><image href="data:image/png;base64,AAAA"/><text x="1">A &amp; B</text></svg>`
	out, err := Sanitize(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSanitizeRejectsNonSVG(t *testing.T) {
	_, err := Sanitize(`<div>hello</div>`)
	assert.ErrorIs(t, err, ErrInvalidSVG)
}

func TestResolveFetchesWithSVGAcceptHeader(t *testing.T) {
	var accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Write([]byte(logoSVG))
	}))
	defer srv.Close()

	res, err := NewResolver(srv.Client()).Resolve(context.Background(), srv.URL+"/logo.svg")
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", accept)
	assert.Equal(t, logoSVG, res.Markup)
	assert.Equal(t, SourceNetwork, res.Source)
	assert.False(t, res.Fallback)
}

func TestResolveFallsBackToRecolorablePlaceholder(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		http.Error(w, "cross-origin read blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	res, err := NewResolver(srv.Client()).Resolve(context.Background(), srv.URL+"/blocked.svg")
	require.NoError(t, err, "fetch failure is a soft condition")
	assert.True(t, res.Fallback)
	assert.Equal(t, SourcePlaceholder, res.Source)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))

	recolored := Colorize(res.Markup, "#00ff00")
	assert.Equal(t, 2, strings.Count(recolored, `fill="#00ff00"`))
	assert.NotContains(t, recolored, PlaceholderColor)

	again := Colorize(res.Markup, "#0000ff")
	assert.Equal(t, 2, strings.Count(again, `fill="#0000ff"`))
	assert.NotContains(t, again, "#00ff00")
}

func TestResolveDataURIWithoutNetwork(t *testing.T) {
	res, err := NewResolver(&http.Client{Transport: failingTransport{t}}).Resolve(context.Background(), EncodeSVGDataURI(logoSVG))
	require.NoError(t, err)
	assert.Equal(t, logoSVG, res.Markup)
	assert.Equal(t, SourceDataURI, res.Source)

	res, err = NewResolver(nil).Resolve(context.Background(), "data:image/svg+xml;utf8,%3Csvg%3E%3C%2Fsvg%3E")
	require.NoError(t, err)
	assert.Equal(t, "<svg></svg>", res.Markup)
}

func TestResolveSkipsBlobURLs(t *testing.T) {
	_, err := NewResolver(&http.Client{Transport: failingTransport{t}}).Resolve(context.Background(), "blob:https://shop.example.com/5e1c")
	assert.ErrorIs(t, err, ErrBlobURL)
}

func TestResolveInvalidMarkupIsHardError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not an svg</html>"))
	}))
	defer srv.Close()

	_, err := NewResolver(srv.Client()).Resolve(context.Background(), srv.URL+"/x.svg")
	assert.ErrorIs(t, err, ErrInvalidSVG)

	_, err = NewResolver(nil).Resolve(context.Background(), "data:image/png;base64,AAAA")
	assert.ErrorIs(t, err, ErrNotSVG)
}

func TestPrepareProducesSafeColoredMarkup(t *testing.T) {
	out, err := Prepare(`<svg onload="x()"><path fill="#000"/></svg>`, "#ff00ff")
	require.NoError(t, err)
	assert.Contains(t, out, `fill="#ff00ff"`)
	assert.Contains(t, out, `viewBox="0 0 200 200"`)
	assert.NotContains(t, out, "onload")
}

func TestCompactKeepsSVGRoot(t *testing.T) {
	out := Compact(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10">  <rect  width="10"   height="10"/> </svg>`)
	assert.True(t, HasSVGRoot(out))
	assert.Equal(t, "plain text", Compact("plain text"))
}

func TestDataURIHelpers(t *testing.T) {
	assert.True(t, IsSVGURL("https://cdn.example.com/a/logo.SVG?v=2"))
	assert.False(t, IsSVGURL("https://cdn.example.com/a/logo.png"))
	assert.True(t, IsSVGURL("data:image/svg+xml;base64,PHN2Zz4="))
	assert.False(t, IsSVGURL("blob:https://x/1"))

	mime, data, err := DecodeDataURI("data:image/svg+xml;base64,PHN2Zz48L3N2Zz4")
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", mime)
	assert.Equal(t, "<svg></svg>", string(data))

	_, _, err = DecodeDataURI("data:image/png;base64")
	assert.ErrorIs(t, err, ErrMalformedDataURI)
}

type failingTransport struct{ t *testing.T }

func (f failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	f.t.Fatal("unexpected network call")
	return nil, nil
}
