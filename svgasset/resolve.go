package svgasset

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"textile-studio/utils"
)

var (
	// ErrBlobURL marks a session-local blob: reference; it is never fetched
	ErrBlobURL = errors.New("blob url cannot be resolved outside its browser session")
	ErrNotSVG  = errors.New("data uri does not contain svg")
)

const (
	maxSVGBytes         = 5 << 20
	defaultFetchTimeout = 10 * time.Second
	PlaceholderColor    = "#9ca3af"
)

// Source tells where resolved markup came from
type Source string

const (
	SourceDataURI     Source = "data-uri"
	SourceNetwork     Source = "network"
	SourcePlaceholder Source = "placeholder"
)

// Resolved is fetched SVG markup. Fallback is true when the network path
// failed and a placeholder was synthesized; it is a cosmetic degradation,
// not an error.
type Resolved struct {
	Markup   string
	Source   Source
	Fallback bool
}

// Resolver fetches SVG markup for the studio
type Resolver struct {
	client *http.Client
	label  string
}

// NewResolver creates a Resolver. A nil client gets the public-only client:
// urls come from users, so only https hosts on public addresses are fetched.
func NewResolver(client *http.Client) *Resolver {
	if client == nil {
		client = utils.NewPublicClient(defaultFetchTimeout)
	}
	return &Resolver{client: client, label: "SVG"}
}

// Resolve returns the SVG markup behind u.
// base64/utf8 data uris are decoded locally, blob: uris are refused with
// ErrBlobURL, remote urls are fetched twice at most before falling back to
// a placeholder. Markup with no <svg> root is ErrInvalidSVG.
func (r *Resolver) Resolve(ctx context.Context, u string) (Resolved, error) {
	u = strings.TrimSpace(u)

	if IsBlobURL(u) {
		log.Printf("⏭️  SVG resolve: skipping blob url (session-local)")
		return Resolved{}, ErrBlobURL
	}

	if IsDataURI(u) {
		mime, data, err := DecodeDataURI(u)
		if err != nil {
			return Resolved{}, err
		}
		if mime != "image/svg+xml" {
			return Resolved{}, fmt.Errorf("%w: got %s", ErrNotSVG, mime)
		}
		markup := string(data)
		if !HasSVGRoot(markup) {
			return Resolved{}, ErrInvalidSVG
		}
		return Resolved{Markup: markup, Source: SourceDataURI}, nil
	}

	body, err := r.fetch(ctx, u, true)
	if err != nil {
		log.Printf("⚠️  SVG resolve: first attempt failed for %s: %v, retrying without cors mode", u, err)
		body, err = r.fetch(ctx, u, false)
	}
	if err != nil {
		log.Printf("⚠️  SVG resolve: using placeholder for %s: %v", u, err)
		return Resolved{Markup: Placeholder(r.label, PlaceholderColor), Source: SourcePlaceholder, Fallback: true}, nil
	}

	if !HasSVGRoot(body) {
		return Resolved{}, ErrInvalidSVG
	}
	return Resolved{Markup: body, Source: SourceNetwork}, nil
}

func (r *Resolver) fetch(ctx context.Context, u string, corsMode bool) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "image/svg+xml")
	if corsMode {
		req.Header.Set("Sec-Fetch-Mode", "cors")
	} else {
		req.Header.Set("Sec-Fetch-Mode", "no-cors")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch svg: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("svg host returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSVGBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read svg body: %w", err)
	}
	return string(data), nil
}

// Placeholder draws a rounded rectangle with a label. Both shapes are
// painted with fill so the placeholder stays recolorable.
func Placeholder(label, color string) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 200 200" width="200" height="200">`+
		`<rect x="10" y="10" width="180" height="180" rx="24" ry="24" fill="%s" fill-opacity="0.35"/>`+
		`<text x="100" y="108" text-anchor="middle" font-family="sans-serif" font-size="20" fill="%s">%s</text>`+
		`</svg>`, color, color, html.EscapeString(label))
}
