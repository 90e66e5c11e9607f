package composition

import (
	"context"
	"image"
	"log"
	"sync"
)

// Mirror is a composition mounted for capture: the rendered document and the
// decoded raster assets it references. Settled is closed once every asset has
// either loaded or been replaced by its fallback and the document is final.
type Mirror struct {
	TargetID string

	mu       sync.RWMutex
	comp     *Composition
	document string
	assets   map[string]image.Image
	err      error

	settled chan struct{}
}

// Mount renders comp under targetID and preloads its assets in the background.
// A nil loader skips preloading; the document is still produced.
func Mount(ctx context.Context, targetID string, comp *Composition, loader *AssetLoader) *Mirror {
	m := &Mirror{
		TargetID: targetID,
		assets:   make(map[string]image.Image),
		settled:  make(chan struct{}),
	}
	go m.settle(ctx, cloneComposition(comp), loader)
	return m
}

func (m *Mirror) settle(ctx context.Context, comp *Composition, loader *AssetLoader) {
	defer close(m.settled)

	assets := make(map[string]image.Image)
	if loader != nil && comp != nil {
		if bg := comp.Background; bg != nil && !bg.Placeholder {
			img, err := loader.Load(ctx, bg.URL)
			if err != nil {
				log.Printf("⚠️  Mirror %s: garment photo failed to load, using placeholder: %v", m.TargetID, err)
				bg.Placeholder = true
				bg.URL = ""
			} else {
				assets[bg.URL] = img
			}
		}
		if d := comp.Design; d != nil && d.Kind == ContentImage && d.Src != "" {
			img, err := loader.Load(ctx, d.Src)
			if err != nil {
				log.Printf("⚠️  Mirror %s: design %s failed to preload: %v", m.TargetID, d.DesignID, err)
			} else {
				assets[d.Src] = img
			}
		}
	}

	if err := ctx.Err(); err != nil {
		m.mu.Lock()
		m.err = err
		m.mu.Unlock()
		return
	}

	doc, err := RenderHTML(comp, m.TargetID)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.comp = comp
	m.assets = assets
	if err != nil {
		m.err = err
		return
	}
	m.document = doc
}

// Settled is closed when the mirror has finished loading
func (m *Mirror) Settled() <-chan struct{} {
	return m.settled
}

// Document returns the rendered HTML, empty until settled
func (m *Mirror) Document() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.document
}

// Composition returns the settled composition, with load fallbacks applied
func (m *Mirror) Composition() *Composition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.comp
}

// Asset returns a preloaded image by url
func (m *Mirror) Asset(u string) (image.Image, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	img, ok := m.assets[u]
	return img, ok
}

// Err reports why settling failed, if it did
func (m *Mirror) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

// HasContent reports whether the mirror is ready to be rasterized: a
// document exists, the stage has a size and something is drawn on it
func (m *Mirror) HasContent() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.document == "" || m.comp == nil || m.comp.Size <= 0 {
		return false
	}
	return m.comp.HasLayers() || m.comp.Background != nil
}

func cloneComposition(c *Composition) *Composition {
	if c == nil {
		return nil
	}
	out := *c
	if c.Background != nil {
		bg := *c.Background
		out.Background = &bg
	}
	if c.Design != nil {
		d := *c.Design
		out.Design = &d
	}
	if c.Text != nil {
		t := *c.Text
		if c.Text.Shadow != nil {
			s := *c.Text.Shadow
			t.Shadow = &s
		}
		out.Text = &t
	}
	return &out
}
