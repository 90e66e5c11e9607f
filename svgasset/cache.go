package svgasset

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MaxCacheEntries bounds the number of SVGs a Cache keeps
const MaxCacheEntries = 512

// Entry is the cached state of one SVG in an editor session.
// DerivedMarkup is always Colorize(OriginalMarkup, CurrentColor), sanitized.
type Entry struct {
	OriginalMarkup string
	CurrentColor   string
	DerivedMarkup  string
	Fallback       bool
}

// Cache keeps normalized originals so recoloring never compounds.
// The least recently used entry is dropped once MaxCacheEntries is reached.
type Cache struct {
	resolver *Resolver

	// mu guards the entries themselves, the lru guards its own index
	mu      sync.Mutex
	entries *lru.Cache[string, *Entry]
}

// NewCache creates a session cache backed by resolver
func NewCache(resolver *Resolver) *Cache {
	return NewCacheSize(resolver, MaxCacheEntries)
}

// NewCacheSize creates a cache holding at most size entries
func NewCacheSize(resolver *Resolver, size int) *Cache {
	if size < 1 {
		size = MaxCacheEntries
	}
	entries, _ := lru.New[string, *Entry](size)
	return &Cache{
		resolver: resolver,
		entries:  entries,
	}
}

// Load resolves and normalizes u once, storing it under key.
// A cached key is returned without a new fetch.
func (c *Cache) Load(ctx context.Context, key, u, color string) (Entry, error) {
	c.mu.Lock()
	if e, ok := c.entries.Get(key); ok {
		cached := *e
		c.mu.Unlock()
		if color != "" && color != cached.CurrentColor {
			return c.SetColor(key, color)
		}
		return cached, nil
	}
	c.mu.Unlock()

	res, err := c.resolver.Resolve(ctx, u)
	if err != nil {
		return Entry{}, err
	}
	original, err := Normalize(res.Markup)
	if err != nil {
		return Entry{}, err
	}

	e := &Entry{OriginalMarkup: original, Fallback: res.Fallback}
	if err := derive(e, color); err != nil {
		return Entry{}, err
	}

	c.mu.Lock()
	c.entries.Add(key, e)
	c.mu.Unlock()
	return *e, nil
}

// SetColor recomputes the derived markup of key from its original
func (c *Cache) SetColor(key, color string) (Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries.Get(key)
	if !ok {
		return Entry{}, fmt.Errorf("svg %q is not loaded", key)
	}
	next := *e
	if err := derive(&next, color); err != nil {
		return Entry{}, err
	}
	*e = next
	return next, nil
}

// Get returns a copy of the entry stored under key
func (c *Cache) Get(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries.Get(key)
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Forget drops key, e.g. when the side is cleared
func (c *Cache) Forget(key string) {
	c.entries.Remove(key)
}

// Len reports how many SVGs are cached
func (c *Cache) Len() int {
	return c.entries.Len()
}

func derive(e *Entry, color string) error {
	markup := e.OriginalMarkup
	if color != "" {
		markup = Colorize(markup, color)
	}
	sanitized, err := Sanitize(markup)
	if err != nil {
		return err
	}
	e.CurrentColor = color
	e.DerivedMarkup = sanitized
	return nil
}
