// Package transform holds the per-side, per-element placement state of a
// customization session and the gesture adapters that mutate it.
package transform

import (
	"errors"
	"fmt"
	"sync"

	"textile-studio/models"
)

// Property names a single field of a transform
type Property string

const (
	PropertyPosition Property = "position"
	PropertyScale    Property = "scale"
	PropertyRotation Property = "rotation"
)

var (
	ErrUnknownProperty = errors.New("unknown transform property")
	ErrValueType       = errors.New("transform value has the wrong type")
)

type key struct {
	side models.Side
	kind models.ElementKind
}

// SideState is the pair of transforms the renderer reads for one side
type SideState struct {
	Design models.Transform
	Text   models.Transform
}

// Store is a pure state container keyed by (side, element kind).
// It never clamps; sliders and gesture handlers are responsible for ranges.
type Store struct {
	mu    sync.RWMutex
	state map[key]models.Transform
}

// NewStore creates an empty store; unset entries read as the default transform
func NewStore() *Store {
	return &Store{state: make(map[key]models.Transform)}
}

// Update replaces exactly one field of the (side, kind) transform.
// position takes a models.Position, scale and rotation take a float64.
func (s *Store) Update(side models.Side, kind models.ElementKind, prop Property, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{side, kind}
	t, ok := s.state[k]
	if !ok {
		t = models.DefaultTransform()
	}

	switch prop {
	case PropertyPosition:
		p, ok := value.(models.Position)
		if !ok {
			return fmt.Errorf("%w: position expects models.Position, got %T", ErrValueType, value)
		}
		t.Position = p
	case PropertyScale:
		f, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("%w: scale expects a number, got %T", ErrValueType, value)
		}
		t.Scale = f
	case PropertyRotation:
		f, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("%w: rotation expects a number, got %T", ErrValueType, value)
		}
		t.Rotation = f
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProperty, prop)
	}

	s.state[k] = t
	return nil
}

// Set replaces the whole transform of a (side, kind) pair
func (s *Store) Set(side models.Side, kind models.ElementKind, t models.Transform) {
	s.mu.Lock()
	s.state[key{side, kind}] = t
	s.mu.Unlock()
}

// Current returns the transform of a (side, kind) pair
func (s *Store) Current(side models.Side, kind models.ElementKind) models.Transform {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.state[key{side, kind}]; ok {
		return t
	}
	return models.DefaultTransform()
}

// GetCurrent returns both transforms of a side
func (s *Store) GetCurrent(side models.Side) SideState {
	return SideState{
		Design: s.Current(side, models.ElementDesign),
		Text:   s.Current(side, models.ElementText),
	}
}

// Reset drops the state of a (side, kind) pair, e.g. when the side is cleared
func (s *Store) Reset(side models.Side, kind models.ElementKind) {
	s.mu.Lock()
	delete(s.state, key{side, kind})
	s.mu.Unlock()
}

// Load seeds the store from the transforms stored in a record
func (s *Store) Load(rec *models.CustomizationRecord) {
	for _, side := range models.Sides {
		if d := rec.Design(side); d != nil {
			s.Set(side, models.ElementDesign, d.Transform)
		}
		if t := rec.Text(side); t != nil {
			s.Set(side, models.ElementText, t.Transform)
		}
	}
}

// Apply writes the live transforms into every present element of a record
func (s *Store) Apply(rec *models.CustomizationRecord) {
	for _, side := range models.Sides {
		if d := rec.Design(side); d != nil {
			d.Transform = s.Current(side, models.ElementDesign)
		}
		if t := rec.Text(side); t != nil {
			t.Transform = s.Current(side, models.ElementText)
		}
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
