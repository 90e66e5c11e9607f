package capture

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/google/uuid"

	"textile-studio/composition"
	"textile-studio/models"
)

// Target is a mounted mirror a capture can read
type Target struct {
	ID     string
	Side   models.Side
	Tier   Tier
	Mirror *composition.Mirror
}

// Session owns a set of uniquely namespaced render targets. The live cart
// path uses the empty namespace; regeneration uses retro-<orderId>-<itemId>
// so both can run at once without sharing targets.
type Session struct {
	ID        string
	Namespace string

	mu      sync.Mutex
	targets map[string]*Target
}

// NewSession creates an empty session
func NewSession(namespace string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Namespace: namespace,
		targets:   make(map[string]*Target),
	}
}

// RetroNamespace is the namespace of a regeneration session
func RetroNamespace(orderID, itemID string) string {
	if itemID == "" {
		return "retro-" + orderID
	}
	return fmt.Sprintf("retro-%s-%s", orderID, itemID)
}

// TargetID is the namespaced id of the tier's mirror for side
func (s *Session) TargetID(side models.Side, tier Tier) string {
	if s.Namespace == "" {
		return tier.TargetName(side)
	}
	return s.Namespace + "-" + tier.TargetName(side)
}

// Mount registers a mirror, replacing any previous one with the same id
func (s *Session) Mount(side models.Side, tier Tier, mirror *composition.Mirror) *Target {
	t := &Target{ID: s.TargetID(side, tier), Side: side, Tier: tier, Mirror: mirror}
	s.mu.Lock()
	s.targets[t.ID] = t
	s.mu.Unlock()
	return t
}

// MountRecord composes and mounts every side of rec for each tier. Sides
// without content still get a target so callers can check presence;
// a side that fails to compose is left unmounted.
func (s *Session) MountRecord(ctx context.Context, r *composition.Renderer, loader *composition.AssetLoader, rec *models.CustomizationRecord, tiers ...Tier) error {
	var errs []error
	for _, tier := range tiers {
		for _, side := range models.Sides {
			comp, err := r.Compose(ctx, rec, side, tier.Mode(), tier.ScaleFactor())
			if err != nil {
				log.Printf("❌ Session %s: compose %s failed: %v", s.ID, s.TargetID(side, tier), err)
				errs = append(errs, fmt.Errorf("compose %s: %w", s.TargetID(side, tier), err))
				continue
			}
			id := s.TargetID(side, tier)
			s.Mount(side, tier, composition.Mount(ctx, id, comp, loader))
		}
	}
	return errors.Join(errs...)
}

// Lookup returns the target of side for tier
func (s *Session) Lookup(side models.Side, tier Tier) (*Target, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.targets[s.TargetID(side, tier)]
	return t, ok
}

// Has reports whether every id is mounted
func (s *Session) Has(ids ...string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if _, ok := s.targets[id]; !ok {
			return false
		}
	}
	return true
}

// Targets returns the mounted targets sorted by id
func (s *Session) Targets() []*Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Target, 0, len(s.targets))
	for _, t := range s.targets {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Unmount removes one target
func (s *Session) Unmount(id string) {
	s.mu.Lock()
	delete(s.targets, id)
	s.mu.Unlock()
}

// UnmountAll removes every target of the session
func (s *Session) UnmountAll() {
	s.mu.Lock()
	n := len(s.targets)
	s.targets = make(map[string]*Target)
	s.mu.Unlock()
	if n > 0 {
		log.Printf("🧹 Session %s: unmounted %d targets", s.ID, n)
	}
}

// Len is the number of mounted targets
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.targets)
}
