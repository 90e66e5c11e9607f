package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"textile-studio/models"
)

var (
	ErrDOMTimeout    = errors.New("mirror did not become ready")
	ErrTargetMissing = errors.New("capture target is not mounted")
)

const (
	DefaultDOMAttempts = 20
	DefaultDOMInterval = 200 * time.Millisecond
)

// Result holds the urls captured for one tier. A missing url means the
// side was empty or its capture failed.
type Result struct {
	FrontURL string `json:"frontUrl,omitempty"`
	BackURL  string `json:"backUrl,omitempty"`
}

// URL returns the url of side
func (r Result) URL(side models.Side) string {
	if side == models.SideBack {
		return r.BackURL
	}
	return r.FrontURL
}

func (r *Result) set(side models.Side, url string) {
	if side == models.SideBack {
		r.BackURL = url
	} else {
		r.FrontURL = url
	}
}

// Empty reports whether nothing was captured
func (r Result) Empty() bool {
	return r.FrontURL == "" && r.BackURL == ""
}

// Results maps a tier name to its result
type Results map[string]Result

// Pipeline drives WAITING_FOR_DOM → RASTERIZING → UPLOADING for every
// non-empty side of every tier. Sides and tiers run concurrently and never
// fail each other.
type Pipeline struct {
	rasterizer Rasterizer
	uploader   Uploader
	observer   Observer

	domAttempts int
	domInterval time.Duration
	now         func() time.Time
}

// PipelineOption configures a Pipeline
type PipelineOption func(*Pipeline)

// WithDOMWait bounds the readiness wait to attempts × interval
func WithDOMWait(attempts int, interval time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if attempts > 0 {
			p.domAttempts = attempts
		}
		if interval > 0 {
			p.domInterval = interval
		}
	}
}

// WithClock replaces time.Now for file names and durations
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

func NewPipeline(r Rasterizer, u Uploader, o Observer, opts ...PipelineOption) *Pipeline {
	if o == nil {
		o = LogObserver{}
	}
	p := &Pipeline{
		rasterizer:  r,
		uploader:    u,
		observer:    o,
		domAttempts: DefaultDOMAttempts,
		domInterval: DefaultDOMInterval,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Capture runs the pipeline for rec against the targets mounted in s.
// extra observers receive this run's events in addition to the pipeline's.
// It never returns an error; failures are reported as events and as
// missing urls.
func (p *Pipeline) Capture(ctx context.Context, s *Session, rec *models.CustomizationRecord, tiers []Tier, extra ...Observer) Results {
	obs := append(Observers{p.observer}, extra...)

	var (
		mu      sync.Mutex
		results = make(Results, len(tiers))
		g       errgroup.Group
	)
	for _, tier := range tiers {
		results[tier.Name] = Result{}
		for _, side := range models.Sides {
			if rec == nil || !rec.HasContent(side) {
				continue
			}
			g.Go(func() error {
				url := p.captureSide(ctx, s, side, tier, obs)
				if url == "" {
					return nil
				}
				mu.Lock()
				r := results[tier.Name]
				r.set(side, url)
				results[tier.Name] = r
				mu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait()
	return results
}

func (p *Pipeline) captureSide(ctx context.Context, s *Session, side models.Side, tier Tier, obs Observer) string {
	started := p.now()
	id := s.TargetID(side, tier)
	emit := func(stage Stage, url string, err error) {
		now := p.now()
		obs.Observe(Event{
			SessionID: s.ID,
			Namespace: s.Namespace,
			Target:    id,
			Side:      side,
			Tier:      tier.Name,
			Stage:     stage,
			Duration:  now.Sub(started),
			URL:       url,
			Err:       err,
			At:        now,
		})
	}

	emit(StageIdle, "", nil)
	target, ok := s.Lookup(side, tier)
	if !ok {
		emit(StageDOMTimeout, "", fmt.Errorf("%w: %s", ErrTargetMissing, id))
		return ""
	}

	emit(StageWaitingForDOM, "", nil)
	if err := p.waitForDOM(ctx, target); err != nil {
		emit(StageDOMTimeout, "", err)
		return ""
	}
	emit(StageDOMReady, "", nil)

	emit(StageRasterizing, "", nil)
	data, err := p.rasterizer.Rasterize(ctx, target)
	if err != nil {
		emit(StageRasterizeError, "", err)
		return ""
	}
	emit(StageRasterized, "", nil)

	emit(StageUploading, "", nil)
	uploadCtx, cancel := context.WithTimeout(ctx, tier.UploadTimeout)
	defer cancel()
	url, err := p.uploader.Upload(uploadCtx, data, tier.Filename(id, p.now()))
	if err == nil && url == "" {
		err = errors.New("upload returned no url")
	}
	if err != nil {
		emit(StageUploadError, "", err)
		return ""
	}
	emit(StageUploaded, url, nil)
	return url
}

// waitForDOM waits for the mirror to settle with something to draw. An
// explicit settle signal ends the wait early; the attempt budget bounds it.
func (p *Pipeline) waitForDOM(ctx context.Context, t *Target) error {
	if t.Mirror == nil {
		return ErrDOMTimeout
	}
	ticker := time.NewTicker(p.domInterval)
	defer ticker.Stop()

	settled := t.Mirror.Settled()
	for attempt := 0; attempt < p.domAttempts; {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-settled:
			if t.Mirror.HasContent() {
				return nil
			}
			// settled without content never changes
			if err := t.Mirror.Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrDOMTimeout, err)
			}
			return ErrDOMTimeout
		case <-ticker.C:
			attempt++
		}
	}
	return fmt.Errorf("%w after %d attempts", ErrDOMTimeout, p.domAttempts)
}
