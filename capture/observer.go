package capture

import (
	"log"
	"sync"
	"time"

	"textile-studio/models"
)

// Event is one stage transition of a capture
type Event struct {
	SessionID string
	Namespace string
	Target    string
	Side      models.Side
	Tier      string
	Stage     Stage
	Duration  time.Duration // since the capture of this target started
	URL       string
	Err       error
	At        time.Time
}

// Observer receives capture events. Implementations must be safe for
// concurrent use; sides and tiers report from their own goroutines.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// Observers fans an event out to several observers
type Observers []Observer

func (o Observers) Observe(e Event) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(e)
		}
	}
}

// LogObserver writes terminal and failure events to the standard logger
type LogObserver struct {
	Verbose bool // also log intermediate stages
}

func (l LogObserver) Observe(e Event) {
	switch {
	case e.Stage == StageUploaded:
		log.Printf("✅ Capture %s [%s/%s]: uploaded in %s -> %s", e.Target, e.Tier, e.Side, e.Duration.Round(time.Millisecond), e.URL)
	case e.Stage.Failed():
		log.Printf("❌ Capture %s [%s/%s]: %s after %s: %v", e.Target, e.Tier, e.Side, e.Stage, e.Duration.Round(time.Millisecond), e.Err)
	case l.Verbose:
		log.Printf("📸 Capture %s [%s/%s]: %s", e.Target, e.Tier, e.Side, e.Stage)
	}
}

// Tally counts terminal outcomes; the batch regeneration report is built from it
type Tally struct {
	mu       sync.Mutex
	uploaded int
	failed   map[Stage]int
}

func NewTally() *Tally {
	return &Tally{failed: make(map[Stage]int)}
}

func (t *Tally) Observe(e Event) {
	if !e.Stage.Terminal() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if e.Stage == StageUploaded {
		t.uploaded++
		return
	}
	t.failed[e.Stage]++
}

// Uploaded is the number of successful uploads
func (t *Tally) Uploaded() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.uploaded
}

// Failed is the number of captures that ended in any failure stage
func (t *Tally) Failed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, c := range t.failed {
		n += c
	}
	return n
}

// FailedAt is the number of captures that ended at stage
func (t *Tally) FailedAt(stage Stage) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failed[stage]
}
