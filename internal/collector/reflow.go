package collector

import (
	"sync"

	"github.com/framepulse/framepulse/internal/platform"
)

// Style-write/layout-read interleavings closer than a frame are weighted as
// full thrash; slower ones still force layout but are cheaper.
const (
	reflowWindowMs = 50
	frameBudgetMs  = 16
)

// ReflowStats is the forced-reflow collector's share of the snapshot.
type ReflowStats struct {
	ForcedReflows int64
	ThrashScore   float64
}

// Reflow detects the layout-thrashing pattern: a style write followed by a
// geometry read close enough that the read forces synchronous layout.
//
// Writes carrying an attribute on the ignore list are excluded by
// construction. This is how the engine keeps its own highlight writes out of
// the measurement path: inspection writes go through a dedicated marker
// attribute that is always on the list.
type Reflow struct {
	mu          sync.Mutex
	page        platform.Page
	cancelWrite platform.CancelFunc
	cancelRead  platform.CancelFunc
	running     bool
	ignore      map[string]struct{}
	lastWrite   float64
	hasWrite    bool
	forced      int64
	score       float64
}

// NewReflow creates an inert forced-reflow collector. Writes to any of the
// ignored attributes never arm the detector.
func NewReflow(page platform.Page, ignoredAttrs []string) *Reflow {
	ignore := make(map[string]struct{}, len(ignoredAttrs))
	for _, a := range ignoredAttrs {
		ignore[a] = struct{}{}
	}
	return &Reflow{page: page, ignore: ignore}
}

// Start implements Collector. Both streams must attach; with only one of
// them the pattern cannot be observed.
func (r *Reflow) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	cancelWrite, err := r.page.Observe(platform.KindStyleWrite, r.onWrite)
	if err != nil {
		return
	}
	cancelRead, err := r.page.Observe(platform.KindLayoutRead, r.onRead)
	if err != nil {
		cancelWrite()
		return
	}
	r.cancelWrite = cancelWrite
	r.cancelRead = cancelRead
	r.running = true
}

// Stop implements Collector.
func (r *Reflow) Stop() {
	r.mu.Lock()
	cancelWrite := r.cancelWrite
	cancelRead := r.cancelRead
	r.cancelWrite = nil
	r.cancelRead = nil
	r.running = false
	r.hasWrite = false
	r.mu.Unlock()
	if cancelWrite != nil {
		cancelWrite()
	}
	if cancelRead != nil {
		cancelRead()
	}
}

// Reset implements Collector.
func (r *Reflow) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forced = 0
	r.score = 0
	r.hasWrite = false
}

func (r *Reflow) onWrite(e platform.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, skip := r.ignore[e.Attribute]; skip {
		return
	}
	r.lastWrite = e.Start
	r.hasWrite = true
}

func (r *Reflow) onRead(e platform.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.hasWrite || e.Start < r.lastWrite {
		return
	}
	gap := e.Start - r.lastWrite
	if gap > reflowWindowMs {
		r.hasWrite = false
		return
	}
	r.forced++
	if gap <= frameBudgetMs {
		r.score += 1.0
	} else {
		r.score += 0.5
	}
	// One write pairs with one read; a second read after the same write is
	// served from the already-clean layout.
	r.hasWrite = false
}

// Stats returns the current forced-reflow metrics.
func (r *Reflow) Stats() ReflowStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ReflowStats{ForcedReflows: r.forced, ThrashScore: r.score}
}
