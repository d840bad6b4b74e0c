package collector

import (
	"sync"

	"github.com/framepulse/framepulse/internal/platform"
)

// maxTimedElements bounds the per-element timing table; entries for new names
// beyond the cap are dropped so a page with unbounded identifiers cannot grow
// the snapshot without limit.
const maxTimedElements = 50

// ElementTimingStats is the element-timing collector's share of the snapshot:
// the latest render timestamp per identified element.
type ElementTimingStats struct {
	RenderTimesMs map[string]float64
}

// ElementTiming tracks element-level render timestamps from the
// element-timing entry stream.
type ElementTiming struct {
	mu      sync.Mutex
	page    platform.Page
	cancel  platform.CancelFunc
	running bool
	times   map[string]float64
}

// NewElementTiming creates an inert element-timing collector.
func NewElementTiming(page platform.Page) *ElementTiming {
	return &ElementTiming{page: page, times: make(map[string]float64)}
}

// Start implements Collector.
func (e *ElementTiming) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	cancel, err := e.page.Observe(platform.KindElementTiming, e.onEntry)
	if err != nil {
		return
	}
	e.cancel = cancel
	e.running = true
}

// Stop implements Collector.
func (e *ElementTiming) Stop() {
	e.mu.Lock()
	cancel := e.cancel
	e.cancel = nil
	e.running = false
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Reset implements Collector.
func (e *ElementTiming) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.times = make(map[string]float64)
}

func (e *ElementTiming) onEntry(entry platform.Entry) {
	if entry.Name == "" {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, known := e.times[entry.Name]; !known && len(e.times) >= maxTimedElements {
		return
	}
	e.times[entry.Name] = entry.Start
}

// Stats returns a copy of the current per-element render times, or an empty
// map value when nothing has been observed.
func (e *ElementTiming) Stats() ElementTimingStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.times) == 0 {
		return ElementTimingStats{}
	}
	out := make(map[string]float64, len(e.times))
	for k, v := range e.times {
		out[k] = v
	}
	return ElementTimingStats{RenderTimesMs: out}
}
