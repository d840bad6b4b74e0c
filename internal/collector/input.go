package collector

import (
	"sync"

	"github.com/framepulse/framepulse/internal/platform"
)

// InputStats is the input collector's share of the snapshot.
type InputStats struct {
	LatencyMs float64
}

// Input measures the delay between an input event and the next frame
// callback. It attaches to both the input entry stream and the frame clock;
// the most recent resolved delay is the reported latency.
type Input struct {
	mu          sync.Mutex
	page        platform.Page
	cancelEntry platform.CancelFunc
	cancelFrame platform.CancelFunc
	running     bool
	pending     float64
	hasPending  bool
	latency     float64
}

// NewInput creates an inert input collector.
func NewInput(page platform.Page) *Input {
	return &Input{page: page}
}

// Start implements Collector. Either signal source may be unsupported;
// latency stays zero unless both attach.
func (i *Input) Start() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.running {
		return
	}
	cancelEntry, err := i.page.Observe(platform.KindInput, i.onInput)
	if err != nil {
		return
	}
	cancelFrame, err := i.page.OnFrame(i.onFrame)
	if err != nil {
		cancelEntry()
		return
	}
	i.cancelEntry = cancelEntry
	i.cancelFrame = cancelFrame
	i.running = true
}

// Stop implements Collector.
func (i *Input) Stop() {
	i.mu.Lock()
	cancelEntry := i.cancelEntry
	cancelFrame := i.cancelFrame
	i.cancelEntry = nil
	i.cancelFrame = nil
	i.running = false
	i.hasPending = false
	i.mu.Unlock()
	if cancelEntry != nil {
		cancelEntry()
	}
	if cancelFrame != nil {
		cancelFrame()
	}
}

// Reset implements Collector.
func (i *Input) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.latency = 0
	i.hasPending = false
}

func (i *Input) onInput(e platform.Entry) {
	i.mu.Lock()
	defer i.mu.Unlock()
	// A newer input supersedes an unresolved one; latency tracks the latest.
	i.pending = e.Start
	i.hasPending = true
}

func (i *Input) onFrame(ts float64) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.hasPending && ts >= i.pending {
		i.latency = ts - i.pending
		i.hasPending = false
	}
}

// Stats returns the current input metrics.
func (i *Input) Stats() InputStats {
	i.mu.Lock()
	defer i.mu.Unlock()
	return InputStats{LatencyMs: i.latency}
}
