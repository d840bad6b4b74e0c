package collector

import (
	"sort"
	"sync"
	"time"
)

// ProfilerMetrics is the accumulated render profile for one component id.
type ProfilerMetrics struct {
	Renders         int64   `json:"renders"`
	LastDurationMs  float64 `json:"last_duration_ms"`
	MeanDurationMs  float64 `json:"mean_duration_ms"`
	TotalDurationMs float64 `json:"total_duration_ms"`
}

// Profiler is the one push-driven collector: the instrumented rendering
// framework calls Report from inside its render commit, so reports arrive
// event-driven rather than on the poll tick. Each report updates the per-id
// profile and is forwarded through the update callback synchronously, before
// Report returns. The callback therefore runs once per render and must be
// fast; it must not trigger another render.
type Profiler struct {
	mu       sync.Mutex
	running  bool
	byID     map[string]*ProfilerMetrics
	onUpdate func(id string, m ProfilerMetrics)
}

// NewProfiler creates an inert profiler collector. onUpdate may be nil.
func NewProfiler(onUpdate func(id string, m ProfilerMetrics)) *Profiler {
	return &Profiler{byID: make(map[string]*ProfilerMetrics), onUpdate: onUpdate}
}

// Start implements Collector.
func (p *Profiler) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = true
}

// Stop implements Collector.
func (p *Profiler) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
}

// Reset implements Collector.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byID = make(map[string]*ProfilerMetrics)
}

// Report records one render of the identified component. Calling it outside
// an active session returns ErrNotRunning: a report hook still wired after
// the session stopped is an integration defect that must surface, not be
// absorbed.
func (p *Profiler) Report(id string, duration time.Duration) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return ErrNotRunning
	}
	m := p.byID[id]
	if m == nil {
		m = &ProfilerMetrics{}
		p.byID[id] = m
	}
	ms := float64(duration) / float64(time.Millisecond)
	m.Renders++
	m.LastDurationMs = ms
	m.TotalDurationMs += ms
	m.MeanDurationMs = m.TotalDurationMs / float64(m.Renders)
	snapshot := *m
	onUpdate := p.onUpdate
	p.mu.Unlock()

	if onUpdate != nil {
		onUpdate(id, snapshot)
	}
	return nil
}

// IDs returns the known component ids in sorted order.
func (p *Profiler) IDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.byID))
	for id := range p.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MetricsFor returns the profile for a component id.
func (p *Profiler) MetricsFor(id string) (ProfilerMetrics, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.byID[id]
	if !ok {
		return ProfilerMetrics{}, false
	}
	return *m, true
}
