package monitor

import (
	"sync"
	"time"

	"github.com/framepulse/framepulse/internal/collector"
	"github.com/framepulse/framepulse/internal/platform"
)

// DefaultHistoryCap bounds the sparkline histories.
const DefaultHistoryCap = 60

// HighlightAttr is the marker attribute the engine writes when highlighting
// an inspected element. Writes to it are excluded from the style-write
// instrumentation path by construction, so inspection never shows up in the
// metrics it is used to read.
const HighlightAttr = "data-pulse-highlight"

// ProfilerUpdateFunc receives each render-profiler report as it arrives.
// Invoked synchronously from the report path, potentially once per render.
type ProfilerUpdateFunc func(storyID, componentID string, m collector.ProfilerMetrics)

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// HistoryCap bounds the sparkline histories. Zero means DefaultHistoryCap.
	HistoryCap int

	// OnProfilerUpdate is forwarded each render report. May be nil.
	OnProfilerUpdate ProfilerUpdateFunc

	// IgnoredAttributes are excluded from style-write accounting in addition
	// to HighlightAttr.
	IgnoredAttributes []string
}

// Manager owns the full collector set, drives their lifecycle, and merges
// their typed stats into one Snapshot. It also holds the single observed DOM
// container slot used for element counting and mutation tracking.
type Manager struct {
	mu      sync.Mutex
	page    platform.Page
	storyID string
	opts    ManagerOptions

	frames      *collector.Frame
	longTasks   *collector.LongTask
	input       *collector.Input
	shifts      *collector.LayoutShift
	reflow      *collector.Reflow
	paint       *collector.Paint
	memory      *collector.Memory
	styleWrites *collector.StyleMutation
	elements    *collector.ElementTiming
	profiler    *collector.Profiler
	lifecycle   []collector.Collector

	fpsHistory   *history
	frameHistory *history

	containerGen    int
	container       platform.Element
	detachContainer platform.CancelFunc
	domMutations    int64
}

// NewManager creates a manager with the full collector set attached to page.
// Collectors are constructed inert; nothing observes the page until Start.
func NewManager(page platform.Page, opts ManagerOptions) *Manager {
	m := &Manager{
		page:         page,
		opts:         opts,
		fpsHistory:   newHistory(opts.HistoryCap),
		frameHistory: newHistory(opts.HistoryCap),
	}

	ignored := append([]string{HighlightAttr}, opts.IgnoredAttributes...)

	m.frames = collector.NewFrame(page)
	m.longTasks = collector.NewLongTask(page)
	m.input = collector.NewInput(page)
	m.shifts = collector.NewLayoutShift(page)
	m.reflow = collector.NewReflow(page, ignored)
	m.paint = collector.NewPaint(page)
	m.memory = collector.NewMemory(page)
	m.styleWrites = collector.NewStyleMutation(page, ignored)
	m.elements = collector.NewElementTiming(page)
	m.profiler = collector.NewProfiler(m.forwardProfilerUpdate)

	m.lifecycle = []collector.Collector{
		m.frames, m.longTasks, m.input, m.shifts, m.reflow,
		m.paint, m.memory, m.styleWrites, m.elements, m.profiler,
	}
	return m
}

// SetStoryID records the unit under observation; it is stamped onto outgoing
// profiler updates.
func (m *Manager) SetStoryID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storyID = id
}

// StoryID returns the current unit under observation.
func (m *Manager) StoryID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.storyID
}

// Start attaches every collector to its signal source. Collectors are
// independent; no start order is required. Repeated calls are no-ops at the
// collector level.
func (m *Manager) Start() {
	for _, c := range m.lifecycle {
		c.Start()
	}
}

// Stop detaches every collector and releases the observed container, leaving
// the manager restartable.
func (m *Manager) Stop() {
	for _, c := range m.lifecycle {
		c.Stop()
	}
	m.mu.Lock()
	detach := m.detachContainer
	m.mu.Unlock()
	if detach != nil {
		detach()
	}
}

// Reset zeroes every collector and clears the sparkline histories without
// detaching any observer.
func (m *Manager) Reset() {
	for _, c := range m.lifecycle {
		c.Reset()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fpsHistory.clear()
	m.frameHistory.clear()
	m.domMutations = 0
}

// Snapshot merges every collector's current stats into one snapshot. Each
// field comes from exactly one collector; the manager contributes only the
// container-derived fields and the history copies.
func (m *Manager) Snapshot() Snapshot {
	frames := m.frames.Stats()
	longTasks := m.longTasks.Stats()
	input := m.input.Stats()
	shifts := m.shifts.Stats()
	reflow := m.reflow.Stats()
	paint := m.paint.Stats()
	memory := m.memory.Stats()
	styleWrites := m.styleWrites.Stats()
	elements := m.elements.Stats()

	snap := Snapshot{
		FPS:                 frames.FPS,
		FrameTimeMs:         frames.FrameTimeMs,
		MaxFrameTimeMs:      frames.MaxFrameTimeMs,
		P50FrameTimeMs:      frames.P50FrameTimeMs,
		P95FrameTimeMs:      frames.P95FrameTimeMs,
		P99FrameTimeMs:      frames.P99FrameTimeMs,
		InputLatencyMs:      input.LatencyMs,
		LongTasks:           longTasks.Count,
		TotalBlockingTimeMs: longTasks.TotalBlockingTimeMs,
		LongestTaskMs:       longTasks.LongestMs,
		LayoutShiftScore:    shifts.Score,
		ForcedReflows:       reflow.ForcedReflows,
		ThrashScore:         reflow.ThrashScore,
		StyleMutations:      styleWrites.StyleWrites,
		FirstPaintMs:        paint.FirstPaintMs,
		FirstContentfulPaintMs: paint.FirstContentfulPaintMs,
		HeapBytes:           memory.HeapBytes,
		ElementTimingsMs:    elements.RenderTimesMs,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.container != nil {
		count := m.container.DescendantCount()
		snap.DOMElements = &count
	}
	snap.DOMMutations = m.domMutations
	snap.FPSHistory = m.fpsHistory.snapshot()
	snap.FrameTimeHistory = m.frameHistory.snapshot()
	return snap
}

// SampleHistory appends the current fps and frame time to the sparkline
// histories. Called from the sparkline ticker only, so history density stays
// decoupled from the live metrics cadence.
func (m *Manager) SampleHistory() {
	frames := m.frames.Stats()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fpsHistory.append(frames.FPS)
	m.frameHistory.append(frames.FrameTimeMs)
}

// ObserveContainer begins counting elements and tracking mutations inside
// el. At most one container is observed at a time: a previous container is
// detached first. The returned detach function is idempotent and ignores
// stale detaches after a newer container took the slot.
func (m *Manager) ObserveContainer(el platform.Element) platform.CancelFunc {
	m.mu.Lock()
	prevDetach := m.detachContainer
	m.mu.Unlock()
	if prevDetach != nil {
		prevDetach()
	}

	cancelObs := el.ObserveMutations(m.onContainerMutation)

	m.mu.Lock()
	m.containerGen++
	gen := m.containerGen
	m.container = el
	var once sync.Once
	detach := func() {
		once.Do(func() {
			cancelObs()
			m.mu.Lock()
			if m.containerGen == gen {
				m.container = nil
				m.detachContainer = nil
			}
			m.mu.Unlock()
		})
	}
	m.detachContainer = detach
	m.mu.Unlock()
	return detach
}

func (m *Manager) onContainerMutation(mut platform.Mutation) {
	if mut.Kind == platform.MutationAttribute {
		if mut.Attribute == HighlightAttr {
			return
		}
		for _, a := range m.opts.IgnoredAttributes {
			if mut.Attribute == a {
				return
			}
		}
	}
	m.mu.Lock()
	m.domMutations++
	m.mu.Unlock()
}

// Report pushes one render-profiler report into the profiler collector. It
// returns collector.ErrNotRunning outside an active session.
func (m *Manager) Report(componentID string, duration time.Duration) error {
	return m.profiler.Report(componentID, duration)
}

// ProfilerIDs returns the component ids with accumulated profiles.
func (m *Manager) ProfilerIDs() []string {
	return m.profiler.IDs()
}

// ProfilerMetricsFor returns the accumulated profile for one component id.
func (m *Manager) ProfilerMetricsFor(id string) (collector.ProfilerMetrics, bool) {
	return m.profiler.MetricsFor(id)
}

func (m *Manager) forwardProfilerUpdate(id string, metrics collector.ProfilerMetrics) {
	cb := m.opts.OnProfilerUpdate
	if cb == nil {
		return
	}
	cb(m.StoryID(), id, metrics)
}
