package collector

import (
	"sync"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/framepulse/framepulse/internal/platform"
)

// fpsWindow is the number of recent frame deltas averaged into the fps value.
const fpsWindow = 20

// FrameStats is the frame collector's share of the snapshot.
type FrameStats struct {
	FPS            float64
	FrameTimeMs    float64
	MaxFrameTimeMs float64
	P50FrameTimeMs float64
	P95FrameTimeMs float64
	P99FrameTimeMs float64
}

// Frame samples consecutive animation-frame timestamps. The most recent
// delta is the instantaneous frame time; fps is derived from the mean delta
// over a short rolling window; the running max survives until Reset. Deltas
// also feed an HDR histogram for percentile frame times.
type Frame struct {
	mu       sync.Mutex
	page     platform.Page
	cancel   platform.CancelFunc
	running  bool
	lastTS   float64
	window   []float64
	last     float64
	max      float64
	hist     *hdrhistogram.Histogram
}

// NewFrame creates an inert frame collector.
func NewFrame(page platform.Page) *Frame {
	// Track frame deltas from 1µs up to 10s with 3 significant figures.
	return &Frame{
		page:   page,
		window: make([]float64, 0, fpsWindow),
		hist:   hdrhistogram.New(1, 10_000_000, 3),
	}
}

// Start implements Collector.
func (f *Frame) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return
	}
	cancel, err := f.page.OnFrame(f.onFrame)
	if err != nil {
		// No frame clock in this environment; stay detached and report zeros.
		return
	}
	f.cancel = cancel
	f.running = true
}

// Stop implements Collector.
func (f *Frame) Stop() {
	f.mu.Lock()
	cancel := f.cancel
	f.cancel = nil
	f.running = false
	f.lastTS = 0
	f.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Reset implements Collector.
func (f *Frame) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.window = f.window[:0]
	f.last = 0
	f.max = 0
	f.hist.Reset()
}

func (f *Frame) onFrame(ts float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lastTS > 0 && ts > f.lastTS {
		delta := ts - f.lastTS
		f.last = delta
		if delta > f.max {
			f.max = delta
		}
		if len(f.window) == fpsWindow {
			copy(f.window, f.window[1:])
			f.window = f.window[:fpsWindow-1]
		}
		f.window = append(f.window, delta)

		us := int64(delta * 1000)
		if us < f.hist.LowestTrackableValue() {
			us = f.hist.LowestTrackableValue()
		}
		if us > f.hist.HighestTrackableValue() {
			us = f.hist.HighestTrackableValue()
		}
		_ = f.hist.RecordValue(us)
	}
	f.lastTS = ts
}

// Stats returns the current frame metrics.
func (f *Frame) Stats() FrameStats {
	f.mu.Lock()
	defer f.mu.Unlock()

	stats := FrameStats{
		FrameTimeMs:    f.last,
		MaxFrameTimeMs: f.max,
	}
	if len(f.window) > 0 {
		sum := 0.0
		for _, d := range f.window {
			sum += d
		}
		mean := sum / float64(len(f.window))
		if mean > 0 {
			stats.FPS = 1000 / mean
		}
	}
	if f.hist.TotalCount() > 0 {
		stats.P50FrameTimeMs = float64(f.hist.ValueAtQuantile(50)) / 1000
		stats.P95FrameTimeMs = float64(f.hist.ValueAtQuantile(95)) / 1000
		stats.P99FrameTimeMs = float64(f.hist.ValueAtQuantile(99)) / 1000
	}
	return stats
}
