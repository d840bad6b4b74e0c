package collector

import (
	"sync"

	"github.com/framepulse/framepulse/internal/platform"
)

// PaintStats is the paint collector's share of the snapshot. Fields are nil
// until the corresponding milestone has been observed.
type PaintStats struct {
	FirstPaintMs           *float64
	FirstContentfulPaintMs *float64
}

// Paint records paint milestone timestamps from the paint entry stream. Only
// the first occurrence of each milestone is kept; Reset forgets both.
type Paint struct {
	mu      sync.Mutex
	page    platform.Page
	cancel  platform.CancelFunc
	running bool
	fp      *float64
	fcp     *float64
}

// NewPaint creates an inert paint collector.
func NewPaint(page platform.Page) *Paint {
	return &Paint{page: page}
}

// Start implements Collector.
func (p *Paint) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	cancel, err := p.page.Observe(platform.KindPaint, p.onEntry)
	if err != nil {
		return
	}
	p.cancel = cancel
	p.running = true
}

// Stop implements Collector.
func (p *Paint) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.running = false
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Reset implements Collector.
func (p *Paint) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fp = nil
	p.fcp = nil
}

func (p *Paint) onEntry(e platform.Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ts := e.Start
	switch e.Name {
	case "first-paint":
		if p.fp == nil {
			p.fp = &ts
		}
	case "first-contentful-paint":
		if p.fcp == nil {
			p.fcp = &ts
		}
	}
}

// Stats returns the current paint metrics.
func (p *Paint) Stats() PaintStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	stats := PaintStats{}
	if p.fp != nil {
		v := *p.fp
		stats.FirstPaintMs = &v
	}
	if p.fcp != nil {
		v := *p.fcp
		stats.FirstContentfulPaintMs = &v
	}
	return stats
}
