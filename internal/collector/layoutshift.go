package collector

import (
	"sync"

	"github.com/framepulse/framepulse/internal/platform"
)

// recentInputWindowMs is how long after an input event layout shifts are
// attributed to the user and excluded from the score.
const recentInputWindowMs = 500

// LayoutShiftStats is the layout-shift collector's share of the snapshot.
type LayoutShiftStats struct {
	Score float64
}

// LayoutShift accumulates the cumulative layout-shift score. Shifts flagged
// by the platform as input-driven are excluded, as are shifts landing inside
// a short window after the last observed input event.
type LayoutShift struct {
	mu          sync.Mutex
	page        platform.Page
	cancelShift platform.CancelFunc
	cancelInput platform.CancelFunc
	running     bool
	score       float64
	lastInput   float64
	sawInput    bool
}

// NewLayoutShift creates an inert layout-shift collector.
func NewLayoutShift(page platform.Page) *LayoutShift {
	return &LayoutShift{page: page}
}

// Start implements Collector. The input stream is optional; without it only
// the platform's had-recent-input flag excludes user shifts.
func (l *LayoutShift) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return
	}
	cancelShift, err := l.page.Observe(platform.KindLayoutShift, l.onShift)
	if err != nil {
		return
	}
	l.cancelShift = cancelShift
	if cancelInput, err := l.page.Observe(platform.KindInput, l.onInput); err == nil {
		l.cancelInput = cancelInput
	}
	l.running = true
}

// Stop implements Collector.
func (l *LayoutShift) Stop() {
	l.mu.Lock()
	cancelShift := l.cancelShift
	cancelInput := l.cancelInput
	l.cancelShift = nil
	l.cancelInput = nil
	l.running = false
	l.sawInput = false
	l.mu.Unlock()
	if cancelShift != nil {
		cancelShift()
	}
	if cancelInput != nil {
		cancelInput()
	}
}

// Reset implements Collector.
func (l *LayoutShift) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.score = 0
}

func (l *LayoutShift) onInput(e platform.Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastInput = e.Start
	l.sawInput = true
}

func (l *LayoutShift) onShift(e platform.Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e.HadRecentInput {
		return
	}
	if l.sawInput && e.Start >= l.lastInput && e.Start-l.lastInput < recentInputWindowMs {
		return
	}
	l.score += e.Value
}

// Stats returns the current layout-shift metrics.
func (l *LayoutShift) Stats() LayoutShiftStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return LayoutShiftStats{Score: l.score}
}
