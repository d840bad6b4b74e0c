package collector

import (
	"sync"

	"github.com/framepulse/framepulse/internal/platform"
)

// blockingThresholdMs is the portion of a long task considered acceptable;
// only time beyond it counts toward total blocking time.
const blockingThresholdMs = 50

// LongTaskStats is the long-task collector's share of the snapshot.
type LongTaskStats struct {
	Count               int64
	TotalBlockingTimeMs float64
	LongestMs           float64
}

// LongTask counts qualifying entries from the long-task entry stream and
// accumulates total blocking time as the sum of each task's duration beyond
// the 50ms threshold.
type LongTask struct {
	mu      sync.Mutex
	page    platform.Page
	cancel  platform.CancelFunc
	running bool
	count   int64
	tbt     float64
	longest float64
}

// NewLongTask creates an inert long-task collector.
func NewLongTask(page platform.Page) *LongTask {
	return &LongTask{page: page}
}

// Start implements Collector.
func (l *LongTask) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return
	}
	cancel, err := l.page.Observe(platform.KindLongTask, l.onEntry)
	if err != nil {
		return
	}
	l.cancel = cancel
	l.running = true
}

// Stop implements Collector.
func (l *LongTask) Stop() {
	l.mu.Lock()
	cancel := l.cancel
	l.cancel = nil
	l.running = false
	l.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Reset implements Collector.
func (l *LongTask) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.count = 0
	l.tbt = 0
	l.longest = 0
}

func (l *LongTask) onEntry(e platform.Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.count++
	if e.Duration > blockingThresholdMs {
		l.tbt += e.Duration - blockingThresholdMs
	}
	if e.Duration > l.longest {
		l.longest = e.Duration
	}
}

// Stats returns the current long-task metrics.
func (l *LongTask) Stats() LongTaskStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return LongTaskStats{Count: l.count, TotalBlockingTimeMs: l.tbt, LongestMs: l.longest}
}
