package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/framepulse/framepulse/internal/monitor"
)

// SnapshotFunc supplies the current metrics for a progress line.
type SnapshotFunc func() monitor.Snapshot

// ProgressReporter displays real-time progress updates.
type ProgressReporter struct {
	snapshot SnapshotFunc
	ticker   *time.Ticker
	done     chan struct{}
	finished chan struct{}
	writer   io.Writer
	active   int32
}

// NewProgressReporter creates a progress reporter that updates at the given interval.
func NewProgressReporter(snapshot SnapshotFunc, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		snapshot: snapshot,
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		writer:   writer,
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			snap := p.snapshot()
			line := fmt.Sprintf("\rFPS: %.1f | Frame: %.1fms | Long Tasks: %d | TBT: %.0fms | CLS: %.3f | Reflows: %d",
				snap.FPS, snap.FrameTimeMs, snap.LongTasks, snap.TotalBlockingTimeMs,
				snap.LayoutShiftScore, snap.ForcedReflows)
			if snap.DOMElements != nil {
				line += fmt.Sprintf(" | DOM: %d", *snap.DOMElements)
			}
			fmt.Fprint(p.writer, line)
		case <-p.done:
			return
		}
	}
}
