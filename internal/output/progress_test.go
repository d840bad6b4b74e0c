package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/framepulse/framepulse/internal/monitor"
)

func TestProgressReporterWritesUpdates(t *testing.T) {
	var buf bytes.Buffer
	snap := func() monitor.Snapshot {
		return monitor.Snapshot{FPS: 59.4, FrameTimeMs: 16.8, LongTasks: 1}
	}

	p := NewProgressReporter(snap, 10*time.Millisecond, &buf)
	p.Start()
	time.Sleep(60 * time.Millisecond)
	p.Stop()

	out := buf.String()
	if !strings.Contains(out, "FPS: 59.4") {
		t.Errorf("expected fps in progress line, got %q", out)
	}
	if !strings.Contains(out, "Long Tasks: 1") {
		t.Errorf("expected long tasks in progress line, got %q", out)
	}
}

func TestProgressReporterStopIsIdempotent(t *testing.T) {
	p := NewProgressReporter(func() monitor.Snapshot { return monitor.Snapshot{} }, time.Millisecond, nil)
	p.Start()
	p.Start() // second start is a no-op
	p.Stop()
	p.Stop() // second stop must not panic
}
