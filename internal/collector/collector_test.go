package collector_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/framepulse/framepulse/internal/collector"
	"github.com/framepulse/framepulse/internal/platform"
	"github.com/framepulse/framepulse/internal/platform/simpage"
)

func TestFrameStatsFromSteadyFrames(t *testing.T) {
	page := simpage.New()
	f := collector.NewFrame(page)
	f.Start()
	defer f.Stop()

	// 1 timestamp to anchor, then 10 deltas of 16ms.
	for i := 0; i < 11; i++ {
		page.EmitFrame(16)
	}

	stats := f.Stats()
	if stats.FrameTimeMs != 16 {
		t.Errorf("expected frame time 16ms, got %g", stats.FrameTimeMs)
	}
	if stats.MaxFrameTimeMs != 16 {
		t.Errorf("expected max frame time 16ms, got %g", stats.MaxFrameTimeMs)
	}
	if math.Abs(stats.FPS-62.5) > 0.5 {
		t.Errorf("expected ~62.5 fps for 16ms frames, got %g", stats.FPS)
	}
}

func TestFrameMaxIsRunningPeak(t *testing.T) {
	page := simpage.New()
	f := collector.NewFrame(page)
	f.Start()
	defer f.Stop()

	page.EmitFrame(16)
	page.EmitFrame(120) // one slow frame
	page.EmitFrame(16)

	stats := f.Stats()
	if stats.MaxFrameTimeMs != 120 {
		t.Errorf("expected running max 120ms, got %g", stats.MaxFrameTimeMs)
	}
	if stats.FrameTimeMs != 16 {
		t.Errorf("expected latest frame time 16ms, got %g", stats.FrameTimeMs)
	}
}

func TestFrameResetZeroesWithoutDetaching(t *testing.T) {
	page := simpage.New()
	f := collector.NewFrame(page)
	f.Start()
	defer f.Stop()

	page.EmitFrame(16)
	page.EmitFrame(50)
	f.Reset()

	stats := f.Stats()
	if stats.MaxFrameTimeMs != 0 || stats.FrameTimeMs != 0 || stats.FPS != 0 {
		t.Errorf("expected zeroed stats after reset, got %+v", stats)
	}

	// Still attached: the next frame produces a delta again.
	page.EmitFrame(20)
	if got := f.Stats().FrameTimeMs; got != 20 {
		t.Errorf("expected 20ms after post-reset frame, got %g", got)
	}
}

func TestFrameStartStopLifecycle(t *testing.T) {
	page := simpage.New()
	f := collector.NewFrame(page)

	// Stop before start must not panic.
	f.Stop()

	f.Start()
	f.Start() // second start must not double-attach
	if got := page.FrameSubscribers(); got != 1 {
		t.Fatalf("expected 1 frame subscriber after double start, got %d", got)
	}

	f.Stop()
	f.Stop() // idempotent
	if got := page.FrameSubscribers(); got != 0 {
		t.Fatalf("expected 0 frame subscribers after stop, got %d", got)
	}
}

func TestFrameUnsupportedDegradesToZero(t *testing.T) {
	page := simpage.New()
	page.DisableFrames()

	f := collector.NewFrame(page)
	f.Start()
	defer f.Stop()

	stats := f.Stats()
	if stats.FPS != 0 || stats.FrameTimeMs != 0 {
		t.Errorf("expected zero stats without a frame clock, got %+v", stats)
	}
}

func TestLongTaskBlockingTime(t *testing.T) {
	page := simpage.New()
	l := collector.NewLongTask(page)
	l.Start()
	defer l.Stop()

	page.Emit(platform.Entry{Kind: platform.KindLongTask, Duration: 80})
	page.Emit(platform.Entry{Kind: platform.KindLongTask, Duration: 50})
	page.Emit(platform.Entry{Kind: platform.KindLongTask, Duration: 230})

	stats := l.Stats()
	if stats.Count != 3 {
		t.Errorf("expected 3 long tasks, got %d", stats.Count)
	}
	// Only time beyond 50ms blocks: 30 + 0 + 180.
	if stats.TotalBlockingTimeMs != 210 {
		t.Errorf("expected 210ms blocking time, got %g", stats.TotalBlockingTimeMs)
	}
	if stats.LongestMs != 230 {
		t.Errorf("expected longest 230ms, got %g", stats.LongestMs)
	}
}

func TestInputLatencyMeasuredToNextFrame(t *testing.T) {
	page := simpage.New()
	in := collector.NewInput(page)
	in.Start()
	defer in.Stop()

	page.EmitFrame(16)
	page.Emit(platform.Entry{Kind: platform.KindInput}) // stamped at current time
	page.EmitFrame(24)                                  // next frame 24ms later

	stats := in.Stats()
	if stats.LatencyMs != 24 {
		t.Errorf("expected 24ms input latency, got %g", stats.LatencyMs)
	}
}

func TestLayoutShiftExcludesUserInitiated(t *testing.T) {
	page := simpage.New()
	ls := collector.NewLayoutShift(page)
	ls.Start()
	defer ls.Stop()

	page.Emit(platform.Entry{Kind: platform.KindLayoutShift, Value: 0.05})
	page.Emit(platform.Entry{Kind: platform.KindLayoutShift, Value: 0.2, HadRecentInput: true})

	// A shift right after an input event is attributed to the user.
	page.Emit(platform.Entry{Kind: platform.KindInput})
	page.EmitFrame(100)
	page.Emit(platform.Entry{Kind: platform.KindLayoutShift, Value: 0.3})

	// Well past the input window it counts again.
	page.EmitFrame(1000)
	page.Emit(platform.Entry{Kind: platform.KindLayoutShift, Value: 0.1})

	got := ls.Stats().Score
	if math.Abs(got-0.15) > 1e-9 {
		t.Errorf("expected score 0.15, got %g", got)
	}
}

func TestReflowDetectsWriteThenRead(t *testing.T) {
	page := simpage.New()
	r := collector.NewReflow(page, nil)
	r.Start()
	defer r.Stop()

	// Write then immediate read: full-weight thrash.
	page.Emit(platform.Entry{Kind: platform.KindStyleWrite, Attribute: "style"})
	page.Emit(platform.Entry{Kind: platform.KindLayoutRead})

	// A second read without an intervening write does not count.
	page.Emit(platform.Entry{Kind: platform.KindLayoutRead})

	// Write, then a read 30ms later: forced but cheaper.
	page.Emit(platform.Entry{Kind: platform.KindStyleWrite, Attribute: "style"})
	page.EmitFrame(30)
	page.Emit(platform.Entry{Kind: platform.KindLayoutRead})

	stats := r.Stats()
	if stats.ForcedReflows != 2 {
		t.Errorf("expected 2 forced reflows, got %d", stats.ForcedReflows)
	}
	if math.Abs(stats.ThrashScore-1.5) > 1e-9 {
		t.Errorf("expected thrash score 1.5, got %g", stats.ThrashScore)
	}
}

func TestReflowIgnoresAllowListedWrites(t *testing.T) {
	page := simpage.New()
	r := collector.NewReflow(page, []string{"data-pulse-highlight"})
	r.Start()
	defer r.Stop()

	page.Emit(platform.Entry{Kind: platform.KindStyleWrite, Attribute: "data-pulse-highlight"})
	page.Emit(platform.Entry{Kind: platform.KindLayoutRead})

	if got := r.Stats().ForcedReflows; got != 0 {
		t.Errorf("expected allow-listed write to be excluded, got %d forced reflows", got)
	}
}

func TestStyleMutationCountsAndExcludes(t *testing.T) {
	page := simpage.New()
	s := collector.NewStyleMutation(page, []string{"data-pulse-highlight"})
	s.Start()
	defer s.Stop()

	page.Emit(platform.Entry{Kind: platform.KindStyleWrite, Attribute: "style"})
	page.Emit(platform.Entry{Kind: platform.KindStyleWrite, Attribute: "class"})
	page.Emit(platform.Entry{Kind: platform.KindStyleWrite, Attribute: "data-pulse-highlight"})

	if got := s.Stats().StyleWrites; got != 2 {
		t.Errorf("expected 2 counted style writes, got %d", got)
	}
}

func TestPaintKeepsFirstOccurrence(t *testing.T) {
	page := simpage.New()
	p := collector.NewPaint(page)
	p.Start()
	defer p.Stop()

	page.Emit(platform.Entry{Kind: platform.KindPaint, Name: "first-paint", Start: 120})
	page.Emit(platform.Entry{Kind: platform.KindPaint, Name: "first-contentful-paint", Start: 180})
	page.Emit(platform.Entry{Kind: platform.KindPaint, Name: "first-paint", Start: 500})

	stats := p.Stats()
	if stats.FirstPaintMs == nil || *stats.FirstPaintMs != 120 {
		t.Errorf("expected first-paint 120, got %v", stats.FirstPaintMs)
	}
	if stats.FirstContentfulPaintMs == nil || *stats.FirstContentfulPaintMs != 180 {
		t.Errorf("expected fcp 180, got %v", stats.FirstContentfulPaintMs)
	}
}

func TestMemoryProbe(t *testing.T) {
	page := simpage.New()
	page.SetMemory(42 << 20)

	m := collector.NewMemory(page)
	if got := m.Stats().HeapBytes; got != nil {
		t.Errorf("expected nil heap bytes before start, got %d", *got)
	}

	m.Start()
	got := m.Stats().HeapBytes
	if got == nil || *got != 42<<20 {
		t.Errorf("expected 42MiB heap, got %v", got)
	}
	m.Stop()
}

func TestMemoryUnsupported(t *testing.T) {
	page := simpage.New()
	page.DisableMemory()

	m := collector.NewMemory(page)
	m.Start()
	defer m.Stop()

	if got := m.Stats().HeapBytes; got != nil {
		t.Errorf("expected nil heap bytes without a probe, got %d", *got)
	}
}

func TestElementTimingTracksLatestPerName(t *testing.T) {
	page := simpage.New()
	e := collector.NewElementTiming(page)
	e.Start()
	defer e.Stop()

	page.Emit(platform.Entry{Kind: platform.KindElementTiming, Name: "hero", Start: 100})
	page.Emit(platform.Entry{Kind: platform.KindElementTiming, Name: "hero", Start: 350})
	page.Emit(platform.Entry{Kind: platform.KindElementTiming, Name: "sidebar", Start: 200})

	stats := e.Stats()
	if stats.RenderTimesMs["hero"] != 350 {
		t.Errorf("expected latest hero timing 350, got %g", stats.RenderTimesMs["hero"])
	}
	if len(stats.RenderTimesMs) != 2 {
		t.Errorf("expected 2 timed elements, got %d", len(stats.RenderTimesMs))
	}
}

func TestProfilerAccumulatesAndForwards(t *testing.T) {
	var updates []collector.ProfilerMetrics
	var ids []string
	p := collector.NewProfiler(func(id string, m collector.ProfilerMetrics) {
		ids = append(ids, id)
		updates = append(updates, m)
	})
	p.Start()
	defer p.Stop()

	if err := p.Report("counter", 4*time.Millisecond); err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if err := p.Report("counter", 8*time.Millisecond); err != nil {
		t.Fatalf("report failed: %v", err)
	}

	m, ok := p.MetricsFor("counter")
	if !ok {
		t.Fatal("expected metrics for counter")
	}
	if m.Renders != 2 {
		t.Errorf("expected 2 renders, got %d", m.Renders)
	}
	if m.LastDurationMs != 8 {
		t.Errorf("expected last duration 8ms, got %g", m.LastDurationMs)
	}
	if m.MeanDurationMs != 6 {
		t.Errorf("expected mean 6ms, got %g", m.MeanDurationMs)
	}

	if len(updates) != 2 || ids[0] != "counter" || ids[1] != "counter" {
		t.Errorf("expected 2 forwarded updates for counter, got %d (%v)", len(updates), ids)
	}
}

func TestProfilerReportOutsideSessionFails(t *testing.T) {
	p := collector.NewProfiler(nil)

	if err := p.Report("counter", time.Millisecond); !errors.Is(err, collector.ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning before start, got %v", err)
	}

	p.Start()
	p.Stop()
	if err := p.Report("counter", time.Millisecond); !errors.Is(err, collector.ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning after stop, got %v", err)
	}
}

func TestEntryCollectorsDoNotLeakSubscriptions(t *testing.T) {
	page := simpage.New()
	cs := []collector.Collector{
		collector.NewFrame(page),
		collector.NewLongTask(page),
		collector.NewInput(page),
		collector.NewLayoutShift(page),
		collector.NewReflow(page, nil),
		collector.NewPaint(page),
		collector.NewStyleMutation(page, nil),
		collector.NewElementTiming(page),
	}

	for cycle := 0; cycle < 5; cycle++ {
		for _, c := range cs {
			c.Start()
		}
		for _, c := range cs {
			c.Stop()
		}
	}

	if got := page.FrameSubscribers(); got != 0 {
		t.Errorf("expected 0 frame subscribers after stop cycles, got %d", got)
	}
	if got := page.EntrySubscribers(); got != 0 {
		t.Errorf("expected 0 entry subscribers after stop cycles, got %d", got)
	}
}
