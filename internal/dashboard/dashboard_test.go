package dashboard

import (
	"strings"
	"testing"
	"time"

	"github.com/gizak/termui/v3/widgets"

	"github.com/framepulse/framepulse/internal/collector"
	"github.com/framepulse/framepulse/internal/monitor"
)

// fakeSource satisfies MetricsSource without a live page.
type fakeSource struct {
	snap     monitor.Snapshot
	profiler map[string]collector.ProfilerMetrics
}

func (f *fakeSource) Snapshot() monitor.Snapshot { return f.snap }

func (f *fakeSource) ProfilerIDs() []string {
	ids := make([]string, 0, len(f.profiler))
	for id := range f.profiler {
		ids = append(ids, id)
	}
	return ids
}

func (f *fakeSource) ProfilerMetricsFor(id string) (collector.ProfilerMetrics, bool) {
	m, ok := f.profiler[id]
	return m, ok
}

func TestJoinLines(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		expected string
	}{
		{"empty", []string{}, ""},
		{"single", []string{"line1"}, "line1"},
		{"multiple", []string{"line1", "line2", "line3"}, "line1\nline2\nline3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := joinLines(tt.lines)
			if result != tt.expected {
				t.Errorf("joinLines() = %q, expected %q", result, tt.expected)
			}
		})
	}
}

func TestFormatSignals(t *testing.T) {
	heap := int64(64 * 1024 * 1024)
	elements := 200
	fp := 112.0

	snap := monitor.Snapshot{
		FirstPaintMs: &fp,
		HeapBytes:    &heap,
		DOMElements:  &elements,
	}

	text := formatSignals(snap)
	if !strings.Contains(text, "First Paint:") {
		t.Error("expected first paint line")
	}
	if !strings.Contains(text, "64 MiB") {
		t.Errorf("expected humanized heap size, got %q", text)
	}
	if !strings.Contains(text, "200") {
		t.Error("expected dom element count")
	}

	if got := formatSignals(monitor.Snapshot{}); !strings.Contains(got, "No signal data") {
		t.Errorf("expected placeholder for empty snapshot, got %q", got)
	}
}

func TestUpdateProfilerList(t *testing.T) {
	d := &Dashboard{
		profilerList: widgets.NewList(),
		source: &fakeSource{
			profiler: map[string]collector.ProfilerMetrics{
				"Cart":        {Renders: 3, MeanDurationMs: 2.1},
				"ProductList": {Renders: 12, MeanDurationMs: 5.5},
			},
		},
	}

	d.updateProfilerList()

	if len(d.profilerList.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(d.profilerList.Rows))
	}

	// Sorted by renders desc
	if !strings.Contains(d.profilerList.Rows[0], "ProductList") {
		t.Error("expected ProductList first")
	}
	if !strings.Contains(d.profilerList.Rows[1], "Cart") {
		t.Error("expected Cart second")
	}
	if !strings.Contains(d.profilerList.Rows[0], "renders   12") {
		t.Errorf("expected render count in row, got %q", d.profilerList.Rows[0])
	}
}

func TestUpdateProfilerListEmpty(t *testing.T) {
	d := &Dashboard{
		profilerList: widgets.NewList(),
		source:       &fakeSource{},
	}

	d.updateProfilerList()

	if len(d.profilerList.Rows) != 1 || !strings.Contains(d.profilerList.Rows[0], "No component renders") {
		t.Errorf("expected placeholder row, got %v", d.profilerList.Rows)
	}
}

func TestFormatSessionParams(t *testing.T) {
	tests := []struct {
		name     string
		config   SessionConfig
		contains []string
		excludes []string
	}{
		{
			name: "basic config",
			config: SessionConfig{
				Container:         "#root",
				MetricsInterval:   50 * time.Millisecond,
				SparklineInterval: 500 * time.Millisecond,
				Duration:          30 * time.Second,
			},
			contains: []string{"Container: #root", "Tick: 50ms", "Sample: 500ms", "Duration: 30s"},
			excludes: []string{"Config:"},
		},
		{
			name:     "open-ended run",
			config:   SessionConfig{},
			contains: []string{"Duration: until interrupted"},
		},
		{
			name: "with config file",
			config: SessionConfig{
				ConfigFile: "pulse.yml",
			},
			contains: []string{"Config: pulse.yml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Dashboard{sessionConfig: tt.config}
			result := d.formatSessionParams()

			for _, s := range tt.contains {
				if !strings.Contains(result, s) {
					t.Errorf("expected result to contain %q, got %q", s, result)
				}
			}

			for _, s := range tt.excludes {
				if strings.Contains(result, s) {
					t.Errorf("expected result NOT to contain %q, got %q", s, result)
				}
			}
		})
	}
}
