package threshold

import (
	"testing"

	"github.com/framepulse/framepulse/internal/monitor"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      Budget
		wantError bool
	}{
		{
			name:  "valid fps floor",
			input: "fps >= 30",
			want: Budget{
				Metric:   "fps",
				Operator: ">=",
				Value:    30,
				Raw:      "fps >= 30",
			},
		},
		{
			name:  "valid blocking time ceiling",
			input: "total_blocking_time < 300",
			want: Budget{
				Metric:   "total_blocking_time",
				Operator: "<",
				Value:    300,
				Raw:      "total_blocking_time < 300",
			},
		},
		{
			name:  "valid layout shift with decimal",
			input: "layout_shift <= 0.1",
			want: Budget{
				Metric:   "layout_shift",
				Operator: "<=",
				Value:    0.1,
				Raw:      "layout_shift <= 0.1",
			},
		},
		{
			name:  "compact spacing",
			input: "thrash_score==0",
			want: Budget{
				Metric:   "thrash_score",
				Operator: "==",
				Value:    0,
				Raw:      "thrash_score==0",
			},
		},
		{
			name:      "empty string",
			input:     "",
			wantError: true,
		},
		{
			name:      "unknown metric",
			input:     "latency < 10",
			wantError: true,
		},
		{
			name:      "unsupported operator",
			input:     "fps != 30",
			wantError: true,
		},
		{
			name:      "missing value",
			input:     "fps >=",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantError {
				if err == nil {
					t.Fatalf("expected error for %q, got %+v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestParseMultipleCollectsErrors(t *testing.T) {
	_, err := ParseMultiple([]string{"fps >= 30", "bogus", "also bogus"})
	if err == nil {
		t.Fatal("expected aggregated parse error")
	}

	budgets, err := ParseMultiple([]string{"fps >= 30", "long_tasks < 5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(budgets) != 2 {
		t.Fatalf("expected 2 budgets, got %d", len(budgets))
	}

	if budgets, err := ParseMultiple(nil); err != nil || budgets != nil {
		t.Errorf("expected nil result for empty input, got %v / %v", budgets, err)
	}
}

func TestEvaluate(t *testing.T) {
	snap := monitor.Snapshot{
		FPS:                 58,
		FrameTimeMs:         17,
		MaxFrameTimeMs:      140,
		InputLatencyMs:      45,
		LongTasks:           2,
		TotalBlockingTimeMs: 180,
		LayoutShiftScore:    0.25,
	}

	budgets, err := ParseMultiple([]string{
		"fps >= 30",
		"max_frame_time < 100",
		"layout_shift <= 0.1",
		"long_tasks < 5",
	})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	results := NewEvaluator(budgets).Evaluate(snap)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}

	wantPass := []bool{true, false, false, true}
	for i, r := range results {
		if r.Pass != wantPass[i] {
			t.Errorf("budget %q: expected pass=%v, got %v (actual %.2f)",
				r.Budget.Raw, wantPass[i], r.Pass, r.Actual)
		}
	}
}

func TestEvaluateEmpty(t *testing.T) {
	if got := NewEvaluator(nil).Evaluate(monitor.Snapshot{}); got != nil {
		t.Errorf("expected nil results for no budgets, got %v", got)
	}
}
