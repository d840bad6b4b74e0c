package output

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"

	"github.com/framepulse/framepulse/internal/collector"
	"github.com/framepulse/framepulse/internal/monitor"
	"github.com/framepulse/framepulse/internal/threshold"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Report bundles everything a finished session has to say.
type Report struct {
	Session  string                               `json:"session,omitempty"`
	StoryID  string                               `json:"story_id"`
	Duration time.Duration                        `json:"duration_ns"`
	Snapshot monitor.Snapshot                     `json:"snapshot"`
	Profiler map[string]collector.ProfilerMetrics `json:"profiler,omitempty"`
	Budgets  []BudgetOutcome                      `json:"budgets,omitempty"`
}

// BudgetOutcome is the JSON-friendly form of a budget evaluation.
type BudgetOutcome struct {
	Budget string  `json:"budget"`
	Actual float64 `json:"actual"`
	Pass   bool    `json:"pass"`
}

// BudgetOutcomes converts evaluation results for embedding in a Report.
func BudgetOutcomes(results []threshold.Result) []BudgetOutcome {
	if len(results) == 0 {
		return nil
	}
	outcomes := make([]BudgetOutcome, len(results))
	for i, r := range results {
		outcomes[i] = BudgetOutcome{Budget: r.Budget.Raw, Actual: r.Actual, Pass: r.Pass}
	}
	return outcomes
}

// BudgetsPassed reports whether every budget in the report passed.
func (r Report) BudgetsPassed() bool {
	for _, b := range r.Budgets {
		if !b.Pass {
			return false
		}
	}
	return true
}

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, rep Report) {
	snap := rep.Snapshot

	fmt.Fprintln(w, "\n--- Frame Telemetry Report ---")
	if rep.Session != "" {
		fmt.Fprintf(w, "Session:           %s\n", rep.Session)
	}
	if rep.StoryID != "" {
		fmt.Fprintf(w, "Story:             %s\n", rep.StoryID)
	}
	fmt.Fprintf(w, "Observed:          %s\n", rep.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "FPS:               %.1f\n", snap.FPS)
	fmt.Fprintf(w, "Frame Time:        %.1f ms (max %.1f ms)\n", snap.FrameTimeMs, snap.MaxFrameTimeMs)
	fmt.Fprintf(w, "  P50:             %.1f ms\n", snap.P50FrameTimeMs)
	fmt.Fprintf(w, "  P95:             %.1f ms\n", snap.P95FrameTimeMs)
	fmt.Fprintf(w, "  P99:             %.1f ms\n", snap.P99FrameTimeMs)
	fmt.Fprintf(w, "Input Latency:     %.1f ms\n", snap.InputLatencyMs)
	fmt.Fprintf(w, "Long Tasks:        %d (blocking %.1f ms, longest %.1f ms)\n",
		snap.LongTasks, snap.TotalBlockingTimeMs, snap.LongestTaskMs)
	fmt.Fprintf(w, "Layout Shift:      %.4f\n", snap.LayoutShiftScore)
	fmt.Fprintf(w, "Forced Reflows:    %d (thrash score %.1f)\n", snap.ForcedReflows, snap.ThrashScore)
	fmt.Fprintf(w, "Style Mutations:   %d\n", snap.StyleMutations)
	fmt.Fprintf(w, "DOM Mutations:     %d\n", snap.DOMMutations)

	if snap.FirstPaintMs != nil {
		fmt.Fprintf(w, "First Paint:       %.1f ms\n", *snap.FirstPaintMs)
	}
	if snap.FirstContentfulPaintMs != nil {
		fmt.Fprintf(w, "First Contentful:  %.1f ms\n", *snap.FirstContentfulPaintMs)
	}
	if snap.HeapBytes != nil {
		fmt.Fprintf(w, "JS Heap:           %s\n", humanize.IBytes(uint64(*snap.HeapBytes)))
	}
	if snap.DOMElements != nil {
		fmt.Fprintf(w, "DOM Elements:      %d\n", *snap.DOMElements)
	}

	if len(snap.ElementTimingsMs) > 0 {
		fmt.Fprintln(w, "\nElement Timings:")
		names := make([]string, 0, len(snap.ElementTimingsMs))
		for name := range snap.ElementTimingsMs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  - %s: %.1f ms\n", name, snap.ElementTimingsMs[name])
		}
	}

	if len(rep.Profiler) > 0 {
		fmt.Fprintln(w, "\nComponent Renders:")
		ids := make([]string, 0, len(rep.Profiler))
		for id := range rep.Profiler {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			a, b := rep.Profiler[ids[i]], rep.Profiler[ids[j]]
			if a.Renders != b.Renders {
				return a.Renders > b.Renders
			}
			return ids[i] < ids[j]
		})
		for _, id := range ids {
			m := rep.Profiler[id]
			fmt.Fprintf(w, "  - %s: renders=%d, last=%.1fms, mean=%.1fms, total=%.1fms\n",
				id, m.Renders, m.LastDurationMs, m.MeanDurationMs, m.TotalDurationMs)
		}
	}

	if len(rep.Budgets) > 0 {
		fmt.Fprintln(w, "\nBudgets:")
		failed := 0
		for _, b := range rep.Budgets {
			status := "PASS"
			if !b.Pass {
				status = "FAIL"
				failed++
			}
			fmt.Fprintf(w, "  [%s] %s (actual %.2f)\n", status, b.Budget, b.Actual)
		}
		if failed > 0 {
			fmt.Fprintf(w, "\n%d of %d budgets failed\n", failed, len(rep.Budgets))
		} else {
			fmt.Fprintf(w, "\nAll %d budgets passed\n", len(rep.Budgets))
		}
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, rep Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
