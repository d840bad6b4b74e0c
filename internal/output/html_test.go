package output

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestGenerateHTMLReport(t *testing.T) {
	rep := sampleReport()
	rep.Snapshot.FPSHistory = []float64{60, 58, 55, 59}
	rep.Snapshot.FrameTimeHistory = []float64{16.6, 17.2, 18.1, 16.9}
	rep.Budgets = []BudgetOutcome{
		{Budget: "fps >= 30", Actual: 58.2, Pass: true},
		{Budget: "long_tasks < 2", Actual: 3, Pass: false},
	}

	var buf bytes.Buffer
	if err := GenerateHTMLReport(&buf, rep); err != nil {
		t.Fatalf("GenerateHTMLReport() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"<!DOCTYPE html>",
		"checkout-flow",
		"ProductList",
		"fps >= 30",
		`class="fail"`,
		"fps-chart",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in HTML output", want)
		}
	}

	// History series are embedded for the inline charts.
	if !strings.Contains(out, "17.2") {
		t.Error("expected frame-time history embedded in report")
	}
}

func TestGenerateHTMLReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := GenerateHTMLReport(&buf, Report{StoryID: "s", Duration: time.Second}); err != nil {
		t.Fatalf("GenerateHTMLReport() error = %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "Component Renders") {
		t.Error("expected profiler table omitted for empty report")
	}
	if strings.Contains(out, "Budgets (") {
		t.Error("expected budget table omitted for empty report")
	}
}
