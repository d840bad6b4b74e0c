// Package threshold evaluates performance budgets against a metrics snapshot.
package threshold

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/framepulse/framepulse/internal/monitor"
)

// Budget represents a performance assertion that can pass or fail.
type Budget struct {
	Metric   string  // e.g., "fps", "total_blocking_time"
	Operator string  // e.g., "<", "<=", ">", ">=", "=="
	Value    float64 // The budget value to compare against
	Raw      string  // Original budget string for display
}

// Result represents the outcome of evaluating a budget.
type Result struct {
	Budget  Budget
	Actual  float64
	Pass    bool
	Message string
}

// Evaluator evaluates budgets against a snapshot.
type Evaluator struct {
	budgets []Budget
}

// NewEvaluator creates a new budget evaluator.
func NewEvaluator(budgets []Budget) *Evaluator {
	return &Evaluator{budgets: budgets}
}

// Evaluate checks all budgets against the provided snapshot.
func (e *Evaluator) Evaluate(snap monitor.Snapshot) []Result {
	if len(e.budgets) == 0 {
		return nil
	}

	results := make([]Result, 0, len(e.budgets))
	for _, b := range e.budgets {
		results = append(results, evaluateOne(b, snap))
	}
	return results
}

func evaluateOne(b Budget, snap monitor.Snapshot) Result {
	actual, err := extractMetricValue(b.Metric, snap)
	if err != nil {
		return Result{
			Budget:  b,
			Actual:  0,
			Pass:    false,
			Message: fmt.Sprintf("error: %v", err),
		}
	}

	pass := compareValues(actual, b.Operator, b.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}

	return Result{
		Budget:  b,
		Actual:  actual,
		Pass:    pass,
		Message: fmt.Sprintf("%s %s: %.2f %s %.2f", status, b.Raw, actual, b.Operator, b.Value),
	}
}

// Parse parses a budget string into a Budget struct.
// Supported formats:
//   - "fps >= 30"                     (rolling-window frames per second)
//   - "frame_time < 33"               (latest frame time in ms)
//   - "max_frame_time < 100"          (peak frame time in ms)
//   - "p95_frame_time < 33"           (percentile frame time in ms)
//   - "input_latency < 100"           (input-to-frame delay in ms)
//   - "long_tasks < 5"                (long task count)
//   - "total_blocking_time < 300"     (blocking time in ms)
//   - "layout_shift <= 0.1"           (cumulative layout-shift score)
//   - "thrash_score == 0"             (forced-reflow thrash score)
func Parse(s string) (Budget, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Budget{}, fmt.Errorf("empty budget string")
	}

	// Pattern: metric operator value, e.g., "fps >= 30".
	pattern := regexp.MustCompile(`^([a-z0-9_]+)\s*([<>=!]+)\s*([0-9.]+)$`)
	matches := pattern.FindStringSubmatch(s)
	if matches == nil {
		return Budget{}, fmt.Errorf("invalid budget format: %q (expected format: metric operator value, e.g., 'fps >= 30')", s)
	}

	metric := matches[1]
	operator := matches[2]
	valueStr := matches[3]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Budget{}, fmt.Errorf("invalid budget value %q: %v", valueStr, err)
	}

	if !isValidMetric(metric) {
		return Budget{}, fmt.Errorf("unsupported metric: %q (supported: %s)", metric, strings.Join(validMetrics, ", "))
	}
	if !isValidOperator(operator) {
		return Budget{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Budget{
		Metric:   metric,
		Operator: operator,
		Value:    value,
		Raw:      s,
	}, nil
}

// ParseMultiple parses multiple budget strings.
func ParseMultiple(budgets []string) ([]Budget, error) {
	if len(budgets) == 0 {
		return nil, nil
	}

	result := make([]Budget, 0, len(budgets))
	var errors []string

	for i, s := range budgets {
		b, err := Parse(s)
		if err != nil {
			errors = append(errors, fmt.Sprintf("budget[%d]: %v", i, err))
			continue
		}
		result = append(result, b)
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("budget parsing errors: %s", strings.Join(errors, "; "))
	}

	return result, nil
}

var validMetrics = []string{
	"fps",
	"frame_time",
	"max_frame_time",
	"p50_frame_time",
	"p95_frame_time",
	"p99_frame_time",
	"input_latency",
	"long_tasks",
	"total_blocking_time",
	"longest_task",
	"layout_shift",
	"forced_reflows",
	"thrash_score",
	"style_mutations",
	"dom_mutations",
}

func isValidMetric(metric string) bool {
	for _, v := range validMetrics {
		if metric == v {
			return true
		}
	}
	return false
}

func isValidOperator(operator string) bool {
	for _, v := range []string{"<", "<=", ">", ">=", "=="} {
		if operator == v {
			return true
		}
	}
	return false
}

func extractMetricValue(metric string, snap monitor.Snapshot) (float64, error) {
	switch metric {
	case "fps":
		return snap.FPS, nil
	case "frame_time":
		return snap.FrameTimeMs, nil
	case "max_frame_time":
		return snap.MaxFrameTimeMs, nil
	case "p50_frame_time":
		return snap.P50FrameTimeMs, nil
	case "p95_frame_time":
		return snap.P95FrameTimeMs, nil
	case "p99_frame_time":
		return snap.P99FrameTimeMs, nil
	case "input_latency":
		return snap.InputLatencyMs, nil
	case "long_tasks":
		return float64(snap.LongTasks), nil
	case "total_blocking_time":
		return snap.TotalBlockingTimeMs, nil
	case "longest_task":
		return snap.LongestTaskMs, nil
	case "layout_shift":
		return snap.LayoutShiftScore, nil
	case "forced_reflows":
		return float64(snap.ForcedReflows), nil
	case "thrash_score":
		return snap.ThrashScore, nil
	case "style_mutations":
		return float64(snap.StyleMutations), nil
	case "dom_mutations":
		return float64(snap.DOMMutations), nil
	default:
		return 0, fmt.Errorf("unknown metric: %s", metric)
	}
}

func compareValues(actual float64, operator string, expected float64) bool {
	// Handle floating point comparison with small epsilon
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
