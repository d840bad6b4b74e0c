package monitor

// Snapshot is the merged, point-in-time metrics object published to the
// observer panel. It is rebuilt from collector state on every emission cycle;
// no field is written by more than one collector.
//
// Counters are cumulative since the last reset; fps, frame time and input
// latency are point samples, so MaxFrameTimeMs is not pointwise above
// FrameTimeMs. Pointer fields are absent until their signal has been
// observed: DOMElements stays nil until a container is observed, paint
// milestones until the page paints, HeapBytes when the platform exposes no
// memory probe.
type Snapshot struct {
	FPS                 float64 `json:"fps"`
	FrameTimeMs         float64 `json:"frame_time_ms"`
	MaxFrameTimeMs      float64 `json:"max_frame_time_ms"`
	P50FrameTimeMs      float64 `json:"p50_frame_time_ms"`
	P95FrameTimeMs      float64 `json:"p95_frame_time_ms"`
	P99FrameTimeMs      float64 `json:"p99_frame_time_ms"`
	InputLatencyMs      float64 `json:"input_latency_ms"`
	LongTasks           int64   `json:"long_tasks"`
	TotalBlockingTimeMs float64 `json:"total_blocking_time_ms"`
	LongestTaskMs       float64 `json:"longest_task_ms"`
	LayoutShiftScore    float64 `json:"layout_shift_score"`
	ForcedReflows       int64   `json:"forced_reflows"`
	ThrashScore         float64 `json:"thrash_score"`
	StyleMutations      int64   `json:"style_mutations"`
	DOMMutations        int64   `json:"dom_mutations"`

	FirstPaintMs           *float64 `json:"first_paint_ms,omitempty"`
	FirstContentfulPaintMs *float64 `json:"first_contentful_paint_ms,omitempty"`
	HeapBytes              *int64   `json:"heap_bytes,omitempty"`
	DOMElements            *int     `json:"dom_elements,omitempty"`

	ElementTimingsMs map[string]float64 `json:"element_timings_ms,omitempty"`

	// Sparkline histories, oldest first, bounded by the history capacity.
	FPSHistory       []float64 `json:"fps_history"`
	FrameTimeHistory []float64 `json:"frame_time_history"`
}
