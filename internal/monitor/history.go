package monitor

// history is a bounded, oldest-first rolling buffer of scalar samples. Only
// the sparkline ticker writes it, so eviction-on-append is the only policy it
// needs.
type history struct {
	capacity int
	values   []float64
}

func newHistory(capacity int) *history {
	if capacity <= 0 {
		capacity = DefaultHistoryCap
	}
	return &history{capacity: capacity, values: make([]float64, 0, capacity)}
}

func (h *history) append(v float64) {
	if len(h.values) == h.capacity {
		copy(h.values, h.values[1:])
		h.values = h.values[:h.capacity-1]
	}
	h.values = append(h.values, v)
}

func (h *history) clear() {
	h.values = h.values[:0]
}

func (h *history) snapshot() []float64 {
	out := make([]float64, len(h.values))
	copy(out, h.values)
	return out
}
