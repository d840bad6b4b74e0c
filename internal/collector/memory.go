package collector

import (
	"sync"

	"github.com/framepulse/framepulse/internal/platform"
)

// MemoryStats is the memory collector's share of the snapshot. HeapBytes is
// nil when the platform exposes no memory probe.
type MemoryStats struct {
	HeapBytes *int64
}

// Memory reads the platform's heap probe on demand. Unlike the entry-stream
// collectors there is nothing to attach; Start only records that the probe is
// available so Stats can distinguish "zero bytes" from "unsupported".
type Memory struct {
	mu      sync.Mutex
	page    platform.Page
	running bool
}

// NewMemory creates an inert memory collector.
func NewMemory(page platform.Page) *Memory {
	return &Memory{page: page}
}

// Start implements Collector.
func (m *Memory) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = true
}

// Stop implements Collector.
func (m *Memory) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
}

// Reset implements Collector. The probe is a point sample; nothing
// accumulates.
func (m *Memory) Reset() {}

// Stats returns the current heap size, or nil when stopped or unsupported.
func (m *Memory) Stats() MemoryStats {
	m.mu.Lock()
	running := m.running
	m.mu.Unlock()
	if !running {
		return MemoryStats{}
	}
	bytes, ok := m.page.MemoryUsage()
	if !ok {
		return MemoryStats{}
	}
	return MemoryStats{HeapBytes: &bytes}
}
