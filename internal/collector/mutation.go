package collector

import (
	"sync"

	"github.com/framepulse/framepulse/internal/platform"
)

// MutationStats is the style-mutation collector's share of the snapshot.
type MutationStats struct {
	StyleWrites int64
}

// StyleMutation counts instrumented style writes across the page. Writes to
// ignored attributes (the engine's own highlight marker) are excluded by
// construction rather than by any runtime heuristic.
type StyleMutation struct {
	mu      sync.Mutex
	page    platform.Page
	cancel  platform.CancelFunc
	running bool
	ignore  map[string]struct{}
	writes  int64
}

// NewStyleMutation creates an inert style-mutation collector.
func NewStyleMutation(page platform.Page, ignoredAttrs []string) *StyleMutation {
	ignore := make(map[string]struct{}, len(ignoredAttrs))
	for _, a := range ignoredAttrs {
		ignore[a] = struct{}{}
	}
	return &StyleMutation{page: page, ignore: ignore}
}

// Start implements Collector.
func (s *StyleMutation) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	cancel, err := s.page.Observe(platform.KindStyleWrite, s.onWrite)
	if err != nil {
		return
	}
	s.cancel = cancel
	s.running = true
}

// Stop implements Collector.
func (s *StyleMutation) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.running = false
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Reset implements Collector.
func (s *StyleMutation) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = 0
}

func (s *StyleMutation) onWrite(e platform.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, skip := s.ignore[e.Attribute]; skip {
		return
	}
	s.writes++
}

// Stats returns the current style-mutation metrics.
func (s *StyleMutation) Stats() MutationStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return MutationStats{StyleWrites: s.writes}
}
