package monitor

import "sync"

// Registry is a single-slot holder for the active core. Only one observation
// target is meaningful at a time in the hosting environment; installing a new
// core stops the displaced one first, so two sessions never double-subscribe
// to the same channel or double-count platform events.
//
// The registry is an explicit object owned by the integration layer, not a
// package-level global; the one-active-session rule lives in SetActive.
type Registry struct {
	mu     sync.Mutex
	active *Core
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// SetActive installs core as the active session, stopping the previously
// active core first. Passing nil clears the slot. Installing the already
// active core is a no-op. The registry never owns the core; ownership stays
// with the caller that constructed it.
func (r *Registry) SetActive(core *Core) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == core {
		return
	}
	if r.active != nil {
		r.active.Stop()
	}
	r.active = core
}

// Active returns the currently active core, or nil.
func (r *Registry) Active() *Core {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}
