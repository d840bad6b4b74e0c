// Package collector implements the per-signal collectors behind the metrics
// snapshot.
//
// Every collector follows the same lifecycle contract: constructed inert,
// Start attaches it to its platform signal source, Stop detaches, Reset
// zeroes accumulated state without touching attachment. Start and Stop are
// idempotent; repeated calls never double-attach or double-detach.
//
// Collectors are pull-based: each exposes a typed Stats accessor the manager
// reads when assembling a snapshot. Field ownership is disjoint by
// construction since every variant returns its own stats type. The one
// exception is [Profiler], which is pushed into by the instrumented rendering
// framework and forwards each report through a callback immediately.
//
// A platform that does not expose a collector's signal source is a degraded
// environment, not an error: the collector stays detached and reports zero
// values, and the rest of the snapshot is unaffected.
package collector

import "errors"

// ErrNotRunning is returned when a report is pushed into a collector outside
// an active monitoring session. This indicates a wiring defect in the
// integration, not a runtime condition to recover from; callers must not
// swallow it.
var ErrNotRunning = errors.New("collector: not running")

// Collector is the lifecycle contract shared by all variants.
type Collector interface {
	// Start attaches the collector to its signal source. Safe to call
	// repeatedly; a second call without an intervening Stop is a no-op.
	Start()

	// Stop detaches all observers. Idempotent, and safe before Start.
	Stop()

	// Reset zeroes accumulated counters without changing attachment state.
	Reset()
}
