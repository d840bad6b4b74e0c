// Package platform defines the signal surface of an instrumented page.
//
// Collectors never talk to a real browser directly; they attach to a [Page],
// which exposes animation-frame callbacks, performance-entry streams, a memory
// probe, and a DOM document. Production integrations adapt their transport
// (extension bridge, CDP session, embedded runtime) to this interface; tests
// and the demo workload use the in-memory implementation in simpage.
package platform

import "errors"

// ErrUnsupported is returned when the page does not expose a signal source.
// Collectors treat it as a degraded-capability state, not a failure: the
// affected fields stay at their zero values and the rest of the snapshot is
// unaffected.
var ErrUnsupported = errors.New("platform: signal not supported")

// EntryKind identifies one performance-entry stream.
type EntryKind string

const (
	// KindLongTask reports main-thread work units exceeding the long-task
	// threshold. Entry.Duration carries the task duration in ms.
	KindLongTask EntryKind = "longtask"

	// KindLayoutShift reports layout instability. Entry.Value carries the
	// shift score; Entry.HadRecentInput flags user-initiated shifts.
	KindLayoutShift EntryKind = "layout-shift"

	// KindInput reports discrete input events. Entry.Start is the event
	// timestamp; latency is measured against the next frame callback.
	KindInput EntryKind = "input"

	// KindPaint reports paint milestones ("first-paint",
	// "first-contentful-paint") via Entry.Name and Entry.Start.
	KindPaint EntryKind = "paint"

	// KindElementTiming reports element-level render timestamps keyed by
	// Entry.Name.
	KindElementTiming EntryKind = "element-timing"

	// KindStyleWrite reports an instrumented style mutation. Entry.Attribute
	// names the written attribute so self-inflicted writes can be excluded.
	KindStyleWrite EntryKind = "style-write"

	// KindLayoutRead reports an instrumented geometry read (offsetWidth,
	// getBoundingClientRect and friends).
	KindLayoutRead EntryKind = "layout-read"
)

// Entry is one record from a performance-entry stream. Timestamps and
// durations are milliseconds relative to the page's time origin.
type Entry struct {
	Kind           EntryKind
	Name           string
	Start          float64
	Duration       float64
	Value          float64
	Attribute      string
	HadRecentInput bool
}

// CancelFunc detaches an observer. Implementations must be idempotent.
type CancelFunc func()

// Page is the signal surface collectors attach to.
type Page interface {
	// OnFrame registers an animation-frame callback invoked with the frame
	// timestamp in ms. Returns ErrUnsupported if the page has no frame clock.
	OnFrame(fn func(ts float64)) (CancelFunc, error)

	// Observe subscribes to a performance-entry stream. Returns
	// ErrUnsupported for streams the page does not expose.
	Observe(kind EntryKind, fn func(Entry)) (CancelFunc, error)

	// MemoryUsage reports the current JS heap size in bytes. ok is false
	// when the page exposes no memory probe.
	MemoryUsage() (bytes int64, ok bool)

	// Document returns the page's live document.
	Document() Document
}

// Document resolves selectors against the live page.
type Document interface {
	// Query resolves a selector to an element. ok is false when the selector
	// matches nothing or is malformed.
	Query(selector string) (Element, bool)
}

// MutationKind classifies a DOM mutation record.
type MutationKind string

const (
	MutationAttribute MutationKind = "attribute"
	MutationChildList MutationKind = "childlist"
)

// Mutation is one DOM mutation record from an observed subtree.
type Mutation struct {
	Kind      MutationKind
	Attribute string
}

// Element is a handle on a live DOM element.
type Element interface {
	// DescendantCount returns the number of elements in the subtree rooted
	// at this element, the element itself included.
	DescendantCount() int

	// ObserveMutations watches the subtree for mutations. The returned
	// cancel must be idempotent.
	ObserveMutations(fn func(Mutation)) CancelFunc

	// ScrollIntoView scrolls the element into the viewport.
	ScrollIntoView()

	// SetAttribute and RemoveAttribute write element attributes. Writes are
	// visible to mutation observers on enclosing subtrees, including writes
	// made by the monitoring engine itself.
	SetAttribute(name, value string)
	RemoveAttribute(name string)
}
