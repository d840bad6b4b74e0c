// Package simpage provides an in-memory platform.Page used by tests and the
// demo workload. Frames and performance entries are driven explicitly, which
// keeps collector tests deterministic; DOM writes are mirrored onto the
// style-write entry stream the way an instrumented page would report them.
package simpage

import (
	"strings"
	"sync"

	"github.com/framepulse/framepulse/internal/platform"
)

// Page is a simulated page. The zero value is not usable; call New.
type Page struct {
	mu        sync.Mutex
	nextID    int
	frameSubs map[int]func(float64)
	entrySubs map[platform.EntryKind]map[int]func(platform.Entry)
	disabled  map[platform.EntryKind]bool
	framesOff bool
	memBytes  int64
	memOK     bool
	now       float64
	doc       *document
}

// New creates a page with every signal source enabled and an empty document.
func New() *Page {
	p := &Page{
		frameSubs: make(map[int]func(float64)),
		entrySubs: make(map[platform.EntryKind]map[int]func(platform.Entry)),
		disabled:  make(map[platform.EntryKind]bool),
		memOK:     true,
	}
	p.doc = &document{page: p, selectors: make(map[string]*Node)}
	return p
}

// Disable withdraws support for the given entry streams. Must be called
// before collectors attach; later Observe calls return ErrUnsupported.
func (p *Page) Disable(kinds ...platform.EntryKind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, k := range kinds {
		p.disabled[k] = true
	}
}

// DisableFrames withdraws the frame clock.
func (p *Page) DisableFrames() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.framesOff = true
}

// DisableMemory withdraws the memory probe.
func (p *Page) DisableMemory() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.memOK = false
}

// SetMemory sets the reported heap size in bytes.
func (p *Page) SetMemory(bytes int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.memBytes = bytes
}

// OnFrame implements platform.Page.
func (p *Page) OnFrame(fn func(ts float64)) (platform.CancelFunc, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.framesOff {
		return nil, platform.ErrUnsupported
	}
	id := p.nextID
	p.nextID++
	p.frameSubs[id] = fn
	return p.cancelFrame(id), nil
}

func (p *Page) cancelFrame(id int) platform.CancelFunc {
	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.frameSubs, id)
			p.mu.Unlock()
		})
	}
}

// Observe implements platform.Page.
func (p *Page) Observe(kind platform.EntryKind, fn func(platform.Entry)) (platform.CancelFunc, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disabled[kind] {
		return nil, platform.ErrUnsupported
	}
	id := p.nextID
	p.nextID++
	subs := p.entrySubs[kind]
	if subs == nil {
		subs = make(map[int]func(platform.Entry))
		p.entrySubs[kind] = subs
	}
	subs[id] = fn
	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.entrySubs[kind], id)
			p.mu.Unlock()
		})
	}, nil
}

// MemoryUsage implements platform.Page.
func (p *Page) MemoryUsage() (int64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.memBytes, p.memOK
}

// Document implements platform.Page.
func (p *Page) Document() platform.Document {
	return p.doc
}

// Now returns the current simulated timestamp in ms.
func (p *Page) Now() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.now
}

// EmitFrame advances the clock by delta ms and fires frame callbacks with the
// new timestamp.
func (p *Page) EmitFrame(delta float64) {
	p.mu.Lock()
	p.now += delta
	ts := p.now
	fns := make([]func(float64), 0, len(p.frameSubs))
	for _, fn := range p.frameSubs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(ts)
	}
}

// Emit dispatches an entry to subscribers of its kind. Entries with a zero
// Start are stamped with the current simulated time.
func (p *Page) Emit(e platform.Entry) {
	p.mu.Lock()
	if e.Start == 0 {
		e.Start = p.now
	}
	fns := make([]func(platform.Entry), 0, len(p.entrySubs[e.Kind]))
	for _, fn := range p.entrySubs[e.Kind] {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(e)
	}
}

// FrameSubscribers reports the number of live frame callbacks. Used by leak
// assertions in tests.
func (p *Page) FrameSubscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frameSubs)
}

// EntrySubscribers reports the number of live subscriptions across all entry
// streams.
func (p *Page) EntrySubscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, subs := range p.entrySubs {
		n += len(subs)
	}
	return n
}

// NewElement creates a detached element.
func (p *Page) NewElement(tag string) *Node {
	return &Node{page: p, tag: tag, attrs: make(map[string]string), observers: make(map[int]func(platform.Mutation))}
}

// Register makes an element resolvable through Document.Query.
func (p *Page) Register(selector string, n *Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.doc.selectors[selector] = n
}

type document struct {
	page      *Page
	selectors map[string]*Node
}

func (d *document) Query(selector string) (platform.Element, bool) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return nil, false
	}
	d.page.mu.Lock()
	n, ok := d.selectors[selector]
	d.page.mu.Unlock()
	if !ok {
		return nil, false
	}
	return n, true
}

// Node is a simulated DOM element.
type Node struct {
	page      *Page
	tag       string
	parent    *Node
	children  []*Node
	attrs     map[string]string
	observers map[int]func(platform.Mutation)
	scrolls   int
}

// Append adds a child and reports a childlist mutation to observers on the
// enclosing subtrees.
func (n *Node) Append(child *Node) {
	n.page.mu.Lock()
	child.parent = n
	n.children = append(n.children, child)
	n.page.mu.Unlock()
	n.notify(platform.Mutation{Kind: platform.MutationChildList})
}

// DescendantCount implements platform.Element. The count includes the element
// itself, matching how a container's element total is displayed.
func (n *Node) DescendantCount() int {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	return n.countLocked()
}

func (n *Node) countLocked() int {
	total := 1
	for _, c := range n.children {
		total += c.countLocked()
	}
	return total
}

// ObserveMutations implements platform.Element.
func (n *Node) ObserveMutations(fn func(platform.Mutation)) platform.CancelFunc {
	n.page.mu.Lock()
	id := n.page.nextID
	n.page.nextID++
	n.observers[id] = fn
	n.page.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			n.page.mu.Lock()
			delete(n.observers, id)
			n.page.mu.Unlock()
		})
	}
}

// MutationObservers reports live observers on this element. Used by leak
// assertions in tests.
func (n *Node) MutationObservers() int {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	return len(n.observers)
}

// ScrollIntoView implements platform.Element.
func (n *Node) ScrollIntoView() {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	n.scrolls++
}

// Scrolls reports how many times the element was scrolled into view.
func (n *Node) Scrolls() int {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	return n.scrolls
}

// SetAttribute implements platform.Element. The write is reported both as an
// attribute mutation to subtree observers and as a style-write entry, the way
// an instrumented page mirrors DOM writes onto its entry stream.
func (n *Node) SetAttribute(name, value string) {
	n.page.mu.Lock()
	n.attrs[name] = value
	n.page.mu.Unlock()
	n.notify(platform.Mutation{Kind: platform.MutationAttribute, Attribute: name})
	n.page.Emit(platform.Entry{Kind: platform.KindStyleWrite, Attribute: name})
}

// RemoveAttribute implements platform.Element.
func (n *Node) RemoveAttribute(name string) {
	n.page.mu.Lock()
	delete(n.attrs, name)
	n.page.mu.Unlock()
	n.notify(platform.Mutation{Kind: platform.MutationAttribute, Attribute: name})
	n.page.Emit(platform.Entry{Kind: platform.KindStyleWrite, Attribute: name})
}

// Attr returns the current value of an attribute.
func (n *Node) Attr(name string) (string, bool) {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	v, ok := n.attrs[name]
	return v, ok
}

// ReadLayout simulates an instrumented geometry read on the element.
func (n *Node) ReadLayout() {
	n.page.Emit(platform.Entry{Kind: platform.KindLayoutRead})
}

// notify walks from the element to the root, delivering the mutation to every
// observer whose subtree contains it.
func (n *Node) notify(m platform.Mutation) {
	n.page.mu.Lock()
	var fns []func(platform.Mutation)
	for cur := n; cur != nil; cur = cur.parent {
		for _, fn := range cur.observers {
			fns = append(fns, fn)
		}
	}
	n.page.mu.Unlock()
	for _, fn := range fns {
		fn(m)
	}
}
