package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/framepulse/framepulse/internal/bus"
	"github.com/framepulse/framepulse/internal/collector"
	"github.com/framepulse/framepulse/internal/platform"
)

// Channel protocol event names. Inbound events carry control requests from
// the observer panel; outbound events carry metric publications.
const (
	EventRequestMetrics = "request-metrics"
	EventReset          = "reset"
	EventInspectElement = "inspect-element"
	EventMetricsUpdate  = "metrics-update"
	EventProfilerUpdate = "profiler-update"
)

// UnknownSelector is the sentinel an inspect-element request carries when the
// panel has no concrete target; it is a silent no-op.
const UnknownSelector = "unknown"

// Default tick intervals. Metrics emission runs fast enough for a live
// readout; sparkline sampling runs slower so history covers a longer window
// at the same capacity.
const (
	DefaultMetricsInterval   = 50 * time.Millisecond
	DefaultSparklineInterval = 500 * time.Millisecond
)

// highlightDuration bounds how long an inspected element stays marked.
const highlightDuration = 1500 * time.Millisecond

// ErrAlreadyRunning is returned by Core.Start when the core is running.
// Double-start without an intervening Stop would double-subscribe the control
// handlers and double-count every platform event.
var ErrAlreadyRunning = errors.New("monitor: core already running")

// ProfilerUpdate is the payload of a profiler-update event.
type ProfilerUpdate struct {
	ID      string                    `json:"id"`
	Metrics collector.ProfilerMetrics `json:"metrics"`
	StoryID string                    `json:"story_id"`
}

// CoreOptions configures a Core.
type CoreOptions struct {
	MetricsInterval   time.Duration
	SparklineInterval time.Duration
	HistoryCap        int
	IgnoredAttributes []string

	// Tracer, when set, wraps each emission cycle and control handler in a
	// span. Nil disables tracing.
	Tracer trace.Tracer
}

// Core binds a Manager to the control channel. It owns two tickers (metrics
// emission and sparkline sampling), translates inbound control events into
// manager operations, and publishes metrics-update and profiler-update
// events outward.
//
// Lifecycle: idle after construction, running after Start, idle again after
// Stop. Stop is idempotent and tears down tickers, subscriptions, the
// highlight timer, and the manager even if the session is mid-emission.
type Core struct {
	mu      sync.Mutex
	channel *bus.Bus
	page    platform.Page
	manager *Manager
	opts    CoreOptions

	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	subs    []*bus.Subscription

	highlightTimer *time.Timer
	highlighted    platform.Element

	detachContainer platform.CancelFunc
}

// NewCore creates an idle core monitoring storyID. The manager and its
// collectors are constructed here; profiler reports flow out as
// profiler-update events as they arrive.
func NewCore(page platform.Page, channel *bus.Bus, storyID string, opts CoreOptions) *Core {
	if opts.MetricsInterval <= 0 {
		opts.MetricsInterval = DefaultMetricsInterval
	}
	if opts.SparklineInterval <= 0 {
		opts.SparklineInterval = DefaultSparklineInterval
	}
	c := &Core{channel: channel, page: page, opts: opts}
	c.manager = NewManager(page, ManagerOptions{
		HistoryCap:        opts.HistoryCap,
		IgnoredAttributes: opts.IgnoredAttributes,
		OnProfilerUpdate: func(storyID, componentID string, m collector.ProfilerMetrics) {
			channel.Emit(EventProfilerUpdate, ProfilerUpdate{ID: componentID, Metrics: m, StoryID: storyID})
		},
	})
	c.manager.SetStoryID(storyID)
	return c
}

// StoryID returns the unit under observation.
func (c *Core) StoryID() string {
	return c.manager.StoryID()
}

// Manager exposes the owned manager for read access (profiler tables,
// on-demand snapshots).
func (c *Core) Manager() *Manager {
	return c.manager
}

// Start transitions the core to running: collectors attach, control handlers
// subscribe, and both tickers begin. Returns ErrAlreadyRunning if called
// twice without an intervening Stop.
func (c *Core) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return ErrAlreadyRunning
	}

	c.manager.Start()

	c.subs = []*bus.Subscription{
		c.channel.On(EventRequestMetrics, c.onRequestMetrics),
		c.channel.On(EventReset, c.onReset),
		c.channel.On(EventInspectElement, c.onInspectElement),
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.wg.Add(2)
	go c.metricsLoop(ctx)
	go c.sparklineLoop(ctx)

	c.running = true
	return nil
}

// Stop transitions the core back to idle. All teardown steps run even if an
// earlier one misbehaves: tickers stop, every subscription is removed, a
// pending highlight is cleared, and the manager detaches. Safe to call
// repeatedly.
func (c *Core) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	cancel := c.cancel
	c.cancel = nil
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()

	for _, s := range subs {
		s.Off()
	}

	c.clearHighlight()
	c.manager.Stop()

	c.mu.Lock()
	c.detachContainer = nil
	c.mu.Unlock()
}

// ObserveContainer designates the container whose element count and
// mutations enter the snapshot. The previous container, if any, is detached
// first; the core enforces the manager's one-container invariant from
// outside as well.
func (c *Core) ObserveContainer(el platform.Element) platform.CancelFunc {
	c.mu.Lock()
	prev := c.detachContainer
	c.mu.Unlock()
	if prev != nil {
		prev()
	}
	detach := c.manager.ObserveContainer(el)
	c.mu.Lock()
	c.detachContainer = detach
	c.mu.Unlock()
	return detach
}

// Report is the render-profiler hook handed to the instrumented framework.
// Reports outside an active session return collector.ErrNotRunning.
func (c *Core) Report(componentID string, duration time.Duration) error {
	return c.manager.Report(componentID, duration)
}

func (c *Core) metricsLoop(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.opts.MetricsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.emitSnapshot(ctx)
		}
	}
}

func (c *Core) sparklineLoop(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.opts.SparklineInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.manager.SampleHistory()
		}
	}
}

func (c *Core) emitSnapshot(ctx context.Context) {
	var span trace.Span
	if c.opts.Tracer != nil {
		_, span = c.opts.Tracer.Start(ctx, "emit metrics",
			trace.WithAttributes(attribute.String("framepulse.story_id", c.StoryID())))
	}
	snap := c.manager.Snapshot()
	c.channel.Emit(EventMetricsUpdate, snap)
	if span != nil {
		span.SetAttributes(attribute.Float64("framepulse.fps", snap.FPS))
		span.End()
	}
}

// onRequestMetrics answers immediately, out of band of the metrics ticker:
// one metrics-update plus one profiler-update per known component.
func (c *Core) onRequestMetrics(any) {
	c.emitSnapshot(context.Background())
	storyID := c.StoryID()
	for _, id := range c.manager.ProfilerIDs() {
		if m, ok := c.manager.ProfilerMetricsFor(id); ok {
			c.channel.Emit(EventProfilerUpdate, ProfilerUpdate{ID: id, Metrics: m, StoryID: storyID})
		}
	}
}

func (c *Core) onReset(any) {
	c.manager.Reset()
}

// onInspectElement resolves the selector, scrolls the element into view, and
// applies a transient highlight through the marker attribute. The marker is
// on the instrumentation allow-list, so the highlight write never counts as
// a measured style mutation. Malformed or unknown selectors are silent
// no-ops.
func (c *Core) onInspectElement(payload any) {
	selector, _ := payload.(string)
	if selector == "" || selector == UnknownSelector {
		return
	}
	el, ok := c.page.Document().Query(selector)
	if !ok {
		return
	}

	c.clearHighlight()

	el.ScrollIntoView()
	el.SetAttribute(HighlightAttr, "true")

	c.mu.Lock()
	c.highlighted = el
	c.highlightTimer = time.AfterFunc(highlightDuration, func() {
		c.mu.Lock()
		target := c.highlighted
		if target == el {
			c.highlighted = nil
			c.highlightTimer = nil
		}
		c.mu.Unlock()
		if target == el {
			el.RemoveAttribute(HighlightAttr)
		}
	})
	c.mu.Unlock()
}

func (c *Core) clearHighlight() {
	c.mu.Lock()
	timer := c.highlightTimer
	el := c.highlighted
	c.highlightTimer = nil
	c.highlighted = nil
	c.mu.Unlock()
	if timer != nil {
		timer.Stop()
	}
	if el != nil {
		el.RemoveAttribute(HighlightAttr)
	}
}
