// Package panelbridge exposes the monitoring channel to observer panels over
// WebSocket. Outbound metrics-update and profiler-update events are relayed as
// JSON frames; inbound control frames are translated back onto the channel.
package panelbridge

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/oklog/ulid/v2"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/framepulse/framepulse/internal/bus"
	"github.com/framepulse/framepulse/internal/monitor"
	"github.com/framepulse/framepulse/internal/tracing"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Frame is the wire format exchanged with panels.
type Frame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// helloPayload is sent once per connection so panels can correlate a session.
type helloPayload struct {
	Session string `json:"session"`
	StoryID string `json:"story_id,omitempty"`
}

// Metrics captures bridge-specific counters.
type Metrics struct {
	FramesSent    int64
	FramesDropped int64
	ClientsServed int64
}

// Config configures the bridge behavior.
type Config struct {
	Addr    string
	StoryID string
	// Session identifies the monitoring session; a fresh ULID when empty.
	Session string
	// MaxRate caps metrics frames per second per client. Control and profiler
	// frames are never throttled. 0 means unlimited.
	MaxRate int
	// Tracer, when set, wraps each broadcast in a span.
	Tracer trace.Tracer
	// Propagate injects W3C trace context into the upgrade response headers.
	Propagate bool

	WriteTimeout time.Duration
}

// Bridge relays channel events to connected panels.
type Bridge struct {
	cfg     Config
	channel *bus.Bus
	session string

	upgrader websocket.Upgrader
	server   *http.Server
	listener net.Listener

	mu      sync.Mutex
	clients map[*client]struct{}
	subs    []*bus.Subscription
	running bool

	framesSent    int64
	framesDropped int64
	clientsServed int64

	wg sync.WaitGroup
}

type client struct {
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
	done    chan struct{}
	once    sync.Once

	// replyOwed marks an outstanding request-metrics: the next metrics frame
	// must reach this client even when its limiter is empty.
	replyOwed int32
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// New creates a bridge bound to the given channel.
func New(channel *bus.Bus, cfg Config) *Bridge {
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	session := cfg.Session
	if session == "" {
		session = ulid.Make().String()
	}
	return &Bridge{
		cfg:     cfg,
		channel: channel,
		session: session,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Panels connect from extension pages; origin is not meaningful here.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Session returns the ULID identifying this bridge instance.
func (b *Bridge) Session() string { return b.session }

// Addr returns the bound listen address, valid after Start.
func (b *Bridge) Addr() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listener == nil {
		return ""
	}
	return b.listener.Addr().String()
}

// Start binds the listener and begins relaying channel events.
func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return fmt.Errorf("bridge already running")
	}

	ln, err := net.Listen("tcp", b.cfg.Addr)
	if err != nil {
		return fmt.Errorf("bridge listen: %w", err)
	}
	b.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", b.handleWS)
	b.server = &http.Server{Handler: mux}

	b.subs = append(b.subs,
		b.channel.On(monitor.EventMetricsUpdate, func(payload any) {
			b.broadcast(monitor.EventMetricsUpdate, payload, true)
		}),
		b.channel.On(monitor.EventProfilerUpdate, func(payload any) {
			b.broadcast(monitor.EventProfilerUpdate, payload, false)
		}),
	)

	b.running = true
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := b.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "panel bridge: %v\n", err)
		}
	}()
	return nil
}

// Stop unsubscribes from the channel and closes all connections.
func (b *Bridge) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil
	}
	b.running = false
	subs := b.subs
	b.subs = nil
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	server := b.server
	b.mu.Unlock()

	for _, sub := range subs {
		sub.Off()
	}
	for _, c := range clients {
		c.close()
	}
	err := server.Shutdown(ctx)
	b.wg.Wait()
	return err
}

// Snapshot returns the current bridge counters.
func (b *Bridge) Snapshot() Metrics {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Metrics{
		FramesSent:    b.framesSent,
		FramesDropped: b.framesDropped,
		ClientsServed: b.clientsServed,
	}
}

func (b *Bridge) handleWS(w http.ResponseWriter, r *http.Request) {
	respHeader := http.Header{}
	if b.cfg.Propagate {
		tracing.InjectHTTPHeaders(r.Context(), respHeader)
	}

	conn, err := b.upgrader.Upgrade(w, r, respHeader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "panel bridge upgrade: %v\n", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, 16),
		done: make(chan struct{}),
	}
	if b.cfg.MaxRate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(b.cfg.MaxRate), b.cfg.MaxRate)
	}

	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		conn.Close()
		return
	}
	b.clients[c] = struct{}{}
	b.clientsServed++
	b.mu.Unlock()

	hello, err := json.Marshal(Frame{Type: "hello", Payload: helloPayload{
		Session: b.session,
		StoryID: b.cfg.StoryID,
	}})
	if err == nil {
		select {
		case c.send <- hello:
		default:
		}
	}

	b.wg.Add(2)
	go func() {
		defer b.wg.Done()
		b.writeLoop(c)
	}()
	go func() {
		defer b.wg.Done()
		b.readLoop(c)
	}()
}

func (b *Bridge) writeLoop(c *client) {
	defer c.close()
	for {
		select {
		case <-c.done:
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(b.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}

func (b *Bridge) readLoop(c *client) {
	defer func() {
		c.close()
		b.mu.Lock()
		delete(b.clients, c)
		b.mu.Unlock()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		b.dispatch(c, data)
	}
}

// dispatch translates an inbound control frame onto the channel. The core
// answers request-metrics synchronously, so the owed-reply mark is consumed
// by the nested broadcast before dispatch returns.
func (b *Bridge) dispatch(c *client, data []byte) {
	frameType := gjson.GetBytes(data, "type").String()
	switch frameType {
	case monitor.EventRequestMetrics:
		atomic.StoreInt32(&c.replyOwed, 1)
		b.channel.Emit(monitor.EventRequestMetrics, nil)
	case monitor.EventReset:
		b.channel.Emit(monitor.EventReset, nil)
	case monitor.EventInspectElement:
		selector := gjson.GetBytes(data, "payload").String()
		b.channel.Emit(monitor.EventInspectElement, selector)
	default:
		// Unknown frames are ignored; panels may be newer than the bridge.
	}
}

// broadcast fans an event out to every connected panel. Throttled events are
// dropped per-client when the client's limiter has no tokens; panels always
// receive the next frame, so only intermediate updates are lost.
func (b *Bridge) broadcast(event string, payload any, throttled bool) {
	var span trace.Span
	if b.cfg.Tracer != nil {
		_, span = tracing.StartPublishSpan(context.Background(), b.cfg.Tracer, event, b.cfg.StoryID)
	}

	data, err := json.Marshal(Frame{Type: event, Payload: payload})
	if err != nil {
		if span != nil {
			tracing.EndSpan(span, err)
		}
		return
	}

	b.mu.Lock()
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.Unlock()

	var sent, dropped int64
	for _, c := range clients {
		owed := throttled && atomic.CompareAndSwapInt32(&c.replyOwed, 1, 0)
		if throttled && !owed && c.limiter != nil && !c.limiter.Allow() {
			dropped++
			continue
		}
		select {
		case c.send <- data:
			sent++
		default:
			// Slow consumer: shed the frame rather than block the channel.
			// An owed reply stays owed so the next frame carries it.
			if owed {
				atomic.StoreInt32(&c.replyOwed, 1)
			}
			dropped++
		}
	}

	b.mu.Lock()
	b.framesSent += sent
	b.framesDropped += dropped
	b.mu.Unlock()

	if span != nil {
		tracing.EndSpan(span, nil)
	}
}
