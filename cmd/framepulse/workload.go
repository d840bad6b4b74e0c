package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/framepulse/framepulse/internal/config"
	"github.com/framepulse/framepulse/internal/monitor"
	"github.com/framepulse/framepulse/internal/platform"
	"github.com/framepulse/framepulse/internal/platform/simpage"
)

const (
	frameCadence      = 16 * time.Millisecond
	baseHeapBytes     = 24 * 1024 * 1024
	firstPaintMs      = 112.0
	firstContentfulMs = 184.0
)

// workload drives a simulated page so that every collector has live signals
// to chew on. The janky mode periodically stalls frames, blocks the main
// thread, and shifts layout; steady mode renders smoothly with light DOM
// churn; idle mode only produces frames.
type workload struct {
	page *simpage.Page
	core *monitor.Core
	mode config.WorkloadMode

	root *simpage.Node
	list *simpage.Node
	save *simpage.Node

	mu    sync.Mutex
	rnd   *rand.Rand
	items int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// newWorkload builds the simulated DOM and registers its selectors.
func newWorkload(page *simpage.Page, core *monitor.Core, cfg config.WorkloadConfig) *workload {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	w := &workload{
		page: page,
		core: core,
		mode: cfg.Mode,
		rnd:  rand.New(rand.NewSource(seed)),
	}

	w.root = page.NewElement("div")
	page.Register("#app", w.root)

	header := page.NewElement("header")
	w.save = page.NewElement("button")
	page.Register("#save", w.save)
	header.Append(w.save)
	w.root.Append(header)

	w.list = page.NewElement("ul")
	w.root.Append(w.list)
	for i := 0; i < 8; i++ {
		w.list.Append(page.NewElement("li"))
		w.items++
	}

	hero := page.NewElement("img")
	page.Register("#hero", hero)
	w.root.Append(hero)

	return w
}

// Root returns the container element the monitor should observe.
func (w *workload) Root() platform.Element { return w.root }

// Start begins driving the page until the context is canceled.
func (w *workload) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop halts the workload and waits for the driver goroutine.
func (w *workload) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func (w *workload) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(frameCadence)
	defer ticker.Stop()

	// Paint entries fire once, shortly after startup.
	w.page.Emit(platform.Entry{Kind: platform.KindPaint, Name: "first-paint", Start: firstPaintMs})
	w.page.Emit(platform.Entry{Kind: platform.KindPaint, Name: "first-contentful-paint", Start: firstContentfulMs})
	w.page.SetMemory(baseHeapBytes)

	frame := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frame++
			if err := w.tick(frame); err != nil {
				// A rejected report means the monitor wiring is broken.
				fmt.Fprintf(os.Stderr, "workload: %v\n", err)
				return
			}
		}
	}
}

// tick advances the simulation by one frame.
func (w *workload) tick(frame int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	delta := 16.0 + w.rnd.Float64()*4.0
	janky := w.mode == config.WorkloadModeJanky

	if janky && frame%60 == 0 {
		// Main-thread stall: a long task followed by a late frame.
		stall := 80.0 + w.rnd.Float64()*170.0
		w.page.Emit(platform.Entry{Kind: platform.KindLongTask, Duration: stall})
		delta += stall
	}

	w.page.EmitFrame(delta)

	if w.mode == config.WorkloadModeIdle {
		return nil
	}

	if frame%20 == 0 {
		// A user pokes the page; the response lands on the next frame.
		w.page.Emit(platform.Entry{Kind: platform.KindInput, Name: "pointerdown"})
	}

	if janky && frame%45 == 0 {
		w.page.Emit(platform.Entry{
			Kind:  platform.KindLayoutShift,
			Value: 0.02 + w.rnd.Float64()*0.08,
		})
	}

	if frame%10 == 0 {
		// Style churn on a list item, occasionally followed by a synchronous
		// layout read that forces a reflow.
		w.list.SetAttribute("class", pick(w.rnd, "compact", "cozy", "loose"))
		if janky && w.rnd.Intn(3) == 0 {
			w.list.ReadLayout()
		}
	}

	if frame%50 == 0 {
		w.list.Append(w.page.NewElement("li"))
		w.items++
	}

	if frame%30 == 0 {
		w.page.Emit(platform.Entry{
			Kind:  platform.KindElementTiming,
			Name:  "hero-image",
			Start: w.page.Now(),
		})
	}

	if frame%25 == 0 {
		// Heap drifts upward with occasional collections.
		drift := int64(w.rnd.Intn(512 * 1024))
		if w.rnd.Intn(8) == 0 {
			drift = -int64(w.rnd.Intn(4 * 1024 * 1024))
		}
		w.page.SetMemory(baseHeapBytes + int64(w.items)*64*1024 + drift)
	}

	if frame%12 == 0 {
		renderMs := 2 + w.rnd.Intn(6)
		if janky {
			renderMs *= 3
		}
		if err := w.core.Report("ProductList", time.Duration(renderMs)*time.Millisecond); err != nil {
			return fmt.Errorf("profiler report: %w", err)
		}
		if frame%24 == 0 {
			if err := w.core.Report("Cart", time.Duration(1+w.rnd.Intn(3))*time.Millisecond); err != nil {
				return fmt.Errorf("profiler report: %w", err)
			}
		}
	}
	return nil
}

func pick(rnd *rand.Rand, options ...string) string {
	return options[rnd.Intn(len(options))]
}
