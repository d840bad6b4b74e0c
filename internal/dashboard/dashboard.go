// Package dashboard renders a live terminal UI for frame telemetry.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/framepulse/framepulse/internal/bus"
	"github.com/framepulse/framepulse/internal/collector"
	"github.com/framepulse/framepulse/internal/monitor"
)

// MetricsSource supplies the data the dashboard renders. *monitor.Manager
// satisfies it.
type MetricsSource interface {
	Snapshot() monitor.Snapshot
	ProfilerIDs() []string
	ProfilerMetricsFor(id string) (collector.ProfilerMetrics, bool)
}

// SessionConfig holds monitoring session parameters for display.
type SessionConfig struct {
	StoryID           string
	Container         string
	MetricsInterval   time.Duration
	SparklineInterval time.Duration
	Duration          time.Duration // 0 = until interrupted
	ConfigFile        string
}

// Dashboard renders a live terminal UI for monitoring metrics.
type Dashboard struct {
	source       MetricsSource
	channel      *bus.Bus
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup
	mu           sync.Mutex

	// Widgets
	grid          *ui.Grid
	frameSparkle  *widgets.SparklineGroup
	fpsGauge      *widgets.Gauge
	summaryPara   *widgets.Paragraph
	metricsPara   *widgets.Paragraph
	signalsPara   *widgets.Paragraph
	profilerList  *widgets.List
	startTime     time.Time
	sessionConfig SessionConfig
}

// New creates a new Dashboard. The channel is used to forward reset requests
// triggered from the keyboard; it may be nil.
func New(source MetricsSource, channel *bus.Bus, cfg SessionConfig, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Dashboard{
		source:        source,
		channel:       channel,
		ctx:           ctx,
		cancel:        cancel,
		shutdownFunc:  shutdownFunc,
		startTime:     time.Now(),
		sessionConfig: cfg,
	}

	d.initWidgets()
	d.setupGrid()

	return d, nil
}

// initWidgets initializes all dashboard widgets.
func (d *Dashboard) initWidgets() {
	// FPS / frame time sparklines
	fpsLine := widgets.NewSparkline()
	fpsLine.Title = "FPS"
	fpsLine.LineColor = ui.ColorGreen
	fpsLine.Data = []float64{0}

	frameLine := widgets.NewSparkline()
	frameLine.Title = "Frame Time (ms)"
	frameLine.LineColor = ui.ColorRed
	frameLine.Data = []float64{0}

	d.frameSparkle = widgets.NewSparklineGroup(fpsLine, frameLine)
	d.frameSparkle.Title = "Frame Health"
	d.frameSparkle.BorderStyle.Fg = ui.ColorCyan

	// FPS gauge against a 60fps target
	d.fpsGauge = widgets.NewGauge()
	d.fpsGauge.Title = "Frames Per Second"
	d.fpsGauge.Percent = 0
	d.fpsGauge.BarColor = ui.ColorBlue
	d.fpsGauge.BorderStyle.Fg = ui.ColorCyan
	d.fpsGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	// Session summary
	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Session"
	d.summaryPara.Text = "Initializing..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan

	// Core metrics
	d.metricsPara = widgets.NewParagraph()
	d.metricsPara.Title = "Metrics"
	d.metricsPara.Text = "Waiting for data..."
	d.metricsPara.BorderStyle.Fg = ui.ColorCyan

	// Paint / memory / DOM signals
	d.signalsPara = widgets.NewParagraph()
	d.signalsPara.Title = "Page Signals"
	d.signalsPara.Text = "No signal data"
	d.signalsPara.TextStyle = ui.NewStyle(ui.ColorGreen)
	d.signalsPara.BorderStyle.Fg = ui.ColorCyan

	// Component render list
	d.profilerList = widgets.NewList()
	d.profilerList.Title = "Component Renders"
	d.profilerList.Rows = []string{"Awaiting data"}
	d.profilerList.TextStyle = ui.NewStyle(ui.ColorCyan)
	d.profilerList.BorderStyle.Fg = ui.ColorCyan
}

// setupGrid configures the layout grid.
func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)

	d.grid.Set(
		ui.NewRow(0.14,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.18,
			ui.NewCol(0.5, d.fpsGauge),
			ui.NewCol(0.5, d.signalsPara),
		),
		ui.NewRow(0.34,
			ui.NewCol(0.6, d.frameSparkle),
			ui.NewCol(0.4, d.metricsPara),
		),
		ui.NewRow(0.34,
			ui.NewCol(1.0, d.profilerList),
		),
	)
}

// Start begins the dashboard update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop stops the dashboard and cleans up.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	ui.Close()
	// Give terminal time to restore
	time.Sleep(100 * time.Millisecond)
}

// run is the main dashboard update loop.
func (d *Dashboard) run() {
	defer d.wg.Done()

	interval := d.sessionConfig.SparklineInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()

	d.render()

	for {
		select {
		case <-d.ctx.Done():
			// Drain any remaining events
			for len(uiEvents) > 0 {
				<-uiEvents
			}
			return
		case e := <-uiEvents:
			// Check if context is done to avoid blocking
			select {
			case <-d.ctx.Done():
				return
			default:
			}

			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
				// Do not return here; wait for Stop() to cancel context
			case "r":
				if d.channel != nil {
					d.channel.Emit(monitor.EventReset, nil)
				}
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				ui.Clear()
				d.render()
			}
		case <-ticker.C:
			d.update()
			d.render()
		}
	}
}

// update refreshes all widget data from the source.
func (d *Dashboard) update() {
	d.mu.Lock()
	defer d.mu.Unlock()

	elapsed := time.Since(d.startTime)
	snap := d.source.Snapshot()

	if len(snap.FPSHistory) > 0 {
		d.frameSparkle.Sparklines[0].Data = snap.FPSHistory
		d.frameSparkle.Sparklines[0].Title = fmt.Sprintf("FPS | Current: %.1f", snap.FPS)
	}
	if len(snap.FrameTimeHistory) > 0 {
		d.frameSparkle.Sparklines[1].Data = snap.FrameTimeHistory
		d.frameSparkle.Sparklines[1].Title = fmt.Sprintf(
			"Frame Time (ms) | Current: %.1f | Max: %.1f", snap.FrameTimeMs, snap.MaxFrameTimeMs)
	}

	fpsPercent := int((snap.FPS / 60.0) * 100)
	if fpsPercent > 100 {
		fpsPercent = 100
	}
	if fpsPercent < 0 {
		fpsPercent = 0
	}
	d.fpsGauge.Percent = fpsPercent
	d.fpsGauge.Label = fmt.Sprintf("%.1f FPS", snap.FPS)

	params := d.formatSessionParams()
	d.summaryPara.Text = fmt.Sprintf(
		"Story: %s\n%s\nElapsed: %s | press q to quit, r to reset",
		d.sessionConfig.StoryID,
		params,
		elapsed.Round(time.Second),
	)

	d.metricsPara.Text = fmt.Sprintf(
		"FPS:               %.1f\nFrame Time:        %.1fms\nP50/P95/P99:       %.1f / %.1f / %.1f ms\nInput Latency:     %.1fms\nLong Tasks:        %d\nBlocking Time:     %.0fms\nLayout Shift:      %.3f\nForced Reflows:    %d (thrash %.1f)\nMutations:         %d style / %d dom",
		snap.FPS,
		snap.FrameTimeMs,
		snap.P50FrameTimeMs,
		snap.P95FrameTimeMs,
		snap.P99FrameTimeMs,
		snap.InputLatencyMs,
		snap.LongTasks,
		snap.TotalBlockingTimeMs,
		snap.LayoutShiftScore,
		snap.ForcedReflows,
		snap.ThrashScore,
		snap.StyleMutations,
		snap.DOMMutations,
	)

	d.signalsPara.Text = formatSignals(snap)
	d.updateProfilerList()
}

// render draws all widgets to the screen.
func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()

	ui.Render(d.grid)
}

func (d *Dashboard) updateProfilerList() {
	ids := d.source.ProfilerIDs()
	if len(ids) == 0 {
		d.profilerList.Rows = []string{"[No component renders yet](fg:green)"}
		return
	}

	type profilerRow struct {
		id string
		m  collector.ProfilerMetrics
	}
	rows := make([]profilerRow, 0, len(ids))
	for _, id := range ids {
		if m, ok := d.source.ProfilerMetricsFor(id); ok {
			rows = append(rows, profilerRow{id: id, m: m})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].m.Renders == rows[j].m.Renders {
			return rows[i].id < rows[j].id
		}
		return rows[i].m.Renders > rows[j].m.Renders
	})

	formatted := make([]string, 0, len(rows))
	for _, entry := range rows {
		formatted = append(formatted, fmt.Sprintf("[%s](fg:cyan) | renders %4d | last %6.1fms | mean %6.1fms | total %7.1fms",
			entry.id,
			entry.m.Renders,
			entry.m.LastDurationMs,
			entry.m.MeanDurationMs,
			entry.m.TotalDurationMs,
		))
	}
	d.profilerList.Rows = formatted
}

// formatSignals formats the optional page signals for display.
func formatSignals(snap monitor.Snapshot) string {
	lines := make([]string, 0, 5)
	if snap.FirstPaintMs != nil {
		lines = append(lines, fmt.Sprintf("  [First Paint:](fg:white) [%.1fms](fg:yellow)", *snap.FirstPaintMs))
	}
	if snap.FirstContentfulPaintMs != nil {
		lines = append(lines, fmt.Sprintf("  [First Contentful:](fg:white) [%.1fms](fg:yellow)", *snap.FirstContentfulPaintMs))
	}
	if snap.HeapBytes != nil {
		lines = append(lines, fmt.Sprintf("  [JS Heap:](fg:white) [%s](fg:yellow)", humanize.IBytes(uint64(*snap.HeapBytes))))
	}
	if snap.DOMElements != nil {
		lines = append(lines, fmt.Sprintf("  [DOM Elements:](fg:white) [%d](fg:yellow)", *snap.DOMElements))
	}
	if len(snap.ElementTimingsMs) > 0 {
		lines = append(lines, fmt.Sprintf("  [Timed Elements:](fg:white) [%d](fg:yellow)", len(snap.ElementTimingsMs)))
	}
	if len(lines) == 0 {
		return "[No signal data](fg:green)"
	}
	return joinLines(lines)
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	result := lines[0]
	for i := 1; i < len(lines); i++ {
		result += "\n" + lines[i]
	}
	return result
}

// formatSessionParams formats the session configuration parameters for display.
func (d *Dashboard) formatSessionParams() string {
	var parts []string

	if d.sessionConfig.Container != "" {
		parts = append(parts, fmt.Sprintf("Container: %s", d.sessionConfig.Container))
	}

	if d.sessionConfig.MetricsInterval > 0 {
		parts = append(parts, fmt.Sprintf("Tick: %s", d.sessionConfig.MetricsInterval))
	}

	if d.sessionConfig.SparklineInterval > 0 {
		parts = append(parts, fmt.Sprintf("Sample: %s", d.sessionConfig.SparklineInterval))
	}

	if d.sessionConfig.Duration > 0 {
		parts = append(parts, fmt.Sprintf("Duration: %s", d.sessionConfig.Duration))
	} else {
		parts = append(parts, "Duration: until interrupted")
	}

	if d.sessionConfig.ConfigFile != "" {
		parts = append(parts, fmt.Sprintf("Config: %s", d.sessionConfig.ConfigFile))
	}

	if len(parts) == 0 {
		return ""
	}

	return strings.Join(parts, " | ")
}
