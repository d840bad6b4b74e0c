package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/trace"

	"github.com/framepulse/framepulse/internal/bus"
	"github.com/framepulse/framepulse/internal/collector"
	"github.com/framepulse/framepulse/internal/config"
	"github.com/framepulse/framepulse/internal/dashboard"
	"github.com/framepulse/framepulse/internal/monitor"
	"github.com/framepulse/framepulse/internal/output"
	"github.com/framepulse/framepulse/internal/panelbridge"
	"github.com/framepulse/framepulse/internal/platform/simpage"
	"github.com/framepulse/framepulse/internal/threshold"
	"github.com/framepulse/framepulse/internal/tracing"
)

const (
	progressInterval = time.Second
	shutdownTimeout  = 5 * time.Second
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	budgets, err := threshold.ParseMultiple(cfg.Budgets)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	session := ulid.Make().String()

	provider, err := tracing.Init(ctx, cfg.Tracing, cfg.StoryID, session)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "tracing shutdown: %v\n", err)
		}
	}()

	var tracer trace.Tracer
	if cfg.Tracing.Enabled() {
		tracer = provider.Tracer()
	}

	page := simpage.New()
	channel := bus.New()
	core := monitor.NewCore(page, channel, cfg.StoryID, monitor.CoreOptions{
		MetricsInterval:   cfg.MetricsInterval,
		SparklineInterval: cfg.SparklineInterval,
		HistoryCap:        cfg.HistoryCap,
		IgnoredAttributes: cfg.IgnoredAttributes,
		Tracer:            tracer,
	})

	registry := monitor.NewRegistry()
	if err := core.Start(); err != nil {
		return err
	}
	registry.SetActive(core)
	defer registry.SetActive(nil)

	load := newWorkload(page, core, cfg.Workload)

	// Watch either the configured container or the workload root.
	containerSel := cfg.Container
	if containerSel == "" {
		containerSel = "#app"
	}
	if el, ok := page.Document().Query(containerSel); ok {
		core.ObserveContainer(el)
	} else {
		fmt.Fprintf(os.Stderr, "container %q not found; DOM mutations will not be counted\n", containerSel)
	}

	var bridge *panelbridge.Bridge
	if cfg.BridgeAddr != "" {
		bridge = panelbridge.New(channel, panelbridge.Config{
			Addr:      cfg.BridgeAddr,
			StoryID:   cfg.StoryID,
			Session:   session,
			MaxRate:   cfg.BridgeRate,
			Tracer:    tracer,
			Propagate: provider.ShouldPropagate(),
		})
		if err := bridge.Start(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "panel bridge listening on ws://%s/ws (session %s)\n", bridge.Addr(), bridge.Session())
	}

	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		dash, err = dashboard.New(core.Manager(), channel, dashboard.SessionConfig{
			StoryID:           cfg.StoryID,
			Container:         containerSel,
			MetricsInterval:   cfg.MetricsInterval,
			SparklineInterval: cfg.SparklineInterval,
			Duration:          cfg.Duration,
			ConfigFile:        cfg.ConfigFile,
		}, cancel)
		if err != nil {
			return err
		}
		dash.Start()
	}

	var progress *output.ProgressReporter
	if !cfg.JSONOutput && !cfg.Dashboard {
		progress = output.NewProgressReporter(core.Manager().Snapshot, progressInterval, os.Stdout)
		progress.Start()
	}

	start := time.Now()
	load.Start(ctx)

	if cfg.Duration > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(cfg.Duration):
		}
	} else {
		<-ctx.Done()
	}

	load.Stop()
	core.Stop()
	elapsed := time.Since(start)

	// Tear the UI down before printing so the report lands on a sane terminal.
	if dash != nil {
		dash.Stop()
	}
	if progress != nil {
		progress.Stop()
		fmt.Fprintln(os.Stdout)
	}

	rep := buildReport(core, cfg.StoryID, elapsed, budgets)
	rep.Session = session

	if bridge != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := bridge.Stop(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "bridge shutdown: %v\n", err)
		}
		shutdownCancel()
	}

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(os.Stdout, rep); err != nil {
			return err
		}
	} else {
		output.PrintReport(os.Stdout, rep)
	}

	if cfg.HTMLOutput != "" {
		if err := writeHTMLReport(cfg.HTMLOutput, rep); err != nil {
			return err
		}
		if !cfg.JSONOutput {
			fmt.Fprintf(os.Stdout, "HTML report written to %s\n", cfg.HTMLOutput)
		}
	}

	if !rep.BudgetsPassed() {
		failed := 0
		for _, b := range rep.Budgets {
			if !b.Pass {
				failed++
			}
		}
		return fmt.Errorf("%d of %d budgets failed", failed, len(rep.Budgets))
	}
	return nil
}

// buildReport assembles the final session report from the live core.
func buildReport(core *monitor.Core, storyID string, elapsed time.Duration, budgets []threshold.Budget) output.Report {
	manager := core.Manager()
	snap := manager.Snapshot()

	var profiler map[string]collector.ProfilerMetrics
	if ids := manager.ProfilerIDs(); len(ids) > 0 {
		profiler = make(map[string]collector.ProfilerMetrics, len(ids))
		for _, id := range ids {
			if m, ok := manager.ProfilerMetricsFor(id); ok {
				profiler[id] = m
			}
		}
	}

	results := threshold.NewEvaluator(budgets).Evaluate(snap)

	return output.Report{
		StoryID:  storyID,
		Duration: elapsed,
		Snapshot: snap,
		Profiler: profiler,
		Budgets:  output.BudgetOutcomes(results),
	}
}

func writeHTMLReport(path string, rep output.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create html report: %w", err)
	}
	defer f.Close()

	if err := output.GenerateHTMLReport(f, rep); err != nil {
		return err
	}
	return f.Sync()
}
