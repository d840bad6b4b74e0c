package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers all CLI flags to a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "framepulse",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Session flags
	flags.StringP("story-id", "s", "", "Story identifier attached to every published update")
	flags.DurationP("duration", "d", 0, "How long to run before printing the report (0 means until interrupted)")

	// Sampling flags
	flags.Duration("metrics-interval", 50*time.Millisecond, "Interval between metrics-update publications")
	flags.Duration("sparkline-interval", 500*time.Millisecond, "Interval between sparkline history samples")
	flags.Int("history-cap", 60, "Number of sparkline samples retained per series")
	flags.String("container", "", "Selector of the container to watch for DOM mutations")
	flags.StringSlice("ignore-attr", nil, "Attribute name excluded from mutation counting (repeatable)")

	// Output flags
	flags.Bool("json-output", false, "Emit JSON formatted output")
	flags.Bool("dashboard", false, "Show live terminal dashboard with metrics")
	flags.String("html-output", "", "Generate HTML report to the specified file path")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Panel bridge flags
	flags.String("bridge-addr", "", "Listen address for the WebSocket panel bridge (e.g. :8787)")
	flags.Int("bridge-rate", 8, "Max metrics frames per second relayed to panels (0 means unlimited)")

	// Budget flags
	flags.StringSlice("budget", nil, "Performance budget (repeatable, e.g., 'fps >= 30')")

	// Workload flags
	flags.String("workload", string(WorkloadModeSteady), "Synthetic workload mode: 'steady', 'janky', or 'idle'")
	flags.Int64("workload-seed", 0, "Seed for the synthetic workload (0 means time-based)")

	// Tracing flags
	flags.String("otlp-endpoint", "", "OTLP endpoint for trace export (empty disables tracing)")
	flags.String("otlp-protocol", "", "OTLP protocol: 'grpc' or 'http'")
	flags.String("trace-service-name", "", "Service name reported on trace spans")
	flags.Float64("trace-sample-rate", 1.0, "Trace sampling ratio between 0.0 and 1.0")
	flags.Bool("otlp-insecure", false, "Skip TLS verification for OTLP export")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("story-id") {
		val, err := fs.GetString("story-id")
		if err != nil {
			return err
		}
		cfg.StoryID = strings.TrimSpace(val)
	}
	if fs.Changed("duration") {
		val, err := fs.GetDuration("duration")
		if err != nil {
			return err
		}
		cfg.Duration = val
	}
	if fs.Changed("metrics-interval") {
		val, err := fs.GetDuration("metrics-interval")
		if err != nil {
			return err
		}
		cfg.MetricsInterval = val
	}
	if fs.Changed("sparkline-interval") {
		val, err := fs.GetDuration("sparkline-interval")
		if err != nil {
			return err
		}
		cfg.SparklineInterval = val
	}
	if fs.Changed("history-cap") {
		val, err := fs.GetInt("history-cap")
		if err != nil {
			return err
		}
		cfg.HistoryCap = val
	}
	if fs.Changed("container") {
		val, err := fs.GetString("container")
		if err != nil {
			return err
		}
		cfg.Container = strings.TrimSpace(val)
	}
	if fs.Changed("ignore-attr") {
		val, err := fs.GetStringSlice("ignore-attr")
		if err != nil {
			return err
		}
		cfg.IgnoredAttributes = val
	}
	if fs.Changed("json-output") {
		val, err := fs.GetBool("json-output")
		if err != nil {
			return err
		}
		cfg.JSONOutput = val
	}
	if fs.Changed("dashboard") {
		val, err := fs.GetBool("dashboard")
		if err != nil {
			return err
		}
		cfg.Dashboard = val
	}
	if fs.Changed("html-output") {
		val, err := fs.GetString("html-output")
		if err != nil {
			return err
		}
		cfg.HTMLOutput = strings.TrimSpace(val)
	}
	if fs.Changed("bridge-addr") {
		val, err := fs.GetString("bridge-addr")
		if err != nil {
			return err
		}
		cfg.BridgeAddr = strings.TrimSpace(val)
	}
	if fs.Changed("bridge-rate") {
		val, err := fs.GetInt("bridge-rate")
		if err != nil {
			return err
		}
		cfg.BridgeRate = val
	}
	if fs.Changed("budget") {
		val, err := fs.GetStringSlice("budget")
		if err != nil {
			return err
		}
		cfg.Budgets = val
	}
	if fs.Changed("workload") {
		val, err := fs.GetString("workload")
		if err != nil {
			return err
		}
		cfg.Workload.Mode = WorkloadMode(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("workload-seed") {
		val, err := fs.GetInt64("workload-seed")
		if err != nil {
			return err
		}
		cfg.Workload.Seed = val
	}
	if fs.Changed("otlp-endpoint") {
		val, err := fs.GetString("otlp-endpoint")
		if err != nil {
			return err
		}
		cfg.Tracing.Endpoint = strings.TrimSpace(val)
	}
	if fs.Changed("otlp-protocol") {
		val, err := fs.GetString("otlp-protocol")
		if err != nil {
			return err
		}
		cfg.Tracing.Protocol = val
	}
	if fs.Changed("trace-service-name") {
		val, err := fs.GetString("trace-service-name")
		if err != nil {
			return err
		}
		cfg.Tracing.ServiceName = val
	}
	if fs.Changed("trace-sample-rate") {
		val, err := fs.GetFloat64("trace-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}
	if fs.Changed("otlp-insecure") {
		val, err := fs.GetBool("otlp-insecure")
		if err != nil {
			return err
		}
		cfg.Tracing.Insecure = val
	}
	return nil
}
