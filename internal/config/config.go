package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type WorkloadMode string

const (
	WorkloadModeSteady WorkloadMode = "steady"
	WorkloadModeJanky  WorkloadMode = "janky"
	WorkloadModeIdle   WorkloadMode = "idle"
)

type Config struct {
	StoryID           string         `mapstructure:"story_id"`
	Duration          time.Duration  `mapstructure:"duration"`
	MetricsInterval   time.Duration  `mapstructure:"metrics_interval"`
	SparklineInterval time.Duration  `mapstructure:"sparkline_interval"`
	HistoryCap        int            `mapstructure:"history_cap"`
	Container         string         `mapstructure:"container"`
	IgnoredAttributes []string       `mapstructure:"ignored_attributes"`
	Dashboard         bool           `mapstructure:"dashboard"`
	JSONOutput        bool           `mapstructure:"json_output"`
	HTMLOutput        string         `mapstructure:"html_output"`
	BridgeAddr        string         `mapstructure:"bridge_addr"`
	BridgeRate        int            `mapstructure:"bridge_rate"`
	Budgets           []string       `mapstructure:"budgets"`
	ConfigFile        string         `mapstructure:"-"`
	Workload          WorkloadConfig `mapstructure:"workload"`
	Tracing           TracingConfig  `mapstructure:"tracing"`
}

type WorkloadConfig struct {
	Mode WorkloadMode `mapstructure:"mode"`
	Seed int64        `mapstructure:"seed"`
}

type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
	Propagate   *bool   `mapstructure:"propagate"`
}

// Enabled reports whether an OTLP endpoint has been configured, either
// directly or through the standard OTel environment variable.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != "" || os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

// ShouldPropagate reports whether trace context should be attached to
// outbound panel frames. Defaults to true when tracing is enabled.
func (t TracingConfig) ShouldPropagate() bool {
	if t.Propagate != nil {
		return *t.Propagate
	}
	return t.Enabled()
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if c.Duration < 0 {
		issues = append(issues, "duration must be >= 0")
	}
	if c.MetricsInterval <= 0 {
		issues = append(issues, "metrics_interval must be > 0")
	}
	if c.SparklineInterval <= 0 {
		issues = append(issues, "sparkline_interval must be > 0")
	}
	if c.HistoryCap < 1 {
		issues = append(issues, "history_cap must be >= 1")
	}
	if c.BridgeRate < 0 {
		issues = append(issues, "bridge_rate must be >= 0 (0 means unlimited)")
	}

	switch c.Workload.Mode {
	case WorkloadModeSteady, WorkloadModeJanky, WorkloadModeIdle:
	default:
		issues = append(issues, fmt.Sprintf("workload.mode: must be 'steady', 'janky', or 'idle', got %q", c.Workload.Mode))
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
		issues = append(issues, fmt.Sprintf("tracing.sample_rate must be between 0.0 and 1.0, got %g", c.Tracing.SampleRate))
	}
	if c.Tracing.Protocol != "" {
		switch strings.ToLower(c.Tracing.Protocol) {
		case "grpc", "http":
		default:
			issues = append(issues, fmt.Sprintf("tracing.protocol: must be 'grpc' or 'http', got %q", c.Tracing.Protocol))
		}
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}
