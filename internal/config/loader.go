package config

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and configuration files to produce a Config.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	configPath := flagSet.Lookup("config").Value.String()
	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	settings := cfgViper.AllSettings()

	cfg := &Config{
		StoryID:           "demo",
		MetricsInterval:   50 * time.Millisecond,
		SparklineInterval: 500 * time.Millisecond,
		HistoryCap:        60,
		BridgeRate:        8,
		ConfigFile:        configPath,
		Workload:          WorkloadConfig{Mode: WorkloadModeSteady},
		Tracing:           TracingConfig{SampleRate: 1.0},
	}

	if err := applyConfigSettings(cfg, settings); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	cfg.StoryID = strings.TrimSpace(cfg.StoryID)
	cfg.Container = strings.TrimSpace(cfg.Container)
	if cfg.Workload.Mode == "" {
		cfg.Workload.Mode = WorkloadModeSteady
	}

	return cfg, nil
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	if raw, ok := lookupSetting(settings, "story_id"); ok {
		val, err := asString(raw)
		if err != nil {
			return wrapSetting("story_id", err)
		}
		cfg.StoryID = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "duration"); ok {
		val, err := asDuration(raw)
		if err != nil {
			return wrapSetting("duration", err)
		}
		cfg.Duration = val
	}

	if raw, ok := lookupSetting(settings, "metrics_interval"); ok {
		val, err := asDuration(raw)
		if err != nil {
			return wrapSetting("metrics_interval", err)
		}
		if val > 0 {
			cfg.MetricsInterval = val
		}
	}

	if raw, ok := lookupSetting(settings, "sparkline_interval"); ok {
		val, err := asDuration(raw)
		if err != nil {
			return wrapSetting("sparkline_interval", err)
		}
		if val > 0 {
			cfg.SparklineInterval = val
		}
	}

	if raw, ok := lookupSetting(settings, "history_cap"); ok {
		val, err := asInt(raw)
		if err != nil {
			return wrapSetting("history_cap", err)
		}
		if val > 0 {
			cfg.HistoryCap = val
		}
	}

	if raw, ok := lookupSetting(settings, "container"); ok {
		val, err := asString(raw)
		if err != nil {
			return wrapSetting("container", err)
		}
		cfg.Container = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "ignored_attributes"); ok {
		val, err := asStringSlice(raw)
		if err != nil {
			return wrapSetting("ignored_attributes", err)
		}
		cfg.IgnoredAttributes = val
	}

	if raw, ok := lookupSetting(settings, "dashboard"); ok {
		val, err := asBool(raw)
		if err != nil {
			return wrapSetting("dashboard", err)
		}
		cfg.Dashboard = val
	}

	if raw, ok := lookupSetting(settings, "json_output"); ok {
		val, err := asBool(raw)
		if err != nil {
			return wrapSetting("json_output", err)
		}
		cfg.JSONOutput = val
	}

	if raw, ok := lookupSetting(settings, "html_output"); ok {
		val, err := asString(raw)
		if err != nil {
			return wrapSetting("html_output", err)
		}
		cfg.HTMLOutput = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "bridge_addr"); ok {
		val, err := asString(raw)
		if err != nil {
			return wrapSetting("bridge_addr", err)
		}
		cfg.BridgeAddr = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "bridge_rate"); ok {
		val, err := asInt(raw)
		if err != nil {
			return wrapSetting("bridge_rate", err)
		}
		cfg.BridgeRate = val
	}

	if raw, ok := lookupSetting(settings, "budgets"); ok {
		val, err := asStringSlice(raw)
		if err != nil {
			return wrapSetting("budgets", err)
		}
		cfg.Budgets = val
	}

	if raw, ok := lookupSetting(settings, "workload"); ok {
		if err := applyWorkloadSettings(&cfg.Workload, raw); err != nil {
			return err
		}
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		if err := applyTracingSettings(&cfg.Tracing, raw); err != nil {
			return err
		}
	}

	return nil
}

func applyWorkloadSettings(wl *WorkloadConfig, raw interface{}) error {
	section, err := toStringKeyMap(raw)
	if err != nil {
		return wrapSetting("workload", err)
	}

	if v, ok := lookupSetting(section, "mode"); ok {
		val, err := asString(v)
		if err != nil {
			return wrapSetting("workload.mode", err)
		}
		wl.Mode = WorkloadMode(strings.ToLower(strings.TrimSpace(val)))
	}
	if v, ok := lookupSetting(section, "seed"); ok {
		val, err := asInt(v)
		if err != nil {
			return wrapSetting("workload.seed", err)
		}
		wl.Seed = int64(val)
	}
	return nil
}

func applyTracingSettings(tc *TracingConfig, raw interface{}) error {
	section, err := toStringKeyMap(raw)
	if err != nil {
		return wrapSetting("tracing", err)
	}

	if v, ok := lookupSetting(section, "endpoint"); ok {
		val, err := asString(v)
		if err != nil {
			return wrapSetting("tracing.endpoint", err)
		}
		tc.Endpoint = strings.TrimSpace(val)
	}
	if v, ok := lookupSetting(section, "protocol"); ok {
		val, err := asString(v)
		if err != nil {
			return wrapSetting("tracing.protocol", err)
		}
		tc.Protocol = val
	}
	if v, ok := lookupSetting(section, "service_name"); ok {
		val, err := asString(v)
		if err != nil {
			return wrapSetting("tracing.service_name", err)
		}
		tc.ServiceName = val
	}
	if v, ok := lookupSetting(section, "sample_rate"); ok {
		val, err := asFloat64(v)
		if err != nil {
			return wrapSetting("tracing.sample_rate", err)
		}
		tc.SampleRate = val
	}
	if v, ok := lookupSetting(section, "insecure"); ok {
		val, err := asBool(v)
		if err != nil {
			return wrapSetting("tracing.insecure", err)
		}
		tc.Insecure = val
	}
	if v, ok := lookupSetting(section, "propagate"); ok {
		val, err := asBool(v)
		if err != nil {
			return wrapSetting("tracing.propagate", err)
		}
		tc.Propagate = &val
	}
	return nil
}
