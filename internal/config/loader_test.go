package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestAsString(t *testing.T) {
	tests := []struct {
		input interface{}
		want  string
	}{
		{"hello", "hello"},
		{123, "123"},
		{true, "true"},
		{nil, ""},
		{[]byte("bytes"), "bytes"},
	}

	for _, tt := range tests {
		got, err := asString(tt.input)
		if err != nil {
			t.Errorf("asString(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asString(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestAsInt(t *testing.T) {
	tests := []struct {
		input interface{}
		want  int
	}{
		{123, 123},
		{"456", 456},
		{int64(789), 789},
		{float64(10.0), 10},
		{nil, 0},
	}

	for _, tt := range tests {
		got, err := asInt(tt.input)
		if err != nil {
			t.Errorf("asInt(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asInt(%v) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestAsDuration(t *testing.T) {
	tests := []struct {
		input interface{}
		want  time.Duration
	}{
		{time.Second, time.Second},
		{"1m", time.Minute},
		{"50ms", 50 * time.Millisecond},
		{10, 10 * time.Second}, // int treated as seconds
		{nil, 0},
	}

	for _, tt := range tests {
		got, err := asDuration(tt.input)
		if err != nil {
			t.Errorf("asDuration(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asDuration(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestApplyConfigSettings(t *testing.T) {
	cfg := &Config{}
	settings := map[string]interface{}{
		"story_id":         "checkout-flow",
		"metrics_interval": "100ms",
		"history_cap":      30,
		"container":        "#root",
		"budgets":          []interface{}{"fps >= 30", "long_tasks < 5"},
		"workload": map[string]interface{}{
			"mode": "janky",
			"seed": 42,
		},
		"tracing": map[string]interface{}{
			"endpoint":    "localhost:4317",
			"sample_rate": 0.5,
			"insecure":    true,
		},
	}

	if err := applyConfigSettings(cfg, settings); err != nil {
		t.Fatalf("applyConfigSettings() error = %v", err)
	}

	if cfg.StoryID != "checkout-flow" {
		t.Errorf("StoryID = %q, want checkout-flow", cfg.StoryID)
	}
	if cfg.MetricsInterval != 100*time.Millisecond {
		t.Errorf("MetricsInterval = %v, want 100ms", cfg.MetricsInterval)
	}
	if cfg.HistoryCap != 30 {
		t.Errorf("HistoryCap = %d, want 30", cfg.HistoryCap)
	}
	if cfg.Container != "#root" {
		t.Errorf("Container = %q, want #root", cfg.Container)
	}
	if len(cfg.Budgets) != 2 {
		t.Errorf("Budgets len = %d, want 2", len(cfg.Budgets))
	}
	if cfg.Workload.Mode != WorkloadModeJanky {
		t.Errorf("Workload.Mode = %q, want janky", cfg.Workload.Mode)
	}
	if cfg.Workload.Seed != 42 {
		t.Errorf("Workload.Seed = %d, want 42", cfg.Workload.Seed)
	}
	if cfg.Tracing.Endpoint != "localhost:4317" {
		t.Errorf("Tracing.Endpoint = %q, want localhost:4317", cfg.Tracing.Endpoint)
	}
	if cfg.Tracing.SampleRate != 0.5 {
		t.Errorf("Tracing.SampleRate = %g, want 0.5", cfg.Tracing.SampleRate)
	}
	if !cfg.Tracing.Insecure {
		t.Error("Tracing.Insecure = false, want true")
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := &Config{
		StoryID:    "demo",
		HistoryCap: 60,
	}

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	configureFlags(fs)

	args := []string{
		"--story-id=settings-panel",
		"--history-cap=120",
		"--budget=fps >= 30",
		"--dashboard",
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if err := applyFlagOverrides(cfg, fs); err != nil {
		t.Fatalf("applyFlagOverrides() error = %v", err)
	}

	if cfg.StoryID != "settings-panel" {
		t.Errorf("StoryID = %q, want settings-panel", cfg.StoryID)
	}
	if cfg.HistoryCap != 120 {
		t.Errorf("HistoryCap = %d, want 120", cfg.HistoryCap)
	}
	if len(cfg.Budgets) != 1 || cfg.Budgets[0] != "fps >= 30" {
		t.Errorf("Budgets = %v, want [fps >= 30]", cfg.Budgets)
	}
	if !cfg.Dashboard {
		t.Error("Dashboard = false, want true")
	}
}

func TestLoader_Load(t *testing.T) {
	loader := NewLoader()
	args := []string{
		"--story-id=story-A",
		"--duration=30s",
	}

	cfg, err := loader.Load(args)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.StoryID != "story-A" {
		t.Errorf("StoryID = %q, want story-A", cfg.StoryID)
	}
	if cfg.Duration != 30*time.Second {
		t.Errorf("Duration = %v, want 30s", cfg.Duration)
	}
}
