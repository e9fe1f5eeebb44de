// Package config defines service configuration and its loading rules.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory recompute queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of recompute workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the submission id cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxStandingsLimit caps GET /standings/{category}?limit.
	MaxStandingsLimit int `koanf:"max_standings_limit"`

	// RateLimitRPS and RateLimitBurst configure the per-IP limiter. RPS <= 0 disables it.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// Points defaults applied when a submission carries no points config.
	PointsMode         string  `koanf:"points_mode"`
	PointsFirst        float64 `koanf:"points_first"`
	PointsDecayPercent float64 `koanf:"points_decay_percent"`
	PointsPodiumCount  int     `koanf:"points_podium_count"`

	// PointsManualTable lists per-rank points for points_mode manual.
	PointsManualTable []float64 `koanf:"points_manual_table"`

	// DefaultGroupSize is used when a group build request omits the size.
	DefaultGroupSize int `koanf:"default_group_size"`

	// MetricsEnabled turns the Prometheus recorders on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// DocsEnabled serves /api-docs and /openapi.yaml.
	DocsEnabled  bool   `koanf:"docs_enabled"`
	DocsRedocURL string `koanf:"docs_redoc_url"`
}

// New returns a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		QueueSize:          10_000,
		WorkerCount:        runtime.NumCPU(),
		DedupeSize:         50_000,
		MaxStandingsLimit:  200,
		RateLimitRPS:       50,
		RateLimitBurst:     100,
		PointsMode:         "percent",
		PointsFirst:        0,
		PointsDecayPercent: 0,
		PointsPodiumCount:  3,
		DefaultGroupSize:   4,
		MetricsEnabled:     true,
		DocsEnabled:        true,
	}
}
