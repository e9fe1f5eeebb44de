// Package points turns a points configuration into per-rank point values.
package points

import (
	"math"
	"strings"
)

// Mode selects how a table is generated.
type Mode string

const (
	ModePercent Mode = "percent"
	ModeManual  Mode = "manual"
)

const (
	defaultPodium = 3
	maxDecay      = 100
)

// Config is a normalized points configuration.
type Config struct {
	Mode         Mode      `json:"mode" yaml:"mode"`
	First        float64   `json:"first" yaml:"first"`
	DecayPercent float64   `json:"decay_percent" yaml:"decay_percent"`
	PodiumCount  int       `json:"podium_count" yaml:"podium_count"`
	ManualTable  []float64 `json:"manual_table,omitempty" yaml:"manual_table"`
}

// RawConfig is a configuration as read from an external settings record.
// Nil fields are absent. Numbers may be written as numeric strings.
type RawConfig struct {
	Mode         string   `json:"mode" yaml:"mode"`
	First        *Number  `json:"first" yaml:"first"`
	DecayPercent *Number  `json:"decay_percent" yaml:"decay_percent"`
	PodiumCount  *Number  `json:"podium_count" yaml:"podium_count"`
	ManualTable  []Number `json:"manual_table" yaml:"manual_table"`
}

// DefaultConfig is used when an event carries no points settings.
func DefaultConfig() Config {
	return Config{Mode: ModePercent, PodiumCount: defaultPodium}
}

// Normalize converts raw settings into a Config. It never fails: malformed
// values fall back to the defaults of DefaultConfig.
func Normalize(raw RawConfig) Config {
	cfg := DefaultConfig()
	if Mode(strings.ToLower(strings.TrimSpace(raw.Mode))) == ModeManual {
		cfg.Mode = ModeManual
	}
	if raw.First != nil && finite(raw.First.Float()) {
		cfg.First = raw.First.Float()
	}
	if raw.DecayPercent != nil && finite(raw.DecayPercent.Float()) {
		cfg.DecayPercent = raw.DecayPercent.Float()
	}
	if raw.PodiumCount != nil && finite(raw.PodiumCount.Float()) {
		cfg.PodiumCount = int(math.Trunc(raw.PodiumCount.Float()))
	}
	if len(raw.ManualTable) > 0 {
		cfg.ManualTable = make([]float64, len(raw.ManualTable))
		for i, v := range raw.ManualTable {
			cfg.ManualTable[i] = v.Float()
		}
	}
	return cfg.Sanitize()
}

// Sanitize clamps a Config into the range Build expects.
func (c Config) Sanitize() Config {
	if c.Mode != ModeManual {
		c.Mode = ModePercent
	}
	if !finite(c.First) {
		c.First = 0
	}
	if !finite(c.DecayPercent) || c.DecayPercent < 0 {
		c.DecayPercent = 0
	}
	if c.DecayPercent > maxDecay {
		c.DecayPercent = maxDecay
	}
	if c.PodiumCount < 0 {
		c.PodiumCount = 0
	}
	if len(c.ManualTable) > 0 {
		table := make([]float64, len(c.ManualTable))
		for i, v := range c.ManualTable {
			if finite(v) {
				table[i] = v
			}
		}
		c.ManualTable = table
	}
	return c
}

// Table holds points per rank; index 0 is rank 1.
type Table []int

// At returns the points at index i, or 0 outside the table.
func (t Table) At(i int) int {
	if i < 0 || i >= len(t) {
		return 0
	}
	return t[i]
}

// Build returns a table with count entries.
func Build(cfg Config, count int) Table {
	if count <= 0 {
		return Table{}
	}
	cfg = cfg.Sanitize()
	if cfg.Mode == ModeManual {
		return buildManual(cfg.ManualTable, count)
	}
	return buildPercent(cfg.First, cfg.DecayPercent, count)
}

func buildPercent(first, decayPercent float64, count int) Table {
	out := make(Table, count)
	factor := 1 - decayPercent/100
	current := first
	for i := range out {
		out[i] = nonNegative(RoundHalfUp(current))
		current *= factor
	}
	return out
}

func buildManual(table []float64, count int) Table {
	out := make(Table, count)
	for i := range out {
		if i < len(table) {
			out[i] = nonNegative(RoundHalfUp(table[i]))
		}
	}
	return out
}

// RoundHalfUp rounds to the nearest integer, halves towards +Inf.
func RoundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
