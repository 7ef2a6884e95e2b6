// Package config loads findiff CLI and server settings.
//
// Sources are merged in increasing precedence: built-in defaults, a YAML
// file (findiff.yaml in the working directory, or --config), FINDIFF_
// environment variables, and flags that were set explicitly.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/alexshd/findiff"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "FINDIFF_"

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

// Config holds every setting of the findiff binary.
type Config struct {
	LogLevel  string          `koanf:"log_level"`
	Output    string          `koanf:"output"`
	Stencil   StencilConfig   `koanf:"stencil"`
	Bandwidth BandwidthConfig `koanf:"bandwidth"`
	Sweep     SweepConfig     `koanf:"sweep"`
	Server    ServerConfig    `koanf:"server"`

	// File is the config file that was read, if any.
	File string `koanf:"-"`
}

// StencilConfig selects a stencil.
type StencilConfig struct {
	Kind            string `koanf:"kind"`
	DerivativeOrder int    `koanf:"derivative_order"`
	ErrorOrder      int    `koanf:"error_order"`
}

// BandwidthConfig selects a width strategy and its parameters.
type BandwidthConfig struct {
	Strategy       string  `koanf:"strategy"`
	Width          float64 `koanf:"width"`
	TrialWidth     float64 `koanf:"trial_width"`
	ConditionError float64 `koanf:"condition_error"`
	RoundoffError  float64 `koanf:"roundoff_error"`
	PowerOfTwo     bool    `koanf:"power_of_two"`
}

// SweepConfig holds accuracy sweep settings.
type SweepConfig struct {
	Start   float64 `koanf:"start"`
	End     float64 `koanf:"end"`
	Steps   int     `koanf:"steps"`
	Workers int     `koanf:"workers"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// defaults mirrors findiff.DefaultSweepConfig and DefaultStepOptions.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"log_level":                 "info",
		"output":                    OutputTable,
		"stencil.kind":              "central",
		"stencil.derivative_order":  1,
		"stencil.error_order":       4,
		"bandwidth.strategy":        "optimal",
		"bandwidth.width":           0.0,
		"bandwidth.trial_width":     0.0,
		"bandwidth.condition_error": findiff.MachineEpsilon,
		"bandwidth.roundoff_error":  findiff.MachineEpsilon,
		"bandwidth.power_of_two":    true,
		"sweep.start":               0.0,
		"sweep.end":                 1.0,
		"sweep.steps":               1000,
		"sweep.workers":             0,
		"server.addr":               ":8080",
	}
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"log-level":        "log_level",
	"output":           "output",
	"kind":             "stencil.kind",
	"derivative-order": "stencil.derivative_order",
	"error-order":      "stencil.error_order",
	"bandwidth":        "bandwidth.strategy",
	"width":            "bandwidth.width",
	"trial-width":      "bandwidth.trial_width",
	"power-of-two":     "bandwidth.power_of_two",
	"start":            "sweep.start",
	"end":              "sweep.end",
	"steps":            "sweep.steps",
	"workers":          "sweep.workers",
	"addr":             "server.addr",
}

var sections = []string{"stencil", "bandwidth", "sweep", "server"}

// envKey maps FINDIFF_BANDWIDTH_TRIAL_WIDTH to bandwidth.trial_width.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, section := range sections {
		if strings.HasPrefix(key, section+"_") {
			return section + "." + strings.TrimPrefix(key, section+"_")
		}
	}
	return key
}

// findConfigFile returns explicit, or findiff.yaml / findiff.yml if present.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"findiff.yaml", "findiff.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load merges every source into a Config. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = used

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that do not map onto library values.
func (c *Config) Validate() error {
	switch c.Output {
	case OutputTable, OutputJSON:
	default:
		return fmt.Errorf("invalid output format %q (want %s or %s)", c.Output, OutputTable, OutputJSON)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Sweep.Steps < 1 {
		return fmt.Errorf("sweep.steps must be at least 1, got %d", c.Sweep.Steps)
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// StencilValue returns the configured stencil.
func (c *Config) StencilValue() (findiff.Stencil, error) {
	return c.Stencil.Value()
}

// Value converts s to a findiff.Stencil.
func (s StencilConfig) Value() (findiff.Stencil, error) {
	kind, err := findiff.ParseKind(s.Kind)
	if err != nil {
		return findiff.Stencil{}, err
	}
	return findiff.NewStencil(kind, s.DerivativeOrder, s.ErrorOrder)
}

// BandwidthValue returns the configured bandwidth.
func (c *Config) BandwidthValue() (findiff.Bandwidth, error) {
	return c.Bandwidth.Value()
}

// Value converts b to a validated findiff.Bandwidth.
func (b BandwidthConfig) Value() (findiff.Bandwidth, error) {
	strategy, err := findiff.ParseStrategy(b.Strategy)
	if err != nil {
		return findiff.Bandwidth{}, err
	}

	var bw findiff.Bandwidth
	switch strategy {
	case findiff.Fixed:
		bw = findiff.FixedBandwidth(b.Width)
	case findiff.RuleOfThumb:
		bw = findiff.RuleOfThumbBandwidth(b.PowerOfTwo)
	default:
		bw = findiff.OptimalBandwidth(findiff.StepOptions{
			TrialWidth:     b.TrialWidth,
			ConditionError: b.ConditionError,
			RoundoffError:  b.RoundoffError,
			UsePowerOfTwo:  b.PowerOfTwo,
		})
	}
	if err := bw.Validate(); err != nil {
		return findiff.Bandwidth{}, err
	}
	return bw, nil
}

// SweepValue returns a findiff.SweepConfig built from every section.
func (c *Config) SweepValue() (findiff.SweepConfig, error) {
	s, err := c.StencilValue()
	if err != nil {
		return findiff.SweepConfig{}, err
	}
	bw, err := c.BandwidthValue()
	if err != nil {
		return findiff.SweepConfig{}, err
	}
	return findiff.SweepConfig{
		Start:     c.Sweep.Start,
		End:       c.Sweep.End,
		Steps:     c.Sweep.Steps,
		Workers:   c.Sweep.Workers,
		Stencil:   s,
		Bandwidth: bw,
	}, nil
}
