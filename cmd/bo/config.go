package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/thalesfsp/bo"
	"gopkg.in/yaml.v3"
)

// errInvalidRunConfig is returned when a run configuration is rejected.
var errInvalidRunConfig = errors.New("invalid run configuration")

// runConfig is the configuration of the run command. Values come from
// defaults, then the YAML file given by --config, then flags.
type runConfig struct {
	// Function is the name of a registered test function.
	Function string `yaml:"function"`

	// Ranges overrides the function's default search box.
	Ranges []bo.ParameterRange[float64] `yaml:"ranges"`

	// Start overrides the start point. Defaults to the center of the box.
	Start []float64 `yaml:"start"`

	Warmup      int            `yaml:"warmup"`
	Iterations  int            `yaml:"iterations"`
	Gradient    gradientConfig `yaml:"gradient"`
	Bandwidth   float64        `yaml:"bandwidth"`
	Noise       float64        `yaml:"noise"`
	Seed        uint64         `yaml:"seed"`
	Acquisition string         `yaml:"acquisition"`

	// Xi is the improvement margin of "pi".
	Xi float64 `yaml:"xi"`

	// Beta is the exploration weight of "lcb".
	Beta float64 `yaml:"beta"`

	Snapshot    snapshotConfig `yaml:"snapshot"`
	MetricsAddr string         `yaml:"metrics_addr"`
	LogLevel    string         `yaml:"log_level"`
	Progress    bool           `yaml:"progress"`
}

type gradientConfig struct {
	MaxSteps int     `yaml:"max_steps"`
	Rate     float64 `yaml:"rate"`
	Eps      float64 `yaml:"eps"`
}

type snapshotConfig struct {
	// Path of the JSON Lines output. Empty disables snapshots.
	Path string `yaml:"path"`

	// Grid adds model surfaces to each snapshot of a 2-D problem.
	Grid *bo.Grid[float64] `yaml:"grid"`
}

// acquisitions lists the accepted values of runConfig.Acquisition.
var acquisitions = []string{"ei", "pi", "lcb"}

// defaultRunConfig mirrors the settings of the Branin benchmark.
func defaultRunConfig() runConfig {
	g := bo.DefaultGradientConfig[float64]()

	return runConfig{
		Function:    "branin",
		Warmup:      30,
		Iterations:  50,
		Gradient:    gradientConfig{MaxSteps: g.MaxSteps, Rate: g.Rate, Eps: g.Eps},
		Bandwidth:   2,
		Noise:       1e-3,
		Acquisition: "ei",
		Xi:          0.01,
		Beta:        2,
		LogLevel:    "info",
	}
}

// loadRunConfig reads a YAML file on top of base. Keys absent from the file
// keep their value in base.
func loadRunConfig(path string, base runConfig) (runConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read config: %w", err)
	}

	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the values the core does not validate itself.
func (c runConfig) Validate() error {
	fn, ok := lookupFunction(c.Function)
	if !ok {
		return fmt.Errorf("unknown function %q (see 'bo functions'): %w", c.Function, errInvalidRunConfig)
	}

	if c.Ranges != nil && fn.dim != 0 && len(c.Ranges) != fn.dim {
		return fmt.Errorf("function %s takes %d dimensions, got %d ranges: %w",
			c.Function, fn.dim, len(c.Ranges), errInvalidRunConfig)
	}

	if !slices.Contains(acquisitions, c.Acquisition) {
		return fmt.Errorf("unknown acquisition %q, want one of %v: %w", c.Acquisition, acquisitions, errInvalidRunConfig)
	}

	if _, err := c.level(); err != nil {
		return fmt.Errorf("log level %q: %w", c.LogLevel, errInvalidRunConfig)
	}

	return nil
}

// ranges returns the search box: the configured ranges or the function's.
func (c runConfig) ranges() []bo.ParameterRange[float64] {
	if c.Ranges != nil {
		return c.Ranges
	}

	fn, _ := lookupFunction(c.Function)

	return fn.ranges
}

func (c runConfig) level() (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(c.LogLevel))

	return level, err
}

// optimizerConfig converts c into the library configuration. Observers,
// progress channel and logger are left to the caller.
func (c runConfig) optimizerConfig() bo.Config[float64] {
	config := bo.DefaultConfig[float64]()
	config.InitialSamples = c.Warmup
	config.Iterations = c.Iterations
	config.Gradient = bo.GradientConfig[float64]{
		MaxSteps: c.Gradient.MaxSteps,
		Rate:     c.Gradient.Rate,
		Eps:      c.Gradient.Eps,
	}
	config.Bandwidth = c.Bandwidth
	config.Noise = c.Noise
	config.Start = c.Start
	config.Seed = c.Seed

	switch c.Acquisition {
	case "pi":
		config.AcquisitionFunc = bo.ProbabilityOfImprovement(c.Xi)
	case "lcb":
		config.AcquisitionFunc = bo.LowerConfidenceBound(c.Beta)
	default:
		config.AcquisitionFunc = bo.NewExpectedImprovement[float64]
	}

	return config
}
