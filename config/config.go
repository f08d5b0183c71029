// Package config loads simulation settings and scenes from YAML files.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultWorkers   = 1
	DefaultCellSize  = 2.0
	DefaultCellCount = 4096
	DefaultGravityY  = -9.81
)

// FlushMode selects how new constraints found by the narrow phase workers are added to the store
type FlushMode string

const (
	// FlushSequential adds each worker's constraints in turn
	FlushSequential FlushMode = "sequential"
	// FlushSpeculative precomputes a solver batch for every new constraint before adding it
	FlushSpeculative FlushMode = "speculative"
	// FlushDeterministic adds constraints in pair order, independently of the worker count
	FlushDeterministic FlushMode = "deterministic"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Gravity   [3]float64  `yaml:"gravity"`
	Workers   int         `yaml:"workers"`
	CellSize  float64     `yaml:"cell_size"`
	CellCount int         `yaml:"cell_count"`
	FlushMode FlushMode   `yaml:"flush_mode"`
	Sweep     SweepConfig `yaml:"sweep"`
}

// SweepConfig overrides the thresholds sweeps derive from the query shape. Zero keeps the derived value.
type SweepConfig struct {
	MinimumProgression   float64 `yaml:"minimum_progression"`
	ConvergenceThreshold float64 `yaml:"convergence_threshold"`
	MaximumIterations    int     `yaml:"maximum_iterations"`
}

func DefaultConfig() *Config {
	return &Config{
		Gravity:   [3]float64{0, DefaultGravityY, 0},
		Workers:   DefaultWorkers,
		CellSize:  DefaultCellSize,
		CellCount: DefaultCellCount,
		FlushMode: FlushSequential,
	}
}

func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.CellSize <= 0 {
		return fmt.Errorf("%w: cell_size must be positive, got %g", ErrInvalidConfig, c.CellSize)
	}
	if c.CellCount < 1 {
		return fmt.Errorf("%w: cell_count must be positive, got %d", ErrInvalidConfig, c.CellCount)
	}
	switch c.FlushMode {
	case FlushSequential, FlushSpeculative, FlushDeterministic:
	default:
		return fmt.Errorf("%w: unknown flush_mode %q", ErrInvalidConfig, c.FlushMode)
	}
	if c.Sweep.MinimumProgression < 0 || c.Sweep.ConvergenceThreshold < 0 || c.Sweep.MaximumIterations < 0 {
		return fmt.Errorf("%w: sweep settings must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Load reads a config file. Missing fields keep their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
