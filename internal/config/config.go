// Package config holds the YAML-backed simulation settings shared by the
// CLI and the scene presets.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"voxelsim/internal/solver"
)

const (
	DefaultDt       = 1.0 / 60.0
	DefaultDuration = 10.0
	DefaultSubsteps = 4
	DefaultGravityY = -9.81
	DefaultWorkers  = 2
)

// Config is the full simulation configuration.
type Config struct {
	Scene    string  `yaml:"scene"`
	Dt       float64 `yaml:"dt"`
	Duration float64 `yaml:"duration"`
	Substeps int     `yaml:"substeps"`
	Seed     int64   `yaml:"seed"`

	Gravity [3]float64    `yaml:"gravity"`
	Medium  MediumConfig  `yaml:"medium"`
	Solver  solver.Config `yaml:"solver"`
	Meshing MeshingConfig `yaml:"meshing"`
}

// MediumConfig describes the fluid the bodies move through.
type MediumConfig struct {
	MassDensity float64    `yaml:"mass_density"`
	Velocity    [3]float64 `yaml:"velocity"`
}

// MeshingConfig controls voxel surface remeshing.
type MeshingConfig struct {
	Workers     int  `yaml:"workers"`
	Synchronous bool `yaml:"synchronous"`
}

// DefaultConfig returns the standard settings.
func DefaultConfig() *Config {
	return &Config{
		Scene:    "sphere-drop",
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		Substeps: DefaultSubsteps,
		Gravity:  [3]float64{0, DefaultGravityY, 0},
		Solver:   solver.DefaultConfig(),
		Meshing: MeshingConfig{
			Workers:     DefaultWorkers,
			Synchronous: true,
		},
	}
}

// Load reads a config file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects settings the simulation cannot run with.
func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %v", c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", c.Duration)
	}
	if c.Substeps < 1 {
		return fmt.Errorf("substeps must be at least 1, got %d", c.Substeps)
	}
	if c.Solver.Iterations < 1 {
		return fmt.Errorf("solver iterations must be at least 1, got %d", c.Solver.Iterations)
	}
	if c.Meshing.Workers < 1 {
		return fmt.Errorf("meshing workers must be at least 1, got %d", c.Meshing.Workers)
	}
	return nil
}
