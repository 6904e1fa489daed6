package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Scene != "sphere-drop" {
		t.Errorf("expected scene sphere-drop, got %s", cfg.Scene)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidateRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"negative duration", func(c *Config) { c.Duration = -1 }},
		{"zero substeps", func(c *Config) { c.Substeps = 0 }},
		{"zero solver iterations", func(c *Config) { c.Solver.Iterations = 0 }},
		{"zero mesh workers", func(c *Config) { c.Meshing.Workers = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Scene = "voxel-asteroid"
	cfg.Substeps = 8
	cfg.Solver.Iterations = 12
	cfg.Gravity = [3]float64{0, -3.7, 0}

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Scene != "voxel-asteroid" {
		t.Errorf("scene = %s", loaded.Scene)
	}
	if loaded.Substeps != 8 {
		t.Errorf("substeps = %d", loaded.Substeps)
	}
	if loaded.Solver.Iterations != 12 {
		t.Errorf("solver iterations = %d", loaded.Solver.Iterations)
	}
	if loaded.Gravity[1] != -3.7 {
		t.Errorf("gravity = %v", loaded.Gravity)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("voxel-asteroid")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Scene != "voxel-asteroid" {
		t.Errorf("scene = %s", cfg.Scene)
	}
	if cfg.Meshing.Workers != 4 {
		t.Errorf("meshing workers = %d, want 4", cfg.Meshing.Workers)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("preset invalid: %v", err)
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets()
	if len(presets) == 0 {
		t.Fatal("expected presets")
	}
	for i := 1; i < len(presets); i++ {
		if presets[i-1] >= presets[i] {
			t.Errorf("presets not sorted: %v", presets)
		}
	}
	for _, name := range presets {
		if GetPreset(name) == nil {
			t.Errorf("listed preset %s not retrievable", name)
		}
	}
}
