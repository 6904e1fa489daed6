package config

import "sort"

// Presets are tuned configurations per demo scene.
var Presets = map[string]*Config{
	"sphere-drop": {
		Scene: "sphere-drop", Dt: DefaultDt, Duration: 6.0, Substeps: 4,
	},
	"spring-pair": {
		Scene: "spring-pair", Dt: DefaultDt, Duration: 12.0, Substeps: 2,
	},
	"voxel-asteroid": {
		Scene: "voxel-asteroid", Dt: DefaultDt, Duration: 20.0, Substeps: 4,
		Meshing: MeshingConfig{Workers: 4, Synchronous: true},
	},
	"kinematic-carousel": {
		Scene: "kinematic-carousel", Dt: DefaultDt, Duration: 15.0, Substeps: 4,
	},
	"drag-tumble": {
		Scene: "drag-tumble", Dt: DefaultDt, Duration: 15.0, Substeps: 2,
		Medium: MediumConfig{MassDensity: 1.2},
	},
}

// GetPreset returns a copy of the named preset with unset fields filled
// from the defaults, or nil when unknown.
func GetPreset(name string) *Config {
	preset, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Scene = preset.Scene
	if preset.Dt > 0 {
		cfg.Dt = preset.Dt
	}
	if preset.Duration > 0 {
		cfg.Duration = preset.Duration
	}
	if preset.Substeps > 0 {
		cfg.Substeps = preset.Substeps
	}
	if preset.Medium.MassDensity > 0 {
		cfg.Medium = preset.Medium
	}
	if preset.Meshing.Workers > 0 {
		cfg.Meshing = preset.Meshing
	}
	return cfg
}

// ListPresets returns the preset names, sorted.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
