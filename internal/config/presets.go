package config

import "sort"

func f64(v float64) *float64 { return &v }

var Presets = map[string]map[string]*Config{
	"smoke": {
		"zero": {
			Order: 2, NX: 64, NY: 64, XCFL: 0.1, YCFL: 0.1, Iters: 10, Variant: "naive",
			Boundary: BoundaryConfig{Kind: "dirichlet"},
			Init:     InitConfig{Kind: "constant"},
		},
		"impulse": {
			Order: 2, NX: 64, NY: 64, XCFL: 0.25, YCFL: 0.25, Iters: 1, Variant: "naive",
			Boundary: BoundaryConfig{Kind: "dirichlet"},
			Init:     InitConfig{Kind: "impulse", X: 32, Y: 32, Value: 1},
		},
	},
	"physics": {
		"hotspot": {
			Order: 4, NX: 256, NY: 256, XCFL: 0.015, YCFL: 0.015, Iters: 500, Variant: "tiled",
			Boundary: BoundaryConfig{Kind: "dirichlet"},
			Init:     InitConfig{Kind: "gaussian", X: -1, Y: -1, Amplitude: 100, Sigma: 12},
		},
		"hot-wall": {
			Order: 2, NX: 128, NY: 128, XCFL: 0.2, YCFL: 0.2, Iters: 2000, Variant: "rowblocked",
			Boundary: BoundaryConfig{Kind: "dirichlet", Top: f64(100)},
			Init:     InitConfig{Kind: "constant"},
		},
		"insulated": {
			Order: 2, NX: 128, NY: 128, XCFL: 0.2, YCFL: 0.2, Iters: 1000, Variant: "naive",
			Boundary: BoundaryConfig{Kind: "neumann"},
			Init:     InitConfig{Kind: "random", Amplitude: 1, Seed: 7},
		},
		"torus": {
			Order: 8, NX: 128, NY: 96, XCFL: 0.00002, YCFL: 0.00002, Iters: 300, Variant: "tiled",
			Boundary: BoundaryConfig{Kind: "periodic"},
			Init:     InitConfig{Kind: "ramp-x", Value: 0, Amplitude: 0.01},
		},
	},
	"bench": {
		"small": {
			Order: 2, NX: 256, NY: 256, XCFL: 0.1, YCFL: 0.1, Iters: 100, Variant: "naive",
			Boundary: BoundaryConfig{Kind: "dirichlet"},
			Init:     InitConfig{Kind: "random", Amplitude: 1, Seed: 1},
		},
		"large": {
			Order: 8, NX: 1024, NY: 1024, XCFL: 0.00001, YCFL: 0.00001, Iters: 50, Variant: "tiled",
			Boundary: BoundaryConfig{Kind: "dirichlet"},
			Init:     InitConfig{Kind: "random", Amplitude: 1, Seed: 1},
		},
	},
}

// GetPreset returns a copy of the named preset with unset launch fields filled
// from the defaults, or nil if there is no such preset.
func GetPreset(group, preset string) *Config {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	cfg, ok := groupPresets[preset]
	if !ok {
		return nil
	}
	out := cfg.Clone()
	def := DefaultConfig()
	if out.Block.X == 0 && out.Block.Y == 0 {
		out.Block = def.Block
	}
	if out.RowsPerThread == 0 {
		out.RowsPerThread = def.RowsPerThread
	}
	if out.Init.Sigma == 0 {
		out.Init.Sigma = def.Init.Sigma
	}
	return out
}

func ListPresets(group string) []string {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(groupPresets))
	for name := range groupPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Groups() []string {
	groups := make([]string, 0, len(Presets))
	for g := range Presets {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}
