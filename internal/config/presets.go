package config

import "sort"

// Presets are named ready-to-run configurations per scenario.
var Presets = map[string]map[string]*Config{
	"well": {
		"default": presetWell(5000, 1e-10),
		"long":    presetWell(20000, 1e-10),
		"coarse":  presetWellNodes(11, 5000),
	},
	"box": {
		"default":   presetBox(400, "reflective"),
		"absorbing": presetBox(400, "absorbing"),
		"short":     presetBox(50, "reflective"),
	},
}

func presetWell(steps int, dt float64) *Config {
	cfg := DefaultConfig()
	cfg.Scenario = "well"
	cfg.Steps = steps
	cfg.Dt = dt
	return cfg
}

func presetWellNodes(nodes, steps int) *Config {
	cfg := presetWell(steps, 1e-10)
	cfg.Well.Nodes = nodes
	return cfg
}

func presetBox(steps int, walls string) *Config {
	cfg := DefaultConfig()
	cfg.Scenario = "box"
	cfg.Steps = steps
	cfg.Dt = 2e-10
	cfg.SnapshotEvery = 25
	cfg.Box.Walls = walls
	return cfg
}

func GetPreset(scenarioName, preset string) *Config {
	presets, ok := Presets[scenarioName]
	if !ok {
		return nil
	}
	cfg, ok := presets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(scenarioName string) []string {
	presets, ok := Presets[scenarioName]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
