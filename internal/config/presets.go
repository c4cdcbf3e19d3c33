package config

import "sort"

// Presets are material feels. "paper" is the default heavy-paper tuning.
var Presets = map[string]*MaterialConfig{
	"paper": {
		Restitution: DefaultRestitution, Friction: DefaultFriction, AirFriction: DefaultAirFriction,
		Density: DefaultDensity, ChamferRatio: DefaultChamferRatio, MaxTilt: DefaultMaxTilt,
	},
	"rubber": {
		Restitution: 0.8, Friction: 0.9, AirFriction: 0.01,
		Density: 0.0015, ChamferRatio: 0.25, MaxTilt: 0.1,
	},
	"feather": {
		Restitution: 0.1, Friction: 0.3, AirFriction: 0.2,
		Density: 0.0005, ChamferRatio: 0.1, MaxTilt: 0.3,
	},
	"lead": {
		Restitution: 0.0, Friction: 0.8, AirFriction: 0.01,
		Density: 0.01, ChamferRatio: 0.05, MaxTilt: 0.02,
	},
}

func GetPreset(name string) *MaterialConfig {
	m, ok := Presets[name]
	if !ok {
		return nil
	}
	cp := *m
	return &cp
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
