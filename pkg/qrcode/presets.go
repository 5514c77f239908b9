package qr

import "sort"

// Presets are named option sets offered to clients. Logo data is never part
// of a preset.
var Presets = map[string]Options{
	"classic": DefaultOptions(),
	"midnight": {
		SizePx:          512,
		Foreground:      "#e6e6e6",
		Background:      "#141414",
		CornerRadiusPx:  2,
		MarginModules:   1,
		ErrorCorrection: ECLevelH,
	},
	"rounded": {
		SizePx:          400,
		Foreground:      "#1f2937",
		Background:      "#ffffff",
		CornerRadiusPx:  4,
		MarginModules:   2,
		ErrorCorrection: ECLevelQ,
	},
}

// Preset returns a copy of the named preset.
func Preset(name string) (Options, bool) {
	opts, ok := Presets[name]
	return opts, ok
}

// PresetNames lists the presets in a stable order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
