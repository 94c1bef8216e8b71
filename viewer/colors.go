package viewer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Palette returns one color per particle type, hues spaced evenly around
// the wheel.
func Palette(typeCount uint32) []rl.Color {
	colors := make([]rl.Color, typeCount)
	for i := range colors {
		hue := float32(i) / float32(typeCount) * 360
		colors[i] = rl.ColorFromHSV(hue, 1.0, 1.0)
	}
	return colors
}
