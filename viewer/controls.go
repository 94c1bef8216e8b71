package viewer

import (
	"fmt"
	"log/slog"
	"math/rand"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/broth/sim"
)

const (
	panelWidth   = 280
	panelPadding = 10
	rowHeight    = 20
	rowGap       = 35

	// matrixPath is where the panel's save/load buttons persist the
	// attraction matrix.
	matrixPath = "matrix.json"
)

// ParamPanel renders the tunable-parameter panel and applies slider
// changes back to the running system between ticks.
type ParamPanel struct {
	visible bool
}

// Toggle switches panel visibility and returns the new state.
func (p *ParamPanel) Toggle() bool {
	p.visible = !p.visible
	return p.visible
}

// IsVisible returns whether the panel is shown.
func (p *ParamPanel) IsVisible() bool {
	return p.visible
}

// Draw renders the panel on the right edge of the screen. Returns true if
// the attraction matrix was randomized this frame.
func (p *ParamPanel) Draw(screenWidth int32, sys *sim.System, rng *rand.Rand) bool {
	if !p.visible {
		return false
	}

	x := float32(screenWidth - panelWidth - panelPadding)
	y := float32(panelPadding)

	rl.DrawRectangle(int32(x)-panelPadding, 0, panelWidth+2*panelPadding, 380, rl.Color{R: 20, G: 20, B: 20, A: 200})

	rl.DrawText("Parameters", int32(x), int32(y), 20, rl.White)
	y += 30

	y = p.slider(x, y, "Force scale", &sys.ForceScale, 0, 5)
	y = p.slider(x, y, "Friction half time", &sys.FrictionHalfTime, 0.01, 50)
	y = p.slider(x, y, "Beta", &sys.Beta, 0.01, 0.95)
	y = p.slider(x, y, "Effect radius", &sys.EffectRadius, 0.1, sys.WorldSize/2)

	randomized := false
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: panelWidth - 60, Height: 24}, "Randomize matrix") {
		sys.RandomizeMatrix(rng)
		randomized = true
	}
	y += 32

	half := float32(panelWidth-60-6) / 2
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 24}, "Save matrix") {
		if err := sys.SaveMatrix(matrixPath); err != nil {
			slog.Warn("matrix save failed", "path", matrixPath, "err", err)
		}
	}
	if gui.Button(rl.Rectangle{X: x + half + 6, Y: y, Width: half, Height: 24}, "Load matrix") {
		if err := sys.LoadMatrix(matrixPath); err != nil {
			slog.Warn("matrix load failed", "path", matrixPath, "err", err)
		}
	}

	return randomized
}

func (p *ParamPanel) slider(x, y float32, label string, value *float32, min, max float32) float32 {
	rl.DrawText(label, int32(x), int32(y), 14, rl.Gray)
	y += 16

	next := gui.SliderBar(
		rl.Rectangle{X: x, Y: y, Width: panelWidth - 60, Height: rowHeight},
		"", "",
		*value, min, max,
	)
	rl.DrawText(fmt.Sprintf("%.2f", *value), int32(x+panelWidth-50), int32(y+2), 16, rl.LightGray)
	*value = next

	return y + rowGap - 16
}
