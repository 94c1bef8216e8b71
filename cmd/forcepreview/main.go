// Force law preview tool - interactive visualization with sliders.
//
// Usage: go run ./cmd/forcepreview
package main

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/broth/sim"
)

const (
	windowWidth  = 900
	windowHeight = 600
	plotSize     = 512
	panelWidth   = windowWidth - plotSize - 40
)

func main() {
	rl.InitWindow(windowWidth, windowHeight, "Force Law Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	beta := float32(sim.DefaultBeta)
	attraction := float32(1.0)

	for !rl.WindowShouldClose() {
		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		drawPlot(10, 10, beta, attraction)

		// Control panel
		panelX := float32(plotSize + 30)
		panelY := float32(10)

		rl.DrawText("Force Law Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 40

		rl.DrawText("Beta (repulsion range)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		beta = gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 70), Height: 20},
			"0.01", "0.95",
			beta, 0.01, 0.95,
		)
		rl.DrawText(fmt.Sprintf("%.2f", beta), int32(panelX+float32(panelWidth-60)), int32(panelY+2), 16, rl.DarkGray)
		panelY += 40

		rl.DrawText("Attraction", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		attraction = gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 70), Height: 20},
			"-1.0", "1.0",
			attraction, -1.0, 1.0,
		)
		rl.DrawText(fmt.Sprintf("%.2f", attraction), int32(panelX+float32(panelWidth-60)), int32(panelY+2), 16, rl.DarkGray)
		panelY += 40

		rl.DrawText("x axis: normalized distance r in [0, 1]", int32(panelX), int32(panelY), 12, rl.Gray)
		panelY += 16
		rl.DrawText("y axis: force (negative = repulsion)", int32(panelX), int32(panelY), 12, rl.Gray)

		rl.EndDrawing()
	}
}

// drawPlot renders f(r) over r in [0, 1] with axes. Force values are
// mapped so -1 sits at the bottom and +1 at the top of the plot.
func drawPlot(x, y int32, beta, attraction float32) {
	rl.DrawRectangleLines(x, y, plotSize, plotSize, rl.DarkGray)

	// Zero-force line and beta marker
	zeroY := y + plotSize/2
	rl.DrawLine(x, zeroY, x+plotSize, zeroY, rl.LightGray)
	betaX := x + int32(beta*plotSize)
	rl.DrawLine(betaX, y, betaX, y+plotSize, rl.Color{R: 200, G: 200, B: 255, A: 255})

	toScreen := func(r, f float32) (int32, int32) {
		// clamp so extreme repulsion near r=0 stays on the plot
		if f > 1 {
			f = 1
		}
		if f < -1 {
			f = -1
		}
		return x + int32(r*plotSize), y + plotSize/2 - int32(f*plotSize/2)
	}

	prevX, prevY := toScreen(0, -1)
	for i := 1; i <= plotSize; i++ {
		r := float32(i) / plotSize
		f := sim.ForceLaw(r, attraction, beta)
		px, py := toScreen(r, f)
		rl.DrawLine(prevX, prevY, px, py, rl.Red)
		prevX, prevY = px, py
	}

	rl.DrawText("0", x-8, zeroY-6, 12, rl.Gray)
	rl.DrawText("beta", betaX+3, y+4, 12, rl.Gray)
	rl.DrawText("r=1", x+plotSize-24, zeroY+6, 12, rl.Gray)
}
