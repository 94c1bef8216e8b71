// Package viewer renders the simulation in an interactive raylib window.
package viewer

import (
	"fmt"
	"math/rand"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/broth/camera"
	"github.com/pthm-cable/broth/config"
	"github.com/pthm-cable/broth/sim"
	"github.com/pthm-cable/broth/telemetry"
)

// maxTicksPerFrame bounds catch-up after a stall so the viewer does not
// spiral when a frame takes longer than several timesteps.
const maxTicksPerFrame = 4

// Viewer owns the window, camera, and input handling.
type Viewer struct {
	cfg    *config.Config
	sys    *sim.System
	perf   *telemetry.PerfCollector
	cam    *camera.Camera
	colors []rl.Color
	panel  ParamPanel
	rng    *rand.Rand

	paused bool
}

// New creates a viewer for the given system. The window is opened by Run.
func New(cfg *config.Config, sys *sim.System, perf *telemetry.PerfCollector, rng *rand.Rand) *Viewer {
	return &Viewer{
		cfg:    cfg,
		sys:    sys,
		perf:   perf,
		cam:    camera.New(cfg.Derived.WorldSize),
		colors: Palette(sys.TypeCount),
		rng:    rng,
	}
}

// Run opens the window and drives the render/update loop until the user
// closes it. step advances the simulation (and its telemetry) by one tick.
func (v *Viewer) Run(step func(dt float32)) {
	rl.InitWindow(int32(v.cfg.Screen.Width), int32(v.cfg.Screen.Height), "broth")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(v.cfg.Screen.TargetFPS))

	dt := v.cfg.Derived.DT32
	var accum float32
	var updateTime time.Duration

	for !rl.WindowShouldClose() {
		frameTime := rl.GetFrameTime()

		v.handleInput(frameTime)

		if !v.paused {
			accum += frameTime
			start := time.Now()
			for ticks := 0; accum >= dt && ticks < maxTicksPerFrame; ticks++ {
				step(dt)
				accum -= dt
			}
			if accum > float32(maxTicksPerFrame)*dt {
				accum = 0 // stalled; drop the backlog
			}
			updateTime = time.Since(start)
		}

		v.draw(frameTime, updateTime)
		v.perf.RecordFrame()
	}
}

func (v *Viewer) handleInput(frameTime float32) {
	var forward, right, up float32
	if rl.IsKeyDown(rl.KeyW) {
		forward++
	}
	if rl.IsKeyDown(rl.KeyS) {
		forward--
	}
	if rl.IsKeyDown(rl.KeyD) {
		right++
	}
	if rl.IsKeyDown(rl.KeyA) {
		right--
	}
	if rl.IsKeyDown(rl.KeyE) {
		up++
	}
	if rl.IsKeyDown(rl.KeyQ) {
		up--
	}
	if forward != 0 || right != 0 || up != 0 {
		v.cam.Move(forward, right, up, frameTime)
	}

	var yaw, pitch float32
	if rl.IsKeyDown(rl.KeyRight) {
		yaw++
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		yaw--
	}
	if rl.IsKeyDown(rl.KeyUp) {
		pitch++
	}
	if rl.IsKeyDown(rl.KeyDown) {
		pitch--
	}
	if yaw != 0 || pitch != 0 {
		v.cam.Rotate(yaw, pitch, frameTime)
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		v.paused = !v.paused
	}
	if rl.IsKeyPressed(rl.KeyR) {
		v.sys.RandomizeMatrix(v.rng)
	}
	if rl.IsKeyPressed(rl.KeyC) {
		v.cam.Reset(v.cfg.Derived.WorldSize)
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		v.panel.Toggle()
	}
}

func (v *Viewer) draw(frameTime float32, updateTime time.Duration) {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 26, G: 26, B: 26, A: 255})

	rl.BeginMode3D(v.rlCamera())

	worldSize := v.cfg.Derived.WorldSize
	rl.DrawCubeWires(rl.Vector3{}, worldSize, worldSize, worldSize, rl.White)
	if v.cfg.Viewer.ShowGrid {
		rl.DrawGrid(10, worldSize/10)
	}

	radius := float32(v.cfg.Viewer.ParticleRadius)
	for _, p := range v.sys.Particles() {
		rl.DrawSphere(rlVec(p.Pos), radius, v.colors[p.Type%uint32(len(v.colors))])
	}

	rl.EndMode3D()

	v.drawHUD(frameTime, updateTime)
	v.panel.Draw(int32(v.cfg.Screen.Width), v.sys, v.rng)

	rl.EndDrawing()
}

func (v *Viewer) drawHUD(frameTime float32, updateTime time.Duration) {
	fps := float32(0)
	if frameTime > 0 {
		fps = 1 / frameTime
	}

	rl.DrawText(fmt.Sprintf("FPS: %.1f", fps), 5, 16, 16, rl.White)
	rl.DrawText(fmt.Sprintf("Frame Time: %.3fms", frameTime*1000), 5, 32, 16, rl.White)
	rl.DrawText(fmt.Sprintf("Update Time: %.3fms", float64(updateTime.Microseconds())/1000), 5, 48, 16, rl.White)
	rl.DrawText(fmt.Sprintf("Tick: %d | Particles: %d", v.sys.Tick(), len(v.sys.Particles())), 5, 64, 16, rl.LightGray)

	if v.paused {
		rl.DrawText("PAUSED", 5, 84, 16, rl.Yellow)
	}

	rl.DrawText("WASD/QE fly | arrows look | Space pause | R randomize | Tab panel | C reset cam",
		5, int32(v.cfg.Screen.Height)-25, 14, rl.Gray)
}

func (v *Viewer) rlCamera() rl.Camera3D {
	target := v.cam.Target()
	return rl.Camera3D{
		Position:   rlVec(v.cam.Position),
		Target:     rlVec(target),
		Up:         rlVec(v.cam.Up),
		Fovy:       45,
		Projection: rl.CameraPerspective,
	}
}

func rlVec(v sim.Vec3) rl.Vector3 {
	return rl.Vector3{X: v.X, Y: v.Y, Z: v.Z}
}
