// Package camera provides a free-fly 3D camera for viewport control.
package camera

import (
	"math"

	"github.com/pthm-cable/broth/sim"
)

const (
	// DefaultMoveSpeed is the fly speed in world units per second.
	DefaultMoveSpeed = 5.0

	// DefaultRotateSpeed is the look speed in degrees per second.
	DefaultRotateSpeed = 90.0

	// pitchLimit keeps the view direction off the vertical axis so the
	// right vector stays well defined.
	pitchLimit = 89.9999
)

// Camera is a free-fly camera described by a position and pitch/yaw angles
// in degrees. Yaw 0, pitch 0 looks down +Z.
type Camera struct {
	Position sim.Vec3
	Up       sim.Vec3

	Pitch float32
	Yaw   float32

	MoveSpeed   float32
	RotateSpeed float32
}

// Axes is the camera's orthonormal basis derived from pitch and yaw.
type Axes struct {
	Forward sim.Vec3
	Right   sim.Vec3
	Up      sim.Vec3
}

// New creates a camera looking at the world origin from outside the
// domain cube along -Z.
func New(worldSize float32) *Camera {
	return &Camera{
		Position:    sim.Vec3{Z: -worldSize * 1.5},
		Up:          sim.Vec3{Y: 1},
		MoveSpeed:   DefaultMoveSpeed,
		RotateSpeed: DefaultRotateSpeed,
	}
}

// Axes returns the current view basis. Forward comes from the pitch/yaw
// angles; right and up are re-orthogonalized against the world up.
func (c *Camera) Axes() Axes {
	pitch := radians(c.Pitch)
	yaw := radians(-c.Yaw)

	forward := sim.Vec3{
		X: cos32(pitch) * sin32(yaw),
		Y: sin32(pitch),
		Z: cos32(pitch) * cos32(yaw),
	}.Normalize()
	right := forward.Cross(c.Up).Normalize()
	up := right.Cross(forward).Normalize()

	return Axes{Forward: forward, Right: right, Up: up}
}

// Target returns the point the camera looks at, one unit ahead.
func (c *Camera) Target() sim.Vec3 {
	return c.Position.Add(c.Axes().Forward)
}

// Move translates the camera along its own axes. Each argument is a
// signed input in [-1, 1]; dt is the frame time in seconds.
func (c *Camera) Move(forward, right, up float32, dt float32) {
	axes := c.Axes()
	step := c.MoveSpeed * dt
	c.Position = c.Position.
		Add(axes.Forward.Scale(forward * step)).
		Add(axes.Right.Scale(right * step)).
		Add(axes.Up.Scale(up * step))
}

// Rotate adjusts yaw and pitch by signed inputs in [-1, 1] scaled by the
// rotation speed. Pitch is clamped short of straight up/down.
func (c *Camera) Rotate(yaw, pitch float32, dt float32) {
	step := c.RotateSpeed * dt
	c.Yaw += yaw * step
	c.Pitch += pitch * step

	if c.Pitch > pitchLimit {
		c.Pitch = pitchLimit
	} else if c.Pitch < -pitchLimit {
		c.Pitch = -pitchLimit
	}
}

// Reset returns the camera to its starting pose outside the domain.
func (c *Camera) Reset(worldSize float32) {
	c.Position = sim.Vec3{Z: -worldSize * 1.5}
	c.Pitch = 0
	c.Yaw = 0
}

func radians(deg float32) float32 {
	return deg * math.Pi / 180
}

func cos32(x float32) float32 { return float32(math.Cos(float64(x))) }
func sin32(x float32) float32 { return float32(math.Sin(float64(x))) }
