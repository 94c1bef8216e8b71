package camera

import (
	"math"
	"testing"

	"github.com/pthm-cable/broth/sim"
)

func TestNew(t *testing.T) {
	cam := New(10)

	if cam.Position.Z != -15 {
		t.Errorf("expected camera at z=-15, got %f", cam.Position.Z)
	}
	if cam.Up != (sim.Vec3{Y: 1}) {
		t.Errorf("expected world up (0,1,0), got %v", cam.Up)
	}
}

func TestAxesDefaultLooksDownZ(t *testing.T) {
	cam := New(10)
	axes := cam.Axes()

	if !vecClose(axes.Forward, sim.Vec3{Z: 1}) {
		t.Errorf("expected forward (0,0,1), got %v", axes.Forward)
	}
	if !vecClose(axes.Up, sim.Vec3{Y: 1}) {
		t.Errorf("expected up (0,1,0), got %v", axes.Up)
	}
}

func TestAxesOrthonormal(t *testing.T) {
	cam := New(10)
	cam.Yaw = 37
	cam.Pitch = -21

	axes := cam.Axes()

	for name, v := range map[string]sim.Vec3{
		"forward": axes.Forward,
		"right":   axes.Right,
		"up":      axes.Up,
	} {
		if math.Abs(float64(v.Length()-1)) > 1e-5 {
			t.Errorf("%s not unit length: %f", name, v.Length())
		}
	}

	if d := axes.Forward.Dot(axes.Right); math.Abs(float64(d)) > 1e-5 {
		t.Errorf("forward.right = %f, want 0", d)
	}
	if d := axes.Forward.Dot(axes.Up); math.Abs(float64(d)) > 1e-5 {
		t.Errorf("forward.up = %f, want 0", d)
	}
	if d := axes.Right.Dot(axes.Up); math.Abs(float64(d)) > 1e-5 {
		t.Errorf("right.up = %f, want 0", d)
	}
}

func TestRotateClampsPitch(t *testing.T) {
	cam := New(10)

	// Pitch hard up for far longer than needed to hit the limit
	for i := 0; i < 100; i++ {
		cam.Rotate(0, 1, 0.1)
	}
	if cam.Pitch > 89.9999 {
		t.Errorf("pitch %f exceeds clamp", cam.Pitch)
	}

	for i := 0; i < 200; i++ {
		cam.Rotate(0, -1, 0.1)
	}
	if cam.Pitch < -89.9999 {
		t.Errorf("pitch %f exceeds negative clamp", cam.Pitch)
	}
}

func TestMoveForward(t *testing.T) {
	cam := New(10)

	cam.Move(1, 0, 0, 1.0)

	// Default pose moves along +Z at MoveSpeed
	want := sim.Vec3{Z: -15 + DefaultMoveSpeed}
	if !vecClose(cam.Position, want) {
		t.Errorf("position = %v, want %v", cam.Position, want)
	}
}

func TestMoveRightAfterYaw(t *testing.T) {
	cam := New(10)
	cam.Yaw = 90 // now facing -X, so right is +... check via axes

	axes := cam.Axes()
	start := cam.Position
	cam.Move(0, 1, 0, 1.0)

	want := start.Add(axes.Right.Scale(DefaultMoveSpeed))
	if !vecClose(cam.Position, want) {
		t.Errorf("position = %v, want %v", cam.Position, want)
	}
}

func TestReset(t *testing.T) {
	cam := New(10)
	cam.Move(1, 1, 1, 2)
	cam.Rotate(1, 1, 1)

	cam.Reset(10)

	if !vecClose(cam.Position, sim.Vec3{Z: -15}) {
		t.Errorf("position = %v after reset", cam.Position)
	}
	if cam.Pitch != 0 || cam.Yaw != 0 {
		t.Errorf("angles = (%f, %f) after reset, want zero", cam.Pitch, cam.Yaw)
	}
}

func vecClose(a, b sim.Vec3) bool {
	const eps = 1e-5
	return math.Abs(float64(a.X-b.X)) < eps &&
		math.Abs(float64(a.Y-b.Y)) < eps &&
		math.Abs(float64(a.Z-b.Z)) < eps
}
