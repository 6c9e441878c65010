package viewer

import (
	"github.com/charmbracelet/harmonica"

	"github.com/taigrr/hornview/pkg/math3d"
)

// RotationAxis tracks angle and angular velocity for one axis. Velocity
// decays toward zero through a critically damped spring.
type RotationAxis struct {
	Position  float64
	Velocity  float64
	velSpring harmonica.Spring
	velAccel  float64
}

// NewRotationAxis creates an axis whose spring steps at fps.
func NewRotationAxis(fps int) RotationAxis {
	return RotationAxis{
		// Frequency 4 with damping 1: moderate, no overshoot.
		velSpring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// Update advances one frame.
func (a *RotationAxis) Update() {
	a.Position += a.Velocity
	a.Velocity, a.velAccel = a.velSpring.Update(a.Velocity, a.velAccel, 0)
}

// Resting tilt of the model: 0.7 rad around the x=y diagonal.
const tiltAngle = 0.7

var tiltAxis = math3d.V3(0.707, 0.707, 0)

// RotationState is the model orientation driven by impulses, applied on
// top of a fixed tilt.
type RotationState struct {
	Pitch, Yaw, Roll RotationAxis
	Tilt             math3d.Mat4
	fps              int
}

// NewRotationState creates a resting orientation.
func NewRotationState(fps int) *RotationState {
	r := &RotationState{fps: fps, Tilt: math3d.Rotate(tiltAxis, tiltAngle)}
	r.Reset()
	return r
}

// Update advances all axes one frame.
func (r *RotationState) Update() {
	r.Pitch.Update()
	r.Yaw.Update()
	r.Roll.Update()
}

// ApplyImpulse adds angular velocity in radians per frame.
func (r *RotationState) ApplyImpulse(pitch, yaw, roll float64) {
	r.Pitch.Velocity += pitch
	r.Yaw.Velocity += yaw
	r.Roll.Velocity += roll
}

// Reset returns to the tilted initial orientation at rest.
func (r *RotationState) Reset() {
	r.Pitch = NewRotationAxis(r.fps)
	r.Yaw = NewRotationAxis(r.fps)
	r.Roll = NewRotationAxis(r.fps)
}

// Resting reports whether every axis has effectively stopped.
func (r *RotationState) Resting() bool {
	const eps = 1e-4
	return abs(r.Pitch.Velocity) < eps && abs(r.Yaw.Velocity) < eps && abs(r.Roll.Velocity) < eps
}

// Matrix returns the tilt followed by pitch, yaw and roll.
func (r *RotationState) Matrix() math3d.Mat4 {
	return math3d.RotateX(r.Pitch.Position).
		Mul(math3d.RotateY(r.Yaw.Position)).
		Mul(math3d.RotateZ(r.Roll.Position)).
		Mul(r.Tilt)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
