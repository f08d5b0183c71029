package actor

import "github.com/go-gl/mathgl/mgl64"

// Transform represents a position and orientation in 3D space (a pose)
type Transform struct {
	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	InverseRotation mgl64.Quat
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position:        mgl64.Vec3{0, 0, 0},
		Rotation:        mgl64.QuatIdent(),
		InverseRotation: mgl64.QuatIdent(),
	}
}

// NewTransformAt creates a transform at the given position and orientation
func NewTransformAt(position mgl64.Vec3, rotation mgl64.Quat) Transform {
	rotation = rotation.Normalize()
	return Transform{
		Position:        position,
		Rotation:        rotation,
		InverseRotation: rotation.Conjugate(),
	}
}

// TransformPoint maps a point from local space to world space
func (t Transform) TransformPoint(local mgl64.Vec3) mgl64.Vec3 {
	return t.Position.Add(t.Rotation.Rotate(local))
}

// InverseTransformPoint maps a point from world space to local space
func (t Transform) InverseTransformPoint(world mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Conjugate().Rotate(world.Sub(t.Position))
}

// Compose returns the world transform of a child expressed in t's local space
func (t Transform) Compose(child Transform) Transform {
	return NewTransformAt(t.TransformPoint(child.Position), t.Rotation.Mul(child.Rotation))
}

// Integrate returns the pose reached after moving with the given velocity for dt
func (t Transform) Integrate(velocity BodyVelocity, dt float64) Transform {
	position := t.Position.Add(velocity.Linear.Mul(dt))

	angularSpeed := velocity.Angular.Len()
	if angularSpeed < 1e-12 {
		return NewTransformAt(position, t.Rotation)
	}

	axis := velocity.Angular.Mul(1.0 / angularSpeed)
	delta := mgl64.QuatRotate(angularSpeed*dt, axis)
	return NewTransformAt(position, delta.Mul(t.Rotation))
}

// BodyVelocity groups the linear and angular velocity of a body
type BodyVelocity struct {
	Linear  mgl64.Vec3 // m/s
	Angular mgl64.Vec3 // rad/s
}
