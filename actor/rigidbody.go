package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type Material struct {
	Density     float64
	mass        float64
	Restitution float64 // 0= no rebound, 1= perfect restitution

	StaticFriction  float64
	DynamicFriction float64
	// Compliance is the inverse stiffness of contacts involving this material
	Compliance float64
	// MaximumRecoveryVelocity caps the speed at which penetration is resolved
	MaximumRecoveryVelocity float64
	LinearDamping           float64 // 0.0 - 1.0, typical: 0.01
	AngularDamping          float64 // 0.0 - 1.0, typical: 0.05
}

func (material Material) GetMass() float64 {
	return material.mass
}

// RigidBody represents a dynamic rigid body in the simulation
type RigidBody struct {
	Transform Transform

	Velocity        mgl64.Vec3 // Linear velocity (m/s)
	AngularVelocity mgl64.Vec3 // rad/s

	InertiaLocal        mgl64.Mat3
	InverseInertiaLocal mgl64.Mat3

	Material Material
	Shape    ShapeInterface

	aabb AABB
}

// NewRigidBody creates a new dynamic rigid body; density is used to calculate its mass
func NewRigidBody(transform Transform, shape ShapeInterface, density float64) *RigidBody {
	rb := &RigidBody{
		Transform: NewTransformAt(transform.Position, normalizedRotation(transform.Rotation)),
		Shape:     shape,
		Material: Material{
			Density: density,
			mass:    shape.ComputeMass(density),
		},
	}

	rb.InertiaLocal = shape.ComputeInertia(rb.Material.mass)
	rb.InverseInertiaLocal = rb.InertiaLocal.Inv()
	rb.UpdateBounds()

	return rb
}

// BodyVelocity returns the linear and angular velocity of the body
func (rb *RigidBody) BodyVelocity() BodyVelocity {
	return BodyVelocity{Linear: rb.Velocity, Angular: rb.AngularVelocity}
}

// AABB returns the bounds computed by the last UpdateBounds
func (rb *RigidBody) AABB() AABB {
	return rb.aabb
}

// UpdateBounds recomputes the world bounds from the current transform
func (rb *RigidBody) UpdateBounds() {
	rb.aabb = ComputeAABB(rb.Shape, rb.Transform)
}

// Integrate advances the pose with gravity and damping
func (rb *RigidBody) Integrate(dt float64, gravity mgl64.Vec3) {
	rb.Velocity = rb.Velocity.Add(gravity.Mul(dt))
	rb.Velocity = rb.Velocity.Mul(math.Exp(-rb.Material.LinearDamping * dt))
	rb.AngularVelocity = rb.AngularVelocity.Mul(math.Exp(-rb.Material.AngularDamping * dt))

	rb.Transform = rb.Transform.Integrate(rb.BodyVelocity(), dt)
	rb.UpdateBounds()
}

func (rb *RigidBody) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	localDirection := rb.Transform.Rotation.Conjugate().Rotate(direction)
	return rb.Transform.TransformPoint(rb.Shape.Support(localDirection))
}

// GetInverseInertiaWorld computes R * I_local^(-1) * R^T
func (rb *RigidBody) GetInverseInertiaWorld() mgl64.Mat3 {
	R := rb.Transform.Rotation.Mat4().Mat3()
	return R.Mul3(rb.InverseInertiaLocal).Mul3(R.Transpose())
}

// Static is an immovable collidable with infinite mass
type Static struct {
	Transform Transform
	Shape     ShapeInterface
	Material  Material

	aabb AABB
}

func NewStatic(transform Transform, shape ShapeInterface) *Static {
	s := &Static{
		Transform: NewTransformAt(transform.Position, normalizedRotation(transform.Rotation)),
		Shape:     shape,
		Material:  Material{mass: math.Inf(1)},
	}
	s.aabb = ComputeAABB(shape, s.Transform)
	return s
}

func (s *Static) AABB() AABB {
	return s.aabb
}

// normalizedRotation treats the zero quaternion as identity
func normalizedRotation(q mgl64.Quat) mgl64.Quat {
	if q.W == 0 && q.V.LenSqr() == 0 {
		return mgl64.QuatIdent()
	}
	return q
}
