package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// CompoundChild is a convex shape placed in the local space of a compound
type CompoundChild struct {
	Shape     ShapeInterface
	LocalPose Transform
}

// Compound groups several convex shapes into a single nonconvex collidable.
// Children must not be compounds themselves.
type Compound struct {
	Children []CompoundChild
}

func (c *Compound) Type() ShapeType {
	return ShapeTypeCompound
}

// ChildPose returns the world pose of the child at index for the given compound pose
func (c *Compound) ChildPose(pose Transform, index int) Transform {
	return pose.Compose(c.Children[index].LocalPose)
}

func (c *Compound) ComputeBounds(orientation mgl64.Quat) (mgl64.Vec3, mgl64.Vec3) {
	min := mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	max := mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}

	for _, child := range c.Children {
		offset := orientation.Rotate(child.LocalPose.Position)
		childMin, childMax := child.Shape.ComputeBounds(orientation.Mul(child.LocalPose.Rotation))
		for i := 0; i < 3; i++ {
			min[i] = math.Min(min[i], childMin[i]+offset[i])
			max[i] = math.Max(max[i], childMax[i]+offset[i])
		}
	}

	return min, max
}

func (c *Compound) ComputeAngularExpansionData() (float64, float64) {
	maximumRadius := 0.0
	for _, child := range c.Children {
		childRadius, _ := child.Shape.ComputeAngularExpansionData()
		maximumRadius = math.Max(maximumRadius, child.LocalPose.Position.Len()+childRadius)
	}
	// The compound origin can sit outside of every child, so any rotation can
	// push the bounds out by the full radius.
	return maximumRadius, maximumRadius
}

func (c *Compound) ComputeMass(density float64) float64 {
	mass := 0.0
	for _, child := range c.Children {
		mass += child.Shape.ComputeMass(density)
	}
	return mass
}

// ComputeInertia sums the child inertias shifted with the parallel axis theorem
func (c *Compound) ComputeInertia(mass float64) mgl64.Mat3 {
	total := 0.0
	for _, child := range c.Children {
		total += child.Shape.ComputeMass(1)
	}
	if total <= 0 {
		return mgl64.Mat3{}
	}

	var inertia mgl64.Mat3
	for _, child := range c.Children {
		childMass := mass * child.Shape.ComputeMass(1) / total
		r := child.LocalPose.Rotation.Mat4().Mat3()
		local := r.Mul3(child.Shape.ComputeInertia(childMass)).Mul3(r.Transpose())

		p := child.LocalPose.Position
		d := p.Dot(p)
		shift := mgl64.Mat3{
			childMass * (d - p[0]*p[0]), -childMass * p[0] * p[1], -childMass * p[0] * p[2],
			-childMass * p[1] * p[0], childMass * (d - p[1]*p[1]), -childMass * p[1] * p[2],
			-childMass * p[2] * p[0], -childMass * p[2] * p[1], childMass * (d - p[2]*p[2]),
		}
		inertia = inertia.Add(local).Add(shift)
	}
	return inertia
}

// Support returns the support point of the convex hull of the children
func (c *Compound) Support(direction mgl64.Vec3) mgl64.Vec3 {
	best := math.Inf(-1)
	var result mgl64.Vec3
	for _, child := range c.Children {
		localDirection := child.LocalPose.Rotation.Conjugate().Rotate(direction)
		point := child.LocalPose.TransformPoint(child.Shape.Support(localDirection))
		if d := point.Dot(direction); d > best {
			best = d
			result = point
		}
	}
	return result
}

func (c *Compound) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	return []mgl64.Vec3{c.Support(direction)}
}

// RayTest reports the closest child hit
func (c *Compound) RayTest(pose Transform, origin, direction mgl64.Vec3, maximumT float64) (bool, float64, mgl64.Vec3) {
	hit := false
	var closestT float64
	var closestNormal mgl64.Vec3

	for i, child := range c.Children {
		childHit, t, normal := child.Shape.RayTest(c.ChildPose(pose, i), origin, direction, maximumT)
		if childHit && t <= maximumT {
			hit = true
			maximumT = t
			closestT = t
			closestNormal = normal
		}
	}

	return hit, closestT, closestNormal
}
