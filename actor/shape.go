package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType represents the type of collision shape
type ShapeType int

const (
	ShapeTypeSphere ShapeType = iota
	ShapeTypeBox
	ShapeTypePlane
	ShapeTypeCompound

	// ShapeTypeCount is the number of registered shape types
	ShapeTypeCount
)

func (t ShapeType) String() string {
	switch t {
	case ShapeTypeSphere:
		return "sphere"
	case ShapeTypeBox:
		return "box"
	case ShapeTypePlane:
		return "plane"
	case ShapeTypeCompound:
		return "compound"
	}
	return "unknown"
}

// ShapeInterface is the interface that all collision shapes must implement
type ShapeInterface interface {
	Type() ShapeType
	// ComputeBounds returns the bounds of the shape relative to its position for the given orientation
	ComputeBounds(orientation mgl64.Quat) (min, max mgl64.Vec3)
	// ComputeAngularExpansionData returns the largest distance from the shape origin to its surface,
	// and how much the bounds can grow at most under any rotation.
	ComputeAngularExpansionData() (maximumRadius, maximumAngularExpansion float64)
	// ComputeMass calculates mass data for the shape given a density
	ComputeMass(density float64) float64
	ComputeInertia(mass float64) mgl64.Mat3
	Support(direction mgl64.Vec3) mgl64.Vec3
	GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3
	// RayTest intersects a world space ray with the shape at the given pose.
	// The direction is not required to be unit length; t is expressed in multiples of it.
	RayTest(pose Transform, origin, direction mgl64.Vec3, maximumT float64) (hit bool, t float64, normal mgl64.Vec3)
}

// ComputeAABB calculates the world axis-aligned bounding box of a shape at the given transform
func ComputeAABB(shape ShapeInterface, transform Transform) AABB {
	min, max := shape.ComputeBounds(transform.Rotation)
	return AABB{Min: min.Add(transform.Position), Max: max.Add(transform.Position)}
}

// localRay moves a world space ray into the local space of a pose
func localRay(pose Transform, origin, direction mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	inverse := pose.Rotation.Conjugate()
	return inverse.Rotate(origin.Sub(pose.Position)), inverse.Rotate(direction)
}

// insideNormal is the normal reported for rays starting inside a shape
func insideNormal(direction mgl64.Vec3) mgl64.Vec3 {
	if direction.LenSqr() < 1e-30 {
		return mgl64.Vec3{0, 1, 0}
	}
	return direction.Normalize().Mul(-1)
}

// Box represents an oriented box collision shape
// The box is defined by its half-extents (half-width, half-height, half-depth)
type Box struct {
	HalfExtents mgl64.Vec3
}

func (b *Box) Type() ShapeType {
	return ShapeTypeBox
}

func (b *Box) ComputeBounds(orientation mgl64.Quat) (mgl64.Vec3, mgl64.Vec3) {
	// Extent of the rotated box along each world axis is the sum of the
	// absolute projections of its rotated half axes.
	axisX := orientation.Rotate(mgl64.Vec3{b.HalfExtents.X(), 0, 0})
	axisY := orientation.Rotate(mgl64.Vec3{0, b.HalfExtents.Y(), 0})
	axisZ := orientation.Rotate(mgl64.Vec3{0, 0, b.HalfExtents.Z()})

	var extent mgl64.Vec3
	for i := 0; i < 3; i++ {
		extent[i] = math.Abs(axisX[i]) + math.Abs(axisY[i]) + math.Abs(axisZ[i])
	}

	return extent.Mul(-1), extent
}

func (b *Box) ComputeAngularExpansionData() (float64, float64) {
	maximumRadius := b.HalfExtents.Len()
	minimumRadius := math.Min(b.HalfExtents.X(), math.Min(b.HalfExtents.Y(), b.HalfExtents.Z()))
	return maximumRadius, maximumRadius - minimumRadius
}

// ComputeMass calculates mass data for the box
func (b *Box) ComputeMass(density float64) float64 {
	// Volume = 8 * hx * hy * hz (full dimensions are 2*halfExtents)
	volume := 8.0 * b.HalfExtents.X() * b.HalfExtents.Y() * b.HalfExtents.Z()

	return density * volume
}

func (b *Box) ComputeInertia(mass float64) mgl64.Mat3 {
	x := b.HalfExtents.X() * 2
	y := b.HalfExtents.Y() * 2
	z := b.HalfExtents.Z() * 2

	// I = (m/12) * (d1² + d2²)
	factor := mass / 12.0
	return mgl64.Mat3{
		factor * (y*y + z*z), 0, 0,
		0, factor * (x*x + z*z), 0,
		0, 0, factor * (x*x + y*y),
	}
}

func (b *Box) Support(direction mgl64.Vec3) mgl64.Vec3 {
	hx, hy, hz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()

	if direction.X() < 0 {
		hx = -hx
	}
	if direction.Y() < 0 {
		hy = -hy
	}
	if direction.Z() < 0 {
		hz = -hz
	}

	return mgl64.Vec3{hx, hy, hz}
}

// GetContactFeature returns the face whose normal is the most aligned with direction,
// vertices ordered CCW seen from outside.
func (b *Box) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	dir := direction.Normalize()
	hx, hy, hz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()

	axis := 0
	best := math.Abs(dir[0])
	for i := 1; i < 3; i++ {
		if math.Abs(dir[i]) > best {
			best = math.Abs(dir[i])
			axis = i
		}
	}
	positive := dir[axis] >= 0

	switch {
	case axis == 0 && positive:
		return []mgl64.Vec3{{hx, -hy, -hz}, {hx, -hy, hz}, {hx, hy, hz}, {hx, hy, -hz}}
	case axis == 0:
		return []mgl64.Vec3{{-hx, -hy, hz}, {-hx, -hy, -hz}, {-hx, hy, -hz}, {-hx, hy, hz}}
	case axis == 1 && positive:
		return []mgl64.Vec3{{-hx, hy, -hz}, {-hx, hy, hz}, {hx, hy, hz}, {hx, hy, -hz}}
	case axis == 1:
		return []mgl64.Vec3{{-hx, -hy, hz}, {hx, -hy, hz}, {hx, -hy, -hz}, {-hx, -hy, -hz}}
	case positive:
		return []mgl64.Vec3{{-hx, -hy, hz}, {-hx, hy, hz}, {hx, hy, hz}, {hx, -hy, hz}}
	default:
		return []mgl64.Vec3{{hx, -hy, -hz}, {hx, hy, -hz}, {-hx, hy, -hz}, {-hx, -hy, -hz}}
	}
}

func (b *Box) RayTest(pose Transform, origin, direction mgl64.Vec3, maximumT float64) (bool, float64, mgl64.Vec3) {
	o, d := localRay(pose, origin, direction)

	tEnter := math.Inf(-1)
	tExit := math.Inf(1)
	enterAxis := -1
	enterSign := 0.0

	for axis := 0; axis < 3; axis++ {
		h := b.HalfExtents[axis]
		if math.Abs(d[axis]) < 1e-15 {
			if o[axis] < -h || o[axis] > h {
				return false, 0, mgl64.Vec3{}
			}
			continue
		}

		inv := 1.0 / d[axis]
		t0 := (-h - o[axis]) * inv
		t1 := (h - o[axis]) * inv
		// Entering through the face opposing the ray direction
		sign := -1.0
		if d[axis] < 0 {
			sign = 1.0
		}
		if t0 > t1 {
			t0, t1 = t1, t0
		}

		if t0 > tEnter {
			tEnter = t0
			enterAxis = axis
			enterSign = sign
		}
		tExit = math.Min(tExit, t1)
	}

	if tEnter > tExit || tExit < 0 {
		return false, 0, mgl64.Vec3{}
	}

	if tEnter <= 0 || enterAxis < 0 {
		// Origin inside the box
		return true, 0, insideNormal(direction)
	}
	if tEnter > maximumT {
		return false, 0, mgl64.Vec3{}
	}

	var localNormal mgl64.Vec3
	localNormal[enterAxis] = enterSign
	return true, tEnter, pose.Rotation.Rotate(localNormal)
}

// Sphere represents a spherical collision shape
type Sphere struct {
	Radius float64
}

func (s *Sphere) Type() ShapeType {
	return ShapeTypeSphere
}

// ComputeBounds is not affected by rotation
func (s *Sphere) ComputeBounds(orientation mgl64.Quat) (mgl64.Vec3, mgl64.Vec3) {
	radiusVec := mgl64.Vec3{s.Radius, s.Radius, s.Radius}
	return radiusVec.Mul(-1), radiusVec
}

func (s *Sphere) ComputeAngularExpansionData() (float64, float64) {
	return s.Radius, 0
}

// ComputeMass calculates mass data for the sphere
func (s *Sphere) ComputeMass(density float64) float64 {
	// Volume of sphere = (4/3) * π * r³
	volume := (4.0 / 3.0) * math.Pi * math.Pow(s.Radius, 3)

	return density * volume
}

func (s *Sphere) ComputeInertia(mass float64) mgl64.Mat3 {
	// I = (2/5) * m * r² on every axis
	i := (2.0 / 5.0) * mass * s.Radius * s.Radius

	return mgl64.Mat3{
		i, 0, 0,
		0, i, 0,
		0, 0, i,
	}
}

func (s *Sphere) Support(direction mgl64.Vec3) mgl64.Vec3 {
	return direction.Normalize().Mul(s.Radius)
}

func (s *Sphere) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	return []mgl64.Vec3{s.Support(direction)}
}

func (s *Sphere) RayTest(pose Transform, origin, direction mgl64.Vec3, maximumT float64) (bool, float64, mgl64.Vec3) {
	o := origin.Sub(pose.Position)

	a := direction.Dot(direction)
	if a < 1e-30 {
		return false, 0, mgl64.Vec3{}
	}
	b := o.Dot(direction)
	c := o.Dot(o) - s.Radius*s.Radius

	if c > 0 && b > 0 {
		// Outside and pointing away
		return false, 0, mgl64.Vec3{}
	}
	if c <= 0 {
		return true, 0, insideNormal(direction)
	}

	discriminant := b*b - a*c
	if discriminant < 0 {
		return false, 0, mgl64.Vec3{}
	}

	t := (-b - math.Sqrt(discriminant)) / a
	if t > maximumT {
		return false, 0, mgl64.Vec3{}
	}

	return true, t, o.Add(direction.Mul(t)).Normalize()
}

// Plane represents an infinite plane collision shape
// The plane is defined by the equation: Normal · p + Distance = 0
// where Normal is the plane's normal vector (must be normalized)
// and Distance is the signed distance from the origin along the normal.
// Everything below the plane is considered solid.
type Plane struct {
	Normal   mgl64.Vec3 // Plane normal (must be normalized)
	Distance float64    // Plane constant (signed distance from origin)
}

// planeInfinity bounds the extent of planes in the directions they are unbounded
const planeInfinity = 1e10

func (p *Plane) Type() ShapeType {
	return ShapeTypePlane
}

func (p *Plane) ComputeBounds(orientation mgl64.Quat) (mgl64.Vec3, mgl64.Vec3) {
	const thickness = 1.0

	normal := orientation.Rotate(p.Normal)
	planePoint := normal.Mul(-p.Distance)

	min := planePoint.Sub(normal.Mul(thickness))
	max := planePoint
	for i := 0; i < 3; i++ {
		if min[i] > max[i] {
			min[i], max[i] = max[i], min[i]
		}
		// Non-dominant axes extend to infinity
		if math.Abs(normal[i]) < 1.0-1e-9 {
			min[i] = -planeInfinity
			max[i] = planeInfinity
		}
	}

	return min, max
}

func (p *Plane) ComputeAngularExpansionData() (float64, float64) {
	return planeInfinity, 0
}

// ComputeMass calculates mass data for the plane
// Planes are always static with infinite mass
func (p *Plane) ComputeMass(density float64) float64 {
	return math.Inf(1)
}

func (p *Plane) ComputeInertia(mass float64) mgl64.Mat3 {
	return mgl64.Mat3{}
}

// Support treats the plane as a 2000 wide slab of half a unit below its surface
func (p *Plane) Support(direction mgl64.Vec3) mgl64.Vec3 {
	const halfWidth = 1000.0
	const halfDepth = 0.5

	tangent1, tangent2 := getTangentBasis(p.Normal)
	center := p.Normal.Mul(-p.Distance)

	result := center
	if direction.Dot(tangent1) < 0 {
		result = result.Sub(tangent1.Mul(halfWidth))
	} else {
		result = result.Add(tangent1.Mul(halfWidth))
	}
	if direction.Dot(tangent2) < 0 {
		result = result.Sub(tangent2.Mul(halfWidth))
	} else {
		result = result.Add(tangent2.Mul(halfWidth))
	}
	if direction.Dot(p.Normal) <= 0 {
		result = result.Sub(p.Normal.Mul(halfDepth))
	}

	return result
}

// GetContactFeature returns a large square in the plane, in local space
func (p *Plane) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	tangent1, tangent2 := getTangentBasis(p.Normal)
	center := p.Normal.Mul(-p.Distance)
	size := 1000.0

	return []mgl64.Vec3{
		center.Add(tangent1.Mul(-size)).Add(tangent2.Mul(-size)),
		center.Add(tangent1.Mul(-size)).Add(tangent2.Mul(size)),
		center.Add(tangent1.Mul(size)).Add(tangent2.Mul(size)),
		center.Add(tangent1.Mul(size)).Add(tangent2.Mul(-size)),
	}
}

func (p *Plane) RayTest(pose Transform, origin, direction mgl64.Vec3, maximumT float64) (bool, float64, mgl64.Vec3) {
	o, d := localRay(pose, origin, direction)
	worldNormal := pose.Rotation.Rotate(p.Normal)

	distance := p.Normal.Dot(o) + p.Distance
	if distance <= 0 {
		return true, 0, worldNormal
	}

	denominator := p.Normal.Dot(d)
	if denominator >= 0 {
		return false, 0, mgl64.Vec3{}
	}

	t := -distance / denominator
	if t > maximumT {
		return false, 0, mgl64.Vec3{}
	}
	return true, t, worldNormal
}

// Helper to generate the tangent basis
func getTangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	var tangent1 mgl64.Vec3
	if math.Abs(normal.X()) > 0.9 {
		tangent1 = mgl64.Vec3{0, 1, 0}
	} else {
		tangent1 = mgl64.Vec3{1, 0, 0}
	}

	tangent1 = tangent1.Sub(normal.Mul(tangent1.Dot(normal))).Normalize()
	tangent2 := normal.Cross(tangent1).Normalize()

	return tangent1, tangent2
}
