// Package sweep finds the first time of impact between a moving query shape and a target shape.
//
// Tasks are registered per ordered pair of shape types and advance conservatively: at every
// iteration the distance between the shapes is divided by the fastest rate at which it can
// shrink, so the shapes can never pass through each other between two samples.
package sweep

import (
	"math"

	"github.com/Swaelo/physcore/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultMaximumIterations caps the advancement loop of the parameterless sweep
	DefaultMaximumIterations = 25

	minimumProgressionScale   = 0.1
	convergenceThresholdScale = 1e-5
)

// Settings tune the conservative advancement. Both thresholds are expressed in time.
type Settings struct {
	// MinimumProgression is the smallest step taken while no overlap has been bracketed
	MinimumProgression float64
	// ConvergenceThreshold is the time uncertainty at which a hit is reported
	ConvergenceThreshold float64
	MaximumIterations    int
}

// DefaultSettings derives thresholds from the size of the query shape and how fast it moves
func DefaultSettings(shape actor.ShapeInterface, velocity actor.BodyVelocity, maximumT float64) Settings {
	maximumRadius, maximumAngularExpansion := shape.ComputeAngularExpansionData()
	minimumRadius := maximumRadius - maximumAngularExpansion
	if minimumRadius <= 0 {
		minimumRadius = maximumRadius
	}

	tangentialSpeed := velocity.Angular.Len() * maximumRadius
	if maximumT > 0 {
		tangentialSpeed = math.Min(tangentialSpeed, maximumAngularExpansion/maximumT)
	}
	inverseSpeed := 1.0
	if speed := velocity.Linear.Len() + tangentialSpeed; speed > 0 {
		inverseSpeed = 1 / speed
	}

	return Settings{
		MinimumProgression:   minimumProgressionScale * minimumRadius * inverseSpeed,
		ConvergenceThreshold: convergenceThresholdScale * minimumRadius * inverseSpeed,
		MaximumIterations:    DefaultMaximumIterations,
	}
}

// Body is one side of a sweep: a shape, its pose at t = 0 and its constant velocity
type Body struct {
	Shape    actor.ShapeInterface
	Pose     actor.Transform
	Velocity actor.BodyVelocity
}

// At returns the pose of the body after moving for t
func (b Body) At(t float64) actor.Transform {
	return b.Pose.Integrate(b.Velocity, t)
}

// Result of a sweep. The time of impact lies within [T0, T1].
type Result struct {
	Hit bool
	T0  float64
	T1  float64
	// Location is the estimated contact point, in the same space as the input poses
	Location mgl64.Vec3
	// Normal points from the target toward the query
	Normal mgl64.Vec3
}

// ChildFilter decides which children of a compound target are tested. A nil filter tests all of them.
type ChildFilter interface {
	AllowTest(childIndex int) bool
}

// Task sweeps query a against target b
type Task func(a, b Body, maximumT float64, settings Settings, filter ChildFilter) Result

// separation describes two disjoint shapes; normal points from a toward b
type separation struct {
	distance float64
	normal   mgl64.Vec3
	pointA   mgl64.Vec3
}

// separationFunc measures two shapes at the given poses; separated is false when they overlap
type separationFunc func(a, b actor.Transform) (gap separation, separated bool)

// advance runs conservative advancement over a separation function
func advance(a, b Body, maximumT float64, settings Settings, separate separationFunc) Result {
	if settings.MaximumIterations <= 0 {
		settings.MaximumIterations = DefaultMaximumIterations
	}

	current, separated := separate(a.Pose, b.Pose)
	if !separated {
		return Result{Hit: true}
	}

	radiusA, _ := a.Shape.ComputeAngularExpansionData()
	radiusB, _ := b.Shape.ComputeAngularExpansionData()
	angularBound := a.Velocity.Angular.Len()*radiusA + b.Velocity.Angular.Len()*radiusB
	relativeLinear := a.Velocity.Linear.Sub(b.Velocity.Linear)

	t0, t1 := 0.0, maximumT
	bracketed := false
	for i := 0; i < settings.MaximumIterations; i++ {
		speed := relativeLinear.Dot(current.normal) + angularBound
		if speed <= 0 {
			return Result{}
		}

		// No contact can happen before t0 + window
		window := current.distance / speed
		if window <= settings.ConvergenceThreshold {
			return hit(t0, math.Min(t0+window, t1), current)
		}
		if !bracketed && t0+window > maximumT {
			return Result{}
		}

		step := window - 0.5*settings.ConvergenceThreshold
		if bracketed {
			step = math.Min(step, 0.5*(t1-t0))
		} else {
			step = math.Max(step, settings.MinimumProgression)
		}
		next := math.Min(t0+step, t1)

		candidate, separated := separate(a.At(next), b.At(next))
		if separated {
			t0 = next
			current = candidate
			continue
		}

		t1 = next
		bracketed = true
		if t1-t0 <= settings.ConvergenceThreshold {
			return hit(t0, t1, current)
		}
	}

	// Out of iterations: report the last time known to be free of contact
	if bracketed {
		return hit(t0, t1, current)
	}
	return hit(t0, t0, current)
}

func hit(t0, t1 float64, gap separation) Result {
	return Result{
		Hit:      true,
		T0:       t0,
		T1:       t1,
		Location: gap.pointA.Add(gap.normal.Mul(gap.distance)),
		Normal:   gap.normal.Mul(-1),
	}
}
