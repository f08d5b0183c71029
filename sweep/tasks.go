package sweep

import (
	"github.com/Swaelo/physcore/actor"
	"github.com/Swaelo/physcore/gjk"
)

// Convex sweeps two convex shapes using GJK distance queries
func Convex(a, b Body, maximumT float64, settings Settings, _ ChildFilter) Result {
	return advance(a, b, maximumT, settings, func(poseA, poseB actor.Transform) (separation, bool) {
		coreA, marginA := core(a.Shape, poseA)
		coreB, marginB := core(b.Shape, poseB)

		result := gjk.Distance(coreA, coreB, marginA, marginB)
		if result.Intersecting {
			return separation{}, false
		}
		return separation{distance: result.Distance, normal: result.Normal, pointA: result.PointA}, true
	})
}

// Plane sweeps a convex query against a plane target
func Plane(a, b Body, maximumT float64, settings Settings, _ ChildFilter) Result {
	plane := b.Shape.(*actor.Plane)

	return advance(a, b, maximumT, settings, func(poseA, poseB actor.Transform) (separation, bool) {
		normal := poseB.Rotation.Rotate(plane.Normal)
		surface := poseB.TransformPoint(plane.Normal.Mul(-plane.Distance))

		deepest := gjk.Posed{Shape: a.Shape, Pose: poseA}.SupportWorld(normal.Mul(-1))
		distance := normal.Dot(deepest.Sub(surface))
		if distance <= 0 {
			return separation{}, false
		}
		return separation{distance: distance, normal: normal.Mul(-1), pointA: deepest}, true
	})
}

// Compound returns a task sweeping a convex query against every child of a compound target,
// resolving the child tasks through the registry. The earliest child hit wins.
func Compound(registry *Registry) Task {
	return func(a, b Body, maximumT float64, settings Settings, filter ChildFilter) Result {
		compound := b.Shape.(*actor.Compound)

		var best Result
		for i, child := range compound.Children {
			if filter != nil && !filter.AllowTest(i) {
				continue
			}
			task, ok := registry.Task(a.Shape.Type(), child.Shape.Type())
			if !ok {
				continue
			}

			offset := b.Pose.Rotation.Rotate(child.LocalPose.Position)
			childBody := Body{
				Shape: child.Shape,
				Pose:  b.Pose.Compose(child.LocalPose),
				Velocity: actor.BodyVelocity{
					Linear:  b.Velocity.Linear.Add(b.Velocity.Angular.Cross(offset)),
					Angular: b.Velocity.Angular,
				},
			}

			result := task(a, childBody, maximumT, settings, nil)
			if !result.Hit {
				continue
			}
			if result.T1 == 0 {
				return result
			}
			best = result
			maximumT = result.T1
		}
		return best
	}
}

// core splits a shape into the convex core and margin used by the distance query
func core(shape actor.ShapeInterface, pose actor.Transform) (gjk.Convex, float64) {
	if sphere, ok := shape.(*actor.Sphere); ok {
		return gjk.Point{Position: pose.Position}, sphere.Radius
	}
	return gjk.Posed{Shape: shape, Pose: pose}, 0
}

// Registry maps ordered (query, target) shape type pairs to sweep tasks
type Registry struct {
	tasks [actor.ShapeTypeCount][actor.ShapeTypeCount]Task
}

func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry supports convex queries against convex shapes, planes and compounds
func DefaultRegistry() *Registry {
	r := NewRegistry()

	convex := []actor.ShapeType{actor.ShapeTypeSphere, actor.ShapeTypeBox}
	for _, query := range convex {
		for _, target := range convex {
			r.Register(query, target, Convex)
		}
		r.Register(query, actor.ShapeTypePlane, Plane)
		r.Register(query, actor.ShapeTypeCompound, Compound(r))
	}

	return r
}

// Register sets the task for a pair, replacing any previous one. It is not safe to call while sweeps run.
func (r *Registry) Register(query, target actor.ShapeType, task Task) {
	r.tasks[query][target] = task
}

func (r *Registry) Task(query, target actor.ShapeType) (Task, bool) {
	if query < 0 || query >= actor.ShapeTypeCount || target < 0 || target >= actor.ShapeTypeCount {
		return nil, false
	}
	task := r.tasks[query][target]
	return task, task != nil
}

// Sweep runs the registered task for the pair; ok is false when no task is registered
func (r *Registry) Sweep(a, b Body, maximumT float64, settings Settings, filter ChildFilter) (result Result, ok bool) {
	task, ok := r.Task(a.Shape.Type(), b.Shape.Type())
	if !ok {
		return Result{}, false
	}
	return task(a, b, maximumT, settings, filter), true
}

// ChildFilterFunc adapts a function to ChildFilter
type ChildFilterFunc func(childIndex int) bool

func (f ChildFilterFunc) AllowTest(childIndex int) bool {
	return f(childIndex)
}

