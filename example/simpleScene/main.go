package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Swaelo/physcore"
	"github.com/Swaelo/physcore/actor"
	"github.com/Swaelo/physcore/config"
	"github.com/go-gl/mathgl/mgl64"
)

// stopOnContact is a stand-in for a real solver: it freezes every body touching something
type stopOnContact struct{}

func (stopOnContact) Solve(dt float64, sim *physcore.Simulation) {
	store := sim.Constraints()
	for b := 0; b < store.BatchCount(); b++ {
		for _, typeBatch := range store.Batch(b) {
			for i := 0; i < typeBatch.Count(); i++ {
				handles := store.BodyHandles(typeBatch.Handle(i))
				for k := 0; k < handles.BodyCount(); k++ {
					body := sim.Body(handles.Handle(k))
					body.Velocity = mgl64.Vec3{}
					body.AngularVelocity = mgl64.Vec3{}
				}
			}
		}
	}
}

// SetupScene creates a ground plane and a tilted cube above it
func SetupScene(logger *slog.Logger) (*physcore.Simulation, actor.BodyHandle, error) {
	sim, err := physcore.NewSimulation(*config.DefaultConfig(), logger)
	if err != nil {
		return nil, 0, err
	}
	sim.Solver = stopOnContact{}

	sim.AddStatic(actor.NewStatic(actor.NewTransform(), &actor.Plane{Normal: mgl64.Vec3{0, 1, 0}}))

	cubeTransform := actor.NewTransformAt(mgl64.Vec3{-5.0, 5.0, -5.0}, mgl64.QuatRotate(0.3, mgl64.Vec3{0, 0, 1}))
	cube := sim.AddBody(actor.NewRigidBody(cubeTransform, &actor.Box{HalfExtents: mgl64.Vec3{1.5, 1.5, 1.5}}, 1.0))

	return sim, cube, nil
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	sim, cube, err := SetupScene(logger)
	if err != nil {
		logger.Error("setup", "error", err)
		os.Exit(1)
	}

	sim.Events.Subscribe(physcore.CONTACT_ADDED, func(event physcore.Event) {
		added := event.(physcore.ContactAddedEvent)
		logger.Info("contact added", "pair", fmt.Sprintf("%v-%v", added.Pair.A, added.Pair.B), "type", added.TypeID)
	})
	sim.Events.Subscribe(physcore.CONTACT_REMOVED, func(event physcore.Event) {
		removed := event.(physcore.ContactRemovedEvent)
		logger.Info("contact removed", "pair", fmt.Sprintf("%v-%v", removed.Pair.A, removed.Pair.B))
	})

	const dt float64 = 1.0 / 60.0
	const maxSteps int = 200

	for step := 0; step < maxSteps; step++ {
		sim.Step(dt)

		if step%20 == 0 {
			body := sim.Body(cube)
			hit := sim.RayCast(mgl64.Vec3{-5, 20, -5}, mgl64.Vec3{0, -1, 0}, 100, &physcore.ClosestRayHit{}, step).(*physcore.ClosestRayHit)
			logger.Info("cube",
				"step", step,
				"position", body.Transform.Position,
				"velocity", body.Velocity,
				"rayHit", hit.Hit,
				"rayT", hit.T,
				"rayTarget", hit.Collidable)
		}
	}
}
