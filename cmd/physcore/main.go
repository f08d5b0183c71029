package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/Swaelo/physcore"
	"github.com/Swaelo/physcore/actor"
	"github.com/Swaelo/physcore/config"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/cobra"
)

var (
	scenePath string
	verbose   bool
	dt        float64
	steps     int
	origin    []float64
	direction []float64
	velocity  []float64
	maximumT  float64
	shapeType string
	size      float64
)

// main registers the step, raycast and sweep commands and exits with status 1 on error
func main() {
	rootCmd := &cobra.Command{
		Use:          "physcore",
		Short:        "contact and query core of a rigid body simulation",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&scenePath, "scene", "", "scene file (yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	stepCmd := &cobra.Command{
		Use:   "step",
		Short: "step the scene and report contact constraints",
		RunE:  runSteps,
	}
	stepCmd.Flags().Float64Var(&dt, "dt", 1.0/60, "timestep")
	stepCmd.Flags().IntVar(&steps, "steps", 60, "number of steps")

	raycastCmd := &cobra.Command{
		Use:   "raycast",
		Short: "list the collidables hit by a ray",
		RunE:  runRayCast,
	}
	raycastCmd.Flags().Float64SliceVar(&origin, "origin", []float64{0, 10, 0}, "ray origin x,y,z")
	raycastCmd.Flags().Float64SliceVar(&direction, "dir", []float64{0, -1, 0}, "ray direction x,y,z")
	raycastCmd.Flags().Float64Var(&maximumT, "max-t", 100, "maximum ray parameter")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "find the first collidable a moving shape hits",
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&shapeType, "shape", "sphere", "query shape: sphere or box")
	sweepCmd.Flags().Float64Var(&size, "size", 0.5, "sphere radius or box half extent")
	sweepCmd.Flags().Float64SliceVar(&origin, "origin", []float64{0, 10, 0}, "start position x,y,z")
	sweepCmd.Flags().Float64SliceVar(&velocity, "velocity", []float64{0, -1, 0}, "linear velocity x,y,z")
	sweepCmd.Flags().Float64Var(&maximumT, "max-t", 100, "maximum sweep time")

	rootCmd.AddCommand(stepCmd, raycastCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadSimulation builds a simulation from --scene, or an empty default one
func loadSimulation(logger *slog.Logger) (*physcore.Simulation, error) {
	scene := &config.Scene{Config: *config.DefaultConfig()}
	if scenePath != "" {
		loaded, err := config.LoadScene(scenePath)
		if err != nil {
			return nil, err
		}
		scene = loaded
	}

	bodies, statics, err := scene.Build()
	if err != nil {
		return nil, fmt.Errorf("build scene: %w", err)
	}
	sim, err := physcore.NewSimulation(scene.Config, logger)
	if err != nil {
		return nil, err
	}
	for _, static := range statics {
		sim.AddStatic(static)
	}
	for _, body := range bodies {
		sim.AddBody(body)
	}
	logger.Debug("scene loaded", "path", scenePath, "bodies", len(bodies), "statics", len(statics))
	return sim, nil
}

func parseVec3(name string, values []float64) (mgl64.Vec3, error) {
	if len(values) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("--%s needs 3 components, got %d", name, len(values))
	}
	return mgl64.Vec3{values[0], values[1], values[2]}, nil
}

func runSteps(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	sim, err := loadSimulation(logger)
	if err != nil {
		return err
	}

	added, removed := 0, 0
	sim.Events.Subscribe(physcore.CONTACT_ADDED, func(physcore.Event) { added++ })
	sim.Events.Subscribe(physcore.CONTACT_REMOVED, func(physcore.Event) { removed++ })

	for i := 0; i < steps; i++ {
		sim.Step(dt)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "steps\t%d\n", steps)
	fmt.Fprintf(w, "constraints\t%d\n", sim.Constraints().ConstraintCount())
	fmt.Fprintf(w, "batches\t%d\n", sim.Constraints().BatchCount())
	fmt.Fprintf(w, "touching pairs\t%d\n", sim.PairCache().Count())
	fmt.Fprintf(w, "contacts added\t%d\n", added)
	fmt.Fprintf(w, "contacts removed\t%d\n", removed)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "BATCH\tTYPE\tCONSTRAINTS")
	for b := 0; b < sim.Constraints().BatchCount(); b++ {
		for _, typeBatch := range sim.Constraints().Batch(b) {
			if typeBatch.Count() > 0 {
				fmt.Fprintf(w, "%d\t%d\t%d\n", b, typeBatch.TypeID(), typeBatch.Count())
			}
		}
	}
	return w.Flush()
}

// rayHits keeps every hit of a ray cast, in the order they are reported
type rayHits struct {
	hits []rayHit
}

type rayHit struct {
	t          float64
	normal     mgl64.Vec3
	collidable actor.CollidableReference
}

func (r *rayHits) AllowTest(actor.CollidableReference) bool { return true }

func (r *rayHits) OnRayHit(_ physcore.RayData, _ *float64, t float64, normal mgl64.Vec3, collidable actor.CollidableReference) {
	r.hits = append(r.hits, rayHit{t: t, normal: normal, collidable: collidable})
}

func runRayCast(cmd *cobra.Command, args []string) error {
	rayOrigin, err := parseVec3("origin", origin)
	if err != nil {
		return err
	}
	rayDirection, err := parseVec3("dir", direction)
	if err != nil {
		return err
	}

	sim, err := loadSimulation(newLogger())
	if err != nil {
		return err
	}
	result := sim.RayCast(rayOrigin, rayDirection, maximumT, &rayHits{}, 0).(*rayHits)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COLLIDABLE\tT\tNORMAL")
	for _, hit := range result.hits {
		fmt.Fprintf(w, "%v\t%.4f\t%.3f\n", hit.collidable, hit.t, hit.normal)
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	start, err := parseVec3("origin", origin)
	if err != nil {
		return err
	}
	linear, err := parseVec3("velocity", velocity)
	if err != nil {
		return err
	}
	shape, err := config.ShapeConfig{Type: shapeType, Radius: size, HalfExtents: [3]float64{size, size, size}}.Build()
	if err != nil {
		return err
	}

	sim, err := loadSimulation(newLogger())
	if err != nil {
		return err
	}
	pose := actor.NewTransformAt(start, mgl64.QuatIdent())
	closest := sim.Sweep(shape, pose, actor.BodyVelocity{Linear: linear}, maximumT, &physcore.ClosestSweepHit{}).(*physcore.ClosestSweepHit)

	if !closest.Hit {
		fmt.Println("no hit")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "collidable\t%v\n", closest.Collidable)
	fmt.Fprintf(w, "t\t%.5f\n", closest.T)
	fmt.Fprintf(w, "location\t%.4f\n", closest.Location)
	fmt.Fprintf(w, "normal\t%.4f\n", closest.Normal)
	return w.Flush()
}
