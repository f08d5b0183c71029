package config

import (
	"fmt"
	"os"

	"github.com/Swaelo/physcore/actor"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

const DefaultDensity = 1.0

// Scene is a config plus the collidables to populate a simulation with
type Scene struct {
	Config  Config       `yaml:"config"`
	Bodies  []BodyConfig `yaml:"bodies"`
	Statics []BodyConfig `yaml:"statics"`
}

type ShapeConfig struct {
	// Type is one of sphere, box, plane or compound
	Type        string        `yaml:"type"`
	Radius      float64       `yaml:"radius,omitempty"`
	HalfExtents [3]float64    `yaml:"half_extents,omitempty"`
	Normal      [3]float64    `yaml:"normal,omitempty"`
	Distance    float64       `yaml:"distance,omitempty"`
	Children    []ChildConfig `yaml:"children,omitempty"`
}

type ChildConfig struct {
	Shape    ShapeConfig `yaml:"shape"`
	Position [3]float64  `yaml:"position"`
	Rotation Rotation    `yaml:"rotation"`
}

// Rotation is an axis and an angle in degrees. A zero axis means no rotation.
type Rotation struct {
	Axis  [3]float64 `yaml:"axis"`
	Angle float64    `yaml:"angle"`
}

func (r Rotation) Quat() mgl64.Quat {
	axis := mgl64.Vec3(r.Axis)
	if axis.LenSqr() == 0 || r.Angle == 0 {
		return mgl64.QuatIdent()
	}
	return mgl64.QuatRotate(mgl64.DegToRad(r.Angle), axis.Normalize())
}

type MaterialConfig struct {
	Restitution     float64 `yaml:"restitution"`
	StaticFriction  float64 `yaml:"static_friction"`
	DynamicFriction float64 `yaml:"dynamic_friction"`
	LinearDamping   float64 `yaml:"linear_damping"`
	AngularDamping  float64 `yaml:"angular_damping"`
}

type BodyConfig struct {
	Shape           ShapeConfig    `yaml:"shape"`
	Position        [3]float64     `yaml:"position"`
	Rotation        Rotation       `yaml:"rotation"`
	Velocity        [3]float64     `yaml:"velocity"`
	AngularVelocity [3]float64     `yaml:"angular_velocity"`
	Density         float64        `yaml:"density"`
	Material        MaterialConfig `yaml:"material"`
}

func (b BodyConfig) transform() actor.Transform {
	return actor.NewTransformAt(mgl64.Vec3(b.Position), b.Rotation.Quat())
}

func (b BodyConfig) applyMaterial(material *actor.Material) {
	material.Restitution = b.Material.Restitution
	material.StaticFriction = b.Material.StaticFriction
	material.DynamicFriction = b.Material.DynamicFriction
	material.LinearDamping = b.Material.LinearDamping
	material.AngularDamping = b.Material.AngularDamping
}

// Build creates the shape described by the config
func (s ShapeConfig) Build() (actor.ShapeInterface, error) {
	switch s.Type {
	case "sphere":
		if s.Radius <= 0 {
			return nil, fmt.Errorf("sphere radius must be positive, got %g", s.Radius)
		}
		return &actor.Sphere{Radius: s.Radius}, nil
	case "box":
		halfExtents := mgl64.Vec3(s.HalfExtents)
		if halfExtents.X() <= 0 || halfExtents.Y() <= 0 || halfExtents.Z() <= 0 {
			return nil, fmt.Errorf("box half extents must be positive, got %v", s.HalfExtents)
		}
		return &actor.Box{HalfExtents: halfExtents}, nil
	case "plane":
		normal := mgl64.Vec3(s.Normal)
		if normal.LenSqr() == 0 {
			return nil, fmt.Errorf("plane normal must not be zero")
		}
		return &actor.Plane{Normal: normal.Normalize(), Distance: s.Distance}, nil
	case "compound":
		if len(s.Children) == 0 {
			return nil, fmt.Errorf("compound has no children")
		}
		compound := &actor.Compound{Children: make([]actor.CompoundChild, 0, len(s.Children))}
		for i, child := range s.Children {
			if child.Shape.Type == "compound" || child.Shape.Type == "plane" {
				return nil, fmt.Errorf("compound child %d: %s children are not supported", i, child.Shape.Type)
			}
			shape, err := child.Shape.Build()
			if err != nil {
				return nil, fmt.Errorf("compound child %d: %w", i, err)
			}
			compound.Children = append(compound.Children, actor.CompoundChild{
				Shape:     shape,
				LocalPose: actor.NewTransformAt(mgl64.Vec3(child.Position), child.Rotation.Quat()),
			})
		}
		return compound, nil
	}
	return nil, fmt.Errorf("unknown shape type %q", s.Type)
}

// Build creates the bodies and statics of the scene
func (s *Scene) Build() ([]*actor.RigidBody, []*actor.Static, error) {
	bodies := make([]*actor.RigidBody, 0, len(s.Bodies))
	for i, cfg := range s.Bodies {
		shape, err := cfg.Shape.Build()
		if err != nil {
			return nil, nil, fmt.Errorf("body %d: %w", i, err)
		}
		if shape.Type() == actor.ShapeTypePlane {
			return nil, nil, fmt.Errorf("body %d: planes can only be statics", i)
		}
		density := cfg.Density
		if density == 0 {
			density = DefaultDensity
		}
		body := actor.NewRigidBody(cfg.transform(), shape, density)
		body.Velocity = mgl64.Vec3(cfg.Velocity)
		body.AngularVelocity = mgl64.Vec3(cfg.AngularVelocity)
		cfg.applyMaterial(&body.Material)
		bodies = append(bodies, body)
	}

	statics := make([]*actor.Static, 0, len(s.Statics))
	for i, cfg := range s.Statics {
		shape, err := cfg.Shape.Build()
		if err != nil {
			return nil, nil, fmt.Errorf("static %d: %w", i, err)
		}
		static := actor.NewStatic(cfg.transform(), shape)
		cfg.applyMaterial(&static.Material)
		statics = append(statics, static)
	}

	return bodies, statics, nil
}

// LoadScene reads a scene file; its config section starts from DefaultConfig
func LoadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	scene := &Scene{Config: *DefaultConfig()}
	if err := yaml.Unmarshal(data, scene); err != nil {
		return nil, fmt.Errorf("parse scene %s: %w", path, err)
	}
	if err := scene.Config.Validate(); err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return scene, nil
}
