package constraint

import "github.com/go-gl/mathgl/mgl64"

// Contact constraint descriptions are the blittable payloads stored in type batches.
// Every variant starts with its contact array so contact data sits at the same offset
// whatever the body count.

// ConvexContactData is the per contact part of a convex description
type ConvexContactData struct {
	OffsetA          mgl64.Vec3
	PenetrationDepth float64
}

// NonconvexContactData carries its own normal
type NonconvexContactData struct {
	OffsetA          mgl64.Vec3
	Normal           mgl64.Vec3
	PenetrationDepth float64
}

type ConvexOneBodyProperties struct {
	Normal                  mgl64.Vec3
	FrictionCoefficient     float64
	DynamicFriction         float64
	Spring                  SpringSettings
	MaximumRecoveryVelocity float64
}

func (p *ConvexOneBodyProperties) SetProperties(normal mgl64.Vec3, material PairMaterial) {
	p.Normal = normal
	p.FrictionCoefficient = material.FrictionCoefficient
	p.DynamicFriction = material.DynamicFriction
	p.Spring = material.Spring
	p.MaximumRecoveryVelocity = material.MaximumRecoveryVelocity
}

type ConvexTwoBodyProperties struct {
	OffsetB                 mgl64.Vec3
	Normal                  mgl64.Vec3
	FrictionCoefficient     float64
	DynamicFriction         float64
	Spring                  SpringSettings
	MaximumRecoveryVelocity float64
}

func (p *ConvexTwoBodyProperties) SetProperties(offsetB, normal mgl64.Vec3, material PairMaterial) {
	p.OffsetB = offsetB
	p.Normal = normal
	p.FrictionCoefficient = material.FrictionCoefficient
	p.DynamicFriction = material.DynamicFriction
	p.Spring = material.Spring
	p.MaximumRecoveryVelocity = material.MaximumRecoveryVelocity
}

type NonconvexOneBodyProperties struct {
	FrictionCoefficient     float64
	DynamicFriction         float64
	Spring                  SpringSettings
	MaximumRecoveryVelocity float64
}

func (p *NonconvexOneBodyProperties) SetProperties(material PairMaterial) {
	p.FrictionCoefficient = material.FrictionCoefficient
	p.DynamicFriction = material.DynamicFriction
	p.Spring = material.Spring
	p.MaximumRecoveryVelocity = material.MaximumRecoveryVelocity
}

type NonconvexTwoBodyProperties struct {
	OffsetB                 mgl64.Vec3
	FrictionCoefficient     float64
	DynamicFriction         float64
	Spring                  SpringSettings
	MaximumRecoveryVelocity float64
}

func (p *NonconvexTwoBodyProperties) SetProperties(offsetB mgl64.Vec3, material PairMaterial) {
	p.OffsetB = offsetB
	p.FrictionCoefficient = material.FrictionCoefficient
	p.DynamicFriction = material.DynamicFriction
	p.Spring = material.Spring
	p.MaximumRecoveryVelocity = material.MaximumRecoveryVelocity
}

type ConvexOneBodyDescription interface {
	ContactData() []ConvexContactData
	SetProperties(normal mgl64.Vec3, material PairMaterial)
}

type ConvexTwoBodyDescription interface {
	ContactData() []ConvexContactData
	SetProperties(offsetB, normal mgl64.Vec3, material PairMaterial)
}

type NonconvexOneBodyDescription interface {
	ContactData() []NonconvexContactData
	SetProperties(material PairMaterial)
}

type NonconvexTwoBodyDescription interface {
	ContactData() []NonconvexContactData
	SetProperties(offsetB mgl64.Vec3, material PairMaterial)
}

type convexOneBodyDescriptionPtr[D any] interface {
	*D
	ConvexOneBodyDescription
}

type convexTwoBodyDescriptionPtr[D any] interface {
	*D
	ConvexTwoBodyDescription
}

type nonconvexOneBodyDescriptionPtr[D any] interface {
	*D
	NonconvexOneBodyDescription
}

type nonconvexTwoBodyDescriptionPtr[D any] interface {
	*D
	NonconvexTwoBodyDescription
}

type Contact1OneBody struct {
	Contacts [1]ConvexContactData
	ConvexOneBodyProperties
}

func (d *Contact1OneBody) ContactData() []ConvexContactData { return d.Contacts[:] }

type Contact1TwoBody struct {
	Contacts [1]ConvexContactData
	ConvexTwoBodyProperties
}

func (d *Contact1TwoBody) ContactData() []ConvexContactData { return d.Contacts[:] }

type Contact2OneBody struct {
	Contacts [2]ConvexContactData
	ConvexOneBodyProperties
}

func (d *Contact2OneBody) ContactData() []ConvexContactData { return d.Contacts[:] }

type Contact2TwoBody struct {
	Contacts [2]ConvexContactData
	ConvexTwoBodyProperties
}

func (d *Contact2TwoBody) ContactData() []ConvexContactData { return d.Contacts[:] }

type Contact3OneBody struct {
	Contacts [3]ConvexContactData
	ConvexOneBodyProperties
}

func (d *Contact3OneBody) ContactData() []ConvexContactData { return d.Contacts[:] }

type Contact3TwoBody struct {
	Contacts [3]ConvexContactData
	ConvexTwoBodyProperties
}

func (d *Contact3TwoBody) ContactData() []ConvexContactData { return d.Contacts[:] }

type Contact4OneBody struct {
	Contacts [4]ConvexContactData
	ConvexOneBodyProperties
}

func (d *Contact4OneBody) ContactData() []ConvexContactData { return d.Contacts[:] }

type Contact4TwoBody struct {
	Contacts [4]ConvexContactData
	ConvexTwoBodyProperties
}

func (d *Contact4TwoBody) ContactData() []ConvexContactData { return d.Contacts[:] }

type Nonconvex2OneBody struct {
	Contacts [2]NonconvexContactData
	NonconvexOneBodyProperties
}

func (d *Nonconvex2OneBody) ContactData() []NonconvexContactData { return d.Contacts[:] }

type Nonconvex2TwoBody struct {
	Contacts [2]NonconvexContactData
	NonconvexTwoBodyProperties
}

func (d *Nonconvex2TwoBody) ContactData() []NonconvexContactData { return d.Contacts[:] }

type Nonconvex3OneBody struct {
	Contacts [3]NonconvexContactData
	NonconvexOneBodyProperties
}

func (d *Nonconvex3OneBody) ContactData() []NonconvexContactData { return d.Contacts[:] }

type Nonconvex3TwoBody struct {
	Contacts [3]NonconvexContactData
	NonconvexTwoBodyProperties
}

func (d *Nonconvex3TwoBody) ContactData() []NonconvexContactData { return d.Contacts[:] }

type Nonconvex4OneBody struct {
	Contacts [4]NonconvexContactData
	NonconvexOneBodyProperties
}

func (d *Nonconvex4OneBody) ContactData() []NonconvexContactData { return d.Contacts[:] }

type Nonconvex4TwoBody struct {
	Contacts [4]NonconvexContactData
	NonconvexTwoBodyProperties
}

func (d *Nonconvex4TwoBody) ContactData() []NonconvexContactData { return d.Contacts[:] }

type Nonconvex5OneBody struct {
	Contacts [5]NonconvexContactData
	NonconvexOneBodyProperties
}

func (d *Nonconvex5OneBody) ContactData() []NonconvexContactData { return d.Contacts[:] }

type Nonconvex5TwoBody struct {
	Contacts [5]NonconvexContactData
	NonconvexTwoBodyProperties
}

func (d *Nonconvex5TwoBody) ContactData() []NonconvexContactData { return d.Contacts[:] }

type Nonconvex6OneBody struct {
	Contacts [6]NonconvexContactData
	NonconvexOneBodyProperties
}

func (d *Nonconvex6OneBody) ContactData() []NonconvexContactData { return d.Contacts[:] }

type Nonconvex6TwoBody struct {
	Contacts [6]NonconvexContactData
	NonconvexTwoBodyProperties
}

func (d *Nonconvex6TwoBody) ContactData() []NonconvexContactData { return d.Contacts[:] }

type Nonconvex7OneBody struct {
	Contacts [7]NonconvexContactData
	NonconvexOneBodyProperties
}

func (d *Nonconvex7OneBody) ContactData() []NonconvexContactData { return d.Contacts[:] }

type Nonconvex7TwoBody struct {
	Contacts [7]NonconvexContactData
	NonconvexTwoBodyProperties
}

func (d *Nonconvex7TwoBody) ContactData() []NonconvexContactData { return d.Contacts[:] }

type Nonconvex8OneBody struct {
	Contacts [8]NonconvexContactData
	NonconvexOneBodyProperties
}

func (d *Nonconvex8OneBody) ContactData() []NonconvexContactData { return d.Contacts[:] }

type Nonconvex8TwoBody struct {
	Contacts [8]NonconvexContactData
	NonconvexTwoBodyProperties
}

func (d *Nonconvex8TwoBody) ContactData() []NonconvexContactData { return d.Contacts[:] }
