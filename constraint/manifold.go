package constraint

import "github.com/go-gl/mathgl/mgl64"

const (
	MaximumConvexContactCount    = 4
	MaximumNonconvexContactCount = 8
	// MaximumContactCount bounds every per contact scratch buffer
	MaximumContactCount = MaximumNonconvexContactCount
)

// ContactManifold is the narrow phase output for one collidable pair in one frame
type ContactManifold interface {
	ContactCount() int
	Convex() bool
}

// ConvexContact is one point of a convex manifold
type ConvexContact struct {
	// Offset from the position of collidable A to the contact
	Offset    mgl64.Vec3
	Depth     float64
	FeatureID int32
}

// ConvexContactManifold shares a single normal between all of its contacts
type ConvexContactManifold struct {
	// OffsetB is the position of collidable B relative to collidable A
	OffsetB mgl64.Vec3
	// Normal points from B toward A
	Normal   mgl64.Vec3
	Count    int
	Contacts [MaximumConvexContactCount]ConvexContact
}

func (m *ConvexContactManifold) ContactCount() int { return m.Count }
func (m *ConvexContactManifold) Convex() bool      { return true }

// Add appends a contact, reporting false once the manifold is full. A feature id already
// present in the manifold is bumped until it is unique.
func (m *ConvexContactManifold) Add(offset mgl64.Vec3, depth float64, featureID int32) bool {
	if m.Count == MaximumConvexContactCount {
		return false
	}
	for m.hasFeature(featureID, -1) {
		featureID++
	}
	m.Contacts[m.Count] = ConvexContact{Offset: offset, Depth: depth, FeatureID: featureID}
	m.Count++
	return true
}

func (m *ConvexContactManifold) hasFeature(featureID int32, skip int) bool {
	for i := 0; i < m.Count; i++ {
		if i != skip && m.Contacts[i].FeatureID == featureID {
			return true
		}
	}
	return false
}

// NonconvexContact is one point of a nonconvex manifold with its own normal
type NonconvexContact struct {
	Offset    mgl64.Vec3
	Normal    mgl64.Vec3
	Depth     float64
	FeatureID int32
}

type NonconvexContactManifold struct {
	OffsetB  mgl64.Vec3
	Count    int
	Contacts [MaximumNonconvexContactCount]NonconvexContact
}

func (m *NonconvexContactManifold) ContactCount() int { return m.Count }
func (m *NonconvexContactManifold) Convex() bool      { return false }

// Add appends a contact. When full, the contact replaces the shallowest one if it is deeper.
// A feature id already present in the manifold is bumped until it is unique.
func (m *NonconvexContactManifold) Add(contact NonconvexContact) {
	if m.Count < MaximumNonconvexContactCount {
		for m.hasFeature(contact.FeatureID, -1) {
			contact.FeatureID++
		}
		m.Contacts[m.Count] = contact
		m.Count++
		return
	}

	shallowest := 0
	for i := 1; i < m.Count; i++ {
		if m.Contacts[i].Depth < m.Contacts[shallowest].Depth {
			shallowest = i
		}
	}
	if contact.Depth > m.Contacts[shallowest].Depth {
		for m.hasFeature(contact.FeatureID, shallowest) {
			contact.FeatureID++
		}
		m.Contacts[shallowest] = contact
	}
}

func (m *NonconvexContactManifold) hasFeature(featureID int32, skip int) bool {
	for i := 0; i < m.Count; i++ {
		if i != skip && m.Contacts[i].FeatureID == featureID {
			return true
		}
	}
	return false
}
