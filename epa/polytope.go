package epa

import (
	"errors"
	"math"
	"sync"

	"github.com/Swaelo/physcore/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

var errDegenerateSimplex = errors.New("epa: simplex has no volume")

// face is a triangle of the polytope, wound counter clockwise seen from outside
type face struct {
	points   [3]mgl64.Vec3
	normal   mgl64.Vec3
	distance float64
}

type edge struct {
	a, b mgl64.Vec3
}

// polytope is the expanding hull of Minkowski difference points around the origin
type polytope struct {
	faces   []face
	horizon []edge
	// interior is a point strictly inside the hull, used to orient new faces
	interior mgl64.Vec3
}

var polytopePool = sync.Pool{
	New: func() any {
		return &polytope{
			faces:   make([]face, 0, 16),
			horizon: make([]edge, 0, 16),
		}
	},
}

func (p *polytope) reset() {
	p.faces = p.faces[:0]
	p.horizon = p.horizon[:0]
}

func (p *polytope) init(simplex *gjk.Simplex) error {
	if simplex.Count != 4 {
		return errDegenerateSimplex
	}
	s := simplex.Points
	p.interior = s[0].Add(s[1]).Add(s[2]).Add(s[3]).Mul(0.25)

	for _, indices := range [4][3]int{{0, 1, 2}, {0, 2, 3}, {0, 3, 1}, {1, 3, 2}} {
		f, ok := p.newFace(s[indices[0]], s[indices[1]], s[indices[2]])
		if !ok {
			return errDegenerateSimplex
		}
		p.faces = append(p.faces, f)
	}
	return nil
}

// newFace orients the triangle away from the interior point
func (p *polytope) newFace(p0, p1, p2 mgl64.Vec3) (face, bool) {
	normal := p1.Sub(p0).Cross(p2.Sub(p0))
	length := normal.Len()
	if length < 1e-12 {
		return face{}, false
	}
	normal = normal.Mul(1 / length)
	if normal.Dot(p0.Sub(p.interior)) < 0 {
		normal = normal.Mul(-1)
		p1, p2 = p2, p1
	}

	return face{
		points:   [3]mgl64.Vec3{p0, p1, p2},
		normal:   snapNormal(normal),
		distance: math.Max(p0.Dot(normal), 0),
	}, true
}

func (p *polytope) closest() int {
	best := 0
	for i := 1; i < len(p.faces); i++ {
		if p.faces[i].distance < p.faces[best].distance {
			best = i
		}
	}
	return best
}

// expand replaces every face the support point can see by a fan around it
func (p *polytope) expand(support mgl64.Vec3) {
	p.horizon = p.horizon[:0]

	kept := p.faces[:0]
	var visible []face
	for _, f := range p.faces {
		if f.normal.Dot(support.Sub(f.points[0])) > 1e-10 {
			visible = append(visible, f)
		} else {
			kept = append(kept, f)
		}
	}
	p.faces = kept

	for _, f := range visible {
		for i := 0; i < 3; i++ {
			p.addHorizonEdge(f.points[i], f.points[(i+1)%3])
		}
	}

	for _, e := range p.horizon {
		if f, ok := p.newFace(e.a, e.b, support); ok {
			p.faces = append(p.faces, f)
		}
	}
}

// addHorizonEdge cancels edges shared by two visible faces; shared edges appear once in each winding
func (p *polytope) addHorizonEdge(a, b mgl64.Vec3) {
	for i, e := range p.horizon {
		if e.a == b && e.b == a {
			last := len(p.horizon) - 1
			p.horizon[i] = p.horizon[last]
			p.horizon = p.horizon[:last]
			return
		}
	}
	p.horizon = append(p.horizon, edge{a: a, b: b})
}

// snapNormal zeroes components too small to be anything but noise, keeping axis aligned contacts exact
func snapNormal(normal mgl64.Vec3) mgl64.Vec3 {
	for i := range normal {
		if math.Abs(normal[i]) < NormalSnapThreshold {
			normal[i] = 0
		}
	}
	length := normal.Len()
	if length < 1e-8 {
		return mgl64.Vec3{0, 1, 0}
	}
	return normal.Mul(1 / length)
}
