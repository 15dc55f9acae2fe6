package region

import (
	"math"

	"github.com/taigrr/entryframe/pkg/math3d"
)

// DefaultMergeTolerance merges input points closer than this fraction of
// the point set's extent.
const DefaultMergeTolerance = 1e-10

const (
	// superScale places the enclosing tetrahedron far enough out that
	// hull faces of the real points survive its removal.
	superScale = 1000.0
	// minVolume rejects new tetrahedra flatter than this (normalized
	// units) and forces the cavity to grow instead.
	minVolume = 1e-13
	// sphereSlack treats points within this relative margin of a
	// circumsphere as outside it, so cospherical inputs stay stable.
	sphereSlack = 1e-10
)

// Tetra is a tetrahedron given as indices into Complex.Points, positively
// oriented: (b-a)·((c-a)×(d-a)) > 0.
type Tetra [4]int

// Complex is a tetrahedral decomposition of the convex hull of a point set.
type Complex struct {
	Points []math3d.Vec3
	Tetras []Tetra
}

// Empty reports whether the complex has no tetrahedra.
func (c *Complex) Empty() bool {
	return c == nil || len(c.Tetras) == 0
}

// Volume returns the summed volume of all tetrahedra.
func (c *Complex) Volume() float64 {
	if c == nil {
		return 0
	}
	total := 0.0
	for _, t := range c.Tetras {
		total += orient(c.Points[t[0]], c.Points[t[1]], c.Points[t[2]], c.Points[t[3]]) / 6
	}
	return total
}

// Bounds returns the axis-aligned bounds of the complex points.
func (c *Complex) Bounds() (min, max math3d.Vec3) {
	if c == nil || len(c.Points) == 0 {
		return math3d.Zero3(), math3d.Zero3()
	}
	min, max = c.Points[0], c.Points[0]
	for _, p := range c.Points[1:] {
		min = min.Min(p)
		max = max.Max(p)
	}
	return min, max
}

// orient returns six times the signed volume of (a, b, c, d).
func orient(a, b, c, d math3d.Vec3) float64 {
	return b.Sub(a).Dot(c.Sub(a).Cross(d.Sub(a)))
}

// tet is a working tetrahedron during insertion.
type tet struct {
	v     Tetra
	cc    math3d.Vec3
	r2    float64
	alive bool
}

type faceKey [3]int

func makeFaceKey(a, b, c int) faceKey {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b, c = c, b
	}
	if a > b {
		a, b = b, a
	}
	return faceKey{a, b, c}
}

// faceOf returns the key of the face opposite local vertex i.
func (t *tet) faceOf(i int) faceKey {
	var f [3]int
	k := 0
	for j := range 4 {
		if j != i {
			f[k] = t.v[j]
			k++
		}
	}
	return makeFaceKey(f[0], f[1], f[2])
}

// triangulator holds Bowyer-Watson state over normalized coordinates.
type triangulator struct {
	pts   []math3d.Vec3
	tets  []tet
	faces map[faceKey][]int
	last  int
}

// Tetrahedralize computes a 3D Delaunay triangulation of points.
//
// Coincident points (within mergeTol of the extent) are merged; the output
// Complex only holds the distinct points, in first-seen order. Fewer than
// four distinct points, or a coplanar set, yields an empty Complex. The
// result is deterministic for a given input order.
func Tetrahedralize(points []math3d.Vec3, mergeTol float64) *Complex {
	if mergeTol <= 0 {
		mergeTol = DefaultMergeTolerance
	}

	var finite []math3d.Vec3
	for _, p := range points {
		if p.IsFinite() {
			finite = append(finite, p)
		}
	}
	if len(finite) < 4 {
		return &Complex{}
	}

	// Normalize into [-1, 1]^3 around the bounding box center.
	lo, hi := finite[0], finite[0]
	for _, p := range finite[1:] {
		lo = lo.Min(p)
		hi = hi.Max(p)
	}
	center := lo.Add(hi).Scale(0.5)
	ext := hi.Sub(lo)
	scale := math.Max(ext.X, math.Max(ext.Y, ext.Z)) / 2
	if scale == 0 {
		return &Complex{}
	}

	seen := make(map[[3]int64]struct{}, len(finite))
	var unique, norm []math3d.Vec3
	for _, p := range finite {
		q := p.Sub(center).Scale(1 / scale)
		key := [3]int64{
			int64(math.Round(q.X / mergeTol)),
			int64(math.Round(q.Y / mergeTol)),
			int64(math.Round(q.Z / mergeTol)),
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, p)
		norm = append(norm, q)
	}
	if len(unique) < 4 || coplanar(norm) {
		return &Complex{Points: unique}
	}

	tr := newTriangulator(norm)
	for i := range norm {
		tr.insert(i)
	}

	n := len(norm)
	out := &Complex{Points: unique}
	for i := range tr.tets {
		t := &tr.tets[i]
		if !t.alive || t.v[0] >= n || t.v[1] >= n || t.v[2] >= n || t.v[3] >= n {
			continue
		}
		if orient(norm[t.v[0]], norm[t.v[1]], norm[t.v[2]], norm[t.v[3]]) <= minVolume {
			continue
		}
		out.Tetras = append(out.Tetras, t.v)
	}
	return out
}

// coplanar reports whether all points lie (numerically) in one plane.
func coplanar(pts []math3d.Vec3) bool {
	a := pts[0]
	b, far := a, 0.0
	for _, p := range pts {
		if d := p.Sub(a).LenSq(); d > far {
			b, far = p, d
		}
	}
	if far == 0 {
		return true
	}
	ab := b.Sub(a)
	c, area := a, 0.0
	for _, p := range pts {
		if s := ab.Cross(p.Sub(a)).LenSq(); s > area {
			c, area = p, s
		}
	}
	if area == 0 {
		return true
	}
	maxVol := 0.0
	for _, p := range pts {
		maxVol = math.Max(maxVol, math.Abs(orient(a, b, c, p)))
	}
	return maxVol <= minVolume
}

func newTriangulator(norm []math3d.Vec3) *triangulator {
	n := len(norm)
	tr := &triangulator{
		pts:   append(append([]math3d.Vec3(nil), norm...), superVertices()...),
		faces: make(map[faceKey][]int),
	}
	super := Tetra{n, n + 1, n + 2, n + 3}
	if tr.orientOf(super) < 0 {
		super[0], super[1] = super[1], super[0]
	}
	tr.add(super)
	return tr
}

// superVertices returns a regular tetrahedron whose insphere contains the
// normalized cube with a wide margin.
func superVertices() []math3d.Vec3 {
	s := superScale
	return []math3d.Vec3{
		math3d.V3(s, s, s),
		math3d.V3(s, -s, -s),
		math3d.V3(-s, s, -s),
		math3d.V3(-s, -s, s),
	}
}

func (tr *triangulator) orientOf(v Tetra) float64 {
	return orient(tr.pts[v[0]], tr.pts[v[1]], tr.pts[v[2]], tr.pts[v[3]])
}

// add appends a tetrahedron, computes its circumsphere and registers its
// faces.
func (tr *triangulator) add(v Tetra) int {
	t := tet{v: v, alive: true}
	t.cc, t.r2 = circumsphere(tr.pts[v[0]], tr.pts[v[1]], tr.pts[v[2]], tr.pts[v[3]])
	id := len(tr.tets)
	tr.tets = append(tr.tets, t)
	for i := range 4 {
		k := tr.tets[id].faceOf(i)
		tr.faces[k] = append(tr.faces[k], id)
	}
	tr.last = id
	return id
}

// kill removes a tetrahedron and unregisters its faces.
func (tr *triangulator) kill(id int) {
	t := &tr.tets[id]
	t.alive = false
	for i := range 4 {
		k := t.faceOf(i)
		owners := tr.faces[k]
		for j, o := range owners {
			if o == id {
				owners = append(owners[:j], owners[j+1:]...)
				break
			}
		}
		if len(owners) == 0 {
			delete(tr.faces, k)
		} else {
			tr.faces[k] = owners
		}
	}
}

// neighbor returns the tetrahedron across the face opposite local vertex
// i of id, or -1 on the outer boundary.
func (tr *triangulator) neighbor(id, i int) int {
	for _, o := range tr.faces[tr.tets[id].faceOf(i)] {
		if o != id {
			return o
		}
	}
	return -1
}

// replaced returns the orientation of t with local vertex i moved to p.
// It is positive when p sees that face from the same side as vertex i.
func (tr *triangulator) replaced(t *tet, i, p int) float64 {
	v := t.v
	v[i] = p
	return tr.orientOf(v)
}

// locate finds a live tetrahedron containing point p, walking from the
// last created one and scanning as a fallback.
func (tr *triangulator) locate(p int) int {
	cur := tr.last
	for steps := 0; steps < len(tr.tets) && cur >= 0 && tr.tets[cur].alive; steps++ {
		t := &tr.tets[cur]
		next := -1
		for i := range 4 {
			if tr.replaced(t, i, p) < 0 {
				next = tr.neighbor(cur, i)
				break
			}
		}
		if next < 0 {
			return cur
		}
		cur = next
	}

	best, bestMin := -1, math.Inf(-1)
	for id := range tr.tets {
		t := &tr.tets[id]
		if !t.alive {
			continue
		}
		m := math.Inf(1)
		for i := range 4 {
			m = math.Min(m, tr.replaced(t, i, p))
		}
		if m > bestMin {
			best, bestMin = id, m
		}
	}
	return best
}

func (tr *triangulator) inCircumsphere(id, p int) bool {
	t := &tr.tets[id]
	return tr.pts[p].Sub(t.cc).LenSq() < t.r2*(1-sphereSlack)
}

// insert adds point p: it grows the cavity of tetrahedra whose circumsphere
// contains p, extends it until every boundary face is strictly visible
// from p, and re-fills it with tetrahedra joined at p.
func (tr *triangulator) insert(p int) {
	seed := tr.locate(p)
	if seed < 0 {
		return
	}

	inCavity := map[int]bool{seed: true}
	order := []int{seed}
	for q := 0; q < len(order); q++ {
		id := order[q]
		for i := range 4 {
			nb := tr.neighbor(id, i)
			if nb < 0 || inCavity[nb] || !tr.inCircumsphere(nb, p) {
				continue
			}
			inCavity[nb] = true
			order = append(order, nb)
		}
	}

	type boundary struct {
		id, i int
	}
	var faces []boundary
	for {
		faces = faces[:0]
		grown := false
		for _, id := range order {
			t := &tr.tets[id]
			for i := range 4 {
				nb := tr.neighbor(id, i)
				if nb >= 0 && inCavity[nb] {
					continue
				}
				if tr.replaced(t, i, p) > minVolume {
					faces = append(faces, boundary{id, i})
					continue
				}
				if nb < 0 {
					// p is flat against the outer hull; drop it.
					return
				}
				inCavity[nb] = true
				order = append(order, nb)
				grown = true
			}
		}
		if !grown {
			break
		}
	}

	newTets := make([]Tetra, len(faces))
	for k, f := range faces {
		v := tr.tets[f.id].v
		v[f.i] = p
		newTets[k] = v
	}
	for _, id := range order {
		tr.kill(id)
	}
	for _, v := range newTets {
		tr.add(v)
	}
}

// circumsphere returns the center and squared radius of the sphere through
// a, b, c and d. A flat tetrahedron gets an infinite radius.
func circumsphere(a, b, c, d math3d.Vec3) (math3d.Vec3, float64) {
	u, v, w := b.Sub(a), c.Sub(a), d.Sub(a)
	vw := v.Cross(w)
	den := 2 * u.Dot(vw)
	if den == 0 {
		return a, math.Inf(1)
	}
	off := vw.Scale(u.LenSq()).
		Add(w.Cross(u).Scale(v.LenSq())).
		Add(u.Cross(v).Scale(w.LenSq())).
		Scale(1 / den)
	return a.Add(off), off.LenSq()
}
