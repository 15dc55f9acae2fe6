// Package clip cuts a surface mesh against an implicit region.
//
// Triangles fully on the kept side are copied, triangles fully on the other
// side are dropped, and straddling triangles are re-triangulated through
// cut points placed on their crossing edges. The result is cleaned of
// duplicate points and zero-area triangles.
package clip

import (
	"github.com/taigrr/entryframe/pkg/math3d"
	"github.com/taigrr/entryframe/pkg/mesh"
	"github.com/taigrr/entryframe/pkg/region"
)

// bisectSteps refines cut points on edges whose far end carries no field
// value. 48 halvings reach float64 resolution on any practical edge.
const bisectSteps = 48

// Options controls the clip.
type Options struct {
	// Invert keeps the part of the surface outside the region.
	Invert bool
	// Tolerance merges cleaned points closer than this distance. Zero
	// merges exact duplicates only.
	Tolerance float64
}

// Stats counts what the clip did.
type Stats struct {
	InputTriangles int
	Kept           int
	Split          int
	Dropped        int
	MergedPoints   int
	RemovedFaces   int
}

// Clip returns the part of m on the kept side of r. m is not modified.
// The patch keeps per-point normals when m has them, and face normals when
// m carries FaceNormals.
func Clip(m *mesh.Mesh, r region.Region, opts Options) (*mesh.Mesh, Stats) {
	tri := mesh.Triangulate(m)
	c := newClipper(tri, r, opts.Invert)
	c.run()

	patch, cs := Clean(c.out, opts.Tolerance)
	c.stats.MergedPoints = cs.MergedPoints
	c.stats.RemovedFaces = cs.RemovedFaces
	return patch, c.stats
}

type clipper struct {
	in     *mesh.Mesh
	region region.Region
	invert bool

	values []float64
	kept   []bool

	out     *mesh.Mesh
	pointOf []int
	edges   map[[2]int]int
	stats   Stats
}

func newClipper(in *mesh.Mesh, r region.Region, invert bool) *clipper {
	c := &clipper{
		in:      in,
		region:  r,
		invert:  invert,
		values:  make([]float64, len(in.Vertices)),
		kept:    make([]bool, len(in.Vertices)),
		out:     mesh.NewMesh(in.Name + "-patch"),
		pointOf: make([]int, len(in.Vertices)),
		edges:   make(map[[2]int]int),
	}
	c.out.HasNormals = in.HasNormals
	if in.FaceNormals != nil {
		c.out.FaceNormals = make([]math3d.Vec3, 0, len(in.FaceNormals))
	}
	for i, v := range in.Vertices {
		c.values[i] = r.Evaluate(v.Position)
		c.kept[i] = c.keep(c.values[i])
		c.pointOf[i] = -1
	}
	return c
}

func (c *clipper) keep(v float64) bool {
	return (v > 0) != c.invert
}

func (c *clipper) run() {
	for fi, f := range c.in.Faces {
		c.stats.InputTriangles++
		a, b, d := f.V[0], f.V[1], f.V[2]

		switch n := c.countKept(a, b, d); n {
		case 0:
			c.stats.Dropped++
		case 3:
			c.stats.Kept++
			c.emit(fi, c.point(a), c.point(b), c.point(d))
		default:
			c.stats.Split++
			c.split(fi, a, b, d, n)
		}
	}
	c.out.CalculateBounds()
}

func (c *clipper) countKept(idx ...int) int {
	n := 0
	for _, i := range idx {
		if c.kept[i] {
			n++
		}
	}
	return n
}

// split re-triangulates a straddling triangle, preserving its winding.
func (c *clipper) split(fi, a, b, d, n int) {
	// Rotate so that v0 is the odd one out: the only kept vertex when
	// n == 1, the only dropped one when n == 2.
	v := [3]int{a, b, d}
	for c.kept[v[0]] != (n == 1) {
		v = [3]int{v[1], v[2], v[0]}
	}
	if n == 1 {
		c.emit(fi, c.point(v[0]), c.cut(fi, v[0], v[1]), c.cut(fi, v[0], v[2]))
		return
	}
	c01 := c.cut(fi, v[1], v[0])
	c20 := c.cut(fi, v[2], v[0])
	c.emit(fi, c01, c.point(v[1]), c.point(v[2]))
	c.emit(fi, c01, c.point(v[2]), c20)
}

func (c *clipper) emit(fi, a, b, d int) {
	c.out.Faces = append(c.out.Faces, mesh.Tri(a, b, d))
	if c.out.FaceNormals != nil {
		c.out.FaceNormals = append(c.out.FaceNormals, c.in.FaceNormals[fi])
	}
}

// point copies input vertex i into the output once.
func (c *clipper) point(i int) int {
	if c.pointOf[i] < 0 {
		c.pointOf[i] = len(c.out.Vertices)
		c.out.Vertices = append(c.out.Vertices, c.in.Vertices[i])
	}
	return c.pointOf[i]
}

// cut returns the output point on edge (in, out), where in is kept and out
// is not. Each edge is cut once and shared by both adjacent triangles.
func (c *clipper) cut(fi, in, out int) int {
	key := [2]int{min(in, out), max(in, out)}
	if idx, ok := c.edges[key]; ok {
		return idx
	}

	pa := c.in.Vertices[in].Position
	pb := c.in.Vertices[out].Position
	t := c.crossing(in, out)
	p := pa.Lerp(pb, t)

	idx := len(c.out.Vertices)
	c.out.Vertices = append(c.out.Vertices, mesh.Vertex{Position: p, Normal: c.cutNormal(fi, in, out, t)})
	c.edges[key] = idx
	return idx
}

// crossing returns the edge parameter, measured from the kept end, where
// the kept predicate flips.
func (c *clipper) crossing(in, out int) float64 {
	fa, fb := c.values[in], c.values[out]
	if !region.IsOut(fa) && !region.IsOut(fb) {
		if fa == fb {
			return 0.5
		}
		return fa / (fa - fb)
	}

	pa := c.in.Vertices[in].Position
	pb := c.in.Vertices[out].Position
	lo, hi := 0.0, 1.0
	for range bisectSteps {
		mid := (lo + hi) / 2
		if c.keep(c.region.Evaluate(pa.Lerp(pb, mid))) {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// cutNormal interpolates the endpoint normals. A non-finite endpoint is
// ignored; with neither usable the triangle's geometric normal is used, and
// world Z as the last resort. The result is always finite.
func (c *clipper) cutNormal(fi, in, out int, t float64) math3d.Vec3 {
	na := c.in.Vertices[in].Normal
	nb := c.in.Vertices[out].Normal
	var n math3d.Vec3
	switch {
	case na.IsFinite() && nb.IsFinite():
		n = na.Lerp(nb, t).Normalize()
	case na.IsFinite():
		n = na.Normalize()
	case nb.IsFinite():
		n = nb.Normalize()
	}
	if n.LenSq() > 0 {
		return n
	}
	if g := c.in.FaceNormal(fi); g.IsFinite() {
		return g
	}
	return math3d.UnitZ()
}
