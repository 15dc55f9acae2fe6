// Package mesh provides the polygonal surface representation shared by the
// placement pipeline, plus generators and glTF IO.
package mesh

import (
	"math"

	"github.com/taigrr/entryframe/pkg/math3d"
)

// Mesh is an ordered set of points plus polygons referencing them by index.
//
// Normals are optional. When HasNormals is set every Vertex.Normal is either
// unit length or NaN, the sentinel for "undefined". FaceNormals, when
// non-nil, holds one normal per face under the same rule.
type Mesh struct {
	Name     string
	Vertices []Vertex
	Faces    []Face

	HasNormals  bool
	FaceNormals []math3d.Vec3

	// Bounding box (see CalculateBounds)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// Vertex holds the per-point attributes.
type Vertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
}

// Face is a polygon given as indices into Mesh.Vertices, counter-clockwise
// when seen from the outside.
type Face struct {
	V []int
}

// Tri is a convenience constructor for a triangular face.
func Tri(a, b, c int) Face {
	return Face{V: []int{a, b, c}}
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:     name,
		Vertices: make([]Vertex, 0),
		Faces:    make([]Face, 0),
	}
}

// AddVertex appends a point with an undefined normal and returns its index.
func (m *Mesh) AddVertex(p math3d.Vec3) int {
	m.Vertices = append(m.Vertices, Vertex{Position: p, Normal: math3d.NaN3()})
	return len(m.Vertices) - 1
}

// AddVertexNormal appends a point with a normal and returns its index.
func (m *Mesh) AddVertexNormal(p, n math3d.Vec3) int {
	m.Vertices = append(m.Vertices, Vertex{Position: p, Normal: n})
	return len(m.Vertices) - 1
}

// AddFace appends a polygon.
func (m *Mesh) AddFace(idx ...int) {
	m.Faces = append(m.Faces, Face{V: append([]int(nil), idx...)})
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Vertices) == 0 {
		m.BoundsMin, m.BoundsMax = math3d.Zero3(), math3d.Zero3()
		return
	}

	m.BoundsMin = m.Vertices[0].Position
	m.BoundsMax = m.Vertices[0].Position

	for _, v := range m.Vertices[1:] {
		m.BoundsMin = m.BoundsMin.Min(v.Position)
		m.BoundsMax = m.BoundsMax.Max(v.Position)
	}
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// Diagonal returns the length of the bounding box diagonal.
func (m *Mesh) Diagonal() float64 {
	return m.Size().Len()
}

// TriangleCount returns the number of faces with exactly three indices.
func (m *Mesh) TriangleCount() int {
	n := 0
	for _, f := range m.Faces {
		if len(f.V) == 3 {
			n++
		}
	}
	return n
}

// FaceCount returns the number of polygons.
func (m *Mesh) FaceCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of points.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// IsEmpty reports whether the mesh has no faces.
func (m *Mesh) IsEmpty() bool {
	return len(m.Faces) == 0
}

// IsTriangular reports whether every face is a triangle.
func (m *Mesh) IsTriangular() bool {
	for _, f := range m.Faces {
		if len(f.V) != 3 {
			return false
		}
	}
	return true
}

// Positions returns a copy of the point coordinates.
func (m *Mesh) Positions() []math3d.Vec3 {
	out := make([]math3d.Vec3, len(m.Vertices))
	for i, v := range m.Vertices {
		out[i] = v.Position
	}
	return out
}

// FaceNormal returns the unit geometric normal of face i using Newell's
// method, or NaN for a degenerate face.
func (m *Mesh) FaceNormal(i int) math3d.Vec3 {
	n := newellNormal(m.Vertices, m.Faces[i].V)
	l := n.Len()
	if l == 0 || math.IsNaN(l) {
		return math3d.NaN3()
	}
	return n.Scale(1 / l)
}

// CalculateFaceNormals fills FaceNormals with the geometric normal of each
// face. Degenerate faces get NaN.
func (m *Mesh) CalculateFaceNormals() {
	m.FaceNormals = make([]math3d.Vec3, len(m.Faces))
	for i := range m.Faces {
		m.FaceNormals[i] = m.FaceNormal(i)
	}
}

// CalculateNormals computes area-weighted per-point normals for smooth
// shading. Points that touch no face with non-zero area receive NaN.
func (m *Mesh) CalculateNormals() {
	acc := make([]math3d.Vec3, len(m.Vertices))

	// Newell normals are area-weighted, so the sum favours large faces.
	for _, f := range m.Faces {
		n := newellNormal(m.Vertices, f.V)
		for _, idx := range f.V {
			acc[idx] = acc[idx].Add(n)
		}
	}

	for i := range m.Vertices {
		if acc[i].LenSq() == 0 {
			m.Vertices[i].Normal = math3d.NaN3()
			continue
		}
		m.Vertices[i].Normal = acc[i].Normalize()
	}
	m.HasNormals = true
}

// Transform applies an affine matrix to all points and, with the rotation
// part only, to the normals.
func (m *Mesh) Transform(mat math3d.Mat4) {
	for i := range m.Vertices {
		m.Vertices[i].Position = mat.MulVec3(m.Vertices[i].Position)
		if m.HasNormals && m.Vertices[i].Normal.IsFinite() {
			m.Vertices[i].Normal = mat.MulVec3Dir(m.Vertices[i].Normal).Normalize()
		}
	}
	for i, n := range m.FaceNormals {
		if n.IsFinite() {
			m.FaceNormals[i] = mat.MulVec3Dir(n).Normalize()
		}
	}
	m.CalculateBounds()
}

// Clone creates a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	clone := &Mesh{
		Name:       m.Name,
		Vertices:   make([]Vertex, len(m.Vertices)),
		Faces:      make([]Face, len(m.Faces)),
		HasNormals: m.HasNormals,
		BoundsMin:  m.BoundsMin,
		BoundsMax:  m.BoundsMax,
	}
	copy(clone.Vertices, m.Vertices)
	for i, f := range m.Faces {
		clone.Faces[i] = Face{V: append([]int(nil), f.V...)}
	}
	if m.FaceNormals != nil {
		clone.FaceNormals = append([]math3d.Vec3(nil), m.FaceNormals...)
	}
	return clone
}

// Area returns the total surface area.
func (m *Mesh) Area() float64 {
	total := 0.0
	for _, f := range m.Faces {
		total += newellNormal(m.Vertices, f.V).Len() * 0.5
	}
	return total
}

// newellNormal returns the unnormalized polygon normal. Its length is twice
// the polygon area, so it doubles as an area weight.
func newellNormal(verts []Vertex, idx []int) math3d.Vec3 {
	var n math3d.Vec3
	for i := range idx {
		cur := verts[idx[i]].Position
		next := verts[idx[(i+1)%len(idx)]].Position
		n.X += (cur.Y - next.Y) * (cur.Z + next.Z)
		n.Y += (cur.Z - next.Z) * (cur.X + next.X)
		n.Z += (cur.X - next.X) * (cur.Y + next.Y)
	}
	return n
}
