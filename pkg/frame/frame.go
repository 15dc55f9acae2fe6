// Package frame builds the placement transform from an aggregate surface
// normal and the ROI center.
//
// The frame's columns are (V1, N, V2, C): the surface normal is the second
// column, i.e. local +Y, and the basis is right-handed (V1 × N = V2).
package frame

import (
	"math"

	"github.com/taigrr/entryframe/pkg/math3d"
)

// MinNormal is the length below which a normal is treated as zero.
const MinNormal = 1e-12

// FallbackNormal replaces a zero or non-finite normal.
var FallbackNormal = math3d.UnitZ()

// Basis is an orthonormal triple around a normal.
type Basis struct {
	V1, N, V2 math3d.Vec3
	// Fallback is set when the input normal was unusable and
	// FallbackNormal was used in its place.
	Fallback bool
}

// Perpendiculars returns two unit vectors perpendicular to n and to each
// other, such that (n, v2, v1) is right-handed. The seed axis is chosen by
// the dominant component of n, so axis-aligned and tiny normals are stable.
// n must be finite and non-zero.
func Perpendiculars(n math3d.Vec3) (v1, v2 math3d.Vec3) {
	n = rescale(n)
	x := n.Array()
	r := n.Len()

	var dx, dy, dz int
	switch {
	case x[0]*x[0] > x[1]*x[1] && x[0]*x[0] > x[2]*x[2]:
		dx, dy, dz = 0, 1, 2
	case x[1]*x[1] > x[2]*x[2]:
		dx, dy, dz = 1, 2, 0
	default:
		dx, dy, dz = 2, 0, 1
	}

	a, b, c := x[dx]/r, x[dy]/r, x[dz]/r
	tmp := math.Sqrt(a*a + c*c)

	var y, z [3]float64
	y[dx] = c / tmp
	y[dy] = 0
	y[dz] = -a / tmp

	z[dx] = -a * b / tmp
	z[dy] = tmp
	z[dz] = -b * c / tmp

	return math3d.FromArray(z), math3d.FromArray(y)
}

// NewBasis derives the frame basis from a possibly unnormalized normal.
// Each vector is normalized on its own.
func NewBasis(n math3d.Vec3) Basis {
	b := Basis{}
	if !n.IsFinite() || n.Len() < MinNormal {
		n = FallbackNormal
		b.Fallback = true
	}
	n = rescale(n)
	v1, v2 := Perpendiculars(n)
	b.V1 = v1.Normalize()
	b.N = n.Normalize()
	b.V2 = v2.Normalize()
	return b
}

// rescale divides n by its largest component when its length overflows.
func rescale(n math3d.Vec3) math3d.Vec3 {
	if !math.IsInf(n.Len(), 0) {
		return n
	}
	m := max(math.Abs(n.X), math.Abs(n.Y), math.Abs(n.Z))
	return math3d.V3(n.X/m, n.Y/m, n.Z/m)
}

// Matrix assembles the transform with the basis as rotation and c as
// translation.
func (b Basis) Matrix(c math3d.Vec3) math3d.Mat4 {
	return math3d.FromBasis(b.V1, b.N, b.V2, c)
}

// Build returns the placement frame for normal n at center c.
func Build(n, c math3d.Vec3) math3d.Mat4 {
	return NewBasis(n).Matrix(c)
}

// Transform is a named, caller-owned output slot for a placement frame.
type Transform struct {
	Name   string
	matrix math3d.Mat4
	set    bool
}

// NewTransform returns a transform holding the identity.
func NewTransform(name string) *Transform {
	return &Transform{Name: name, matrix: math3d.Identity()}
}

// Set stores m.
func (t *Transform) Set(m math3d.Mat4) {
	t.matrix = m
	t.set = true
}

// Matrix returns the stored matrix. A zero Transform holds the identity.
func (t *Transform) Matrix() math3d.Mat4 {
	if !t.set && t.matrix == (math3d.Mat4{}) {
		return math3d.Identity()
	}
	return t.matrix
}

// IsSet reports whether a frame was ever stored.
func (t *Transform) IsSet() bool { return t.set }
