package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/taigrr/entryframe/pkg/math3d"
)

// DefaultSphereResolution is the theta/phi subdivision used for ROI spheres.
// 20x20 gives a boundary smooth enough for the solidified region.
const DefaultSphereResolution = 20

// ErrBadShape is returned by the generators for invalid parameters.
var ErrBadShape = errors.New("mesh: invalid shape parameters")

// Sphere generates a closed, outward-wound triangulated sphere.
//
// Layout: point 0 is the north pole (+Z), point 1 the south pole, then
// thetaRes meridians of phiRes-2 points each, top to bottom. Every point
// carries its radial unit normal.
func Sphere(center math3d.Vec3, radius float64, thetaRes, phiRes int) (*Mesh, error) {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return nil, fmt.Errorf("%w: sphere radius %v", ErrBadShape, radius)
	}
	if thetaRes < 3 || phiRes < 3 {
		return nil, fmt.Errorf("%w: sphere resolution %dx%d (min 3x3)", ErrBadShape, thetaRes, phiRes)
	}

	m := NewMesh("roi-sphere")
	m.HasNormals = true

	addPoint := func(dir math3d.Vec3) {
		m.AddVertexNormal(center.Add(dir.Scale(radius)), dir)
	}
	addPoint(math3d.UnitZ())
	addPoint(math3d.UnitZ().Negate())

	rings := phiRes - 2
	for i := range thetaRes {
		theta := 2 * math.Pi * float64(i) / float64(thetaRes)
		for j := 1; j <= rings; j++ {
			phi := math.Pi * float64(j) / float64(phiRes-1)
			addPoint(math3d.V3(
				math.Cos(theta)*math.Sin(phi),
				math.Sin(theta)*math.Sin(phi),
				math.Cos(phi),
			))
		}
	}

	idx := func(i, j int) int {
		return 2 + (i%thetaRes)*rings + (j - 1)
	}

	for i := range thetaRes {
		// North cap
		m.Faces = append(m.Faces, Tri(0, idx(i, 1), idx(i+1, 1)))
		// Bands between consecutive rings
		for j := 1; j < rings; j++ {
			a, b := idx(i, j), idx(i+1, j)
			c, d := idx(i+1, j+1), idx(i, j+1)
			m.Faces = append(m.Faces, Tri(a, d, c), Tri(a, c, b))
		}
		// South cap
		m.Faces = append(m.Faces, Tri(1, idx(i+1, rings), idx(i, rings)))
	}

	m.CalculateBounds()
	return m, nil
}

// Plane generates a square grid in the XY plane centered at center, with
// divisions cells per side and every normal pointing +Z.
func Plane(center math3d.Vec3, size float64, divisions int) (*Mesh, error) {
	if !(size > 0) || divisions < 1 {
		return nil, fmt.Errorf("%w: plane size %v divisions %d", ErrBadShape, size, divisions)
	}

	m := NewMesh("plane")
	m.HasNormals = true

	step := size / float64(divisions)
	half := size / 2
	for row := 0; row <= divisions; row++ {
		for col := 0; col <= divisions; col++ {
			p := math3d.V3(
				center.X-half+float64(col)*step,
				center.Y-half+float64(row)*step,
				center.Z,
			)
			m.AddVertexNormal(p, math3d.UnitZ())
		}
	}

	stride := divisions + 1
	for row := range divisions {
		for col := range divisions {
			a := row*stride + col
			b := a + 1
			c := a + stride + 1
			d := a + stride
			m.AddFace(a, b, c, d)
		}
	}

	m.CalculateBounds()
	return m, nil
}
