package mesh

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/taigrr/entryframe/pkg/math3d"
)

// DefaultMeshCells controls marching cubes resolution for generated
// surfaces.
const DefaultMeshCells = 64

// FromSDF tessellates a signed distance solid with uniform marching cubes.
// Every triangle gets its own three points carrying the face normal.
func FromSDF(name string, s sdf.SDF3, cells int) *Mesh {
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	triangles := render.ToTriangles(s, render.NewMarchingCubesUniform(cells))

	m := NewMesh(name)
	m.Vertices = make([]Vertex, 0, len(triangles)*3)
	m.Faces = make([]Face, 0, len(triangles))
	m.HasNormals = true

	for _, tri := range triangles {
		n := tri.Normal()
		normal := math3d.V3(n.X, n.Y, n.Z)
		if normal.LenSq() == 0 {
			normal = math3d.NaN3()
		}
		base := len(m.Vertices)
		for j := range 3 {
			v := tri[j]
			m.AddVertexNormal(math3d.V3(v.X, v.Y, v.Z), normal)
		}
		m.Faces = append(m.Faces, Tri(base, base+1, base+2))
	}

	m.CalculateBounds()
	return m
}

// Surface names accepted by Synthetic.
const (
	SurfaceBox    = "box"
	SurfaceSphere = "sphere"
	SurfacePlane  = "plane"
)

// Synthetic builds a test surface of the given kind and characteristic
// size, centered at the origin. Box and sphere come from sdfx solids; the
// plane is an exact XY grid.
func Synthetic(kind string, size float64, cells int) (*Mesh, error) {
	var (
		s   sdf.SDF3
		err error
	)
	switch kind {
	case SurfaceBox:
		s, err = sdf.Box3D(v3.Vec{X: size, Y: size, Z: size}, 0)
	case SurfaceSphere:
		s, err = sdf.Sphere3D(size / 2)
	case SurfacePlane:
		return Plane(math3d.Zero3(), size, 32)
	default:
		return nil, fmt.Errorf("%w: unknown surface %q", ErrBadShape, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("sdfx %s: %w", kind, err)
	}
	return FromSDF(kind, s, cells), nil
}
