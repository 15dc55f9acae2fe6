package mesh

import (
	"math"
	"testing"

	"github.com/taigrr/entryframe/pkg/math3d"
)

func polygon(points ...math3d.Vec3) *Mesh {
	m := NewMesh("poly")
	idx := make([]int, len(points))
	for i, p := range points {
		idx[i] = m.AddVertex(p)
	}
	m.AddFace(idx...)
	return m
}

func TestTriangulate(t *testing.T) {
	tests := []struct {
		name string
		mesh *Mesh
		tris int
		area float64
	}{
		{
			name: "triangle passes through",
			mesh: polygon(math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(0, 1, 0)),
			tris: 1,
			area: 0.5,
		},
		{
			name: "square",
			mesh: polygon(math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(1, 1, 0), math3d.V3(0, 1, 0)),
			tris: 2,
			area: 1,
		},
		{
			// L shape with a reflex corner at (1,1); a naive fan from
			// vertex 0 would cover area outside the polygon.
			name: "concave L",
			mesh: polygon(
				math3d.V3(0, 0, 0), math3d.V3(2, 0, 0), math3d.V3(2, 1, 0),
				math3d.V3(1, 1, 0), math3d.V3(1, 2, 0), math3d.V3(0, 2, 0),
			),
			tris: 4,
			area: 3,
		},
		{
			name: "clockwise pentagon in YZ",
			mesh: polygon(
				math3d.V3(0, 0, 0), math3d.V3(0, 0, 1), math3d.V3(0, 1, 2),
				math3d.V3(0, 2, 1), math3d.V3(0, 2, 0),
			),
			tris: 3,
			area: 3,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			want := tc.mesh.FaceNormal(0)
			out := Triangulate(tc.mesh)

			if !out.IsTriangular() {
				t.Fatal("output has non-triangle faces")
			}
			if got := out.FaceCount(); got != tc.tris {
				t.Errorf("triangles = %d, want %d", got, tc.tris)
			}
			if got := out.Area(); math.Abs(got-tc.area) > 1e-9 {
				t.Errorf("area = %v, want %v", got, tc.area)
			}
			for i := range out.Faces {
				if n := out.FaceNormal(i); n.Dot(want) < 1-1e-9 {
					t.Errorf("triangle %d normal %v disagrees with polygon normal %v", i, n, want)
				}
			}
		})
	}
}

func TestTriangulateDropsShortFaces(t *testing.T) {
	m := NewMesh("lines")
	m.AddVertex(math3d.V3(0, 0, 0))
	m.AddVertex(math3d.V3(1, 0, 0))
	m.AddFace(0, 1)
	m.FaceNormals = []math3d.Vec3{math3d.UnitZ()}

	out := Triangulate(m)
	if !out.IsEmpty() {
		t.Errorf("expected no faces, got %d", out.FaceCount())
	}
	if len(out.FaceNormals) != 0 {
		t.Errorf("face normals not dropped with their face")
	}
}

func TestTriangulateCarriesFaceNormals(t *testing.T) {
	m, err := Plane(math3d.Zero3(), 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	m.CalculateFaceNormals()

	out := Triangulate(m)
	if len(out.FaceNormals) != out.FaceCount() {
		t.Fatalf("face normals = %d, faces = %d", len(out.FaceNormals), out.FaceCount())
	}
	if len(m.Faces[0].V) != 4 {
		t.Error("input mesh was modified")
	}
}
