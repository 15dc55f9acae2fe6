package region

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taigrr/entryframe/pkg/math3d"
	"github.com/taigrr/entryframe/pkg/mesh"
)

func cubeCorners(size float64) []math3d.Vec3 {
	var pts []math3d.Vec3
	for _, x := range []float64{0, size} {
		for _, y := range []float64{0, size} {
			for _, z := range []float64{0, size} {
				pts = append(pts, math3d.V3(x, y, z))
			}
		}
	}
	return pts
}

func TestTetrahedralizeCube(t *testing.T) {
	c := Tetrahedralize(cubeCorners(2), 0)
	require.False(t, c.Empty())
	assert.Len(t, c.Points, 8)
	assert.InDelta(t, 8.0, c.Volume(), 1e-9)
	for _, tt := range c.Tetras {
		vol := orient(c.Points[tt[0]], c.Points[tt[1]], c.Points[tt[2]], c.Points[tt[3]])
		assert.Positive(t, vol, "tetra %v is not positively oriented", tt)
	}
}

func TestTetrahedralizeMergesDuplicates(t *testing.T) {
	pts := append(cubeCorners(1), cubeCorners(1)...)
	c := Tetrahedralize(pts, 0)
	assert.Len(t, c.Points, 8)
	assert.InDelta(t, 1.0, c.Volume(), 1e-9)
}

func TestTetrahedralizeSphereFillsHull(t *testing.T) {
	roi, err := mesh.Sphere(math3d.V3(3, -1, 2), 5, mesh.DefaultSphereResolution, mesh.DefaultSphereResolution)
	require.NoError(t, err)

	c := Tetrahedralize(roi.Positions(), 0)
	require.False(t, c.Empty())

	// The hull of the tessellated sphere is the closed polyhedron itself.
	want := polyhedronVolume(roi)
	assert.InDelta(t, want, c.Volume(), 1e-4*want)
}

func polyhedronVolume(m *mesh.Mesh) float64 {
	total := 0.0
	for _, f := range m.Faces {
		a := m.Vertices[f.V[0]].Position
		b := m.Vertices[f.V[1]].Position
		c := m.Vertices[f.V[2]].Position
		total += a.Dot(b.Cross(c)) / 6
	}
	return total
}

func TestTetrahedralizeDegenerate(t *testing.T) {
	tests := []struct {
		name string
		pts  []math3d.Vec3
	}{
		{"empty", nil},
		{"three points", []math3d.Vec3{math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(0, 1, 0)}},
		{"coplanar", []math3d.Vec3{
			math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(0, 1, 0), math3d.V3(1, 1, 0), math3d.V3(2, 3, 0),
		}},
		{"collinear", []math3d.Vec3{
			math3d.V3(0, 0, 0), math3d.V3(1, 1, 1), math3d.V3(2, 2, 2), math3d.V3(3, 3, 3),
		}},
		{"one point repeated", []math3d.Vec3{
			math3d.V3(1, 1, 1), math3d.V3(1, 1, 1), math3d.V3(1, 1, 1), math3d.V3(1, 1, 1),
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := Tetrahedralize(tc.pts, 0)
			assert.True(t, c.Empty())

			ic, err := NewImplicit(c, make([]float64, len(c.Points)))
			require.NoError(t, err)
			assert.Equal(t, OutValue, ic.Evaluate(math3d.V3(0.5, 0.5, 0)))
		})
	}
}

func TestSolidifySphere(t *testing.T) {
	center := math3d.V3(10, 0, -4)
	roi, err := mesh.Sphere(center, 40, mesh.DefaultSphereResolution, mesh.DefaultSphereResolution)
	require.NoError(t, err)

	ic, err := Solidify(roi, Options{})
	require.NoError(t, err)
	require.False(t, ic.Empty())

	tests := []struct {
		name   string
		p      math3d.Vec3
		inside bool
	}{
		{"center", center, true},
		{"near top", center.Add(math3d.V3(0, 0, 35)), true},
		{"near bottom", center.Add(math3d.V3(0, 0, -35)), true},
		{"off axis", center.Add(math3d.V3(20, -20, 10)), true},
		{"outside", center.Add(math3d.V3(41, 0, 0)), false},
		{"far away", math3d.V3(1000, 1000, 1000), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := ic.Evaluate(tc.p)
			assert.Equal(t, tc.inside, Inside(ic, tc.p), "value %v", v)
			if tc.inside {
				assert.GreaterOrEqual(t, v, 1.0-1e-9)
				assert.LessOrEqual(t, v, 2.0+1e-9)
			} else {
				assert.True(t, IsOut(v))
			}
		})
	}
}

func TestSolidifyAgreesWithAnalyticSphere(t *testing.T) {
	center := math3d.V3(0, 0, 0)
	roi, err := mesh.Sphere(center, 10, 32, 32)
	require.NoError(t, err)
	ic, err := Solidify(roi, Options{})
	require.NoError(t, err)
	ball, err := NewSphereRegion(center, 10)
	require.NoError(t, err)

	// Points well away from the faceted boundary classify the same way.
	for _, r := range []float64{0, 3, 6, 9, 11, 15} {
		for _, dir := range []math3d.Vec3{math3d.UnitX(), math3d.UnitY().Negate(), math3d.V3(1, 1, 1).Normalize()} {
			p := center.Add(dir.Scale(r))
			assert.Equal(t, Inside(ball, p), Inside(ic, p), "r=%v dir=%v", r, dir)
		}
	}
}

func TestSolidifyNilMesh(t *testing.T) {
	_, err := Solidify(nil, Options{})
	assert.Error(t, err)
}

func TestNewImplicitScalarCount(t *testing.T) {
	c := Tetrahedralize(cubeCorners(1), 0)
	_, err := NewImplicit(c, []float64{1})
	assert.ErrorIs(t, err, ErrScalarCount)
}

func TestElevation(t *testing.T) {
	c := Tetrahedralize(cubeCorners(4), 0)
	e := DefaultElevation(c)
	assert.Equal(t, math3d.V3(2, 2, 0), e.Low)
	assert.Equal(t, math3d.V3(2, 2, 4), e.High)

	assert.InDelta(t, 1.0, e.Scalar(math3d.V3(0, 0, 0)), 1e-12)
	assert.InDelta(t, 1.5, e.Scalar(math3d.V3(4, 0, 2)), 1e-12)
	assert.InDelta(t, 2.0, e.Scalar(math3d.V3(1, 1, 4)), 1e-12)
	assert.InDelta(t, 2.0, e.Scalar(math3d.V3(1, 1, 9)), 1e-12, "clamped above")
	assert.InDelta(t, 1.0, e.Scalar(math3d.V3(1, 1, -9)), 1e-12, "clamped below")

	flat := Elevation{RangeMin: 1, RangeMax: 2}
	assert.InDelta(t, 1.0, flat.Scalar(math3d.V3(5, 5, 5)), 1e-12)
}

func TestImplicitInterpolatesLinearField(t *testing.T) {
	c := Tetrahedralize(cubeCorners(1), 0)
	scalars := make([]float64, len(c.Points))
	for i, p := range c.Points {
		scalars[i] = 1 + p.X + 2*p.Y + 3*p.Z
	}
	ic, err := NewImplicit(c, scalars)
	require.NoError(t, err)

	for _, p := range []math3d.Vec3{
		math3d.V3(0.5, 0.5, 0.5),
		math3d.V3(0.1, 0.9, 0.3),
		math3d.V3(1, 1, 1),
		math3d.V3(0, 0.5, 0),
	} {
		assert.InDelta(t, 1+p.X+2*p.Y+3*p.Z, ic.Evaluate(p), 1e-9, "at %v", p)
	}
	assert.Equal(t, OutValue, ic.Evaluate(math3d.V3(1.5, 0.5, 0.5)))
	assert.Equal(t, OutValue, ic.Evaluate(math3d.NaN3()))
}

func TestSphereRegion(t *testing.T) {
	r, err := NewSphereRegion(math3d.V3(1, 2, 3), 2)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, r.Evaluate(math3d.V3(1, 2, 3)), 1e-9)
	assert.InDelta(t, -1.0, r.Evaluate(math3d.V3(4, 2, 3)), 1e-9)
	assert.False(t, IsOut(r.Evaluate(math3d.V3(100, 0, 0))))

	_, err = NewSphereRegion(math3d.Zero3(), -1)
	assert.Error(t, err)
}

func TestKindValid(t *testing.T) {
	assert.True(t, KindDelaunay.Valid())
	assert.True(t, KindSDF.Valid())
	assert.False(t, Kind("octree").Valid())
	assert.True(t, IsOut(math.Inf(-1)))
}
