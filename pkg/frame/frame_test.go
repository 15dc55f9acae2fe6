package frame

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/taigrr/entryframe/pkg/math3d"
)

var approx = cmpopts.EquateApprox(0, 1e-12)

func TestBuildOrthonormal(t *testing.T) {
	center := math3d.V3(12.5, -3, 40)
	tests := []struct {
		name string
		n    math3d.Vec3
	}{
		{"+X", math3d.UnitX()},
		{"-X", math3d.UnitX().Negate()},
		{"+Y", math3d.UnitY()},
		{"-Y", math3d.UnitY().Negate()},
		{"+Z", math3d.UnitZ()},
		{"-Z", math3d.UnitZ().Negate()},
		{"oblique", math3d.V3(1, 2, 3)},
		{"unnormalized sum", math3d.V3(0, 240, -3)},
		{"near axis", math3d.V3(1e-9, 0, 1)},
		{"tiny", math3d.V3(1e-10, -2e-10, 1e-10)},
		{"tied components", math3d.V3(1, 1, 1)},
		{"tied xy", math3d.V3(-1, 1, 0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := Build(tc.n, center)

			if err := Validate(m, 1e-9); err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if diff := cmp.Diff(tc.n.Normalize(), m.Column(1), approx); diff != "" {
				t.Errorf("normal column mismatch (-want +got):\n%s", diff)
			}
			if m.Translation() != center {
				t.Errorf("translation = %v, want %v", m.Translation(), center)
			}
			if diff := cmp.Diff(m.Column(2), m.Column(0).Cross(m.Column(1)), approx); diff != "" {
				t.Errorf("V1 × N != V2 (-col2 +cross):\n%s", diff)
			}
		})
	}
}

func TestBuildZAxisLayout(t *testing.T) {
	m := Build(math3d.UnitZ(), math3d.Zero3())

	want := [3]math3d.Vec3{math3d.UnitX(), math3d.UnitZ(), math3d.UnitY().Negate()}
	got := [3]math3d.Vec3{m.Column(0), m.Column(1), m.Column(2)}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildDegenerateNormal(t *testing.T) {
	tests := []struct {
		name string
		n    math3d.Vec3
	}{
		{"zero", math3d.Zero3()},
		{"below threshold", math3d.V3(1e-13, 0, 0)},
		{"nan", math3d.NaN3()},
		{"inf", math3d.V3(math.Inf(1), 0, 0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := NewBasis(tc.n)
			if !b.Fallback {
				t.Error("fallback not reported")
			}
			m := b.Matrix(math3d.V3(1, 2, 3))
			if !m.IsFinite() {
				t.Fatalf("frame is not finite: %v", m)
			}
			if err := Validate(m, 1e-12); err != nil {
				t.Errorf("Validate: %v", err)
			}
			if m.Column(1) != FallbackNormal {
				t.Errorf("normal column = %v, want %v", m.Column(1), FallbackNormal)
			}
		})
	}
}

func TestBuildHugeNormal(t *testing.T) {
	tests := []struct {
		name string
		n    math3d.Vec3
		want math3d.Vec3
	}{
		{"x", math3d.V3(1e200, 0, 0), math3d.UnitX()},
		{"negative z", math3d.V3(0, 0, -1e300), math3d.V3(0, 0, -1)},
		{"max float", math3d.V3(math.MaxFloat64, math.MaxFloat64, 0), math3d.V3(1, 1, 0).Normalize()},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := NewBasis(tc.n)
			if b.Fallback {
				t.Error("finite normal fell back")
			}
			m := b.Matrix(math3d.V3(1, 2, 3))
			if err := Validate(m, 1e-9); err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if !m.Column(1).ApproxEqual(tc.want, 1e-12) {
				t.Errorf("normal column = %v, want %v", m.Column(1), tc.want)
			}
		})
	}
}

func TestPerpendicularsAreUnitAndOrthogonal(t *testing.T) {
	for _, n := range []math3d.Vec3{
		math3d.V3(3, 0.1, -0.2),
		math3d.V3(0.3, -7, 0.2),
		math3d.V3(0.1, 0.2, 5),
	} {
		v1, v2 := Perpendiculars(n)
		u := n.Normalize()
		for _, d := range []float64{v1.Dot(u), v2.Dot(u), v1.Dot(v2), v1.Len() - 1, v2.Len() - 1} {
			if math.Abs(d) > 1e-12 {
				t.Errorf("n=%v: v1=%v v2=%v not orthonormal", n, v1, v2)
				break
			}
		}
	}
}

func TestValidateRejects(t *testing.T) {
	good := Build(math3d.V3(1, 2, 3), math3d.V3(4, 5, 6))

	leftHanded := good
	for row := range 3 {
		leftHanded.Set(row, 2, -good.Get(row, 2))
	}
	scaled := good
	scaled.Set(0, 0, good.Get(0, 0)*2)
	projective := good
	projective.Set(3, 0, 0.5)
	broken := good
	broken[5] = math.NaN()

	tests := []struct {
		name string
		m    math3d.Mat4
		want error
	}{
		{"left handed", leftHanded, ErrLeftHanded},
		{"scaled", scaled, ErrNotOrthonormal},
		{"projective", projective, ErrNotAffine},
		{"nan", broken, ErrNotFinite},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := Validate(tc.m, 1e-9); !errors.Is(err, tc.want) {
				t.Errorf("Validate = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestTransform(t *testing.T) {
	var zero Transform
	if zero.Matrix() != math3d.Identity() {
		t.Error("zero transform is not the identity")
	}

	tr := NewTransform("EntryFrame")
	if tr.IsSet() {
		t.Error("new transform reports set")
	}
	m := Build(math3d.UnitY(), math3d.V3(1, 1, 1))
	tr.Set(m)
	if !tr.IsSet() || tr.Matrix() != m {
		t.Error("Set did not store the frame")
	}
}

func BenchmarkBuild(b *testing.B) {
	n := math3d.V3(0.3, 0.8, -0.2)
	c := math3d.V3(1, 2, 3)
	for b.Loop() {
		_ = Build(n, c)
	}
}
