// Package region turns a closed ROI surface into an implicit region that
// can be sampled anywhere in space.
//
// The Delaunay path tetrahedralizes the ROI points, attaches an
// elevation-style scalar to the resulting complex and samples it by
// barycentric interpolation. The analytic path wraps an sdfx solid.
// Both follow one sign convention: strictly positive inside, negative
// outside.
package region

import (
	"math"

	"github.com/taigrr/entryframe/pkg/math3d"
)

// OutValue is returned for points outside a sampled complex.
const OutValue = -math.MaxFloat64

// Region is a scalar field whose sign classifies points.
type Region interface {
	// Evaluate returns a value > 0 for points inside the region and a
	// value <= 0 otherwise.
	Evaluate(p math3d.Vec3) float64
}

// Inside reports whether p lies strictly inside r.
func Inside(r Region, p math3d.Vec3) bool {
	return r.Evaluate(p) > 0
}

// IsOut reports whether v is the out-of-complex sentinel (or anything as
// far below zero), where the value carries no distance information.
func IsOut(v float64) bool {
	return v <= OutValue/2 || math.IsInf(v, -1)
}

// Kind names a region construction.
type Kind string

const (
	// KindDelaunay solidifies the ROI mesh by tetrahedralization.
	KindDelaunay Kind = "delaunay"
	// KindSDF uses an analytic sdfx sphere.
	KindSDF Kind = "sdf"
)

// Valid reports whether k names a known construction.
func (k Kind) Valid() bool {
	return k == KindDelaunay || k == KindSDF
}
