package region

import (
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/taigrr/entryframe/pkg/math3d"
)

// SDFRegion adapts an sdfx solid. sdfx distances are negative inside, so
// the sign is flipped to match Region.
type SDFRegion struct {
	s sdf.SDF3
}

var _ Region = (*SDFRegion)(nil)

// NewSDFRegion wraps an arbitrary sdfx solid.
func NewSDFRegion(s sdf.SDF3) *SDFRegion {
	return &SDFRegion{s: s}
}

// NewSphereRegion returns the analytic ball of the given radius.
func NewSphereRegion(center math3d.Vec3, radius float64) (*SDFRegion, error) {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("sphere region: %w", err)
	}
	m := sdf.Translate3d(v3.Vec{X: center.X, Y: center.Y, Z: center.Z})
	return &SDFRegion{s: sdf.Transform3D(s, m)}, nil
}

// Evaluate returns the negated signed distance at p.
func (r *SDFRegion) Evaluate(p math3d.Vec3) float64 {
	if !p.IsFinite() {
		return OutValue
	}
	return -r.s.Evaluate(v3.Vec{X: p.X, Y: p.Y, Z: p.Z})
}
