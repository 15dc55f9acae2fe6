package region

import (
	"github.com/taigrr/entryframe/pkg/math3d"
)

// Elevation projects points onto the segment Low→High and maps the
// normalized parameter into [RangeMin, RangeMax], clamping at both ends.
type Elevation struct {
	Low      math3d.Vec3
	High     math3d.Vec3
	RangeMin float64
	RangeMax float64
}

// DefaultElevation spans the complex bounds along Z with the scalar range
// [1, 2], so every sample inside the complex is strictly positive.
func DefaultElevation(c *Complex) Elevation {
	min, max := c.Bounds()
	center := min.Add(max).Scale(0.5)
	return Elevation{
		Low:      math3d.V3(center.X, center.Y, min.Z),
		High:     math3d.V3(center.X, center.Y, max.Z),
		RangeMin: 1,
		RangeMax: 2,
	}
}

// Scalar returns the elevation value at p.
func (e Elevation) Scalar(p math3d.Vec3) float64 {
	axis := e.High.Sub(e.Low)
	l2 := axis.LenSq()
	t := 0.0
	if l2 > 0 {
		t = p.Sub(e.Low).Dot(axis) / l2
	}
	t = max(0, min(1, t))
	return e.RangeMin + t*(e.RangeMax-e.RangeMin)
}

// Apply evaluates the elevation at every point.
func (e Elevation) Apply(points []math3d.Vec3) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = e.Scalar(p)
	}
	return out
}
