package region

import (
	"errors"
	"fmt"
	"math"

	"github.com/taigrr/entryframe/pkg/math3d"
	"github.com/taigrr/entryframe/pkg/mesh"
)

// ErrScalarCount is returned when scalars do not match the complex points.
var ErrScalarCount = errors.New("scalar count does not match point count")

// baryTolerance admits points on shared faces of adjacent tetrahedra.
const baryTolerance = 1e-9

// maxGridCells bounds the bucketing grid per axis.
const maxGridCells = 64

// ImplicitComplex samples a point scalar field over a tetrahedral complex
// by barycentric interpolation. Points outside every tetrahedron evaluate
// to OutValue.
type ImplicitComplex struct {
	complex *Complex
	scalars []float64
	grid    *tetGrid
}

var _ Region = (*ImplicitComplex)(nil)

// NewImplicit wraps a complex and one scalar per complex point.
func NewImplicit(c *Complex, scalars []float64) (*ImplicitComplex, error) {
	if c == nil {
		c = &Complex{}
	}
	if len(scalars) != len(c.Points) {
		return nil, fmt.Errorf("%w: %d scalars, %d points", ErrScalarCount, len(scalars), len(c.Points))
	}
	ic := &ImplicitComplex{complex: c, scalars: scalars}
	if !c.Empty() {
		ic.grid = newTetGrid(c)
	}
	return ic, nil
}

// Complex returns the underlying tetrahedral complex.
func (ic *ImplicitComplex) Complex() *Complex { return ic.complex }

// Empty reports whether the region has no volume.
func (ic *ImplicitComplex) Empty() bool { return ic.complex.Empty() }

// Evaluate interpolates the scalar field at p.
func (ic *ImplicitComplex) Evaluate(p math3d.Vec3) float64 {
	if ic.grid == nil || !p.IsFinite() {
		return OutValue
	}
	pts := ic.complex.Points
	for _, ti := range ic.grid.candidates(p) {
		t := ic.complex.Tetras[ti]
		a, b, c, d := pts[t[0]], pts[t[1]], pts[t[2]], pts[t[3]]
		vol := orient(a, b, c, d)
		if vol <= 0 {
			continue
		}
		la := orient(p, b, c, d) / vol
		lb := orient(a, p, c, d) / vol
		lc := orient(a, b, p, d) / vol
		ld := orient(a, b, c, p) / vol
		if la < -baryTolerance || lb < -baryTolerance || lc < -baryTolerance || ld < -baryTolerance {
			continue
		}
		s := ic.scalars
		return la*s[t[0]] + lb*s[t[1]] + lc*s[t[2]] + ld*s[t[3]]
	}
	return OutValue
}

// tetGrid buckets tetrahedra by the uniform grid cells their bounding
// boxes overlap.
type tetGrid struct {
	min, max math3d.Vec3
	cell     math3d.Vec3
	n        int
	buckets  [][]int
}

func newTetGrid(c *Complex) *tetGrid {
	min, max := c.Bounds()
	n := int(math.Ceil(math.Cbrt(float64(len(c.Tetras)))))
	n = clampInt(n, 1, maxGridCells)
	size := max.Sub(min)
	g := &tetGrid{
		min:     min,
		max:     max,
		n:       n,
		cell:    math3d.V3(cellSize(size.X, n), cellSize(size.Y, n), cellSize(size.Z, n)),
		buckets: make([][]int, n*n*n),
	}
	for ti, t := range c.Tetras {
		lo, hi := c.Points[t[0]], c.Points[t[0]]
		for _, vi := range t[1:] {
			lo = lo.Min(c.Points[vi])
			hi = hi.Max(c.Points[vi])
		}
		x0, y0, z0 := g.coords(lo)
		x1, y1, z1 := g.coords(hi)
		for x := x0; x <= x1; x++ {
			for y := y0; y <= y1; y++ {
				for z := z0; z <= z1; z++ {
					k := g.index(x, y, z)
					g.buckets[k] = append(g.buckets[k], ti)
				}
			}
		}
	}
	return g
}

func cellSize(extent float64, n int) float64 {
	if extent <= 0 {
		return 1
	}
	return extent / float64(n)
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

func (g *tetGrid) coords(p math3d.Vec3) (int, int, int) {
	f := func(v, lo, size float64) int {
		return clampInt(int(math.Floor((v-lo)/size)), 0, g.n-1)
	}
	return f(p.X, g.min.X, g.cell.X), f(p.Y, g.min.Y, g.cell.Y), f(p.Z, g.min.Z, g.cell.Z)
}

func (g *tetGrid) index(x, y, z int) int {
	return (x*g.n+y)*g.n + z
}

func (g *tetGrid) candidates(p math3d.Vec3) []int {
	pad := baryTolerance * (1 + g.max.Sub(g.min).Len())
	if p.X < g.min.X-pad || p.Y < g.min.Y-pad || p.Z < g.min.Z-pad ||
		p.X > g.max.X+pad || p.Y > g.max.Y+pad || p.Z > g.max.Z+pad {
		return nil
	}
	return g.buckets[g.index(g.coords(p))]
}

// Options configures Solidify.
type Options struct {
	// MergeTolerance merges ROI points closer than this fraction of the
	// ROI extent. Zero uses DefaultMergeTolerance.
	MergeTolerance float64
	// Elevation overrides the default scalar field.
	Elevation *Elevation
}

// Solidify tetrahedralizes the ROI points and attaches an elevation field.
// A degenerate ROI (too few or coplanar points) yields an empty region that
// evaluates to OutValue everywhere.
func Solidify(roi *mesh.Mesh, opts Options) (*ImplicitComplex, error) {
	if roi == nil {
		return nil, errors.New("nil ROI mesh")
	}
	c := Tetrahedralize(roi.Positions(), opts.MergeTolerance)
	elev := DefaultElevation(c)
	if opts.Elevation != nil {
		elev = *opts.Elevation
	}
	return NewImplicit(c, elev.Apply(c.Points))
}
