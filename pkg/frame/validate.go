package frame

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/taigrr/entryframe/pkg/math3d"
)

// DefaultTolerance is the orthonormality tolerance used by callers that
// have no stricter requirement.
const DefaultTolerance = 1e-6

var (
	ErrNotFinite      = errors.New("frame has non-finite entries")
	ErrNotAffine      = errors.New("frame bottom row is not (0, 0, 0, 1)")
	ErrNotOrthonormal = errors.New("frame rotation is not orthonormal")
	ErrLeftHanded     = errors.New("frame rotation is left-handed")
)

// Validate checks that m is a finite rigid transform: the bottom row is
// (0,0,0,1), the 3x3 block R satisfies |RᵀR - I| <= tol entrywise and
// det(R) is +1 within tol.
func Validate(m math3d.Mat4, tol float64) error {
	if !m.IsFinite() {
		return ErrNotFinite
	}
	if m.Get(3, 0) != 0 || m.Get(3, 1) != 0 || m.Get(3, 2) != 0 || m.Get(3, 3) != 1 {
		return ErrNotAffine
	}

	r := mat.NewDense(3, 3, nil)
	for row := range 3 {
		for col := range 3 {
			r.Set(row, col, m.Get(row, col))
		}
	}

	var gram mat.Dense
	gram.Mul(r.T(), r)
	for i := range 3 {
		for j := range 3 {
			want := 0.0
			if i == j {
				want = 1
			}
			if d := math.Abs(gram.At(i, j) - want); d > tol {
				return fmt.Errorf("%w: (RᵀR)[%d][%d] off by %g", ErrNotOrthonormal, i, j, d)
			}
		}
	}

	if det := mat.Det(r); math.Abs(det-1) > tol {
		if det < 0 {
			return fmt.Errorf("%w: det %g", ErrLeftHanded, det)
		}
		return fmt.Errorf("%w: det %g", ErrNotOrthonormal, det)
	}
	return nil
}
