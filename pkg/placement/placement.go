// Package placement runs the entry-frame pipeline: solidify the ROI,
// clip the input surface with it, aggregate the patch normals and build
// the placement frame at the ROI center.
package placement

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/taigrr/entryframe/pkg/clip"
	"github.com/taigrr/entryframe/pkg/frame"
	"github.com/taigrr/entryframe/pkg/math3d"
	"github.com/taigrr/entryframe/pkg/mesh"
	"github.com/taigrr/entryframe/pkg/normals"
	"github.com/taigrr/entryframe/pkg/region"
)

var (
	ErrNoInput   = errors.New("no input mesh")
	ErrNoROI     = errors.New("no ROI mesh")
	ErrNoOutput  = errors.New("no output transform")
	ErrSameMesh  = errors.New("input and ROI are the same mesh")
	ErrBadCenter = errors.New("ROI center is not finite")
)

// InputError reports a rejected precondition. The output transform is
// left untouched.
type InputError struct {
	Err error
}

func (e *InputError) Error() string { return "placement: " + e.Err.Error() }

func (e *InputError) Unwrap() error { return e.Err }

// Degeneracy explains why a run fell back to the default orientation.
type Degeneracy string

const (
	NotDegenerate    Degeneracy = ""
	EmptyRegion      Degeneracy = "ROI encloses no volume"
	EmptyPatch       Degeneracy = "surface does not intersect the ROI"
	NoUsableNormals  Degeneracy = "patch has no finite normals"
	CancelingNormals Degeneracy = "patch normals sum to zero"
)

// Options tunes the pipeline stages.
type Options struct {
	// Region selects how the ROI becomes an implicit region.
	Region region.Kind
	// MergeTolerance merges ROI points before tetrahedralization,
	// relative to the ROI extent. Zero uses the region default.
	MergeTolerance float64
	// CleanTolerance merges patch points closer than this distance.
	CleanTolerance float64
	// Invert keeps the surface outside the ROI instead of inside.
	Invert bool
}

// DefaultOptions returns the Delaunay pipeline with exact cleaning.
func DefaultOptions() Options {
	return Options{Region: region.KindDelaunay}
}

// Pipeline computes placement frames. Its zero value uses DefaultOptions
// semantics and discards logs; it is safe for concurrent use.
type Pipeline struct {
	Options Options
	Logger  *zap.Logger
}

// New returns a pipeline with the given options. A nil logger discards
// output.
func New(opts Options, logger *zap.Logger) *Pipeline {
	return &Pipeline{Options: opts, Logger: logger}
}

// Result carries the frame and the intermediate products of one run.
type Result struct {
	Frame      math3d.Mat4
	Basis      frame.Basis
	Patch      *mesh.Mesh
	Normal     normals.Sum
	Clip       clip.Stats
	Degenerate Degeneracy
}

// Run computes the placement frame of input under the ROI centered at
// center and stores it in out, using default options.
func Run(input, roi *mesh.Mesh, center math3d.Vec3, out *frame.Transform) error {
	_, err := (&Pipeline{}).Run(input, roi, center, out)
	return err
}

// Run computes the placement frame and stores it in out. It fails only on
// invalid input, in which case out is not modified. Degenerate geometry
// succeeds with the fallback orientation and sets Result.Degenerate.
func (p *Pipeline) Run(input, roi *mesh.Mesh, center math3d.Vec3, out *frame.Transform) (*Result, error) {
	log := p.logger()

	if err := validate(input, roi, center, out); err != nil {
		log.Debug("placement input rejected", zap.Error(err))
		return nil, err
	}

	r, empty, err := p.region(roi, center)
	if err != nil {
		return nil, fmt.Errorf("failed to build ROI region: %w", err)
	}

	surface := input
	if !input.HasNormals && input.FaceNormals == nil {
		log.Debug("input has no normals, computing point normals", zap.String("mesh", input.Name))
		surface = input.Clone()
		surface.CalculateNormals()
	}

	patch, stats := clip.Clip(surface, r, clip.Options{
		Invert:    p.Options.Invert,
		Tolerance: p.Options.CleanTolerance,
	})
	sum := normals.Aggregate(patch)
	basis := frame.NewBasis(sum.Vector)

	res := &Result{
		Frame:  basis.Matrix(center),
		Basis:  basis,
		Patch:  patch,
		Normal: sum,
		Clip:   stats,
	}
	switch {
	case empty:
		res.Degenerate = EmptyRegion
	case patch.IsEmpty():
		res.Degenerate = EmptyPatch
	case sum.Count == 0:
		res.Degenerate = NoUsableNormals
	case sum.Degenerate():
		res.Degenerate = CancelingNormals
	}

	if res.Degenerate != NotDegenerate {
		log.Warn("degenerate placement, using fallback orientation",
			zap.String("reason", string(res.Degenerate)),
			zap.Int("patch_faces", patch.FaceCount()),
			zap.Int("normals_rejected", sum.Rejected))
	}

	out.Set(res.Frame)
	log.Debug("placement frame computed",
		zap.String("output", out.Name),
		zap.Int("triangles_in", stats.InputTriangles),
		zap.Int("triangles_kept", stats.Kept),
		zap.Int("triangles_split", stats.Split),
		zap.Int("normals", sum.Count),
		zap.Int("normals_rejected", sum.Rejected),
		zap.Bool("fallback", basis.Fallback))
	return res, nil
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

func validate(input, roi *mesh.Mesh, center math3d.Vec3, out *frame.Transform) error {
	switch {
	case input == nil:
		return &InputError{Err: ErrNoInput}
	case roi == nil:
		return &InputError{Err: ErrNoROI}
	case out == nil:
		return &InputError{Err: ErrNoOutput}
	case input == roi:
		return &InputError{Err: ErrSameMesh}
	case !center.IsFinite():
		return &InputError{Err: ErrBadCenter}
	}
	return nil
}

// region builds the implicit ROI. empty is set when it contains nothing.
func (p *Pipeline) region(roi *mesh.Mesh, center math3d.Vec3) (r region.Region, empty bool, err error) {
	switch p.Options.Region {
	case region.KindSDF:
		radius := roiRadius(roi, center)
		if !(radius > 0) {
			ic, err := region.NewImplicit(&region.Complex{}, nil)
			return ic, true, err
		}
		s, err := region.NewSphereRegion(center, radius)
		if err != nil {
			return nil, false, err
		}
		return s, false, nil
	case region.KindDelaunay, "":
		ic, err := region.Solidify(roi, region.Options{MergeTolerance: p.Options.MergeTolerance})
		if err != nil {
			return nil, false, err
		}
		return ic, ic.Empty(), nil
	default:
		return nil, false, fmt.Errorf("unknown region kind %q", p.Options.Region)
	}
}

// roiRadius is the largest distance from center to a finite ROI point.
func roiRadius(roi *mesh.Mesh, center math3d.Vec3) float64 {
	radius := 0.0
	for _, v := range roi.Vertices {
		if v.Position.IsFinite() {
			radius = max(radius, v.Position.Distance(center))
		}
	}
	return radius
}
