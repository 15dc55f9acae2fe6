package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taigrr/entryframe/pkg/controller"
	"github.com/taigrr/entryframe/pkg/math3d"
	"github.com/taigrr/entryframe/pkg/mesh"
	"github.com/taigrr/entryframe/pkg/placement"
	"github.com/taigrr/entryframe/pkg/scene"
)

var (
	centerFlag  string
	radiusFlag  float64
	outPath     string
	surfaceKind string
	surfaceSize float64
	surfaceRes  int
)

var runCmd = &cobra.Command{
	Use:   "run [model.glb]",
	Short: "Place an entry frame and print it",
	Long: `Clips the model to the ROI sphere around --center, averages the normals
of the clipped patch and prints the resulting 4x4 frame.

Examples:
  entryframe run head.glb --center 12.5,-40,88 --radius 30
  entryframe run --surface sphere --center 0,0,50 --out placed.glb`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlacement,
}

func init() {
	addPlacementFlags(runCmd)
	runCmd.Flags().StringVarP(&outPath, "out", "o", "", "Write patch, ROI sphere and frame node to this .glb/.gltf")
}

// addPlacementFlags registers the flags shared by run and preview.
func addPlacementFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&centerFlag, "center", "", "Entry point as x,y,z (required)")
	cmd.Flags().Float64VarP(&radiusFlag, "radius", "r", 0, "ROI radius (default from config)")
	cmd.Flags().StringVar(&surfaceKind, "surface", "", "Use a generated surface instead of a model: box, sphere or plane")
	cmd.Flags().Float64Var(&surfaceSize, "surface-size", 100, "Generated surface size")
	cmd.Flags().IntVar(&surfaceRes, "surface-cells", mesh.DefaultMeshCells, "Marching cubes cells for generated surfaces")
	_ = cmd.MarkFlagRequired("center")
}

func runPlacement(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	input, err := loadSurface(args)
	if err != nil {
		return err
	}
	center, err := parseVec3(centerFlag)
	if err != nil {
		return fmt.Errorf("invalid --center: %w", err)
	}

	p, err := place(ctx, input, center, radius())
	if err != nil {
		return err
	}

	printFrame(cmd.OutOrStdout(), p.view.Frame)
	if p.view.Degenerate != placement.NotDegenerate {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s, frame uses the fallback orientation\n", p.view.Degenerate)
	}

	if outPath == "" {
		return nil
	}
	if err := mesh.SaveScene(outPath, cfg.Output.TransformName, p.view.Frame, p.view.Patch, p.sphere); err != nil {
		return err
	}
	logger.Info("scene written", zap.String("path", outPath))
	return nil
}

func radius() float64 {
	if radiusFlag > 0 {
		return radiusFlag
	}
	return cfg.Radius
}

func loadSurface(args []string) (*mesh.Mesh, error) {
	switch {
	case surfaceKind != "" && len(args) > 0:
		return nil, fmt.Errorf("give either a model file or --surface, not both")
	case surfaceKind != "":
		m, err := mesh.Synthetic(surfaceKind, surfaceSize, surfaceRes)
		if err != nil {
			return nil, err
		}
		logger.Debug("generated surface",
			zap.String("kind", surfaceKind),
			zap.Int("vertices", m.VertexCount()),
			zap.Int("faces", m.FaceCount()))
		return m, nil
	case len(args) == 1:
		m, err := mesh.LoadGLTF(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to load model: %w", err)
		}
		logger.Debug("model loaded",
			zap.String("path", args[0]),
			zap.Int("vertices", m.VertexCount()),
			zap.Int("faces", m.FaceCount()))
		return m, nil
	default:
		return nil, fmt.Errorf("a model file or --surface is required")
	}
}

// placed is the outcome of one interactive placement session.
type placed struct {
	view   controller.View
	sphere *mesh.Mesh
}

// place drives a controller through select, marker, radius and apply.
func place(ctx context.Context, input *mesh.Mesh, center math3d.Vec3, r float64) (*placed, error) {
	s := scene.New()
	model := s.AddModel(input.Name, input)
	out := s.AddTransform(cfg.Output.TransformName)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pipeline := placement.New(cfg.PlacementOptions(), logger)
	ctrl := controller.New(s, pipeline, controller.OptionsFromConfig(cfg), logger)
	events := make(chan controller.Event)
	views := ctrl.Run(ctx, events)
	defer func() {
		cancel()
		for range views {
		}
	}()

	if _, ok := <-views; !ok {
		return nil, ctx.Err()
	}
	var v controller.View
	for _, ev := range []controller.Event{
		controller.SelectInput{ID: model.ID()},
		controller.SelectOutput{ID: out.ID()},
		controller.SetRadius{Radius: r},
		controller.PlaceMarker{Position: center},
		controller.Apply{},
	} {
		select {
		case events <- ev:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		var ok bool
		if v, ok = <-views; !ok {
			return nil, ctx.Err()
		}
		if v.Err != nil {
			return nil, v.Err
		}
	}

	sphere, err := scene.Get[*scene.ModelNode](s, v.Sphere)
	if err != nil {
		return nil, err
	}
	return &placed{view: v, sphere: sphere.Mesh}, nil
}

func parseVec3(s string) (math3d.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return math3d.Vec3{}, fmt.Errorf("want x,y,z, got %q", s)
	}
	var a [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return math3d.Vec3{}, fmt.Errorf("component %d: %w", i, err)
		}
		a[i] = f
	}
	v := math3d.FromArray(a)
	if !v.IsFinite() {
		return math3d.Vec3{}, fmt.Errorf("non-finite point %q", s)
	}
	return v, nil
}

func printFrame(w io.Writer, m math3d.Mat4) {
	for _, row := range m.Rows() {
		fmt.Fprintf(w, "%12.6f %12.6f %12.6f %12.6f\n", row[0], row[1], row[2], row[3])
	}
}
