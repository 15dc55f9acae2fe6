package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taigrr/entryframe/pkg/mesh"
)

var sphereCmd = &cobra.Command{
	Use:   "sphere",
	Short: "Write an ROI sphere as glTF",
	Example: `  entryframe sphere --center 0,0,50 --radius 20 --out roi.glb`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		center, err := parseVec3(sphereCenter)
		if err != nil {
			return fmt.Errorf("invalid --center: %w", err)
		}
		r := sphereRadius
		if r == 0 {
			r = cfg.Radius
		}
		m, err := mesh.Sphere(center, r, cfg.Sphere.ThetaResolution, cfg.Sphere.PhiResolution)
		if err != nil {
			return err
		}
		m.Name = cfg.Output.SphereName
		if err := mesh.SaveGLTF(sphereOut, m); err != nil {
			return err
		}
		logger.Info("sphere written",
			zap.String("path", sphereOut),
			zap.Int("points", m.VertexCount()),
			zap.Int("faces", m.FaceCount()))
		return nil
	},
}

var (
	sphereCenter string
	sphereRadius float64
	sphereOut    string
)

func init() {
	sphereCmd.Flags().StringVar(&sphereCenter, "center", "", "Sphere center as x,y,z (required)")
	sphereCmd.Flags().Float64VarP(&sphereRadius, "radius", "r", 0, "Sphere radius (default from config)")
	sphereCmd.Flags().StringVarP(&sphereOut, "out", "o", "", "Output .glb/.gltf (required)")
	_ = sphereCmd.MarkFlagRequired("center")
	_ = sphereCmd.MarkFlagRequired("out")
}
