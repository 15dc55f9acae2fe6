// entryframe computes a surgical entry frame: an orthonormal transform at a
// picked surface point whose second axis follows the average surface normal
// inside a spherical region of interest.
//
// Commands:
//
//	run      place a frame on a model (or a generated surface) and print it
//	sphere   write an ROI sphere as glTF
//	preview  terminal wireframe of the placement
package main

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/taigrr/entryframe/pkg/config"
)

var (
	// Global flags
	verbose    bool
	configPath string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "entryframe",
	Short: "Compute entry frames from a surface and a region of interest",
	Long: `entryframe clips a surface to a spherical region of interest around a
picked point, averages the surface normals inside it and builds a right-handed
frame at the point: column 0 and 2 span the tangent plane, column 1 is the
normal and column 3 is the point itself.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger.Debug("config loaded",
			zap.String("path", configPath),
			zap.String("region", string(cfg.Region.Kind)),
			zap.Float64("radius", cfg.Radius))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "entryframe.yaml", "Config file (defaults apply when missing)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sphereCmd)
	rootCmd.AddCommand(previewCmd)
}

func main() {
	if err := fang.Execute(context.Background(), rootCmd,
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		os.Exit(1)
	}
}
