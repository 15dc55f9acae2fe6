// Package config holds the entryframe configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/taigrr/entryframe/pkg/placement"
	"github.com/taigrr/entryframe/pkg/region"
)

// Radius limits for the ROI sphere.
const (
	MinRadius     = 1.0
	MaxRadius     = 100.0
	DefaultRadius = 40.0
)

// Config is the full configuration.
type Config struct {
	Radius  float64       `yaml:"radius"`
	Sphere  SphereConfig  `yaml:"sphere"`
	Region  RegionConfig  `yaml:"region"`
	Clip    ClipConfig    `yaml:"clip"`
	Output  OutputConfig  `yaml:"output"`
	Preview PreviewConfig `yaml:"preview"`
}

// SphereConfig controls the generated ROI sphere.
type SphereConfig struct {
	ThetaResolution int `yaml:"theta_resolution"`
	PhiResolution   int `yaml:"phi_resolution"`
}

// RegionConfig selects the region construction.
type RegionConfig struct {
	Kind           region.Kind `yaml:"kind"`            // delaunay, sdf
	MergeTolerance float64     `yaml:"merge_tolerance"` // relative to ROI extent
}

// ClipConfig controls the surface clip.
type ClipConfig struct {
	Invert    bool    `yaml:"invert"`
	Tolerance float64 `yaml:"tolerance"`
}

// OutputConfig names the produced scene objects.
type OutputConfig struct {
	TransformName string `yaml:"transform_name"`
	SphereName    string `yaml:"sphere_name"`
}

// PreviewConfig controls the terminal preview.
type PreviewConfig struct {
	FPS        int     `yaml:"fps"`
	OrbitSpeed float64 `yaml:"orbit_speed"` // radians per second
	Frequency  float64 `yaml:"frequency"`   // spring angular frequency
	Damping    float64 `yaml:"damping"`     // spring damping ratio
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Radius: DefaultRadius,
		Sphere: SphereConfig{
			ThetaResolution: 20,
			PhiResolution:   20,
		},
		Region: RegionConfig{
			Kind:           region.KindDelaunay,
			MergeTolerance: region.DefaultMergeTolerance,
		},
		Output: OutputConfig{
			TransformName: "EntryFrame",
			SphereName:    "ROISphere",
		},
		Preview: PreviewConfig{
			FPS:        30,
			OrbitSpeed: 0.6,
			Frequency:  4.0,
			Damping:    1.0,
		},
	}
}

// Load overlays the YAML file at path on the defaults and validates the
// result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.applyEnvOverrides()
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case !(c.Radius > 0):
		return fmt.Errorf("%w: radius must be > 0, got %v", ErrInvalid, c.Radius)
	case c.Sphere.ThetaResolution < 3 || c.Sphere.PhiResolution < 3:
		return fmt.Errorf("%w: sphere resolution must be >= 3, got %dx%d",
			ErrInvalid, c.Sphere.ThetaResolution, c.Sphere.PhiResolution)
	case !c.Region.Kind.Valid():
		return fmt.Errorf("%w: unknown region kind %q", ErrInvalid, c.Region.Kind)
	case c.Region.MergeTolerance < 0:
		return fmt.Errorf("%w: merge tolerance must be >= 0", ErrInvalid)
	case c.Clip.Tolerance < 0:
		return fmt.Errorf("%w: clip tolerance must be >= 0", ErrInvalid)
	case c.Output.TransformName == "":
		return fmt.Errorf("%w: output transform name is empty", ErrInvalid)
	case c.Preview.FPS <= 0:
		return fmt.Errorf("%w: preview fps must be > 0", ErrInvalid)
	}
	return nil
}

// ClampRadius limits r to the interactive range.
func ClampRadius(r float64) float64 {
	return max(MinRadius, min(MaxRadius, r))
}

// PlacementOptions maps the config onto pipeline options.
func (c *Config) PlacementOptions() placement.Options {
	return placement.Options{
		Region:         c.Region.Kind,
		MergeTolerance: c.Region.MergeTolerance,
		CleanTolerance: c.Clip.Tolerance,
		Invert:         c.Clip.Invert,
	}
}

// applyEnvOverrides applies ENTRYFRAME_* environment variables.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ENTRYFRAME_REGION"); v != "" {
		c.Region.Kind = region.Kind(v)
	}
	if v := os.Getenv("ENTRYFRAME_RADIUS"); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil {
			c.Radius = r
		}
	}
}
