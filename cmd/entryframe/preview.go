package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/harmonica"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/taigrr/entryframe/pkg/render"
)

var (
	snapshotPath   string
	snapshotWidth  int
	snapshotHeight int
)

var previewCmd = &cobra.Command{
	Use:   "preview [model.glb]",
	Short: "Show the placement as a terminal wireframe",
	Long: `Runs a placement and shows the surface (gray), the ROI sphere (cyan), the
clipped patch (yellow) and the frame axes (red, green = normal, blue).

Controls:
  A/D, Left/Right  orbit
  W/S, Up/Down     tilt
  +/-              zoom
  Space            pause auto orbit
  Q, Esc           quit

With --snapshot the view is written to a PNG instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPreview,
}

func init() {
	addPlacementFlags(previewCmd)
	previewCmd.Flags().StringVar(&snapshotPath, "snapshot", "", "Render one frame to this PNG and exit")
	previewCmd.Flags().IntVar(&snapshotWidth, "width", 640, "Snapshot width")
	previewCmd.Flags().IntVar(&snapshotHeight, "height", 480, "Snapshot height")
}

var errQuit = errors.New("quit")

// orbit animates the camera angles toward targets with critically damped
// springs.
type orbit struct {
	mu          sync.Mutex
	spring      harmonica.Spring
	speed       float64
	yawTarget   float64
	pitchTarget float64
	yaw         float64
	yawVel      float64
	pitch       float64
	pitchVel    float64
	zoom        float64
	paused      bool
}

func newOrbit(fps int, speed, frequency, damping float64) *orbit {
	return &orbit{
		pitchTarget: math.Pi / 6,
		pitch:       math.Pi / 6,
		zoom:        1,
		spring:      harmonica.NewSpring(harmonica.FPS(fps), frequency, damping),
		speed:       speed,
	}
}

func (o *orbit) nudge(dYaw, dPitch float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.yawTarget += dYaw
	o.pitchTarget = max(-1.5, min(1.5, o.pitchTarget+dPitch))
}

func (o *orbit) scaleZoom(f float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.zoom = max(0.1, min(10, o.zoom*f))
}

func (o *orbit) togglePause() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paused = !o.paused
}

// step advances one frame and returns yaw, pitch and zoom.
func (o *orbit) step(dt float64) (yaw, pitch, zoom float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.paused {
		o.yawTarget += o.speed * dt
	}
	o.yaw, o.yawVel = o.spring.Update(o.yaw, o.yawVel, o.yawTarget)
	o.pitch, o.pitchVel = o.spring.Update(o.pitch, o.pitchVel, o.pitchTarget)
	return o.yaw, o.pitch, o.zoom
}

func runPreview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	input, err := loadSurface(args)
	if err != nil {
		return err
	}
	center, err := parseVec3(centerFlag)
	if err != nil {
		return fmt.Errorf("invalid --center: %w", err)
	}
	r := radius()
	p, err := place(ctx, input, center, r)
	if err != nil {
		return err
	}
	view := render.Scene{
		Surface: input,
		ROI:     p.sphere,
		Patch:   p.view.Patch,
		Center:  center,
		Radius:  p.view.Radius,
		Frame:   p.view.Frame,
	}

	if snapshotPath != "" {
		return snapshot(view)
	}
	return interactive(ctx, view)
}

func newPreviewCamera(v render.Scene, width, height int) *render.Camera {
	camera := render.NewCamera()
	camera.SetAspectRatio(float64(width) / float64(height))
	camera.Frame(v.Center, 3*v.Radius)
	return camera
}

func snapshot(v render.Scene) error {
	fb := render.NewFramebuffer(snapshotWidth, snapshotHeight)
	camera := newPreviewCamera(v, snapshotWidth, snapshotHeight)
	render.NewWireframe(camera, fb).Draw(v)
	if err := fb.SavePNG(snapshotPath); err != nil {
		return err
	}
	logger.Info("snapshot written", zap.String("path", snapshotPath))
	return nil
}

func interactive(ctx context.Context, v render.Scene) error {
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	defer func() {
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}()

	fps := cfg.Preview.FPS
	o := newOrbit(fps, cfg.Preview.OrbitSpeed, cfg.Preview.Frequency, cfg.Preview.Damping)
	sizes := make(chan uv.Size, 1)

	g, ctx := errgroup.WithContext(ctx)

	// Input
	g.Go(func() error {
		const step = 0.15
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-term.Events():
				if !ok {
					return errQuit
				}
				switch ev := ev.(type) {
				case uv.WindowSizeEvent:
					select {
					case <-sizes:
					default:
					}
					sizes <- uv.Size(ev)
				case uv.KeyPressEvent:
					switch {
					case ev.MatchString("q", "esc", "ctrl+c"):
						return errQuit
					case ev.MatchString("a", "left"):
						o.nudge(-step, 0)
					case ev.MatchString("d", "right"):
						o.nudge(step, 0)
					case ev.MatchString("w", "up"):
						o.nudge(0, step)
					case ev.MatchString("s", "down"):
						o.nudge(0, -step)
					case ev.MatchString("+", "="):
						o.scaleZoom(0.9)
					case ev.MatchString("-"):
						o.scaleZoom(1.1)
					case ev.MatchString("space"):
						o.togglePause()
					}
				}
			}
		}
	})

	// Render
	g.Go(func() error {
		cols, rows := width, height
		fb := render.NewTerminalFramebuffer(cols, rows-1)
		camera := newPreviewCamera(v, fb.Width, fb.Height)
		baseDistance := camera.Distance
		wire := render.NewWireframe(camera, fb)
		status := statusLine(v)

		ticker := time.NewTicker(time.Second / time.Duration(fps))
		defer ticker.Stop()
		last := time.Now()

		for {
			select {
			case <-ctx.Done():
				return nil
			case sz := <-sizes:
				cols, rows = sz.Width, sz.Height
				term.Erase()
				term.Resize(cols, rows)
				fb = render.NewTerminalFramebuffer(cols, rows-1)
				camera.SetAspectRatio(float64(fb.Width) / float64(fb.Height))
				wire = render.NewWireframe(camera, fb)
			case now := <-ticker.C:
				dt := min(now.Sub(last).Seconds(), 0.1)
				last = now

				yaw, pitch, zoom := o.step(dt)
				camera.SetOrbit(yaw, pitch)
				camera.SetDistance(baseDistance * zoom)
				wire.Draw(v)

				fb.Draw(term, uv.Rect(0, 0, cols, rows-1))
				drawText(term, 0, rows-1, cols, status)
				if err := term.Display(); err != nil {
					return fmt.Errorf("display: %w", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errQuit) {
		return err
	}
	return nil
}

func statusLine(v render.Scene) string {
	n := v.Frame.Column(1)
	return fmt.Sprintf(" center %.2f,%.2f,%.2f  r=%.1f  normal %.3f,%.3f,%.3f  [q quit]",
		v.Center.X, v.Center.Y, v.Center.Z, v.Radius, n.X, n.Y, n.Z)
}

func drawText(scr uv.Screen, x, y, width int, s string) {
	col := x
	for _, r := range s {
		if col >= width {
			break
		}
		scr.SetCell(col, y, &uv.Cell{Content: string(r), Width: 1})
		col++
	}
	for ; col < width; col++ {
		scr.SetCell(col, y, &uv.Cell{Content: " ", Width: 1})
	}
}
