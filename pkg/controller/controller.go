// Package controller drives interactive placement: a single entry marker,
// its ROI sphere, the input model and the output transform. State lives on
// one goroutine fed by an event channel.
package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taigrr/entryframe/pkg/config"
	"github.com/taigrr/entryframe/pkg/math3d"
	"github.com/taigrr/entryframe/pkg/mesh"
	"github.com/taigrr/entryframe/pkg/placement"
	"github.com/taigrr/entryframe/pkg/scene"
)

// ErrNotReady is reported when Apply arrives without a marker, an input
// model and an output transform.
var ErrNotReady = errors.New("apply needs a marker, an input model and an output transform")

// Event is a user action.
type Event interface{ event() }

// PlaceMarker places the entry marker. A second placement moves it.
type PlaceMarker struct{ Position math3d.Vec3 }

// MoveMarker moves an existing marker.
type MoveMarker struct{ Position math3d.Vec3 }

// RemoveMarker deletes the marker and its sphere.
type RemoveMarker struct{}

// SetRadius changes the ROI radius, clamped to [config.MinRadius, config.MaxRadius].
type SetRadius struct{ Radius float64 }

// SelectInput picks the surface model. uuid.Nil clears it.
type SelectInput struct{ ID uuid.UUID }

// SelectOutput picks the output transform. uuid.Nil clears it.
type SelectOutput struct{ ID uuid.UUID }

// Apply runs placement.
type Apply struct{}

func (PlaceMarker) event()  {}
func (MoveMarker) event()   {}
func (RemoveMarker) event() {}
func (SetRadius) event()    {}
func (SelectInput) event()  {}
func (SelectOutput) event() {}
func (Apply) event()        {}

// View is a snapshot of controller state published after every event.
type View struct {
	HasMarker bool
	Marker    math3d.Vec3
	Radius    float64
	Sphere    uuid.UUID
	Input     uuid.UUID
	Output    uuid.UUID
	CanApply  bool

	// Set after an Apply.
	Applied    bool
	Frame      math3d.Mat4
	Patch      *mesh.Mesh // shared, do not modify
	Degenerate placement.Degeneracy

	// Err is the error from the event that produced this view, if any.
	Err error
}

// Options configures a Controller.
type Options struct {
	Radius          float64
	ThetaResolution int
	PhiResolution   int
	SphereName      string
}

// OptionsFromConfig builds controller options from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Radius:          cfg.Radius,
		ThetaResolution: cfg.Sphere.ThetaResolution,
		PhiResolution:   cfg.Sphere.PhiResolution,
		SphereName:      cfg.Output.SphereName,
	}
}

// Controller owns the interactive state. Use Run; the zero value is not
// usable.
type Controller struct {
	scene    *scene.Scene
	pipeline *placement.Pipeline
	opts     Options
	logger   *zap.Logger

	view View
}

// New returns a controller operating on s.
func New(s *scene.Scene, p *placement.Pipeline, opts Options, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if p == nil {
		p = placement.New(placement.DefaultOptions(), logger)
	}
	if opts.ThetaResolution == 0 {
		opts.ThetaResolution = mesh.DefaultSphereResolution
	}
	if opts.PhiResolution == 0 {
		opts.PhiResolution = mesh.DefaultSphereResolution
	}
	if opts.SphereName == "" {
		opts.SphereName = "ROISphere"
	}
	radius := config.DefaultRadius
	if opts.Radius > 0 {
		radius = config.ClampRadius(opts.Radius)
	}
	return &Controller{
		scene:    s,
		pipeline: p,
		opts:     opts,
		logger:   logger,
		view:     View{Radius: radius, Frame: math3d.Identity()},
	}
}

// Run processes events until ctx is done or events is closed. It publishes
// the initial view and then one view per event. The returned channel is
// closed when Run's goroutine exits.
func (c *Controller) Run(ctx context.Context, events <-chan Event) <-chan View {
	views := make(chan View)
	go func() {
		defer close(views)
		if !c.publish(ctx, views) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				c.view.Err = c.handle(ev)
				c.view.CanApply = c.ready()
				if !c.publish(ctx, views) {
					return
				}
			}
		}
	}()
	return views
}

func (c *Controller) publish(ctx context.Context, views chan<- View) bool {
	select {
	case views <- c.view:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Controller) ready() bool {
	return c.view.HasMarker && c.view.Input != uuid.Nil && c.view.Output != uuid.Nil
}

func (c *Controller) handle(ev Event) error {
	switch ev := ev.(type) {
	case PlaceMarker:
		return c.setMarker(ev.Position)
	case MoveMarker:
		if !c.view.HasMarker {
			return errors.New("no marker to move")
		}
		return c.setMarker(ev.Position)
	case RemoveMarker:
		c.removeSphere()
		c.view.HasMarker = false
		c.view.Marker = math3d.Vec3{}
		return nil
	case SetRadius:
		if !(ev.Radius > 0) {
			return fmt.Errorf("invalid radius %v", ev.Radius)
		}
		c.view.Radius = config.ClampRadius(ev.Radius)
		if c.view.HasMarker {
			return c.updateSphere()
		}
		return nil
	case SelectInput:
		if ev.ID != uuid.Nil {
			if _, err := scene.Get[*scene.ModelNode](c.scene, ev.ID); err != nil {
				return fmt.Errorf("select input: %w", err)
			}
			if ev.ID == c.view.Sphere {
				return errors.New("select input: the ROI sphere cannot be the input")
			}
		}
		c.view.Input = ev.ID
		return nil
	case SelectOutput:
		if ev.ID != uuid.Nil {
			if _, err := scene.Get[*scene.TransformNode](c.scene, ev.ID); err != nil {
				return fmt.Errorf("select output: %w", err)
			}
		}
		c.view.Output = ev.ID
		return nil
	case Apply:
		return c.apply()
	default:
		return fmt.Errorf("unknown event %T", ev)
	}
}

func (c *Controller) setMarker(p math3d.Vec3) error {
	if !p.IsFinite() {
		return fmt.Errorf("invalid marker position %v", p)
	}
	c.view.HasMarker = true
	c.view.Marker = p
	return c.updateSphere()
}

// updateSphere replaces the ROI sphere model with one at the current
// marker and radius.
func (c *Controller) updateSphere() error {
	m, err := mesh.Sphere(c.view.Marker, c.view.Radius, c.opts.ThetaResolution, c.opts.PhiResolution)
	if err != nil {
		return fmt.Errorf("failed to build ROI sphere: %w", err)
	}
	m.Name = c.opts.SphereName
	c.removeSphere()
	c.view.Sphere = c.scene.AddModel(c.opts.SphereName, m).ID()
	c.logger.Debug("ROI sphere updated",
		zap.Stringer("id", c.view.Sphere),
		zap.Float64("radius", c.view.Radius))
	return nil
}

func (c *Controller) removeSphere() {
	if c.view.Sphere == uuid.Nil {
		return
	}
	c.scene.Remove(c.view.Sphere)
	if c.view.Input == c.view.Sphere {
		c.view.Input = uuid.Nil
	}
	c.view.Sphere = uuid.Nil
}

func (c *Controller) apply() error {
	if !c.ready() {
		return ErrNotReady
	}
	input, err := scene.Get[*scene.ModelNode](c.scene, c.view.Input)
	if err != nil {
		return fmt.Errorf("apply: %w", err)
	}
	roi, err := scene.Get[*scene.ModelNode](c.scene, c.view.Sphere)
	if err != nil {
		return fmt.Errorf("apply: %w", err)
	}
	out, err := scene.Get[*scene.TransformNode](c.scene, c.view.Output)
	if err != nil {
		return fmt.Errorf("apply: %w", err)
	}

	res, err := c.pipeline.Run(input.Mesh, roi.Mesh, c.view.Marker, out.Transform)
	if err != nil {
		return err
	}
	c.view.Applied = true
	c.view.Frame = res.Frame
	c.view.Patch = res.Patch
	c.view.Degenerate = res.Degenerate
	c.logger.Info("placement applied",
		zap.String("output", out.Name()),
		zap.String("degenerate", string(res.Degenerate)))
	return nil
}
