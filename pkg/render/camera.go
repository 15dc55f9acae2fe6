package render

import (
	"math"

	"github.com/taigrr/entryframe/pkg/math3d"
)

// Camera orbits a target point. World up is +Z.
type Camera struct {
	Target   math3d.Vec3
	Distance float64

	Yaw   float64 // around +Z, radians
	Pitch float64 // elevation above the XY plane, radians

	// Projection parameters
	FOV         float64 // Vertical field of view in radians
	AspectRatio float64 // Width / Height
	Near        float64
	Far         float64

	viewMatrix     math3d.Mat4
	projMatrix     math3d.Mat4
	viewProjMatrix math3d.Mat4
	viewDirty      bool
	projDirty      bool
}

const maxPitch = math.Pi/2 - 0.01

// NewCamera returns a camera looking at the origin from distance 100.
func NewCamera() *Camera {
	return &Camera{
		Distance:    100,
		Pitch:       math.Pi / 6,
		FOV:         math.Pi / 3, // 60 degrees
		AspectRatio: 16.0 / 9.0,
		Near:        0.1,
		Far:         10000,
		viewDirty:   true,
		projDirty:   true,
	}
}

// Frame points the camera at center from far enough to see a sphere of the
// given radius.
func (c *Camera) Frame(center math3d.Vec3, radius float64) {
	c.Target = center
	c.Distance = radius / math.Sin(c.FOV/2)
	c.Far = max(c.Far, 4*c.Distance)
	c.Near = c.Distance / 1000
	c.viewDirty = true
	c.projDirty = true
}

// SetOrbit sets yaw and pitch. Pitch is clamped short of the poles.
func (c *Camera) SetOrbit(yaw, pitch float64) {
	c.Yaw = yaw
	c.Pitch = max(-maxPitch, min(maxPitch, pitch))
	c.viewDirty = true
}

// SetDistance sets the orbit distance.
func (c *Camera) SetDistance(d float64) {
	if d > 0 {
		c.Distance = d
		c.viewDirty = true
	}
}

// SetAspectRatio sets the aspect ratio.
func (c *Camera) SetAspectRatio(aspect float64) {
	c.AspectRatio = aspect
	c.projDirty = true
}

// Position returns the eye position.
func (c *Camera) Position() math3d.Vec3 {
	cp := math.Cos(c.Pitch)
	dir := math3d.V3(cp*math.Cos(c.Yaw), cp*math.Sin(c.Yaw), math.Sin(c.Pitch))
	return c.Target.Add(dir.Scale(c.Distance))
}

// Forward returns the viewing direction.
func (c *Camera) Forward() math3d.Vec3 {
	return c.Target.Sub(c.Position()).Normalize()
}

// ViewMatrix returns the view matrix.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	if c.viewDirty {
		c.computeViewMatrix()
		c.viewDirty = false
	}
	return c.viewMatrix
}

// ProjectionMatrix returns the projection matrix.
func (c *Camera) ProjectionMatrix() math3d.Mat4 {
	if c.projDirty {
		c.projMatrix = math3d.Perspective(c.FOV, c.AspectRatio, c.Near, c.Far)
		c.projDirty = false
	}
	return c.projMatrix
}

// ViewProjectionMatrix returns the combined view-projection matrix.
func (c *Camera) ViewProjectionMatrix() math3d.Mat4 {
	if c.viewDirty || c.projDirty {
		c.viewProjMatrix = c.ProjectionMatrix().Mul(c.ViewMatrix())
	}
	return c.viewProjMatrix
}

func (c *Camera) computeViewMatrix() {
	eye := c.Position()
	f := c.Target.Sub(eye).Normalize()
	r := f.Cross(math3d.UnitZ()).Normalize()
	u := r.Cross(f)

	var m math3d.Mat4
	for col, v := range [3]float64{r.X, r.Y, r.Z} {
		m.Set(0, col, v)
	}
	for col, v := range [3]float64{u.X, u.Y, u.Z} {
		m.Set(1, col, v)
	}
	for col, v := range [3]float64{-f.X, -f.Y, -f.Z} {
		m.Set(2, col, v)
	}
	m.Set(0, 3, -r.Dot(eye))
	m.Set(1, 3, -u.Dot(eye))
	m.Set(2, 3, f.Dot(eye))
	m.Set(3, 3, 1)
	c.viewMatrix = m
}

// WorldToScreen transforms a world point to screen coordinates.
// Returns (screenX, screenY, depth, visible).
func (c *Camera) WorldToScreen(worldPos math3d.Vec3, screenWidth, screenHeight int) (x, y, depth float64, visible bool) {
	ndc, w := c.ViewProjectionMatrix().Project(worldPos)

	// Behind the camera
	if w <= 0 {
		return 0, 0, 0, false
	}
	if ndc.X < -1 || ndc.X > 1 || ndc.Y < -1 || ndc.Y > 1 || ndc.Z < -1 || ndc.Z > 1 {
		return 0, 0, 0, false
	}

	x = (ndc.X + 1) * 0.5 * float64(screenWidth)
	y = (1 - ndc.Y) * 0.5 * float64(screenHeight) // Y is flipped
	return x, y, ndc.Z, true
}
