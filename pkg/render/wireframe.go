package render

import (
	"github.com/taigrr/entryframe/pkg/math3d"
	"github.com/taigrr/entryframe/pkg/mesh"
)

// Wireframe renders 3D wireframe objects.
type Wireframe struct {
	camera *Camera
	fb     *Framebuffer
}

// NewWireframe creates a new wireframe renderer.
func NewWireframe(camera *Camera, fb *Framebuffer) *Wireframe {
	return &Wireframe{
		camera: camera,
		fb:     fb,
	}
}

// DrawLine3D draws a line in 3D space.
func (w *Wireframe) DrawLine3D(p1, p2 math3d.Vec3, color Color) {
	x1, y1, _, vis1 := w.camera.WorldToScreen(p1, w.fb.Width, w.fb.Height)
	x2, y2, _, vis2 := w.camera.WorldToScreen(p2, w.fb.Width, w.fb.Height)

	// Both endpoints must project; a line with one end behind the camera
	// would land at the origin of the screen.
	if !vis1 || !vis2 {
		return
	}
	w.fb.DrawLine(int(x1), int(y1), int(x2), int(y2), color)
}

// DrawMesh draws every polygon edge of m.
func (w *Wireframe) DrawMesh(m *mesh.Mesh, color Color) {
	if m == nil {
		return
	}
	for _, f := range m.Faces {
		n := len(f.V)
		for i := range n {
			a, b := f.V[i], f.V[(i+1)%n]
			w.DrawLine3D(m.Vertices[a].Position, m.Vertices[b].Position, color)
		}
	}
}

// DrawFrame draws the basis columns of an affine frame from its origin:
// column 0 red, column 1 (the surface normal) green, column 2 blue.
func (w *Wireframe) DrawFrame(frame math3d.Mat4, length float64) {
	origin := frame.Translation()
	for i, c := range [3]Color{ColorRed, ColorGreen, ColorBlue} {
		w.DrawLine3D(origin, origin.Add(frame.Column(i).Scale(length)), c)
	}
}

// DrawPoint draws a point as a small cross.
func (w *Wireframe) DrawPoint(pos math3d.Vec3, size float64, color Color) {
	h := size / 2
	for _, axis := range [3]math3d.Vec3{math3d.UnitX(), math3d.UnitY(), math3d.UnitZ()} {
		d := axis.Scale(h)
		w.DrawLine3D(pos.Sub(d), pos.Add(d), color)
	}
}

// Scene is what the preview draws.
type Scene struct {
	Surface *mesh.Mesh
	ROI     *mesh.Mesh
	Patch   *mesh.Mesh
	Center  math3d.Vec3
	Radius  float64
	Frame   math3d.Mat4
}

// Draw clears the framebuffer and draws s.
func (w *Wireframe) Draw(s Scene) {
	w.fb.Clear(ColorBlack)
	w.DrawMesh(s.Surface, ColorGray)
	w.DrawMesh(s.ROI, ColorCyan)
	w.DrawMesh(s.Patch, ColorYellow)
	w.DrawPoint(s.Center, s.Radius/5, ColorMagenta)
	w.DrawFrame(s.Frame, s.Radius)
}
