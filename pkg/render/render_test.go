package render

import (
	"image/color"
	"math"
	"path/filepath"
	"testing"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/entryframe/pkg/math3d"
	"github.com/taigrr/entryframe/pkg/mesh"
)

func newTestWireframe(width, height int) (*Wireframe, *Framebuffer, *Camera) {
	fb := NewFramebuffer(width, height)
	camera := NewCamera()
	camera.SetAspectRatio(float64(width) / float64(height))
	camera.Frame(math3d.Zero3(), 10)
	return NewWireframe(camera, fb), fb, camera
}

func TestCameraTargetProjectsToCenter(t *testing.T) {
	tests := []struct {
		name       string
		yaw, pitch float64
	}{
		{"front", 0, 0},
		{"side", math.Pi / 2, 0.3},
		{"behind", math.Pi, -0.5},
		{"near pole", 1, 2}, // clamped
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCamera()
			c.SetAspectRatio(2)
			c.Frame(math3d.V3(5, -3, 2), 10)
			c.SetOrbit(tc.yaw, tc.pitch)

			x, y, _, ok := c.WorldToScreen(c.Target, 200, 100)
			if !ok {
				t.Fatal("target not visible")
			}
			if math.Abs(x-100) > 1e-6 || math.Abs(y-50) > 1e-6 {
				t.Errorf("target projected to (%v, %v), want (100, 50)", x, y)
			}
			if d := c.Position().Distance(c.Target); math.Abs(d-c.Distance) > 1e-9 {
				t.Errorf("eye distance %v, want %v", d, c.Distance)
			}
			if c.Pitch > math.Pi/2 {
				t.Errorf("pitch not clamped: %v", c.Pitch)
			}
		})
	}
}

func TestCameraBehindIsInvisible(t *testing.T) {
	c := NewCamera()
	c.Frame(math3d.Zero3(), 10)
	behind := c.Position().Add(c.Forward().Negate().Scale(5))
	if _, _, _, ok := c.WorldToScreen(behind, 100, 100); ok {
		t.Error("point behind the camera reported visible")
	}
}

func TestCameraUpIsScreenUp(t *testing.T) {
	c := NewCamera()
	c.SetAspectRatio(1)
	c.Frame(math3d.Zero3(), 10)
	c.SetOrbit(0, 0)

	_, y, _, ok := c.WorldToScreen(math3d.V3(0, 0, 3), 100, 100)
	if !ok {
		t.Fatal("point not visible")
	}
	if y >= 50 {
		t.Errorf("+Z point at screen y %v, want above center", y)
	}
}

func TestDrawFrameColors(t *testing.T) {
	w, fb, _ := newTestWireframe(120, 80)
	fb.Clear(ColorBlack)
	w.DrawFrame(math3d.Identity(), 5)

	for _, c := range []color.RGBA{ColorRed, ColorGreen, ColorBlue} {
		if fb.Count(c) == 0 {
			t.Errorf("axis color %v not drawn", c)
		}
	}
}

func TestDrawScene(t *testing.T) {
	w, fb, _ := newTestWireframe(160, 100)
	surface, err := mesh.Plane(math3d.Zero3(), 20, 4)
	if err != nil {
		t.Fatal(err)
	}
	roi, err := mesh.Sphere(math3d.Zero3(), 5, 8, 8)
	if err != nil {
		t.Fatal(err)
	}

	w.Draw(Scene{
		Surface: surface,
		ROI:     roi,
		Center:  math3d.Zero3(),
		Radius:  5,
		Frame:   math3d.Identity(),
	})

	if fb.Count(ColorGray) == 0 {
		t.Error("surface not drawn")
	}
	if fb.Count(ColorCyan) == 0 {
		t.Error("ROI not drawn")
	}
	if fb.Count(ColorYellow) != 0 {
		t.Error("nil patch drew pixels")
	}
}

func TestFramebufferDrawHalfBlocks(t *testing.T) {
	fb := NewTerminalFramebuffer(4, 2)
	if fb.Width != 4 || fb.Height != 4 {
		t.Fatalf("framebuffer %dx%d, want 4x4", fb.Width, fb.Height)
	}
	fb.SetPixel(1, 2, ColorRed)
	fb.SetPixel(1, 3, ColorBlue)

	scr := uv.NewScreenBuffer(4, 2)
	fb.Draw(scr, scr.Bounds())

	cell := scr.CellAt(1, 1)
	if cell == nil {
		t.Fatal("no cell drawn")
	}
	if cell.Content != "▀" {
		t.Errorf("content %q, want half block", cell.Content)
	}
	if cell.Style.Fg != color.Color(ColorRed) || cell.Style.Bg != color.Color(ColorBlue) {
		t.Errorf("style fg=%v bg=%v, want red over blue", cell.Style.Fg, cell.Style.Bg)
	}
	if c := scr.CellAt(0, 0); c.Style.Fg != nil {
		t.Errorf("transparent pixel got color %v", c.Style.Fg)
	}
}

func TestSavePNG(t *testing.T) {
	fb := NewFramebuffer(8, 8)
	fb.DrawLine(0, 0, 7, 7, ColorGreen)
	if got := fb.Count(ColorGreen); got != 8 {
		t.Errorf("diagonal drew %d pixels, want 8", got)
	}

	if err := fb.SavePNG(filepath.Join(t.TempDir(), "snap.png")); err != nil {
		t.Fatal(err)
	}
	if err := fb.SavePNG(filepath.Join(t.TempDir(), "missing", "snap.png")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func BenchmarkDrawMesh(b *testing.B) {
	w, _, _ := newTestWireframe(200, 100)
	m, err := mesh.Sphere(math3d.Zero3(), 8, 40, 40)
	if err != nil {
		b.Fatal(err)
	}
	for b.Loop() {
		w.DrawMesh(m, ColorGray)
	}
}
