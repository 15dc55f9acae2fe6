// Package render draws wireframe previews of placement scenes into a
// half-block terminal framebuffer or a PNG.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
)

// Framebuffer is an RGBA pixel grid. In the terminal each cell shows two
// vertical pixels with a half-block character (▀).
type Framebuffer struct {
	Width  int
	Height int
	img    *image.RGBA
}

// NewFramebuffer creates a transparent framebuffer.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// Clear fills the framebuffer with a solid color.
func (fb *Framebuffer) Clear(c color.RGBA) {
	draw.Draw(fb.img, fb.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// SetPixel sets (x, y) to c. Out of range writes are dropped.
func (fb *Framebuffer) SetPixel(x, y int, c color.RGBA) {
	fb.img.SetRGBA(x, y, c)
}

// GetPixel returns the color at (x, y), or transparent black out of range.
func (fb *Framebuffer) GetPixel(x, y int) color.RGBA {
	return fb.img.RGBAAt(x, y)
}

// Count returns how many pixels have exactly color c.
func (fb *Framebuffer) Count(c color.RGBA) int {
	n := 0
	for y := range fb.Height {
		for x := range fb.Width {
			if fb.img.RGBAAt(x, y) == c {
				n++
			}
		}
	}
	return n
}

// DrawLine draws from (x0, y0) to (x1, y1) with Bresenham's algorithm.
func (fb *Framebuffer) DrawLine(x0, y0, x1, y1 int, c color.RGBA) {
	dx, sx := x1-x0, 1
	if dx < 0 {
		dx, sx = -dx, -1
	}
	dy, sy := y0-y1, 1
	if dy > 0 {
		dy, sy = -dy, -1
	}
	for e := dx + dy; ; {
		fb.img.SetRGBA(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// Image returns the backing image. It is shared with the framebuffer.
func (fb *Framebuffer) Image() *image.RGBA {
	return fb.img
}

// SavePNG writes the framebuffer as a PNG file.
func (fb *Framebuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	if err := png.Encode(f, fb.img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return f.Close()
}
