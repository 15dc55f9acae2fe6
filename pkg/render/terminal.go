package render

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// upperHalf is drawn with the top pixel as foreground and the bottom pixel
// as background.
const upperHalf = "▀"

// NewTerminalFramebuffer returns a framebuffer for a terminal of cols x rows
// cells. Each cell holds two vertical pixels.
func NewTerminalFramebuffer(cols, rows int) *Framebuffer {
	return NewFramebuffer(max(cols, 1), 2*max(rows, 1))
}

// Draw writes the framebuffer onto scr as half-block cells, clipped to area
// and to the framebuffer's own size.
func (fb *Framebuffer) Draw(scr uv.Screen, area uv.Rectangle) {
	cols := min(area.Dx(), fb.Width)
	rows := min(area.Dy(), (fb.Height+1)/2)
	for cy := range rows {
		for cx := range cols {
			scr.SetCell(area.Min.X+cx, area.Min.Y+cy, &uv.Cell{
				Content: upperHalf,
				Width:   1,
				Style: uv.Style{
					Fg: cellColor(fb.GetPixel(cx, 2*cy)),
					Bg: cellColor(fb.GetPixel(cx, 2*cy+1)),
				},
			})
		}
	}
}

// cellColor leaves transparent pixels uncolored so the terminal default
// shows through.
func cellColor(c color.RGBA) color.Color {
	if c.A == 0 {
		return nil
	}
	return c
}

// Color is a framebuffer pixel.
type Color = color.RGBA

// Preview palette.
var (
	ColorBlack   = Color{A: 255}
	ColorRed     = Color{R: 255, A: 255}
	ColorGreen   = Color{G: 255, A: 255}
	ColorBlue    = Color{B: 255, A: 255}
	ColorYellow  = Color{R: 255, G: 255, A: 255}
	ColorCyan    = Color{G: 255, B: 255, A: 255}
	ColorMagenta = Color{R: 255, B: 255, A: 255}
	ColorGray    = Color{R: 128, G: 128, B: 128, A: 255}
)
