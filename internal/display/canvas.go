// Package display turns panel frames into pixels and hands them to a screen.
//
// The [Canvas] keeps two off-screen buffers. A frame is rasterised into the
// back buffer and the finished buffer is given to the [Sink] in a single
// Present call, so a partially drawn frame is never visible.
package display

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"cloudpico-handheld/internal/panel"
)

// Sink is a physical or simulated screen. Present must show the whole image
// at once and must not keep img after returning.
type Sink interface {
	Bounds() image.Rectangle
	Present(img image.Image) error
}

type Canvas struct {
	sink Sink
	bufs [2]*image.RGBA
	back int
}

func NewCanvas(sink Sink) *Canvas {
	r := image.Rect(0, 0, panel.ScreenWidth, panel.ScreenHeight)
	return &Canvas{
		sink: sink,
		bufs: [2]*image.RGBA{image.NewRGBA(r), image.NewRGBA(r)},
	}
}

// Draw rasterises f off-screen and presents it.
func (c *Canvas) Draw(f panel.Frame) error {
	buf := c.bufs[c.back]
	Rasterize(buf, f)
	if err := c.sink.Present(buf); err != nil {
		return fmt.Errorf("present frame: %w", err)
	}
	c.back ^= 1
	return nil
}

// Rasterize paints f into dst, replacing its previous content.
func Rasterize(dst *image.RGBA, f panel.Frame) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(f.Background), image.Point{}, draw.Src)
	for _, l := range f.Lines {
		line(dst, l.X0, l.Y0, l.X1, l.Y1, l.Color)
	}
	for _, t := range f.Texts {
		text(dst, t)
	}
}

func text(dst *image.RGBA, t panel.Text) {
	face := basicfont.Face7x13
	ascent := face.Metrics().Ascent.Ceil()
	src := image.NewUniform(t.Color)

	if t.Size <= 1 {
		d := font.Drawer{Dst: dst, Src: src, Face: face, Dot: fixed.P(t.X, t.Y+ascent)}
		d.DrawString(t.Body)
		return
	}

	w := font.MeasureString(face, t.Body).Ceil()
	h := face.Metrics().Height.Ceil()
	if w == 0 {
		return
	}
	glyphs := image.NewRGBA(image.Rect(0, 0, w, h))
	d := font.Drawer{Dst: glyphs, Src: src, Face: face, Dot: fixed.P(0, ascent)}
	d.DrawString(t.Body)

	r := image.Rect(t.X, t.Y, t.X+w*t.Size, t.Y+h*t.Size)
	xdraw.NearestNeighbor.Scale(dst, r, glyphs, glyphs.Bounds(), xdraw.Over, nil)
}

func line(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		if image.Pt(x0, y0).In(img.Rect) {
			img.SetRGBA(x0, y0, c)
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
