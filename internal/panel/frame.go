package panel

import (
	"image/color"
	"strings"
)

// Screen geometry of the landscape panel the layouts are drawn for.
const (
	ScreenWidth  = 320
	ScreenHeight = 240
)

var (
	Black       = color.RGBA{0, 0, 0, 255}
	White       = color.RGBA{255, 255, 255, 255}
	Blue        = color.RGBA{0, 0, 255, 255}
	Red         = color.RGBA{255, 0, 0, 255}
	Green       = color.RGBA{0, 255, 0, 255}
	Cyan        = color.RGBA{0, 255, 255, 255}
	Yellow      = color.RGBA{255, 255, 0, 255}
	Orange      = color.RGBA{255, 180, 0, 255}
	GreenYellow = color.RGBA{180, 255, 0, 255}
	LightGrey   = color.RGBA{211, 211, 211, 255}
)

// Text is a string drawn with its top-left corner at (X, Y). Size is an
// integer glyph scale.
type Text struct {
	X, Y  int
	Size  int
	Color color.RGBA
	Body  string
}

type Line struct {
	X0, Y0, X1, Y1 int
	Color          color.RGBA
}

// Frame is the complete content of one screen as drawing commands.
type Frame struct {
	Width, Height int
	Background    color.RGBA
	Texts         []Text
	Lines         []Line
}

func newFrame(bg color.RGBA) Frame {
	return Frame{Width: ScreenWidth, Height: ScreenHeight, Background: bg}
}

func (f *Frame) text(x, y, size int, c color.RGBA, body string) {
	f.Texts = append(f.Texts, Text{X: x, Y: y, Size: size, Color: c, Body: body})
}

func (f *Frame) line(x0, y0, x1, y1 int, c color.RGBA) {
	f.Lines = append(f.Lines, Line{X0: x0, Y0: y0, X1: x1, Y1: y1, Color: c})
}

// Strings returns the text bodies in draw order.
func (f Frame) Strings() []string {
	out := make([]string, 0, len(f.Texts))
	for _, t := range f.Texts {
		out = append(out, t.Body)
	}
	return out
}

// Find returns the first text whose body contains s.
func (f Frame) Find(s string) (Text, bool) {
	for _, t := range f.Texts {
		if strings.Contains(t.Body, s) {
			return t, true
		}
	}
	return Text{}, false
}

// Equal reports whether two frames hold identical drawing commands.
func (f Frame) Equal(o Frame) bool {
	if f.Width != o.Width || f.Height != o.Height || f.Background != o.Background {
		return false
	}
	if len(f.Texts) != len(o.Texts) || len(f.Lines) != len(o.Lines) {
		return false
	}
	for i := range f.Texts {
		if f.Texts[i] != o.Texts[i] {
			return false
		}
	}
	for i := range f.Lines {
		if f.Lines[i] != o.Lines[i] {
			return false
		}
	}
	return true
}
