package panel

import "image/color"

const (
	consoleTop     = 60
	consoleSpacing = 28
	consoleRows    = (ScreenHeight - consoleTop) / consoleSpacing
	// consoleCols is how many size 2 glyphs fit between the margin and the
	// right edge.
	consoleCols = (ScreenWidth - 10) / (7 * 2)
)

type consoleLine struct {
	color color.RGBA
	body  string
}

// Console is the scrolling text screen shown while the device boots.
type Console struct {
	title string
	lines []consoleLine
}

func NewConsole(title string) *Console {
	return &Console{title: title}
}

// Reset clears the screen and sets a new title. An empty title hides the
// title bar and starts the text at the top.
func (c *Console) Reset(title string) {
	c.title = title
	c.lines = c.lines[:0]
}

// Println starts a new line. Text past the right edge continues on the
// following lines.
func (c *Console) Println(col color.RGBA, body string) {
	for {
		n := min(len(body), consoleCols)
		c.push(consoleLine{color: col, body: body[:n]})
		body = body[n:]
		if body == "" {
			return
		}
	}
}

// Append extends the last line, or starts one if the console is empty.
// It wraps like Println once the line is full.
func (c *Console) Append(body string) {
	if len(c.lines) == 0 {
		c.Println(White, body)
		return
	}
	last := &c.lines[len(c.lines)-1]
	n := min(len(body), max(consoleCols-len(last.body), 0))
	last.body += body[:n]
	if rest := body[n:]; rest != "" {
		c.Println(last.color, rest)
	}
}

func (c *Console) push(l consoleLine) {
	c.lines = append(c.lines, l)
	if n := c.rows(); len(c.lines) > n {
		c.lines = c.lines[len(c.lines)-n:]
	}
}

func (c *Console) rows() int {
	if c.title == "" {
		return consoleRows + 2
	}
	return consoleRows
}

func (c *Console) Frame() Frame {
	f := newFrame(Black)
	y := 10
	if c.title != "" {
		f.text(10, 10, 2, White, c.title)
		f.line(0, 40, ScreenWidth, 40, Blue)
		y = consoleTop
	}
	for _, l := range c.lines {
		f.text(10, y, 2, l.color, l.body)
		y += consoleSpacing
	}
	return f
}

// FatalFrame is the red error screen shown when the device cannot continue.
func FatalFrame(lines ...string) Frame {
	f := newFrame(Red)
	y := 100
	for _, l := range lines {
		f.text(10, y, 2, White, l)
		y += 30
	}
	return f
}

// ReadyFrame announces that the sensors are up.
func ReadyFrame() Frame {
	f := newFrame(Black)
	f.text(10, 100, 2, Green, "Sensor Ready!")
	return f
}
