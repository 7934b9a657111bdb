// Package sim runs the panel inside a terminal. The Terminal is both the
// display sink and the button input: frames are drawn with half-block
// characters and keys stand in for the buttons.
//
// Keys: a or space presses button A, p holds the power button, c toggles
// the simulated charger, ctrl+c quits.
package sim

import (
	"fmt"
	"image"
	"image/draw"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xdraw "golang.org/x/image/draw"

	"cloudpico-handheld/internal/panel"
)

var (
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))
	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fde68a"))
)

type key int

const (
	keyPressA key = iota
	keyHoldPower
)

// Terminal manages the terminal through Bubble Tea.
//
// Call [New] then [Terminal.Run] (blocking). Present and the input methods
// may be used from another goroutine once [Terminal.Ready] is closed.
type Terminal struct {
	program *tea.Program
	readyCh chan struct{}
	quitCh  chan struct{}
	done    atomic.Bool

	onCharge func()

	mu      sync.Mutex
	queued  []key
	pressed bool
	held    bool
}

// New creates the terminal. onCharge, if set, is called when c is pressed.
func New(onCharge func()) *Terminal {
	return &Terminal{
		readyCh:  make(chan struct{}),
		quitCh:   make(chan struct{}),
		onCharge: onCharge,
	}
}

// Run starts the Bubble Tea event loop and blocks until quit.
func (t *Terminal) Run(opts ...tea.ProgramOption) error {
	m := model{term: t}
	t.program = tea.NewProgram(m, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)
	_, err := t.program.Run()
	t.done.Store(true)
	close(t.quitCh)
	return err
}

// Ready is closed once the event loop is running.
func (t *Terminal) Ready() <-chan struct{} { return t.readyCh }

// QuitChan is closed when Run returns.
func (t *Terminal) QuitChan() <-chan struct{} { return t.quitCh }

func (t *Terminal) Quit() {
	if t.program != nil {
		t.program.Quit()
	}
}

func (t *Terminal) Bounds() image.Rectangle {
	return image.Rect(0, 0, panel.ScreenWidth, panel.ScreenHeight)
}

// Present copies img and hands it to the event loop.
func (t *Terminal) Present(img image.Image) error {
	if t.program == nil || t.done.Load() {
		return fmt.Errorf("terminal not running")
	}
	cp := image.NewRGBA(img.Bounds())
	draw.Draw(cp, cp.Bounds(), img, img.Bounds().Min, draw.Src)
	t.program.Send(frameMsg{img: cp})
	return nil
}

// Update moves queued key presses into this round's events.
func (t *Terminal) Update(time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pressed, t.held = false, false
	for _, k := range t.queued {
		switch k {
		case keyPressA:
			t.pressed = true
		case keyHoldPower:
			t.held = true
		}
	}
	t.queued = t.queued[:0]
}

func (t *Terminal) WasPressed(b panel.Button) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return b == panel.ButtonA && t.pressed
}

func (t *Terminal) WasHeld(b panel.Button) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return b == panel.ButtonPower && t.held
}

func (t *Terminal) enqueue(k key) {
	t.mu.Lock()
	t.queued = append(t.queued, k)
	t.mu.Unlock()
}

// ── Bubble Tea model ─────────────────────────────────────────────

type frameMsg struct {
	img *image.RGBA
}

type model struct {
	term   *Terminal
	frame  *image.RGBA
	width  int
	height int
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		close(m.term.readyCh)
		return nil
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "a", " ":
			m.term.enqueue(keyPressA)
		case "p":
			m.term.enqueue(keyHoldPower)
		case "c":
			if m.term.onCharge != nil {
				m.term.onCharge()
			}
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case frameMsg:
		m.frame = msg.img
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	if m.frame != nil {
		cols, rows := fit(m.width, m.height-1)
		b.WriteString(halfBlocks(m.frame, cols, rows))
		b.WriteByte('\n')
	}
	b.WriteString(keyStyle.Render("a") + helpStyle.Render(" press  ") +
		keyStyle.Render("p") + helpStyle.Render(" power off  ") +
		keyStyle.Render("c") + helpStyle.Render(" charger  ") +
		keyStyle.Render("q") + helpStyle.Render(" quit"))
	return b.String()
}

// fit returns the largest 4:3 cell grid within the terminal. Each cell shows
// two vertical pixels.
func fit(width, height int) (cols, rows int) {
	if width <= 0 || height <= 0 {
		width, height = 80, 24
	}
	cols = min(width, panel.ScreenWidth/2)
	rows = cols * 3 / 8
	if rows > height {
		rows = height
		cols = rows * 8 / 3
	}
	return max(cols, 1), max(rows, 1)
}

func halfBlocks(img *image.RGBA, cols, rows int) string {
	small := image.NewRGBA(image.Rect(0, 0, cols, rows*2))
	xdraw.ApproxBiLinear.Scale(small, small.Bounds(), img, img.Bounds(), xdraw.Src, nil)

	var b strings.Builder
	for y := 0; y < rows; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := 0; x < cols; x++ {
			top := small.RGBAAt(x, 2*y)
			bottom := small.RGBAAt(x, 2*y+1)
			st := lipgloss.NewStyle().
				Foreground(lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", top.R, top.G, top.B))).
				Background(lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", bottom.R, bottom.G, bottom.B)))
			b.WriteString(st.Render("▀"))
		}
	}
	return b.String()
}
