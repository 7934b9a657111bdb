package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"cloudpico-handheld/internal/mqtt"
	"cloudpico-handheld/internal/panel"
)

var t0 = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

func at(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

type captureHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}
func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

func (h *captureHandler) count(level slog.Level, msg string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range h.records {
		if r.Level == level && r.Message == msg {
			n++
		}
	}
	return n
}

type fakeSensors struct {
	updated     map[panel.Channel]bool
	temperature float64
	humidity    float64
	pressure    float64
}

func (f *fakeSensors) Update(time.Time)              {}
func (f *fakeSensors) Updated(ch panel.Channel) bool { return f.updated[ch] }
func (f *fakeSensors) Temperature() float64          { return f.temperature }
func (f *fakeSensors) Humidity() float64             { return f.humidity }
func (f *fakeSensors) Pressure() float64             { return f.pressure }

type fakeClock struct {
	snapshot panel.TimeSnapshot
	ok       bool
	reads    int
}

func (c *fakeClock) LocalTime(time.Duration) (panel.TimeSnapshot, bool) {
	c.reads++
	return c.snapshot, c.ok
}
func (c *fakeClock) Synced() bool { return c.ok }

// fakeInput reports events scheduled by loop time.
type fakeInput struct {
	presses map[time.Time]bool
	holds   map[time.Time]bool
	now     time.Time
}

func (f *fakeInput) Update(now time.Time) { f.now = now }
func (f *fakeInput) WasPressed(b panel.Button) bool {
	return b == panel.ButtonA && f.presses[f.now]
}
func (f *fakeInput) WasHeld(b panel.Button) bool {
	return b == panel.ButtonPower && f.holds[f.now]
}

type fakePower struct {
	level    int
	charging bool
	offErr   error
	offCalls int
	reads    int
}

func (p *fakePower) BatteryLevel() int { p.reads++; return p.level }
func (p *fakePower) IsCharging() bool  { return p.charging }
func (p *fakePower) PowerOff() error {
	p.offCalls++
	return p.offErr
}

type fakeNetwork struct{ connected bool }

func (n fakeNetwork) Connected() bool { return n.connected }
func (n fakeNetwork) Address() string {
	if n.connected {
		return "192.168.1.5"
	}
	return ""
}

type recordingScreen struct {
	mu     sync.Mutex
	frames []panel.Frame
	err    error
}

func (s *recordingScreen) Draw(f panel.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, f)
	return s.err
}

func (s *recordingScreen) last() panel.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames[len(s.frames)-1]
}

func (s *recordingScreen) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

type fakePublisher struct {
	sent []mqtt.Telemetry
	err  error
}

func (p *fakePublisher) PublishTelemetry(t mqtt.Telemetry) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, t)
	return nil
}

var errBusGone = errors.New("i2c bus gone")
