package input

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"cloudpico-handheld/internal/panel"
)

const debounce = 20 * time.Millisecond

// GPIO reads active-low buttons wired to host GPIO pins.
type GPIO struct {
	pins [buttonCount]gpio.PinIn
	det  Detector
}

// OpenGPIO configures the named pins as pulled-up inputs. An empty name
// leaves that button unconnected.
func OpenGPIO(aPin, powerPin string, hold time.Duration) (*GPIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph init: %w", err)
	}
	return openPins(gpioreg.ByName, aPin, powerPin, hold)
}

// openPins resolves the pins in button order, so the first bad pin is the
// one reported.
func openPins(lookup func(string) gpio.PinIO, aPin, powerPin string, hold time.Duration) (*GPIO, error) {
	g := &GPIO{det: Detector{Debounce: debounce, Hold: hold}}
	wiring := [buttonCount]struct {
		button panel.Button
		pin    string
	}{
		{panel.ButtonA, aPin},
		{panel.ButtonPower, powerPin},
	}
	for _, w := range wiring {
		if w.pin == "" {
			continue
		}
		p := lookup(w.pin)
		if p == nil {
			return nil, fmt.Errorf("gpio pin %q for button %s not found", w.pin, w.button)
		}
		if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("configure %s: %w", w.pin, err)
		}
		g.pins[w.button] = p
	}
	return g, nil
}

func (g *GPIO) Update(now time.Time) {
	g.det.Begin()
	for b, p := range g.pins {
		if p == nil {
			continue
		}
		g.det.Sample(panel.Button(b), p.Read() == gpio.Low, now)
	}
}

func (g *GPIO) WasPressed(b panel.Button) bool { return g.det.WasPressed(b) }
func (g *GPIO) WasHeld(b panel.Button) bool    { return g.det.WasHeld(b) }
