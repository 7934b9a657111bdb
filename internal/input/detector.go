// Package input turns button levels into press and hold events.
package input

import (
	"time"

	"cloudpico-handheld/internal/panel"
)

const buttonCount = 2

type buttonState struct {
	raw      bool
	rawSince time.Time

	down      bool
	downSince time.Time
	heldFired bool

	pressed bool
	held    bool
}

// Detector debounces raw button levels. A press event fires on the
// debounced down edge; a hold event fires once per press after Hold.
type Detector struct {
	Debounce time.Duration
	Hold     time.Duration

	buttons [buttonCount]buttonState
}

// Begin clears the events of the previous sampling round.
func (d *Detector) Begin() {
	for i := range d.buttons {
		d.buttons[i].pressed = false
		d.buttons[i].held = false
	}
}

// Sample feeds the current level of b.
func (d *Detector) Sample(b panel.Button, down bool, now time.Time) {
	if b < 0 || int(b) >= buttonCount {
		return
	}
	s := &d.buttons[b]

	if s.rawSince.IsZero() || down != s.raw {
		s.raw = down
		s.rawSince = now
	}

	if s.raw != s.down && now.Sub(s.rawSince) >= d.Debounce {
		s.down = s.raw
		s.downSince = now
		s.heldFired = false
		if s.down {
			s.pressed = true
		}
	}

	if s.down && !s.heldFired && d.Hold > 0 && now.Sub(s.downSince) >= d.Hold {
		s.heldFired = true
		s.held = true
	}
}

func (d *Detector) WasPressed(b panel.Button) bool {
	if b < 0 || int(b) >= buttonCount {
		return false
	}
	return d.buttons[b].pressed
}

func (d *Detector) WasHeld(b panel.Button) bool {
	if b < 0 || int(b) >= buttonCount {
		return false
	}
	return d.buttons[b].held
}

// None is an input source without buttons.
type None struct{}

func (None) Update(time.Time)             {}
func (None) WasPressed(panel.Button) bool { return false }
func (None) WasHeld(panel.Button) bool    { return false }
