package panel

import "time"

const (
	// RenderInterval is the minimum spacing between periodic redraws.
	RenderInterval = 500 * time.Millisecond
	// BatteryDwell is how long the battery view stays up after the last press.
	BatteryDwell = 3000 * time.Millisecond
)

type ViewMode int

const (
	SensorDashboard ViewMode = iota
	BatteryInfo
)

func (m ViewMode) String() string {
	switch m {
	case SensorDashboard:
		return "sensor_dashboard"
	case BatteryInfo:
		return "battery_info"
	default:
		return "unknown"
	}
}

// Machine decides which view is active and when a redraw is due.
// A change of view forces the next ShouldRender to report true so the
// new view never waits for the periodic interval.
type Machine struct {
	mode      ViewMode
	enteredAt time.Time

	lastRender time.Time
	rendered   bool
	modeDirty  bool
}

func NewMachine() *Machine {
	return &Machine{mode: SensorDashboard}
}

func (m *Machine) Mode() ViewMode { return m.mode }

// Press handles a short press: enter BatteryInfo, restarting the dwell timer.
func (m *Machine) Press(now time.Time) {
	if m.mode != BatteryInfo {
		m.mode = BatteryInfo
		m.modeDirty = true
	}
	m.enteredAt = now
}

// Tick expires the battery view once the dwell has elapsed. It reports
// whether the view changed.
func (m *Machine) Tick(now time.Time) bool {
	if m.mode == BatteryInfo && now.Sub(m.enteredAt) >= BatteryDwell {
		m.mode = SensorDashboard
		m.modeDirty = true
		return true
	}
	return false
}

func (m *Machine) ShouldRender(now time.Time) bool {
	if !m.rendered || m.modeDirty {
		return true
	}
	return now.Sub(m.lastRender) >= RenderInterval
}

func (m *Machine) MarkRendered(now time.Time) {
	m.lastRender = now
	m.rendered = true
	m.modeDirty = false
}
