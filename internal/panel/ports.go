package panel

import "time"

// Channel identifies one independently updating sensor unit.
type Channel int

const (
	// ChannelClimate carries temperature and humidity (SHT4x).
	ChannelClimate Channel = iota
	// ChannelBarometer carries pressure (BMP280).
	ChannelBarometer

	channelCount
)

// Channels lists every sensor channel in polling order.
var Channels = [...]Channel{ChannelClimate, ChannelBarometer}

func (c Channel) String() string {
	switch c {
	case ChannelClimate:
		return "climate"
	case ChannelBarometer:
		return "barometer"
	default:
		return "unknown"
	}
}

// SensorSource exposes the latest raw readings of the sensor unit.
// Update is called once per loop iteration; Updated reports whether the
// channel produced a new sample during that call.
type SensorSource interface {
	Update(now time.Time)
	Updated(ch Channel) bool
	Temperature() float64 // °C
	Humidity() float64    // %RH
	Pressure() float64    // Pa
}

// ClockSource reports local wall-clock time once synchronised. LocalTime
// waits at most timeout for a pending first sync and reports false while
// the clock is unavailable.
type ClockSource interface {
	LocalTime(timeout time.Duration) (TimeSnapshot, bool)
	Synced() bool
}

// Button names a physical button.
type Button int

const (
	ButtonA Button = iota
	ButtonPower
)

func (b Button) String() string {
	switch b {
	case ButtonA:
		return "a"
	case ButtonPower:
		return "power"
	default:
		return "unknown"
	}
}

// InputSource exposes edge-triggered button events sampled by Update.
type InputSource interface {
	Update(now time.Time)
	WasPressed(b Button) bool
	WasHeld(b Button) bool
}

// PowerSource reports the battery state and powers the device off.
// On real hardware PowerOff does not return unless it fails; a nil return
// means the device is considered off.
type PowerSource interface {
	BatteryLevel() int
	IsCharging() bool
	PowerOff() error
}

// Network reports WiFi connectivity.
type Network interface {
	Connected() bool
	Address() string
}
