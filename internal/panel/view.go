package panel

import "fmt"

var weekdays = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Scene is everything one frame depends on. Time is only meaningful when
// TimeOK is set; Power is only read by the battery view.
type Scene struct {
	Mode         ViewMode
	Reading      SensorReading
	Time         TimeSnapshot
	TimeOK       bool
	Connectivity Connectivity
	Power        PowerStatus
}

// Render produces the frame for the scene. It has no side effects.
func Render(s Scene) Frame {
	if s.Mode == BatteryInfo {
		return renderBattery(s.Power)
	}
	return renderDashboard(s)
}

func renderDashboard(s Scene) Frame {
	f := newFrame(Black)
	f.text(10, 5, 2, White, "=== Sensor Data ===")

	y := 35
	f.text(10, y, 2, Cyan, fmt.Sprintf("Humidity:    %.1f %%", s.Reading.Humidity))
	y += 25
	f.text(10, y, 2, Orange, fmt.Sprintf("Temperature: %.1f C", s.Reading.Temperature))
	y += 25
	f.text(10, y, 2, GreenYellow, fmt.Sprintf("Pressure:  %.1f hPa", s.Reading.Pressure))

	y += 35
	f.text(10, y, 2, White, "=== Time (NTP) ===")
	y += 25
	if s.TimeOK {
		f.text(10, y, 2, Yellow, FormatDate(s.Time))
		y += 25
		f.text(10, y, 2, Yellow, FormatClock(s.Time))
	} else {
		f.text(10, y, 2, Red, "Time not available")
	}

	footer := ScreenHeight - 15
	wifi, ntp := "WiFi:--", "NTP:--"
	if s.Connectivity.WiFiConnected {
		wifi = "WiFi:OK"
	}
	if s.Connectivity.ClockSynced {
		ntp = "NTP:OK"
	}
	f.text(10, footer, 1, LightGrey, wifi)
	f.text(100, footer, 1, LightGrey, ntp)
	return f
}

func renderBattery(p PowerStatus) Frame {
	f := newFrame(Black)
	f.text(10, 20, 2, White, "=== Battery Info ===")
	f.text(10, 80, 2, Green, fmt.Sprintf("Level: %3d%%", clampPercent(p.BatteryPercent)))
	if p.IsCharging {
		f.text(10, 120, 2, Yellow, "Status: Charging")
	} else {
		f.text(10, 120, 2, LightGrey, "Status: Discharging")
	}
	return f
}

// FormatDate renders YYYY/MM/DD (Www).
func FormatDate(t TimeSnapshot) string {
	return fmt.Sprintf("%04d/%02d/%02d (%s)", t.Year, t.Month, t.Day, weekdayName(int(t.Weekday)))
}

// FormatClock renders HH:MM:SS.
func FormatClock(t TimeSnapshot) string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

func weekdayName(d int) string {
	if d < 0 || d >= len(weekdays) {
		return "???"
	}
	return weekdays[d]
}

func clampPercent(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

// ShutdownFrame is shown while the device powers off.
func ShutdownFrame() Frame {
	f := newFrame(Black)
	f.text(60, 100, 3, White, "Power Off...")
	return f
}
