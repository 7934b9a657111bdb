package panel

import "time"

// SensorReading is the union of the most recent value seen on each channel.
// Pressure is kept in hPa.
type SensorReading struct {
	Temperature float64
	Humidity    float64
	Pressure    float64
}

// TimeSnapshot is a broken-down local time.
type TimeSnapshot struct {
	Year    int
	Month   int
	Day     int
	Weekday time.Weekday
	Hour    int
	Minute  int
	Second  int
}

// SnapshotOf breaks t down in its own location.
func SnapshotOf(t time.Time) TimeSnapshot {
	return TimeSnapshot{
		Year:    t.Year(),
		Month:   int(t.Month()),
		Day:     t.Day(),
		Weekday: t.Weekday(),
		Hour:    t.Hour(),
		Minute:  t.Minute(),
		Second:  t.Second(),
	}
}

type PowerStatus struct {
	BatteryPercent int
	IsCharging     bool
}

type Connectivity struct {
	WiFiConnected bool
	ClockSynced   bool
}

// Readings merges channel updates into a SensorReading and remembers when
// each channel last delivered a sample.
type Readings struct {
	current   SensorReading
	updatedAt [channelCount]time.Time
}

// Merge copies the channels flagged as updated from src. Stale channels keep
// their previous value. It returns the channels that changed.
func (r *Readings) Merge(src SensorSource, now time.Time) []Channel {
	var changed []Channel
	if src.Updated(ChannelClimate) {
		r.current.Temperature = src.Temperature()
		r.current.Humidity = src.Humidity()
		r.updatedAt[ChannelClimate] = now
		changed = append(changed, ChannelClimate)
	}
	if src.Updated(ChannelBarometer) {
		r.current.Pressure = src.Pressure() / 100
		r.updatedAt[ChannelBarometer] = now
		changed = append(changed, ChannelBarometer)
	}
	return changed
}

func (r *Readings) Current() SensorReading { return r.current }

// UpdatedAt returns the time of the last sample on ch and whether one was
// ever received.
func (r *Readings) UpdatedAt(ch Channel) (time.Time, bool) {
	t := r.updatedAt[ch]
	return t, !t.IsZero()
}
