// Package mqtt publishes the panel's readings to a broker in the station
// telemetry format used by the cloudpico gateway.
package mqtt

import (
	"fmt"
	"time"

	"cloudpico-handheld/internal/panel"
)

type Telemetry struct {
	StationID   string    `json:"station_id"`
	Timestamp   time.Time `json:"timestamp"`
	Temperature *float64  `json:"temperature_c,omitempty"`
	Humidity    *float64  `json:"humidity_pct,omitempty"`
	Pressure    *float64  `json:"pressure_hpa,omitempty"`
	Sequence    *int      `json:"sequence,omitempty"`
}

type StationHealth struct {
	StationID string    `json:"station_id"`
	LastSeen  time.Time `json:"last_seen"`
	Healthy   bool      `json:"healthy"`
}

func TelemetryTopic(stationID string) string {
	return fmt.Sprintf("stations/%s/telemetry", stationID)
}

func HealthTopic(stationID string) string {
	return fmt.Sprintf("stations/%s/health", stationID)
}

// NewTelemetry builds a message from the merged reading. Channels that
// never produced a sample are left out.
func NewTelemetry(r *panel.Readings, seq int, ts time.Time) Telemetry {
	cur := r.Current()
	t := Telemetry{Timestamp: ts, Sequence: &seq}
	if _, ok := r.UpdatedAt(panel.ChannelClimate); ok {
		t.Temperature = &cur.Temperature
		t.Humidity = &cur.Humidity
	}
	if _, ok := r.UpdatedAt(panel.ChannelBarometer); ok {
		t.Pressure = &cur.Pressure
	}
	return t
}
