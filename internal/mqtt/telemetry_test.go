package mqtt

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"cloudpico-handheld/internal/panel"
)

type stubSensors struct {
	updated map[panel.Channel]bool
}

func (s stubSensors) Update(time.Time)              {}
func (s stubSensors) Updated(ch panel.Channel) bool { return s.updated[ch] }
func (s stubSensors) Temperature() float64          { return 21.5 }
func (s stubSensors) Humidity() float64             { return 55 }
func (s stubSensors) Pressure() float64             { return 101320 }

var ts = time.Date(2024, 1, 15, 0, 5, 3, 0, time.UTC)

func payload(t *testing.T, tel Telemetry) map[string]any {
	t.Helper()
	tel.StationID = "handheld"
	b, err := json.Marshal(tel)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestNewTelemetry_AllChannels(t *testing.T) {
	var r panel.Readings
	r.Merge(stubSensors{updated: map[panel.Channel]bool{panel.ChannelClimate: true, panel.ChannelBarometer: true}}, ts)

	m := payload(t, NewTelemetry(&r, 4, ts))
	want := map[string]any{
		"station_id":    "handheld",
		"timestamp":     "2024-01-15T00:05:03Z",
		"temperature_c": 21.5,
		"humidity_pct":  55.0,
		"pressure_hpa":  1013.2,
		"sequence":      4.0,
	}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("%s = %v, want %v", k, m[k], v)
		}
	}
}

func TestNewTelemetry_OmitsSilentChannels(t *testing.T) {
	var r panel.Readings
	r.Merge(stubSensors{updated: map[panel.Channel]bool{panel.ChannelBarometer: true}}, ts)

	m := payload(t, NewTelemetry(&r, 1, ts))
	for _, k := range []string{"temperature_c", "humidity_pct"} {
		if _, ok := m[k]; ok {
			t.Errorf("payload has %s although the climate channel never updated", k)
		}
	}
	if m["pressure_hpa"] != 1013.2 {
		t.Errorf("pressure_hpa = %v", m["pressure_hpa"])
	}
}

func TestTopics(t *testing.T) {
	if got := TelemetryTopic("handheld"); got != "stations/handheld/telemetry" {
		t.Errorf("TelemetryTopic() = %q", got)
	}
	if got := HealthTopic("handheld"); got != "stations/handheld/health" {
		t.Errorf("HealthTopic() = %q", got)
	}
}

func TestNewClient_RequiresBroker(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := NewClient(Options{Port: 1883}, logger); err == nil {
		t.Fatal("NewClient() error = nil without a broker")
	}
	c, err := NewClient(Options{Broker: "localhost", Port: 1883, ClientID: "t", StationID: "handheld"}, logger)
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true before Connect")
	}
	if err := c.PublishTelemetry(Telemetry{}); err == nil {
		t.Error("PublishTelemetry() error = nil while disconnected")
	}
	c.Disconnect()
	c.Disconnect()
}
