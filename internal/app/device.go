package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloudpico-handheld/internal/mqtt"
	"cloudpico-handheld/internal/panel"
)

const (
	pollInterval    = 10 * time.Millisecond
	renderClockWait = 100 * time.Millisecond
	staleAfter      = 10 * time.Second
	shutdownDelay   = time.Second
)

// ErrPoweredOff is returned by the loop after the device was switched off.
var ErrPoweredOff = errors.New("device powered off")

// Screen shows complete frames.
type Screen interface {
	Draw(f panel.Frame) error
}

// Publisher ships telemetry off the device.
type Publisher interface {
	PublishTelemetry(t mqtt.Telemetry) error
}

type DeviceOptions struct {
	Sensors panel.SensorSource
	Clock   panel.ClockSource
	Input   panel.InputSource
	Power   panel.PowerSource
	Network panel.Network
	Screen  Screen

	// Publisher nil disables telemetry.
	Publisher         Publisher
	TelemetryInterval time.Duration

	Sleep func(time.Duration)
}

// Device is the panel main loop. All fields are owned by the goroutine
// calling Step.
type Device struct {
	opts   DeviceOptions
	logger *slog.Logger

	machine  *panel.Machine
	readings panel.Readings

	started       time.Time
	stale         [len(panel.Channels)]bool
	lastTelemetry time.Time
	sequence      int
}

func NewDevice(opts DeviceOptions, logger *slog.Logger) *Device {
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	return &Device{opts: opts, logger: logger, machine: panel.NewMachine()}
}

func (d *Device) Mode() panel.ViewMode { return d.machine.Mode() }

// Loop runs Step every poll interval until ctx is cancelled or the device
// powers off.
func (d *Device) Loop(ctx context.Context) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if err := d.Step(now); err != nil {
				return err
			}
		}
	}
}

// Step runs one loop iteration at now.
func (d *Device) Step(now time.Time) error {
	if d.started.IsZero() {
		d.started = now
	}

	d.opts.Input.Update(now)
	d.opts.Sensors.Update(now)

	if d.opts.Input.WasPressed(panel.ButtonA) {
		d.machine.Press(now)
		d.logger.Debug("button pressed", "button", panel.ButtonA.String(), "mode", d.machine.Mode().String())
	}
	if d.machine.Tick(now) {
		d.logger.Debug("battery view expired", "mode", d.machine.Mode().String())
	}

	if d.opts.Input.WasHeld(panel.ButtonPower) {
		return d.powerOff()
	}

	for _, ch := range d.readings.Merge(d.opts.Sensors, now) {
		d.traceReading(ch)
	}
	d.checkStale(now)
	d.publish(now)

	if d.machine.ShouldRender(now) {
		if err := d.opts.Screen.Draw(panel.Render(d.scene())); err != nil {
			d.logger.Warn("display update failed", "err", err)
		}
		d.machine.MarkRendered(now)
	}
	return nil
}

// scene samples the collaborators needed by the active view.
func (d *Device) scene() panel.Scene {
	s := panel.Scene{Mode: d.machine.Mode(), Reading: d.readings.Current()}
	switch s.Mode {
	case panel.BatteryInfo:
		s.Power = panel.PowerStatus{
			BatteryPercent: d.opts.Power.BatteryLevel(),
			IsCharging:     d.opts.Power.IsCharging(),
		}
	default:
		s.Time, s.TimeOK = d.opts.Clock.LocalTime(renderClockWait)
		s.Connectivity = panel.Connectivity{
			WiFiConnected: d.opts.Network.Connected(),
			ClockSynced:   d.opts.Clock.Synced(),
		}
	}
	return s
}

func (d *Device) powerOff() error {
	d.logger.Info("power button held, powering off")
	if err := d.opts.Screen.Draw(panel.ShutdownFrame()); err != nil {
		d.logger.Warn("display update failed", "err", err)
	}
	d.opts.Sleep(shutdownDelay)

	if err := d.opts.Power.PowerOff(); err != nil {
		d.logger.Error("power off failed", "err", err)
		return fmt.Errorf("power off: %w", err)
	}
	return ErrPoweredOff
}

func (d *Device) traceReading(ch panel.Channel) {
	r := d.readings.Current()
	switch ch {
	case panel.ChannelClimate:
		d.logger.Debug("reading", "channel", ch.String(), "temperature", r.Temperature, "humidity", r.Humidity)
	case panel.ChannelBarometer:
		d.logger.Debug("reading", "channel", ch.String(), "pressure", r.Pressure)
	}
}

// checkStale logs a channel once when it stops updating and once when it
// comes back.
func (d *Device) checkStale(now time.Time) {
	for _, ch := range panel.Channels {
		last, ok := d.readings.UpdatedAt(ch)
		if !ok {
			last = d.started
		}
		stale := now.Sub(last) >= staleAfter
		switch {
		case stale && !d.stale[ch]:
			attrs := []any{"channel", ch.String(), "silent_for", now.Sub(last).Round(time.Second)}
			if !ok {
				attrs = append(attrs, "never_updated", true)
			}
			d.logger.Warn("sensor channel stale", attrs...)
		case !stale && d.stale[ch]:
			d.logger.Info("sensor channel recovered", "channel", ch.String())
		}
		d.stale[ch] = stale
	}
}

func (d *Device) publish(now time.Time) {
	if d.opts.Publisher == nil {
		return
	}
	if !d.lastTelemetry.IsZero() && now.Sub(d.lastTelemetry) < d.opts.TelemetryInterval {
		return
	}
	if _, ok := d.readings.UpdatedAt(panel.ChannelClimate); !ok {
		if _, ok := d.readings.UpdatedAt(panel.ChannelBarometer); !ok {
			return
		}
	}

	d.lastTelemetry = now
	d.sequence++
	if err := d.opts.Publisher.PublishTelemetry(mqtt.NewTelemetry(&d.readings, d.sequence, now)); err != nil {
		d.logger.Debug("telemetry not sent", "err", err)
	}
}
