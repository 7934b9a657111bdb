// Package sensor polls the climate (SHT4x) and barometer (BMP280) chips of
// the ENV unit and exposes their latest samples.
package sensor

import (
	"log/slog"
	"time"

	"periph.io/x/conn/v3/physic"

	"cloudpico-handheld/internal/panel"
)

// Senser is a device that fills a physic.Env on demand.
type Senser interface {
	Sense(env *physic.Env) error
}

// Unit implements panel.SensorSource over one climate and one barometer
// device. Each channel is read at most once per interval.
type Unit struct {
	climate  Senser
	baro     Senser
	interval time.Duration
	logger   *slog.Logger

	last    [len(panel.Channels)]time.Time
	updated [len(panel.Channels)]bool
	failing [len(panel.Channels)]bool

	temperature float64
	humidity    float64
	pressure    float64

	closers []func() error
}

func New(climate, baro Senser, interval time.Duration, logger *slog.Logger) *Unit {
	return &Unit{
		climate:  climate,
		baro:     baro,
		interval: interval,
		logger:   logger,
	}
}

// Update reads every channel whose interval has elapsed.
func (u *Unit) Update(now time.Time) {
	u.updated = [len(panel.Channels)]bool{}

	u.poll(panel.ChannelClimate, u.climate, now, func(env physic.Env) {
		u.temperature = env.Temperature.Celsius()
		u.humidity = float64(env.Humidity) / float64(physic.PercentRH)
	})
	u.poll(panel.ChannelBarometer, u.baro, now, func(env physic.Env) {
		u.pressure = float64(env.Pressure) / float64(physic.Pascal)
	})
}

func (u *Unit) poll(ch panel.Channel, dev Senser, now time.Time, apply func(physic.Env)) {
	if dev == nil {
		return
	}
	if !u.last[ch].IsZero() && now.Sub(u.last[ch]) < u.interval {
		return
	}
	u.last[ch] = now

	var env physic.Env
	if err := dev.Sense(&env); err != nil {
		if !u.failing[ch] {
			u.logger.Warn("sensor read failed", "channel", ch.String(), "err", err)
		}
		u.failing[ch] = true
		return
	}
	if u.failing[ch] {
		u.logger.Info("sensor read recovered", "channel", ch.String())
		u.failing[ch] = false
	}
	apply(env)
	u.updated[ch] = true
}

func (u *Unit) Updated(ch panel.Channel) bool {
	if ch < 0 || int(ch) >= len(u.updated) {
		return false
	}
	return u.updated[ch]
}

func (u *Unit) Temperature() float64 { return u.temperature }
func (u *Unit) Humidity() float64    { return u.humidity }
func (u *Unit) Pressure() float64    { return u.pressure }

// Close halts the devices and releases the bus.
func (u *Unit) Close() error {
	var first error
	for i := len(u.closers) - 1; i >= 0; i-- {
		if err := u.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	u.closers = nil
	return first
}
