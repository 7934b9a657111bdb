package sensor

import (
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/devices/v3/sht4x"
	"periph.io/x/host/v3"
)

// barometerOpts matches the ENV IV unit setup: 16x pressure and 2x
// temperature oversampling with the strongest IIR filter.
var barometerOpts = bmxx80.Opts{
	Temperature: bmxx80.O2x,
	Pressure:    bmxx80.O16x,
	Humidity:    bmxx80.O1x,
	Filter:      bmxx80.F16,
}

type halter interface {
	Halt() error
}

// OpenI2C initialises both chips on the named bus. Failure to find either
// chip is fatal for the caller.
func OpenI2C(busName string, bmpAddr uint16, interval time.Duration, logger *slog.Logger) (*Unit, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph init: %w", err)
	}

	bus, err := i2creg.Open(busName) // "" picks the default bus, usually /dev/i2c-1
	if err != nil {
		return nil, fmt.Errorf("open i2c bus: %w", err)
	}

	sht, err := sht4x.New(bus, sht4x.DefaultAddress)
	if err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("sht4x: %w", err)
	}

	bmp, err := bmxx80.NewI2C(bus, bmpAddr, &barometerOpts)
	if err != nil {
		if h, ok := any(sht).(halter); ok {
			_ = h.Halt()
		}
		_ = bus.Close()
		return nil, fmt.Errorf("bmp280 at %#x: %w", bmpAddr, err)
	}
	logger.Debug("sensors detected", "bus", bus.String(), "barometer", bmp.String())

	u := New(sht, bmp, interval, logger)
	u.closers = append(u.closers, bus.Close)
	if h, ok := any(sht).(halter); ok {
		u.closers = append(u.closers, h.Halt)
	}
	u.closers = append(u.closers, bmp.Halt)
	return u, nil
}
