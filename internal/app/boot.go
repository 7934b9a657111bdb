package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloudpico-handheld/internal/panel"
)

const (
	wifiAttempts  = 20
	wifiInterval  = 500 * time.Millisecond
	bootClockWait = 10 * time.Second
	bootTitle     = "ENV IV Sensor"
)

// Linker is a network that can be waited on.
type Linker interface {
	panel.Network
	WaitConnected(ctx context.Context, attempts int, interval time.Duration, progress func()) bool
}

// Syncer is a clock with a background sync loop.
type Syncer interface {
	panel.ClockSource
	Start()
	Run(ctx context.Context)
}

type Boot struct {
	Screen      Screen
	Network     Linker
	Clock       Syncer
	OpenSensors func() (panel.SensorSource, error)
	// BusName is shown on the init screen.
	BusName string
	Sleep   func(time.Duration)
}

// Run shows the startup console, joins the network, starts the clock and
// brings up the sensors. The clock keeps syncing in the background until ctx
// is cancelled. A sensor failure leaves the fatal screen up and is returned.
func (b *Boot) Run(ctx context.Context, logger *slog.Logger) (panel.SensorSource, error) {
	sleep := b.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	con := panel.NewConsole(bootTitle)
	show := func() {
		if err := b.Screen.Draw(con.Frame()); err != nil {
			logger.Warn("display update failed", "err", err)
		}
	}

	con.Println(panel.White, "Connecting WiFi...")
	show()
	connected := b.Network.WaitConnected(ctx, wifiAttempts, wifiInterval, func() {
		con.Append(".")
		show()
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if connected {
		addr := b.Network.Address()
		logger.Info("network connected", "address", addr)
		con.Println(panel.White, "WiFi Connected!")
		con.Println(panel.White, "IP: "+addr)
		con.Println(panel.White, "Syncing time...")
		show()

		b.Clock.Start()
		go b.Clock.Run(ctx)

		if ts, ok := b.Clock.LocalTime(bootClockWait); ok {
			con.Append(" Done!")
			con.Println(panel.White, fmt.Sprintf("%04d/%02d/%02d %02d:%02d:%02d",
				ts.Year, ts.Month, ts.Day, ts.Hour, ts.Minute, ts.Second))
		} else {
			con.Append(" Failed!")
			logger.Warn("initial time sync failed")
		}
	} else {
		logger.Warn("network not connected", "attempts", wifiAttempts)
		con.Println(panel.White, "WiFi Failed!")
		con.Println(panel.White, "Check SSID/Password")
		go b.Clock.Run(ctx)
	}
	show()
	sleep(2 * time.Second)

	con.Reset("")
	con.Println(panel.White, "Initializing...")
	if b.BusName != "" {
		con.Println(panel.White, "I2C: "+b.BusName)
	}
	con.Println(panel.White, "Adding ENV4...")
	show()

	sensors, err := b.OpenSensors()
	if err != nil {
		logger.Error("sensor init failed", "err", err)
		if derr := b.Screen.Draw(panel.FatalFrame("Failed to add ENV4!", "Check connection!")); derr != nil {
			logger.Warn("display update failed", "err", derr)
		}
		return nil, fmt.Errorf("sensor init: %w", err)
	}
	con.Println(panel.White, "Add result: 1")
	show()
	logger.Info("sensors ready")

	if err := b.Screen.Draw(panel.ReadyFrame()); err != nil {
		logger.Warn("display update failed", "err", err)
	}
	sleep(time.Second)
	return sensors, nil
}
