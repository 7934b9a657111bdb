// Package app wires the hardware drivers to the panel loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloudpico-handheld/internal/clock"
	"cloudpico-handheld/internal/config"
	"cloudpico-handheld/internal/display"
	"cloudpico-handheld/internal/input"
	"cloudpico-handheld/internal/mqtt"
	"cloudpico-handheld/internal/network"
	"cloudpico-handheld/internal/panel"
	"cloudpico-handheld/internal/power"
	"cloudpico-handheld/internal/sensor"
	"cloudpico-handheld/internal/sim"
)

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("initializing handheld",
		"display", cfg.DisplayDriver,
		"sensors", cfg.SensorDriver,
		"input", cfg.InputDriver,
		"power", cfg.PowerDriver,
		"mqtt_broker", cfg.MQTTBroker,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hw := &hardware{}
	defer hw.close()

	if err := hw.open(cancel, cfg); err != nil {
		return err
	}

	link := network.New(cfg.WiFiInterface)
	clk := clock.New(clock.Options{
		Server:       cfg.NTPServer,
		Zone:         time.FixedZone("", int(cfg.TZOffset/time.Second)),
		SyncInterval: cfg.NTPSyncInterval,
		MaxAge:       cfg.NTPMaxAge,
		Online:       link.Connected,
	}, slog.Default().With("component", "clock"))

	boot := &Boot{
		Screen:  hw.canvas,
		Network: link,
		Clock:   clk,
		BusName: cfg.I2CBus,
		OpenSensors: func() (panel.SensorSource, error) {
			return hw.openSensors(cfg)
		},
	}
	sensors, err := boot.Run(ctx, slog.Default().With("component", "boot"))
	if err != nil {
		return err
	}

	var publisher Publisher
	if cfg.MQTTBroker != "" {
		client, err := mqtt.NewClient(mqtt.Options{
			Broker:    cfg.MQTTBroker,
			Port:      cfg.MQTTPort,
			ClientID:  cfg.MQTTClientID,
			StationID: cfg.DeviceID,
		}, slog.Default().With("component", "mqtt"))
		if err != nil {
			return err
		}
		go func() {
			if err := client.Connect(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("mqtt connect failed", "err", err)
			}
		}()
		hw.closers = append(hw.closers, func() error { client.Disconnect(); return nil })
		publisher = client
	}

	dev := NewDevice(DeviceOptions{
		Sensors:           sensors,
		Clock:             clk,
		Input:             hw.input,
		Power:             hw.power,
		Network:           link,
		Screen:            hw.canvas,
		Publisher:         publisher,
		TelemetryInterval: cfg.TelemetryInterval,
	}, slog.Default().With("component", "panel"))

	slog.Info("panel running")
	err = dev.Loop(ctx)
	slog.Info("panel stopped", "reason", err)
	return err
}

// hardware owns the drivers selected by the configuration.
type hardware struct {
	canvas *display.Canvas
	input  panel.InputSource
	power  panel.PowerSource

	closers []func() error
}

func (h *hardware) open(cancel context.CancelFunc, cfg config.Config) error {
	logger := slog.Default()

	switch cfg.PowerDriver {
	case "sim":
		h.power = power.NewSim(time.Now, logger.With("component", "power"))
	default:
		p := power.NewSysfs(cfg.BatteryPath, logger.With("component", "power"))
		if err := p.Check(); err != nil {
			logger.Warn("battery gauge unavailable", "err", err)
		}
		h.power = p
	}

	var sink display.Sink
	switch cfg.DisplayDriver {
	case "png":
		sink = display.NewPNGFile(cfg.PNGPath)
	case "ssd1306":
		oled, err := display.OpenOLED(cfg.I2CBus)
		if err != nil {
			return fmt.Errorf("open display: %w", err)
		}
		h.closers = append(h.closers, oled.Close)
		sink = oled
	case "term":
		term := sim.New(func() {
			if p, ok := h.power.(*power.Sim); ok {
				p.SetCharging(!p.IsCharging())
			}
		})
		go func() {
			if err := term.Run(); err != nil {
				logger.Error("terminal failed", "err", err)
			}
			cancel()
		}()
		select {
		case <-term.QuitChan():
			return errors.New("terminal exited during startup")
		case <-term.Ready():
		}
		h.closers = append(h.closers, func() error {
			term.Quit()
			<-term.QuitChan()
			return nil
		})
		sink = term
		if cfg.InputDriver == "term" {
			h.input = term
		}
	default:
		fb, err := display.OpenFramebuffer(cfg.FBDevice)
		if err != nil {
			return fmt.Errorf("open display: %w", err)
		}
		h.closers = append(h.closers, fb.Close)
		sink = fb
	}
	logger.Info("display ready", "driver", cfg.DisplayDriver, "bounds", sink.Bounds().String())
	h.canvas = display.NewCanvas(sink)

	switch cfg.InputDriver {
	case "gpio":
		in, err := input.OpenGPIO(cfg.ButtonAPin, cfg.ButtonPowerPin, cfg.ButtonHoldTime)
		if err != nil {
			return fmt.Errorf("open buttons: %w", err)
		}
		h.input = in
	case "none":
		h.input = input.None{}
	}
	if h.input == nil {
		h.input = input.None{}
	}

	return nil
}

func (h *hardware) openSensors(cfg config.Config) (panel.SensorSource, error) {
	logger := slog.Default().With("component", "sensor")
	if cfg.SensorDriver == "sim" {
		synth := sensor.NewSynthetic(time.Now)
		return sensor.New(synth, synth, cfg.SensorPollInterval, logger), nil
	}
	u, err := sensor.OpenI2C(cfg.I2CBus, cfg.BMP280Address, cfg.SensorPollInterval, logger)
	if err != nil {
		return nil, err
	}
	h.closers = append(h.closers, u.Close)
	return u, nil
}

func (h *hardware) close() {
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i](); err != nil {
			slog.Warn("release driver failed", "err", err)
		}
	}
	h.closers = nil
}
