package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"cloudpico-handheld/internal/config"
)

func New(cfg config.Config, version string, appName string) *slog.Logger {
	return NewWriter(os.Stderr, cfg, version, appName)
}

// NewWriter is New with an explicit destination, used when a terminal
// display owns the screen.
func NewWriter(w io.Writer, cfg config.Config, version string, appName string) *slog.Logger {
	if version == "dev" {
		h := tint.NewHandler(w, &tint.Options{
			Level:      cfg.LogLevel,
			AddSource:  true,
			TimeFormat: time.Kitchen,
			NoColor:    w != os.Stderr,
		})
		return slog.New(h).With("app", appName, "device_id", cfg.DeviceID)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})
	return slog.New(h).With(
		"app", appName,
		"version", version,
		"env", cfg.AppEnv,
		"device_id", cfg.DeviceID,
	)
}
