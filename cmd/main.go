package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"cloudpico-handheld/internal/app"
	"cloudpico-handheld/internal/config"
	"cloudpico-handheld/internal/logging"
)

var version = "dev"
var appName = "cloudpico-handheld"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := openLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	slog.SetDefault(logger)

	slog.Info("starting",
		"app", appName,
		"version", version,
		"env", cfg.AppEnv,
		"log_level", cfg.LogLevel.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = app.Run(ctx, cfg)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
	case errors.Is(err, app.ErrPoweredOff):
		slog.Info("powered off")
	default:
		slog.Error("run failed", "err", err)
		stop()
		_ = closeLog()
		os.Exit(1)
	}

	slog.Info("shutting down")
}

// openLogger returns the process logger and a func releasing its output.
// With LOG_FILE set the log is appended to that file instead of stderr.
func openLogger(cfg config.Config) (*slog.Logger, func() error, error) {
	if cfg.LogFile == "" {
		return logging.New(cfg, version, appName), func() error { return nil }, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return logging.NewWriter(f, cfg, version, appName), f.Close, nil
}
