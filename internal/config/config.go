package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	// LogFile empty logs to stderr.
	LogFile  string
	DeviceID string

	DisplayDriver string
	FBDevice      string
	PNGPath       string

	SensorDriver       string
	I2CBus             string
	BMP280Address      uint16
	SensorPollInterval time.Duration

	InputDriver    string
	ButtonAPin     string
	ButtonPowerPin string
	ButtonHoldTime time.Duration

	PowerDriver string
	BatteryPath string

	WiFiInterface   string
	NTPServer       string
	TZOffset        time.Duration
	NTPSyncInterval time.Duration
	NTPMaxAge       time.Duration

	// MQTTBroker empty disables telemetry publishing.
	MQTTBroker        string
	MQTTPort          int
	MQTTClientID      string
	TelemetryInterval time.Duration
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	displayDriver, err := oneOf("DISPLAY_DRIVER", "fb", "fb", "ssd1306", "png", "term")
	if err != nil {
		return Config{}, err
	}
	sensorDriver, err := oneOf("SENSOR_DRIVER", "i2c", "i2c", "sim")
	if err != nil {
		return Config{}, err
	}
	inputDriver, err := oneOf("INPUT_DRIVER", "gpio", "gpio", "term", "none")
	if err != nil {
		return Config{}, err
	}
	if inputDriver == "term" && displayDriver != "term" {
		return Config{}, fmt.Errorf("INPUT_DRIVER=term requires DISPLAY_DRIVER=term")
	}
	logFile := strings.TrimSpace(os.Getenv("LOG_FILE"))
	if logFile == "" && displayDriver == "term" {
		logFile = "cloudpico-handheld.log"
	}

	powerDriver, err := oneOf("POWER_DRIVER", "sysfs", "sysfs", "sim")
	if err != nil {
		return Config{}, err
	}

	bmp280AddressStr := envDefault("BMP280_ADDRESS", "0x76")
	bmp280Address, err := strconv.ParseUint(bmp280AddressStr, 0, 16)
	if err != nil {
		return Config{}, fmt.Errorf("invalid BMP280_ADDRESS %q: %w", bmp280AddressStr, err)
	}

	sensorPollInterval, err := positiveDuration("SENSOR_POLL_INTERVAL", "1s")
	if err != nil {
		return Config{}, err
	}
	buttonHoldTime, err := positiveDuration("BUTTON_HOLD_TIME", "1s")
	if err != nil {
		return Config{}, err
	}

	tzOffsetStr := envDefault("TZ_OFFSET", "9h")
	tzOffset, err := time.ParseDuration(tzOffsetStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid TZ_OFFSET %q: %w", tzOffsetStr, err)
	}
	if tzOffset < -14*time.Hour || tzOffset > 14*time.Hour {
		return Config{}, fmt.Errorf("TZ_OFFSET must be within ±14h, got %v", tzOffset)
	}

	ntpSyncInterval, err := positiveDuration("NTP_SYNC_INTERVAL", "1h")
	if err != nil {
		return Config{}, err
	}
	ntpMaxAge, err := positiveDuration("NTP_MAX_AGE", "24h")
	if err != nil {
		return Config{}, err
	}

	mqttPortStr := envDefault("MQTT_PORT", "1883")
	mqttPort, err := strconv.Atoi(mqttPortStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %q: %w", mqttPortStr, err)
	}

	telemetryInterval, err := positiveDuration("TELEMETRY_INTERVAL", "10s")
	if err != nil {
		return Config{}, err
	}

	return Config{
		AppEnv:   appEnv,
		LogLevel: level,
		LogFile:  logFile,
		DeviceID: envDefault("DEVICE_ID", "handheld"),

		DisplayDriver: displayDriver,
		FBDevice:      envDefault("FB_DEVICE", "/dev/fb0"),
		PNGPath:       envDefault("PNG_PATH", "frame.png"),

		SensorDriver:       sensorDriver,
		I2CBus:             strings.TrimSpace(os.Getenv("I2C_BUS")),
		BMP280Address:      uint16(bmp280Address),
		SensorPollInterval: sensorPollInterval,

		InputDriver:    inputDriver,
		ButtonAPin:     envDefault("BUTTON_A_PIN", "GPIO17"),
		ButtonPowerPin: envDefault("BUTTON_POWER_PIN", "GPIO27"),
		ButtonHoldTime: buttonHoldTime,

		PowerDriver: powerDriver,
		BatteryPath: envDefault("BATTERY_PATH", "/sys/class/power_supply/BAT0"),

		WiFiInterface:   strings.TrimSpace(os.Getenv("WIFI_INTERFACE")),
		NTPServer:       envDefault("NTP_SERVER", "ntp.nict.jp"),
		TZOffset:        tzOffset,
		NTPSyncInterval: ntpSyncInterval,
		NTPMaxAge:       ntpMaxAge,

		MQTTBroker:        strings.TrimSpace(os.Getenv("MQTT_BROKER")),
		MQTTPort:          mqttPort,
		MQTTClientID:      envDefault("MQTT_CLIENT_ID", "cloudpico-handheld"),
		TelemetryInterval: telemetryInterval,
	}, nil
}

func envDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func oneOf(key, def string, allowed ...string) (string, error) {
	v := strings.ToLower(envDefault(key, def))
	for _, a := range allowed {
		if v == a {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid %s %q (allowed: %s)", key, v, strings.Join(allowed, ", "))
}

func positiveDuration(key, def string) (time.Duration, error) {
	s := envDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", key, d)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
