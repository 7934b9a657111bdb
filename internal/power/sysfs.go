// Package power reads the battery gauge and switches the device off.
package power

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Sysfs reads a Linux power_supply node such as /sys/class/power_supply/BAT0.
type Sysfs struct {
	dir    string
	logger *slog.Logger

	lastLevel int
}

func NewSysfs(dir string, logger *slog.Logger) *Sysfs {
	return &Sysfs{dir: dir, logger: logger}
}

// Check verifies the supply node exposes a capacity.
func (s *Sysfs) Check() error {
	if _, err := s.read("capacity"); err != nil {
		return fmt.Errorf("battery gauge %s: %w", s.dir, err)
	}
	return nil
}

// BatteryLevel returns the charge in percent. A failed read returns the last
// good value.
func (s *Sysfs) BatteryLevel() int {
	v, err := s.read("capacity")
	if err != nil {
		s.logger.Warn("battery level read failed", "err", err)
		return s.lastLevel
	}
	level, err := strconv.Atoi(v)
	if err != nil {
		s.logger.Warn("battery level malformed", "value", v)
		return s.lastLevel
	}
	s.lastLevel = level
	return level
}

func (s *Sysfs) IsCharging() bool {
	v, err := s.read("status")
	if err != nil {
		s.logger.Warn("battery status read failed", "err", err)
		return false
	}
	return v == "Charging"
}

func (s *Sysfs) PowerOff() error {
	return powerOff()
}

func (s *Sysfs) read(name string) (string, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
