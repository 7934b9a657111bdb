package power

import (
	"log/slog"
	"sync"
	"time"
)

// Sim is a battery that drains by one percent a minute and recharges while
// Charging is set. PowerOff only logs.
type Sim struct {
	mu       sync.Mutex
	start    time.Time
	now      func() time.Time
	charging bool
	logger   *slog.Logger
}

func NewSim(now func() time.Time, logger *slog.Logger) *Sim {
	return &Sim{start: now(), now: now, logger: logger}
}

func (s *Sim) SetCharging(v bool) {
	s.mu.Lock()
	s.charging = v
	s.mu.Unlock()
}

func (s *Sim) BatteryLevel() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	minutes := int(s.now().Sub(s.start) / time.Minute)
	if s.charging {
		return min(100, 80+minutes)
	}
	return max(0, 80-minutes)
}

func (s *Sim) IsCharging() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.charging
}

func (s *Sim) PowerOff() error {
	s.logger.Info("simulated power off")
	return nil
}
