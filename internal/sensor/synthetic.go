package sensor

import (
	"math"
	"time"

	"periph.io/x/conn/v3/physic"
)

// Synthetic produces slowly drifting plausible readings for running the panel
// without hardware. Climate and barometer come from separate instances.
type Synthetic struct {
	start time.Time
	now   func() time.Time
}

func NewSynthetic(now func() time.Time) *Synthetic {
	return &Synthetic{start: now(), now: now}
}

func (s *Synthetic) Sense(env *physic.Env) error {
	t := s.now().Sub(s.start).Seconds()
	celsius := 22 + 1.5*math.Sin(t/60)
	rh := 45 + 5*math.Sin(t/90)
	hpa := 1013.25 + 2*math.Sin(t/300)

	env.Temperature = physic.ZeroCelsius + physic.Temperature(celsius*float64(physic.Celsius))
	env.Humidity = physic.RelativeHumidity(rh * float64(physic.PercentRH))
	env.Pressure = physic.Pressure(hpa * 100 * float64(physic.Pascal))
	return nil
}
