package wind

import (
	"fmt"
	"math"
	"time"
)

// Observation is a single wind measurement at a known height.
// Units:
//   - Speed: m/s, >= 0
//   - Height: m above ground, > 0
//   - Temperature: °C (optional)
//   - Humidity: % relative (optional)
type Observation struct {
	Timestamp   time.Time `json:"timestamp"`
	Speed       float64   `json:"speed"`
	Height      float64   `json:"height"`
	Temperature *float64  `json:"temperature,omitempty"`
	Humidity    *float64  `json:"humidity,omitempty"`
	SourceID    string    `json:"source,omitempty"`
}

// Validate checks the physical invariants of an observation.
func (o Observation) Validate() error {
	if math.IsNaN(o.Speed) || math.IsInf(o.Speed, 0) || o.Speed < 0 {
		return fmt.Errorf("%w: speed %v m/s at %s", ErrDomain, o.Speed, o.Timestamp.Format(time.RFC3339))
	}
	if math.IsNaN(o.Height) || math.IsInf(o.Height, 0) || o.Height <= 0 {
		return fmt.Errorf("%w: height %v m at %s", ErrDomain, o.Height, o.Timestamp.Format(time.RFC3339))
	}
	return nil
}

// Speeds extracts the speed column of a set of observations.
func Speeds(obs []Observation) []float64 {
	out := make([]float64, len(obs))
	for i, o := range obs {
		out[i] = o.Speed
	}
	return out
}
