package operation

import (
	"fmt"
	"time"

	"github.com/ja7ad/windpower/pkg/turbine"
)

// Record is one classified, evaluated sample.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	Speed     float64   `json:"speed_ms"`
	Omega     float64   `json:"omega_rads"`
	Power     float64   `json:"power_kw"`
	State     State     `json:"state"`
}

// Sample is a timestamped wind speed at hub height.
type Sample struct {
	Timestamp time.Time
	Speed     float64
}

// PowerFunc evaluates turbine power; *turbine.Evaluator satisfies it.
type PowerFunc interface {
	Power(v float64, spec turbine.Spec, omega float64) (float64, error)
}

// Evaluate classifies and evaluates every sample in input order. A nil
// control supplies no rotor speed.
func Evaluate(samples []Sample, spec turbine.Spec, eval PowerFunc, ctrl turbine.Control) ([]Record, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if ctrl == nil {
		ctrl = turbine.RampControl{}
	}
	out := make([]Record, len(samples))
	for i, s := range samples {
		omega := ctrl.Omega(s.Speed, spec)
		p, err := eval.Power(s.Speed, spec, omega)
		if err != nil {
			return nil, fmt.Errorf("sample %d at %s: %w", i, s.Timestamp.Format(time.RFC3339), err)
		}
		out[i] = Record{
			Timestamp: s.Timestamp,
			Speed:     s.Speed,
			Omega:     omega,
			Power:     p,
			State:     Classify(s.Speed, spec),
		}
	}
	return out, nil
}
