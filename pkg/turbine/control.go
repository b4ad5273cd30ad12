package turbine

import "github.com/ja7ad/windpower/pkg/util"

// Control decides the rotor angular speed ω (rad/s) for a wind speed.
// A zero ω means no rotor speed is available and the evaluator falls back
// to the cubic ramp.
type Control interface {
	Omega(v float64, spec Spec) float64
}

// RampControl never supplies a rotor speed.
type RampControl struct{}

func (RampControl) Omega(float64, Spec) float64 { return 0 }

// FixedControl holds the rotor at a constant speed. RPM <= 0 uses the
// spec's rated rotor speed.
type FixedControl struct {
	RPM float64
}

func (c FixedControl) Omega(_ float64, spec Spec) float64 {
	if c.RPM > 0 {
		return RPMToOmega(c.RPM)
	}
	return spec.RatedOmega()
}

// TrackingControl follows the optimal tip-speed ratio (maximum power point
// tracking): ω = λ_opt·v/R. When Smoothing is set the rotor follows an
// exponentially averaged wind speed, approximating rotor inertia. Tracking
// keeps state across calls; use one value per series.
type TrackingControl struct {
	Lambda    float64
	Smoothing *util.EMA
}

func (c TrackingControl) Omega(v float64, spec Spec) float64 {
	if c.Smoothing != nil {
		v = c.Smoothing.Next(v)
	}
	return util.SafeDiv(c.Lambda*v, spec.RotorRadius)
}
