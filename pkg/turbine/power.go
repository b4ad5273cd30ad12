// Package turbine maps wind speed to turbine power through the operating
// envelope of a Spec:
//
//	v < cut-in            : 0
//	cut-in <= v < rated   : aerodynamic ½·Cp·ρ·A·v³ (capped), or cubic ramp
//	rated <= v <= cut-out : rated power
//	v > cut-out           : 0
//
// Power never exceeds the rated power.
package turbine

import (
	"fmt"
	"math"

	"github.com/ja7ad/windpower/pkg/aero"
	"github.com/ja7ad/windpower/pkg/util"
	"github.com/ja7ad/windpower/pkg/wind"
)

// DefaultAirDensity is sea-level air density in kg/m³.
const DefaultAirDensity = 1.225

// Evaluator computes turbine power against an injected Cp model.
type Evaluator struct {
	model      *aero.Model
	airDensity float64
	pitch      float64
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithAirDensity overrides ρ (kg/m³); non-positive values are ignored.
func WithAirDensity(rho float64) Option {
	return func(e *Evaluator) {
		if rho > 0 {
			e.airDensity = rho
		}
	}
}

// WithPitch sets the blade pitch angle β in degrees.
func WithPitch(beta float64) Option {
	return func(e *Evaluator) { e.pitch = beta }
}

// NewEvaluator builds an evaluator. A nil model uses the default table.
func NewEvaluator(model *aero.Model, opts ...Option) *Evaluator {
	if model == nil {
		model = aero.Default()
	}
	e := &Evaluator{model: model, airDensity: DefaultAirDensity}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Evaluator) AirDensity() float64 { return e.airDensity }
func (e *Evaluator) Pitch() float64      { return e.pitch }
func (e *Evaluator) Model() *aero.Model  { return e.model }

// Power returns the electrical output in kW at wind speed v (m/s) with rotor
// angular speed omega (rad/s, 0 = unknown).
//
// The ramp (omega = 0) is continuous on [cut-in, rated]. The aerodynamic
// branch is not: below rated it yields ½·Cp·ρ·A·v³, which may fall short of
// rated power, and output steps up to rated power at v = rated.
func (e *Evaluator) Power(v float64, spec Spec, omega float64) (float64, error) {
	if !util.Finite(v) || v < 0 {
		return 0, fmt.Errorf("%w: wind speed %v m/s", wind.ErrDomain, v)
	}
	if !util.Finite(omega) || omega < 0 {
		return 0, fmt.Errorf("%w: rotor speed %v rad/s", wind.ErrDomain, omega)
	}

	switch {
	case v < spec.CutIn, v > spec.CutOut:
		return 0, nil
	case v >= spec.Rated:
		return spec.RatedPower, nil
	case omega == 0:
		return ramp(v, spec), nil
	}

	a, err := e.Aerodynamic(v, spec, omega)
	if err != nil {
		return 0, err
	}
	return math.Min(a.Mechanical*spec.drivetrain(), spec.RatedPower), nil
}

// ramp is P_r·(v³ − v_ci³)/(v_r³ − v_ci³): 0 at cut-in, rated at rated speed.
func ramp(v float64, spec Spec) float64 {
	ci3 := spec.CutIn * spec.CutIn * spec.CutIn
	r3 := spec.Rated * spec.Rated * spec.Rated
	p := spec.RatedPower * (v*v*v - ci3) / (r3 - ci3)
	return util.Clamp(p, 0, spec.RatedPower)
}

// Aero is the uncapped aerodynamic operating point at one wind speed.
type Aero struct {
	Lambda     float64 `json:"lambda"`
	Cp         float64 `json:"cp"`
	Mechanical float64 `json:"mechanical_kw"`
}

// Aerodynamic evaluates λ = ωR/v, Cp(λ, β) and ½·Cp·ρ·A·v³ without the
// operating envelope or rated cap.
func (e *Evaluator) Aerodynamic(v float64, spec Spec, omega float64) (Aero, error) {
	if v <= 0 {
		return Aero{}, nil
	}
	lambda := aero.TipSpeedRatio(omega, spec.RotorRadius, v)
	cp, err := e.model.CoefficientOfPower(lambda, e.pitch, spec.Efficiency)
	if err != nil {
		return Aero{}, err
	}
	w := 0.5 * cp * e.airDensity * spec.SweptArea() * v * v * v
	return Aero{Lambda: lambda, Cp: cp, Mechanical: w / 1000}, nil
}

// Optimum is the maximum power point of the Spec's Cp variant at the
// evaluator's pitch.
func (e *Evaluator) Optimum(spec Spec) (aero.Optimum, error) {
	return e.model.OptimalTipSpeedRatio(spec.Efficiency, e.pitch)
}

// CurvePoint is one row of a power curve.
type CurvePoint struct {
	Speed  float64 `json:"speed_ms"`
	Omega  float64 `json:"omega_rads"`
	Lambda float64 `json:"lambda"`
	Cp     float64 `json:"cp"`
	Power  float64 `json:"power_kw"`
}

// Curve tabulates power over speeds with the given rotor control.
func (e *Evaluator) Curve(spec Spec, speeds []float64, ctrl Control) ([]CurvePoint, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if ctrl == nil {
		ctrl = RampControl{}
	}
	out := make([]CurvePoint, len(speeds))
	for i, v := range speeds {
		omega := ctrl.Omega(v, spec)
		p, err := e.Power(v, spec, omega)
		if err != nil {
			return nil, fmt.Errorf("speed %v m/s: %w", v, err)
		}
		a, err := e.Aerodynamic(v, spec, omega)
		if err != nil {
			return nil, fmt.Errorf("speed %v m/s: %w", v, err)
		}
		out[i] = CurvePoint{Speed: v, Omega: omega, Lambda: a.Lambda, Cp: a.Cp, Power: p}
	}
	return out, nil
}

// Speeds builds an inclusive grid 0..max with the given step.
func Speeds(max, step float64) []float64 {
	if !(step > 0) || max < 0 {
		return nil
	}
	n := int(math.Floor(max/step+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) * step
	}
	return out
}
