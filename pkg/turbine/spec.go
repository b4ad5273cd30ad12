package turbine

import (
	"fmt"
	"math"

	"github.com/ja7ad/windpower/pkg/aero"
	"github.com/ja7ad/windpower/pkg/wind"
)

// Spec describes a turbine.
// Units:
//   - CutIn/Rated/CutOut: m/s, 0 <= CutIn < Rated < CutOut
//   - RatedPower: kW (electrical), > 0
//   - RotorRadius: m, > 0
//   - RatedRotorSpeedRPM: rev/min, optional (0 = unknown)
//   - DrivetrainEfficiency: (0,1], 0 means lossless
type Spec struct {
	Name                 string       `json:"name" yaml:"name" toml:"name"`
	CutIn                float64      `json:"cut_in_ms" yaml:"cut_in_ms" toml:"cut_in_ms"`
	Rated                float64      `json:"rated_speed_ms" yaml:"rated_speed_ms" toml:"rated_speed_ms"`
	CutOut               float64      `json:"cut_out_ms" yaml:"cut_out_ms" toml:"cut_out_ms"`
	RatedPower           float64      `json:"rated_power_kw" yaml:"rated_power_kw" toml:"rated_power_kw"`
	RotorRadius          float64      `json:"rotor_radius_m" yaml:"rotor_radius_m" toml:"rotor_radius_m"`
	BladeCount           int          `json:"blade_count" yaml:"blade_count" toml:"blade_count"`
	Efficiency           aero.Variant `json:"efficiency_variant" yaml:"efficiency_variant" toml:"efficiency_variant"`
	RatedRotorSpeedRPM   float64      `json:"rated_rotor_speed_rpm,omitempty" yaml:"rated_rotor_speed_rpm" toml:"rated_rotor_speed_rpm"`
	DrivetrainEfficiency float64      `json:"drivetrain_efficiency,omitempty" yaml:"drivetrain_efficiency" toml:"drivetrain_efficiency"`
}

// Validate enforces the ordering of the characteristic speeds and the
// positivity of the ratings.
func (s Spec) Validate() error {
	if !s.Efficiency.Valid() {
		return fmt.Errorf("%w: efficiency variant %d", wind.ErrUnknownModel, int(s.Efficiency))
	}
	switch {
	case !(s.CutIn >= 0):
		return fmt.Errorf("%w: cut-in speed %v m/s must be >= 0", wind.ErrInvalidParameter, s.CutIn)
	case !(s.CutIn < s.Rated):
		return fmt.Errorf("%w: cut-in %v m/s must be below rated speed %v m/s", wind.ErrInvalidParameter, s.CutIn, s.Rated)
	case !(s.Rated < s.CutOut):
		return fmt.Errorf("%w: rated speed %v m/s must be below cut-out %v m/s", wind.ErrInvalidParameter, s.Rated, s.CutOut)
	case math.IsInf(s.CutOut, 0):
		return fmt.Errorf("%w: cut-out speed must be finite", wind.ErrInvalidParameter)
	case !(s.RatedPower > 0):
		return fmt.Errorf("%w: rated power %v kW must be > 0", wind.ErrInvalidParameter, s.RatedPower)
	case !(s.RotorRadius > 0):
		return fmt.Errorf("%w: rotor radius %v m must be > 0", wind.ErrInvalidParameter, s.RotorRadius)
	case s.BladeCount < 1:
		return fmt.Errorf("%w: blade count %d must be >= 1", wind.ErrInvalidParameter, s.BladeCount)
	case s.RatedRotorSpeedRPM < 0:
		return fmt.Errorf("%w: rated rotor speed %v rpm must be >= 0", wind.ErrInvalidParameter, s.RatedRotorSpeedRPM)
	case s.DrivetrainEfficiency < 0 || s.DrivetrainEfficiency > 1:
		return fmt.Errorf("%w: drivetrain efficiency %v not in [0,1]", wind.ErrInvalidParameter, s.DrivetrainEfficiency)
	}
	return nil
}

// SweptArea is πR² in m².
func (s Spec) SweptArea() float64 { return math.Pi * s.RotorRadius * s.RotorRadius }

// RatedOmega is the rated rotor speed in rad/s (0 when unknown).
func (s Spec) RatedOmega() float64 { return RPMToOmega(s.RatedRotorSpeedRPM) }

func (s Spec) drivetrain() float64 {
	if s.DrivetrainEfficiency == 0 {
		return 1
	}
	return s.DrivetrainEfficiency
}

// RPMToOmega converts rev/min to rad/s.
func RPMToOmega(rpm float64) float64 { return rpm * 2 * math.Pi / 60 }

// Reference is the small-turbine spec used throughout the examples and tests:
// 24 kW rated between 9 and 20 m/s, cut-in at 2.3 m/s.
func Reference() Spec {
	return Spec{
		Name:               "reference-24kw",
		CutIn:              2.3,
		Rated:              9.0,
		CutOut:             20.0,
		RatedPower:         24.0,
		RotorRadius:        6.0,
		BladeCount:         3,
		Efficiency:         aero.Heier,
		RatedRotorSpeedRPM: 110,
	}
}
