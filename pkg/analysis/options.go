package analysis

import (
	"fmt"
	"strings"

	"github.com/ja7ad/windpower/pkg/aero"
	"github.com/ja7ad/windpower/pkg/profile"
	"github.com/ja7ad/windpower/pkg/turbine"
	"github.com/ja7ad/windpower/pkg/turbulence"
	"github.com/ja7ad/windpower/pkg/wind"
)

// PowerModel selects how the rotor speed is supplied to the power evaluator.
type PowerModel string

const (
	// PowerRamp supplies no rotor speed; the MPPT region follows the cubic ramp.
	PowerRamp PowerModel = "ramp"
	// PowerFixed holds the rotor at the turbine's rated rotor speed.
	PowerFixed PowerModel = "fixed"
	// PowerTracking follows the variant's optimal tip-speed ratio.
	PowerTracking PowerModel = "mppt"
)

// ParsePowerModel accepts "ramp", "fixed" and "mppt"/"tracking".
func ParsePowerModel(s string) (PowerModel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ramp", "":
		return PowerRamp, nil
	case "fixed", "fixed_speed":
		return PowerFixed, nil
	case "mppt", "tracking":
		return PowerTracking, nil
	default:
		return "", fmt.Errorf("%w: power model %q", wind.ErrUnknownModel, s)
	}
}

// Options is the analysis configuration.
// Units:
//   - SamplingInterval: s, interval of synthesized series
//   - HubHeight: m, 0 uses the first observation's height
//   - AirDensity: kg/m³
//   - Pitch: degrees
//   - TrackingSmoothing: EMA alpha in (0,1], 1 = rotor follows wind instantly
//   - SynthesisDuration: s, 0 disables the synthetic window
//   - ProfileTop/ProfileStep: m, height grid of the profile comparison
//
// WeatherTurbulence scales K_p of the synthetic window by
// wind.WeatherFactor of the observations' mean temperature and humidity.
type Options struct {
	Extrapolation     profile.Model
	Terrain           wind.TerrainClass
	TerrainOverride   *wind.Terrain
	Efficiency        *aero.Variant
	SamplingInterval  float64
	Seed              *int64
	HubHeight         float64
	AirDensity        float64
	PowerModel        PowerModel
	Pitch             float64
	TrackingSmoothing float64
	SynthesisDuration float64
	ProfileTop        float64
	ProfileStep       float64
	WeatherTurbulence bool
}

// DefaultOptions returns power-law extrapolation over trees/buildings
// terrain, Heier-compatible ramp evaluation and a 10 minute synthetic window.
func DefaultOptions() Options {
	return Options{
		Extrapolation:     profile.PowerLaw,
		Terrain:           wind.DefaultTerrainClass,
		SamplingInterval:  turbulence.DefaultInterval,
		AirDensity:        turbine.DefaultAirDensity,
		PowerModel:        PowerRamp,
		TrackingSmoothing: 1,
		SynthesisDuration: 600,
		ProfileTop:        150,
		ProfileStep:       10,
	}
}

// Validate checks ranges; name lookups are checked when the engine runs.
func (o Options) Validate() error {
	switch {
	case !(o.SamplingInterval > 0):
		return fmt.Errorf("%w: sampling interval %v s must be > 0", wind.ErrInvalidParameter, o.SamplingInterval)
	case o.HubHeight < 0:
		return fmt.Errorf("%w: hub height %v m must be >= 0", wind.ErrInvalidParameter, o.HubHeight)
	case !(o.AirDensity > 0):
		return fmt.Errorf("%w: air density %v kg/m³ must be > 0", wind.ErrInvalidParameter, o.AirDensity)
	case !(o.TrackingSmoothing > 0 && o.TrackingSmoothing <= 1):
		return fmt.Errorf("%w: tracking smoothing %v not in (0,1]", wind.ErrInvalidParameter, o.TrackingSmoothing)
	case o.SynthesisDuration < 0:
		return fmt.Errorf("%w: synthesis duration %v s must be >= 0", wind.ErrInvalidParameter, o.SynthesisDuration)
	case o.ProfileTop < 0 || o.ProfileStep < 0:
		return fmt.Errorf("%w: profile grid top=%v step=%v", wind.ErrInvalidParameter, o.ProfileTop, o.ProfileStep)
	}
	if _, err := ParsePowerModel(string(o.PowerModel)); err != nil {
		return err
	}
	if o.Efficiency != nil && !o.Efficiency.Valid() {
		return fmt.Errorf("%w: efficiency variant %d", wind.ErrUnknownModel, int(*o.Efficiency))
	}
	if o.TerrainOverride != nil {
		if err := o.TerrainOverride.Validate(); err != nil {
			return err
		}
	}
	return nil
}
