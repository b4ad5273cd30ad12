// Package profile extrapolates a wind speed measured at one height to other
// heights with the power law or the logarithmic law.
//
//	power law:   v(h) = v_ref · (h / h_ref)^n
//	log law:     v(h) = v_ref · ln(h / z0) / ln(h_ref / z0)
//
// Both laws are pure functions of their inputs; the only state is the terrain
// description passed in by the caller.
package profile

import (
	"fmt"
	"math"
	"strings"

	"github.com/ja7ad/windpower/pkg/util"
	"github.com/ja7ad/windpower/pkg/wind"
)

// Model selects the extrapolation law.
type Model int

const (
	PowerLaw Model = iota
	Logarithmic
)

func (m Model) String() string {
	switch m {
	case PowerLaw:
		return "power_law"
	case Logarithmic:
		return "logarithmic"
	default:
		return fmt.Sprintf("model(%d)", int(m))
	}
}

// ParseModel accepts "power_law"/"power" and "logarithmic"/"log".
func ParseModel(s string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "power_law", "power", "hellmann":
		return PowerLaw, nil
	case "logarithmic", "log", "log_law":
		return Logarithmic, nil
	default:
		return 0, fmt.Errorf("%w: extrapolation model %q", wind.ErrUnknownModel, s)
	}
}

// MarshalText renders the model name for config and JSON output.
func (m Model) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText parses a model name.
func (m *Model) UnmarshalText(b []byte) error {
	v, err := ParseModel(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Extrapolate converts vRef measured at hRef to the speed at h.
func Extrapolate(vRef, hRef, h float64, model Model, terrain wind.Terrain) (float64, error) {
	if !util.Finite(vRef) || vRef < 0 {
		return 0, fmt.Errorf("%w: reference speed %v m/s", wind.ErrDomain, vRef)
	}
	if !(hRef > 0) || !(h > 0) {
		return 0, fmt.Errorf("%w: heights must be > 0 (ref %v m, target %v m)", wind.ErrDomain, hRef, h)
	}

	switch model {
	case PowerLaw:
		n := terrain.Exponent
		if !(n > 0 && n < 1) {
			return 0, fmt.Errorf("%w: power-law exponent %v not in (0,1)", wind.ErrDomain, n)
		}
		return vRef * math.Pow(h/hRef, n), nil

	case Logarithmic:
		z0 := terrain.RoughnessLength
		if !(z0 > 0) {
			return 0, fmt.Errorf("%w: roughness length %v m must be > 0", wind.ErrDomain, z0)
		}
		if h <= z0 {
			return 0, fmt.Errorf("%w: target height %.4f m <= roughness length %.4f m", wind.ErrDomain, h, z0)
		}
		if hRef <= z0 {
			return 0, fmt.Errorf("%w: reference height %.4f m <= roughness length %.4f m", wind.ErrDomain, hRef, z0)
		}
		return vRef * math.Log(h/z0) / math.Log(hRef/z0), nil

	default:
		return 0, fmt.Errorf("%w: extrapolation model %v", wind.ErrUnknownModel, model)
	}
}

// Point is one height of a profile.
type Point struct {
	Height float64 `json:"height_m"`
	Speed  float64 `json:"speed_ms"`
}

// Profile extrapolates vRef to every height. It fails as a whole if any
// height is outside the law's domain.
func Profile(vRef, hRef float64, heights []float64, model Model, terrain wind.Terrain) ([]Point, error) {
	out := make([]Point, len(heights))
	for i, h := range heights {
		v, err := Extrapolate(vRef, hRef, h, model, terrain)
		if err != nil {
			return nil, fmt.Errorf("height %d (%v m): %w", i, h, err)
		}
		out[i] = Point{Height: h, Speed: v}
	}
	return out, nil
}

// Heights builds an inclusive grid from..to with the given step.
func Heights(from, to, step float64) ([]float64, error) {
	if !(from > 0) || !(step > 0) || to < from {
		return nil, fmt.Errorf("%w: height grid from=%v to=%v step=%v", wind.ErrInvalidParameter, from, to, step)
	}
	n := int(math.Floor((to-from)/step+1e-9)) + 1
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, from+float64(i)*step)
	}
	return out, nil
}
