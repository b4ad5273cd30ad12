package profile

import (
	"fmt"
	"math"

	"github.com/ja7ad/windpower/pkg/util"
	"github.com/ja7ad/windpower/pkg/wind"
)

// Row compares both laws at one height. DifferencePct is relative to the
// power law value.
type Row struct {
	Height        float64 `json:"height_m"`
	PowerLaw      float64 `json:"power_law_ms"`
	Logarithmic   float64 `json:"logarithmic_ms"`
	Difference    float64 `json:"difference_ms"`
	DifferencePct float64 `json:"difference_pct"`
}

// Comparison is the side-by-side profile of both laws.
type Comparison struct {
	Rows []Row `json:"rows"`

	// Intersection is the grid row where the two laws are closest.
	Intersection Row `json:"intersection"`
}

// Compare evaluates both laws on the same heights.
func Compare(vRef, hRef float64, heights []float64, terrain wind.Terrain) (Comparison, error) {
	if len(heights) == 0 {
		return Comparison{}, fmt.Errorf("%w: no heights to compare", wind.ErrInvalidParameter)
	}
	pl, err := Profile(vRef, hRef, heights, PowerLaw, terrain)
	if err != nil {
		return Comparison{}, fmt.Errorf("power law: %w", err)
	}
	ll, err := Profile(vRef, hRef, heights, Logarithmic, terrain)
	if err != nil {
		return Comparison{}, fmt.Errorf("log law: %w", err)
	}

	c := Comparison{Rows: make([]Row, len(heights))}
	best := math.Inf(1)
	for i := range heights {
		d := pl[i].Speed - ll[i].Speed
		c.Rows[i] = Row{
			Height:        heights[i],
			PowerLaw:      pl[i].Speed,
			Logarithmic:   ll[i].Speed,
			Difference:    d,
			DifferencePct: 100 * util.SafeDiv(d, pl[i].Speed),
		}
		if math.Abs(d) < best {
			best = math.Abs(d)
			c.Intersection = c.Rows[i]
		}
	}
	return c, nil
}

// Every keeps the rows whose height is a multiple of step (e.g. every 10 m).
func (c Comparison) Every(step float64) []Row {
	if !(step > 0) {
		return c.Rows
	}
	var out []Row
	for _, r := range c.Rows {
		q := r.Height / step
		if math.Abs(q-math.Round(q)) < 1e-9 {
			out = append(out, r)
		}
	}
	return out
}
