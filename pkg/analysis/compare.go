package analysis

import (
	"cmp"
	"context"
	"fmt"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/ja7ad/windpower/pkg/turbine"
	"github.com/ja7ad/windpower/pkg/wind"
)

// CompareTurbines analyzes the same observations for several turbines in
// parallel. Results are returned in the order of specs; the first failure
// cancels the remaining work and is returned.
func (e *Engine) CompareTurbines(ctx context.Context, obs []wind.Observation, specs []turbine.Spec) ([]Result, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: no turbines to compare", wind.ErrEmptySeries)
	}

	out := make([]Result, len(specs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, spec := range specs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := e.Run(obs, spec)
			if err != nil {
				return fmt.Errorf("turbine %d (%s): %w", i, spec.Name, err)
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Ranking orders results by descending capacity factor.
type Ranking struct {
	Name           string  `json:"name"`
	CapacityFactor float64 `json:"capacity_factor"`
	EnergyKWh      float64 `json:"energy_kwh"`
	AnnualKWh      float64 `json:"annual_energy_kwh"`
}

// Rank summarizes and sorts compared results, best first.
func Rank(results []Result) []Ranking {
	out := make([]Ranking, len(results))
	for i, r := range results {
		out[i] = Ranking{
			Name:           r.Turbine.Name,
			CapacityFactor: r.Summary.CapacityFactor,
			EnergyKWh:      r.Summary.TotalEnergyKWh,
			AnnualKWh:      r.Summary.AnnualEnergyKWh,
		}
	}
	slices.SortStableFunc(out, func(a, b Ranking) int {
		return cmp.Compare(b.CapacityFactor, a.CapacityFactor)
	})
	return out
}
