package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/windpower/pkg/analysis"
	"github.com/ja7ad/windpower/pkg/operation"
	"github.com/ja7ad/windpower/pkg/profile"
	"github.com/ja7ad/windpower/pkg/turbine"
	"github.com/ja7ad/windpower/pkg/weibull"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRun(id, turbineName string, created time.Time) Run {
	k, c := 2.1, 7.4
	return Run{
		ID:              id,
		CreatedAt:       created,
		Source:          "mast-1.csv",
		Turbine:         turbineName,
		RatedPowerKW:    24,
		HubHeightM:      30,
		Model:           "power_law",
		PowerModel:      "ramp",
		Samples:         144,
		Elapsed:         24 * time.Hour,
		EnergyKWh:       210.5,
		MeanPowerKW:     8.77,
		PeakPowerKW:     24,
		CapacityFactor:  0.365,
		AnnualEnergyKWh: 76825,
		WeibullShape:    &k,
		WeibullScale:    &c,
		TimeInState:     map[string]float64{"stopped": 0.1, "mppt": 0.6, "rated": 0.3},
	}
}

func TestStore_SaveAndGet(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 12, 0, 0, 500, time.UTC)

	in := sampleRun("run-1", "reference-24kw", created)
	require.NoError(t, s.SaveRun(ctx, in))

	got, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, in.EnergyKWh, got.EnergyKWh)
	assert.Equal(t, in.Elapsed, got.Elapsed)
	require.NotNil(t, got.WeibullShape)
	assert.Equal(t, 2.1, *got.WeibullShape)
	assert.Nil(t, got.AnalyticAEPKWh)
	assert.Equal(t, in.TimeInState, got.TimeInState)

	_, err = s.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, s.SaveRun(ctx, in), "duplicate id")
	assert.Error(t, s.SaveRun(ctx, Run{}))
}

func TestStore_ListRuns(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveRun(ctx, sampleRun("a", "small", base)))
	require.NoError(t, s.SaveRun(ctx, sampleRun("b", "large", base.Add(time.Hour))))
	require.NoError(t, s.SaveRun(ctx, sampleRun("c", "small", base.Add(2*time.Hour))))

	all, err := s.ListRuns(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].ID, all[1].ID, all[2].ID})

	small, err := s.ListRuns(ctx, Filter{Turbine: "small", Limit: 1})
	require.NoError(t, err)
	require.Len(t, small, 1)
	assert.Equal(t, "c", small[0].ID)

	since := base.Add(30 * time.Minute)
	recent, err := s.ListRuns(ctx, Filter{Since: &since})
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	n, err := s.DeleteBefore(ctx, base.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	left, err := s.ListRuns(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "c", left[0].ID)
}

func TestFromResult(t *testing.T) {
	res := analysis.Result{
		RunID:     "r",
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Turbine:   turbine.Reference(),
		HubHeight: 30,
		Model:     profile.Logarithmic,
		Power:     analysis.PowerTracking,
		Weibull:   &weibull.Distribution{Shape: 2, Scale: 8},
		Summary: operation.Summary{
			Samples:        10,
			TotalEnergyKWh: 5,
			TimeInState:    map[operation.State]float64{operation.MPPT: 0.75, operation.CutOut: 0.25},
		},
		Analytic: &operation.Yield{AnnualEnergyKWh: 50000},
	}

	r := FromResult(res, "obs.csv")
	assert.Equal(t, "reference-24kw", r.Turbine)
	assert.Equal(t, "logarithmic", r.Model)
	assert.Equal(t, "mppt", r.PowerModel)
	assert.Equal(t, 24.0, r.RatedPowerKW)
	assert.Equal(t, map[string]float64{"mppt": 0.75, "cut_out": 0.25}, r.TimeInState)
	require.NotNil(t, r.WeibullScale)
	assert.Equal(t, 8.0, *r.WeibullScale)
	require.NotNil(t, r.AnalyticAEPKWh)
	assert.Equal(t, 50000.0, *r.AnalyticAEPKWh)
}
