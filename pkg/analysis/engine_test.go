package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/windpower/pkg/aero"
	"github.com/ja7ad/windpower/pkg/operation"
	"github.com/ja7ad/windpower/pkg/profile"
	"github.com/ja7ad/windpower/pkg/turbine"
	"github.com/ja7ad/windpower/pkg/weibull"
	"github.com/ja7ad/windpower/pkg/wind"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func seed(v int64) *int64 { return &v }

func constantObs(v, h float64, n int) []wind.Observation {
	out := make([]wind.Observation, n)
	for i := range out {
		out[i] = wind.Observation{Timestamp: start.Add(time.Duration(i) * time.Hour), Speed: v, Height: h}
	}
	return out
}

func weibullObs(t *testing.T, n int, h float64) []wind.Observation {
	t.Helper()
	d := weibull.Distribution{Shape: 2, Scale: 5}
	rng := rand.New(rand.NewSource(99))
	out := make([]wind.Observation, n)
	for i := range out {
		out[i] = wind.Observation{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Speed:     d.Quantile(rng.Float64()),
			Height:    h,
			SourceID:  "mast-1",
		}
	}
	return out
}

func testOptions() Options {
	o := DefaultOptions()
	o.Seed = seed(7)
	o.SynthesisDuration = 60
	return o
}

func TestRun_ConstantRatedWind(t *testing.T) {
	e, err := New(testOptions())
	require.NoError(t, err)

	res, err := e.Run(constantObs(9.0, 30, 24), turbine.Reference())
	require.NoError(t, err)

	require.Len(t, res.Records, 24)
	for _, r := range res.Records {
		assert.Equal(t, operation.Rated, r.State)
		assert.Equal(t, 24.0, r.Power)
	}
	assert.InDelta(t, 1.0, res.Summary.CapacityFactor, 1e-12)
	assert.InDelta(t, 24.0*23, res.Summary.TotalEnergyKWh, 1e-9)

	// zero variance: no weibull characterization, but the run succeeds
	assert.Nil(t, res.Weibull)
	assert.Nil(t, res.Analytic)
	assert.NotEmpty(t, res.Notes)

	require.NotNil(t, res.Synthetic)
	assert.Len(t, res.Synthetic.Series.Samples, 1500)
	assert.NotEmpty(t, res.RunID)
}

func TestRun_ConstantCalm(t *testing.T) {
	e, err := New(testOptions())
	require.NoError(t, err)

	res, err := e.Run(constantObs(1.0, 30, 6), turbine.Reference())
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Summary.TotalEnergyKWh)
	assert.InDelta(t, 1.0, res.Summary.TimeInState[operation.Stopped], 1e-12)
}

func TestRun_ExtrapolatesToHubHeight(t *testing.T) {
	o := testOptions()
	o.HubHeight = 100
	o.SynthesisDuration = 0
	e, err := New(o)
	require.NoError(t, err)

	res, err := e.Run(constantObs(2.7, 10, 3), turbine.Reference())
	require.NoError(t, err)
	assert.Equal(t, 100.0, res.HubHeight)
	for _, v := range res.HubSpeeds {
		assert.InDelta(t, 4.48, v, 0.005)
	}
	assert.Nil(t, res.Synthetic)

	require.NotNil(t, res.Profile)
	assert.Equal(t, 10.0, res.Profile.Intersection.Height)
}

func TestRun_LogLawMixedHeights(t *testing.T) {
	o := testOptions()
	o.Extrapolation = profile.Logarithmic
	o.HubHeight = 50
	e, err := New(o)
	require.NoError(t, err)

	obs := []wind.Observation{
		{Timestamp: start, Speed: 5, Height: 10},
		{Timestamp: start.Add(time.Hour), Speed: 5, Height: 50},
	}
	res, err := e.Run(obs, turbine.Reference())
	require.NoError(t, err)
	assert.Greater(t, res.HubSpeeds[0], 5.0)
	assert.InDelta(t, 5.0, res.HubSpeeds[1], 1e-12)
}

func TestRun_WeibullAndAnalyticYield(t *testing.T) {
	e, err := New(testOptions())
	require.NoError(t, err)

	res, err := e.Run(weibullObs(t, 2000, 30), turbine.Reference())
	require.NoError(t, err)
	require.NotNil(t, res.Weibull)
	require.NotNil(t, res.Analytic)

	assert.InDelta(t, 2.0, res.Weibull.Shape, 0.2)
	assert.InDelta(t, 5.0, res.Weibull.Scale, 0.3)

	// the long-run expectation and the series estimate describe the same site
	t.Logf("series cf=%.4f analytic cf=%.4f", res.Summary.CapacityFactor, res.Analytic.CapacityFactor)
	assert.InDelta(t, res.Summary.CapacityFactor, res.Analytic.CapacityFactor, 0.03)

	total := 0.0
	for _, f := range res.Summary.TimeInState {
		total += f
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestRun_AnalyticYieldMostlyCalm(t *testing.T) {
	o := testOptions()
	o.SynthesisDuration = 0
	e, err := New(o)
	require.NoError(t, err)

	obs := constantObs(0, 30, 10)
	obs[8].Speed, obs[9].Speed = 10, 12

	res, err := e.Run(obs, turbine.Reference())
	require.NoError(t, err)
	require.NotNil(t, res.Weibull)
	require.Less(t, res.Weibull.Shape, 1.0)
	require.NotNil(t, res.Analytic)
	assert.Empty(t, res.Notes)

	assert.False(t, math.IsNaN(res.Analytic.CapacityFactor))
	assert.Greater(t, res.Analytic.CapacityFactor, 0.0)
	assert.Less(t, res.Analytic.CapacityFactor, 1.0)

	_, err = json.Marshal(res.Analytic)
	require.NoError(t, err)
	_, err = json.Marshal(res.Summary)
	require.NoError(t, err)
}

func TestRun_PowerModels(t *testing.T) {
	obs := weibullObs(t, 500, 30)
	cfs := map[PowerModel]float64{}
	for _, pm := range []PowerModel{PowerRamp, PowerFixed, PowerTracking} {
		o := testOptions()
		o.PowerModel = pm
		o.SynthesisDuration = 0
		e, err := New(o)
		require.NoError(t, err)
		res, err := e.Run(obs, turbine.Reference())
		require.NoError(t, err, "model=%s", pm)
		cfs[pm] = res.Summary.CapacityFactor
		assert.LessOrEqual(t, res.Summary.CapacityFactor, 1.0)
	}
	t.Logf("capacity factors: %v", cfs)
	// optimal tip-speed tracking extracts at least what a fixed rotor does
	assert.GreaterOrEqual(t, cfs[PowerTracking]+1e-12, cfs[PowerFixed])
}

func TestRun_TrackingSmoothing(t *testing.T) {
	o := testOptions()
	o.PowerModel = PowerTracking
	o.TrackingSmoothing = 0.2
	e, err := New(o)
	require.NoError(t, err)

	res, err := e.Run(weibullObs(t, 200, 30), turbine.Reference())
	require.NoError(t, err)
	assert.Greater(t, res.Summary.TotalEnergyKWh, 0.0)
	require.NotNil(t, res.Synthetic)
}

func TestRun_WeatherTurbulence(t *testing.T) {
	obs := constantObs(10, 30, 24)
	for i := range obs {
		temp, rh := 30.0, 30.0
		obs[i].Temperature, obs[i].Humidity = &temp, &rh
	}

	run := func(weather bool) *SyntheticResult {
		o := testOptions()
		o.WeatherTurbulence = weather
		e, err := New(o)
		require.NoError(t, err)
		res, err := e.Run(obs, turbine.Reference())
		require.NoError(t, err)
		require.NotNil(t, res.Synthetic)
		return res.Synthetic
	}
	plain, warm := run(false), run(true)

	assert.Equal(t, 1.0, plain.TurbulenceFactor)
	assert.InDelta(t, 1.3, warm.TurbulenceFactor, 1e-12)
	// same seed, same noise: the turbulence component scales with K_p
	assert.InDelta(t, 1.3, warm.Stats.StdTurbulence/plain.Stats.StdTurbulence, 1e-6)
}

func TestRun_FixedNeedsRotorSpeed(t *testing.T) {
	o := testOptions()
	o.PowerModel = PowerFixed
	e, err := New(o)
	require.NoError(t, err)

	spec := turbine.Reference()
	spec.RatedRotorSpeedRPM = 0
	_, err = e.Run(constantObs(5, 30, 4), spec)
	require.Error(t, err)
	assert.True(t, errors.Is(err, wind.ErrInvalidParameter))
}

func TestRun_DeterministicSynthesis(t *testing.T) {
	e, err := New(testOptions())
	require.NoError(t, err)
	obs := weibullObs(t, 48, 30)

	a, err := e.Run(obs, turbine.Reference())
	require.NoError(t, err)
	b, err := e.Run(obs, turbine.Reference())
	require.NoError(t, err)
	require.NotNil(t, a.Synthetic)
	assert.Equal(t, a.Synthetic.Series.Samples, b.Synthetic.Series.Samples)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestRun_Errors(t *testing.T) {
	e, err := New(testOptions())
	require.NoError(t, err)

	_, err = e.Run(nil, turbine.Reference())
	assert.True(t, errors.Is(err, wind.ErrEmptySeries))

	_, err = e.Run([]wind.Observation{{Timestamp: start, Speed: -1, Height: 10}}, turbine.Reference())
	assert.True(t, errors.Is(err, wind.ErrDomain))

	bad := turbine.Reference()
	bad.CutIn = 10
	_, err = e.Run(constantObs(5, 30, 3), bad)
	assert.True(t, errors.Is(err, wind.ErrInvalidParameter))

	o := testOptions()
	o.Extrapolation = profile.Logarithmic
	o.HubHeight = 0.1
	e, err = New(o)
	require.NoError(t, err)
	_, err = e.Run(constantObs(5, 30, 3), turbine.Reference())
	assert.True(t, errors.Is(err, wind.ErrDomain))
}

func TestRun_EfficiencyOverride(t *testing.T) {
	o := testOptions()
	v := aero.VariableSpeed
	o.Efficiency = &v
	e, err := New(o)
	require.NoError(t, err)

	res, err := e.Run(constantObs(5, 30, 3), turbine.Reference())
	require.NoError(t, err)
	assert.Equal(t, aero.VariableSpeed, res.Turbine.Efficiency)
}

func TestNew_Errors(t *testing.T) {
	o := testOptions()
	o.Terrain = "glacier"
	_, err := New(o)
	assert.True(t, errors.Is(err, wind.ErrUnknownModel))

	o = testOptions()
	o.SamplingInterval = 0
	_, err = New(o)
	assert.True(t, errors.Is(err, wind.ErrInvalidParameter))

	o = testOptions()
	o.PowerModel = "turbo"
	_, err = New(o)
	assert.True(t, errors.Is(err, wind.ErrUnknownModel))

	o = testOptions()
	o.TrackingSmoothing = 0
	_, err = New(o)
	assert.True(t, errors.Is(err, wind.ErrInvalidParameter))

	o = testOptions()
	bad := aero.Variant(12)
	o.Efficiency = &bad
	_, err = New(o)
	assert.True(t, errors.Is(err, wind.ErrUnknownModel))
}

func TestNew_InjectedTerrains(t *testing.T) {
	tab, err := wind.NewTerrains(map[wind.TerrainClass]wind.Terrain{
		"test_site": {Exponent: 0.3, RoughnessLength: 0.5, TurbulenceCoefficient: 0.3},
	})
	require.NoError(t, err)

	o := testOptions()
	o.Terrain = "test_site"
	o.HubHeight = 80
	e, err := New(o, WithTerrains(tab), WithAeroTable(aero.DefaultTable()))
	require.NoError(t, err)

	res, err := e.Run(constantObs(4, 20, 2), turbine.Reference())
	require.NoError(t, err)
	assert.InDelta(t, 0.3, res.Terrain.Exponent, 1e-12)
	assert.InDelta(t, 4*math.Pow(80.0/20, 0.3), res.HubSpeeds[0], 1e-12)

	_, err = New(testOptions(), WithTerrains(tab))
	assert.True(t, errors.Is(err, wind.ErrUnknownModel))
}

func TestParsePowerModel(t *testing.T) {
	for in, want := range map[string]PowerModel{"": PowerRamp, "Ramp": PowerRamp, "fixed": PowerFixed, "tracking": PowerTracking, "mppt": PowerTracking} {
		got, err := ParsePowerModel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParsePowerModel("x")
	assert.True(t, errors.Is(err, wind.ErrUnknownModel))
}

func TestCompareTurbines(t *testing.T) {
	e, err := New(testOptions())
	require.NoError(t, err)

	small := turbine.Reference()
	big := turbine.Reference()
	big.Name = "low-wind"
	big.Rated = 7
	big.CutIn = 2

	obs := weibullObs(t, 300, 30)
	res, err := e.CompareTurbines(context.Background(), obs, []turbine.Spec{small, big})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, small.Name, res[0].Turbine.Name)
	assert.Equal(t, "low-wind", res[1].Turbine.Name)

	rank := Rank(res)
	assert.Equal(t, "low-wind", rank[0].Name)
	assert.GreaterOrEqual(t, rank[0].CapacityFactor, rank[1].CapacityFactor)

	bad := turbine.Reference()
	bad.RatedPower = 0
	_, err = e.CompareTurbines(context.Background(), obs, []turbine.Spec{small, bad})
	require.Error(t, err)
	assert.True(t, errors.Is(err, wind.ErrInvalidParameter))

	_, err = e.CompareTurbines(context.Background(), obs, nil)
	assert.True(t, errors.Is(err, wind.ErrEmptySeries))
}

func TestCompareTurbines_Cancelled(t *testing.T) {
	e, err := New(testOptions())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.CompareTurbines(ctx, constantObs(5, 30, 3), []turbine.Spec{turbine.Reference()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_Accessors(t *testing.T) {
	opts := testOptions()
	opts.AirDensity = 1.1
	opts.Pitch = 2
	opts.PowerModel = PowerTracking
	opts.Terrain = wind.Coastal

	e, err := New(opts)
	require.NoError(t, err)

	ev := e.Evaluator()
	assert.Equal(t, 1.1, ev.AirDensity())
	assert.Equal(t, 2.0, ev.Pitch())
	assert.Same(t, e.AeroModel(), ev.Model())

	tr, err := e.Terrain()
	require.NoError(t, err)
	assert.Equal(t, 0.10, tr.Exponent)

	ctrl, err := e.Control(turbine.Reference())
	require.NoError(t, err)
	tc, ok := ctrl.(turbine.TrackingControl)
	require.True(t, ok)
	assert.Nil(t, tc.Smoothing)
	assert.Greater(t, tc.Lambda, 0.0)
}
