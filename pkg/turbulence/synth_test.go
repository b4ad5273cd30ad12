package turbulence

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/ja7ad/windpower/pkg/wind"
)

func seed(v int64) *int64 { return &v }
func amp(v float64) *float64 { return &v }

func baseConfig() Config {
	return Config{
		MeanSpeed:             8,
		Height:                10,
		TurbulenceCoefficient: 0.263,
		IntervalSec:           DefaultInterval,
		Samples:               5000,
		Start:                 time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Seed:                  seed(42),
	}
}

func TestSynthesize_DeterministicWithSeed(t *testing.T) {
	s, err := New(baseConfig())
	require.NoError(t, err)

	a := s.Synthesize()
	b := s.Synthesize()
	require.Len(t, a.Samples, 5000)
	assert.Equal(t, a.Samples, b.Samples)
	assert.Equal(t, a.Phase, b.Phase)

	cfg := baseConfig()
	cfg.Seed = seed(43)
	other, err := New(cfg)
	require.NoError(t, err)
	c := other.Synthesize()
	assert.NotEqual(t, a.Samples[10].Speed, c.Samples[10].Speed)
}

func TestSynthesize_TurbulenceStdConverges(t *testing.T) {
	cfg := Config{
		MeanSpeed:             10,
		Height:                1,
		TurbulenceCoefficient: 0.2,
		IntervalSec:           0.1,
		Samples:               200000,
		Seed:                  seed(2024),
		WaveAmplitude:         amp(0),
	}
	s, err := New(cfg)
	require.NoError(t, err)

	series := s.Synthesize()
	sd := stat.StdDev(series.TurbulenceComponent(), nil)
	t.Logf("target std=%.4f sample std=%.4f over %d samples", series.Target, sd, len(series.Samples))
	assert.InDelta(t, 2.0, series.Target, 1e-9)
	assert.InDelta(t, 2.0, sd, 0.06)

	st := series.Stats()
	assert.InDelta(t, sd, st.StdTurbulence, 1e-9)
	assert.InDelta(t, 10, st.MeanSpeed, 0.1)
}

func TestSynthesize_ComponentsAndTimestamps(t *testing.T) {
	cfg := baseConfig()
	s, err := New(cfg)
	require.NoError(t, err)
	series := s.Synthesize()

	a := s.WaveAmplitude()
	assert.InDelta(t, math.Min(2, 0.2*cfg.MeanSpeed), a, 1e-12)

	for i, smp := range series.Samples {
		assert.LessOrEqual(t, math.Abs(smp.Wave), a+1e-12)
		assert.Equal(t, cfg.MeanSpeed, smp.Mean)
		assert.GreaterOrEqual(t, smp.Speed, 0.0)
		assert.InDelta(t, math.Max(smp.Mean+smp.Wave+smp.Turbulence, 0), smp.Speed, 1e-12)
		wantTS := cfg.Start.Add(time.Duration(float64(i) * cfg.IntervalSec * float64(time.Second)))
		assert.True(t, wantTS.Equal(smp.Timestamp), "i=%d", i)
	}
}

func TestSynthesize_NeverNegativeOnRoughLowWind(t *testing.T) {
	cfg := baseConfig()
	cfg.MeanSpeed = 1.5
	cfg.TurbulenceCoefficient = 0.434
	cfg.Samples = 20000
	s, err := New(cfg)
	require.NoError(t, err)

	for _, v := range s.Synthesize().Speeds() {
		require.GreaterOrEqual(t, v, 0.0)
	}
}

func TestStream_ResumableStepByStep(t *testing.T) {
	s, err := New(baseConfig())
	require.NoError(t, err)
	full := s.Synthesize()

	st := s.Stream()
	assert.Equal(t, full.Phase, st.Phase())
	for i := 0; i < 100; i++ {
		before := st.State()
		smp := st.Next()
		require.Equal(t, full.Samples[i], smp, "i=%d", i)
		// the state advances with each sample
		assert.NotEqual(t, before, st.State())
	}
	assert.Equal(t, 100, st.Index())
}

func TestSynthesize_WaveSettings(t *testing.T) {
	cfg := baseConfig()
	cfg.WaveAmplitude = amp(0.5)
	cfg.WavePeriodSec = 10
	s, err := New(cfg)
	require.NoError(t, err)
	series := s.Synthesize()

	// the wave repeats every 10 s = 250 samples
	for i := 0; i+250 < len(series.Samples); i += 97 {
		assert.InDelta(t, series.Samples[i].Wave, series.Samples[i+250].Wave, 1e-9)
	}
}

func TestNew_InvalidParameters(t *testing.T) {
	mut := []func(*Config){
		func(c *Config) { c.MeanSpeed = 0 },
		func(c *Config) { c.Height = -1 },
		func(c *Config) { c.IntervalSec = 0 },
		func(c *Config) { c.TurbulenceCoefficient = -0.1 },
		func(c *Config) { c.Samples = 0 },
		func(c *Config) { c.WaveAmplitude = amp(-1) },
		func(c *Config) { c.WavePeriodSec = -5 },
	}
	for i, m := range mut {
		cfg := baseConfig()
		m(&cfg)
		_, err := New(cfg)
		require.Error(t, err, "case %d", i)
		assert.True(t, errors.Is(err, wind.ErrInvalidParameter), "case %d: %v", i, err)
	}
}

func TestSeries_Observations(t *testing.T) {
	cfg := baseConfig()
	cfg.Samples = 10
	s, err := New(cfg)
	require.NoError(t, err)
	series := s.Synthesize()

	obs := series.Observations(80, "synthetic")
	require.Len(t, obs, 10)
	for i, o := range obs {
		require.NoError(t, o.Validate())
		assert.Equal(t, 80.0, o.Height)
		assert.Equal(t, series.Samples[i].Speed, o.Speed)
		assert.Equal(t, "synthetic", o.SourceID)
	}
}

func TestSeries_StatsEmptyAndSingle(t *testing.T) {
	assert.Equal(t, Stats{}, Series{}.Stats())

	one := Series{Samples: []Sample{{Speed: 4, Turbulence: 0.1}}}
	st := one.Stats()
	assert.Equal(t, 4.0, st.MeanSpeed)
	assert.Equal(t, 0.0, st.StdSpeed)
}
