package turbulence

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ja7ad/windpower/pkg/wind"
)

// DefaultInterval is the default sampling interval in seconds.
const DefaultInterval = 0.04

// Config parameterizes one synthesis run.
// Units:
//   - MeanSpeed: m/s, > 0
//   - Height: m, > 0
//   - TurbulenceCoefficient: K_p, > 0
//   - IntervalSec: s, > 0
//   - WaveAmplitude: m/s; nil means min(2, 0.2·v̄)
//   - WavePeriodSec: s; 0 means one cycle over the run
type Config struct {
	MeanSpeed             float64
	Height                float64
	TurbulenceCoefficient float64
	IntervalSec           float64
	Samples               int
	Start                 time.Time
	WaveAmplitude         *float64
	WavePeriodSec         float64
	Seed                  *int64
}

// Sample is one synthesized point. Speed is the sum of the components,
// floored at 0 m/s.
type Sample struct {
	Timestamp  time.Time `json:"timestamp"`
	Speed      float64   `json:"speed_ms"`
	Mean       float64   `json:"mean_ms"`
	Wave       float64   `json:"wave_ms"`
	Turbulence float64   `json:"turbulence_ms"`
}

// Synthesizer holds the validated configuration and the filter built for it.
type Synthesizer struct {
	cfg    Config
	filter *Filter
	amp    float64
	period float64
}

// New validates cfg and builds the shaping filter.
func New(cfg Config) (*Synthesizer, error) {
	if cfg.Samples <= 0 {
		return nil, fmt.Errorf("%w: sample count %d must be > 0", wind.ErrInvalidParameter, cfg.Samples)
	}
	f, err := NewFilter(cfg.MeanSpeed, cfg.Height, cfg.TurbulenceCoefficient, cfg.IntervalSec)
	if err != nil {
		return nil, err
	}

	s := &Synthesizer{cfg: cfg, filter: f}

	s.amp = math.Min(2, 0.2*cfg.MeanSpeed)
	if cfg.WaveAmplitude != nil {
		if *cfg.WaveAmplitude < 0 {
			return nil, fmt.Errorf("%w: wave amplitude %v m/s must be >= 0", wind.ErrInvalidParameter, *cfg.WaveAmplitude)
		}
		s.amp = *cfg.WaveAmplitude
	}

	switch {
	case cfg.WavePeriodSec < 0:
		return nil, fmt.Errorf("%w: wave period %v s must be >= 0", wind.ErrInvalidParameter, cfg.WavePeriodSec)
	case cfg.WavePeriodSec > 0:
		s.period = cfg.WavePeriodSec
	default:
		s.period = float64(cfg.Samples) * cfg.IntervalSec
	}
	return s, nil
}

// Filter exposes the shaping filter.
func (s *Synthesizer) Filter() *Filter { return s.filter }

// WaveAmplitude is the amplitude in use, m/s.
func (s *Synthesizer) WaveAmplitude() float64 { return s.amp }

// Stream starts a new run. Streams are independent of each other.
func (s *Synthesizer) Stream() *Stream {
	var seed int64
	if s.cfg.Seed != nil {
		seed = *s.cfg.Seed
	} else {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	st := &Stream{s: s, rng: rng}
	st.phase = rng.Float64() * 2 * math.Pi
	st.state = s.filter.Stationary(rng)
	return st
}

// Synthesize materializes Config.Samples samples of a fresh run.
func (s *Synthesizer) Synthesize() Series {
	st := s.Stream()
	out := Series{
		Samples:     make([]Sample, s.cfg.Samples),
		Phase:       st.phase,
		Target:      s.filter.StdDev(),
		IntervalSec: s.cfg.IntervalSec,
	}
	for i := range out.Samples {
		out.Samples[i] = st.Next()
	}
	return out
}

// Stream is a resumable run.
type Stream struct {
	s     *Synthesizer
	rng   *rand.Rand
	phase float64
	state FilterState
	n     int
}

// Next advances one sample.
func (st *Stream) Next() Sample {
	cfg := st.s.cfg
	t := float64(st.n) * cfg.IntervalSec

	wave := st.s.amp * math.Sin(2*math.Pi*t/st.s.period+st.phase)
	turb := st.s.filter.Step(&st.state, st.rng.NormFloat64())
	speed := math.Max(cfg.MeanSpeed+wave+turb, 0)

	smp := Sample{
		Timestamp:  cfg.Start.Add(time.Duration(t * float64(time.Second))),
		Speed:      speed,
		Mean:       cfg.MeanSpeed,
		Wave:       wave,
		Turbulence: turb,
	}
	st.n++
	return smp
}

// State is the current filter state.
func (st *Stream) State() FilterState { return st.state }

// Phase is the wave phase drawn for this run.
func (st *Stream) Phase() float64 { return st.phase }

// Index is the number of samples emitted so far.
func (st *Stream) Index() int { return st.n }

// Series is a materialized run.
type Series struct {
	Samples     []Sample `json:"samples"`
	Phase       float64  `json:"phase"`
	Target      float64  `json:"target_std_ms"`
	IntervalSec float64  `json:"interval_sec"`
}

// Speeds returns the total speed column.
func (s Series) Speeds() []float64 {
	out := make([]float64, len(s.Samples))
	for i, x := range s.Samples {
		out[i] = x.Speed
	}
	return out
}

// TurbulenceComponent returns the v_turb column.
func (s Series) TurbulenceComponent() []float64 {
	out := make([]float64, len(s.Samples))
	for i, x := range s.Samples {
		out[i] = x.Turbulence
	}
	return out
}

// Observations converts the series into observations at height h.
func (s Series) Observations(h float64, source string) []wind.Observation {
	out := make([]wind.Observation, len(s.Samples))
	for i, x := range s.Samples {
		out[i] = wind.Observation{Timestamp: x.Timestamp, Speed: x.Speed, Height: h, SourceID: source}
	}
	return out
}

// Stats summarizes the speed and turbulence columns.
type Stats struct {
	MeanSpeed     float64 `json:"mean_speed_ms"`
	StdSpeed      float64 `json:"std_speed_ms"`
	MinSpeed      float64 `json:"min_speed_ms"`
	MaxSpeed      float64 `json:"max_speed_ms"`
	StdTurbulence float64 `json:"std_turbulence_ms"`
	Intensity     float64 `json:"turbulence_intensity"`
}

// Stats computes column statistics; the zero value for an empty series.
func (s Series) Stats() Stats {
	if len(s.Samples) == 0 {
		return Stats{}
	}
	sp := s.Speeds()
	st := Stats{MeanSpeed: stat.Mean(sp, nil), MinSpeed: sp[0], MaxSpeed: sp[0]}
	for _, v := range sp {
		st.MinSpeed = math.Min(st.MinSpeed, v)
		st.MaxSpeed = math.Max(st.MaxSpeed, v)
	}
	if len(sp) > 1 {
		st.StdSpeed = stat.StdDev(sp, nil)
		st.StdTurbulence = stat.StdDev(s.TurbulenceComponent(), nil)
	}
	if st.MeanSpeed > 0 {
		st.Intensity = st.StdSpeed / st.MeanSpeed
	}
	return st
}
