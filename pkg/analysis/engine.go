// Package analysis runs the full wind-resource and turbine-performance
// pipeline:
//
//	observations ─► vertical profile ─► hub-height series ─┬─► Weibull fit ─► analytic yield
//	                                                        ├─► power + state ─► summary
//	                                                        └─► turbulent window ─► summary
//
// An Engine holds immutable lookup tables (terrain classes and Cp
// coefficients) and is safe for concurrent use.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/ja7ad/windpower/pkg/aero"
	"github.com/ja7ad/windpower/pkg/operation"
	"github.com/ja7ad/windpower/pkg/profile"
	"github.com/ja7ad/windpower/pkg/turbine"
	"github.com/ja7ad/windpower/pkg/turbulence"
	"github.com/ja7ad/windpower/pkg/util"
	"github.com/ja7ad/windpower/pkg/weibull"
	"github.com/ja7ad/windpower/pkg/wind"
)

// Engine runs analyses against injected lookup tables.
type Engine struct {
	opts     Options
	terrains wind.Terrains
	model    *aero.Model
}

// Option injects a dependency into the engine.
type Option func(*Engine)

// WithTerrains replaces the terrain table.
func WithTerrains(t wind.Terrains) Option { return func(e *Engine) { e.terrains = t } }

// WithAeroTable replaces the Cp coefficient table.
func WithAeroTable(t aero.Table) Option { return func(e *Engine) { e.model = aero.NewModel(t) } }

// New validates opts and builds an engine over the default tables unless
// replaced.
func New(opts Options, with ...Option) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{opts: opts, terrains: wind.DefaultTerrains(), model: aero.Default()}
	for _, w := range with {
		w(e)
	}
	if _, err := e.terrain(); err != nil {
		return nil, err
	}
	return e, nil
}

// Options returns the engine configuration.
func (e *Engine) Options() Options { return e.opts }

// Terrain resolves the configured terrain class or override.
func (e *Engine) Terrain() (wind.Terrain, error) { return e.terrain() }

// AeroModel is the Cp model built from the injected coefficient table.
func (e *Engine) AeroModel() *aero.Model { return e.model }

// Evaluator builds a power evaluator with the configured air density and pitch.
func (e *Engine) Evaluator() *turbine.Evaluator {
	return turbine.NewEvaluator(e.model, turbine.WithAirDensity(e.opts.AirDensity), turbine.WithPitch(e.opts.Pitch))
}

// Control returns the rotor control of the configured power model for spec,
// without rotor inertia.
func (e *Engine) Control(spec turbine.Spec) (turbine.Control, error) {
	return e.control(e.Evaluator(), spec, false)
}

func (e *Engine) terrain() (wind.Terrain, error) {
	if e.opts.TerrainOverride != nil {
		return *e.opts.TerrainOverride, nil
	}
	return e.terrains.Lookup(e.opts.Terrain)
}

// SyntheticResult is the turbulent window at the mean hub-height speed.
type SyntheticResult struct {
	Series  turbulence.Series  `json:"series"`
	Stats   turbulence.Stats   `json:"stats"`
	Records []operation.Record `json:"records"`
	Summary operation.Summary  `json:"summary"`

	// TurbulenceFactor is the weather scaling applied to K_p (1 when off).
	TurbulenceFactor float64 `json:"turbulence_factor"`
}

// Result is one complete analysis of one turbine.
type Result struct {
	RunID     string                `json:"run_id"`
	CreatedAt time.Time             `json:"created_at"`
	Turbine   turbine.Spec          `json:"turbine"`
	Terrain   wind.Terrain          `json:"terrain"`
	HubHeight float64               `json:"hub_height_m"`
	Model     profile.Model         `json:"extrapolation_model"`
	Power     PowerModel            `json:"power_model"`
	Profile   *profile.Comparison   `json:"profile,omitempty"`
	HubSpeeds []float64             `json:"hub_speeds_ms"`
	Weibull   *weibull.Distribution `json:"weibull,omitempty"`
	Records   []operation.Record    `json:"records"`
	Summary   operation.Summary     `json:"summary"`
	Analytic  *operation.Yield      `json:"analytic,omitempty"`
	Synthetic *SyntheticResult      `json:"synthetic,omitempty"`
	Notes     []string              `json:"notes,omitempty"`
}

// Run analyzes one turbine against a series of observations. Observations
// must be in non-decreasing time order; each is extrapolated from its own
// height to hub height.
func (e *Engine) Run(obs []wind.Observation, spec turbine.Spec) (Result, error) {
	if len(obs) == 0 {
		return Result{}, fmt.Errorf("%w: no observations", wind.ErrEmptySeries)
	}
	for i, o := range obs {
		if err := o.Validate(); err != nil {
			return Result{}, fmt.Errorf("observation %d: %w", i, err)
		}
	}
	if e.opts.Efficiency != nil {
		spec.Efficiency = *e.opts.Efficiency
	}
	if err := spec.Validate(); err != nil {
		return Result{}, fmt.Errorf("turbine %q: %w", spec.Name, err)
	}
	terrain, err := e.terrain()
	if err != nil {
		return Result{}, err
	}

	hub := e.opts.HubHeight
	if hub == 0 {
		hub = obs[0].Height
	}

	res := Result{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Turbine:   spec,
		Terrain:   terrain,
		HubHeight: hub,
		Model:     e.opts.Extrapolation,
		Power:     e.opts.PowerModel,
	}

	samples := make([]operation.Sample, len(obs))
	res.HubSpeeds = make([]float64, len(obs))
	for i, o := range obs {
		v, err := profile.Extrapolate(o.Speed, o.Height, hub, e.opts.Extrapolation, terrain)
		if err != nil {
			return Result{}, fmt.Errorf("observation %d: %w", i, err)
		}
		res.HubSpeeds[i] = v
		samples[i] = operation.Sample{Timestamp: o.Timestamp, Speed: v}
	}

	if cmp, err := e.profile(obs, terrain); err != nil {
		res.Notes = append(res.Notes, fmt.Sprintf("profile comparison skipped: %v", err))
	} else {
		res.Profile = cmp
	}

	eval := e.Evaluator()

	ctrl, err := e.control(eval, spec, true)
	if err != nil {
		return Result{}, err
	}
	res.Records, err = operation.Evaluate(samples, spec, eval, ctrl)
	if err != nil {
		return Result{}, err
	}
	res.Summary, err = operation.Summarize(res.Records, spec.RatedPower)
	if err != nil {
		return Result{}, err
	}

	dist, err := weibull.Fit(res.HubSpeeds)
	switch {
	case errors.Is(err, wind.ErrInsufficientData):
		res.Notes = append(res.Notes, fmt.Sprintf("weibull fit skipped: %v", err))
	case err != nil:
		return Result{}, err
	default:
		res.Weibull = &dist
		// the analytic integral walks a speed grid, so no rotor inertia here
		plain, err := e.control(eval, spec, false)
		if err != nil {
			return Result{}, err
		}
		y, err := operation.ExpectedYield(dist, spec, eval, plain)
		switch {
		case errors.Is(err, wind.ErrDomain):
			res.Notes = append(res.Notes, fmt.Sprintf("analytic yield skipped: %v", err))
		case err != nil:
			return Result{}, err
		default:
			res.Analytic = &y
		}
	}

	if e.opts.SynthesisDuration > 0 {
		factor := 1.0
		if e.opts.WeatherTurbulence {
			factor = wind.WeatherFactor(wind.MeanWeather(obs))
		}
		syn, err := e.synthesize(obs[0].Timestamp, hub, stat.Mean(res.HubSpeeds, nil), factor, terrain, spec, eval)
		switch {
		case errors.Is(err, wind.ErrInvalidParameter):
			res.Notes = append(res.Notes, fmt.Sprintf("synthetic window skipped: %v", err))
		case err != nil:
			return Result{}, err
		default:
			res.Synthetic = syn
		}
	}
	return res, nil
}

func (e *Engine) control(eval *turbine.Evaluator, spec turbine.Spec, inertia bool) (turbine.Control, error) {
	switch e.opts.PowerModel {
	case PowerFixed:
		if !(spec.RatedRotorSpeedRPM > 0) {
			return nil, fmt.Errorf("%w: fixed rotor speed needs rated_rotor_speed_rpm on turbine %q",
				wind.ErrInvalidParameter, spec.Name)
		}
		return turbine.FixedControl{}, nil
	case PowerTracking:
		opt, err := eval.Optimum(spec)
		if err != nil {
			return nil, err
		}
		c := turbine.TrackingControl{Lambda: opt.Lambda}
		if inertia && e.opts.TrackingSmoothing < 1 {
			c.Smoothing = util.NewEMA(e.opts.TrackingSmoothing)
		}
		return c, nil
	default:
		return turbine.RampControl{}, nil
	}
}

func (e *Engine) profile(obs []wind.Observation, terrain wind.Terrain) (*profile.Comparison, error) {
	if e.opts.ProfileTop == 0 || e.opts.ProfileStep == 0 {
		return nil, fmt.Errorf("%w: profile grid disabled", wind.ErrInvalidParameter)
	}
	ref := obs[0].Height
	var speeds []float64
	for _, o := range obs {
		if o.Height == ref {
			speeds = append(speeds, o.Speed)
		}
	}
	mean := stat.Mean(speeds, nil)

	// start above the roughness length so the log law is defined
	from := e.opts.ProfileStep
	for from <= terrain.RoughnessLength {
		from += e.opts.ProfileStep
	}
	heights, err := profile.Heights(from, math.Max(e.opts.ProfileTop, from), e.opts.ProfileStep)
	if err != nil {
		return nil, err
	}
	cmp, err := profile.Compare(mean, ref, heights, terrain)
	if err != nil {
		return nil, err
	}
	return &cmp, nil
}

func (e *Engine) synthesize(start time.Time, hub, mean, factor float64, terrain wind.Terrain, spec turbine.Spec,
	eval *turbine.Evaluator) (*SyntheticResult, error) {
	n := int(math.Round(e.opts.SynthesisDuration / e.opts.SamplingInterval))
	syn, err := turbulence.New(turbulence.Config{
		MeanSpeed:             mean,
		Height:                hub,
		TurbulenceCoefficient: terrain.TurbulenceCoefficient * factor,
		IntervalSec:           e.opts.SamplingInterval,
		Samples:               n,
		Start:                 start,
		Seed:                  e.opts.Seed,
	})
	if err != nil {
		return nil, err
	}
	series := syn.Synthesize()

	samples := make([]operation.Sample, len(series.Samples))
	for i, s := range series.Samples {
		samples[i] = operation.Sample{Timestamp: s.Timestamp, Speed: s.Speed}
	}
	ctrl, err := e.control(eval, spec, true)
	if err != nil {
		return nil, err
	}
	recs, err := operation.Evaluate(samples, spec, eval, ctrl)
	if err != nil {
		return nil, err
	}
	sum, err := operation.Summarize(recs, spec.RatedPower)
	if err != nil {
		return nil, err
	}
	return &SyntheticResult{Series: series, Stats: series.Stats(), Records: recs, Summary: sum, TurbulenceFactor: factor}, nil
}
