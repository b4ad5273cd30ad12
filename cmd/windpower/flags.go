package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ja7ad/windpower/internal/config"
	"github.com/ja7ad/windpower/internal/ingest"
	"github.com/ja7ad/windpower/pkg/aero"
	"github.com/ja7ad/windpower/pkg/turbine"
	"github.com/ja7ad/windpower/pkg/wind"
)

// analysisFlags mirror the analysis section of the config file.
type analysisFlags struct {
	model       string
	terrain     string
	efficiency  string
	interval    float64
	seed        int64
	hubHeight   float64
	airDensity  float64
	powerModel  string
	pitch       float64
	smoothing   float64
	synthesis   float64
	profileTop  float64
	profileStep float64
	weather     bool
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	d := config.Default().Analysis
	fs := cmd.Flags()
	fs.StringVar(&f.model, "model", d.ExtrapolationModel, "vertical extrapolation law (power_law, logarithmic)")
	fs.StringVar(&f.terrain, "terrain", d.Terrain, "terrain class (coastal, short_grass, low_vegetation, shrubs, trees_buildings, residential, urban)")
	fs.StringVar(&f.efficiency, "efficiency", "", "override the turbine's Cp variant (heier, raiambal, fixed_speed, variable_speed)")
	fs.Float64Var(&f.interval, "interval", d.SamplingIntervalS, "turbulence sampling interval in seconds")
	fs.Int64Var(&f.seed, "seed", 0, "turbulence random seed (default: clock)")
	fs.Float64Var(&f.hubHeight, "hub-height", d.HubHeightM, "hub height in m (0 = observation height)")
	fs.Float64Var(&f.airDensity, "air-density", d.AirDensity, "air density in kg/m³")
	fs.StringVar(&f.powerModel, "power-model", d.PowerModel, "rotor speed model (ramp, fixed, mppt)")
	fs.Float64Var(&f.pitch, "pitch", d.PitchDeg, "blade pitch angle in degrees")
	fs.Float64Var(&f.smoothing, "smoothing", d.TrackingSmoothing, "EMA alpha of the wind seen by a tracking rotor (0,1]")
	fs.Float64Var(&f.synthesis, "synthesis", d.SynthesisDurationS, "turbulent window length in seconds (0 disables)")
	fs.Float64Var(&f.profileTop, "profile-top", d.ProfileTopM, "top of the profile comparison grid in m")
	fs.Float64Var(&f.profileStep, "profile-step", d.ProfileStepM, "step of the profile comparison grid in m")
	fs.BoolVar(&f.weather, "weather-turbulence", d.WeatherTurbulence, "scale turbulence by the observed temperature and humidity")
}

func (f *analysisFlags) apply(cmd *cobra.Command, c *config.AnalysisConfig) {
	override(cmd, "model", &c.ExtrapolationModel, f.model)
	override(cmd, "terrain", &c.Terrain, f.terrain)
	override(cmd, "efficiency", &c.EfficiencyVariant, f.efficiency)
	override(cmd, "interval", &c.SamplingIntervalS, f.interval)
	override(cmd, "hub-height", &c.HubHeightM, f.hubHeight)
	override(cmd, "air-density", &c.AirDensity, f.airDensity)
	override(cmd, "power-model", &c.PowerModel, f.powerModel)
	override(cmd, "pitch", &c.PitchDeg, f.pitch)
	override(cmd, "smoothing", &c.TrackingSmoothing, f.smoothing)
	override(cmd, "synthesis", &c.SynthesisDurationS, f.synthesis)
	override(cmd, "profile-top", &c.ProfileTopM, f.profileTop)
	override(cmd, "profile-step", &c.ProfileStepM, f.profileStep)
	override(cmd, "weather-turbulence", &c.WeatherTurbulence, f.weather)
	if cmd.Flags().Changed("seed") {
		s := f.seed
		c.TurbulenceSeed = &s
	}
}

// turbineFlags override individual keys of the configured turbine.
type turbineFlags struct {
	file       string
	name       string
	cutIn      float64
	rated      float64
	cutOut     float64
	ratedPower float64
	radius     float64
	blades     int
	variant    string
	rpm        float64
	drivetrain float64
}

func (f *turbineFlags) register(cmd *cobra.Command) {
	d := turbine.Reference()
	fs := cmd.Flags()
	fs.StringVar(&f.file, "turbine", "", "turbine spec file (YAML or JSON)")
	fs.StringVar(&f.name, "turbine-name", d.Name, "turbine name")
	fs.Float64Var(&f.cutIn, "cut-in", d.CutIn, "cut-in speed in m/s")
	fs.Float64Var(&f.rated, "rated-speed", d.Rated, "rated speed in m/s")
	fs.Float64Var(&f.cutOut, "cut-out", d.CutOut, "cut-out speed in m/s")
	fs.Float64Var(&f.ratedPower, "rated-power", d.RatedPower, "rated power in kW")
	fs.Float64Var(&f.radius, "rotor-radius", d.RotorRadius, "rotor radius in m")
	fs.IntVar(&f.blades, "blades", d.BladeCount, "blade count")
	fs.StringVar(&f.variant, "cp-variant", d.Efficiency.String(), "Cp variant of the turbine")
	fs.Float64Var(&f.rpm, "rated-rpm", d.RatedRotorSpeedRPM, "rated rotor speed in rev/min")
	fs.Float64Var(&f.drivetrain, "drivetrain", d.DrivetrainEfficiency, "drivetrain efficiency (0 = lossless)")
}

func (f *turbineFlags) resolve(cmd *cobra.Command, base turbine.Spec) (turbine.Spec, error) {
	spec := base
	if f.file != "" {
		specs, err := loadTurbines(f.file)
		if err != nil {
			return turbine.Spec{}, err
		}
		spec = specs[0]
	}
	override(cmd, "turbine-name", &spec.Name, f.name)
	override(cmd, "cut-in", &spec.CutIn, f.cutIn)
	override(cmd, "rated-speed", &spec.Rated, f.rated)
	override(cmd, "cut-out", &spec.CutOut, f.cutOut)
	override(cmd, "rated-power", &spec.RatedPower, f.ratedPower)
	override(cmd, "rotor-radius", &spec.RotorRadius, f.radius)
	override(cmd, "blades", &spec.BladeCount, f.blades)
	override(cmd, "rated-rpm", &spec.RatedRotorSpeedRPM, f.rpm)
	override(cmd, "drivetrain", &spec.DrivetrainEfficiency, f.drivetrain)
	if cmd.Flags().Changed("cp-variant") {
		v, err := aero.ParseVariant(f.variant)
		if err != nil {
			return turbine.Spec{}, err
		}
		spec.Efficiency = v
	}
	if err := spec.Validate(); err != nil {
		return turbine.Spec{}, fmt.Errorf("turbine %q: %w", spec.Name, err)
	}
	return spec, nil
}

// loadTurbines reads one spec or a list of specs. JSON is valid YAML.
func loadTurbines(path string) ([]turbine.Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read turbines: %w", err)
	}
	var list []turbine.Spec
	if err := yaml.Unmarshal(data, &list); err != nil {
		var one turbine.Spec
		if err1 := yaml.Unmarshal(data, &one); err1 != nil {
			return nil, fmt.Errorf("parse turbines %s: %w", path, err)
		}
		list = []turbine.Spec{one}
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: no turbines in %s", wind.ErrEmptySeries, path)
	}
	for i, s := range list {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("turbine %d (%s): %w", i, s.Name, err)
		}
	}
	return list, nil
}

// observationFlags select an observation file.
type observationFlags struct {
	path          string
	defaultHeight float64
	source        string
}

func (f *observationFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.path, "observations", "o", "", "observation file (.csv or .json)")
	fs.Float64Var(&f.defaultHeight, "default-height", 0, "height in m for rows without one")
	fs.StringVar(&f.source, "source", "", "source id for rows without one (default: file name)")
}

func (f *observationFlags) load() ([]wind.Observation, error) {
	if f.path == "" {
		return nil, fmt.Errorf("--observations is required")
	}
	obs, err := ingest.Load(f.path, ingest.Options{DefaultHeight: f.defaultHeight, Source: f.source})
	if err != nil {
		return nil, fmt.Errorf("load observations: %w", err)
	}
	return obs, nil
}
