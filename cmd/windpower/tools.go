package main

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ja7ad/windpower/internal/export"
	"github.com/ja7ad/windpower/pkg/aero"
	"github.com/ja7ad/windpower/pkg/analysis"
	"github.com/ja7ad/windpower/pkg/profile"
	"github.com/ja7ad/windpower/pkg/turbine"
	"github.com/ja7ad/windpower/pkg/turbulence"
	"github.com/ja7ad/windpower/pkg/weibull"
	"github.com/ja7ad/windpower/pkg/wind"
)

// engineFor builds an engine from the configured analysis section with the
// command's flag overrides applied.
func engineFor(cmd *cobra.Command, a *app, f *analysisFlags) (*analysis.Engine, error) {
	cfg := *a.cfg
	f.apply(cmd, &cfg.Analysis)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	return analysis.New(opts)
}

func newProfileCmd(a *app) *cobra.Command {
	var (
		f      analysisFlags
		speed  float64
		height float64
		every  float64
		format string
	)
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Compare power-law and logarithmic vertical profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := engineFor(cmd, a, &f)
			if err != nil {
				return err
			}
			terrain, err := eng.Terrain()
			if err != nil {
				return err
			}
			o := eng.Options()
			from := o.ProfileStep
			for from <= terrain.RoughnessLength {
				from += o.ProfileStep
			}
			heights, err := profile.Heights(from, math.Max(o.ProfileTop, from), o.ProfileStep)
			if err != nil {
				return err
			}
			cmp, err := profile.Compare(speed, height, heights, terrain)
			if err != nil {
				return err
			}
			if format == "json" {
				return export.WriteJSON(a.out, cmp)
			}
			a.banner([2]string{"reference", fmt.Sprintf("%.2f m/s at %.1f m", speed, height)},
				[2]string{"terrain", fmt.Sprintf("n=%.2f z0=%.4g m", terrain.Exponent, terrain.RoughnessLength)})
			return export.WriteProfile(a.out, cmp, every)
		},
	}
	f.register(cmd)
	cmd.Flags().Float64Var(&speed, "speed", 6, "reference wind speed in m/s")
	cmd.Flags().Float64Var(&height, "height", 10, "reference height in m")
	cmd.Flags().Float64Var(&every, "every", profileHighlight, "print only heights that are multiples of this, in m (0 = whole grid)")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "stdout format (table, json)")
	return cmd
}

func newWeibullCmd(a *app) *cobra.Command {
	var (
		obs    observationFlags
		format string
	)
	cmd := &cobra.Command{
		Use:   "weibull [SPEED...]",
		Short: "Fit a Weibull distribution to wind speeds",
		RunE: func(_ *cobra.Command, args []string) error {
			var speeds []float64
			if obs.path != "" {
				o, err := obs.load()
				if err != nil {
					return err
				}
				speeds = wind.Speeds(o)
			}
			for _, s := range args {
				v, err := strconv.ParseFloat(s, 64)
				if err != nil {
					return fmt.Errorf("speed %q: %w", s, err)
				}
				speeds = append(speeds, v)
			}
			d, err := weibull.Fit(speeds)
			if err != nil {
				return err
			}
			if format == "json" {
				return export.WriteJSON(a.out, d)
			}
			a.banner([2]string{"samples", fmt.Sprint(len(speeds))})
			return export.WriteWeibull(a.out, d)
		},
	}
	obs.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "table", "stdout format (table, json)")
	return cmd
}

func newSynthCmd(a *app) *cobra.Command {
	var (
		f          analysisFlags
		mean       float64
		height     float64
		duration   float64
		amplitude  float64
		period     float64
		csvPath    string
		parquetOut string
		format     string
	)
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize a turbulent wind speed series",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := engineFor(cmd, a, &f)
			if err != nil {
				return err
			}
			terrain, err := eng.Terrain()
			if err != nil {
				return err
			}
			o := eng.Options()
			cfg := turbulence.Config{
				MeanSpeed:             mean,
				Height:                height,
				TurbulenceCoefficient: terrain.TurbulenceCoefficient,
				IntervalSec:           o.SamplingInterval,
				Samples:               int(math.Round(duration / o.SamplingInterval)),
				Start:                 time.Now().UTC(),
				WavePeriodSec:         period,
				Seed:                  o.Seed,
			}
			if cmd.Flags().Changed("wave-amplitude") {
				cfg.WaveAmplitude = &amplitude
			}
			syn, err := turbulence.New(cfg)
			if err != nil {
				return err
			}
			series := syn.Synthesize()

			if csvPath != "" {
				out, err := os.Create(csvPath)
				if err != nil {
					return err
				}
				defer out.Close()
				if err := export.WriteSeriesCSV(out, series.Samples); err != nil {
					return err
				}
			}
			if parquetOut != "" {
				data, err := export.SeriesParquet(series.Samples, "snappy")
				if err != nil {
					return err
				}
				if err := export.WriteFile(export.Artifact{Path: parquetOut, Data: data}); err != nil {
					return err
				}
			}

			st := series.Stats()
			if format == "json" {
				return export.WriteJSON(a.out, struct {
					Stats       turbulence.Stats `json:"stats"`
					TargetStd   float64          `json:"target_std_ms"`
					Gain        float64          `json:"filter_gain"`
					TimeConst   float64          `json:"time_constant_s"`
					WaveAmpl    float64          `json:"wave_amplitude_ms"`
					Samples     int              `json:"samples"`
					IntervalSec float64          `json:"interval_sec"`
				}{st, syn.Filter().StdDev(), syn.Filter().Gain(), syn.Filter().TimeConstant(), syn.WaveAmplitude(),
					len(series.Samples), series.IntervalSec})
			}
			a.banner([2]string{"mean", fmt.Sprintf("%.2f m/s at %.1f m", mean, height)},
				[2]string{"samples", fmt.Sprintf("%d × %.3f s", len(series.Samples), series.IntervalSec)})
			fmt.Fprintf(a.out, "- target σ:       %.4f m/s (Kp=%.3f)\n", syn.Filter().StdDev(), terrain.TurbulenceCoefficient)
			fmt.Fprintf(a.out, "- filter:         K=%.4f T=%.3f s\n", syn.Filter().Gain(), syn.Filter().TimeConstant())
			fmt.Fprintf(a.out, "- wave amplitude: %.3f m/s\n", syn.WaveAmplitude())
			fmt.Fprintf(a.out, "- speed:          mean %.3f σ %.3f min %.3f max %.3f m/s\n", st.MeanSpeed, st.StdSpeed, st.MinSpeed, st.MaxSpeed)
			fmt.Fprintf(a.out, "- turbulence:     σ %.4f m/s, intensity %.3f\n", st.StdTurbulence, st.Intensity)
			return nil
		},
	}
	f.register(cmd)
	fs := cmd.Flags()
	fs.Float64Var(&mean, "mean", 8, "mean wind speed in m/s")
	fs.Float64Var(&height, "height", 30, "height in m")
	fs.Float64Var(&duration, "duration", 600, "series length in seconds")
	fs.Float64Var(&amplitude, "wave-amplitude", 0, "wave amplitude in m/s (default min(2, 0.2·mean))")
	fs.Float64Var(&period, "wave-period", 0, "wave period in seconds (default: duration)")
	fs.StringVar(&csvPath, "csv", "", "write the series to CSV file")
	fs.StringVar(&parquetOut, "parquet", "", "write the series to Parquet file")
	fs.StringVarP(&format, "format", "f", "table", "stdout format (table, json)")
	return cmd
}

func newCurveCmd(a *app) *cobra.Command {
	var (
		f       analysisFlags
		tf      turbineFlags
		top     float64
		step    float64
		cp      bool
		csvPath string
		format  string
	)
	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Tabulate the turbine power curve or the Cp-λ curve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := engineFor(cmd, a, &f)
			if err != nil {
				return err
			}
			spec, err := tf.resolve(cmd, a.cfg.Turbine)
			if err != nil {
				return err
			}
			if v := eng.Options().Efficiency; v != nil {
				spec.Efficiency = *v
			}

			if cp {
				return writeCpCurve(a, eng, spec.Efficiency, format)
			}

			ctrl, err := eng.Control(spec)
			if err != nil {
				return err
			}
			if top == 0 {
				top = spec.CutOut + 2
			}
			pts, err := eng.Evaluator().Curve(spec, turbine.Speeds(top, step), ctrl)
			if err != nil {
				return err
			}
			if csvPath != "" {
				out, err := os.Create(csvPath)
				if err != nil {
					return err
				}
				defer out.Close()
				if err := export.WriteCurveCSV(out, pts); err != nil {
					return err
				}
			}
			if format == "json" {
				return export.WriteJSON(a.out, pts)
			}
			a.banner([2]string{"turbine", spec.Name}, [2]string{"model", string(eng.Options().PowerModel)})
			return export.WriteCurve(a.out, pts)
		},
	}
	f.register(cmd)
	tf.register(cmd)
	fs := cmd.Flags()
	fs.Float64Var(&top, "max", 0, "highest wind speed in m/s (default cut-out + 2)")
	fs.Float64Var(&step, "step", 0.5, "wind speed step in m/s")
	fs.BoolVar(&cp, "cp", false, "tabulate Cp over tip-speed ratio instead")
	fs.StringVar(&csvPath, "csv", "", "write the power curve to CSV file")
	fs.StringVarP(&format, "format", "f", "table", "stdout format (table, json)")
	return cmd
}

func writeCpCurve(a *app, eng *analysis.Engine, v aero.Variant, format string) error {
	model := eng.AeroModel()
	pitch := eng.Options().Pitch
	opt, err := model.OptimalTipSpeedRatio(v, pitch)
	if err != nil {
		return err
	}
	var lambdas []float64
	for l := 0.5; l <= 16+1e-9; l += 0.5 {
		lambdas = append(lambdas, l)
	}
	pts, err := model.Curve(v, pitch, lambdas)
	if err != nil {
		return err
	}
	if format == "json" {
		return export.WriteJSON(a.out, struct {
			Variant aero.Variant `json:"variant"`
			Optimum aero.Optimum `json:"optimum"`
			Points  []aero.Point `json:"points"`
		}{v, opt, pts})
	}
	return export.WriteCpCurve(a.out, v, pts, opt)
}
