// Package export renders analysis results as terminal tables, CSV, JSON,
// HTML and Parquet, and uploads artifacts to S3.
package export

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/ja7ad/windpower/internal/store"
	"github.com/ja7ad/windpower/pkg/aero"
	"github.com/ja7ad/windpower/pkg/analysis"
	"github.com/ja7ad/windpower/pkg/operation"
	"github.com/ja7ad/windpower/pkg/profile"
	"github.com/ja7ad/windpower/pkg/turbine"
	"github.com/ja7ad/windpower/pkg/types"
	"github.com/ja7ad/windpower/pkg/util"
	"github.com/ja7ad/windpower/pkg/weibull"
)

const tsLayout = "2006-01-02 15:04:05"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printTableHeader(tw *tabwriter.Writer, cols ...string) {
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c)
	}
	fmt.Fprintln(tw)
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		for range len(c) {
			fmt.Fprint(tw, "-")
		}
	}
	fmt.Fprintln(tw)
}

// WriteRecords prints one row per operational record.
func WriteRecords(w io.Writer, records []operation.Record) error {
	tw := newTable(w)
	printTableHeader(tw, "TIME", "V (m/s)", "ω (rad/s)", "P (kW)", "STATE")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%.3f\t%s\n",
			r.Timestamp.Format(tsLayout), r.Speed, r.Omega, r.Power, r.State)
	}
	return tw.Flush()
}

// WriteSummary prints the headline figures of a run.
func WriteSummary(w io.Writer, res analysis.Result) error {
	s := res.Summary
	fmt.Fprintf(w, "turbine %s (%s rated, R=%.1f m, %s) at %.1f m hub height\n",
		res.Turbine.Name, types.Power(res.Turbine.RatedPower).Humanized(), res.Turbine.RotorRadius,
		res.Turbine.Efficiency, res.HubHeight)
	fmt.Fprintf(w, "- samples:          %d over %s\n", s.Samples, s.Elapsed.Round(time.Second))
	fmt.Fprintf(w, "- energy:           %s\n", types.Energy(s.TotalEnergyKWh).Humanized())
	fmt.Fprintf(w, "- mean power:       %s (peak %s)\n", types.Power(s.MeanPowerKW).Humanized(), types.Power(s.PeakPowerKW).Humanized())
	fmt.Fprintf(w, "- capacity factor:  %.2f %%\n", 100*s.CapacityFactor)
	fmt.Fprintf(w, "- annual energy:    %s\n", types.Energy(s.AnnualEnergyKWh).Humanized())
	for _, st := range operation.States() {
		fmt.Fprintf(w, "- time %-10s  %.2f %%\n", st.String()+":", 100*s.TimeInState[st])
	}
	if res.Weibull != nil {
		fmt.Fprintf(w, "- weibull:          k=%.3f c=%.3f m/s (mean %.3f m/s)\n",
			res.Weibull.Shape, res.Weibull.Scale, res.Weibull.Mean())
	}
	if res.Analytic != nil {
		fmt.Fprintf(w, "- analytic yield:   %s/yr, CF %.2f %%\n",
			types.Energy(res.Analytic.AnnualEnergyKWh).Humanized(), 100*res.Analytic.CapacityFactor)
	}
	if syn := res.Synthetic; syn != nil {
		fmt.Fprintf(w, "- turbulent window: %d samples, σ=%.3f m/s, TI=%.3f, mean power %s\n",
			len(syn.Series.Samples), syn.Stats.StdSpeed, syn.Stats.Intensity,
			types.Power(syn.Summary.MeanPowerKW).Humanized())
		if syn.TurbulenceFactor != 0 && syn.TurbulenceFactor != 1 {
			fmt.Fprintf(w, "- weather factor:   K_p × %.3f\n", syn.TurbulenceFactor)
		}
	}
	for _, n := range res.Notes {
		fmt.Fprintf(w, "# %s\n", n)
	}
	return nil
}

// WriteProfile prints both extrapolation laws side by side, keeping only the
// heights that are multiples of every (0 prints the whole grid). The closest
// agreement is always taken over the whole grid.
func WriteProfile(w io.Writer, cmp profile.Comparison, every float64) error {
	rows := cmp.Every(every)
	if len(rows) == 0 {
		rows = cmp.Rows
	}
	tw := newTable(w)
	printTableHeader(tw, "HEIGHT (m)", "POWER LAW (m/s)", "LOG LAW (m/s)", "Δ (m/s)", "Δ (%)")
	for _, r := range rows {
		fmt.Fprintf(tw, "%.1f\t%.3f\t%.3f\t%.3f\t%.2f\n", r.Height, r.PowerLaw, r.Logarithmic, r.Difference, r.DifferencePct)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "closest agreement at %.1f m (Δ %.3f m/s)\n", cmp.Intersection.Height, cmp.Intersection.Difference)
	return err
}

// WriteCurve prints a power curve.
func WriteCurve(w io.Writer, pts []turbine.CurvePoint) error {
	tw := newTable(w)
	printTableHeader(tw, "V (m/s)", "ω (rad/s)", "λ", "Cp", "P (kW)")
	for _, p := range pts {
		fmt.Fprintf(tw, "%.2f\t%.3f\t%.3f\t%.4f\t%.3f\n", p.Speed, p.Omega, p.Lambda, p.Cp, p.Power)
	}
	return tw.Flush()
}

// WriteCpCurve prints Cp over tip-speed ratio.
func WriteCpCurve(w io.Writer, v aero.Variant, pts []aero.Point, opt aero.Optimum) error {
	fmt.Fprintf(w, "%s: Cp max %.4f at λ=%.3f\n", v, opt.Cp, opt.Lambda)
	tw := newTable(w)
	printTableHeader(tw, "λ", "Cp")
	for _, p := range pts {
		fmt.Fprintf(tw, "%.2f\t%.4f\n", p.Lambda, p.Cp)
	}
	return tw.Flush()
}

// WriteWeibull prints a fitted distribution with a few quantiles.
func WriteWeibull(w io.Writer, d weibull.Distribution) error {
	tw := newTable(w)
	printTableHeader(tw, "k", "c (m/s)", "MEAN (m/s)", "STD (m/s)", "P50 (m/s)", "P90 (m/s)")
	fmt.Fprintf(tw, "%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\n",
		d.Shape, d.Scale, d.Mean(), d.StdDev(), d.Quantile(0.5), d.Quantile(0.9))
	return tw.Flush()
}

// WriteRanking prints compared turbines, best first.
func WriteRanking(w io.Writer, ranks []analysis.Ranking) error {
	tw := newTable(w)
	printTableHeader(tw, "#", "TURBINE", "CF (%)", "ENERGY", "ANNUAL")
	for i, r := range ranks {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\t%s\n", i+1, r.Name, 100*r.CapacityFactor,
			types.Energy(r.EnergyKWh).Humanized(), types.Energy(r.AnnualKWh).Humanized())
	}
	return tw.Flush()
}

// WriteRuns prints stored run history.
func WriteRuns(w io.Writer, runs []store.Run) error {
	tw := newTable(w)
	printTableHeader(tw, "CREATED", "RUN", "TURBINE", "SOURCE", "SAMPLES", "ENERGY", "CF (%)", "ANNUAL")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%.2f\t%s\n",
			r.CreatedAt.Local().Format(tsLayout), shortID(r.ID), r.Turbine, r.Source, r.Samples,
			types.Energy(r.EnergyKWh).Humanized(), 100*util.Clamp01(r.CapacityFactor),
			types.Energy(r.AnnualEnergyKWh).Humanized())
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
