package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ja7ad/windpower/internal/config"
	"github.com/ja7ad/windpower/internal/export"
	"github.com/ja7ad/windpower/internal/logger"
	"github.com/ja7ad/windpower/internal/store"
	"github.com/ja7ad/windpower/pkg/analysis"
)

// profileHighlight is the height spacing of the printed profile table in m.
const profileHighlight = 10.0

type analyzeOpts struct {
	obs      observationFlags
	analysis analysisFlags
	turbine  turbineFlags

	format  string
	records bool
	csv     string
	json    string
	html    string
	parquet string
	save    bool
	upload  bool
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var o analyzeOpts
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze observations for one turbine",
		Long: `Extrapolates every observation to hub height, fits a Weibull distribution,
evaluates power and operating state, and reports the time-series energy
estimate next to the Weibull-analytic yield. The time-series estimate is
authoritative.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd, a, &o)
		},
	}
	o.obs.register(cmd)
	o.analysis.register(cmd)
	o.turbine.register(cmd)

	fs := cmd.Flags()
	fs.StringVarP(&o.format, "format", "f", "table", "stdout format (table, csv, json, html)")
	fs.BoolVar(&o.records, "records", false, "print every operational record in table output")
	fs.StringVar(&o.csv, "csv", "", "write records to CSV file")
	fs.StringVar(&o.json, "json", "", "write the full result to JSON file")
	fs.StringVar(&o.html, "html", "", "write an HTML report")
	fs.StringVar(&o.parquet, "parquet", "", "write records to Parquet file")
	fs.BoolVar(&o.save, "save", false, "store the run in the history database")
	fs.BoolVar(&o.upload, "s3", false, "upload written files to the configured S3 bucket")
	return cmd
}

func runAnalyze(cmd *cobra.Command, a *app, o *analyzeOpts) error {
	cfg := *a.cfg
	o.analysis.apply(cmd, &cfg.Analysis)
	override(cmd, "format", &cfg.Output.Format, o.format)
	override(cmd, "csv", &cfg.Output.CSV, o.csv)
	override(cmd, "json", &cfg.Output.JSON, o.json)
	override(cmd, "html", &cfg.Output.HTML, o.html)
	override(cmd, "parquet", &cfg.Output.Parquet, o.parquet)
	if err := cfg.Validate(); err != nil {
		return err
	}

	spec, err := o.turbine.resolve(cmd, cfg.Turbine)
	if err != nil {
		return err
	}
	obs, err := o.obs.load()
	if err != nil {
		return err
	}
	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	eng, err := analysis.New(opts)
	if err != nil {
		return err
	}

	log := a.log.WithComponent("analyze").WithFields(logger.Fields{
		"observations": len(obs),
		"turbine":      spec.Name,
	})
	logger.LogDataFlowEntry(log, "ingest", "engine", len(obs), "observation")
	started := time.Now()
	res, err := eng.Run(obs, spec)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	logger.LogPerformanceEntry(log, "engine", "run", time.Since(started), logger.Fields{"run_id": res.RunID})
	logger.LogDataFlowEntry(log, "engine", "report", len(res.Records), "record")
	for _, n := range res.Notes {
		log.Warn(n)
	}

	if err := printResult(a, cfg.Output.Format, res, o.records, o.obs.path); err != nil {
		return err
	}

	arts, err := export.Render(res, cfg.Output)
	if err != nil {
		return err
	}
	for _, art := range arts {
		if err := export.WriteFile(art); err != nil {
			return fmt.Errorf("write %s: %w", art.Path, err)
		}
		log.WithFields(logger.Fields{"path": art.Path, "kind": art.Kind}).Info("report written")
	}
	if len(arts) > 0 {
		logger.LogDataFlowEntry(log, "engine", "export", len(arts), "artifact")
	}

	if o.upload || cfg.Storage.S3.Enabled {
		if err := uploadArtifacts(cmd.Context(), a, cfg.Storage.S3, res, arts); err != nil {
			return err
		}
		logger.LogDataFlowEntry(log, "export", "s3", len(arts), "artifact")
	}

	if o.save || cfg.Storage.SQLite.Enabled {
		if err := saveRun(cmd.Context(), cfg.Storage.SQLite.Path, store.FromResult(res, o.obs.path)); err != nil {
			return err
		}
		log.WithFields(logger.Fields{"run_id": res.RunID, "db": cfg.Storage.SQLite.Path}).Info("run saved")
		logger.LogDataFlowEntry(log, "engine", "store", 1, "run")
	}
	return nil
}

func printResult(a *app, format string, res analysis.Result, records bool, source string) error {
	switch format {
	case "json":
		return export.WriteJSON(a.out, res)
	case "csv":
		return export.WriteRecordsCSV(a.out, res.Records)
	case "html":
		return export.WriteHTML(a.out, res)
	}

	a.banner(
		[2]string{"run", res.RunID},
		[2]string{"source", source},
		[2]string{"terrain", fmt.Sprintf("n=%.2f z0=%.4g m Kp=%.3f", res.Terrain.Exponent, res.Terrain.RoughnessLength, res.Terrain.TurbulenceCoefficient)},
	)
	if records {
		if err := export.WriteRecords(a.out, res.Records); err != nil {
			return err
		}
		fmt.Fprintln(a.out)
	}
	if err := export.WriteSummary(a.out, res); err != nil {
		return err
	}
	if res.Profile != nil {
		fmt.Fprintln(a.out)
		return export.WriteProfile(a.out, *res.Profile, profileHighlight)
	}
	return nil
}

func uploadArtifacts(ctx context.Context, a *app, s3cfg config.S3Config, res analysis.Result, arts []export.Artifact) error {
	if len(arts) == 0 {
		a.log.WithComponent("s3").Warn("nothing to upload, no output files configured")
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if s3cfg.Bucket == "" || s3cfg.Region == "" {
		return fmt.Errorf("s3 upload needs storage.s3.bucket and storage.s3.region")
	}
	s3cfg.Enabled = true
	up, err := export.NewUploader(ctx, s3cfg)
	if err != nil {
		return err
	}
	for _, art := range arts {
		key := up.Key(res.RunID, res.CreatedAt, art.Path)
		loc, err := up.Upload(ctx, key, art)
		if err != nil {
			return err
		}
		a.log.WithComponent("s3").WithFields(logger.Fields{"location": loc, "size": len(art.Data)}).Info("artifact uploaded")
	}
	return nil
}

func saveRun(ctx context.Context, path string, run store.Run) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer st.Close()
	return st.SaveRun(ctx, run)
}
