package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ja7ad/windpower/internal/export"
	"github.com/ja7ad/windpower/internal/logger"
	"github.com/ja7ad/windpower/internal/store"
	"github.com/ja7ad/windpower/pkg/analysis"
	"github.com/ja7ad/windpower/pkg/turbine"
)

type compareOpts struct {
	obs       observationFlags
	analysis  analysisFlags
	turbines  string
	reference bool
	format    string
	save      bool
}

func newCompareCmd(a *app) *cobra.Command {
	var o compareOpts
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Rank several turbines on the same observations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompare(cmd, a, &o)
		},
	}
	o.obs.register(cmd)
	o.analysis.register(cmd)
	fs := cmd.Flags()
	fs.StringVarP(&o.turbines, "turbines", "t", "", "file with a list of turbine specs (YAML or JSON)")
	fs.BoolVar(&o.reference, "with-configured", true, "include the configured turbine")
	fs.StringVarP(&o.format, "format", "f", "table", "stdout format (table, json)")
	fs.BoolVar(&o.save, "save", false, "store every run in the history database")
	return cmd
}

func runCompare(cmd *cobra.Command, a *app, o *compareOpts) error {
	cfg := *a.cfg
	o.analysis.apply(cmd, &cfg.Analysis)
	if err := cfg.Validate(); err != nil {
		return err
	}

	var specs []turbine.Spec
	if o.reference {
		specs = append(specs, cfg.Turbine)
	}
	if o.turbines != "" {
		list, err := loadTurbines(o.turbines)
		if err != nil {
			return err
		}
		specs = append(specs, list...)
	}
	if len(specs) < 2 {
		return fmt.Errorf("compare needs at least two turbines, got %d", len(specs))
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

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := a.log.WithComponent("compare")
	logger.LogDataFlowEntry(log, "ingest", "engine", len(obs)*len(specs), "observation")
	started := time.Now()
	results, err := eng.CompareTurbines(ctx, obs, specs)
	if err != nil {
		return fmt.Errorf("compare: %w", err)
	}
	logger.LogPerformanceEntry(log, "engine", "compare", time.Since(started),
		logger.Fields{"turbines": len(specs), "observations": len(obs)})

	ranks := analysis.Rank(results)
	if o.format == "json" {
		if err := export.WriteJSON(a.out, ranks); err != nil {
			return err
		}
	} else {
		a.banner([2]string{"source", o.obs.path}, [2]string{"turbines", fmt.Sprint(len(specs))})
		if err := export.WriteRanking(a.out, ranks); err != nil {
			return err
		}
	}

	if o.save || cfg.Storage.SQLite.Enabled {
		st, err := store.Open(cfg.Storage.SQLite.Path)
		if err != nil {
			return fmt.Errorf("open run history: %w", err)
		}
		defer st.Close()
		for _, r := range results {
			if err := st.SaveRun(ctx, store.FromResult(r, o.obs.path)); err != nil {
				return err
			}
		}
		logger.LogDataFlowEntry(log, "engine", "store", len(results), "run")
	}
	return nil
}
