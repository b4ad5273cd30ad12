package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ja7ad/windpower/internal/export"
	"github.com/ja7ad/windpower/internal/store"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		turbineName string
		since       time.Duration
		limit       int
		format      string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored analysis runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := store.Open(a.cfg.Storage.SQLite.Path)
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer st.Close()

			f := store.Filter{Turbine: turbineName, Limit: limit}
			if since > 0 {
				t := time.Now().Add(-since)
				f.Since = &t
			}
			runs, err := st.ListRuns(cmd.Context(), f)
			if err != nil {
				return err
			}
			if format == "json" {
				return export.WriteJSON(a.out, runs)
			}
			return export.WriteRuns(a.out, runs)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&turbineName, "turbine", "", "only runs of this turbine")
	fs.DurationVar(&since, "since", 0, "only runs newer than this (e.g. 72h)")
	fs.IntVarP(&limit, "limit", "n", 20, "maximum number of runs (0 = all)")
	fs.StringVarP(&format, "format", "f", "table", "stdout format (table, json)")

	cmd.AddCommand(newHistoryShowCmd(a), newHistoryPruneCmd(a))
	return cmd
}

func newHistoryShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show one stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(a.cfg.Storage.SQLite.Path)
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer st.Close()

			run, err := st.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return export.WriteJSON(a.out, run)
		},
	}
}

func newHistoryPruneCmd(a *app) *cobra.Command {
	var older time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if older <= 0 {
				return fmt.Errorf("--older-than must be > 0")
			}
			st, err := store.Open(a.cfg.Storage.SQLite.Path)
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer st.Close()

			n, err := st.DeleteBefore(cmd.Context(), time.Now().Add(-older))
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "removed %d run(s)\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&older, "older-than", 0, "remove runs older than this (e.g. 720h)")
	return cmd
}
