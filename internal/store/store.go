// Package store keeps a history of analysis runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ja7ad/windpower/pkg/analysis"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned by GetRun for an unknown id.
var ErrNotFound = errors.New("store: run not found")

// Run is the persisted summary of one analysis.
type Run struct {
	ID              string             `json:"run_id"`
	CreatedAt       time.Time          `json:"created_at"`
	Source          string             `json:"source"`
	Turbine         string             `json:"turbine"`
	RatedPowerKW    float64            `json:"rated_power_kw"`
	HubHeightM      float64            `json:"hub_height_m"`
	Model           string             `json:"extrapolation_model"`
	PowerModel      string             `json:"power_model"`
	Samples         int                `json:"samples"`
	Elapsed         time.Duration      `json:"elapsed_ns"`
	EnergyKWh       float64            `json:"energy_kwh"`
	MeanPowerKW     float64            `json:"mean_power_kw"`
	PeakPowerKW     float64            `json:"peak_power_kw"`
	CapacityFactor  float64            `json:"capacity_factor"`
	AnnualEnergyKWh float64            `json:"annual_energy_kwh"`
	WeibullShape    *float64           `json:"weibull_k,omitempty"`
	WeibullScale    *float64           `json:"weibull_c,omitempty"`
	AnalyticAEPKWh  *float64           `json:"analytic_annual_energy_kwh,omitempty"`
	TimeInState     map[string]float64 `json:"time_in_state,omitempty"`
}

// FromResult flattens an analysis result; source names the observation input.
func FromResult(res analysis.Result, source string) Run {
	r := Run{
		ID:              res.RunID,
		CreatedAt:       res.CreatedAt,
		Source:          source,
		Turbine:         res.Turbine.Name,
		RatedPowerKW:    res.Turbine.RatedPower,
		HubHeightM:      res.HubHeight,
		Model:           res.Model.String(),
		PowerModel:      string(res.Power),
		Samples:         res.Summary.Samples,
		Elapsed:         res.Summary.Elapsed,
		EnergyKWh:       res.Summary.TotalEnergyKWh,
		MeanPowerKW:     res.Summary.MeanPowerKW,
		PeakPowerKW:     res.Summary.PeakPowerKW,
		CapacityFactor:  res.Summary.CapacityFactor,
		AnnualEnergyKWh: res.Summary.AnnualEnergyKWh,
		TimeInState:     make(map[string]float64, len(res.Summary.TimeInState)),
	}
	for st, frac := range res.Summary.TimeInState {
		r.TimeInState[st.String()] = frac
	}
	if res.Weibull != nil {
		k, c := res.Weibull.Shape, res.Weibull.Scale
		r.WeibullShape, r.WeibullScale = &k, &c
	}
	if res.Analytic != nil {
		aep := res.Analytic.AnnualEnergyKWh
		r.AnalyticAEPKWh = &aep
	}
	return r
}

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Filter narrows ListRuns. Zero values match everything; Limit 0 means no limit.
type Filter struct {
	Turbine string
	Since   *time.Time
	Limit   int
}

// Store wraps SQLite access for run history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate run history: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			source TEXT NOT NULL,
			turbine TEXT NOT NULL,
			rated_power_kw REAL NOT NULL,
			hub_height_m REAL NOT NULL,
			model TEXT NOT NULL,
			power_model TEXT NOT NULL,
			samples INTEGER NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			energy_kwh REAL NOT NULL,
			mean_power_kw REAL NOT NULL,
			peak_power_kw REAL NOT NULL,
			capacity_factor REAL NOT NULL,
			annual_energy_kwh REAL NOT NULL,
			weibull_k REAL,
			weibull_c REAL,
			analytic_aep_kwh REAL
		);`,
		`CREATE TABLE IF NOT EXISTS run_states (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			state TEXT NOT NULL,
			fraction REAL NOT NULL,
			PRIMARY KEY (run_id, state)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_turbine ON runs(turbine);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun stores a run and its time-in-state breakdown.
func (s *Store) SaveRun(ctx context.Context, r Run) (err error) {
	if r.ID == "" {
		return fmt.Errorf("save run: empty id")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, source, turbine, rated_power_kw, hub_height_m, model, power_model, samples, elapsed_ms,
			energy_kwh, mean_power_kw, peak_power_kw, capacity_factor, annual_energy_kwh, weibull_k, weibull_c, analytic_aep_kwh)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.CreatedAt.UTC().Format(timeLayout),
		r.Source,
		r.Turbine,
		r.RatedPowerKW,
		r.HubHeightM,
		r.Model,
		r.PowerModel,
		r.Samples,
		r.Elapsed.Milliseconds(),
		r.EnergyKWh,
		r.MeanPowerKW,
		r.PeakPowerKW,
		r.CapacityFactor,
		r.AnnualEnergyKWh,
		nullable(r.WeibullShape),
		nullable(r.WeibullScale),
		nullable(r.AnalyticAEPKWh),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if len(r.TimeInState) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_states (run_id, state, fraction) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for state, frac := range r.TimeInState {
			if _, err := stmt.ExecContext(ctx, r.ID, state, frac); err != nil {
				return fmt.Errorf("insert run state: %w", err)
			}
		}
	}
	return tx.Commit()
}

const runColumns = `id, created_at, source, turbine, rated_power_kw, hub_height_m, model, power_model, samples, elapsed_ms,
	energy_kwh, mean_power_kw, peak_power_kw, capacity_factor, annual_energy_kwh, weibull_k, weibull_c, analytic_aep_kwh`

// ListRuns returns runs newest first, without the time-in-state breakdown.
func (s *Store) ListRuns(ctx context.Context, f Filter) ([]Run, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if f.Turbine != "" {
		clauses = append(clauses, "turbine = ?")
		args = append(args, f.Turbine)
	}
	if f.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, f.Since.UTC().Format(timeLayout))
	}
	query := "SELECT " + runColumns + " FROM runs WHERE " + strings.Join(clauses, " AND ") + " ORDER BY created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun loads one run including its time-in-state breakdown.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT state, fraction FROM run_states WHERE run_id = ?`, id)
	if err != nil {
		return Run{}, err
	}
	defer rows.Close()
	r.TimeInState = make(map[string]float64)
	for rows.Next() {
		var (
			state string
			frac  float64
		)
		if err := rows.Scan(&state, &frac); err != nil {
			return Run{}, err
		}
		r.TimeInState[state] = frac
	}
	return r, rows.Err()
}

// DeleteBefore removes runs created before t and returns how many were removed.
func (s *Store) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	cutoff := t.UTC().Format(timeLayout)
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM run_states WHERE run_id IN (SELECT id FROM runs WHERE created_at < ?)`, cutoff); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r         Run
		created   string
		elapsedMs int64
		k, c, aep sql.NullFloat64
	)
	if err := sc.Scan(&r.ID, &created, &r.Source, &r.Turbine, &r.RatedPowerKW, &r.HubHeightM, &r.Model, &r.PowerModel,
		&r.Samples, &elapsedMs, &r.EnergyKWh, &r.MeanPowerKW, &r.PeakPowerKW, &r.CapacityFactor, &r.AnnualEnergyKWh,
		&k, &c, &aep); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return Run{}, fmt.Errorf("parse created_at: %w", err)
	}
	r.CreatedAt = t
	r.Elapsed = time.Duration(elapsedMs) * time.Millisecond
	r.WeibullShape = fromNullable(k)
	r.WeibullScale = fromNullable(c)
	r.AnalyticAEPKWh = fromNullable(aep)
	return r, nil
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
