package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"time"

	"github.com/ja7ad/windpower/pkg/operation"
	"github.com/ja7ad/windpower/pkg/turbine"
	"github.com/ja7ad/windpower/pkg/turbulence"
	"github.com/ja7ad/windpower/pkg/util"
)

// WriteRecordsCSV writes operational records with a header row.
func WriteRecordsCSV(w io.Writer, records []operation.Record) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"timestamp", "speed_ms", "omega_rads", "power_kw", "state"})
	for _, r := range records {
		_ = cw.Write([]string{
			r.Timestamp.Format(time.RFC3339Nano),
			util.FmtFloat(r.Speed), util.FmtFloat(r.Omega), util.FmtFloat(r.Power),
			r.State.String(),
		})
	}
	cw.Flush()
	return cw.Error()
}

// WriteSeriesCSV writes a synthesized series with its components.
func WriteSeriesCSV(w io.Writer, samples []turbulence.Sample) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"timestamp", "speed_ms", "mean_ms", "wave_ms", "turbulence_ms"})
	for _, s := range samples {
		_ = cw.Write([]string{
			s.Timestamp.Format(time.RFC3339Nano),
			util.FmtFloat(s.Speed), util.FmtFloat(s.Mean), util.FmtFloat(s.Wave), util.FmtFloat(s.Turbulence),
		})
	}
	cw.Flush()
	return cw.Error()
}

// WriteCurveCSV writes a power curve.
func WriteCurveCSV(w io.Writer, pts []turbine.CurvePoint) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"speed_ms", "omega_rads", "lambda", "cp", "power_kw"})
	for _, p := range pts {
		_ = cw.Write([]string{
			util.FmtFloat(p.Speed), util.FmtFloat(p.Omega), util.FmtFloat(p.Lambda),
			util.FmtFloat(p.Cp), util.FmtFloat(p.Power),
		})
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
