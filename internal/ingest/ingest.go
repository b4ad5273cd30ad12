// Package ingest loads wind observations from CSV or JSON files.
//
// CSV files carry a header; columns may appear in any order:
//
//	timestamp,speed,height,temperature,humidity,source
//	2024-03-01T00:00:00Z,6.2,10,12.5,71,mast-1
//
// temperature, humidity and source are optional (column or cell). height may
// be omitted when a default height is supplied. JSON files hold an array of
// objects with the same keys.
package ingest

import (
	"cmp"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ja7ad/windpower/pkg/wind"
)

// Format of an observation file.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Options tune loading.
type Options struct {
	// DefaultHeight (m) applies to rows without a height; 0 makes height required.
	DefaultHeight float64
	// Source is used for rows without a source id.
	Source string
}

// FormatOf infers the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported observation format %q", filepath.Ext(path))
	}
}

// Load reads a file, validates every observation and returns them ordered by
// timestamp.
func Load(path string, opts Options) ([]wind.Observation, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open observations: %w", err)
	}
	defer f.Close()

	if opts.Source == "" {
		opts.Source = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return Read(f, format, opts)
}

// Read decodes observations of the given format.
func Read(r io.Reader, format Format, opts Options) ([]wind.Observation, error) {
	var (
		obs []wind.Observation
		err error
	)
	switch format {
	case FormatCSV:
		obs, err = readCSV(r, opts)
	case FormatJSON:
		obs, err = readJSON(r, opts)
	default:
		return nil, fmt.Errorf("unsupported observation format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		return nil, fmt.Errorf("%w: no observations", wind.ErrEmptySeries)
	}
	slices.SortStableFunc(obs, func(a, b wind.Observation) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return obs, nil
}

func readCSV(r io.Reader, opts Options) ([]wind.Observation, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty csv", wind.ErrEmptySeries)
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"timestamp", "speed"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("csv header missing %q column", required)
		}
	}
	if _, ok := cols["height"]; !ok && opts.DefaultHeight <= 0 {
		return nil, fmt.Errorf("csv header missing %q column and no default height", "height")
	}

	cell := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []wind.Observation
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)

		o := wind.Observation{SourceID: cmp.Or(cell(rec, "source"), opts.Source)}
		if o.Timestamp, err = parseTime(cell(rec, "timestamp")); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if o.Speed, err = strconv.ParseFloat(cell(rec, "speed"), 64); err != nil {
			return nil, fmt.Errorf("line %d: speed: %w", line, err)
		}
		if h := cell(rec, "height"); h != "" {
			if o.Height, err = strconv.ParseFloat(h, 64); err != nil {
				return nil, fmt.Errorf("line %d: height: %w", line, err)
			}
		} else {
			o.Height = opts.DefaultHeight
		}
		if o.Temperature, err = optionalFloat(cell(rec, "temperature")); err != nil {
			return nil, fmt.Errorf("line %d: temperature: %w", line, err)
		}
		if o.Humidity, err = optionalFloat(cell(rec, "humidity")); err != nil {
			return nil, fmt.Errorf("line %d: humidity: %w", line, err)
		}
		if err := o.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, o)
	}
	return out, nil
}

type jsonObservation struct {
	Timestamp   string   `json:"timestamp"`
	Speed       *float64 `json:"speed"`
	Height      float64  `json:"height"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Source      string   `json:"source"`
}

func readJSON(r io.Reader, opts Options) ([]wind.Observation, error) {
	var rows []jsonObservation
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode json observations: %w", err)
	}
	out := make([]wind.Observation, 0, len(rows))
	for i, row := range rows {
		ts, err := parseTime(row.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("observation %d: %w", i, err)
		}
		if row.Speed == nil {
			return nil, fmt.Errorf("observation %d: speed is required", i)
		}
		o := wind.Observation{
			Timestamp:   ts,
			Speed:       *row.Speed,
			Height:      cmp.Or(row.Height, opts.DefaultHeight),
			Temperature: row.Temperature,
			Humidity:    row.Humidity,
			SourceID:    cmp.Or(row.Source, opts.Source),
		}
		if err := o.Validate(); err != nil {
			return nil, fmt.Errorf("observation %d: %w", i, err)
		}
		out = append(out, o)
	}
	return out, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("timestamp is required")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("timestamp %q: unrecognized layout", s)
}

func optionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
