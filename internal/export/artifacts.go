package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ja7ad/windpower/internal/config"
	"github.com/ja7ad/windpower/pkg/analysis"
)

// Artifact is one rendered report file.
type Artifact struct {
	Kind        string
	Path        string
	ContentType string
	Data        []byte
}

// Render produces the artifacts configured in out for one result. Paths are
// kept as given; nothing is written.
func Render(res analysis.Result, out config.OutputConfig) ([]Artifact, error) {
	var arts []Artifact

	if out.CSV != "" {
		var buf bytes.Buffer
		if err := WriteRecordsCSV(&buf, res.Records); err != nil {
			return nil, fmt.Errorf("render csv: %w", err)
		}
		arts = append(arts, Artifact{Kind: "csv", Path: out.CSV, ContentType: "text/csv", Data: buf.Bytes()})
	}
	if out.JSON != "" {
		var buf bytes.Buffer
		if err := WriteJSON(&buf, res); err != nil {
			return nil, fmt.Errorf("render json: %w", err)
		}
		arts = append(arts, Artifact{Kind: "json", Path: out.JSON, ContentType: "application/json", Data: buf.Bytes()})
	}
	if out.HTML != "" {
		var buf bytes.Buffer
		if err := WriteHTML(&buf, res); err != nil {
			return nil, fmt.Errorf("render html: %w", err)
		}
		arts = append(arts, Artifact{Kind: "html", Path: out.HTML, ContentType: "text/html; charset=utf-8", Data: buf.Bytes()})
	}
	if out.Parquet != "" {
		data, err := RecordsParquet(res.RunID, res.Turbine.Name, res.Records, "snappy")
		if err != nil {
			return nil, fmt.Errorf("render parquet: %w", err)
		}
		arts = append(arts, Artifact{Kind: "parquet", Path: out.Parquet, ContentType: "application/octet-stream", Data: data})
	}
	return arts, nil
}

// WriteFile stores an artifact at its path, creating parent directories.
func WriteFile(a Artifact) error {
	if err := os.MkdirAll(filepath.Dir(a.Path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(a.Path, a.Data, 0o644)
}
