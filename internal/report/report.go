// internal/report/report.go
// Package report turns a tracking run directory into an offline HTML
// summary: sample counts, mean scores, score distributions and the most
// recent samples, computed from the CSV the tracker wrote.
package report

import (
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/reticle/api/schemas"
)

// Reporter loads tracking CSVs and renders run reports.
type Reporter struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{logger: logger.Named("report")}
}

// LoadRun reads a tracker-written CSV back into records. Malformed rows
// are skipped with a warning so one corrupt line doesn't sink the report.
func (r *Reporter) LoadRun(csvPath string) ([]schemas.Record, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open tracking CSV: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = len(schemas.RecordColumns())

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read tracking CSV header: %w", err)
	}
	if err := validateHeader(header); err != nil {
		return nil, err
	}

	var records []schemas.Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tracking CSV row: %w", err)
		}

		rec, err := decodeRow(row)
		if err != nil {
			r.logger.Warn("Skipping malformed tracking row",
				zap.Int("line", line), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}

	r.logger.Debug("Tracking run loaded",
		zap.String("path", csvPath), zap.Int("records", len(records)))
	return records, nil
}

func validateHeader(header []string) error {
	want := schemas.RecordColumns()
	if len(header) != len(want) {
		return fmt.Errorf("unrecognized tracking CSV header: got %d columns, want %d", len(header), len(want))
	}
	for i, col := range want {
		if header[i] != col {
			return fmt.Errorf("unrecognized tracking CSV header: column %d is %q, want %q", i, header[i], col)
		}
	}
	return nil
}

// decodeRow is the inverse of the CSV sink's row encoding.
func decodeRow(row []string) (schemas.Record, error) {
	var rec schemas.Record
	rec.SampleID = row[0]

	ts, err := time.Parse(schemas.TimestampLayout, row[1])
	if err != nil {
		return rec, fmt.Errorf("bad timestamp %q: %w", row[1], err)
	}
	rec.Timestamp = ts

	rec.Prompt = row[2]
	rec.ImagePath = row[3]

	if rec.Image, err = decodeImageCell(row[4]); err != nil {
		return rec, fmt.Errorf("bad image cell: %w", err)
	}
	if rec.AnnotatedImage, err = decodeImageCell(row[5]); err != nil {
		return rec, fmt.Errorf("bad annotated image cell: %w", err)
	}

	rec.ModelResponse = row[6]
	rec.GroundTruth = row[7]
	rec.LowLevelReasoning = row[8]
	if rec.LowLevelScore, err = parseScoreCell(row[9]); err != nil {
		return rec, fmt.Errorf("bad low-level score: %w", err)
	}
	rec.HighLevelReasoning = row[10]
	if rec.HighLevelScore, err = parseScoreCell(row[11]); err != nil {
		return rec, fmt.Errorf("bad high-level score: %w", err)
	}
	if rec.FormatScore, err = parseScoreCell(row[12]); err != nil {
		return rec, fmt.Errorf("bad format score: %w", err)
	}
	return rec, nil
}

func decodeImageCell(cell string) ([]byte, error) {
	if cell == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(cell)
}

func parseScoreCell(cell string) (*float64, error) {
	if cell == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Generate loads the run CSV, aggregates it and writes the HTML report.
func (r *Reporter) Generate(csvPath, outPath string) error {
	records, err := r.LoadRun(csvPath)
	if err != nil {
		return err
	}

	stats := Compute(records)
	markdown := RenderMarkdown(filepath.Dir(csvPath), stats, records)

	html, err := RenderHTML(markdown)
	if err != nil {
		return fmt.Errorf("failed to render HTML report: %w", err)
	}

	if err := os.WriteFile(outPath, html, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	r.logger.Info("Run report written",
		zap.String("path", outPath),
		zap.Int("samples", stats.Samples),
		zap.Int("evaluation_failures", stats.EvaluationFailures),
	)
	return nil
}
