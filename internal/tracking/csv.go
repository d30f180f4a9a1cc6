// internal/tracking/csv.go
package tracking

import (
	"context"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/reticle/api/schemas"
)

// CSVSink writes records to a CSV file inside the run directory. Images are
// stored base64-encoded so the file stays a plain single-line-per-record
// table.
type CSVSink struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
	path   string
	logger *zap.Logger
}

// NewCSVSink opens (or creates) dir/fileName. A header row is written only
// when the file is new, so interrupted runs can resume appending.
func NewCSVSink(dir, fileName string, logger *zap.Logger) (*CSVSink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	path := filepath.Join(dir, fileName)

	info, err := os.Stat(path)
	fresh := os.IsNotExist(err) || (err == nil && info.Size() == 0)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open tracking CSV: %w", err)
	}

	s := &CSVSink{
		file:   file,
		writer: csv.NewWriter(file),
		path:   path,
		logger: logger.Named("sink.csv"),
	}

	if fresh {
		if err := s.writer.Write(schemas.RecordColumns()); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("failed to write CSV header: %w", err)
		}
	}

	s.logger.Info("Tracking CSV opened", zap.String("path", path), zap.Bool("fresh", fresh))
	return s, nil
}

func (s *CSVSink) Name() string { return "csv" }

// Path returns the location of the CSV file.
func (s *CSVSink) Path() string { return s.path }

func (s *CSVSink) Append(_ context.Context, rec schemas.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writer.Write(recordRow(rec))
}

func (s *CSVSink) Flush(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer.Flush()
	return s.writer.Error()
}

func (s *CSVSink) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		_ = s.file.Close()
		return err
	}
	return s.file.Close()
}

// recordRow renders a record in RecordColumns order.
func recordRow(rec schemas.Record) []string {
	return []string{
		rec.SampleID,
		rec.Timestamp.Format(schemas.TimestampLayout),
		rec.Prompt,
		rec.ImagePath,
		encodeImageColumn(rec.Image),
		encodeImageColumn(rec.AnnotatedImage),
		rec.ModelResponse,
		rec.GroundTruth,
		rec.LowLevelReasoning,
		formatScore(rec.LowLevelScore),
		rec.HighLevelReasoning,
		formatScore(rec.HighLevelScore),
		formatScore(rec.FormatScore),
	}
}

func encodeImageColumn(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

// formatScore renders a nullable score; absent scores stay empty cells.
func formatScore(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
