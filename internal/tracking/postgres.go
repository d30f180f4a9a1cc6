// internal/tracking/postgres.go
package tracking

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reticle/api/schemas"
)

// DBPool is the slice of pgxpool.Pool the sink needs, abstracted so tests
// can substitute pgxmock.
type DBPool interface {
	Ping(ctx context.Context) error
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Close()
}

// PostgresSink stages rows in memory and bulk-copies them into a samples
// table on flush.
type PostgresSink struct {
	pool   DBPool
	table  string
	logger *zap.Logger

	mu   sync.Mutex
	rows [][]any
}

// NewPostgresSink verifies connectivity and returns the sink.
func NewPostgresSink(ctx context.Context, pool DBPool, table string, logger *zap.Logger) (*PostgresSink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if table == "" {
		table = "tracking_samples"
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresSink{
		pool:   pool,
		table:  table,
		logger: logger.Named("sink.postgres"),
	}, nil
}

func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) Append(_ context.Context, rec schemas.Record) error {
	row := []any{
		rec.SampleID,
		rec.Timestamp.UTC(),
		rec.Prompt,
		rec.ImagePath,
		encodeImageColumn(rec.Image),
		encodeImageColumn(rec.AnnotatedImage),
		rec.ModelResponse,
		rec.GroundTruth,
		rec.LowLevelReasoning,
		rec.LowLevelScore,
		rec.HighLevelReasoning,
		rec.HighLevelScore,
		rec.FormatScore,
	}

	s.mu.Lock()
	s.rows = append(s.rows, row)
	s.mu.Unlock()
	return nil
}

// Flush bulk-copies the staged rows. A failed copy drops the batch; the
// error surfaces through the tracker so the run log records the loss.
func (s *PostgresSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	rows := s.rows
	s.rows = nil
	s.mu.Unlock()

	if len(rows) == 0 {
		return nil
	}

	count, err := s.pool.CopyFrom(
		ctx,
		pgx.Identifier{s.table},
		schemas.RecordColumns(),
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy tracking rows: %w", err)
	}
	if int(count) != len(rows) {
		return fmt.Errorf("mismatch in copied row count: expected %d, got %d", len(rows), count)
	}

	s.logger.Debug("Tracking rows copied", zap.Int64("rows", count))
	return nil
}

func (s *PostgresSink) Close(ctx context.Context) error {
	err := s.Flush(ctx)
	s.pool.Close()
	return err
}
