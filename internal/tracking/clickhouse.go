// internal/tracking/clickhouse.go
package tracking

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reticle/api/schemas"
	"github.com/xkilldash9x/reticle/internal/config"
)

// chBatch and chConn are the slices of the ClickHouse driver the sink
// needs; tests substitute fakes.
type chBatch interface {
	Append(v ...any) error
	Send() error
}

type chConn interface {
	PrepareBatch(ctx context.Context, query string) (chBatch, error)
	Close() error
}

// driverConn adapts driver.Conn to chConn.
type driverConn struct {
	conn driver.Conn
}

func (d driverConn) PrepareBatch(ctx context.Context, query string) (chBatch, error) {
	return d.conn.PrepareBatch(ctx, query)
}

func (d driverConn) Close() error { return d.conn.Close() }

// ClickHouseSink stages rows in memory and sends them as one prepared batch
// per flush.
type ClickHouseSink struct {
	conn        chConn
	insertQuery string
	logger      *zap.Logger

	mu   sync.Mutex
	rows [][]any
}

// NewClickHouseSink opens a native-protocol connection and verifies it.
func NewClickHouseSink(ctx context.Context, cfg config.ClickHouseConfig, logger *zap.Logger) (*ClickHouseSink, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: cfg.Addr,
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open clickhouse connection: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return newClickHouseSink(driverConn{conn: conn}, cfg.Table, logger), nil
}

// newClickHouseSink wires the sink over an already-open connection.
func newClickHouseSink(conn chConn, table string, logger *zap.Logger) *ClickHouseSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	if table == "" {
		table = "tracking_samples"
	}

	return &ClickHouseSink{
		conn:        conn,
		insertQuery: fmt.Sprintf("INSERT INTO %s (%s)", table, strings.Join(schemas.RecordColumns(), ", ")),
		logger:      logger.Named("sink.clickhouse"),
	}
}

func (s *ClickHouseSink) Name() string { return "clickhouse" }

func (s *ClickHouseSink) Append(_ context.Context, rec schemas.Record) error {
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

func (s *ClickHouseSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	rows := s.rows
	s.rows = nil
	s.mu.Unlock()

	if len(rows) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, s.insertQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare clickhouse batch: %w", err)
	}

	for _, row := range rows {
		if err := batch.Append(row...); err != nil {
			return fmt.Errorf("failed to append clickhouse row: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send clickhouse batch: %w", err)
	}

	s.logger.Debug("Tracking rows sent", zap.Int("rows", len(rows)))
	return nil
}

func (s *ClickHouseSink) Close(ctx context.Context) error {
	err := s.Flush(ctx)
	if closeErr := s.conn.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
