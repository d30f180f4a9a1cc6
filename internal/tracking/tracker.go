// internal/tracking/tracker.go

// Package tracking buffers training telemetry records and fans them out to
// one or more storage sinks: a CSV file in the run directory, an experiment
// dashboard, Postgres, ClickHouse. Records flow through a size-and-interval
// batched pipeline so slow sinks never sit on the annotate/judge hot path.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/reticle/api/schemas"
	"github.com/xkilldash9x/reticle/internal/config"
)

// ErrTrackerClosed is returned by Add once Close has begun.
var ErrTrackerClosed = errors.New("tracker is closed")

// Tracker accumulates records and flushes them to its sinks when the batch
// fills, when the flush interval elapses, and on Close.
type Tracker struct {
	logger    *zap.Logger
	sinks     []Sink
	batchSize int

	mu     sync.Mutex
	buf    []schemas.Record
	closed bool

	// flushMu serializes whole flushes so batches reach sinks in order.
	flushMu sync.Mutex

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewTracker starts a tracker over the given sinks. The periodic flush
// goroutine runs until Close.
func NewTracker(cfg config.TrackingConfig, sinks []Sink, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}
	interval := cfg.FlushInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}

	t := &Tracker{
		logger:    logger.Named("tracker"),
		sinks:     sinks,
		batchSize: batchSize,
		buf:       make([]schemas.Record, 0, batchSize),
		done:      make(chan struct{}),
	}

	t.wg.Add(1)
	go t.flushLoop(interval)

	return t
}

// Add stages a record, assigning a sample ID and timestamp when the caller
// left them empty. A full batch triggers a synchronous flush.
func (t *Tracker) Add(ctx context.Context, rec schemas.Record) error {
	if rec.SampleID == "" {
		rec.SampleID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrTrackerClosed
	}
	t.buf = append(t.buf, rec)
	full := len(t.buf) >= t.batchSize
	t.mu.Unlock()

	if full {
		return t.Flush(ctx)
	}
	return nil
}

// Flush drains the buffer and writes the batch to every sink concurrently.
// The first sink error is returned; the batch is not re-queued.
func (t *Tracker) Flush(ctx context.Context) error {
	t.flushMu.Lock()
	defer t.flushMu.Unlock()

	t.mu.Lock()
	if len(t.buf) == 0 {
		t.mu.Unlock()
		return nil
	}
	batch := t.buf
	t.buf = make([]schemas.Record, 0, t.batchSize)
	t.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, sink := range t.sinks {
		sink := sink
		g.Go(func() error {
			start := time.Now()
			for _, rec := range batch {
				if err := sink.Append(gctx, rec); err != nil {
					return fmt.Errorf("sink %s: append: %w", sink.Name(), err)
				}
			}
			if err := sink.Flush(gctx); err != nil {
				return fmt.Errorf("sink %s: flush: %w", sink.Name(), err)
			}
			t.logger.Debug("Sink flush complete",
				zap.String("sink", sink.Name()),
				zap.Int("records", len(batch)),
				zap.Duration("duration", time.Since(start)),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	t.logger.Info("Tracked records flushed",
		zap.Int("records", len(batch)),
		zap.Int("sinks", len(t.sinks)),
	)
	return nil
}

// Close stops the periodic flusher, flushes whatever is buffered, and closes
// every sink. Subsequent calls return nil.
func (t *Tracker) Close(ctx context.Context) error {
	var closeErr error

	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		t.mu.Unlock()

		close(t.done)
		t.wg.Wait()

		closeErr = t.Flush(ctx)

		for _, sink := range t.sinks {
			if err := sink.Close(ctx); err != nil {
				if closeErr == nil {
					closeErr = fmt.Errorf("sink %s: close: %w", sink.Name(), err)
				} else {
					t.logger.Error("Failed to close sink",
						zap.String("sink", sink.Name()),
						zap.Error(err),
					)
				}
			}
		}
	})

	return closeErr
}

func (t *Tracker) flushLoop(interval time.Duration) {
	defer t.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			if err := t.Flush(context.Background()); err != nil {
				t.logger.Warn("Periodic flush failed", zap.Error(err))
			}
		}
	}
}
