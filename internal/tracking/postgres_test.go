package tracking

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/reticle/api/schemas"
)

func newMockedPostgresSink(t *testing.T) (*PostgresSink, pgxmock.PgxPoolIface) {
	t.Helper()

	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	mockPool.ExpectPing().WillReturnError(nil)

	sink, err := NewPostgresSink(context.Background(), mockPool, "", zaptest.NewLogger(t))
	require.NoError(t, err)
	return sink, mockPool
}

func TestNewPostgresSink_PingFails(t *testing.T) {
	t.Parallel()

	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	pingErr := errors.New("connection refused")
	mockPool.ExpectPing().WillReturnError(pingErr)

	_, err = NewPostgresSink(context.Background(), mockPool, "samples", zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping database")
	assert.ErrorIs(t, err, pingErr)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresSink_FlushCopiesBufferedRows(t *testing.T) {
	t.Parallel()

	sink, mockPool := newMockedPostgresSink(t)

	ctx := context.Background()
	require.NoError(t, sink.Append(ctx, testRecord("pg-1")))
	require.NoError(t, sink.Append(ctx, testRecord("pg-2")))

	mockPool.ExpectCopyFrom(pgx.Identifier{"tracking_samples"}, schemas.RecordColumns()).
		WillReturnResult(2)

	require.NoError(t, sink.Flush(ctx))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresSink_EmptyFlushSkipsCopy(t *testing.T) {
	t.Parallel()

	sink, mockPool := newMockedPostgresSink(t)

	require.NoError(t, sink.Flush(context.Background()))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresSink_CopyErrorDropsBatch(t *testing.T) {
	t.Parallel()

	sink, mockPool := newMockedPostgresSink(t)

	ctx := context.Background()
	require.NoError(t, sink.Append(ctx, testRecord("pg-err")))

	copyErr := errors.New("relation does not exist")
	mockPool.ExpectCopyFrom(pgx.Identifier{"tracking_samples"}, schemas.RecordColumns()).
		WillReturnError(copyErr)

	err := sink.Flush(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to copy tracking rows")
	assert.ErrorIs(t, err, copyErr)

	// The failed batch is dropped, so the next flush has nothing to copy.
	require.NoError(t, sink.Flush(ctx))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresSink_CopyCountMismatch(t *testing.T) {
	t.Parallel()

	sink, mockPool := newMockedPostgresSink(t)

	ctx := context.Background()
	require.NoError(t, sink.Append(ctx, testRecord("pg-a")))
	require.NoError(t, sink.Append(ctx, testRecord("pg-b")))

	mockPool.ExpectCopyFrom(pgx.Identifier{"tracking_samples"}, schemas.RecordColumns()).
		WillReturnResult(1)

	err := sink.Flush(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch in copied row count: expected 2, got 1")
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresSink_CloseFlushesRemainder(t *testing.T) {
	t.Parallel()

	sink, mockPool := newMockedPostgresSink(t)

	ctx := context.Background()
	require.NoError(t, sink.Append(ctx, testRecord("pg-close")))

	mockPool.ExpectCopyFrom(pgx.Identifier{"tracking_samples"}, schemas.RecordColumns()).
		WillReturnResult(1)

	require.NoError(t, sink.Close(ctx))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresSink_CustomTableName(t *testing.T) {
	t.Parallel()

	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	mockPool.ExpectPing().WillReturnError(nil)

	sink, err := NewPostgresSink(context.Background(), mockPool, "agent_rollouts", zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, sink.Append(ctx, testRecord("pg-custom")))

	mockPool.ExpectCopyFrom(pgx.Identifier{"agent_rollouts"}, schemas.RecordColumns()).
		WillReturnResult(1)

	require.NoError(t, sink.Flush(ctx))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
