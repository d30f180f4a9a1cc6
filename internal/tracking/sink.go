// internal/tracking/sink.go
package tracking

import (
	"context"
	"time"

	"github.com/xkilldash9x/reticle/api/schemas"
)

// Sink persists flushed record batches. The tracker serializes flushes, so
// implementations only need to tolerate concurrent Append calls if they are
// shared across trackers, which none of the built-in ones are.
type Sink interface {
	// Name identifies the sink in logs and error messages.
	Name() string
	// Append stages a single record.
	Append(ctx context.Context, rec schemas.Record) error
	// Flush forces staged records out to the backing store.
	Flush(ctx context.Context) error
	// Close flushes remaining records and releases resources.
	Close(ctx context.Context) error
}

// runDirLayout is the timestamp embedded in generated run directory names.
const runDirLayout = "20060102_150405"

// ResolveRunDir returns dir unchanged when set, otherwise a fresh
// tracking_logs_<timestamp> name relative to the working directory.
func ResolveRunDir(dir string) string {
	if dir != "" {
		return dir
	}
	return "tracking_logs_" + time.Now().Format(runDirLayout)
}
