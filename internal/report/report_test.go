package report

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/reticle/api/schemas"
	"github.com/xkilldash9x/reticle/internal/tracking"
)

func sampleRecord(id string, hour int) schemas.Record {
	return schemas.Record{
		SampleID:           id,
		Timestamp:          time.Date(2025, 3, 14, hour, 30, 0, 0, time.UTC),
		Prompt:             "book a flight to Berlin",
		ImagePath:          "shots/" + id + ".png",
		Image:              []byte{0x89, 0x50, 0x4e, 0x47},
		AnnotatedImage:     []byte{0x89, 0x50, 0x4e, 0x48},
		ModelResponse:      "pyautogui.click(x=0.4, y=0.6)",
		GroundTruth:        "pyautogui.click(x=0.41, y=0.58)",
		LowLevelReasoning:  "click lands on the target",
		LowLevelScore:      schemas.Float64(1),
		HighLevelReasoning: "plausible step toward the goal",
		HighLevelScore:     schemas.Float64(0.5),
		FormatScore:        schemas.Float64(0.25),
	}
}

// writeRunCSV produces a run file with the same sink the tracker uses, so
// the loader is tested against the real encoding.
func writeRunCSV(t *testing.T, dir string, records ...schemas.Record) string {
	t.Helper()

	sink, err := tracking.NewCSVSink(dir, "tracking_data.csv", zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx := context.Background()
	for _, rec := range records {
		require.NoError(t, sink.Append(ctx, rec))
	}
	require.NoError(t, sink.Close(ctx))
	return sink.Path()
}

func TestLoadRun_RoundTrip(t *testing.T) {
	t.Parallel()

	want := []schemas.Record{
		sampleRecord("run-a", 9),
		{
			SampleID:  "run-b",
			Timestamp: time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC),
			Prompt:    "minimal row",
		},
	}
	path := writeRunCSV(t, t.TempDir(), want...)

	got, err := New(zaptest.NewLogger(t)).LoadRun(path)
	require.NoError(t, err)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRun_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := New(zaptest.NewLogger(t)).LoadRun(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open tracking CSV")
}

func TestLoadRun_RejectsForeignHeader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "foreign.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,name\n1,x\n"), 0o644))

	_, err := New(zaptest.NewLogger(t)).LoadRun(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized tracking CSV header")
}

func TestLoadRun_SkipsMalformedRows(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeRunCSV(t, dir, sampleRecord("keep-1", 9), sampleRecord("keep-2", 10))

	// Corrupt the middle row's timestamp in place.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	broken := strings.Replace(string(data), "2025-03-14 09:30:00", "not-a-time", 1)
	require.NotEqual(t, string(data), broken)
	require.NoError(t, os.WriteFile(path, []byte(broken), 0o644))

	got, err := New(zaptest.NewLogger(t)).LoadRun(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "keep-2", got[0].SampleID)
}

func TestGenerate_WritesHTMLReport(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	csvPath := writeRunCSV(t, dir,
		sampleRecord("gen-1", 9),
		sampleRecord("gen-2", 10),
	)
	outPath := filepath.Join(dir, "report.html")

	require.NoError(t, New(zaptest.NewLogger(t)).Generate(csvPath, outPath))

	html, err := os.ReadFile(outPath)
	require.NoError(t, err)

	page := string(html)
	assert.Contains(t, page, "<!DOCTYPE html>")
	assert.Contains(t, page, "Tracking Run Report")
	assert.Contains(t, page, "<table>", "score tables must render as HTML tables")
	assert.Contains(t, page, "gen-1")
	assert.Contains(t, page, "gen-2")
}
