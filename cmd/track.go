// File: cmd/track.go
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hpcloud/tail"
	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reticle/api/schemas"
	"github.com/xkilldash9x/reticle/internal/annotate"
	"github.com/xkilldash9x/reticle/internal/config"
	"github.com/xkilldash9x/reticle/internal/tracking"
)

// scanBufferSize bounds a single JSONL line. Inline base64 screenshots
// make sample lines large; 64 MiB leaves room for full-page captures.
const scanBufferSize = 64 * 1024 * 1024

// newTrackCmd creates and configures the `track` command.
func newTrackCmd(app *appState) *cobra.Command {
	var (
		inputPath string
		follow    bool
	)

	trackCmd := &cobra.Command{
		Use:   "track",
		Short: "Ingest a JSONL stream of training samples into the tracking sinks",
		Long: `Track reads one JSON-encoded sample per line (the tracking record
format: prompt, image or image_path, model_response, scores), draws each
model response onto its screenshot, and streams the records to every
enabled sink. With --follow the input file is tailed until interrupted.`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.v.BindPFlag("tracking.log_dir", cmd.Flags().Lookup("log-dir")); err != nil {
				return err
			}
			return app.v.BindPFlag("tracking.batch_size", cmd.Flags().Lookup("batch-size"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := app.resolveConfig()
			if err != nil {
				return err
			}
			logger := app.logger

			sinks, runDir, err := buildSinks(ctx, cfg, logger)
			if err != nil {
				return err
			}

			ing := &ingestor{
				tracker:   tracking.NewTracker(cfg.Tracking(), sinks, logger),
				annotator: annotate.New(logger),
				logger:    logger.Named("track"),
			}

			if follow {
				err = ing.followFile(ctx, inputPath)
			} else {
				err = ing.readFile(ctx, inputPath)
			}

			// Close with a fresh context: the command context is already
			// cancelled when the user interrupts a --follow run, and the
			// final flush must still reach the sinks.
			if closeErr := ing.tracker.Close(context.Background()); closeErr != nil {
				logger.Error("Failed to close tracker", zap.Error(closeErr))
				if err == nil {
					err = closeErr
				}
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "tracked %d sample(s), skipped %d -> %s\n",
				ing.ingested, ing.skipped, runDir)
			return nil
		},
	}

	trackCmd.Flags().StringVarP(&inputPath, "input", "i", "", "JSONL file of training samples (required)")
	trackCmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep tailing the input file for new samples")
	trackCmd.Flags().String("log-dir", "", "tracking run directory (default: timestamped under the working directory)")
	trackCmd.Flags().Int("batch-size", 0, "records per sink flush")
	_ = trackCmd.MarkFlagRequired("input")

	return trackCmd
}

// buildSinks assembles every enabled tracking sink. On failure the sinks
// created so far are closed before returning.
func buildSinks(ctx context.Context, cfg *config.Config, logger *zap.Logger) ([]tracking.Sink, string, error) {
	tcfg := cfg.Tracking()
	runDir := tracking.ResolveRunDir(tcfg.LogDir)

	var sinks []tracking.Sink
	fail := func(err error) ([]tracking.Sink, string, error) {
		for _, s := range sinks {
			if closeErr := s.Close(ctx); closeErr != nil {
				logger.Warn("Failed to close sink during teardown",
					zap.String("sink", s.Name()), zap.Error(closeErr))
			}
		}
		return nil, "", err
	}

	if tcfg.CSV.Enabled {
		csvSink, err := tracking.NewCSVSink(runDir, tcfg.CSV.FileName, logger)
		if err != nil {
			return fail(fmt.Errorf("failed to open CSV sink: %w", err))
		}
		sinks = append(sinks, csvSink)
	}
	if tcfg.Dashboard.Enabled {
		dash, err := tracking.NewDashboardSink(tcfg.Dashboard, logger)
		if err != nil {
			return fail(fmt.Errorf("failed to build dashboard sink: %w", err))
		}
		sinks = append(sinks, dash)
	}
	if tcfg.Postgres.Enabled {
		pool, err := pgxpool.New(ctx, tcfg.Postgres.DSN())
		if err != nil {
			return fail(fmt.Errorf("failed to connect to postgres: %w", err))
		}
		pg, err := tracking.NewPostgresSink(ctx, pool, tcfg.Postgres.Table, logger)
		if err != nil {
			pool.Close()
			return fail(fmt.Errorf("failed to build postgres sink: %w", err))
		}
		sinks = append(sinks, pg)
	}
	if tcfg.ClickHouse.Enabled {
		ch, err := tracking.NewClickHouseSink(ctx, tcfg.ClickHouse, logger)
		if err != nil {
			return fail(fmt.Errorf("failed to build clickhouse sink: %w", err))
		}
		sinks = append(sinks, ch)
	}

	if len(sinks) == 0 {
		return nil, "", fmt.Errorf("no tracking sinks enabled")
	}
	return sinks, runDir, nil
}

// ingestor feeds parsed sample lines into the tracker, annotating each
// model response onto its screenshot on the way through.
type ingestor struct {
	tracker   *tracking.Tracker
	annotator *annotate.Annotator
	logger    *zap.Logger

	ingested int
	skipped  int
}

var trackJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// ingestLine processes one JSONL line. Malformed lines are counted and
// skipped; only tracker shutdown stops the run.
func (ing *ingestor) ingestLine(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	var rec schemas.Record
	if err := trackJSON.UnmarshalFromString(line, &rec); err != nil {
		ing.skipped++
		ing.logger.Warn("Skipping malformed sample line", zap.Error(err))
		return nil
	}

	// Hydrate the screenshot from disk when the line carries only a path.
	if len(rec.Image) == 0 && rec.ImagePath != "" {
		data, err := os.ReadFile(rec.ImagePath)
		if err != nil {
			ing.logger.Warn("Failed to read sample screenshot",
				zap.String("path", rec.ImagePath), zap.Error(err))
		} else {
			rec.Image = data
		}
	}

	ing.annotateRecord(&rec)

	if err := ing.tracker.Add(ctx, rec); err != nil {
		if errors.Is(err, tracking.ErrTrackerClosed) {
			return err
		}
		// Flush failures surface here when a batch fills; the record
		// buffer already rotated, so log and keep ingesting.
		ing.logger.Error("Failed to track sample", zap.Error(err))
	}
	ing.ingested++
	return nil
}

// annotateRecord draws the model response onto the screenshot. Failures
// leave the record un-annotated rather than dropping it.
func (ing *ingestor) annotateRecord(rec *schemas.Record) {
	if len(rec.Image) == 0 || rec.ModelResponse == "" {
		return
	}

	img, err := decodePNG(rec.Image)
	if err != nil {
		ing.logger.Warn("Failed to decode sample screenshot", zap.Error(err))
		return
	}

	annotated, res := ing.annotator.Annotate(img, rec.ModelResponse)
	if !res.OK {
		ing.logger.Warn("Annotation faults on sample",
			zap.String("sample_id", rec.SampleID), zap.Int("faults", len(res.Faults)))
	}
	if res.Drawn == 0 {
		return
	}

	data, err := encodePNG(annotated)
	if err != nil {
		ing.logger.Warn("Failed to encode annotated screenshot", zap.Error(err))
		return
	}
	rec.AnnotatedImage = data
}

// readFile ingests the whole input file once.
func (ing *ingestor) readFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), scanBufferSize)

	for scanner.Scan() {
		if ctx.Err() != nil {
			ing.logger.Info("Ingestion interrupted.")
			return nil
		}
		if err := ing.ingestLine(ctx, scanner.Text()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

// followFile tails the input file until the context is cancelled.
func (ing *ingestor) followFile(ctx context.Context, path string) error {
	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to tail input: %w", err)
	}
	defer func() {
		t.Stop()
		t.Cleanup()
	}()

	for {
		select {
		case <-ctx.Done():
			ing.logger.Info("Stopping sample ingestion.")
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				ing.logger.Info("Input tailer channel closed.")
				return nil
			}
			if line.Err != nil {
				ing.logger.Warn("Error reading from input file", zap.Error(line.Err))
				continue
			}
			if err := ing.ingestLine(ctx, line.Text); err != nil {
				return err
			}
		}
	}
}
