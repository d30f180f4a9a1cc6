// internal/tracking/dashboard.go
package tracking

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/nfnt/resize"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reticle/api/schemas"
	"github.com/xkilldash9x/reticle/internal/config"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// DashboardSink uploads record batches to an experiment-tracking dashboard.
// Images are downscaled to thumbnails before upload; the dashboard is a
// browsing aid, full-resolution screenshots live in the other sinks.
type DashboardSink struct {
	tableURL   string
	apiKey     string
	thumbWidth int
	client     *http.Client
	logger     *zap.Logger

	mu   sync.Mutex
	rows []dashboardRow
}

// dashboardRow mirrors RecordColumns with display-ready values.
type dashboardRow struct {
	SampleID           string   `json:"sample_id"`
	Timestamp          string   `json:"timestamp"`
	Prompt             string   `json:"prompt"`
	ImagePath          string   `json:"image_path,omitempty"`
	Image              string   `json:"image,omitempty"`
	AnnotatedImage     string   `json:"annotated_image,omitempty"`
	ModelResponse      string   `json:"model_response,omitempty"`
	GroundTruth        string   `json:"ground_truth,omitempty"`
	LowLevelReasoning  string   `json:"low_level_action_evaluation_reasoning,omitempty"`
	LowLevelScore      *float64 `json:"low_level_action_evaluation_score,omitempty"`
	HighLevelReasoning string   `json:"high_level_action_evaluation_reasoning,omitempty"`
	HighLevelScore     *float64 `json:"high_level_action_evaluation_score,omitempty"`
	FormatScore        *float64 `json:"custom_format_reward_score,omitempty"`
}

type dashboardPayload struct {
	Columns []string       `json:"columns"`
	Rows    []dashboardRow `json:"rows"`
}

// NewDashboardSink builds a sink posting to
// {endpoint}/projects/{project}/runs/{run}/table.
func NewDashboardSink(cfg config.DashboardSinkConfig, logger *zap.Logger) (*DashboardSink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("dashboard endpoint is required")
	}
	if cfg.RunName == "" {
		return nil, fmt.Errorf("dashboard run name is required")
	}

	tableURL := fmt.Sprintf("%s/projects/%s/runs/%s/table",
		strings.TrimSuffix(cfg.Endpoint, "/"),
		url.PathEscape(cfg.Project),
		url.PathEscape(cfg.RunName),
	)

	return &DashboardSink{
		tableURL:   tableURL,
		apiKey:     cfg.APIKey,
		thumbWidth: cfg.ThumbnailWidth,
		client:     &http.Client{Timeout: cfg.Timeout},
		logger:     logger.Named("sink.dashboard"),
	}, nil
}

func (s *DashboardSink) Name() string { return "dashboard" }

func (s *DashboardSink) Append(_ context.Context, rec schemas.Record) error {
	row := dashboardRow{
		SampleID:           rec.SampleID,
		Timestamp:          rec.Timestamp.Format(schemas.TimestampLayout),
		Prompt:             rec.Prompt,
		ImagePath:          rec.ImagePath,
		Image:              s.thumbnail(rec.Image),
		AnnotatedImage:     s.thumbnail(rec.AnnotatedImage),
		ModelResponse:      rec.ModelResponse,
		GroundTruth:        rec.GroundTruth,
		LowLevelReasoning:  rec.LowLevelReasoning,
		LowLevelScore:      rec.LowLevelScore,
		HighLevelReasoning: rec.HighLevelReasoning,
		HighLevelScore:     rec.HighLevelScore,
		FormatScore:        rec.FormatScore,
	}

	s.mu.Lock()
	s.rows = append(s.rows, row)
	s.mu.Unlock()
	return nil
}

// Flush posts the staged rows as one JSON batch.
func (s *DashboardSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	rows := s.rows
	s.rows = nil
	s.mu.Unlock()

	if len(rows) == 0 {
		return nil
	}

	body, err := jsonAPI.Marshal(dashboardPayload{
		Columns: schemas.RecordColumns(),
		Rows:    rows,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal dashboard payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tableURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create dashboard request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload dashboard batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("dashboard rejected batch: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	s.logger.Debug("Dashboard batch uploaded", zap.Int("rows", len(rows)))
	return nil
}

func (s *DashboardSink) Close(ctx context.Context) error {
	err := s.Flush(ctx)
	s.client.CloseIdleConnections()
	return err
}

// thumbnail downscales a PNG to the configured width and re-encodes it as
// base64. Undecodable images are uploaded untouched rather than dropped.
func (s *DashboardSink) thumbnail(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		s.logger.Warn("Failed to decode image for thumbnailing, uploading original", zap.Error(err))
		return base64.StdEncoding.EncodeToString(data)
	}

	if s.thumbWidth > 0 && img.Bounds().Dx() > s.thumbWidth {
		img = resize.Resize(uint(s.thumbWidth), 0, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		s.logger.Warn("Failed to encode thumbnail, uploading original", zap.Error(err))
		return base64.StdEncoding.EncodeToString(data)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}
