// internal/capture/capture.go
// Package capture grabs PNG screenshots of live pages with a headless
// browser. It feeds the annotate and judge commands when the sample
// arrives as a URL instead of an image file.
package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reticle/internal/config"
)

const (
	defaultViewportWidth  = 1280
	defaultViewportHeight = 720
	defaultTimeout        = 60 * time.Second
)

// Capturer drives a dedicated browser instance. Each Screenshot call
// spawns a fresh tab context so captures never share page state.
type Capturer struct {
	cfg    config.CaptureConfig
	logger *zap.Logger
}

// New normalizes the configuration and returns a Capturer. The browser
// process itself starts lazily on the first Screenshot call.
func New(cfg config.CaptureConfig, logger *zap.Logger) *Capturer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ViewportWidth <= 0 {
		cfg.ViewportWidth = defaultViewportWidth
	}
	if cfg.ViewportHeight <= 0 {
		cfg.ViewportHeight = defaultViewportHeight
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Capturer{
		cfg:    cfg,
		logger: logger.Named("capture"),
	}
}

// allocatorOptions builds the Chrome launch flags. Sandboxing is off and
// the GPU is disabled so the capturer behaves in containers and CI.
func (c *Capturer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
	}
	if c.cfg.Headless {
		opts = append(opts, chromedp.Headless)
	}
	return opts
}

// Screenshot navigates to url and returns the rendered page as PNG bytes.
// The viewport is emulated at the configured size; with FullPage set the
// capture extends beyond the viewport to the whole document.
func (c *Capturer) Screenshot(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("capture URL is required")
	}

	opCtx, opCancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer opCancel()

	allocCtx, allocCancel := chromedp.NewExecAllocator(opCtx, c.allocatorOptions()...)
	defer allocCancel()

	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	defer tabCancel()

	start := time.Now()
	c.logger.Debug("Capturing screenshot", zap.String("url", url))

	var buf []byte
	err := chromedp.Run(tabCtx,
		chromedp.EmulateViewport(int64(c.cfg.ViewportWidth), int64(c.cfg.ViewportHeight)),
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, err = page.CaptureScreenshot().
				WithFormat(page.CaptureScreenshotFormatPng).
				WithCaptureBeyondViewport(c.cfg.FullPage).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		if opCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("capture timed out after %s: %w", c.cfg.Timeout, err)
		}
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	if len(buf) == 0 {
		return nil, fmt.Errorf("capture returned an empty screenshot")
	}

	c.logger.Info("Screenshot captured",
		zap.String("url", url),
		zap.Int("bytes", len(buf)),
		zap.Duration("duration", time.Since(start)),
	)
	return buf, nil
}
