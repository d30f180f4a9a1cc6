// File: cmd/helpers.go
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/reticle/internal/capture"
	"github.com/xkilldash9x/reticle/internal/config"
)

// loadScreenshot resolves the sample screenshot: the PNG file when
// imagePath is set, otherwise a live capture of the URL. Flag exclusivity
// is enforced by cobra; this only needs to pick the populated source.
func loadScreenshot(ctx context.Context, cfg config.CaptureConfig, logger *zap.Logger, imagePath, url string) ([]byte, error) {
	if imagePath != "" {
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read screenshot: %w", err)
		}
		return data, nil
	}
	return capture.New(cfg, logger).Screenshot(ctx, url)
}

// resolveActions returns the action trace from the inline flag or the
// trace file.
func resolveActions(inline, file string) (string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read actions file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return strings.TrimSpace(inline), nil
}

// decodePNG decodes PNG bytes into a mutable image the annotator can draw
// on. Decoders usually hand back a drawable type already; anything else is
// redrawn into an RGBA buffer.
func decodePNG(data []byte) (draw.Image, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode PNG: %w", err)
	}
	if mutable, ok := img.(draw.Image); ok {
		return mutable, nil
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
