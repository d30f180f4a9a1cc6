package llmclient

import (
	"bytes"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/reticle/api/schemas"
	"github.com/xkilldash9x/reticle/internal/config"
)

// setupTestLogger is a helper to create a zap logger for testing with an observer.
func setupTestLogger(t *testing.T) *zap.Logger {
	t.Helper()
	core, _ := observer.New(zap.DebugLevel)
	return zap.New(core)
}

// testJudgeConfig returns a valid JudgeConfig for testing purposes.
func testJudgeConfig() config.JudgeConfig {
	return config.JudgeConfig{
		Provider:    config.ProviderGemini,
		Model:       "test-model",
		APIKey:      "test-api-key",
		APITimeout:  5 * time.Second,
		Temperature: 0,
		MaxTokens:   256,
		Attempts:    2,
	}
}

// testGenerationRequest provides a standard generation request structure.
func testGenerationRequest() schemas.GenerationRequest {
	return schemas.GenerationRequest{
		SystemPrompt: "System prompt instructions.",
		UserPrompt:   "User query.",
		Options: schemas.GenerationOptions{
			Temperature: 0,
			MaxTokens:   128,
		},
	}
}

// tinyPNG returns a minimal encoded PNG for image attachment tests.
func tinyPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))))
	return buf.Bytes()
}
