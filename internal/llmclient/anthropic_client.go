// internal/llmclient/anthropic_client.go
package llmclient

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reticle/api/schemas"
	"github.com/xkilldash9x/reticle/internal/config"
)

// AnthropicClient implements the schemas.LLMClient interface using the
// Anthropic Messages API. Screenshots travel as base64 image blocks on the
// user message. The API has no JSON response mode, so ForceJSONFormat is
// left to the prompt and the caller's response parser.
type AnthropicClient struct {
	client *anthropic.Client
	logger *zap.Logger
	config config.JudgeConfig
}

// NewAnthropicClient initializes the client.
func NewAnthropicClient(cfg config.JudgeConfig, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: cfg.APITimeout}),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}

	client := anthropic.NewClient(opts...)

	return &AnthropicClient{
		client: &client,
		config: cfg,
		logger: logger.Named("llm_client.anthropic"),
	}, nil
}

// Generate sends the prompts and attached images to the Messages API and
// returns the first text block of the reply.
func (c *AnthropicClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, 1+len(req.ImagesPNG))
	blocks = append(blocks, anthropic.NewTextBlock(req.UserPrompt))
	for _, img := range req.ImagesPNG {
		blocks = append(blocks, anthropic.NewImageBlockBase64("image/png", base64.StdEncoding.EncodeToString(img)))
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.config.Model),
		MaxTokens:   int64(resolveMaxTokens(req.Options.MaxTokens, c.config.MaxTokens)),
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
		Temperature: anthropic.Float(req.Options.Temperature),
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	startTime := time.Now()
	resp, err := c.client.Messages.New(ctx, params)
	duration := time.Since(startTime)

	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	var responseText string
	for _, block := range resp.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}
	if responseText == "" {
		return "", fmt.Errorf("anthropic API returned no text content (stop reason: %s)", resp.StopReason)
	}

	c.logger.Info("LLM generation complete (Anthropic)",
		zap.Duration("duration", duration),
		zap.Int64("prompt_tokens", resp.Usage.InputTokens),
		zap.Int64("completion_tokens", resp.Usage.OutputTokens),
	)

	return responseText, nil
}

// Close is a no-op; the underlying SDK holds no long-lived resources.
func (c *AnthropicClient) Close() error {
	return nil
}
