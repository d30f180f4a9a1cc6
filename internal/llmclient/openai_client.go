// internal/llmclient/openai_client.go
package llmclient

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reticle/api/schemas"
	"github.com/xkilldash9x/reticle/internal/config"
)

// OpenAIClient implements the schemas.LLMClient interface using the OpenAI
// chat completions API. Screenshots travel as data-URL image parts on the
// user message.
type OpenAIClient struct {
	client *openai.Client
	logger *zap.Logger
	config config.JudgeConfig
}

// NewOpenAIClient initializes the client.
func NewOpenAIClient(cfg config.JudgeConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = cfg.Endpoint
	}
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.APITimeout}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
		logger: logger.Named("llm_client.openai"),
	}, nil
}

// Generate sends the prompts and attached images to the chat completions
// endpoint and returns the assistant's reply.
func (c *OpenAIClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Messages:    buildOpenAIMessages(req),
		MaxTokens:   resolveMaxTokens(req.Options.MaxTokens, c.config.MaxTokens),
		Temperature: float32(req.Options.Temperature),
	}

	if req.Options.ForceJSONFormat {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	startTime := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	duration := time.Since(startTime)

	if err != nil {
		return "", fmt.Errorf("openAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openAI API returned no choices")
	}

	c.logger.Info("LLM generation complete (OpenAI)",
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return resp.Choices[0].Message.Content, nil
}

// Close is a no-op; the underlying SDK holds no long-lived resources.
func (c *OpenAIClient) Close() error {
	return nil
}

func buildOpenAIMessages(req schemas.GenerationRequest) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, 2)

	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}

	if len(req.ImagesPNG) == 0 {
		return append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: req.UserPrompt,
		})
	}

	parts := make([]openai.ChatMessagePart, 0, 1+len(req.ImagesPNG))
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: req.UserPrompt,
	})
	for _, img := range req.ImagesPNG {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    "data:image/png;base64," + base64.StdEncoding.EncodeToString(img),
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}

	return append(messages, openai.ChatCompletionMessage{
		Role:         openai.ChatMessageRoleUser,
		MultiContent: parts,
	})
}
