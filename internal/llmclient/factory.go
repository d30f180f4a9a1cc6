// internal/llmclient/factory.go
package llmclient

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/xkilldash9x/reticle/api/schemas"
	"github.com/xkilldash9x/reticle/internal/config"
)

// NewClient constructs the provider-specific LLM client selected by the
// judge configuration.
func NewClient(cfg config.JudgeConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	cfg.APIKey = resolveAPIKey(cfg)

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg, logger)
	case config.ProviderGemini:
		return NewGeminiClient(cfg, logger)
	case config.ProviderAnthropic:
		return NewAnthropicClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}

// resolveAPIKey falls back to the provider's conventional environment
// variable when the configuration carries no key.
func resolveAPIKey(cfg config.JudgeConfig) string {
	if cfg.APIKey != "" {
		return cfg.APIKey
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case config.ProviderGemini:
		return os.Getenv("GEMINI_API_KEY")
	case config.ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	return ""
}
