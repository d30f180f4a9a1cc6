// api/schemas/generation.go
package schemas

import "context"

// GenerationOptions provides detailed parameters to control the text
// generation process of the LLM, such as creativity (temperature) and
// output format.
type GenerationOptions struct {
	Temperature     float64 `json:"temperature"`       // Controls randomness. Lower is more deterministic.
	ForceJSONFormat bool    `json:"force_json_format"` // If true, forces the model to output valid JSON.
	MaxTokens       int     `json:"max_tokens"`        // Upper bound on generated tokens. 0 means provider default.
}

// GenerationRequest encapsulates a complete multimodal request to the LLM:
// the system and user prompts, PNG images attached to the user turn, and
// generation options.
type GenerationRequest struct {
	SystemPrompt string            `json:"system_prompt"`
	UserPrompt   string            `json:"user_prompt"`
	ImagesPNG    [][]byte          `json:"images_png,omitempty"`
	Options      GenerationOptions `json:"options"`
}

// LLMClient defines a standard interface for interacting with a multimodal
// Large Language Model, abstracting the specifics of the underlying
// provider (OpenAI, Gemini, Anthropic).
type LLMClient interface {
	// Generate produces a text completion based on the provided request.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	// Close cleans up any resources held by the client.
	Close() error
}
