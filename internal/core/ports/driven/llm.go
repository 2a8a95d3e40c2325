package driven

import "context"

// LLMService generates free text from a prompt.
// This is an optional service - when nil, search returns matches without an answer.
//
// Implementations include:
//   - Gemini (generative-ai-go)
//   - OpenAI (go-openai)
type LLMService interface {
	// Generate produces text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// SystemPrompt is an optional instruction prepended to the conversation.
	SystemPrompt string
}
