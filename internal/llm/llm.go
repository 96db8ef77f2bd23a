package llm

import "context"

// LLM defines the interface for language model providers
type LLM interface {
	// Chat sends one user message under a system prompt and returns the reply.
	Chat(ctx context.Context, system, message string) (string, error)

	// IsModelAvailable checks if the configured model is available
	IsModelAvailable(ctx context.Context) error
}
