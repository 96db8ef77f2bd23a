package llm

import (
	"fmt"

	"solo-rising/internal/config"
	"solo-rising/internal/llm/ollama"
	"solo-rising/internal/llm/openai"
)

type Provider string

const (
	ProviderOllama Provider = "ollama"
	ProviderOpenAI Provider = "openai"
)

// NewClient creates a new LLM client based on the configuration
func NewClient(cfg *config.Config) (LLM, error) {
	switch Provider(cfg.LLM.Provider) {
	case ProviderOllama:
		return ollama.NewClient(&cfg.Ollama)
	case ProviderOpenAI:
		return openai.NewClient(&cfg.OpenAI)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLM.Provider)
	}
}
