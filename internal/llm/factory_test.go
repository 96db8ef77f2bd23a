package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solo-rising/internal/config"
)

func TestNewClient(t *testing.T) {
	cfg := &config.Config{}
	cfg.LLM.Provider = "openai"
	cfg.OpenAI.APIKey = "sk-test"
	c, err := NewClient(cfg)
	require.NoError(t, err)
	assert.NotNil(t, c)

	cfg.LLM.Provider = "ollama"
	cfg.Ollama.Host = "http://127.0.0.1:11434"
	c, err = NewClient(cfg)
	require.NoError(t, err)
	assert.NotNil(t, c)

	cfg.LLM.Provider = "gemini"
	_, err = NewClient(cfg)
	assert.Error(t, err)
}
