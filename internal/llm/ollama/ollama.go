package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/rs/zerolog/log"

	"solo-rising/internal/config"
)

type Client struct {
	client *api.Client
	config *config.OllamaConfig
}

func NewClient(cfg *config.OllamaConfig) (*Client, error) {
	if cfg.Host == "" {
		client, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		return &Client{client: client, config: cfg}, nil
	}

	base, err := url.Parse(cfg.Host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", cfg.Host, err)
	}
	return &Client{client: api.NewClient(base, http.DefaultClient), config: cfg}, nil
}

func (c *Client) Chat(ctx context.Context, system, message string) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model: c.config.Model,
		Messages: []api.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: message},
		},
		Stream: &stream,
		Options: map[string]interface{}{
			"temperature": 0.7,
			"top_p":       0.9,
		},
	}

	timeout := time.Duration(c.config.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var sb strings.Builder
	err := c.client.Chat(timeoutCtx, req, func(r api.ChatResponse) error {
		sb.WriteString(r.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat failed: %w", err)
	}

	reply := sb.String()
	if strings.TrimSpace(reply) == "" {
		return "", fmt.Errorf("ollama returned an empty reply")
	}

	log.Debug().Str("model", c.config.Model).Int("chars", len(reply)).Msg("Ollama chat completed")
	return reply, nil
}

func (c *Client) IsModelAvailable(ctx context.Context) error {
	models, err := c.client.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	names := make([]string, 0, len(models.Models))
	for _, m := range models.Models {
		if m.Name == c.config.Model || strings.TrimSuffix(m.Name, ":latest") == c.config.Model {
			return nil
		}
		names = append(names, m.Name)
	}
	return fmt.Errorf("model %s not found. Available models: %v", c.config.Model, names)
}
