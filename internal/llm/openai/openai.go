package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"solo-rising/internal/config"
)

const defaultBaseURL = "https://api.openai.com/v1"

type Client struct {
	apiKey     string
	baseURL    string
	config     *config.OpenAIConfig
	httpClient *http.Client
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

func NewClient(cfg *config.OpenAIConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		config:     cfg,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) Chat(ctx context.Context, system, userMessage string) (string, error) {
	req := chatRequest{
		Model: c.config.Model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: userMessage},
		},
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	var out chatResponse
	if resp.StatusCode != http.StatusOK {
		if json.Unmarshal(respBody, &out) == nil && out.Error != nil {
			return "", fmt.Errorf("openai API error: status %d: %s", resp.StatusCode, out.Error.Message)
		}
		return "", fmt.Errorf("openai API error: status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("openai API error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", errors.New("no choices in OpenAI response")
	}

	log.Debug().
		Str("model", out.Model).
		Int("tokens", out.Usage.TotalTokens).
		Msg("OpenAI chat completed")

	return out.Choices[0].Message.Content, nil
}

func (c *Client) IsModelAvailable(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to list models: status %d", resp.StatusCode)
	}

	var models modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		return fmt.Errorf("failed to decode models response: %w", err)
	}

	available := make([]string, 0, len(models.Data))
	for _, m := range models.Data {
		if m.ID == c.config.Model {
			return nil
		}
		available = append(available, m.ID)
	}
	return fmt.Errorf("model %s not found. Available models: %v", c.config.Model, available)
}
