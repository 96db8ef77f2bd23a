package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solo-rising/internal/config"
)

func TestChat(t *testing.T) {
	var got api.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3","message":{"role":"assistant","content":"Arise."},"done":true}` + "\n"))
	}))
	defer srv.Close()

	c, err := NewClient(&config.OllamaConfig{Host: srv.URL, Model: "llama3", Timeout: 5})
	require.NoError(t, err)

	reply, err := c.Chat(context.Background(), "be Jin-Woo", "motivate me")
	require.NoError(t, err)
	assert.Equal(t, "Arise.", reply)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "motivate me", got.Messages[1].Content)
	require.NotNil(t, got.Stream)
	assert.False(t, *got.Stream)
}

func TestChat_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"model not loaded"}`))
	}))
	defer srv.Close()

	c, err := NewClient(&config.OllamaConfig{Host: srv.URL, Model: "llama3", Timeout: 5})
	require.NoError(t, err)

	_, err = c.Chat(context.Background(), "s", "m")
	assert.Error(t, err)
}

func TestIsModelAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3:latest"}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(&config.OllamaConfig{Host: srv.URL, Model: "llama3"})
	require.NoError(t, err)
	assert.NoError(t, c.IsModelAvailable(context.Background()))

	c.config.Model = "mistral"
	assert.Error(t, c.IsModelAvailable(context.Background()))
}
