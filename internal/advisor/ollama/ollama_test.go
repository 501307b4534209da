package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaGenerate(t *testing.T) {
	var got struct {
		Model  string `json:"model"`
		Prompt string `json:"prompt"`
		Stream bool   `json:"stream"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"model":    got.Model,
			"response": "Keep fresh water available all day.",
			"done":     true,
		})
	}))
	defer server.Close()

	g := NewOllamaGenerator(server.URL, "llama3")
	text, err := g.Generate(context.Background(), "Any hydration tips?")

	require.NoError(t, err)
	assert.Equal(t, "Keep fresh water available all day.", text)
	assert.Equal(t, "llama3", got.Model)
	assert.Equal(t, "Any hydration tips?", got.Prompt)
	assert.False(t, got.Stream)
}

func TestOllamaGenerateNetworkError(t *testing.T) {
	g := NewOllamaGenerator("http://localhost:99999", "llama3")

	_, err := g.Generate(context.Background(), "hi")
	assert.Error(t, err)
}

func TestOllamaGenerateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	g := NewOllamaGenerator(server.URL, "missing")
	_, err := g.Generate(context.Background(), "hi")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestOllamaGenerateInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	g := NewOllamaGenerator(server.URL, "llama3")
	_, err := g.Generate(context.Background(), "hi")

	assert.Error(t, err)
}
