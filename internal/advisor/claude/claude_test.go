package claude

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaudeGenerate(t *testing.T) {
	var gotKey, gotModel, gotPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/messages") {
			http.NotFound(w, r)
			return
		}
		gotKey = r.Header.Get("x-api-key")

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content []struct {
					Text string `json:"text"`
				} `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model
		if len(req.Messages) > 0 && len(req.Messages[0].Content) > 0 {
			gotPrompt = req.Messages[0].Content[0].Text
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"content": [{"type": "text", "text": "Brush weekly."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 3}
		}`))
	}))
	defer server.Close()

	g := newWithBaseURL("sk-test", "claude-test", server.URL+"/v1")
	text, err := g.Generate(context.Background(), "How often should I brush?")

	require.NoError(t, err)
	assert.Equal(t, "Brush weekly.", text)
	assert.Equal(t, "sk-test", gotKey)
	assert.Equal(t, "claude-test", gotModel)
	assert.Equal(t, "How often should I brush?", gotPrompt)
}

func TestClaudeGenerateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer server.Close()

	g := newWithBaseURL("bad", "claude-test", server.URL+"/v1")
	_, err := g.Generate(context.Background(), "hi")

	assert.Error(t, err)
}
