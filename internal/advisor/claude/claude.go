package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
)

// Short tips are capped at about 100 words by the prompt.
const maxTokens = 512

type ClaudeGenerator struct {
	client *anthropic.Client
	model  string
}

func NewClaudeGenerator(apiKey, model string) *ClaudeGenerator {
	return &ClaudeGenerator{client: anthropic.NewClient(apiKey), model: model}
}

// newWithBaseURL points the client at a different API host. Used by tests.
func newWithBaseURL(apiKey, model, baseURL string) *ClaudeGenerator {
	return &ClaudeGenerator{
		client: anthropic.NewClient(apiKey, anthropic.WithBaseURL(baseURL)),
		model:  model,
	}
}

func (g *ClaudeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(g.model),
		Messages:  []anthropic.Message{anthropic.NewUserTextMessage(prompt)},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to call claude: %w", err)
	}

	var b strings.Builder
	for _, c := range resp.Content {
		if c.Type == anthropic.MessagesContentTypeText {
			b.WriteString(c.GetText())
		}
	}
	return b.String(), nil
}
