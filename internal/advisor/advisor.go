package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Fixed replies used instead of surfacing backend errors to the user.
const (
	MissingBackendMessage = "API Key is missing. Please configure the environment variable."
	EmptyAdviceMessage    = "Sorry, I couldn't generate advice at this moment."
	UnavailableMessage    = "Unable to connect to the Island Advisor network. Please try again later."
)

// promptTemplate is the shared prompt used by all advisor backends.
const promptTemplate = `You are an expert pet care consultant for the "Island Life" community app.

User's Pet: %s
Age: %s
User Question: %s

Please provide a short, friendly, and helpful tip (max 100 words) regarding the growth or care of this pet.
Focus on health, happiness, and community values.`

type AdviceRequest struct {
	PetType  string `json:"petType"`
	Age      string `json:"age"`
	Question string `json:"question"`
}

// Prompt renders the request into the text sent to a model.
func (r AdviceRequest) Prompt() string {
	return fmt.Sprintf(promptTemplate, strings.TrimSpace(r.PetType), strings.TrimSpace(r.Age), strings.TrimSpace(r.Question))
}

// Generator is a language model backend.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Advisor answers care questions. It never fails: backend problems turn into
// one of the fixed replies above.
type Advisor struct {
	gen    Generator
	logger *slog.Logger
}

// New returns an Advisor. A nil gen means no backend is configured.
func New(gen Generator, logger *slog.Logger) *Advisor {
	return &Advisor{gen: gen, logger: logger}
}

func (a *Advisor) Advise(ctx context.Context, req AdviceRequest) string {
	if a.gen == nil {
		return MissingBackendMessage
	}

	text, err := a.gen.Generate(ctx, req.Prompt())
	if err != nil {
		a.logger.Error("advisor backend failed", "error", err)
		return UnavailableMessage
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return EmptyAdviceMessage
	}
	return text
}
