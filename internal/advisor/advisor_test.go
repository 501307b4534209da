package advisor

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubGenerator struct {
	text   string
	err    error
	prompt string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.text, s.err
}

func TestAdviseReturnsGeneratedText(t *testing.T) {
	gen := &stubGenerator{text: "  Short walks twice a day keep joints happy.\n"}
	a := New(gen, slog.Default())

	got := a.Advise(context.Background(), AdviceRequest{PetType: "金毛寻回犬", Age: "2岁", Question: "How much exercise?"})

	assert.Equal(t, "Short walks twice a day keep joints happy.", got)
	assert.Contains(t, gen.prompt, "User's Pet: 金毛寻回犬")
	assert.Contains(t, gen.prompt, "Age: 2岁")
	assert.Contains(t, gen.prompt, "User Question: How much exercise?")
}

func TestAdviseWithoutBackend(t *testing.T) {
	a := New(nil, slog.Default())

	assert.Equal(t, MissingBackendMessage, a.Advise(context.Background(), AdviceRequest{Question: "?"}))
}

func TestAdviseBackendError(t *testing.T) {
	a := New(&stubGenerator{err: errors.New("connection refused")}, slog.Default())

	assert.Equal(t, UnavailableMessage, a.Advise(context.Background(), AdviceRequest{Question: "?"}))
}

func TestAdviseEmptyResponse(t *testing.T) {
	a := New(&stubGenerator{text: "   "}, slog.Default())

	assert.Equal(t, EmptyAdviceMessage, a.Advise(context.Background(), AdviceRequest{Question: "?"}))
}
