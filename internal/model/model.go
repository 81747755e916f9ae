package model

import (
	"context"

	ctxpkg "github.com/fepfitra/mykisah/internal/context"
)

// Choice is one candidate completion returned by the model.
type Choice struct {
	Index        int            `json:"index"`
	Message      ctxpkg.Message `json:"message"`
	FinishReason string         `json:"finish_reason"`
}

// CompletionResponse is the common response model for model providers.
type CompletionResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Created int64    `json:"created"`
	Choices []Choice `json:"choices"`
}

// FirstContent returns the first choice's content. ok is false when the model
// returned no choices.
func (r *CompletionResponse) FirstContent() (content string, ok bool) {
	if r == nil || len(r.Choices) == 0 {
		return "", false
	}
	return r.Choices[0].Message.Content, true
}

// Provider is the model provider abstraction used by the router and console.
// Implementations prepend their context bundle to turns.
type Provider interface {
	ChatCompletion(ctx context.Context, turns []ctxpkg.Message) (*CompletionResponse, error)
}
