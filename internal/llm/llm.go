// Package llm adapts interchangeable generation providers behind a single
// Generate contract. Providers never retry internally; retry policy belongs
// to the delivery channel so a redelivered job is never mistaken for one
// logical attempt.
package llm

import (
	"context"
	"fmt"

	"chat-pipeline/internal/domain"
)

// Usage carries the provider's token accounting for one generation call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Response is the result of one generation call. Content may be structured
// when the provider returns multi-part output.
type Response struct {
	Content domain.Content
	Usage   Usage
}

// Backend is the stateless generation capability: ordered role-tagged turns
// in, generated content plus usage out.
type Backend interface {
	Generate(ctx context.Context, turns []domain.ChatMessage) (Response, error)
	ModelID() string
}

// Error marks a failed or malformed provider response so callers can
// distinguish generation failures from storage failures.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("llm: %s: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
