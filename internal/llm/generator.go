// Package llm streams analyses from hosted text-generation models.
package llm

import (
	"context"
	"fmt"
)

// Request is one generation call.
type Request struct {
	Input string
	Model string
}

// Generator streams generated text. onChunk receives non-overlapping
// fragments in order; their concatenation is the full response.
type Generator interface {
	Stream(ctx context.Context, req Request, onChunk func(string)) error
}

// ErrorPrefix starts every message passed to a StreamText error callback.
const ErrorPrefix = "Failed to generate analysis. Error: "

// StreamText runs one generation with callback semantics: onChunk zero or
// more times, onError at most once, then onComplete exactly once.
func StreamText(ctx context.Context, g Generator, input, modelID string, onChunk func(string), onError func(string), onComplete func()) {
	defer onComplete()
	if err := g.Stream(ctx, Request{Input: input, Model: modelID}, onChunk); err != nil {
		onError(ErrorPrefix + err.Error())
	}
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// MissingKeyError is returned when a provider has no API key configured.
type MissingKeyError struct {
	Provider Provider
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("API key for provider %s is not configured", e.Provider)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
