// internal/providers/provider.go

// Package providers defines the interfaces promptlab uses to reach language-model services.
// Concrete backends (Anthropic, OpenAI-compatible, llama.cpp) live in sub-packages and are
// selected by the providerfactory package.
package providers

import (
	"context"
	"fmt"
)

// CompletionRequest is a single-turn completion call.
type CompletionRequest struct {
	Model       string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Completer turns a prompt into generated text.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Embedder maps texts to fixed-width vectors, one per input in the same order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// CompletionError wraps a failed provider call with the backend and model it targeted.
type CompletionError struct {
	Provider string
	Model    string
	Err      error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("%s completion (model %s): %v", e.Provider, e.Model, e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, req CompletionRequest) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return f(ctx, req)
}

// EmbedderFunc adapts a function to the Embedder interface.
type EmbedderFunc func(ctx context.Context, texts []string) ([][]float64, error)

// Embed calls f.
func (f EmbedderFunc) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	return f(ctx, texts)
}
