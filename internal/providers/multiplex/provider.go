// internal/providers/multiplex/provider.go
// Package multiplex routes completion calls to different backends by model.
package multiplex

import (
	"context"
	"strings"

	"github.com/mwiater/promptlab/internal/providers"
)

// Completer delegates each request to the backend registered for its model and
// falls back to a default backend for unregistered models.
type Completer struct {
	fallback providers.Completer
	byModel  map[string]providers.Completer
}

// New constructs a Completer from a default backend and a map of model name to backend.
func New(fallback providers.Completer, byModel map[string]providers.Completer) *Completer {
	normalized := make(map[string]providers.Completer, len(byModel))
	for model, completer := range byModel {
		normalized[normalizeModel(model)] = completer
	}
	return &Completer{fallback: fallback, byModel: normalized}
}

// Complete routes req by req.Model.
func (c *Completer) Complete(ctx context.Context, req providers.CompletionRequest) (string, error) {
	return c.completerFor(req.Model).Complete(ctx, req)
}

func (c *Completer) completerFor(model string) providers.Completer {
	if completer, ok := c.byModel[normalizeModel(model)]; ok {
		return completer
	}
	return c.fallback
}

func normalizeModel(model string) string {
	return strings.ToLower(strings.TrimSpace(model))
}
