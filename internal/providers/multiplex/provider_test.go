// internal/providers/multiplex/provider_test.go
package multiplex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/promptlab/internal/providers"
)

func named(name string) providers.Completer {
	return providers.CompleterFunc(func(ctx context.Context, req providers.CompletionRequest) (string, error) {
		return name + ":" + req.Model, nil
	})
}

func TestCompleterRoutesByModel(t *testing.T) {
	t.Parallel()

	c := New(named("main"), map[string]providers.Completer{" Grader-Model ": named("grader")})

	tests := map[string]string{
		"grader-model": "grader:grader-model",
		"GRADER-MODEL": "grader:GRADER-MODEL",
		"gen-model":    "main:gen-model",
		"":             "main:",
	}
	for model, want := range tests {
		out, err := c.Complete(context.Background(), providers.CompletionRequest{Model: model})
		require.NoError(t, err)
		assert.Equal(t, want, out, model)
	}
}
