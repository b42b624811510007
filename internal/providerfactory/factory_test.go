// internal/providerfactory/factory_test.go
package providerfactory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/promptlab/internal/appconfig"
	"github.com/mwiater/promptlab/internal/metrics"
	"github.com/mwiater/promptlab/internal/providers"
	"github.com/mwiater/promptlab/internal/providers/anthropic"
	"github.com/mwiater/promptlab/internal/providers/llamacpp"
	"github.com/mwiater/promptlab/internal/providers/multiplex"
	"github.com/mwiater/promptlab/internal/providers/ollama"
	"github.com/mwiater/promptlab/internal/providers/openai"
)

func TestNormalizeProvider(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ProviderLlamaCpp, normalizeProvider(" llama.cpp "))
	assert.Equal(t, ProviderLlamaCpp, normalizeProvider("LlamaCpp"))
	assert.Equal(t, ProviderOpenAI, normalizeProvider("OpenAI"))
}

func TestNewCompleterSelectsBackend(t *testing.T) {
	t.Parallel()

	cfg := appconfig.Default()

	c, err := NewCompleter(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &anthropic.Provider{}, c)

	cfg.Provider = "openai"
	c, err = NewCompleter(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &openai.Provider{}, c)

	cfg.Provider = "llama.cpp"
	c, err = NewCompleter(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &llamacpp.Provider{}, c)

	cfg.Provider = "Ollama"
	c, err = NewCompleter(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &ollama.Provider{}, c)

	cfg.Provider = "bogus"
	_, err = NewCompleter(cfg, nil)
	assert.ErrorContains(t, err, "unsupported provider")
}

func TestNewCompleterWrapsWithMetrics(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models/load" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hi"}}]}`))
	}))
	defer server.Close()

	cfg := appconfig.Default()
	cfg.Provider = "llamacpp"
	cfg.BaseURL = server.URL

	agg := metrics.NewAggregator()
	c, err := NewCompleter(cfg, agg)
	require.NoError(t, err)
	assert.IsType(t, &metrics.Completer{}, c)

	out, err := c.Complete(context.Background(), providers.CompletionRequest{Model: "m", Prompt: "x", MaxTokens: 5})
	require.NoError(t, err)
	assert.Equal(t, "hi", out)
	require.Len(t, agg.Snapshot(), 1)
}

func TestNewEmbedder(t *testing.T) {
	t.Parallel()

	cfg := appconfig.Default()
	cfg.EmbeddingProvider = "none"
	e, err := NewEmbedder(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, e)

	cfg.EmbeddingProvider = "llamacpp"
	e, err = NewEmbedder(cfg, metrics.NewAggregator())
	require.NoError(t, err)
	assert.IsType(t, &metrics.Embedder{}, e)

	cfg.EmbeddingProvider = "anthropic"
	_, err = NewEmbedder(cfg, nil)
	assert.ErrorContains(t, err, "unsupported embedding provider")
}

func TestNewCompleterRoutesGrader(t *testing.T) {
	t.Parallel()

	main := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models/load" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Paris"}}]}`))
	}))
	defer main.Close()
	grader := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		_, _ = w.Write([]byte(`{"response":"5","done":true}`))
	}))
	defer grader.Close()

	cfg := appconfig.Default()
	cfg.Provider = "llamacpp"
	cfg.BaseURL = main.URL
	cfg.Model = "gen"
	cfg.GraderProvider = "ollama"
	cfg.GraderBaseURL = grader.URL
	cfg.GraderModel = "judge"

	c, err := NewCompleter(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &multiplex.Completer{}, c)

	out, err := c.Complete(context.Background(), providers.CompletionRequest{Model: "gen", Prompt: "q"})
	require.NoError(t, err)
	assert.Equal(t, "Paris", out)

	out, err = c.Complete(context.Background(), providers.CompletionRequest{Model: "judge", Prompt: "grade"})
	require.NoError(t, err)
	assert.Equal(t, "5", out)

	cfg.GraderProvider = "bogus"
	_, err = NewCompleter(cfg, nil)
	assert.ErrorContains(t, err, "grader: unsupported provider")
}
