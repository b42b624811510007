// internal/providers/ollama/provider_test.go
package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/promptlab/internal/providers"
)

func TestProviderComplete(t *testing.T) {
	t.Parallel()

	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		_, _ = w.Write([]byte(`{"model":"llama3","response":"Paris","done":true,"eval_count":1}`))
	}))
	defer server.Close()

	out, err := New(server.URL, 5*time.Second).Complete(context.Background(), providers.CompletionRequest{
		Model:     "llama3",
		Prompt:    "Capital of France?",
		MaxTokens: 16,
	})
	require.NoError(t, err)
	assert.Equal(t, "Paris", out)
	assert.Equal(t, false, payload["stream"])
	assert.Equal(t, "Capital of France?", payload["prompt"])
	options := payload["options"].(map[string]any)
	assert.Equal(t, float64(16), options["num_predict"])
	assert.Equal(t, float64(0), options["temperature"])
}

func TestProviderCompleteErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	_, err := New(server.URL, time.Second).Complete(context.Background(), providers.CompletionRequest{Model: "missing", Prompt: "hi"})
	require.Error(t, err)

	var cerr *providers.CompletionError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "ollama", cerr.Provider)
	assert.Equal(t, "missing", cerr.Model)
	assert.Contains(t, err.Error(), "model not found")
}

func TestProviderEmbed(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		_, _ = w.Write([]byte(`{"embeddings":[[1,0],[0,1]]}`))
	}))
	defer server.Close()

	vectors, err := New(server.URL, time.Second).Embedder("nomic-embed-text").Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 0}, {0, 1}}, vectors)

	_, err = New(server.URL, time.Second).Embed(context.Background(), "m", []string{"a", "b", "c"})
	assert.ErrorContains(t, err, "3 inputs")
}

func TestLoadedModels(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ps", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3:8b"},{"name":"nomic-embed-text"}]}`))
	}))
	defer server.Close()

	names, err := New(server.URL, time.Second).LoadedModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3:8b", "nomic-embed-text"}, names)
}

func TestNewDefaultsBaseURL(t *testing.T) {
	t.Parallel()

	p := New("", time.Second)
	assert.Equal(t, DefaultBaseURL, p.baseURL)
	assert.Equal(t, "localhost:11434", p.hostIdentifier())
}
