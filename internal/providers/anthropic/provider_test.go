package anthropic

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

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-test", body["model"])
		assert.Equal(t, float64(10), body["max_tokens"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",
			"content":[{"type":"text","text":"4"}],"stop_reason":"end_turn",
			"usage":{"input_tokens":3,"output_tokens":1}}`))
	}))
	defer server.Close()

	p := New(server.URL, "test-key", 5*time.Second)
	out, err := p.Complete(context.Background(), providers.CompletionRequest{
		Model:     "claude-test",
		Prompt:    "Rate this",
		MaxTokens: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "4", out)
}

func TestProviderCompleteError(t *testing.T) {
	t.Parallel()

	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"overloaded"}}`))
	}))
	defer server.Close()

	_, err := New(server.URL, "k", 5*time.Second).Complete(context.Background(), providers.CompletionRequest{Model: "m", Prompt: "x", MaxTokens: 5})
	require.Error(t, err)

	var cerr *providers.CompletionError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "anthropic", cerr.Provider)
	assert.Equal(t, 1, calls, "no retries")
}
