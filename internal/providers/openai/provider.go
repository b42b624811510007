// Package openai provides a Completer and Embedder for OpenAI-compatible APIs.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/mwiater/promptlab/internal/logging"
	"github.com/mwiater/promptlab/internal/providers"
)

// DefaultBaseURL is the public OpenAI API root.
const DefaultBaseURL = "https://api.openai.com/v1"

// Provider wraps a go-openai client.
type Provider struct {
	client  *goopenai.Client
	baseURL string
}

// New creates a Provider for baseURL authenticated with apiKey.
func New(baseURL, apiKey string, timeout time.Duration) *Provider {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	cfg := goopenai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = &http.Client{
		Transport: http.DefaultTransport,
		Timeout:   timeout,
	}
	return &Provider{
		client:  goopenai.NewClientWithConfig(cfg),
		baseURL: baseURL,
	}
}

// Complete sends req as a single user message through the chat completions endpoint.
func (p *Provider) Complete(ctx context.Context, req providers.CompletionRequest) (string, error) {
	chatReq := goopenai.ChatCompletionRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: req.Prompt},
		},
	}
	logging.LogRequest("PROMPTLAB->LLM", p.baseURL, req.Model, "", chatReq)

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", &providers.CompletionError{Provider: "openai", Model: req.Model, Err: err}
	}
	logging.LogRequest("LLM->PROMPTLAB", p.baseURL, req.Model, "", resp)
	if len(resp.Choices) == 0 {
		return "", &providers.CompletionError{Provider: "openai", Model: req.Model, Err: fmt.Errorf("response contained no choices")}
	}
	return resp.Choices[0].Message.Content, nil
}

// Embed returns one vector per text, ordered as the inputs.
func (p *Provider) Embed(ctx context.Context, model string, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := p.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Input: texts,
		Model: goopenai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings (model %s): %w", model, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}
	out := make([][]float64, len(texts))
	for i, item := range resp.Data {
		idx := item.Index
		if idx < 0 || idx >= len(out) {
			idx = i
		}
		vec := make([]float64, len(item.Embedding))
		for j, v := range item.Embedding {
			vec[j] = float64(v)
		}
		out[idx] = vec
	}
	return out, nil
}

// Embedder binds an embedding model to the provider so it satisfies providers.Embedder.
func (p *Provider) Embedder(model string) providers.Embedder {
	return providers.EmbedderFunc(func(ctx context.Context, texts []string) ([][]float64, error) {
		return p.Embed(ctx, model, texts)
	})
}
