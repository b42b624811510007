// internal/providers/ollama/provider.go
// Package ollama provides a Completer and Embedder backed by Ollama HTTP endpoints.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mwiater/promptlab/internal/logging"
	"github.com/mwiater/promptlab/internal/providers"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:11434"

// Provider implements providers.Completer and providers.Embedder using Ollama HTTP APIs.
type Provider struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
}

// New constructs a Provider for the server at baseURL with a per-request timeout.
func New(baseURL string, timeout time.Duration) *Provider {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Provider{
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		},
		baseURL: baseURL,
		timeout: timeout,
	}
}

type psResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

type generateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	TotalDuration   int64  `json:"total_duration"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// LoadedModels returns the models currently loaded in memory on the host.
func (p *Provider) LoadedModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	endpoint := p.baseURL + "/api/ps"
	logging.LogRequest("PROMPTLAB->LLM", p.hostIdentifier(), "", "", map[string]string{"method": http.MethodGet, "url": endpoint})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama: /api/ps returned %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	logging.LogRequest("LLM->PROMPTLAB", p.hostIdentifier(), "", "", body)

	var ps psResponse
	if err := json.Unmarshal(body, &ps); err != nil {
		return nil, err
	}
	names := make([]string, len(ps.Models))
	for i, m := range ps.Models {
		names[i] = m.Name
	}
	return names, nil
}

// Complete sends req to /api/generate without streaming and returns the response text.
func (p *Provider) Complete(ctx context.Context, req providers.CompletionRequest) (string, error) {
	options := map[string]any{"temperature": req.Temperature}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}
	payload := map[string]any{
		"model":   req.Model,
		"prompt":  req.Prompt,
		"options": options,
		"stream":  false,
	}

	var result generateResponse
	if err := p.postJSON(ctx, "/api/generate", req.Model, payload, &result); err != nil {
		return "", &providers.CompletionError{Provider: "ollama", Model: req.Model, Err: err}
	}
	logging.LogDebug("ollama %s: prompt_tokens=%d eval_tokens=%d total=%s", req.Model, result.PromptEvalCount, result.EvalCount, time.Duration(result.TotalDuration))
	return result.Response, nil
}

// Embed returns one embedding per text using the /api/embed endpoint.
func (p *Provider) Embed(ctx context.Context, model string, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var result embedResponse
	if err := p.postJSON(ctx, "/api/embed", model, map[string]any{"model": model, "input": texts}, &result); err != nil {
		return nil, err
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama: embed returned %d vectors for %d inputs", len(result.Embeddings), len(texts))
	}
	return result.Embeddings, nil
}

// Embedder binds an embedding model to the provider so it satisfies providers.Embedder.
func (p *Provider) Embedder(model string) providers.Embedder {
	return providers.EmbedderFunc(func(ctx context.Context, texts []string) ([][]float64, error) {
		return p.Embed(ctx, model, texts)
	})
}

func (p *Provider) postJSON(ctx context.Context, path, model string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	logging.LogRequest("PROMPTLAB->LLM", p.hostIdentifier(), model, "", body)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	logging.LogRequest("LLM->PROMPTLAB", p.hostIdentifier(), model, "", raw)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama: %s returned %s: %s", path, resp.Status, strings.TrimSpace(string(raw)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("ollama: decode %s response: %w", path, err)
	}
	return nil
}

func (p *Provider) hostIdentifier() string {
	if u, err := url.Parse(p.baseURL); err == nil && u.Host != "" {
		return u.Host
	}
	return p.baseURL
}
