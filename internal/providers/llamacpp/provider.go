// internal/providers/llamacpp/provider.go
// Package llamacpp provides a Completer and Embedder backed by llama.cpp's OpenAI-compatible HTTP API.
package llamacpp

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
const DefaultBaseURL = "http://localhost:8080"

// Provider implements providers.Completer and providers.Embedder using llama.cpp HTTP APIs.
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

// EnsureModelReady triggers a load request when the router endpoints are available.
func (p *Provider) EnsureModelReady(ctx context.Context, model string) error {
	body, err := json.Marshal(map[string]any{"model": model})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	logging.LogRequest("PROMPTLAB->LLM", p.hostIdentifier(), model, "", body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/models/load", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	logging.LogRequest("LLM->PROMPTLAB", p.hostIdentifier(), model, "", respBody)

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusMethodNotAllowed {
		// Router endpoints not available; rely on auto-loading on first request.
		return nil
	}
	if resp.StatusCode >= 400 && !isAlreadyLoadedError(resp.StatusCode, respBody) {
		return fmt.Errorf("llama.cpp: /models/load returned %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}
	return nil
}

// Complete sends req as a single user message and returns the assistant reply.
func (p *Provider) Complete(ctx context.Context, req providers.CompletionRequest) (string, error) {
	text, err := p.complete(ctx, req)
	if err != nil {
		return "", &providers.CompletionError{Provider: "llamacpp", Model: req.Model, Err: err}
	}
	return text, nil
}

func (p *Provider) complete(ctx context.Context, req providers.CompletionRequest) (string, error) {
	if strings.TrimSpace(req.Model) != "" {
		if err := p.EnsureModelReady(ctx, req.Model); err != nil {
			return "", err
		}
	}

	payload := map[string]any{
		"model":       req.Model,
		"messages":    []chatMessage{{Role: "user", Content: req.Prompt}},
		"stream":      false,
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		payload["max_tokens"] = req.MaxTokens
	}

	var parsed chatResponse
	if err := p.postJSON(ctx, "/v1/chat/completions", req.Model, payload, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("llama.cpp: chat response contained no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// Embed returns one embedding per text using the /v1/embeddings endpoint.
func (p *Provider) Embed(ctx context.Context, model string, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	payload := map[string]any{"input": texts}
	if strings.TrimSpace(model) != "" {
		payload["model"] = model
	}

	var parsed embeddingResponse
	if err := p.postJSON(ctx, "/v1/embeddings", model, payload, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("llama.cpp: embedding response returned %d vectors for %d inputs", len(parsed.Data), len(texts))
	}
	out := make([][]float64, len(texts))
	for i, item := range parsed.Data {
		idx := item.Index
		if idx < 0 || idx >= len(out) {
			idx = i
		}
		if len(item.Embedding) == 0 {
			return nil, fmt.Errorf("llama.cpp: embedding response returned empty vector")
		}
		out[idx] = item.Embedding
	}
	return out, nil
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
		return fmt.Errorf("llama.cpp: %s returned %s: %s", path, resp.Status, strings.TrimSpace(string(raw)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("llama.cpp: decode %s response: %w", path, err)
	}
	return nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func isAlreadyLoadedError(statusCode int, body []byte) bool {
	if statusCode != http.StatusBadRequest {
		return false
	}
	text := strings.ToLower(strings.TrimSpace(string(body)))
	if strings.Contains(text, "already loaded") {
		return true
	}
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if strings.Contains(strings.ToLower(payload.Error.Message), "already loaded") {
			return true
		}
	}
	return false
}

// hostIdentifier returns host:port of the base URL, falling back to the raw URL.
func (p *Provider) hostIdentifier() string {
	if u, err := url.Parse(p.baseURL); err == nil && u.Host != "" {
		return u.Host
	}
	if p.baseURL != "" {
		return p.baseURL
	}
	return "llama.cpp-host"
}
