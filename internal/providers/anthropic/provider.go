// Package anthropic provides a Completer backed by the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/mwiater/promptlab/internal/logging"
	"github.com/mwiater/promptlab/internal/providers"
)

// Provider wraps an Anthropic SDK client.
type Provider struct {
	client sdk.Client
	host   string
}

// New creates a Provider. An empty apiKey defers to ANTHROPIC_API_KEY in the
// environment; an empty baseURL uses the public endpoint. The SDK's own retries
// are disabled so a failed call surfaces as a single per-case error.
func New(baseURL, apiKey string, timeout time.Duration) *Provider {
	opts := []option.RequestOption{
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	host := "api.anthropic.com"
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		opts = append(opts, option.WithBaseURL(baseURL))
		host = baseURL
	}
	return &Provider{client: sdk.NewClient(opts...), host: host}
}

// Complete sends req as a single user turn and concatenates the text blocks of the reply.
func (p *Provider) Complete(ctx context.Context, req providers.CompletionRequest) (string, error) {
	params := sdk.MessageNewParams{
		Model:       sdk.Model(req.Model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: sdk.Float(req.Temperature),
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt)),
		},
	}
	logging.LogRequest("PROMPTLAB->LLM", p.host, req.Model, "", map[string]any{
		"max_tokens":  req.MaxTokens,
		"temperature": req.Temperature,
		"prompt":      req.Prompt,
	})

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", &providers.CompletionError{Provider: "anthropic", Model: req.Model, Err: err}
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	logging.LogRequest("LLM->PROMPTLAB", p.host, req.Model, "", b.String())
	if b.Len() == 0 {
		return "", &providers.CompletionError{Provider: "anthropic", Model: req.Model, Err: fmt.Errorf("response contained no text blocks")}
	}
	return b.String(), nil
}
