// internal/metrics/provider.go
package metrics

import (
	"context"
	"time"

	"github.com/mwiater/promptlab/internal/providers"
)

// Completer is a decorator that wraps a providers.Completer to record call metrics.
type Completer struct {
	wrapped    providers.Completer
	aggregator *Aggregator
}

// NewCompleter creates a metrics-enabled Completer around wrapped.
func NewCompleter(wrapped providers.Completer, aggregator *Aggregator) *Completer {
	return &Completer{wrapped: wrapped, aggregator: aggregator}
}

// Complete times the wrapped call and records its outcome.
func (c *Completer) Complete(ctx context.Context, req providers.CompletionRequest) (string, error) {
	start := time.Now()
	out, err := c.wrapped.Complete(ctx, req)
	if c.aggregator != nil {
		c.aggregator.Record(req.Model, KindCompletion, time.Since(start), len(out), err)
	}
	return out, err
}

// Embedder is a decorator that wraps a providers.Embedder to record call metrics.
type Embedder struct {
	wrapped    providers.Embedder
	model      string
	aggregator *Aggregator
}

// NewEmbedder creates a metrics-enabled Embedder around wrapped. model labels the records.
func NewEmbedder(wrapped providers.Embedder, model string, aggregator *Aggregator) *Embedder {
	return &Embedder{wrapped: wrapped, model: model, aggregator: aggregator}
}

// Embed times the wrapped call and records its outcome.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	start := time.Now()
	out, err := e.wrapped.Embed(ctx, texts)
	if e.aggregator != nil {
		e.aggregator.Record(e.model, KindEmbedding, time.Since(start), len(out), err)
	}
	return out, err
}
