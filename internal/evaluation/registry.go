package evaluation

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwiater/promptlab/internal/appconfig"
)

// Evaluator scores a batch of responses. Implementations never fail on a bad
// individual record; they skip it and reflect that in the returned result.
type Evaluator interface {
	Method() string
	Evaluate(ctx context.Context, responses []ResponseRecord, thresholds appconfig.Thresholds) MetricResult
}

// Registry maps method tags to evaluators and preserves registration order.
type Registry struct {
	order      []string
	evaluators map[string]Evaluator
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{evaluators: make(map[string]Evaluator)}
}

// Register adds e under its method tag.
func (r *Registry) Register(e Evaluator) error {
	method := e.Method()
	if _, exists := r.evaluators[method]; exists {
		return fmt.Errorf("evaluator %q already registered", method)
	}
	r.evaluators[method] = e
	r.order = append(r.order, method)
	return nil
}

// Methods lists registered tags in registration order.
func (r *Registry) Methods() []string {
	return append([]string(nil), r.order...)
}

// Select returns the evaluators for methods in registration order, so results
// come out in a stable order however the methods were requested.
func (r *Registry) Select(methods []string) ([]Evaluator, error) {
	wanted := make(map[string]bool, len(methods))
	var unknown []string
	for _, m := range methods {
		if _, ok := r.evaluators[m]; !ok {
			unknown = append(unknown, m)
			continue
		}
		wanted[m] = true
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown evaluation method(s): %s", strings.Join(unknown, ", "))
	}

	selected := make([]Evaluator, 0, len(wanted))
	for _, m := range r.order {
		if wanted[m] {
			selected = append(selected, r.evaluators[m])
		}
	}
	return selected, nil
}

// DefaultRegistry registers the built-in evaluators wired to the pipeline's services.
func DefaultRegistry(p Pipeline) *Registry {
	reg := NewRegistry()
	_ = reg.Register(ExactMatch{})
	_ = reg.Register(Consistency{Embedder: p.Embedder})
	_ = reg.Register(Quality{
		Grader:    p.Completer,
		Model:     p.Config.GraderModel,
		MaxTokens: p.Config.GraderMaxTokens,
		Workers:   p.Config.Workers(),
	})
	_ = reg.Register(Rouge{})
	return reg
}
