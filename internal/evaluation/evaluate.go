package evaluation

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/mwiater/promptlab/internal/appconfig"
	"github.com/mwiater/promptlab/internal/logging"
	"github.com/mwiater/promptlab/internal/providers"
	"github.com/mwiater/promptlab/internal/testcases"
	"github.com/mwiater/promptlab/internal/util"
)

// Pipeline bundles the configuration and services one evaluation run needs.
type Pipeline struct {
	Config    appconfig.Config
	Completer providers.Completer
	Embedder  providers.Embedder
	// Registry defaults to DefaultRegistry when nil.
	Registry *Registry
	Progress func(done, total int)
}

// Input names the prompt and cases being evaluated.
type Input struct {
	Prompt        string
	PromptPath    string
	TestCasesPath string
	Cases         []testcases.TestCase
}

// Evaluate produces completions for every case, runs the configured evaluators and
// summarizes the outcome. A FAIL summary is not an error.
func Evaluate(ctx context.Context, p Pipeline, in Input) (EvaluationResult, error) {
	if p.Completer == nil {
		return EvaluationResult{}, errors.New("evaluation: no completer configured")
	}
	if len(in.Cases) == 0 {
		return EvaluationResult{}, testcases.ErrNoCases
	}

	reg := p.Registry
	if reg == nil {
		reg = DefaultRegistry(p)
	}
	evaluators, err := reg.Select(p.Config.EvaluationMethods)
	if err != nil {
		return EvaluationResult{}, err
	}

	result := EvaluationResult{
		RunID:          uuid.NewString(),
		Timestamp:      time.Now().UTC(),
		PromptPath:     in.PromptPath,
		TestCasesPath:  in.TestCasesPath,
		TestCasesCount: len(in.Cases),
		Config:         p.Config,
	}
	logging.LogEvent("run %s: evaluating %s against %d test cases", result.RunID, displayPath(in.PromptPath), len(in.Cases))

	responses, err := Produce(ctx, p.Config, p.Completer, in.Prompt, in.Cases, p.Progress)
	if err != nil {
		return EvaluationResult{}, fmt.Errorf("produce completions: %w", err)
	}
	result.Responses = responses

	for _, ev := range evaluators {
		logging.LogDebug("run %s: running %s evaluation", result.RunID, ev.Method())
		result.Results.Add(ev.Evaluate(ctx, responses, p.Config.Metrics))
	}
	result.Summary = Summarize(result.Results)
	logging.LogEvent("run %s: overall status %s", result.RunID, result.Summary.OverallStatus)
	return result, nil
}

func displayPath(path string) string {
	if path == "" {
		return "prompt"
	}
	return filepath.Base(path)
}

// DefaultOutputPath returns evaluation_results_<timestamp>.json for t.
func DefaultOutputPath(t time.Time) string {
	return fmt.Sprintf("evaluation_results_%s.json", t.Format("20060102_150405"))
}

// Save writes the result as indented JSON.
func Save(path string, result EvaluationResult) error {
	if err := util.WriteJSON(path, result); err != nil {
		return fmt.Errorf("save evaluation results: %w", err)
	}
	return nil
}

// WriteResponsesLog writes one ResponseRecord per line.
func WriteResponsesLog(path string, responses []ResponseRecord) (err error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create response log directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create response log: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, r := range responses {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode response %s: %w", r.CaseID, err)
		}
	}
	return w.Flush()
}
