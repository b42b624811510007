package evaluation

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mwiater/promptlab/internal/appconfig"
	"github.com/mwiater/promptlab/internal/logging"
	"github.com/mwiater/promptlab/internal/providers"
	"github.com/mwiater/promptlab/internal/testcases"
)

// FullPrompt joins the prompt and a case input the way every completion receives them.
func FullPrompt(prompt, input string) string {
	return prompt + "\n\n" + input
}

// Produce runs prompt against every case and returns one record per case in input
// order. A failed completion becomes an error record; Produce itself only fails
// when ctx is cancelled.
func Produce(ctx context.Context, cfg appconfig.Config, completer providers.Completer, prompt string, cases []testcases.TestCase, progress func(done, total int)) ([]ResponseRecord, error) {
	records := make([]ResponseRecord, len(cases))

	var mu sync.Mutex
	done := 0
	report := func() {
		if progress == nil {
			return
		}
		mu.Lock()
		done++
		progress(done, len(cases))
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers())
	for i, tc := range cases {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			records[i] = produceOne(gctx, cfg, completer, prompt, tc)
			report()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func produceOne(ctx context.Context, cfg appconfig.Config, completer providers.Completer, prompt string, tc testcases.TestCase) ResponseRecord {
	record := ResponseRecord{
		CaseID:   tc.ID,
		Input:    tc.Input,
		Expected: tc.Expected,
		Metadata: tc.Metadata,
	}
	output, err := completer.Complete(ctx, providers.CompletionRequest{
		Model:       cfg.Model,
		Prompt:      FullPrompt(prompt, tc.Input),
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	})
	if err != nil {
		logging.LogWarn("case %s: completion failed: %v", tc.ID, err)
		record.Output = "ERROR: " + err.Error()
		record.Error = true
		return record
	}
	record.Output = output
	return record
}
