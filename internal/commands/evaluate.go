// internal/commands/evaluate.go
package promptlab

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwiater/promptlab/internal/appconfig"
	"github.com/mwiater/promptlab/internal/console"
	"github.com/mwiater/promptlab/internal/evaluation"
	"github.com/mwiater/promptlab/internal/knowledge"
	"github.com/mwiater/promptlab/internal/logging"
	"github.com/mwiater/promptlab/internal/testcases"
)

type evaluateOptions struct {
	prompt       string
	testCases    string
	output       string
	responsesLog string
	knowledge    bool
	searchTypes  []string
}

var evalOpts evaluateOptions

// evaluateCmd runs one prompt against a test-case file and scores the completions.
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a prompt against a test-case file",
	Long: `The 'evaluate' command sends the prompt combined with each test case input to the
configured model, scores the completions with the configured evaluation methods and writes
the results as JSON. It exits with status 1 when any threshold is not met.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEvaluate(cmd, *GetConfig(), evalOpts)
	},
}

func init() {
	evaluateCmd.Flags().StringVarP(&evalOpts.prompt, "prompt", "p", "", "path to the prompt file")
	evaluateCmd.Flags().StringVarP(&evalOpts.testCases, "test-cases", "t", "", "path to the test cases file (JSON or YAML)")
	evaluateCmd.Flags().StringVarP(&evalOpts.output, "output", "o", "", "results file (default evaluation_results_<timestamp>.json)")
	evaluateCmd.Flags().StringVar(&evalOpts.responsesLog, "responses-log", "", "write every model response to this JSONL file")
	evaluateCmd.Flags().BoolVar(&evalOpts.knowledge, "knowledge", false, "run knowledge analysis after the evaluation")
	evaluateCmd.Flags().StringSliceVar(&evalOpts.searchTypes, "search-types", nil, "knowledge search types ("+strings.Join(knowledge.SearchTypes, ", ")+")")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, cfg appconfig.Config, opts evaluateOptions) error {
	if err := requireFlag("prompt", opts.prompt); err != nil {
		return err
	}
	if err := requireFlag("test-cases", opts.testCases); err != nil {
		return err
	}
	if err := applyKnowledgeFlags(&cfg, opts.knowledge, opts.searchTypes); err != nil {
		return err
	}

	prompt, err := testcases.LoadPrompt(opts.prompt)
	if err != nil {
		return err
	}
	cases, err := testcases.Load(opts.testCases)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	console.EvaluationHeader(out, opts.prompt, len(cases), cfg.EvaluationMethods)

	pipeline, aggregator, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	pipeline.Progress = console.NewProgress(cmd.ErrOrStderr(), "Generating").Update

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	result, err := evaluation.Evaluate(ctx, pipeline, evaluation.Input{
		Prompt:        prompt,
		PromptPath:    opts.prompt,
		TestCasesPath: opts.testCases,
		Cases:         cases,
	})
	if err != nil {
		return err
	}

	output := opts.output
	if output == "" {
		output = evaluation.DefaultOutputPath(time.Now())
	}
	if err := evaluation.Save(output, result); err != nil {
		return err
	}
	if opts.responsesLog != "" {
		if err := evaluation.WriteResponsesLog(opts.responsesLog, result.Responses); err != nil {
			return err
		}
	}

	console.EvaluationSummary(out, result, output)

	if cfg.Knowledge.Enabled {
		if err := runKnowledgeAnalysis(ctx, cmd, cfg, prompt, cases, result, output); err != nil {
			// Knowledge analysis is supplementary; the evaluation verdict stands.
			logging.LogWarn("knowledge analysis failed: %v", err)
			fmt.Fprintf(cmd.ErrOrStderr(), "Knowledge analysis failed: %v\n", err)
		}
	}

	if err := saveMetrics(cfg, aggregator); err != nil {
		logging.LogWarn("%v", err)
	}

	if !result.Summary.Passed() {
		return ErrEvaluationFailed
	}
	return nil
}

func runKnowledgeAnalysis(ctx context.Context, cmd *cobra.Command, cfg appconfig.Config, prompt string, cases []testcases.TestCase, result evaluation.EvaluationResult, output string) error {
	client, closeClient, err := knowledge.NewClient(ctx, cfg.Knowledge)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeClient(); cerr != nil {
			logging.LogWarn("close knowledge client: %v", cerr)
		}
	}()

	report, err := knowledge.Analyze(ctx, client, cfg, prompt, cases, result)
	if err != nil {
		return err
	}
	path := knowledge.InsightsPath(output)
	if err := knowledge.Save(path, report); err != nil {
		return err
	}
	console.KnowledgeSummary(cmd.OutOrStdout(), report, path)
	return nil
}

// applyKnowledgeFlags turns on knowledge analysis and overrides its search types.
func applyKnowledgeFlags(cfg *appconfig.Config, enable bool, searchTypes []string) error {
	if enable {
		cfg.Knowledge.Enabled = true
	}
	if len(searchTypes) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(searchTypes))
	for _, st := range searchTypes {
		st = strings.ToUpper(strings.TrimSpace(st))
		if !knowledge.IsKnownSearchType(st) {
			return fmt.Errorf("unknown search type %q (known: %s)", st, strings.Join(knowledge.SearchTypes, ", "))
		}
		normalized = append(normalized, st)
	}
	cfg.Knowledge.SearchTypes = normalized
	return nil
}
