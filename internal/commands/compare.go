// internal/commands/compare.go
package promptlab

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwiater/promptlab/internal/appconfig"
	"github.com/mwiater/promptlab/internal/comparison"
	"github.com/mwiater/promptlab/internal/console"
	"github.com/mwiater/promptlab/internal/logging"
	"github.com/mwiater/promptlab/internal/testcases"
)

type compareOptions struct {
	prompts   []string
	testCases string
	outputDir string
}

var compareOpts compareOptions

// compareCmd evaluates several prompt variants and ranks them.
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare prompt variants with significance tests",
	Long: `The 'compare' command evaluates two or more prompts against the same test cases,
tests every pair for statistically significant differences, ranks the prompts by a weighted
composite score and writes a JSON result and a markdown report to the output directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompare(cmd, *GetConfig(), compareOpts)
	},
}

func init() {
	compareCmd.Flags().StringSliceVar(&compareOpts.prompts, "prompts", nil, "paths to the prompt files (at least 2)")
	compareCmd.Flags().StringVarP(&compareOpts.testCases, "test-cases", "t", "", "path to the test cases file (JSON or YAML)")
	compareCmd.Flags().StringVarP(&compareOpts.outputDir, "output-dir", "o", "", "output directory (default comparison_results_<timestamp>)")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, cfg appconfig.Config, opts compareOptions) error {
	if len(opts.prompts) < 2 {
		return comparison.ErrTooFewPrompts
	}
	if err := requireFlag("test-cases", opts.testCases); err != nil {
		return err
	}

	variants := make([]comparison.Variant, 0, len(opts.prompts))
	for _, path := range opts.prompts {
		prompt, err := testcases.LoadPrompt(path)
		if err != nil {
			return err
		}
		variants = append(variants, comparison.Variant{Path: path, Prompt: prompt})
	}
	cases, err := testcases.Load(opts.testCases)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	console.ComparisonHeader(out, opts.prompts)

	pipeline, aggregator, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	var bar *console.Progress
	pipeline.Progress = func(done, total int) {
		if bar != nil {
			bar.Update(done, total)
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	result, err := comparison.Compare(ctx, pipeline, comparison.Input{
		Variants:      variants,
		TestCasesPath: opts.testCases,
		Cases:         cases,
		OnVariant: func(index int, promptID, path string) {
			fmt.Fprintf(out, "\nEvaluating %s (%d/%d): %s\n", promptID, index+1, len(variants), path)
			bar = console.NewProgress(cmd.ErrOrStderr(), "Generating")
		},
	})
	if err != nil {
		return err
	}

	dir := opts.outputDir
	if dir == "" {
		dir = comparison.DefaultOutputDir(time.Now())
	}
	if err := comparison.WriteArtifacts(dir, result, cfg.Metrics); err != nil {
		return err
	}
	if err := saveMetrics(cfg, aggregator); err != nil {
		logging.LogWarn("%v", err)
	}

	console.ComparisonSummary(out, result, dir)
	return nil
}
