// internal/commands/knowledge.go
package promptlab

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwiater/promptlab/internal/appconfig"
	"github.com/mwiater/promptlab/internal/knowledge"
	"github.com/mwiater/promptlab/internal/testcases"
	"github.com/mwiater/promptlab/internal/util"
)

type prepareOptions struct {
	prompt      string
	testCases   string
	output      string
	searchTypes []string
}

var prepOpts prepareOptions

// knowledgeCmd groups the knowledge subcommands.
var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Prepare knowledge-graph material for evaluations",
}

// knowledgePrepareCmd writes the knowledge text and search queries for a prompt
// and its test cases without calling any model.
var knowledgePrepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Write knowledge text and search queries for a prompt",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runKnowledgePrepare(cmd, *GetConfig(), prepOpts)
	},
}

func init() {
	knowledgePrepareCmd.Flags().StringVarP(&prepOpts.prompt, "prompt", "p", "", "path to the prompt file")
	knowledgePrepareCmd.Flags().StringVarP(&prepOpts.testCases, "test-cases", "t", "", "path to the test cases file (JSON or YAML)")
	knowledgePrepareCmd.Flags().StringVarP(&prepOpts.output, "output", "o", "", "output file (default <prompt>_knowledge.json)")
	knowledgePrepareCmd.Flags().StringSliceVar(&prepOpts.searchTypes, "search-types", nil, "search types ("+strings.Join(knowledge.SearchTypes, ", ")+")")
	knowledgeCmd.AddCommand(knowledgePrepareCmd)
	rootCmd.AddCommand(knowledgeCmd)
}

func runKnowledgePrepare(cmd *cobra.Command, cfg appconfig.Config, opts prepareOptions) error {
	if err := requireFlag("prompt", opts.prompt); err != nil {
		return err
	}
	if err := requireFlag("test-cases", opts.testCases); err != nil {
		return err
	}
	if err := applyKnowledgeFlags(&cfg, false, opts.searchTypes); err != nil {
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

	prepared := knowledge.Prepare(prompt, cases, cfg)
	output := opts.output
	if output == "" {
		output = util.TrimExt(opts.prompt) + "_knowledge.json"
	}
	if err := knowledge.SavePrepared(output, prepared); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Knowledge text: %d characters from %d test cases\n", len(prepared.KnowledgeText), len(cases))
	fmt.Fprintf(out, "Search queries: %d (%s)\n", len(prepared.Queries), strings.Join(cfg.Knowledge.SearchTypes, ", "))
	fmt.Fprintf(out, "Prepared knowledge saved to: %s\n", output)
	return nil
}
