// internal/commands/list.go
package promptlab

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mwiater/promptlab/internal/appconfig"
)

// listCmd groups the list subcommands.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List commands and evaluation methods",
}

// commandsCmd implements 'list commands': the command tree with each command's
// own flags.
var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List all commands with their flags",
	RunE: func(cmd *cobra.Command, args []string) error {
		return renderCommandRows(cmd.OutOrStdout(), commandRows(rootCmd, 0))
	},
}

var methodDescriptions = map[string]string{
	appconfig.MethodExactMatch:  "trimmed, case-insensitive match against the expected answer",
	appconfig.MethodConsistency: "mean pairwise cosine similarity of response embeddings",
	appconfig.MethodQuality:     "1-5 grade assigned by the grader model",
	appconfig.MethodRouge:       "ROUGE-1/2/L F-measure against the expected answer (no threshold)",
}

// methodsCmd implements 'list methods'; enabled methods are starred.
var methodsCmd = &cobra.Command{
	Use:   "methods",
	Short: "List the available evaluation methods",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := GetConfig()
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Evaluation methods:")
		for _, m := range appconfig.KnownMethods {
			mark := " "
			if cfg != nil && cfg.HasMethod(m) {
				mark = "*"
			}
			fmt.Fprintf(out, "  %s %-12s %s\n", mark, m, methodDescriptions[m])
		}
	},
}

func init() {
	listCmd.AddCommand(commandsCmd)
	listCmd.AddCommand(methodsCmd)
	rootCmd.AddCommand(listCmd)
}

// commandRow is one line of 'list commands'.
type commandRow struct {
	Path  string
	Depth int
	Flags []string
	Short string
}

// commandRows walks cmd depth-first. Hidden, help and completion commands are skipped.
func commandRows(cmd *cobra.Command, depth int) []commandRow {
	rows := []commandRow{{Path: cmd.CommandPath(), Depth: depth, Flags: localFlags(cmd), Short: cmd.Short}}
	for _, sub := range cmd.Commands() {
		if !sub.IsAvailableCommand() || sub.Name() == "help" || sub.Name() == "completion" {
			continue
		}
		rows = append(rows, commandRows(sub, depth+1)...)
	}
	return rows
}

// localFlags returns the sorted non-persistent flags defined on cmd itself.
func localFlags(cmd *cobra.Command) []string {
	var names []string
	cmd.LocalNonPersistentFlags().VisitAll(func(f *pflag.Flag) {
		if f.Hidden || f.Name == "help" {
			return
		}
		names = append(names, "--"+f.Name)
	})
	return names
}

func renderCommandRows(out io.Writer, rows []commandRow) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COMMAND\tFLAGS\tDESCRIPTION")
	for _, r := range rows {
		flags := "-"
		if len(r.Flags) > 0 {
			flags = strings.Join(r.Flags, " ")
		}
		fmt.Fprintf(tw, "%s%s\t%s\t%s\n", strings.Repeat("  ", r.Depth), r.Path, flags, r.Short)
	}
	return tw.Flush()
}
