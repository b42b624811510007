// internal/commands/show_config.go
package promptlab

import (
	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"

	"github.com/mwiater/promptlab/internal/appconfig"
)

var showRaw bool

// showCmd groups the show subcommands.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show information about the current setup",
}

// showConfigCmd implements the 'show config' command, which displays the current configuration settings.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long:  `Show config settings ensuring that the config file is loaded properly and overridden by flags accordingly.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := GetConfig()
		if showRaw {
			_, _ = pp.Fprintln(cmd.OutOrStdout(), *cfg)
			return
		}
		appconfig.ShowConfig(cmd.OutOrStdout(), *cfg)
	},
}

func init() {
	showConfigCmd.Flags().BoolVar(&showRaw, "raw", false, "dump the merged configuration struct")
	showCmd.AddCommand(showConfigCmd)
	rootCmd.AddCommand(showCmd)
}
