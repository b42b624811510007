// internal/commands/root.go
package promptlab

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/promptlab/internal/appconfig"
	"github.com/mwiater/promptlab/internal/logging"
	"github.com/mwiater/promptlab/internal/providerfactory"
)

// ErrEvaluationFailed is returned by evaluate when the run's summary is FAIL.
var ErrEvaluationFailed = errors.New("evaluation failed")

var (
	cfgFile       string
	currentConfig *appconfig.Config
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"
)

// flagKeys maps persistent flags to the configuration keys they override.
var flagKeys = map[string]string{
	"methods":  "evaluation_methods",
	"model":    "model",
	"provider": "provider",
	"debug":    "debug",
	"logFile":  "log_file",
	"parallel": "parallel_requests",
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "promptlab",
	Short:         "Evaluate and compare LLM prompts against labeled test cases",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)

	err := rootCmd.Execute()
	_ = logging.Close()
	if err != nil {
		if !errors.Is(err, ErrEvaluationFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	// Assigned here rather than in the rootCmd literal: loadConfig reads
	// rootCmd's flags, which would otherwise form an initialization cycle.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		currentConfig = &cfg

		if err := logging.Init(cfg.LogFilePath(), cfg.Debug); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.LogDebug("configuration loaded from %q", cfg.ConfigPath)
		return nil
	}
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file, JSON or YAML (default "+appconfig.DefaultConfigPath+" when present)")
	rootCmd.PersistentFlags().StringSlice("methods", nil, "evaluation methods to run (exact_match, consistency, quality, rouge)")
	rootCmd.PersistentFlags().String("model", "", "model used to generate completions")
	rootCmd.PersistentFlags().String("provider", "", "completion provider ("+strings.Join(providerfactory.CompletionProviders, ", ")+")")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("logFile", "", "path to the log file")
	rootCmd.PersistentFlags().Bool("parallel", false, "generate and grade completions concurrently")
}

// loadConfig layers defaults, the config file and changed flags into a validated Config.
func loadConfig() (appconfig.Config, error) {
	v := viper.New()
	appconfig.RegisterDefaults(v)

	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			return appconfig.Config{}, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	path := cfgFile
	if path == "" {
		if _, err := os.Stat(appconfig.DefaultConfigPath); err == nil {
			path = appconfig.DefaultConfigPath
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if strings.EqualFold(filepath.Ext(path), ".yml") {
			v.SetConfigType("yaml")
		}
		if err := v.ReadInConfig(); err != nil {
			return appconfig.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
	}
	return appconfig.FromViper(v)
}

// GetConfig returns the loaded application configuration for other packages.
func GetConfig() *appconfig.Config {
	return currentConfig
}

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}
