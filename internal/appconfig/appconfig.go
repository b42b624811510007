// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.yaml"
	// defaultRequestTimeout is the default timeout for provider requests.
	defaultRequestTimeout = 30 * time.Second
	// defaultConcurrency bounds parallel completions when parallel_requests is enabled.
	defaultConcurrency = 4
	// defaultKnowledgeInitTimeout bounds the MCP initialize handshake.
	defaultKnowledgeInitTimeout = 10 * time.Second
)

// Evaluation method tags understood by the evaluator registry.
const (
	MethodExactMatch  = "exact_match"
	MethodConsistency = "consistency"
	MethodQuality     = "quality"
	MethodRouge       = "rouge"
)

// KnownMethods lists every evaluation method tag in registry order.
var KnownMethods = []string{MethodExactMatch, MethodConsistency, MethodQuality, MethodRouge}

// Config represents the top-level application configuration. It is built once per run
// and passed by value; nothing mutates it after Validate succeeds.
type Config struct {
	Provider          string           `json:"provider" mapstructure:"provider"`
	BaseURL           string           `json:"base_url,omitempty" mapstructure:"base_url"`
	APIKeyEnv         string           `json:"api_key_env,omitempty" mapstructure:"api_key_env"`
	Model             string           `json:"model" mapstructure:"model"`
	MaxTokens         int              `json:"max_tokens" mapstructure:"max_tokens"`
	Temperature       float64          `json:"temperature" mapstructure:"temperature"`
	GraderModel       string           `json:"grader_model" mapstructure:"grader_model"`
	GraderMaxTokens   int              `json:"grader_max_tokens" mapstructure:"grader_max_tokens"`
	GraderProvider    string           `json:"grader_provider,omitempty" mapstructure:"grader_provider"`
	GraderBaseURL     string           `json:"grader_base_url,omitempty" mapstructure:"grader_base_url"`
	EmbeddingProvider string           `json:"embedding_provider" mapstructure:"embedding_provider"`
	EmbeddingModel    string           `json:"embedding_model" mapstructure:"embedding_model"`
	EmbeddingBaseURL  string           `json:"embedding_base_url,omitempty" mapstructure:"embedding_base_url"`
	EvaluationMethods []string         `json:"evaluation_methods" mapstructure:"evaluation_methods"`
	Metrics           Thresholds       `json:"metrics" mapstructure:"metrics"`
	Comparison        ComparisonConfig `json:"comparison" mapstructure:"comparison"`
	TimeoutSeconds    int              `json:"timeout" mapstructure:"timeout"`
	ParallelRequests  bool             `json:"parallel_requests" mapstructure:"parallel_requests"`
	Concurrency       int              `json:"concurrency" mapstructure:"concurrency"`
	Debug             bool             `json:"debug" mapstructure:"debug"`
	LogFile           string           `json:"log_file,omitempty" mapstructure:"log_file"`
	MetricsFile       string           `json:"metrics_file,omitempty" mapstructure:"metrics_file"`
	Knowledge         KnowledgeConfig  `json:"knowledge" mapstructure:"knowledge"`
	ConfigPath        string           `json:"-" mapstructure:"-"`
}

// Thresholds holds the pass/fail cut-offs applied by the metric evaluators.
type Thresholds struct {
	AccuracyThreshold    float64 `json:"accuracy_threshold" mapstructure:"accuracy_threshold"`
	ConsistencyThreshold float64 `json:"consistency_threshold" mapstructure:"consistency_threshold"`
	QualityThreshold     float64 `json:"quality_threshold" mapstructure:"quality_threshold"`
}

// ComparisonConfig controls the pairwise statistical comparison of prompt variants.
type ComparisonConfig struct {
	SignificanceLevel float64             `json:"significance_level" mapstructure:"significance_level"`
	MinimumSampleSize int                 `json:"minimum_sample_size" mapstructure:"minimum_sample_size"`
	Visualization     VisualizationConfig `json:"visualization" mapstructure:"visualization"`
}

// VisualizationConfig controls the comparison chart written next to the report.
type VisualizationConfig struct {
	SavePlots  bool   `json:"save_plots" mapstructure:"save_plots"`
	PlotFormat string `json:"plot_format" mapstructure:"plot_format"`
	PlotDPI    int    `json:"plot_dpi" mapstructure:"plot_dpi"`
}

// PlotFormats lists the accepted plot_format values.
var PlotFormats = []string{"png", "jpg", "jpeg", "tif", "tiff", "svg", "pdf", "eps"}

// Format returns the lower-cased plot format, png when unset.
func (v VisualizationConfig) Format() string {
	if f := strings.ToLower(strings.TrimSpace(v.PlotFormat)); f != "" {
		return f
	}
	return "png"
}

// DPI returns the raster resolution, 300 when unset.
func (v VisualizationConfig) DPI() int {
	if v.PlotDPI <= 0 {
		return 300
	}
	return v.PlotDPI
}

// KnowledgeConfig controls preparation of knowledge-graph material.
type KnowledgeConfig struct {
	Enabled         bool     `json:"enabled" mapstructure:"enabled"`
	SearchTypes     []string `json:"search_types" mapstructure:"search_types"`
	// KnowledgeWeight is the share of insight relevance in the knowledge-weighted score.
	KnowledgeWeight float64 `json:"knowledge_weight" mapstructure:"knowledge_weight"`
	// Client selects the knowledge service backend: none, simulated or mcp.
	Client string `json:"client" mapstructure:"client"`
	// ServerCommand launches an MCP server speaking stdio when Client is mcp.
	ServerCommand      []string `json:"server_command,omitempty" mapstructure:"server_command"`
	InitTimeoutSeconds int      `json:"init_timeout,omitempty" mapstructure:"init_timeout"`
}

// Knowledge service backends.
const (
	KnowledgeClientNone      = "none"
	KnowledgeClientSimulated = "simulated"
	KnowledgeClientMCP       = "mcp"
)

// InitTimeout returns how long to wait for the knowledge server handshake.
func (k KnowledgeConfig) InitTimeout() time.Duration {
	if k.InitTimeoutSeconds <= 0 {
		return defaultKnowledgeInitTimeout
	}
	return time.Duration(k.InitTimeoutSeconds) * time.Second
}

// RequestTimeout returns the timeout for provider requests, falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Workers returns the number of concurrent completions allowed for a run.
func (c Config) Workers() int {
	if !c.ParallelRequests {
		return 1
	}
	if c.Concurrency <= 0 {
		return defaultConcurrency
	}
	return c.Concurrency
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "promptlab.log"
}

// APIKey resolves the provider API key from the configured environment variable.
func (c Config) APIKey() string {
	return c.APIKeyFor(c.Provider)
}

// APIKeyFor resolves the API key for provider. api_key_env applies to the main
// provider; other providers read their conventional variable.
func (c Config) APIKeyFor(provider string) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	name := ""
	if provider == strings.ToLower(strings.TrimSpace(c.Provider)) {
		name = strings.TrimSpace(c.APIKeyEnv)
	}
	if name == "" {
		switch provider {
		case "anthropic":
			name = "ANTHROPIC_API_KEY"
		case "openai":
			name = "OPENAI_API_KEY"
		default:
			return ""
		}
	}
	return os.Getenv(name)
}

// HasMethod reports whether the named evaluation method is enabled.
func (c Config) HasMethod(method string) bool {
	for _, m := range c.EvaluationMethods {
		if m == method {
			return true
		}
	}
	return false
}

// Validate checks the merged configuration for values the pipeline cannot run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Model) == "" {
		errs = append(errs, errors.New("model must not be empty"))
	}
	if len(c.EvaluationMethods) == 0 {
		errs = append(errs, errors.New("evaluation_methods must list at least one method"))
	}
	for _, m := range c.EvaluationMethods {
		if !isKnownMethod(m) {
			errs = append(errs, fmt.Errorf("unknown evaluation method %q (known: %s)", m, strings.Join(KnownMethods, ", ")))
		}
	}
	if c.Metrics.AccuracyThreshold < 0 || c.Metrics.AccuracyThreshold > 1 {
		errs = append(errs, fmt.Errorf("metrics.accuracy_threshold must be within [0,1], got %v", c.Metrics.AccuracyThreshold))
	}
	if c.Metrics.ConsistencyThreshold < -1 || c.Metrics.ConsistencyThreshold > 1 {
		errs = append(errs, fmt.Errorf("metrics.consistency_threshold must be within [-1,1], got %v", c.Metrics.ConsistencyThreshold))
	}
	if c.Metrics.QualityThreshold < 1 || c.Metrics.QualityThreshold > 5 {
		errs = append(errs, fmt.Errorf("metrics.quality_threshold must be within [1,5], got %v", c.Metrics.QualityThreshold))
	}
	if c.Comparison.SignificanceLevel <= 0 || c.Comparison.SignificanceLevel >= 1 {
		errs = append(errs, fmt.Errorf("comparison.significance_level must be within (0,1), got %v", c.Comparison.SignificanceLevel))
	}
	if !slices.Contains(PlotFormats, c.Comparison.Visualization.Format()) {
		errs = append(errs, fmt.Errorf("comparison.visualization.plot_format %q is not supported (known: %s)", c.Comparison.Visualization.PlotFormat, strings.Join(PlotFormats, ", ")))
	}
	if c.Knowledge.KnowledgeWeight < 0 || c.Knowledge.KnowledgeWeight > 1 {
		errs = append(errs, fmt.Errorf("knowledge.knowledge_weight must be within [0,1], got %v", c.Knowledge.KnowledgeWeight))
	}
	switch strings.ToLower(strings.TrimSpace(c.Knowledge.Client)) {
	case "", KnowledgeClientNone, KnowledgeClientSimulated:
	case KnowledgeClientMCP:
		if c.Knowledge.Enabled && len(c.Knowledge.ServerCommand) == 0 {
			errs = append(errs, errors.New("knowledge.server_command is required when knowledge.client is mcp"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown knowledge.client %q (known: none, simulated, mcp)", c.Knowledge.Client))
	}
	if c.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens))
	}
	return errors.Join(errs...)
}

func isKnownMethod(method string) bool {
	for _, m := range KnownMethods {
		if m == method {
			return true
		}
	}
	return false
}

// RegisterDefaults installs the built-in defaults on a viper instance. Values from a
// config file and from bound flags layer on top of these.
func RegisterDefaults(v *viper.Viper) {
	v.SetDefault("provider", "anthropic")
	v.SetDefault("model", "claude-3-opus-20240229")
	v.SetDefault("max_tokens", 2048)
	v.SetDefault("temperature", 0.0)
	v.SetDefault("grader_model", "claude-3-haiku-20240307")
	v.SetDefault("grader_max_tokens", 10)
	v.SetDefault("embedding_provider", "openai")
	v.SetDefault("embedding_model", "text-embedding-3-small")
	v.SetDefault("evaluation_methods", []string{MethodExactMatch, MethodConsistency, MethodQuality})
	v.SetDefault("metrics.accuracy_threshold", 0.85)
	v.SetDefault("metrics.consistency_threshold", 0.8)
	v.SetDefault("metrics.quality_threshold", 4.0)
	v.SetDefault("comparison.significance_level", 0.05)
	v.SetDefault("comparison.minimum_sample_size", 30)
	v.SetDefault("comparison.visualization.save_plots", true)
	v.SetDefault("comparison.visualization.plot_format", "png")
	v.SetDefault("comparison.visualization.plot_dpi", 300)
	v.SetDefault("timeout", int(defaultRequestTimeout.Seconds()))
	v.SetDefault("parallel_requests", false)
	v.SetDefault("concurrency", defaultConcurrency)
	v.SetDefault("debug", false)
	v.SetDefault("knowledge.enabled", false)
	v.SetDefault("knowledge.search_types", []string{"GRAPH_COMPLETION", "INSIGHTS"})
	v.SetDefault("knowledge.knowledge_weight", 0.3)
	v.SetDefault("knowledge.client", KnowledgeClientSimulated)
}

// FromViper materializes the merged viper state into a validated Config.
func FromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ConfigPath = v.ConfigFileUsed()
	cfg.EvaluationMethods = normalizeMethods(cfg.EvaluationMethods)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration produced by the built-in defaults alone.
func Default() Config {
	v := viper.New()
	RegisterDefaults(v)
	cfg, err := FromViper(v)
	if err != nil {
		// The defaults are static; failing here is a programming error.
		panic(err)
	}
	return cfg
}

// Load reads the configuration file at path on top of the defaults. An empty path
// yields the defaults; a missing explicit path is an error.
func Load(path string) (Config, error) {
	v := viper.New()
	RegisterDefaults(v)
	if strings.TrimSpace(path) != "" {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("no configuration file found at %q", path)
			}
			return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
		}
		v.SetConfigFile(path)
		if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext == "yml" {
			v.SetConfigType("yaml")
		}
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
		}
	}
	return FromViper(v)
}

// normalizeMethods trims, lowercases and de-duplicates method tags, accepting
// comma-separated entries as produced by some flag and env sources.
func normalizeMethods(methods []string) []string {
	seen := make(map[string]struct{}, len(methods))
	out := make([]string, 0, len(methods))
	for _, raw := range methods {
		for _, part := range strings.Split(raw, ",") {
			m := strings.ToLower(strings.TrimSpace(part))
			if m == "" {
				continue
			}
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	return out
}
