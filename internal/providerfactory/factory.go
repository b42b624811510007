// internal/providerfactory/factory.go
package providerfactory

import (
	"fmt"
	"os"
	"strings"

	"github.com/mwiater/promptlab/internal/appconfig"
	"github.com/mwiater/promptlab/internal/logging"
	"github.com/mwiater/promptlab/internal/metrics"
	"github.com/mwiater/promptlab/internal/providers"
	"github.com/mwiater/promptlab/internal/providers/anthropic"
	"github.com/mwiater/promptlab/internal/providers/llamacpp"
	"github.com/mwiater/promptlab/internal/providers/multiplex"
	"github.com/mwiater/promptlab/internal/providers/ollama"
	"github.com/mwiater/promptlab/internal/providers/openai"
)

// Provider names accepted in the configuration.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderLlamaCpp  = "llamacpp"
	ProviderOllama    = "ollama"
	ProviderNone      = "none"
)

// CompletionProviders lists the backends that can generate and grade completions.
var CompletionProviders = []string{ProviderAnthropic, ProviderOpenAI, ProviderLlamaCpp, ProviderOllama}

// NewCompleter selects and configures the completion backend named by cfg.Provider.
// Generation and grading share it unless grader_provider names a different backend,
// in which case grader-model requests are routed there. When aggregator is non-nil
// the result is wrapped with metrics collection.
func NewCompleter(cfg appconfig.Config, aggregator *metrics.Aggregator) (providers.Completer, error) {
	completer, err := newBackend(cfg.Provider, cfg.BaseURL, cfg.APIKey(), cfg)
	if err != nil {
		return nil, err
	}
	logging.LogDebug("completion provider ready: %s", normalizeProvider(cfg.Provider))

	if separateGrader(cfg) {
		grader, err := newBackend(cfg.GraderProvider, cfg.GraderBaseURL, cfg.APIKeyFor(cfg.GraderProvider), cfg)
		if err != nil {
			return nil, fmt.Errorf("grader: %w", err)
		}
		logging.LogDebug("grader provider ready: %s (model %s)", normalizeProvider(cfg.GraderProvider), cfg.GraderModel)
		completer = multiplex.New(completer, map[string]providers.Completer{cfg.GraderModel: grader})
	}

	if aggregator != nil {
		completer = metrics.NewCompleter(completer, aggregator)
	}
	return completer, nil
}

func newBackend(provider, baseURL, apiKey string, cfg appconfig.Config) (providers.Completer, error) {
	switch normalizeProvider(provider) {
	case ProviderAnthropic:
		return anthropic.New(baseURL, apiKey, cfg.RequestTimeout()), nil
	case ProviderOpenAI:
		return openai.New(baseURL, apiKey, cfg.RequestTimeout()), nil
	case ProviderLlamaCpp:
		return llamacpp.New(baseURL, cfg.RequestTimeout()), nil
	case ProviderOllama:
		return ollama.New(baseURL, cfg.RequestTimeout()), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q (supported: %s)", provider, strings.Join(CompletionProviders, ", "))
	}
}

// separateGrader reports whether grading needs its own backend.
func separateGrader(cfg appconfig.Config) bool {
	if strings.TrimSpace(cfg.GraderProvider) == "" || cfg.GraderModel == cfg.Model {
		return false
	}
	return normalizeProvider(cfg.GraderProvider) != normalizeProvider(cfg.Provider) || cfg.GraderBaseURL != ""
}

// NewEmbedder configures the embedding backend used by the consistency metric. It
// returns a nil Embedder without error when embeddings are disabled ("none").
func NewEmbedder(cfg appconfig.Config, aggregator *metrics.Aggregator) (providers.Embedder, error) {
	var embedder providers.Embedder

	baseURL := cfg.EmbeddingBaseURL
	name := normalizeProvider(cfg.EmbeddingProvider)
	if baseURL == "" && name == normalizeProvider(cfg.Provider) {
		baseURL = cfg.BaseURL
	}

	switch name {
	case ProviderNone, "":
		return nil, nil
	case ProviderOpenAI:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if normalizeProvider(cfg.Provider) == ProviderOpenAI {
			apiKey = cfg.APIKey()
		}
		embedder = openai.New(baseURL, apiKey, cfg.RequestTimeout()).Embedder(cfg.EmbeddingModel)
	case ProviderLlamaCpp:
		embedder = llamacpp.New(baseURL, cfg.RequestTimeout()).Embedder(cfg.EmbeddingModel)
	case ProviderOllama:
		embedder = ollama.New(baseURL, cfg.RequestTimeout()).Embedder(cfg.EmbeddingModel)
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q (supported: openai, llamacpp, ollama, none)", cfg.EmbeddingProvider)
	}

	if aggregator != nil {
		embedder = metrics.NewEmbedder(embedder, cfg.EmbeddingModel, aggregator)
	}
	return embedder, nil
}

func normalizeProvider(name string) string {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "llama.cpp", "llama-cpp", "llamacpp":
		return ProviderLlamaCpp
	default:
		return n
	}
}
