package promptlab

import (
	"fmt"
	"strings"

	"github.com/mwiater/promptlab/internal/appconfig"
	"github.com/mwiater/promptlab/internal/evaluation"
	"github.com/mwiater/promptlab/internal/logging"
	"github.com/mwiater/promptlab/internal/metrics"
	"github.com/mwiater/promptlab/internal/providerfactory"
)

var (
	// newCompleter and newEmbedder are seams over the provider factory.
	newCompleter = providerfactory.NewCompleter
	newEmbedder  = providerfactory.NewEmbedder
)

// buildPipeline wires the configured providers, wrapped with metrics collection.
func buildPipeline(cfg appconfig.Config) (evaluation.Pipeline, *metrics.Aggregator, error) {
	aggregator := metrics.NewAggregator()

	completer, err := newCompleter(cfg, aggregator)
	if err != nil {
		return evaluation.Pipeline{}, nil, err
	}

	p := evaluation.Pipeline{Config: cfg, Completer: completer}
	if cfg.HasMethod(appconfig.MethodConsistency) {
		embedder, err := newEmbedder(cfg, aggregator)
		if err != nil {
			return evaluation.Pipeline{}, nil, err
		}
		p.Embedder = embedder
	}
	return p, aggregator, nil
}

// saveMetrics writes provider call metrics when metrics_file is configured. A .prom
// path gets the prometheus text exposition, anything else the JSON summary.
func saveMetrics(cfg appconfig.Config, aggregator *metrics.Aggregator) error {
	path := strings.TrimSpace(cfg.MetricsFile)
	if path == "" || aggregator == nil {
		return nil
	}
	if strings.HasSuffix(path, ".prom") {
		if err := aggregator.WriteTextfile(path); err != nil {
			return err
		}
	} else if err := aggregator.Save(path); err != nil {
		return err
	}
	logging.LogEvent("provider metrics written to %s", path)
	return nil
}

func requireFlag(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("--%s is required", name)
	}
	return nil
}
