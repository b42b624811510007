package appconfig

import (
	"fmt"
	"io"
	"strings"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, cfg Config) {
	if cfg.ConfigPath == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", cfg.ConfigPath)
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Provider:            %s\n", cfg.Provider)
	if cfg.BaseURL != "" {
		fmt.Fprintf(out, "  Base URL:            %s\n", cfg.BaseURL)
	}
	fmt.Fprintf(out, "  Model:               %s\n", cfg.Model)
	fmt.Fprintf(out, "  Max Tokens:          %d\n", cfg.MaxTokens)
	fmt.Fprintf(out, "  Temperature:         %g\n", cfg.Temperature)
	fmt.Fprintf(out, "  Grader Model:        %s\n", cfg.GraderModel)
	if cfg.GraderProvider != "" {
		fmt.Fprintf(out, "  Grader Provider:     %s\n", cfg.GraderProvider)
	}
	fmt.Fprintf(out, "  Embedding:           %s/%s\n", cfg.EmbeddingProvider, cfg.EmbeddingModel)
	fmt.Fprintf(out, "  Methods:             %s\n", strings.Join(cfg.EvaluationMethods, ", "))
	fmt.Fprintf(out, "  Accuracy Threshold:  %g\n", cfg.Metrics.AccuracyThreshold)
	fmt.Fprintf(out, "  Consistency Thresh.: %g\n", cfg.Metrics.ConsistencyThreshold)
	fmt.Fprintf(out, "  Quality Threshold:   %g\n", cfg.Metrics.QualityThreshold)
	fmt.Fprintf(out, "  Significance Level:  %g\n", cfg.Comparison.SignificanceLevel)
	fmt.Fprintf(out, "  Min Sample Size:     %d\n", cfg.Comparison.MinimumSampleSize)
	if vis := cfg.Comparison.Visualization; vis.SavePlots {
		fmt.Fprintf(out, "  Comparison Plots:    %s @ %d dpi\n", vis.Format(), vis.DPI())
	}
	fmt.Fprintf(out, "  Request Timeout:     %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  Parallel Requests:   %v (workers: %d)\n", cfg.ParallelRequests, cfg.Workers())
	fmt.Fprintf(out, "  Debug:               %v\n", cfg.Debug)
	fmt.Fprintf(out, "  Log File:            %s\n", cfg.LogFilePath())
	if cfg.MetricsFile != "" {
		fmt.Fprintf(out, "  Metrics File:        %s\n", cfg.MetricsFile)
	}
	fmt.Fprintf(out, "  Knowledge Enabled:   %v\n", cfg.Knowledge.Enabled)
	if cfg.Knowledge.Enabled {
		fmt.Fprintf(out, "  Knowledge Searches:  %s\n", strings.Join(cfg.Knowledge.SearchTypes, ", "))
		fmt.Fprintf(out, "  Knowledge Weight:    %g\n", cfg.Knowledge.KnowledgeWeight)
		fmt.Fprintf(out, "  Knowledge Client:    %s\n", cfg.Knowledge.Client)
		if len(cfg.Knowledge.ServerCommand) > 0 {
			fmt.Fprintf(out, "  Knowledge Server:    %s\n", strings.Join(cfg.Knowledge.ServerCommand, " "))
		}
	}
}
