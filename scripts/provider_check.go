// scripts/provider_check.go
//
// Sends one test completion (and one embedding batch when configured) through the
// providers a promptlab config selects, then prints the recorded call metrics.
//
//	go run ./scripts/provider_check.go --config config/config.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mwiater/promptlab/internal/appconfig"
	"github.com/mwiater/promptlab/internal/evaluation"
	"github.com/mwiater/promptlab/internal/metrics"
	"github.com/mwiater/promptlab/internal/providerfactory"
	"github.com/mwiater/promptlab/internal/providers"
)

func main() {
	configPath := flag.String("config", appconfig.DefaultConfigPath, "Path to config file")
	modelName := flag.String("model", "", "Override model name for the completion check")
	prompt := flag.String("prompt", "Reply with the single word: pong", "Prompt sent to the completion backend")
	timeout := flag.Duration("timeout", 60*time.Second, "Overall check timeout")
	flag.Parse()

	cfg, err := appconfig.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if *modelName != "" {
		cfg.Model = *modelName
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	aggregator := metrics.NewAggregator()
	failed := false

	fmt.Printf("Provider: %s  Model: %s  Base URL: %s\n\n", cfg.Provider, cfg.Model, orDefault(cfg.BaseURL))
	if err := checkCompletion(ctx, cfg, aggregator, *prompt); err != nil {
		fmt.Fprintf(os.Stderr, "completion check failed: %v\n", err)
		failed = true
	}
	if err := checkEmbedding(ctx, cfg, aggregator); err != nil {
		fmt.Fprintf(os.Stderr, "embedding check failed: %v\n", err)
		failed = true
	}

	fmt.Println("== metrics ==")
	for _, m := range aggregator.Snapshot() {
		fmt.Printf("%-10s %-30s calls=%d errors=%d mean=%.0fms\n", m.Kind, m.ModelName, m.Stats.TotalRequests, m.Stats.Failures, m.Stats.LatencyMillis.Mean)
	}
	if failed {
		os.Exit(1)
	}
}

func checkCompletion(ctx context.Context, cfg appconfig.Config, aggregator *metrics.Aggregator, prompt string) error {
	fmt.Println("== completion ==")
	completer, err := providerfactory.NewCompleter(cfg, aggregator)
	if err != nil {
		return err
	}
	out, err := completer.Complete(ctx, providers.CompletionRequest{
		Model:       cfg.Model,
		Prompt:      prompt,
		MaxTokens:   min(cfg.MaxTokens, 32),
		Temperature: cfg.Temperature,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Reply: %q\n", strings.TrimSpace(out))

	if cfg.HasMethod(appconfig.MethodQuality) {
		reply, err := completer.Complete(ctx, providers.CompletionRequest{
			Model:     cfg.GraderModel,
			Prompt:    evaluation.GradingPrompt(out),
			MaxTokens: cfg.GraderMaxTokens,
		})
		if err != nil {
			return fmt.Errorf("grader %s: %w", cfg.GraderModel, err)
		}
		grade, ok := evaluation.ParseGrade(reply)
		fmt.Printf("Grader reply: %q (grade=%d parsed=%v)\n", strings.TrimSpace(reply), grade, ok)
	}
	fmt.Println()
	return nil
}

func checkEmbedding(ctx context.Context, cfg appconfig.Config, aggregator *metrics.Aggregator) error {
	embedder, err := providerfactory.NewEmbedder(cfg, aggregator)
	if err != nil {
		return err
	}
	if embedder == nil {
		return nil
	}
	fmt.Println("== embedding ==")
	vectors, err := embedder.Embed(ctx, []string{"ping", "pong"})
	if err != nil {
		return err
	}
	for i, v := range vectors {
		fmt.Printf("vector %d: %d dims\n", i, len(v))
	}
	fmt.Println()
	return nil
}

func orDefault(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(provider default)"
	}
	return s
}
