package comparison

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/mwiater/promptlab/internal/appconfig"
	"github.com/mwiater/promptlab/internal/evaluation"
	"github.com/mwiater/promptlab/internal/logging"
	"github.com/mwiater/promptlab/internal/testcases"
	"github.com/mwiater/promptlab/internal/util"
)

// ErrTooFewPrompts is returned when fewer than two variants are supplied.
var ErrTooFewPrompts = errors.New("need at least 2 prompts to compare")

// Variant is one prompt being compared.
type Variant struct {
	Path   string
	Prompt string
}

// Input describes a comparison run.
type Input struct {
	Variants      []Variant
	TestCasesPath string
	Cases         []testcases.TestCase
	// OnVariant, when set, is called before each variant is evaluated.
	OnVariant func(index int, promptID, path string)
}

// PromptID returns the id assigned to the variant at index i.
func PromptID(i int) string {
	return fmt.Sprintf("prompt_%d", i+1)
}

// Compare evaluates every variant against the same cases with p and ranks them.
func Compare(ctx context.Context, p evaluation.Pipeline, in Input) (Result, error) {
	if len(in.Variants) < 2 {
		return Result{}, ErrTooFewPrompts
	}
	if minimum := p.Config.Comparison.MinimumSampleSize; minimum > 0 && len(in.Cases) < minimum {
		logging.LogWarn("only %d test cases; at least %d are recommended for reliable significance tests", len(in.Cases), minimum)
	}

	result := Result{
		RunID:         uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		TestCasesPath: in.TestCasesPath,
		Config:        p.Config.Comparison,
	}
	for i, v := range in.Variants {
		id := PromptID(i)
		if in.OnVariant != nil {
			in.OnVariant(i, id, v.Path)
		}
		logging.LogEvent("evaluating %s: %s", id, v.Path)
		eval, err := evaluation.Evaluate(ctx, p, evaluation.Input{
			Prompt:        v.Prompt,
			PromptPath:    v.Path,
			TestCasesPath: in.TestCasesPath,
			Cases:         in.Cases,
		})
		if err != nil {
			return Result{}, fmt.Errorf("evaluate %s (%s): %w", id, v.Path, err)
		}
		result.PromptPaths = append(result.PromptPaths, v.Path)
		result.IndividualResults = append(result.IndividualResults, VariantResult{PromptID: id, Path: v.Path, Results: eval})
	}

	result.StatisticalComparison, result.Recommendation = Analyze(result.IndividualResults, p.Config.Comparison)
	return result, nil
}

// Analyze runs every pairwise comparison, ranks the variants and recommends one.
func Analyze(variants []VariantResult, cfg appconfig.ComparisonConfig) (StatisticalComparison, Recommendation) {
	ids := make([]string, len(variants))
	metrics := make([]VariantMetrics, len(variants))
	for i, v := range variants {
		ids[i] = v.PromptID
		metrics[i] = ExtractMetrics(v.Results.Results)
	}

	var sc StatisticalComparison
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			sc.PairwiseComparisons = append(sc.PairwiseComparisons,
				ComparePair(ids[i], metrics[i], ids[j], metrics[j], cfg.SignificanceLevel))
		}
	}
	sc.OverallRanking = Rank(ids, metrics)
	return sc, Recommend(sc.OverallRanking, sc.PairwiseComparisons)
}

// File names written into a comparison output directory.
const (
	ResultsFileName = "comparison_results.json"
	ReportFileName  = "comparison_report.md"
)

// DefaultOutputDir returns comparison_results_<timestamp> for t.
func DefaultOutputDir(t time.Time) string {
	return fmt.Sprintf("comparison_results_%s", t.Format("20060102_150405"))
}

// WriteArtifacts saves each evaluation, the comparison JSON and the markdown report into dir,
// plus the comparison chart when the run's visualization config asks for it.
func WriteArtifacts(dir string, result Result, thresholds appconfig.Thresholds) error {
	for i, v := range result.IndividualResults {
		path := filepath.Join(dir, fmt.Sprintf("evaluation_%d.json", i+1))
		if err := evaluation.Save(path, v.Results); err != nil {
			return err
		}
	}
	if err := util.WriteJSON(filepath.Join(dir, ResultsFileName), result); err != nil {
		return fmt.Errorf("save comparison results: %w", err)
	}
	if err := util.WriteFile(filepath.Join(dir, ReportFileName), []byte(RenderReport(result))); err != nil {
		return fmt.Errorf("save comparison report: %w", err)
	}
	if vis := result.Config.Visualization; vis.SavePlots {
		path := filepath.Join(dir, PlotFileName(vis.Format()))
		if err := WritePlots(path, result, thresholds, vis); err != nil {
			return fmt.Errorf("save comparison plots: %w", err)
		}
		logging.LogEvent("comparison plots written to %s", path)
	}
	return nil
}
