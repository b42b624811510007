package knowledge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mwiater/promptlab/internal/appconfig"
	"github.com/mwiater/promptlab/internal/evaluation"
	"github.com/mwiater/promptlab/internal/testcases"
	"github.com/mwiater/promptlab/internal/util"
)

// substantialInsight is the reply length above which an insight counts toward coverage.
const substantialInsight = 100

// Score summarizes how useful the knowledge replies were.
type Score struct {
	AverageRelevance float64  `json:"average_relevance_score"`
	Coverage         float64  `json:"insights_coverage"`
	TotalAnalyzed    int      `json:"total_cases_analyzed"`
	SearchTypesUsed  []string `json:"search_types_used"`
	Effective        bool     `json:"knowledge_enhancement_effective"`
	// Weighted blends the evaluation baseline with AverageRelevance by knowledge_weight.
	Weighted float64 `json:"knowledge_weighted_score"`
}

// ScoreInsights averages relevance over every insight and measures how many were substantial.
func ScoreInsights(in Insights) Score {
	s := Score{SearchTypesUsed: sortedKeys(in.ByType)}
	var relevance float64
	var substantial int
	for _, byCase := range in.ByType {
		for _, insight := range byCase {
			s.TotalAnalyzed++
			relevance += insight.RelevanceScore
			if len(insight.Insights) > substantialInsight {
				substantial++
			}
		}
	}
	if s.TotalAnalyzed > 0 {
		s.AverageRelevance = relevance / float64(s.TotalAnalyzed)
		s.Coverage = float64(substantial) / float64(s.TotalAnalyzed)
	}
	s.Effective = s.AverageRelevance > 0.5 && s.Coverage > 0.7
	return s
}

// EvaluationBaseline averages the normalized headline metrics present in results:
// accuracy, consistency and quality/5. It is 0 when none are present.
func EvaluationBaseline(results evaluation.ResultSet) float64 {
	var sum float64
	var n int
	if em, ok := evaluation.Lookup[evaluation.ExactMatchResult](results, evaluation.MethodExactMatch); ok {
		sum += em.Accuracy
		n++
	}
	if c, ok := evaluation.Lookup[evaluation.ConsistencyResult](results, evaluation.MethodConsistency); ok {
		sum += c.ConsistencyScore
		n++
	}
	if q, ok := evaluation.Lookup[evaluation.QualityResult](results, evaluation.MethodQuality); ok && q.AverageQuality > 0 {
		sum += q.AverageQuality / 5
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// WeightedScore mixes the evaluation baseline and insight relevance, giving
// relevance weight and the baseline the rest.
func WeightedScore(baseline, relevance, weight float64) float64 {
	return (1-weight)*baseline + weight*relevance
}

// Report is the knowledge side-output of an evaluation run.
type Report struct {
	RunID         string        `json:"run_id,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
	SearchTypes   []string      `json:"search_types"`
	QueryCount    int           `json:"query_count"`
	Operations    []Operation   `json:"operations"`
	Insights      Insights      `json:"insights"`
	Score         Score         `json:"knowledge_enhancement_score"`
	Opportunities Opportunities `json:"optimization_opportunities"`
}

// Analyze prepares knowledge material for an evaluation, runs it through client
// and scores the outcome.
func Analyze(ctx context.Context, client Client, cfg appconfig.Config, prompt string, cases []testcases.TestCase, result evaluation.EvaluationResult) (Report, error) {
	prepared := Prepare(prompt, cases, cfg)
	run, err := Run(ctx, client, prepared)
	if err != nil {
		return Report{}, fmt.Errorf("knowledge run: %w", err)
	}
	insights := Process(run.SearchResults)
	score := ScoreInsights(insights)
	score.Weighted = WeightedScore(EvaluationBaseline(result.Results), score.AverageRelevance, cfg.Knowledge.KnowledgeWeight)
	return Report{
		RunID:         result.RunID,
		Timestamp:     time.Now().UTC(),
		SearchTypes:   cfg.Knowledge.SearchTypes,
		QueryCount:    len(prepared.Queries),
		Operations:    run.Operations,
		Insights:      insights,
		Score:         score,
		Opportunities: OptimizationOpportunities(result.Results, cfg.Metrics, score.AverageRelevance),
	}, nil
}

// InsightsPath returns the side-file path for an evaluation output path.
func InsightsPath(outputPath string) string {
	return strings.TrimSuffix(outputPath, ".json") + "_knowledge_insights.json"
}

// Save writes the report as indented JSON.
func Save(path string, r Report) error {
	if err := util.WriteJSON(path, r); err != nil {
		return fmt.Errorf("save knowledge insights: %w", err)
	}
	return nil
}

// SavePrepared writes prepared material for processing by an external service.
func SavePrepared(path string, p Prepared) error {
	if err := util.WriteJSON(path, p); err != nil {
		return fmt.Errorf("save prepared knowledge: %w", err)
	}
	return nil
}
