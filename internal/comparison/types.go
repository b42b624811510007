// Package comparison evaluates several prompt variants on the same test cases and
// decides, with pairwise significance tests, which one to recommend.
package comparison

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/mwiater/promptlab/internal/appconfig"
	"github.com/mwiater/promptlab/internal/evaluation"
)

// Tie marks a metric or pair with no winner.
const Tie = "tie"

// Confidence tiers attached to a recommendation.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Metric keys used in metrics_comparison and significant_differences.
const (
	MetricAccuracy    = "accuracy"
	MetricQuality     = "quality"
	MetricConsistency = "consistency"
)

// ComparisonDetail compares one metric between two variants. Tested metrics carry
// PValue, StatisticallySignificant and Winner; descriptive ones only DescriptiveWinner.
type ComparisonDetail struct {
	PromptAValue             float64  `json:"prompt_a_value"`
	PromptBValue             float64  `json:"prompt_b_value"`
	Difference               float64  `json:"difference"`
	TestStatistic            *float64 `json:"test_statistic,omitempty"`
	PValue                   *float64 `json:"p_value,omitempty"`
	StatisticallySignificant *bool    `json:"statistically_significant,omitempty"`
	Winner                   string   `json:"winner,omitempty"`
	DescriptiveWinner        string   `json:"descriptive_winner,omitempty"`
}

// MetricsComparison holds the per-metric details of a pair. A nil field means the
// metric was unavailable or its test was degenerate.
type MetricsComparison struct {
	Accuracy    *ComparisonDetail `json:"accuracy,omitempty"`
	Quality     *ComparisonDetail `json:"quality,omitempty"`
	Consistency *ComparisonDetail `json:"consistency,omitempty"`
}

// NamedDetail pairs a metric key with its detail.
type NamedDetail struct {
	Metric string
	Detail *ComparisonDetail
}

// Entries returns the present details in report order.
func (m MetricsComparison) Entries() []NamedDetail {
	var out []NamedDetail
	for _, e := range []NamedDetail{
		{MetricAccuracy, m.Accuracy},
		{MetricQuality, m.Quality},
		{MetricConsistency, m.Consistency},
	} {
		if e.Detail != nil {
			out = append(out, e)
		}
	}
	return out
}

// PairwiseComparison is the outcome of comparing two variants.
type PairwiseComparison struct {
	PromptA                string            `json:"prompt_a"`
	PromptB                string            `json:"prompt_b"`
	MetricsComparison      MetricsComparison `json:"metrics_comparison"`
	OverallWinner          string            `json:"overall_winner"`
	SignificantDifferences []string          `json:"significant_differences"`
}

// Key returns "<a>_vs_<b>".
func (p PairwiseComparison) Key() string {
	return p.PromptA + "_vs_" + p.PromptB
}

// RankingEntry is one variant's composite score.
type RankingEntry struct {
	PromptID       string  `json:"prompt_id"`
	CompositeScore float64 `json:"composite_score"`
}

// StatisticalComparison collects every pairwise comparison and the overall ranking.
type StatisticalComparison struct {
	PairwiseComparisons []PairwiseComparison `json:"-"`
	OverallRanking      []RankingEntry       `json:"overall_ranking"`
}

// MarshalJSON writes pairwise_comparisons as an object keyed by pair, in comparison order.
func (s StatisticalComparison) MarshalJSON() ([]byte, error) {
	keys := make([]string, len(s.PairwiseComparisons))
	values := make([]any, len(s.PairwiseComparisons))
	for i, p := range s.PairwiseComparisons {
		keys[i] = p.Key()
		values[i] = p
	}
	pairs, err := marshalOrdered(keys, values)
	if err != nil {
		return nil, err
	}
	ranking := s.OverallRanking
	if ranking == nil {
		ranking = []RankingEntry{}
	}
	return json.Marshal(struct {
		PairwiseComparisons json.RawMessage `json:"pairwise_comparisons"`
		OverallRanking      []RankingEntry  `json:"overall_ranking"`
	}{pairs, ranking})
}

// Recommendation names the variant to adopt and how confident the comparison is.
type Recommendation struct {
	RecommendedPrompt       *string  `json:"recommended_prompt"`
	RankingScore            *float64 `json:"ranking_score,omitempty"`
	SignificantImprovements []string `json:"significant_improvements"`
	Confidence              string   `json:"confidence,omitempty"`
	ScoreAdvantage          *float64 `json:"score_advantage,omitempty"`
	RunnerUp                string   `json:"runner_up,omitempty"`
	Note                    string   `json:"note,omitempty"`
	Reason                  string   `json:"reason,omitempty"`
}

// Recommended returns the recommended id or "none".
func (r Recommendation) Recommended() string {
	if r.RecommendedPrompt == nil {
		return "none"
	}
	return *r.RecommendedPrompt
}

// VariantResult is one evaluated prompt variant.
type VariantResult struct {
	PromptID string                      `json:"-"`
	Path     string                      `json:"path"`
	Results  evaluation.EvaluationResult `json:"results"`
}

// Result is the full record of a comparison run.
type Result struct {
	RunID                 string                     `json:"run_id"`
	Timestamp             time.Time                  `json:"timestamp"`
	PromptPaths           []string                   `json:"prompt_paths"`
	TestCasesPath         string                     `json:"test_cases_path"`
	Config                appconfig.ComparisonConfig `json:"config"`
	IndividualResults     []VariantResult            `json:"-"`
	StatisticalComparison StatisticalComparison      `json:"statistical_comparison"`
	Recommendation        Recommendation             `json:"recommendation"`
}

// Variant returns the individual result for id.
func (r Result) Variant(id string) (VariantResult, bool) {
	for _, v := range r.IndividualResults {
		if v.PromptID == id {
			return v, true
		}
	}
	return VariantResult{}, false
}

// MarshalJSON adds individual_results as an object keyed by prompt id.
func (r Result) MarshalJSON() ([]byte, error) {
	keys := make([]string, len(r.IndividualResults))
	values := make([]any, len(r.IndividualResults))
	for i, v := range r.IndividualResults {
		keys[i] = v.PromptID
		values[i] = v
	}
	individual, err := marshalOrdered(keys, values)
	if err != nil {
		return nil, err
	}
	type plain Result
	return json.Marshal(struct {
		plain
		IndividualResults json.RawMessage `json:"individual_results"`
	}{plain(r), individual})
}

func marshalOrdered(keys []string, values []any) (json.RawMessage, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
