package console

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mwiater/promptlab/internal/comparison"
	"github.com/mwiater/promptlab/internal/evaluation"
	"github.com/mwiater/promptlab/internal/knowledge"
)

func TestKeyMetrics(t *testing.T) {
	t.Parallel()

	var set evaluation.ResultSet
	set.Add(evaluation.ExactMatchResult{Accuracy: 0.5})
	set.Add(evaluation.ConsistencyResult{ConsistencyScore: 0.81234})
	set.Add(evaluation.QualityResult{AverageQuality: 4.25})

	lines := KeyMetrics(set)
	assert.Equal(t, []string{"Accuracy: 50.00%", "Consistency: 0.812", "Quality: 4.2/5"}, lines)
}

func TestEvaluationSummary(t *testing.T) {
	t.Parallel()

	var set evaluation.ResultSet
	set.Add(evaluation.ExactMatchResult{Accuracy: 0.5})
	result := evaluation.EvaluationResult{Results: set, Summary: evaluation.Summarize(set)}

	var buf bytes.Buffer
	EvaluationSummary(&buf, result, "out.json")
	out := buf.String()
	assert.Contains(t, out, "Results saved to: out.json")
	assert.Contains(t, out, "EVALUATION SUMMARY")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "Failed Criteria: exact_match")
	assert.Contains(t, out, "- Improve prompt clarity and specificity")
	assert.Contains(t, out, "- Accuracy: 50.00%")
}

func TestComparisonSummary(t *testing.T) {
	t.Parallel()

	id := "prompt_2"
	result := comparison.Result{
		IndividualResults: []comparison.VariantResult{{PromptID: "prompt_1", Path: "a.txt"}, {PromptID: "prompt_2", Path: "b.txt"}},
		StatisticalComparison: comparison.StatisticalComparison{OverallRanking: []comparison.RankingEntry{
			{PromptID: "prompt_2", CompositeScore: 0.9},
			{PromptID: "prompt_1", CompositeScore: 0.88},
		}},
		Recommendation: comparison.Recommendation{RecommendedPrompt: &id, Confidence: comparison.ConfidenceLow, Note: "Results are very close. Consider additional testing."},
	}

	var buf bytes.Buffer
	ComparisonHeader(&buf, []string{"a.txt", "b.txt"})
	ComparisonSummary(&buf, result, "outdir")
	out := buf.String()
	assert.Contains(t, out, "Comparing 2 prompts:")
	assert.Contains(t, out, "  2. b.txt")
	assert.Contains(t, out, "1. prompt_2  0.900")
	assert.Contains(t, out, "Recommended Prompt: prompt_2")
	assert.Contains(t, out, "Confidence: low")
	assert.Contains(t, out, "Results are very close")
}

func TestKnowledgeSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	KnowledgeSummary(&buf, knowledge.Report{QueryCount: 3, Insights: knowledge.Process(nil), Score: knowledge.Score{Weighted: 0.615}}, "k.json")
	out := buf.String()
	assert.Contains(t, out, "Knowledge-Weighted Score: 0.615")
	assert.Contains(t, out, "Queries: 3  Insights: 0")
	assert.Contains(t, out, "LIMITED")
	assert.Contains(t, out, "Knowledge insights saved to: k.json")
}

func TestProgress(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewProgress(&buf, "Generating")
	p.Update(1, 2)
	p.Update(2, 2)
	p.Update(0, 0)

	out := buf.String()
	assert.Contains(t, out, "1/2")
	assert.True(t, strings.HasSuffix(out, "2/2\n"))
	assert.Equal(t, 2, strings.Count(out, "\r"))
}
