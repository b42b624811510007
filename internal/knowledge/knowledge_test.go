package knowledge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/promptlab/internal/appconfig"
	"github.com/mwiater/promptlab/internal/evaluation"
	"github.com/mwiater/promptlab/internal/testcases"
)

func sampleCases() []testcases.TestCase {
	expected := "Paris"
	return []testcases.TestCase{
		{
			ID: "capital", Input: "Capital of France?", Expected: &expected, Category: "geography",
			Metadata: map[string]any{"difficulty": "easy", "expected_elements": []any{"Paris", "France"}},
		},
		{ID: "case_1", Input: strings.Repeat("x", 400)},
	}
}

func TestFormatKnowledgeText(t *testing.T) {
	t.Parallel()

	cfg := appconfig.Default()
	text := FormatKnowledgeText("You are a geography tutor.", sampleCases(), cfg)

	assert.True(t, strings.HasPrefix(text, "# Prompt Evaluation Knowledge Base\n"))
	assert.Contains(t, text, "## Prompt Being Evaluated\nYou are a geography tutor.")
	assert.Contains(t, text, "- Methods: exact_match, consistency, quality")
	assert.Contains(t, text, "- Accuracy Threshold: 0.85")
	assert.Contains(t, text, "Total test cases: 2")
	assert.Contains(t, text, "### Test Case 1: capital")
	assert.Contains(t, text, "**Category**: geography")
	assert.Contains(t, text, "**Difficulty**: easy")
	assert.Contains(t, text, "**Expected Elements**: Paris, France")
	assert.Contains(t, text, "### Test Case 2: case_1")
	assert.Contains(t, text, "No expected output provided")
	assert.Contains(t, text, "- This test case evaluates: general capability")
}

func TestPrepareQueries(t *testing.T) {
	t.Parallel()

	queries := PrepareQueries(sampleCases(), []string{SearchGraphCompletion, SearchInsights})
	require.Len(t, queries, 6)

	assert.Equal(t, OverallCaseID, queries[0].CaseID)
	assert.Contains(t, queries[0].SearchQuery, "Search type: GRAPH_COMPLETION")

	assert.Equal(t, "capital", queries[1].CaseID)
	assert.Equal(t, "geography", queries[1].Category)
	assert.Contains(t, queries[1].SearchQuery, "Analyze test case 'capital' in category 'geography'.")
	assert.Contains(t, queries[1].SearchQuery, "Expected elements: Paris, France")

	assert.Equal(t, "unknown", queries[2].Category)
	assert.Contains(t, queries[2].SearchQuery, strings.Repeat("x", 300)+"...")
	assert.NotContains(t, queries[2].SearchQuery, strings.Repeat("x", 301))

	assert.Equal(t, SearchInsights, queries[3].SearchType)
	assert.Equal(t, "Test case 2 analysis using INSIGHTS", queries[5].Description)

	assert.Len(t, PrepareQueries(sampleCases(), nil), 3)
}

func TestRelevanceAndCategories(t *testing.T) {
	t.Parallel()

	assert.Zero(t, Relevance("nothing to see"))
	assert.InDelta(t, 0.3, Relevance("The Prompt shows a PATTERN in accuracy"), 1e-12)
	assert.InDelta(t, 1.0, Relevance(strings.Join(relevanceKeywords, " ")), 1e-12)

	assert.Equal(t, []string{CategoryGeneral}, Categorize("plain text"))
	assert.Equal(t,
		[]string{CategoryPattern, CategoryChallenge, CategoryOptimization, CategoryRelationship},
		Categorize("A common issue; enhance the related cases"))
}

type scriptedClient struct {
	ingested string
	replies  map[string]string
	fail     map[string]bool
}

func (c *scriptedClient) Ingest(_ context.Context, text string) (string, error) {
	c.ingested = text
	return "ok", nil
}

func (c *scriptedClient) Search(_ context.Context, query, searchType string) (string, error) {
	for key := range c.fail {
		if strings.Contains(query, key) {
			return "", errors.New("search failed")
		}
	}
	for key, reply := range c.replies {
		if strings.Contains(query, key) {
			return reply, nil
		}
	}
	return "", nil
}

func TestRunSkipsFailures(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{
		replies: map[string]string{
			"scenario":  "A common challenge across test cases is ambiguity.",
			"'capital'": "Consider ways to improve the prompt.",
		},
		fail: map[string]bool{"'case_1'": true},
	}
	prepared := Prepare("p", sampleCases(), appconfig.Default())
	res, err := Run(context.Background(), client, prepared)
	require.NoError(t, err)

	assert.Equal(t, prepared.KnowledgeText, client.ingested)
	assert.Equal(t, 2, res.Errors)
	assert.Len(t, res.Operations, 1+len(prepared.Queries))
	assert.Len(t, res.SearchResults, 4)
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, SimulatedClient{}, Prepare("p", sampleCases(), appconfig.Default()))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcess(t *testing.T) {
	t.Parallel()

	long := "A common challenge: " + strings.Repeat("y", 250)
	in := Process([]SearchResult{
		{SearchType: SearchInsights, CaseID: "overall", Result: long},
		{SearchType: SearchInsights, CaseID: "capital", Result: "We could optimize the prompt."},
		{SearchType: SearchCode, Result: "nothing notable"},
	})

	assert.True(t, in.IntegrationSuccessful)
	assert.Equal(t, 3, in.Total())
	assert.Contains(t, in.ByType[SearchCode], OverallCaseID)

	require.Len(t, in.PatternAnalysis.CommonChallenges, 1)
	require.Len(t, in.PatternAnalysis.SuccessPatterns, 1)
	excerpt := in.PatternAnalysis.CommonChallenges[0].Excerpt
	assert.True(t, strings.HasSuffix(excerpt, "..."))
	assert.Equal(t, 203, len([]rune(excerpt)))

	assert.Equal(t, []string{
		"Successfully integrated 3 knowledge insights - leverage these for evaluation optimization",
		"Challenges identified in test cases - consider refining prompt specificity",
		"Optimization opportunities detected - implement suggested improvements",
		"Pattern analysis available - use insights for test case categorization",
	}, in.Recommendations)

	empty := Process(nil)
	assert.Equal(t, []string{"No knowledge insights generated - verify the knowledge service integration"}, empty.Recommendations)
}

func TestOptimizationOpportunities(t *testing.T) {
	t.Parallel()

	var set evaluation.ResultSet
	set.Add(evaluation.ExactMatchResult{Accuracy: 0.5, Errors: 2})
	set.Add(evaluation.ConsistencyResult{ConsistencyScore: 0.4321})
	set.Add(evaluation.QualityResult{AverageQuality: 4.5})

	o := OptimizationOpportunities(set, appconfig.Default().Metrics, 0.8)
	assert.Equal(t, []string{"Current accuracy (50.00%) below threshold. Consider improving prompt specificity."}, o.Accuracy)
	assert.Equal(t, []string{"Low consistency (0.432). Consider adding examples to prompt."}, o.Efficiency)
	assert.Len(t, o.Cost, 1)
	assert.Len(t, o.Quality, 1)

	none := OptimizationOpportunities(evaluation.ResultSet{}, appconfig.Default().Metrics, 0)
	assert.Empty(t, none.Accuracy)
	assert.NotNil(t, none.Quality)
}

type customAccuracy struct{}

func (customAccuracy) Method() string                  { return evaluation.MethodExactMatch }
func (customAccuracy) Threshold() (meets bool, ok bool) { return true, true }

func TestOptimizationOpportunitiesIgnoresCustomResults(t *testing.T) {
	t.Parallel()

	var set evaluation.ResultSet
	set.Add(customAccuracy{})
	set.Add(evaluation.ConsistencyResult{ConsistencyScore: 0.1})

	var o Opportunities
	require.NotPanics(t, func() { o = OptimizationOpportunities(set, appconfig.Default().Metrics, 0) })
	assert.Empty(t, o.Accuracy)
	assert.Empty(t, o.Cost)
	assert.Len(t, o.Efficiency, 1)
}

func TestAnalyzeAndSave(t *testing.T) {
	t.Parallel()

	cfg := appconfig.Default()
	cfg.Knowledge.SearchTypes = []string{SearchChunks}
	var set evaluation.ResultSet
	set.Add(evaluation.ExactMatchResult{Accuracy: 1, MeetsThreshold: true})

	report, err := Analyze(context.Background(), SimulatedClient{}, cfg, "p", sampleCases(), evaluation.EvaluationResult{RunID: "r1", Results: set})
	require.NoError(t, err)
	assert.Equal(t, "r1", report.RunID)
	assert.Equal(t, 3, report.QueryCount)
	assert.Len(t, report.Operations, 4)
	assert.Equal(t, 3, report.Score.TotalAnalyzed)
	assert.Equal(t, []string{SearchChunks}, report.Score.SearchTypesUsed)
	assert.False(t, report.Score.Effective)
	assert.InDelta(t, WeightedScore(1, report.Score.AverageRelevance, cfg.Knowledge.KnowledgeWeight), report.Score.Weighted, 1e-12)

	path := InsightsPath(filepath.Join(t.TempDir(), "eval.json"))
	assert.True(t, strings.HasSuffix(path, "eval_knowledge_insights.json"))
	require.NoError(t, Save(path, report))
	_, err = os.Stat(path)
	assert.NoError(t, err)

	nullReport, err := Analyze(context.Background(), NullClient{}, cfg, "p", sampleCases(), evaluation.EvaluationResult{})
	require.NoError(t, err)
	assert.Zero(t, nullReport.Insights.Total())
}

func TestScoreInsights(t *testing.T) {
	t.Parallel()

	in := Insights{ByType: map[string]map[string]Insight{
		SearchInsights: {
			"a": {Insights: strings.Repeat("z", 150), RelevanceScore: 0.8},
			"b": {Insights: strings.Repeat("z", 150), RelevanceScore: 0.6},
		},
	}}
	s := ScoreInsights(in)
	assert.InDelta(t, 0.7, s.AverageRelevance, 1e-12)
	assert.Equal(t, 1.0, s.Coverage)
	assert.True(t, s.Effective)
}

func TestWeightedScore(t *testing.T) {
	t.Parallel()

	var set evaluation.ResultSet
	set.Add(evaluation.ExactMatchResult{Accuracy: 0.8})
	set.Add(evaluation.ConsistencyResult{ConsistencyScore: 0.6})
	set.Add(evaluation.QualityResult{AverageQuality: 5})
	baseline := EvaluationBaseline(set)
	assert.InDelta(t, 0.8, baseline, 1e-12)

	assert.InDelta(t, 0.7*0.8+0.3*0.5, WeightedScore(baseline, 0.5, 0.3), 1e-12)
	assert.InDelta(t, 0.8, WeightedScore(baseline, 0.5, 0), 1e-12)
	assert.InDelta(t, 0.5, WeightedScore(baseline, 0.5, 1), 1e-12)

	assert.Zero(t, EvaluationBaseline(evaluation.ResultSet{}))

	var ungraded evaluation.ResultSet
	ungraded.Add(evaluation.ExactMatchResult{Accuracy: 0.4})
	ungraded.Add(evaluation.QualityResult{})
	assert.InDelta(t, 0.4, EvaluationBaseline(ungraded), 1e-12)
}

func TestIsKnownSearchType(t *testing.T) {
	t.Parallel()
	assert.True(t, IsKnownSearchType("RAG_COMPLETION"))
	assert.False(t, IsKnownSearchType("graph"))
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	c, closeFn, err := NewClient(context.Background(), appconfig.KnowledgeConfig{})
	require.NoError(t, err)
	assert.IsType(t, SimulatedClient{}, c)
	assert.NoError(t, closeFn())

	c, _, err = NewClient(context.Background(), appconfig.KnowledgeConfig{Client: "none"})
	require.NoError(t, err)
	assert.IsType(t, NullClient{}, c)

	_, _, err = NewClient(context.Background(), appconfig.KnowledgeConfig{Client: "mcp"})
	assert.Error(t, err)

	_, _, err = NewClient(context.Background(), appconfig.KnowledgeConfig{Client: "graphdb"})
	assert.ErrorContains(t, err, "graphdb")
}
