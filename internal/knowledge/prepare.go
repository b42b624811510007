package knowledge

import (
	"fmt"
	"strings"

	"github.com/mwiater/promptlab/internal/appconfig"
	"github.com/mwiater/promptlab/internal/testcases"
	"github.com/mwiater/promptlab/internal/util"
)

// OverallCaseID marks queries that are not tied to a single test case.
const OverallCaseID = "overall"

// Query is one prepared search.
type Query struct {
	SearchQuery string `json:"search_query"`
	SearchType  string `json:"search_type"`
	Description string `json:"description"`
	CaseID      string `json:"case_id"`
	Category    string `json:"category,omitempty"`
}

// Prepared is everything a knowledge service needs for one evaluation: the text to
// ingest and the searches to run afterwards.
type Prepared struct {
	KnowledgeText string  `json:"knowledge_text"`
	Queries       []Query `json:"search_queries"`
}

// Prepare formats the knowledge text and builds queries for every search type.
func Prepare(prompt string, cases []testcases.TestCase, cfg appconfig.Config) Prepared {
	return Prepared{
		KnowledgeText: FormatKnowledgeText(prompt, cases, cfg),
		Queries:       PrepareQueries(cases, cfg.Knowledge.SearchTypes),
	}
}

// FormatKnowledgeText renders the prompt, evaluation settings and test cases as a
// markdown document for ingestion.
func FormatKnowledgeText(prompt string, cases []testcases.TestCase, cfg appconfig.Config) string {
	var b strings.Builder
	b.WriteString("# Prompt Evaluation Knowledge Base\n\n")
	b.WriteString("## Prompt Being Evaluated\n")
	b.WriteString(prompt)
	b.WriteString("\n\n## Evaluation Configuration\n")
	fmt.Fprintf(&b, "- Methods: %s\n", strings.Join(cfg.EvaluationMethods, ", "))
	fmt.Fprintf(&b, "- Accuracy Threshold: %g\n", cfg.Metrics.AccuracyThreshold)
	fmt.Fprintf(&b, "- Consistency Threshold: %g\n", cfg.Metrics.ConsistencyThreshold)
	fmt.Fprintf(&b, "- Quality Threshold: %g\n", cfg.Metrics.QualityThreshold)
	b.WriteString("\n## Test Cases Analysis\n")
	fmt.Fprintf(&b, "Total test cases: %d\n\n", len(cases))

	for i, tc := range cases {
		elements := strings.Join(tc.ExpectedElements(), ", ")
		expected := "No expected output provided"
		if tc.HasExpected() {
			expected = tc.ExpectedText()
		}
		fmt.Fprintf(&b, "\n### Test Case %d: %s\n\n", i+1, tc.ID)
		fmt.Fprintf(&b, "**Category**: %s\n", categoryOr(tc, "unknown"))
		fmt.Fprintf(&b, "**Difficulty**: %s\n\n", tc.Difficulty())
		fmt.Fprintf(&b, "**Input**:\n%s\n\n", tc.Input)
		fmt.Fprintf(&b, "**Expected Output**:\n%s\n\n", expected)
		fmt.Fprintf(&b, "**Expected Elements**: %s\n\n", elements)
		b.WriteString("**Evaluation Context**:\n")
		fmt.Fprintf(&b, "- This test case evaluates: %s\n", categoryOr(tc, "general capability"))
		fmt.Fprintf(&b, "- Difficulty level: %s\n", tc.Difficulty())
		fmt.Fprintf(&b, "- Key evaluation criteria: %s\n\n", elements)
	}
	return b.String()
}

// PrepareQueries builds, per search type, one overall query followed by one query
// per test case. Case inputs are cut to 300 characters.
func PrepareQueries(cases []testcases.TestCase, searchTypes []string) []Query {
	if len(searchTypes) == 0 {
		searchTypes = []string{SearchGraphCompletion}
	}
	queries := make([]Query, 0, len(searchTypes)*(len(cases)+1))
	for _, st := range searchTypes {
		queries = append(queries, Query{
			SearchQuery: "Analyze the prompt evaluation scenario for patterns and insights. " +
				"Focus on: evaluation methodology effectiveness, test case design quality, " +
				"common challenges, and optimization opportunities. Search type: " + st,
			SearchType:  st,
			Description: "Overall evaluation analysis using " + st,
			CaseID:      OverallCaseID,
		})
		for i, tc := range cases {
			category := categoryOr(tc, "unknown")
			query := fmt.Sprintf("Analyze test case '%s' in category '%s'.\n"+
				"Input: %s\n"+
				"Expected elements: %s\n\n"+
				"Provide insights on: evaluation challenges, pattern recognition, "+
				"relationship to other test cases, optimization suggestions.",
				tc.ID, category, util.TruncateRunes(tc.Input, 300, "..."), strings.Join(tc.ExpectedElements(), ", "))
			queries = append(queries, Query{
				SearchQuery: query,
				SearchType:  st,
				Description: fmt.Sprintf("Test case %d analysis using %s", i+1, st),
				CaseID:      tc.ID,
				Category:    category,
			})
		}
	}
	return queries
}

func categoryOr(tc testcases.TestCase, fallback string) string {
	if strings.TrimSpace(tc.Category) == "" {
		return fallback
	}
	return tc.Category
}
