package knowledge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mwiater/promptlab/internal/util"
)

// Insight categories.
const (
	CategoryPattern      = "pattern_analysis"
	CategoryChallenge    = "challenge_identification"
	CategoryOptimization = "optimization"
	CategoryRelationship = "relationship_analysis"
	CategoryGeneral      = "general"
)

var relevanceKeywords = []string{
	"evaluation", "pattern", "challenge", "optimization", "accuracy",
	"consistency", "quality", "test case", "prompt", "improvement",
}

var categoryKeywords = []struct {
	category string
	words    []string
}{
	{CategoryPattern, []string{"pattern", "trend", "common"}},
	{CategoryChallenge, []string{"challenge", "problem", "issue"}},
	{CategoryOptimization, []string{"improve", "optimize", "enhance"}},
	{CategoryRelationship, []string{"relationship", "connection", "related"}},
}

// Insight is one processed search reply.
type Insight struct {
	Insights       string   `json:"insights"`
	RelevanceScore float64  `json:"relevance_score"`
	Categories     []string `json:"insight_categories"`
}

// PatternEntry is an excerpt of an insight that fell into a notable category.
type PatternEntry struct {
	CaseID     string `json:"case_id"`
	SearchType string `json:"search_type"`
	Excerpt    string `json:"excerpt"`
}

// Patterns groups excerpts by what they describe.
type Patterns struct {
	CommonChallenges []PatternEntry `json:"common_challenges"`
	SuccessPatterns  []PatternEntry `json:"success_patterns"`
}

// Insights is the processed form of a knowledge run.
type Insights struct {
	IntegrationSuccessful bool `json:"integration_successful"`
	// ByType maps search type, then case id, to the processed reply.
	ByType          map[string]map[string]Insight `json:"knowledge_insights"`
	PatternAnalysis Patterns                      `json:"pattern_analysis"`
	Recommendations []string                      `json:"recommendations"`
}

// Total returns the number of processed replies.
func (in Insights) Total() int {
	n := 0
	for _, byCase := range in.ByType {
		n += len(byCase)
	}
	return n
}

// Relevance is the share of relevance keywords that appear in text.
func Relevance(text string) float64 {
	lower := strings.ToLower(text)
	matches := 0
	for _, kw := range relevanceKeywords {
		if strings.Contains(lower, kw) {
			matches++
		}
	}
	return min(float64(matches)/float64(len(relevanceKeywords)), 1.0)
}

// Categorize tags text with every matching category, or general when none match.
func Categorize(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, ck := range categoryKeywords {
		for _, w := range ck.words {
			if strings.Contains(lower, w) {
				out = append(out, ck.category)
				break
			}
		}
	}
	if len(out) == 0 {
		return []string{CategoryGeneral}
	}
	return out
}

// Process turns raw search results into insights, patterns and recommendations.
func Process(results []SearchResult) Insights {
	in := Insights{
		IntegrationSuccessful: true,
		ByType:                map[string]map[string]Insight{},
	}
	for _, r := range results {
		st := r.SearchType
		if st == "" {
			st = "unknown"
		}
		caseID := r.CaseID
		if caseID == "" {
			caseID = OverallCaseID
		}
		if in.ByType[st] == nil {
			in.ByType[st] = map[string]Insight{}
		}
		in.ByType[st][caseID] = Insight{
			Insights:       r.Result,
			RelevanceScore: Relevance(r.Result),
			Categories:     Categorize(r.Result),
		}
	}
	in.PatternAnalysis = extractPatterns(in.ByType)
	in.Recommendations = recommend(in)
	return in
}

func extractPatterns(byType map[string]map[string]Insight) Patterns {
	p := Patterns{CommonChallenges: []PatternEntry{}, SuccessPatterns: []PatternEntry{}}
	for _, st := range sortedKeys(byType) {
		byCase := byType[st]
		for _, caseID := range sortedKeys(byCase) {
			insight := byCase[caseID]
			entry := PatternEntry{CaseID: caseID, SearchType: st, Excerpt: util.TruncateRunes(insight.Insights, 200, "...")}
			if hasCategory(insight.Categories, CategoryChallenge) {
				p.CommonChallenges = append(p.CommonChallenges, entry)
			}
			if hasCategory(insight.Categories, CategoryPattern) {
				p.SuccessPatterns = append(p.SuccessPatterns, entry)
			}
		}
	}
	return p
}

func recommend(in Insights) []string {
	total := in.Total()
	if total == 0 {
		return []string{"No knowledge insights generated - verify the knowledge service integration"}
	}
	recs := []string{fmt.Sprintf("Successfully integrated %d knowledge insights - leverage these for evaluation optimization", total)}

	seen := map[string]bool{}
	for _, byCase := range in.ByType {
		for _, insight := range byCase {
			for _, c := range insight.Categories {
				seen[c] = true
			}
		}
	}
	if seen[CategoryChallenge] {
		recs = append(recs, "Challenges identified in test cases - consider refining prompt specificity")
	}
	if seen[CategoryOptimization] {
		recs = append(recs, "Optimization opportunities detected - implement suggested improvements")
	}
	if seen[CategoryPattern] {
		recs = append(recs, "Pattern analysis available - use insights for test case categorization")
	}
	return recs
}

func hasCategory(categories []string, want string) bool {
	for _, c := range categories {
		if c == want {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
