package comparison

import (
	"fmt"
	"strings"
	"time"

	"github.com/mwiater/promptlab/internal/evaluation"
)

// RenderReport formats a comparison as a markdown document.
func RenderReport(r Result) string {
	var b strings.Builder
	rec := r.Recommendation

	b.WriteString("# Prompt Comparison Report\n\n")
	fmt.Fprintf(&b, "**Generated**: %s\n\n", r.Timestamp.Format(time.RFC3339))

	b.WriteString("## Executive Summary\n\n")
	fmt.Fprintf(&b, "**Recommended Prompt**: %s\n", rec.Recommended())
	fmt.Fprintf(&b, "**Confidence Level**: %s\n\n", confidenceLabel(rec))
	if rec.Note != "" {
		fmt.Fprintf(&b, "⚠️ **Note**: %s\n\n", rec.Note)
	}

	b.WriteString("## Overall Ranking\n\n")
	b.WriteString("| Rank | Prompt | Score | Path |\n")
	b.WriteString("|------|--------|-------|------|\n")
	for i, entry := range r.StatisticalComparison.OverallRanking {
		v, _ := r.Variant(entry.PromptID)
		fmt.Fprintf(&b, "| %d | %s | %.3f | %s |\n", i+1, entry.PromptID, entry.CompositeScore, v.Path)
	}

	b.WriteString("\n## Detailed Results\n\n")
	for _, v := range r.IndividualResults {
		writeVariantTable(&b, v)
	}

	b.WriteString("## Statistical Analysis\n\n")
	for _, p := range r.StatisticalComparison.PairwiseComparisons {
		writePair(&b, p)
	}

	b.WriteString("## Recommendations\n\n")
	switch rec.Confidence {
	case ConfidenceHigh:
		fmt.Fprintf(&b, "✅ **Strong recommendation**: Use %s\n\n", rec.Recommended())
		b.WriteString("The recommended prompt shows statistically significant improvements over alternatives.\n\n")
	case ConfidenceMedium:
		fmt.Fprintf(&b, "⚠️ **Moderate recommendation**: Consider %s\n\n", rec.Recommended())
		b.WriteString("The recommended prompt shows better performance but without strong statistical significance.\n\n")
	default:
		b.WriteString("❓ **Weak recommendation**: Results are inconclusive\n\n")
		b.WriteString("Consider collecting more test data or refining prompts further.\n\n")
	}
	if len(rec.SignificantImprovements) > 0 {
		fmt.Fprintf(&b, "**Key improvements**: %s\n\n", strings.Join(rec.SignificantImprovements, ", "))
	}
	return b.String()
}

func confidenceLabel(rec Recommendation) string {
	if rec.Confidence == "" {
		return "n/a"
	}
	return rec.Confidence
}

func writeVariantTable(b *strings.Builder, v VariantResult) {
	fmt.Fprintf(b, "### %s\n\n", v.PromptID)
	fmt.Fprintf(b, "**Path**: `%s`\n\n", v.Path)
	b.WriteString("| Metric | Value | Meets Threshold |\n")
	b.WriteString("|--------|-------|----------------|\n")

	results := v.Results.Results
	if em, ok := evaluation.Lookup[evaluation.ExactMatchResult](results, evaluation.MethodExactMatch); ok {
		fmt.Fprintf(b, "| Accuracy | %.2f%% | %s |\n", em.Accuracy*100, checkMark(em))
	}
	if c, ok := evaluation.Lookup[evaluation.ConsistencyResult](results, evaluation.MethodConsistency); ok {
		fmt.Fprintf(b, "| Consistency | %.3f | %s |\n", c.ConsistencyScore, checkMark(c))
	}
	if q, ok := evaluation.Lookup[evaluation.QualityResult](results, evaluation.MethodQuality); ok {
		fmt.Fprintf(b, "| Quality | %.1f/5 | %s |\n", q.AverageQuality, checkMark(q))
	}
	if rg, ok := evaluation.Lookup[evaluation.RougeResult](results, evaluation.MethodRouge); ok {
		fmt.Fprintf(b, "| ROUGE-L | %.3f | - |\n", rg.AvgRougeL)
	}
	b.WriteString("\n")
}

func checkMark(r evaluation.MetricResult) string {
	if meets, ok := r.Threshold(); ok && meets {
		return "✅"
	}
	return "❌"
}

func writePair(b *strings.Builder, p PairwiseComparison) {
	fmt.Fprintf(b, "### %s\n\n", p.Key())
	fmt.Fprintf(b, "**Overall Winner**: %s\n", p.OverallWinner)
	if len(p.SignificantDifferences) > 0 {
		fmt.Fprintf(b, "**Significant Differences**: %s\n", strings.Join(p.SignificantDifferences, ", "))
	} else {
		b.WriteString("**Significant Differences**: None\n")
	}
	b.WriteString("\n")

	for _, e := range p.MetricsComparison.Entries() {
		d := e.Detail
		fmt.Fprintf(b, "**%s**:\n", strings.ToUpper(e.Metric[:1])+e.Metric[1:])
		fmt.Fprintf(b, "- %s: %v\n", p.PromptA, d.PromptAValue)
		fmt.Fprintf(b, "- %s: %v\n", p.PromptB, d.PromptBValue)
		if d.PValue != nil {
			fmt.Fprintf(b, "- p-value: %.4f\n", *d.PValue)
			significant := "No"
			if d.StatisticallySignificant != nil && *d.StatisticallySignificant {
				significant = "Yes"
			}
			fmt.Fprintf(b, "- Significant: %s\n", significant)
		}
		b.WriteString("\n")
	}
}
