// Package console renders run progress and result summaries for the terminal.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/mwiater/promptlab/internal/comparison"
	"github.com/mwiater/promptlab/internal/evaluation"
	"github.com/mwiater/promptlab/internal/knowledge"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	faintStyle = lipgloss.NewStyle().Faint(true)

	passText = color.New(color.FgGreen, color.Bold).SprintFunc()
	failText = color.New(color.FgRed, color.Bold).SprintFunc()
	warnText = color.New(color.FgYellow).SprintFunc()
)

const rule = 60

func banner(w io.Writer, title string) {
	line := strings.Repeat("=", rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, line)
	fmt.Fprintln(w, titleStyle.Render(title))
	fmt.Fprintln(w, line)
}

func status(s string) string {
	if s == evaluation.StatusPass {
		return passText(s)
	}
	return failText(s)
}

// EvaluationHeader announces an evaluation run.
func EvaluationHeader(w io.Writer, promptPath string, cases int, methods []string) {
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Evaluating prompt:"), promptPath)
	fmt.Fprintf(w, "%s %d\n", labelStyle.Render("Test cases:"), cases)
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Methods:"), strings.Join(methods, ", "))
}

// EvaluationSummary prints the verdict, recommendations and key metrics.
func EvaluationSummary(w io.Writer, result evaluation.EvaluationResult, outputPath string) {
	if outputPath != "" {
		fmt.Fprintf(w, "\nResults saved to: %s\n", outputPath)
	}
	banner(w, "EVALUATION SUMMARY")

	s := result.Summary
	fmt.Fprintf(w, "Overall Status: %s\n", status(s.OverallStatus))
	if len(s.FailedCriteria) > 0 {
		fmt.Fprintf(w, "Failed Criteria: %s\n", strings.Join(s.FailedCriteria, ", "))
	}
	if len(s.Recommendations) > 0 {
		fmt.Fprintln(w, "\nRecommendations:")
		for _, rec := range s.Recommendations {
			fmt.Fprintf(w, "- %s\n", rec)
		}
	}

	fmt.Fprintln(w, "\nKey Metrics:")
	for _, line := range KeyMetrics(result.Results) {
		fmt.Fprintf(w, "- %s\n", line)
	}
}

// KeyMetrics formats the headline number of each metric in result order.
func KeyMetrics(results evaluation.ResultSet) []string {
	var lines []string
	for _, r := range results.All() {
		switch m := r.(type) {
		case evaluation.ExactMatchResult:
			lines = append(lines, fmt.Sprintf("Accuracy: %.2f%%", m.Accuracy*100))
		case evaluation.ConsistencyResult:
			lines = append(lines, noted(fmt.Sprintf("Consistency: %.3f", m.ConsistencyScore), m.Note))
		case evaluation.QualityResult:
			lines = append(lines, noted(fmt.Sprintf("Quality: %.1f/5", m.AverageQuality), m.Note))
		case evaluation.RougeResult:
			lines = append(lines, fmt.Sprintf("ROUGE-1/2/L: %.3f / %.3f / %.3f", m.AvgRouge1, m.AvgRouge2, m.AvgRougeL))
		}
	}
	return lines
}

func noted(line, note string) string {
	if note == "" {
		return line
	}
	return line + " " + faintStyle.Render("("+note+")")
}

// ComparisonHeader lists the prompts about to be compared.
func ComparisonHeader(w io.Writer, paths []string) {
	fmt.Fprintf(w, "Comparing %d prompts:\n", len(paths))
	for i, p := range paths {
		fmt.Fprintf(w, "  %d. %s\n", i+1, p)
	}
}

// ComparisonSummary prints the ranking and recommendation of a comparison.
func ComparisonSummary(w io.Writer, result comparison.Result, outputDir string) {
	if outputDir != "" {
		fmt.Fprintf(w, "\nComparison results saved to: %s\n", outputDir)
	}
	banner(w, "COMPARISON COMPLETE")

	for i, entry := range result.StatisticalComparison.OverallRanking {
		v, _ := result.Variant(entry.PromptID)
		fmt.Fprintf(w, "%d. %s  %.3f  %s\n", i+1, entry.PromptID, entry.CompositeScore, faintStyle.Render(v.Path))
	}

	rec := result.Recommendation
	fmt.Fprintf(w, "\nRecommended Prompt: %s\n", rec.Recommended())
	if rec.Confidence != "" {
		fmt.Fprintf(w, "Confidence: %s\n", confidence(rec.Confidence))
	}
	if rec.Note != "" {
		fmt.Fprintf(w, "Note: %s\n", warnText(rec.Note))
	}
	if rec.Reason != "" {
		fmt.Fprintf(w, "Reason: %s\n", rec.Reason)
	}
}

func confidence(c string) string {
	switch c {
	case comparison.ConfidenceHigh:
		return passText(c)
	case comparison.ConfidenceLow:
		return failText(c)
	default:
		return warnText(c)
	}
}

// KnowledgeSummary prints the headline numbers of a knowledge report.
func KnowledgeSummary(w io.Writer, report knowledge.Report, path string) {
	banner(w, "KNOWLEDGE ANALYSIS")
	score := report.Score
	fmt.Fprintf(w, "Queries: %d  Insights: %d\n", report.QueryCount, report.Insights.Total())
	fmt.Fprintf(w, "Knowledge Coverage: %.1f%%\n", score.Coverage*100)
	fmt.Fprintf(w, "Insight Relevance: %.1f%%\n", score.AverageRelevance*100)
	fmt.Fprintf(w, "Knowledge-Weighted Score: %.3f\n", score.Weighted)
	if score.Effective {
		fmt.Fprintf(w, "Enhancement Status: %s\n", passText("EFFECTIVE"))
	} else {
		fmt.Fprintf(w, "Enhancement Status: %s\n", warnText("LIMITED"))
	}
	for i, rec := range report.Insights.Recommendations {
		if i == 5 {
			break
		}
		fmt.Fprintf(w, "  %d. %s\n", i+1, rec)
	}
	if path != "" {
		fmt.Fprintf(w, "Knowledge insights saved to: %s\n", path)
	}
}
