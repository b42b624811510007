package evaluation

// recommendationFor maps a failed method to the advice printed with the summary.
var recommendationFor = map[string]string{
	MethodExactMatch:  "Improve prompt clarity and specificity",
	MethodConsistency: "Add examples to improve output consistency",
	MethodQuality:     "Enhance prompt with better context and instructions",
}

// Summarize derives the PASS/FAIL verdict. Results without a threshold claim never fail.
func Summarize(results ResultSet) Summary {
	summary := Summary{
		OverallStatus:   StatusPass,
		FailedCriteria:  []string{},
		Recommendations: []string{},
	}
	for _, r := range results.All() {
		meets, ok := r.Threshold()
		if !ok || meets {
			continue
		}
		summary.OverallStatus = StatusFail
		summary.FailedCriteria = append(summary.FailedCriteria, r.Method())
		if rec, found := recommendationFor[r.Method()]; found {
			summary.Recommendations = append(summary.Recommendations, rec)
		}
	}
	return summary
}
