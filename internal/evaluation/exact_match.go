package evaluation

import (
	"context"
	"strings"

	"github.com/mwiater/promptlab/internal/appconfig"
)

// ExactMatch compares each output with its expected answer after trimming and lowercasing.
type ExactMatch struct{}

func (ExactMatch) Method() string { return MethodExactMatch }

// Evaluate counts errored responses separately and scores only those with an expected answer.
func (ExactMatch) Evaluate(_ context.Context, responses []ResponseRecord, thresholds appconfig.Thresholds) MetricResult {
	var res ExactMatchResult
	for _, r := range responses {
		if r.Error {
			res.Errors++
			continue
		}
		expected := r.expectedText()
		if expected == "" {
			continue
		}
		res.Total++
		if normalize(r.Output) == normalize(expected) {
			res.Correct++
		}
	}
	if res.Total > 0 {
		res.Accuracy = float64(res.Correct) / float64(res.Total)
	}
	res.MeetsThreshold = res.Accuracy >= thresholds.AccuracyThreshold
	return res
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
