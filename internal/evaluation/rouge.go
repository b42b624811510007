package evaluation

import (
	"context"

	"github.com/mwiater/promptlab/internal/appconfig"
	"github.com/mwiater/promptlab/internal/rouge"
	"github.com/mwiater/promptlab/internal/stats"
)

// Rouge averages ROUGE-1, ROUGE-2 and ROUGE-L F-measures against expected answers.
type Rouge struct{}

func (Rouge) Method() string { return MethodRouge }

// Evaluate scores successful responses that carry an expected answer.
func (Rouge) Evaluate(_ context.Context, responses []ResponseRecord, _ appconfig.Thresholds) MetricResult {
	var r1, r2, rl []float64
	for _, r := range responses {
		expected := r.expectedText()
		if r.Error || expected == "" {
			continue
		}
		s := rouge.Compute(expected, r.Output)
		r1 = append(r1, s.Rouge1.FMeasure)
		r2 = append(r2, s.Rouge2.FMeasure)
		rl = append(rl, s.RougeL.FMeasure)
	}
	return RougeResult{
		AvgRouge1:      stats.Mean(r1),
		AvgRouge2:      stats.Mean(r2),
		AvgRougeL:      stats.Mean(rl),
		TotalEvaluated: len(r1),
	}
}
