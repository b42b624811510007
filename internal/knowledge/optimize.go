package knowledge

import (
	"fmt"

	"github.com/mwiater/promptlab/internal/appconfig"
	"github.com/mwiater/promptlab/internal/evaluation"
)

// Opportunities lists optimization hints by area.
type Opportunities struct {
	Accuracy   []string `json:"accuracy_optimization"`
	Efficiency []string `json:"efficiency_optimization"`
	Cost       []string `json:"cost_optimization"`
	Quality    []string `json:"quality_optimization"`
}

// highRelevance is the average insight relevance above which insights are worth
// folding back into the evaluation.
const highRelevance = 0.7

// OptimizationOpportunities derives hints from evaluation metrics and, when
// available, the average relevance of knowledge insights.
func OptimizationOpportunities(results evaluation.ResultSet, thresholds appconfig.Thresholds, avgRelevance float64) Opportunities {
	o := Opportunities{Accuracy: []string{}, Efficiency: []string{}, Cost: []string{}, Quality: []string{}}

	if em, ok := evaluation.Lookup[evaluation.ExactMatchResult](results, evaluation.MethodExactMatch); ok {
		if em.Accuracy < thresholds.AccuracyThreshold {
			o.Accuracy = append(o.Accuracy, fmt.Sprintf("Current accuracy (%.2f%%) below threshold. Consider improving prompt specificity.", em.Accuracy*100))
		}
		if em.Errors > 0 {
			o.Cost = append(o.Cost, fmt.Sprintf("%d completions failed. Failed calls still consume quota; check provider limits and timeouts.", em.Errors))
		}
	}
	if c, ok := evaluation.Lookup[evaluation.ConsistencyResult](results, evaluation.MethodConsistency); ok {
		if c.ConsistencyScore < thresholds.ConsistencyThreshold {
			o.Efficiency = append(o.Efficiency, fmt.Sprintf("Low consistency (%.3f). Consider adding examples to prompt.", c.ConsistencyScore))
		}
	}
	if q, ok := evaluation.Lookup[evaluation.QualityResult](results, evaluation.MethodQuality); ok {
		if q.GradingFailures > 0 {
			o.Cost = append(o.Cost, fmt.Sprintf("%d quality gradings were unusable. Consider a grader model that follows the rubric more strictly.", q.GradingFailures))
		}
	}
	if avgRelevance > highRelevance {
		o.Quality = append(o.Quality, "High knowledge relevance detected. Consider leveraging knowledge insights for evaluation.")
	}
	return o
}
