package evaluation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mwiater/promptlab/internal/appconfig"
	"github.com/mwiater/promptlab/internal/logging"
	"github.com/mwiater/promptlab/internal/providers"
	"github.com/mwiater/promptlab/internal/stats"
)

const qualityRubric = `Rate the quality of this response on a scale of 1-5:
1: Very poor quality
2: Poor quality
3: Average quality
4: Good quality
5: Excellent quality

Consider factors like:
- Accuracy and correctness
- Clarity and coherence
- Completeness
- Helpfulness

Response to evaluate:
%s

Output only the number (1-5):`

// Quality asks a grader model to score each successful output on a 1-5 scale.
type Quality struct {
	Grader    providers.Completer
	Model     string
	MaxTokens int
	Workers   int
}

func (Quality) Method() string { return MethodQuality }

// GradingPrompt renders the rubric for one response.
func GradingPrompt(output string) string {
	return fmt.Sprintf(qualityRubric, output)
}

// Evaluate grades every non-error response. Grading errors and replies that are
// not an integer in [1,5] are skipped.
func (q Quality) Evaluate(ctx context.Context, responses []ResponseRecord, thresholds appconfig.Thresholds) MetricResult {
	var targets []ResponseRecord
	for _, r := range responses {
		if !r.Error {
			targets = append(targets, r)
		}
	}
	if q.Grader == nil || len(targets) == 0 {
		return QualityResult{Note: "No valid quality scores"}
	}

	maxTokens := q.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 10
	}

	slots := make([]int, len(targets))
	g := new(errgroup.Group)
	g.SetLimit(max(q.Workers, 1))
	for i, r := range targets {
		g.Go(func() error {
			reply, err := q.Grader.Complete(ctx, providers.CompletionRequest{
				Model:       q.Model,
				Prompt:      GradingPrompt(r.Output),
				MaxTokens:   maxTokens,
				Temperature: 0,
			})
			if err != nil {
				logging.LogWarn("quality: grading case %s failed: %v", r.CaseID, err)
				return nil
			}
			score, ok := ParseGrade(reply)
			if !ok {
				logging.LogWarn("quality: case %s returned unusable grade %q", r.CaseID, reply)
				return nil
			}
			slots[i] = score
			return nil
		})
	}
	_ = g.Wait()

	var res QualityResult
	for _, s := range slots {
		if s == 0 {
			res.GradingFailures++
			continue
		}
		res.QualityScores = append(res.QualityScores, float64(s))
	}
	if len(res.QualityScores) == 0 {
		res.Note = "No valid quality scores"
		return res
	}
	res.AverageQuality = stats.Mean(res.QualityScores)
	res.TotalEvaluated = len(res.QualityScores)
	meets := res.AverageQuality >= thresholds.QualityThreshold
	res.MeetsThreshold = &meets
	return res
}

// ParseGrade accepts a reply that is exactly an integer between 1 and 5 once trimmed.
func ParseGrade(reply string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(reply))
	if err != nil || n < 1 || n > 5 {
		return 0, false
	}
	return n, true
}
