package comparison

import (
	"slices"
	"sort"
)

// Composite weights. Quality is first scaled from 1-5 to 0-1.
const (
	weightAccuracy    = 0.4
	weightConsistency = 0.3
	weightQuality     = 0.3

	// closeScoreGap is the composite gap below which a recommendation is downgraded to low.
	closeScoreGap = 0.05
)

// CompositeScore is the weighted mean of the metrics present for a variant, with
// weights renormalized over those metrics. It is 0 when none is present.
func CompositeScore(m VariantMetrics) float64 {
	var score, weights float64
	if m.Accuracy != nil {
		score += m.Accuracy.Accuracy * weightAccuracy
		weights += weightAccuracy
	}
	if m.Consistency != nil {
		score += *m.Consistency * weightConsistency
		weights += weightConsistency
	}
	if m.Quality != nil {
		score += (m.Quality.Average / 5.0) * weightQuality
		weights += weightQuality
	}
	if weights == 0 {
		return 0
	}
	return score / weights
}

// Rank orders variants by composite score, highest first. Equal scores keep input order.
func Rank(ids []string, metrics []VariantMetrics) []RankingEntry {
	ranking := make([]RankingEntry, len(ids))
	for i, id := range ids {
		ranking[i] = RankingEntry{PromptID: id, CompositeScore: CompositeScore(metrics[i])}
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].CompositeScore > ranking[j].CompositeScore
	})
	return ranking
}

// Recommend picks the top-ranked variant. Confidence is high when that variant won
// a pair with significant differences, medium otherwise, and low whenever the
// runner-up is within closeScoreGap.
func Recommend(ranking []RankingEntry, pairwise []PairwiseComparison) Recommendation {
	if len(ranking) == 0 {
		return Recommendation{SignificantImprovements: []string{}, Reason: "No valid ranking available"}
	}

	best := ranking[0]
	seen := map[string]bool{}
	improvements := []string{}
	for _, p := range pairwise {
		if p.OverallWinner != best.PromptID {
			continue
		}
		for _, d := range p.SignificantDifferences {
			if !seen[d] {
				seen[d] = true
				improvements = append(improvements, d)
			}
		}
	}
	slices.Sort(improvements)

	id, score := best.PromptID, best.CompositeScore
	rec := Recommendation{
		RecommendedPrompt:       &id,
		RankingScore:            &score,
		SignificantImprovements: improvements,
		Confidence:              ConfidenceMedium,
	}
	if len(improvements) > 0 {
		rec.Confidence = ConfidenceHigh
	}

	if len(ranking) > 1 {
		gap := best.CompositeScore - ranking[1].CompositeScore
		rec.ScoreAdvantage = &gap
		rec.RunnerUp = ranking[1].PromptID
		if gap < closeScoreGap {
			rec.Confidence = ConfidenceLow
			rec.Note = "Results are very close. Consider additional testing."
		}
	}
	return rec
}
