package comparison

import (
	"github.com/mwiater/promptlab/internal/evaluation"
	"github.com/mwiater/promptlab/internal/logging"
	"github.com/mwiater/promptlab/internal/stats"
)

// AccuracySample is the exact-match outcome of one variant.
type AccuracySample struct {
	Accuracy float64
	Correct  int
	Total    int
}

// QualitySample is the graded quality of one variant.
type QualitySample struct {
	Average float64
	Scores  []float64
}

// VariantMetrics are the comparable metrics extracted from an evaluation. A nil
// field means the method did not run for that variant.
type VariantMetrics struct {
	Accuracy    *AccuracySample
	Consistency *float64
	Quality     *QualitySample
}

// ExtractMetrics pulls the comparable metrics out of a result set.
func ExtractMetrics(results evaluation.ResultSet) VariantMetrics {
	var m VariantMetrics
	if em, ok := evaluation.Lookup[evaluation.ExactMatchResult](results, evaluation.MethodExactMatch); ok {
		m.Accuracy = &AccuracySample{Accuracy: em.Accuracy, Correct: em.Correct, Total: em.Total}
	}
	if c, ok := evaluation.Lookup[evaluation.ConsistencyResult](results, evaluation.MethodConsistency); ok {
		score := c.ConsistencyScore
		m.Consistency = &score
	}
	if q, ok := evaluation.Lookup[evaluation.QualityResult](results, evaluation.MethodQuality); ok {
		m.Quality = &QualitySample{Average: q.AverageQuality, Scores: q.QualityScores}
	}
	return m
}

// ComparePair compares variant a with variant b. Accuracy uses a chi-square test,
// quality a Student t-test, consistency is descriptive only. Tests that cannot be
// computed leave their metric out.
func ComparePair(idA string, a VariantMetrics, idB string, b VariantMetrics, alpha float64) PairwiseComparison {
	cmp := PairwiseComparison{
		PromptA:                idA,
		PromptB:                idB,
		SignificantDifferences: []string{},
	}

	if a.Accuracy != nil && b.Accuracy != nil {
		if detail, ok := compareAccuracy(idA, *a.Accuracy, idB, *b.Accuracy, alpha); ok {
			cmp.MetricsComparison.Accuracy = &detail
			if *detail.StatisticallySignificant {
				cmp.SignificantDifferences = append(cmp.SignificantDifferences, MetricAccuracy)
			}
		}
	}

	if a.Quality != nil && b.Quality != nil {
		if detail, ok := compareQuality(idA, *a.Quality, idB, *b.Quality, alpha); ok {
			cmp.MetricsComparison.Quality = &detail
			if *detail.StatisticallySignificant {
				cmp.SignificantDifferences = append(cmp.SignificantDifferences, MetricQuality)
			}
		}
	}

	if a.Consistency != nil && b.Consistency != nil {
		ca, cb := *a.Consistency, *b.Consistency
		cmp.MetricsComparison.Consistency = &ComparisonDetail{
			PromptAValue:      ca,
			PromptBValue:      cb,
			Difference:        cb - ca,
			DescriptiveWinner: higher(idA, ca, idB, cb),
		}
	}

	cmp.OverallWinner = vote(idA, idB, cmp.MetricsComparison)
	return cmp
}

func compareAccuracy(idA string, a AccuracySample, idB string, b AccuracySample, alpha float64) (ComparisonDetail, bool) {
	table := [2][2]float64{
		{float64(a.Correct), float64(a.Total - a.Correct)},
		{float64(b.Correct), float64(b.Total - b.Correct)},
	}
	res, err := stats.ChiSquare2x2(table)
	if err != nil {
		logging.LogDebug("accuracy test %s vs %s skipped: %v", idA, idB, err)
		return ComparisonDetail{}, false
	}
	return testedDetail(idA, a.Accuracy, idB, b.Accuracy, res, alpha), true
}

func compareQuality(idA string, a QualitySample, idB string, b QualitySample, alpha float64) (ComparisonDetail, bool) {
	if len(a.Scores) == 0 || len(b.Scores) == 0 {
		return ComparisonDetail{}, false
	}
	res, err := stats.StudentTTest(a.Scores, b.Scores)
	if err != nil {
		logging.LogDebug("quality test %s vs %s skipped: %v", idA, idB, err)
		return ComparisonDetail{}, false
	}
	return testedDetail(idA, stats.Mean(a.Scores), idB, stats.Mean(b.Scores), res, alpha), true
}

func testedDetail(idA string, va float64, idB string, vb float64, res stats.Result, alpha float64) ComparisonDetail {
	significant := res.PValue < alpha
	statistic, p := res.Statistic, res.PValue
	winner := Tie
	if significant {
		winner = higher(idA, va, idB, vb)
	}
	return ComparisonDetail{
		PromptAValue:             va,
		PromptBValue:             vb,
		Difference:               vb - va,
		TestStatistic:            &statistic,
		PValue:                   &p,
		StatisticallySignificant: &significant,
		Winner:                   winner,
	}
}

func higher(idA string, va float64, idB string, vb float64) string {
	switch {
	case vb > va:
		return idB
	case va > vb:
		return idA
	default:
		return Tie
	}
}

// vote picks the variant that won more tested metrics. Equal counts are a tie.
func vote(idA, idB string, m MetricsComparison) string {
	var winsA, winsB int
	for _, e := range m.Entries() {
		switch e.Detail.Winner {
		case idA:
			winsA++
		case idB:
			winsB++
		}
	}
	switch {
	case winsA > winsB:
		return idA
	case winsB > winsA:
		return idB
	default:
		return Tie
	}
}
