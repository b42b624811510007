// Package stats implements the significance tests used to compare prompt variants.
package stats

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrDegenerate reports that a test statistic is undefined for the given input,
// for example a contingency table with an empty margin or samples with no variance.
var ErrDegenerate = errors.New("stats: degenerate input")

// Result is the outcome of a hypothesis test.
type Result struct {
	Statistic float64
	PValue    float64
	DF        float64
}

// ChiSquare2x2 runs a chi-square test of independence on a 2x2 contingency table,
// applying Yates' continuity correction. Any zero expected frequency is degenerate.
func ChiSquare2x2(table [2][2]float64) (Result, error) {
	var rows, cols [2]float64
	var total float64
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			v := table[i][j]
			if v < 0 || math.IsNaN(v) {
				return Result{}, ErrDegenerate
			}
			rows[i] += v
			cols[j] += v
			total += v
		}
	}
	if total == 0 {
		return Result{}, ErrDegenerate
	}

	var chi2 float64
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			expected := rows[i] * cols[j] / total
			if expected == 0 {
				return Result{}, ErrDegenerate
			}
			observed := table[i][j]
			diff := expected - observed
			observed += math.Copysign(math.Min(0.5, math.Abs(diff)), diff)
			chi2 += (observed - expected) * (observed - expected) / expected
		}
	}

	dist := distuv.ChiSquared{K: 1}
	return Result{Statistic: chi2, PValue: dist.Survival(chi2), DF: 1}, nil
}

// StudentTTest runs an independent two-sample t-test assuming equal variances.
// It needs at least one observation per sample and a non-zero pooled variance.
func StudentTTest(a, b []float64) (Result, error) {
	n1, n2 := float64(len(a)), float64(len(b))
	if len(a) == 0 || len(b) == 0 {
		return Result{}, ErrDegenerate
	}
	df := n1 + n2 - 2
	if df <= 0 {
		return Result{}, ErrDegenerate
	}

	m1, m2 := stat.Mean(a, nil), stat.Mean(b, nil)
	pooled := (sumSquares(a) + sumSquares(b)) / df
	se := math.Sqrt(pooled * (1/n1 + 1/n2))
	if se == 0 || math.IsNaN(se) {
		return Result{}, ErrDegenerate
	}

	t := (m1 - m2) / se
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.Survival(math.Abs(t))
	if p > 1 {
		p = 1
	}
	return Result{Statistic: t, PValue: p, DF: df}, nil
}

// Mean returns the arithmetic mean of xs, or 0 when xs is empty.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// sumSquares is the sum of squared deviations from the sample mean; a
// single-element sample contributes 0.
func sumSquares(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.Variance(xs, nil) * float64(len(xs)-1)
}
