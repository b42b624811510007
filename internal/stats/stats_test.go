package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChiSquare2x2(t *testing.T) {
	t.Parallel()

	res, err := ChiSquare2x2([2][2]float64{{90, 10}, {60, 40}})
	require.NoError(t, err)
	assert.InDelta(t, 22.4267, res.Statistic, 1e-3)
	assert.Less(t, res.PValue, 0.001)
	assert.Equal(t, 1.0, res.DF)
}

func TestChiSquare2x2YatesClampsSmallDifferences(t *testing.T) {
	t.Parallel()

	res, err := ChiSquare2x2([2][2]float64{{5, 5}, {5, 5}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Statistic)
	assert.InDelta(t, 1.0, res.PValue, 1e-12)
}

func TestChiSquare2x2Symmetric(t *testing.T) {
	t.Parallel()

	ab, err := ChiSquare2x2([2][2]float64{{18, 2}, {11, 9}})
	require.NoError(t, err)
	ba, err := ChiSquare2x2([2][2]float64{{11, 9}, {18, 2}})
	require.NoError(t, err)
	assert.InDelta(t, ab.PValue, ba.PValue, 1e-12)
}

func TestChiSquare2x2Degenerate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		table [2][2]float64
	}{
		{name: "empty", table: [2][2]float64{}},
		{name: "all correct", table: [2][2]float64{{10, 0}, {10, 0}}},
		{name: "empty row", table: [2][2]float64{{0, 0}, {3, 4}}},
		{name: "negative", table: [2][2]float64{{-1, 2}, {3, 4}}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ChiSquare2x2(tt.table)
			assert.ErrorIs(t, err, ErrDegenerate)
		})
	}
}

func TestStudentTTest(t *testing.T) {
	t.Parallel()

	res, err := StudentTTest([]float64{1, 2, 3, 4, 5}, []float64{2, 3, 4, 5, 6})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, res.Statistic, 1e-12)
	assert.Equal(t, 8.0, res.DF)
	assert.InDelta(t, 0.3466, res.PValue, 1e-3)

	swapped, err := StudentTTest([]float64{2, 3, 4, 5, 6}, []float64{1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.InDelta(t, -res.Statistic, swapped.Statistic, 1e-12)
	assert.InDelta(t, res.PValue, swapped.PValue, 1e-12)
}

func TestStudentTTestSingleObservation(t *testing.T) {
	t.Parallel()

	res, err := StudentTTest([]float64{5}, []float64{3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, 2.0, res.DF)
	assert.Greater(t, res.PValue, 0.0)
}

func TestSumSquares(t *testing.T) {
	t.Parallel()

	assert.Zero(t, sumSquares(nil))
	assert.Zero(t, sumSquares([]float64{7}))
	assert.InDelta(t, 10.0, sumSquares([]float64{1, 2, 3, 4, 5}), 1e-12)
}

func TestStudentTTestDegenerate(t *testing.T) {
	t.Parallel()

	_, err := StudentTTest(nil, []float64{1, 2})
	assert.ErrorIs(t, err, ErrDegenerate)

	_, err = StudentTTest([]float64{3}, []float64{4})
	assert.ErrorIs(t, err, ErrDegenerate)

	_, err = StudentTTest([]float64{4, 4, 4}, []float64{4, 4})
	assert.ErrorIs(t, err, ErrDegenerate)
}

func TestMean(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 2.5, Mean([]float64{1, 2, 3, 4}))
}
