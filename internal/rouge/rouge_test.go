package rouge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeIdentical(t *testing.T) {
	t.Parallel()

	s := Compute("Paris is the capital of France.", "paris is the capital of france")
	assert.InDelta(t, 1.0, s.Rouge1.FMeasure, 1e-12)
	assert.InDelta(t, 1.0, s.Rouge2.FMeasure, 1e-12)
	assert.InDelta(t, 1.0, s.RougeL.FMeasure, 1e-12)
}

func TestComputePartialOverlap(t *testing.T) {
	t.Parallel()

	s := Compute("the cat sat on the mat", "the cat lay on the mat")
	assert.InDelta(t, 5.0/6.0, s.Rouge1.FMeasure, 1e-9)
	assert.InDelta(t, 0.6, s.Rouge2.FMeasure, 1e-9)
	assert.InDelta(t, 5.0/6.0, s.RougeL.FMeasure, 1e-9)
}

func TestComputeStemming(t *testing.T) {
	t.Parallel()

	s := Compute("dogs running", "dog runs")
	assert.InDelta(t, 1.0, s.Rouge1.FMeasure, 1e-12)
}

func TestComputeEmpty(t *testing.T) {
	t.Parallel()

	s := Compute("", "anything here")
	assert.Equal(t, Score{}, s.Rouge1)
	assert.Equal(t, Score{}, s.RougeL)

	s = Compute("reference text", "")
	assert.Equal(t, 0.0, s.Rouge2.FMeasure)
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"the", "cat", "s", "jump"}, Tokenize("The cat's JUMPING!"))
}
