package evaluation

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/mwiater/promptlab/internal/appconfig"
	"github.com/mwiater/promptlab/internal/logging"
	"github.com/mwiater/promptlab/internal/providers"
)

const noteInsufficientResponses = "Insufficient responses for consistency check"

// Consistency embeds every successful output and averages cosine similarity over all pairs.
type Consistency struct {
	Embedder providers.Embedder
}

func (Consistency) Method() string { return MethodConsistency }

// Evaluate needs at least two successful outputs. Embedding failures yield a zero
// score with a note and no threshold claim.
func (c Consistency) Evaluate(ctx context.Context, responses []ResponseRecord, thresholds appconfig.Thresholds) MetricResult {
	outputs := make([]string, 0, len(responses))
	for _, r := range responses {
		if !r.Error {
			outputs = append(outputs, r.Output)
		}
	}
	if len(outputs) < 2 {
		return ConsistencyResult{Note: noteInsufficientResponses}
	}
	if c.Embedder == nil {
		return ConsistencyResult{Note: "Embedding service not configured"}
	}

	vectors, err := c.Embedder.Embed(ctx, outputs)
	if err == nil && len(vectors) != len(outputs) {
		err = fmt.Errorf("expected %d embeddings, got %d", len(outputs), len(vectors))
	}
	if err != nil {
		logging.LogWarn("consistency: embedding failed: %v", err)
		return ConsistencyResult{Note: fmt.Sprintf("Embedding failed: %v", err)}
	}

	score, comparisons := meanPairwiseCosine(vectors)
	meets := score >= thresholds.ConsistencyThreshold
	return ConsistencyResult{
		ConsistencyScore: score,
		TotalComparisons: comparisons,
		MeetsThreshold:   &meets,
	}
}

// meanPairwiseCosine averages cosine similarity over the C(n,2) unordered pairs.
func meanPairwiseCosine(vectors [][]float64) (float64, int) {
	norms := make([]float64, len(vectors))
	for i, v := range vectors {
		norms[i] = floats.Norm(v, 2)
	}
	var sum float64
	var pairs int
	for i := 0; i < len(vectors); i++ {
		for j := i + 1; j < len(vectors); j++ {
			sum += cosineSimilarity(vectors[i], vectors[j], norms[i], norms[j])
			pairs++
		}
	}
	if pairs == 0 {
		return 0, 0
	}
	return sum / float64(pairs), pairs
}

// cosineSimilarity returns 0 for zero vectors or mismatched dimensions.
func cosineSimilarity(a, b []float64, normA, normB float64) float64 {
	if normA == 0 || normB == 0 || len(a) != len(b) {
		return 0
	}
	return floats.Dot(a, b) / (normA * normB)
}
