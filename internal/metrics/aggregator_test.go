// internal/metrics/aggregator_test.go
package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/promptlab/internal/providers"
)

func TestUpdateRunningStat(t *testing.T) {
	t.Parallel()

	var rs RunningStat
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		updateRunningStat(&rs, v)
	}
	assert.Equal(t, int64(8), rs.Count)
	assert.InDelta(t, 5.0, rs.Mean, 1e-12)
	assert.Equal(t, 2.0, rs.Min)
	assert.Equal(t, 9.0, rs.Max)
	assert.InDelta(t, 2.138, rs.StdDev(), 1e-3)
}

func TestAggregatorRecord(t *testing.T) {
	t.Parallel()

	agg := NewAggregator()
	agg.Record("m1", KindCompletion, 100*time.Millisecond, 10, nil)
	agg.Record("m1", KindCompletion, 300*time.Millisecond, 30, nil)
	agg.Record("m1", KindCompletion, time.Second, 0, errors.New("boom"))
	agg.Record("emb", KindEmbedding, 50*time.Millisecond, 2, nil)

	snap := agg.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, KindCompletion, snap[0].Kind)
	assert.Equal(t, int64(3), snap[0].Stats.TotalRequests)
	assert.Equal(t, int64(1), snap[0].Stats.Failures)
	assert.InDelta(t, 200.0, snap[0].Stats.LatencyMillis.Mean, 1e-9)
	assert.InDelta(t, 20.0, snap[0].Stats.OutputChars.Mean, 1e-9)
	assert.Equal(t, "emb", snap[1].ModelName)

	assert.Equal(t, 2.0, testutil.ToFloat64(agg.requests.WithLabelValues("m1", KindCompletion, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(agg.requests.WithLabelValues("m1", KindCompletion, "error")))
}

func TestAggregatorSaveAndTextfile(t *testing.T) {
	t.Parallel()

	agg := NewAggregator()
	agg.Record("m1", KindCompletion, 10*time.Millisecond, 5, nil)

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "metrics.json")
	require.NoError(t, agg.Save(jsonPath))

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var decoded []ModelMetrics
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "m1", decoded[0].ModelName)

	promPath := filepath.Join(dir, "promptlab.prom")
	require.NoError(t, agg.WriteTextfile(promPath))
	prom, err := os.ReadFile(promPath)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(prom), "promptlab_provider_requests_total"))
}

func TestCompleterDecorator(t *testing.T) {
	t.Parallel()

	agg := NewAggregator()
	inner := providers.CompleterFunc(func(ctx context.Context, req providers.CompletionRequest) (string, error) {
		if req.Prompt == "fail" {
			return "", errors.New("nope")
		}
		return "ok", nil
	})
	c := NewCompleter(inner, agg)

	out, err := c.Complete(context.Background(), providers.CompletionRequest{Model: "m", Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	_, err = c.Complete(context.Background(), providers.CompletionRequest{Model: "m", Prompt: "fail"})
	assert.Error(t, err)

	snap := agg.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, int64(2), snap[0].Stats.TotalRequests)
	assert.Equal(t, int64(1), snap[0].Stats.Failures)
}

func TestEmbedderDecorator(t *testing.T) {
	t.Parallel()

	agg := NewAggregator()
	inner := providers.EmbedderFunc(func(ctx context.Context, texts []string) ([][]float64, error) {
		return [][]float64{{1}, {2}}, nil
	})
	out, err := NewEmbedder(inner, "emb", agg).Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, out, 2)

	snap := agg.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, KindEmbedding, snap[0].Kind)
}
