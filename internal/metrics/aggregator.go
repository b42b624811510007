// internal/metrics/aggregator.go
package metrics

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mwiater/promptlab/internal/logging"
	"github.com/mwiater/promptlab/internal/util"
)

const metricsNamespace = "promptlab"

// Call kinds recorded by the decorators.
const (
	KindCompletion = "completion"
	KindEmbedding  = "embedding"
)

// Aggregator collects per-model provider call metrics. It keeps Welford running
// statistics for the JSON summary and mirrors them into a private prometheus registry.
type Aggregator struct {
	mutex    sync.Mutex
	metrics  map[string]*ModelMetrics
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewAggregator creates an Aggregator with its own registry.
func NewAggregator() *Aggregator {
	reg := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Total provider calls by model, kind and status",
		},
		[]string{"model", "kind", "status"},
	)
	latency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "provider",
			Name:      "request_duration_seconds",
			Help:      "Provider call latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"model", "kind"},
	)
	reg.MustRegister(requests, latency)

	return &Aggregator{
		metrics:  make(map[string]*ModelMetrics),
		registry: reg,
		requests: requests,
		latency:  latency,
	}
}

// Registry exposes the prometheus registry backing the aggregator.
func (a *Aggregator) Registry() *prometheus.Registry {
	return a.registry
}

// Record updates the metrics for one provider call.
func (a *Aggregator) Record(model, kind string, elapsed time.Duration, outputChars int, callErr error) {
	status := "ok"
	if callErr != nil {
		status = "error"
	}
	a.requests.WithLabelValues(model, kind, status).Inc()
	a.latency.WithLabelValues(model, kind).Observe(elapsed.Seconds())

	a.mutex.Lock()
	defer a.mutex.Unlock()

	key := kind + "/" + model
	modelMetrics, exists := a.metrics[key]
	if !exists {
		modelMetrics = &ModelMetrics{ModelName: model, Kind: kind}
		a.metrics[key] = modelMetrics
	}
	modelMetrics.LastUpdatedUTC = time.Now().UTC()

	stats := &modelMetrics.Stats
	stats.TotalRequests++
	if callErr != nil {
		stats.Failures++
		return
	}
	updateRunningStat(&stats.LatencyMillis, float64(elapsed.Milliseconds()))
	updateRunningStat(&stats.OutputChars, float64(outputChars))
}

// Snapshot returns a copy of the collected metrics ordered by kind then model.
func (a *Aggregator) Snapshot() []ModelMetrics {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	out := make([]ModelMetrics, 0, len(a.metrics))
	for _, m := range a.metrics {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].ModelName < out[j].ModelName
	})
	return out
}

// Save writes the running statistics as JSON to path.
func (a *Aggregator) Save(path string) error {
	logging.LogEvent("[METRICS] Saving metrics to %s", path)
	if err := util.WriteJSON(path, a.Snapshot()); err != nil {
		return fmt.Errorf("save metrics: %w", err)
	}
	return nil
}

// WriteTextfile writes the prometheus exposition of the registry to path, suitable
// for the node exporter textfile collector.
func (a *Aggregator) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, a.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// updateRunningStat updates a single running statistic using Welford's online algorithm.
func updateRunningStat(rs *RunningStat, value float64) {
	rs.Count++
	if rs.Count == 1 {
		rs.Min = value
		rs.Max = value
	} else {
		if value < rs.Min {
			rs.Min = value
		}
		if value > rs.Max {
			rs.Max = value
		}
	}

	delta := value - rs.Mean
	rs.Mean += delta / float64(rs.Count)
	delta2 := value - rs.Mean
	rs.M2 += delta * delta2
}
