// internal/metrics/types.go
package metrics

import (
	"math"
	"time"
)

// ModelMetrics is the aggregated call data for one model and call kind.
type ModelMetrics struct {
	ModelName      string    `json:"model_name"`
	Kind           string    `json:"kind"`
	LastUpdatedUTC time.Time `json:"last_updated_utc"`
	Stats          CallStats `json:"stats"`
}

// CallStats stores the running statistical values for provider calls.
type CallStats struct {
	TotalRequests int64       `json:"total_requests"`
	Failures      int64       `json:"failures"`
	LatencyMillis RunningStat `json:"latency_ms"`
	OutputChars   RunningStat `json:"output_chars"`
}

// RunningStat holds the necessary values for online calculation of mean, variance, and stddev.
type RunningStat struct {
	Count int64   `json:"count"`
	Mean  float64 `json:"mean"`
	M2    float64 `json:"-"` // Sum of squares of differences from the current mean
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// StdDev returns the sample standard deviation, or 0 with fewer than two observations.
func (rs RunningStat) StdDev() float64 {
	if rs.Count < 2 {
		return 0
	}
	return math.Sqrt(rs.M2 / float64(rs.Count-1))
}
