// Package evaluation runs a prompt against test cases and scores the completions.
package evaluation

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/mwiater/promptlab/internal/appconfig"
)

// Method tags, re-exported for callers that only import this package.
const (
	MethodExactMatch  = appconfig.MethodExactMatch
	MethodConsistency = appconfig.MethodConsistency
	MethodQuality     = appconfig.MethodQuality
	MethodRouge       = appconfig.MethodRouge
)

// Overall summary statuses.
const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
)

// ResponseRecord pairs one test case with the completion produced for it. When
// Error is set, Output holds an "ERROR: ..." diagnostic instead of model text.
type ResponseRecord struct {
	CaseID   string         `json:"case_id"`
	Input    string         `json:"input"`
	Output   string         `json:"output"`
	Expected *string        `json:"expected"`
	Metadata map[string]any `json:"metadata"`
	Error    bool           `json:"error,omitempty"`
}

func (r ResponseRecord) expectedText() string {
	if r.Expected == nil {
		return ""
	}
	return *r.Expected
}

// MetricResult is the outcome of one evaluator. Threshold reports whether the
// metric produced a comparable score (ok) and, if so, whether it met its threshold.
type MetricResult interface {
	Method() string
	Threshold() (meets bool, ok bool)
}

// ExactMatchResult scores trimmed, case-insensitive equality with the expected answer.
type ExactMatchResult struct {
	Accuracy       float64 `json:"accuracy"`
	Correct        int     `json:"correct"`
	Total          int     `json:"total"`
	Errors         int     `json:"errors"`
	MeetsThreshold bool    `json:"meets_threshold"`
}

func (ExactMatchResult) Method() string { return MethodExactMatch }

func (r ExactMatchResult) Threshold() (bool, bool) { return r.MeetsThreshold, true }

// ConsistencyResult is the mean pairwise cosine similarity of output embeddings.
type ConsistencyResult struct {
	ConsistencyScore float64 `json:"consistency_score"`
	TotalComparisons int     `json:"total_comparisons,omitempty"`
	Note             string  `json:"note,omitempty"`
	MeetsThreshold   *bool   `json:"meets_threshold,omitempty"`
}

func (ConsistencyResult) Method() string { return MethodConsistency }

func (r ConsistencyResult) Threshold() (bool, bool) {
	if r.MeetsThreshold == nil {
		return false, false
	}
	return *r.MeetsThreshold, true
}

// QualityResult is the mean of the 1-5 grades a grader model assigned.
type QualityResult struct {
	AverageQuality  float64   `json:"average_quality"`
	QualityScores   []float64 `json:"quality_scores,omitempty"`
	TotalEvaluated  int       `json:"total_evaluated,omitempty"`
	GradingFailures int       `json:"grading_failures,omitempty"`
	Note            string    `json:"note,omitempty"`
	MeetsThreshold  *bool     `json:"meets_threshold,omitempty"`
}

func (QualityResult) Method() string { return MethodQuality }

func (r QualityResult) Threshold() (bool, bool) {
	if r.MeetsThreshold == nil {
		return false, false
	}
	return *r.MeetsThreshold, true
}

// RougeResult averages ROUGE F-measures. It never carries a threshold.
type RougeResult struct {
	AvgRouge1      float64 `json:"avg_rouge1"`
	AvgRouge2      float64 `json:"avg_rouge2"`
	AvgRougeL      float64 `json:"avg_rougeL"`
	TotalEvaluated int     `json:"total_evaluated"`
}

func (RougeResult) Method() string { return MethodRouge }

func (RougeResult) Threshold() (bool, bool) { return false, false }

// ResultSet holds metric results in the order the evaluators ran.
type ResultSet struct {
	items []MetricResult
}

// Add appends r, replacing an earlier result for the same method.
func (s *ResultSet) Add(r MetricResult) {
	for i, existing := range s.items {
		if existing.Method() == r.Method() {
			s.items[i] = r
			return
		}
	}
	s.items = append(s.items, r)
}

// Get returns the result for method.
func (s ResultSet) Get(method string) (MetricResult, bool) {
	for _, r := range s.items {
		if r.Method() == method {
			return r, true
		}
	}
	return nil, false
}

// Lookup returns the result stored under method when it has type T. A result of
// another type under the same tag reports false.
func Lookup[T MetricResult](s ResultSet, method string) (T, bool) {
	var zero T
	r, ok := s.Get(method)
	if !ok {
		return zero, false
	}
	typed, ok := r.(T)
	return typed, ok
}

// All returns the results in insertion order.
func (s ResultSet) All() []MetricResult {
	return append([]MetricResult(nil), s.items...)
}

// Len returns the number of results.
func (s ResultSet) Len() int { return len(s.items) }

// MarshalJSON encodes the set as an object whose keys keep insertion order.
func (s ResultSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range s.items {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(r.Method())
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Summary is the PASS/FAIL verdict derived from a ResultSet.
type Summary struct {
	OverallStatus   string   `json:"overall_status"`
	FailedCriteria  []string `json:"failed_criteria"`
	Recommendations []string `json:"recommendations"`
}

// Passed reports whether every threshold-bearing metric met its threshold.
func (s Summary) Passed() bool { return s.OverallStatus == StatusPass }

// EvaluationResult is the full record of one prompt evaluation run.
type EvaluationResult struct {
	RunID          string           `json:"run_id"`
	Timestamp      time.Time        `json:"timestamp"`
	PromptPath     string           `json:"prompt_path"`
	TestCasesPath  string           `json:"test_cases_path"`
	TestCasesCount int              `json:"test_cases_count"`
	Config         appconfig.Config `json:"config"`
	Results        ResultSet        `json:"results"`
	Summary        Summary          `json:"summary"`
	Responses      []ResponseRecord `json:"-"`
}
