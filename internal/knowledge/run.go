package knowledge

import (
	"context"
	"strings"
	"time"

	"github.com/mwiater/promptlab/internal/logging"
)

// Operation records one call made against a Client.
type Operation struct {
	Operation string    `json:"operation"`
	Success   bool      `json:"success"`
	Result    string    `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	DataSize  int       `json:"data_size,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SearchResult is the reply to one prepared query.
type SearchResult struct {
	SearchType string `json:"search_type"`
	CaseID     string `json:"case_id"`
	Category   string `json:"category,omitempty"`
	Result     string `json:"result"`
}

// RunResult collects what happened while executing prepared material.
type RunResult struct {
	Operations    []Operation    `json:"operations"`
	SearchResults []SearchResult `json:"search_results"`
	Errors        int            `json:"errors"`
}

// Run ingests the knowledge text once and then executes every query. A failing
// call is recorded and skipped; only context cancellation stops the run.
func Run(ctx context.Context, client Client, prepared Prepared) (RunResult, error) {
	res := RunResult{Operations: []Operation{}, SearchResults: []SearchResult{}}

	if strings.TrimSpace(prepared.KnowledgeText) != "" {
		reply, err := client.Ingest(ctx, prepared.KnowledgeText)
		res.record("ingest", reply, err, len(prepared.KnowledgeText))
		if err != nil {
			logging.LogWarn("knowledge ingest failed: %v", err)
		}
	}

	for _, q := range prepared.Queries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		reply, err := client.Search(ctx, q.SearchQuery, q.SearchType)
		res.record("search", reply, err, 0)
		if err != nil {
			logging.LogWarn("knowledge search %s/%s failed: %v", q.SearchType, q.CaseID, err)
			continue
		}
		if strings.TrimSpace(reply) == "" {
			continue
		}
		res.SearchResults = append(res.SearchResults, SearchResult{
			SearchType: q.SearchType,
			CaseID:     q.CaseID,
			Category:   q.Category,
			Result:     reply,
		})
	}
	logging.LogEvent("knowledge run: %d operations, %d results, %d errors", len(res.Operations), len(res.SearchResults), res.Errors)
	return res, ctx.Err()
}

func (r *RunResult) record(op, reply string, err error, size int) {
	entry := Operation{Operation: op, Success: err == nil, Result: reply, DataSize: size, Timestamp: time.Now().UTC()}
	if err != nil {
		entry.Error = err.Error()
		r.Errors++
	}
	r.Operations = append(r.Operations, entry)
}
