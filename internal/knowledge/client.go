// Package knowledge prepares evaluation material for an external knowledge-graph
// service, runs the prepared searches through a Client and distills the replies
// into insights and optimization hints.
package knowledge

import (
	"context"
	"fmt"
	"strings"
)

// Search types understood by knowledge services.
const (
	SearchGraphCompletion = "GRAPH_COMPLETION"
	SearchRAGCompletion   = "RAG_COMPLETION"
	SearchCode            = "CODE"
	SearchChunks          = "CHUNKS"
	SearchInsights        = "INSIGHTS"
)

// SearchTypes lists every known search type.
var SearchTypes = []string{SearchGraphCompletion, SearchRAGCompletion, SearchCode, SearchChunks, SearchInsights}

// Client is the narrow surface of a knowledge-graph service.
type Client interface {
	// Ingest hands the knowledge text to the service for graph construction.
	Ingest(ctx context.Context, text string) (string, error)
	// Search runs one query with the given search type.
	Search(ctx context.Context, query, searchType string) (string, error)
}

// NullClient accepts everything and returns nothing.
type NullClient struct{}

func (NullClient) Ingest(context.Context, string) (string, error) { return "", nil }

func (NullClient) Search(context.Context, string, string) (string, error) { return "", nil }

// SimulatedClient answers with canned acknowledgements so the pipeline can be
// exercised without a knowledge service.
type SimulatedClient struct{}

func (SimulatedClient) Ingest(_ context.Context, text string) (string, error) {
	return fmt.Sprintf("Ingest completed: processed %d characters of evaluation data", len(text)), nil
}

func (SimulatedClient) Search(_ context.Context, query, searchType string) (string, error) {
	return fmt.Sprintf("Search completed for %s: %d query terms processed", searchType, len(strings.Fields(query))), nil
}

// IsKnownSearchType reports whether t is one of SearchTypes.
func IsKnownSearchType(t string) bool {
	for _, known := range SearchTypes {
		if known == t {
			return true
		}
	}
	return false
}
