// servers/knowledge/main.go
// Local knowledge server over MCP stdio.
// Tools: cognify, search
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mwiater/promptlab/internal/knowledge"
	kmcp "github.com/mwiater/promptlab/internal/knowledge/mcp"
	"github.com/mwiater/promptlab/internal/knowledge/store"
)

var (
	indexPath    string
	topK         int
	contextWords int
	chunkSize    int
)

func init() {
	flag.StringVar(&indexPath, "index", "", "JSONL file the index is loaded from and saved to after each ingest")
	flag.IntVar(&topK, "top-k", 4, "chunks returned per search")
	flag.IntVar(&contextWords, "context-words", 600, "word budget of a search reply (0 = unlimited)")
	flag.IntVar(&chunkSize, "chunk-size", store.DefaultChunkSize, "words per indexed chunk")
}

type cognifyInput struct {
	Data string `json:"data" jsonschema:"text to add to the knowledge index"`
}

type searchInput struct {
	SearchQuery string `json:"search_query" jsonschema:"query to retrieve indexed text for"`
	SearchType  string `json:"search_type,omitempty" jsonschema:"GRAPH_COMPLETION, RAG_COMPLETION, CODE, CHUNKS or INSIGHTS"`
}

// server answers tool calls against one index.
type server struct {
	mu           sync.Mutex
	index        *store.Store
	indexPath    string
	topK         int
	contextWords int
	ingested     int
}

func (s *server) cognify(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New("data is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ingested++
	doc := fmt.Sprintf("ingest_%d", s.ingested)
	added := s.index.Add(doc, text)
	if s.indexPath != "" {
		if err := s.index.Save(s.indexPath); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("Indexed %d chunks from %d characters as %s (%d chunks total)", added, len(text), doc, s.index.Len()), nil
}

func (s *server) search(query, searchType string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", errors.New("search_query is required")
	}
	if searchType == "" {
		searchType = knowledge.SearchGraphCompletion
	}
	if !knowledge.IsKnownSearchType(searchType) {
		return "", fmt.Errorf("unknown search_type %q", searchType)
	}

	k := s.topK
	if searchType == knowledge.SearchInsights {
		k = 1
	}
	chunks := s.index.Search(query, k)
	if len(chunks) == 0 {
		return "", nil
	}
	if searchType == knowledge.SearchChunks {
		texts := make([]string, 0, len(chunks))
		for _, c := range chunks {
			texts = append(texts, c.Entry.Text)
		}
		return strings.Join(texts, "\n---\n"), nil
	}
	digest := store.NewDigest(chunks, s.contextWords)
	return fmt.Sprintf("%s results from %d sources\n%s", searchType, len(digest.Sources), digest.Text), nil
}

// toolResult reports tool failures in-band so the caller sees the message.
func toolResult(text string, err error) *mcp.CallToolResult {
	if err != nil {
		return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}}, IsError: true}
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

// newMCPServer registers the knowledge tools backed by s.
func newMCPServer(s *server) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: "promptlab-knowledge", Version: "0.1.0"}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        kmcp.IngestTool,
		Description: "Add text to the knowledge index",
	}, func(_ context.Context, _ *mcp.CallToolRequest, in cognifyInput) (*mcp.CallToolResult, any, error) {
		return toolResult(s.cognify(in.Data)), nil, nil
	})

	mcp.AddTool(srv, &mcp.Tool{
		Name:        kmcp.SearchTool,
		Description: "Retrieve indexed text relevant to a query",
	}, func(_ context.Context, _ *mcp.CallToolRequest, in searchInput) (*mcp.CallToolResult, any, error) {
		return toolResult(s.search(in.SearchQuery, in.SearchType)), nil, nil
	})

	return srv
}

func main() {
	flag.Parse()

	srv := &server{
		index:        store.New(chunkSize, -1),
		indexPath:    indexPath,
		topK:         topK,
		contextWords: contextWords,
	}
	if indexPath != "" {
		if err := srv.index.Load(indexPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	if err := newMCPServer(srv).Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
