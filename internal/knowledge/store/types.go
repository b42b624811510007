// Package store keeps ingested knowledge text as term-vector chunks and retrieves
// the chunks most similar to a query.
package store

// Entry is a single JSONL record in the knowledge index.
type Entry struct {
	ChunkID    string             `json:"chunk_id"`
	Doc        string             `json:"doc"`
	Offset     int                `json:"offset"`
	Text       string             `json:"text"`
	Terms      map[string]float64 `json:"terms"`
	TokenCount int                `json:"token_count"`
}

// Retrieved is an entry plus its similarity to the query.
type Retrieved struct {
	Entry Entry
	Score float64
}
