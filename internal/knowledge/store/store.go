package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mwiater/promptlab/internal/rouge"
)

// Default passage sizes, in words.
const (
	DefaultChunkSize = 120
	DefaultOverlap   = 20
)

// Store is an in-memory knowledge index safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	entries   []Entry
	chunkSize int
	overlap   int
}

// New returns an empty store chunking with the given sizes; non-positive values
// fall back to the defaults.
func New(chunkSize, overlap int) *Store {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = min(DefaultOverlap, chunkSize/2)
	}
	return &Store{chunkSize: chunkSize, overlap: overlap}
}

// Len returns the number of indexed chunks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Add splits text into sentence-aligned passages, indexes them under doc and
// returns the number of chunks added.
func (s *Store) Add(doc, text string) int {
	chunks := splitPassages(text, s.chunkSize, s.overlap)
	if len(chunks) == 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		s.entries = append(s.entries, Entry{
			ChunkID:    fmt.Sprintf("%s#%d", doc, len(s.entries)),
			Doc:        doc,
			Offset:     c.Start,
			Text:       c.Text,
			Terms:      termVector(c.Text),
			TokenCount: c.Words,
		})
	}
	return len(chunks)
}

// Search returns up to topK chunks with a positive similarity to query, best first.
func (s *Store) Search(query string, topK int) []Retrieved {
	queryVec := termVector(query)
	if len(queryVec) == 0 {
		return nil
	}

	s.mu.RLock()
	chunks := scoreEntries(s.entries, queryVec)
	s.mu.RUnlock()

	if topK > 0 && topK < len(chunks) {
		chunks = chunks[:topK]
	}
	return chunks
}

func scoreEntries(entries []Entry, queryVec map[string]float64) []Retrieved {
	queryNorm := vectorNorm(queryVec)
	chunks := make([]Retrieved, 0, len(entries))
	for _, entry := range entries {
		score := cosineSimilarity(queryVec, entry.Terms, queryNorm)
		if score <= 0 {
			continue
		}
		chunks = append(chunks, Retrieved{Entry: entry, Score: score})
	}

	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Score > chunks[j].Score
	})
	return chunks
}

func termVector(text string) map[string]float64 {
	tokens := rouge.Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	vec := make(map[string]float64, len(tokens))
	for _, tok := range tokens {
		vec[tok]++
	}
	return vec
}

func cosineSimilarity(a, b map[string]float64, normA float64) float64 {
	if normA == 0 {
		return 0
	}
	normB := vectorNorm(b)
	if normB == 0 {
		return 0
	}
	dot := 0.0
	for term, weight := range a {
		dot += weight * b[term]
	}
	return dot / (normA * normB)
}

func vectorNorm(v map[string]float64) float64 {
	sum := 0.0
	for _, val := range v {
		sum += val * val
	}
	return math.Sqrt(sum)
}

// Load reads a JSONL index written by Save. A missing file yields an empty store.
func (s *Store) Load(path string) error {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open knowledge index: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 8*1024*1024)

	var entries []Entry
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return fmt.Errorf("parse knowledge index line %d: %w", lineNo, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read knowledge index: %w", err)
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	return nil
}

// Save writes the index as JSONL, one entry per line.
func (s *Store) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create knowledge index: %w", err)
	}

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)
	s.mu.RLock()
	for _, entry := range s.entries {
		if err = enc.Encode(entry); err != nil {
			break
		}
	}
	s.mu.RUnlock()
	if err == nil {
		err = w.Flush()
	}
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write knowledge index: %w", err)
	}
	return nil
}
