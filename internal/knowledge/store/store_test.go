package store

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPassagesKeepsSentencesWhole(t *testing.T) {
	t.Parallel()

	passages := splitPassages("One two three. Four five. Six seven eight nine.", 6, 2)
	assert.Equal(t, []passage{
		{Start: 0, Text: "One two three. Four five.", Words: 5},
		{Start: 3, Text: "Four five. Six seven eight nine.", Words: 6},
	}, passages)
}

func TestSplitPassagesWindowsLongSentences(t *testing.T) {
	t.Parallel()

	passages := splitPassages("a b c d e f g", 3, 1)
	require.Len(t, passages, 3)
	assert.Equal(t, "a b c", passages[0].Text)
	assert.Equal(t, "c d e", passages[1].Text)
	assert.Equal(t, passage{Start: 4, Text: "e f g", Words: 3}, passages[2])

	assert.Nil(t, splitPassages("   ", 3, 1))
	assert.Nil(t, splitPassages("a b", 0, 0))
}

func TestSplitPassagesBreaksOnParagraphs(t *testing.T) {
	t.Parallel()

	passages := splitPassages("Heading\n\nBody text here.", 3, 0)
	assert.Equal(t, []passage{
		{Start: 0, Text: "Heading", Words: 1},
		{Start: 1, Text: "Body text here.", Words: 3},
	}, passages)

	quoted := splitPassages(`He said "stop." Then left.`, 3, 0)
	require.Len(t, quoted, 2)
	assert.Equal(t, `He said "stop."`, quoted[0].Text)
}

func TestStoreSearchOrdersBySimilarity(t *testing.T) {
	t.Parallel()

	s := New(50, 0)
	assert.Equal(t, 1, s.Add("geo", "Paris is the capital of France"))
	assert.Equal(t, 1, s.Add("math", "Two plus two equals four"))
	assert.Equal(t, 1, s.Add("mixed", "France uses the euro and two official time zones"))
	assert.Equal(t, 3, s.Len())

	results := s.Search("What is the capital of France?", 0)
	require.Len(t, results, 2)
	assert.Equal(t, "geo", results[0].Entry.Doc)
	assert.Greater(t, results[0].Score, results[1].Score)

	top := s.Search("capital France", 1)
	require.Len(t, top, 1)
	assert.Equal(t, "geo", top[0].Entry.Doc)

	assert.Empty(t, s.Search("zebra", 5))
	assert.Empty(t, s.Search("   ", 5))
}

func TestStoreSaveLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "index", "knowledge.jsonl")
	s := New(4, 1)
	s.Add("doc", "one two three four five six seven")
	require.NoError(t, s.Save(path))

	loaded := New(0, 0)
	require.NoError(t, loaded.Load(path))
	assert.Equal(t, s.Len(), loaded.Len())
	assert.Equal(t, s.Search("seven", 1), loaded.Search("seven", 1))

	empty := New(0, 0)
	require.NoError(t, empty.Load(filepath.Join(t.TempDir(), "missing.jsonl")))
	assert.Zero(t, empty.Len())
}

func TestNewDigestRespectsWordBudget(t *testing.T) {
	t.Parallel()

	hits := []Retrieved{
		{Entry: Entry{Doc: "a.md", Text: "one two three four"}, Score: 0.9},
		{Entry: Entry{Doc: "b.md", Text: "five six seven"}, Score: 0.5},
		{Entry: Entry{Doc: "c.md", Text: "eight"}, Score: 0.4},
	}

	d := NewDigest(hits, 5)
	assert.Equal(t, 5, d.Words)
	assert.Equal(t, []string{"a.md", "b.md"}, d.Sources)
	assert.Equal(t, "[1] a.md (relevance 0.90)\none two three four\n[2] b.md (relevance 0.50)\nfive", d.Text)
}

func TestNewDigestSkipsRepeatedText(t *testing.T) {
	t.Parallel()

	d := NewDigest([]Retrieved{
		{Entry: Entry{Doc: "a.md", Text: "x y"}, Score: 0.8},
		{Entry: Entry{Doc: "a.md", Text: " x  y "}, Score: 0.7},
		{Entry: Entry{Doc: "c.md", Text: "z"}, Score: 0.6},
		{Entry: Entry{Doc: "d.md", Text: "   "}, Score: 0.5},
	}, 0)
	assert.Equal(t, 3, d.Words)
	assert.Equal(t, []string{"a.md", "c.md"}, d.Sources)
	assert.True(t, strings.HasSuffix(d.Text, "[2] c.md (relevance 0.60)\nz"))
}

func TestNewDigestNoHits(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Digest{}, NewDigest(nil, 10))
}
