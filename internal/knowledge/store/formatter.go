package store

import (
	"fmt"
	"strings"
)

// Digest is the reply text built from retrieved chunks.
type Digest struct {
	Text    string
	Words   int
	Sources []string
}

// NewDigest numbers each hit under its document and relevance, spending at most
// budget words of chunk text (0 means unlimited). A hit whose text repeats an
// earlier one is dropped. Sources lists documents in first-use order.
func NewDigest(hits []Retrieved, budget int) Digest {
	var (
		d    Digest
		b    strings.Builder
		seen = map[string]bool{}
		docs = map[string]bool{}
	)
	for _, hit := range hits {
		words := strings.Fields(hit.Entry.Text)
		key := strings.Join(words, " ")
		if len(words) == 0 || seen[key] {
			continue
		}
		if budget > 0 {
			left := budget - d.Words
			if left <= 0 {
				break
			}
			words = words[:min(left, len(words))]
		}
		seen[key] = true

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%d] %s (relevance %.2f)\n%s", len(seen), hit.Entry.Doc, hit.Score, strings.Join(words, " "))
		d.Words += len(words)
		if !docs[hit.Entry.Doc] {
			docs[hit.Entry.Doc] = true
			d.Sources = append(d.Sources, hit.Entry.Doc)
		}
	}
	d.Text = b.String()
	return d
}
