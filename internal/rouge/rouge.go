// Package rouge computes ROUGE-1, ROUGE-2 and ROUGE-L overlap between a reference
// and a candidate text.
package rouge

import (
	"regexp"
	"strings"

	"github.com/kljensen/snowball/english"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Score holds precision, recall and F-measure for one ROUGE variant.
type Score struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	FMeasure  float64 `json:"fmeasure"`
}

// Scores groups the three ROUGE variants for one reference/candidate pair.
type Scores struct {
	Rouge1 Score `json:"rouge1"`
	Rouge2 Score `json:"rouge2"`
	RougeL Score `json:"rougeL"`
}

// Compute scores candidate against reference with stemming enabled.
func Compute(reference, candidate string) Scores {
	ref := Tokenize(reference)
	cand := Tokenize(candidate)
	return Scores{
		Rouge1: ngramScore(ref, cand, 1),
		Rouge2: ngramScore(ref, cand, 2),
		RougeL: lcsScore(ref, cand),
	}
}

// Tokenize lowercases text, drops punctuation and stems words longer than three letters.
func Tokenize(text string) []string {
	cleaned := nonAlnum.ReplaceAllString(strings.ToLower(text), " ")
	fields := strings.Fields(cleaned)
	for i, tok := range fields {
		if len(tok) > 3 {
			fields[i] = english.Stem(tok, false)
		}
	}
	return fields
}

func ngrams(tokens []string, n int) map[string]int {
	counts := make(map[string]int)
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], " ")]++
	}
	return counts
}

func ngramScore(ref, cand []string, n int) Score {
	refGrams := ngrams(ref, n)
	candGrams := ngrams(cand, n)

	var overlap, refTotal, candTotal int
	for gram, c := range refGrams {
		refTotal += c
		if other, ok := candGrams[gram]; ok {
			overlap += min(c, other)
		}
	}
	for _, c := range candGrams {
		candTotal += c
	}
	return newScore(overlap, candTotal, refTotal)
}

func lcsScore(ref, cand []string) Score {
	return newScore(lcsLength(ref, cand), len(cand), len(ref))
}

func lcsLength(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func newScore(overlap, candTotal, refTotal int) Score {
	var s Score
	if candTotal > 0 {
		s.Precision = float64(overlap) / float64(candTotal)
	}
	if refTotal > 0 {
		s.Recall = float64(overlap) / float64(refTotal)
	}
	if s.Precision+s.Recall > 0 {
		s.FMeasure = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
	}
	return s
}
