package store

import "strings"

// passage is a run of whole sentences indexed as one chunk. Start is the word
// offset of its first word within the ingested text.
type passage struct {
	Start int
	Text  string
	Words int
}

// sentence is a slice of words ending at terminal punctuation or a blank line.
type sentence struct {
	start int
	words []string
}

// splitSentences breaks text into sentences. Paragraph breaks always end a sentence.
func splitSentences(text string) []sentence {
	var out []sentence
	offset := 0
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		cur := sentence{start: offset}
		for _, w := range strings.Fields(para) {
			cur.words = append(cur.words, w)
			offset++
			if endsSentence(w) {
				out = append(out, cur)
				cur = sentence{start: offset}
			}
		}
		if len(cur.words) > 0 {
			out = append(out, cur)
		}
	}
	return out
}

func endsSentence(word string) bool {
	word = strings.TrimRight(word, `"')]`)
	return strings.HasSuffix(word, ".") || strings.HasSuffix(word, "!") || strings.HasSuffix(word, "?")
}

// windows cuts a sentence longer than size into overlapping word windows.
func (s sentence) windows(size, overlap int) []sentence {
	if len(s.words) <= size {
		return []sentence{s}
	}
	step := size - overlap
	if step <= 0 {
		step = size
	}
	var out []sentence
	for i := 0; i < len(s.words); i += step {
		end := min(i+size, len(s.words))
		out = append(out, sentence{start: s.start + i, words: s.words[i:end]})
		if end == len(s.words) {
			break
		}
	}
	return out
}

// splitPassages packs sentences into passages of at most size words. Each new
// passage repeats the trailing sentences of the previous one that fit in overlap
// words.
func splitPassages(text string, size, overlap int) []passage {
	if size <= 0 {
		return nil
	}
	overlap = max(overlap, 0)

	var (
		out   []passage
		cur   []sentence
		words int
		fresh bool
	)
	emit := func() {
		var parts []string
		for _, s := range cur {
			parts = append(parts, s.words...)
		}
		out = append(out, passage{Start: cur[0].start, Text: strings.Join(parts, " "), Words: words})
		fresh = false
	}

	for _, s := range splitSentences(text) {
		for _, piece := range s.windows(size, overlap) {
			if words > 0 && words+len(piece.words) > size {
				emit()
				cur, words = carry(cur, overlap)
				if words+len(piece.words) > size {
					cur, words = nil, 0
				}
			}
			cur = append(cur, piece)
			words += len(piece.words)
			fresh = true
		}
	}
	if fresh {
		emit()
	}
	return out
}

// carry returns the longest suffix of sentences holding at most limit words.
func carry(sentences []sentence, limit int) ([]sentence, int) {
	words := 0
	i := len(sentences)
	for i > 0 && words+len(sentences[i-1].words) <= limit {
		i--
		words += len(sentences[i].words)
	}
	return append([]sentence(nil), sentences[i:]...), words
}
