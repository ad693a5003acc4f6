package preprocess

import "strings"

// Window is one overlapping sentence window handed to relation extraction.
// FirstSentence and LastSentence index into the segmented sentence list.
type Window struct {
	Text          string
	FirstSentence int
	LastSentence  int
}

// Windows builds overlapping sentence windows. Texts with minSentences or
// fewer sentences come back as a single window spanning everything. The
// final window is re-aligned to the tail so the last size sentences are
// always covered together.
func Windows(sentences []Sentence, size, overlap, minSentences int) []Window {
	if size < 1 {
		size = 1
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	n := len(sentences)
	if n == 0 {
		return nil
	}
	if n <= minSentences || n <= size {
		return []Window{joinWindow(sentences, 0, n-1)}
	}

	step := size - overlap
	var windows []Window
	last := -1
	for start := 0; start+size <= n; start += step {
		windows = append(windows, joinWindow(sentences, start, start+size-1))
		last = start + size - 1
	}

	if last < n-1 {
		windows = append(windows, joinWindow(sentences, n-size, n-1))
	}
	return windows
}

func joinWindow(sentences []Sentence, first, last int) Window {
	parts := make([]string, 0, last-first+1)
	for i := first; i <= last; i++ {
		parts = append(parts, sentences[i].Text)
	}
	return Window{
		Text:          strings.Join(parts, " "),
		FirstSentence: first,
		LastSentence:  last,
	}
}
