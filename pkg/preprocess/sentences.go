package preprocess

import "strings"

// Sentence is one segment of the input with byte offsets into the original
// text.
type Sentence struct {
	Text  string
	Start int
	End   int
}

// abbreviations that end with a period but do not terminate a sentence.
var abbreviations = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "dr": {}, "prof": {}, "sr": {}, "jr": {},
	"st": {}, "vs": {}, "etc": {}, "e.g": {}, "i.e": {}, "no": {}, "inc": {},
	"corp": {}, "ltd": {}, "co": {}, "u.s": {}, "u.k": {}, "approx": {},
	"fig": {}, "al": {}, "ca": {}, "cf": {},
}

// SplitSentences segments text into sentences on terminal punctuation,
// skipping common abbreviations and decimal numbers. Offsets index the
// original string so callers can map entities back.
func SplitSentences(text string) []Sentence {
	var sentences []Sentence
	start := 0

	flush := func(end int) {
		seg := text[start:end]
		trimmed := strings.TrimSpace(seg)
		if trimmed != "" {
			lead := strings.Index(seg, trimmed)
			sentences = append(sentences, Sentence{
				Text:  trimmed,
				Start: start + lead,
				End:   start + lead + len(trimmed),
			})
		}
		start = end
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}

		// Swallow runs of terminal punctuation ("?!", "...").
		j := i
		for j+1 < len(text) && (text[j+1] == '.' || text[j+1] == '!' || text[j+1] == '?') {
			j++
		}

		if c == '.' && j == i {
			if isAbbreviation(text, i) || isDecimalPoint(text, i) {
				continue
			}
		}

		// A sentence ends only when followed by whitespace then an
		// upper-case letter or digit, or by end of text.
		k := j + 1
		for k < len(text) && (text[k] == ' ' || text[k] == '\n' || text[k] == '\t' || text[k] == '"' || text[k] == '\'') {
			k++
		}
		if k < len(text) && (k == j+1 || !startsSentence(text[k:])) {
			i = j
			continue
		}

		flush(j + 1)
		i = j
	}

	if start < len(text) {
		flush(len(text))
	}
	return sentences
}

func isAbbreviation(text string, dot int) bool {
	wordStart := dot
	for wordStart > 0 {
		c := text[wordStart-1]
		if c == ' ' || c == '\n' || c == '\t' || c == '(' {
			break
		}
		wordStart--
	}
	word := strings.ToLower(text[wordStart:dot])
	_, ok := abbreviations[word]
	return ok
}

func isDecimalPoint(text string, dot int) bool {
	return dot > 0 && dot+1 < len(text) &&
		text[dot-1] >= '0' && text[dot-1] <= '9' &&
		text[dot+1] >= '0' && text[dot+1] <= '9'
}

func startsSentence(rest string) bool {
	r := []rune(rest)
	if len(r) == 0 {
		return false
	}
	c := r[0]
	return (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || (c >= 'À' && c <= 'Þ')
}
