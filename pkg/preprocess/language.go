// Package preprocess prepares raw text for extraction: language detection,
// sentence segmentation, pronoun-to-antecedent rewriting, and overlapping
// sentence windows for cross-sentence relation extraction.
package preprocess

import (
	"regexp"
	"strings"
)

var wordRE = regexp.MustCompile(`\p{L}[\p{L}\p{M}'’-]*`)

// stopWords holds high-frequency function words per language. Detection
// counts token hits per list; the language with the most hits wins.
var stopWords = map[string]map[string]struct{}{
	"en": wordSet("the", "and", "of", "to", "in", "is", "was", "that", "it",
		"for", "with", "as", "his", "her", "they", "this", "are", "be", "by",
		"from", "has", "have", "not", "were", "which"),
	"de": wordSet("der", "die", "das", "und", "ist", "von", "mit", "für",
		"auf", "dem", "den", "ein", "eine", "nicht", "sich", "auch", "wurde",
		"werden", "bei", "aus", "dass", "im", "zu", "hat", "sind"),
	"fr": wordSet("le", "la", "les", "et", "des", "du", "est", "dans",
		"pour", "que", "qui", "une", "avec", "sur", "pas", "au", "aux",
		"par", "été", "ses", "sont", "plus", "ont", "cette", "se"),
	"es": wordSet("el", "los", "las", "y", "en", "es", "que", "un", "una",
		"por", "con", "para", "del", "se", "su", "al", "más", "como", "fue",
		"son", "este", "esta", "entre", "también", "pero"),
}

// detectionOrder fixes tie-breaking; English wins ambiguous input.
var detectionOrder = []string{"en", "de", "fr", "es"}

func wordSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// DetectLanguage guesses the dominant language of text by stop-word
// frequency. Returns a two-letter code from {en, de, fr, es}; short or
// signal-free input defaults to en.
func DetectLanguage(text string) string {
	tokens := wordRE.FindAllString(strings.ToLower(text), -1)
	if len(tokens) == 0 {
		return "en"
	}

	scores := make(map[string]int, len(stopWords))
	for _, tok := range tokens {
		for lang, set := range stopWords {
			if _, ok := set[tok]; ok {
				scores[lang]++
			}
		}
	}

	best := "en"
	bestScore := 0
	for _, lang := range detectionOrder {
		if scores[lang] > bestScore {
			best = lang
			bestScore = scores[lang]
		}
	}
	return best
}
