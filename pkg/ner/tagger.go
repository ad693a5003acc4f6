// Package ner implements the deterministic named-entity baseline: per
// language pattern rules plus small gazetteers, no network, stable output.
// It anchors the extraction pipeline before any LLM is consulted and feeds
// antecedent candidates to coreference resolution.
package ner

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Span is one tagged occurrence with byte offsets into the input text.
type Span struct {
	Text  string
	Label string
	Start int
	End   int
}

// Tagger tags entities for one language.
type Tagger struct {
	lang string
	data languageData

	moneyRE     *regexp.Regexp
	percentRE   *regexp.Regexp
	dateRE      *regexp.Regexp
	timeRE      *regexp.Regexp
	yearRE      *regexp.Regexp
	cardinalRE  *regexp.Regexp
	honorificRE *regexp.Regexp
	orgSuffixRE *regexp.Regexp
	tokenRE     *regexp.Regexp

	// gazetteer maps lower-cased phrases to labels; maxPhraseLen is the
	// longest phrase measured in tokens.
	gazetteer    map[string]string
	maxPhraseLen int
}

type candidate struct {
	Span
	priority int
}

// newTagger compiles the rule set for a language.
func newTagger(lang string) (*Tagger, error) {
	data, ok := languages[lang]
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}

	months := strings.Join(data.months, "|")
	hon := make([]string, len(data.honorifics))
	for i, h := range data.honorifics {
		hon[i] = regexp.QuoteMeta(h)
	}
	suf := make([]string, len(data.orgSuffixes))
	for i, s := range data.orgSuffixes {
		suf[i] = regexp.QuoteMeta(s)
	}

	t := &Tagger{
		lang:      lang,
		data:      data,
		moneyRE:   regexp.MustCompile(`(?:[$€£]\s?\d[\d,.]*(?:\s(?:million|billion|trillion|thousand))?|\b\d[\d,.]*\s?(?:USD|EUR|GBP|dollars|euros|pounds)\b)`),
		percentRE: regexp.MustCompile(`\b\d+(?:[.,]\d+)?\s?(?:%|percent|Prozent|pour cent|por ciento)`),
		dateRE: regexp.MustCompile(
			`(?:\b(?:` + months + `)\s\d{1,2}(?:st|nd|rd|th)?(?:,\s\d{4})?\b` +
				`|\b\d{1,2}\.?\s(?:` + months + `)(?:\s\d{4})?\b` +
				`|\b(?:` + months + `)\s\d{4}\b)`),
		timeRE:      regexp.MustCompile(`\b\d{1,2}:\d{2}(?::\d{2})?\b`),
		yearRE:      regexp.MustCompile(`\b(?:1[6-9]\d{2}|20\d{2})\b`),
		cardinalRE:  regexp.MustCompile(`\b\d+(?:[.,]\d+)?\b`),
		honorificRE: regexp.MustCompile(`\b(?:` + strings.Join(hon, "|") + `)\s(\p{Lu}[\p{L}'’-]+(?:\s\p{Lu}[\p{L}'’-]+)?)`),
		orgSuffixRE: regexp.MustCompile(`\b((?:\p{Lu}[\p{L}&'’.-]+\s)+(?:` + strings.Join(suf, "|") + `))(?:\s|[,.;:)]|$)`),
		tokenRE:     regexp.MustCompile(`\p{L}[\p{L}\p{M}'’-]*`),
	}

	t.gazetteer = make(map[string]string)
	addPhrases := func(phrases []string, label string) {
		for _, p := range phrases {
			t.gazetteer[strings.ToLower(p)] = label
			if n := len(strings.Fields(p)); n > t.maxPhraseLen {
				t.maxPhraseLen = n
			}
		}
	}
	addPhrases(orgGazetteer, LabelOrg)
	addPhrases(locationGazetteer, LabelGPE)
	addPhrases(productGazetteer, LabelProduct)

	return t, nil
}

// Language returns the tagger's language code.
func (t *Tagger) Language() string { return t.lang }

// Tag finds entity spans in text. Output is sorted by start offset and free
// of overlaps; on overlap the higher-priority, then longer, candidate wins.
func (t *Tagger) Tag(text string) []Span {
	var cands []candidate

	collect := func(re *regexp.Regexp, label string, priority int) {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			cands = append(cands, candidate{
				Span:     Span{Text: text[loc[0]:loc[1]], Label: label, Start: loc[0], End: loc[1]},
				priority: priority,
			})
		}
	}

	collect(t.moneyRE, LabelMoney, 90)
	collect(t.percentRE, LabelPercent, 90)
	collect(t.dateRE, LabelDate, 85)
	collect(t.timeRE, LabelTime, 85)
	collect(t.yearRE, LabelDate, 80)
	collect(t.cardinalRE, LabelCardinal, 20)

	for _, m := range t.honorificRE.FindAllStringSubmatchIndex(text, -1) {
		// Submatch 1 is the name without the honorific.
		cands = append(cands, candidate{
			Span:     Span{Text: text[m[2]:m[3]], Label: LabelPerson, Start: m[2], End: m[3]},
			priority: 70,
		})
	}

	for _, m := range t.orgSuffixRE.FindAllStringSubmatchIndex(text, -1) {
		start, end := t.trimLeadingStopWords(text, m[2], m[3])
		if start >= end {
			continue
		}
		cands = append(cands, candidate{
			Span:     Span{Text: text[start:end], Label: LabelOrg, Start: start, End: end},
			priority: 65,
		})
	}

	cands = append(cands, t.capitalizedRuns(text)...)

	return resolveOverlaps(cands)
}

// capitalizedRuns walks capitalized token sequences and yields gazetteer
// matches, first-name anchored person bigrams, and MISC for leftover
// multi-token runs. Sentence-initial stop words never start a run.
func (t *Tagger) capitalizedRuns(text string) []candidate {
	tokens := t.tokenRE.FindAllStringIndex(text, -1)
	var cands []candidate

	isCap := func(s string) bool {
		r := []rune(s)
		return len(r) > 0 && unicode.IsUpper(r[0])
	}

	i := 0
	for i < len(tokens) {
		word := text[tokens[i][0]:tokens[i][1]]
		if !isCap(word) {
			i++
			continue
		}
		if _, stop := t.data.capStop[word]; stop && t.sentenceInitial(text, tokens[i][0]) {
			i++
			continue
		}

		// Extend the run while tokens stay capitalized and adjacent.
		j := i
		for j+1 < len(tokens) {
			next := text[tokens[j+1][0]:tokens[j+1][1]]
			if !isCap(next) || !adjacent(text, tokens[j][1], tokens[j+1][0]) {
				break
			}
			if _, stop := t.data.capStop[next]; stop {
				break
			}
			j++
		}

		cands = append(cands, t.matchRun(text, tokens[i:j+1])...)
		i = j + 1
	}
	return cands
}

// matchRun classifies one capitalized token run. Gazetteer phrases are tried
// longest-first from each position, then the first-name person rule; token
// stretches left uncovered by either become MISC spans when two or more
// tokens long.
func (t *Tagger) matchRun(text string, tokens [][]int) []candidate {
	var cands []candidate
	covered := make([]bool, len(tokens))

	k := 0
	for k < len(tokens) {
		maxLen := t.maxPhraseLen
		if rest := len(tokens) - k; rest < maxLen {
			maxLen = rest
		}

		matched := 0
		for n := maxLen; n >= 1; n-- {
			start, end := tokens[k][0], tokens[k+n-1][1]
			if label, ok := t.gazetteer[strings.ToLower(text[start:end])]; ok {
				cands = append(cands, candidate{
					Span:     Span{Text: text[start:end], Label: label, Start: start, End: end},
					priority: 75,
				})
				matched = n
				break
			}
		}

		if matched == 0 && k+1 < len(tokens) && containsFold(firstNames, text[tokens[k][0]:tokens[k][1]]) {
			start, end := tokens[k][0], tokens[k+1][1]
			cands = append(cands, candidate{
				Span:     Span{Text: text[start:end], Label: LabelPerson, Start: start, End: end},
				priority: 60,
			})
			matched = 2
		}

		if matched > 0 {
			for i := k; i < k+matched; i++ {
				covered[i] = true
			}
			k += matched
			continue
		}
		k++
	}

	// Uncovered stretches of two or more tokens surface as MISC so the
	// generic-bucket filter downstream sees them.
	i := 0
	for i < len(tokens) {
		if covered[i] {
			i++
			continue
		}
		j := i
		for j+1 < len(tokens) && !covered[j+1] {
			j++
		}
		if j > i {
			start, end := tokens[i][0], tokens[j][1]
			cands = append(cands, candidate{
				Span:     Span{Text: text[start:end], Label: LabelMisc, Start: start, End: end},
				priority: 30,
			})
		}
		i = j + 1
	}

	return cands
}

// trimLeadingStopWords advances the span start past sentence-connective
// capitalized words (Die, The, La) captured by the greedy org-suffix rule.
func (t *Tagger) trimLeadingStopWords(text string, start, end int) (int, int) {
	for {
		tok := t.tokenRE.FindStringIndex(text[start:end])
		if tok == nil || tok[0] != 0 {
			return start, end
		}
		word := text[start : start+tok[1]]
		if _, stop := t.data.capStop[word]; !stop {
			return start, end
		}
		next := start + tok[1]
		for next < end && text[next] == ' ' {
			next++
		}
		start = next
	}
}

// sentenceInitial reports whether the token at offset starts the text or
// follows a sentence terminator.
func (t *Tagger) sentenceInitial(text string, offset int) bool {
	for i := offset - 1; i >= 0; i-- {
		c := text[i]
		switch {
		case c == ' ' || c == '\n' || c == '\t' || c == '"' || c == '\'':
			continue
		case c == '.' || c == '!' || c == '?':
			return true
		default:
			return false
		}
	}
	return true
}

// adjacent reports whether only spaces separate two token boundaries.
func adjacent(text string, end, start int) bool {
	if start-end > 3 {
		return false
	}
	for i := end; i < start; i++ {
		if text[i] != ' ' {
			return false
		}
	}
	return true
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// resolveOverlaps greedily accepts non-overlapping spans, longest first and
// priority breaking length ties, returning them in text order.
func resolveOverlaps(cands []candidate) []Span {
	sort.Slice(cands, func(i, j int) bool {
		li, lj := cands[i].End-cands[i].Start, cands[j].End-cands[j].Start
		if li != lj {
			return li > lj
		}
		if cands[i].priority != cands[j].priority {
			return cands[i].priority > cands[j].priority
		}
		return cands[i].Start < cands[j].Start
	})

	var accepted []Span
	for _, c := range cands {
		overlaps := false
		for _, a := range accepted {
			if c.Start < a.End && a.Start < c.End {
				overlaps = true
				break
			}
		}
		if !overlaps {
			accepted = append(accepted, c.Span)
		}
	}

	sort.Slice(accepted, func(i, j int) bool { return accepted[i].Start < accepted[j].Start })
	return accepted
}
