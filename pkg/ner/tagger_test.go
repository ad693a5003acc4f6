package ner

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnglishTagger(t *testing.T) *Tagger {
	t.Helper()
	tagger, err := NewRegistry(slog.Default()).Get("en")
	require.NoError(t, err)
	return tagger
}

func spanSet(spans []Span) map[string]string {
	m := make(map[string]string, len(spans))
	for _, s := range spans {
		m[s.Text] = s.Label
	}
	return m
}

func TestTagFoundingSentence(t *testing.T) {
	tagger := newEnglishTagger(t)

	spans := tagger.Tag("Microsoft was founded by Bill Gates and Paul Allen in 1975 in Albuquerque.")
	got := spanSet(spans)

	assert.Equal(t, LabelOrg, got["Microsoft"])
	assert.Equal(t, LabelPerson, got["Bill Gates"])
	assert.Equal(t, LabelPerson, got["Paul Allen"])
	assert.Equal(t, LabelDate, got["1975"])
	assert.Equal(t, LabelGPE, got["Albuquerque"])
}

func TestTagOffsetsMatchText(t *testing.T) {
	tagger := newEnglishTagger(t)
	text := "Dr. Grace Hopper joined IBM in 1949."

	spans := tagger.Tag(text)
	require.NotEmpty(t, spans)
	for _, s := range spans {
		assert.Equal(t, s.Text, text[s.Start:s.End])
	}

	got := spanSet(spans)
	assert.Equal(t, LabelPerson, got["Grace Hopper"])
	assert.Equal(t, LabelOrg, got["IBM"])
	assert.Equal(t, LabelDate, got["1949"])
}

func TestTagQuantities(t *testing.T) {
	tagger := newEnglishTagger(t)

	spans := tagger.Tag("Revenue grew 12.5% to $4.2 billion across 37 countries.")
	got := spanSet(spans)

	assert.Equal(t, LabelPercent, got["12.5%"])
	assert.Equal(t, LabelMoney, got["$4.2 billion"])
	assert.Equal(t, LabelCardinal, got["37"])
}

func TestTagOrgSuffix(t *testing.T) {
	tagger := newEnglishTagger(t)

	spans := tagger.Tag("She sold Acme Corp to Globex Corporation last year.")
	got := spanSet(spans)

	assert.Equal(t, LabelOrg, got["Acme Corp"])
	assert.Equal(t, LabelOrg, got["Globex Corporation"])
}

func TestTagNoOverlappingSpans(t *testing.T) {
	tagger := newEnglishTagger(t)

	spans := tagger.Tag("Microsoft Corporation opened an office in New York in March 2020.")
	for i := 1; i < len(spans); i++ {
		assert.GreaterOrEqual(t, spans[i].Start, spans[i-1].End,
			"spans %q and %q overlap", spans[i-1].Text, spans[i].Text)
	}
}

func TestTagSentenceInitialStopWord(t *testing.T) {
	tagger := newEnglishTagger(t)

	spans := tagger.Tag("The company shipped nothing. It failed.")
	got := spanSet(spans)
	assert.NotContains(t, got, "The")
	assert.NotContains(t, got, "It")
}

func TestTagDeterministic(t *testing.T) {
	tagger := newEnglishTagger(t)
	text := "Steve Jobs founded Apple in 1976 in California with $1,000."

	first := tagger.Tag(text)
	second := tagger.Tag(text)
	assert.Equal(t, first, second)
}

func TestGermanTagger(t *testing.T) {
	tagger, err := NewRegistry(slog.Default()).Get("de")
	require.NoError(t, err)

	spans := tagger.Tag("Die Siemens AG wurde 1847 in Berlin gegründet.")
	got := spanSet(spans)

	assert.Equal(t, LabelOrg, got["Siemens AG"])
	assert.Equal(t, LabelDate, got["1847"])
	assert.Equal(t, LabelGPE, got["Berlin"])
}

func TestRegistryFallsBackToEnglish(t *testing.T) {
	reg := NewRegistry(slog.Default())

	tagger, err := reg.Get("xx")
	require.NoError(t, err)
	assert.Equal(t, "en", tagger.Language())
}

func TestRegistryReusesTagger(t *testing.T) {
	reg := NewRegistry(slog.Default())

	first, err := reg.Get("en")
	require.NoError(t, err)
	second, err := reg.Get("en")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, []string{"en"}, reg.Loaded())
}

func TestMapLabel(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{LabelPerson, "PERSON"},
		{LabelOrg, "ORGANIZATION"},
		{LabelNorp, "ORGANIZATION"},
		{LabelGPE, "LOCATION"},
		{LabelDate, "TEMPORAL"},
		{LabelMoney, "QUANTITY"},
		{LabelWorkOfArt, "CONCEPT"},
		{LabelLaw, "DOCUMENT"},
		{LabelMisc, "ENTITY"},
		{"BOGUS", "ENTITY"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, MapLabel(tt.label))
		})
	}
}
