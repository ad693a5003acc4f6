package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntitiesStrictJSON(t *testing.T) {
	raw := `[{"name":"Marie Curie","type":"PERSON","description":"physicist","confidence":0.95},
		{"name":"Sorbonne","type":"ORGANIZATION"}]`

	entities, err := ParseEntities(raw)
	require.NoError(t, err)
	require.Len(t, entities, 2)

	assert.Equal(t, "Marie Curie", entities[0].Name)
	assert.Equal(t, "PERSON", entities[0].Type)
	assert.Equal(t, "physicist", entities[0].Description)
	assert.InDelta(t, 0.95, entities[0].Confidence, 1e-9)
	// Missing confidence falls back to the default.
	assert.InDelta(t, 0.7, entities[1].Confidence, 1e-9)
}

func TestParseEntitiesFencedBlock(t *testing.T) {
	raw := "Here you go:\n```json\n[{\"name\":\"Go\",\"type\":\"LANGUAGE\"}]\n```\nDone."

	entities, err := ParseEntities(raw)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "Go", entities[0].Name)
}

func TestParseEntitiesSingleQuotedWithApostrophes(t *testing.T) {
	// Single-quoted keys, an apostrophe inside a value, a missing comma
	// between objects, and a trailing comma, all at once.
	raw := `[{'name': "L'Histoire", 'type': 'DOCUMENT'} {'name':'Ulm','type':'LOCATION'},]`

	entities, err := ParseEntities(raw)
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, "L'Histoire", entities[0].Name)
	assert.Equal(t, "DOCUMENT", entities[0].Type)
	assert.Equal(t, "Ulm", entities[1].Name)
	assert.Equal(t, "LOCATION", entities[1].Type)
}

func TestParseEntitiesPythonLiterals(t *testing.T) {
	raw := `[{"name":"BERT","type":"MODEL","description":None,"confidence":0.8},
		{"name":"Rust","type":"LANGUAGE","deprecated":False}]`

	entities, err := ParseEntities(raw)
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Empty(t, entities[0].Description)
}

func TestParseEntitiesSalvagesObjectsFromProse(t *testing.T) {
	raw := `I found these entities in the text.
First: {"name":"Kafka","type":"TECHNOLOGY"} which handles messaging.
Second: {"name":"ZooKeeper","type":"TECHNOLOGY"} for coordination.`

	entities, err := ParseEntities(raw)
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, "Kafka", entities[0].Name)
	assert.Equal(t, "ZooKeeper", entities[1].Name)
}

func TestParseEntitiesDropsIncompleteObjects(t *testing.T) {
	raw := `[{"name":"Valid","type":"CONCEPT"},{"name":"NoType"},{"type":"PERSON"}]`

	entities, err := ParseEntities(raw)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "Valid", entities[0].Name)
}

func TestParseEntitiesAlternateFieldNames(t *testing.T) {
	raw := `[{"entity":"Tesla","label":"ORGANIZATION","confidence":"0.85"}]`

	entities, err := ParseEntities(raw)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "Tesla", entities[0].Name)
	assert.Equal(t, "ORGANIZATION", entities[0].Type)
	assert.InDelta(t, 0.85, entities[0].Confidence, 1e-9)
}

func TestParseEntitiesUnparseable(t *testing.T) {
	_, err := ParseEntities("there is no structured output here at all")
	require.Error(t, err)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.NotEmpty(t, pe.Strategy)
	assert.Contains(t, pe.Snippet, "no structured output")
}

func TestParseEntitiesEmptyInput(t *testing.T) {
	entities, err := ParseEntities("   \n")
	require.NoError(t, err)
	assert.Empty(t, entities)
}

func TestParseErrorSnippetBounded(t *testing.T) {
	_, err := ParseEntities(strings.Repeat("x", 4000))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.LessOrEqual(t, len(pe.Snippet), snippetLimit)
}

func TestParseRelationsCanonicalShape(t *testing.T) {
	raw := `[{"source":"Marie Curie","target":"Sorbonne","type":"EMPLOYS",
		"evidence":"she worked at the Sorbonne","strength":10,"confidence":0.9}]`

	relations, err := ParseRelations(raw)
	require.NoError(t, err)
	require.Len(t, relations, 1)

	r := relations[0]
	assert.Equal(t, "Marie Curie", r.Source)
	assert.Equal(t, "Sorbonne", r.Target)
	assert.Equal(t, "EMPLOYS", r.Type)
	assert.Equal(t, "she worked at the Sorbonne", r.Evidence)
	assert.Equal(t, 10, r.Strength)
}

func TestParseRelationsSubjectPredicateObject(t *testing.T) {
	raw := `[{"subject":"Anthropic","predicate":"was founded by","object":"Dario Amodei"}]`

	relations, err := ParseRelations(raw)
	require.NoError(t, err)
	require.Len(t, relations, 1)

	r := relations[0]
	assert.Equal(t, "Anthropic", r.Source)
	assert.Equal(t, "Dario Amodei", r.Target)
	assert.Equal(t, "FOUNDED_BY", r.Type)
	// Defaults for the fields the alternate shape never carries.
	assert.InDelta(t, 0.7, r.Confidence, 1e-9)
	assert.Equal(t, 5, r.Strength)
}

func TestParseRelationsDropsIncomplete(t *testing.T) {
	raw := `[{"source":"A","target":"B","type":"USES"},{"source":"A","type":"USES"}]`

	relations, err := ParseRelations(raw)
	require.NoError(t, err)
	assert.Len(t, relations, 1)
}

func TestFoldPredicate(t *testing.T) {
	tests := []struct {
		predicate string
		want      string
	}{
		{"was founded by", "FOUNDED_BY"},
		{"is located in", "LOCATED_IN"},
		{"uses", "USES"},
		{"has been working with", "WORKING_WITH"},
		{"", ""},
		{"is", ""},
	}
	for _, tc := range tests {
		t.Run(tc.predicate, func(t *testing.T) {
			assert.Equal(t, tc.want, foldPredicate(tc.predicate))
		})
	}
}

func TestRepairControlCharacters(t *testing.T) {
	raw := "[{\"name\":\"A\x01B\",\"type\":\"CONCEPT\"}]"

	entities, err := ParseEntities(raw)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "AB", entities[0].Name)
}
