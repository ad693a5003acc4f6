package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmason/graphion/pkg/config"
	"github.com/bitmason/graphion/pkg/kg"
)

func nerEntity(name, label string) kg.Entity {
	ent := kg.NewEntity(name, label, "doc-1", 0.9)
	ent.Properties = map[string]any{"origin": "ner", "ner_label": label}
	return ent
}

func llmEntity(name, rawType string) kg.Entity {
	ent := kg.NewEntity(name, rawType, "doc-1", 0.8)
	ent.Properties = map[string]any{"origin": "llm_enrichment", "raw_type": rawType}
	return ent
}

func TestConsolidateTaggerWins(t *testing.T) {
	c := NewConsolidator(nil, true, nil)

	entities, stats := c.Consolidate(context.Background(), "en",
		[]kg.Entity{nerEntity("Microsoft", "ORG")},
		[]kg.Entity{llmEntity("microsoft", "ORGANIZATION"), llmEntity("Azure", "PRODUCT")})

	require.Len(t, entities, 2)
	// The tagger's casing survives; the LLM duplicate is dropped.
	assert.Equal(t, "Microsoft", entities[0].Name)
	assert.Equal(t, "ner", entities[0].Properties["origin"])
	assert.Equal(t, "Azure", entities[1].Name)

	assert.Equal(t, 3, stats.Input)
	assert.Equal(t, 2, stats.Kept)
	assert.Equal(t, 1, stats.Duplicates)
}

func TestConsolidateRejectsGenericTypes(t *testing.T) {
	c := NewConsolidator(nil, true, nil)

	entities, stats := c.Consolidate(context.Background(), "en",
		[]kg.Entity{nerEntity("Some Leftover Run", "MISC")},
		[]kg.Entity{llmEntity("Thing", "ENTITY"), llmEntity("Kubernetes", "TECHNOLOGY")})

	require.Len(t, entities, 1)
	assert.Equal(t, "Kubernetes", entities[0].Name)
	// Both generic buckets are rejected on the pre-normalization type even
	// though normalization already folded them to CONCEPT.
	assert.Equal(t, 2, stats.FilteredByType)
}

func TestConsolidateStripsArticles(t *testing.T) {
	c := NewConsolidator(nil, true, nil)

	entities, _ := c.Consolidate(context.Background(), "en",
		nil, []kg.Entity{llmEntity("the Eiffel Tower", "LOCATION")})

	require.Len(t, entities, 1)
	assert.Equal(t, "Eiffel Tower", entities[0].Name)
}

func TestConsolidateStripsGermanArticles(t *testing.T) {
	c := NewConsolidator(nil, true, nil)

	entities, _ := c.Consolidate(context.Background(), "de",
		nil, []kg.Entity{llmEntity("die Bundesbank", "ORGANIZATION")})

	require.Len(t, entities, 1)
	assert.Equal(t, "Bundesbank", entities[0].Name)
}

func TestConsolidateRejectsStopWordNames(t *testing.T) {
	c := NewConsolidator(nil, true, nil)

	entities, stats := c.Consolidate(context.Background(), "en",
		nil, []kg.Entity{llmEntity("This", "CONCEPT"), llmEntity("Paris", "LOCATION")})

	require.Len(t, entities, 1)
	assert.Equal(t, "Paris", entities[0].Name)
	assert.Equal(t, 1, stats.FilteredStopWords)
}

func TestConsolidateLengthBounds(t *testing.T) {
	cfg := &config.ConsolidationConfig{MinNameLength: 2, MaxNameLength: 10}
	c := NewConsolidator(cfg, true, nil)

	entities, stats := c.Consolidate(context.Background(), "en",
		nil, []kg.Entity{
			llmEntity("X", "CONCEPT"),
			llmEntity("a name far too long to be an entity", "CONCEPT"),
			llmEntity("Fits", "CONCEPT"),
		})

	require.Len(t, entities, 1)
	assert.Equal(t, "Fits", entities[0].Name)
	assert.Equal(t, 1, stats.FilteredTooShort)
	assert.Equal(t, 1, stats.FilteredTooLong)
}

func TestConsolidateFilterDisabledKeepsStopWords(t *testing.T) {
	c := NewConsolidator(nil, false, nil)

	entities, _ := c.Consolidate(context.Background(), "en",
		nil, []kg.Entity{llmEntity("This", "CONCEPT")})

	assert.Len(t, entities, 1)
}

func TestConsolidateEmbeddingDedup(t *testing.T) {
	vectors := map[string][]float32{
		"NYC":           {1, 0, 0},
		"New York City": {1, 0, 0},
		"Tokyo":         {0, 1, 0},
	}
	embedder := embedderFunc(func(_ context.Context, text string) ([]float32, error) {
		return vectors[text], nil
	})

	cfg := config.DefaultConsolidationConfig()
	cfg.EmbeddingDedup = true
	cfg.EmbeddingThreshold = 0.9
	c := NewConsolidator(cfg, true, embedder)

	entities, stats := c.Consolidate(context.Background(), "en",
		[]kg.Entity{nerEntity("New York City", "GPE")},
		[]kg.Entity{llmEntity("NYC", "LOCATION"), llmEntity("Tokyo", "LOCATION")})

	require.Len(t, entities, 2)
	assert.Equal(t, "New York City", entities[0].Name)
	assert.Equal(t, "Tokyo", entities[1].Name)
	assert.Equal(t, 1, stats.Duplicates)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
	assert.Equal(t, 0.0, CosineSimilarity(nil, nil))
}

func TestStripLeadingArticle(t *testing.T) {
	tests := []struct {
		lang string
		in   string
		want string
	}{
		{"en", "the Louvre", "Louvre"},
		{"en", "An Apple", "Apple"},
		{"en", "Theater", "Theater"},
		{"fr", "l'Institut", "Institut"},
		{"fr", "la Seine", "Seine"},
		{"xx", "the Fallback", "Fallback"},
	}
	for _, tc := range tests {
		t.Run(tc.lang+"/"+tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, stripLeadingArticle(tc.lang, tc.in))
		})
	}
}
