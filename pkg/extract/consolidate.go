package extract

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/bitmason/graphion/pkg/config"
	"github.com/bitmason/graphion/pkg/kg"
	"github.com/bitmason/graphion/pkg/llm"
)

// ConsolidationStats counts what the consolidator rejected and why.
type ConsolidationStats struct {
	Input             int `json:"input"`
	Kept              int `json:"kept"`
	FilteredByType    int `json:"filtered_by_type"`
	FilteredTooShort  int `json:"filtered_too_short"`
	FilteredTooLong   int `json:"filtered_too_long"`
	FilteredStopWords int `json:"filtered_stop_words"`
	Duplicates        int `json:"duplicates"`
}

// leading articles stripped per language before filtering and dedup.
var articles = map[string][]string{
	"en": {"the", "a", "an"},
	"de": {"der", "die", "das", "den", "dem", "des", "ein", "eine", "einer", "eines"},
	"fr": {"le", "la", "les", "l'", "un", "une", "des"},
	"es": {"el", "la", "los", "las", "un", "una", "unos", "unas"},
	"it": {"il", "lo", "la", "i", "gli", "le", "un", "una", "uno"},
	"pt": {"o", "a", "os", "as", "um", "uma", "uns", "umas"},
}

// pure stop-word names rejected outright when filtering is enabled.
var stopWordNames = map[string]struct{}{
	"the": {}, "this": {}, "that": {}, "these": {}, "those": {}, "it": {},
	"they": {}, "them": {}, "he": {}, "she": {}, "we": {}, "you": {},
	"der": {}, "die": {}, "das": {}, "es": {}, "sie": {},
	"le": {}, "la": {}, "les": {}, "il": {}, "elle": {},
	"el": {}, "los": {}, "las": {}, "ella": {},
}

// Consolidator merges tagger and LLM entities: type and length validation,
// optional article stripping, then tagger-first dedup. Tagger entities are
// the trusted source; an LLM entity duplicating one is discarded.
type Consolidator struct {
	cfg          *config.ConsolidationConfig
	filterActive bool
	embedder     llm.Embedder
	logger       *slog.Logger
}

// NewConsolidator builds a consolidator. embedder may be nil; similarity
// dedup then stays off regardless of configuration.
func NewConsolidator(cfg *config.ConsolidationConfig, filterActive bool, embedder llm.Embedder) *Consolidator {
	if cfg == nil {
		cfg = config.DefaultConsolidationConfig()
	}
	return &Consolidator{
		cfg:          cfg,
		filterActive: filterActive,
		embedder:     embedder,
		logger:       slog.With("component", "consolidator"),
	}
}

// Consolidate merges ner and llm entities for one chunk. Every surviving
// tagger entity is kept; LLM entities are dropped on name or similarity
// collision with a kept one.
func (c *Consolidator) Consolidate(ctx context.Context, lang string, nerEntities, llmEntities []kg.Entity) ([]kg.Entity, ConsolidationStats) {
	stats := ConsolidationStats{Input: len(nerEntities) + len(llmEntities)}

	kept := make([]kg.Entity, 0, len(nerEntities)+len(llmEntities))
	seen := make(map[string]struct{})

	for _, ent := range nerEntities {
		ent, ok := c.filter(lang, ent, &stats)
		if !ok {
			continue
		}
		if _, dup := seen[ent.Key()]; dup {
			stats.Duplicates++
			continue
		}
		seen[ent.Key()] = struct{}{}
		kept = append(kept, ent)
	}

	// Embeddings of kept names, computed lazily only when similarity dedup
	// is in play.
	var keptVectors [][]float32
	useEmbedding := c.cfg.EmbeddingDedup && c.embedder != nil

	for _, ent := range llmEntities {
		ent, ok := c.filter(lang, ent, &stats)
		if !ok {
			continue
		}
		if _, dup := seen[ent.Key()]; dup {
			stats.Duplicates++
			continue
		}
		if useEmbedding {
			if keptVectors == nil {
				keptVectors = c.embedAll(ctx, kept)
			}
			if c.similarToAny(ctx, ent, kept, keptVectors) {
				stats.Duplicates++
				continue
			}
			vec, err := c.embedder.Embed(ctx, ent.Name)
			if err == nil {
				keptVectors = append(keptVectors, vec)
			} else {
				keptVectors = append(keptVectors, nil)
			}
		}
		seen[ent.Key()] = struct{}{}
		kept = append(kept, ent)
	}

	stats.Kept = len(kept)
	c.logger.Debug("Consolidation complete",
		"input", stats.Input,
		"kept", stats.Kept,
		"filtered_type", stats.FilteredByType,
		"duplicates", stats.Duplicates)
	return kept, stats
}

// filter applies the type, length, and stop-word rules to one entity,
// returning the (possibly article-stripped) entity and whether it survives.
func (c *Consolidator) filter(lang string, ent kg.Entity, stats *ConsolidationStats) (kg.Entity, bool) {
	// The generic buckets are checked on the pre-normalization type carried
	// in provenance; both tagger and LLM entities record one.
	for _, key := range []string{"ner_label", "raw_type"} {
		if raw, ok := ent.Properties[key].(string); ok && kg.IsGenericEntityType(raw) {
			stats.FilteredByType++
			return ent, false
		}
	}
	if kg.IsGenericEntityType(string(ent.Type)) || !ent.Type.IsValid() {
		stats.FilteredByType++
		return ent, false
	}

	name := strings.TrimSpace(ent.Name)
	if c.filterActive && c.cfg.StripArticles {
		name = stripLeadingArticle(lang, name)
	}
	if c.filterActive {
		if _, stop := stopWordNames[strings.ToLower(name)]; stop {
			stats.FilteredStopWords++
			return ent, false
		}
	}

	if len(name) < c.cfg.MinNameLength {
		stats.FilteredTooShort++
		return ent, false
	}
	if len(name) > c.cfg.MaxNameLength {
		stats.FilteredTooLong++
		return ent, false
	}

	ent.Name = name
	return ent, true
}

func (c *Consolidator) embedAll(ctx context.Context, entities []kg.Entity) [][]float32 {
	vectors := make([][]float32, len(entities))
	for i, ent := range entities {
		vec, err := c.embedder.Embed(ctx, ent.Name)
		if err != nil {
			continue
		}
		vectors[i] = vec
	}
	return vectors
}

func (c *Consolidator) similarToAny(ctx context.Context, ent kg.Entity, kept []kg.Entity, keptVectors [][]float32) bool {
	vec, err := c.embedder.Embed(ctx, ent.Name)
	if err != nil {
		return false
	}
	for i := range kept {
		if keptVectors[i] == nil {
			continue
		}
		if CosineSimilarity(vec, keptVectors[i]) >= c.cfg.EmbeddingThreshold {
			return true
		}
	}
	return false
}

// stripLeadingArticle removes one leading article for the language.
func stripLeadingArticle(lang, name string) string {
	arts, ok := articles[lang]
	if !ok {
		arts = articles["en"]
	}
	lower := strings.ToLower(name)
	for _, art := range arts {
		if strings.HasSuffix(art, "'") {
			if strings.HasPrefix(lower, art) && len(name) > len(art) {
				return strings.TrimSpace(name[len(art):])
			}
			continue
		}
		if strings.HasPrefix(lower, art+" ") {
			return strings.TrimSpace(name[len(art)+1:])
		}
	}
	return name
}

// CosineSimilarity computes the cosine of two vectors; mismatched or empty
// vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
