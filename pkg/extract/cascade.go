package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bitmason/graphion/pkg/config"
	"github.com/bitmason/graphion/pkg/kg"
	"github.com/bitmason/graphion/pkg/ner"
	"github.com/bitmason/graphion/pkg/preprocess"
	"github.com/bitmason/graphion/pkg/prompt"
)

// Cascade is the legacy three-rank fallback driver. Entity and relation
// extraction walk the ranks independently: every rank failure emits a
// cascade_fallback event and the next rank runs; the last rank's error
// propagates. Cancellation aborts mid-rank without trying further ranks.
type Cascade struct {
	executor *Executor
	taggers  *ner.Registry
	prompts  *prompt.Resolver
	ranks    []config.CascadeRankConfig
	events   Sink
	logger   *slog.Logger
}

// NewCascade builds the cascade driver over the configured ranks.
func NewCascade(executor *Executor, taggers *ner.Registry, prompts *prompt.Resolver, ranks []config.CascadeRankConfig, events Sink) *Cascade {
	if events == nil {
		events = LogSink{}
	}
	return &Cascade{
		executor: executor,
		taggers:  taggers,
		prompts:  prompts,
		ranks:    ranks,
		events:   events,
		logger:   slog.With("component", "cascade"),
	}
}

// FirstRank returns the rank the gleaning loop reuses for its probes and
// continuations.
func (c *Cascade) FirstRank() config.CascadeRankConfig {
	if len(c.ranks) == 0 {
		return config.DefaultCascadeRanks()[0]
	}
	return c.ranks[0]
}

// ExtractEntities walks the ranks until one yields entities.
func (c *Cascade) ExtractEntities(ctx context.Context, text, domain, sourceDoc string) ([]kg.Entity, error) {
	pair := c.prompts.Resolve(ctx, domain)

	var lastErr error
	for i, rank := range c.ranks {
		entities, err := c.rankEntities(ctx, rank, pair, text, domain, sourceDoc)
		if err == nil {
			return entities, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			// Mid-rank cancellation aborts the cascade entirely.
			return nil, err
		}
		if i+1 < len(c.ranks) {
			c.events.Emit(CascadeFallback{
				FromRank: rank.Rank,
				ToRank:   c.ranks[i+1].Rank,
				Reason:   errorReason(err),
			})
		}
	}
	return nil, lastErr
}

// ExtractRelations walks the ranks until one yields relations.
func (c *Cascade) ExtractRelations(ctx context.Context, text string, entities []kg.Entity, domain, sourceDoc string) ([]kg.Relation, error) {
	pair := c.prompts.Resolve(ctx, domain)
	entityList := FormatEntityList(entities)

	var lastErr error
	for i, rank := range c.ranks {
		relations, err := c.executor.ExtractRelations(ctx, StageCall{
			Stage:     fmt.Sprintf("rank_%d_relations", rank.Rank),
			Prompt:    prompt.Render(pair.Relation, text, entityList, domain),
			UseCase:   config.UseCaseRelationExtraction,
			Model:     rank.Model,
			Timeout:   rank.RelationTimeout(),
			Retry:     RetryPolicy{MaxAttempts: rank.MaxRetries, BackoffMultiplier: rank.RetryBackoffMultiplier},
			SourceDoc: sourceDoc,
			Origin:    fmt.Sprintf("cascade_rank_%d", rank.Rank),
		})
		if err == nil {
			return kg.DedupeRelations(relations), nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, err
		}
		if i+1 < len(c.ranks) {
			c.events.Emit(CascadeFallback{
				FromRank: rank.Rank,
				ToRank:   c.ranks[i+1].Rank,
				Reason:   errorReason(err),
			})
		}
	}
	return nil, lastErr
}

// rankEntities runs one rank's entity pass: LLM for LLM_ONLY ranks, the
// synchronous tagger for the hybrid rank (its entity budget is unbounded).
func (c *Cascade) rankEntities(ctx context.Context, rank config.CascadeRankConfig, pair prompt.Pair, text, domain, sourceDoc string) ([]kg.Entity, error) {
	if rank.Method == config.ExtractionMethodHybridNERLLM {
		return TagEntities(c.taggers, text, sourceDoc)
	}
	return c.executor.ExtractEntities(ctx, StageCall{
		Stage:     fmt.Sprintf("rank_%d_entities", rank.Rank),
		Prompt:    prompt.Render(pair.Entity, text, "", domain),
		UseCase:   config.UseCaseEntityExtraction,
		Model:     rank.Model,
		Timeout:   rank.EntityTimeout(),
		Retry:     RetryPolicy{MaxAttempts: rank.MaxRetries, BackoffMultiplier: rank.RetryBackoffMultiplier},
		SourceDoc: sourceDoc,
		Origin:    fmt.Sprintf("cascade_rank_%d", rank.Rank),
	})
}

// TagEntities runs the deterministic tagger over text and maps spans into
// typed entities with provenance (label, offsets) preserved.
func TagEntities(taggers *ner.Registry, text, sourceDoc string) ([]kg.Entity, error) {
	lang := preprocess.DetectLanguage(text)
	tagger, err := taggers.Get(lang)
	if err != nil {
		return nil, err
	}

	spans := tagger.Tag(text)
	entities := make([]kg.Entity, 0, len(spans))
	for _, span := range spans {
		ent := kg.NewEntity(span.Text, ner.MapLabel(span.Label), sourceDoc, 0.9)
		ent.Properties = map[string]any{
			"origin":     "ner",
			"ner_label":  span.Label,
			"char_start": span.Start,
			"char_end":   span.End,
		}
		entities = append(entities, ent)
	}
	return entities, nil
}

// FormatEntityList renders entities as the "- Name (TYPE)" lines the
// relation and enrichment prompts expect.
func FormatEntityList(entities []kg.Entity) string {
	if len(entities) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, e := range entities {
		b.WriteString("- ")
		b.WriteString(e.Name)
		b.WriteString(" (")
		b.WriteString(string(e.Type))
		b.WriteString(")\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
