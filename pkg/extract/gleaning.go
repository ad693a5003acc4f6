package extract

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/bitmason/graphion/pkg/config"
	"github.com/bitmason/graphion/pkg/kg"
	"github.com/bitmason/graphion/pkg/llm"
	"github.com/bitmason/graphion/pkg/prompt"
)

// Gleaner runs the optional multi-pass completeness loop: probe the model
// with what was extracted so far, and when it answers YES (incomplete),
// extract only the missing items and append them.
//
// The probe and continuation always run on the first cascade rank's model
// and timeouts, even when the pipeline produced round 1. That mirrors the
// original behavior and is flagged in DESIGN.md for review.
type Gleaner struct {
	gateway  llm.Generator
	executor *Executor
	rank     config.CascadeRankConfig
	steps    int
	events   Sink
	logger   *slog.Logger
}

// NewGleaner builds a gleaner; steps of 0 disables both loops.
func NewGleaner(gateway llm.Generator, executor *Executor, rank config.CascadeRankConfig, steps int, events Sink) *Gleaner {
	if events == nil {
		events = LogSink{}
	}
	return &Gleaner{
		gateway:  gateway,
		executor: executor,
		rank:     rank,
		steps:    steps,
		events:   events,
		logger:   slog.With("component", "gleaning"),
	}
}

// GleanEntities runs up to steps probe/continuation rounds over entities.
// Gleaning is best-effort: round failures stop the loop but never fail the
// extraction; the input survives unchanged at worst.
func (g *Gleaner) GleanEntities(ctx context.Context, text, domain, sourceDoc string, entities []kg.Entity) []kg.Entity {
	for round := 1; round <= g.steps; round++ {
		if ctx.Err() != nil {
			return entities
		}

		complete := g.probe(ctx, prompt.GleaningEntityProbeTemplate, text, FormatEntityList(entities), domain, g.rank.EntityTimeout())
		if complete {
			g.events.Emit(GleaningRound{Kind: "entities", Round: round, Complete: true})
			return entities
		}

		more, err := g.executor.ExtractEntities(ctx, StageCall{
			Stage:     "gleaning_entities",
			Prompt:    prompt.Render(prompt.GleaningEntityContinuationTemplate, text, FormatEntityList(entities), domain),
			UseCase:   config.UseCaseEntityExtraction,
			Model:     g.rank.Model,
			Timeout:   g.rank.EntityTimeout(),
			Retry:     RetryPolicy{MaxAttempts: g.rank.MaxRetries, BackoffMultiplier: g.rank.RetryBackoffMultiplier},
			SourceDoc: sourceDoc,
			Origin:    "gleaning",
		})
		if err != nil {
			g.logger.Warn("Gleaning continuation failed, keeping current entities", "round", round, "error", err)
			return entities
		}

		deduped, removed := DedupeEntities(append(entities, more...))
		added := len(deduped) - len(entities)
		entities = deduped
		if removed > 0 {
			g.events.Emit(DuplicatesRemoved{Kind: "entities", Count: removed})
		}
		g.events.Emit(GleaningRound{Kind: "entities", Round: round, Added: added})
		if added <= 0 {
			return entities
		}
	}
	return entities
}

// GleanRelations runs up to steps probe/continuation rounds over relations.
func (g *Gleaner) GleanRelations(ctx context.Context, text, domain, sourceDoc string, entities []kg.Entity, relations []kg.Relation) []kg.Relation {
	for round := 1; round <= g.steps; round++ {
		if ctx.Err() != nil {
			return relations
		}

		complete := g.probe(ctx, prompt.GleaningRelationProbeTemplate, text, formatRelationList(relations), domain, g.rank.RelationTimeout())
		if complete {
			g.events.Emit(GleaningRound{Kind: "relations", Round: round, Complete: true})
			return relations
		}

		more, err := g.executor.ExtractRelations(ctx, StageCall{
			Stage:     "gleaning_relations",
			Prompt:    prompt.Render(prompt.GleaningRelationContinuationTemplate, text, formatRelationList(relations), domain),
			UseCase:   config.UseCaseRelationExtraction,
			Model:     g.rank.Model,
			Timeout:   g.rank.RelationTimeout(),
			Retry:     RetryPolicy{MaxAttempts: g.rank.MaxRetries, BackoffMultiplier: g.rank.RetryBackoffMultiplier},
			SourceDoc: sourceDoc,
			Origin:    "gleaning",
		})
		if err != nil {
			g.logger.Warn("Gleaning continuation failed, keeping current relations", "round", round, "error", err)
			return relations
		}

		before := len(relations)
		merged := kg.DedupeRelations(append(relations, more...))
		added := len(merged) - before
		if dropped := len(more) - added; dropped > 0 {
			g.events.Emit(DuplicatesRemoved{Kind: "relations", Count: dropped})
		}
		relations = merged
		g.events.Emit(GleaningRound{Kind: "relations", Round: round, Added: added})
		if added <= 0 {
			return relations
		}
	}
	return relations
}

// probe asks the completeness question under the round's stage timeout.
// True means complete (stop). A probe failure or an unparseable answer
// counts as incomplete, so gleaning continues.
func (g *Gleaner) probe(ctx context.Context, template, text, items, domain string, timeout time.Duration) bool {
	probeCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := g.gateway.Generate(probeCtx, llm.Task{
		Kind:          llm.TaskKindClassification,
		UseCase:       config.UseCaseClassifier,
		Prompt:        prompt.Render(template, text, items, domain),
		Temperature:   0,
		MaxTokens:     8,
		ModelOverride: g.rank.Model,
	})
	if err != nil {
		g.logger.Debug("Completeness probe failed, assuming incomplete", "error", err)
		return false
	}

	answer := strings.ToUpper(strings.TrimSpace(result.Content))
	return strings.HasPrefix(answer, "NO")
}

// DedupeEntities merges duplicate entities: case-insensitive exact matches
// keep the higher-confidence entity, then substring containment keeps the
// longer surface form. Returns survivors (order preserved) and the number
// removed.
func DedupeEntities(entities []kg.Entity) ([]kg.Entity, int) {
	// Exact pass.
	byKey := make(map[string]int, len(entities))
	exact := make([]kg.Entity, 0, len(entities))
	for _, e := range entities {
		key := e.Key()
		if i, seen := byKey[key]; seen {
			if e.Confidence > exact[i].Confidence {
				exact[i] = e
			}
			continue
		}
		byKey[key] = len(exact)
		exact = append(exact, e)
	}

	// Containment pass: the longer form absorbs the shorter.
	dropped := make([]bool, len(exact))
	for i := 0; i < len(exact); i++ {
		if dropped[i] {
			continue
		}
		for j := i + 1; j < len(exact); j++ {
			if dropped[j] {
				continue
			}
			a, b := exact[i].Key(), exact[j].Key()
			switch {
			case strings.Contains(a, b):
				dropped[j] = true
			case strings.Contains(b, a):
				dropped[i] = true
			}
			if dropped[i] {
				break
			}
		}
	}

	out := make([]kg.Entity, 0, len(exact))
	for i, e := range exact {
		if !dropped[i] {
			out = append(out, e)
		}
	}
	return out, len(entities) - len(out)
}

func formatRelationList(relations []kg.Relation) string {
	if len(relations) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, r := range relations {
		b.WriteString("- ")
		b.WriteString(r.Source)
		b.WriteString(" -> ")
		b.WriteString(string(r.Type))
		b.WriteString(" -> ")
		b.WriteString(r.Target)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
