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

// Pipeline is the default tagger-first driver: deterministic NER baseline,
// LLM entity enrichment, consolidation, then per-window LLM relation
// extraction merged by triple dedup.
type Pipeline struct {
	executor     *Executor
	taggers      *ner.Registry
	prompts      *prompt.Resolver
	consolidator *Consolidator
	cfg          *config.ExtractionConfig
	logger       *slog.Logger
}

// PipelineResult is one chunk's consolidated output.
type PipelineResult struct {
	Entities  []kg.Entity
	Relations []kg.Relation
	Stats     ConsolidationStats
	Language  string
}

// NewPipeline builds the tagger-first pipeline driver.
func NewPipeline(executor *Executor, taggers *ner.Registry, prompts *prompt.Resolver, consolidator *Consolidator, cfg *config.ExtractionConfig) *Pipeline {
	return &Pipeline{
		executor:     executor,
		taggers:      taggers,
		prompts:      prompts,
		consolidator: consolidator,
		cfg:          cfg,
		logger:       slog.With("component", "pipeline"),
	}
}

// Run executes the three stages over one chunk of text.
func (p *Pipeline) Run(ctx context.Context, text, domain, sourceDoc string) (*PipelineResult, error) {
	lang := preprocess.DetectLanguage(text)
	pair := p.prompts.Resolve(ctx, domain)

	// Stage 1: deterministic baseline, optional single-shot LLM fallback.
	nerEntities := p.runBaseline(ctx, pair, text, domain, sourceDoc)

	// Stage 2: LLM enrichment, asking only for kinds the tagger cannot find.
	enriched, err := p.runEnrichment(ctx, text, domain, sourceDoc, nerEntities)
	if err != nil {
		return nil, err
	}

	// Stage 3a: consolidation.
	entities, stats := p.consolidator.Consolidate(ctx, lang, nerEntities, enriched)

	// Stage 3b: per-window relation extraction.
	relations, err := p.runRelations(ctx, pair, text, domain, sourceDoc, entities)
	if err != nil {
		return nil, err
	}

	return &PipelineResult{
		Entities:  entities,
		Relations: relations,
		Stats:     stats,
		Language:  lang,
	}, nil
}

func (p *Pipeline) stage(n int) config.PipelineStageConfig {
	for _, s := range p.cfg.PipelineStages {
		if s.Stage == n {
			return s
		}
	}
	return config.DefaultPipelineStages()[n-1]
}

// runBaseline runs the tagger; on empty or failed output with fallback
// enabled it makes a single LLM entity call. Baseline failures never abort
// the pipeline — the worst case is an empty starting set.
func (p *Pipeline) runBaseline(ctx context.Context, pair prompt.Pair, text, domain, sourceDoc string) []kg.Entity {
	stage := p.stage(1)

	entities, err := TagEntities(p.taggers, text, sourceDoc)
	if err != nil {
		p.logger.Warn("Tagger baseline failed", "error", err)
	}
	if len(entities) > 0 || !stage.FallbackToLLM {
		return entities
	}

	fallback, err := p.executor.ExtractEntities(ctx, StageCall{
		Stage:     "stage_1_llm_fallback",
		Prompt:    prompt.Render(pair.Entity, text, "", domain),
		UseCase:   config.UseCaseEntityExtraction,
		Model:     stage.Model,
		Timeout:   stage.Timeout(),
		Retry:     RetryPolicy{MaxAttempts: 1},
		SourceDoc: sourceDoc,
		Origin:    "stage_1_llm_fallback",
	})
	if err != nil {
		p.logger.Warn("Stage 1 LLM fallback failed, accepting empty baseline", "error", err)
		return nil
	}
	return fallback
}

// runEnrichment asks the LLM for additional entity kinds and drops anything
// whose lower-cased name duplicates a baseline entity.
func (p *Pipeline) runEnrichment(ctx context.Context, text, domain, sourceDoc string, nerEntities []kg.Entity) ([]kg.Entity, error) {
	stage := p.stage(2)

	enriched, err := p.executor.ExtractEntities(ctx, StageCall{
		Stage:     "stage_2_enrichment",
		Prompt:    prompt.Render(prompt.EnrichmentTemplate, text, FormatEntityList(nerEntities), domain),
		UseCase:   config.UseCaseEntityExtraction,
		Model:     stage.Model,
		Timeout:   stage.Timeout(),
		Retry:     RetryPolicy{MaxAttempts: stage.MaxRetries},
		SourceDoc: sourceDoc,
		Origin:    "llm_enrichment",
	})
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(nerEntities))
	for _, e := range nerEntities {
		known[e.Key()] = struct{}{}
	}
	kept := enriched[:0]
	for _, e := range enriched {
		if _, dup := known[e.Key()]; dup {
			continue
		}
		kept = append(kept, e)
	}
	return kept, nil
}

// runRelations extracts relations per window and merges them by triple key.
func (p *Pipeline) runRelations(ctx context.Context, pair prompt.Pair, text, domain, sourceDoc string, entities []kg.Entity) ([]kg.Relation, error) {
	stage := p.stage(3)
	entityList := FormatEntityList(entities)

	windows := p.windows(text)
	var merged []kg.Relation
	for i, w := range windows {
		relations, err := p.executor.ExtractRelations(ctx, StageCall{
			Stage:     fmt.Sprintf("stage_3_relations_w%d", i),
			Prompt:    prompt.Render(pair.Relation, w, entityList, domain),
			UseCase:   config.UseCaseRelationExtraction,
			Model:     stage.Model,
			Timeout:   stage.Timeout(),
			Retry:     RetryPolicy{MaxAttempts: stage.MaxRetries},
			SourceDoc: sourceDoc,
			Origin:    "llm_relations",
		})
		if err != nil {
			return nil, err
		}
		merged = append(merged, relations...)
	}
	return kg.DedupeRelations(merged), nil
}

// windows returns the window texts relation extraction iterates. Windowing
// applies only when enabled and the text is long enough; otherwise the
// whole text is a single window.
func (p *Pipeline) windows(text string) []string {
	if !p.cfg.CrossSentence() {
		return []string{text}
	}
	sentences := preprocess.SplitSentences(text)
	wins := preprocess.Windows(sentences, p.cfg.WindowSize, p.cfg.WindowOverlap, p.cfg.WindowMinSentences)
	if len(wins) == 0 {
		return []string{text}
	}
	out := make([]string, 0, len(wins))
	for _, w := range wins {
		if strings.TrimSpace(w.Text) == "" {
			continue
		}
		out = append(out, w.Text)
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}
