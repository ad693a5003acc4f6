package extract

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bitmason/graphion/pkg/config"
	"github.com/bitmason/graphion/pkg/kg"
	"github.com/bitmason/graphion/pkg/llm"
)

// StageCall is one extraction call under one rank or stage configuration.
type StageCall struct {
	// Stage names the call in logs and events (e.g. "rank_1_entities").
	Stage   string
	Prompt  string
	UseCase config.UseCase
	// Model overrides registry routing when non-empty.
	Model string
	// Timeout of 0 runs without a stage deadline.
	Timeout time.Duration
	Retry   RetryPolicy
	// SourceDoc is stamped on every produced entity and relation.
	SourceDoc string
	// Origin is recorded in entity provenance properties.
	Origin string
}

// Executor runs one extraction call: prompt to gateway, parse, build typed
// values, cap list sizes, emit one event per outcome.
type Executor struct {
	gateway      llm.Generator
	events       Sink
	maxEntities  int
	maxRelations int
	logger       *slog.Logger
}

// NewExecutor builds a stage executor. Caps of 0 fall back to the built-in
// defaults (50 entities, 100 relations per chunk).
func NewExecutor(gateway llm.Generator, events Sink, maxEntities, maxRelations int) *Executor {
	if maxEntities <= 0 {
		maxEntities = 50
	}
	if maxRelations <= 0 {
		maxRelations = 100
	}
	if events == nil {
		events = LogSink{}
	}
	return &Executor{
		gateway:      gateway,
		events:       events,
		maxEntities:  maxEntities,
		maxRelations: maxRelations,
		logger:       slog.With("component", "stage_executor"),
	}
}

// ExtractEntities runs one entity extraction stage.
func (e *Executor) ExtractEntities(ctx context.Context, call StageCall) ([]kg.Entity, error) {
	var entities []kg.Entity
	err := e.run(ctx, call, func(content string) (int, error) {
		raws, parseErr := ParseEntities(content)
		if parseErr != nil {
			return 0, parseErr
		}
		entities = e.buildEntities(raws, call)
		return len(entities), nil
	})
	if err != nil {
		return nil, err
	}
	return entities, nil
}

// ExtractRelations runs one relation extraction stage.
func (e *Executor) ExtractRelations(ctx context.Context, call StageCall) ([]kg.Relation, error) {
	var relations []kg.Relation
	err := e.run(ctx, call, func(content string) (int, error) {
		raws, parseErr := ParseRelations(content)
		if parseErr != nil {
			return 0, parseErr
		}
		relations = e.buildRelations(raws, call)
		return len(relations), nil
	})
	if err != nil {
		return nil, err
	}
	return relations, nil
}

// run executes the gateway call and parse under the stage deadline and retry
// policy, emitting exactly one StageOutcome event.
func (e *Executor) run(ctx context.Context, call StageCall, handle func(content string) (int, error)) error {
	start := time.Now()
	items := 0

	attempts, err := withRetry(ctx, call.Retry, e.logger, call.Stage, func(ctx context.Context) error {
		callCtx := ctx
		if call.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, call.Timeout)
			defer cancel()
		}

		result, genErr := e.gateway.Generate(callCtx, llm.Task{
			Kind:          llm.TaskKindExtraction,
			UseCase:       call.UseCase,
			Prompt:        call.Prompt,
			Temperature:   0.1,
			ModelOverride: call.Model,
		})
		if genErr != nil {
			// A deadline breach of our own stage timeout becomes TimeoutError;
			// parent cancellation passes through untouched.
			if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
				return &TimeoutError{Stage: call.Stage, Timeout: call.Timeout}
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return genErr
		}

		n, handleErr := handle(result.Content)
		if handleErr != nil {
			return handleErr
		}
		items = n
		return nil
	})

	outcome := StageOutcome{
		Stage:      call.Stage,
		Attempts:   attempts,
		Items:      items,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		outcome.Error = errorReason(err)
	}
	e.events.Emit(outcome)
	return err
}

func (e *Executor) buildEntities(raws []RawEntity, call StageCall) []kg.Entity {
	if len(raws) > e.maxEntities {
		raws = raws[:e.maxEntities]
	}
	out := make([]kg.Entity, 0, len(raws))
	for _, r := range raws {
		ent := kg.NewEntity(r.Name, r.Type, call.SourceDoc, clampUnit(r.Confidence))
		ent.Description = r.Description
		// raw_type survives normalization so the consolidator can reject
		// generic buckets (ENTITY, MISC, UNKNOWN) at both sources.
		ent.Properties = map[string]any{"origin": call.Origin, "raw_type": r.Type}
		out = append(out, ent)
	}
	return out
}

func (e *Executor) buildRelations(raws []RawRelation, call StageCall) []kg.Relation {
	if len(raws) > e.maxRelations {
		raws = raws[:e.maxRelations]
	}
	out := make([]kg.Relation, 0, len(raws))
	for _, r := range raws {
		rel := kg.NewRelation(r.Source, r.Target, r.Type, call.SourceDoc, clampUnit(r.Confidence), clampStrength(r.Strength))
		rel.Description = r.Description
		rel.EvidenceSpan = r.Evidence
		out = append(out, rel)
	}
	return out
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampStrength(v int) int {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}
