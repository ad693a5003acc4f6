package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmason/graphion/pkg/config"
	"github.com/bitmason/graphion/pkg/kg"
	"github.com/bitmason/graphion/pkg/llm"
)

func gleaningRank() config.CascadeRankConfig {
	return config.CascadeRankConfig{
		Rank: 1, Model: "small", Method: config.ExtractionMethodLLMOnly,
		EntityTimeoutS: 5, RelationTimeoutS: 5, MaxRetries: 1, RetryBackoffMultiplier: 1,
	}
}

// gleaningGenerator answers probes from the answers queue and continuations
// with the given content.
func gleaningGenerator(answers []string, continuation string) generatorFunc {
	probes := 0
	return func(ctx context.Context, task llm.Task) (*llm.Result, error) {
		if task.Kind == llm.TaskKindClassification {
			answer := "NO"
			if probes < len(answers) {
				answer = answers[probes]
			}
			probes++
			return &llm.Result{Content: answer}, nil
		}
		return &llm.Result{Content: continuation}, nil
	}
}

func TestGleanEntitiesStopsWhenComplete(t *testing.T) {
	gen := gleaningGenerator([]string{"NO"}, "")
	sink := &captureSink{}
	g := NewGleaner(gen, NewExecutor(gen, sink, 0, 0), gleaningRank(), 3, sink)

	seed := []kg.Entity{kg.NewEntity("Go", "LANGUAGE", "doc-1", 0.9)}
	out := g.GleanEntities(context.Background(), "text", "", "doc-1", seed)

	assert.Equal(t, seed, out)

	var rounds []GleaningRound
	for _, ev := range sink.events {
		if r, ok := ev.(GleaningRound); ok {
			rounds = append(rounds, r)
		}
	}
	require.Len(t, rounds, 1)
	assert.True(t, rounds[0].Complete)
}

func TestGleanEntitiesAddsMissingItems(t *testing.T) {
	gen := gleaningGenerator([]string{"YES", "NO"},
		`[{"name":"Rob Pike","type":"PERSON"}]`)
	sink := &captureSink{}
	g := NewGleaner(gen, NewExecutor(gen, sink, 0, 0), gleaningRank(), 3, sink)

	seed := []kg.Entity{kg.NewEntity("Go", "LANGUAGE", "doc-1", 0.9)}
	out := g.GleanEntities(context.Background(), "text", "", "doc-1", seed)

	require.Len(t, out, 2)
	assert.Equal(t, "Go", out[0].Name)
	assert.Equal(t, "Rob Pike", out[1].Name)
}

func TestGleanEntitiesContinuationFailureKeepsInput(t *testing.T) {
	gen := gleaningGenerator([]string{"YES"}, "completely unparseable")
	sink := &captureSink{}
	g := NewGleaner(gen, NewExecutor(gen, sink, 0, 0), gleaningRank(), 3, sink)

	seed := []kg.Entity{kg.NewEntity("Go", "LANGUAGE", "doc-1", 0.9)}
	out := g.GleanEntities(context.Background(), "text", "", "doc-1", seed)

	assert.Equal(t, seed, out, "gleaning is best-effort; failures keep the current set")
}

func TestGleanEntitiesProbeFailureMeansIncomplete(t *testing.T) {
	calls := 0
	gen := generatorFunc(func(ctx context.Context, task llm.Task) (*llm.Result, error) {
		if task.Kind == llm.TaskKindClassification {
			return nil, &llm.LLMError{Provider: "local", Model: task.ModelOverride}
		}
		calls++
		return &llm.Result{Content: `[]`}, nil
	})
	sink := &captureSink{}
	g := NewGleaner(gen, NewExecutor(gen, sink, 0, 0), gleaningRank(), 2, sink)

	g.GleanEntities(context.Background(), "text", "", "doc-1", nil)
	assert.Equal(t, 1, calls, "a failed probe counts as incomplete, so the continuation runs")
}

func TestGleanRelationsAddsAndDedupes(t *testing.T) {
	gen := gleaningGenerator([]string{"YES", "NO"}, `[
		{"source":"Go","target":"Google","type":"CREATES","evidence":"made at Google"},
		{"source":"go","target":"google","type":"CREATES","evidence":"dup"}]`)
	sink := &captureSink{}
	g := NewGleaner(gen, NewExecutor(gen, sink, 0, 0), gleaningRank(), 3, sink)

	seed := []kg.Relation{kg.NewRelation("Go", "Rob Pike", "CREATED_BY", "doc-1", 0.9, 10)}
	out := g.GleanRelations(context.Background(), "text", "", "doc-1", nil, seed)

	require.Len(t, out, 2)
	assert.Equal(t, "Rob Pike", out[0].Target)
	assert.Equal(t, "Google", out[1].Target)
}

func TestGleanProbeUsesStageTimeouts(t *testing.T) {
	// Only the relation timeout is set, so the relation probe must carry a
	// deadline while the entity probe runs unbounded.
	rank := config.CascadeRankConfig{
		Rank: 1, Model: "small", Method: config.ExtractionMethodLLMOnly,
		EntityTimeoutS: 0, RelationTimeoutS: 30, MaxRetries: 1, RetryBackoffMultiplier: 1,
	}
	deadlines := map[llm.TaskKind]bool{}
	gen := generatorFunc(func(ctx context.Context, task llm.Task) (*llm.Result, error) {
		if task.Kind == llm.TaskKindClassification {
			_, ok := ctx.Deadline()
			deadlines[task.Kind] = ok
		}
		return &llm.Result{Content: "NO"}, nil
	})
	sink := &captureSink{}
	g := NewGleaner(gen, NewExecutor(gen, sink, 0, 0), rank, 1, sink)

	g.GleanRelations(context.Background(), "text", "", "doc-1", nil, nil)
	assert.True(t, deadlines[llm.TaskKindClassification], "relation probe should run under the relation timeout")

	deadlines = map[llm.TaskKind]bool{}
	g.GleanEntities(context.Background(), "text", "", "doc-1", nil)
	assert.False(t, deadlines[llm.TaskKindClassification], "entity probe should be unbounded when the entity timeout is 0")
}

func TestGleaningDisabledWithZeroSteps(t *testing.T) {
	gen := generatorFunc(func(ctx context.Context, task llm.Task) (*llm.Result, error) {
		t.Fatal("no model call expected with zero gleaning steps")
		return nil, nil
	})
	sink := &captureSink{}
	g := NewGleaner(gen, NewExecutor(gen, sink, 0, 0), gleaningRank(), 0, sink)

	seed := []kg.Entity{kg.NewEntity("Go", "LANGUAGE", "doc-1", 0.9)}
	assert.Equal(t, seed, g.GleanEntities(context.Background(), "text", "", "doc-1", seed))
}

func TestDedupeEntitiesExactKeepsHigherConfidence(t *testing.T) {
	a := kg.NewEntity("Tokyo", "LOCATION", "doc-1", 0.6)
	b := kg.NewEntity("tokyo", "LOCATION", "doc-1", 0.9)

	out, removed := DedupeEntities([]kg.Entity{a, b})
	require.Len(t, out, 1)
	assert.Equal(t, 1, removed)
	assert.InDelta(t, 0.9, out[0].Confidence, 1e-9)
}

func TestDedupeEntitiesContainmentKeepsLongerForm(t *testing.T) {
	short := kg.NewEntity("Curie", "PERSON", "doc-1", 0.9)
	long := kg.NewEntity("Marie Curie", "PERSON", "doc-1", 0.8)
	other := kg.NewEntity("Sorbonne", "ORGANIZATION", "doc-1", 0.9)

	out, removed := DedupeEntities([]kg.Entity{short, long, other})
	require.Len(t, out, 2)
	assert.Equal(t, 1, removed)

	names := []string{out[0].Name, out[1].Name}
	assert.Contains(t, names, "Marie Curie")
	assert.Contains(t, names, "Sorbonne")
	assert.NotContains(t, names, "Curie")
}
