package extract

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmason/graphion/pkg/config"
	"github.com/bitmason/graphion/pkg/llm"
	"github.com/bitmason/graphion/pkg/ner"
	"github.com/bitmason/graphion/pkg/prompt"
)

func testRanks() []config.CascadeRankConfig {
	return []config.CascadeRankConfig{
		{Rank: 1, Model: "small", Method: config.ExtractionMethodLLMOnly, EntityTimeoutS: 1, RelationTimeoutS: 1, MaxRetries: 1, RetryBackoffMultiplier: 1},
		{Rank: 2, Model: "large", Method: config.ExtractionMethodLLMOnly, EntityTimeoutS: 5, RelationTimeoutS: 5, MaxRetries: 1, RetryBackoffMultiplier: 1},
	}
}

func newTestCascade(gen llm.Generator, ranks []config.CascadeRankConfig, sink Sink) *Cascade {
	executor := NewExecutor(gen, sink, 0, 0)
	taggers := ner.NewRegistry(nil)
	prompts := prompt.NewResolver(nil, true)
	return NewCascade(executor, taggers, prompts, ranks, sink)
}

func TestCascadeFallsBackOnTimeout(t *testing.T) {
	// Rank 1's model hangs until its stage deadline; rank 2 answers.
	gen := generatorFunc(func(ctx context.Context, task llm.Task) (*llm.Result, error) {
		if task.ModelOverride == "small" {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return &llm.Result{Content: `[{"name":"Grace Hopper","type":"PERSON"}]`, Model: task.ModelOverride}, nil
	})

	sink := &captureSink{}
	cascade := newTestCascade(gen, testRanks(), sink)

	entities, err := cascade.ExtractEntities(context.Background(), "some text", "", "doc-1")
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "Grace Hopper", entities[0].Name)

	fallbacks := sink.fallbacks()
	require.Len(t, fallbacks, 1, "exactly one fallback event per rank transition")
	assert.Equal(t, CascadeFallback{FromRank: 1, ToRank: 2, Reason: "TimeoutError"}, fallbacks[0])
}

func TestCascadeLastRankErrorPropagates(t *testing.T) {
	gen := generatorFunc(func(ctx context.Context, task llm.Task) (*llm.Result, error) {
		return nil, &llm.LLMError{Provider: "local", Model: task.ModelOverride, StatusCode: 503}
	})

	sink := &captureSink{}
	cascade := newTestCascade(gen, testRanks(), sink)

	_, err := cascade.ExtractEntities(context.Background(), "some text", "", "doc-1")
	require.Error(t, err)
	assert.True(t, llm.IsLLMError(err))

	fallbacks := sink.fallbacks()
	require.Len(t, fallbacks, 1)
	assert.Equal(t, "LLMError", fallbacks[0].Reason)
}

func TestCascadeCancellationAbortsWithoutFallback(t *testing.T) {
	gen := blockingGenerator()

	sink := &captureSink{}
	ranks := testRanks()
	ranks[0].EntityTimeoutS = 0 // no stage deadline; only the caller's context ends the call

	cascade := newTestCascade(gen, ranks, sink)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := cascade.ExtractEntities(ctx, "some text", "", "doc-1")
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.fallbacks(), "cancellation must not try further ranks")
}

func TestCascadeExtractRelationsDedupes(t *testing.T) {
	gen := contentGenerator(`[
		{"source":"A","target":"B","type":"USES","evidence":"A uses B"},
		{"source":"a","target":"b","type":"USES","evidence":"again"}]`)

	sink := &captureSink{}
	cascade := newTestCascade(gen, testRanks(), sink)

	relations, err := cascade.ExtractRelations(context.Background(), "text", nil, "", "doc-1")
	require.NoError(t, err)
	assert.Len(t, relations, 1)
}

func TestCascadeHybridRankUsesTagger(t *testing.T) {
	// The generator must never be consulted for a hybrid rank's entities.
	gen := generatorFunc(func(ctx context.Context, task llm.Task) (*llm.Result, error) {
		t.Fatal("hybrid rank must not call the LLM for entities")
		return nil, nil
	})

	ranks := []config.CascadeRankConfig{
		{Rank: 3, Model: "large", Method: config.ExtractionMethodHybridNERLLM, RelationTimeoutS: 5, MaxRetries: 1},
	}
	cascade := newTestCascade(gen, ranks, &captureSink{})

	entities, err := cascade.ExtractEntities(context.Background(),
		"Dr. Hopper presented in Paris on March 14, 2024.", "", "doc-1")
	require.NoError(t, err)
	require.NotEmpty(t, entities)

	for _, e := range entities {
		assert.Equal(t, "ner", e.Properties["origin"])
		assert.Contains(t, e.Properties, "ner_label")
		assert.Contains(t, e.Properties, "char_start")
	}
}

func TestFormatEntityList(t *testing.T) {
	assert.Equal(t, "(none)", FormatEntityList(nil))

	entities, err := ParseEntities(`[{"name":"Go","type":"LANGUAGE"},{"name":"Rob Pike","type":"PERSON"}]`)
	require.NoError(t, err)

	ex := NewExecutor(nil, &captureSink{}, 0, 0)
	list := FormatEntityList(ex.buildEntities(entities, StageCall{SourceDoc: "d", Origin: "t"}))
	assert.Equal(t, "- Go (LANGUAGE)\n- Rob Pike (PERSON)", list)
}

func TestFirstRankFallsBackToDefault(t *testing.T) {
	cascade := newTestCascade(nil, nil, &captureSink{})
	rank := cascade.FirstRank()
	assert.Equal(t, 1, rank.Rank)
}
