package extract

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmason/graphion/pkg/config"
	"github.com/bitmason/graphion/pkg/llm"
	"github.com/bitmason/graphion/pkg/ner"
	"github.com/bitmason/graphion/pkg/prompt"
)

func boolPtr(v bool) *bool { return &v }

func testExtractionConfig() *config.ExtractionConfig {
	return &config.ExtractionConfig{
		UseCrossSentence: boolPtr(false),
		Consolidation:    config.DefaultConsolidationConfig(),
	}
}

func newTestPipeline(gen llm.Generator, cfg *config.ExtractionConfig, sink Sink) *Pipeline {
	executor := NewExecutor(gen, sink, 0, 0)
	taggers := ner.NewRegistry(nil)
	prompts := prompt.NewResolver(nil, true)
	consolidator := NewConsolidator(cfg.Consolidation, cfg.EntityFilter(), nil)
	return NewPipeline(executor, taggers, prompts, consolidator, cfg)
}

// pipelineGenerator dispatches on the stage the pipeline is running: the
// enrichment prompt asks for ADDITIONAL entities, the relation prompt comes
// in under the relation use case, anything else is the stage-1 LLM fallback.
func pipelineGenerator(fallback, enrichment, relations string) generatorFunc {
	return func(ctx context.Context, task llm.Task) (*llm.Result, error) {
		if task.UseCase == config.UseCaseRelationExtraction {
			return &llm.Result{Content: relations}, nil
		}
		if strings.Contains(task.Prompt, "ADDITIONAL") {
			return &llm.Result{Content: enrichment}, nil
		}
		return &llm.Result{Content: fallback}, nil
	}
}

func TestPipelineRun(t *testing.T) {
	// Lower-case text gives the tagger nothing, so stage 1 falls back to the
	// LLM and every entity in the result is model-produced.
	text := "the quantum computing platform uses superconducting qubits."

	gen := pipelineGenerator(
		`[{"name":"Qubit","type":"TECHNOLOGY","confidence":0.9}]`,
		`[{"name":"Quantum Computing","type":"CONCEPT"},{"name":"qubit","type":"TECHNOLOGY"}]`,
		`[{"source":"Quantum Computing","target":"Qubit","type":"USES","evidence":"uses superconducting qubits"}]`)

	p := newTestPipeline(gen, testExtractionConfig(), &captureSink{})

	result, err := p.Run(context.Background(), text, "", "doc-1")
	require.NoError(t, err)

	require.Len(t, result.Entities, 2)
	assert.Equal(t, "Qubit", result.Entities[0].Name)
	// The enrichment duplicate of "Qubit" is dropped before consolidation.
	assert.Equal(t, "Quantum Computing", result.Entities[1].Name)

	require.Len(t, result.Relations, 1)
	assert.Equal(t, "Quantum Computing", result.Relations[0].Source)
	assert.Equal(t, "uses superconducting qubits", result.Relations[0].EvidenceSpan)

	assert.Equal(t, "en", result.Language)
	assert.Equal(t, 2, result.Stats.Kept)
}

func TestPipelineBaselineUsesTagger(t *testing.T) {
	fallbackCalled := false
	gen := generatorFunc(func(ctx context.Context, task llm.Task) (*llm.Result, error) {
		if task.UseCase == config.UseCaseRelationExtraction {
			return &llm.Result{Content: `[]`}, nil
		}
		if !strings.Contains(task.Prompt, "ADDITIONAL") {
			fallbackCalled = true
		}
		return &llm.Result{Content: `[]`}, nil
	})

	p := newTestPipeline(gen, testExtractionConfig(), &captureSink{})

	result, err := p.Run(context.Background(),
		"Dr. Hopper presented the compiler design in Paris.", "", "doc-1")
	require.NoError(t, err)

	assert.False(t, fallbackCalled, "a non-empty tagger baseline must suppress the LLM fallback")
	assert.NotEmpty(t, result.Entities)
}

func TestPipelineEnrichmentFailurePropagates(t *testing.T) {
	gen := pipelineGenerator(`[]`, "total garbage with no structure", `[]`)

	cfg := testExtractionConfig()
	cfg.PipelineStages = []config.PipelineStageConfig{
		{Stage: 1, Method: config.StageMethodNEROnly},
		{Stage: 2, Method: config.StageMethodLLMEntityEnrichment, MaxRetries: 1},
		{Stage: 3, Method: config.StageMethodLLMRelationOnly, MaxRetries: 1},
	}

	p := newTestPipeline(gen, cfg, &captureSink{})

	_, err := p.Run(context.Background(), "some text without entities", "", "doc-1")
	require.Error(t, err)

	var pe *ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestPipelineWindowedRelationsMerge(t *testing.T) {
	var relationCalls atomic.Int32
	gen := generatorFunc(func(ctx context.Context, task llm.Task) (*llm.Result, error) {
		if task.UseCase == config.UseCaseRelationExtraction {
			relationCalls.Add(1)
			return &llm.Result{Content: `[{"source":"Alice","target":"Initech","type":"EMPLOYS","evidence":"works at"}]`}, nil
		}
		if strings.Contains(task.Prompt, "ADDITIONAL") {
			return &llm.Result{Content: `[]`}, nil
		}
		return &llm.Result{Content: `[{"name":"Alice Jones","type":"PERSON"},{"name":"Initech","type":"ORGANIZATION"}]`}, nil
	})

	cfg := testExtractionConfig()
	cfg.UseCrossSentence = boolPtr(true)
	cfg.WindowSize = 2
	cfg.WindowOverlap = 0
	cfg.WindowMinSentences = 2

	p := newTestPipeline(gen, cfg, &captureSink{})

	// Four lower-case sentences split into two windows of two.
	text := "alice works at initech. she joined in march. the office is large. everyone knows her."
	result, err := p.Run(context.Background(), text, "", "doc-1")
	require.NoError(t, err)

	assert.Equal(t, int32(2), relationCalls.Load())
	// Both windows return the same triple; the merge keeps one.
	assert.Len(t, result.Relations, 1)
}
