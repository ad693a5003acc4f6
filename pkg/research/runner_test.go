package research

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmason/graphion/pkg/config"
	"github.com/bitmason/graphion/pkg/llm"
	"github.com/bitmason/graphion/pkg/retrieval"
)

// researchGenerator answers the planner with a fixed decomposition and the
// synthesizer with a fixed answer.
func researchGenerator() generatorFunc {
	return func(_ context.Context, task llm.Task) (*llm.Result, error) {
		if task.UseCase == config.UseCasePlanner {
			return &llm.Result{Content: "1. sub-question one here\n2. sub-question two here"}, nil
		}
		return &llm.Result{Content: "final synthesized answer"}, nil
	}
}

func scoredRetriever(score float64) retrieverFunc {
	return func(_ context.Context, query, _, _ string) ([]retrieval.Context, error) {
		return []retrieval.Context{{Text: "passage for " + query, Score: score, SourceChannel: "vector"}}, nil
	}
}

func countSteps(steps []ExecutionStep, status Status) int {
	n := 0
	for _, s := range steps {
		if s.Step == status {
			n++
		}
	}
	return n
}

func TestRunnerStopsOnSufficientEvidence(t *testing.T) {
	cfg := config.DefaultResearchConfig()
	cfg.SufficiencyMinResults = 2
	cfg.SufficiencyMinScore = 0.5

	runner := NewRunner(researchGenerator(), scoredRetriever(0.9), cfg)
	st := NewState("what is entanglement?", "", 3)

	runner.Run(context.Background(), &st, nil)

	assert.Equal(t, StatusComplete, st.CurrentStep)
	assert.Equal(t, "final synthesized answer", st.Synthesis)
	assert.Equal(t, 1, st.Iteration)
	assert.Equal(t, 1, countSteps(st.ExecutionSteps, StatusDecomposing))
	assert.Equal(t, 1, countSteps(st.ExecutionSteps, StatusRetrieving))
	assert.Equal(t, 1, countSteps(st.ExecutionSteps, StatusAnalyzing))
	assert.Equal(t, 1, countSteps(st.ExecutionSteps, StatusSynthesizing))
}

func TestRunnerExhaustsIterationBudget(t *testing.T) {
	cfg := config.DefaultResearchConfig() // needs 5 results scoring > 0.5

	runner := NewRunner(researchGenerator(), scoredRetriever(0.2), cfg)
	st := NewState("weak evidence everywhere", "", 3)

	runner.Run(context.Background(), &st, nil)

	assert.Equal(t, StatusComplete, st.CurrentStep)
	assert.Equal(t, 3, st.Iteration)
	assert.Equal(t, 3, countSteps(st.ExecutionSteps, StatusRetrieving))
	assert.Equal(t, 3, countSteps(st.ExecutionSteps, StatusAnalyzing))
	assert.Equal(t, 1, countSteps(st.ExecutionSteps, StatusSynthesizing))
	assert.NotEmpty(t, st.Synthesis)
}

func TestRunnerPublishesSnapshots(t *testing.T) {
	cfg := config.DefaultResearchConfig()
	cfg.SufficiencyMinResults = 1
	cfg.SufficiencyMinScore = 0.1

	var seen []Status
	observe := func(snap State) { seen = append(seen, snap.CurrentStep) }

	runner := NewRunner(researchGenerator(), scoredRetriever(0.9), cfg)
	st := NewState("q", "", 3)

	runner.Run(context.Background(), &st, observe)

	require.NotEmpty(t, seen)
	assert.Equal(t, StatusDecomposing, seen[0])
	assert.Equal(t, StatusComplete, seen[len(seen)-1])
	assert.Contains(t, seen, StatusRetrieving)
	assert.Contains(t, seen, StatusAnalyzing)
	assert.Contains(t, seen, StatusSynthesizing)
}

func TestRunnerCancellation(t *testing.T) {
	cfg := config.DefaultResearchConfig()

	ctx, cancel := context.WithCancel(context.Background())
	retriever := retrieverFunc(func(rctx context.Context, _, _, _ string) ([]retrieval.Context, error) {
		cancel()
		<-rctx.Done()
		return nil, rctx.Err()
	})

	runner := NewRunner(researchGenerator(), retriever, cfg)
	st := NewState("q", "", 3)

	runner.Run(ctx, &st, nil)

	assert.Equal(t, StatusCancelled, st.CurrentStep)
	assert.Empty(t, st.Synthesis)
}

func TestRunnerTimeoutProducesBestEffortAnswer(t *testing.T) {
	cfg := config.DefaultResearchConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	retriever := retrieverFunc(func(rctx context.Context, query, _, _ string) ([]retrieval.Context, error) {
		if query == "sub-question two here" {
			<-rctx.Done() // stall until the overall deadline fires
		}
		return []retrieval.Context{{Text: "early passage", Score: 0.9}}, nil
	})

	runner := NewRunner(researchGenerator(), retriever, cfg)
	st := NewState("q", "", 3)

	runner.Run(ctx, &st, nil)

	assert.Equal(t, StatusError, st.CurrentStep)
	assert.Equal(t, "research timed out", st.Err)
	require.NotEmpty(t, st.Synthesis)
	assert.Contains(t, st.Synthesis, "early passage")
}

func TestRunnerTimelineDurationsNonNegative(t *testing.T) {
	cfg := config.DefaultResearchConfig()
	cfg.SufficiencyMinResults = 1
	cfg.SufficiencyMinScore = 0.1

	runner := NewRunner(researchGenerator(), scoredRetriever(0.9), cfg)
	st := NewState("q", "", 3)

	runner.Run(context.Background(), &st, nil)

	require.NotEmpty(t, st.ExecutionSteps)
	for _, step := range st.ExecutionSteps {
		assert.False(t, step.StartedAt.IsZero())
		assert.GreaterOrEqual(t, step.DurationMS, int64(0))
	}
}
