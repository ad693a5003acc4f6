package research

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bitmason/graphion/pkg/config"
	"github.com/bitmason/graphion/pkg/llm"
	"github.com/bitmason/graphion/pkg/retrieval"
)

// Runner drives the four-node loop for one session: plan, then alternate
// search and evaluate until the supervisor stops the loop, then synthesize.
type Runner struct {
	planner     *Planner
	searcher    *Searcher
	supervisor  *Supervisor
	synthesizer *Synthesizer
	stepTimeout time.Duration
	logger      *slog.Logger
}

// NewRunner wires the loop nodes from the gateway and retriever.
func NewRunner(gateway llm.Generator, retriever retrieval.Retriever, cfg *config.ResearchConfig) *Runner {
	if cfg == nil {
		cfg = config.DefaultResearchConfig()
	}
	return &Runner{
		planner:     NewPlanner(gateway),
		searcher:    NewSearcher(retriever, 4),
		supervisor:  NewSupervisor(cfg),
		synthesizer: NewSynthesizer(gateway, cfg),
		stepTimeout: cfg.StepTimeout,
		logger:      slog.With("component", "research_runner"),
	}
}

// Run executes the loop to completion, mutating st in place. observe, if
// non-nil, receives a value copy of the state after every step transition;
// the manager uses it to publish status snapshots. Run always leaves st in a
// terminal step.
func (r *Runner) Run(ctx context.Context, st *State, observe func(State)) {
	publish := func() {
		if observe != nil {
			observe(snapshot(st))
		}
	}

	defer func() {
		if !st.CurrentStep.Terminal() {
			st.CurrentStep = StatusError
			if st.Err == "" {
				st.Err = "research loop ended without a terminal step"
			}
		}
		publish()
	}()

	r.step(ctx, st, StatusDecomposing, publish, r.planner.Plan)

	for {
		if r.interrupted(ctx, st) {
			return
		}
		r.step(ctx, st, StatusRetrieving, publish, r.searcher.Search)

		if r.interrupted(ctx, st) {
			return
		}
		st.CurrentStep = StatusAnalyzing
		started := time.Now()
		publish()
		r.supervisor.Evaluate(st)
		st.ExecutionSteps = append(st.ExecutionSteps, ExecutionStep{
			Step:       StatusAnalyzing,
			StartedAt:  started,
			DurationMS: time.Since(started).Milliseconds(),
			Detail:     Quality(st.AllContexts),
		})
		if !st.ShouldContinue {
			break
		}
	}

	if r.interrupted(ctx, st) {
		return
	}
	r.step(ctx, st, StatusSynthesizing, publish, r.synthesizer.Synthesize)
	if st.Synthesis == "" {
		st.Synthesis = fallbackAnswer(st)
	}

	st.CurrentStep = StatusComplete
	r.logger.Info("Research complete",
		"iterations", st.Iteration,
		"contexts", len(st.AllContexts),
		"quality", Quality(st.AllContexts))
}

// step runs one node under the per-step timeout and records it on the
// timeline.
func (r *Runner) step(ctx context.Context, st *State, status Status, publish func(), node func(context.Context, *State)) {
	st.CurrentStep = status
	started := time.Now()
	publish()

	timeout := r.stepTimeout
	if st.StepTimeout > 0 {
		timeout = st.StepTimeout
	}
	stepCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	node(stepCtx, st)

	st.ExecutionSteps = append(st.ExecutionSteps, ExecutionStep{
		Step:       status,
		StartedAt:  started,
		DurationMS: time.Since(started).Milliseconds(),
	})
}

// interrupted converts session context termination into a terminal state. A
// cancelled context means the user cancelled; a deadline means the overall
// budget ran out, which still produces a best-effort answer.
func (r *Runner) interrupted(ctx context.Context, st *State) bool {
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		st.CurrentStep = StatusCancelled
		return true
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		st.Err = "research timed out"
		st.Synthesis = fallbackAnswer(st)
		st.CurrentStep = StatusError
		return true
	default:
		return false
	}
}

// snapshot deep-copies the slices readers may iterate concurrently.
func snapshot(st *State) State {
	cp := *st
	cp.SubQueries = append([]string(nil), st.SubQueries...)
	cp.AllContexts = append([]retrieval.Context(nil), st.AllContexts...)
	cp.ExecutionSteps = append([]ExecutionStep(nil), st.ExecutionSteps...)
	return cp
}
