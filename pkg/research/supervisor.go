package research

import (
	"log/slog"

	"github.com/bitmason/graphion/pkg/config"
	"github.com/bitmason/graphion/pkg/retrieval"
)

// Supervisor decides after each search round whether another round runs or
// synthesis starts.
type Supervisor struct {
	minResults int
	minScore   float64
	logger     *slog.Logger
}

// NewSupervisor builds the stop-rule evaluator from research config.
func NewSupervisor(cfg *config.ResearchConfig) *Supervisor {
	if cfg == nil {
		cfg = config.DefaultResearchConfig()
	}
	return &Supervisor{
		minResults: cfg.SufficiencyMinResults,
		minScore:   cfg.SufficiencyMinScore,
		logger:     slog.With("component", "research_supervisor"),
	}
}

// Evaluate sets state.ShouldContinue: false on error, on iteration
// exhaustion, or when the gathered contexts are sufficient.
func (s *Supervisor) Evaluate(st *State) {
	switch {
	case st.Err != "":
		st.ShouldContinue = false
	case st.Iteration >= st.MaxIterations:
		st.ShouldContinue = false
	case s.sufficient(st.AllContexts):
		st.ShouldContinue = false
	default:
		st.ShouldContinue = true
	}

	s.logger.Info("Round evaluated",
		"iteration", st.Iteration,
		"contexts", len(st.AllContexts),
		"quality", Quality(st.AllContexts),
		"continue", st.ShouldContinue)
}

func (s *Supervisor) sufficient(contexts []retrieval.Context) bool {
	return len(contexts) >= s.minResults && meanScore(contexts) > s.minScore
}

// Quality labels the gathered evidence for logs and status output.
func Quality(contexts []retrieval.Context) string {
	n, mean := len(contexts), meanScore(contexts)
	switch {
	case n >= 10 && mean > 0.7:
		return "excellent"
	case n >= 5 && mean > 0.5:
		return "good"
	case n >= 3:
		return "fair"
	default:
		return "poor"
	}
}

func meanScore(contexts []retrieval.Context) float64 {
	if len(contexts) == 0 {
		return 0
	}
	var sum float64
	for _, c := range contexts {
		sum += c.Score
	}
	return sum / float64(len(contexts))
}
