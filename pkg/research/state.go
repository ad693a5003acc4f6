// Package research implements the deep-research supervisor: a fixed
// four-node loop (planner, searcher, supervisor, synthesizer) over a shared
// state value, plus the session manager the HTTP surface talks to.
package research

import (
	"sort"
	"strings"
	"time"

	"github.com/bitmason/graphion/pkg/retrieval"
)

// Status is both the session status and the current step of the loop.
type Status string

const (
	StatusPending      Status = "pending"
	StatusDecomposing  Status = "decomposing"
	StatusRetrieving   Status = "retrieving"
	StatusAnalyzing    Status = "analyzing"
	StatusSynthesizing Status = "synthesizing"
	StatusComplete     Status = "complete"
	StatusError        Status = "error"
	StatusCancelled    Status = "cancelled"
)

// IsValid checks if the status value is one of the defined constants.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusDecomposing, StatusRetrieving, StatusAnalyzing,
		StatusSynthesizing, StatusComplete, StatusError, StatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether the session has finished in any way.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusError || s == StatusCancelled
}

// ProgressPercent maps a status to the fixed progress table the status
// endpoint reports.
func (s Status) ProgressPercent() int {
	switch s {
	case StatusDecomposing:
		return 20
	case StatusRetrieving:
		return 40
	case StatusAnalyzing:
		return 60
	case StatusSynthesizing:
		return 80
	case StatusComplete:
		return 100
	default:
		// pending, error, cancelled
		return 0
	}
}

// ExecutionStep records one node run for the status timeline.
type ExecutionStep struct {
	Step       Status    `json:"step"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Detail     string    `json:"detail,omitempty"`
}

// State is the supervisor loop's working value. Only the loop mutates it;
// readers get copies through the session manager.
type State struct {
	OriginalQuery  string
	Namespace      string
	StepTimeout    time.Duration // per-session override; zero means the configured default
	SubQueries     []string
	Iteration      int
	MaxIterations  int
	AllContexts    []retrieval.Context
	Synthesis      string
	ShouldContinue bool
	CurrentStep    Status
	ExecutionSteps []ExecutionStep
	Metadata       map[string]any
	Err            string
}

// NewState seeds a fresh state for one session.
func NewState(query, namespace string, maxIterations int) State {
	if maxIterations < 1 {
		maxIterations = 1
	}
	if maxIterations > 5 {
		maxIterations = 5
	}
	if namespace == "" {
		namespace = "default"
	}
	return State{
		OriginalQuery: query,
		Namespace:     namespace,
		MaxIterations: maxIterations,
		CurrentStep:   StatusPending,
		Metadata:      map[string]any{},
	}
}

// IntermediateAnswer is the per-sub-query rollup the full response reports.
type IntermediateAnswer struct {
	Question     string  `json:"question"`
	Answer       string  `json:"answer"`
	Confidence   float64 `json:"confidence"`
	ContextsUsed int     `json:"contexts_used"`
}

const answerSnippetLimit = 300

// IntermediateAnswers groups contexts by sub-query. Confidence is
// 0.7·mean(score) + 0.3·min(contexts/5, 1), clamped to [0,1]; the answer is
// the best-scoring context's text.
func (s *State) IntermediateAnswers() []IntermediateAnswer {
	out := make([]IntermediateAnswer, 0, len(s.SubQueries))
	for i, q := range s.SubQueries {
		var (
			group []retrieval.Context
			sum   float64
		)
		for _, c := range s.AllContexts {
			if c.QueryIndex == i {
				group = append(group, c)
				sum += c.Score
			}
		}
		answer := IntermediateAnswer{Question: q, ContextsUsed: len(group)}
		if len(group) > 0 {
			mean := sum / float64(len(group))
			coverage := float64(len(group)) / 5
			if coverage > 1 {
				coverage = 1
			}
			answer.Confidence = clamp01(0.7*mean + 0.3*coverage)

			best := group[0]
			for _, c := range group[1:] {
				if c.Score > best.Score {
					best = c
				}
			}
			answer.Answer = truncate(best.Text, answerSnippetLimit)
		}
		out = append(out, answer)
	}
	return out
}

// TopSources returns the highest-scoring contexts, at most limit, in
// descending score order.
func (s *State) TopSources(limit int) []retrieval.Context {
	sources := make([]retrieval.Context, len(s.AllContexts))
	copy(sources, s.AllContexts)
	sort.SliceStable(sources, func(i, j int) bool { return sources[i].Score > sources[j].Score })
	if len(sources) > limit {
		sources = sources[:limit]
	}
	return sources
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return strings.TrimSpace(s[:limit]) + "…"
}
