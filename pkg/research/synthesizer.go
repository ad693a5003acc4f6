package research

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/bitmason/graphion/pkg/config"
	"github.com/bitmason/graphion/pkg/llm"
	"github.com/bitmason/graphion/pkg/retrieval"
)

const synthesisPrompt = `Answer the research question using only the evidence
below. Cite sources inline by their bracketed tag. Be direct and complete.

Question: %s

Evidence:
%s

Answer:`

// Synthesizer produces the final answer from the gathered contexts. On model
// failure it degrades to a deterministic concatenation of the best evidence,
// so the session always ends with a non-empty answer.
type Synthesizer struct {
	gateway llm.Generator
	// budget caps the formatted evidence block in characters.
	budget int
	logger *slog.Logger
}

// NewSynthesizer builds a synthesizer over the gateway.
func NewSynthesizer(gateway llm.Generator, cfg *config.ResearchConfig) *Synthesizer {
	if cfg == nil {
		cfg = config.DefaultResearchConfig()
	}
	return &Synthesizer{
		gateway: gateway,
		budget:  cfg.ContextBudgetChars,
		logger:  slog.With("component", "research_synthesizer"),
	}
}

// Synthesize fills state.Synthesis.
func (s *Synthesizer) Synthesize(ctx context.Context, st *State) {
	evidence := FormatContexts(st.AllContexts, s.budget)

	result, err := s.gateway.Generate(ctx, llm.Task{
		Kind:    llm.TaskKindGeneration,
		UseCase: config.UseCaseSynthesis,
		Prompt:  fmt.Sprintf(synthesisPrompt, st.OriginalQuery, evidence),
	})
	if err == nil && strings.TrimSpace(result.Content) != "" {
		st.Synthesis = strings.TrimSpace(result.Content)
		s.logger.Info("Synthesis complete", "chars", len(st.Synthesis))
		return
	}
	if err != nil {
		s.logger.Warn("Synthesis model call failed, using fallback answer", "error", err)
	}
	st.Synthesis = fallbackAnswer(st)
}

// FormatContexts renders contexts as bracket-tagged evidence lines, highest
// score first, dropping whole lines once the budget would be exceeded.
func FormatContexts(contexts []retrieval.Context, budget int) string {
	if len(contexts) == 0 {
		return "(no evidence retrieved)"
	}

	ranked := rankedCopy(contexts)
	var (
		b    strings.Builder
		used int
	)
	for i, c := range ranked {
		line := fmt.Sprintf("[%s #%d | Score: %.2f] %s", sourceLabel(c), i+1, c.Score, strings.TrimSpace(c.Text))
		if used+len(line)+1 > budget {
			break
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
			used++
		}
		b.WriteString(line)
		used += len(line)
	}
	if b.Len() == 0 {
		// first line alone blew the budget; keep a truncated slice of it
		c := ranked[0]
		line := fmt.Sprintf("[%s #1 | Score: %.2f] %s", sourceLabel(c), c.Score, strings.TrimSpace(c.Text))
		return truncate(line, budget)
	}
	return b.String()
}

// fallbackAnswer concatenates the top three contexts, or states that nothing
// was found.
func fallbackAnswer(st *State) string {
	top := st.TopSources(3)
	if len(top) == 0 {
		return fmt.Sprintf("No supporting evidence was retrieved for %q.", st.OriginalQuery)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Based on the retrieved evidence for %q:\n", st.OriginalQuery)
	for _, c := range top {
		fmt.Fprintf(&b, "\n- %s", truncate(c.Text, answerSnippetLimit))
	}
	return b.String()
}

func sourceLabel(c retrieval.Context) string {
	if c.SourceChannel != "" {
		return c.SourceChannel
	}
	return "retrieved"
}

func rankedCopy(contexts []retrieval.Context) []retrieval.Context {
	ranked := make([]retrieval.Context, len(contexts))
	copy(ranked, contexts)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked
}
