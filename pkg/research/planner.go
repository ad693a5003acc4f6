package research

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/bitmason/graphion/pkg/config"
	"github.com/bitmason/graphion/pkg/llm"
)

const maxSubQueries = 5

const decompositionPrompt = `Decompose the research question below into 2 to 5
focused sub-questions that together cover it. Return them as a numbered list,
one per line, nothing else.

Question: %s

Sub-questions:`

var (
	numberedLineRE = regexp.MustCompile(`^\s*\d+[.)]\s+(.+)$`)
	bulletedLineRE = regexp.MustCompile(`^\s*[-*•]\s+(.+)$`)
)

// Planner decomposes the original query into sub-queries. Planning never
// fails the session: on any error the original query is the only sub-query.
type Planner struct {
	gateway llm.Generator
	logger  *slog.Logger
}

// NewPlanner builds a planner over the gateway.
func NewPlanner(gateway llm.Generator) *Planner {
	return &Planner{
		gateway: gateway,
		logger:  slog.With("component", "research_planner"),
	}
}

// Plan fills state.SubQueries.
func (p *Planner) Plan(ctx context.Context, st *State) {
	result, err := p.gateway.Generate(ctx, llm.Task{
		Kind:        llm.TaskKindGeneration,
		UseCase:     config.UseCasePlanner,
		Prompt:      fmt.Sprintf(decompositionPrompt, st.OriginalQuery),
		Temperature: 0.3,
	})
	if err != nil {
		p.logger.Warn("Decomposition failed, using original query", "error", err)
		st.SubQueries = []string{st.OriginalQuery}
		return
	}

	queries := ParseSubQueries(result.Content)
	if len(queries) == 0 {
		queries = []string{st.OriginalQuery}
	}
	st.SubQueries = queries
	p.logger.Info("Query decomposed", "sub_queries", len(queries))
}

// ParseSubQueries extracts sub-queries from model output. Precedence:
// numbered list, bulleted list, then any non-empty line longer than 10
// characters. At most five queries are returned.
func ParseSubQueries(content string) []string {
	lines := strings.Split(content, "\n")

	if queries := matchLines(lines, numberedLineRE); len(queries) > 0 {
		return queries
	}
	if queries := matchLines(lines, bulletedLineRE); len(queries) > 0 {
		return queries
	}

	var queries []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) > 10 {
			queries = append(queries, line)
			if len(queries) == maxSubQueries {
				break
			}
		}
	}
	return queries
}

func matchLines(lines []string, re *regexp.Regexp) []string {
	var queries []string
	for _, line := range lines {
		if m := re.FindStringSubmatch(line); m != nil {
			if q := strings.TrimSpace(m[1]); q != "" {
				queries = append(queries, q)
				if len(queries) == maxSubQueries {
					break
				}
			}
		}
	}
	return queries
}
