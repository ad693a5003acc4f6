package research

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bitmason/graphion/pkg/retrieval"
)

const dedupPrefixLen = 200

// Searcher runs one hybrid retrieval per sub-query. Retrieval failures are
// logged and skipped; the searcher never fails the session.
type Searcher struct {
	retriever retrieval.Retriever
	// fanout bounds concurrent retrievals within one sub-query set.
	fanout int
	logger *slog.Logger
}

// NewSearcher builds a searcher over the retriever.
func NewSearcher(retriever retrieval.Retriever, fanout int) *Searcher {
	if fanout < 1 {
		fanout = 4
	}
	return &Searcher{
		retriever: retriever,
		fanout:    fanout,
		logger:    slog.With("component", "research_searcher"),
	}
}

// Search retrieves contexts for every sub-query, tags them with their
// sub-query, merges them into the state, dedups, and increments the
// iteration counter.
func (s *Searcher) Search(ctx context.Context, st *State) {
	perQuery := make([][]retrieval.Context, len(st.SubQueries))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanout)
	for i, query := range st.SubQueries {
		g.Go(func() error {
			contexts, err := s.retriever.Retrieve(gctx, query, st.Namespace, retrieval.IntentHybrid)
			if err != nil {
				s.logger.Warn("Retrieval failed for sub-query", "query", query, "error", err)
				return nil
			}
			for j := range contexts {
				contexts[j].ResearchQuery = query
				contexts[j].QueryIndex = i
			}
			mu.Lock()
			perQuery[i] = contexts
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	merged := st.AllContexts
	for _, contexts := range perQuery {
		merged = append(merged, contexts...)
	}
	st.AllContexts = dedupContexts(merged)
	st.Iteration++

	s.logger.Info("Search round complete",
		"iteration", st.Iteration,
		"contexts", len(st.AllContexts))
}

// dedupContexts drops contexts sharing the lower-cased first 200 characters
// of text, keeping the first occurrence.
func dedupContexts(contexts []retrieval.Context) []retrieval.Context {
	seen := make(map[string]struct{}, len(contexts))
	out := make([]retrieval.Context, 0, len(contexts))
	for _, c := range contexts {
		key := strings.ToLower(c.Text)
		if len(key) > dedupPrefixLen {
			key = key[:dedupPrefixLen]
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}
