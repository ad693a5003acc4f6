package hygiene

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bitmason/graphion/pkg/config"
	"github.com/bitmason/graphion/pkg/llm"
)

// StoreError wraps a graph-store failure. Store-assisted fixes log it and
// degrade to no-ops; it never aborts an extraction.
type StoreError struct {
	Op  string
	Err error
}

// Error returns the formatted error message.
func (e *StoreError) Error() string {
	return fmt.Sprintf("graph store %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error { return e.Err }

// IsStoreError reports whether err is (or wraps) a *StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// GraphStore is the narrow interface over the external graph database.
// Read returns one row per result; Write returns only success.
type GraphStore interface {
	Read(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
	Write(ctx context.Context, query string, params map[string]any) error
	// HasVectorIndex reports whether similarity search is available; the
	// duplicate finder falls back to name similarity without it.
	HasVectorIndex(ctx context.Context) bool
}

// FixStats counts what the store-assisted pass changed.
type FixStats struct {
	SelfLoopsDeleted int `json:"self_loops_deleted"`
	EntitiesMerged   int `json:"entities_merged"`
}

// StoreFixer applies hygiene fixes directly against a graph store: deleting
// persisted self-loops and merging near-duplicate entities by transferring
// their unique edges.
type StoreFixer struct {
	store    GraphStore
	embedder llm.Embedder
	cfg      *config.HygieneConfig
	logger   *slog.Logger
}

// NewStoreFixer builds a fixer. embedder may be nil; candidate search then
// uses name similarity only.
func NewStoreFixer(store GraphStore, embedder llm.Embedder, cfg *config.HygieneConfig) *StoreFixer {
	if cfg == nil {
		cfg = config.DefaultHygieneConfig()
	}
	return &StoreFixer{
		store:    store,
		embedder: embedder,
		cfg:      cfg,
		logger:   slog.With("component", "hygiene_fixer"),
	}
}

// Run deletes self-loops and merges duplicate entities. Every store failure
// is logged and skipped; the returned stats reflect what actually happened.
func (f *StoreFixer) Run(ctx context.Context) FixStats {
	var stats FixStats
	stats.SelfLoopsDeleted = f.deleteSelfLoops(ctx)
	stats.EntitiesMerged = f.mergeDuplicates(ctx)
	return stats
}

func (f *StoreFixer) deleteSelfLoops(ctx context.Context) int {
	rows, err := f.store.Read(ctx,
		`MATCH (n:Entity)-[r]->(n) RETURN count(r) AS loops`, nil)
	if err != nil {
		f.logger.Warn("Self-loop count failed, skipping fix", "error", &StoreError{Op: "read", Err: err})
		return 0
	}
	loops := intField(rows, "loops")
	if loops == 0 {
		return 0
	}

	if err := f.store.Write(ctx, `MATCH (n:Entity)-[r]->(n) DELETE r`, nil); err != nil {
		f.logger.Warn("Self-loop deletion failed", "error", &StoreError{Op: "write", Err: err})
		return 0
	}
	f.logger.Info("Deleted persisted self-loops", "count", loops)
	return loops
}

// mergeDuplicates finds candidate pairs (vector index when available, name
// similarity otherwise) and merges each pair by transferring edges unique
// per (neighbor, type) to the survivor, then deleting the loser. The longer
// name survives.
func (f *StoreFixer) mergeDuplicates(ctx context.Context) int {
	pairs := f.duplicateCandidates(ctx)
	merged := 0
	for _, p := range pairs {
		keep, drop := p[0], p[1]
		if len(drop) > len(keep) {
			keep, drop = drop, keep
		}
		if err := f.mergePair(ctx, keep, drop); err != nil {
			f.logger.Warn("Entity merge failed", "keep", keep, "drop", drop, "error", err)
			continue
		}
		merged++
	}
	return merged
}

// duplicateCandidates prefers the vector index. An index run that fails, or
// that yields no pairs, falls through to the name-similarity query.
func (f *StoreFixer) duplicateCandidates(ctx context.Context) [][2]string {
	if f.store.HasVectorIndex(ctx) && f.embedder != nil {
		pairs, err := f.vectorCandidates(ctx)
		if err != nil {
			f.logger.Warn("Vector duplicate search failed, falling back to names", "error", err)
		} else if len(pairs) > 0 {
			return pairs
		}
	}

	rows, err := f.store.Read(ctx,
		`MATCH (a:Entity), (b:Entity)
		 WHERE a.name < b.name AND toLower(a.name) CONTAINS toLower(b.name)
		 RETURN a.name AS a, b.name AS b LIMIT 100`, nil)
	if err != nil {
		f.logger.Warn("Name duplicate search failed, skipping merges",
			"error", &StoreError{Op: "read", Err: err})
		return nil
	}
	return pairRows(rows)
}

// vectorCandidates embeds each entity name and queries the vector index for
// neighbors scoring at or above the configured similarity, pairing the name
// with every distinct match.
func (f *StoreFixer) vectorCandidates(ctx context.Context) ([][2]string, error) {
	rows, err := f.store.Read(ctx,
		`MATCH (a:Entity) RETURN a.name AS name LIMIT 500`, nil)
	if err != nil {
		return nil, &StoreError{Op: "read", Err: err}
	}

	seen := make(map[[2]string]bool)
	var pairs [][2]string
	for _, row := range rows {
		name, _ := row["name"].(string)
		if strings.TrimSpace(name) == "" {
			continue
		}
		vector, err := f.embedder.Embed(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("embedding %q: %w", name, err)
		}
		matches, err := f.store.Read(ctx,
			`CALL db.index.vector.queryNodes('entity_name_idx', 5, $vector)
			 YIELD node, score
			 WHERE score >= $threshold AND node.name <> $name
			 RETURN node.name AS match`,
			map[string]any{"vector": vector, "threshold": f.cfg.DuplicateSimilarity, "name": name})
		if err != nil {
			return nil, &StoreError{Op: "read", Err: err}
		}
		for _, m := range matches {
			other, _ := m["match"].(string)
			if strings.TrimSpace(other) == "" || strings.EqualFold(other, name) {
				continue
			}
			pair := orderedPair(name, other)
			if seen[pair] {
				continue
			}
			seen[pair] = true
			pairs = append(pairs, pair)
		}
	}
	return pairs, nil
}

func orderedPair(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

func (f *StoreFixer) mergePair(ctx context.Context, keep, drop string) error {
	// Transfer edges that the survivor does not already have for the same
	// (neighbor, type), then delete the loser.
	transfer := `MATCH (loser:Entity {name: $drop})-[r]-(n)
		WHERE n.name <> $keep
		  AND NOT EXISTS {
			MATCH (survivor:Entity {name: $keep})-[r2]-(n)
			WHERE type(r2) = type(r)
		  }
		MATCH (survivor:Entity {name: $keep})
		CALL apoc.create.relationship(survivor, type(r), properties(r), n) YIELD rel
		RETURN count(rel)`
	params := map[string]any{"keep": keep, "drop": drop}
	if err := f.store.Write(ctx, transfer, params); err != nil {
		return &StoreError{Op: "merge_transfer", Err: err}
	}
	if err := f.store.Write(ctx, `MATCH (loser:Entity {name: $drop}) DETACH DELETE loser`, params); err != nil {
		return &StoreError{Op: "merge_delete", Err: err}
	}
	return nil
}

func intField(rows []map[string]any, key string) int {
	if len(rows) == 0 {
		return 0
	}
	switch v := rows[0][key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func pairRows(rows []map[string]any) [][2]string {
	var pairs [][2]string
	for _, row := range rows {
		a, _ := row["a"].(string)
		b, _ := row["b"].(string)
		if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" || strings.EqualFold(a, b) {
			continue
		}
		pairs = append(pairs, [2]string{a, b})
	}
	return pairs
}
