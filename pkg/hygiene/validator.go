// Package hygiene validates finished (entity set, relation set) pairs
// against the graph invariants and applies the auto-fixes: self-loop
// deletion in memory, and duplicate-entity merges against a graph store
// when one is supplied.
package hygiene

import (
	"log/slog"
	"strings"

	"github.com/bitmason/graphion/pkg/config"
	"github.com/bitmason/graphion/pkg/kg"
)

// Report summarizes one validation pass.
type Report struct {
	TotalEntities     int `json:"total_entities"`
	TotalRelations    int `json:"total_relations"`
	SelfLoops         int `json:"self_loops"`
	MissingEvidence   int `json:"missing_evidence"`
	InvalidTypes      int `json:"invalid_types"`
	OrphanRelations   int `json:"orphan_relations"`
	DuplicateEntities int `json:"duplicate_entities"`
	InvalidEntities   int `json:"invalid_entities"`
	SelfLoopsRemoved  int `json:"self_loops_removed"`
}

// IsHealthy reports whether the error-grade counters are all zero.
func (r Report) IsHealthy() bool {
	return r.SelfLoops == 0 && r.OrphanRelations == 0 && r.InvalidTypes == 0
}

// HealthScore maps violations to a 0–100 score relative to relation count.
func (r Report) HealthScore() float64 {
	violations := r.SelfLoops + r.OrphanRelations + r.InvalidTypes
	total := r.TotalRelations
	if total < 1 {
		total = 1
	}
	score := 100 - 100*float64(violations)/float64(total)
	if score < 0 {
		return 0
	}
	return score
}

// Validator checks entities and relations against the invariants.
type Validator struct {
	cfg    *config.HygieneConfig
	minLen int
	maxLen int
	logger *slog.Logger
}

// NewValidator builds a validator. Zero length bounds fall back to the
// universal defaults.
func NewValidator(cfg *config.HygieneConfig, minLen, maxLen int) *Validator {
	if cfg == nil {
		cfg = config.DefaultHygieneConfig()
	}
	if minLen <= 0 {
		minLen = kg.DefaultMinNameLength
	}
	if maxLen <= 0 {
		maxLen = kg.DefaultMaxNameLength
	}
	return &Validator{
		cfg:    cfg,
		minLen: minLen,
		maxLen: maxLen,
		logger: slog.With("component", "hygiene"),
	}
}

// Validate produces a report without mutating anything.
func (v *Validator) Validate(entities []kg.Entity, relations []kg.Relation) Report {
	report := Report{
		TotalEntities:  len(entities),
		TotalRelations: len(relations),
	}

	names := make(map[string]int, len(entities))
	for _, e := range entities {
		names[e.Key()]++
		if !e.Type.IsValid() || !e.ValidName(v.minLen, v.maxLen) {
			report.InvalidEntities++
		}
	}
	for _, n := range names {
		if n > 1 {
			report.DuplicateEntities += n - 1
		}
	}

	for _, r := range relations {
		if r.IsSelfLoop() {
			report.SelfLoops++
		}
		if strings.TrimSpace(r.EvidenceSpan) == "" {
			report.MissingEvidence++
		}
		if !r.Type.IsValid() {
			report.InvalidTypes++
		}
		if !orphanFree(names, r) {
			report.OrphanRelations++
		}
	}
	return report
}

// Run validates and, when fixSelfLoops is set, deletes self-loop relations
// before the final report is taken. The returned relation slice is the
// cleaned set.
func (v *Validator) Run(entities []kg.Entity, relations []kg.Relation, fixSelfLoops bool) ([]kg.Relation, Report) {
	removed := 0
	if fixSelfLoops {
		kept := make([]kg.Relation, 0, len(relations))
		for _, r := range relations {
			if r.IsSelfLoop() {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		relations = kept
	}

	report := v.Validate(entities, relations)
	report.SelfLoopsRemoved = removed
	if removed > 0 {
		v.logger.Info("Removed self-loop relations", "count", removed)
	}
	if !report.IsHealthy() {
		v.logger.Warn("Hygiene violations remain",
			"self_loops", report.SelfLoops,
			"orphans", report.OrphanRelations,
			"invalid_types", report.InvalidTypes,
			"health_score", report.HealthScore())
	}
	return relations, report
}

// EvidenceSeverity reports whether missing evidence is an error for this
// configuration (default: warning only).
func (v *Validator) EvidenceSeverity() string {
	if v.cfg.EvidenceRequired {
		return "error"
	}
	return "warning"
}

func orphanFree(names map[string]int, r kg.Relation) bool {
	_, src := names[strings.ToLower(strings.TrimSpace(r.Source))]
	_, dst := names[strings.ToLower(strings.TrimSpace(r.Target))]
	return src && dst
}
