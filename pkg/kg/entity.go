// Package kg defines the knowledge-graph value types produced by the
// extraction engine: typed entities and typed relations, plus the closed
// universal vocabularies both are validated against. Values are plain data;
// persistence belongs to the caller.
package kg

import (
	"strings"

	"github.com/google/uuid"
)

// Default name-length bounds used when the caller supplies none. The upper
// bound exists to reject full sentences masquerading as entity names.
const (
	DefaultMinNameLength = 2
	DefaultMaxNameLength = 80
)

// Entity is a typed node extracted from text.
type Entity struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Type           EntityType     `json:"type"`
	Description    string         `json:"description,omitempty"`
	SourceDocument string         `json:"source_document,omitempty"`
	Confidence     float64        `json:"confidence"`
	Properties     map[string]any `json:"properties,omitempty"`
}

// NewEntity builds an entity with a fresh id and a normalized type.
func NewEntity(name, rawType, sourceDoc string, confidence float64) Entity {
	return Entity{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(name),
		Type:           NormalizeEntityType(rawType),
		SourceDocument: sourceDoc,
		Confidence:     confidence,
	}
}

// Key returns the case-insensitive dedup key for the entity.
func (e Entity) Key() string {
	return strings.ToLower(strings.TrimSpace(e.Name))
}

// ValidName reports whether the trimmed name is non-empty and within the
// given length bounds.
func (e Entity) ValidName(minLen, maxLen int) bool {
	n := strings.TrimSpace(e.Name)
	return n != "" && len(n) >= minLen && len(n) <= maxLen
}

// Relation is a typed edge between two entities, identified by name.
type Relation struct {
	ID             string       `json:"id"`
	Source         string       `json:"source"`
	Target         string       `json:"target"`
	Type           RelationType `json:"type"`
	Description    string       `json:"description,omitempty"`
	EvidenceSpan   string       `json:"evidence_span,omitempty"`
	SourceDocument string       `json:"source_document,omitempty"`
	Confidence     float64      `json:"confidence"`
	// Strength grades how directly the text states the relation:
	// 10 explicit statement, 7 strong implication, 4 weak inference.
	Strength int `json:"strength"`
}

// NewRelation builds a relation with a fresh id and a normalized type.
func NewRelation(source, target, rawType, sourceDoc string, confidence float64, strength int) Relation {
	return Relation{
		ID:             uuid.NewString(),
		Source:         strings.TrimSpace(source),
		Target:         strings.TrimSpace(target),
		Type:           NormalizeRelationType(rawType),
		SourceDocument: sourceDoc,
		Confidence:     confidence,
		Strength:       strength,
	}
}

// Key returns the case-insensitive triple key used for relation dedup.
func (r Relation) Key() string {
	return strings.ToLower(strings.TrimSpace(r.Source)) + "|" +
		strings.ToLower(strings.TrimSpace(r.Target)) + "|" +
		strings.ToUpper(string(r.Type))
}

// IsSelfLoop reports whether source and target name the same entity,
// compared case-insensitively.
func (r Relation) IsSelfLoop() bool {
	return strings.EqualFold(strings.TrimSpace(r.Source), strings.TrimSpace(r.Target))
}

// DedupeRelations drops relations sharing a triple key, keeping the first
// occurrence. Order of survivors is preserved.
func DedupeRelations(relations []Relation) []Relation {
	seen := make(map[string]struct{}, len(relations))
	out := make([]Relation, 0, len(relations))
	for _, r := range relations {
		k := r.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}
