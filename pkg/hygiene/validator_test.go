package hygiene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmason/graphion/pkg/config"
	"github.com/bitmason/graphion/pkg/kg"
)

func entity(name string) kg.Entity {
	return kg.NewEntity(name, "CONCEPT", "doc-1", 0.9)
}

func relation(source, target, evidence string) kg.Relation {
	r := kg.NewRelation(source, target, "RELATED_TO", "doc-1", 0.8, 5)
	r.EvidenceSpan = evidence
	return r
}

func TestValidateCleanGraph(t *testing.T) {
	v := NewValidator(nil, 0, 0)

	entities := []kg.Entity{entity("Alpha"), entity("Beta")}
	relations := []kg.Relation{relation("Alpha", "Beta", "alpha relates to beta")}

	report := v.Validate(entities, relations)

	assert.Equal(t, 2, report.TotalEntities)
	assert.Equal(t, 1, report.TotalRelations)
	assert.True(t, report.IsHealthy())
	assert.InDelta(t, 100.0, report.HealthScore(), 1e-9)
}

func TestValidateCountsViolations(t *testing.T) {
	v := NewValidator(nil, 0, 0)

	entities := []kg.Entity{entity("Alpha"), entity("Beta"), entity("alpha")}
	relations := []kg.Relation{
		relation("Alpha", "alpha", "self"),
		relation("Alpha", "Gamma", ""),
		relation("Alpha", "Beta", "fine"),
	}

	report := v.Validate(entities, relations)

	assert.Equal(t, 1, report.SelfLoops)
	assert.Equal(t, 1, report.MissingEvidence)
	assert.Equal(t, 1, report.OrphanRelations, "Gamma is not an extracted entity")
	assert.Equal(t, 1, report.DuplicateEntities)
	assert.False(t, report.IsHealthy())
}

func TestValidateInvalidEntities(t *testing.T) {
	v := NewValidator(nil, 2, 10)

	tooShort := entity("A")
	tooLong := entity("a name that is entirely too long")

	report := v.Validate([]kg.Entity{tooShort, tooLong, entity("Fine")}, nil)
	assert.Equal(t, 2, report.InvalidEntities)
}

func TestRunRemovesSelfLoops(t *testing.T) {
	v := NewValidator(nil, 0, 0)

	entities := []kg.Entity{entity("Alpha"), entity("Beta")}
	relations := []kg.Relation{
		relation("Alpha", "ALPHA", "loop, case-insensitive"),
		relation("Alpha", "Beta", "keep"),
	}

	cleaned, report := v.Run(entities, relations, true)

	require.Len(t, cleaned, 1)
	assert.Equal(t, "Beta", cleaned[0].Target)
	assert.Equal(t, 1, report.SelfLoopsRemoved)
	assert.Equal(t, 0, report.SelfLoops, "the report is taken after the fix")
	assert.True(t, report.IsHealthy())
}

func TestRunWithoutFixReportsLoops(t *testing.T) {
	v := NewValidator(nil, 0, 0)

	entities := []kg.Entity{entity("Alpha")}
	relations := []kg.Relation{relation("Alpha", "Alpha", "loop")}

	cleaned, report := v.Run(entities, relations, false)

	assert.Len(t, cleaned, 1)
	assert.Equal(t, 0, report.SelfLoopsRemoved)
	assert.Equal(t, 1, report.SelfLoops)
	assert.False(t, report.IsHealthy())
}

func TestHealthScoreScalesWithViolations(t *testing.T) {
	report := Report{TotalRelations: 4, SelfLoops: 1, OrphanRelations: 1}
	assert.InDelta(t, 50.0, report.HealthScore(), 1e-9)

	// More violations than relations floors at zero.
	floor := Report{TotalRelations: 1, SelfLoops: 2}
	assert.Equal(t, 0.0, floor.HealthScore())

	// No relations still yields a defined score.
	empty := Report{}
	assert.InDelta(t, 100.0, empty.HealthScore(), 1e-9)
}

func TestEvidenceSeverity(t *testing.T) {
	assert.Equal(t, "warning", NewValidator(nil, 0, 0).EvidenceSeverity())

	strict := NewValidator(&config.HygieneConfig{EvidenceRequired: true}, 0, 0)
	assert.Equal(t, "error", strict.EvidenceSeverity())
}
