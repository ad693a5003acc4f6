package kg

import "strings"

// EntityType is a universal entity type. The vocabulary is fixed and closed;
// anything outside it is folded in through the alias map or defaults to
// EntityTypeConcept.
type EntityType string

const (
	EntityTypePerson       EntityType = "PERSON"
	EntityTypeOrganization EntityType = "ORGANIZATION"
	EntityTypeLocation     EntityType = "LOCATION"
	EntityTypeTemporal     EntityType = "TEMPORAL"
	EntityTypeQuantity     EntityType = "QUANTITY"
	EntityTypeEvent        EntityType = "EVENT"
	EntityTypeDocument     EntityType = "DOCUMENT"
	EntityTypeConcept      EntityType = "CONCEPT"
	EntityTypeTechnology   EntityType = "TECHNOLOGY"
	EntityTypeProduct      EntityType = "PRODUCT"
	EntityTypeModel        EntityType = "MODEL"
	EntityTypeArchitecture EntityType = "ARCHITECTURE"
	EntityTypeProcess      EntityType = "PROCESS"
	EntityTypeLanguage     EntityType = "LANGUAGE"
	EntityTypeRegulation   EntityType = "REGULATION"
)

// IsValid checks if the entity type belongs to the universal set.
func (t EntityType) IsValid() bool {
	switch t {
	case EntityTypePerson,
		EntityTypeOrganization,
		EntityTypeLocation,
		EntityTypeTemporal,
		EntityTypeQuantity,
		EntityTypeEvent,
		EntityTypeDocument,
		EntityTypeConcept,
		EntityTypeTechnology,
		EntityTypeProduct,
		EntityTypeModel,
		EntityTypeArchitecture,
		EntityTypeProcess,
		EntityTypeLanguage,
		EntityTypeRegulation:
		return true
	default:
		return false
	}
}

// RelationType is a universal relation type. Unknown types normalize to
// RelationTypeRelatedTo.
type RelationType string

const (
	// Structural.
	RelationTypePartOf     RelationType = "PART_OF"
	RelationTypeContains   RelationType = "CONTAINS"
	RelationTypeInstanceOf RelationType = "INSTANCE_OF"
	RelationTypeTypeOf     RelationType = "TYPE_OF"
	// Organizational.
	RelationTypeEmploys   RelationType = "EMPLOYS"
	RelationTypeManages   RelationType = "MANAGES"
	RelationTypeFoundedBy RelationType = "FOUNDED_BY"
	RelationTypeOwns      RelationType = "OWNS"
	RelationTypeLocatedIn RelationType = "LOCATED_IN"
	// Causal.
	RelationTypeCauses   RelationType = "CAUSES"
	RelationTypeEnables  RelationType = "ENABLES"
	RelationTypeRequires RelationType = "REQUIRES"
	RelationTypeLeadsTo  RelationType = "LEADS_TO"
	// Temporal.
	RelationTypePrecedes RelationType = "PRECEDES"
	RelationTypeFollows  RelationType = "FOLLOWS"
	// Functional.
	RelationTypeUses       RelationType = "USES"
	RelationTypeCreates    RelationType = "CREATES"
	RelationTypeImplements RelationType = "IMPLEMENTS"
	RelationTypeDependsOn  RelationType = "DEPENDS_ON"
	// Semantic.
	RelationTypeSimilarTo      RelationType = "SIMILAR_TO"
	RelationTypeAssociatedWith RelationType = "ASSOCIATED_WITH"
	// Fallback.
	RelationTypeRelatedTo RelationType = "RELATED_TO"
)

// IsValid checks if the relation type belongs to the universal set.
func (t RelationType) IsValid() bool {
	_, ok := relationTypeSet[t]
	return ok
}

var relationTypeSet = map[RelationType]struct{}{
	RelationTypePartOf:         {},
	RelationTypeContains:       {},
	RelationTypeInstanceOf:     {},
	RelationTypeTypeOf:         {},
	RelationTypeEmploys:        {},
	RelationTypeManages:        {},
	RelationTypeFoundedBy:      {},
	RelationTypeOwns:           {},
	RelationTypeLocatedIn:      {},
	RelationTypeCauses:         {},
	RelationTypeEnables:        {},
	RelationTypeRequires:       {},
	RelationTypeLeadsTo:        {},
	RelationTypePrecedes:       {},
	RelationTypeFollows:        {},
	RelationTypeUses:           {},
	RelationTypeCreates:        {},
	RelationTypeImplements:     {},
	RelationTypeDependsOn:      {},
	RelationTypeSimilarTo:      {},
	RelationTypeAssociatedWith: {},
	RelationTypeRelatedTo:      {},
}

// entityTypeAliases folds common model/tagger synonyms into the universal
// entity vocabulary. Keys are upper-cased before lookup.
var entityTypeAliases = map[string]EntityType{
	"COMPANY":              EntityTypeOrganization,
	"CORPORATION":          EntityTypeOrganization,
	"ORG":                  EntityTypeOrganization,
	"INSTITUTION":          EntityTypeOrganization,
	"AGENCY":               EntityTypeOrganization,
	"TOOL":                 EntityTypeTechnology,
	"FRAMEWORK":            EntityTypeTechnology,
	"LIBRARY":              EntityTypeTechnology,
	"PLATFORM":             EntityTypeTechnology,
	"SOFTWARE":             EntityTypeTechnology,
	"PAPER":                EntityTypeDocument,
	"ARTICLE":              EntityTypeDocument,
	"REPORT":               EntityTypeDocument,
	"BOOK":                 EntityTypeDocument,
	"LAW":                  EntityTypeRegulation,
	"POLICY":               EntityTypeRegulation,
	"STANDARD":             EntityTypeRegulation,
	"DIRECTIVE":            EntityTypeRegulation,
	"DATE":                 EntityTypeTemporal,
	"TIME":                 EntityTypeTemporal,
	"YEAR":                 EntityTypeTemporal,
	"PERIOD":               EntityTypeTemporal,
	"NUMBER":               EntityTypeQuantity,
	"MONEY":                EntityTypeQuantity,
	"PERCENT":              EntityTypeQuantity,
	"MEASUREMENT":          EntityTypeQuantity,
	"PLACE":                EntityTypeLocation,
	"CITY":                 EntityTypeLocation,
	"COUNTRY":              EntityTypeLocation,
	"REGION":               EntityTypeLocation,
	"HUMAN":                EntityTypePerson,
	"INDIVIDUAL":           EntityTypePerson,
	"ALGORITHM":            EntityTypeProcess,
	"METHOD":               EntityTypeProcess,
	"PROCEDURE":            EntityTypeProcess,
	"WORKFLOW":             EntityTypeProcess,
	"SYSTEM":               EntityTypeArchitecture,
	"DESIGN":               EntityTypeArchitecture,
	"IDEA":                 EntityTypeConcept,
	"TOPIC":                EntityTypeConcept,
	"THEORY":               EntityTypeConcept,
	"PROGRAMMING_LANGUAGE": EntityTypeLanguage,
}

// NormalizeEntityType maps a raw type string into the universal entity set.
// It upper-cases, trims, applies the alias table, and falls back to
// EntityTypeConcept for anything unknown.
func NormalizeEntityType(raw string) EntityType {
	name := strings.ToUpper(strings.TrimSpace(raw))
	name = strings.ReplaceAll(name, " ", "_")
	if t := EntityType(name); t.IsValid() {
		return t
	}
	if t, ok := entityTypeAliases[name]; ok {
		return t
	}
	return EntityTypeConcept
}

// relationTypeAliases folds common predicate spellings into the universal
// relation vocabulary.
var relationTypeAliases = map[string]RelationType{
	"FOUNDED":       RelationTypeFoundedBy,
	"FOUNDED_IN":    RelationTypeCreates,
	"ACQUIRED":      RelationTypeOwns,
	"ACQUIRED_BY":   RelationTypeOwns,
	"BOUGHT":        RelationTypeOwns,
	"WORKS_FOR":     RelationTypeEmploys,
	"WORKS_AT":      RelationTypeEmploys,
	"EMPLOYED_BY":   RelationTypeEmploys,
	"LEADS":         RelationTypeManages,
	"RUNS":          RelationTypeManages,
	"HEADQUARTERED": RelationTypeLocatedIn,
	"BASED_IN":      RelationTypeLocatedIn,
	"LOCATED":       RelationTypeLocatedIn,
	"MEMBER_OF":     RelationTypePartOf,
	"BELONGS_TO":    RelationTypePartOf,
	"INCLUDES":      RelationTypeContains,
	"HAS":           RelationTypeContains,
	"CAUSED_BY":     RelationTypeCauses,
	"RESULTS_IN":    RelationTypeLeadsTo,
	"ALLOWS":        RelationTypeEnables,
	"NEEDS":         RelationTypeRequires,
	"BEFORE":        RelationTypePrecedes,
	"AFTER":         RelationTypeFollows,
	"UTILIZES":      RelationTypeUses,
	"USED_BY":       RelationTypeUses,
	"BUILT":         RelationTypeCreates,
	"CREATED_BY":    RelationTypeCreates,
	"DEVELOPED":     RelationTypeCreates,
	"MAKES":         RelationTypeCreates,
	"PRODUCES":      RelationTypeCreates,
	"BUILDS_ON":     RelationTypeDependsOn,
	"RELIES_ON":     RelationTypeDependsOn,
	"LIKE":          RelationTypeSimilarTo,
	"RESEMBLES":     RelationTypeSimilarTo,
	"LINKED_TO":     RelationTypeAssociatedWith,
	"CONNECTED_TO":  RelationTypeAssociatedWith,
	"IS_A":          RelationTypeInstanceOf,
	"KIND_OF":       RelationTypeTypeOf,
	"SUBTYPE_OF":    RelationTypeTypeOf,
}

// NormalizeRelationType maps a raw type or predicate string into the
// universal relation set, defaulting to RelationTypeRelatedTo.
func NormalizeRelationType(raw string) RelationType {
	name := strings.ToUpper(strings.TrimSpace(raw))
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	if t := RelationType(name); t.IsValid() {
		return t
	}
	if t, ok := relationTypeAliases[name]; ok {
		return t
	}
	return RelationTypeRelatedTo
}

// IsGenericEntityType reports whether the raw tag is one of the generic
// buckets the consolidator rejects outright.
func IsGenericEntityType(raw string) bool {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ENTITY", "MISC", "UNKNOWN":
		return true
	default:
		return false
	}
}
