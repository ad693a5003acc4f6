package ner

import "github.com/bitmason/graphion/pkg/kg"

// Tagger label vocabulary. Labels follow the usual CoNLL/OntoNotes names so
// downstream mapping stays recognizable.
const (
	LabelPerson    = "PER"
	LabelOrg       = "ORG"
	LabelNorp      = "NORP"
	LabelGPE       = "GPE"
	LabelFacility  = "FAC"
	LabelLocation  = "LOC"
	LabelDate      = "DATE"
	LabelTime      = "TIME"
	LabelCardinal  = "CARDINAL"
	LabelMoney     = "MONEY"
	LabelPercent   = "PERCENT"
	LabelWorkOfArt = "WORK_OF_ART"
	LabelLaw       = "LAW"
	LabelEvent     = "EVENT"
	LabelProduct   = "PRODUCT"
	LabelMisc      = "MISC"
)

// MapLabel folds a tagger label into the universal entity type set. Labels
// with no mapping land in the generic ENTITY bucket, which the consolidator
// later rejects.
func MapLabel(label string) string {
	switch label {
	case LabelPerson:
		return string(kg.EntityTypePerson)
	case LabelOrg, LabelNorp:
		return string(kg.EntityTypeOrganization)
	case LabelGPE, LabelFacility, LabelLocation:
		return string(kg.EntityTypeLocation)
	case LabelDate, LabelTime:
		return string(kg.EntityTypeTemporal)
	case LabelCardinal, LabelMoney, LabelPercent:
		return string(kg.EntityTypeQuantity)
	case LabelWorkOfArt:
		return string(kg.EntityTypeConcept)
	case LabelLaw:
		return string(kg.EntityTypeDocument)
	case LabelEvent:
		return string(kg.EntityTypeEvent)
	case LabelProduct:
		return string(kg.EntityTypeProduct)
	default:
		return "ENTITY"
	}
}
