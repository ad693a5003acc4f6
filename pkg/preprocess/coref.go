package preprocess

import (
	"log/slog"
	"strings"

	"github.com/bitmason/graphion/pkg/kg"
	"github.com/bitmason/graphion/pkg/ner"
)

// pronounCategory selects which entity types may serve as an antecedent.
type pronounCategory int

const (
	catPerson pronounCategory = iota
	catThing
	catAny
)

// pronounTables lists resolvable pronouns per language. Possessives are
// left alone; substituting a name for them mangles the sentence.
var pronounTables = map[string]map[string]pronounCategory{
	"en": {
		"he": catPerson, "him": catPerson, "she": catPerson, "her": catPerson,
		"it":   catThing,
		"they": catAny, "them": catAny, "who": catAny, "which": catAny,
	},
	"de": {
		"er": catPerson, "ihn": catPerson, "ihm": catPerson,
		"es":  catThing,
		"sie": catAny, "ihnen": catAny, "welche": catAny, "welcher": catAny,
	},
	"fr": {
		"il": catAny, "elle": catAny, "ils": catAny, "elles": catAny,
		"lui": catPerson, "qui": catAny,
	},
	"es": {
		"él": catAny, "ella": catAny, "ellos": catAny, "ellas": catAny,
		"quien": catAny, "quienes": catAny,
	},
}

var personTypes = typeSet(kg.EntityTypePerson, kg.EntityTypeOrganization)

var thingTypes = typeSet(kg.EntityTypeOrganization, kg.EntityTypeProduct,
	kg.EntityTypeTechnology, kg.EntityTypeConcept)

// anyTypes covers every referable universal type; temporal and quantity
// values are never antecedents.
var anyTypes = typeSet(kg.EntityTypePerson, kg.EntityTypeOrganization,
	kg.EntityTypeLocation, kg.EntityTypeEvent, kg.EntityTypeDocument,
	kg.EntityTypeConcept, kg.EntityTypeTechnology, kg.EntityTypeProduct,
	kg.EntityTypeModel, kg.EntityTypeArchitecture, kg.EntityTypeProcess,
	kg.EntityTypeLanguage, kg.EntityTypeRegulation)

func typeSet(types ...kg.EntityType) map[string]struct{} {
	m := make(map[string]struct{}, len(types))
	for _, t := range types {
		m[string(t)] = struct{}{}
	}
	return m
}

func (c pronounCategory) allowed() map[string]struct{} {
	switch c {
	case catPerson:
		return personTypes
	case catThing:
		return thingTypes
	default:
		return anyTypes
	}
}

// Resolver rewrites pronouns to their most recent plausible antecedent using
// the deterministic tagger for candidates. Resolve never fails; on any
// problem the input comes back untouched with a zero count.
type Resolver struct {
	registry    *ner.Registry
	maxDistance int
	logger      *slog.Logger
}

// NewResolver builds a resolver searching up to maxDistance sentences back
// (3 when maxDistance is not positive).
func NewResolver(registry *ner.Registry, maxDistance int, logger *slog.Logger) *Resolver {
	if maxDistance <= 0 {
		maxDistance = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		registry:    registry,
		maxDistance: maxDistance,
		logger:      logger.With("component", "coref"),
	}
}

type antecedent struct {
	name     string
	entType  string
	sentence int
	absStart int
}

type replacement struct {
	start, end int
	name       string
}

// Resolve returns the rewritten text and the number of pronouns replaced.
func (r *Resolver) Resolve(text string) (string, int) {
	if strings.TrimSpace(text) == "" {
		return text, 0
	}

	lang := DetectLanguage(text)
	table, ok := pronounTables[lang]
	if !ok {
		return text, 0
	}

	tagger, err := r.registry.Get(lang)
	if err != nil {
		r.logger.Debug("Tagger unavailable, skipping coref", "language", lang, "error", err)
		return text, 0
	}

	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return text, 0
	}

	// Antecedent candidates per sentence, in text order.
	candidates := make([][]antecedent, len(sentences))
	for si, s := range sentences {
		for _, span := range tagger.Tag(s.Text) {
			entType := ner.MapLabel(span.Label)
			if _, referable := anyTypes[entType]; !referable {
				continue
			}
			candidates[si] = append(candidates[si], antecedent{
				name:     span.Text,
				entType:  entType,
				sentence: si,
				absStart: s.Start + span.Start,
			})
		}
	}

	var replacements []replacement
	for si, s := range sentences {
		for _, tok := range wordRE.FindAllStringIndex(s.Text, -1) {
			word := s.Text[tok[0]:tok[1]]
			cat, isPronoun := table[strings.ToLower(word)]
			if !isPronoun {
				continue
			}

			pronStart := s.Start + tok[0]
			best := r.pickAntecedent(candidates, si, pronStart, cat)
			if best == nil {
				continue
			}
			replacements = append(replacements, replacement{
				start: pronStart,
				end:   s.Start + tok[1],
				name:  best.name,
			})
		}
	}

	if len(replacements) == 0 {
		return text, 0
	}

	// Rewrite back to front so earlier offsets stay valid.
	out := text
	for i := len(replacements) - 1; i >= 0; i-- {
		rep := replacements[i]
		out = out[:rep.start] + rep.name + out[rep.end:]
	}

	r.logger.Debug("Resolved pronouns", "language", lang, "resolutions", len(replacements))
	return out, len(replacements)
}

// pickAntecedent scores candidates within maxDistance sentences strictly
// before the pronoun: +10 category match, +2 per sentence of remaining
// budget, +5 same sentence. Ties go to the most recent mention.
func (r *Resolver) pickAntecedent(candidates [][]antecedent, sentence, pronStart int, cat pronounCategory) *antecedent {
	allowed := cat.allowed()

	lo := sentence - r.maxDistance
	if lo < 0 {
		lo = 0
	}

	var best *antecedent
	bestScore := -1
	for si := lo; si <= sentence; si++ {
		for i := range candidates[si] {
			cand := &candidates[si][i]
			if cand.absStart >= pronStart {
				continue
			}
			if _, ok := allowed[cand.entType]; !ok {
				continue
			}

			distance := sentence - si
			score := 10 + 2*(r.maxDistance-distance)
			if distance == 0 {
				score += 5
			}
			if score > bestScore || (score == bestScore && best != nil && cand.absStart > best.absStart) {
				best = cand
				bestScore = score
			}
		}
	}
	return best
}
