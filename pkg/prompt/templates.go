// Package prompt selects and renders the extraction prompt pairs. A pair is
// (entity prompt, relation prompt); selection walks trained domain prompts,
// then the DSPy-optimized universal pair, then the legacy generic pair.
package prompt

// Pair is one entity/relation prompt template pair. Templates may use the
// placeholders {text}, {entities}, and {domain}; leaving one unused is fine.
type Pair struct {
	Entity   string
	Relation string
	// Origin names which tier supplied the pair, for logging.
	Origin string
}

// Pair origins.
const (
	OriginDomain = "domain"
	OriginDSPy   = "dspy"
	OriginLegacy = "legacy"
)

// dspyPair is the universal optimized pair. The wording mirrors the tuned
// instructions: explicit type vocabulary, JSON-only output, evidence spans
// and graded strength on relations.
var dspyPair = Pair{
	Origin: OriginDSPy,
	Entity: `You are an expert knowledge-graph entity extractor.

Extract every distinct named entity from the text below. For each entity return:
- "name": the canonical surface form exactly as it appears in the text
- "type": one of PERSON, ORGANIZATION, LOCATION, TEMPORAL, QUANTITY, EVENT,
  DOCUMENT, CONCEPT, TECHNOLOGY, PRODUCT, MODEL, ARCHITECTURE, PROCESS,
  LANGUAGE, REGULATION
- "description": at most one sentence
- "confidence": 0.0-1.0

Rules:
1. Use the most specific type that fits; use CONCEPT only when nothing else does.
2. Never invent entities that are not in the text.
3. Return ONLY a JSON array of objects, no prose before or after.

Text:
{text}

JSON array:`,
	Relation: `You are an expert knowledge-graph relation extractor.

Given the text and the entity list below, extract every relationship stated or
strongly implied between two listed entities. For each relationship return:
- "source": entity name (must be in the entity list)
- "target": entity name (must be in the entity list)
- "type": one of PART_OF, CONTAINS, INSTANCE_OF, TYPE_OF, EMPLOYS, MANAGES,
  FOUNDED_BY, OWNS, LOCATED_IN, CAUSES, ENABLES, REQUIRES, LEADS_TO, PRECEDES,
  FOLLOWS, USES, CREATES, IMPLEMENTS, DEPENDS_ON, SIMILAR_TO, ASSOCIATED_WITH,
  RELATED_TO
- "description": at most one sentence
- "evidence": the exact text span supporting the relationship
- "strength": 10 for an explicit statement, 7 for a strong implication,
  4 for a weak inference
- "confidence": 0.0-1.0

Rules:
1. source and target must be different entities.
2. Prefer a specific type over RELATED_TO.
3. Return ONLY a JSON array of objects, no prose before or after.

Entities:
{entities}

Text:
{text}

JSON array:`,
}

// legacyPair is the pre-optimization generic pair, kept as the last tier.
var legacyPair = Pair{
	Origin: OriginLegacy,
	Entity: `Extract all named entities from the following text. Return a JSON
array where each object has "name", "type", and "description" fields.

Text:
{text}`,
	Relation: `Extract all relationships between the entities listed below as
found in the text. Return a JSON array where each object has "source",
"target", "type", and "description" fields.

Entities: {entities}

Text:
{text}`,
}

// EnrichmentTemplate asks only for the entity kinds the deterministic tagger
// cannot find. The pipeline post-filters anything duplicating a tagger hit.
const EnrichmentTemplate = `The following entities were already extracted from
the text by a named-entity tagger:

{entities}

Extract ADDITIONAL entities of these kinds only: CONCEPT, TECHNOLOGY, PRODUCT,
MODEL, ARCHITECTURE, LANGUAGE. Skip anything already listed above. Return ONLY
a JSON array of objects with "name", "type", "description", and "confidence"
fields. Return [] if there is nothing to add.

Text:
{text}

JSON array:`

// Gleaning prompts. The probe demands a bare YES/NO so the answer parses
// without a JSON pass.
const (
	GleaningEntityProbeTemplate = `The following entities were extracted from the text:

{entities}

Were any entities missed? Answer with exactly one word: YES if entities are
missing, NO if the list is complete.

Text:
{text}

Answer:`

	GleaningEntityContinuationTemplate = `The following entities were already extracted:

{entities}

Extract ONLY entities that are in the text but NOT in the list above. Return
ONLY a JSON array of objects with "name", "type", "description", and
"confidence" fields. Return [] if nothing was missed.

Text:
{text}

JSON array:`

	GleaningRelationProbeTemplate = `The following relationships were extracted from the text:

{entities}

Were any relationships missed? Answer with exactly one word: YES if
relationships are missing, NO if the list is complete.

Text:
{text}

Answer:`

	GleaningRelationContinuationTemplate = `The following relationships were already extracted:

{entities}

Extract ONLY relationships that are in the text but NOT in the list above.
Return ONLY a JSON array of objects with "source", "target", "type",
"description", "evidence", "strength", and "confidence" fields. Return [] if
nothing was missed.

Text:
{text}

JSON array:`
)
