package extract

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// RawEntity is one entity object as the model returned it, before type
// normalization and consolidation.
type RawEntity struct {
	Name        string
	Type        string
	Description string
	Confidence  float64
}

// RawRelation is one relationship object as the model returned it. The
// alternate {subject, predicate, object} shape is already folded into the
// canonical fields by the parser.
type RawRelation struct {
	Source      string
	Target      string
	Type        string
	Description string
	Evidence    string
	Confidence  float64
	Strength    int
}

var (
	fencedRE = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

	// Structural single-quote rewrite: an opening quote directly after a
	// structural character, a closing quote directly before one. Apostrophes
	// inside values touch neither pattern.
	singleQuotedDocRE = regexp.MustCompile(`^\s*[\[{][\s\[{]*'`)
	openQuoteRE       = regexp.MustCompile(`([{\[,:]\s*)'`)
	closeQuoteRE      = regexp.MustCompile(`'(\s*[:,}\]])`)

	// Python literals in value position only; never inside strings.
	pyNullRE  = regexp.MustCompile(`([:\[,]\s*)None(\s*[,}\]])`)
	pyTrueRE  = regexp.MustCompile(`([:\[,]\s*)True(\s*[,}\]])`)
	pyFalseRE = regexp.MustCompile(`([:\[,]\s*)False(\s*[,}\]])`)

	missingCommaRE  = regexp.MustCompile(`([}\]])\s*{`)
	trailingCommaRE = regexp.MustCompile(`,(\s*[}\]])`)
)

// Repair rewrites the common model-output defects into strict JSON: ASCII
// control characters dropped, structural single quotes doubled, Python
// literals converted, missing commas between adjacent objects inserted, and
// trailing commas removed.
func Repair(s string) string {
	s = stripControl(s)
	if singleQuotedDocRE.MatchString(s) {
		s = openQuoteRE.ReplaceAllString(s, `$1"`)
		s = closeQuoteRE.ReplaceAllString(s, `"$1`)
	}
	s = pyNullRE.ReplaceAllString(s, "${1}null${2}")
	s = pyTrueRE.ReplaceAllString(s, "${1}true${2}")
	s = pyFalseRE.ReplaceAllString(s, "${1}false${2}")
	s = missingCommaRE.ReplaceAllString(s, "$1,{")
	s = trailingCommaRE.ReplaceAllString(s, "$1")
	return s
}

func stripControl(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 && r != '\t' && r != '\r' && r != '\n' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ParseEntities extracts entity objects from raw model output. Objects
// missing name or type are dropped; total failure raises *ParseError.
func ParseEntities(raw string) ([]RawEntity, error) {
	objects, err := parseObjects(raw)
	if err != nil {
		return nil, err
	}

	out := make([]RawEntity, 0, len(objects))
	for _, m := range objects {
		name := fieldString(m, "name", "entity", "entity_name")
		typ := fieldString(m, "type", "entity_type", "label")
		if name == "" || typ == "" {
			continue
		}
		out = append(out, RawEntity{
			Name:        name,
			Type:        typ,
			Description: fieldString(m, "description"),
			Confidence:  fieldFloat(m, 0.7, "confidence"),
		})
	}
	return out, nil
}

// ParseRelations extracts relationship objects from raw model output. Both
// the canonical {source, target, type} and the alternate {subject,
// predicate, object} shapes are accepted; the alternate is normalized here
// so downstream only ever sees canonical fields.
func ParseRelations(raw string) ([]RawRelation, error) {
	objects, err := parseObjects(raw)
	if err != nil {
		return nil, err
	}

	out := make([]RawRelation, 0, len(objects))
	for _, m := range objects {
		source := fieldString(m, "source", "source_entity")
		target := fieldString(m, "target", "target_entity")
		typ := fieldString(m, "type", "relation_type", "relationship")

		if source == "" || target == "" {
			// Alternate subject/predicate/object shape.
			source = fieldString(m, "subject")
			target = fieldString(m, "object")
			if typ == "" {
				typ = foldPredicate(fieldString(m, "predicate"))
			}
		}
		if source == "" || target == "" || typ == "" {
			continue
		}

		out = append(out, RawRelation{
			Source:      source,
			Target:      target,
			Type:        typ,
			Description: fieldString(m, "description"),
			Evidence:    fieldString(m, "evidence", "evidence_span"),
			Confidence:  fieldFloat(m, 0.7, "confidence"),
			Strength:    fieldInt(m, 5, "strength"),
		})
	}
	return out, nil
}

// parseObjects locates a JSON array in the raw output, repairs it, and
// unmarshals it. Strategies run in order: fenced block, bracket-bounded
// slice, whole string. When none parses, the object-salvage pass recovers
// individual balanced-brace blobs; only then does the parser give up.
func parseObjects(raw string) ([]map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	lastStrategy := "none"
	for _, c := range arrayCandidates(raw) {
		lastStrategy = c.strategy
		var arr []map[string]any
		if err := json.Unmarshal([]byte(Repair(c.text)), &arr); err == nil {
			return arr, nil
		}
	}

	if salvaged := salvageObjects(raw); len(salvaged) > 0 {
		return salvaged, nil
	}
	return nil, newParseError(lastStrategy, raw)
}

type arrayCandidate struct {
	strategy string
	text     string
}

func arrayCandidates(raw string) []arrayCandidate {
	var cands []arrayCandidate
	if m := fencedRE.FindStringSubmatch(raw); m != nil {
		cands = append(cands, arrayCandidate{"fenced", m[1]})
	}
	if i, j := strings.Index(raw, "["), strings.LastIndex(raw, "]"); i >= 0 && j > i {
		cands = append(cands, arrayCandidate{"bracketed", raw[i : j+1]})
	}
	cands = append(cands, arrayCandidate{"full", raw})
	return cands
}

// salvageObjects scans for top-level balanced-brace blobs, repairing and
// parsing each independently. Invalid blobs are discarded.
func salvageObjects(raw string) []map[string]any {
	var out []map[string]any
	for _, blob := range matchBraceBlobs(raw) {
		var m map[string]any
		if err := json.Unmarshal([]byte(Repair(blob)), &m); err == nil && len(m) > 0 {
			out = append(out, m)
		}
	}
	return out
}

// matchBraceBlobs returns every top-level {...} substring, honoring string
// quoting and escapes while counting braces.
func matchBraceBlobs(s string) []string {
	var blobs []string
	depth := 0
	start := -1
	inString := false
	var quote byte
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				inString = false
			}
			continue
		}
		switch c {
		case '"', '\'':
			inString = true
			quote = c
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					blobs = append(blobs, s[start:i+1])
					start = -1
				}
			}
		}
	}
	return blobs
}

// predicate auxiliaries stripped before snake-casing; "was founded by"
// becomes FOUNDED_BY before the alias map sees it.
var predicateAuxiliaries = map[string]struct{}{
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"being": {}, "has": {}, "have": {}, "had": {}, "does": {}, "do": {},
}

// foldPredicate converts a free-form predicate into an UPPER_SNAKE relation
// type candidate. The universal alias map downstream does the final fold.
func foldPredicate(predicate string) string {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(predicate)))
	for len(words) > 0 {
		if _, aux := predicateAuxiliaries[words[0]]; !aux {
			break
		}
		words = words[1:]
	}
	if len(words) == 0 {
		return ""
	}
	return strings.ToUpper(strings.Join(words, "_"))
}

func fieldString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func fieldFloat(m map[string]any, def float64, keys ...string) float64 {
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return f
			}
		}
	}
	return def
}

func fieldInt(m map[string]any, def int, keys ...string) int {
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int(n)
		case string:
			if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
				return i
			}
		}
	}
	return def
}
