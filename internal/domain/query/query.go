// Package query builds Elasticsearch query DSL bodies for the book actions.
package query

import "encoding/json"

const (
	// DefaultMaxHits approximates "every match" for plain searches.
	DefaultMaxHits = 10000
	// FuzzyMaxHits limits fuzzy searches to the best hit.
	FuzzyMaxHits = 1
	// DefaultMaxExpansions caps the terms a phrase prefix expands to.
	DefaultMaxExpansions = 10
	// DefaultFuzziness lets the engine pick the edit distance from the term length.
	DefaultFuzziness = "AUTO"
)

// Clause is a single query DSL clause, e.g. {"match": {...}}.
type Clause map[string]any

// Body is a complete request body sent to a search, delete-by-query or update-by-query call.
type Body map[string]any

// JSON encodes the body for the wire.
func (b Body) JSON() ([]byte, error) {
	return json.Marshal(map[string]any(b))
}

// Match builds an exact match on one field.
func Match(field, value string) Clause {
	return Clause{"match": map[string]any{field: value}}
}

// MultiMatch builds a best-fields match of query across fields.
func MultiMatch(query string, fields []string) Clause {
	return Clause{"multi_match": map[string]any{
		"query":  query,
		"fields": fields,
	}}
}

// Fuzzy builds a multi-field match tolerating DefaultFuzziness edits.
func Fuzzy(query string, fields []string) Clause {
	return Clause{"multi_match": map[string]any{
		"query":     query,
		"fields":    fields,
		"fuzziness": DefaultFuzziness,
	}}
}

// Wildcard builds a wildcard pattern match on one field.
func Wildcard(field, pattern string) Clause {
	return Clause{"wildcard": map[string]any{
		field: map[string]any{"value": pattern},
	}}
}

// Regexp builds a regular expression match on one field.
func Regexp(field, pattern string) Clause {
	return Clause{"regexp": map[string]any{
		field: map[string]any{"value": pattern},
	}}
}

// Phrase builds a phrase match across fields allowing slop positions between terms.
func Phrase(query string, fields []string, slop int) Clause {
	return Clause{"multi_match": map[string]any{
		"query":  query,
		"fields": fields,
		"type":   "phrase",
		"slop":   slop,
	}}
}

// PhrasePrefix builds a phrase prefix match on one field.
// Non-positive maxExpansions falls back to DefaultMaxExpansions.
func PhrasePrefix(query, field string, maxExpansions int) Clause {
	if maxExpansions <= 0 {
		maxExpansions = DefaultMaxExpansions
	}
	return Clause{"match_phrase_prefix": map[string]any{
		field: map[string]any{
			"query":          query,
			"max_expansions": maxExpansions,
		},
	}}
}

// Term builds an exact term clause. A slice value yields "terms", anything else "term".
func Term(field string, value any) Clause {
	switch v := value.(type) {
	case []any:
		return Clause{"terms": map[string]any{field: v}}
	case []string:
		return Clause{"terms": map[string]any{field: v}}
	case []int:
		return Clause{"terms": map[string]any{field: v}}
	case []float64:
		return Clause{"terms": map[string]any{field: v}}
	default:
		return Clause{"term": map[string]any{field: v}}
	}
}

// Bounds holds the limits of a range clause. Nil limits are omitted.
type Bounds struct {
	GTE    any
	GT     any
	LTE    any
	LT     any
	Format string
}

// IsEmpty reports whether no limit is set.
func (b Bounds) IsEmpty() bool {
	return b.GTE == nil && b.GT == nil && b.LTE == nil && b.LT == nil
}

// Range builds a range clause over an ordered field.
func Range(field string, b Bounds) Clause {
	r := make(map[string]any, 5)
	if b.GTE != nil {
		r["gte"] = b.GTE
	}
	if b.GT != nil {
		r["gt"] = b.GT
	}
	if b.LTE != nil {
		r["lte"] = b.LTE
	}
	if b.LT != nil {
		r["lt"] = b.LT
	}
	if b.Format != "" {
		r["format"] = b.Format
	}
	return Clause{"range": map[string]any{field: r}}
}

// Bool combines clauses with must/should/must_not semantics.
// When should clauses are present at least one of them has to match.
func Bool(must, should, mustNot []Clause) Clause {
	b := make(map[string]any, 4)
	if len(must) > 0 {
		b["must"] = must
	}
	if len(should) > 0 {
		b["should"] = should
		b["minimum_should_match"] = 1
	}
	if len(mustNot) > 0 {
		b["must_not"] = mustNot
	}
	return Clause{"bool": b}
}

// AssignScript builds a painless script setting one source field.
func AssignScript(field string, value any) map[string]any {
	return map[string]any{
		"source": "ctx._source[params.field] = params.value",
		"lang":   "painless",
		"params": map[string]any{
			"field": field,
			"value": value,
		},
	}
}

// DeleteByQuery builds a delete-by-query body.
func DeleteByQuery(q Clause) Body {
	return Body{"query": q}
}

// UpdateByQuery builds an update-by-query body applying script to every match.
func UpdateByQuery(q Clause, script map[string]any) Body {
	return Body{"query": q, "script": script}
}
