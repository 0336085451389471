package action

import (
	"fmt"

	"github.com/kailas-cloud/booksearch/internal/domain"
	"github.com/kailas-cloud/booksearch/internal/domain/book"
	"github.com/kailas-cloud/booksearch/internal/domain/query"
)

// MaxBulkBooks caps the number of books accepted by one bulk append.
const MaxBulkBooks = 1000

type parser func(p Params) (Action, error)

var parsers = map[Kind]parser{
	KindAppendBook:        parseAppendBook,
	KindBulkAppendBooks:   parseBulkAppendBooks,
	KindRetrieveBookByID:  parseRetrieve,
	KindRemoveBookByID:    parseRemove,
	KindMatch:             parseMatch,
	KindFuzzy:             parseFuzzy,
	KindWildcard:          parseWildcard,
	KindRegexp:            parseRegexp,
	KindPhrase:            parsePhrase,
	KindPhrasePrefix:      parsePhrasePrefix,
	KindTerm:              parseTerm,
	KindRange:             parseRange,
	KindBool:              parseBool,
	KindDeleteByQuery:     parseDeleteByQuery,
	KindUpdateByQuery:     parseUpdateByQuery,
	KindMetricAggregation: parseMetricAggregation,
	KindFilterAggregation: parseFilterAggregation,
}

// Kinds returns every supported action tag.
func Kinds() []Kind {
	out := make([]Kind, 0, len(parsers))
	for k := range parsers {
		out = append(out, k)
	}
	return out
}

// Parse builds the typed action named by tag from its payload.
// Unknown tags fail with domain.ErrUnknownAction, bad payloads with domain.ErrInvalidRequest.
func Parse(tag string, p Params) (Action, error) {
	parse, ok := parsers[Kind(tag)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAction, tag)
	}
	if p == nil {
		p = Params{}
	}
	return parse(p)
}

func parseAppendBook(p Params) (Action, error) {
	id, err := p.OptionalString("book_id")
	if err != nil {
		return nil, err
	}
	if id != "" {
		if err := book.ValidateID(id); err != nil {
			return nil, domain.InvalidParam("book_id", err.Error())
		}
	}

	var b book.Book
	if b.Title, err = p.String("title"); err != nil {
		return nil, err
	}
	if b.Authors, err = p.Strings("authors"); err != nil {
		return nil, err
	}
	if b.Summary, err = p.String("summary"); err != nil {
		return nil, err
	}
	if b.Publisher, err = p.String("publisher"); err != nil {
		return nil, err
	}
	if b.NumReviews, err = p.RequiredInt("num_reviews"); err != nil {
		return nil, err
	}
	if b.PublishDate, err = p.String("publish_date"); err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidRequest, err.Error())
	}
	return AppendBook{ID: id, Book: b}, nil
}

func parseBulkAppendBooks(p Params) (Action, error) {
	var books []book.Book
	if err := p.Decode("books", &books); err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, domain.InvalidParam("books", "must not be empty")
	}
	if len(books) > MaxBulkBooks {
		return nil, domain.InvalidParam("books", fmt.Sprintf("exceeds %d items", MaxBulkBooks))
	}
	for i := range books {
		if err := books[i].Validate(); err != nil {
			return nil, domain.InvalidParam(fmt.Sprintf("books[%d]", i), err.Error())
		}
	}
	return BulkAppendBooks{Books: books}, nil
}

func parseBookID(p Params) (string, error) {
	id, err := p.String("book_id")
	if err != nil {
		return "", err
	}
	if err := book.ValidateID(id); err != nil {
		return "", domain.InvalidParam("book_id", err.Error())
	}
	return id, nil
}

func parseRetrieve(p Params) (Action, error) {
	id, err := parseBookID(p)
	if err != nil {
		return nil, err
	}
	return RetrieveBookByID{ID: id}, nil
}

func parseRemove(p Params) (Action, error) {
	id, err := parseBookID(p)
	if err != nil {
		return nil, err
	}
	return RemoveBookByID{ID: id}, nil
}

func fieldAndString(p Params, valueKey string) (field, value string, err error) {
	if field, err = p.String("field"); err != nil {
		return "", "", err
	}
	if value, err = p.String(valueKey); err != nil {
		return "", "", err
	}
	return field, value, nil
}

func parseMatch(p Params) (Action, error) {
	field, value, err := fieldAndString(p, "value")
	if err != nil {
		return nil, err
	}
	return Match{Field: field, Value: value}, nil
}

func parseClause(p Params) (Clause, error) {
	q, err := p.String("query")
	if err != nil {
		return Clause{}, err
	}
	fields, err := p.Strings("fields")
	if err != nil {
		return Clause{}, err
	}
	return Clause{Query: q, Fields: fields}, nil
}

func parseFuzzy(p Params) (Action, error) {
	c, err := parseClause(p)
	if err != nil {
		return nil, err
	}
	return Fuzzy{Query: c.Query, Fields: c.Fields}, nil
}

func parseWildcard(p Params) (Action, error) {
	field, value, err := fieldAndString(p, "value")
	if err != nil {
		return nil, err
	}
	return Wildcard{Field: field, Pattern: value}, nil
}

func parseRegexp(p Params) (Action, error) {
	field, value, err := fieldAndString(p, "value")
	if err != nil {
		return nil, err
	}
	return Regexp{Field: field, Pattern: value}, nil
}

func parsePhrase(p Params) (Action, error) {
	c, err := parseClause(p)
	if err != nil {
		return nil, err
	}
	slop, err := p.Int("slop", 0)
	if err != nil {
		return nil, err
	}
	if slop < 0 {
		return nil, domain.InvalidParam("slop", "must be non-negative")
	}
	return Phrase{Query: c.Query, Fields: c.Fields, Slop: slop}, nil
}

func parsePhrasePrefix(p Params) (Action, error) {
	q, err := p.String("query")
	if err != nil {
		return nil, err
	}
	field, err := p.String("field")
	if err != nil {
		return nil, err
	}
	maxExp, err := p.Int("max_expansions", query.DefaultMaxExpansions)
	if err != nil {
		return nil, err
	}
	if maxExp <= 0 {
		return nil, domain.InvalidParam("max_expansions", "must be positive")
	}
	return PhrasePrefix{Query: q, Field: field, MaxExpansions: maxExp}, nil
}

func parseTerm(p Params) (Action, error) {
	field, err := p.String("field")
	if err != nil {
		return nil, err
	}
	value, err := p.ScalarOrList("value")
	if err != nil {
		return nil, err
	}
	return Term{Field: field, Value: value}, nil
}

func parseRange(p Params) (Action, error) {
	field, err := p.String("field")
	if err != nil {
		return nil, err
	}
	var b query.Bounds
	for key, dst := range map[string]*any{"gte": &b.GTE, "gt": &b.GT, "lte": &b.LTE, "lt": &b.LT} {
		if *dst, err = p.OptionalScalar(key); err != nil {
			return nil, err
		}
	}
	if b.IsEmpty() {
		return nil, domain.InvalidParam("gte|gt|lte|lt", "at least one bound is required")
	}
	if b.Format, err = p.OptionalString("format"); err != nil {
		return nil, err
	}
	return Range{Field: field, Bounds: b}, nil
}

func decodeClauses(p Params, key string) ([]Clause, error) {
	if !p.Has(key) {
		return nil, nil
	}
	var clauses []Clause
	if err := p.Decode(key, &clauses); err != nil {
		return nil, err
	}
	for i, c := range clauses {
		if c.Query == "" {
			return nil, domain.MissingParam(fmt.Sprintf("%s[%d].query", key, i))
		}
		if len(c.Fields) == 0 {
			return nil, domain.MissingParam(fmt.Sprintf("%s[%d].fields", key, i))
		}
	}
	return clauses, nil
}

func parseBool(p Params) (Action, error) {
	var (
		b   Bool
		err error
	)
	if b.Must, err = decodeClauses(p, "must"); err != nil {
		return nil, err
	}
	if b.Should, err = decodeClauses(p, "should"); err != nil {
		return nil, err
	}
	if b.MustNot, err = decodeClauses(p, "must_not"); err != nil {
		return nil, err
	}
	if len(b.Must)+len(b.Should)+len(b.MustNot) == 0 {
		return nil, domain.InvalidParam("must|should|must_not", "at least one clause is required")
	}
	return b, nil
}

func parseDeleteByQuery(p Params) (Action, error) {
	c, err := parseClause(p)
	if err != nil {
		return nil, err
	}
	return DeleteByQuery{Filter: c}, nil
}

func parseUpdateByQuery(p Params) (Action, error) {
	c, err := parseClause(p)
	if err != nil {
		return nil, err
	}
	field, err := p.String("field")
	if err != nil {
		return nil, err
	}
	value, err := p.Value("value")
	if err != nil {
		return nil, err
	}
	return UpdateByQuery{Filter: c, Field: field, Value: value}, nil
}

func parseMetric(p Params) (query.Metric, string, string, error) {
	raw, err := p.String("metric")
	if err != nil {
		return "", "", "", err
	}
	m, err := query.ParseMetric(raw)
	if err != nil {
		return "", "", "", domain.InvalidParam("metric", err.Error())
	}
	field, err := p.String("field")
	if err != nil {
		return "", "", "", err
	}
	name, err := p.OptionalString("name")
	if err != nil {
		return "", "", "", err
	}
	if name == "" {
		name = query.AggregationName(m, field)
	}
	return m, field, name, nil
}

func parseMetricAggregation(p Params) (Action, error) {
	m, field, name, err := parseMetric(p)
	if err != nil {
		return nil, err
	}
	return MetricAggregation{Name: name, Metric: m, Field: field}, nil
}

func parseFilterAggregation(p Params) (Action, error) {
	m, field, name, err := parseMetric(p)
	if err != nil {
		return nil, err
	}
	filterField, err := p.String("filter_field")
	if err != nil {
		return nil, err
	}
	filterValue, err := p.Scalar("filter_value")
	if err != nil {
		return nil, err
	}
	return FilterAggregation{
		Name:        name,
		Metric:      m,
		Field:       field,
		FilterField: filterField,
		FilterValue: filterValue,
	}, nil
}
