// Package action defines the closed set of storage actions and their typed parameters.
package action

import (
	"github.com/kailas-cloud/booksearch/internal/domain/book"
	"github.com/kailas-cloud/booksearch/internal/domain/query"
)

// Kind is the wire tag of an action.
type Kind string

// Supported action tags.
const (
	KindAppendBook        Kind = "append_book"
	KindBulkAppendBooks   Kind = "bulk_append_books"
	KindRetrieveBookByID  Kind = "retrieve_book_by_id"
	KindRemoveBookByID    Kind = "remove_book_by_id"
	KindMatch             Kind = "match_query"
	KindFuzzy             Kind = "fuzzy_queries"
	KindWildcard          Kind = "wildcard_query"
	KindRegexp            Kind = "regexp_query"
	KindPhrase            Kind = "match_phrase_query"
	KindPhrasePrefix      Kind = "match_phrase_prefix_query"
	KindTerm              Kind = "term_query"
	KindRange             Kind = "range_query"
	KindBool              Kind = "bool_query"
	KindDeleteByQuery     Kind = "delete_by_query"
	KindUpdateByQuery     Kind = "update_by_query"
	KindMetricAggregation Kind = "metric_aggregation"
	KindFilterAggregation Kind = "filter_aggregation"
)

// Action is one of the concrete action types in this package.
type Action interface {
	Kind() Kind
	sealed()
}

// AppendBook indexes a new book. ID is empty when the caller lets the service assign one.
type AppendBook struct {
	ID   string
	Book book.Book
}

// BulkAppendBooks indexes several books in one engine call.
type BulkAppendBooks struct {
	Books []book.Book
}

// RetrieveBookByID fetches one book.
type RetrieveBookByID struct {
	ID string
}

// RemoveBookByID deletes one book.
type RemoveBookByID struct {
	ID string
}

// Match is an exact match on one field.
type Match struct {
	Field string
	Value string
}

// Fuzzy is a multi-field match tolerating typos. Only the best hit is returned.
type Fuzzy struct {
	Query  string
	Fields []string
}

// Wildcard is a wildcard pattern on one field.
type Wildcard struct {
	Field   string
	Pattern string
}

// Regexp is a regular expression on one field.
type Regexp struct {
	Field   string
	Pattern string
}

// Phrase is a phrase match across fields with positional slop.
type Phrase struct {
	Query  string
	Fields []string
	Slop   int
}

// PhrasePrefix is a phrase prefix match on one field.
type PhrasePrefix struct {
	Query         string
	Field         string
	MaxExpansions int
}

// Term is an exact term match. Value is a scalar or a []any list.
type Term struct {
	Field string
	Value any
}

// Range matches an ordered field between bounds.
type Range struct {
	Field  string
	Bounds query.Bounds
}

// Clause is one multi-field match inside a boolean query.
type Clause struct {
	Query  string   `json:"query"`
	Fields []string `json:"fields"`
}

// Bool combines clauses with must/should/must_not semantics.
type Bool struct {
	Must    []Clause
	Should  []Clause
	MustNot []Clause
}

// DeleteByQuery removes every book matching a multi-field match.
type DeleteByQuery struct {
	Filter Clause
}

// UpdateByQuery assigns Value to Field on every book matching Filter.
type UpdateByQuery struct {
	Filter Clause
	Field  string
	Value  any
}

// MetricAggregation computes one statistic over a field.
type MetricAggregation struct {
	Name   string
	Metric query.Metric
	Field  string
}

// FilterAggregation computes a statistic over books matching one term filter.
type FilterAggregation struct {
	Name        string
	Metric      query.Metric
	Field       string
	FilterField string
	FilterValue any
}

func (AppendBook) Kind() Kind        { return KindAppendBook }
func (BulkAppendBooks) Kind() Kind   { return KindBulkAppendBooks }
func (RetrieveBookByID) Kind() Kind  { return KindRetrieveBookByID }
func (RemoveBookByID) Kind() Kind    { return KindRemoveBookByID }
func (Match) Kind() Kind             { return KindMatch }
func (Fuzzy) Kind() Kind             { return KindFuzzy }
func (Wildcard) Kind() Kind          { return KindWildcard }
func (Regexp) Kind() Kind            { return KindRegexp }
func (Phrase) Kind() Kind            { return KindPhrase }
func (PhrasePrefix) Kind() Kind      { return KindPhrasePrefix }
func (Term) Kind() Kind              { return KindTerm }
func (Range) Kind() Kind             { return KindRange }
func (Bool) Kind() Kind              { return KindBool }
func (DeleteByQuery) Kind() Kind     { return KindDeleteByQuery }
func (UpdateByQuery) Kind() Kind     { return KindUpdateByQuery }
func (MetricAggregation) Kind() Kind { return KindMetricAggregation }
func (FilterAggregation) Kind() Kind { return KindFilterAggregation }

func (AppendBook) sealed()        {}
func (BulkAppendBooks) sealed()   {}
func (RetrieveBookByID) sealed()  {}
func (RemoveBookByID) sealed()    {}
func (Match) sealed()             {}
func (Fuzzy) sealed()             {}
func (Wildcard) sealed()          {}
func (Regexp) sealed()            {}
func (Phrase) sealed()            {}
func (PhrasePrefix) sealed()      {}
func (Term) sealed()              {}
func (Range) sealed()             {}
func (Bool) sealed()              {}
func (DeleteByQuery) sealed()     {}
func (UpdateByQuery) sealed()     {}
func (MetricAggregation) sealed() {}
func (FilterAggregation) sealed() {}
