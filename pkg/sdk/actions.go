package booksearch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/booksearch/internal/domain/action"
)

// Append indexes a book under a generated ID and returns it.
func (c *Client) Append(ctx context.Context, b Book) (string, error) {
	return c.AppendWithID(ctx, "", b)
}

// AppendWithID indexes a book under id, replacing any existing book.
// An empty id generates one.
func (c *Client) AppendWithID(ctx context.Context, id string, b Book) (string, error) {
	params := bookParams(b)
	if id != "" {
		params["book_id"] = id
	}
	res, err := c.Do(ctx, string(action.KindAppendBook), params)
	if err != nil {
		return "", err
	}
	return res.ID, nil
}

// BulkAppend indexes several books in one engine call and returns their IDs in order.
func (c *Client) BulkAppend(ctx context.Context, books []Book) ([]string, error) {
	in := make([]any, len(books))
	for i, b := range books {
		in[i] = toInternalBook(b)
	}
	res, err := c.Do(ctx, string(action.KindBulkAppendBooks), map[string]any{"books": in})
	if err != nil {
		return nil, err
	}
	return res.IDs, nil
}

// Get fetches a book by ID. A missing book fails with ErrBookNotFound.
func (c *Client) Get(ctx context.Context, id string) (Book, error) {
	books, err := c.books(ctx, action.KindRetrieveBookByID, map[string]any{"book_id": id})
	if err != nil {
		return Book{}, err
	}
	if len(books) == 0 {
		return Book{}, fmt.Errorf("get %s: %w", id, ErrBookNotFound)
	}
	return books[0], nil
}

// Remove deletes a book by ID.
func (c *Client) Remove(ctx context.Context, id string) error {
	_, err := c.Do(ctx, string(action.KindRemoveBookByID), map[string]any{"book_id": id})
	return err
}

// Match returns books whose field matches value.
func (c *Client) Match(ctx context.Context, field, value string) ([]Book, error) {
	return c.books(ctx, action.KindMatch, map[string]any{"field": field, "value": value})
}

// Fuzzy returns the single best book matching q across fields, tolerating typos.
func (c *Client) Fuzzy(ctx context.Context, q string, fields ...string) ([]Book, error) {
	return c.books(ctx, action.KindFuzzy, map[string]any{"query": q, "fields": fields})
}

// Wildcard returns books whose field matches a pattern with * and ?.
func (c *Client) Wildcard(ctx context.Context, field, pattern string) ([]Book, error) {
	return c.books(ctx, action.KindWildcard, map[string]any{"field": field, "value": pattern})
}

// Regexp returns books whose field matches a regular expression.
func (c *Client) Regexp(ctx context.Context, field, pattern string) ([]Book, error) {
	return c.books(ctx, action.KindRegexp, map[string]any{"field": field, "value": pattern})
}

// Phrase returns books containing the phrase in any of fields, allowing slop moved positions.
func (c *Client) Phrase(ctx context.Context, phrase string, slop int, fields ...string) ([]Book, error) {
	return c.books(ctx, action.KindPhrase, map[string]any{"query": phrase, "fields": fields, "slop": slop})
}

// PhrasePrefix returns books whose field starts with the phrase.
// maxExpansions <= 0 uses the default.
func (c *Client) PhrasePrefix(ctx context.Context, field, phrase string, maxExpansions int) ([]Book, error) {
	params := map[string]any{"field": field, "query": phrase}
	if maxExpansions > 0 {
		params["max_expansions"] = maxExpansions
	}
	return c.books(ctx, action.KindPhrasePrefix, params)
}

// Term returns books whose field equals value exactly.
// Pass a slice to match any of several values.
func (c *Client) Term(ctx context.Context, field string, value any) ([]Book, error) {
	return c.books(ctx, action.KindTerm, map[string]any{"field": field, "value": value})
}

// Range returns books whose field falls within b.
func (c *Client) Range(ctx context.Context, field string, b Bounds) ([]Book, error) {
	params := map[string]any{"field": field}
	for key, v := range map[string]any{"gte": b.GTE, "gt": b.GT, "lte": b.LTE, "lt": b.LT} {
		if v != nil {
			params[key] = v
		}
	}
	if b.Format != "" {
		params["format"] = b.Format
	}
	return c.books(ctx, action.KindRange, params)
}

// Bool combines multi-field clauses. At least one should clause must match when any are given.
func (c *Client) Bool(ctx context.Context, must, should, mustNot []Clause) ([]Book, error) {
	params := map[string]any{}
	for key, cl := range map[string][]Clause{"must": must, "should": should, "must_not": mustNot} {
		if len(cl) > 0 {
			params[key] = cl
		}
	}
	return c.books(ctx, action.KindBool, params)
}

// DeleteByQuery removes every book matching the clause and returns how many were deleted.
func (c *Client) DeleteByQuery(ctx context.Context, filter Clause) (int64, error) {
	res, err := c.Do(ctx, string(action.KindDeleteByQuery), clauseParams(filter))
	if err != nil {
		return 0, err
	}
	return res.Affected, nil
}

// UpdateByQuery sets field to value on every book matching the clause and returns how many were updated.
func (c *Client) UpdateByQuery(ctx context.Context, filter Clause, field string, value any) (int64, error) {
	params := clauseParams(filter)
	params["field"] = field
	params["value"] = value
	res, err := c.Do(ctx, string(action.KindUpdateByQuery), params)
	if err != nil {
		return 0, err
	}
	return res.Affected, nil
}

// MetricAggregation computes a statistic over field across all books.
// The engine's aggregation object is returned as is, e.g. {"value": 12.5}.
func (c *Client) MetricAggregation(ctx context.Context, m Metric, field string) (json.RawMessage, error) {
	return c.aggregation(ctx, action.KindMetricAggregation, map[string]any{"metric": m, "field": field})
}

// FilterAggregation computes a statistic over field across books whose filterField equals filterValue.
func (c *Client) FilterAggregation(
	ctx context.Context, m Metric, field, filterField string, filterValue any,
) (json.RawMessage, error) {
	return c.aggregation(ctx, action.KindFilterAggregation, map[string]any{
		"metric":       m,
		"field":        field,
		"filter_field": filterField,
		"filter_value": filterValue,
	})
}

func (c *Client) books(ctx context.Context, kind action.Kind, params map[string]any) ([]Book, error) {
	res, err := c.Do(ctx, string(kind), params)
	if err != nil {
		return nil, err
	}
	books, err := res.Books()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	return books, nil
}

func (c *Client) aggregation(ctx context.Context, kind action.Kind, params map[string]any) (json.RawMessage, error) {
	res, err := c.Do(ctx, string(kind), params)
	if err != nil {
		return nil, err
	}
	if len(res.Records) == 0 {
		return nil, nil
	}
	return res.Records[0], nil
}

func bookParams(b Book) map[string]any {
	return map[string]any{
		"title":        b.Title,
		"authors":      b.Authors,
		"summary":      b.Summary,
		"publish_date": b.PublishDate,
		"num_reviews":  b.NumReviews,
		"publisher":    b.Publisher,
	}
}

func clauseParams(c Clause) map[string]any {
	return map[string]any{"query": c.Query, "fields": c.Fields}
}
