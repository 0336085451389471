package booksearch

import (
	"encoding/json"
	"fmt"

	dombook "github.com/kailas-cloud/booksearch/internal/domain/book"
	"github.com/kailas-cloud/booksearch/internal/domain/query"
)

// DefaultIndex is the index used when WithIndex is not given.
const DefaultIndex = "bookdb_index"

// Book is a book document.
type Book struct {
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	Summary     string   `json:"summary"`
	PublishDate string   `json:"publish_date"` // YYYY-MM-DD
	NumReviews  int      `json:"num_reviews"`
	Publisher   string   `json:"publisher"`
}

func toInternalBook(b Book) dombook.Book {
	return dombook.Book{
		Title:       b.Title,
		Authors:     b.Authors,
		Summary:     b.Summary,
		PublishDate: b.PublishDate,
		NumReviews:  b.NumReviews,
		Publisher:   b.Publisher,
	}
}

// Clause is one multi-field match inside a boolean query.
type Clause struct {
	Query  string   `json:"query"`
	Fields []string `json:"fields"`
}

// Bounds limits a range query. Unset bounds are omitted.
type Bounds struct {
	GTE    any    `json:"gte,omitempty"`
	GT     any    `json:"gt,omitempty"`
	LTE    any    `json:"lte,omitempty"`
	LT     any    `json:"lt,omitempty"`
	Format string `json:"format,omitempty"` // date format, e.g. yyyy-MM-dd
}

// Metric is an aggregation statistic.
type Metric string

// Supported metrics.
const (
	MetricAvg           = Metric(query.MetricAvg)
	MetricSum           = Metric(query.MetricSum)
	MetricMin           = Metric(query.MetricMin)
	MetricMax           = Metric(query.MetricMax)
	MetricValueCount    = Metric(query.MetricValueCount)
	MetricCardinality   = Metric(query.MetricCardinality)
	MetricStats         = Metric(query.MetricStats)
	MetricExtendedStats = Metric(query.MetricExtendedStats)
)

// Result is the normalized outcome of an action run with Do.
type Result struct {
	Action   string
	Records  []json.RawMessage
	ID       string
	IDs      []string
	Affected int64
}

// Books decodes every record as a Book.
func (r Result) Books() ([]Book, error) {
	out := make([]Book, 0, len(r.Records))
	for i, rec := range r.Records {
		var b Book
		if err := json.Unmarshal(rec, &b); err != nil {
			return nil, fmt.Errorf("decode record %d: %w", i, err)
		}
		out = append(out, b)
	}
	return out, nil
}

// HealthStatus represents the aggregated engine health.
type HealthStatus struct {
	Status        string            // "ok", "degraded", "error"
	Checks        map[string]string // component -> "ok"/"warn"/"error"
	ClusterName   string
	ClusterStatus string
}
