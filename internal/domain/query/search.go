package query

import (
	"fmt"
	"strings"
)

// Metric is a single-field metric aggregation type.
type Metric string

const (
	// MetricMin is the minimum value.
	MetricMin Metric = "min"
	// MetricMax is the maximum value.
	MetricMax Metric = "max"
	// MetricAvg is the arithmetic mean.
	MetricAvg Metric = "avg"
	// MetricSum is the sum of values.
	MetricSum Metric = "sum"
	// MetricValueCount counts values.
	MetricValueCount Metric = "value_count"
	// MetricCardinality approximates distinct values.
	MetricCardinality Metric = "cardinality"
	// MetricStats returns min, max, avg, sum and count together.
	MetricStats Metric = "stats"
	// MetricExtendedStats adds variance and standard deviation to stats.
	MetricExtendedStats Metric = "extended_stats"
)

var validMetrics = map[Metric]bool{
	MetricMin: true, MetricMax: true, MetricAvg: true, MetricSum: true,
	MetricValueCount: true, MetricCardinality: true, MetricStats: true, MetricExtendedStats: true,
}

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.ToLower(s))
	if !validMetrics[m] {
		return "", fmt.Errorf("unsupported metric %q", s)
	}
	return m, nil
}

// Aggregation is one named aggregation definition.
type Aggregation map[string]any

// MetricAgg computes metric over field.
func MetricAgg(m Metric, field string) Aggregation {
	return Aggregation{string(m): map[string]any{"field": field}}
}

// FilterAgg computes inner only over documents matching filter.
func FilterAgg(filter Clause, innerName string, inner Aggregation) Aggregation {
	return Aggregation{
		"filter": filter,
		"aggs":   map[string]any{innerName: inner},
	}
}

// SearchBuilder is a fluent builder for search request bodies.
type SearchBuilder struct {
	query Clause
	size  int
	aggs  map[string]Aggregation
}

// NewSearch starts a search body for q returning DefaultMaxHits hits.
func NewSearch(q Clause) *SearchBuilder {
	return &SearchBuilder{query: q, size: DefaultMaxHits}
}

// Size sets the number of hits to return.
func (b *SearchBuilder) Size(n int) *SearchBuilder {
	b.size = n
	return b
}

// Aggregate adds a named aggregation and drops hits from the response.
func (b *SearchBuilder) Aggregate(name string, agg Aggregation) *SearchBuilder {
	if b.aggs == nil {
		b.aggs = make(map[string]Aggregation)
	}
	b.aggs[name] = agg
	b.size = 0
	return b
}

// Build returns the request body.
func (b *SearchBuilder) Build() Body {
	body := Body{"size": b.size}
	if b.query != nil {
		body["query"] = b.query
	}
	if len(b.aggs) > 0 {
		body["aggs"] = b.aggs
	}
	return body
}

// MatchAll matches every document. Used by aggregations without a filter.
func MatchAll() Clause {
	return Clause{"match_all": map[string]any{}}
}

// AggregationName returns the default name for metric over field.
func AggregationName(m Metric, field string) string {
	return string(m) + "_" + field
}
