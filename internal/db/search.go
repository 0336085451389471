package db

import "encoding/json"

// Document is a stored document fetched by id.
type Document struct {
	ID     string
	Source json.RawMessage
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total        int
	Hits         []SearchHit
	Aggregations map[string]json.RawMessage
}

// SearchHit is a single document hit from a search, in engine relevance order.
type SearchHit struct {
	ID     string
	Score  float64
	Source json.RawMessage
}

// BulkResult summarizes a bulk insert.
type BulkResult struct {
	IDs    []string
	Failed []BulkFailure
}

// BulkFailure describes one rejected bulk item.
type BulkFailure struct {
	Position int
	ID       string
	Reason   string
}

// ClusterHealth is the engine cluster health summary.
type ClusterHealth struct {
	ClusterName   string
	Status        string // green, yellow, red
	NumberOfNodes int
	ActiveShards  int
}
