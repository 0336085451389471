// Package result normalizes engine responses into a flat list of source documents.
package result

import (
	"bytes"
	"encoding/json"
)

// Hit is one matched document with its search metadata.
type Hit struct {
	ID     string
	Score  float64
	Source json.RawMessage
}

var null = json.RawMessage("null")

// FromHits returns each hit's source document in hit order, one record per hit.
// A hit without a source (e.g. _source disabled) becomes a JSON null.
func FromHits(hits []Hit) []json.RawMessage {
	out := make([]json.RawMessage, len(hits))
	for i := range hits {
		if isEmpty(hits[i].Source) {
			out[i] = null
			continue
		}
		out[i] = hits[i].Source
	}
	return out
}

// FromDocument wraps a single document into a one-element list.
// An empty or null document yields an empty list.
func FromDocument(doc json.RawMessage) []json.RawMessage {
	if isEmpty(doc) {
		return []json.RawMessage{}
	}
	return []json.RawMessage{doc}
}

func isEmpty(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
