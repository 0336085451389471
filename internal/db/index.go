package db

import (
	"errors"
	"strconv"
	"strings"
)

// FieldType enumerates supported mapping field types.
type FieldType string

const (
	// FieldText is an analyzed full-text field.
	FieldText FieldType = "text"
	// FieldKeyword is an exact-value field.
	FieldKeyword FieldType = "keyword"
	// FieldDate is a date field.
	FieldDate FieldType = "date"
	// FieldInteger is a 32-bit integer field.
	FieldInteger FieldType = "integer"
	// FieldFloat is a 32-bit float field.
	FieldFloat FieldType = "float"
)

// IndexField describes a single field in an index mapping.
type IndexField struct {
	Name string
	Type FieldType

	// Text options
	KeywordSubfield bool // adds a .keyword exact sub-field for term queries and aggregations

	// Date options
	DateFormat string
}

// IndexDefinition is a complete index definition used by indices.create.
type IndexDefinition struct {
	Name     string
	Shards   int
	Replicas int
	Fields   []IndexField
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIndexName(idx.Name) {
		return errors.New("index name must be lowercase and contain only [a-z0-9_-]")
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}
	if idx.Shards < 0 || idx.Replicas < 0 {
		return errors.New("shards and replicas must be non-negative")
	}

	seen := make(map[string]bool)
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return errors.New("field name is required at index " + strconv.Itoa(i))
		}
		if seen[f.Name] {
			return errors.New("duplicate field name: " + f.Name)
		}
		seen[f.Name] = true

		if f.KeywordSubfield && f.Type != FieldText {
			return errors.New("keyword sub-field requires a text field: " + f.Name)
		}
	}

	return nil
}

// Mapping renders the indices.create request body.
func (idx *IndexDefinition) Mapping() map[string]any {
	props := make(map[string]any, len(idx.Fields))
	for i := range idx.Fields {
		f := &idx.Fields[i]
		p := map[string]any{"type": string(f.Type)}
		if f.KeywordSubfield {
			p["fields"] = map[string]any{
				"keyword": map[string]any{"type": "keyword", "ignore_above": 256},
			}
		}
		if f.Type == FieldDate && f.DateFormat != "" {
			p["format"] = f.DateFormat
		}
		props[f.Name] = p
	}

	body := map[string]any{
		"mappings": map[string]any{"properties": props},
	}
	settings := map[string]any{}
	if idx.Shards > 0 {
		settings["number_of_shards"] = idx.Shards
	}
	if idx.Replicas > 0 {
		settings["number_of_replicas"] = idx.Replicas
	}
	if len(settings) > 0 {
		body["settings"] = settings
	}
	return body
}

// IsValidIndexName returns true if s matches [a-z0-9_-]+ and does not start with - or _.
func IsValidIndexName(s string) bool {
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "_") {
		return false
	}
	for _, r := range s {
		isLower := r >= 'a' && r <= 'z'
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == '-'
		if !isLower && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
