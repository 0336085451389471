package db

import (
	"sort"
	"strings"
)

// IndexBuilder is a fluent builder for index definitions.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts building an index definition.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{
		def: IndexDefinition{Name: name},
	}
}

// Shards sets the primary shard count.
func (b *IndexBuilder) Shards(n int) *IndexBuilder {
	b.def.Shards = n
	return b
}

// Replicas sets the replica count.
func (b *IndexBuilder) Replicas(n int) *IndexBuilder {
	b.def.Replicas = n
	return b
}

// Text adds an analyzed text field.
func (b *IndexBuilder) Text(name string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{Name: name, Type: FieldText})
	return b
}

// TextWithKeyword adds a text field with an exact .keyword sub-field.
func (b *IndexBuilder) TextWithKeyword(name string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{Name: name, Type: FieldText, KeywordSubfield: true})
	return b
}

// Keyword adds an exact-value field.
func (b *IndexBuilder) Keyword(name string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{Name: name, Type: FieldKeyword})
	return b
}

// Date adds a date field with an optional format.
func (b *IndexBuilder) Date(name, format string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{Name: name, Type: FieldDate, DateFormat: format})
	return b
}

// Integer adds an integer field.
func (b *IndexBuilder) Integer(name string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{Name: name, Type: FieldInteger})
	return b
}

// Float adds a float field.
func (b *IndexBuilder) Float(name string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{Name: name, Type: FieldFloat})
	return b
}

// Build validates and returns the index definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	return &b.def, nil
}

// MustBuild calls Build and panics on error.
func (b *IndexBuilder) MustBuild() *IndexDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

// String returns a compact debug representation, e.g. "books{publisher:keyword title:text+kw}".
func (idx *IndexDefinition) String() string {
	parts := make([]string, 0, len(idx.Fields))
	for i := range idx.Fields {
		f := &idx.Fields[i]
		p := f.Name + ":" + string(f.Type)
		if f.KeywordSubfield {
			p += "+kw"
		}
		parts = append(parts, p)
	}
	sort.Strings(parts)
	return idx.Name + "{" + strings.Join(parts, " ") + "}"
}
