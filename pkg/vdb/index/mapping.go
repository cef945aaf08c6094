// SPDX-License-Identifier: Apache-2.0

package index

import (
	"fmt"

	"github.com/xataio/vdbgateway/internal/searchstore"
	"github.com/xataio/vdbgateway/pkg/vdb/schema"
)

const (
	TextEmbeddingField  = "text_embedding"
	ImageEmbeddingField = "image_embedding"
	IDField             = "id"

	DefaultTextAnalyzer = "standard"
)

// Mapping is the engine neutral description of an index fields. It is
// rendered into the engine dialect by Body.
type Mapping struct {
	Fields map[string]searchstore.Field
}

// DeriveMapping computes the mapping of a new index from the embedding
// lengths of its first item. An empty analyzer uses DefaultTextAnalyzer.
func DeriveMapping(item *schema.IngestItem, analyzer string) Mapping {
	if analyzer == "" {
		analyzer = DefaultTextAnalyzer
	}
	textDims, imageDims := item.Dimensions()

	text := searchstore.Field{
		SearchType: searchstore.TextType,
		Metadata:   searchstore.Metadata{Analyzer: analyzer},
	}

	return Mapping{
		Fields: map[string]searchstore.Field{
			IDField: {SearchType: searchstore.KeywordType},
			TextEmbeddingField: {
				SearchType: searchstore.VectorType,
				Metadata:   searchstore.Metadata{VectorDimension: textDims},
			},
			ImageEmbeddingField: {
				SearchType: searchstore.VectorType,
				Metadata:   searchstore.Metadata{VectorDimension: imageDims},
			},
			"headline":      text,
			"combined_text": text,
			"property":      text,
			"location":      text,
			"image":         {SearchType: searchstore.KeywordType},
		},
	}
}

// Dimension returns the vector dimension of the field, or 0 if the field is
// not a vector.
func (m Mapping) Dimension(field string) int {
	f, found := m.Fields[field]
	if !found || f.SearchType != searchstore.VectorType {
		return 0
	}
	return f.Metadata.VectorDimension
}

// Body renders the create index request body for the engine the mapper
// belongs to.
func (m Mapping) Body(mapper searchstore.Mapper) (map[string]any, error) {
	properties := make(map[string]any, len(m.Fields))
	for name, field := range m.Fields {
		fieldMapping, err := mapper.FieldMapping(&field)
		if err != nil {
			return nil, fmt.Errorf("mapping field %s of type %s: %w", name, field.SearchType, err)
		}
		properties[name] = fieldMapping
	}

	return map[string]any{
		"settings": mapper.GetDefaultIndexSettings(),
		"mappings": map[string]any{
			"properties": properties,
		},
	}, nil
}
