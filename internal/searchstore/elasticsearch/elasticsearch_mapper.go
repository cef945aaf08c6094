// SPDX-License-Identifier: Apache-2.0

package elasticsearch

import (
	"github.com/xataio/vdbgateway/internal/searchstore"
)

type Mapper struct{}

const (
	// Lucene's term byte-length limit is 32766. UTF-8 characters may occupy
	// at most 4 bytes, hence 32766 / 4.
	termByteLengthLimit = 8191

	vectorSimilarity = "cosine"
)

func NewMapper() *Mapper {
	return &Mapper{}
}

func (m *Mapper) GetDefaultIndexSettings() map[string]any {
	return map[string]any{
		"number_of_shards":   1,
		"number_of_replicas": 1,
	}
}

func (m *Mapper) FieldMapping(field *searchstore.Field) (map[string]any, error) {
	switch field.SearchType {
	case searchstore.KeywordType:
		return map[string]any{
			"type":         "keyword",
			"ignore_above": termByteLengthLimit,
		}, nil
	case searchstore.TextType:
		mapping := map[string]any{"type": "text"}
		if field.Metadata.Analyzer != "" {
			mapping["analyzer"] = field.Metadata.Analyzer
		}
		return mapping, nil
	case searchstore.VectorType:
		return map[string]any{
			"type":       "dense_vector",
			"dims":       field.Metadata.VectorDimension,
			"index":      true,
			"similarity": vectorSimilarity,
		}, nil
	default:
		return nil, searchstore.ErrUnsupportedSearchFieldType
	}
}

// KNNQuery builds an approximate kNN search using the top level knn section.
func (m *Mapper) KNNQuery(req *searchstore.KNNRequest) *searchstore.QueryBody {
	return &searchstore.QueryBody{
		KNN: &searchstore.KNN{
			Field:         req.Field,
			QueryVector:   req.Vector,
			K:             req.K,
			NumCandidates: req.NumCandidates,
		},
		Size:   req.K,
		Source: req.SourceIncludes,
	}
}
