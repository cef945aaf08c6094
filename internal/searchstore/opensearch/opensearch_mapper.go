// SPDX-License-Identifier: Apache-2.0

package opensearch

import (
	"github.com/xataio/vdbgateway/internal/searchstore"
)

type Mapper struct{}

const (
	// index wide ef_search, used when a query sets no candidate pool
	openSearchDefaultEFSearch = 100

	// Lucene's term byte-length limit is 32766. UTF-8 characters may occupy
	// at most 4 bytes, hence 32766 / 4.
	termByteLengthLimit = 8191

	vectorSpaceType = "cosinesimil"
	vectorEngine    = "lucene"
)

func NewMapper() *Mapper {
	return &Mapper{}
}

func (m *Mapper) GetDefaultIndexSettings() map[string]any {
	return map[string]any{
		"number_of_shards":         1,
		"number_of_replicas":       1,
		"index.knn":                true,
		"knn.algo_param.ef_search": openSearchDefaultEFSearch,
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
			"type":      "knn_vector",
			"dimension": field.Metadata.VectorDimension,
			"method": map[string]any{
				"name":       "hnsw",
				"space_type": vectorSpaceType,
				"engine":     vectorEngine,
			},
		}, nil
	default:
		return nil, searchstore.ErrUnsupportedSearchFieldType
	}
}

// KNNQuery builds a k-NN query clause. The candidate pool is sent as the
// ef_search method parameter, never below k, and overrides the index default.
func (m *Mapper) KNNQuery(req *searchstore.KNNRequest) *searchstore.QueryBody {
	query := searchstore.KNNQuery{
		Vector: req.Vector,
		K:      req.K,
	}
	if req.NumCandidates > 0 {
		query.MethodParameters = &searchstore.KNNMethodParameters{
			EFSearch: max(req.NumCandidates, req.K),
		}
	}

	return &searchstore.QueryBody{
		Query: &searchstore.Query{
			KNN: map[string]searchstore.KNNQuery{req.Field: query},
		},
		Size:   req.K,
		Source: req.SourceIncludes,
	}
}
