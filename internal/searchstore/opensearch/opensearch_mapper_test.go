// SPDX-License-Identifier: Apache-2.0

package opensearch

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xataio/vdbgateway/internal/json"
	"github.com/xataio/vdbgateway/internal/searchstore"
)

func TestMapper_FieldMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		field *searchstore.Field

		wantMapping map[string]any
		wantErr     error
	}{
		{
			name: "vector",
			field: &searchstore.Field{
				SearchType: searchstore.VectorType,
				Metadata:   searchstore.Metadata{VectorDimension: 2},
			},
			wantMapping: map[string]any{
				"type":      "knn_vector",
				"dimension": 2,
				"method": map[string]any{
					"name":       "hnsw",
					"space_type": "cosinesimil",
					"engine":     "lucene",
				},
			},
		},
		{
			name:        "keyword",
			field:       &searchstore.Field{SearchType: searchstore.KeywordType},
			wantMapping: map[string]any{"type": "keyword", "ignore_above": termByteLengthLimit},
		},
		{
			name:        "text with default analyzer",
			field:       &searchstore.Field{SearchType: searchstore.TextType},
			wantMapping: map[string]any{"type": "text"},
		},
		{
			name:    "unsupported",
			field:   &searchstore.Field{SearchType: searchstore.Type(99)},
			wantErr: searchstore.ErrUnsupportedSearchFieldType,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mapping, err := NewMapper().FieldMapping(tc.field)
			require.ErrorIs(t, err, tc.wantErr)
			require.Equal(t, tc.wantMapping, mapping)
		})
	}
}

func TestMapper_KNNQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		k             int
		numCandidates int

		wantQuery string
	}{
		{
			name:          "candidate pool sent as ef_search",
			k:             10,
			numCandidates: 5000,
			wantQuery: `{
				"query": {"knn": {"text_embedding": {"vector": [0.25, 0.5], "k": 10, "method_parameters": {"ef_search": 5000}}}},
				"size": 10,
				"_source": ["id", "text_embedding"]
			}`,
		},
		{
			name:          "candidate pool raised to k",
			k:             10,
			numCandidates: 5,
			wantQuery: `{
				"query": {"knn": {"text_embedding": {"vector": [0.25, 0.5], "k": 10, "method_parameters": {"ef_search": 10}}}},
				"size": 10,
				"_source": ["id", "text_embedding"]
			}`,
		},
		{
			name: "no candidate pool uses the index default",
			k:    10,
			wantQuery: `{
				"query": {"knn": {"text_embedding": {"vector": [0.25, 0.5], "k": 10}}},
				"size": 10,
				"_source": ["id", "text_embedding"]
			}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			query := NewMapper().KNNQuery(&searchstore.KNNRequest{
				Field:          "text_embedding",
				Vector:         []float32{0.25, 0.5},
				K:              tc.k,
				NumCandidates:  tc.numCandidates,
				SourceIncludes: []string{"id", "text_embedding"},
			})

			body, err := json.Marshal(query)
			require.NoError(t, err)
			require.JSONEq(t, tc.wantQuery, string(body))
		})
	}
}
