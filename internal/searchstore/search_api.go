// SPDX-License-Identifier: Apache-2.0

package searchstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	jsonlib "github.com/xataio/vdbgateway/internal/json"
)

type SearchRequest struct {
	Index *string
	Size  *int
	Query io.Reader
}

type IndexWithIDRequest struct {
	Index string
	ID    string
	Body  []byte
}

type BulkItem struct {
	Index  *BulkIndex      `json:"index,omitempty"`
	Doc    any             `json:"-"`
	Status int             `json:"-"`
	Error  json.RawMessage `json:"-"`
}

type BulkIndex struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

type BulkResponseItem struct {
	Index struct {
		ID     string          `json:"_id"`
		Status int             `json:"status"`
		Error  json.RawMessage `json:"error"`
	} `json:"index"`
}

// QueryBody is the search request body. KNN is the Elasticsearch top level
// approximate kNN section, Query.KNN the OpenSearch k-NN query clause; each
// engine mapper fills in the one its engine understands.
type QueryBody struct {
	KNN    *KNN     `json:"knn,omitempty"`
	Query  *Query   `json:"query,omitempty"`
	Size   int      `json:"size,omitempty"`
	Source []string `json:"_source,omitempty"`
}

type KNN struct {
	Field         string    `json:"field"`
	QueryVector   []float32 `json:"query_vector"`
	K             int       `json:"k"`
	NumCandidates int       `json:"num_candidates"`
}

type Query struct {
	KNN map[string]KNNQuery `json:"knn,omitempty"`
}

type KNNQuery struct {
	Vector           []float32            `json:"vector"`
	K                int                  `json:"k"`
	MethodParameters *KNNMethodParameters `json:"method_parameters,omitempty"`
}

// KNNMethodParameters tune the approximate search per query.
type KNNMethodParameters struct {
	EFSearch int `json:"ef_search"`
}

// Hits keeps every hit as the raw engine record. Interpreting the reserved
// `_index`, `_id`, `_score` and `_source` keys is left to the caller.
type Hits struct {
	Total struct {
		Value    int    `json:"value"`
		Relation string `json:"relation"`
	} `json:"total"`
	MaxScore *float64          `json:"max_score"`
	Hits     []json.RawMessage `json:"hits"`
}

type SearchResponse struct {
	Took     int  `json:"took"`
	TimedOut bool `json:"timed_out"`
	Hits     Hits `json:"hits"`
}

type BulkResponse struct {
	Errors bool               `json:"errors"`
	Items  []BulkResponseItem `json:"items"`
}

type CreateIndexResponse struct {
	Acknowledged       bool   `json:"acknowledged"`
	ShardsAcknowledged bool   `json:"shards_acknowledged"`
	Index              string `json:"index"`
}

type Mappings struct {
	Properties map[string]any `json:"properties"`
	Dynamic    string         `json:"dynamic"`
}

type MappingResponse map[string]struct {
	Mappings Mappings `json:"mappings"`
}

type CountResponse struct {
	Count int `json:"count"`
}

// EncodeBulkItems writes the items on input as a bulk NDJSON body: one
// action line followed by one document line per item.
func EncodeBulkItems(buffer *bytes.Buffer, items []BulkItem) error {
	encoder := jsonlib.NewEncoder(buffer)

	for _, item := range items {
		if err := encoder.Encode(item); err != nil {
			return fmt.Errorf("bulk item [%v]: encode item action %w", item.Index, err)
		}

		if item.Doc == nil {
			buffer.WriteString("{}\n")
			continue
		}

		if err := encoder.Encode(item.Doc); err != nil {
			return fmt.Errorf("bulk item [%v]: encode item document action %w", item.Index, err)
		}
	}

	return nil
}
