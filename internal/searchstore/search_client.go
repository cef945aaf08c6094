// SPDX-License-Identifier: Apache-2.0

package searchstore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xataio/vdbgateway/internal/json"
)

// Client is the contract the gateway relies on to talk to the remote search
// engine. Every call is independent and safe for concurrent use.
type Client interface {
	Ping(ctx context.Context) error
	Count(ctx context.Context, index string) (int, error)
	// CreateIndex returns ErrNotAcknowledged when the engine answers without
	// acknowledging the creation.
	CreateIndex(ctx context.Context, index string, body map[string]any) error
	DeleteIndex(ctx context.Context, index []string) error
	GetIndexMappings(ctx context.Context, index string) (*Mappings, error)
	IndexWithID(ctx context.Context, req *IndexWithIDRequest) error
	IndexExists(ctx context.Context, index string) (bool, error)
	RefreshIndex(ctx context.Context, index string) error
	Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error)
	// SendBulkRequest returns the items that failed, with their status and
	// error set. A nil error with failed items means the request itself went
	// through.
	SendBulkRequest(ctx context.Context, items []BulkItem) ([]BulkItem, error)
	GetMapper() Mapper
}

func Ptr[T any](i T) *T { return &i }

// CreateReader returns a reader on the JSON representation of the given value.
func CreateReader(value any) (*bytes.Reader, error) {
	bytesValue, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("unexpected marshaling error: %w", err)
	}
	return bytes.NewReader(bytesValue), nil
}

// VerifyCreateIndexResponse checks the engine acknowledged the index
// creation.
func VerifyCreateIndexResponse(bodyBytes []byte) error {
	var response CreateIndexResponse
	if err := json.Unmarshal(bodyBytes, &response); err != nil {
		return fmt.Errorf("error unmarshaling create index response from search store: %w (%s)", err, bodyBytes)
	}
	if !response.Acknowledged {
		return ErrNotAcknowledged
	}
	return nil
}

// VerifyResponse matches the bulk response items with the request items
// (the engine keeps the request order) and returns the ones that failed.
func VerifyResponse(bodyBytes []byte, items []BulkItem) (failed []BulkItem, err error) {
	var response BulkResponse

	if err := json.Unmarshal(bodyBytes, &response); err != nil {
		return nil, fmt.Errorf("error unmarshaling response from search store: %w (%s)", err, bodyBytes)
	}

	if !response.Errors {
		return []BulkItem{}, nil
	}

	if len(response.Items) != len(items) {
		return nil, fmt.Errorf("bulk response has %d items, %d were sent", len(response.Items), len(items))
	}

	failed = []BulkItem{}
	for i, respItem := range response.Items {
		if respItem.Index.Status > 299 {
			items[i].Status = respItem.Index.Status
			items[i].Error = respItem.Index.Error
			failed = append(failed, items[i])
		}
	}

	return failed, nil
}
