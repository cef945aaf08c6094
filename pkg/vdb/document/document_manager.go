// SPDX-License-Identifier: Apache-2.0

package document

import (
	"context"
	"encoding/json"
	"fmt"

	jsonlib "github.com/xataio/vdbgateway/internal/json"
	"github.com/xataio/vdbgateway/internal/searchstore"
	loglib "github.com/xataio/vdbgateway/pkg/log"
	"github.com/xataio/vdbgateway/pkg/vdb/schema"
)

// Manager runs the document writes and k-NN searches against the engine.
type Manager struct {
	client       searchstore.Client
	logger       loglib.Logger
	searchConfig Config
}

type Option func(*Manager)

// Ack confirms a single document write.
type Ack struct {
	Index string `json:"index"`
	ID    string `json:"id"`
}

type BulkResult struct {
	Succeeded int
	Failed    []BulkItemError
}

// sourceFields are the document fields returned with each search hit.
var sourceFields = []string{
	"id", "text_embedding", "image_embedding",
	"headline", "combined_text", "property", "location", "image",
}

func NewManager(client searchstore.Client, cfg *Config, opts ...Option) *Manager {
	m := &Manager{
		client:       client,
		logger:       loglib.NewNoopLogger(),
		searchConfig: cfg.withDefaults(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func WithLogger(l loglib.Logger) Option {
	return func(m *Manager) {
		m.logger = loglib.NewModuleLogger(l, "document_manager")
	}
}

// Insert writes the document under the given id, overwriting any previous
// version.
func (m *Manager) Insert(ctx context.Context, indexName, id string, doc *schema.Document) (Ack, error) {
	body, err := jsonlib.Marshal(doc)
	if err != nil {
		return Ack{}, &InsertError{Index: indexName, ID: id, Cause: err}
	}

	if err := m.client.IndexWithID(ctx, &searchstore.IndexWithIDRequest{
		Index: indexName,
		ID:    id,
		Body:  body,
	}); err != nil {
		return Ack{}, &InsertError{Index: indexName, ID: id, Cause: err}
	}

	return Ack{Index: indexName, ID: id}, nil
}

// BulkInsert writes all the items in a single request. Rejected items are
// reported in the result, the returned error is only set when the request
// as a whole failed.
func (m *Manager) BulkInsert(ctx context.Context, indexName string, items []schema.IngestItem) (*BulkResult, error) {
	if len(items) == 0 {
		return &BulkResult{Failed: []BulkItemError{}}, nil
	}

	bulkItems := make([]searchstore.BulkItem, 0, len(items))
	for i := range items {
		bulkItems = append(bulkItems, searchstore.BulkItem{
			Index: &searchstore.BulkIndex{Index: indexName, ID: items[i].ID},
			Doc:   items[i].Document(),
		})
	}

	failed, err := m.client.SendBulkRequest(ctx, bulkItems)
	if err != nil {
		return nil, fmt.Errorf("bulk insert into %s: %w", indexName, err)
	}

	result := &BulkResult{
		Succeeded: len(items) - len(failed),
		Failed:    make([]BulkItemError, 0, len(failed)),
	}
	for _, item := range failed {
		itemErr := BulkItemError{
			ID:     item.Index.ID,
			Status: item.Status,
			Reason: itemErrorReason(item.Error),
		}
		m.logger.Warn(itemErr, "document rejected by bulk insert", loglib.Fields{
			loglib.IndexField:    indexName,
			loglib.DocumentField: itemErr.ID,
		})
		result.Failed = append(result.Failed, itemErr)
	}

	return result, nil
}

// Search runs an approximate k-NN query on the configured vector field and
// returns the engine hits as they are.
func (m *Manager) Search(ctx context.Context, indexName string, vector []float32) ([]json.RawMessage, error) {
	query := m.client.GetMapper().KNNQuery(&searchstore.KNNRequest{
		Field:          m.searchConfig.VectorField,
		Vector:         vector,
		K:              m.searchConfig.K,
		NumCandidates:  m.searchConfig.NumCandidates,
		SourceIncludes: sourceFields,
	})

	reader, err := searchstore.CreateReader(query)
	if err != nil {
		return nil, &SearchExecutionError{Index: indexName, Cause: err}
	}

	resp, err := m.client.Search(ctx, &searchstore.SearchRequest{
		Index: &indexName,
		Query: reader,
	})
	if err != nil {
		return nil, &SearchExecutionError{Index: indexName, Cause: err}
	}

	m.logger.Debug("search completed", loglib.Fields{
		loglib.IndexField: indexName,
		"took_ms":         resp.Took,
		"hits":            len(resp.Hits.Hits),
	})

	return resp.Hits.Hits, nil
}
