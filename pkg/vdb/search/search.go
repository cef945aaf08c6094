// SPDX-License-Identifier: Apache-2.0

package search

import (
	"context"
	"encoding/json"

	loglib "github.com/xataio/vdbgateway/pkg/log"
	"github.com/xataio/vdbgateway/pkg/vdb/schema"
)

type documentSearcher interface {
	Search(ctx context.Context, indexName string, vector []float32) ([]json.RawMessage, error)
}

// Orchestrator runs k-NN searches and converts the engine hits into typed
// results.
type Orchestrator struct {
	documents documentSearcher
	logger    loglib.Logger
}

type Option func(*Orchestrator)

func New(documents documentSearcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		documents: documents,
		logger:    loglib.NewNoopLogger(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

func WithLogger(l loglib.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = loglib.NewModuleLogger(l, "search")
	}
}

// Search returns the nearest documents of the index to the vector on input,
// in engine order. It fails with a schema.ValidationError for an invalid
// index name or vector, a document.SearchExecutionError when the engine
// rejects or fails the query, and a schema.ResponseShapeError when the
// engine answer cannot be interpreted.
func (o *Orchestrator) Search(ctx context.Context, indexName string, sv *schema.SearchVector) (*schema.SearchResult, error) {
	if err := schema.ValidateIndexName(indexName); err != nil {
		return nil, err
	}
	if err := sv.Validate(); err != nil {
		return nil, err
	}

	hits, err := o.documents.Search(ctx, indexName, sv.Vector)
	if err != nil {
		return nil, err
	}

	result, err := schema.DecodeHits(hits)
	if err != nil {
		o.logger.Error(err, "decoding search hits", loglib.Fields{loglib.IndexField: indexName})
		return nil, err
	}

	return result, nil
}
