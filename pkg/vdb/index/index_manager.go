// SPDX-License-Identifier: Apache-2.0

package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/xataio/vdbgateway/internal/searchstore"
	loglib "github.com/xataio/vdbgateway/pkg/log"
)

// Manager creates indices on demand and makes writes visible to searches.
// Existing indices are never altered.
type Manager struct {
	client searchstore.Client
	logger loglib.Logger
}

type Option func(*Manager)

type EnsureResult struct {
	Created bool
}

func NewManager(client searchstore.Client, opts ...Option) *Manager {
	m := &Manager{
		client: client,
		logger: loglib.NewNoopLogger(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func WithLogger(l loglib.Logger) Option {
	return func(m *Manager) {
		m.logger = loglib.NewModuleLogger(l, "index_manager")
	}
}

// EnsureIndex creates the index with the mapping on input if it does not
// exist yet. The mapping of an existing index is not compared nor updated.
// Losing a creation race against a concurrent request counts as the index
// already existing.
func (m *Manager) EnsureIndex(ctx context.Context, indexName string, mapping Mapping) (EnsureResult, error) {
	exists, err := m.client.IndexExists(ctx, indexName)
	if err != nil {
		return EnsureResult{}, &IndexCreationError{Index: indexName, Cause: fmt.Errorf("checking index existence: %w", err)}
	}
	if exists {
		return EnsureResult{Created: false}, nil
	}

	body, err := mapping.Body(m.client.GetMapper())
	if err != nil {
		return EnsureResult{}, &IndexCreationError{Index: indexName, Cause: err}
	}

	if err := m.client.CreateIndex(ctx, indexName, body); err != nil {
		var alreadyExistsErr searchstore.ErrResourceAlreadyExists
		if errors.As(err, &alreadyExistsErr) {
			m.logger.Debug("index created concurrently", loglib.Fields{loglib.IndexField: indexName})
			return EnsureResult{Created: false}, nil
		}
		return EnsureResult{}, &IndexCreationError{Index: indexName, Cause: err}
	}

	m.logger.Info("index created", loglib.Fields{
		loglib.IndexField:       indexName,
		"text_embedding_dims":  mapping.Dimension(TextEmbeddingField),
		"image_embedding_dims": mapping.Dimension(ImageEmbeddingField),
	})

	return EnsureResult{Created: true}, nil
}

// RefreshIndex makes the documents written so far visible to searches.
func (m *Manager) RefreshIndex(ctx context.Context, indexName string) error {
	if err := m.client.RefreshIndex(ctx, indexName); err != nil {
		return &RefreshError{Index: indexName, Cause: err}
	}
	return nil
}
