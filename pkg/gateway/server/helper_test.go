// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"

	"github.com/xataio/vdbgateway/pkg/vdb/document"
	"github.com/xataio/vdbgateway/pkg/vdb/ingest"
	"github.com/xataio/vdbgateway/pkg/vdb/schema"
)

type mockIngester struct {
	IngestFn func(ctx context.Context, batch *schema.IngestBatch) (*ingest.Result, error)
	InsertFn func(ctx context.Context, item *schema.IngestItem) (document.Ack, error)
}

func (m *mockIngester) Ingest(ctx context.Context, batch *schema.IngestBatch) (*ingest.Result, error) {
	return m.IngestFn(ctx, batch)
}

func (m *mockIngester) Insert(ctx context.Context, item *schema.IngestItem) (document.Ack, error) {
	return m.InsertFn(ctx, item)
}

type mockSearcher struct {
	SearchFn func(ctx context.Context, indexName string, sv *schema.SearchVector) (*schema.SearchResult, error)
}

func (m *mockSearcher) Search(ctx context.Context, indexName string, sv *schema.SearchVector) (*schema.SearchResult, error) {
	return m.SearchFn(ctx, indexName, sv)
}

type mockPinger struct {
	PingFn func(ctx context.Context) error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.PingFn(ctx)
}
