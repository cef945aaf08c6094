// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"

	"github.com/xataio/vdbgateway/internal/searchstore"
)

type Client struct {
	PingFn             func(ctx context.Context) error
	CountFn            func(ctx context.Context, index string) (int, error)
	CreateIndexFn      func(ctx context.Context, index string, body map[string]any) error
	DeleteIndexFn      func(ctx context.Context, index []string) error
	GetIndexMappingsFn func(ctx context.Context, index string) (*searchstore.Mappings, error)
	IndexWithIDFn      func(ctx context.Context, req *searchstore.IndexWithIDRequest) error
	IndexExistsFn      func(ctx context.Context, index string) (bool, error)
	RefreshIndexFn     func(ctx context.Context, index string) error
	SearchFn           func(ctx context.Context, req *searchstore.SearchRequest) (*searchstore.SearchResponse, error)
	SendBulkRequestFn  func(ctx context.Context, items []searchstore.BulkItem) ([]searchstore.BulkItem, error)
	GetMapperFn        func() searchstore.Mapper
}

func (m *Client) Ping(ctx context.Context) error {
	return m.PingFn(ctx)
}

func (m *Client) Count(ctx context.Context, index string) (int, error) {
	return m.CountFn(ctx, index)
}

func (m *Client) CreateIndex(ctx context.Context, index string, body map[string]any) error {
	return m.CreateIndexFn(ctx, index, body)
}

func (m *Client) DeleteIndex(ctx context.Context, index []string) error {
	return m.DeleteIndexFn(ctx, index)
}

func (m *Client) GetIndexMappings(ctx context.Context, index string) (*searchstore.Mappings, error) {
	return m.GetIndexMappingsFn(ctx, index)
}

func (m *Client) IndexWithID(ctx context.Context, req *searchstore.IndexWithIDRequest) error {
	return m.IndexWithIDFn(ctx, req)
}

func (m *Client) IndexExists(ctx context.Context, index string) (bool, error) {
	return m.IndexExistsFn(ctx, index)
}

func (m *Client) RefreshIndex(ctx context.Context, index string) error {
	return m.RefreshIndexFn(ctx, index)
}

func (m *Client) Search(ctx context.Context, req *searchstore.SearchRequest) (*searchstore.SearchResponse, error) {
	return m.SearchFn(ctx, req)
}

func (m *Client) SendBulkRequest(ctx context.Context, items []searchstore.BulkItem) ([]searchstore.BulkItem, error) {
	return m.SendBulkRequestFn(ctx, items)
}

func (m *Client) GetMapper() searchstore.Mapper {
	return m.GetMapperFn()
}
