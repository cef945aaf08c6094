// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"

	"github.com/xataio/vdbgateway/pkg/vdb/ingest"
	"github.com/xataio/vdbgateway/pkg/vdb/schema"
)

type mockIngester struct {
	IngestFn func(ctx context.Context, batch *schema.IngestBatch) (*ingest.Result, error)
}

func (m *mockIngester) Ingest(ctx context.Context, batch *schema.IngestBatch) (*ingest.Result, error) {
	return m.IngestFn(ctx, batch)
}

func testConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			URL: "http://localhost:9200",
		},
	}
}
