// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xataio/vdbgateway/internal/searchstore"
	"github.com/xataio/vdbgateway/internal/searchstore/mocks"
)

func TestStatusChecker_Status(t *testing.T) {
	t.Parallel()

	errTest := errors.New("oh noes")

	tests := []struct {
		name    string
		config  *Config
		indices []string
		client  *mocks.Client

		wantStatus *Status
		wantErrors StatusErrors
	}{
		{
			name:    "ok",
			config:  testConfig(),
			indices: []string{"listings", "missing"},
			client: &mocks.Client{
				PingFn: func(ctx context.Context) error { return nil },
				IndexExistsFn: func(ctx context.Context, index string) (bool, error) {
					return index == "listings", nil
				},
				CountFn: func(ctx context.Context, index string) (int, error) {
					require.Equal(t, "listings", index)
					return 42, nil
				},
			},
			wantStatus: &Status{
				Config: &ConfigStatus{Valid: true},
				Engine: &EngineStatus{Type: Elasticsearch, URL: "http://localhost:9200", Reachable: true},
				Indices: []*IndexStatus{
					{Name: "listings", Exists: true, DocumentCount: 42},
					{Name: "missing", Exists: false},
				},
			},
			wantErrors: StatusErrors{},
		},
		{
			name:   "invalid config",
			config: &Config{},
			client: &mocks.Client{
				PingFn: func(ctx context.Context) error { return errors.New("PingFn: should not be called") },
			},
			wantStatus: &Status{
				Config: &ConfigStatus{Valid: false, Errors: []string{errMissingEngineURL.Error()}},
				Engine: &EngineStatus{Type: Elasticsearch, Errors: []string{"engine not checked, invalid configuration"}},
			},
			wantErrors: StatusErrors{
				"config": []string{errMissingEngineURL.Error()},
				"engine": []string{"engine not checked, invalid configuration"},
			},
		},
		{
			name:    "engine not reachable",
			config:  testConfig(),
			indices: []string{"listings"},
			client: &mocks.Client{
				PingFn: func(ctx context.Context) error { return errTest },
			},
			wantStatus: &Status{
				Config: &ConfigStatus{Valid: true},
				Engine: &EngineStatus{
					Type:   Elasticsearch,
					URL:    "http://localhost:9200",
					Errors: []string{"search engine not reachable: oh noes"},
				},
			},
			wantErrors: StatusErrors{
				"engine": []string{"search engine not reachable: oh noes"},
			},
		},
		{
			name:    "index errors",
			config:  testConfig(),
			indices: []string{"Invalid", "listings"},
			client: &mocks.Client{
				PingFn: func(ctx context.Context) error { return nil },
				IndexExistsFn: func(ctx context.Context, index string) (bool, error) {
					return true, nil
				},
				CountFn: func(ctx context.Context, index string) (int, error) {
					return 0, errTest
				},
			},
			wantStatus: &Status{
				Config: &ConfigStatus{Valid: true},
				Engine: &EngineStatus{Type: Elasticsearch, URL: "http://localhost:9200", Reachable: true},
				Indices: []*IndexStatus{
					{Name: "Invalid", Errors: []string{"validation failed: index_name: must be lowercase"}},
					{Name: "listings", Exists: true, Errors: []string{"counting documents: oh noes"}},
				},
			},
			wantErrors: StatusErrors{
				"index Invalid":  []string{"validation failed: index_name: must be lowercase"},
				"index listings": []string{"counting documents: oh noes"},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			checker := &StatusChecker{
				clientBuilder: func(*EngineConfig) (searchstore.Client, error) {
					return tc.client, nil
				},
			}

			status, err := checker.Status(context.Background(), tc.config, tc.indices)
			require.NoError(t, err)
			require.Equal(t, tc.wantStatus, status)
			require.Equal(t, tc.wantErrors, status.GetErrors())
		})
	}
}

func TestStatus_PrettyPrint(t *testing.T) {
	t.Parallel()

	status := &Status{
		Config: &ConfigStatus{Valid: true},
		Engine: &EngineStatus{Type: OpenSearch, URL: "http://localhost:9200", Reachable: true},
		Indices: []*IndexStatus{
			{Name: "listings", Exists: true, DocumentCount: 3},
			{Name: "missing"},
		},
	}

	want := `Config status:
 - Valid: true
Engine status:
 - Type: opensearch
 - URL: http://localhost:9200
 - Reachable: true
Index listings status:
 - Exists: true
 - Documents: 3
Index missing status:
 - Exists: false`

	require.Equal(t, want, status.PrettyPrint())
}

func TestStatusErrors_Keys(t *testing.T) {
	t.Parallel()

	errs := StatusErrors{
		"index listings": []string{"oh noes"},
		"engine":         []string{"oh noes"},
		"config":         []string{"oh noes"},
	}
	require.Equal(t, []string{"config", "engine", "index listings"}, errs.Keys())
	require.Empty(t, StatusErrors{}.Keys())
}
