// SPDX-License-Identifier: Apache-2.0

package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/xataio/vdbgateway/internal/searchstore"
	"github.com/xataio/vdbgateway/pkg/log"
	"github.com/xataio/vdbgateway/pkg/vdb/document"
	"github.com/xataio/vdbgateway/pkg/vdb/index"
	"github.com/xataio/vdbgateway/pkg/vdb/ingest"
	"github.com/xataio/vdbgateway/pkg/vdb/schema"
)

const testItemPayload = `{"id":"a1","text_embedding":[0.5,1],"image_embedding":[1,0.5],"index_name":"listings"}`

func newTestEchoContext(method, path, payload string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.JSONSerializer = jsonSerializer{}
	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	req.Header.Add(echo.HeaderContentType, echo.MIMEApplicationJSON)
	w := httptest.NewRecorder()
	return e.NewContext(req, w), w
}

func TestServer_ingest(t *testing.T) {
	t.Parallel()

	errTest := errors.New("oh noes")

	tests := []struct {
		name     string
		ingester *mockIngester
		payload  string

		wantStatusCode int
		wantBody       string
	}{
		{
			name: "ok",
			ingester: &mockIngester{
				IngestFn: func(ctx context.Context, batch *schema.IngestBatch) (*ingest.Result, error) {
					require.Len(t, batch.Items, 1)
					require.Equal(t, "a1", batch.Items[0].ID)
					return &ingest.Result{
						Status:        ingest.StatusSuccess,
						AcceptedCount: 1,
						TotalCount:    1,
						Groups:        []ingest.GroupResult{{Index: "listings", Total: 1, Accepted: 1}},
					}, nil
				},
			},
			payload:        `{"items":[` + testItemPayload + `]}`,
			wantStatusCode: http.StatusOK,
			wantBody:       `{"status":"success","accepted_count":1,"total_count":1,"message":"1 items ingested successfully."}`,
		},
		{
			name: "ok - partial",
			ingester: &mockIngester{
				IngestFn: func(ctx context.Context, batch *schema.IngestBatch) (*ingest.Result, error) {
					return &ingest.Result{
						Status:        ingest.StatusPartial,
						AcceptedCount: 1,
						TotalCount:    2,
						Groups: []ingest.GroupResult{
							{Index: "listings", Total: 1, Accepted: 1, Warning: errTest},
							{Index: "broken", Total: 1, Err: &index.IndexCreationError{Index: "broken", Cause: errTest}},
						},
					}, nil
				},
			},
			payload:        `{"items":[` + testItemPayload + `]}`,
			wantStatusCode: http.StatusMultiStatus,
			wantBody: `{
				"status":"partial",
				"accepted_count":1,
				"total_count":2,
				"message":"1 of 2 items ingested.",
				"per_group_errors":{"broken":"creating index broken: oh noes"},
				"warnings":["oh noes"],
				"error":"index broken: creating index broken: oh noes"
			}`,
		},
		{
			name: "ok - failed",
			ingester: &mockIngester{
				IngestFn: func(ctx context.Context, batch *schema.IngestBatch) (*ingest.Result, error) {
					return &ingest.Result{
						Status:     ingest.StatusFailed,
						TotalCount: 1,
						Groups: []ingest.GroupResult{
							{Index: "listings", Total: 1, Failed: []document.BulkItemError{{ID: "a1", Status: 400, Reason: "mapper_parsing_exception: bad"}}},
						},
					}, nil
				},
			},
			payload:        `{"items":[` + testItemPayload + `]}`,
			wantStatusCode: http.StatusInternalServerError,
			wantBody: `{
				"status":"failed",
				"accepted_count":0,
				"total_count":1,
				"message":"none of the 1 items could be ingested.",
				"failed_items":[{"id":"a1","status":400,"reason":"mapper_parsing_exception: bad"}],
				"error":"index listings: document a1: [400] mapper_parsing_exception: bad"
			}`,
		},
		{
			name: "error - invalid payload",
			ingester: &mockIngester{
				IngestFn: func(ctx context.Context, batch *schema.IngestBatch) (*ingest.Result, error) {
					return nil, errors.New("IngestFn: should not be called")
				},
			},
			payload:        `{"items":[]}`,
			wantStatusCode: http.StatusBadRequest,
			wantBody:       `{"error":"validation failed: items: must contain at least one item","fields":[{"field":"items","message":"must contain at least one item"}]}`,
		},
		{
			name: "error - not json",
			ingester: &mockIngester{
				IngestFn: func(ctx context.Context, batch *schema.IngestBatch) (*ingest.Result, error) {
					return nil, errors.New("IngestFn: should not be called")
				},
			},
			payload:        "not a batch",
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := &Server{
				logger:   log.NewNoopLogger(),
				ingester: tc.ingester,
			}

			echoCtx, w := newTestEchoContext(http.MethodPost, "/ingest", tc.payload)
			require.NoError(t, server.ingest(echoCtx))
			require.Equal(t, tc.wantStatusCode, w.Result().StatusCode)
			if tc.wantBody != "" {
				require.JSONEq(t, tc.wantBody, w.Body.String())
			}
		})
	}
}

func TestServer_search(t *testing.T) {
	t.Parallel()

	testResult := &schema.SearchResult{Hits: []schema.SearchHit{
		{
			SourceIndex:    "listings",
			DocumentID:     "a1",
			RelevanceScore: 1,
			Document:       schema.Document{ID: "a1", TextEmbedding: []float32{0.5, 1}},
		},
	}}

	tests := []struct {
		name      string
		indexName string
		payload   string
		searchErr error

		wantStatusCode int
		wantBody       string
	}{
		{
			name:           "ok",
			indexName:      "listings",
			payload:        `{"search_vector":[0.5,1]}`,
			wantStatusCode: http.StatusOK,
			wantBody: `{"hits":[{
				"source_index":"listings",
				"document_id":"a1",
				"relevance_score":1,
				"document":{"id":"a1","text_embedding":[0.5,1]}
			}]}`,
		},
		{
			name:           "ok - default index",
			payload:        `{"search_vector":[0.5,1]}`,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "error - invalid payload",
			indexName:      "listings",
			payload:        `{"search_vector":["a"]}`,
			wantStatusCode: http.StatusBadRequest,
			wantBody:       `{"error":"validation failed: search_vector.0: expected number, got string","fields":[{"field":"search_vector.0","message":"expected number, got string"}]}`,
		},
		{
			name:           "error - dimension mismatch",
			indexName:      "listings",
			payload:        `{"search_vector":[0.5,1,1]}`,
			searchErr:      &document.SearchExecutionError{Index: "listings", Cause: &searchstore.ErrIllegalArgument{Reason: "dimension mismatch"}},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "error - unknown index",
			indexName:      "missing",
			payload:        `{"search_vector":[0.5,1]}`,
			searchErr:      &document.SearchExecutionError{Index: "missing", Cause: searchstore.ErrResourceNotFound},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "error - response shape",
			indexName:      "listings",
			payload:        `{"search_vector":[0.5,1]}`,
			searchErr:      &schema.ResponseShapeError{Hit: 0, Field: "_id", Reason: "required field missing"},
			wantStatusCode: http.StatusBadGateway,
		},
		{
			name:           "error - engine failure",
			indexName:      "listings",
			payload:        `{"search_vector":[0.5,1]}`,
			searchErr:      &document.SearchExecutionError{Index: "listings", Cause: searchstore.RetryableError{Cause: errors.New("[503]: unavailable")}},
			wantStatusCode: http.StatusServiceUnavailable,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			wantIndex := tc.indexName
			if wantIndex == "" {
				wantIndex = "immo"
			}

			server := &Server{
				logger:       log.NewNoopLogger(),
				defaultIndex: "immo",
				searcher: &mockSearcher{
					SearchFn: func(ctx context.Context, indexName string, sv *schema.SearchVector) (*schema.SearchResult, error) {
						require.Equal(t, wantIndex, indexName)
						if tc.searchErr != nil {
							return nil, tc.searchErr
						}
						return testResult, nil
					},
				},
			}

			echoCtx, w := newTestEchoContext(http.MethodPost, "/search", tc.payload)
			if tc.indexName != "" {
				echoCtx.SetParamNames("index_name")
				echoCtx.SetParamValues(tc.indexName)
			}

			require.NoError(t, server.search(echoCtx))
			require.Equal(t, tc.wantStatusCode, w.Result().StatusCode)
			if tc.wantBody != "" {
				require.JSONEq(t, tc.wantBody, w.Body.String())
			}
		})
	}
}

func TestServer_putDocument(t *testing.T) {
	t.Parallel()

	errTest := errors.New("oh noes")

	tests := []struct {
		name     string
		payload  string
		insertFn func(ctx context.Context, item *schema.IngestItem) (document.Ack, error)

		wantStatusCode int
		wantBody       string
	}{
		{
			name:    "ok",
			payload: `{"text_embedding":[0.5,1],"image_embedding":[1,0.5],"headline":"flat"}`,
			insertFn: func(ctx context.Context, item *schema.IngestItem) (document.Ack, error) {
				require.Equal(t, "a1", item.ID)
				require.Equal(t, "listings", item.IndexName)
				require.Equal(t, "flat", item.Headline)
				return document.Ack{Index: item.IndexName, ID: item.ID}, nil
			},
			wantStatusCode: http.StatusOK,
			wantBody:       `{"index":"listings","id":"a1"}`,
		},
		{
			name:    "ok - path overrides body",
			payload: `{"id":"b2","index_name":"other","text_embedding":[0.5,1],"image_embedding":[1,0.5]}`,
			insertFn: func(ctx context.Context, item *schema.IngestItem) (document.Ack, error) {
				require.Equal(t, "a1", item.ID)
				require.Equal(t, "listings", item.IndexName)
				return document.Ack{Index: item.IndexName, ID: item.ID}, nil
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:    "error - invalid payload",
			payload: `{"text_embedding":[],"image_embedding":[1]}`,
			insertFn: func(ctx context.Context, item *schema.IngestItem) (document.Ack, error) {
				return document.Ack{}, errors.New("InsertFn: should not be called")
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:    "error - not json",
			payload: `[1,2]`,
			insertFn: func(ctx context.Context, item *schema.IngestItem) (document.Ack, error) {
				return document.Ack{}, errors.New("InsertFn: should not be called")
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:    "error - inserting document",
			payload: `{"text_embedding":[0.5,1],"image_embedding":[1,0.5]}`,
			insertFn: func(ctx context.Context, item *schema.IngestItem) (document.Ack, error) {
				return document.Ack{}, &document.InsertError{Index: item.IndexName, ID: item.ID, Cause: errTest}
			},
			wantStatusCode: http.StatusServiceUnavailable,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := &Server{
				logger:   log.NewNoopLogger(),
				ingester: &mockIngester{InsertFn: tc.insertFn},
			}

			echoCtx, w := newTestEchoContext(http.MethodPut, "/documents/listings/a1", tc.payload)
			echoCtx.SetParamNames("index_name", "id")
			echoCtx.SetParamValues("listings", "a1")

			require.NoError(t, server.putDocument(echoCtx))
			require.Equal(t, tc.wantStatusCode, w.Result().StatusCode)
			if tc.wantBody != "" {
				require.JSONEq(t, tc.wantBody, w.Body.String())
			}
		})
	}
}

func TestServer_health(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pingErr error

		wantStatusCode int
		wantBody       string
	}{
		{
			name:           "ok",
			wantStatusCode: http.StatusOK,
			wantBody:       `{"status":"ok"}`,
		},
		{
			name:           "error - engine unreachable",
			pingErr:        errors.New("connection refused"),
			wantStatusCode: http.StatusServiceUnavailable,
			wantBody:       `{"status":"unavailable","error":"connection refused"}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := &Server{
				logger: log.NewNoopLogger(),
				engine: &mockPinger{
					PingFn: func(ctx context.Context) error { return tc.pingErr },
				},
			}

			echoCtx, w := newTestEchoContext(http.MethodGet, "/health", "")
			require.NoError(t, server.health(echoCtx))
			require.Equal(t, tc.wantStatusCode, w.Result().StatusCode)
			require.JSONEq(t, tc.wantBody, w.Body.String())
		})
	}
}

func TestServer_routes(t *testing.T) {
	t.Parallel()

	searchedIndex := make(chan string, 1)
	newServer := func(cfg *Config) *echo.Echo {
		s := New(cfg,
			&mockIngester{},
			&mockSearcher{
				SearchFn: func(ctx context.Context, indexName string, sv *schema.SearchVector) (*schema.SearchResult, error) {
					searchedIndex <- indexName
					return &schema.SearchResult{Hits: []schema.SearchHit{}}, nil
				},
			},
			&mockPinger{PingFn: func(ctx context.Context) error { return nil }},
		)
		e, ok := s.server.(*echo.Echo)
		require.True(t, ok)
		return e
	}

	tests := []struct {
		name    string
		cfg     *Config
		method  string
		path    string
		payload io.Reader
		headers map[string]string

		wantStatusCode int
		wantIndex      string
		wantHeaders    map[string]string
	}{
		{
			name:           "search on default index",
			cfg:            &Config{},
			method:         http.MethodPost,
			path:           "/search",
			payload:        strings.NewReader(`{"search_vector":[1]}`),
			wantStatusCode: http.StatusOK,
			wantIndex:      "immo",
		},
		{
			name:           "search on configured default index",
			cfg:            &Config{DefaultIndex: "listings"},
			method:         http.MethodPost,
			path:           "/search/",
			payload:        strings.NewReader(`{"search_vector":[1]}`),
			wantStatusCode: http.StatusOK,
			wantIndex:      "listings",
		},
		{
			name:           "search on named index",
			cfg:            &Config{},
			method:         http.MethodPost,
			path:           "/search/listings",
			payload:        strings.NewReader(`{"search_vector":[1]}`),
			wantStatusCode: http.StatusOK,
			wantIndex:      "listings",
		},
		{
			name:           "method not allowed",
			cfg:            &Config{},
			method:         http.MethodGet,
			path:           "/ingest",
			wantStatusCode: http.StatusMethodNotAllowed,
		},
		{
			name:           "body too large",
			cfg:            &Config{BodyLimit: "1K"},
			method:         http.MethodPost,
			path:           "/search/listings",
			payload:        bytes.NewReader(bytes.Repeat([]byte("1"), 2048)),
			wantStatusCode: http.StatusRequestEntityTooLarge,
		},
		{
			name:    "cors preflight from allowed origin",
			cfg:     &Config{},
			method:  http.MethodOptions,
			path:    "/search/listings",
			headers: map[string]string{echo.HeaderOrigin: "http://localhost:8000", echo.HeaderAccessControlRequestMethod: http.MethodPost},
			wantHeaders: map[string]string{
				echo.HeaderAccessControlAllowOrigin:      "http://localhost:8000",
				echo.HeaderAccessControlAllowCredentials: "true",
			},
			wantStatusCode: http.StatusNoContent,
		},
		{
			name:    "cors preflight from unknown origin",
			cfg:     &Config{},
			method:  http.MethodOptions,
			path:    "/search/listings",
			headers: map[string]string{echo.HeaderOrigin: "http://example.com", echo.HeaderAccessControlRequestMethod: http.MethodPost},
			wantHeaders: map[string]string{
				echo.HeaderAccessControlAllowOrigin:      "",
				echo.HeaderAccessControlAllowCredentials: "",
			},
			wantStatusCode: http.StatusNoContent,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// routes share the searched index channel
			e := newServer(tc.cfg)

			payload := tc.payload
			if payload == nil {
				payload = http.NoBody
			}
			req := httptest.NewRequest(tc.method, tc.path, payload)
			req.Header.Add(echo.HeaderContentType, echo.MIMEApplicationJSON)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()

			e.ServeHTTP(w, req)
			require.Equal(t, tc.wantStatusCode, w.Result().StatusCode)
			require.NotEmpty(t, w.Header().Get(echo.HeaderXRequestID))
			for k, v := range tc.wantHeaders {
				require.Equal(t, v, w.Header().Get(k))
			}
			if tc.wantIndex != "" {
				require.Equal(t, tc.wantIndex, <-searchedIndex)
			}
		})
	}
}
