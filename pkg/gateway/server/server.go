// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/xid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	httplib "github.com/xataio/vdbgateway/internal/http"
	loglib "github.com/xataio/vdbgateway/pkg/log"
	"github.com/xataio/vdbgateway/pkg/vdb/document"
	"github.com/xataio/vdbgateway/pkg/vdb/ingest"
	"github.com/xataio/vdbgateway/pkg/vdb/schema"
)

type ingester interface {
	Ingest(ctx context.Context, batch *schema.IngestBatch) (*ingest.Result, error)
	Insert(ctx context.Context, item *schema.IngestItem) (document.Ack, error)
}

type searcher interface {
	Search(ctx context.Context, indexName string, sv *schema.SearchVector) (*schema.SearchResult, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the ingestion and search operations over HTTP.
type Server struct {
	server       httplib.Server
	logger       loglib.Logger
	ingester     ingester
	searcher     searcher
	engine       pinger
	address      string
	defaultIndex string
}

type Option func(*Server)

type ingestResponse struct {
	Status         ingest.Status            `json:"status"`
	AcceptedCount  int                      `json:"accepted_count"`
	TotalCount     int                      `json:"total_count"`
	Message        string                   `json:"message"`
	PerGroupErrors map[string]string        `json:"per_group_errors,omitempty"`
	FailedItems    []document.BulkItemError `json:"failed_items,omitempty"`
	Warnings       []string                 `json:"warnings,omitempty"`
	Error          string                   `json:"error,omitempty"`
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func New(cfg *Config, ingester ingester, searcher searcher, engine pinger, opts ...Option) *Server {
	s := &Server{
		address:      cfg.address(),
		defaultIndex: cfg.DefaultIndexName(),
		ingester:     ingester,
		searcher:     searcher,
		engine:       engine,
		logger:       loglib.NewNoopLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.server = s.newEcho(cfg)

	return s
}

func WithLogger(l loglib.Logger) Option {
	return func(s *Server) {
		s.logger = loglib.NewModuleLogger(l, "gateway_server")
	}
}

func (s *Server) newEcho(cfg *Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsonSerializer{}
	e.Server.ReadTimeout = cfg.readTimeout()
	e.Server.WriteTimeout = cfg.writeTimeout()

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return xid.New().String() },
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:     true,
		LogURI:        true,
		LogStatus:     true,
		LogLatency:    true,
		LogRequestID:  true,
		LogError:      true,
		HandleError:   true,
		LogValuesFunc: s.logRequest,
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(cfg.bodyLimit()))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.corsAllowedOrigins(),
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		AllowCredentials: true,
	}))

	e.POST("/ingest", s.ingest)
	e.POST("/ingest/", s.ingest)
	e.POST("/search", s.search)
	e.POST("/search/", s.search)
	e.POST("/search/:index_name", s.search)
	e.PUT("/documents/:index_name/:id", s.putDocument)
	e.GET("/health", s.health)

	return e
}

// Start will start the gateway server. This call is blocking.
func (s *Server) Start() error {
	s.logger.Info(fmt.Sprintf("gateway server listening on: %s...", s.address))
	return s.server.Start(s.address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) ingest(c echo.Context) error {
	s.logger.Trace("request received on /ingest endpoint")

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return s.errorResponse(c, echo.NewHTTPError(http.StatusBadRequest, "reading request body").SetInternal(err))
	}

	batch, err := schema.ParseIngestBatch(payload)
	if err != nil {
		return s.errorResponse(c, err)
	}

	result, err := s.ingester.Ingest(c.Request().Context(), batch)
	if err != nil {
		return s.errorResponse(c, err)
	}

	response := ingestResponse{
		Status:         result.Status,
		AcceptedCount:  result.AcceptedCount,
		TotalCount:     result.TotalCount,
		Message:        result.Message(),
		PerGroupErrors: result.GroupErrors(),
		FailedItems:    result.FailedItems(),
		Warnings:       result.Warnings(),
	}
	if err := result.Err(); err != nil {
		response.Error = err.Error()
		s.logger.Warn(err, "batch not fully ingested", loglib.Fields{
			loglib.RequestIDField: requestID(c),
			"status":              string(result.Status),
		})
	}

	return c.JSON(ingestStatusCode(result.Status), response)
}

func (s *Server) search(c echo.Context) error {
	indexName := c.Param("index_name")
	if indexName == "" {
		indexName = s.defaultIndex
	}

	s.logger.Trace("request received on /search endpoint", loglib.Fields{loglib.IndexField: indexName})

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return s.errorResponse(c, echo.NewHTTPError(http.StatusBadRequest, "reading request body").SetInternal(err))
	}

	sv, err := schema.ParseSearchVector(payload)
	if err != nil {
		return s.errorResponse(c, err)
	}

	result, err := s.searcher.Search(c.Request().Context(), indexName, sv)
	if err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

func (s *Server) putDocument(c echo.Context) error {
	indexName := c.Param("index_name")
	id := c.Param("id")

	s.logger.Trace("request received on /documents endpoint", loglib.Fields{
		loglib.IndexField:    indexName,
		loglib.DocumentField: id,
	})

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return s.errorResponse(c, echo.NewHTTPError(http.StatusBadRequest, "reading request body").SetInternal(err))
	}

	// the path names the document, overriding the body when both do
	if gjson.ValidBytes(payload) && gjson.ParseBytes(payload).IsObject() {
		if payload, err = sjson.SetBytes(payload, "id", id); err != nil {
			return s.errorResponse(c, echo.NewHTTPError(http.StatusBadRequest, err.Error()))
		}
		if payload, err = sjson.SetBytes(payload, "index_name", indexName); err != nil {
			return s.errorResponse(c, echo.NewHTTPError(http.StatusBadRequest, err.Error()))
		}
	}

	item, err := schema.ParseIngestItem(payload)
	if err != nil {
		return s.errorResponse(c, err)
	}

	ack, err := s.ingester.Insert(c.Request().Context(), item)
	if err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, ack)
}

func (s *Server) health(c echo.Context) error {
	if err := s.engine.Ping(c.Request().Context()); err != nil {
		s.logger.Warn(err, "search engine unreachable")
		return c.JSON(http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Error: err.Error()})
	}
	return c.JSON(http.StatusOK, healthResponse{Status: "ok"})
}

func (s *Server) logRequest(c echo.Context, v middleware.RequestLoggerValues) error {
	fields := loglib.Fields{
		"method":              v.Method,
		"uri":                 v.URI,
		"status":              v.Status,
		"latency_ms":          v.Latency.Milliseconds(),
		loglib.RequestIDField: v.RequestID,
	}
	if v.Error != nil {
		s.logger.Warn(v.Error, "request served", fields)
		return nil
	}
	s.logger.Debug("request served", fields)
	return nil
}

func ingestStatusCode(status ingest.Status) int {
	switch status {
	case ingest.StatusSuccess:
		return http.StatusOK
	case ingest.StatusPartial:
		return http.StatusMultiStatus
	default:
		return http.StatusInternalServerError
	}
}

func requestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}
