// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/xataio/vdbgateway/internal/searchstore"
	"github.com/xataio/vdbgateway/internal/searchstore/elasticsearch"
	searchinstrumentation "github.com/xataio/vdbgateway/internal/searchstore/instrumentation"
	"github.com/xataio/vdbgateway/internal/searchstore/opensearch"
	searchretrier "github.com/xataio/vdbgateway/internal/searchstore/retrier"
	"github.com/xataio/vdbgateway/pkg/gateway/server"
	loglib "github.com/xataio/vdbgateway/pkg/log"
	"github.com/xataio/vdbgateway/pkg/otel"
	"github.com/xataio/vdbgateway/pkg/tls"
	"github.com/xataio/vdbgateway/pkg/vdb/document"
	"github.com/xataio/vdbgateway/pkg/vdb/index"
	"github.com/xataio/vdbgateway/pkg/vdb/ingest"
	"github.com/xataio/vdbgateway/pkg/vdb/search"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Run will run the gateway server until the context is cancelled or the
// server fails. This call is blocking.
func Run(ctx context.Context, logger loglib.Logger, config *Config, instrumentation *otel.Instrumentation) error {
	if err := config.IsValid(); err != nil {
		return fmt.Errorf("incompatible configuration: %w", err)
	}

	client, err := NewEngineClient(&config.Engine, logger, instrumentation)
	if err != nil {
		return err
	}

	ingester, searcher := newOrchestrators(client, config, logger)

	srv := server.New(config.serverConfig(), ingester, searcher, client, server.WithLogger(logger))

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		defer logger.Info("gateway server stopped")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("gateway server: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down gateway server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := eg.Wait(); err != nil {
		if !errors.Is(err, context.Canceled) {
			return err
		}
	}

	return nil
}

// NewEngineClient builds the search engine client for the configured engine,
// with the retry and instrumentation layers on top.
func NewEngineClient(cfg *EngineConfig, logger loglib.Logger, instrumentation *otel.Instrumentation) (searchstore.Client, error) {
	opts := []searchstore.ClientOption{}
	if cfg.RequestTimeout > 0 {
		opts = append(opts, searchstore.WithRequestTimeout(cfg.RequestTimeout))
	}

	tlsConfig, err := tls.NewConfig(&cfg.TLS)
	if err != nil {
		return nil, fmt.Errorf("parsing engine tls config: %w", err)
	}
	if tlsConfig != nil {
		opts = append(opts, searchstore.WithTLSConfig(tlsConfig))
	}

	var client searchstore.Client
	switch cfg.engineType() {
	case Elasticsearch:
		logger.Info("elasticsearch engine configured")
		client, err = elasticsearch.NewClient(cfg.URL, opts...)
	case OpenSearch:
		logger.Info("opensearch engine configured")
		client, err = opensearch.NewClient(cfg.URL, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", errUnsupportedEngine, cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("error setting up %s client: %w", cfg.engineType(), err)
	}

	// add retry layer to the engine client
	if cfg.Backoff != nil {
		client = searchretrier.New(client, cfg.Backoff, searchretrier.WithLogger(logger))
	}

	client, err = searchinstrumentation.NewClient(client, instrumentation)
	if err != nil {
		return nil, err
	}

	return client, nil
}

func newOrchestrators(client searchstore.Client, config *Config, logger loglib.Logger) (*ingest.Orchestrator, *search.Orchestrator) {
	indexManager := index.NewManager(client, index.WithLogger(logger))
	documentManager := document.NewManager(client, &config.Search.Config, document.WithLogger(logger))

	ingester := ingest.New(indexManager, documentManager, &config.Ingest, ingest.WithLogger(logger))
	searcher := search.New(documentManager, search.WithLogger(logger))

	return ingester, searcher
}

// NewIngester builds an ingestion orchestrator over the configured engine,
// for the processes that ingest without serving.
func NewIngester(config *Config, logger loglib.Logger, instrumentation *otel.Instrumentation) (*ingest.Orchestrator, error) {
	if err := config.IsValid(); err != nil {
		return nil, fmt.Errorf("incompatible configuration: %w", err)
	}

	client, err := NewEngineClient(&config.Engine, logger, instrumentation)
	if err != nil {
		return nil, err
	}

	ingester, _ := newOrchestrators(client, config, logger)
	return ingester, nil
}
