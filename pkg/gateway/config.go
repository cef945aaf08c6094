// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"errors"
	"fmt"
	"time"

	"github.com/xataio/vdbgateway/internal/backoff"
	"github.com/xataio/vdbgateway/pkg/gateway/server"
	"github.com/xataio/vdbgateway/pkg/tls"
	"github.com/xataio/vdbgateway/pkg/vdb/document"
	"github.com/xataio/vdbgateway/pkg/vdb/ingest"
)

type Config struct {
	Engine EngineConfig
	Search SearchConfig
	Ingest ingest.Config
	Server server.Config
}

type EngineType string

const (
	Elasticsearch EngineType = "elasticsearch"
	OpenSearch    EngineType = "opensearch"
)

type EngineConfig struct {
	// Type of the search engine. Defaults to elasticsearch.
	Type EngineType
	URL  string
	// RequestTimeout bounds the wait for the engine response headers of each
	// call. Defaults to 90s.
	RequestTimeout time.Duration
	// Backoff enables retries of the engine calls that failed with a
	// transient error. No retries when nil.
	Backoff *backoff.Config
	TLS     tls.Config
}

type SearchConfig struct {
	document.Config
	// DefaultIndex is searched when the request does not name an index.
	DefaultIndex string
}

var (
	errMissingEngineURL     = errors.New("search engine url must be provided")
	errUnsupportedEngine    = errors.New("unsupported search engine type")
	errInvalidSearchK       = errors.New("search k must be positive")
	errInvalidGroupWorkers  = errors.New("ingest group workers must be positive")
	errNegativeRequestLimit = errors.New("engine request timeout must not be negative")
)

func (c *Config) IsValid() error {
	if c.Engine.URL == "" {
		return errMissingEngineURL
	}

	switch c.Engine.engineType() {
	case Elasticsearch, OpenSearch:
	default:
		return fmt.Errorf("%w: %q", errUnsupportedEngine, c.Engine.Type)
	}

	if c.Engine.RequestTimeout < 0 {
		return errNegativeRequestLimit
	}

	if c.Search.K < 0 {
		return errInvalidSearchK
	}

	if c.Ingest.GroupWorkers < 0 {
		return errInvalidGroupWorkers
	}

	return nil
}

func (c *Config) serverConfig() *server.Config {
	cfg := c.Server
	if cfg.DefaultIndex == "" {
		cfg.DefaultIndex = c.Search.DefaultIndex
	}
	return &cfg
}

// DefaultIndex is the index searched when a request does not name one.
func (c *Config) DefaultIndex() string {
	return c.serverConfig().DefaultIndexName()
}

func (c *EngineConfig) engineType() EngineType {
	if c.Type == "" {
		return Elasticsearch
	}
	return c.Type
}
