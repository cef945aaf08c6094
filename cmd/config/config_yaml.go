// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/xataio/vdbgateway/internal/backoff"
	"github.com/xataio/vdbgateway/pkg/gateway"
	"github.com/xataio/vdbgateway/pkg/gateway/server"
	"github.com/xataio/vdbgateway/pkg/otel"
	"github.com/xataio/vdbgateway/pkg/tls"
	"github.com/xataio/vdbgateway/pkg/vdb/document"
	"github.com/xataio/vdbgateway/pkg/vdb/ingest"
)

type YAMLConfig struct {
	Engine          EngineConfig          `mapstructure:"engine" yaml:"engine"`
	Search          SearchConfig          `mapstructure:"search" yaml:"search"`
	Ingest          IngestConfig          `mapstructure:"ingest" yaml:"ingest"`
	Server          ServerConfig          `mapstructure:"server" yaml:"server"`
	Instrumentation InstrumentationConfig `mapstructure:"instrumentation" yaml:"instrumentation"`
}

type EngineConfig struct {
	Type           string         `mapstructure:"type" yaml:"type"`
	URL            string         `mapstructure:"url" yaml:"url"`
	RequestTimeout int            `mapstructure:"request_timeout" yaml:"request_timeout"`
	Backoff        *BackoffConfig `mapstructure:"backoff" yaml:"backoff"`
	TLS            *TLSConfig     `mapstructure:"tls" yaml:"tls"`
}

type TLSConfig struct {
	CACert             string `mapstructure:"ca_cert" yaml:"ca_cert"`
	ClientCert         string `mapstructure:"client_cert" yaml:"client_cert"`
	ClientKey          string `mapstructure:"client_key" yaml:"client_key"`
	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

type BackoffConfig struct {
	Exponential *ExponentialBackoffConfig `mapstructure:"exponential" yaml:"exponential"`
	Constant    *ConstantBackoffConfig    `mapstructure:"constant" yaml:"constant"`
}

type ExponentialBackoffConfig struct {
	MaxRetries      int `mapstructure:"max_retries" yaml:"max_retries"`
	InitialInterval int `mapstructure:"initial_interval" yaml:"initial_interval"`
	MaxInterval     int `mapstructure:"max_interval" yaml:"max_interval"`
}

type ConstantBackoffConfig struct {
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
	Interval   int `mapstructure:"interval" yaml:"interval"`
}

type SearchConfig struct {
	DefaultIndex  string `mapstructure:"default_index" yaml:"default_index"`
	VectorField   string `mapstructure:"vector_field" yaml:"vector_field"`
	K             int    `mapstructure:"k" yaml:"k"`
	NumCandidates int    `mapstructure:"num_candidates" yaml:"num_candidates"`
}

type IngestConfig struct {
	GroupWorkers int    `mapstructure:"group_workers" yaml:"group_workers"`
	TextAnalyzer string `mapstructure:"text_analyzer" yaml:"text_analyzer"`
}

type ServerConfig struct {
	Address      string      `mapstructure:"address" yaml:"address"`
	ReadTimeout  int         `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout int         `mapstructure:"write_timeout" yaml:"write_timeout"`
	BodyLimit    string      `mapstructure:"body_limit" yaml:"body_limit"`
	CORS         *CORSConfig `mapstructure:"cors" yaml:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

type InstrumentationConfig struct {
	ServiceName string         `mapstructure:"service_name" yaml:"service_name"`
	Metrics     *MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Traces      *TracesConfig  `mapstructure:"traces" yaml:"traces"`
}

type MetricsConfig struct {
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	// seconds
	CollectionInterval int `mapstructure:"collection_interval" yaml:"collection_interval"`
}

type TracesConfig struct {
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio" yaml:"sample_ratio"`
}

var (
	errUnsupportedSearchEngine = errors.New("unsupported search engine, must be one of elasticsearch or opensearch")
	errInvalidSampleRatio      = errors.New("sample ratio must be between 0.0 and 1.0")
)

func (c *YAMLConfig) toGatewayConfig() (*gateway.Config, error) {
	engine, err := c.Engine.parseEngineConfig()
	if err != nil {
		return nil, fmt.Errorf("parsing engine config: %w", err)
	}

	return &gateway.Config{
		Engine: engine,
		Search: gateway.SearchConfig{
			Config: document.Config{
				K:             c.Search.K,
				NumCandidates: c.Search.NumCandidates,
				VectorField:   c.Search.VectorField,
			},
			DefaultIndex: c.Search.DefaultIndex,
		},
		Ingest: ingest.Config{
			GroupWorkers: c.Ingest.GroupWorkers,
			TextAnalyzer: c.Ingest.TextAnalyzer,
		},
		Server: c.Server.parseServerConfig(),
	}, nil
}

func (c *EngineConfig) parseEngineConfig() (gateway.EngineConfig, error) {
	engineType := gateway.EngineType(c.Type)
	switch engineType {
	case "", gateway.Elasticsearch, gateway.OpenSearch:
	default:
		return gateway.EngineConfig{}, errUnsupportedSearchEngine
	}

	url := c.URL
	if url == "" {
		url = EngineURL()
	}

	return gateway.EngineConfig{
		Type:           engineType,
		URL:            url,
		RequestTimeout: time.Duration(c.RequestTimeout) * time.Millisecond,
		Backoff:        c.Backoff.parseBackoffConfig(),
		TLS:            c.TLS.parseTLSConfig(),
	}, nil
}

func (t *TLSConfig) parseTLSConfig() tls.Config {
	if t == nil {
		return tls.Config{Enabled: false}
	}
	return tls.Config{
		Enabled:            true,
		CACertFile:         t.CACert,
		ClientCertFile:     t.ClientCert,
		ClientKeyFile:      t.ClientKey,
		InsecureSkipVerify: t.InsecureSkipVerify,
	}
}

func (c *ServerConfig) parseServerConfig() server.Config {
	cfg := server.Config{
		Address:      c.Address,
		ReadTimeout:  time.Duration(c.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(c.WriteTimeout) * time.Millisecond,
		BodyLimit:    c.BodyLimit,
	}
	if c.CORS != nil {
		cfg.CORSAllowedOrigins = c.CORS.AllowedOrigins
	}
	return cfg
}

func (c *InstrumentationConfig) toOtelConfig() (*otel.Config, error) {
	cfg := &otel.Config{
		ServiceName: c.ServiceName,
	}
	if c.Metrics != nil {
		cfg.Metrics = &otel.MetricsConfig{
			Endpoint:           c.Metrics.Endpoint,
			CollectionInterval: time.Duration(c.Metrics.CollectionInterval) * time.Second,
		}
	}
	if c.Traces != nil {
		if c.Traces.SampleRatio < 0 || c.Traces.SampleRatio > 1 {
			return nil, errInvalidSampleRatio
		}
		cfg.Traces = &otel.TracesConfig{
			Endpoint:    c.Traces.Endpoint,
			SampleRatio: c.Traces.SampleRatio,
		}
	}
	return cfg, nil
}

func (bo *BackoffConfig) parseBackoffConfig() *backoff.Config {
	if bo == nil {
		return nil
	}
	return &backoff.Config{
		Exponential: bo.parseExponentialBackoffConfig(),
		Constant:    bo.parseConstantBackoffConfig(),
	}
}

func (bo *BackoffConfig) parseExponentialBackoffConfig() *backoff.ExponentialConfig {
	if bo.Exponential == nil {
		return nil
	}
	return &backoff.ExponentialConfig{
		InitialInterval: time.Duration(bo.Exponential.InitialInterval) * time.Millisecond,
		MaxInterval:     time.Duration(bo.Exponential.MaxInterval) * time.Millisecond,
		MaxRetries:      uint(bo.Exponential.MaxRetries),
	}
}

func (bo *BackoffConfig) parseConstantBackoffConfig() *backoff.ConstantConfig {
	if bo.Constant == nil {
		return nil
	}
	return &backoff.ConstantConfig{
		Interval:   time.Duration(bo.Constant.Interval) * time.Millisecond,
		MaxRetries: uint(bo.Constant.MaxRetries),
	}
}
