// SPDX-License-Identifier: Apache-2.0

package searchstore

import (
	"crypto/tls"
	"net/http"
	"time"
)

const DefaultRequestTimeout = 90 * time.Second

type ClientOption func(*ClientConfig)

type ClientConfig struct {
	RequestTimeout time.Duration
	TLSConfig      *tls.Config
}

// WithRequestTimeout bounds how long a single engine call waits for the
// engine to answer.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.RequestTimeout = timeout
	}
}

// WithTLSConfig secures the engine connection. A nil config keeps the
// default transport settings.
func WithTLSConfig(cfg *tls.Config) ClientOption {
	return func(c *ClientConfig) {
		c.TLSConfig = cfg
	}
}

func NewClientConfig(opts ...ClientOption) *ClientConfig {
	cfg := &ClientConfig{
		RequestTimeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// NewTransport returns a copy of the default http transport bounded by the
// configured request timeout. The engine clients retry nothing on their own.
func (c *ClientConfig) NewTransport() http.RoundTripper {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if c.RequestTimeout > 0 {
		transport.ResponseHeaderTimeout = c.RequestTimeout
	}
	if c.TLSConfig != nil {
		transport.TLSClientConfig = c.TLSConfig
	}
	return transport
}
