// SPDX-License-Identifier: Apache-2.0

package server

import "time"

type Config struct {
	// Address for the server to listen on. The format is "host:port". Defaults
	// to ":8000".
	Address string
	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. Defaults to 5s.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration before timing out writes of the
	// response. It needs to cover the engine calls of the slowest request.
	// Defaults to 95s.
	WriteTimeout time.Duration
	// BodyLimit is the maximum size of a request body, in the format accepted
	// by echo (4K, 32M, 1G...). Defaults to 32M.
	BodyLimit string
	// CORSAllowedOrigins lists the origins allowed to call the gateway from a
	// browser. Defaults to http://localhost and http://localhost:8000.
	CORSAllowedOrigins []string
	// DefaultIndex is the index searched by the routes that do not name one.
	// Defaults to "immo".
	DefaultIndex string
}

const (
	defaultServerReadTimeout  = 5 * time.Second
	defaultServerWriteTimeout = 95 * time.Second
	defaultServerAddress      = ":8000"
	defaultBodyLimit          = "32M"
	defaultIndex              = "immo"
)

var defaultCORSAllowedOrigins = []string{"http://localhost", "http://localhost:8000"}

func (c *Config) readTimeout() time.Duration {
	if c.ReadTimeout > 0 {
		return c.ReadTimeout
	}
	return defaultServerReadTimeout
}

func (c *Config) writeTimeout() time.Duration {
	if c.WriteTimeout > 0 {
		return c.WriteTimeout
	}
	return defaultServerWriteTimeout
}

func (c *Config) address() string {
	if c.Address != "" {
		return c.Address
	}
	return defaultServerAddress
}

func (c *Config) bodyLimit() string {
	if c.BodyLimit != "" {
		return c.BodyLimit
	}
	return defaultBodyLimit
}

func (c *Config) corsAllowedOrigins() []string {
	if len(c.CORSAllowedOrigins) > 0 {
		return c.CORSAllowedOrigins
	}
	return defaultCORSAllowedOrigins
}

// DefaultIndexName returns the index used by the routes that do not name one.
func (c *Config) DefaultIndexName() string {
	if c.DefaultIndex != "" {
		return c.DefaultIndex
	}
	return defaultIndex
}
