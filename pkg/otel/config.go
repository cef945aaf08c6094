// SPDX-License-Identifier: Apache-2.0

package otel

import (
	"errors"
	"time"
)

type Config struct {
	// ServiceName is reported on every metric and span. Defaults to
	// vdbgateway.
	ServiceName string
	Metrics     *MetricsConfig
	Traces      *TracesConfig
}

type MetricsConfig struct {
	// Endpoint of the OTLP gRPC collector, in the host:port format.
	Endpoint string
	// CollectionInterval defaults to 60s.
	CollectionInterval time.Duration
}

type TracesConfig struct {
	Endpoint string
	// SampleRatio is the share of root spans recorded, between 0 and 1.
	SampleRatio float64
}

const (
	defaultServiceName        = "vdbgateway"
	defaultCollectionInterval = 60 * time.Second
)

var (
	errMissingEndpoint    = errors.New("otlp collector endpoint must be provided")
	errInvalidSampleRatio = errors.New("trace sample ratio must be between 0 and 1")
)

// IsValid checks the enabled exporters can be set up.
func (c *Config) IsValid() error {
	if c.Metrics != nil && c.Metrics.Endpoint == "" {
		return errMissingEndpoint
	}
	if c.Traces != nil {
		if c.Traces.Endpoint == "" {
			return errMissingEndpoint
		}
		if c.Traces.SampleRatio < 0 || c.Traces.SampleRatio > 1 {
			return errInvalidSampleRatio
		}
	}
	return nil
}

func (c *Config) serviceName() string {
	if c.ServiceName != "" {
		return c.ServiceName
	}
	return defaultServiceName
}

func (c *MetricsConfig) collectionInterval() time.Duration {
	if c.CollectionInterval > 0 {
		return c.CollectionInterval
	}
	return defaultCollectionInterval
}
