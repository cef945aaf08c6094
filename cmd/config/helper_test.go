// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/xataio/vdbgateway/internal/backoff"
	"github.com/xataio/vdbgateway/pkg/gateway"
	"github.com/xataio/vdbgateway/pkg/gateway/server"
	"github.com/xataio/vdbgateway/pkg/otel"
	"github.com/xataio/vdbgateway/pkg/tls"
	"github.com/xataio/vdbgateway/pkg/vdb/document"
	"github.com/xataio/vdbgateway/pkg/vdb/ingest"
)

// this function validates the gateway configuration produced from the test
// configuration in the test directory.
func validateTestGatewayConfig(t *testing.T, gatewayConfig *gateway.Config) {
	expectedConfig := &gateway.Config{
		Engine: gateway.EngineConfig{
			Type:           gateway.OpenSearch,
			URL:            "http://localhost:9200",
			RequestTimeout: 30 * time.Second,
			Backoff: &backoff.Config{
				Exponential: &backoff.ExponentialConfig{
					MaxRetries:      5,
					InitialInterval: time.Second,
					MaxInterval:     60 * time.Second,
				},
			},
			TLS: tls.Config{
				Enabled:        true,
				CACertFile:     "/path/to/ca.crt",
				ClientCertFile: "/path/to/client.crt",
				ClientKeyFile:  "/path/to/client.key",
			},
		},
		Search: gateway.SearchConfig{
			Config: document.Config{
				K:             5,
				NumCandidates: 50,
				VectorField:   "image_embedding",
			},
			DefaultIndex: "listings",
		},
		Ingest: ingest.Config{
			GroupWorkers: 2,
			TextAnalyzer: "german",
		},
		Server: server.Config{
			Address:            "localhost:8080",
			ReadTimeout:        10 * time.Second,
			WriteTimeout:       2 * time.Minute,
			BodyLimit:          "64M",
			CORSAllowedOrigins: []string{"http://localhost", "http://localhost:3000"},
		},
	}

	assert.Equal(t, expectedConfig, gatewayConfig)
}

func validateTestOtelConfig(t *testing.T, otelConfig *otel.Config) {
	expectedConfig := &otel.Config{
		Metrics: &otel.MetricsConfig{
			Endpoint:           "http://localhost:4317",
			CollectionInterval: 60 * time.Second,
		},
		Traces: &otel.TracesConfig{
			Endpoint:    "http://localhost:4317",
			SampleRatio: 0.5,
		},
	}

	assert.Equal(t, expectedConfig, otelConfig)
}
