// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"

	"github.com/spf13/viper"
	"github.com/xataio/vdbgateway/internal/backoff"
	"github.com/xataio/vdbgateway/pkg/gateway"
	"github.com/xataio/vdbgateway/pkg/gateway/server"
	"github.com/xataio/vdbgateway/pkg/otel"
	"github.com/xataio/vdbgateway/pkg/tls"
	"github.com/xataio/vdbgateway/pkg/vdb/document"
	"github.com/xataio/vdbgateway/pkg/vdb/ingest"
)

func envConfigToGatewayConfig() (*gateway.Config, error) {
	return &gateway.Config{
		Engine: parseEngineConfig(),
		Search: parseSearchConfig(),
		Ingest: parseIngestConfig(),
		Server: parseServerConfig(),
	}, nil
}

func parseEngineConfig() gateway.EngineConfig {
	return gateway.EngineConfig{
		Type:           gateway.EngineType(viper.GetString("VDBGATEWAY_ENGINE")),
		URL:            EngineURL(),
		RequestTimeout: viper.GetDuration("VDBGATEWAY_ENGINE_REQUEST_TIMEOUT"),
		Backoff:        parseBackoffConfig("VDBGATEWAY_ENGINE"),
		TLS:            parseTLSConfig("VDBGATEWAY_ENGINE"),
	}
}

func parseTLSConfig(prefix string) tls.Config {
	return tls.Config{
		Enabled:            viper.GetBool(fmt.Sprintf("%s_TLS_ENABLED", prefix)),
		CACertFile:         viper.GetString(fmt.Sprintf("%s_TLS_CA_CERT_FILE", prefix)),
		ClientCertFile:     viper.GetString(fmt.Sprintf("%s_TLS_CLIENT_CERT_FILE", prefix)),
		ClientKeyFile:      viper.GetString(fmt.Sprintf("%s_TLS_CLIENT_KEY_FILE", prefix)),
		InsecureSkipVerify: viper.GetBool(fmt.Sprintf("%s_TLS_INSECURE_SKIP_VERIFY", prefix)),
	}
}

func parseSearchConfig() gateway.SearchConfig {
	return gateway.SearchConfig{
		Config: document.Config{
			K:             viper.GetInt("VDBGATEWAY_SEARCH_K"),
			NumCandidates: viper.GetInt("VDBGATEWAY_SEARCH_NUM_CANDIDATES"),
			VectorField:   viper.GetString("VDBGATEWAY_SEARCH_VECTOR_FIELD"),
		},
		DefaultIndex: viper.GetString("VDBGATEWAY_SEARCH_DEFAULT_INDEX"),
	}
}

func parseIngestConfig() ingest.Config {
	return ingest.Config{
		GroupWorkers: viper.GetInt("VDBGATEWAY_INGEST_GROUP_WORKERS"),
		TextAnalyzer: viper.GetString("VDBGATEWAY_INGEST_TEXT_ANALYZER"),
	}
}

func parseServerConfig() server.Config {
	return server.Config{
		Address:            viper.GetString("VDBGATEWAY_SERVER_ADDRESS"),
		ReadTimeout:        viper.GetDuration("VDBGATEWAY_SERVER_READ_TIMEOUT"),
		WriteTimeout:       viper.GetDuration("VDBGATEWAY_SERVER_WRITE_TIMEOUT"),
		BodyLimit:          viper.GetString("VDBGATEWAY_SERVER_BODY_LIMIT"),
		CORSAllowedOrigins: viper.GetStringSlice("VDBGATEWAY_SERVER_CORS_ALLOWED_ORIGINS"),
	}
}

// parseBackoffConfig returns nil when no backoff is configured for the
// prefix, which disables retries.
func parseBackoffConfig(prefix string) *backoff.Config {
	cfg := &backoff.Config{
		Exponential: parseExponentialBackoffConfig(prefix),
		Constant:    parseConstantBackoffConfig(prefix),
	}
	if cfg.Exponential == nil && cfg.Constant == nil {
		return nil
	}
	return cfg
}

func parseExponentialBackoffConfig(prefix string) *backoff.ExponentialConfig {
	initialInterval := viper.GetDuration(fmt.Sprintf("%s_EXP_BACKOFF_INITIAL_INTERVAL", prefix))
	maxInterval := viper.GetDuration(fmt.Sprintf("%s_EXP_BACKOFF_MAX_INTERVAL", prefix))
	maxRetries := viper.GetUint(fmt.Sprintf("%s_EXP_BACKOFF_MAX_RETRIES", prefix))
	if initialInterval == 0 && maxInterval == 0 && maxRetries == 0 {
		return nil
	}
	return &backoff.ExponentialConfig{
		InitialInterval: initialInterval,
		MaxInterval:     maxInterval,
		MaxRetries:      maxRetries,
	}
}

func parseConstantBackoffConfig(prefix string) *backoff.ConstantConfig {
	interval := viper.GetDuration(fmt.Sprintf("%s_BACKOFF_INTERVAL", prefix))
	maxRetries := viper.GetUint(fmt.Sprintf("%s_BACKOFF_MAX_RETRIES", prefix))
	if interval == 0 && maxRetries == 0 {
		return nil
	}
	return &backoff.ConstantConfig{
		Interval:   interval,
		MaxRetries: maxRetries,
	}
}

func envToOtelConfig() (*otel.Config, error) {
	cfg := &otel.Config{
		ServiceName: viper.GetString("VDBGATEWAY_SERVICE_NAME"),
	}

	if endpoint := viper.GetString("VDBGATEWAY_METRICS_ENDPOINT"); endpoint != "" {
		cfg.Metrics = &otel.MetricsConfig{
			Endpoint:           endpoint,
			CollectionInterval: viper.GetDuration("VDBGATEWAY_METRICS_COLLECTION_INTERVAL"),
		}
	}

	if endpoint := viper.GetString("VDBGATEWAY_TRACES_ENDPOINT"); endpoint != "" {
		sampleRatio := viper.GetFloat64("VDBGATEWAY_TRACES_SAMPLE_RATIO")
		if sampleRatio < 0 || sampleRatio > 1 {
			return nil, errInvalidSampleRatio
		}
		cfg.Traces = &otel.TracesConfig{
			Endpoint:    endpoint,
			SampleRatio: sampleRatio,
		}
	}

	return cfg, nil
}
