// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
	"github.com/xataio/vdbgateway/pkg/gateway"
	"github.com/xataio/vdbgateway/pkg/otel"
)

const defaultEngineURL = "http://elasticsearch:9200"

func Load() error {
	return LoadFile(viper.GetString("config"))
}

func LoadFile(file string) error {
	if file == "" {
		return nil
	}

	viper.SetConfigFile(file)
	viper.SetConfigType(filepath.Ext(file)[1:])
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

func ParseGatewayConfig() (*gateway.Config, error) {
	if isYAMLConfig() {
		yamlCfg := YAMLConfig{}
		if err := viper.Unmarshal(&yamlCfg); err != nil {
			return nil, err
		}
		return yamlCfg.toGatewayConfig()
	}
	return envConfigToGatewayConfig()
}

func ParseInstrumentationConfig() (*otel.Config, error) {
	if isYAMLConfig() {
		yamlCfg := YAMLConfig{}
		if err := viper.Unmarshal(&yamlCfg); err != nil {
			return nil, err
		}
		return yamlCfg.Instrumentation.toOtelConfig()
	}
	return envToOtelConfig()
}

// EngineURL returns the engine url from the yaml configuration or the
// environment. CLI flags are bound to both keys.
func EngineURL() string {
	switch {
	case viper.GetString("engine.url") != "":
		// yaml config
		return viper.GetString("engine.url")
	case viper.GetString("VDBGATEWAY_ENGINE_URL") != "":
		// env config
		return viper.GetString("VDBGATEWAY_ENGINE_URL")
	default:
		return defaultEngineURL
	}
}

func isYAMLConfig() bool {
	switch filepath.Ext(viper.GetViper().ConfigFileUsed()) {
	case ".yml", ".yaml":
		return true
	default:
		return false
	}
}
