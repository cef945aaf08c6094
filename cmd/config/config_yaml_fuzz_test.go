// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"testing"

	"gopkg.in/yaml.v3"
)

var config, _ = os.ReadFile("test/test_config.yaml")

func FuzzToGatewayConfig(f *testing.F) {
	f.Add(config)
	// Seed with edge cases
	f.Add([]byte(`{}`))
	f.Add([]byte(`engine: {}`))
	f.Add([]byte(`server: {cors: {}}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		var yamlConfig YAMLConfig
		if err := yaml.Unmarshal(data, &yamlConfig); err != nil {
			return
		}

		_, err := yamlConfig.toGatewayConfig()
		if err != nil {
			t.Logf("Expected error: %v", err)
		}
	})
}

func FuzzYAMLConfigStructure(f *testing.F) {
	// Test various YAML structures that could break parsing
	malformedInputs := []string{
		`engine: !!str invalid_engine`,
		`engine: !!int 12345`,
		`engine: [1, 2, 3]`,
		`engine: {type: !!null}`,
		`engine: {backoff: {exponential: !!null}}`,
		`search: {k: !!str "not_a_number"}`,
		`server: {cors: {allowed_origins: !!str "http://localhost"}}`,
		`instrumentation: {traces: {sample_ratio: !!bool true}}`,
	}

	for _, input := range malformedInputs {
		f.Add([]byte(input))
	}

	f.Fuzz(func(t *testing.T, yamlInput []byte) {
		defer func() {
			if r := recover(); r != nil {
				t.Errorf("YAML structure fuzzing panicked: %v", r)
			}
		}()

		var yamlConfig YAMLConfig
		err := yaml.Unmarshal(yamlInput, &yamlConfig)
		if err != nil {
			// YAML parsing errors are fine
			return
		}

		// Conversion errors are acceptable, panics are not
		_, _ = yamlConfig.toGatewayConfig()
		_, _ = yamlConfig.Instrumentation.toOtelConfig()
	})
}

// Benchmark to catch performance regressions
func BenchmarkToGatewayConfig(b *testing.B) {
	var yamlConfig YAMLConfig
	yaml.Unmarshal(config, &yamlConfig)

	for b.Loop() {
		_, _ = yamlConfig.toGatewayConfig()
	}
}
