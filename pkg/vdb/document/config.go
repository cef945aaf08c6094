// SPDX-License-Identifier: Apache-2.0

package document

type Config struct {
	// K is the number of neighbours returned. Defaults to 10.
	K int
	// NumCandidates is the per shard candidate pool of the approximate
	// search. Defaults to 100, and is raised to K when set lower.
	NumCandidates int
	// VectorField is the embedding searched. Defaults to text_embedding.
	VectorField string
}

const (
	defaultK             = 10
	defaultNumCandidates = 100
	defaultVectorField   = "text_embedding"
)

func (c *Config) withDefaults() Config {
	cfg := Config{}
	if c != nil {
		cfg = *c
	}

	if cfg.K <= 0 {
		cfg.K = defaultK
	}
	if cfg.NumCandidates <= 0 {
		cfg.NumCandidates = defaultNumCandidates
	}
	if cfg.NumCandidates < cfg.K {
		cfg.NumCandidates = cfg.K
	}
	if cfg.VectorField == "" {
		cfg.VectorField = defaultVectorField
	}

	return cfg
}
