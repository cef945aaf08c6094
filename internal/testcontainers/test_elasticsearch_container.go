// SPDX-License-Identifier: Apache-2.0

package testcontainers

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/elasticsearch"
)

// Elasticsearch8 is the first release line with the top level knn search
// option and dense_vector indexing enabled by default.
const Elasticsearch8 = "docker.elastic.co/elasticsearch/elasticsearch:8.15.3"

// SetupElasticsearchContainer starts a single node elasticsearch without
// security, and sets url to its http address.
func SetupElasticsearchContainer(ctx context.Context, url *string) (cleanup, error) {
	ctr, err := elasticsearch.Run(ctx, Elasticsearch8,
		testcontainers.WithEnv(map[string]string{
			"xpack.security.enabled": "false", // disable TLS
			"ES_JAVA_OPTS":           "-Xms512m -Xmx512m",
		}))
	if err != nil {
		return nil, fmt.Errorf("failed to start elasticsearch container: %w", err)
	}

	*url = ctr.Settings.Address

	return func() error {
		return ctr.Terminate(ctx)
	}, nil
}
