// SPDX-License-Identifier: Apache-2.0

package testcontainers

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/opensearch"
)

const OpenSearch2 = "opensearchproject/opensearch:2.19.1"

// SetupOpenSearchContainer starts a single node opensearch with the security
// plugin disabled, and sets url to its http address.
func SetupOpenSearchContainer(ctx context.Context, url *string) (cleanup, error) {
	ctr, err := opensearch.Run(ctx, OpenSearch2,
		testcontainers.WithEnv(map[string]string{
			"OPENSEARCH_JAVA_OPTS":        "-Xms512m -Xmx512m",
			"DISABLE_INSTALL_DEMO_CONFIG": "true",
			"DISABLE_SECURITY_PLUGIN":     "true",
		}))
	if err != nil {
		return nil, fmt.Errorf("failed to start opensearch container: %w", err)
	}

	*url, err = ctr.Address(ctx)
	if err != nil {
		return nil, fmt.Errorf("retrieving url for opensearch container: %w", err)
	}

	return func() error {
		return ctr.Terminate(ctx)
	}, nil
}
