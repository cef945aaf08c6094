// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/xataio/vdbgateway/cmd/config"
	"github.com/xataio/vdbgateway/pkg/gateway"
)

var serveCmd = &cobra.Command{
	Use:    "serve",
	Short:  "Serve starts the HTTP gateway for listing ingestion and vector search",
	PreRun: serveFlagBinding,
	RunE:   withProfiling(withSignalWatcher(serve)),
	Example: `
	vdbgateway serve --engine-url http://localhost:9200
	vdbgateway serve --engine opensearch --engine-url http://localhost:9200 --address :8080
	vdbgateway serve --config config.yaml --log-level info
	vdbgateway serve --config config.env --profile`,
}

func serve(ctx context.Context) error {
	logger := newLogger()

	gatewayConfig, err := config.ParseGatewayConfig()
	if err != nil {
		return fmt.Errorf("parsing gateway config: %w", err)
	}

	provider, err := newInstrumentationProvider()
	if err != nil {
		return err
	}
	defer provider.Close()

	return gateway.Run(ctx, logger, gatewayConfig, provider.NewInstrumentation("serve"))
}

func serveFlagBinding(cmd *cobra.Command, _ []string) {
	engineFlagBinding(cmd)

	if cmd.Flags().Lookup("address").Changed {
		viper.BindPFlag("server.address", cmd.Flags().Lookup("address"))
		viper.BindPFlag("VDBGATEWAY_SERVER_ADDRESS", cmd.Flags().Lookup("address"))
	}
	if cmd.Flags().Lookup("default-index").Changed {
		viper.BindPFlag("search.default_index", cmd.Flags().Lookup("default-index"))
		viper.BindPFlag("VDBGATEWAY_SEARCH_DEFAULT_INDEX", cmd.Flags().Lookup("default-index"))
	}
}
