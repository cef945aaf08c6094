// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/xataio/vdbgateway/cmd/config"
	"github.com/xataio/vdbgateway/internal/progress"
	"github.com/xataio/vdbgateway/pkg/gateway"
)

var loadCmd = &cobra.Command{
	Use:    "load <file>",
	Short:  "Load ingests a newline delimited JSON file of listings into the search engine",
	Args:   cobra.ExactArgs(1),
	PreRun: loadFlagBinding,
	RunE:   withProfiling(load),
	Example: `
	vdbgateway load listings.ndjson --engine-url http://localhost:9200
	vdbgateway load listings.ndjson --config config.yaml --batch-size 1000
	vdbgateway load listings.ndjson --config config.env --profile`,
}

var errItemsNotLoaded = errors.New("some items were not loaded")

func load(cmd *cobra.Command, args []string) error {
	return withSignalWatcher(func(ctx context.Context) error {
		return loadFile(ctx, cmd, args[0])
	})(cmd, args)
}

func loadFile(ctx context.Context, cmd *cobra.Command, path string) error {
	logger := newLogger()

	gatewayConfig, err := config.ParseGatewayConfig()
	if err != nil {
		return fmt.Errorf("parsing gateway config: %w", err)
	}

	batchSize, err := cmd.Flags().GetInt("batch-size")
	if err != nil {
		return err
	}

	provider, err := newInstrumentationProvider()
	if err != nil {
		return err
	}
	defer provider.Close()

	ingester, err := gateway.NewIngester(gatewayConfig, logger, provider.NewInstrumentation("load"))
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("reading %s size: %w", path, err)
	}

	bar := progress.NewBytesBar(os.Stderr, info.Size(), fmt.Sprintf("loading %s...", path))
	defer bar.Close()

	loader := gateway.NewLoader(ingester, &gateway.LoaderConfig{BatchSize: batchSize},
		gateway.WithLoaderLogger(logger),
		gateway.WithProgressBar(bar))

	result, err := loader.Load(ctx, file)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	for _, e := range result.Errors {
		pterm.Warning.Println(e)
	}
	summary := fmt.Sprintf("%d lines read, %d accepted, %d rejected, %d failed",
		result.Lines, result.Accepted, result.Rejected, result.Failed)
	if result.Rejected > 0 || result.Failed > 0 {
		pterm.Error.Println(summary)
		return errItemsNotLoaded
	}
	pterm.Success.Println(summary)
	return nil
}

func loadFlagBinding(cmd *cobra.Command, _ []string) {
	engineFlagBinding(cmd)
}
