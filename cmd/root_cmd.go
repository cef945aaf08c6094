// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xataio/vdbgateway/cmd/config"
	"github.com/xataio/vdbgateway/internal/log/zerolog"
	"github.com/xataio/vdbgateway/internal/profiling"
	loglib "github.com/xataio/vdbgateway/pkg/log"
	"github.com/xataio/vdbgateway/pkg/otel"
)

// Version is the vdbgateway version
var (
	Version = "development"
	Env     string
)

const trueStr = "true"

func Prepare() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "vdbgateway",
		Short:        "Vector search gateway for property listings backed by elasticsearch or opensearch",
		SilenceUsage: true,
		Version:      version(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(); err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}

			return nil
		},
	}

	// environment keys already carry the VDBGATEWAY_ prefix
	viper.AutomaticEnv()

	// Flag definition

	// root cmd
	rootCmd.PersistentFlags().StringP("config", "c", "", ".env or .yaml config file to use with vdbgateway if any")
	rootCmd.PersistentFlags().String("log-level", "debug", "log level for the application. One of trace, debug, info, warn, error, fatal, panic")
	rootCmd.PersistentFlags().Bool("log-json", false, "Whether to emit the logs as JSON instead of the human readable console format")

	// serve cmd
	serveCmd.Flags().String("engine", "", "Search engine type. One of elasticsearch, opensearch")
	serveCmd.Flags().String("engine-url", "", "Search engine URL")
	serveCmd.Flags().String("address", "", "Address for the gateway to listen on, in the format host:port")
	serveCmd.Flags().String("default-index", "", "Index searched by the requests that do not name one")
	serveCmd.Flags().Bool("profile", false, "Whether to expose a /debug/pprof endpoint on localhost:6060")

	// load cmd
	loadCmd.Flags().String("engine", "", "Search engine type. One of elasticsearch, opensearch")
	loadCmd.Flags().String("engine-url", "", "Search engine URL")
	loadCmd.Flags().Int("batch-size", 500, "Number of items sent to the search engine per batch")
	loadCmd.Flags().Bool("profile", false, "Whether to produce CPU and memory profile files, as well as exposing a /debug/pprof endpoint on localhost:6060")

	// status cmd
	statusCmd.Flags().String("engine", "", "Search engine type. One of elasticsearch, opensearch")
	statusCmd.Flags().String("engine-url", "", "Search engine URL")
	statusCmd.Flags().StringSlice("index", nil, "Indices to check. Defaults to the configured default index")
	statusCmd.Flags().Bool("json", false, "Output the status in JSON format")

	// Flag binding for root cmd
	rootFlagBinding(rootCmd)

	// register subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(statusCmd)
	return rootCmd
}

// Execute executes the root command.
func Execute() error {
	cmd := Prepare()
	return cmd.Execute()
}

func withSignalWatcher(fn func(ctx context.Context) error) func(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	go func() {
		<-sigc
		cancel()
	}()

	return func(cmd *cobra.Command, args []string) error {
		defer cancel()
		return fn(ctx)
	}
}

func withProfiling(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) (err error) {
	return func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Lookup("profile").Value.String() == "false" {
			return fn(cmd, args)
		}

		profiling.StartProfilingServer("localhost:6060")
		// serve is a long running process, do not produce a cpu/mem files but
		// rather expose the http endpoint only.
		if cmd.Name() == "serve" {
			return fn(cmd, args)
		}

		stopCPUProfile, err := profiling.StartCPUProfile("cpu.prof")
		if err != nil {
			return err
		}
		defer func() {
			stopCPUProfile()
			profiling.CreateMemoryProfile("mem.prof")
		}()

		return fn(cmd, args)
	}
}

func rootFlagBinding(cmd *cobra.Command) {
	viper.BindPFlag("config", cmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("VDBGATEWAY_LOG_LEVEL", cmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("VDBGATEWAY_LOG_JSON", cmd.PersistentFlags().Lookup("log-json"))
}

// engineFlagBinding lets the engine flags overwrite the configuration, be it
// provided as yaml, env file or environment.
func engineFlagBinding(cmd *cobra.Command) {
	if cmd.Flags().Lookup("engine").Changed {
		viper.BindPFlag("engine.type", cmd.Flags().Lookup("engine"))
		viper.BindPFlag("VDBGATEWAY_ENGINE", cmd.Flags().Lookup("engine"))
	}
	if cmd.Flags().Lookup("engine-url").Changed {
		viper.BindPFlag("engine.url", cmd.Flags().Lookup("engine-url"))
		viper.BindPFlag("VDBGATEWAY_ENGINE_URL", cmd.Flags().Lookup("engine-url"))
	}
}

func version() string {
	if Env != "" {
		return Env + " (" + Version + ")"
	}
	return Version
}

func newLogger() loglib.Logger {
	logger := zerolog.NewLogger(&zerolog.Config{
		LogLevel: viper.GetString("VDBGATEWAY_LOG_LEVEL"),
		JSON:     viper.GetBool("VDBGATEWAY_LOG_JSON"),
	})
	zerolog.SetGlobalLogger(logger)
	return zerolog.NewStdLogger(logger)
}

func newInstrumentationProvider() (otel.InstrumentationProvider, error) {
	cfg, err := config.ParseInstrumentationConfig()
	if err != nil {
		return nil, fmt.Errorf("parsing instrumentation config: %w", err)
	}

	p, err := otel.NewInstrumentationProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialisating instrumentation provider: %w", err)
	}
	return p, nil
}
