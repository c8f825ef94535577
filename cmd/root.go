package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oshokin/smartfetch/internal/app"
	"github.com/oshokin/smartfetch/internal/config"
	"github.com/oshokin/smartfetch/internal/logger"
	"github.com/oshokin/smartfetch/internal/version"
)

var (
	//nolint:gochecknoglobals // It is required for configuration initialization before the application starts.
	configFilenameFromFlag string

	//nolint:gochecknoglobals,lll // It is initialized once during the application's startup and shared across the command execution logic.
	appConfig *config.Config

	//nolint:gochecknoglobals,lll // Cobra command requires a global definition for proper command-line parsing and execution.
	rootCmd = &cobra.Command{
		Use:   "smartfetch [flags] {urls}",
		Short: "Fetch URLs resiliently with rotating network identities.",
		Long: `Smartfetch is a CLI tool for fetching URLs through disposable HTTP sessions.
It supports:
- Rotating user agents and proxies between retry attempts
- Persistent cookie jars shared across runs
- Paired request/response debug capture for troubleshooting
- Retrying transport failures with randomized pauses

Fetched bodies are saved to the output directory or printed to stdout.`,
		Version:          version.Full(),
		Args:             cobra.MinimumNArgs(1),
		PersistentPreRun: initConfig,
		Run: func(cmd *cobra.Command, urls []string) {
			if err := bindFlagsToConfig(cmd.Flags(), appConfig); err != nil {
				logger.Fatalf(cmd.Context(), "Failed to parse flags: %v", err)
			}

			logger.SetLevel(appConfig.ParsedLogLevel)

			app.ExecuteRootCommand(cmd.Context(), appConfig, urls)
		},
	}
)

// Execute executes the root command.
func Execute() {
	signals := []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM}
	ctx, stop := signal.NotifyContext(context.Background(), signals...)

	defer func() {
		_ = logger.Logger().Sync()
	}()

	defer stop()

	go func() {
		defer stop()

		err := rootCmd.ExecuteContext(ctx)
		cobra.CheckErr(err)
	}()

	<-ctx.Done()
}

//nolint:gochecknoinits // Cobra requires the init function to set up flags before the command is executed.
func init() {
	rootCmd.PersistentFlags().StringVarP(
		&configFilenameFromFlag,
		"config",
		"c",
		"",
		fmt.Sprintf("path to the configuration file (default is '%s')",
			config.DefaultConfigFilename))

	rootCmdFlags := rootCmd.Flags()

	rootCmdFlags.BoolP(
		"json",
		"j",
		false,
		"decode fetched bodies as JSON and save them pretty-printed.")

	rootCmdFlags.BoolP(
		"debug",
		"d",
		false,
		"capture paired request/response records to the debug directory.")

	rootCmdFlags.BoolP(
		"rotate",
		"r",
		false,
		"rotate the network identity (user agent and proxy) on every attempt.")

	rootCmdFlags.StringP(
		"output",
		"o",
		"",
		"directory to save fetched bodies (the path will be created if it doesn’t exist).")

	rootCmdFlags.Int64P(
		"attempts",
		"a",
		0,
		"number of attempts for failed fetches.")
}

func initConfig(cmd *cobra.Command, _ []string) {
	var err error

	appConfig, err = config.LoadConfig(configFilenameFromFlag)
	if err != nil {
		logger.Fatalf(cmd.Context(), "Failed to load configuration: %v", err)
	}
}

func bindFlagsToConfig(flags *pflag.FlagSet, cfg *config.Config) error {
	if flag := flags.Lookup("json"); flag != nil && flag.Changed {
		cfg.DecodeJSON, _ = flags.GetBool("json")
	}

	if flag := flags.Lookup("debug"); flag != nil && flag.Changed {
		cfg.DebugRequests, _ = flags.GetBool("debug")
	}

	if flag := flags.Lookup("rotate"); flag != nil && flag.Changed {
		cfg.RotateIdentities, _ = flags.GetBool("rotate")
	}

	if flag := flags.Lookup("output"); flag != nil && flag.Changed {
		cfg.OutputPath, _ = flags.GetString("output")
	}

	if flag := flags.Lookup("attempts"); flag != nil && flag.Changed {
		cfg.RetryAttemptsCount, _ = flags.GetInt64("attempts")
	}

	return config.ValidateConfig(cfg)
}
