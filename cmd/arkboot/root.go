package main

import (
	"fmt"
	"log/slog"
	"os"

	"arkboot/internal/config"
	"arkboot/internal/telemetry"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string

	// cfg is populated by PersistentPreRunE and shared with all subcommands.
	cfg *config.Config

	// app holds all wired dependencies; populated by PersistentPreRunE.
	app *AppContext
)

var rootCmd = &cobra.Command{
	Use:   "arkboot",
	Short: "arkboot - Ark regtest environment bootstrap",
	Long: `arkboot brings a local Ark regtest environment to a testable state.
It waits for the Ark server, provisions and unlocks its wallet, funds the
server and a client boarding address through the nigiri faucet, and settles
the boarded funds.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		initLogger(logLevel)

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		// --log-level flag takes precedence over value in config file.
		if cmd.Flags().Changed("log-level") {
			cfg.Telemetry.LogLevel = logLevel
		} else if cfg.Telemetry.LogLevel != "" {
			initLogger(cfg.Telemetry.LogLevel)
		}

		app, err = buildAppContext(cfg)
		if err != nil {
			return fmt.Errorf("building app context: %w", err)
		}

		return nil
	}

	rootCmd.AddCommand(bootstrapCmd)
}

// Execute is the entry point called by main. Any error exits with status 1.
func Execute() {
	os.Exit(run(os.Args[1:]))
}

// run executes the command tree with args and returns the process exit code.
func run(args []string) int {
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		slog.Error("arkboot failed", "err", err)
		return 1
	}
	return 0
}

func initLogger(level string) {
	slog.SetDefault(telemetry.NewLogger(os.Stderr, level))
}
