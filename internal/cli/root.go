// Package cli implements the chaincore command-line interface.
//
// This package uses global variables to manage CLI state, which is the standard
// pattern for Cobra-based CLI applications. The globals are initialized in
// PersistentPreRunE and cleaned up in PersistentPostRun.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/mrz1836/chaincore/internal/config"
	"github.com/mrz1836/chaincore/internal/metrics"
	"github.com/mrz1836/chaincore/internal/multichain"
	"github.com/mrz1836/chaincore/internal/output"
	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

// BuildInfo is stamped into the binary at release time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

var (
	// Global flags
	homeDir      string
	outputFormat string
	logFormat    string
	verbose      bool
	showMetrics  bool

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	logger    *config.Logger
	formatter *output.Formatter
	stats     *metrics.Metrics
	registry  *multichain.Registry

	buildInfo BuildInfo
	helpOnce  sync.Once
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "chaincore",
	Short: "Multi-chain transaction construction and normalization",
	Long: `chaincore builds unsigned transactions and normalizes indexer records for
UTXO, EVM and Cosmos-SDK chains behind one CAIP identifier scheme.

Nothing is signed or broadcast: build output goes to an external signer and
parse input comes from an indexer you already run.`,
	Example: `  chaincore id parse eip155:1/erc20:0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48
  chaincore path parse "m/84'/0'/0'/0/0"
  chaincore tx build --chain cosmos:cosmoshub-4 --request send.json
  chaincore tx parse --chain eip155:1 --watched 0x9858... history.json`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := initGlobals(cmd); err != nil {
			return err
		}
		SetCmdContext(cmd, &CommandContext{
			Cfg:      cfg,
			Log:      logger,
			Fmt:      formatter,
			Metrics:  stats,
			Registry: registry,
		})
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
		defer cleanup()
		if showMetrics {
			return writeMetrics(cmd.ErrOrStderr(), stats)
		}
		return nil
	},
}

// Execute runs the root command.
func Execute(info BuildInfo) error {
	buildInfo = info
	helpOnce.Do(func() {
		walkCommands(rootCmd, func(c *cobra.Command) {
			if c.HasParent() {
				enrichParentLong(c)
			}
		})
	})
	err := rootCmd.Execute()
	if err != nil {
		format := output.FormatText
		if formatter != nil {
			format = formatter.Format()
		}
		_ = output.FormatError(rootCmd.ErrOrStderr(), err, format)
		return err
	}
	return nil
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return coreerr.ExitCode(err)
}

// formatVersion renders build info, filling the blanks of a dev build.
func formatVersion(info BuildInfo) string {
	version, commit, date := info.Version, info.Commit, info.Date
	if version == "" {
		version = "dev"
	}
	if commit == "" {
		commit = "unknown"
	}
	if date == "" {
		date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
}

// initGlobals loads configuration and builds the logger, formatter and registry.
func initGlobals(cmd *cobra.Command) error {
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvPrefix + "_HOME")
	}
	if home == "" {
		home = config.DefaultHome()
	}

	var err error
	cfg, err = config.Load(config.Path(home))
	switch {
	case err == nil:
	case os.IsNotExist(err):
		cfg = config.Defaults()
		cfg.Home = home
	default:
		return err
	}

	if err = config.ApplyEnvironment(cfg); err != nil {
		return err
	}

	if homeDir != "" {
		cfg.Home = homeDir
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if outputFormat != "" && outputFormat != "auto" {
		cfg.Output.DefaultFormat = outputFormat
	}
	if logFormat != "" {
		cfg.Logging.Format = strings.ToLower(logFormat)
	}
	if err = cfg.Validate(); err != nil {
		return err
	}

	logLevel := config.ParseLogLevel(cfg.Logging.Level)
	if cfg.Output.Verbose {
		logger = config.NewWriterLogger(logLevel, cmd.ErrOrStderr())
	} else if logger, err = config.NewLogger(logLevel, cfg.Logging.File); err != nil {
		logger = config.NullLogger()
	}
	logger.SetJSONOutput(cfg.LogJSON())

	explicitFormat := output.ParseFormat(cfg.Output.DefaultFormat)
	formatter = output.NewFormatter(output.DetectFormat(cmd.OutOrStdout(), explicitFormat), cmd.OutOrStdout())

	stats = metrics.New()
	registry = multichain.New(cfg, multichain.WithLogger(logger), multichain.WithMetrics(stats))
	return nil
}

// cleanup releases resources.
func cleanup() {
	if logger != nil {
		_ = logger.Close()
	}
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "chaincore data directory (default: ~/.chaincore)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log line format: text, json (default: config logging.format)")
	rootCmd.PersistentFlags().BoolVar(&showMetrics, "metrics", false, "print collected metrics to stderr on exit")

	rootCmd.AddGroup(
		&cobra.Group{ID: "codec", Title: "Identifier Commands:"},
		&cobra.Group{ID: "chain", Title: "Chain Commands:"},
		&cobra.Group{ID: "config", Title: "Configuration:"},
	)
}
