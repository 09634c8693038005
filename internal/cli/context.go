package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mrz1836/chaincore/internal/config"
	"github.com/mrz1836/chaincore/internal/metrics"
	"github.com/mrz1836/chaincore/internal/multichain"
	"github.com/mrz1836/chaincore/internal/output"
)

// CommandContext holds dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Log      *config.Logger
	Fmt      *output.Formatter
	Metrics  *metrics.Metrics
	Registry *multichain.Registry
}

type cmdContextKey struct{}

// SetCmdContext stores the command context on cmd for its RunE.
func SetCmdContext(cmd *cobra.Command, cc *CommandContext) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	cmd.SetContext(context.WithValue(base, cmdContextKey{}, cc))
}

// GetCmdContext returns the command context stored by SetCmdContext, or one
// assembled from the package globals.
func GetCmdContext(cmd *cobra.Command) *CommandContext {
	if ctx := cmd.Context(); ctx != nil {
		if cc, ok := ctx.Value(cmdContextKey{}).(*CommandContext); ok && cc != nil {
			return cc
		}
	}
	return &CommandContext{
		Cfg:      cfg,
		Log:      logger,
		Fmt:      formatter,
		Metrics:  stats,
		Registry: registry,
	}
}
