package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// saveGlobals saves all package-level globals and returns a restore function.
func saveGlobals(t *testing.T) func() {
	t.Helper()
	origCfg := cfg
	origLogger := logger
	origFormatter := formatter
	origStats := stats
	origRegistry := registry
	origHomeDir := homeDir
	origOutputFormat := outputFormat
	origLogFormat := logFormat
	origVerbose := verbose
	origShowMetrics := showMetrics
	return func() {
		cfg = origCfg
		logger = origLogger
		formatter = origFormatter
		stats = origStats
		registry = origRegistry
		homeDir = origHomeDir
		outputFormat = origOutputFormat
		logFormat = origLogFormat
		verbose = origVerbose
		showMetrics = origShowMetrics
	}
}

// resetFlags restores every flag in the tree to its default so one test's
// flags never leak into the next Execute.
func resetFlags(cmd *cobra.Command) {
	walkCommands(cmd, func(c *cobra.Command) {
		reset := func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(nil)
			} else {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		}
		c.Flags().VisitAll(reset)
		c.PersistentFlags().VisitAll(reset)
	})
}

// executeCommand runs the root command with args against a fresh home
// directory and returns what it wrote to stdout and stderr.
// NOT parallel-safe: the command tree and globals are package state.
func executeCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	return executeWith(t, stdin, rootCmd.Execute, args...)
}

// executeWith is executeCommand with a custom entry point, e.g. Execute.
func executeWith(t *testing.T, stdin string, run func() error, args ...string) (string, string, error) {
	t.Helper()
	restore := saveGlobals(t)

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetIn(strings.NewReader(stdin))

	home := t.TempDir()
	rootCmd.SetArgs(append([]string{"--home", home}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
		restore()
	})

	t.Setenv("HOME", home)
	t.Setenv("CHAINCORE_HOME", home)
	err := run()
	return stdout.String(), stderr.String(), err
}
