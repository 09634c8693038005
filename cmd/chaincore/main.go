// Package main is the entry point for the chaincore CLI.
package main

import (
	"os"

	"github.com/mrz1836/chaincore/internal/cli"
)

// Set at build time with -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
//
//nolint:gochecknoglobals // build-time stamped values
var (
	version string
	commit  string
	date    string
)

func main() {
	if err := cli.Execute(cli.BuildInfo{Version: version, Commit: commit, Date: date}); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
