// Package main provides the entry point for the nemo CLI.
package main

import (
	"context"
	"os"

	"github.com/mrz1836/nemo/internal/cli"
)

// Set via ldflags at build time.
//
//nolint:gochecknoglobals // Build metadata
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx := context.Background()
	err := cli.Execute(ctx, cli.BuildInfo{Version: version, Commit: commit, Date: date})
	cli.CloseLogFile()
	os.Exit(cli.ExitCodeForError(err))
}
