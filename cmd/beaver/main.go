// Package main is the entry point for the beaver CLI.
//
// beaver provisions a log ingestion pipeline on Google Cloud: a BigQuery
// table, a Pub/Sub topic, a bucket holding the generated Vector config, a
// Cloud Run job mounting that bucket and a Cloud Scheduler trigger.
//
// Commands: init, deploy, destroy, version.
//
// For detailed usage information, run:
//
//	beaver --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/beaver-logs/beaver/cmd/beaver/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.Root().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(commands.ExitCode(err))
}
