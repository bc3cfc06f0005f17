// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command definitions
// in the commands package. Handlers are framework-agnostic and can be tested
// independently of the CLI framework.
package handlers

import (
	"io"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"

	"github.com/beaver-logs/beaver/internal/config"
	"github.com/beaver-logs/beaver/internal/logging"
	"github.com/beaver-logs/beaver/internal/provisioning"
)

// logFileName is the JSON log kept next to the other artifacts.
const logFileName = "beaver.log"

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// newProvisioningContext creates a new provisioning context.
	newProvisioningContext = provisioning.NewContext

	// newLogger builds the process logger.
	newLogger = logging.New

	// stdout receives summaries.
	stdout io.Writer = os.Stdout
)

// openLogger builds the logger for a configuration root. An empty level
// falls back to the root's config.yaml. The JSON log file is only opened
// when the root exists, so a mistyped path is still reported as such.
func openLogger(layout config.Layout, level string) (logr.Logger, func() error, error) {
	opts := logging.Options{Level: level}
	if opts.Level == "" {
		if cfg, err := config.Load(layout); err == nil {
			opts.Level = cfg.LogLevel
		}
	}
	if info, err := os.Stat(layout.Root); err == nil && info.IsDir() {
		opts.File = filepath.Join(layout.ArtifactsDir(), logFileName)
	}
	return newLogger(opts)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
