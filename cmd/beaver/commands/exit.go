package commands

import (
	"errors"

	"github.com/beaver-logs/beaver/internal/util/prerequisites"
)

// Process exit codes.
const (
	ExitOK                  = 0
	ExitFailure             = 1
	ExitMissingPrerequisite = 3
)

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var missing *prerequisites.MissingError
	if errors.As(err, &missing) {
		return ExitMissingPrerequisite
	}
	return ExitFailure
}
