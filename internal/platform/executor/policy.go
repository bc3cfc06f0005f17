package executor

import (
	"context"

	"github.com/go-logr/logr"
)

// StderrPolicy decides what a successful exit with stderr output means.
type StderrPolicy int

const (
	// StderrLogged logs stderr output as a warning. gcloud reports progress
	// on stderr for every mutating call, so this is the policy for writes.
	StderrLogged StderrPolicy = iota

	// StderrFatal treats any stderr output as a failure. Used for describe
	// calls whose stdout is parsed.
	StderrFatal
)

// RunChecked runs a command through r and applies policy to its stderr.
func RunChecked(ctx context.Context, r Runner, log logr.Logger, policy StderrPolicy, tool string, args ...string) (*Result, error) {
	res, err := r.Run(ctx, tool, args...)
	if err != nil {
		return res, err
	}
	if stderr := res.StderrText(); stderr != "" {
		if policy == StderrFatal {
			return res, NewCommandError(tool, args, res, ErrUnexpectedStderr)
		}
		log.Info("command wrote to stderr", "tool", tool, "args", args, "stderr", stderr)
	}
	return res, nil
}
