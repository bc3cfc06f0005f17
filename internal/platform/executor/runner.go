package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/go-logr/logr"
)

// Result holds the captured outcome of one command.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// StderrText returns stderr with surrounding whitespace removed.
func (r *Result) StderrText() string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(string(r.Stderr))
}

// Runner executes a named tool with arguments.
type Runner interface {
	Run(ctx context.Context, tool string, args ...string) (*Result, error)
}

// CommandRunner runs tools as child processes.
type CommandRunner struct {
	// Timeout bounds every invocation. Zero disables the bound.
	Timeout time.Duration

	// Env, when non-nil, replaces the child environment.
	Env []string

	Log logr.Logger
}

// NewCommandRunner creates a runner with the given per-command timeout.
func NewCommandRunner(timeout time.Duration, log logr.Logger) *CommandRunner {
	return &CommandRunner{Timeout: timeout, Log: log}
}

// Run implements Runner.
func (r *CommandRunner) Run(ctx context.Context, tool string, args ...string) (*Result, error) {
	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	r.Log.V(1).Info("running command", "tool", tool, "args", args)

	// #nosec G204 -- tool and arguments are built by the typed clients, not taken from user input
	cmd := exec.CommandContext(runCtx, tool, args...)
	if r.Env != nil {
		cmd.Env = r.Env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	r.Log.V(1).Info("command finished", "tool", tool, "exitCode", res.ExitCode, "duration", time.Since(start).Round(time.Millisecond))

	if err == nil {
		return res, nil
	}

	switch {
	case errors.Is(err, exec.ErrNotFound):
		err = ErrToolNotFound
	case ctx.Err() != nil:
		return res, fmt.Errorf("%s %s: %w", tool, strings.Join(args, " "), ctx.Err())
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		err = fmt.Errorf("%w after %v", ErrTimeout, r.Timeout)
	}

	return res, NewCommandError(tool, args, res, err)
}
