package executor

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTimeout is returned when a command exceeds the runner timeout.
	ErrTimeout = errors.New("command timed out")

	// ErrToolNotFound is returned when the tool binary cannot be started.
	ErrToolNotFound = errors.New("tool not found")

	// ErrUnexpectedStderr is returned when a read-only call wrote to stderr.
	ErrUnexpectedStderr = errors.New("unexpected output on error stream")

	// ErrAlreadyExists and ErrNotFound are wrapped by API backends so their
	// failures classify like the CLI ones.
	ErrAlreadyExists = errors.New("resource already exists")
	ErrNotFound      = errors.New("resource not found")
)

// CommandError describes a failed external command.
type CommandError struct {
	Tool     string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

// NewCommandError builds a CommandError from a captured result.
func NewCommandError(tool string, args []string, res *Result, err error) *CommandError {
	ce := &CommandError{
		Tool: tool,
		Args: append([]string(nil), args...),
		Err:  err,
	}
	if res != nil {
		ce.ExitCode = res.ExitCode
		ce.Stderr = res.StderrText()
	}
	return ce
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Tool, strings.Join(e.Args, " "))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// IsAlreadyExists reports whether err is a command failure caused by the
// target resource already existing. Both bq and gcloud phrase it that way.
func IsAlreadyExists(err error) bool {
	if errors.Is(err, ErrAlreadyExists) {
		return true
	}
	var ce *CommandError
	if !errors.As(err, &ce) {
		return false
	}
	stderr := strings.ToLower(ce.Stderr)
	return strings.Contains(stderr, "already exists") ||
		strings.Contains(stderr, "already_exists") ||
		strings.Contains(stderr, "alreadyexists")
}

// IsNotFound reports whether err is a command failure caused by the target
// resource not existing.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var ce *CommandError
	if !errors.As(err, &ce) {
		return false
	}
	stderr := strings.ToLower(ce.Stderr)
	return strings.Contains(stderr, "not found") ||
		strings.Contains(stderr, "not_found") ||
		strings.Contains(stderr, "does not exist") ||
		strings.Contains(stderr, "404")
}
