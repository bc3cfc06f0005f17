package executor

import (
	"context"
	"strconv"
	"strings"
	"sync"
)

// Call is one recorded invocation of a FakeRunner.
type Call struct {
	Tool string
	Args []string
}

// String renders the call as a command line.
func (c Call) String() string {
	if len(c.Args) == 0 {
		return c.Tool
	}
	return c.Tool + " " + strings.Join(c.Args, " ")
}

// Responder produces the outcome of a fake call.
type Responder func(call Call) (*Result, error)

type rule struct {
	prefix  string
	respond Responder
}

// FakeRunner is an in-memory Runner for tests. Calls are matched against
// registered command-line prefixes; the most recently registered match wins
// and unmatched calls succeed with empty output.
type FakeRunner struct {
	mu    sync.Mutex
	calls []Call
	rules []rule
}

// NewFakeRunner creates an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{}
}

// On registers a responder for calls whose command line starts with prefix.
func (f *FakeRunner) On(prefix string, respond Responder) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, rule{prefix: prefix, respond: respond})
	return f
}

// Run implements Runner.
func (f *FakeRunner) Run(ctx context.Context, tool string, args ...string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	call := Call{Tool: tool, Args: append([]string(nil), args...)}
	line := call.String()

	f.mu.Lock()
	f.calls = append(f.calls, call)
	var respond Responder
	for i := len(f.rules) - 1; i >= 0; i-- {
		if strings.HasPrefix(line, f.rules[i].prefix) {
			respond = f.rules[i].respond
			break
		}
	}
	f.mu.Unlock()

	if respond == nil {
		return &Result{}, nil
	}
	return respond(call)
}

// Calls returns a copy of all recorded calls in order.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsMatching returns recorded calls whose command line starts with prefix.
func (f *FakeRunner) CallsMatching(prefix string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if strings.HasPrefix(c.String(), prefix) {
			out = append(out, c)
		}
	}
	return out
}

// Succeed responds with exit code 0 and the given stdout.
func Succeed(stdout string) Responder {
	return func(Call) (*Result, error) {
		return &Result{Stdout: []byte(stdout)}, nil
	}
}

// SucceedWithStderr responds with exit code 0 and output on both streams.
func SucceedWithStderr(stdout, stderr string) Responder {
	return func(Call) (*Result, error) {
		return &Result{Stdout: []byte(stdout), Stderr: []byte(stderr)}, nil
	}
}

// Fail responds like a command that exited with exitCode and wrote stderr.
func Fail(exitCode int, stderr string) Responder {
	return func(call Call) (*Result, error) {
		res := &Result{ExitCode: exitCode, Stderr: []byte(stderr)}
		return res, NewCommandError(call.Tool, call.Args, res, errExitStatus(exitCode))
	}
}

// Sequence uses each responder once, in order, and repeats the last one.
func Sequence(responders ...Responder) Responder {
	var mu sync.Mutex
	next := 0
	return func(call Call) (*Result, error) {
		mu.Lock()
		r := responders[next]
		if next < len(responders)-1 {
			next++
		}
		mu.Unlock()
		return r(call)
	}
}

type exitStatusError int

func (e exitStatusError) Error() string {
	return "exit status " + strconv.Itoa(int(e))
}

func errExitStatus(code int) error {
	return exitStatusError(code)
}
