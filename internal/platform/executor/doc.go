// Package executor runs the external provisioning command-line tools.
//
// Each invocation is a single blocking call bounded by a timeout. The runner
// captures exit status, stdout and stderr; a non-zero exit becomes a
// *CommandError carrying the tool, its arguments and the captured stderr.
// Timeouts and missing binaries are reported as the distinguished sentinels
// ErrTimeout and ErrToolNotFound.
package executor
