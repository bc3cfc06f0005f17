// Package retry provides bounded retry logic for generate-and-test loops.
//
// The [Do] function runs an operation up to a configured number of attempts,
// optionally sleeping between attempts with exponential backoff. Errors marked
// with [Fatal] stop the loop immediately. It is used by the dataset naming
// resolver, where the remote warehouse is the only authority on collisions.
package retry
