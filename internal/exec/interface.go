// Package exec provides an interface for spawning agent CLI processes.
package exec

import (
	"context"
)

// CommandRunner defines the interface for invoking external agent CLIs.
// This abstraction allows faking process execution in tests.
type CommandRunner interface {
	// Output executes a command and returns stdout and stderr separately.
	// The command inherits the context: cancelling the context kills the
	// process, which is how in-flight agent calls are reclaimed.
	Output(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

	// OutputWithStdin is Output with the given string piped to stdin, for
	// CLIs that read their prompt from standard input.
	OutputWithStdin(ctx context.Context, stdin string, name string, args ...string) (stdout, stderr []byte, err error)

	// Available reports whether the named binary can be found in PATH.
	Available(name string) bool
}
