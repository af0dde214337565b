package exec

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// ExecRunner implements CommandRunner using os/exec.
type ExecRunner struct{}

// NewRunner creates a new ExecRunner.
func NewRunner() *ExecRunner {
	return &ExecRunner{}
}

// Output executes a command and returns stdout and stderr separately.
func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	return r.OutputWithStdin(ctx, "", name, args...)
}

// OutputWithStdin executes a command with the given string piped to stdin.
func (r *ExecRunner) OutputWithStdin(ctx context.Context, stdin string, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Available reports whether the named binary is in PATH.
func (r *ExecRunner) Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// Verify ExecRunner implements CommandRunner at compile time.
var _ CommandRunner = (*ExecRunner)(nil)
