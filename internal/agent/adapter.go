// Package agent provides the uniform invocation contract for external LLM
// CLI agents, the thin process-spawning adapters behind it, the router that
// resolves auto agent selection, and the summarizer collaborator.
package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/conclave-dev/conclave/internal/exec"
	"github.com/conclave-dev/conclave/internal/tokens"
)

// RunOptions carries per-call options for an adapter invocation.
type RunOptions struct {
	// Model overrides the adapter's default model, when the CLI supports it.
	Model string
}

// Result is the outcome of one adapter invocation.
type Result struct {
	// Content is the agent's text output.
	Content string
	// Model is the model that produced the output, when known.
	Model string
	// Tokens is the estimated token count of the output.
	Tokens int
}

// Adapter is the uniform invocation contract for one agent integration.
// The executor and circuit breaker depend only on this interface.
type Adapter interface {
	// Name returns the agent name (claude, gemini, codex, ollama...).
	Name() string
	// Run sends a prompt to the agent and returns its output. The call
	// must honor ctx cancellation by killing the underlying process.
	Run(ctx context.Context, prompt string, opts RunOptions) (*Result, error)
	// IsAvailable reports whether the agent can be invoked at all.
	IsAvailable() bool
}

// InvokeError is an adapter failure, carrying captured stderr for display.
type InvokeError struct {
	// Agent is the adapter name.
	Agent string
	// Stderr is the trailing stderr output of the failed process.
	Stderr string
	// Err is the underlying process error.
	Err error
}

// Error implements error.
func (e *InvokeError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %v: %s", e.Agent, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", e.Agent, e.Err)
}

// Unwrap returns the underlying process error.
func (e *InvokeError) Unwrap() error { return e.Err }

// argsFunc shapes the command line (and optional stdin) for one CLI.
type argsFunc func(prompt, model string) (args []string, stdin string)

// CLIAdapter invokes an agent through its command-line binary. All
// adapters are this thin: spawn, capture stdout, trim, return.
type CLIAdapter struct {
	name         string
	binary       string
	defaultModel string
	runner       exec.CommandRunner
	args         argsFunc
}

// Name returns the agent name.
func (a *CLIAdapter) Name() string { return a.name }

// WithBinary overrides the CLI binary, for installs under a non-default
// command name. An empty override is ignored.
func (a *CLIAdapter) WithBinary(binary string) *CLIAdapter {
	if binary != "" {
		a.binary = binary
	}
	return a
}

// IsAvailable reports whether the agent binary is in PATH.
func (a *CLIAdapter) IsAvailable() bool {
	return a.runner.Available(a.binary)
}

// Run spawns the agent CLI with the prompt and returns its output.
func (a *CLIAdapter) Run(ctx context.Context, prompt string, opts RunOptions) (*Result, error) {
	model := opts.Model
	if model == "" {
		model = a.defaultModel
	}

	args, stdin := a.args(prompt, model)
	stdout, stderr, err := a.runner.OutputWithStdin(ctx, stdin, a.binary, args...)
	if err != nil {
		return nil, &InvokeError{
			Agent:  a.name,
			Stderr: lastStderrLines(stderr, 5),
			Err:    err,
		}
	}

	content := strings.TrimSpace(string(stdout))
	return &Result{
		Content: content,
		Model:   model,
		Tokens:  tokens.Estimate(content),
	}, nil
}

// lastStderrLines keeps the tail of stderr, which is where CLIs put the
// actual failure.
func lastStderrLines(stderr []byte, n int) string {
	s := strings.TrimSpace(string(stderr))
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// Registry holds the configured adapters by name.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry creates a registry over the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	m := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Name()] = a
	}
	return &Registry{adapters: m}
}

// Get returns the adapter for a name, or an error naming the known agents.
func (r *Registry) Get(name string) (Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("unknown agent %q (known: %s)", name, strings.Join(r.Names(), ", "))
	}
	return a, nil
}

// Names returns the registered agent names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
