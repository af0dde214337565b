package agent

import (
	"github.com/conclave-dev/conclave/internal/exec"
)

// NewClaude returns the adapter for the Claude Code CLI. The prompt goes
// through -p with --print so the CLI runs non-interactively.
func NewClaude(runner exec.CommandRunner, defaultModel string) *CLIAdapter {
	return &CLIAdapter{
		name:         "claude",
		binary:       "claude",
		defaultModel: defaultModel,
		runner:       runner,
		args: func(prompt, model string) ([]string, string) {
			args := []string{"--print"}
			if model != "" {
				args = append(args, "--model", model)
			}
			args = append(args, "-p", prompt)
			return args, ""
		},
	}
}

// NewGemini returns the adapter for the Gemini CLI.
func NewGemini(runner exec.CommandRunner, defaultModel string) *CLIAdapter {
	return &CLIAdapter{
		name:         "gemini",
		binary:       "gemini",
		defaultModel: defaultModel,
		runner:       runner,
		args: func(prompt, model string) ([]string, string) {
			var args []string
			if model != "" {
				args = append(args, "--model", model)
			}
			args = append(args, "-p", prompt)
			return args, ""
		},
	}
}

// NewCodex returns the adapter for the Codex CLI. codex exec reads the
// prompt as a positional argument and writes the final message to stdout.
func NewCodex(runner exec.CommandRunner, defaultModel string) *CLIAdapter {
	return &CLIAdapter{
		name:         "codex",
		binary:       "codex",
		defaultModel: defaultModel,
		runner:       runner,
		args: func(prompt, model string) ([]string, string) {
			args := []string{"exec"}
			if model != "" {
				args = append(args, "--model", model)
			}
			args = append(args, prompt)
			return args, ""
		},
	}
}

// NewOllama returns the adapter for a locally-hosted ollama server. The
// prompt is piped through stdin; the model is a required positional.
func NewOllama(runner exec.CommandRunner, defaultModel string) *CLIAdapter {
	if defaultModel == "" {
		defaultModel = "llama3.1"
	}
	return &CLIAdapter{
		name:         "ollama",
		binary:       "ollama",
		defaultModel: defaultModel,
		runner:       runner,
		args: func(prompt, model string) ([]string, string) {
			return []string{"run", model}, prompt
		},
	}
}
