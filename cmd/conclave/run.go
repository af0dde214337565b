package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/conclave-dev/conclave/internal/plan"
	"github.com/conclave-dev/conclave/pkg/models"
)

var (
	runAgent  string
	runSystem string
	runFiles  []string
)

var runCmd = &cobra.Command{
	Use:   "run [prompt]",
	Short: "Run a prompt on a single agent",
	Long: `Send a prompt to one agent and print its response.

With --agent auto (the default), the router picks an agent from the prompt:
code-heavy prompts go to codex, research prompts to gemini, everything else
to the configured default agent.

Attached files and a system instruction are packed into the agent's context
window; whatever does not fit is truncated, summarized, or dropped by
priority.

Examples:
  conclave run "explain the two-phase commit protocol"
  conclave run --agent claude "write a limerick about RAID arrays"
  conclave run --agent codex --file main.go "find the race condition"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runAgent, "agent", "auto", "Agent to run (claude, gemini, codex, ollama, auto)")
	runCmd.Flags().StringVar(&runSystem, "system", "", "System instruction prepended to the prompt")
	runCmd.Flags().StringArrayVar(&runFiles, "file", nil, "File to attach as code context (repeatable)")
}

func runRun(cmd *cobra.Command, args []string) error {
	prompt, err := promptArg(args)
	if err != nil {
		return err
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	ctx := context.Background()

	ref := models.AutoAgent()
	packFor := rt.cfg.DefaultAgent
	if runAgent != "" && runAgent != "auto" {
		ref = models.ExplicitAgent(runAgent)
		packFor = runAgent
	}

	assembled, err := rt.assemblePrompt(ctx, packFor, prompt, runSystem, runFiles)
	if err != nil {
		return err
	}

	p, err := plan.Single(assembled, ref)
	if err != nil {
		return err
	}

	_, err = rt.executePlan(ctx, p)
	return err
}
