package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/conclave-dev/conclave/internal/plan"
)

var (
	compareAgents     string
	compareSequential bool
	comparePick       bool
	comparePicker     string
)

var compareCmd = &cobra.Command{
	Use:   "compare [prompt]",
	Short: "Run the same prompt across several agents",
	Long: `Fan one prompt out to several agents and show every response side by
side. Agents run concurrently unless --sequential is set.

With --pick, a judging step sees all responses and quotes the best one; the
judge defaults to the first agent and can be overridden with --picker.

Examples:
  conclave compare --agents claude,gemini "why is the sky blue"
  conclave compare --agents claude,gemini,codex --pick --picker codex "name this function"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&compareAgents, "agents", "", "Comma-separated agents to compare (required)")
	compareCmd.Flags().BoolVar(&compareSequential, "sequential", false, "Run agents one after another")
	compareCmd.Flags().BoolVar(&comparePick, "pick", false, "Add a judging step that picks the best response")
	compareCmd.Flags().StringVar(&comparePicker, "picker", "", "Agent that judges (defaults to the first agent)")
	compareCmd.MarkFlagRequired("agents")
}

func runCompare(cmd *cobra.Command, args []string) error {
	prompt, err := promptArg(args)
	if err != nil {
		return err
	}

	agents, err := plan.ParseAgents(compareAgents)
	if err != nil {
		return err
	}

	p, err := plan.BuildCompare(prompt, plan.Compare{
		Agents:     agents,
		Sequential: compareSequential,
		Pick:       comparePick,
		Picker:     comparePicker,
	})
	if err != nil {
		return err
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	_, err = rt.executePlan(context.Background(), p)
	return err
}
