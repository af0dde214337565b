package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/conclave-dev/conclave/internal/plan"
)

var (
	consensusAgents      string
	consensusMaxRounds   int
	consensusSynthesizer string
)

var consensusCmd = &cobra.Command{
	Use:   "consensus [prompt]",
	Short: "Drive agents to a consensus answer",
	Long: `Each agent proposes an answer, then all agents vote on the proposals for
a number of rounds, and a synthesizer folds the final round into one
consensus answer.

Examples:
  conclave consensus --agents claude,gemini,codex "pick a message queue for this workload"
  conclave consensus --agents claude,gemini --max-rounds 2 --synthesizer claude "naming: worker or runner"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConsensus,
}

func init() {
	consensusCmd.Flags().StringVar(&consensusAgents, "agents", "", "Comma-separated agents (required, at least 2)")
	consensusCmd.Flags().IntVar(&consensusMaxRounds, "max-rounds", 1, "Number of voting rounds")
	consensusCmd.Flags().StringVar(&consensusSynthesizer, "synthesizer", "", "Agent that writes the final answer (defaults to the first agent)")
	consensusCmd.MarkFlagRequired("agents")
}

func runConsensus(cmd *cobra.Command, args []string) error {
	prompt, err := promptArg(args)
	if err != nil {
		return err
	}

	agents, err := plan.ParseAgents(consensusAgents)
	if err != nil {
		return err
	}

	p, err := plan.BuildConsensus(prompt, plan.Consensus{
		Agents:      agents,
		MaxRounds:   consensusMaxRounds,
		Synthesizer: consensusSynthesizer,
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
