package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/conclave-dev/conclave/internal/plan"
)

var (
	debateAgents    string
	debateRounds    int
	debateModerator string
)

var debateCmd = &cobra.Command{
	Use:   "debate [prompt]",
	Short: "Have agents debate a topic over several rounds",
	Long: `Agents state positions, then respond to each other round by round with
full visibility of the previous round. An optional moderator weighs the
final round and declares an outcome.

Examples:
  conclave debate --agents claude,gemini "monolith or microservices for a 5-person team"
  conclave debate --agents claude,gemini,codex --rounds 3 --moderator claude "rewrite or refactor"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDebate,
}

func init() {
	debateCmd.Flags().StringVar(&debateAgents, "agents", "", "Comma-separated debaters (required, at least 2)")
	debateCmd.Flags().IntVar(&debateRounds, "rounds", 2, "Number of rounds, including opening statements")
	debateCmd.Flags().StringVar(&debateModerator, "moderator", "", "Agent that judges the final round")
	debateCmd.MarkFlagRequired("agents")
}

func runDebate(cmd *cobra.Command, args []string) error {
	prompt, err := promptArg(args)
	if err != nil {
		return err
	}

	agents, err := plan.ParseAgents(debateAgents)
	if err != nil {
		return err
	}

	p, err := plan.BuildDebate(prompt, plan.Debate{
		Agents:    agents,
		Rounds:    debateRounds,
		Moderator: debateModerator,
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
