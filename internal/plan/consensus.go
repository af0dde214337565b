package plan

import (
	"fmt"
	"strings"

	"github.com/conclave-dev/conclave/pkg/models"
)

// Consensus configures a propose/vote/synthesize plan.
type Consensus struct {
	// Agents each produce a proposal and vote in every round.
	Agents []string
	// MaxRounds is the number of voting rounds after the proposals.
	MaxRounds int
	// Synthesizer names the agent that writes the final answer. Defaults
	// to the first agent.
	Synthesizer string
}

// BuildConsensus builds one proposal step per agent, then MaxRounds voting
// rounds where every agent sees the previous round's full set, then a
// synthesis step that folds the last round into one answer.
func BuildConsensus(prompt string, cfg Consensus) (*models.Plan, error) {
	if len(cfg.Agents) < 2 {
		return nil, fmt.Errorf("consensus plan: need at least 2 agents, got %d", len(cfg.Agents))
	}
	if cfg.MaxRounds < 1 {
		return nil, fmt.Errorf("consensus plan: need at least 1 voting round, got %d", cfg.MaxRounds)
	}
	synthesizer := cfg.Synthesizer
	if synthesizer == "" {
		synthesizer = cfg.Agents[0]
	}

	steps := make([]*models.Step, 0, len(cfg.Agents)*(cfg.MaxRounds+1)+1)

	proposalIDs := make([]string, 0, len(cfg.Agents))
	for _, agent := range cfg.Agents {
		id := agent + "_proposal"
		proposalIDs = append(proposalIDs, id)
		steps = append(steps, &models.Step{
			ID:       id,
			Agent:    models.ExplicitAgent(agent),
			Action:   "propose",
			Prompt:   fmt.Sprintf("Propose an answer to the following. Be concrete; other assistants will vote on the proposals.\n\n%s", prompt),
			OutputAs: id,
		})
	}

	prevIDs := proposalIDs
	for round := 1; round <= cfg.MaxRounds; round++ {
		roundIDs := make([]string, 0, len(cfg.Agents))
		for _, agent := range cfg.Agents {
			id := fmt.Sprintf("%s_vote_round%d", agent, round)
			roundIDs = append(roundIDs, id)
			steps = append(steps, &models.Step{
				ID:        id,
				Agent:     models.ExplicitAgent(agent),
				Action:    "vote",
				Prompt:    votePrompt(prompt, round, prevIDs),
				DependsOn: prevIDs,
				OutputAs:  id,
			})
		}
		prevIDs = roundIDs
	}

	steps = append(steps, &models.Step{
		ID:        "synthesis",
		Agent:     models.ExplicitAgent(synthesizer),
		Action:    "synthesize",
		Prompt:    synthesisPrompt(prompt, prevIDs),
		DependsOn: prevIDs,
	})

	return newPlan(models.ModeConsensus, prompt, steps)
}

// votePrompt shows a voter the full previous round.
func votePrompt(prompt string, round int, prevIDs []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Voting round %d on this request:\n%s\n\nCurrent positions:\n\n", round, prompt)
	for _, id := range prevIDs {
		fmt.Fprintf(&b, "%s:\n{{%s}}\n\n", id, id)
	}
	b.WriteString("State which position you support and why, or propose a merged position if the differences are reconcilable.")
	return b.String()
}

func synthesisPrompt(prompt string, prevIDs []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The following positions emerged on this request:\n%s\n\n", prompt)
	for _, id := range prevIDs {
		fmt.Fprintf(&b, "%s:\n{{%s}}\n\n", id, id)
	}
	b.WriteString("Write the single consensus answer, resolving any remaining disagreement explicitly.")
	return b.String()
}
