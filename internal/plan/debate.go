package plan

import (
	"fmt"
	"strings"

	"github.com/conclave-dev/conclave/pkg/models"
)

// Debate configures a multi-round debate plan.
type Debate struct {
	// Agents are the debaters.
	Agents []string
	// Rounds is the total number of rounds, including the opening
	// statements.
	Rounds int
	// Moderator, when set, adds a trailing step that weighs the final
	// round and declares an outcome.
	Moderator string
}

// BuildDebate builds agents × rounds steps. Every step in round r depends
// on every agent's round r-1 step, so each debater sees the full previous
// round before responding. The optional moderator depends on the whole
// final round.
func BuildDebate(prompt string, cfg Debate) (*models.Plan, error) {
	if len(cfg.Agents) < 2 {
		return nil, fmt.Errorf("debate plan: need at least 2 agents, got %d", len(cfg.Agents))
	}
	if cfg.Rounds < 1 {
		return nil, fmt.Errorf("debate plan: need at least 1 round, got %d", cfg.Rounds)
	}

	steps := make([]*models.Step, 0, len(cfg.Agents)*cfg.Rounds+1)
	for round := 1; round <= cfg.Rounds; round++ {
		for _, agent := range cfg.Agents {
			step := &models.Step{
				ID:       roundID(agent, round),
				Agent:    models.ExplicitAgent(agent),
				Action:   "debate",
				OutputAs: roundID(agent, round),
			}
			if round == 1 {
				step.Prompt = fmt.Sprintf("You are %s in a debate between %s.\n\nTopic:\n%s\n\nGive your opening position.",
					agent, strings.Join(cfg.Agents, ", "), prompt)
			} else {
				step.DependsOn = roundIDs(cfg.Agents, round-1)
				step.Prompt = rebuttalPrompt(prompt, agent, cfg.Agents, round)
			}
			steps = append(steps, step)
		}
	}

	if cfg.Moderator != "" {
		steps = append(steps, &models.Step{
			ID:        "moderator",
			Agent:     models.ExplicitAgent(cfg.Moderator),
			Action:    "moderate",
			Prompt:    moderatorPrompt(prompt, cfg.Agents, cfg.Rounds),
			DependsOn: roundIDs(cfg.Agents, cfg.Rounds),
		})
	}

	return newPlan(models.ModeDebate, prompt, steps)
}

func roundID(agent string, round int) string {
	return fmt.Sprintf("%s_round%d", agent, round)
}

func roundIDs(agents []string, round int) []string {
	ids := make([]string, 0, len(agents))
	for _, agent := range agents {
		ids = append(ids, roundID(agent, round))
	}
	return ids
}

// rebuttalPrompt shows the debater every position from the previous round.
func rebuttalPrompt(prompt, agent string, agents []string, round int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, in round %d of a debate on:\n%s\n\nPositions from the previous round:\n\n", agent, round, prompt)
	for _, other := range agents {
		fmt.Fprintf(&b, "%s said:\n{{%s}}\n\n", other, roundID(other, round-1))
	}
	b.WriteString("Respond to the other positions and strengthen or revise your own.")
	return b.String()
}

func moderatorPrompt(prompt string, agents []string, finalRound int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You moderated a debate on:\n%s\n\nFinal positions:\n\n", prompt)
	for _, agent := range agents {
		fmt.Fprintf(&b, "%s:\n{{%s}}\n\n", agent, roundID(agent, finalRound))
	}
	b.WriteString("Summarize the strongest arguments and declare which position holds up best, with a short justification.")
	return b.String()
}
