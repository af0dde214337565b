package plan

import (
	"fmt"
	"strings"

	"github.com/conclave-dev/conclave/pkg/models"
)

// Compare configures a compare plan: the same prompt across several agents.
type Compare struct {
	// Agents are the agent names to fan the prompt out to.
	Agents []string
	// Sequential chains the agent steps instead of running them in parallel.
	Sequential bool
	// Pick appends a judging step that chooses the best response.
	Pick bool
	// Picker names the agent that judges. Defaults to the first agent.
	Picker string
}

// BuildCompare builds one step per agent, all carrying the same prompt.
// With Sequential set, each step depends on the previous one; otherwise the
// steps are independent. With Pick set, a trailing step depends on every
// agent step and asks the picker to choose the best response.
func BuildCompare(prompt string, cfg Compare) (*models.Plan, error) {
	if len(cfg.Agents) == 0 {
		return nil, fmt.Errorf("compare plan: no agents given")
	}

	steps := make([]*models.Step, 0, len(cfg.Agents)+1)
	for i, agent := range cfg.Agents {
		step := &models.Step{
			ID:       agent + "_response",
			Agent:    models.ExplicitAgent(agent),
			Action:   "generate",
			Prompt:   prompt,
			OutputAs: agent + "_response",
		}
		if cfg.Sequential && i > 0 {
			step.DependsOn = []string{cfg.Agents[i-1] + "_response"}
		}
		steps = append(steps, step)
	}

	if cfg.Pick {
		picker := cfg.Picker
		if picker == "" {
			picker = cfg.Agents[0]
		}
		steps = append(steps, pickStep(prompt, cfg.Agents, picker))
	}

	return newPlan(models.ModeCompare, prompt, steps)
}

// pickStep builds the judging step: it sees every agent's response and
// must quote the best one.
func pickStep(prompt string, agents []string, picker string) *models.Step {
	var b strings.Builder
	fmt.Fprintf(&b, "Several assistants answered this request:\n%s\n\n", prompt)
	deps := make([]string, 0, len(agents))
	for _, agent := range agents {
		fmt.Fprintf(&b, "Response from %s:\n{{%s_response}}\n\n", agent, agent)
		deps = append(deps, agent+"_response")
	}
	b.WriteString("Pick the single best response. Quote it in full, then explain your choice in one short paragraph.")

	return &models.Step{
		ID:        "pick",
		Agent:     models.ExplicitAgent(picker),
		Action:    "pick",
		Prompt:    b.String(),
		DependsOn: deps,
	}
}
