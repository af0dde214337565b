// Package plan builds execution plans: pure functions that turn a user
// prompt and a mode configuration into a validated DAG of steps. Builders
// never touch agents or the network; a returned plan is ready for the
// executor as-is.
package plan

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/conclave-dev/conclave/pkg/models"
)

// newPlan assembles and validates a plan. Validation failures here are
// builder defects, so they surface as errors for the tests to catch rather
// than panics.
func newPlan(mode models.PlanMode, prompt string, steps []*models.Step) (*models.Plan, error) {
	p := &models.Plan{
		ID:        uuid.New().String(),
		Mode:      mode,
		Prompt:    prompt,
		Steps:     steps,
		CreatedAt: time.Now(),
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("building %s plan: %w", mode, err)
	}
	return p, nil
}

// Single builds a one-step plan: the agent answers the prompt directly.
func Single(prompt string, agent models.AgentRef) (*models.Plan, error) {
	if prompt == "" {
		return nil, fmt.Errorf("single plan: prompt is empty")
	}
	steps := []*models.Step{
		{
			ID:     "response",
			Agent:  agent,
			Action: "generate",
			Prompt: prompt,
		},
	}
	return newPlan(models.ModeSingle, prompt, steps)
}
