package plan

import (
	"fmt"

	"github.com/conclave-dev/conclave/pkg/models"
)

// Correction configures a producer/reviewer plan.
type Correction struct {
	// Producer generates the initial response and, optionally, the fix.
	Producer string
	// Reviewer critiques the producer's response.
	Reviewer string
	// FixAfterReview adds a third step where the producer revises its
	// response using the review.
	FixAfterReview bool
}

// BuildCorrection builds producer → reviewer → optional fix. The fix step
// is run by the producer, so the critique lands with the author.
func BuildCorrection(prompt string, cfg Correction) (*models.Plan, error) {
	if cfg.Producer == "" || cfg.Reviewer == "" {
		return nil, fmt.Errorf("correction plan: producer and reviewer are required")
	}

	steps := []*models.Step{
		{
			ID:       "produce",
			Agent:    models.ExplicitAgent(cfg.Producer),
			Action:   "generate",
			Prompt:   prompt,
			OutputAs: "draft",
		},
		{
			ID:     "review",
			Agent:  models.ExplicitAgent(cfg.Reviewer),
			Action: "review",
			Prompt: fmt.Sprintf("Review the following response to this request:\n%s\n\nResponse:\n{{draft}}\n\nList concrete problems and suggested fixes. If the response is already correct and complete, say so explicitly.",
				prompt),
			DependsOn: []string{"produce"},
			OutputAs:  "review",
		},
	}

	if cfg.FixAfterReview {
		steps = append(steps, &models.Step{
			ID:     "fix",
			Agent:  models.ExplicitAgent(cfg.Producer),
			Action: "fix",
			Prompt: "Revise your earlier response using the review below. Return only the revised response.\n\nYour response:\n{{draft}}\n\nReview:\n{{review}}",
			DependsOn: []string{
				"review",
			},
		})
	}

	return newPlan(models.ModeCorrection, prompt, steps)
}
