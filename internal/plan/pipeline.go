package plan

import (
	"fmt"
	"strings"

	"github.com/conclave-dev/conclave/pkg/models"
)

// Stage is one pipeline stage: an agent performing a named action, with an
// optional prompt template. Without a template the stage prompt is derived
// from the action and the original request.
type Stage struct {
	// Agent is the agent name for this stage.
	Agent string
	// Action is the stage's verb (draft, review, refactor...).
	Action string
	// Prompt optionally overrides the derived stage prompt. It may
	// reference earlier stages via {{stage<n>_output}}.
	Prompt string
}

// BuildPipeline chains stages so stage i depends on stage i-1 and consumes
// its output. When a stage template does not already reference the previous
// stage's output variable, the reference is appended, so no stage can
// silently ignore its input.
func BuildPipeline(prompt string, stages []Stage) (*models.Plan, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("pipeline plan: no stages given")
	}

	steps := make([]*models.Step, 0, len(stages))
	for i, stage := range stages {
		if stage.Agent == "" {
			return nil, fmt.Errorf("pipeline plan: stage %d has no agent", i+1)
		}

		id := fmt.Sprintf("stage%d", i+1)
		step := &models.Step{
			ID:       id,
			Agent:    models.ExplicitAgent(stage.Agent),
			Action:   stage.Action,
			OutputAs: id + "_output",
		}

		if i == 0 {
			step.Prompt = stage.Prompt
			if step.Prompt == "" {
				step.Prompt = prompt
			}
		} else {
			prevVar := fmt.Sprintf("stage%d_output", i)
			step.DependsOn = []string{fmt.Sprintf("stage%d", i)}
			step.Prompt = stagePrompt(stage, prompt, prevVar)
		}

		steps = append(steps, step)
	}

	return newPlan(models.ModePipeline, prompt, steps)
}

// stagePrompt returns the template for a non-initial stage, guaranteeing a
// reference to the previous stage's output.
func stagePrompt(stage Stage, prompt, prevVar string) string {
	placeholder := "{{" + prevVar + "}}"
	if stage.Prompt != "" {
		if strings.Contains(stage.Prompt, placeholder) {
			return stage.Prompt
		}
		return stage.Prompt + "\n\n" + placeholder
	}
	return fmt.Sprintf("You handle the %q stage of a pipeline for this request:\n%s\n\nWork on the previous stage's output below.\n\n%s",
		stage.Action, prompt, placeholder)
}
