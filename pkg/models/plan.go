// Package models defines the core data types shared across Conclave:
// execution plans, plan steps, step results, and run outcomes.
package models

import (
	"fmt"
	"time"
)

// PlanMode identifies the high-level shape of a plan.
type PlanMode string

const (
	// ModeSingle is a one-step plan for a single agent.
	ModeSingle PlanMode = "single"
	// ModeCompare runs the same prompt across several agents.
	ModeCompare PlanMode = "compare"
	// ModePipeline chains agents so each stage consumes the previous output.
	ModePipeline PlanMode = "pipeline"
	// ModeCorrection runs a producer, a reviewer, and an optional fix pass.
	ModeCorrection PlanMode = "correction"
	// ModeDebate runs multiple agents over several rounds with full visibility.
	ModeDebate PlanMode = "debate"
	// ModeConsensus runs proposals, voting rounds, and a synthesis step.
	ModeConsensus PlanMode = "consensus"
)

// AgentRef names the agent that should run a step. It is either an explicit
// agent name or the auto marker, which the executor resolves through the
// router once per step at run time.
type AgentRef struct {
	name string
	auto bool
}

// ExplicitAgent returns a reference to a concretely named agent.
func ExplicitAgent(name string) AgentRef {
	return AgentRef{name: name}
}

// AutoAgent returns a reference that defers agent selection to the router.
func AutoAgent() AgentRef {
	return AgentRef{auto: true}
}

// IsAuto reports whether this reference defers selection to the router.
func (r AgentRef) IsAuto() bool { return r.auto }

// Name returns the explicit agent name. It is empty for auto references.
func (r AgentRef) Name() string { return r.name }

// String returns "auto" for auto references, otherwise the agent name.
func (r AgentRef) String() string {
	if r.auto {
		return "auto"
	}
	return r.name
}

// Step is one agent invocation within a plan. Steps are created once by a
// builder and consumed exactly once by the executor.
type Step struct {
	// ID is the unique identifier of this step within its plan.
	ID string `json:"id"`
	// Agent names the agent to run, or the auto marker.
	Agent AgentRef `json:"-"`
	// Action is a short verb describing the work (generate, review, vote...).
	Action string `json:"action"`
	// Prompt is a template; {{name}} placeholders are resolved against
	// variables bound by earlier steps before the agent is invoked.
	Prompt string `json:"prompt"`
	// DependsOn lists step IDs that must be terminal before this step runs.
	DependsOn []string `json:"depends_on,omitempty"`
	// OutputAs, when set, binds this step's content to a named variable.
	OutputAs string `json:"output_as,omitempty"`
	// Condition is an optional boolean expression over bound variables.
	// An absent condition always evaluates to true.
	Condition string `json:"condition,omitempty"`
}

// Plan is an immutable DAG of steps. Every DependsOn entry refers to an
// earlier-defined step id, which rules out forward references and cycles.
type Plan struct {
	// ID uniquely identifies the plan.
	ID string `json:"id"`
	// Mode is the plan shape that produced these steps.
	Mode PlanMode `json:"mode"`
	// Prompt is the original user prompt the plan was built from.
	Prompt string `json:"prompt"`
	// Steps are the plan steps in definition order.
	Steps []*Step `json:"steps"`
	// CreatedAt is when the plan was built.
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the structural invariants of the plan: step ids are
// unique and every dependency references an earlier-defined step. These are
// builder defects, caught at build time, never at run time.
func (p *Plan) Validate() error {
	if len(p.Steps) == 0 {
		return fmt.Errorf("plan %s has no steps", p.ID)
	}
	seen := make(map[string]bool, len(p.Steps))
	for _, step := range p.Steps {
		if step.ID == "" {
			return fmt.Errorf("plan %s contains a step with an empty id", p.ID)
		}
		if seen[step.ID] {
			return fmt.Errorf("duplicate step id %q", step.ID)
		}
		for _, dep := range step.DependsOn {
			if !seen[dep] {
				return fmt.Errorf("step %q depends on %q, which is not defined earlier in the plan", step.ID, dep)
			}
		}
		seen[step.ID] = true
	}
	return nil
}

// StepByID returns the step with the given id, or nil.
func (p *Plan) StepByID(id string) *Step {
	for _, s := range p.Steps {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// StepResult is the outcome of one step. Every step, including skipped
// ones, produces exactly one result so downstream variable resolution never
// has a gap.
type StepResult struct {
	// StepID identifies the step this result belongs to.
	StepID string `json:"step_id"`
	// Content is the agent output, empty on error or skip.
	Content string `json:"content,omitempty"`
	// Err is the failure, nil on success or skip.
	Err error `json:"-"`
	// Skipped is true when the step was never attempted: its condition
	// evaluated false, or the user declined it interactively.
	Skipped bool `json:"skipped,omitempty"`
	// SkipReason explains a skip for display.
	SkipReason string `json:"skip_reason,omitempty"`
	// Duration is how long the adapter call took.
	Duration time.Duration `json:"duration,omitempty"`
	// Model is the concrete model the adapter reported, if any.
	Model string `json:"model,omitempty"`
}

// OK reports whether the step produced usable output: it ran, did not
// error, and was not skipped.
func (r StepResult) OK() bool {
	return r.Err == nil && !r.Skipped
}

// Status is the overall outcome of one plan execution.
type Status string

const (
	// StatusCompleted means every step reached a terminal state without an
	// unrecovered error.
	StatusCompleted Status = "completed"
	// StatusFailed means at least one step errored.
	StatusFailed Status = "failed"
	// StatusCancelled means the run was aborted before all steps finished.
	StatusCancelled Status = "cancelled"
)

// ExecutionResult is the full outcome of running a plan: one result per
// step plus the overall status and the final output.
type ExecutionResult struct {
	// Status is the overall outcome.
	Status Status `json:"status"`
	// Results holds exactly one entry per plan step, in completion order.
	Results []StepResult `json:"results"`
	// FinalOutput is the content of the last successful step in plan order.
	FinalOutput string `json:"final_output,omitempty"`
	// Duration is the wall-clock time for the whole run.
	Duration time.Duration `json:"duration"`
}

// ResultFor returns the result recorded for a step id, or nil.
func (e *ExecutionResult) ResultFor(stepID string) *StepResult {
	for i := range e.Results {
		if e.Results[i].StepID == stepID {
			return &e.Results[i]
		}
	}
	return nil
}
