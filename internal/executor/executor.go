package executor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/conclave-dev/conclave/internal/agent"
	"github.com/conclave-dev/conclave/internal/breaker"
	"github.com/conclave-dev/conclave/internal/tokens"
	"github.com/conclave-dev/conclave/pkg/models"
)

// DefaultMaxParallel bounds concurrent agent calls when the caller does not
// configure a limit.
const DefaultMaxParallel = 3

// BeforeStepFunc gates a step before it is launched. Returning false skips
// the step without touching its breaker. results holds everything recorded
// so far, in completion order.
type BeforeStepFunc func(step *models.Step, index int, results []models.StepResult) bool

// Options configures one Executor.
type Options struct {
	// MaxParallel bounds concurrent in-flight agent calls. Zero means
	// DefaultMaxParallel.
	MaxParallel int
	// DefaultTimeout bounds each agent call. Zero means no timeout.
	DefaultTimeout time.Duration
	// Timeouts overrides DefaultTimeout per agent name.
	Timeouts map[string]time.Duration
	// Models overrides the default model per agent name.
	Models map[string]string
	// ContextLimits overrides the per-agent context window, in tokens.
	ContextLimits map[string]int
	// OnBeforeStep, when set, is consulted before every launch. It runs on
	// the scheduler goroutine, so a blocking prompt pauses scheduling.
	OnBeforeStep BeforeStepFunc
	// OnEvent, when set, observes every emitted event synchronously.
	OnEvent func(Event)
}

// Executor runs plans. It owns no per-run state; one Executor serves any
// number of sequential or concurrent runs.
type Executor struct {
	adapters *agent.Registry
	breakers *breaker.Registry
	router   agent.Router
	emitter  *EventEmitter
	opts     Options
}

// New creates an Executor. The emitter may be nil when no subscriber wants
// progress events.
func New(adapters *agent.Registry, breakers *breaker.Registry, router agent.Router, emitter *EventEmitter, opts Options) *Executor {
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = DefaultMaxParallel
	}
	return &Executor{
		adapters: adapters,
		breakers: breakers,
		router:   router,
		emitter:  emitter,
		opts:     opts,
	}
}

// stepCompletion carries a finished agent call back to the scheduler loop.
type stepCompletion struct {
	step   *models.Step
	result models.StepResult
}

// Execute runs every step of the plan, honoring dependencies, conditions,
// the parallelism bound, and per-agent circuit breakers. It returns one
// result per step. The only error return is a structurally invalid plan.
func (e *Executor) Execute(ctx context.Context, plan *models.Plan) (*models.ExecutionResult, error) {
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}

	start := time.Now()
	ec := NewContext()
	completions := make(chan stepCompletion, len(plan.Steps))

	launched := make(map[string]bool, len(plan.Steps))
	inFlight := 0
	cancelled := false

	for len(ec.Results()) < len(plan.Steps) {
		if !cancelled {
			inFlight += e.launchReady(ctx, plan, ec, launched, inFlight, completions)
		}

		if inFlight == 0 {
			if cancelled || len(ec.Results()) < len(plan.Steps) {
				e.recordUnstarted(ctx, plan, ec, launched)
			}
			break
		}

		select {
		case done := <-completions:
			inFlight--
			e.record(done.step, done.result, ec)
		case <-ctx.Done():
			cancelled = true
			// Workers see the same ctx and abort; drain them.
			for inFlight > 0 {
				done := <-completions
				inFlight--
				e.record(done.step, done.result, ec)
			}
		}
	}

	result := &models.ExecutionResult{
		Status:      runStatus(ctx, ec.Results()),
		Results:     ec.Results(),
		FinalOutput: finalOutput(plan, ec),
		Duration:    time.Since(start),
	}
	return result, nil
}

// launchReady walks the plan in definition order and starts every step
// whose dependencies are terminal, up to the parallelism bound. Steps that
// resolve to an immediate result (failed dependency, false condition, user
// skip, bad template) are recorded inline without consuming a slot. It
// returns how many workers were started.
func (e *Executor) launchReady(ctx context.Context, plan *models.Plan, ec *Context, launched map[string]bool, inFlight int, completions chan<- stepCompletion) int {
	started := 0
	for idx, step := range plan.Steps {
		if inFlight+started >= e.opts.MaxParallel {
			break
		}
		if launched[step.ID] || ec.ResultFor(step.ID) != nil {
			continue
		}
		if !ec.DependenciesSatisfied(step) {
			continue
		}

		if dep, failed := ec.AnyDependencyFailed(step); failed {
			launched[step.ID] = true
			e.record(step, models.StepResult{
				StepID: step.ID,
				Err:    fmt.Errorf("dependency %q did not produce output", dep),
			}, ec)
			continue
		}

		if step.Condition != "" {
			ok, err := EvalCondition(step.Condition, ec.Vars())
			if err != nil {
				launched[step.ID] = true
				e.record(step, models.StepResult{
					StepID: step.ID,
					Err:    fmt.Errorf("condition: %w", err),
				}, ec)
				continue
			}
			if !ok {
				launched[step.ID] = true
				e.record(step, models.StepResult{
					StepID:     step.ID,
					Skipped:    true,
					SkipReason: "condition false",
				}, ec)
				continue
			}
		}

		prompt, err := ResolveTemplate(step.Prompt, ec.Vars())
		if err != nil {
			launched[step.ID] = true
			e.record(step, models.StepResult{StepID: step.ID, Err: err}, ec)
			continue
		}

		if e.opts.OnBeforeStep != nil && !e.opts.OnBeforeStep(step, idx, ec.Results()) {
			launched[step.ID] = true
			e.record(step, models.StepResult{
				StepID:     step.ID,
				Skipped:    true,
				SkipReason: "skipped by user",
			}, ec)
			continue
		}

		agentName, err := e.resolveAgent(ctx, step, prompt)
		if err != nil {
			launched[step.ID] = true
			e.record(step, models.StepResult{StepID: step.ID, Err: err}, ec)
			continue
		}

		launched[step.ID] = true
		started++
		e.emit(Event{Type: EventStepStarted, StepID: step.ID, Agent: agentName, Action: step.Action})
		go e.runStep(ctx, step, agentName, prompt, completions)
	}
	return started
}

// resolveAgent returns the concrete agent for a step, consulting the router
// for auto references.
func (e *Executor) resolveAgent(ctx context.Context, step *models.Step, prompt string) (string, error) {
	if !step.Agent.IsAuto() {
		return step.Agent.Name(), nil
	}
	name, err := e.router.Resolve(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("auto agent selection: %w", err)
	}
	log.Printf("[executor] step %s: auto resolved to %s", step.ID, name)
	return name, nil
}

// runStep performs one agent call on a worker goroutine, routed through the
// agent's circuit breaker and bounded by the per-agent timeout.
func (e *Executor) runStep(ctx context.Context, step *models.Step, agentName, prompt string, completions chan<- stepCompletion) {
	started := time.Now()

	result := models.StepResult{StepID: step.ID}

	adapter, err := e.adapters.Get(agentName)
	if err != nil {
		result.Err = err
		result.Duration = time.Since(started)
		completions <- stepCompletion{step: step, result: result}
		return
	}

	callCtx := ctx
	if timeout := e.timeoutFor(agentName); timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	model := e.opts.Models[agentName]
	// Last line of defense against a prompt that outgrew the agent's
	// window through variable injection.
	prompt = tokens.TruncateForAgent(prompt, agentName, model, e.opts.ContextLimits[agentName])

	b := e.breakers.Get(agentName)
	err = b.Execute(callCtx, func(callCtx context.Context) error {
		out, runErr := adapter.Run(callCtx, prompt, agent.RunOptions{Model: model})
		if runErr != nil {
			return runErr
		}
		result.Content = out.Content
		result.Model = out.Model
		return nil
	})
	if err != nil {
		result.Err = err
	}

	result.Duration = time.Since(started)
	completions <- stepCompletion{step: step, result: result}
}

// record stores a result on the context and emits the matching event.
func (e *Executor) record(step *models.Step, result models.StepResult, ec *Context) {
	ec.AddResult(step, result)

	switch {
	case result.Err != nil:
		e.emit(Event{
			Type:     EventStepError,
			StepID:   step.ID,
			Agent:    step.Agent.String(),
			Action:   step.Action,
			Err:      result.Err,
			Message:  result.Err.Error(),
			Duration: result.Duration,
		})
	case result.Skipped:
		e.emit(Event{
			Type:    EventStepCompleted,
			StepID:  step.ID,
			Agent:   step.Agent.String(),
			Action:  step.Action,
			Message: result.SkipReason,
		})
	default:
		e.emit(Event{
			Type:     EventStepCompleted,
			StepID:   step.ID,
			Agent:    step.Agent.String(),
			Action:   step.Action,
			Duration: result.Duration,
		})
	}
}

// recordUnstarted marks every step that never launched. After a
// cancellation these carry the context error; in a healthy run reaching
// here with unstarted steps cannot happen with a validated plan.
func (e *Executor) recordUnstarted(ctx context.Context, plan *models.Plan, ec *Context, launched map[string]bool) {
	for _, step := range plan.Steps {
		if launched[step.ID] || ec.ResultFor(step.ID) != nil {
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = fmt.Errorf("step %q never became ready", step.ID)
		}
		e.record(step, models.StepResult{
			StepID: step.ID,
			Err:    fmt.Errorf("not started: %w", err),
		}, ec)
	}
}

func (e *Executor) timeoutFor(agentName string) time.Duration {
	if t, ok := e.opts.Timeouts[agentName]; ok {
		return t
	}
	return e.opts.DefaultTimeout
}

func (e *Executor) emit(event Event) {
	if e.opts.OnEvent != nil {
		e.opts.OnEvent(event)
	}
	if e.emitter != nil {
		e.emitter.Emit(event)
	}
}

// runStatus derives the overall run status from the context state and the
// per-step results.
func runStatus(ctx context.Context, results []models.StepResult) models.Status {
	if ctx.Err() != nil {
		return models.StatusCancelled
	}
	for _, r := range results {
		if r.Err != nil {
			return models.StatusFailed
		}
	}
	return models.StatusCompleted
}

// finalOutput returns the content of the last step in plan order that
// produced usable output.
func finalOutput(plan *models.Plan, ec *Context) string {
	for i := len(plan.Steps) - 1; i >= 0; i-- {
		if r := ec.ResultFor(plan.Steps[i].ID); r != nil && r.OK() && r.Content != "" {
			return r.Content
		}
	}
	return ""
}
