// Package executor runs execution plans: it schedules steps across a
// bounded worker pool, resolves prompt templates and step conditions
// against earlier outputs, and routes every agent call through its
// circuit breaker.
package executor

import (
	"github.com/conclave-dev/conclave/pkg/models"
)

// Context accumulates step results during one plan run and exposes the
// variables bound by OutputAs. It is mutated only by the scheduler loop,
// never by workers, so it needs no locking.
type Context struct {
	results []models.StepResult
	byID    map[string]*models.StepResult
	vars    map[string]string
}

// NewContext creates an empty execution context.
func NewContext() *Context {
	return &Context{
		byID: make(map[string]*models.StepResult),
		vars: make(map[string]string),
	}
}

// AddResult records a step result. When the step declares OutputAs and the
// result carries usable output, the content is bound as a variable.
func (c *Context) AddResult(step *models.Step, result models.StepResult) {
	c.results = append(c.results, result)
	c.byID[result.StepID] = &c.results[len(c.results)-1]
	// Re-point earlier entries; append may have moved the backing array.
	for i := range c.results {
		c.byID[c.results[i].StepID] = &c.results[i]
	}
	if step.OutputAs != "" && result.OK() {
		c.vars[step.OutputAs] = result.Content
	}
}

// Results returns the recorded results in completion order.
func (c *Context) Results() []models.StepResult {
	return c.results
}

// ResultFor returns the recorded result for a step id, or nil.
func (c *Context) ResultFor(stepID string) *models.StepResult {
	return c.byID[stepID]
}

// Vars returns the bound variable map.
func (c *Context) Vars() map[string]string {
	return c.vars
}

// DependenciesSatisfied reports whether every dependency of the step has a
// recorded result.
func (c *Context) DependenciesSatisfied(step *models.Step) bool {
	for _, dep := range step.DependsOn {
		if _, ok := c.byID[dep]; !ok {
			return false
		}
	}
	return true
}

// AnyDependencyFailed returns the id of the first dependency that errored
// or was skipped, and whether one exists. A skipped dependency counts as
// failed for scheduling: its output never materialized.
func (c *Context) AnyDependencyFailed(step *models.Step) (string, bool) {
	for _, dep := range step.DependsOn {
		if r, ok := c.byID[dep]; ok && !r.OK() {
			return dep, true
		}
	}
	return "", false
}
