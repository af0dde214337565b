package agent

import (
	"context"
	"fmt"
	"strings"
)

// Router resolves an auto agent reference to a concrete agent name given
// the step's resolved prompt.
type Router interface {
	Resolve(ctx context.Context, prompt string) (string, error)
}

// Keywords that indicate a coding task, best served by a code-specialized
// agent.
var codeKeywords = []string{
	"code",
	"implement",
	"function",
	"refactor",
	"bug",
	"compile",
	"test",
	"debug",
	"script",
}

// Keywords that indicate long-document or research work, where a large
// context window matters more than code skill.
var researchKeywords = []string{
	"summarize",
	"research",
	"document",
	"analyze",
	"compare these",
	"read",
}

// KeywordRouter picks an agent by scanning the prompt for task keywords,
// falling back to a configured default. Only available agents are chosen.
type KeywordRouter struct {
	registry     *Registry
	defaultAgent string
}

// NewKeywordRouter creates a router over the given registry. defaultAgent
// is used when no keyword matches or the matched agent is unavailable.
func NewKeywordRouter(registry *Registry, defaultAgent string) *KeywordRouter {
	return &KeywordRouter{registry: registry, defaultAgent: defaultAgent}
}

// Resolve picks a concrete agent for the prompt.
func (r *KeywordRouter) Resolve(ctx context.Context, prompt string) (string, error) {
	text := strings.ToLower(prompt)

	for _, kw := range codeKeywords {
		if strings.Contains(text, kw) {
			if name, ok := r.pick("codex"); ok {
				return name, nil
			}
			break
		}
	}

	for _, kw := range researchKeywords {
		if strings.Contains(text, kw) {
			if name, ok := r.pick("gemini"); ok {
				return name, nil
			}
			break
		}
	}

	if name, ok := r.pick(r.defaultAgent); ok {
		return name, nil
	}

	// Default unavailable: take any available agent rather than failing
	// the step before it runs.
	for _, name := range r.registry.Names() {
		if name, ok := r.pick(name); ok {
			return name, nil
		}
	}

	return "", fmt.Errorf("no agent available to route to (default %q)", r.defaultAgent)
}

// pick returns the name if the agent is registered and available.
func (r *KeywordRouter) pick(name string) (string, bool) {
	a, err := r.registry.Get(name)
	if err != nil || !a.IsAvailable() {
		return "", false
	}
	return name, true
}

// Verify KeywordRouter implements Router at compile time.
var _ Router = (*KeywordRouter)(nil)
