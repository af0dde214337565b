package plan

import (
	"fmt"
	"strings"
)

// ParseError reports malformed shorthand input. Parsing never falls back
// silently; the user sees exactly what was wrong.
type ParseError struct {
	// Input is the full string being parsed.
	Input string
	// Message describes the defect.
	Message string
}

// Error implements error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %q: %s", e.Input, e.Message)
}

// ParseAgents parses the "claude,gemini,codex" shorthand into agent names.
func ParseAgents(input string) ([]string, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &ParseError{Input: input, Message: "empty agent list"}
	}

	parts := strings.Split(input, ",")
	agents := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for i, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			return nil, &ParseError{Input: input, Message: fmt.Sprintf("empty agent name at position %d", i+1)}
		}
		if seen[name] {
			return nil, &ParseError{Input: input, Message: fmt.Sprintf("duplicate agent %q", name)}
		}
		seen[name] = true
		agents = append(agents, name)
	}
	return agents, nil
}

// ParsePipeline parses the "claude:draft,gemini:review" shorthand into
// pipeline stages.
func ParsePipeline(input string) ([]Stage, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &ParseError{Input: input, Message: "empty pipeline"}
	}

	parts := strings.Split(input, ",")
	stages := make([]Stage, 0, len(parts))
	for i, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			return nil, &ParseError{Input: input, Message: fmt.Sprintf("empty stage at position %d", i+1)}
		}
		agent, action, found := strings.Cut(segment, ":")
		if !found {
			return nil, &ParseError{Input: input, Message: fmt.Sprintf("stage %q needs the agent:action form", segment)}
		}
		agent = strings.TrimSpace(agent)
		action = strings.TrimSpace(action)
		if agent == "" || action == "" {
			return nil, &ParseError{Input: input, Message: fmt.Sprintf("stage %q has an empty agent or action", segment)}
		}
		stages = append(stages, Stage{Agent: agent, Action: action})
	}
	return stages, nil
}
