package window

// Verbosity selects how the final prompt is rendered.
type Verbosity string

const (
	// VerbosityMinimal concatenates system, code, and the current task only.
	VerbosityMinimal Verbosity = "minimal"
	// VerbosityBalanced wraps each non-empty group in a named block.
	VerbosityBalanced Verbosity = "balanced"
	// VerbosityVerbose is balanced plus raw history.
	VerbosityVerbose Verbosity = "verbose"
)

// Rules are the per-agent packing preferences.
type Rules struct {
	// MaxHistoryItems caps how many history items survive, keeping the
	// most recent.
	MaxHistoryItems int
	// PrefersSummaries enables the summarize tier for this agent.
	PrefersSummaries bool
	// Verbosity selects the rendering tier.
	Verbosity Verbosity
}

// defaultRules is the safe fallback for unknown agents.
var defaultRules = Rules{
	MaxHistoryItems:  10,
	PrefersSummaries: false,
	Verbosity:        VerbosityBalanced,
}

// agentRules is the static per-agent rule table. Code-centric agents get a
// lean prompt; large-window agents can afford raw history; the local agent
// leans on summaries to protect its small window.
var agentRules = map[string]Rules{
	"claude": {
		MaxHistoryItems:  10,
		PrefersSummaries: false,
		Verbosity:        VerbosityBalanced,
	},
	"gemini": {
		MaxHistoryItems:  25,
		PrefersSummaries: false,
		Verbosity:        VerbosityVerbose,
	},
	"codex": {
		MaxHistoryItems:  5,
		PrefersSummaries: false,
		Verbosity:        VerbosityMinimal,
	},
	"ollama": {
		MaxHistoryItems:  5,
		PrefersSummaries: true,
		Verbosity:        VerbosityMinimal,
	},
}

// RulesFor returns the packing rules for an agent, falling back to the
// defaults for unknown names.
func RulesFor(agent string) Rules {
	if r, ok := agentRules[agent]; ok {
		return r
	}
	return defaultRules
}
