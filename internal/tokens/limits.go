package tokens

import "strings"

// DefaultContextLimit is the conservative fallback when nothing better is
// known about an agent's context window.
const DefaultContextLimit = 32000

// hostedLimits holds fixed context windows for hosted CLI agents. These
// track the published limits of each vendor's current defaults.
var hostedLimits = map[string]int{
	"claude": 200000,
	"gemini": 1000000,
	"codex":  192000,
}

// ollamaModelLimits maps known local model families to their context
// lengths. Lookup is by longest prefix match on the model name with any
// ":tag" suffix stripped, so "llama3.1:8b-instruct" matches "llama3.1".
var ollamaModelLimits = map[string]int{
	"llama3.2":  131072,
	"llama3.1":  131072,
	"llama3":    8192,
	"llama2":    4096,
	"mistral":   32768,
	"mixtral":   32768,
	"qwen2.5":   131072,
	"qwen2":     32768,
	"codellama": 16384,
	"gemma2":    8192,
	"gemma":     8192,
	"phi3":      131072,
	"deepseek":  65536,
}

// ollamaDefaultLimit is used when a local model is not in the table.
const ollamaDefaultLimit = 4096

// LimitFor returns the context window (in tokens) for the given agent.
// An explicit override wins. Hosted agents have fixed limits. The ollama
// agent derives its limit from the configured model name; unknown models
// get a conservative default.
func LimitFor(agent, model string, override int) int {
	if override > 0 {
		return override
	}
	if agent == "ollama" {
		return ollamaLimit(model)
	}
	if limit, ok := hostedLimits[agent]; ok {
		return limit
	}
	return DefaultContextLimit
}

// ollamaLimit resolves a local model name to its context length using
// longest-prefix matching after stripping the ":tag" suffix.
func ollamaLimit(model string) int {
	if model == "" {
		return ollamaDefaultLimit
	}
	base := model
	if i := strings.Index(base, ":"); i >= 0 {
		base = base[:i]
	}
	base = strings.ToLower(base)

	bestLen := 0
	limit := ollamaDefaultLimit
	for prefix, l := range ollamaModelLimits {
		if strings.HasPrefix(base, prefix) && len(prefix) > bestLen {
			bestLen = len(prefix)
			limit = l
		}
	}
	return limit
}
