package tokens

import "strings"

// TruncationMarker is appended to any content cut by Truncate so readers
// (human or model) can tell the text is incomplete.
const TruncationMarker = "\n[...truncated]"

// sentenceEnders are the characters treated as sentence boundaries when no
// blank line is available.
var sentenceEnders = []string{". ", ".\n", "! ", "!\n", "? ", "?\n"}

// cutPoint finds a cut position at or before max, preferring a blank-line
// boundary past paraFloor*max, then a sentence boundary past sentFloor*max,
// then a hard cut at max. Truncate and Split share this rule so both cut
// text the same way.
func cutPoint(text string, max int, paraFloor, sentFloor float64) int {
	if max >= len(text) {
		return len(text)
	}
	window := text[:max]

	paraMin := int(float64(max) * paraFloor)
	if i := strings.LastIndex(window, "\n\n"); i >= paraMin {
		return i
	}

	sentMin := int(float64(max) * sentFloor)
	best := -1
	for _, end := range sentenceEnders {
		if i := strings.LastIndex(window, end); i >= 0 && i+1 > best {
			best = i + 1 // keep the punctuation
		}
	}
	if best >= sentMin {
		return best
	}

	return max
}

// Truncate cuts content to at most maxChars characters, preferring a blank
// line past 70% of the budget, then a sentence end past 80%, and appends
// TruncationMarker. The marker counts against the budget; budgets at or
// below the marker's own length get a bare hard cut, since the marker
// would displace all of the content.
func Truncate(content string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}
	if len(content) <= maxChars {
		return content
	}
	budget := maxChars - len(TruncationMarker)
	if budget <= 0 {
		return content[:maxChars]
	}
	cut := cutPoint(content, budget, 0.70, 0.80)
	return strings.TrimRight(content[:cut], " \n\t") + TruncationMarker
}

// TruncateForAgent cuts content to fit the agent's token budget, using the
// shared character ratio.
func TruncateForAgent(content string, agent, model string, overrideTokens int) string {
	limit := LimitFor(agent, model, overrideTokens)
	return Truncate(content, CharBudget(limit))
}

// Split breaks content into chunks of at most chunkChars characters each,
// preferring blank-line boundaries past 50% of the chunk size, then
// sentence boundaries past 50%, then hard cuts.
func Split(content string, chunkChars int) []string {
	if chunkChars <= 0 || content == "" {
		return nil
	}
	var chunks []string
	rest := content
	for len(rest) > chunkChars {
		cut := cutPoint(rest, chunkChars, 0.50, 0.50)
		if cut == 0 {
			cut = chunkChars
		}
		chunks = append(chunks, strings.TrimRight(rest[:cut], " \n\t"))
		rest = strings.TrimLeft(rest[cut:], " \n\t")
	}
	if rest != "" {
		chunks = append(chunks, rest)
	}
	return chunks
}
