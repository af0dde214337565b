// Package tokens provides character-based token estimation, per-agent
// context limits, and boundary-aware truncation for prompt budgeting.
package tokens

// CharsPerToken is the estimation ratio: roughly four characters per token
// for English prose and code. Good enough for budgeting without pulling in
// a model-specific tokenizer.
const CharsPerToken = 4

// Estimate returns an approximate token count for the given text.
// Non-empty text always counts as at least one token.
func Estimate(text string) int {
	if len(text) == 0 {
		return 0
	}
	n := len(text) / CharsPerToken
	if n < 1 {
		return 1
	}
	return n
}

// CharBudget converts a token budget into a character budget using the
// same ratio Estimate uses, so the two stay consistent.
func CharBudget(tokenBudget int) int {
	if tokenBudget <= 0 {
		return 0
	}
	return tokenBudget * CharsPerToken
}
