package window

// Action is what happens to an item that does not fit the remaining budget.
type Action string

const (
	// ActionTruncate cuts the item to the remaining budget, never drops it.
	ActionTruncate Action = "truncate"
	// ActionSummarize compresses the item through the summarizer and
	// retags it as a summary.
	ActionSummarize Action = "summarize"
	// ActionDrop discards the item.
	ActionDrop Action = "drop"
)

// Policy maps priority ranges to eviction actions. It is an explicit table
// rather than nested conditionals so the rule is independently testable.
type Policy struct {
	// TruncateAt is the priority at or above which items are truncated
	// instead of dropped.
	TruncateAt int
	// SummarizeAt is the priority at or above which items are summarized,
	// when a summarizer is available and the agent prefers summaries.
	SummarizeAt int
}

// DefaultPolicy truncates priority 8+ and summarizes priority 5-7.
func DefaultPolicy() Policy {
	return Policy{TruncateAt: 8, SummarizeAt: 5}
}

// ActionFor returns the action for an over-budget item. canSummarize is
// whether the summarize tier applies at all for this agent and run.
func (p Policy) ActionFor(priority int, canSummarize bool) Action {
	switch {
	case priority >= p.TruncateAt:
		return ActionTruncate
	case canSummarize && priority >= p.SummarizeAt:
		return ActionSummarize
	default:
		return ActionDrop
	}
}
