package window

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/conclave-dev/conclave/internal/agent"
	"github.com/conclave-dev/conclave/internal/tokens"
)

// Options configures one Manager instance.
type Options struct {
	// MaxTokens is the target agent's context window.
	MaxTokens int
	// ReserveTokens is headroom held back for the agent's response.
	ReserveTokens int
	// IncludeHistory keeps history items; when false they are dropped
	// before packing.
	IncludeHistory bool
	// IncludeResults keeps prior-step result items.
	IncludeResults bool
	// Policy is the eviction policy; zero value means DefaultPolicy.
	Policy Policy
}

// Manager assembles a bounded prompt for one target agent. An instance is
// exclusively owned by one run and needs no locking.
type Manager struct {
	agentName  string
	rules      Rules
	opts       Options
	summarizer agent.Summarizer
	items      []Item
}

// NewManager creates a Manager for the named agent. rules typically come
// from RulesFor; a nil summarizer disables the summarize tier.
func NewManager(agentName string, rules Rules, opts Options, summarizer agent.Summarizer) *Manager {
	if opts.Policy == (Policy{}) {
		opts.Policy = DefaultPolicy()
	}
	if summarizer == nil {
		summarizer = agent.NoopSummarizer{}
	}
	return &Manager{
		agentName:  agentName,
		rules:      rules,
		opts:       opts,
		summarizer: summarizer,
	}
}

// AddItem appends one item, filling its token estimate if missing.
func (m *Manager) AddItem(item Item) {
	item.normalize()
	m.items = append(m.items, item)
}

// AddItems appends several items.
func (m *Manager) AddItems(items ...Item) {
	for _, it := range items {
		m.AddItem(it)
	}
}

// Budget returns the usable token budget after reserving response headroom.
func (m *Manager) Budget() int {
	b := m.opts.MaxTokens - m.opts.ReserveTokens
	if b < 0 {
		return 0
	}
	return b
}

// BuildContext selects, compresses, and renders the items into the final
// prompt text for the target agent, never exceeding Budget().
func (m *Manager) BuildContext(ctx context.Context) (string, error) {
	kept := m.filter()
	kept = m.capHistory(kept)

	// Stable sort by descending priority; ties keep insertion order.
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Priority > kept[j].Priority
	})

	packed, err := m.pack(ctx, kept)
	if err != nil {
		return "", err
	}

	return m.render(packed), nil
}

// filter applies the caller's include switches.
func (m *Manager) filter() []Item {
	out := make([]Item, 0, len(m.items))
	for _, it := range m.items {
		if it.Type == TypeHistory && !m.opts.IncludeHistory {
			continue
		}
		if it.Type == TypeResult && !m.opts.IncludeResults {
			continue
		}
		out = append(out, it)
	}
	return out
}

// capHistory keeps only the most recent MaxHistoryItems history items,
// evicting the oldest first.
func (m *Manager) capHistory(items []Item) []Item {
	max := m.rules.MaxHistoryItems
	if max <= 0 {
		max = defaultRules.MaxHistoryItems
	}

	historyCount := 0
	for _, it := range items {
		if it.Type == TypeHistory {
			historyCount++
		}
	}
	evict := historyCount - max
	if evict <= 0 {
		return items
	}

	out := make([]Item, 0, len(items)-evict)
	for _, it := range items {
		if it.Type == TypeHistory && evict > 0 {
			evict--
			continue
		}
		out = append(out, it)
	}
	return out
}

// renderOverheadTokens covers section headers and separators added by
// render, so the final text stays inside the budget.
const renderOverheadTokens = 32

// pack fits items into the budget, walking in priority order. Items that
// fit are kept as-is; over-budget items are truncated, summarized, or
// dropped per the policy. The walk is greedy: earlier truncations are not
// revisited when a later item still does not fit.
func (m *Manager) pack(ctx context.Context, items []Item) ([]Item, error) {
	budget := m.Budget() - renderOverheadTokens
	if budget < 0 {
		budget = 0
	}

	total := 0
	for _, it := range items {
		total += it.Tokens
	}
	if total <= budget {
		return items, nil
	}

	canSummarize := m.rules.PrefersSummaries && m.summarizer.Available()

	var packed []Item
	used := 0
	for _, it := range items {
		remaining := budget - used
		if remaining <= 0 {
			break
		}

		if it.Tokens <= remaining {
			packed = append(packed, it)
			used += it.Tokens
			continue
		}

		switch m.opts.Policy.ActionFor(it.Priority, canSummarize) {
		case ActionTruncate:
			cut := tokens.Truncate(it.Content, tokens.CharBudget(remaining))
			if cut == "" {
				continue
			}
			it.Content = cut
			it.Tokens = tokens.Estimate(cut)
			packed = append(packed, it)
			used += it.Tokens

		case ActionSummarize:
			summary, err := m.summarizer.Summarize(ctx, it.Content, remaining)
			if err != nil {
				log.Printf("[window] %s: summarize failed for item %s, dropping: %v", m.agentName, it.ID, err)
				continue
			}
			it.Content = summary
			it.Type = TypeSummary
			it.Tokens = tokens.Estimate(summary)
			if it.Tokens > remaining {
				// Summarizer overshot; cut it down rather than bust the budget.
				it.Content = tokens.Truncate(summary, tokens.CharBudget(remaining))
				it.Tokens = tokens.Estimate(it.Content)
			}
			packed = append(packed, it)
			used += it.Tokens

		case ActionDrop:
			continue
		}
	}

	return packed, nil
}

// Section names used by the balanced and verbose renderings.
const (
	sectionSystem  = "System"
	sectionPrior   = "Prior Context"
	sectionCode    = "Code"
	sectionHistory = "History"
	sectionTask    = "Current Task"
)

// render groups items into sections and formats them per the agent's
// verbosity tier.
func (m *Manager) render(items []Item) string {
	groups := map[string][]string{}
	order := []string{sectionSystem, sectionPrior, sectionCode, sectionHistory, sectionTask}

	for _, it := range items {
		var section string
		switch it.Type {
		case TypeSystem:
			section = sectionSystem
		case TypeResult, TypeSummary:
			section = sectionPrior
		case TypeCode:
			section = sectionCode
		case TypeHistory:
			section = sectionHistory
		case TypeUser:
			section = sectionTask
		default:
			section = sectionPrior
		}
		groups[section] = append(groups[section], it.Content)
	}

	switch m.rules.Verbosity {
	case VerbosityMinimal:
		var parts []string
		for _, section := range []string{sectionSystem, sectionCode, sectionTask} {
			parts = append(parts, groups[section]...)
		}
		return strings.Join(parts, "\n\n")

	case VerbosityVerbose:
		return renderBlocks(order, groups)

	default: // balanced
		filtered := make([]string, 0, len(order))
		for _, section := range order {
			if section == sectionHistory {
				continue
			}
			filtered = append(filtered, section)
		}
		return renderBlocks(filtered, groups)
	}
}

// renderBlocks wraps each non-empty group in a named block.
func renderBlocks(order []string, groups map[string][]string) string {
	var b strings.Builder
	for _, section := range order {
		contents := groups[section]
		if len(contents) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "## %s\n\n%s", section, strings.Join(contents, "\n\n"))
	}
	return b.String()
}
