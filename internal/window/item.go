// Package window assembles a bounded prompt for one target agent from
// arbitrary content items, fitting a token budget through priority-tiered
// eviction: keep, truncate, summarize, or drop.
package window

import (
	"time"

	"github.com/conclave-dev/conclave/internal/tokens"
)

// ItemType classifies a context item's origin.
type ItemType string

const (
	// TypeSystem is a system instruction.
	TypeSystem ItemType = "system"
	// TypeHistory is a prior conversation turn.
	TypeHistory ItemType = "history"
	// TypeResult is a prior step's output.
	TypeResult ItemType = "result"
	// TypeCode is a code snippet or file excerpt.
	TypeCode ItemType = "code"
	// TypeSummary is compressed content produced by the summarizer.
	TypeSummary ItemType = "summary"
	// TypeUser is the current task prompt.
	TypeUser ItemType = "user"
)

// Item is one collaborator's contribution to an agent's prompt. Priority
// (1-10) governs survival under budget pressure.
type Item struct {
	// ID identifies the item.
	ID string
	// Type classifies the item for section grouping and filtering.
	Type ItemType
	// Content is the item text.
	Content string
	// Tokens is the estimated token count; computed on add when zero.
	Tokens int
	// Priority is 1 (first to go) through 10 (kept at all costs).
	Priority int
	// Source names the collaborator that contributed the item.
	Source string
	// Timestamp is when the item was added.
	Timestamp time.Time
	// Metadata carries optional collaborator-specific annotations.
	Metadata map[string]string
}

// normalize fills derived fields and clamps priority into range.
func (it *Item) normalize() {
	if it.Tokens == 0 {
		it.Tokens = tokens.Estimate(it.Content)
	}
	if it.Priority < 1 {
		it.Priority = 1
	}
	if it.Priority > 10 {
		it.Priority = 10
	}
	if it.Timestamp.IsZero() {
		it.Timestamp = time.Now()
	}
}
