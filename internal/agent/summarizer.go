package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// Summarizer compresses content down to a token budget. The context window
// manager uses it for mid-priority items that would otherwise be dropped.
type Summarizer interface {
	// Summarize compresses content to roughly targetTokens.
	Summarize(ctx context.Context, content string, targetTokens int) (string, error)
	// Available reports whether summarization can be attempted at all.
	Available() bool
}

const summarizeSystem = `You compress context for another AI agent. Preserve decisions, names, file paths, numbers, and errors. Omit pleasantries and filler. Output only the summary.`

// AnthropicSummarizer summarizes through the Anthropic Messages API.
type AnthropicSummarizer struct {
	client *Client
}

// NewAnthropicSummarizer creates a summarizer over the given API client.
// A nil client yields an unavailable summarizer.
func NewAnthropicSummarizer(client *Client) *AnthropicSummarizer {
	return &AnthropicSummarizer{client: client}
}

// Available reports whether an API client is configured.
func (s *AnthropicSummarizer) Available() bool {
	return s.client != nil
}

// Summarize compresses content to roughly targetTokens via one API call.
func (s *AnthropicSummarizer) Summarize(ctx context.Context, content string, targetTokens int) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("summarizer is not configured")
	}
	if targetTokens < 1 {
		targetTokens = 1
	}

	maxTokens := int64(targetTokens)
	if maxTokens > 4096 {
		maxTokens = 4096
	}

	resp, err := s.client.sdk().Messages.New(ctx, anthropic.MessageNewParams{
		Model:     s.client.Model(),
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: summarizeSystem},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(
				fmt.Sprintf("Summarize the following in at most %d tokens, preserving facts and decisions:\n\n%s", targetTokens, content),
			)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("summarize call: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}
	summary := strings.TrimSpace(b.String())
	if summary == "" {
		return "", fmt.Errorf("summarize call returned no text")
	}
	return summary, nil
}

// NoopSummarizer reports unavailable, which makes the window manager skip
// the summarize tier and drop instead.
type NoopSummarizer struct{}

// Available always returns false.
func (NoopSummarizer) Available() bool { return false }

// Summarize always fails; callers must check Available first.
func (NoopSummarizer) Summarize(context.Context, string, int) (string, error) {
	return "", fmt.Errorf("no summarizer configured")
}

// Verify implementations at compile time.
var (
	_ Summarizer = (*AnthropicSummarizer)(nil)
	_ Summarizer = NoopSummarizer{}
)
