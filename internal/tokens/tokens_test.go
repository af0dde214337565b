package tokens

import (
	"strings"
	"testing"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"ab", 1},
		{"abcd", 1},
		{"abcdefgh", 2},
		{strings.Repeat("x", 400), 100},
	}
	for _, tt := range tests {
		if got := Estimate(tt.text); got != tt.want {
			t.Errorf("Estimate(%d chars) = %d, want %d", len(tt.text), got, tt.want)
		}
	}
}

func TestCharBudget(t *testing.T) {
	if got := CharBudget(100); got != 400 {
		t.Errorf("CharBudget(100) = %d, want 400", got)
	}
	if got := CharBudget(0); got != 0 {
		t.Errorf("CharBudget(0) = %d, want 0", got)
	}
}

func TestLimitForHosted(t *testing.T) {
	if got := LimitFor("claude", "", 0); got != 200000 {
		t.Errorf("claude limit = %d, want 200000", got)
	}
	if got := LimitFor("gemini", "", 0); got != 1000000 {
		t.Errorf("gemini limit = %d, want 1000000", got)
	}
}

func TestLimitForOverrideWins(t *testing.T) {
	if got := LimitFor("claude", "", 12345); got != 12345 {
		t.Errorf("override = %d, want 12345", got)
	}
	if got := LimitFor("ollama", "llama3.1:8b", 777); got != 777 {
		t.Errorf("override = %d, want 777", got)
	}
}

func TestLimitForUnknownAgent(t *testing.T) {
	if got := LimitFor("mystery", "", 0); got != DefaultContextLimit {
		t.Errorf("unknown agent limit = %d, want %d", got, DefaultContextLimit)
	}
}

func TestOllamaLongestPrefixMatch(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{"llama3.1:8b-instruct", 131072}, // matches llama3.1, not llama3
		{"llama3:latest", 8192},
		{"llama2", 4096},
		{"mistral:7b", 32768},
		{"qwen2.5-coder:14b", 131072},
		{"totally-unknown:1b", ollamaDefaultLimit},
		{"", ollamaDefaultLimit},
	}
	for _, tt := range tests {
		if got := LimitFor("ollama", tt.model, 0); got != tt.want {
			t.Errorf("LimitFor(ollama, %q) = %d, want %d", tt.model, got, tt.want)
		}
	}
}

func TestTruncateShortContentUntouched(t *testing.T) {
	if got := Truncate("hello", 100); got != "hello" {
		t.Errorf("expected untouched content, got %q", got)
	}
}

func TestTruncateTinyBudgetHardCutsWithoutMarker(t *testing.T) {
	// Budgets at or below the marker length carry content, not the marker.
	content := "a long piece of content that will not fit"
	for _, max := range []int{1, 5, len(TruncationMarker)} {
		got := Truncate(content, max)
		if len(got) > max {
			t.Errorf("Truncate(max=%d) produced %d chars", max, len(got))
		}
		if got != content[:max] {
			t.Errorf("Truncate(max=%d) = %q, want a bare hard cut", max, got)
		}
	}
}

func TestTruncateNeverExceedsBudget(t *testing.T) {
	content := strings.Repeat("word word word. ", 200)
	for _, max := range []int{50, 100, 333, 1000} {
		got := Truncate(content, max)
		if len(got) > max {
			t.Errorf("Truncate(max=%d) produced %d chars", max, len(got))
		}
		if !strings.HasSuffix(got, TruncationMarker) {
			t.Errorf("Truncate(max=%d) missing marker", max)
		}
	}
}

func TestTruncateCutsAtParagraphBoundary(t *testing.T) {
	// A blank line sits past 70% of the budget; the cut must land exactly there.
	para1 := strings.Repeat("a", 80)
	para2 := strings.Repeat("b", 100)
	content := para1 + "\n\n" + para2
	max := 100 + len(TruncationMarker)

	got := Truncate(content, max)
	body := strings.TrimSuffix(got, TruncationMarker)
	if body != para1 {
		t.Errorf("expected cut at paragraph boundary, got %d chars: %q...", len(body), body[:20])
	}
}

func TestTruncateFallsBackToSentenceBoundary(t *testing.T) {
	content := "First sentence here. Second sentence is a fair bit longer and keeps going."
	max := 25 + len(TruncationMarker)
	got := Truncate(content, max)
	body := strings.TrimSuffix(got, TruncationMarker)
	if !strings.HasSuffix(body, "here.") {
		t.Errorf("expected sentence-boundary cut, got %q", body)
	}
}

func TestSplitRespectsChunkSize(t *testing.T) {
	content := strings.Repeat("alpha beta gamma delta. ", 100)
	chunks := Split(content, 200)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 200 {
			t.Errorf("chunk %d has %d chars, want <= 200", i, len(c))
		}
	}
}

func TestSplitPrefersBlankLines(t *testing.T) {
	content := strings.Repeat("x", 60) + "\n\n" + strings.Repeat("y", 60)
	chunks := Split(content, 100)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if !strings.HasPrefix(chunks[1], "y") {
		t.Errorf("second chunk should start at paragraph, got %q", chunks[1][:10])
	}
}

func TestSplitEmptyAndZero(t *testing.T) {
	if got := Split("", 100); got != nil {
		t.Errorf("expected nil for empty content, got %v", got)
	}
	if got := Split("abc", 0); got != nil {
		t.Errorf("expected nil for zero chunk size, got %v", got)
	}
}
