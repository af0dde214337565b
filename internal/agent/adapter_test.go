package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeRunner records invocations and returns canned output.
type fakeRunner struct {
	stdout    string
	stderr    string
	err       error
	available bool

	lastName  string
	lastArgs  []string
	lastStdin string
	calls     int
}

func (f *fakeRunner) Output(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	return f.OutputWithStdin(ctx, "", name, args...)
}

func (f *fakeRunner) OutputWithStdin(ctx context.Context, stdin string, name string, args ...string) ([]byte, []byte, error) {
	f.calls++
	f.lastName = name
	f.lastArgs = args
	f.lastStdin = stdin
	return []byte(f.stdout), []byte(f.stderr), f.err
}

func (f *fakeRunner) Available(name string) bool { return f.available }

func TestClaudeAdapterRun(t *testing.T) {
	runner := &fakeRunner{stdout: "the sky scatters blue light\n", available: true}
	a := NewClaude(runner, "sonnet")

	res, err := a.Run(context.Background(), "why is the sky blue", RunOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Content != "the sky scatters blue light" {
		t.Errorf("unexpected content: %q", res.Content)
	}
	if res.Model != "sonnet" {
		t.Errorf("expected default model, got %q", res.Model)
	}
	if res.Tokens == 0 {
		t.Error("expected non-zero token estimate")
	}
	if runner.lastName != "claude" {
		t.Errorf("expected claude binary, got %s", runner.lastName)
	}
	joined := strings.Join(runner.lastArgs, " ")
	if !strings.Contains(joined, "--print") || !strings.Contains(joined, "-p why is the sky blue") {
		t.Errorf("unexpected args: %v", runner.lastArgs)
	}
}

func TestAdapterModelOverride(t *testing.T) {
	runner := &fakeRunner{stdout: "ok", available: true}
	a := NewClaude(runner, "sonnet")

	res, err := a.Run(context.Background(), "hi", RunOptions{Model: "opus"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Model != "opus" {
		t.Errorf("expected override model, got %q", res.Model)
	}
	if !strings.Contains(strings.Join(runner.lastArgs, " "), "--model opus") {
		t.Errorf("model flag missing: %v", runner.lastArgs)
	}
}

func TestOllamaPipesPromptThroughStdin(t *testing.T) {
	runner := &fakeRunner{stdout: "out", available: true}
	a := NewOllama(runner, "llama3.1:8b")

	_, err := a.Run(context.Background(), "the prompt", RunOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runner.lastStdin != "the prompt" {
		t.Errorf("expected prompt on stdin, got %q", runner.lastStdin)
	}
	if len(runner.lastArgs) != 2 || runner.lastArgs[0] != "run" || runner.lastArgs[1] != "llama3.1:8b" {
		t.Errorf("unexpected args: %v", runner.lastArgs)
	}
}

func TestAdapterRunError(t *testing.T) {
	runner := &fakeRunner{stderr: "auth failed\n", err: errors.New("exit status 1"), available: true}
	a := NewGemini(runner, "")

	_, err := a.Run(context.Background(), "hi", RunOptions{})
	if err == nil {
		t.Fatal("expected error")
	}
	var ie *InvokeError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InvokeError, got %T", err)
	}
	if ie.Agent != "gemini" {
		t.Errorf("expected gemini, got %s", ie.Agent)
	}
	if !strings.Contains(ie.Stderr, "auth failed") {
		t.Errorf("expected stderr captured, got %q", ie.Stderr)
	}
}

func TestAdapterAvailability(t *testing.T) {
	a := NewCodex(&fakeRunner{available: false}, "")
	if a.IsAvailable() {
		t.Error("adapter should be unavailable when binary is missing")
	}
	b := NewCodex(&fakeRunner{available: true}, "")
	if !b.IsAvailable() {
		t.Error("adapter should be available when binary is present")
	}
}

func TestRegistryGet(t *testing.T) {
	runner := &fakeRunner{available: true}
	r := NewRegistry(NewClaude(runner, ""), NewGemini(runner, ""))

	if _, err := r.Get("claude"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := r.Get("nope"); err == nil {
		t.Error("expected error for unknown agent")
	}

	names := r.Names()
	if len(names) != 2 || names[0] != "claude" || names[1] != "gemini" {
		t.Errorf("unexpected names: %v", names)
	}
}

func TestKeywordRouterCodePrompt(t *testing.T) {
	runner := &fakeRunner{available: true}
	r := NewRegistry(NewClaude(runner, ""), NewCodex(runner, ""))
	router := NewKeywordRouter(r, "claude")

	name, err := router.Resolve(context.Background(), "please refactor this function")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "codex" {
		t.Errorf("expected codex for code prompt, got %s", name)
	}
}

func TestKeywordRouterDefault(t *testing.T) {
	runner := &fakeRunner{available: true}
	r := NewRegistry(NewClaude(runner, ""), NewCodex(runner, ""))
	router := NewKeywordRouter(r, "claude")

	name, err := router.Resolve(context.Background(), "write a haiku about autumn")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "claude" {
		t.Errorf("expected default agent, got %s", name)
	}
}

func TestKeywordRouterFallsBackWhenDefaultUnavailable(t *testing.T) {
	up := &fakeRunner{available: true}
	down := &fakeRunner{available: false}
	r := NewRegistry(NewClaude(down, ""), NewGemini(up, ""))
	router := NewKeywordRouter(r, "claude")

	name, err := router.Resolve(context.Background(), "write a haiku")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "gemini" {
		t.Errorf("expected fallback to available agent, got %s", name)
	}
}

func TestKeywordRouterNoAgents(t *testing.T) {
	down := &fakeRunner{available: false}
	r := NewRegistry(NewClaude(down, ""))
	router := NewKeywordRouter(r, "claude")

	if _, err := router.Resolve(context.Background(), "hello"); err == nil {
		t.Error("expected error when nothing is available")
	}
}

func TestNoopSummarizer(t *testing.T) {
	var s Summarizer = NoopSummarizer{}
	if s.Available() {
		t.Error("noop summarizer must report unavailable")
	}
	if _, err := s.Summarize(context.Background(), "text", 10); err == nil {
		t.Error("expected error from noop summarizer")
	}
}

func TestAnthropicSummarizerUnconfigured(t *testing.T) {
	s := NewAnthropicSummarizer(nil)
	if s.Available() {
		t.Error("nil client should be unavailable")
	}
	if _, err := s.Summarize(context.Background(), "text", 10); err == nil {
		t.Error("expected error without client")
	}
}
