package executor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/conclave-dev/conclave/internal/agent"
	"github.com/conclave-dev/conclave/internal/breaker"
	"github.com/conclave-dev/conclave/pkg/models"
)

// stubAdapter is a scriptable in-memory agent.
type stubAdapter struct {
	name  string
	delay time.Duration
	fail  error
	reply func(prompt string) string

	mu        sync.Mutex
	prompts   []string
	inFlight  int32
	maxFlight int32
}

var _ agent.Adapter = (*stubAdapter)(nil)

func (s *stubAdapter) Name() string      { return s.name }
func (s *stubAdapter) IsAvailable() bool { return true }

func (s *stubAdapter) Run(ctx context.Context, prompt string, opts agent.RunOptions) (*agent.Result, error) {
	cur := atomic.AddInt32(&s.inFlight, 1)
	defer atomic.AddInt32(&s.inFlight, -1)
	for {
		max := atomic.LoadInt32(&s.maxFlight)
		if cur <= max || atomic.CompareAndSwapInt32(&s.maxFlight, max, cur) {
			break
		}
	}

	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.fail != nil {
		return nil, s.fail
	}
	content := s.name + " output"
	if s.reply != nil {
		content = s.reply(prompt)
	}
	return &agent.Result{Content: content, Model: opts.Model}, nil
}

func (s *stubAdapter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

func (s *stubAdapter) lastPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.prompts) == 0 {
		return ""
	}
	return s.prompts[len(s.prompts)-1]
}

// fixedRouter always resolves to the same agent.
type fixedRouter struct{ name string }

func (r fixedRouter) Resolve(ctx context.Context, prompt string) (string, error) {
	return r.name, nil
}

func newTestExecutor(opts Options, adapters ...agent.Adapter) (*Executor, *breaker.Registry) {
	reg := agent.NewRegistry(adapters...)
	breakers := breaker.NewRegistry(nil)
	router := fixedRouter{name: adapters[0].Name()}
	return New(reg, breakers, router, nil, opts), breakers
}

func singleStepPlan(agentName, prompt string) *models.Plan {
	return &models.Plan{
		ID:   "p1",
		Mode: models.ModeSingle,
		Steps: []*models.Step{
			{ID: "step1", Agent: models.ExplicitAgent(agentName), Action: "generate", Prompt: prompt},
		},
	}
}

func TestExecuteSingleStep(t *testing.T) {
	claude := &stubAdapter{name: "claude"}
	ex, _ := newTestExecutor(Options{}, claude)

	res, err := ex.Execute(context.Background(), singleStepPlan("claude", "write a haiku"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != models.StatusCompleted {
		t.Errorf("status = %s, want completed", res.Status)
	}
	if len(res.Results) != 1 {
		t.Fatalf("got %d results, want 1", len(res.Results))
	}
	if res.FinalOutput != "claude output" {
		t.Errorf("final output = %q", res.FinalOutput)
	}
	if claude.lastPrompt() != "write a haiku" {
		t.Errorf("prompt = %q", claude.lastPrompt())
	}
}

func TestExecuteInvalidPlan(t *testing.T) {
	claude := &stubAdapter{name: "claude"}
	ex, _ := newTestExecutor(Options{}, claude)

	plan := &models.Plan{ID: "bad", Steps: []*models.Step{
		{ID: "a", Agent: models.ExplicitAgent("claude"), Prompt: "x", DependsOn: []string{"ghost"}},
	}}
	if _, err := ex.Execute(context.Background(), plan); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestExecuteIndependentStepsRunConcurrently(t *testing.T) {
	claude := &stubAdapter{name: "claude", delay: 30 * time.Millisecond}
	gemini := &stubAdapter{name: "gemini", delay: 30 * time.Millisecond}
	ex, _ := newTestExecutor(Options{MaxParallel: 2}, claude, gemini)

	plan := &models.Plan{
		ID:   "p-compare",
		Mode: models.ModeCompare,
		Steps: []*models.Step{
			{ID: "claude_response", Agent: models.ExplicitAgent("claude"), Action: "generate", Prompt: "q"},
			{ID: "gemini_response", Agent: models.ExplicitAgent("gemini"), Action: "generate", Prompt: "q"},
		},
	}

	start := time.Now()
	res, err := ex.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != models.StatusCompleted {
		t.Fatalf("status = %s", res.Status)
	}
	if elapsed := time.Since(start); elapsed > 55*time.Millisecond {
		t.Errorf("steps appear serialized: took %v", elapsed)
	}
	if claude.callCount() != 1 || gemini.callCount() != 1 {
		t.Errorf("calls: claude=%d gemini=%d, want 1 each", claude.callCount(), gemini.callCount())
	}
}

func TestExecuteHonorsMaxParallel(t *testing.T) {
	claude := &stubAdapter{name: "claude", delay: 10 * time.Millisecond}
	ex, _ := newTestExecutor(Options{MaxParallel: 1}, claude)

	plan := &models.Plan{ID: "p", Steps: []*models.Step{
		{ID: "a", Agent: models.ExplicitAgent("claude"), Prompt: "1"},
		{ID: "b", Agent: models.ExplicitAgent("claude"), Prompt: "2"},
		{ID: "c", Agent: models.ExplicitAgent("claude"), Prompt: "3"},
	}}

	if _, err := ex.Execute(context.Background(), plan); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if max := atomic.LoadInt32(&claude.maxFlight); max > 1 {
		t.Errorf("observed %d concurrent calls with MaxParallel=1", max)
	}
}

func TestExecutePipelineBindsVariables(t *testing.T) {
	claude := &stubAdapter{name: "claude", reply: func(string) string { return "the draft" }}
	gemini := &stubAdapter{name: "gemini"}
	ex, _ := newTestExecutor(Options{}, claude, gemini)

	plan := &models.Plan{
		ID:   "p-pipe",
		Mode: models.ModePipeline,
		Steps: []*models.Step{
			{ID: "stage1", Agent: models.ExplicitAgent("claude"), Action: "draft", Prompt: "write it", OutputAs: "stage1_output"},
			{ID: "stage2", Agent: models.ExplicitAgent("gemini"), Action: "review", Prompt: "review this:\n\n{{stage1_output}}", DependsOn: []string{"stage1"}},
		},
	}

	res, err := ex.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != models.StatusCompleted {
		t.Fatalf("status = %s", res.Status)
	}
	if got := gemini.lastPrompt(); !strings.Contains(got, "the draft") {
		t.Errorf("stage2 prompt missing stage1 output: %q", got)
	}
	if res.FinalOutput != "gemini output" {
		t.Errorf("final output = %q, want the last stage's content", res.FinalOutput)
	}
}

func TestExecuteFailedDependencyCascades(t *testing.T) {
	claude := &stubAdapter{name: "claude", fail: errors.New("boom")}
	gemini := &stubAdapter{name: "gemini"}
	ex, _ := newTestExecutor(Options{}, claude, gemini)

	plan := &models.Plan{ID: "p", Steps: []*models.Step{
		{ID: "a", Agent: models.ExplicitAgent("claude"), Prompt: "x", OutputAs: "a_out"},
		{ID: "b", Agent: models.ExplicitAgent("gemini"), Prompt: "use {{a_out}}", DependsOn: []string{"a"}},
		{ID: "c", Agent: models.ExplicitAgent("gemini"), Prompt: "use more", DependsOn: []string{"b"}},
	}}

	res, err := ex.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != models.StatusFailed {
		t.Errorf("status = %s, want failed", res.Status)
	}
	if len(res.Results) != 3 {
		t.Fatalf("got %d results, want one per step", len(res.Results))
	}
	for _, id := range []string{"b", "c"} {
		r := res.ResultFor(id)
		if r == nil || r.Err == nil {
			t.Errorf("step %s should carry a dependency error", id)
			continue
		}
		if !strings.Contains(r.Err.Error(), "dependency") {
			t.Errorf("step %s error = %v", id, r.Err)
		}
	}
	if gemini.callCount() != 0 {
		t.Errorf("dependents of a failed step must not invoke their agent, got %d calls", gemini.callCount())
	}
}

func TestExecuteConditionFalseSkips(t *testing.T) {
	claude := &stubAdapter{name: "claude", reply: func(string) string { return "approved" }}
	gemini := &stubAdapter{name: "gemini"}
	ex, _ := newTestExecutor(Options{}, claude, gemini)

	plan := &models.Plan{ID: "p", Steps: []*models.Step{
		{ID: "review", Agent: models.ExplicitAgent("claude"), Prompt: "check it", OutputAs: "verdict"},
		{ID: "fix", Agent: models.ExplicitAgent("gemini"), Prompt: "fix it", DependsOn: []string{"review"}, Condition: `verdict != "approved"`},
	}}

	res, err := ex.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != models.StatusCompleted {
		t.Errorf("status = %s, want completed", res.Status)
	}
	r := res.ResultFor("fix")
	if r == nil || !r.Skipped {
		t.Fatalf("fix step should be skipped, got %+v", r)
	}
	if r.SkipReason != "condition false" {
		t.Errorf("skip reason = %q", r.SkipReason)
	}
	if gemini.callCount() != 0 {
		t.Error("skipped step must not invoke its agent")
	}
	if res.FinalOutput != "approved" {
		t.Errorf("final output should fall back past the skip, got %q", res.FinalOutput)
	}
}

func TestExecuteMalformedConditionIsStepError(t *testing.T) {
	claude := &stubAdapter{name: "claude"}
	ex, _ := newTestExecutor(Options{}, claude)

	plan := &models.Plan{ID: "p", Steps: []*models.Step{
		{ID: "a", Agent: models.ExplicitAgent("claude"), Prompt: "x", Condition: "a &&"},
	}}

	res, err := ex.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := res.ResultFor("a")
	if r == nil || r.Err == nil || !strings.Contains(r.Err.Error(), "condition") {
		t.Errorf("expected condition error result, got %+v", r)
	}
	if claude.callCount() != 0 {
		t.Error("step with a malformed condition must not run")
	}
}

func TestExecuteUnresolvedTemplateIsStepError(t *testing.T) {
	claude := &stubAdapter{name: "claude"}
	ex, _ := newTestExecutor(Options{}, claude)

	plan := &models.Plan{ID: "p", Steps: []*models.Step{
		{ID: "a", Agent: models.ExplicitAgent("claude"), Prompt: "use {{nothing}}"},
	}}

	res, err := ex.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := res.ResultFor("a")
	if r == nil || r.Err == nil {
		t.Fatal("expected a step error")
	}
	var uerr *UnresolvedVarError
	if !errors.As(r.Err, &uerr) {
		t.Errorf("expected UnresolvedVarError, got %v", r.Err)
	}
	if claude.callCount() != 0 {
		t.Error("agent must not see an unresolved template")
	}
}

func TestExecuteBeforeStepGateSkips(t *testing.T) {
	claude := &stubAdapter{name: "claude"}
	ex, breakers := newTestExecutor(Options{
		OnBeforeStep: func(step *models.Step, index int, results []models.StepResult) bool {
			return step.ID != "b"
		},
	}, claude)

	plan := &models.Plan{ID: "p", Steps: []*models.Step{
		{ID: "a", Agent: models.ExplicitAgent("claude"), Prompt: "x"},
		{ID: "b", Agent: models.ExplicitAgent("claude"), Prompt: "y"},
	}}

	res, err := ex.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := res.ResultFor("b")
	if r == nil || !r.Skipped || r.SkipReason != "skipped by user" {
		t.Errorf("expected user skip, got %+v", r)
	}
	if claude.callCount() != 1 {
		t.Errorf("only step a should run, got %d calls", claude.callCount())
	}
	// A declined step never touches its breaker.
	if stats := breakers.Get("claude").Snapshot(); stats.TotalFailures != 0 {
		t.Errorf("breaker recorded %d failures for a user skip", stats.TotalFailures)
	}
}

func TestExecuteOpenBreakerFailsStep(t *testing.T) {
	claude := &stubAdapter{name: "claude"}
	ex, breakers := newTestExecutor(Options{}, claude)

	b := breakers.Get("claude")
	for i := 0; i < 5; i++ {
		b.RecordFailure(errors.New("cli exploded"))
	}

	res, err := ex.Execute(context.Background(), singleStepPlan("claude", "x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := res.ResultFor("step1")
	if r == nil || r.Err == nil {
		t.Fatal("expected step error from the open breaker")
	}
	if !breaker.IsOpen(r.Err) {
		t.Errorf("expected OpenError, got %v", r.Err)
	}
	if claude.callCount() != 0 {
		t.Error("open breaker must block the adapter call")
	}
	if res.Status != models.StatusFailed {
		t.Errorf("status = %s, want failed", res.Status)
	}
}

func TestExecuteCancellation(t *testing.T) {
	claude := &stubAdapter{name: "claude", delay: time.Second}
	ex, _ := newTestExecutor(Options{}, claude)

	plan := &models.Plan{ID: "p", Steps: []*models.Step{
		{ID: "a", Agent: models.ExplicitAgent("claude"), Prompt: "slow", OutputAs: "a_out"},
		{ID: "b", Agent: models.ExplicitAgent("claude"), Prompt: "{{a_out}}", DependsOn: []string{"a"}},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	res, err := ex.Execute(ctx, plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("cancellation did not abort the in-flight call promptly")
	}
	if res.Status != models.StatusCancelled {
		t.Errorf("status = %s, want cancelled", res.Status)
	}
	if len(res.Results) != 2 {
		t.Fatalf("every step needs a result, got %d", len(res.Results))
	}
	if r := res.ResultFor("b"); r == nil || r.Err == nil {
		t.Error("unstarted step should carry a cancellation error")
	}
}

func TestExecuteAutoAgentViaRouter(t *testing.T) {
	claude := &stubAdapter{name: "claude"}
	ex, _ := newTestExecutor(Options{}, claude)

	plan := &models.Plan{ID: "p", Steps: []*models.Step{
		{ID: "a", Agent: models.AutoAgent(), Prompt: "anything"},
	}}

	res, err := ex.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != models.StatusCompleted {
		t.Errorf("status = %s", res.Status)
	}
	if claude.callCount() != 1 {
		t.Errorf("router-resolved agent not invoked, calls=%d", claude.callCount())
	}
}

func TestExecuteEmitsEvents(t *testing.T) {
	claude := &stubAdapter{name: "claude"}
	var mu sync.Mutex
	var seen []EventType
	ex, _ := newTestExecutor(Options{
		OnEvent: func(ev Event) {
			mu.Lock()
			seen = append(seen, ev.Type)
			mu.Unlock()
		},
	}, claude)

	if _, err := ex.Execute(context.Background(), singleStepPlan("claude", "x")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != EventStepStarted || seen[1] != EventStepCompleted {
		t.Errorf("events = %v, want [step_started step_completed]", seen)
	}
}

func TestEventEmitterDropsWhenFull(t *testing.T) {
	em := NewEventEmitter(1)
	em.Emit(Event{Type: EventStepStarted, StepID: "a"})
	em.Emit(Event{Type: EventStepStarted, StepID: "b"}) // no reader, buffer full

	if em.DroppedCount() != 1 {
		t.Errorf("dropped = %d, want 1", em.DroppedCount())
	}
	select {
	case ev := <-em.Events():
		if ev.StepID != "a" {
			t.Errorf("got event %q, want a", ev.StepID)
		}
	default:
		t.Error("first event should still be buffered")
	}
}
