package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/conclave-dev/conclave/internal/agent"
	"github.com/conclave-dev/conclave/internal/breaker"
	"github.com/conclave-dev/conclave/internal/config"
	"github.com/conclave-dev/conclave/internal/exec"
	"github.com/conclave-dev/conclave/internal/executor"
	"github.com/conclave-dev/conclave/internal/render"
	"github.com/conclave-dev/conclave/internal/tokens"
	"github.com/conclave-dev/conclave/internal/window"
	"github.com/conclave-dev/conclave/pkg/models"
)

// runtime is the composition root: everything a command needs to build and
// execute a plan, wired once per invocation.
type runtime struct {
	cfg        *config.Config
	adapters   *agent.Registry
	breakers   *breaker.Registry
	router     agent.Router
	summarizer agent.Summarizer
}

// newRuntime loads configuration and wires the adapters, breaker registry,
// router, and summarizer.
func newRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	runner := exec.NewRunner()
	adapters := agent.NewRegistry(
		agent.NewClaude(runner, cfg.AgentFor("claude").Model).WithBinary(cfg.AgentFor("claude").Command),
		agent.NewGemini(runner, cfg.AgentFor("gemini").Model).WithBinary(cfg.AgentFor("gemini").Command),
		agent.NewCodex(runner, cfg.AgentFor("codex").Model).WithBinary(cfg.AgentFor("codex").Command),
		agent.NewOllama(runner, cfg.AgentFor("ollama").Model).WithBinary(cfg.AgentFor("ollama").Command),
	)

	return &runtime{
		cfg:        cfg,
		adapters:   adapters,
		breakers:   breaker.NewRegistry(breakerOverrides(cfg)),
		router:     agent.NewKeywordRouter(adapters, cfg.DefaultAgent),
		summarizer: buildSummarizer(cfg),
	}, nil
}

// breakerOverrides converts config overrides into breaker configs.
func breakerOverrides(cfg *config.Config) map[string]breaker.Config {
	if len(cfg.Breakers) == 0 {
		return nil
	}
	out := make(map[string]breaker.Config, len(cfg.Breakers))
	for name, b := range cfg.Breakers {
		out[name] = breaker.Config{
			FailureThreshold:   b.FailureThreshold,
			RecoveryTimeout:    b.RecoveryTimeout,
			HalfOpenRequests:   b.HalfOpenRequests,
			CountTimeouts:      b.CountTimeouts,
			FailureStatusCodes: b.FailureStatusCodes,
		}
	}
	return out
}

// buildSummarizer returns the API-backed summarizer when a key or Bedrock
// is configured, otherwise the noop that disables the summarize tier.
func buildSummarizer(cfg *config.Config) agent.Summarizer {
	_, keyErr := config.GetAPIKey(cfg)
	if keyErr != nil && !cfg.Anthropic.UseAWSBedrock {
		return agent.NoopSummarizer{}
	}

	client, err := agent.NewClient(agent.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        cfg.Anthropic.APIKey,
		UseAWSBedrock: cfg.Anthropic.UseAWSBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: summarizer disabled: %v\n", err)
		return agent.NoopSummarizer{}
	}
	return agent.NewAnthropicSummarizer(client)
}

// executePlan runs the plan with live rendering, interactive gating, and
// SIGINT-driven cancellation, then prints the final result.
func (rt *runtime) executePlan(ctx context.Context, p *models.Plan) (*models.ExecutionResult, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	emitter := executor.NewEventEmitter(64)
	renderer := render.New(os.Stdout, flagQuiet)

	execOpts := executor.Options{
		MaxParallel:   rt.cfg.MaxParallel,
		Models:        make(map[string]string),
		Timeouts:      make(map[string]time.Duration),
		ContextLimits: make(map[string]int),
	}
	for name, ac := range rt.cfg.Agents {
		if ac.Model != "" {
			execOpts.Models[name] = ac.Model
		}
		if ac.MaxContextTokens > 0 {
			execOpts.ContextLimits[name] = ac.MaxContextTokens
		}
		if ac.Timeout > 0 {
			execOpts.Timeouts[name] = ac.Timeout
		}
	}
	if flagInteractive {
		execOpts.OnBeforeStep = stdinGate
	}

	ex := executor.New(rt.adapters, rt.breakers, rt.router, emitter, execOpts)

	done := make(chan struct{})
	go func() {
		renderer.Consume(emitter.Events())
		close(done)
	}()

	result, err := ex.Execute(ctx, p)
	emitter.Close()
	<-done
	if err != nil {
		return nil, err
	}

	renderer.Result(p, result)
	if result.Status == models.StatusFailed {
		return result, fmt.Errorf("run failed")
	}
	return result, nil
}

// stdinGate asks the user before each step. Anything other than an
// affirmative answer skips the step.
func stdinGate(step *models.Step, index int, results []models.StepResult) bool {
	fmt.Fprintf(os.Stderr, "Run step %s (%s, %s)? [Y/n] ", step.ID, step.Agent.String(), step.Action)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "" || answer == "y" || answer == "yes"
}

// assemblePrompt packs the task, optional system instruction, and attached
// files into the target agent's context window.
func (rt *runtime) assemblePrompt(ctx context.Context, agentName, task, system string, files []string) (string, error) {
	if system == "" && len(files) == 0 {
		return task, nil
	}

	ac := rt.cfg.AgentFor(agentName)
	maxTokens := tokens.LimitFor(agentName, ac.Model, ac.MaxContextTokens)
	reserve := ac.ReserveTokens
	if reserve == 0 {
		reserve = maxTokens / 4
	}

	rules := window.RulesFor(agentName)
	if ac.MaxHistoryItems > 0 {
		rules.MaxHistoryItems = ac.MaxHistoryItems
	}
	if ac.PrefersSummaries {
		rules.PrefersSummaries = true
	}
	if ac.Verbosity != "" {
		rules.Verbosity = window.Verbosity(ac.Verbosity)
	}

	m := window.NewManager(agentName, rules, window.Options{
		MaxTokens:      maxTokens,
		ReserveTokens:  reserve,
		IncludeHistory: true,
		IncludeResults: true,
	}, rt.summarizer)

	if system != "" {
		m.AddItem(window.Item{ID: "system", Type: window.TypeSystem, Content: system, Priority: 10})
	}
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		m.AddItem(window.Item{
			ID:       path,
			Type:     window.TypeCode,
			Content:  fmt.Sprintf("File %s:\n%s", path, string(data)),
			Priority: 7,
			Source:   path,
		})
	}
	m.AddItem(window.Item{ID: "task", Type: window.TypeUser, Content: task, Priority: 9})

	return m.BuildContext(ctx)
}

// promptArg joins the positional args into the task prompt.
func promptArg(args []string) (string, error) {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		return "", fmt.Errorf("a prompt is required")
	}
	return prompt, nil
}
