package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadFromPath(t *testing.T) {
	path := writeConfig(t, `
default_agent: gemini
max_parallel: 5
anthropic:
  api_key: sk-ant-test123
  model: claude-3-5-haiku-20241022
agents:
  ollama:
    model: llama3.1
    max_context_tokens: 8192
    reserve_tokens: 512
    prefers_summaries: true
    verbosity: minimal
    timeout: 2m
breakers:
  ollama:
    failure_threshold: 2
    recovery_timeout: 5s
    half_open_requests: 1
`)

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}

	if cfg.DefaultAgent != "gemini" {
		t.Errorf("DefaultAgent = %q", cfg.DefaultAgent)
	}
	if cfg.MaxParallel != 5 {
		t.Errorf("MaxParallel = %d", cfg.MaxParallel)
	}
	if cfg.Anthropic.APIKey != "sk-ant-test123" {
		t.Errorf("APIKey = %q", cfg.Anthropic.APIKey)
	}

	ollama := cfg.AgentFor("ollama")
	if ollama.Model != "llama3.1" || ollama.MaxContextTokens != 8192 {
		t.Errorf("ollama agent config = %+v", ollama)
	}
	if !ollama.PrefersSummaries || ollama.Verbosity != "minimal" {
		t.Errorf("ollama agent config = %+v", ollama)
	}
	if ollama.Timeout != 2*time.Minute {
		t.Errorf("ollama timeout = %v", ollama.Timeout)
	}

	b, ok := cfg.Breakers["ollama"]
	if !ok {
		t.Fatal("missing ollama breaker override")
	}
	if b.FailureThreshold != 2 || b.RecoveryTimeout != 5*time.Second {
		t.Errorf("breaker override = %+v", b)
	}
}

func TestLoadFromPathDefaults(t *testing.T) {
	path := writeConfig(t, "anthropic:\n  api_key: ''\n")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.DefaultAgent != "claude" {
		t.Errorf("DefaultAgent default = %q, want claude", cfg.DefaultAgent)
	}
	if cfg.MaxParallel != 3 {
		t.Errorf("MaxParallel default = %d, want 3", cfg.MaxParallel)
	}
}

func TestLoadFromPathExpandsEnvInAPIKey(t *testing.T) {
	t.Setenv("CONCLAVE_TEST_KEY", "sk-ant-from-env")
	path := writeConfig(t, "anthropic:\n  api_key: ${CONCLAVE_TEST_KEY}\n")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Anthropic.APIKey != "sk-ant-from-env" {
		t.Errorf("APIKey = %q", cfg.Anthropic.APIKey)
	}
}

func TestLoadFromPathMissingFile(t *testing.T) {
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestAgentForUnknown(t *testing.T) {
	cfg := Default()
	if got := cfg.AgentFor("nobody"); got != (AgentConfig{}) {
		t.Errorf("unknown agent should yield the zero config, got %+v", got)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.DefaultAgent != "claude" || cfg.MaxParallel != 3 {
		t.Errorf("Default() = %+v", cfg)
	}
}

func TestGetAPIKeyPrecedence(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env-key")
	cfg := &Config{Anthropic: AnthropicConfig{APIKey: "sk-ant-file-key"}}

	key, err := GetAPIKey(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "sk-ant-env-key" {
		t.Errorf("environment should win, got %q", key)
	}
	if GetAPIKeySource(cfg) != KeySourceEnv {
		t.Errorf("source = %s", GetAPIKeySource(cfg))
	}
}

func TestGetAPIKeyFromConfig(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	cfg := &Config{Anthropic: AnthropicConfig{APIKey: "sk-ant-file-key"}}

	key, err := GetAPIKey(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "sk-ant-file-key" {
		t.Errorf("key = %q", key)
	}
	if GetAPIKeySource(cfg) != KeySourceConfig {
		t.Errorf("source = %s", GetAPIKeySource(cfg))
	}
}

func TestGetAPIKeyMissing(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	if _, err := GetAPIKey(&Config{}); err != ErrNoAPIKey {
		t.Errorf("err = %v, want ErrNoAPIKey", err)
	}
	if GetAPIKeySource(&Config{}) != KeySourceNone {
		t.Error("source should be none")
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", "(not set)"},
		{"short", "***"},
		{"sk-ant-REDACTED", "sk-ant-...1234"},
	}
	for _, tt := range tests {
		if got := MaskAPIKey(tt.key); got != tt.want {
			t.Errorf("MaskAPIKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
