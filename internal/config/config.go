// Package config handles configuration loading for Conclave.
// It supports XDG config paths, project-level overrides, and environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for Conclave.
type Config struct {
	// DefaultAgent answers single-agent runs when no agent is named.
	DefaultAgent string `mapstructure:"default_agent"`
	// MaxParallel bounds concurrent in-flight agent calls per run.
	MaxParallel int `mapstructure:"max_parallel"`
	// Anthropic configures the summarizer client.
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	// Agents holds per-agent overrides keyed by agent name.
	Agents map[string]AgentConfig `mapstructure:"agents"`
	// Breakers holds per-service circuit breaker overrides.
	Breakers map[string]BreakerConfig `mapstructure:"breakers"`
}

// AnthropicConfig holds the settings for the API-backed summarizer.
type AnthropicConfig struct {
	APIKey        string `mapstructure:"api_key"`
	Model         string `mapstructure:"model"`
	UseAWSBedrock bool   `mapstructure:"use_aws_bedrock"`
	AWSRegion     string `mapstructure:"aws_region"`
	AWSProfile    string `mapstructure:"aws_profile"`
}

// AgentConfig holds per-agent overrides. Zero values defer to the built-in
// tables.
type AgentConfig struct {
	// Command overrides the agent's CLI binary name.
	Command string `mapstructure:"command"`
	// Model overrides the agent's default model.
	Model string `mapstructure:"model"`
	// MaxContextTokens overrides the agent's context window size.
	MaxContextTokens int `mapstructure:"max_context_tokens"`
	// ReserveTokens is headroom held back for the agent's response.
	ReserveTokens int `mapstructure:"reserve_tokens"`
	// MaxHistoryItems caps history items in the agent's prompt.
	MaxHistoryItems int `mapstructure:"max_history_items"`
	// PrefersSummaries enables summarize-based compression for this agent.
	PrefersSummaries bool `mapstructure:"prefers_summaries"`
	// Verbosity selects the prompt rendering tier (minimal|balanced|verbose).
	Verbosity string `mapstructure:"verbosity"`
	// Timeout bounds each call to this agent.
	Timeout time.Duration `mapstructure:"timeout"`
}

// BreakerConfig holds circuit breaker overrides for one service.
type BreakerConfig struct {
	FailureThreshold   int           `mapstructure:"failure_threshold"`
	RecoveryTimeout    time.Duration `mapstructure:"recovery_timeout"`
	HalfOpenRequests   int           `mapstructure:"half_open_requests"`
	CountTimeouts      bool          `mapstructure:"count_timeouts"`
	FailureStatusCodes []int         `mapstructure:"failure_status_codes"`
}

// Load loads configuration from XDG paths, project overrides, and
// environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY)
// 2. Project config (.conclave.yaml in current directory or parent)
// 3. User config (~/.config/conclave/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific file (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("default_agent", cfg.DefaultAgent)
	v.Set("max_parallel", cfg.MaxParallel)
	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.use_aws_bedrock", cfg.Anthropic.UseAWSBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	for name, agent := range cfg.Agents {
		prefix := "agents." + name + "."
		v.Set(prefix+"command", agent.Command)
		v.Set(prefix+"model", agent.Model)
		v.Set(prefix+"max_context_tokens", agent.MaxContextTokens)
		v.Set(prefix+"reserve_tokens", agent.ReserveTokens)
		v.Set(prefix+"max_history_items", agent.MaxHistoryItems)
		v.Set(prefix+"prefers_summaries", agent.PrefersSummaries)
		v.Set(prefix+"verbosity", agent.Verbosity)
		v.Set(prefix+"timeout", agent.Timeout.String())
	}

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it
// exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("default_agent", "claude")
	v.SetDefault("max_parallel", 3)
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("anthropic.use_aws_bedrock", false)
}

// getUserConfigDir returns the XDG config directory for Conclave.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "conclave")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "conclave")
	}
	return filepath.Join(home, ".config", "conclave")
}

// findProjectConfig searches for .conclave.yaml in the current directory
// and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".conclave.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		DefaultAgent: "claude",
		MaxParallel:  3,
	}
}

// AgentFor returns the overrides for one agent; the zero value when none
// are configured.
func (c *Config) AgentFor(name string) AgentConfig {
	if c.Agents == nil {
		return AgentConfig{}
	}
	return c.Agents[name]
}
