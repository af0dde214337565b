package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conclave-dev/conclave/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify Conclave configuration.

Without arguments, displays the effective configuration and where it came
from. With one argument (key), displays the value for that key. With two
arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/conclave/config.yaml
Project-specific overrides can be placed in .conclave.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values plus the config paths
// and agent availability.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("default_agent: %s\n", cfg.DefaultAgent)
	fmt.Printf("max_parallel: %d\n", cfg.MaxParallel)

	key, _ := config.GetAPIKey(cfg)
	fmt.Printf("anthropic.api_key: %s (%s)\n", config.MaskAPIKey(key), config.GetAPIKeySource(cfg))
	fmt.Printf("anthropic.model: %s\n", orUnset(cfg.Anthropic.Model))
	fmt.Printf("anthropic.use_aws_bedrock: %t\n", cfg.Anthropic.UseAWSBedrock)

	for name, ac := range cfg.Agents {
		prefix := "agents." + name + "."
		if ac.Command != "" {
			fmt.Printf("%scommand: %s\n", prefix, ac.Command)
		}
		if ac.Model != "" {
			fmt.Printf("%smodel: %s\n", prefix, ac.Model)
		}
		if ac.MaxContextTokens > 0 {
			fmt.Printf("%smax_context_tokens: %d\n", prefix, ac.MaxContextTokens)
		}
		if ac.Timeout > 0 {
			fmt.Printf("%stimeout: %s\n", prefix, ac.Timeout)
		}
	}

	fmt.Printf("\nuser config: %s\n", config.GetUserConfigPath())
	if project := config.GetProjectConfigPath(); project != "" {
		fmt.Printf("project config: %s\n", project)
	}

	rt, err := newRuntime()
	if err != nil {
		return
	}
	fmt.Println("\nagents:")
	for _, name := range rt.adapters.Names() {
		a, err := rt.adapters.Get(name)
		if err != nil {
			continue
		}
		state := "not found in PATH"
		if a.IsAvailable() {
			state = "available"
		}
		fmt.Printf("  %s: %s\n", name, state)
	}
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "default_agent":
		return cfg.DefaultAgent, nil
	case "max_parallel":
		return strconv.Itoa(cfg.MaxParallel), nil
	case "anthropic.api_key":
		if cfg.Anthropic.APIKey == "" {
			return "(not set)", nil
		}
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.model":
		return orUnset(cfg.Anthropic.Model), nil
	case "anthropic.use_aws_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseAWSBedrock), nil
	case "anthropic.aws_region":
		return orUnset(cfg.Anthropic.AWSRegion), nil
	case "anthropic.aws_profile":
		return orUnset(cfg.Anthropic.AWSProfile), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "default_agent":
		cfg.DefaultAgent = value
	case "max_parallel":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid value for max_parallel: %s", value)
		}
		cfg.MaxParallel = n
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.use_aws_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for use_aws_bedrock: %w", err)
		}
		cfg.Anthropic.UseAWSBedrock = b
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.aws_profile":
		cfg.Anthropic.AWSProfile = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
