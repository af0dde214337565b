package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	flagInteractive bool
	flagQuiet       bool
)

var rootCmd = &cobra.Command{
	Use:   "conclave",
	Short: "Multi-agent LLM coordination",
	Long: `Conclave coordinates multiple LLM CLI agents (claude, gemini, codex,
ollama) on one task: fan a prompt out for comparison, chain agents into a
pipeline, run producer/reviewer correction, hold a debate, or drive the
agents to consensus.

Each mode builds a dependency-ordered execution plan; independent steps run
concurrently, every agent call goes through a per-agent circuit breaker,
and prompts are packed to each agent's context window.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagInteractive, "interactive", "i", false, "Confirm each step before it runs")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Print only the final output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(pipelineCmd)
	rootCmd.AddCommand(correctCmd)
	rootCmd.AddCommand(debateCmd)
	rootCmd.AddCommand(consensusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
