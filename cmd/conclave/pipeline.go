package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/conclave-dev/conclave/internal/plan"
)

var pipelineSteps string

var pipelineCmd = &cobra.Command{
	Use:   "pipeline [prompt]",
	Short: "Chain agents so each stage consumes the previous output",
	Long: `Run agents as a pipeline. Stages are given as agent:action pairs; each
stage receives the previous stage's full output and the final stage's
output is the result.

Examples:
  conclave pipeline --steps claude:draft,gemini:review "document the backup procedure"
  conclave pipeline --steps codex:implement,claude:review,codex:fix "parse RFC 3339 timestamps"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPipeline,
}

func init() {
	pipelineCmd.Flags().StringVar(&pipelineSteps, "steps", "", "Comma-separated agent:action stages (required)")
	pipelineCmd.MarkFlagRequired("steps")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	prompt, err := promptArg(args)
	if err != nil {
		return err
	}

	stages, err := plan.ParsePipeline(pipelineSteps)
	if err != nil {
		return err
	}

	p, err := plan.BuildPipeline(prompt, stages)
	if err != nil {
		return err
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	_, err = rt.executePlan(context.Background(), p)
	return err
}
