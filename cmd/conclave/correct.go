package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/conclave-dev/conclave/internal/plan"
)

var (
	correctProducer string
	correctReviewer string
	correctFix      bool
)

var correctCmd = &cobra.Command{
	Use:   "correct [prompt]",
	Short: "Produce, review, and optionally fix a response",
	Long: `One agent produces a response, a second reviews it, and with --fix the
producer revises its response using the review.

Examples:
  conclave correct --producer claude --reviewer gemini "summarize this RFC"
  conclave correct --producer codex --reviewer claude --fix "write a rate limiter"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCorrect,
}

func init() {
	correctCmd.Flags().StringVar(&correctProducer, "producer", "", "Agent that writes the response (required)")
	correctCmd.Flags().StringVar(&correctReviewer, "reviewer", "", "Agent that reviews it (required)")
	correctCmd.Flags().BoolVar(&correctFix, "fix", false, "Have the producer revise after the review")
	correctCmd.MarkFlagRequired("producer")
	correctCmd.MarkFlagRequired("reviewer")
}

func runCorrect(cmd *cobra.Command, args []string) error {
	prompt, err := promptArg(args)
	if err != nil {
		return err
	}

	p, err := plan.BuildCorrection(prompt, plan.Correction{
		Producer:       correctProducer,
		Reviewer:       correctReviewer,
		FixAfterReview: correctFix,
	})
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
