// Package render presents execution progress and results on the terminal.
// It consumes the executor's event stream for live status lines and formats
// the final per-step summary and output.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/conclave-dev/conclave/internal/executor"
	"github.com/conclave-dev/conclave/pkg/models"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	outputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	agentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// Renderer writes human-readable progress and results.
type Renderer struct {
	out   io.Writer
	quiet bool
}

// New creates a Renderer. With quiet set, progress lines are suppressed and
// only the final output is written.
func New(out io.Writer, quiet bool) *Renderer {
	return &Renderer{out: out, quiet: quiet}
}

// Consume drains the event channel until it is closed, printing one status
// line per event. Run it on its own goroutine alongside Execute.
func (r *Renderer) Consume(events <-chan executor.Event) {
	for ev := range events {
		r.HandleEvent(ev)
	}
}

// HandleEvent prints one status line for an event.
func (r *Renderer) HandleEvent(ev executor.Event) {
	if r.quiet {
		return
	}

	agent := agentStyle.Render(ev.Agent)
	switch ev.Type {
	case executor.EventStepStarted:
		fmt.Fprintf(r.out, "%s %s %s %s\n",
			color.CyanString("▶"), ev.StepID, dimStyle.Render(ev.Action), agent)
	case executor.EventStepCompleted:
		if ev.Message != "" {
			fmt.Fprintf(r.out, "%s %s skipped: %s\n",
				color.YellowString("-"), ev.StepID, ev.Message)
			return
		}
		fmt.Fprintf(r.out, "%s %s %s %s\n",
			color.GreenString("✓"), ev.StepID, agent, dimStyle.Render(formatDuration(ev.Duration)))
	case executor.EventStepError:
		fmt.Fprintf(r.out, "%s %s %s: %s\n",
			color.RedString("✗"), ev.StepID, agent, ev.Message)
	}
}

// Result prints the final outcome: a per-step summary and the final output.
func (r *Renderer) Result(plan *models.Plan, res *models.ExecutionResult) {
	if !r.quiet {
		fmt.Fprintf(r.out, "\n%s\n", headerStyle.Render(fmt.Sprintf("Run %s (%s) in %s",
			statusWord(res.Status), plan.Mode, formatDuration(res.Duration))))

		for _, step := range plan.Steps {
			sr := res.ResultFor(step.ID)
			if sr == nil {
				continue
			}
			fmt.Fprintf(r.out, "  %s %s\n", stepMark(sr), stepSummary(step, sr))
		}
		fmt.Fprintln(r.out)
	}

	if res.FinalOutput != "" {
		if r.quiet {
			fmt.Fprintln(r.out, res.FinalOutput)
		} else {
			fmt.Fprintln(r.out, outputStyle.Render(res.FinalOutput))
		}
	}
}

// stepMark picks the status glyph for one step result.
func stepMark(sr *models.StepResult) string {
	switch {
	case sr.Err != nil:
		return color.RedString("✗")
	case sr.Skipped:
		return color.YellowString("-")
	default:
		return color.GreenString("✓")
	}
}

// stepSummary formats one line of the per-step table.
func stepSummary(step *models.Step, sr *models.StepResult) string {
	var b strings.Builder
	b.WriteString(step.ID)
	b.WriteString(" ")
	b.WriteString(agentStyle.Render(step.Agent.String()))
	switch {
	case sr.Err != nil:
		fmt.Fprintf(&b, " %s", sr.Err.Error())
	case sr.Skipped:
		fmt.Fprintf(&b, " skipped: %s", sr.SkipReason)
	default:
		if sr.Model != "" {
			fmt.Fprintf(&b, " %s", dimStyle.Render(sr.Model))
		}
		if sr.Duration > 0 {
			fmt.Fprintf(&b, " %s", dimStyle.Render(formatDuration(sr.Duration)))
		}
	}
	return b.String()
}

func statusWord(s models.Status) string {
	switch s {
	case models.StatusCompleted:
		return color.GreenString(string(s))
	case models.StatusFailed:
		return color.RedString(string(s))
	default:
		return color.YellowString(string(s))
	}
}

// formatDuration trims durations to a display-friendly precision.
func formatDuration(d time.Duration) string {
	if d == 0 {
		return ""
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
