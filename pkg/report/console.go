package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/navcheck/pkg/navigation"
	"github.com/entrhq/navcheck/pkg/scenario"
)

// Console renders reports for a terminal.
type Console struct {
	w       io.Writer
	verbose bool
}

// NewConsole writes to w. Verbose also lists every link outcome of passing
// steps.
func NewConsole(w io.Writer, verbose bool) *Console {
	return &Console{w: w, verbose: verbose}
}

// Print writes the rendered report.
func (c *Console) Print(r *Report) error {
	_, err := io.WriteString(c.w, c.Render(r))
	return err
}

// Render returns the report as styled text.
func (c *Console) Render(r *Report) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("navcheck · " + r.Suite))
	b.WriteString("\n\n")

	for _, sc := range r.Scenarios {
		b.WriteString(scenarioStyle.Render(sc.Name))
		b.WriteString("\n")
		for _, step := range sc.Steps {
			c.renderStep(&b, step)
		}
		b.WriteString("\n")
	}

	b.WriteString(summaryBoxStyle.Render(c.summary(r)))
	b.WriteString("\n")
	return b.String()
}

func (c *Console) renderStep(b *strings.Builder, step scenario.StepResult) {
	icon, style := "✓", passStyle
	switch step.State {
	case scenario.Failed:
		icon, style = "✗", failStyle
	case scenario.NotRun:
		icon, style = "-", skipStyle
	}

	line := fmt.Sprintf("  %s %s", icon, step.Step)
	if step.State != scenario.NotRun {
		line += fmt.Sprintf(" (%s)", step.Duration.Round(time.Millisecond))
	}
	b.WriteString(style.Render(line))
	b.WriteString("\n")

	if detail := stepDetail(step); detail != "" && step.State != scenario.Passed {
		b.WriteString(detailStyle.Render(detail))
		b.WriteString("\n")
	}

	for _, o := range step.Outcomes {
		if !c.verbose && o.Passed() {
			continue
		}
		b.WriteString(detailStyle.Render(outcomeLine(o)))
		b.WriteString("\n")
	}
}

func outcomeLine(o navigation.VerificationOutcome) string {
	switch o.Status {
	case navigation.StatusVerified:
		return fmt.Sprintf("%s → %s", o.Link.Href, o.ObservedHost)
	case navigation.StatusSkipped:
		return fmt.Sprintf("%s skipped", o.Link.Href)
	default:
		return fmt.Sprintf("%s %s: %s", o.Link.Href, o.Status, o.Detail)
	}
}

func (c *Console) summary(r *Report) string {
	status := passStyle.Render("PASSED")
	switch r.Status {
	case StatusFailed:
		status = failStyle.Render("FAILED")
	case StatusError:
		status = failStyle.Render("ERROR")
	}

	lines := []string{
		fmt.Sprintf("%s in %s", status, r.Duration.Round(time.Millisecond)),
		fmt.Sprintf("steps: %d passed, %d failed, %d not run", r.Steps.Passed, r.Steps.Failed, r.Steps.NotRun),
		fmt.Sprintf("links: %d verified, %d mismatched, %d timed out, %d ambiguous, %d skipped",
			r.Links.Verified, r.Links.HostMismatch, r.Links.Timeout, r.Links.Ambiguous, r.Links.Skipped),
	}
	if r.Error != "" {
		lines = append(lines, failStyle.Render("error: "+r.Error))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
