package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/entrhq/navcheck/pkg/navigation"
	"github.com/entrhq/navcheck/pkg/scenario"
)

// Artifact file names
const (
	ReportFile  = "report.json"
	SummaryFile = "summary.md"
)

// ArtifactWriter handles writing run artifacts
type ArtifactWriter struct {
	outputDir string
	json      bool
	markdown  bool
}

// NewArtifactWriter creates a writer for outputDir. Each format can be
// turned off.
func NewArtifactWriter(outputDir string, writeJSON, writeMarkdown bool) *ArtifactWriter {
	return &ArtifactWriter{
		outputDir: outputDir,
		json:      writeJSON,
		markdown:  writeMarkdown,
	}
}

// Dir returns the per-run directory artifacts are written to.
func (w *ArtifactWriter) Dir(r *Report) string {
	return filepath.Join(w.outputDir, r.RunID)
}

// WriteAll writes all configured artifact formats into <outputDir>/<run id>.
func (w *ArtifactWriter) WriteAll(r *Report) error {
	if !w.json && !w.markdown {
		return nil
	}

	dir := w.Dir(r)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if w.json {
		if err := w.WriteReportJSON(dir, r); err != nil {
			return err
		}
	}
	if w.markdown {
		if err := w.WriteSummaryMarkdown(dir, r); err != nil {
			return err
		}
	}
	return nil
}

// WriteReportJSON writes the full report as JSON
func (w *ArtifactWriter) WriteReportJSON(dir string, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, ReportFile), data, 0600); err != nil {
		return fmt.Errorf("failed to write report JSON: %w", err)
	}
	return nil
}

// WriteSummaryMarkdown writes a human-readable markdown summary
func (w *ArtifactWriter) WriteSummaryMarkdown(dir string, r *Report) error {
	if err := os.WriteFile(filepath.Join(dir, SummaryFile), []byte(Markdown(r)), 0600); err != nil {
		return fmt.Errorf("failed to write summary markdown: %w", err)
	}
	return nil
}

// Markdown renders the report as a markdown document.
func Markdown(r *Report) string {
	var md strings.Builder

	md.WriteString(fmt.Sprintf("# navcheck: %s\n\n", r.Suite))
	md.WriteString(fmt.Sprintf("**Run:** `%s`\n\n", r.RunID))
	if r.BaseURL != "" {
		md.WriteString(fmt.Sprintf("**Base URL:** %s\n\n", r.BaseURL))
	}
	md.WriteString(fmt.Sprintf("**Status:** %s\n\n", r.Status))
	md.WriteString(fmt.Sprintf("**Started:** %s\n\n", r.StartTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Duration:** %s\n\n", r.Duration.Round(time.Millisecond)))

	md.WriteString("## Result\n\n")
	switch {
	case r.Error != "":
		md.WriteString(fmt.Sprintf("❌ **Error:** %s\n\n", r.Error))
	case r.Passed():
		md.WriteString("✅ **All steps passed**\n\n")
	default:
		md.WriteString(fmt.Sprintf("❌ **%d failed, %d not run**\n\n", r.Steps.Failed, r.Steps.NotRun))
	}

	for _, sc := range r.Scenarios {
		md.WriteString(fmt.Sprintf("## Scenario: %s\n\n", sc.Name))
		md.WriteString("| Step | State | Detail |\n")
		md.WriteString("|------|-------|--------|\n")
		for _, step := range sc.Steps {
			md.WriteString(fmt.Sprintf("| %s | %s %s | %s |\n",
				step.Step, stateIcon(step.State), step.State, escapeCell(stepDetail(step))))
		}
		md.WriteString("\n")

		links := outcomesOf(sc)
		if len(links) == 0 {
			continue
		}
		md.WriteString("| Link | Status | Observed | Via |\n")
		md.WriteString("|------|--------|----------|-----|\n")
		for _, o := range links {
			md.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				escapeCell(o.Link.Href), o.Status, escapeCell(o.ObservedURL), o.Via))
		}
		md.WriteString("\n")
	}

	if len(r.Filtered) > 0 {
		md.WriteString("## Filtered Out\n\n")
		for _, name := range r.Filtered {
			md.WriteString(fmt.Sprintf("- `%s`\n", name))
		}
		md.WriteString("\n")
	}

	md.WriteString("## Metrics\n\n")
	md.WriteString(fmt.Sprintf("- **Steps:** %d passed, %d failed, %d not run\n", r.Steps.Passed, r.Steps.Failed, r.Steps.NotRun))
	md.WriteString(fmt.Sprintf("- **Links:** %d verified, %d host mismatch, %d timeout, %d ambiguous, %d skipped\n",
		r.Links.Verified, r.Links.HostMismatch, r.Links.Timeout, r.Links.Ambiguous, r.Links.Skipped))
	if r.SessionLog != "" {
		md.WriteString(fmt.Sprintf("- **Log:** `%s`\n", r.SessionLog))
	}

	return md.String()
}

func stateIcon(s scenario.StepState) string {
	switch s {
	case scenario.Passed:
		return "✅"
	case scenario.Failed:
		return "❌"
	default:
		return "⏭"
	}
}

func stepDetail(step scenario.StepResult) string {
	if step.Err != nil {
		return step.Err.Error()
	}
	return step.Reason
}

func outcomesOf(sc scenario.ScenarioResult) []navigation.VerificationOutcome {
	var out []navigation.VerificationOutcome
	for _, step := range sc.Steps {
		out = append(out, step.Outcomes...)
	}
	return out
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
