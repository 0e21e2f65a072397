package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmr-tortoise/pyfmt/internal/model"
)

// Styles for text output. lipgloss drops the colors when the output is
// not a terminal, so piped output stays plain.
var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Faint(true)
	boldStyle  = lipgloss.NewStyle().Bold(true)
)

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(data))
}

// writeReportText prints one line per formatter step, then a summary:
//
//	ok      isort   0.41s
//	failed  black   exit 123
//	2 of 2 formatter(s) ran over 12 file(s), stopped at black
func writeReportText(w io.Writer, report *model.Report) {
	if report == nil {
		return
	}
	if len(report.Files) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No Python files found, nothing to format."))
		return
	}

	ran := 0
	for _, step := range report.Steps {
		if step.Status == model.StepSucceeded || step.Status == model.StepFailed {
			ran++
		}
		fmt.Fprintln(w, stepLine(step))
	}
	summary := fmt.Sprintf("%d of %d formatter(s) ran over %d file(s)", ran, len(report.Steps), len(report.Files))
	if failed := report.Failed(); failed != nil {
		summary += ", stopped at " + failed.Formatter
	}
	fmt.Fprintln(w, boldStyle.Render(summary))
}

// stepLine renders a single step as "<status> <formatter> <detail>".
func stepLine(step model.StepResult) string {
	var status, detail string
	switch step.Status {
	case model.StepSucceeded:
		status = okStyle.Render(fmt.Sprintf("%-7s", "ok"))
		detail = formatDuration(step.Duration)
	case model.StepFailed:
		status = errorStyle.Render(fmt.Sprintf("%-7s", "failed"))
		detail = fmt.Sprintf("exit %d", step.ExitCode)
	default:
		status = dimStyle.Render(fmt.Sprintf("%-7s", step.Status.String()))
	}
	return strings.TrimRight(fmt.Sprintf("%s %-12s %s", status, step.Formatter, detail), " ")
}

// formatDuration renders d with two decimals in seconds, e.g. "0.41s".
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}
