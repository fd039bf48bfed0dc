package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"

	"github.com/felixgeelhaar/covergate/internal/application"
	"github.com/felixgeelhaar/covergate/internal/domain"
)

type Writer struct{}

func (Writer) Write(w io.Writer, result application.CheckResult, format application.OutputFormat) error {
	switch format {
	case application.OutputJSON:
		return writeJSON(w, result)
	case application.OutputMarkdown:
		return writeMarkdown(w, result)
	case application.OutputBrief:
		return writeBrief(w, result)
	case application.OutputText, "":
		return writeText(w, result)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func writeJSON(w io.Writer, result application.CheckResult) error {
	payload := result
	if payload.Summary == nil {
		payload.Summary = map[domain.Metric]float64{}
	}
	if payload.Violations == nil {
		payload.Violations = []domain.ThresholdResult{}
	}
	if payload.Reasons == nil {
		payload.Reasons = []domain.FailReason{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func writeText(w io.Writer, result application.CheckResult) error {
	colorize := colorEnabled(w)
	passStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A")).Bold(true)
	failStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true)
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#CA8A04")).Bold(true)

	_, _ = fmt.Fprintf(w, "Coverage summary (%d files)\n", result.Files)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "Metric\tCoverage")
	for _, metric := range domain.Metrics {
		percent, ok := result.Summary[metric]
		if !ok {
			_, _ = fmt.Fprintf(tw, "%s\t-\n", metric)
			continue
		}
		_, _ = fmt.Fprintf(tw, "%s\t%.2f%%\n", metric, percent)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(result.Violations) > 0 {
		_, _ = fmt.Fprintln(w, "\nThreshold violations:")
		vtw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(vtw, "Path\tMetric\tRequired\tCoverage\tStatus")
		for _, v := range result.Violations {
			status := "FAIL"
			if colorize {
				status = failStyle.Render(status)
			}
			_, _ = fmt.Fprintf(vtw, "%s\t%s\t%.2f%%\t%.2f%%\t%s\n", v.Path, v.Type, v.Expected, v.Received, status)
		}
		if err := vtw.Flush(); err != nil {
			return err
		}
	}

	for _, reason := range result.Reasons {
		if reason == domain.FailReasonUnderThreshold {
			continue
		}
		line := reasonText(reason)
		if colorize {
			line = warnStyle.Render(line)
		}
		_, _ = fmt.Fprintf(w, "\n%s\n", line)
	}

	verdict := "PASS"
	style := passStyle
	if !result.Passed {
		verdict = "FAIL"
		style = failStyle
	}
	if colorize {
		verdict = style.Render(verdict)
	}
	_, err := fmt.Fprintf(w, "\n%s: %s\n", verdict, verdictDetail(result))
	return err
}

func writeMarkdown(w io.Writer, result application.CheckResult) error {
	verdict := "passed"
	if !result.Passed {
		verdict = "failed"
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "## Coverage check %s\n\n", verdict)

	summary := newMarkdownTable(&buf, []string{"Metric", "Coverage"})
	for _, metric := range domain.Metrics {
		cell := "-"
		if percent, ok := result.Summary[metric]; ok {
			cell = fmt.Sprintf("%.2f%%", percent)
		}
		summary.Append([]string{string(metric), cell})
	}
	summary.Render()

	if len(result.Violations) > 0 {
		buf.WriteString("\n### Threshold violations\n\n")
		violations := newMarkdownTable(&buf, []string{"Path", "Metric", "Required", "Coverage", "Shortfall"})
		for _, v := range result.Violations {
			violations.Append([]string{
				"`" + v.Path + "`",
				string(v.Type),
				fmt.Sprintf("%.2f%%", v.Expected),
				fmt.Sprintf("%.2f%%", v.Received),
				fmt.Sprintf("%.2f", v.Shortfall()),
			})
		}
		violations.Render()
	}

	for _, reason := range result.Reasons {
		if reason == domain.FailReasonUnderThreshold {
			continue
		}
		fmt.Fprintf(&buf, "\n> %s\n", reasonText(reason))
	}

	_, err := w.Write(buf.Bytes())
	return err
}

func newMarkdownTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	return table
}

func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// writeBrief outputs a single-line summary optimized for LLM/agent consumption.
// Format: STATUS | statements XX.X% branches XX.X% ... [| N violations: path metric XX.X% < XX.X%, ...] [| REASON]
func writeBrief(w io.Writer, result application.CheckResult) error {
	status := "PASS"
	if !result.Passed {
		status = "FAIL"
	}

	var sb strings.Builder
	sb.WriteString(status)

	var metrics []string
	for _, metric := range domain.Metrics {
		if percent, ok := result.Summary[metric]; ok {
			metrics = append(metrics, fmt.Sprintf("%s %.1f%%", metric, percent))
		}
	}
	if len(metrics) > 0 {
		sb.WriteString(" | ")
		sb.WriteString(strings.Join(metrics, " "))
	}

	if len(result.Violations) > 0 {
		sb.WriteString(fmt.Sprintf(" | %d violations:", len(result.Violations)))
		for i, v := range result.Violations {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(fmt.Sprintf(" %s %s %.1f%% < %.1f%%", v.Path, v.Type, v.Received, v.Expected))
		}
	}

	for _, reason := range result.Reasons {
		if reason != domain.FailReasonUnderThreshold {
			sb.WriteString(" | ")
			sb.WriteString(string(reason))
		}
	}

	sb.WriteString("\n")
	_, err := w.Write([]byte(sb.String()))
	return err
}

func reasonText(reason domain.FailReason) string {
	switch reason {
	case domain.FailReasonTestsFailed:
		return "The test run reported failing tests."
	case domain.FailReasonReportNotFound:
		return "A coverage report could not be found."
	case domain.FailReasonInvalidCoverageFormat:
		return "A coverage report could not be parsed."
	default:
		return string(reason)
	}
}

func verdictDetail(result application.CheckResult) string {
	switch {
	case len(result.Violations) == 1:
		return "1 threshold not met"
	case len(result.Violations) > 1:
		return fmt.Sprintf("%d thresholds not met", len(result.Violations))
	case result.Passed:
		return "all thresholds met"
	default:
		return "see reasons above"
	}
}
