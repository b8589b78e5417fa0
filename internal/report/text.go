// Package report renders analyzer diagnostics as plain text, SARIF 2.1.0,
// and a standalone HTML summary page.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/bslcheck/pkg/diag"
)

// Format selects the output renderer.
type Format string

// The supported output formats.
const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatSARIF Format = "sarif"
	FormatHTML  Format = "html"
)

// ValidFormat reports whether f names a known renderer.
func ValidFormat(f Format) bool {
	switch f {
	case FormatText, FormatJSON, FormatSARIF, FormatHTML:
		return true
	}

	return false
}

func severityColor(s diag.Severity) *color.Color {
	switch s {
	case diag.SeverityError:
		return color.New(color.FgRed)
	case diag.SeverityWarning:
		return color.New(color.FgYellow)
	case diag.SeverityInfo:
		return color.New(color.FgBlue)
	case diag.SeverityHint:
		return color.New(color.FgCyan)
	}

	return color.New(color.Reset)
}

// sortDiagnostics orders findings by file, then byte offset, then code.
func sortDiagnostics(diags []diag.Diagnostic) []diag.Diagnostic {
	out := make([]diag.Diagnostic, len(diags))
	copy(out, diags)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Location.File != out[j].Location.File {
			return out[i].Location.File < out[j].Location.File
		}
		if out[i].Location.Offset != out[j].Location.Offset {
			return out[i].Location.Offset < out[j].Location.Offset
		}

		return out[i].Code < out[j].Code
	})

	return out
}

// WriteText renders a human-readable table of diagnostics followed by a
// per-severity summary line. Severity cells are colorized unless color
// output is globally disabled.
func WriteText(w io.Writer, diags []diag.Diagnostic) error {
	if len(diags) == 0 {
		_, err := fmt.Fprintln(w, "No issues found.")

		return err
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.AppendHeader(table.Row{"Location", "Severity", "Code", "Message"})

	counts := map[diag.Severity]int{}

	for _, d := range sortDiagnostics(diags) {
		counts[d.Severity]++
		tbl.AppendRow(table.Row{
			fmt.Sprintf("%s:%d:%d", d.Location.File, d.Location.Line+1, d.Location.Column+1),
			severityColor(d.Severity).Sprint(string(d.Severity)),
			d.Code,
			d.Message,
		})
	}

	tbl.Render()

	summary := fmt.Sprintf("%d issue(s)", len(diags))
	for _, sev := range []diag.Severity{diag.SeverityError, diag.SeverityWarning, diag.SeverityInfo, diag.SeverityHint} {
		if counts[sev] > 0 {
			summary += fmt.Sprintf(", %d %s", counts[sev], sev)
		}
	}

	_, err := fmt.Fprintln(w, summary)

	return err
}
