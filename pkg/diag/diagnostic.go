// Package diag defines the diagnostic data model shared by the semantic
// analyzer, the reports, and the LSP surface: severities, stable codes,
// resolved source locations, and the Diagnostic record itself.
package diag

import (
	"fmt"

	"github.com/Sumatoshi-tech/bslcheck/pkg/source"
)

// Severity classifies how serious a diagnostic is.
type Severity string

// Severity levels, ordered from most to least severe.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeverityHint    Severity = "hint"
)

// Stable diagnostic codes. Codes never change once published; reports and
// editor integrations key suppression rules on them.
const (
	CodeSyntaxError           = "BSL001"
	CodeUnknownConstruct      = "BSL002"
	CodeUnknownMethod         = "BSL003"
	CodeWrongParamCount       = "BSL004"
	CodeUnknownProperty       = "BSL005"
	CodeTypeMismatch          = "BSL006"
	CodeUndeclaredVariable    = "BSL007"
	CodeUnusedVariable        = "BSL008"
	CodeUninitializedVariable = "BSL009"
	CodeDuplicateParameter    = "BSL010"
	CodeDuplicateVariable     = "BSL011"
)

// Location is a resolved place in a source file. Line and Column are
// zero-based; Offset and Length are in bytes.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

// ResolveLocation builds a Location from a span. A nil line index degrades
// line/column to zero rather than failing; the byte offset is always kept.
func ResolveLocation(file string, span source.Span, li *source.LineIndex) Location {
	loc := Location{
		File:   file,
		Offset: int(span.Start),
		Length: int(span.Len),
	}

	if li != nil {
		pos := li.ToPosition(span.Start)
		loc.Line = pos.Line
		loc.Column = pos.Column
	}

	return loc
}

// Diagnostic is a single analyzer finding. Diagnostics are data, not errors:
// analysis accumulates and returns them without aborting.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Location Location `json:"location"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}

// New creates a diagnostic.
func New(severity Severity, loc Location, code, message string) Diagnostic {
	return Diagnostic{
		Severity: severity,
		Location: loc,
		Code:     code,
		Message:  message,
	}
}

// String renders the diagnostic in file:line:column form for logs and the
// plain text report.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s [%s] %s",
		d.Location.File, d.Location.Line+1, d.Location.Column+1, d.Severity, d.Code, d.Message)
}
