package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/bslcheck/pkg/diag"
)

func sampleDiags() []diag.Diagnostic {
	return []diag.Diagnostic{
		diag.New(diag.SeverityWarning,
			diag.Location{File: "b.bsl", Line: 4, Column: 2, Offset: 80, Length: 3},
			diag.CodeUnusedVariable, "Переменная не используется: Х"),
		diag.New(diag.SeverityError,
			diag.Location{File: "a.bsl", Line: 1, Column: 0, Offset: 10, Length: 5},
			diag.CodeUndeclaredVariable, "Необъявленная переменная: У"),
		diag.New(diag.SeverityError,
			diag.Location{File: "a.bsl", Line: 0, Column: 0, Offset: 0, Length: 4},
			diag.CodeSyntaxError, "if without then"),
	}
}

func TestValidFormat(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidFormat(FormatText))
	assert.True(t, ValidFormat(FormatSARIF))
	assert.False(t, ValidFormat(Format("xml")))
}

func TestWriteText(t *testing.T) {
	t.Parallel()

	t.Run("no_issues", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, WriteText(&buf, nil))
		assert.Contains(t, buf.String(), "No issues found")
	})

	t.Run("sorted_table_with_summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, WriteText(&buf, sampleDiags()))

		out := buf.String()
		assert.Contains(t, out, "a.bsl:1:1")
		assert.Contains(t, out, "b.bsl:5:3")
		assert.Contains(t, out, "3 issue(s), 2 error, 1 warning")

		// a.bsl rows precede b.bsl rows.
		assert.Less(t, strings.Index(out, "a.bsl:1:1"), strings.Index(out, "b.bsl:5:3"))
	})
}

func TestWriteSARIF(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteSARIF(&buf, sampleDiags()))

	var log sarifLog
	require.NoError(t, json.Unmarshal(buf.Bytes(), &log))

	assert.Equal(t, "2.1.0", log.Version)
	require.Len(t, log.Runs, 1)

	run := log.Runs[0]
	assert.Equal(t, "bslcheck", run.Tool.Driver.Name)
	require.Len(t, run.Results, 3)

	// Results are sorted by file and offset; rule indices point into the
	// deduplicated rule table.
	first := run.Results[0]
	assert.Equal(t, diag.CodeSyntaxError, first.RuleID)
	assert.Equal(t, "error", first.Level)
	assert.Equal(t, 1, first.Locations[0].PhysicalLocation.Region.StartLine)
	assert.Equal(t, run.Tool.Driver.Rules[first.RuleIndex].ID, first.RuleID)

	warning := run.Results[2]
	assert.Equal(t, "warning", warning.Level)
	assert.Equal(t, "b.bsl", warning.Locations[0].PhysicalLocation.ArtifactLocation.URI)
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleDiags()))

	var decoded []diag.Diagnostic
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 3)
	assert.Equal(t, diag.CodeSyntaxError, decoded[0].Code)
}

func TestWriteHTML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, sampleDiags()))

	out := buf.String()
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "Findings by code")
	assert.Contains(t, out, "BSL008")
}
