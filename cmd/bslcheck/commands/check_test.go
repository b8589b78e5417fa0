package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/bslcheck/pkg/diag"
)

func writeModule(t *testing.T, name, src string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))

	return path
}

func TestRunCheckCleanModule(t *testing.T) {
	t.Parallel()

	path := writeModule(t, "clean.bsl", "Перем Х;\nХ = 1;\nСообщить(Х);\n")

	var buf bytes.Buffer
	err := runCheck(&buf, "", []string{path}, &checkOptions{format: "text"})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No issues found.")
}

func TestRunCheckReportsFindings(t *testing.T) {
	t.Parallel()

	path := writeModule(t, "dirty.bsl", "Перем Х;\nУ = Х;\n")

	var buf bytes.Buffer
	err := runCheck(&buf, "", []string{path}, &checkOptions{format: "json"})

	require.ErrorIs(t, err, ErrIssuesFound)

	var diags []diag.Diagnostic
	require.NoError(t, json.Unmarshal(buf.Bytes(), &diags))
	require.NotEmpty(t, diags)

	codes := make([]string, 0, len(diags))
	for _, d := range diags {
		codes = append(codes, d.Code)
	}
	assert.Contains(t, codes, "BSL007")
}

func TestRunCheckFormatOverride(t *testing.T) {
	t.Parallel()

	path := writeModule(t, "m.bsl", "Перем Х;\nХ = 1;\nСообщить(Х);\n")

	t.Run("invalid_format_rejected", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		err := runCheck(&buf, "", []string{path}, &checkOptions{format: "xml"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "xml")
	})

	t.Run("sarif_output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, runCheck(&buf, "", []string{path}, &checkOptions{format: "sarif"}))
		assert.Contains(t, buf.String(), `"2.1.0"`)
	})
}

func TestRunCheckOutputFile(t *testing.T) {
	t.Parallel()

	path := writeModule(t, "m.bsl", "Перем Х;\nХ = 1;\nСообщить(Х);\n")
	out := filepath.Join(t.TempDir(), "report.txt")

	var buf bytes.Buffer
	require.NoError(t, runCheck(&buf, "", []string{path}, &checkOptions{format: "text", output: out}))

	assert.Empty(t, buf.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "No issues found.")
}

func TestRunCheckMissingFile(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := runCheck(&buf, "", []string{filepath.Join(t.TempDir(), "absent.bsl")}, &checkOptions{})
	require.Error(t, err)
}

func TestNewCheckCommandFlags(t *testing.T) {
	t.Parallel()

	configPath := ""
	cmd := NewCheckCommand(&configPath)

	require.NotNil(t, cmd.Flags().Lookup("format"))
	require.NotNil(t, cmd.Flags().Lookup("output"))
	require.NotNil(t, cmd.Flags().Lookup("catalog"))
	require.NotNil(t, cmd.Flags().Lookup("methods"))
	assert.Equal(t, "check [files...]", cmd.Use)
}
