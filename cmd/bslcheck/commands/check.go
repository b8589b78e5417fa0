// Package commands implements CLI command handlers for bslcheck.
package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/bslcheck/internal/bsl"
	"github.com/Sumatoshi-tech/bslcheck/internal/config"
	"github.com/Sumatoshi-tech/bslcheck/internal/report"
	"github.com/Sumatoshi-tech/bslcheck/pkg/diag"
	"github.com/Sumatoshi-tech/bslcheck/pkg/semantic"
	"github.com/Sumatoshi-tech/bslcheck/pkg/source"
)

// ErrIssuesFound makes the process exit nonzero when error-severity
// diagnostics were reported.
var ErrIssuesFound = errors.New("issues found")

type checkOptions struct {
	format      string
	output      string
	catalogPath string
	methods     bool
}

// NewCheckCommand builds the check subcommand.
func NewCheckCommand(configPath *string) *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check [files...]",
		Short: "Analyze BSL modules and report diagnostics",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.OutOrStdout(), *configPath, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: text, json, sarif, html")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().StringVar(&opts.catalogPath, "catalog", "", "YAML method/property catalog")
	cmd.Flags().BoolVar(&opts.methods, "methods", false, "enable method and property resolution")

	return cmd
}

func runCheck(stdout io.Writer, configPath string, files []string, opts *checkOptions) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if opts.methods {
		cfg.Checks.Methods = true
	}
	if opts.catalogPath != "" {
		cfg.Catalog.Path = opts.catalogPath
	}
	if opts.format != "" {
		if !report.ValidFormat(report.Format(opts.format)) {
			return fmt.Errorf("%w: %q", config.ErrInvalidFormat, opts.format)
		}
		cfg.Report.Format = opts.format
	}

	catalog, err := cfg.LoadCatalog()
	if err != nil {
		return err
	}

	var all []diag.Diagnostic
	for _, file := range files {
		diags, err := checkFile(file, cfg, catalog)
		if err != nil {
			return err
		}
		all = append(all, diags...)
	}

	out := stdout
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create report file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := render(out, report.Format(cfg.Report.Format), all); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	errorCount := 0
	for _, d := range all {
		if d.Severity == diag.SeverityError {
			errorCount++
		}
	}
	if errorCount > 0 {
		return fmt.Errorf("%w: %s error(s)", ErrIssuesFound, humanize.Comma(int64(errorCount)))
	}

	return nil
}

func checkFile(file string, cfg *config.Config, catalog *semantic.Catalog) ([]diag.Diagnostic, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}

	text := string(data)
	started := time.Now()

	m, diags := bsl.Parse(text, file)
	tree := bsl.BuildArena(m)

	a := semantic.NewAnalyzer()
	a.FileName = file
	a.LineIndex = source.NewLineIndex(text)
	a.Catalog = catalog
	a.Checks = cfg.SemanticChecks()

	diags = append(diags, a.Analyze(tree)...)

	slog.Debug("checked",
		"file", file,
		"size", humanize.Bytes(uint64(len(data))),
		"nodes", humanize.Comma(int64(tree.Arena.Len())),
		"routines", tree.CountRoutines(),
		"findings", len(diags),
		"duration", time.Since(started))

	return diags, nil
}

func render(w io.Writer, format report.Format, diags []diag.Diagnostic) error {
	switch format {
	case report.FormatJSON:
		return report.WriteJSON(w, diags)
	case report.FormatSARIF:
		return report.WriteSARIF(w, diags)
	case report.FormatHTML:
		return report.WriteHTML(w, diags)
	case report.FormatText:
	}

	return report.WriteText(w, diags)
}
