package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/Sumatoshi-tech/bslcheck/internal/config"
	"github.com/Sumatoshi-tech/bslcheck/internal/lsp"
	"github.com/Sumatoshi-tech/bslcheck/internal/observability"
	"github.com/Sumatoshi-tech/bslcheck/internal/workspace"
)

// NewLSPCommand builds the lsp subcommand. The server speaks LSP over
// stdio, so all logging goes to stderr.
func NewLSPCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start a language server for BSL modules (stdio mode)",
		Long:  `Start a language server (LSP) that publishes diagnostics for open BSL documents and rebuilds them incrementally on change.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runLSP(*configPath)
		},
	}

	return cmd
}

func runLSP(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	catalog, err := cfg.LoadCatalog()
	if err != nil {
		return err
	}

	logger := slog.Default()
	checks := cfg.SemanticChecks()
	heur := cfg.Heuristics()

	opts := workspace.Options{
		Checks:     &checks,
		Catalog:    catalog,
		Heuristics: &heur,
	}

	if cfg.Metrics.Enabled {
		exporter, err := observability.NewExporter()
		if err != nil {
			return err
		}
		metrics, err := observability.NewMetrics(exporter.Meter)
		if err != nil {
			return err
		}
		opts.Observer = metrics

		go func() {
			if err := exporter.Serve(cfg.Metrics.Listen, logger); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := exporter.Shutdown(ctx); err != nil {
				logger.Error("metrics shutdown failed", "error", err)
			}
		}()
	}

	// glsp logs through commonlog; route it to stderr so stdout stays a
	// clean LSP channel.
	commonlog.Configure(1, nil)

	session := workspace.NewSession(opts)
	defer func() {
		snap := session.Stats()
		logger.Info("session finished",
			"full_parses", snap.FullParses,
			"selective_updates", snap.SelectiveUpdates,
			"fallbacks", snap.Fallbacks,
			"reuse_ratio", snap.ReuseRatio())
	}()

	return lsp.NewServer(session, logger).Run()
}
