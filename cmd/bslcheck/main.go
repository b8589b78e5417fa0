// Package main provides the entry point for the bslcheck CLI tool.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/bslcheck/cmd/bslcheck/commands"
	"github.com/Sumatoshi-tech/bslcheck/pkg/version"
)

var (
	verbose    bool
	configPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bslcheck",
		Short: "Incremental static analyzer for 1C:Enterprise BSL modules",
		Long: `bslcheck analyzes BSL modules with an incremental arena-based AST.

Commands:
  check     Analyze modules and report diagnostics
  lsp       Start the language server on stdio`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to .bslcheck.yaml")

	rootCmd.AddCommand(commands.NewCheckCommand(&configPath))
	rootCmd.AddCommand(commands.NewLSPCommand(&configPath))
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintln(os.Stdout, version.String())
		},
	}
}
