// Package config provides configuration loading and validation for the
// bslcheck CLI and LSP server.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/Sumatoshi-tech/bslcheck/internal/report"
	"github.com/Sumatoshi-tech/bslcheck/pkg/rebuild"
	"github.com/Sumatoshi-tech/bslcheck/pkg/semantic"
)

// Sentinel validation errors.
var (
	ErrInvalidFraction = errors.New("max touched fraction must be within [0, 1]")
	ErrInvalidAbsolute = errors.New("max touched absolute must not be negative")
	ErrInvalidFormat   = errors.New("unknown report format")
)

// Config holds all bslcheck settings.
type Config struct {
	Checks  ChecksConfig  `mapstructure:"checks"`
	Rebuild RebuildConfig `mapstructure:"rebuild"`
	Report  ReportConfig  `mapstructure:"report"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ChecksConfig toggles the analyzer checks.
type ChecksConfig struct {
	Unused        bool `mapstructure:"unused"`
	Uninitialized bool `mapstructure:"uninitialized"`
	Undeclared    bool `mapstructure:"undeclared"`
	Methods       bool `mapstructure:"methods"`
}

// RebuildConfig tunes the partial-rebuild heuristics.
type RebuildConfig struct {
	MaxTouchedFraction float64 `mapstructure:"max_touched_fraction"`
	MaxTouchedAbsolute int     `mapstructure:"max_touched_absolute"`
}

// ReportConfig selects the CLI output renderer.
type ReportConfig struct {
	Format string `mapstructure:"format"`
}

// CatalogConfig points at an optional YAML method/property catalog merged
// over the builtin one.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// MetricsConfig controls the Prometheus scrape endpoint of the LSP server.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// Validate checks the cross-field and range constraints.
func (c *Config) Validate() error {
	if c.Rebuild.MaxTouchedFraction < 0 || c.Rebuild.MaxTouchedFraction > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidFraction, c.Rebuild.MaxTouchedFraction)
	}
	if c.Rebuild.MaxTouchedAbsolute < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAbsolute, c.Rebuild.MaxTouchedAbsolute)
	}
	if !report.ValidFormat(report.Format(c.Report.Format)) {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Report.Format)
	}

	return nil
}

// SemanticChecks converts the toggles to the analyzer's form.
func (c *Config) SemanticChecks() semantic.Checks {
	return semantic.Checks{
		Unused:        c.Checks.Unused,
		Uninitialized: c.Checks.Uninitialized,
		Undeclared:    c.Checks.Undeclared,
		Methods:       c.Checks.Methods,
	}
}

// Heuristics converts the rebuild tunables to the planner's form.
func (c *Config) Heuristics() rebuild.Heuristics {
	return rebuild.Heuristics{
		MaxTouchedFraction: c.Rebuild.MaxTouchedFraction,
		MaxTouchedAbsolute: c.Rebuild.MaxTouchedAbsolute,
	}
}

// LoadCatalog returns the builtin catalog, merged with the configured YAML
// catalog when one is set.
func (c *Config) LoadCatalog() (*semantic.Catalog, error) {
	cat := semantic.BuiltinCatalog()

	if c.Catalog.Path == "" {
		return cat, nil
	}

	data, err := os.ReadFile(c.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if err := cat.ParseCatalog(data); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", c.Catalog.Path, err)
	}

	return cat, nil
}
