package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	// An explicitly named file that does not exist is an error; a missing
	// implicit file is not.
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Checks.Unused)
	assert.True(t, cfg.Checks.Uninitialized)
	assert.True(t, cfg.Checks.Undeclared)
	assert.False(t, cfg.Checks.Methods)
	assert.InDelta(t, 0.5, cfg.Rebuild.MaxTouchedFraction, 0.0001)
	assert.Equal(t, 25, cfg.Rebuild.MaxTouchedAbsolute)
	assert.Equal(t, "text", cfg.Report.Format)
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bslcheck.yaml")
	content := "checks:\n" +
		"  methods: true\n" +
		"  unused: false\n" +
		"rebuild:\n" +
		"  max_touched_fraction: 0.8\n" +
		"report:\n" +
		"  format: sarif\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Checks.Methods)
	assert.False(t, cfg.Checks.Unused)
	assert.True(t, cfg.Checks.Undeclared)
	assert.InDelta(t, 0.8, cfg.Rebuild.MaxTouchedFraction, 0.0001)
	assert.Equal(t, "sarif", cfg.Report.Format)

	checks := cfg.SemanticChecks()
	assert.True(t, checks.Methods)
	assert.False(t, checks.Unused)

	heur := cfg.Heuristics()
	assert.InDelta(t, 0.8, heur.MaxTouchedFraction, 0.0001)
	assert.Equal(t, 25, heur.MaxTouchedAbsolute)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("fraction_out_of_range", func(t *testing.T) {
		t.Parallel()

		cfg := Config{
			Rebuild: RebuildConfig{MaxTouchedFraction: 1.5},
			Report:  ReportConfig{Format: "text"},
		}
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidFraction)
	})

	t.Run("negative_absolute", func(t *testing.T) {
		t.Parallel()

		cfg := Config{
			Rebuild: RebuildConfig{MaxTouchedFraction: 0.5, MaxTouchedAbsolute: -1},
			Report:  ReportConfig{Format: "text"},
		}
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidAbsolute)
	})

	t.Run("unknown_format", func(t *testing.T) {
		t.Parallel()

		cfg := Config{
			Rebuild: RebuildConfig{MaxTouchedFraction: 0.5},
			Report:  ReportConfig{Format: "xml"},
		}
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidFormat)
	})
}

func TestLoadCatalog(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := "types:\n" +
		"  Соответствие:\n" +
		"    methods: [Вставить, Получить]\n" +
		"    properties: [Количество]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg := Config{Catalog: CatalogConfig{Path: path}}

	cat, err := cfg.LoadCatalog()
	require.NoError(t, err)

	assert.True(t, cat.HasMethod("Соответствие", "Вставить"))
	assert.True(t, cat.HasMethod("Массив", "Добавить"))
}
