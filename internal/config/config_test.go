package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "option-pricer/internal/errors"
)

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 20000, cfg.MonteCarlo.Paths)
	assert.Equal(t, "max(s - 100, 0)", cfg.MonteCarlo.Payoff)
	assert.Equal(t, 0.2, cfg.MonteCarlo.Volatility)
	assert.Equal(t, 3, cfg.Binomial.Periods)
	assert.Equal(t, "call", cfg.Binomial.OptionType)
	assert.Equal(t, "text", cfg.Output.Format)
}

func TestTemplateLoadsToDefaults(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteTemplate(dir, false)
	require.NoError(t, err)
	assert.Equal(t, Path(dir), path)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = WriteTemplate(dir, false)
	assert.Error(t, err, "existing file must not be replaced without force")
	_, err = WriteTemplate(dir, true)
	assert.NoError(t, err)
}

func TestLoadReadsFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[montecarlo]
paths = 5000
workers = 4
payoff = "max(90 - S_T, 0)"
seed = 7

[binomial]
option_type = "put"
american = true
periods = 250
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.MonteCarlo.Paths)
	assert.Equal(t, 4, cfg.MonteCarlo.Workers)
	assert.Equal(t, "max(90 - S_T, 0)", cfg.MonteCarlo.Payoff)
	assert.Equal(t, uint64(7), cfg.MonteCarlo.Seed)
	assert.Equal(t, "put", cfg.Binomial.OptionType)
	assert.True(t, cfg.Binomial.American)
	assert.Equal(t, 250, cfg.Binomial.Periods)
	// untouched keys keep their defaults
	assert.Equal(t, 100.0, cfg.MonteCarlo.Spot)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("PRICER_MONTECARLO_PATHS", "123")
	t.Setenv("PRICER_LOGGING_LEVEL", "debug")
	t.Setenv("PRICER_OUTPUT_FORMAT", "json")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 123, cfg.MonteCarlo.Paths)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"format", func(c *Config) { c.Output.Format = "xml" }},
		{"precision", func(c *Config) { c.Output.Precision = 20 }},
		{"option type", func(c *Config) { c.Binomial.OptionType = "straddle" }},
		{"periods", func(c *Config) { c.Binomial.Periods = 0 }},
		{"paths", func(c *Config) { c.MonteCarlo.Paths = -1 }},
		{"workers", func(c *Config) { c.MonteCarlo.Workers = -1 }},
		{"payoff", func(c *Config) { c.MonteCarlo.Payoff = "  " }},
	}

	assert.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, perrors.Is(err, perrors.ErrConfigInvalid))
		})
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[output]\nformat = \"xml\"\n"), 0644))

	_, err := Load(dir)
	assert.True(t, perrors.Is(err, perrors.ErrConfigInvalid))
}
