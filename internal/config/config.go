// Package config provides configuration management for the pricer.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	perrors "option-pricer/internal/errors"
	"option-pricer/internal/logging"
)

// Config holds all application configuration.
type Config struct {
	Logging    logging.LogConfig `mapstructure:"logging" json:"logging" yaml:"logging"`
	Output     OutputConfig      `mapstructure:"output" json:"output" yaml:"output"`
	Binomial   BinomialConfig    `mapstructure:"binomial" json:"binomial" yaml:"binomial"`
	MonteCarlo MonteCarloConfig  `mapstructure:"montecarlo" json:"montecarlo" yaml:"montecarlo"`
}

// OutputConfig holds CLI output configuration.
type OutputConfig struct {
	Format       string `mapstructure:"format" json:"format" yaml:"format"` // text, json, yaml
	ColorEnabled bool   `mapstructure:"color_enabled" json:"color_enabled" yaml:"color_enabled"`
	Precision    int    `mapstructure:"precision" json:"precision" yaml:"precision"`
}

// BinomialConfig holds defaults for the binomial command.
type BinomialConfig struct {
	Spot       float64 `mapstructure:"spot" json:"spot" yaml:"spot"`
	Strike     float64 `mapstructure:"strike" json:"strike" yaml:"strike"`
	Rate       float64 `mapstructure:"rate" json:"rate" yaml:"rate"`
	Up         float64 `mapstructure:"up" json:"up" yaml:"up"`
	Down       float64 `mapstructure:"down" json:"down" yaml:"down"`
	Periods    int     `mapstructure:"periods" json:"periods" yaml:"periods"`
	Maturity   float64 `mapstructure:"maturity" json:"maturity" yaml:"maturity"`
	OptionType string  `mapstructure:"option_type" json:"option_type" yaml:"option_type"`
	American   bool    `mapstructure:"american" json:"american" yaml:"american"`
}

// MonteCarloConfig holds defaults for the montecarlo command.
type MonteCarloConfig struct {
	Spot       float64 `mapstructure:"spot" json:"spot" yaml:"spot"`
	Rate       float64 `mapstructure:"rate" json:"rate" yaml:"rate"`
	Volatility float64 `mapstructure:"volatility" json:"volatility" yaml:"volatility"`
	Maturity   float64 `mapstructure:"maturity" json:"maturity" yaml:"maturity"`
	Dividend   float64 `mapstructure:"dividend" json:"dividend" yaml:"dividend"`
	Paths      int     `mapstructure:"paths" json:"paths" yaml:"paths"`
	Workers    int     `mapstructure:"workers" json:"workers" yaml:"workers"`
	Payoff     string  `mapstructure:"payoff" json:"payoff" yaml:"payoff"`
	// Seed of zero means a fresh seed per run.
	Seed uint64 `mapstructure:"seed" json:"seed" yaml:"seed"`
}

// EnvPrefix prefixes environment overrides, e.g. PRICER_MONTECARLO_PATHS.
const EnvPrefix = "PRICER"

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/option-pricer"
	}
	return filepath.Join(home, ".config", "option-pricer")
}

func setDefaults(v *viper.Viper) {
	logDefaults := logging.DefaultLogConfig()
	v.SetDefault("logging.level", logDefaults.Level)
	v.SetDefault("logging.console", logDefaults.Console)
	v.SetDefault("logging.file", logDefaults.File)
	v.SetDefault("logging.file_path", logDefaults.FilePath)
	v.SetDefault("logging.max_size", logDefaults.MaxSize)
	v.SetDefault("logging.max_backups", logDefaults.MaxBackups)
	v.SetDefault("logging.max_age", logDefaults.MaxAge)

	v.SetDefault("output.format", "text")
	v.SetDefault("output.color_enabled", true)
	v.SetDefault("output.precision", 4)

	v.SetDefault("binomial.spot", 100.0)
	v.SetDefault("binomial.strike", 100.0)
	v.SetDefault("binomial.rate", 0.05)
	v.SetDefault("binomial.up", 1.1)
	v.SetDefault("binomial.down", 0.9)
	v.SetDefault("binomial.periods", 3)
	v.SetDefault("binomial.maturity", 1.0)
	v.SetDefault("binomial.option_type", "call")
	v.SetDefault("binomial.american", false)

	v.SetDefault("montecarlo.spot", 100.0)
	v.SetDefault("montecarlo.rate", 0.05)
	v.SetDefault("montecarlo.volatility", 0.2)
	v.SetDefault("montecarlo.maturity", 1.0)
	v.SetDefault("montecarlo.dividend", 0.0)
	v.SetDefault("montecarlo.paths", 20000)
	v.SetDefault("montecarlo.workers", 1)
	v.SetDefault("montecarlo.payoff", "max(s - 100, 0)")
	v.SetDefault("montecarlo.seed", 0)
}

// Default returns the built-in configuration without reading any file.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		panic(fmt.Sprintf("config defaults do not decode: %v", err))
	}
	return cfg
}

// Load loads config.toml from configDir, falling back to defaults when the
// file does not exist. If configDir is empty, uses the default config
// directory. PRICER_* environment variables override both.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return perrors.Wrapf(perrors.ErrConfigInvalid, "logging.level %q must be debug, info, warn or error", c.Logging.Level)
	}

	switch c.Output.Format {
	case "text", "json", "yaml":
	default:
		return perrors.Wrapf(perrors.ErrConfigInvalid, "output.format %q must be text, json or yaml", c.Output.Format)
	}
	if c.Output.Precision < 0 || c.Output.Precision > 12 {
		return perrors.Wrap(perrors.ErrConfigInvalid, "output.precision must be between 0 and 12")
	}

	if c.Binomial.OptionType != "call" && c.Binomial.OptionType != "put" {
		return perrors.Wrapf(perrors.ErrConfigInvalid, "binomial.option_type %q must be call or put", c.Binomial.OptionType)
	}
	if c.Binomial.Periods <= 0 {
		return perrors.Wrap(perrors.ErrConfigInvalid, "binomial.periods must be positive")
	}

	if c.MonteCarlo.Paths <= 0 {
		return perrors.Wrap(perrors.ErrConfigInvalid, "montecarlo.paths must be positive")
	}
	if c.MonteCarlo.Workers < 0 {
		return perrors.Wrap(perrors.ErrConfigInvalid, "montecarlo.workers must not be negative")
	}
	if strings.TrimSpace(c.MonteCarlo.Payoff) == "" {
		return perrors.Wrap(perrors.ErrConfigInvalid, "montecarlo.payoff must not be empty")
	}

	return nil
}

// Path returns the config file path inside configDir.
func Path(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, "config.toml")
}
