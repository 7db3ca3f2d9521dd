package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Option Pricer Configuration
#
# Every key can be overridden from the environment, e.g.
# PRICER_MONTECARLO_PATHS=100000 or PRICER_LOGGING_LEVEL=debug.

[logging]
# Log level: debug, info, warn, error
level = "info"
# Log to stderr
console = true
# Log to a rotated file
file = false
# Defaults to ~/.config/option-pricer/logs/pricer.log
# file_path = "/var/log/option-pricer/pricer.log"
# Rotation: size in megabytes, backups kept, age in days
max_size = 20
max_backups = 3
max_age = 14

[output]
# Output format: text, json, yaml
format = "text"
# Enable colored output
color_enabled = true
# Decimal places for prices in text output
precision = 4

[binomial]
spot = 100.0
strike = 100.0
# Continuously compounded annual rate
rate = 0.05
# Per-step up factor (> 1) and down factor (between 0 and 1)
up = 1.1
down = 0.9
periods = 3
# Years to maturity
maturity = 1.0
# "call" or "put"
option_type = "call"
american = false

[montecarlo]
spot = 100.0
rate = 0.05
volatility = 0.2
maturity = 1.0
# Continuous dividend yield
dividend = 0.0
paths = 20000
# Goroutines sharing the paths; results are reproducible per seed and
# worker count
workers = 1
# Terminal price is s, S or S_T; functions: exp sqrt log abs max min
payoff = "max(s - 100, 0)"
# 0 picks a fresh seed per run
seed = 0
`

// WriteTemplate writes a commented config.toml into configDir. An existing
// file is only replaced when force is set.
func WriteTemplate(configDir string, force bool) (string, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil && !force {
		return path, fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return "", fmt.Errorf("writing config template: %w", err)
	}

	return path, nil
}
