// Package cli provides the command-line interface for the option pricer.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"option-pricer/internal/config"
	"option-pricer/internal/logging"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-10-01"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	ConfigDir string
	Logger    zerolog.Logger
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "pricer",
		Short: "Option pricer - binomial tree and Monte Carlo valuation",
		Long: `Option pricer values vanilla options with a Cox-Ross-Rubinstein binomial
tree (European or American exercise) and with a Monte Carlo simulation of
terminal prices under risk-neutral geometric Brownian motion.

Monte Carlo payoffs are plain expressions of the terminal price, for
example "max(s - 100, 0)". Only numbers, s (or S, S_T), + - * / ^ and the
functions exp, sqrt, log, abs, max and min are understood.

Use 'pricer <command> --help' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if dir, _ := cmd.Flags().GetString("config"); dir != "" {
				loaded, err := config.Load(dir)
				if err != nil {
					return err
				}
				app.Config = loaded
				app.ConfigDir = dir
				app.Logger = logging.NewLoggerWithConfig(loaded.Logging)
			}

			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/option-pricer)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("yaml", false, "output in YAML format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd(app))
	rootCmd.AddCommand(newConfigCmd(app))
	addPricingCommands(rootCmd, app)
	rootCmd.AddCommand(newPayoffCmd(app))
	rootCmd.AddCommand(newExamplesCmd(app))

	return rootCmd
}

func newVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			if output.IsStructured() {
				return output.Structured(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("Option Pricer v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			if output.IsStructured() {
				return output.Structured(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			path := config.Path(app.ConfigDir)
			if output.IsStructured() {
				return output.Structured(map[string]string{"path": path})
			}
			output.Println(path)
			return nil
		},
	})

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented configuration template",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			force, _ := cmd.Flags().GetBool("force")
			path, err := config.WriteTemplate(app.ConfigDir, force)
			if err != nil {
				return err
			}
			app.Logger.Debug().Str("path", path).Msg("Config template written")
			if output.IsStructured() {
				return output.Structured(map[string]string{"path": path})
			}
			output.Success("Configuration template written to %s", path)
			return nil
		},
	}
	initCmd.Flags().Bool("force", false, "overwrite an existing config file")
	cmd.AddCommand(initCmd)

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Binomial Defaults")
	output.Printf("  Spot/Strike:     %g / %g\n", cfg.Binomial.Spot, cfg.Binomial.Strike)
	output.Printf("  Rate:            %g\n", cfg.Binomial.Rate)
	output.Printf("  Up/Down:         %g / %g\n", cfg.Binomial.Up, cfg.Binomial.Down)
	output.Printf("  Periods:         %d\n", cfg.Binomial.Periods)
	output.Printf("  Maturity:        %g\n", cfg.Binomial.Maturity)
	output.Printf("  Option Type:     %s (american: %v)\n", cfg.Binomial.OptionType, cfg.Binomial.American)
	output.Println()

	output.Bold("Monte Carlo Defaults")
	output.Printf("  Spot:            %g\n", cfg.MonteCarlo.Spot)
	output.Printf("  Rate/Dividend:   %g / %g\n", cfg.MonteCarlo.Rate, cfg.MonteCarlo.Dividend)
	output.Printf("  Volatility:      %g\n", cfg.MonteCarlo.Volatility)
	output.Printf("  Maturity:        %g\n", cfg.MonteCarlo.Maturity)
	output.Printf("  Paths/Workers:   %d / %d\n", cfg.MonteCarlo.Paths, cfg.MonteCarlo.Workers)
	output.Printf("  Payoff:          %s\n", cfg.MonteCarlo.Payoff)
	output.Printf("  Seed:            %d\n", cfg.MonteCarlo.Seed)
	output.Println()

	output.Bold("Output & Logging")
	output.Printf("  Format:          %s (precision %d)\n", cfg.Output.Format, cfg.Output.Precision)
	output.Printf("  Log Level:       %s\n", cfg.Logging.Level)
	output.Printf("  Log File:        %v\n", cfg.Logging.File)
}
