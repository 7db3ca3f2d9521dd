package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"option-pricer/internal/binomial"
	"option-pricer/internal/blackscholes"
	perrors "option-pricer/internal/errors"
	"option-pricer/internal/logging"
	"option-pricer/internal/montecarlo"
	"option-pricer/internal/payoff"
)

// addPricingCommands adds the pricing engine commands.
func addPricingCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newBinomialCmd(app))
	rootCmd.AddCommand(newMonteCarloCmd(app))
	rootCmd.AddCommand(newBlackScholesCmd(app))
}

// BinomialResult is the structured output of the binomial command.
type BinomialResult struct {
	RunID        string          `json:"run_id" yaml:"run_id"`
	Params       binomial.Params `json:"params" yaml:"params"`
	Probability  Float           `json:"risk_neutral_probability" yaml:"risk_neutral_probability"`
	Price        Float           `json:"price" yaml:"price"`
	BlackScholes *Float          `json:"black_scholes,omitempty" yaml:"black_scholes,omitempty"`
}

func newBinomialCmd(app *App) *cobra.Command {
	defaults := app.Config.Binomial
	cmd := &cobra.Command{
		Use:     "binomial",
		Aliases: []string{"tree"},
		Short:   "Price an option on a binomial tree",
		Long: `Price a European or American call or put on a recombining
Cox-Ross-Rubinstein tree by backward induction.

Up and down factors are given per step. With --volatility they are derived
instead as up = exp(volatility*sqrt(dt)), down = 1/up, and the closed-form
Black-Scholes price is shown alongside European prices.`,
		Example: `  pricer binomial --spot 100 --strike 100 --rate 0.05 --up 1.1 --down 0.9 --periods 3
  pricer binomial --type put --american --periods 500 --volatility 0.2
  pricer binomial --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			cfg := app.Config.Binomial
			ctx, logger := logging.WithRunID(cmd.Context(), app.Logger)

			p := binomial.Params{
				Spot:       floatOr(cmd, "spot", cfg.Spot),
				Strike:     floatOr(cmd, "strike", cfg.Strike),
				Rate:       floatOr(cmd, "rate", cfg.Rate),
				Up:         floatOr(cmd, "up", cfg.Up),
				Down:       floatOr(cmd, "down", cfg.Down),
				Periods:    intOr(cmd, "periods", cfg.Periods),
				Maturity:   floatOr(cmd, "maturity", cfg.Maturity),
				OptionType: binomial.OptionType(strings.ToLower(stringOr(cmd, "type", cfg.OptionType))),
				American:   boolOr(cmd, "american", cfg.American),
			}

			var reference *Float
			if cmd.Flags().Changed("volatility") {
				vol, _ := cmd.Flags().GetFloat64("volatility")
				if p.Periods > 0 {
					p.Up, p.Down = binomial.CRRFactors(vol, p.Maturity, p.Periods)
				}
				if !p.American {
					if ref, err := blackScholes(p, vol); err == nil {
						f := Float(ref)
						reference = &f
					}
				}
			}

			start := time.Now()
			price, err := binomial.Price(p)
			if err != nil {
				logging.LogPricingError(logger, "binomial", err)
				return err
			}
			logging.LogPricing(logger, "binomial", price, time.Since(start))

			prob := binomial.Probability(p)
			if prob < 0 || prob > 1 {
				logger.Warn().Float64("probability", prob).Msg("Risk-neutral probability outside [0, 1]; inputs admit arbitrage")
			}

			result := BinomialResult{
				RunID:        logging.RunID(ctx),
				Params:       p,
				Probability:  Float(prob),
				Price:        Float(price),
				BlackScholes: reference,
			}
			if output.IsStructured() {
				return output.Structured(result)
			}
			displayBinomial(output, result)
			return nil
		},
	}

	cmd.Flags().Float64("spot", defaults.Spot, "current underlying price")
	cmd.Flags().Float64("strike", defaults.Strike, "strike price")
	cmd.Flags().Float64("rate", defaults.Rate, "continuously compounded risk-free rate")
	cmd.Flags().Float64("up", defaults.Up, "up factor per step (> 1)")
	cmd.Flags().Float64("down", defaults.Down, "down factor per step (between 0 and 1)")
	cmd.Flags().Int("periods", defaults.Periods, "number of tree steps")
	cmd.Flags().Float64("maturity", defaults.Maturity, "time to maturity in years")
	cmd.Flags().String("type", defaults.OptionType, "option type: call or put")
	cmd.Flags().Bool("american", defaults.American, "allow early exercise")
	cmd.Flags().Float64("volatility", 0, "derive CRR up/down factors from this annual volatility")

	return cmd
}

func blackScholes(p binomial.Params, vol float64) (float64, error) {
	in := blackscholes.Inputs{Spot: p.Spot, Strike: p.Strike, Rate: p.Rate, Volatility: vol, Maturity: p.Maturity}
	if p.OptionType == binomial.Put {
		return blackscholes.Put(in)
	}
	return blackscholes.Call(in)
}

func displayBinomial(output *Output, r BinomialResult) {
	style := "European"
	if r.Params.American {
		style = "American"
	}
	output.Bold("%s %s - binomial tree", style, r.Params.OptionType)

	table := NewTable(output, "Input", "Value")
	table.AddRow("Spot", fmt.Sprintf("%g", r.Params.Spot))
	table.AddRow("Strike", fmt.Sprintf("%g", r.Params.Strike))
	table.AddRow("Rate", fmt.Sprintf("%g", r.Params.Rate))
	table.AddRow("Up / Down", fmt.Sprintf("%.6g / %.6g", r.Params.Up, r.Params.Down))
	table.AddRow("Periods", fmt.Sprintf("%d", r.Params.Periods))
	table.AddRow("Maturity", fmt.Sprintf("%g", r.Params.Maturity))
	table.AddRow("Risk-neutral p", fmt.Sprintf("%.6f", float64(r.Probability)))
	table.Render()
	output.Println()

	output.Success("Price: %s", output.Price(float64(r.Price)))
	if r.BlackScholes != nil {
		output.Dim("Black-Scholes: %s (diff %s)", output.Price(float64(*r.BlackScholes)), output.Price(float64(r.Price-*r.BlackScholes)))
	}
	if r.Probability < 0 || r.Probability > 1 {
		output.Warning("Risk-neutral probability %.4f is outside [0, 1]; the price is not arbitrage-free", r.Probability)
	}
}

// MonteCarloResult is the structured output of the montecarlo command.
type MonteCarloResult struct {
	RunID          string            `json:"run_id" yaml:"run_id"`
	Params         montecarlo.Params `json:"params" yaml:"params"`
	Payoff         string            `json:"payoff" yaml:"payoff"`
	Price          Float             `json:"price" yaml:"price"`
	StdError       Float             `json:"std_error" yaml:"std_error"`
	ConfidenceLow  Float             `json:"ci95_low" yaml:"ci95_low"`
	ConfidenceHigh Float             `json:"ci95_high" yaml:"ci95_high"`
	Paths          int               `json:"paths" yaml:"paths"`
	Workers        int               `json:"workers" yaml:"workers"`
	Seed           uint64            `json:"seed" yaml:"seed"`
}

func newMonteCarloCmd(app *App) *cobra.Command {
	defaults := app.Config.MonteCarlo
	cmd := &cobra.Command{
		Use:     "montecarlo",
		Aliases: []string{"mc"},
		Short:   "Price a custom payoff by Monte Carlo simulation",
		Long: `Estimate the price of a payoff on the terminal asset price by simulating
single-step geometric Brownian motion under the risk-neutral measure.

The payoff is an expression of the terminal price s (also S or S_T), e.g.
  max(s - 100, 0)              call struck at 100
  max(80 - S_T, 0)             put struck at 80
  max(10 - abs(s - 100), 0)    butterfly around 100

Runs are reproducible: the same --seed and --workers give the same price.
Without --seed a fresh seed is drawn and reported.`,
		Example: `  pricer montecarlo --payoff "max(s - 100, 0)" --paths 100000 --seed 42
  pricer mc --payoff "max(90 - s, 0)" --volatility 0.3 --workers 8
  pricer mc --dividend 0.02 --yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			cfg := app.Config.MonteCarlo
			ctx, logger := logging.WithRunID(cmd.Context(), app.Logger)

			expression := stringOr(cmd, "payoff", cfg.Payoff)
			compiled, err := payoff.Compile(expression)
			if err != nil {
				logger.Debug().Str("payoff", expression).Err(err).Msg("Payoff rejected")
				return err
			}
			logger.Debug().Str("payoff", compiled.String()).Msg("Payoff compiled")

			p := montecarlo.Params{
				Spot:       floatOr(cmd, "spot", cfg.Spot),
				Rate:       floatOr(cmd, "rate", cfg.Rate),
				Volatility: floatOr(cmd, "volatility", cfg.Volatility),
				Maturity:   floatOr(cmd, "maturity", cfg.Maturity),
				Dividend:   floatOr(cmd, "dividend", cfg.Dividend),
				Paths:      intOr(cmd, "paths", cfg.Paths),
				Workers:    intOr(cmd, "workers", cfg.Workers),
			}
			seed := uint64Or(cmd, "seed", cfg.Seed)
			if seed == 0 {
				seed = uint64(time.Now().UnixNano())
			}

			start := time.Now()
			res, err := montecarlo.NewEngine(logger).Run(ctx, p, compiled, seed)
			if err != nil {
				logging.LogPricingError(logger, "montecarlo", err)
				return err
			}
			logging.LogPricing(logger, "montecarlo", res.Price, time.Since(start))

			result := MonteCarloResult{
				RunID:          logging.RunID(ctx),
				Params:         p,
				Payoff:         compiled.Expression(),
				Price:          Float(res.Price),
				StdError:       Float(res.StdError),
				ConfidenceLow:  Float(res.Price - 1.96*res.StdError),
				ConfidenceHigh: Float(res.Price + 1.96*res.StdError),
				Paths:          res.Paths,
				Workers:        res.Workers,
				Seed:           res.Seed,
			}
			if output.IsStructured() {
				return output.Structured(result)
			}
			displayMonteCarlo(output, result)
			return nil
		},
	}

	cmd.Flags().Float64("spot", defaults.Spot, "current underlying price")
	cmd.Flags().Float64("rate", defaults.Rate, "continuously compounded risk-free rate")
	cmd.Flags().Float64("volatility", defaults.Volatility, "annual volatility (sigma)")
	cmd.Flags().Float64("maturity", defaults.Maturity, "time to maturity in years")
	cmd.Flags().Float64("dividend", defaults.Dividend, "continuous dividend yield")
	cmd.Flags().Int("paths", defaults.Paths, "number of simulated paths")
	cmd.Flags().Int("workers", defaults.Workers, "goroutines sharing the paths")
	cmd.Flags().String("payoff", defaults.Payoff, "payoff expression of the terminal price s")
	cmd.Flags().Uint64("seed", defaults.Seed, "random seed (0 draws a fresh one)")

	return cmd
}

func displayMonteCarlo(output *Output, r MonteCarloResult) {
	output.Bold("Monte Carlo - %s", r.Payoff)

	table := NewTable(output, "Input", "Value")
	table.AddRow("Spot", fmt.Sprintf("%g", r.Params.Spot))
	table.AddRow("Rate", fmt.Sprintf("%g", r.Params.Rate))
	table.AddRow("Volatility", fmt.Sprintf("%g", r.Params.Volatility))
	table.AddRow("Maturity", fmt.Sprintf("%g", r.Params.Maturity))
	table.AddRow("Dividend", fmt.Sprintf("%g", r.Params.Dividend))
	table.AddRow("Paths", fmt.Sprintf("%d", r.Paths))
	table.AddRow("Workers", fmt.Sprintf("%d", r.Workers))
	table.AddRow("Seed", fmt.Sprintf("%d", r.Seed))
	table.Render()
	output.Println()

	output.Success("Price: %s", output.Price(float64(r.Price)))
	output.Dim("Std error: %s  95%% CI: [%s, %s]", output.Price(float64(r.StdError)), output.Price(float64(r.ConfidenceLow)), output.Price(float64(r.ConfidenceHigh)))
}

// BlackScholesResult is the structured output of the blackscholes command.
type BlackScholesResult struct {
	Inputs blackscholes.Inputs `json:"inputs" yaml:"inputs"`
	Type   string              `json:"type" yaml:"type"`
	Price  Float               `json:"price" yaml:"price"`
}

func newBlackScholesCmd(app *App) *cobra.Command {
	market := app.Config.MonteCarlo
	contract := app.Config.Binomial
	cmd := &cobra.Command{
		Use:     "blackscholes",
		Aliases: []string{"bs"},
		Short:   "Closed-form European price for comparison",
		Long: `Closed-form Black-Scholes-Merton price of a European call or put.

Market inputs default to the [montecarlo] config section; strike and
option type default to the [binomial] section.`,
		Example: `  pricer blackscholes --spot 100 --strike 100 --volatility 0.2
  pricer bs --type put --dividend 0.01 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			market, contract := app.Config.MonteCarlo, app.Config.Binomial
			in := blackscholes.Inputs{
				Spot:       floatOr(cmd, "spot", market.Spot),
				Strike:     floatOr(cmd, "strike", contract.Strike),
				Rate:       floatOr(cmd, "rate", market.Rate),
				Volatility: floatOr(cmd, "volatility", market.Volatility),
				Maturity:   floatOr(cmd, "maturity", market.Maturity),
				Dividend:   floatOr(cmd, "dividend", market.Dividend),
			}
			optionType := binomial.OptionType(strings.ToLower(stringOr(cmd, "type", contract.OptionType)))

			var price float64
			var err error
			switch optionType {
			case binomial.Call:
				price, err = blackscholes.Call(in)
			case binomial.Put:
				price, err = blackscholes.Put(in)
			default:
				err = perrors.NewValidationError("option_type", optionType, perrors.ErrInvalidChoice)
			}
			if err != nil {
				app.Logger.Debug().Err(err).Msg("Black-Scholes inputs rejected")
				return err
			}

			result := BlackScholesResult{Inputs: in, Type: string(optionType), Price: Float(price)}
			if output.IsStructured() {
				return output.Structured(result)
			}
			output.Success("Black-Scholes %s: %s", result.Type, output.Price(price))
			return nil
		},
	}

	cmd.Flags().Float64("spot", market.Spot, "current underlying price")
	cmd.Flags().Float64("strike", contract.Strike, "strike price")
	cmd.Flags().Float64("rate", market.Rate, "continuously compounded risk-free rate")
	cmd.Flags().Float64("volatility", market.Volatility, "annual volatility (sigma)")
	cmd.Flags().Float64("maturity", market.Maturity, "time to maturity in years")
	cmd.Flags().Float64("dividend", market.Dividend, "continuous dividend yield")
	cmd.Flags().String("type", contract.OptionType, "option type: call or put")

	return cmd
}

func floatOr(cmd *cobra.Command, name string, fallback float64) float64 {
	if !cmd.Flags().Changed(name) {
		return fallback
	}
	v, _ := cmd.Flags().GetFloat64(name)
	return v
}

func intOr(cmd *cobra.Command, name string, fallback int) int {
	if !cmd.Flags().Changed(name) {
		return fallback
	}
	v, _ := cmd.Flags().GetInt(name)
	return v
}

func uint64Or(cmd *cobra.Command, name string, fallback uint64) uint64 {
	if !cmd.Flags().Changed(name) {
		return fallback
	}
	v, _ := cmd.Flags().GetUint64(name)
	return v
}

func stringOr(cmd *cobra.Command, name string, fallback string) string {
	if !cmd.Flags().Changed(name) {
		return fallback
	}
	v, _ := cmd.Flags().GetString(name)
	return v
}

func boolOr(cmd *cobra.Command, name string, fallback bool) bool {
	if !cmd.Flags().Changed(name) {
		return fallback
	}
	v, _ := cmd.Flags().GetBool(name)
	return v
}
