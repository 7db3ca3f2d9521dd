package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"option-pricer/internal/payoff"
)

// PayoffEvaluation is one row of payoff check output.
type PayoffEvaluation struct {
	Price  float64 `json:"s" yaml:"s"`
	Payoff *Float  `json:"payoff,omitempty" yaml:"payoff,omitempty"`
	Error  string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// PayoffCheck is the structured output of payoff check.
type PayoffCheck struct {
	Expression  string             `json:"expression" yaml:"expression"`
	Canonical   string             `json:"canonical" yaml:"canonical"`
	Evaluations []PayoffEvaluation `json:"evaluations,omitempty" yaml:"evaluations,omitempty"`
}

func newPayoffCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payoff",
		Short: "Inspect payoff expressions",
		Long: `Payoff expressions are functions of the terminal price s (also S or S_T).

Grammar, loosest binding first:
  + -          left-associative
  * /          left-associative
  ^            right-associative, so 2^3^2 is 512
  unary -      binds tighter than ^, so -2^2 is 4
  numbers, s, (expr), exp(x), sqrt(x), log(x), abs(x), max(a, b), min(a, b)

Anything else is rejected before evaluation.`,
	}

	checkCmd := &cobra.Command{
		Use:   "check <expression>",
		Short: "Compile an expression and evaluate it at sample prices",
		Example: `  pricer payoff check "max(s - 100, 0)" --at 90,100,110
  pricer payoff check "max(10 - abs(S_T - 100), 0)" --at 95 --at 105 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			logger := app.Logger.With().Str("component", "payoff").Logger()
			prices, _ := cmd.Flags().GetFloat64Slice("at")

			compiled, err := payoff.Compile(args[0])
			if err != nil {
				logger.Debug().Err(err).Msg("Payoff rejected")
				return err
			}

			check := PayoffCheck{
				Expression: compiled.Expression(),
				Canonical:  compiled.String(),
			}
			for _, s := range prices {
				row := PayoffEvaluation{Price: s}
				v, err := compiled.Evaluate(s)
				if err != nil {
					row.Error = err.Error()
				} else {
					f := Float(v)
					row.Payoff = &f
				}
				check.Evaluations = append(check.Evaluations, row)
			}
			logger.Debug().Str("canonical", check.Canonical).Int("evaluations", len(prices)).Msg("Payoff checked")

			if output.IsStructured() {
				return output.Structured(check)
			}
			displayPayoffCheck(output, check)
			return nil
		},
	}
	checkCmd.Flags().Float64Slice("at", nil, "terminal prices to evaluate at")
	cmd.AddCommand(checkCmd)

	return cmd
}

func displayPayoffCheck(output *Output, check PayoffCheck) {
	output.Success("OK: %s", check.Expression)
	output.Printf("Canonical: %s\n", check.Canonical)
	if len(check.Evaluations) == 0 {
		return
	}
	output.Println()

	table := NewTable(output, "s", "Payoff")
	for _, e := range check.Evaluations {
		value := e.Error
		if e.Payoff != nil {
			value = output.Price(float64(*e.Payoff))
		}
		table.AddRow(fmt.Sprintf("%g", e.Price), value)
	}
	table.Render()
}
