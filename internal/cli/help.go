package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// workflow is a titled group of example invocations. A "#" splits the
// command from its note.
type workflow struct {
	Title    string   `json:"title" yaml:"title"`
	Commands []string `json:"commands" yaml:"commands"`
}

var workflows = []workflow{
	{
		Title: "Textbook Binomial Tree",
		Commands: []string{
			"pricer binomial --periods 1                 # One step, u=1.1, d=0.9",
			"pricer binomial --periods 3 --type put      # European put",
			"pricer binomial --periods 3 --type put --american  # Early exercise premium",
		},
	},
	{
		Title: "Convergence to Black-Scholes",
		Commands: []string{
			"pricer binomial --volatility 0.2 --periods 50",
			"pricer binomial --volatility 0.2 --periods 800",
			"pricer blackscholes --volatility 0.2        # Closed-form limit",
		},
	},
	{
		Title: "Custom Payoffs",
		Commands: []string{
			"pricer payoff check \"max(s - 100, 0)\" --at 90,100,110",
			"pricer mc --payoff \"max(10 - abs(s - 100), 0)\" --seed 42  # Butterfly",
			"pricer mc --payoff \"(s > 0) * 5\"            # Rejected: no comparisons",
		},
	},
	{
		Title: "Reproducible Simulation",
		Commands: []string{
			"pricer mc --seed 7 --paths 200000 --workers 8",
			"pricer mc --seed 7 --paths 200000 --workers 8 --json  # Same price",
		},
	},
	{
		Title: "Configuration",
		Commands: []string{
			"pricer config init                          # Write config.toml",
			"PRICER_MONTECARLO_PATHS=100000 pricer mc    # Environment override",
			"pricer config show --yaml",
		},
	},
}

func newExamplesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "Common pricing workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			if output.IsStructured() {
				return output.Structured(workflows)
			}

			output.Bold("Common Pricing Workflows")
			output.Println()

			for _, w := range workflows {
				output.Bold(w.Title)
				for _, c := range w.Commands {
					parts := strings.SplitN(c, "#", 2)
					if len(parts) == 2 {
						output.Printf("  %s %s\n", output.Cyan(strings.TrimSpace(parts[0])), output.DimText(strings.TrimSpace(parts[1])))
					} else {
						output.Printf("  %s\n", output.Cyan(c))
					}
				}
				output.Println()
			}
			return nil
		},
	}
}
