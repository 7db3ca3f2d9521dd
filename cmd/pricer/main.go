// Command pricer values options with binomial trees and Monte Carlo
// simulation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"option-pricer/internal/cli"
	"option-pricer/internal/config"
	"option-pricer/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", cli.Describe(err))
		return 1
	}
	logger := logging.NewLoggerWithConfig(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", cli.Describe(err))
		return 1
	}
	return 0
}
