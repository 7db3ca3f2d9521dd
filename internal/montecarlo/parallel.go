package montecarlo

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	perrors "option-pricer/internal/errors"
	"option-pricer/internal/logging"
)

// Result is a seeded Monte Carlo estimate.
type Result struct {
	Price    float64 `json:"price" yaml:"price"`
	StdError float64 `json:"std_error" yaml:"std_error"` // standard error of Price
	Paths    int     `json:"paths" yaml:"paths"`
	Workers  int     `json:"workers" yaml:"workers"`
	Seed     uint64  `json:"seed" yaml:"seed"`
}

// block is the contiguous range of paths owned by one worker.
type block struct {
	first, n int
}

// partition splits paths into workers contiguous blocks; the first
// paths%workers blocks get one extra path.
func partition(paths, workers int) []block {
	if workers < 1 {
		workers = 1
	}
	if workers > paths {
		workers = paths
	}
	blocks := make([]block, workers)
	base, extra := paths/workers, paths%workers
	first := 0
	for i := range blocks {
		n := base
		if i < extra {
			n++
		}
		blocks[i] = block{first: first, n: n}
		first += n
	}
	return blocks
}

// PriceSeeded prices p with reproducible randomness. Worker i draws from
// NewSource(seed+i) over its own block and partial sums are combined in
// worker order, so a given seed and worker count always gives the same
// bits. With one worker the result equals Price(p, payoff, NewSource(seed)).
// The first failing worker cancels the rest.
func PriceSeeded(ctx context.Context, p Params, payoff Payoff, seed uint64) (Result, error) {
	p, err := Validate(p)
	if err != nil {
		return Result{}, err
	}
	if payoff == nil {
		return Result{}, perrors.NewValidationError("payoff", nil, perrors.ErrRequired)
	}

	sim := newSimulation(p)
	blocks := partition(p.Paths, p.Workers)
	partials := make([]accumulator, len(blocks))

	if len(blocks) == 1 {
		partials[0], err = sim.run(payoff, NewSource(seed), 0, p.Paths, ctx.Err)
		if err != nil {
			return Result{}, err
		}
	} else {
		wp := pool.New().WithMaxGoroutines(len(blocks)).WithContext(ctx).WithCancelOnError().WithFirstError()
		for i, b := range blocks {
			wp.Go(func(ctx context.Context) error {
				acc, err := sim.run(payoff, NewSource(seed+uint64(i)), b.first, b.n, ctx.Err)
				if err != nil {
					return err
				}
				partials[i] = acc
				return nil
			})
		}
		if err := wp.Wait(); err != nil {
			return Result{}, err
		}
	}

	total, err := combine(partials)
	if err != nil {
		return Result{}, err
	}

	n := float64(p.Paths)
	mean := total.sum / n
	df := discount(p)
	res := Result{
		Price:   df * mean,
		Paths:   p.Paths,
		Workers: len(blocks),
		Seed:    seed,
	}
	if p.Paths > 1 {
		variance := (total.sumSq - n*mean*mean) / (n - 1)
		if math.IsNaN(variance) {
			// an infinite mean leaves the spread undefined
			variance = math.Inf(1)
		}
		res.StdError = df * math.Sqrt(math.Max(variance, 0)/n)
	}
	return res, nil
}

// combine adds the worker partials in worker order.
func combine(partials []accumulator) (accumulator, error) {
	var total accumulator
	for i, acc := range partials {
		sum := total.sum + acc.sum
		if math.IsNaN(sum) {
			return total, perrors.Wrapf(perrors.NewMathDomainError("+", total.sum, acc.sum), "combining worker %d", i)
		}
		total.sum = sum
		total.sumSq += acc.sumSq
	}
	return total, nil
}

// Engine runs seeded pricings and logs each run.
type Engine struct {
	logger zerolog.Logger
}

// NewEngine creates an Engine that logs to logger.
func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{logger: logging.WithEngine(logger, "montecarlo")}
}

// Run calls PriceSeeded and logs its outcome.
func (e *Engine) Run(ctx context.Context, p Params, payoff Payoff, seed uint64) (Result, error) {
	start := time.Now()
	e.logger.Debug().
		Int("paths", p.Paths).
		Int("workers", p.Workers).
		Uint64("seed", seed).
		Msg("Monte Carlo run started")

	res, err := PriceSeeded(ctx, p, payoff, seed)
	if err != nil {
		e.logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("Monte Carlo run failed")
		return Result{}, err
	}

	e.logger.Debug().
		Float64("price", res.Price).
		Float64("std_error", res.StdError).
		Int("workers", res.Workers).
		Dur("duration", time.Since(start)).
		Msg("Monte Carlo run completed")
	return res, nil
}
