// Package montecarlo estimates option prices by sampling terminal prices
// of a single-step risk-neutral geometric Brownian motion.
package montecarlo

import (
	"math"
	"math/rand/v2"

	perrors "option-pricer/internal/errors"
)

// DefaultPaths is the number of simulated paths when none is configured.
const DefaultPaths = 20000

// Payoff maps a terminal asset price to the option's cash flow.
// *payoff.Compiled and payoff.Func satisfy it.
type Payoff interface {
	Value(terminalPrice float64) (float64, error)
}

// Source supplies standard normal draws. *rand.Rand satisfies it.
type Source interface {
	NormFloat64() float64
}

// NewSource returns a deterministic PCG-backed Source for seed.
func NewSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Params holds the market and simulation inputs.
type Params struct {
	Spot       float64 `json:"spot" yaml:"spot"`
	Rate       float64 `json:"rate" yaml:"rate"`
	Volatility float64 `json:"volatility" yaml:"volatility"`
	Maturity   float64 `json:"maturity" yaml:"maturity"`
	Dividend   float64 `json:"dividend" yaml:"dividend"`
	Paths      int     `json:"paths" yaml:"paths"`
	// Workers splits the paths across goroutines in PriceSeeded. Zero or
	// one runs sequentially.
	Workers int `json:"workers" yaml:"workers"`
}

// Validate checks p and returns it unchanged when it is priceable.
func Validate(p Params) (Params, error) {
	if p.Paths <= 0 {
		return p, perrors.NewValidationError("paths", p.Paths, perrors.ErrNonPositive)
	}
	if !(p.Spot > 0) {
		return p, perrors.NewValidationError("spot", p.Spot, perrors.ErrNonPositive)
	}
	if !(p.Volatility > 0) {
		return p, perrors.NewValidationError("volatility", p.Volatility, perrors.ErrNonPositive)
	}
	if !(p.Maturity > 0) {
		return p, perrors.NewValidationError("maturity", p.Maturity, perrors.ErrNonPositive)
	}
	if p.Workers < 0 {
		return p, perrors.NewValidationError("workers", p.Workers, perrors.ErrNegative)
	}
	// The comparisons above reject NaN; infinities and a NaN rate or
	// dividend remain.
	for _, f := range []struct {
		name  string
		value float64
	}{{"spot", p.Spot}, {"rate", p.Rate}, {"volatility", p.Volatility}, {"maturity", p.Maturity}, {"dividend", p.Dividend}} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return p, perrors.NewValidationError(f.name, f.value, perrors.ErrOutOfRange)
		}
	}
	return p, nil
}

// Price runs p.Paths draws from rng in order and returns the discounted
// mean payoff. The first payoff error stops the run.
func Price(p Params, payoff Payoff, rng Source) (float64, error) {
	p, err := Validate(p)
	if err != nil {
		return 0, err
	}
	if err := checkCollaborators(payoff, rng); err != nil {
		return 0, err
	}

	acc, err := newSimulation(p).run(payoff, rng, 0, p.Paths, nil)
	if err != nil {
		return 0, err
	}
	return discount(p) * (acc.sum / float64(p.Paths)), nil
}

func checkCollaborators(payoff Payoff, rng Source) error {
	if payoff == nil {
		return perrors.NewValidationError("payoff", nil, perrors.ErrRequired)
	}
	if rng == nil {
		return perrors.NewValidationError("source", nil, perrors.ErrRequired)
	}
	return nil
}

func discount(p Params) float64 {
	return math.Exp(-p.Rate * p.Maturity)
}

// simulation holds the per-run constants of the terminal price law.
type simulation struct {
	spot           float64
	drift          float64
	diffusionScale float64
}

func newSimulation(p Params) simulation {
	return simulation{
		spot:           p.Spot,
		drift:          (p.Rate - p.Dividend - 0.5*p.Volatility*p.Volatility) * p.Maturity,
		diffusionScale: p.Volatility * math.Sqrt(p.Maturity),
	}
}

type accumulator struct {
	sum   float64
	sumSq float64
}

// run simulates paths [first, first+n). cancelled, when non-nil, is polled
// every 1024 paths.
func (s simulation) run(payoff Payoff, rng Source, first, n int, cancelled func() error) (accumulator, error) {
	var acc accumulator
	for i := 0; i < n; i++ {
		if cancelled != nil && i&1023 == 0 {
			if err := cancelled(); err != nil {
				return acc, err
			}
		}

		z := rng.NormFloat64()
		terminal := s.spot * math.Exp(s.drift+s.diffusionScale*z)
		v, err := payoff.Value(terminal)
		if err != nil {
			return acc, perrors.Wrapf(err, "path %d (terminal price %g)", first+i, terminal)
		}
		if math.IsNaN(v) {
			return acc, perrors.Wrapf(perrors.NewMathDomainError("payoff", terminal), "path %d", first+i)
		}
		if err := acc.add(v); err != nil {
			return acc, perrors.Wrapf(err, "path %d", first+i)
		}
	}
	return acc, nil
}

// add folds v into the running sums. Opposite infinities cancel to NaN,
// which is a domain error rather than a price.
func (a *accumulator) add(v float64) error {
	sum := a.sum + v
	if math.IsNaN(sum) {
		return perrors.NewMathDomainError("+", a.sum, v)
	}
	a.sum = sum
	a.sumSq += v * v
	return nil
}
