// Package binomial prices vanilla options on a recombining
// Cox-Ross-Rubinstein tree with European or American exercise.
package binomial

import (
	"math"

	perrors "option-pricer/internal/errors"
)

// OptionType is the payoff direction of a vanilla option.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// Params describes one option and its tree.
type Params struct {
	Spot       float64    `json:"spot" yaml:"spot"`
	Strike     float64    `json:"strike" yaml:"strike"`
	Rate       float64    `json:"rate" yaml:"rate"` // continuously compounded, annualised
	Up         float64    `json:"up" yaml:"up"`     // per-step up factor, > 1
	Down       float64    `json:"down" yaml:"down"` // per-step down factor, in (0, 1)
	Periods    int        `json:"periods" yaml:"periods"`
	Maturity   float64    `json:"maturity" yaml:"maturity"` // years
	OptionType OptionType `json:"option_type" yaml:"option_type"`
	American   bool       `json:"american" yaml:"american"`
}

// Validate checks p and returns it unchanged when it is priceable.
func Validate(p Params) (Params, error) {
	if p.Periods <= 0 {
		return p, perrors.NewValidationError("periods", p.Periods, perrors.ErrNonPositive)
	}
	if !(p.Maturity > 0) {
		return p, perrors.NewValidationError("maturity", p.Maturity, perrors.ErrNonPositive)
	}
	if !(p.Up > 1) {
		return p, perrors.NewValidationError("up", p.Up, perrors.ErrOutOfRange)
	}
	if !(p.Down > 0 && p.Down < 1) {
		return p, perrors.NewValidationError("down", p.Down, perrors.ErrOutOfRange)
	}
	if !(p.Up > p.Down) {
		return p, perrors.NewValidationError("up", p.Up, perrors.ErrNotGreater)
	}
	if p.OptionType != Call && p.OptionType != Put {
		return p, perrors.NewValidationError("option_type", p.OptionType, perrors.ErrInvalidChoice)
	}
	if !(p.Spot > 0) {
		return p, perrors.NewValidationError("spot", p.Spot, perrors.ErrNonPositive)
	}
	if !(p.Strike > 0) {
		return p, perrors.NewValidationError("strike", p.Strike, perrors.ErrNonPositive)
	}
	// The comparisons above reject NaN; infinities and a NaN rate remain.
	for _, f := range []struct {
		name  string
		value float64
	}{{"spot", p.Spot}, {"strike", p.Strike}, {"rate", p.Rate}, {"up", p.Up}, {"maturity", p.Maturity}} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return p, perrors.NewValidationError(f.name, f.value, perrors.ErrOutOfRange)
		}
	}
	return p, nil
}

// Probability returns the risk-neutral up probability implied by p. It is
// not required to lie in [0, 1]; arbitrage-inconsistent factors still
// price, they just price meaninglessly.
func Probability(p Params) float64 {
	dt := p.Maturity / float64(p.Periods)
	return (math.Exp(p.Rate*dt) - p.Down) / (p.Up - p.Down)
}

// Price validates p and returns the value at the root of the tree.
func Price(p Params) (float64, error) {
	p, err := Validate(p)
	if err != nil {
		return 0, err
	}

	dt := p.Maturity / float64(p.Periods)
	discount := math.Exp(-p.Rate * dt)
	prob := Probability(p)

	values := make([]float64, p.Periods+1)
	for upMoves := 0; upMoves <= p.Periods; upMoves++ {
		values[upMoves] = p.payoff(p.assetPrice(p.Periods, upMoves))
	}

	// Backward induction reuses values in place: node i at step only reads
	// i and i+1 from step+1, and i+1 is overwritten after i.
	for step := p.Periods - 1; step >= 0; step-- {
		for i := 0; i <= step; i++ {
			continuation := discount * (prob*values[i+1] + (1-prob)*values[i])
			if p.American {
				values[i] = math.Max(continuation, p.payoff(p.assetPrice(step, i)))
			} else {
				values[i] = continuation
			}
		}
	}
	return values[0], nil
}

func (p Params) payoff(price float64) float64 {
	if p.OptionType == Call {
		return math.Max(0, price-p.Strike)
	}
	return math.Max(0, p.Strike-price)
}

func (p Params) assetPrice(step, upMoves int) float64 {
	return p.Spot * math.Pow(p.Up, float64(upMoves)) * math.Pow(p.Down, float64(step-upMoves))
}

// CRRFactors returns the Cox-Ross-Rubinstein factors matching an annual
// volatility: up = exp(volatility*sqrt(dt)), down = 1/up.
func CRRFactors(volatility, maturity float64, periods int) (up, down float64) {
	dt := maturity / float64(periods)
	up = math.Exp(volatility * math.Sqrt(dt))
	return up, 1 / up
}
