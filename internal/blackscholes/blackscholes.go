// Package blackscholes provides closed-form European option prices used as
// a reference for the numerical engines.
package blackscholes

import (
	"math"

	perrors "option-pricer/internal/errors"
)

// Inputs holds the Black-Scholes-Merton parameters.
type Inputs struct {
	Spot       float64 `json:"spot" yaml:"spot"`
	Strike     float64 `json:"strike" yaml:"strike"`
	Rate       float64 `json:"rate" yaml:"rate"`
	Volatility float64 `json:"volatility" yaml:"volatility"`
	Maturity   float64 `json:"maturity" yaml:"maturity"`
	Dividend   float64 `json:"dividend" yaml:"dividend"` // continuous yield
}

func (in Inputs) validate() error {
	if !(in.Spot > 0) {
		return perrors.NewValidationError("spot", in.Spot, perrors.ErrNonPositive)
	}
	if !(in.Strike > 0) {
		return perrors.NewValidationError("strike", in.Strike, perrors.ErrNonPositive)
	}
	if !(in.Volatility > 0) {
		return perrors.NewValidationError("volatility", in.Volatility, perrors.ErrNonPositive)
	}
	if !(in.Maturity > 0) {
		return perrors.NewValidationError("maturity", in.Maturity, perrors.ErrNonPositive)
	}
	for _, f := range []struct {
		name  string
		value float64
	}{{"spot", in.Spot}, {"strike", in.Strike}, {"rate", in.Rate}, {"volatility", in.Volatility}, {"maturity", in.Maturity}, {"dividend", in.Dividend}} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return perrors.NewValidationError(f.name, f.value, perrors.ErrOutOfRange)
		}
	}
	return nil
}

func (in Inputs) d1d2() (float64, float64) {
	sqrtT := math.Sqrt(in.Maturity)
	d1 := (math.Log(in.Spot/in.Strike) + (in.Rate-in.Dividend+0.5*in.Volatility*in.Volatility)*in.Maturity) / (in.Volatility * sqrtT)
	return d1, d1 - in.Volatility*sqrtT
}

// Call returns the European call price.
func Call(in Inputs) (float64, error) {
	if err := in.validate(); err != nil {
		return 0, err
	}
	d1, d2 := in.d1d2()
	return in.Spot*math.Exp(-in.Dividend*in.Maturity)*normCDF(d1) - in.Strike*math.Exp(-in.Rate*in.Maturity)*normCDF(d2), nil
}

// Put returns the European put price.
func Put(in Inputs) (float64, error) {
	if err := in.validate(); err != nil {
		return 0, err
	}
	d1, d2 := in.d1d2()
	return in.Strike*math.Exp(-in.Rate*in.Maturity)*normCDF(-d2) - in.Spot*math.Exp(-in.Dividend*in.Maturity)*normCDF(-d1), nil
}

func normCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}
