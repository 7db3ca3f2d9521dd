package payoff

import (
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	perrors "option-pricer/internal/errors"
)

// Property: arbitrary input either compiles or fails with a parse error.
// Nothing panics and nothing outside the grammar is reachable.
func TestProperty_CompileIsTotal(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("Compile returns a tree or a parse error", prop.ForAll(
		func(expression string) bool {
			c, err := Compile(expression)
			if err != nil {
				return c == nil && perrors.Is(err, perrors.ErrParse)
			}
			return c != nil
		},
		gen.AnyString(),
	))

	alphabet := gen.OneConstOf("s", "S_T", "max", "(", ")", ",", "-", "+", "*", "/", "^", "1", "2.5", " ", "sqrt", "os", ".")
	properties.Property("Token soup compiles or fails with a parse error", prop.ForAll(
		func(parts []string) bool {
			expression := ""
			for _, p := range parts {
				expression += p
			}
			_, err := Compile(expression)
			return err == nil || perrors.Is(err, perrors.ErrParse)
		},
		gen.SliceOf(alphabet),
	))

	properties.TestingRun(t)
}

// Property: a call payoff compiled from text agrees with math.Max.
func TestProperty_CallPayoffMatchesClosedForm(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("max(s - K, 0) == math.Max(s-K, 0)", prop.ForAll(
		func(spot, strike float64) bool {
			k := strconv.FormatFloat(strike, 'g', -1, 64)
			c, err := Compile("max(s - " + k + ", 0)")
			if err != nil {
				t.Logf("compile failed: %v", err)
				return false
			}
			got, err := c.Evaluate(spot)
			if err != nil {
				return false
			}
			return got == math.Max(spot-strike, 0)
		},
		gen.Float64Range(0.01, 1000),
		gen.Float64Range(0.01, 1000),
	))

	properties.TestingRun(t)
}

// Property: the canonical rendering compiles back to a tree that renders
// and evaluates identically.
func TestProperty_CanonicalFormRoundTrips(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	expressions := gen.OneConstOf(
		"max(s - 100, 0)",
		"max(80 - S_T, 0)",
		"max(10 - abs(s - 100), 0)",
		"-s ^ 2 / 3 + min(s, 1e3) * 2",
		"exp(-0.05) * max(sqrt(s) - 9, 0)",
		"log(S) - 2 ^ -1 ^ 2",
		"1 - (2 - (3 - s))",
	)

	properties.Property("Compile(c.String()) is equivalent to c", prop.ForAll(
		func(expression string, spot float64) bool {
			c := MustCompile(expression)
			again, err := Compile(c.String())
			if err != nil {
				t.Logf("canonical form %q failed: %v", c.String(), err)
				return false
			}
			if again.String() != c.String() {
				return false
			}
			want, err1 := c.Evaluate(spot)
			got, err2 := again.Evaluate(spot)
			return err1 == nil && err2 == nil && want == got
		},
		expressions,
		gen.Float64Range(0.5, 500),
	))

	properties.TestingRun(t)
}
