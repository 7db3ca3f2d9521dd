package montecarlo

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"option-pricer/internal/blackscholes"
	perrors "option-pricer/internal/errors"
	"option-pricer/internal/payoff"
)

func atmParams(paths int) Params {
	return Params{Spot: 100, Rate: 0.05, Volatility: 0.2, Maturity: 1, Paths: paths}
}

// constSource always draws the same z.
type constSource float64

func (c constSource) NormFloat64() float64 { return float64(c) }

func TestPriceWithZeroShockIsDiscountedForward(t *testing.T) {
	p := atmParams(10)
	p.Dividend = 0.01
	identity := payoff.Func(func(s float64) (float64, error) { return s, nil })

	got, err := Price(p, identity, constSource(0))
	require.NoError(t, err)

	want := math.Exp(-0.05) * 100 * math.Exp((0.05-0.01-0.5*0.04)*1)
	assert.InDelta(t, want, got, 1e-12)
}

func TestPriceCallsPayoffOncePerPath(t *testing.T) {
	calls := 0
	counting := payoff.Func(func(s float64) (float64, error) {
		calls++
		return 0, nil
	})

	_, err := Price(atmParams(1234), counting, NewSource(1))
	require.NoError(t, err)
	assert.Equal(t, 1234, calls)
}

func TestPriceIsReproducibleForASeed(t *testing.T) {
	call := payoff.MustCompile("max(s - 100, 0)")

	first, err := Price(atmParams(100000), call, NewSource(42))
	require.NoError(t, err)
	second, err := Price(atmParams(100000), call, NewSource(42))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := Price(atmParams(100000), call, NewSource(43))
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestPriceApproximatesBlackScholes(t *testing.T) {
	want, err := blackscholes.Call(blackscholes.Inputs{Spot: 100, Strike: 100, Rate: 0.05, Volatility: 0.2, Maturity: 1})
	require.NoError(t, err)

	for _, workers := range []int{1, 4} {
		p := atmParams(100000)
		p.Workers = workers

		res, err := PriceSeeded(context.Background(), p, payoff.MustCompile("max(s - 100, 0)"), 20240601)
		require.NoError(t, err)

		// Four standard errors, roughly 0.19 at 100k paths.
		assert.Greater(t, res.StdError, 0.0)
		assert.Less(t, res.StdError, 0.06)
		assert.InDelta(t, want, res.Price, 4*res.StdError, "workers=%d", workers)
	}
}

func TestPriceSeededOneWorkerMatchesSequential(t *testing.T) {
	call := payoff.MustCompile("max(S_T - 95, 0)")
	p := atmParams(5000)

	seq, err := Price(p, call, NewSource(7))
	require.NoError(t, err)

	res, err := PriceSeeded(context.Background(), p, call, 7)
	require.NoError(t, err)
	assert.Equal(t, seq, res.Price)
	assert.Equal(t, 1, res.Workers)
	assert.Equal(t, uint64(7), res.Seed)
}

func TestPriceSeededParallelIsReproducible(t *testing.T) {
	put := payoff.MustCompile("max(100 - s, 0)")
	p := atmParams(50001)
	p.Workers = 6

	first, err := PriceSeeded(context.Background(), p, put, 99)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := PriceSeeded(context.Background(), p, put, 99)
		require.NoError(t, err)
		assert.Equal(t, first.Price, again.Price)
		assert.Equal(t, first.StdError, again.StdError)
	}
	assert.Equal(t, 6, first.Workers)
	assert.Equal(t, 50001, first.Paths)
}

func TestDomainErrorStopsTheRun(t *testing.T) {
	// Roughly half of all terminal prices fall below 100.
	bad := payoff.MustCompile("log(s - 100)")

	_, err := Price(atmParams(1000), bad, NewSource(3))
	require.Error(t, err)
	assert.True(t, perrors.Is(err, perrors.ErrMathDomain))

	p := atmParams(1000)
	p.Workers = 4
	res, err := PriceSeeded(context.Background(), p, bad, 3)
	require.Error(t, err)
	assert.True(t, perrors.Is(err, perrors.ErrMathDomain))
	assert.Equal(t, Result{}, res)
}

// scriptedSource replays zs in order.
type scriptedSource struct {
	zs []float64
	i  int
}

func (s *scriptedSource) NormFloat64() float64 {
	z := s.zs[s.i%len(s.zs)]
	s.i++
	return z
}

func TestOpposingInfinitiesAreADomainError(t *testing.T) {
	// Positive above 100, negative below, both overflowing.
	unbounded := payoff.MustCompile("(s - 100) * exp(1000)")

	_, err := Price(atmParams(2), unbounded, &scriptedSource{zs: []float64{2, -2}})
	require.Error(t, err)
	assert.True(t, perrors.Is(err, perrors.ErrMathDomain))
	assert.Contains(t, err.Error(), "path 1")

	_, err = Price(atmParams(1000), unbounded, NewSource(1))
	require.Error(t, err)
	assert.True(t, perrors.Is(err, perrors.ErrMathDomain))

	for _, workers := range []int{1, 4} {
		p := atmParams(1000)
		p.Workers = workers
		res, err := PriceSeeded(context.Background(), p, unbounded, 1)
		require.Error(t, err)
		assert.True(t, perrors.Is(err, perrors.ErrMathDomain))
		assert.Equal(t, Result{}, res)
	}
}

func TestCombineRejectsOpposingWorkerSums(t *testing.T) {
	_, err := combine([]accumulator{{sum: 1, sumSq: 1}, {sum: math.Inf(1)}, {sum: math.Inf(-1)}})
	require.Error(t, err)
	assert.True(t, perrors.Is(err, perrors.ErrMathDomain))
	assert.Contains(t, err.Error(), "combining worker 2")

	total, err := combine([]accumulator{{sum: 1, sumSq: 1}, {sum: 2, sumSq: 4}})
	require.NoError(t, err)
	assert.Equal(t, accumulator{sum: 3, sumSq: 5}, total)
}

func TestOneSidedOverflowPricesToInfinity(t *testing.T) {
	res, err := PriceSeeded(context.Background(), atmParams(100), payoff.MustCompile("exp(1000)"), 1)
	require.NoError(t, err)
	assert.True(t, math.IsInf(res.Price, 1))
	assert.True(t, math.IsInf(res.StdError, 1))
}

func TestNaNPayoffIsRejected(t *testing.T) {
	nan := payoff.Func(func(float64) (float64, error) { return math.NaN(), nil })
	_, err := Price(atmParams(10), nan, NewSource(1))
	assert.True(t, perrors.Is(err, perrors.ErrMathDomain))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		field  string
	}{
		{"paths zero", func(p *Params) { p.Paths = 0 }, "paths"},
		{"paths negative", func(p *Params) { p.Paths = -1 }, "paths"},
		{"spot", func(p *Params) { p.Spot = 0 }, "spot"},
		{"volatility", func(p *Params) { p.Volatility = -0.2 }, "volatility"},
		{"maturity", func(p *Params) { p.Maturity = 0 }, "maturity"},
		{"workers", func(p *Params) { p.Workers = -2 }, "workers"},
		{"paths checked first", func(p *Params) { p.Paths = 0; p.Spot = 0; p.Maturity = 0 }, "paths"},
		{"volatility before maturity", func(p *Params) { p.Volatility = 0; p.Maturity = 0 }, "volatility"},
		{"spot NaN", func(p *Params) { p.Spot = math.NaN() }, "spot"},
		{"volatility NaN", func(p *Params) { p.Volatility = math.NaN() }, "volatility"},
		{"maturity NaN", func(p *Params) { p.Maturity = math.NaN() }, "maturity"},
		{"rate NaN", func(p *Params) { p.Rate = math.NaN() }, "rate"},
		{"dividend NaN", func(p *Params) { p.Dividend = math.NaN() }, "dividend"},
		{"spot infinite", func(p *Params) { p.Spot = math.Inf(1) }, "spot"},
		{"volatility infinite", func(p *Params) { p.Volatility = math.Inf(1) }, "volatility"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := atmParams(100)
			tt.mutate(&p)

			_, err := Price(p, payoff.MustCompile("s"), NewSource(1))
			var ve *perrors.ValidationError
			require.True(t, perrors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)

			_, err = PriceSeeded(context.Background(), p, payoff.MustCompile("s"), 1)
			require.True(t, perrors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestMissingCollaborators(t *testing.T) {
	_, err := Price(atmParams(10), nil, NewSource(1))
	assert.True(t, perrors.Is(err, perrors.ErrRequired))

	_, err = Price(atmParams(10), payoff.MustCompile("s"), nil)
	assert.True(t, perrors.Is(err, perrors.ErrRequired))

	_, err = PriceSeeded(context.Background(), atmParams(10), nil, 1)
	assert.True(t, perrors.Is(err, perrors.ErrRequired))
}

func TestPriceSeededHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := atmParams(10000)
	_, err := PriceSeeded(ctx, p, payoff.MustCompile("s"), 1)
	assert.ErrorIs(t, err, context.Canceled)

	p.Workers = 3
	_, err = PriceSeeded(ctx, p, payoff.MustCompile("s"), 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPartition(t *testing.T) {
	assert.Equal(t, []block{{0, 10}}, partition(10, 0))
	assert.Equal(t, []block{{0, 4}, {4, 3}, {7, 3}}, partition(10, 3))
	assert.Equal(t, []block{{0, 1}, {1, 1}}, partition(2, 8))

	total := 0
	for _, b := range partition(20000, 7) {
		total += b.n
	}
	assert.Equal(t, 20000, total)
}

func TestEngineLogsRuns(t *testing.T) {
	var buf bytes.Buffer
	engine := NewEngine(zerolog.New(&buf).Level(zerolog.DebugLevel))

	res, err := engine.Run(context.Background(), atmParams(100), payoff.MustCompile("max(s - 100, 0)"), 5)
	require.NoError(t, err)
	assert.Greater(t, res.Price, 0.0)
	assert.Contains(t, buf.String(), "Monte Carlo run completed")
	assert.Contains(t, buf.String(), `"engine":"montecarlo"`)

	buf.Reset()
	_, err = engine.Run(context.Background(), atmParams(0), payoff.MustCompile("s"), 5)
	require.Error(t, err)
	assert.Contains(t, buf.String(), "Monte Carlo run failed")
}

func BenchmarkPriceSeeded(b *testing.B) {
	call := payoff.MustCompile("max(s - 100, 0)")
	p := atmParams(DefaultPaths)
	p.Workers = 4
	for i := 0; i < b.N; i++ {
		if _, err := PriceSeeded(context.Background(), p, call, uint64(i)); err != nil {
			b.Fatal(err)
		}
	}
}
