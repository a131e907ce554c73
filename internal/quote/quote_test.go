package quote

import (
	"math"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/araviel-io/onesol-swap-engine/internal/venue"
)

func baseParams() Params {
	mintA := solana.NewWallet().PublicKey()
	mintB := solana.NewWallet().PublicKey()
	return Params{
		MintA:      mintA,
		MintB:      mintB,
		LiquidityA: 1_000_000,
		LiquidityB: 2_000_000,
		InputMint:  mintA,
		OutputMint: mintB,
		AmountIn:   1000,
		AmountOut:  1980,
		Slippage:   0.01,
		FeeRate:    0.003,
		PricedMint: mintA,
	}
}

func TestCompute_Scenario(t *testing.T) {
	q, err := Compute(baseParams())
	require.NoError(t, err)
	require.NotNil(t, q)

	// poolRatio 0.5, userRatio 1000/1980, impact |100 - 100*userRatio/poolRatio|
	assert.InDelta(t, 1.0101, q.PriceImpactPct, 0.001)
	assert.Equal(t, "1.010%", q.PriceImpact)
	assert.InDelta(t, 1960.2, q.MinimumReceived, 1e-9)
	assert.Equal(t, "3", q.LiquidityProviderFee)
	assert.InDelta(t, 1.98, q.ExchangeRate, 1e-9)
}

func TestCompute_ReversedDirection(t *testing.T) {
	p := baseParams()
	p.InputMint, p.OutputMint = p.MintB, p.MintA
	p.AmountIn, p.AmountOut = 1980, 1000
	p.PricedMint = p.MintB

	q, err := Compute(p)
	require.NoError(t, err)
	require.NotNil(t, q)

	// The enriched amounts land in the same pool order either way, so the
	// impact matches the forward direction.
	assert.InDelta(t, 1.0101, q.PriceImpactPct, 0.001)
	assert.InDelta(t, 1000.0/1980.0, q.ExchangeRate, 1e-9)
}

func TestCompute_ExchangeRateToggle(t *testing.T) {
	p := baseParams()
	p.PricedMint = p.MintB // price in the output asset

	q, err := Compute(p)
	require.NoError(t, err)
	assert.InDelta(t, 1000.0/1980.0, q.ExchangeRate, 1e-9)
}

func TestCompute_NoQuote(t *testing.T) {
	cases := map[string]func(*Params){
		"zero amount in":  func(p *Params) { p.AmountIn = 0 },
		"zero amount out": func(p *Params) { p.AmountOut = 0 },
		"empty reserve a": func(p *Params) { p.LiquidityA = 0 },
		"empty reserve b": func(p *Params) { p.LiquidityB = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := baseParams()
			mutate(&p)
			q, err := Compute(p)
			assert.NoError(t, err)
			assert.Nil(t, q)
		})
	}
}

func TestCompute_MintMismatch(t *testing.T) {
	p := baseParams()
	p.InputMint = solana.NewWallet().PublicKey()

	_, err := Compute(p)
	assert.ErrorIs(t, err, venue.ErrVenueUnavailable)
}

func TestCompute_TinyImpact(t *testing.T) {
	p := baseParams()
	// Amounts exactly on the pool ratio have zero impact.
	p.AmountIn = 1000
	p.AmountOut = 2000

	q, err := Compute(p)
	require.NoError(t, err)
	assert.Equal(t, "< 0.01%", q.PriceImpact)
	assert.InDelta(t, 0, q.PriceImpactPct, 1e-9)
}

func TestFormatFee(t *testing.T) {
	assert.Equal(t, "3", formatFee(3.000000))
	assert.Equal(t, "0.123457", formatFee(0.123456789))
	assert.Equal(t, "0.5", formatFee(0.5))
}

func TestCalculateSwapOutput(t *testing.T) {
	// No fee: out = in*reserveOut/(reserveIn+in)
	out, err := CalculateSwapOutput(1000, 1_000_000, 2_000_000, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1998), out)

	// 0.3% fee shaves the input before the curve.
	outFee, err := CalculateSwapOutput(1000, 1_000_000, 2_000_000, 3, 1000)
	require.NoError(t, err)
	assert.Less(t, outFee, out)
}

func TestCalculateSwapOutput_Invalid(t *testing.T) {
	_, err := CalculateSwapOutput(0, 1, 1, 0, 1)
	assert.Error(t, err)

	_, err = CalculateSwapOutput(1, 1, 1, 0, 0)
	assert.Error(t, err)
}

func TestFeeRate(t *testing.T) {
	assert.InDelta(t, 0.003, FeeRate(3, 1000), 1e-12)
	assert.Equal(t, 0.0, FeeRate(1, 0))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.01, round(1.0101, 2))
	assert.Equal(t, 1.011, round(1.0105, 3))
	assert.True(t, math.Abs(round(2.5e-7, 6)) < 1e-12)
}
