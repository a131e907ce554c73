// Package quote computes off-chain swap estimates from pool reserves and
// user-entered amounts. Everything here is pure; callers re-run Compute
// whenever the reserves, amounts, or slippage tolerance change.
package quote

import (
	"fmt"
	"math"
	"strconv"

	"github.com/gagliardetto/solana-go"

	"github.com/araviel-io/onesol-swap-engine/internal/venue"
)

// Params carries one quote request. Reserves and mints are given in the
// pool's own on-ledger order, which may differ from the direction the user
// is swapping.
type Params struct {
	MintA      solana.PublicKey
	MintB      solana.PublicKey
	LiquidityA float64
	LiquidityB float64

	InputMint  solana.PublicKey
	OutputMint solana.PublicKey
	AmountIn   float64
	AmountOut  float64

	// Slippage is the tolerance as a fraction, e.g. 0.01 for 1%.
	Slippage float64

	// FeeRate is the pool's trade fee as a fraction of input.
	FeeRate float64

	// PricedMint selects which side the exchange rate is expressed in.
	// When it equals InputMint the rate is output per input, otherwise
	// the reciprocal.
	PricedMint solana.PublicKey
}

// Quote is the computed estimate handed to the presentation layer.
type Quote struct {
	ExchangeRate         float64 `json:"exchangeRate"`
	MinimumReceived      float64 `json:"minimumReceived"`
	PriceImpactPct       float64 `json:"priceImpactPct"`
	PriceImpact          string  `json:"priceImpact"`
	LiquidityProviderFee string  `json:"liquidityProviderFee"`
}

// Compute derives a quote from p. A nil quote with nil error means no quote
// is available yet (zero amounts or empty reserves), which is not an error
// state for the caller.
func Compute(p Params) (*Quote, error) {
	if p.AmountIn == 0 || p.AmountOut == 0 || p.LiquidityA == 0 || p.LiquidityB == 0 {
		return nil, nil
	}

	// Reorder the user's amounts to the pool's asset order so both ratios
	// compare like with like.
	var enrichedA, enrichedB float64
	switch {
	case p.InputMint.Equals(p.MintA) && p.OutputMint.Equals(p.MintB):
		enrichedA, enrichedB = p.AmountIn, p.AmountOut
	case p.InputMint.Equals(p.MintB) && p.OutputMint.Equals(p.MintA):
		enrichedA, enrichedB = p.AmountOut, p.AmountIn
	default:
		return nil, fmt.Errorf("%w: amounts do not match pool assets", venue.ErrVenueUnavailable)
	}

	poolRatio := p.LiquidityA / p.LiquidityB
	userRatio := enrichedA / enrichedB
	if poolRatio == 0 {
		return nil, nil
	}

	impact := math.Abs(100 - 100*userRatio/poolRatio)

	rate := p.AmountOut / p.AmountIn
	if !p.PricedMint.Equals(p.InputMint) {
		rate = p.AmountIn / p.AmountOut
	}

	return &Quote{
		ExchangeRate:         rate,
		MinimumReceived:      p.AmountOut * (1 - p.Slippage),
		PriceImpactPct:       impact,
		PriceImpact:          formatImpact(impact),
		LiquidityProviderFee: formatFee(p.AmountIn * p.FeeRate),
	}, nil
}

func formatImpact(pct float64) string {
	if pct < 0.01 {
		return "< 0.01%"
	}
	return strconv.FormatFloat(round(pct, 3), 'f', 3, 64) + "%"
}

// formatFee rounds to 6 decimal places and strips trailing zeros for
// display, so 3.000000 renders as "3".
func formatFee(fee float64) string {
	return strconv.FormatFloat(round(fee, 6), 'f', -1, 64)
}

func round(v float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(v*shift) / shift
}
