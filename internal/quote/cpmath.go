package quote

import (
	"fmt"
	"math/big"
)

// CalculateSwapOutput computes the constant-product output for an input
// amount against the given reserves, with the trade fee applied to the
// input side. big.Int keeps the intermediate products from overflowing.
func CalculateSwapOutput(
	amountIn uint64,
	reserveIn uint64,
	reserveOut uint64,
	feeNumerator uint64,
	feeDenominator uint64,
) (uint64, error) {

	if amountIn == 0 || reserveIn == 0 || reserveOut == 0 {
		return 0, fmt.Errorf("invalid inputs: amounts must be > 0")
	}
	if feeDenominator == 0 {
		return 0, fmt.Errorf("feeDenominator cannot be 0")
	}

	amountInBig := new(big.Int).SetUint64(amountIn)
	feeMultiplier := new(big.Int).SetUint64(feeDenominator - feeNumerator)
	feeDenom := new(big.Int).SetUint64(feeDenominator)

	amountInAfterFee := new(big.Int).Mul(amountInBig, feeMultiplier)
	amountInAfterFee.Div(amountInAfterFee, feeDenom)

	// out = (amountInAfterFee * reserveOut) / (reserveIn + amountInAfterFee)
	numerator := new(big.Int).Mul(amountInAfterFee, new(big.Int).SetUint64(reserveOut))
	denominator := new(big.Int).Add(new(big.Int).SetUint64(reserveIn), amountInAfterFee)

	out := new(big.Int).Div(numerator, denominator)
	if !out.IsUint64() {
		return 0, fmt.Errorf("output amount overflow")
	}
	return out.Uint64(), nil
}

// FeeRate converts a numerator/denominator fee pair to a fraction.
func FeeRate(feeNumerator, feeDenominator uint64) float64 {
	if feeDenominator == 0 {
		return 0
	}
	return float64(feeNumerator) / float64(feeDenominator)
}
