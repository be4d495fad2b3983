// internal/engine/fee.go
package engine

import "lukechampine.com/uint128"

// feeDenominator converts basis points to a proportion (100 bp = 1%).
const feeDenominator = 10_000

// MaxFeeBasisPoints caps the configurable fee at 5%.
const MaxFeeBasisPoints = 500

// CalculateFee returns floor(amount * feeBasisPoints / 10000). The product is
// carried in 128 bits, so the only failure mode is a quotient that no longer
// fits in 64 bits.
func CalculateFee(amount uint64, feeBasisPoints uint16) (uint64, error) {
	q := uint128.From64(amount).Mul64(uint64(feeBasisPoints)).Div64(feeDenominator)
	if q.Hi != 0 {
		return 0, ErrArithmeticOverflow
	}
	return q.Lo, nil
}
