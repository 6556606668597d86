// Package calc implements episode pricing: precondition checks, base price
// resolution, subtotal and adjustment math, and versioned calculation
// records.
package calc

import (
	"math"

	"github.com/shopspring/decimal"

	"grd-pricing/internal/errors"
)

// Subtotal computes basePrice x weight rounded half-up to 2 decimal places.
// This is a reusable primitive, so the weight is validated here independently
// of the resolution engine's own validation.
func Subtotal(basePrice decimal.Decimal, weight float64) (decimal.Decimal, error) {
	if basePrice.Sign() < 0 {
		return decimal.Zero, errors.InvalidBaseAmount(basePrice.String())
	}
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight <= 0 {
		return decimal.Zero, errors.InvalidWeight(weight)
	}
	return basePrice.Mul(decimal.NewFromFloat(weight)).Round(2), nil
}
