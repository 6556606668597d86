package calc

import "github.com/shopspring/decimal"

// Outcome is the result of one adjustment calculator. Adjustments are
// additive bonuses: a calculator never fails the calculation, it degrades to
// a zero amount and surfaces what went wrong as warnings. The orchestrator
// unwraps the amount and logs the warnings, making the recovery policy
// visible at the call site.
type Outcome struct {
	Amount   decimal.Decimal
	Warnings []string
}

// zeroOutcome builds a degraded outcome carrying the given warnings.
func zeroOutcome(warnings ...string) Outcome {
	return Outcome{Amount: decimal.Zero, Warnings: warnings}
}
