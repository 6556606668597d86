package calc

import (
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OutlierAboveAdjuster pays for the weight excess over the norm's upper
// cut-off point on contracts that price outliers.
type OutlierAboveAdjuster struct {
	log *zap.Logger
}

// NewOutlierAboveAdjuster creates an outlier-above calculator.
func NewOutlierAboveAdjuster(log *zap.Logger) *OutlierAboveAdjuster {
	return &OutlierAboveAdjuster{log: log}
}

// Adjust computes (weight - cutoff) x basePrice when the episode's weight
// exceeds the upper cut-off. The base price is passed down from the
// orchestrator; this calculator has no access to the tariff engine.
func (a *OutlierAboveAdjuster) Adjust(contractID string, weight, upperCutoff float64, basePrice decimal.Decimal) Outcome {
	if strings.ToUpper(strings.TrimSpace(contractID)) != contractOutlier {
		return Outcome{Amount: decimal.Zero}
	}
	if upperCutoff <= 0 || weight <= upperCutoff {
		return Outcome{Amount: decimal.Zero}
	}
	if basePrice.Sign() <= 0 {
		return zeroOutcome("cannot compute outlier-above payment without a positive base price")
	}

	excess := decimal.NewFromFloat(weight - upperCutoff)
	amount := excess.Mul(basePrice)

	a.log.Debug("outlier-above payment computed",
		zap.String("contract", contractID),
		zap.Float64("weight", weight),
		zap.Float64("cutoff", upperCutoff),
		zap.String("amount", amount.String()))

	return Outcome{Amount: amount}
}
