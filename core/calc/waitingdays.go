package calc

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Contracts with a waiting-days payment rule.
const (
	contractWaitingDays = "CH0041"
	contractOutlier     = "FNS012"
)

type waitingRatePeriod struct {
	from time.Time
	to   time.Time
	rate decimal.Decimal
}

// Per-day waiting rates for CH0041, by validity period.
var ch0041WaitingRates = []waitingRatePeriod{
	{date(2023, 1, 1), date(2024, 8, 28), decimal.NewFromInt(95000)},
	{date(2024, 8, 29), date(2025, 8, 28), decimal.NewFromInt(98990)},
	{date(2025, 8, 29), date(2025, 12, 31), decimal.NewFromInt(102455)},
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WaitingDaysAdjuster pays a per-day rate for the episode's waiting days on
// contracts that price them.
type WaitingDaysAdjuster struct {
	log *zap.Logger
}

// NewWaitingDaysAdjuster creates a waiting-days calculator.
func NewWaitingDaysAdjuster(log *zap.Logger) *WaitingDaysAdjuster {
	return &WaitingDaysAdjuster{log: log}
}

// Adjust computes the waiting-days payment. The per-day rate depends on
// which historical period the reference date falls into; outside all listed
// periods the chronologically last rate applies as the best available one.
func (a *WaitingDaysAdjuster) Adjust(contractID string, waitingDays int, refDate time.Time) Outcome {
	if waitingDays <= 0 {
		return Outcome{Amount: decimal.Zero}
	}

	switch strings.ToUpper(strings.TrimSpace(contractID)) {
	case contractWaitingDays:
		rate, covered := ch0041RateFor(refDate)
		out := Outcome{Amount: rate.Mul(decimal.NewFromInt(int64(waitingDays)))}
		if !covered {
			out.Warnings = append(out.Warnings,
				"reference date outside all waiting-day rate periods, using the last known rate")
		}
		a.log.Debug("waiting days payment computed",
			zap.String("contract", contractID),
			zap.Int("days", waitingDays),
			zap.String("rate", rate.String()),
			zap.String("total", out.Amount.String()))
		return out

	case contractOutlier:
		// Recognized contract, but its rate schedule has not been provided
		// yet. Visible gap, not a business rule.
		return zeroOutcome("waiting-days rate schedule for FNS012 not yet available")

	default:
		return Outcome{Amount: decimal.Zero}
	}
}

func ch0041RateFor(refDate time.Time) (decimal.Decimal, bool) {
	for _, p := range ch0041WaitingRates {
		if !refDate.Before(p.from) && !refDate.After(p.to) {
			return p.rate, true
		}
	}
	return ch0041WaitingRates[len(ch0041WaitingRates)-1].rate, false
}
