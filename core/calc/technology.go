package calc

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TechnologyAdjuster computes the technology surcharge for an episode's
// procedure codes against the active technology-adjustment reference table.
type TechnologyAdjuster struct {
	catalog DatasetCatalog
	finder  AdjustmentFinder
	log     *zap.Logger
}

// NewTechnologyAdjuster creates a technology surcharge calculator.
func NewTechnologyAdjuster(catalog DatasetCatalog, finder AdjustmentFinder, log *zap.Logger) *TechnologyAdjuster {
	return &TechnologyAdjuster{catalog: catalog, finder: finder, log: log}
}

// Adjust sums the amounts of all reference rows matching the episode's
// primary and secondary procedure codes. A missing reference table is a
// warning, never an error.
func (a *TechnologyAdjuster) Adjust(ctx context.Context, primaryCode, secondaryCodes string) Outcome {
	codes := CollectProcedureCodes(primaryCode, secondaryCodes)
	if len(codes) == 0 {
		return Outcome{Amount: decimal.Zero}
	}

	dataset, err := a.catalog.FindActiveCompleted(ctx, DatasetTechnology)
	if err != nil {
		return zeroOutcome(fmt.Sprintf("technology adjustment dataset lookup failed: %v", err))
	}
	if dataset == nil {
		return zeroOutcome("no active technology adjustment dataset")
	}

	amounts, err := a.finder.FindMatching(ctx, dataset.ID, codes)
	if err != nil {
		return zeroOutcome(fmt.Sprintf("technology adjustment lookup failed: %v", err))
	}

	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(amount)
	}

	a.log.Debug("technology adjustments matched",
		zap.Strings("codes", codes),
		zap.Int("matches", len(amounts)),
		zap.String("total", total.String()))

	return Outcome{Amount: total}
}
