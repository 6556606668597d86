package tariff

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"grd-pricing/internal/errors"
)

// Engine resolves the base price for a contract, weight and reference date.
type Engine struct {
	sources *Sources
	log     *zap.Logger
}

// NewEngine creates a resolution engine over the given sources.
func NewEngine(sources *Sources, log *zap.Logger) *Engine {
	return &Engine{sources: sources, log: log}
}

// Sources exposes the arbitration policy for administrative reconfiguration.
func (e *Engine) Sources() *Sources {
	return e.sources
}

// ResolveRequest are the inputs to a base price resolution.
type ResolveRequest struct {
	// ContractID is the payer contract to price under.
	ContractID string

	// RelativeWeight is the episode's severity-adjusted weight. Must be
	// finite and positive.
	RelativeWeight float64

	// ReferenceDate selects the validity window. Zero means now.
	ReferenceDate time.Time

	// Preference restricts which sources are consulted. Empty means auto.
	Preference SourcePreference
}

// ResolveBasePrice selects the price in force for the request. Tiering is
// evaluated before validity filtering: a contract can have disjoint
// tier-specific validity histories.
func (e *Engine) ResolveBasePrice(ctx context.Context, req ResolveRequest) (*ResolvedPrice, error) {
	if !isValidWeight(req.RelativeWeight) {
		return nil, errors.InvalidWeight(req.RelativeWeight)
	}

	refDate := req.ReferenceDate
	if refDate.IsZero() {
		refDate = time.Now()
	}
	pref := req.Preference
	if pref == "" {
		pref = PreferAuto
	}

	contract, source, err := e.sources.Resolve(ctx, req.ContractID, pref)
	if err != nil {
		return nil, err
	}

	candidates := contract.Entries
	tier := TierNone
	if contract.Scheme == TieredByWeight {
		tier = TierOf(req.RelativeWeight)
		candidates = entriesForTier(contract.Entries, tier)
	}
	if len(candidates) == 0 {
		return nil, errors.TariffNotInForce(contract.ContractID)
	}

	winner, inForce := selectEntry(candidates, refDate)
	if !inForce {
		e.log.Warn("no entry contains the reference date, using most recent known rate",
			zap.String("contract", contract.ContractID),
			zap.String("tier", string(tier)),
			zap.Time("reference_date", refDate))
	}

	resolved := &ResolvedPrice{
		ContractID: contract.ContractID,
		Scheme:     contract.Scheme,
		Value:      winner.Value,
		Source:     source,
		Validity:   winner.Validity,
	}
	if tier != TierNone {
		resolved.Tier = tier
		resolved.TierRange = TierRange(tier)
	}
	return resolved, nil
}

func isValidWeight(w float64) bool {
	return !math.IsNaN(w) && !math.IsInf(w, 0) && w > 0
}

func entriesForTier(entries []PriceEntry, tier TierLabel) []PriceEntry {
	var out []PriceEntry
	for _, e := range entries {
		if e.Tier == tier {
			out = append(out, e)
		}
	}
	return out
}

// selectEntry picks the winning entry among candidates. Entries whose window
// contains the reference date win; among those, the most recent From wins
// (missing From sorts as earliest). When no window contains the date, the
// most-recent-From entry among all candidates is used as the best available
// rate; inForce reports which partition won.
func selectEntry(candidates []PriceEntry, refDate time.Time) (PriceEntry, bool) {
	var containing []PriceEntry
	for _, c := range candidates {
		if c.Validity.Contains(refDate) {
			containing = append(containing, c)
		}
	}

	if len(containing) > 0 {
		return mostRecentFrom(containing), true
	}
	return mostRecentFrom(candidates), false
}

func mostRecentFrom(entries []PriceEntry) PriceEntry {
	sorted := make([]PriceEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return fromTime(sorted[i]).After(fromTime(sorted[j]))
	})
	return sorted[0]
}

// fromTime treats a missing From as the earliest possible instant.
func fromTime(e PriceEntry) time.Time {
	if e.Validity.From == nil {
		return time.Time{}
	}
	return *e.Validity.From
}
