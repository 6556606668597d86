package tariff

import "math"

// WeightTier describes one fixed weight band. The three tiers partition the
// positive real line; boundaries are constants, never derived from data.
type WeightTier struct {
	Label       TierLabel `json:"label"`
	Caption     string    `json:"caption"`
	Min         float64   `json:"min"`
	Max         float64   `json:"max"` // +Inf for the open-ended top tier
	IncludesMin bool      `json:"includes_min"`
	IncludesMax bool      `json:"includes_max"`
}

// WeightTiers is the fixed tier table:
//
//	T1: [0, 1.5]    T2: (1.5, 2.5]    T3: (2.5, +Inf)
var WeightTiers = [3]WeightTier{
	{Label: Tier1, Caption: "0 <= weight <= 1.5", Min: 0, Max: 1.5, IncludesMin: true, IncludesMax: true},
	{Label: Tier2, Caption: "1.5 < weight <= 2.5", Min: 1.5, Max: 2.5, IncludesMin: false, IncludesMax: true},
	{Label: Tier3, Caption: "weight > 2.5", Min: 2.5, Max: math.Inf(1), IncludesMin: false, IncludesMax: false},
}

// TierOf classifies a relative weight into its band. Callers validate the
// weight first; any finite positive value maps to exactly one tier.
func TierOf(weight float64) TierLabel {
	switch {
	case weight <= WeightTiers[0].Max:
		return Tier1
	case weight <= WeightTiers[1].Max:
		return Tier2
	default:
		return Tier3
	}
}

// TierRange returns the boundary description for a label.
func TierRange(label TierLabel) *WeightTier {
	for i := range WeightTiers {
		if WeightTiers[i].Label == label {
			t := WeightTiers[i]
			return &t
		}
	}
	return nil
}
