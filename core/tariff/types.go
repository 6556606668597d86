// Package tariff implements contract tariff resolution: selecting the price
// in force for a (contract, relative weight, reference date) triple across
// the configured tariff sources.
package tariff

import (
	"time"

	"github.com/shopspring/decimal"
)

// TierLabel identifies one of the three fixed weight-based pricing bands.
type TierLabel string

const (
	TierNone TierLabel = ""
	Tier1    TierLabel = "T1"
	Tier2    TierLabel = "T2"
	Tier3    TierLabel = "T3"
)

// SchemeKind is how a contract prices episodes.
type SchemeKind string

const (
	// FlatPrice means one price, possibly with multiple time-bounded versions.
	FlatPrice SchemeKind = "FLAT_PRICE"

	// TieredByWeight means the price depends on the episode's weight tier.
	TieredByWeight SchemeKind = "TIERED_BY_WEIGHT"
)

// SourceKind identifies which tariff source answered a resolution.
type SourceKind string

const (
	SourcePrimary    SourceKind = "primary"
	SourceAttachment SourceKind = "attachment"
)

// SourcePreference restricts which sources a resolution may consult.
type SourcePreference string

const (
	// PreferAuto tries the primary source first, then the attachment.
	PreferAuto SourcePreference = "auto"

	// PreferPrimaryOnly consults only the primary source.
	PreferPrimaryOnly SourcePreference = "primary"

	// PreferAttachmentOnly consults only the attachment source.
	PreferAttachmentOnly SourcePreference = "attachment"
)

// Validity is an optionally open-ended date range. A nil bound means
// unbounded in that direction.
type Validity struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// Contains reports whether t falls inside the range, both ends inclusive.
func (v Validity) Contains(t time.Time) bool {
	if v.From != nil && v.From.After(t) {
		return false
	}
	if v.To != nil && v.To.Before(t) {
		return false
	}
	return true
}

// PriceEntry is one priced offer within a contract.
type PriceEntry struct {
	// Tier is the weight band this entry prices. TierNone for flat schemes.
	Tier TierLabel `json:"tier,omitempty"`

	// Value is the monetary amount.
	Value decimal.Decimal `json:"value"`

	// Validity is the date range during which the entry applies.
	Validity Validity `json:"validity"`
}

// ContractTariff is all pricing information known for one payer contract.
type ContractTariff struct {
	// ContractID is the payer contract identifier.
	ContractID string `json:"contract_id"`

	// Description is an optional free-text label.
	Description string `json:"description,omitempty"`

	// Scheme is the contract's pricing scheme. Inferred from source data:
	// tier presence on any row makes the contract tiered.
	Scheme SchemeKind `json:"scheme"`

	// Entries are the priced offers, in source order.
	Entries []PriceEntry `json:"entries"`
}

// ResolvedPrice is the resolution engine's output.
type ResolvedPrice struct {
	// ContractID is the resolved contract.
	ContractID string `json:"contract_id"`

	// Scheme is the contract's pricing scheme.
	Scheme SchemeKind `json:"scheme"`

	// Value is the winning price.
	Value decimal.Decimal `json:"value"`

	// Source is the tariff source that answered.
	Source SourceKind `json:"source"`

	// Tier is the matched weight band, if the scheme is tiered.
	Tier TierLabel `json:"tier,omitempty"`

	// TierRange describes the matched band's boundaries, if tiered.
	TierRange *WeightTier `json:"tier_range,omitempty"`

	// Validity is the window of the winning entry.
	Validity Validity `json:"validity"`
}
