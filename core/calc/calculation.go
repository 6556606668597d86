package calc

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"grd-pricing/core/tariff"
)

// AdjustmentsBreakdown itemizes the three adjustment amounts.
type AdjustmentsBreakdown struct {
	Technology   decimal.Decimal `json:"technology"`
	WaitingDays  decimal.Decimal `json:"waiting_days"`
	OutlierAbove decimal.Decimal `json:"outlier_above"`
	Total        decimal.Decimal `json:"total"`
}

// SourceFiles names the dataset files a calculation was priced from.
type SourceFiles struct {
	Norm    string `json:"norm,omitempty"`
	Pricing string `json:"pricing,omitempty"`
}

// Breakdown is the full structured record of one pricing run.
type Breakdown struct {
	EpisodeID      string               `json:"episode_id"`
	ContractID     string               `json:"contract_id"`
	GRDCode        string               `json:"grd_code,omitempty"`
	BasePrice      decimal.Decimal      `json:"base_price"`
	RelativeWeight float64              `json:"relative_weight"`
	Subtotal       decimal.Decimal      `json:"subtotal"`
	Adjustments    AdjustmentsBreakdown `json:"adjustments"`
	TotalFinal     decimal.Decimal      `json:"total_final"`
	Scheme         tariff.SchemeKind    `json:"scheme"`
	Tier           tariff.TierLabel     `json:"tier,omitempty"`
	PriceSource    tariff.SourceKind    `json:"price_source"`
	Sources        SourceFiles          `json:"sources"`
}

// EpisodeCalculation is a persisted, versioned pricing record. Created once
// per calculation request and never mutated; later requests for the same
// episode create a new version.
type EpisodeCalculation struct {
	ID            string
	EpisodeID     string
	Version       int
	ContractID    string
	GRDCode       string
	BasePrice     decimal.Decimal
	RelativeWeight float64
	Subtotal      decimal.Decimal
	TotalFinal    decimal.Decimal
	Breakdown     Breakdown
	ReferenceDate *time.Time
	CreatedAt     time.Time
	CreatedBy     string
}

// CalculationSummary is one row of an episode's version history.
type CalculationSummary struct {
	ID         string
	Version    int
	TotalFinal decimal.Decimal
	ContractID string
	GRDCode    string
	CreatedAt  time.Time
	CreatedBy  string
}

// AuditEntry is the audit event appended alongside each calculation.
type AuditEntry struct {
	ID            string
	Event         string
	EpisodeID     string
	CalculationID string
	CreatedBy     string
	TotalFinal    decimal.Decimal
	Sources       SourceFiles
	Metadata      map[string]interface{}
	CreatedAt     time.Time
}

// CalculationStore persists calculations and their audit trail.
//
// CreateCalculation assigns the definitive version number under per-episode
// serialization: concurrent calculations for one episode must receive
// distinct, contiguous versions. The Version field on the passed record is
// advisory only.
type CalculationStore interface {
	CreateCalculation(ctx context.Context, calc *EpisodeCalculation) (id string, version int, err error)
	FindMaxVersion(ctx context.Context, episodeID string) (int, error)
	CreateAuditEntry(ctx context.Context, entry *AuditEntry) error
	ListVersions(ctx context.Context, episodeID string) ([]CalculationSummary, error)
	GetCalculation(ctx context.Context, id string) (*EpisodeCalculation, error)
}
