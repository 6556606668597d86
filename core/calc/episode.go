package calc

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Episode is one hospital admission/discharge record, already normalized and
// enriched with norm data by the import pipeline.
type Episode struct {
	ID                      string
	ContractID              string
	GRDCode                 string
	RelativeWeight          float64 // norm-derived weight, not a raw input
	HasNorm                 bool
	NormUpperCutoff         float64
	WaitingDays             int
	PrimaryProcedureCode    string
	SecondaryProcedureCodes string
	AdmissionDate           time.Time
}

// EpisodeReader loads episodes by id. Returns (nil, nil) when the episode
// does not exist.
type EpisodeReader interface {
	FindEpisodeByID(ctx context.Context, id string) (*Episode, error)
}

// DatasetKind identifies one of the imported reference dataset families.
type DatasetKind string

const (
	DatasetNorm       DatasetKind = "norm"
	DatasetPricing    DatasetKind = "pricing"
	DatasetTechnology DatasetKind = "technology_adjustments"
)

// DatasetRef identifies an imported dataset and its original file name.
type DatasetRef struct {
	ID       string
	Filename string
}

// DatasetCatalog looks up the active, completed dataset of a kind. Returns
// (nil, nil) when none is active.
type DatasetCatalog interface {
	FindActiveCompleted(ctx context.Context, kind DatasetKind) (*DatasetRef, error)
}

// AdjustmentFinder queries the technology-adjustment reference table for rows
// matching any of the given procedure codes, returning their amounts.
type AdjustmentFinder interface {
	FindMatching(ctx context.Context, datasetID string, codes []string) ([]decimal.Decimal, error)
}
