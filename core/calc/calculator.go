package calc

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"grd-pricing/core/tariff"
	"grd-pricing/internal/errors"
)

// Calculator orchestrates a full episode pricing run: precondition checks,
// base price resolution, subtotal, adjustments, and the versioned record.
type Calculator struct {
	episodes EpisodeReader
	catalog  DatasetCatalog
	store    CalculationStore
	engine   *tariff.Engine

	technology *TechnologyAdjuster
	waiting    *WaitingDaysAdjuster
	outlier    *OutlierAboveAdjuster

	log *zap.Logger
}

// NewCalculator wires an orchestrator from its collaborators.
func NewCalculator(
	episodes EpisodeReader,
	catalog DatasetCatalog,
	store CalculationStore,
	engine *tariff.Engine,
	finder AdjustmentFinder,
	log *zap.Logger,
) *Calculator {
	return &Calculator{
		episodes:   episodes,
		catalog:    catalog,
		store:      store,
		engine:     engine,
		technology: NewTechnologyAdjuster(catalog, finder, log),
		waiting:    NewWaitingDaysAdjuster(log),
		outlier:    NewOutlierAboveAdjuster(log),
		log:        log,
	}
}

// Request identifies the episode to price.
type Request struct {
	EpisodeID     string
	ReferenceDate *time.Time
	RequestedBy   string
}

// Result is the outcome of one calculation request.
type Result struct {
	CalculationID string
	Version       int
	Breakdown     Breakdown
	TotalFinal    decimal.Decimal
}

// CalculateEpisode prices one episode and persists a new calculation
// version plus an audit entry. Resolution-engine errors pass through
// unmodified; adjustment failures degrade to zero with warnings.
func (c *Calculator) CalculateEpisode(ctx context.Context, req Request) (*Result, error) {
	episode, err := c.episodes.FindEpisodeByID(ctx, req.EpisodeID)
	if err != nil {
		return nil, errors.Internal("episode lookup failed", err)
	}
	if episode == nil {
		return nil, errors.Newf(errors.CodeEpisodeNotFound, "episode %s not found", req.EpisodeID)
	}
	if !episode.HasNorm {
		return nil, errors.Newf(errors.CodeEpisodeNoNorm, "episode %s has no applicable norm", req.EpisodeID)
	}

	contractID := strings.TrimSpace(episode.ContractID)
	if contractID == "" {
		return nil, errors.Newf(errors.CodeEpisodeNoContract, "episode %s has no contract", req.EpisodeID)
	}

	weight := episode.RelativeWeight
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight <= 0 {
		return nil, errors.Newf(errors.CodeEpisodeNoValidWeight,
			"episode %s has no valid relative weight: %v", req.EpisodeID, weight)
	}

	normDS, err := c.catalog.FindActiveCompleted(ctx, DatasetNorm)
	if err != nil {
		return nil, errors.Internal("norm dataset lookup failed", err)
	}
	pricingDS, err := c.catalog.FindActiveCompleted(ctx, DatasetPricing)
	if err != nil {
		return nil, errors.Internal("pricing dataset lookup failed", err)
	}
	if pricingDS == nil {
		return nil, errors.New(errors.CodePricingSourceUnavailable,
			"no active pricing dataset, activate a tariff file before calculating")
	}

	refDate := c.referenceDate(req, episode)

	resolved, err := c.engine.ResolveBasePrice(ctx, tariff.ResolveRequest{
		ContractID:     contractID,
		RelativeWeight: weight,
		ReferenceDate:  refDate,
	})
	if err != nil {
		return nil, err
	}

	subtotal, err := Subtotal(resolved.Value, weight)
	if err != nil {
		return nil, err
	}

	adjustments := c.runAdjusters(ctx, episode, contractID, refDate, resolved.Value)
	totalFinal := subtotal.Add(adjustments.Total)

	breakdown := Breakdown{
		EpisodeID:      episode.ID,
		ContractID:     contractID,
		GRDCode:        episode.GRDCode,
		BasePrice:      resolved.Value,
		RelativeWeight: weight,
		Subtotal:       subtotal,
		Adjustments:    adjustments,
		TotalFinal:     totalFinal,
		Scheme:         resolved.Scheme,
		Tier:           resolved.Tier,
		PriceSource:    resolved.Source,
		Sources: SourceFiles{
			Pricing: pricingDS.Filename,
		},
	}
	if normDS != nil {
		breakdown.Sources.Norm = normDS.Filename
	}

	maxVersion, err := c.store.FindMaxVersion(ctx, episode.ID)
	if err != nil {
		return nil, errors.Internal("version lookup failed", err)
	}

	record := &EpisodeCalculation{
		EpisodeID:      episode.ID,
		Version:        maxVersion + 1, // advisory, the store assigns the final value
		ContractID:     contractID,
		GRDCode:        episode.GRDCode,
		BasePrice:      resolved.Value,
		RelativeWeight: weight,
		Subtotal:       subtotal,
		TotalFinal:     totalFinal,
		Breakdown:      breakdown,
		ReferenceDate:  req.ReferenceDate,
		CreatedBy:      req.RequestedBy,
	}

	id, version, err := c.store.CreateCalculation(ctx, record)
	if err != nil {
		return nil, errors.Internal("calculation persistence failed", err)
	}

	audit := &AuditEntry{
		Event:         "episode recalculation",
		EpisodeID:     episode.ID,
		CalculationID: id,
		CreatedBy:     req.RequestedBy,
		TotalFinal:    totalFinal,
		Sources:       breakdown.Sources,
		Metadata: map[string]interface{}{
			"version":  version,
			"contract": contractID,
			"grd":      episode.GRDCode,
			"tier":     string(resolved.Tier),
		},
	}
	if err := c.store.CreateAuditEntry(ctx, audit); err != nil {
		return nil, errors.Internal("audit persistence failed", err)
	}

	c.log.Info("episode calculation completed",
		zap.String("episode", episode.ID),
		zap.Int("version", version),
		zap.String("contract", contractID),
		zap.String("subtotal", subtotal.String()),
		zap.String("adjustments", adjustments.Total.String()),
		zap.String("total_final", totalFinal.String()))

	return &Result{
		CalculationID: id,
		Version:       version,
		Breakdown:     breakdown,
		TotalFinal:    totalFinal,
	}, nil
}

// referenceDate resolves the date chain: request date, else the episode's
// admission date, else now.
func (c *Calculator) referenceDate(req Request, episode *Episode) time.Time {
	if req.ReferenceDate != nil {
		return *req.ReferenceDate
	}
	if !episode.AdmissionDate.IsZero() {
		return episode.AdmissionDate
	}
	return time.Now()
}

// runAdjusters evaluates the three adjustment calculators concurrently; they
// are independent and none mutates shared state. Warnings are logged here,
// where the degrade-to-zero policy is applied.
func (c *Calculator) runAdjusters(ctx context.Context, episode *Episode, contractID string, refDate time.Time, basePrice decimal.Decimal) AdjustmentsBreakdown {
	var technology, waiting, outlier Outcome

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		technology = c.technology.Adjust(ctx, episode.PrimaryProcedureCode, episode.SecondaryProcedureCodes)
	}()
	go func() {
		defer wg.Done()
		waiting = c.waiting.Adjust(contractID, episode.WaitingDays, refDate)
	}()
	go func() {
		defer wg.Done()
		outlier = c.outlier.Adjust(contractID, episode.RelativeWeight, episode.NormUpperCutoff, basePrice)
	}()
	wg.Wait()

	for _, outcome := range []struct {
		name string
		out  Outcome
	}{
		{"technology", technology},
		{"waiting_days", waiting},
		{"outlier_above", outlier},
	} {
		for _, w := range outcome.out.Warnings {
			c.log.Warn("adjustment degraded to zero",
				zap.String("adjustment", outcome.name),
				zap.String("episode", episode.ID),
				zap.String("reason", w))
		}
	}

	total := technology.Amount.Add(waiting.Amount).Add(outlier.Amount)
	return AdjustmentsBreakdown{
		Technology:   technology.Amount,
		WaitingDays:  waiting.Amount,
		OutlierAbove: outlier.Amount,
		Total:        total,
	}
}

// ListVersions returns an episode's calculation history, newest first.
func (c *Calculator) ListVersions(ctx context.Context, episodeID string) ([]CalculationSummary, error) {
	summaries, err := c.store.ListVersions(ctx, episodeID)
	if err != nil {
		return nil, errors.Internal("version history lookup failed", err)
	}
	return summaries, nil
}

// GetCalculation returns the stored detail of one calculation.
func (c *Calculator) GetCalculation(ctx context.Context, id string) (*EpisodeCalculation, error) {
	record, err := c.store.GetCalculation(ctx, id)
	if err != nil {
		return nil, errors.Internal("calculation lookup failed", err)
	}
	if record == nil {
		return nil, errors.Newf(errors.CodeCalculationNotFound, "calculation %s not found", id)
	}
	return record, nil
}
