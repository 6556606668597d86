// Package cmd - calculate command
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"grd-pricing/adapters/postgres"
	"grd-pricing/core/calc"
	"grd-pricing/core/tariff"
	"grd-pricing/internal/config"
	"grd-pricing/internal/logging"
)

var (
	calculateDate string
	calculateBy   string
)

// calculateCmd represents the calculate command
var calculateCmd = &cobra.Command{
	Use:   "calculate [episode-id]",
	Short: "Calculate the reimbursement amount for an episode",
	Long: `Price one episode: resolve its contract base price, apply the
relative weight, evaluate adjustments and persist a new calculation
version with an audit entry.

Examples:
  grd-pricing calculate EP-2024-0001
  grd-pricing calculate EP-2024-0001 --date 2024-06-01 --by analyst`,
	Args: cobra.ExactArgs(1),
	RunE: runCalculate,
}

func init() {
	calculateCmd.Flags().StringVarP(&calculateDate, "date", "d", "", "reference date (YYYY-MM-DD, default admission date)")
	calculateCmd.Flags().StringVar(&calculateBy, "by", "", "user recorded on the calculation and audit entry")
}

func runCalculate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	calculator, db, err := newCalculator(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	req := calc.Request{EpisodeID: args[0], RequestedBy: calculateBy}
	if calculateDate != "" {
		refDate, err := parseDateFlag(calculateDate)
		if err != nil {
			return err
		}
		req.ReferenceDate = &refDate
	}

	result, err := calculator.CalculateEpisode(ctx, req)
	if err != nil {
		return err
	}

	b := result.Breakdown
	fmt.Printf("Episode:        %s (version %d)\n", b.EpisodeID, result.Version)
	fmt.Printf("Contract:       %s\n", b.ContractID)
	if b.GRDCode != "" {
		fmt.Printf("GRD:            %s\n", b.GRDCode)
	}
	fmt.Printf("Base price:     %s (%s", b.BasePrice.StringFixed(2), b.PriceSource)
	if b.Tier != tariff.TierNone {
		fmt.Printf(", tier %s", b.Tier)
	}
	fmt.Println(")")
	fmt.Printf("Weight:         %.4f\n", b.RelativeWeight)
	fmt.Printf("Subtotal:       %s\n", b.Subtotal.StringFixed(2))
	fmt.Printf("Adjustments:    %s\n", b.Adjustments.Total.StringFixed(2))
	fmt.Printf("  technology:   %s\n", b.Adjustments.Technology.StringFixed(2))
	fmt.Printf("  waiting days: %s\n", b.Adjustments.WaitingDays.StringFixed(2))
	fmt.Printf("  outlier:      %s\n", b.Adjustments.OutlierAbove.StringFixed(2))
	fmt.Printf("Total:          %s\n", result.TotalFinal.StringFixed(2))
	fmt.Printf("\nCalculation id: %s\n", result.CalculationID)
	return nil
}

// newCalculator wires the full pricing stack against Postgres. The caller
// owns the returned DB handle.
func newCalculator(ctx context.Context) (*calc.Calculator, *postgres.DB, error) {
	cfg := config.Get()
	log := logging.Logger

	db, err := postgres.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	sources := tariff.NewSources(cfg.Attachment.CandidatePaths(), log)
	sources.Configure(tariff.ConfigureOptions{Primary: postgres.NewTariffStore(db)})
	engine := tariff.NewEngine(sources, log)

	calculator := calc.NewCalculator(
		postgres.NewEpisodeStore(db),
		postgres.NewCatalog(db),
		postgres.NewCalculationStore(db),
		engine,
		postgres.NewAdjustmentStore(db),
		log,
	)
	return calculator, db, nil
}

// versionsCmd lists an episode's calculation history
var versionsCmd = &cobra.Command{
	Use:   "versions [episode-id]",
	Short: "List the calculation versions of an episode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		calculator, db, err := newCalculator(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		summaries, err := calculator.ListVersions(ctx, args[0])
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Println("No calculations found.")
			return nil
		}

		fmt.Printf("%-8s %-14s %-10s %-20s %s\n", "VERSION", "TOTAL", "CONTRACT", "CREATED", "BY")
		for _, s := range summaries {
			fmt.Printf("%-8d %-14s %-10s %-20s %s\n",
				s.Version, s.TotalFinal.StringFixed(2), s.ContractID,
				s.CreatedAt.Format(time.RFC3339), s.CreatedBy)
		}
		return nil
	},
}

// showCmd prints one stored calculation in detail
var showCmd = &cobra.Command{
	Use:   "show [calculation-id]",
	Short: "Show a stored calculation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		calculator, db, err := newCalculator(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		record, err := calculator.GetCalculation(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Calculation:  %s\n", record.ID)
		fmt.Printf("Episode:      %s (version %d)\n", record.EpisodeID, record.Version)
		fmt.Printf("Contract:     %s\n", record.ContractID)
		fmt.Printf("Base price:   %s\n", record.BasePrice.StringFixed(2))
		fmt.Printf("Subtotal:     %s\n", record.Subtotal.StringFixed(2))
		fmt.Printf("Adjustments:  %s\n", record.Breakdown.Adjustments.Total.StringFixed(2))
		fmt.Printf("Total:        %s\n", record.TotalFinal.StringFixed(2))
		if record.Breakdown.Sources.Pricing != "" {
			fmt.Printf("Pricing file: %s\n", record.Breakdown.Sources.Pricing)
		}
		if record.Breakdown.Sources.Norm != "" {
			fmt.Printf("Norm file:    %s\n", record.Breakdown.Sources.Norm)
		}
		fmt.Printf("Created:      %s %s\n", record.CreatedAt.Format(time.RFC3339), record.CreatedBy)
		return nil
	},
}

// initdbCmd creates the database schema
var initdbCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Create the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg := config.Get()

		db, err := postgres.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		if err := db.InitSchema(ctx); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		fmt.Println("Schema ready.")
		return nil
	},
}
