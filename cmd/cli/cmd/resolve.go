// Package cmd - resolve command
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"grd-pricing/adapters/postgres"
	"grd-pricing/core/tariff"
	"grd-pricing/internal/config"
	"grd-pricing/internal/logging"
)

var (
	resolveContract   string
	resolveWeight     float64
	resolveDate       string
	resolveSource     string
	resolveAttachment string
	resolveUseDB      bool
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve the base price for a contract and weight",
	Long: `Resolve the contract base price in force for a relative weight and
reference date, without touching any episode.

By default only the tariff attachment file is consulted. With --database
the imported pricing dataset in Postgres takes precedence.

Examples:
  grd-pricing resolve --contract CH0041 --weight 1.2
  grd-pricing resolve --contract FNS012 --weight 2.6 --date 2024-06-01
  grd-pricing resolve --contract FNS012 --weight 2.6 --database --source primary`,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVarP(&resolveContract, "contract", "c", "", "contract identifier (required)")
	resolveCmd.Flags().Float64VarP(&resolveWeight, "weight", "w", 0, "relative weight (required)")
	resolveCmd.Flags().StringVarP(&resolveDate, "date", "d", "", "reference date (YYYY-MM-DD, default today)")
	resolveCmd.Flags().StringVarP(&resolveSource, "source", "s", "auto", "source preference (auto, primary, attachment)")
	resolveCmd.Flags().StringVarP(&resolveAttachment, "attachment", "a", "", "tariff attachment file path")
	resolveCmd.Flags().BoolVar(&resolveUseDB, "database", false, "consult the imported pricing dataset in Postgres")
	resolveCmd.MarkFlagRequired("contract")
	resolveCmd.MarkFlagRequired("weight")
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Get()
	log := logging.Logger

	refDate, err := parseDateFlag(resolveDate)
	if err != nil {
		return err
	}

	pref, err := parseSourceFlag(resolveSource)
	if err != nil {
		return err
	}

	sources := tariff.NewSources(cfg.Attachment.CandidatePaths(), log)
	if resolveAttachment != "" {
		sources.Configure(tariff.ConfigureOptions{AttachmentPath: resolveAttachment})
	}

	if resolveUseDB {
		db, err := postgres.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		sources.Configure(tariff.ConfigureOptions{Primary: postgres.NewTariffStore(db)})
	}

	engine := tariff.NewEngine(sources, log)
	resolved, err := engine.ResolveBasePrice(ctx, tariff.ResolveRequest{
		ContractID:     resolveContract,
		RelativeWeight: resolveWeight,
		ReferenceDate:  refDate,
		Preference:     pref,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Contract:   %s\n", resolved.ContractID)
	fmt.Printf("Scheme:     %s\n", resolved.Scheme)
	if resolved.Tier != tariff.TierNone {
		fmt.Printf("Tier:       %s\n", resolved.Tier)
	}
	fmt.Printf("Base price: %s\n", resolved.Value.StringFixed(2))
	fmt.Printf("Source:     %s\n", resolved.Source)
	printValidity(resolved.Validity)
	return nil
}

func printValidity(v tariff.Validity) {
	if v.From == nil && v.To == nil {
		return
	}
	from, to := "-", "-"
	if v.From != nil {
		from = v.From.Format("2006-01-02")
	}
	if v.To != nil {
		to = v.To.Format("2006-01-02")
	}
	fmt.Printf("Validity:   %s .. %s\n", from, to)
}

func parseDateFlag(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}

func parseSourceFlag(value string) (tariff.SourcePreference, error) {
	switch value {
	case "", "auto":
		return tariff.PreferAuto, nil
	case "primary":
		return tariff.PreferPrimaryOnly, nil
	case "attachment":
		return tariff.PreferAttachmentOnly, nil
	}
	return "", fmt.Errorf("invalid source %q, expected auto, primary or attachment", value)
}
