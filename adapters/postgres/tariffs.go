package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"grd-pricing/core/tariff"
)

// TariffStore is the primary (persisted) tariff source: rows imported into
// Postgres by the tariff import pipeline, scoped to the active pricing
// dataset.
type TariffStore struct {
	db *DB
}

// NewTariffStore creates the primary tariff repository.
func NewTariffStore(db *DB) *TariffStore {
	return &TariffStore{db: db}
}

// FindByContractID groups the active dataset's rows for one contract into a
// ContractTariff. Returns (nil, nil) when the contract has no rows.
func (s *TariffStore) FindByContractID(ctx context.Context, contractID string) (*tariff.ContractTariff, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT t.tier, t.value::text, t.valid_from, t.valid_to, t.description
		FROM tariff_rows t
		JOIN datasets d ON d.id = t.dataset_id
		WHERE d.kind = 'pricing' AND d.is_active AND d.status = 'COMPLETED'
		  AND t.contract_id = $1
		ORDER BY t.id`,
		contractID)
	if err != nil {
		return nil, fmt.Errorf("query tariff rows: %w", err)
	}
	defer rows.Close()

	ct := &tariff.ContractTariff{ContractID: contractID, Scheme: tariff.FlatPrice}
	for rows.Next() {
		var (
			tierText  pgtype.Text
			valueText string
			validFrom pgtype.Date
			validTo   pgtype.Date
			descr     pgtype.Text
		)
		if err := rows.Scan(&tierText, &valueText, &validFrom, &validTo, &descr); err != nil {
			return nil, fmt.Errorf("scan tariff row: %w", err)
		}

		value, err := decimal.NewFromString(valueText)
		if err != nil {
			return nil, fmt.Errorf("parse tariff value %q: %w", valueText, err)
		}

		entry := tariff.PriceEntry{Value: value}
		if tierText.Valid && tierText.String != "" {
			entry.Tier = tariff.TierLabel(tierText.String)
			ct.Scheme = tariff.TieredByWeight
		}
		entry.Validity = tariff.Validity{
			From: dateOrNil(validFrom),
			To:   dateOrNil(validTo),
		}
		if descr.Valid && descr.String != "" {
			ct.Description = descr.String
		}
		ct.Entries = append(ct.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tariff rows: %w", err)
	}

	if len(ct.Entries) == 0 {
		return nil, nil
	}
	return ct, nil
}

func dateOrNil(d pgtype.Date) *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}
