package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AdjustmentStore reads technology-adjustment amounts from the imported
// reference dataset.
type AdjustmentStore struct {
	db *DB
}

// NewAdjustmentStore creates a technology-adjustment reader.
func NewAdjustmentStore(db *DB) *AdjustmentStore {
	return &AdjustmentStore{db: db}
}

// FindMatching returns the amounts of all rows whose code field matches any
// of the given procedure codes. A row's code field may hold a single code or
// a semicolon-separated list, so each code matches exact, leading, embedded
// and trailing list positions.
func (s *AdjustmentStore) FindMatching(ctx context.Context, datasetID string, codes []string) ([]decimal.Decimal, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	conditions := make([]string, 0, len(codes))
	args := []any{datasetID}
	for _, code := range codes {
		args = append(args, code)
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(code = $%d OR code LIKE $%d || ';%%' OR code LIKE '%%;' || $%d || ';%%' OR code LIKE '%%;' || $%d)",
			n, n, n, n))
	}

	query := fmt.Sprintf(`
		SELECT amount::text
		FROM technology_adjustments
		WHERE dataset_id = $1 AND (%s)`,
		strings.Join(conditions, " OR "))

	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query adjustments: %w", err)
	}
	defer rows.Close()

	var amounts []decimal.Decimal
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scan adjustment row: %w", err)
		}
		amount, err := decimal.NewFromString(text)
		if err != nil {
			return nil, fmt.Errorf("parse adjustment amount %q: %w", text, err)
		}
		amounts = append(amounts, amount)
	}
	return amounts, rows.Err()
}
