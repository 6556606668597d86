package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"grd-pricing/core/calc"
)

// Catalog looks up active, completed imported datasets.
type Catalog struct {
	db *DB
}

// NewCatalog creates a dataset catalog.
func NewCatalog(db *DB) *Catalog {
	return &Catalog{db: db}
}

// FindActiveCompleted returns the newest active completed dataset of a kind,
// or (nil, nil) when none is active.
func (c *Catalog) FindActiveCompleted(ctx context.Context, kind calc.DatasetKind) (*calc.DatasetRef, error) {
	var ref calc.DatasetRef
	err := c.db.Pool.QueryRow(ctx, `
		SELECT id, filename
		FROM datasets
		WHERE kind = $1 AND is_active AND status = 'COMPLETED'
		ORDER BY created_at DESC
		LIMIT 1`,
		string(kind)).Scan(&ref.ID, &ref.Filename)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query active dataset: %w", err)
	}
	return &ref, nil
}
