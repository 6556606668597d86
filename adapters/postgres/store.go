// Package postgres provides the persistent backing stores: the primary
// tariff source, episode reads, calculation/audit persistence and the
// technology-adjustment reference reader.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps the shared connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// Connect opens a pool against the given Postgres URL.
func Connect(ctx context.Context, url string, maxConns int) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse connection: %w", err)
	}
	if maxConns > 0 {
		poolConfig.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &DB{Pool: pool}, nil
}

// Close releases the pool.
func (d *DB) Close() {
	d.Pool.Close()
}

// InitSchema creates all tables if they do not exist.
func (d *DB) InitSchema(ctx context.Context) error {
	_, err := d.Pool.Exec(ctx, schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS datasets (
	id         text PRIMARY KEY,
	kind       text NOT NULL,
	filename   text NOT NULL,
	status     text NOT NULL,
	is_active  boolean NOT NULL DEFAULT false,
	created_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tariff_rows (
	id          bigserial PRIMARY KEY,
	dataset_id  text NOT NULL REFERENCES datasets(id),
	contract_id text NOT NULL,
	description text,
	tier        text,
	value       numeric NOT NULL,
	valid_from  date,
	valid_to    date
);
CREATE INDEX IF NOT EXISTS tariff_rows_contract_idx ON tariff_rows (dataset_id, contract_id);

CREATE TABLE IF NOT EXISTS episodes (
	id                        text PRIMARY KEY,
	contract_id               text,
	grd_code                  text,
	relative_weight           double precision,
	has_norm                  boolean NOT NULL DEFAULT false,
	norm_upper_cutoff         double precision,
	waiting_days              integer,
	primary_procedure_code    text,
	secondary_procedure_codes text,
	admission_date            date
);

CREATE TABLE IF NOT EXISTS episode_calculations (
	id              text PRIMARY KEY,
	episode_id      text NOT NULL,
	version         integer NOT NULL,
	contract_id     text,
	grd_code        text,
	base_price      numeric,
	relative_weight double precision,
	subtotal        numeric,
	total_final     numeric,
	breakdown       jsonb,
	reference_date  date,
	created_at      timestamptz NOT NULL DEFAULT now(),
	created_by      text,
	UNIQUE (episode_id, version)
);

CREATE TABLE IF NOT EXISTS calculation_audit (
	id             text PRIMARY KEY,
	event          text NOT NULL,
	episode_id     text,
	calculation_id text,
	created_by     text,
	total_final    numeric,
	sources        jsonb,
	metadata       jsonb,
	created_at     timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS technology_adjustments (
	id         bigserial PRIMARY KEY,
	dataset_id text NOT NULL,
	code       text NOT NULL,
	amount     numeric NOT NULL
);
CREATE INDEX IF NOT EXISTS technology_adjustments_dataset_idx ON technology_adjustments (dataset_id);
`
