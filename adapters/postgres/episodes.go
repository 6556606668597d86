package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"grd-pricing/core/calc"
)

// EpisodeStore reads normalized episodes.
type EpisodeStore struct {
	db *DB
}

// NewEpisodeStore creates an episode reader.
func NewEpisodeStore(db *DB) *EpisodeStore {
	return &EpisodeStore{db: db}
}

// FindEpisodeByID returns the episode's normalized attributes, or (nil, nil)
// when it does not exist.
func (s *EpisodeStore) FindEpisodeByID(ctx context.Context, id string) (*calc.Episode, error) {
	var (
		contractID     pgtype.Text
		grdCode        pgtype.Text
		weight         pgtype.Float8
		hasNorm        bool
		upperCutoff    pgtype.Float8
		waitingDays    pgtype.Int4
		primaryCode    pgtype.Text
		secondaryCodes pgtype.Text
		admissionDate  pgtype.Date
	)

	err := s.db.Pool.QueryRow(ctx, `
		SELECT contract_id, grd_code, relative_weight, has_norm,
		       norm_upper_cutoff, waiting_days,
		       primary_procedure_code, secondary_procedure_codes, admission_date
		FROM episodes
		WHERE id = $1`,
		id).Scan(&contractID, &grdCode, &weight, &hasNorm,
		&upperCutoff, &waitingDays, &primaryCode, &secondaryCodes, &admissionDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query episode: %w", err)
	}

	episode := &calc.Episode{
		ID:                      id,
		ContractID:              contractID.String,
		GRDCode:                 grdCode.String,
		RelativeWeight:          weight.Float64,
		HasNorm:                 hasNorm,
		NormUpperCutoff:         upperCutoff.Float64,
		WaitingDays:             int(waitingDays.Int32),
		PrimaryProcedureCode:    primaryCode.String,
		SecondaryProcedureCodes: secondaryCodes.String,
	}
	if admissionDate.Valid {
		episode.AdmissionDate = admissionDate.Time
	}
	return episode, nil
}
