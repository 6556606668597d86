package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"grd-pricing/core/calc"
)

const uniqueViolation = "23505"

// versionInsertRetries bounds the retry loop on concurrent version clashes.
const versionInsertRetries = 5

// CalculationStore persists calculations and audit entries.
type CalculationStore struct {
	db *DB
}

// NewCalculationStore creates a calculation store.
func NewCalculationStore(db *DB) *CalculationStore {
	return &CalculationStore{db: db}
}

// CreateCalculation inserts a new calculation version. The version is
// computed inside the insert statement from the current per-episode maximum;
// the UNIQUE (episode_id, version) constraint turns a concurrent clash into
// a retry, so versions stay distinct and contiguous.
func (s *CalculationStore) CreateCalculation(ctx context.Context, record *calc.EpisodeCalculation) (string, int, error) {
	breakdownJSON, err := json.Marshal(record.Breakdown)
	if err != nil {
		return "", 0, fmt.Errorf("marshal breakdown: %w", err)
	}

	var refDate pgtype.Date
	if record.ReferenceDate != nil {
		refDate = pgtype.Date{Time: *record.ReferenceDate, Valid: true}
	}

	for attempt := 0; attempt < versionInsertRetries; attempt++ {
		id := uuid.NewString()
		var version int
		err := s.db.Pool.QueryRow(ctx, `
			INSERT INTO episode_calculations
				(id, episode_id, version, contract_id, grd_code, base_price,
				 relative_weight, subtotal, total_final, breakdown,
				 reference_date, created_by)
			SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3, $4, $5, $6, $7, $8, $9, $10, $11
			FROM episode_calculations
			WHERE episode_id = $2
			RETURNING version`,
			id, record.EpisodeID, record.ContractID, record.GRDCode,
			record.BasePrice.String(), record.RelativeWeight,
			record.Subtotal.String(), record.TotalFinal.String(),
			breakdownJSON, refDate, nullable(record.CreatedBy)).Scan(&version)
		if err == nil {
			return id, version, nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			continue
		}
		return "", 0, fmt.Errorf("insert calculation: %w", err)
	}
	return "", 0, fmt.Errorf("insert calculation: version contention for episode %s", record.EpisodeID)
}

// FindMaxVersion returns the highest stored version for an episode, 0 when
// none exist.
func (s *CalculationStore) FindMaxVersion(ctx context.Context, episodeID string) (int, error) {
	var max int
	err := s.db.Pool.QueryRow(ctx, `
		SELECT COALESCE(MAX(version), 0)
		FROM episode_calculations
		WHERE episode_id = $1`,
		episodeID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("query max version: %w", err)
	}
	return max, nil
}

// CreateAuditEntry appends an audit event.
func (s *CalculationStore) CreateAuditEntry(ctx context.Context, entry *calc.AuditEntry) error {
	sourcesJSON, err := json.Marshal(entry.Sources)
	if err != nil {
		return fmt.Errorf("marshal audit sources: %w", err)
	}
	metadataJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}

	_, err = s.db.Pool.Exec(ctx, `
		INSERT INTO calculation_audit
			(id, event, episode_id, calculation_id, created_by, total_final, sources, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.NewString(), entry.Event, entry.EpisodeID, entry.CalculationID,
		nullable(entry.CreatedBy), entry.TotalFinal.String(), sourcesJSON, metadataJSON)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListVersions returns an episode's calculation history, newest first.
func (s *CalculationStore) ListVersions(ctx context.Context, episodeID string) ([]calc.CalculationSummary, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, version, total_final::text, contract_id, grd_code, created_at, created_by
		FROM episode_calculations
		WHERE episode_id = $1
		ORDER BY version DESC`,
		episodeID)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer rows.Close()

	var summaries []calc.CalculationSummary
	for rows.Next() {
		var (
			summary   calc.CalculationSummary
			totalText string
			contract  pgtype.Text
			grd       pgtype.Text
			createdBy pgtype.Text
		)
		if err := rows.Scan(&summary.ID, &summary.Version, &totalText,
			&contract, &grd, &summary.CreatedAt, &createdBy); err != nil {
			return nil, fmt.Errorf("scan version row: %w", err)
		}
		summary.TotalFinal, err = decimal.NewFromString(totalText)
		if err != nil {
			return nil, fmt.Errorf("parse total %q: %w", totalText, err)
		}
		summary.ContractID = contract.String
		summary.GRDCode = grd.String
		summary.CreatedBy = createdBy.String
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// GetCalculation returns one stored calculation, or (nil, nil) when the id
// is unknown.
func (s *CalculationStore) GetCalculation(ctx context.Context, id string) (*calc.EpisodeCalculation, error) {
	var (
		record        calc.EpisodeCalculation
		baseText      string
		subtotalText  string
		totalText     string
		breakdownJSON []byte
		contract      pgtype.Text
		grd           pgtype.Text
		refDate       pgtype.Date
		createdBy     pgtype.Text
		createdAt     time.Time
	)

	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, episode_id, version, contract_id, grd_code,
		       base_price::text, relative_weight, subtotal::text, total_final::text,
		       breakdown, reference_date, created_at, created_by
		FROM episode_calculations
		WHERE id = $1`,
		id).Scan(&record.ID, &record.EpisodeID, &record.Version, &contract, &grd,
		&baseText, &record.RelativeWeight, &subtotalText, &totalText,
		&breakdownJSON, &refDate, &createdAt, &createdBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query calculation: %w", err)
	}

	record.ContractID = contract.String
	record.GRDCode = grd.String
	record.CreatedAt = createdAt
	record.CreatedBy = createdBy.String
	if refDate.Valid {
		t := refDate.Time
		record.ReferenceDate = &t
	}
	if record.BasePrice, err = decimal.NewFromString(baseText); err != nil {
		return nil, fmt.Errorf("parse base price %q: %w", baseText, err)
	}
	if record.Subtotal, err = decimal.NewFromString(subtotalText); err != nil {
		return nil, fmt.Errorf("parse subtotal %q: %w", subtotalText, err)
	}
	if record.TotalFinal, err = decimal.NewFromString(totalText); err != nil {
		return nil, fmt.Errorf("parse total %q: %w", totalText, err)
	}
	if err := json.Unmarshal(breakdownJSON, &record.Breakdown); err != nil {
		return nil, fmt.Errorf("unmarshal breakdown: %w", err)
	}
	return &record, nil
}

func nullable(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}
