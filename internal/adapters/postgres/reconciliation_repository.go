package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/brpay/charge-service/internal/domain"
	"github.com/brpay/charge-service/internal/domain/ports"
)

// ReconciliationRepository implements ports.ReconciliationRepository on
// PostgreSQL. Matches and the unmatched sets are stored as jsonb; the running
// totals live in their own columns.
type ReconciliationRepository struct {
	db ports.DBPort
}

// NewReconciliationRepository creates a new reconciliation repository
func NewReconciliationRepository(db ports.DBPort) *ReconciliationRepository {
	return &ReconciliationRepository{db: db}
}

const reconciliationColumns = `id, merchant_id, type, status, start_date, end_date,
	matches, unmatched_charges, unmatched_transactions,
	total_amount_cents, matched_amount_cents, failure_reason,
	processed_at, metadata, created_at, updated_at`

func (r *ReconciliationRepository) exec(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return r.db.GetDB()
}

// Create persists a new reconciliation
func (r *ReconciliationRepository) Create(ctx context.Context, tx ports.DBTX, rec *domain.Reconciliation) error {
	matches, unmatchedCharges, unmatchedTxns, metadata, err := r.encode(rec)
	if err != nil {
		return err
	}

	_, err = r.exec(tx).Exec(ctx, `
		INSERT INTO reconciliations (`+reconciliationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		rec.ID, rec.MerchantID, string(rec.Type), string(rec.Status), rec.StartDate, rec.EndDate,
		matches, unmatchedCharges, unmatchedTxns,
		rec.TotalAmountCents, rec.MatchedAmountCents, nullText(rec.FailureReason),
		rec.ProcessedAt, metadata, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create reconciliation: %w", err)
	}
	return nil
}

// FindByID retrieves a reconciliation by its ID
func (r *ReconciliationRepository) FindByID(ctx context.Context, db ports.DBTX, id string) (*domain.Reconciliation, error) {
	row := r.exec(db).QueryRow(ctx, `
		SELECT `+reconciliationColumns+`
		FROM reconciliations
		WHERE id = $1`, id)
	return r.scan(row, id)
}

// FindByMerchantID lists a merchant's reconciliations, optionally filtered by status
func (r *ReconciliationRepository) FindByMerchantID(ctx context.Context, db ports.DBTX, merchantID string, status *domain.ReconciliationStatus) ([]*domain.Reconciliation, error) {
	query := `
		SELECT ` + reconciliationColumns + `
		FROM reconciliations
		WHERE merchant_id = $1`
	args := []interface{}{merchantID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.exec(db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reconciliations: %w", err)
	}
	defer rows.Close()
	return r.collect(rows)
}

// FindByDateRange lists a merchant's reconciliations whose window overlaps [start, end]
func (r *ReconciliationRepository) FindByDateRange(ctx context.Context, db ports.DBTX, merchantID string, start, end time.Time) ([]*domain.Reconciliation, error) {
	rows, err := r.exec(db).Query(ctx, `
		SELECT `+reconciliationColumns+`
		FROM reconciliations
		WHERE merchant_id = $1 AND start_date <= $3 AND end_date >= $2
		ORDER BY start_date`, merchantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list reconciliations by date range: %w", err)
	}
	defer rows.Close()
	return r.collect(rows)
}

// Update persists a reconciliation snapshot
func (r *ReconciliationRepository) Update(ctx context.Context, tx ports.DBTX, rec *domain.Reconciliation) error {
	matches, unmatchedCharges, unmatchedTxns, metadata, err := r.encode(rec)
	if err != nil {
		return err
	}

	tag, err := r.exec(tx).Exec(ctx, `
		UPDATE reconciliations
		SET status = $2, matches = $3, unmatched_charges = $4, unmatched_transactions = $5,
		    total_amount_cents = $6, matched_amount_cents = $7, failure_reason = $8,
		    processed_at = $9, metadata = $10, updated_at = $11
		WHERE id = $1`,
		rec.ID, string(rec.Status), matches, unmatchedCharges, unmatchedTxns,
		rec.TotalAmountCents, rec.MatchedAmountCents, nullText(rec.FailureReason),
		rec.ProcessedAt, metadata, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update reconciliation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewDomainError(domain.ErrorCodeReconciliationNotFound, "reconciliation not found").
			WithDetail("reconciliation_id", rec.ID)
	}
	return nil
}

func (r *ReconciliationRepository) encode(rec *domain.Reconciliation) (matches, unmatchedCharges, unmatchedTxns, metadata []byte, err error) {
	if matches, err = json.Marshal(orEmptyMatches(rec.Matches)); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal matches: %w", err)
	}
	if unmatchedCharges, err = json.Marshal(orEmptyStrings(rec.UnmatchedCharges)); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal unmatched charges: %w", err)
	}
	if unmatchedTxns, err = json.Marshal(orEmptyStrings(rec.UnmatchedTransactions)); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal unmatched transactions: %w", err)
	}
	if metadata, err = marshalJSON(rec.Metadata); err != nil {
		return nil, nil, nil, nil, err
	}
	return matches, unmatchedCharges, unmatchedTxns, metadata, nil
}

func orEmptyMatches(m []domain.ReconciliationMatch) []domain.ReconciliationMatch {
	if m == nil {
		return []domain.ReconciliationMatch{}
	}
	return m
}

func orEmptyStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (r *ReconciliationRepository) collect(rows pgx.Rows) ([]*domain.Reconciliation, error) {
	var recs []*domain.Reconciliation
	for rows.Next() {
		rec, err := r.scan(rows, "")
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reconciliations: %w", err)
	}
	return recs, nil
}

func (r *ReconciliationRepository) scan(row pgx.Row, ref string) (*domain.Reconciliation, error) {
	var (
		rec                              domain.Reconciliation
		recType, status                  string
		matches, unmatchedC, unmatchedT  []byte
		failureReason                    *string
		metadata                         []byte
	)

	err := row.Scan(
		&rec.ID, &rec.MerchantID, &recType, &status, &rec.StartDate, &rec.EndDate,
		&matches, &unmatchedC, &unmatchedT,
		&rec.TotalAmountCents, &rec.MatchedAmountCents, &failureReason,
		&rec.ProcessedAt, &metadata, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewDomainError(domain.ErrorCodeReconciliationNotFound, "reconciliation not found").
				WithDetail("ref", ref)
		}
		return nil, fmt.Errorf("scan reconciliation: %w", err)
	}

	rec.Type = domain.ReconciliationType(recType)
	rec.Status = domain.ReconciliationStatus(status)
	rec.FailureReason = textOrEmpty(failureReason)
	if err := json.Unmarshal(matches, &rec.Matches); err != nil {
		return nil, fmt.Errorf("unmarshal matches: %w", err)
	}
	if err := json.Unmarshal(unmatchedC, &rec.UnmatchedCharges); err != nil {
		return nil, fmt.Errorf("unmarshal unmatched charges: %w", err)
	}
	if err := json.Unmarshal(unmatchedT, &rec.UnmatchedTransactions); err != nil {
		return nil, fmt.Errorf("unmarshal unmatched transactions: %w", err)
	}
	if rec.Metadata, err = unmarshalJSON(metadata); err != nil {
		return nil, err
	}
	return &rec, nil
}

var _ ports.ReconciliationRepository = (*ReconciliationRepository)(nil)
