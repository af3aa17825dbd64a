package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/brpay/charge-service/internal/domain"
	"github.com/brpay/charge-service/internal/domain/ports"
)

// SettlementRepository implements ports.SettlementRepository on PostgreSQL
type SettlementRepository struct {
	db ports.DBPort
}

// NewSettlementRepository creates a new settlement repository
func NewSettlementRepository(db ports.DBPort) *SettlementRepository {
	return &SettlementRepository{db: db}
}

const settlementColumns = `id, merchant_id, amount_cents, currency, status,
	scheduled_for, processed_at, bank_account_id, transaction_id,
	failure_reason, metadata, created_at, updated_at`

func (r *SettlementRepository) exec(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return r.db.GetDB()
}

// Create persists a new settlement
func (r *SettlementRepository) Create(ctx context.Context, tx ports.DBTX, s *domain.Settlement) error {
	metadata, err := marshalJSON(s.Metadata)
	if err != nil {
		return err
	}

	_, err = r.exec(tx).Exec(ctx, `
		INSERT INTO settlements (`+settlementColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		s.ID, s.MerchantID, s.AmountCents, s.Currency, string(s.Status),
		s.ScheduledFor, s.ProcessedAt, nullText(s.BankAccountID), nullText(s.TransactionID),
		nullText(s.FailureReason), metadata, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create settlement: %w", err)
	}
	return nil
}

// FindByID retrieves a settlement by its ID
func (r *SettlementRepository) FindByID(ctx context.Context, db ports.DBTX, id string) (*domain.Settlement, error) {
	row := r.exec(db).QueryRow(ctx, `
		SELECT `+settlementColumns+`
		FROM settlements
		WHERE id = $1`, id)
	return r.scan(row, id)
}

// FindByMerchantID lists a merchant's settlements, optionally filtered by status
func (r *SettlementRepository) FindByMerchantID(ctx context.Context, db ports.DBTX, merchantID string, status *domain.SettlementStatus) ([]*domain.Settlement, error) {
	query := `
		SELECT ` + settlementColumns + `
		FROM settlements
		WHERE merchant_id = $1`
	args := []interface{}{merchantID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.exec(db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list settlements: %w", err)
	}
	defer rows.Close()
	return r.collect(rows)
}

// FindDue returns settlements the payout poller should pick up. The row-level
// predicate mirrors Settlement.IsDue.
func (r *SettlementRepository) FindDue(ctx context.Context, db ports.DBTX) ([]*domain.Settlement, error) {
	rows, err := r.exec(db).Query(ctx, `
		SELECT `+settlementColumns+`
		FROM settlements
		WHERE (status = 'PENDING' AND scheduled_for IS NULL)
		   OR (status IN ('PENDING', 'SCHEDULED') AND scheduled_for <= now())
		ORDER BY scheduled_for NULLS FIRST`)
	if err != nil {
		return nil, fmt.Errorf("list due settlements: %w", err)
	}
	defer rows.Close()
	return r.collect(rows)
}

// Update persists a settlement snapshot
func (r *SettlementRepository) Update(ctx context.Context, tx ports.DBTX, s *domain.Settlement) error {
	metadata, err := marshalJSON(s.Metadata)
	if err != nil {
		return err
	}

	tag, err := r.exec(tx).Exec(ctx, `
		UPDATE settlements
		SET status = $2, scheduled_for = $3, processed_at = $4, bank_account_id = $5,
		    transaction_id = $6, failure_reason = $7, metadata = $8, updated_at = $9
		WHERE id = $1`,
		s.ID, string(s.Status), s.ScheduledFor, s.ProcessedAt, nullText(s.BankAccountID),
		nullText(s.TransactionID), nullText(s.FailureReason), metadata, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update settlement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewDomainError(domain.ErrorCodeSettlementNotFound, "settlement not found").
			WithDetail("settlement_id", s.ID)
	}
	return nil
}

func (r *SettlementRepository) collect(rows pgx.Rows) ([]*domain.Settlement, error) {
	var settlements []*domain.Settlement
	for rows.Next() {
		s, err := r.scan(rows, "")
		if err != nil {
			return nil, err
		}
		settlements = append(settlements, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settlements: %w", err)
	}
	return settlements, nil
}

func (r *SettlementRepository) scan(row pgx.Row, ref string) (*domain.Settlement, error) {
	var (
		s                          domain.Settlement
		status                     string
		bankAccountID, txnID, why  *string
		metadata                   []byte
	)

	err := row.Scan(
		&s.ID, &s.MerchantID, &s.AmountCents, &s.Currency, &status,
		&s.ScheduledFor, &s.ProcessedAt, &bankAccountID, &txnID,
		&why, &metadata, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewDomainError(domain.ErrorCodeSettlementNotFound, "settlement not found").
				WithDetail("ref", ref)
		}
		return nil, fmt.Errorf("scan settlement: %w", err)
	}

	s.Status = domain.SettlementStatus(status)
	s.BankAccountID = textOrEmpty(bankAccountID)
	s.TransactionID = textOrEmpty(txnID)
	s.FailureReason = textOrEmpty(why)
	if s.Metadata, err = unmarshalJSON(metadata); err != nil {
		return nil, err
	}
	return &s, nil
}

var _ ports.SettlementRepository = (*SettlementRepository)(nil)
