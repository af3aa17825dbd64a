package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/brpay/charge-service/internal/domain"
	"github.com/brpay/charge-service/internal/domain/ports"
)

// ChargeRepository implements ports.ChargeRepository on PostgreSQL.
//
// The charges table carries a unique index on (merchant_id, idempotency_key);
// Create translates a violation of it into domain.ErrIdempotencyConflict.
type ChargeRepository struct {
	db ports.DBPort
}

// NewChargeRepository creates a new charge repository
func NewChargeRepository(db ports.DBPort) *ChargeRepository {
	return &ChargeRepository{db: db}
}

const chargeIdempotencyConstraint = "charges_merchant_idempotency_key"

const chargeColumns = `id, merchant_id, amount_cents, currency, status, method,
	description, external_ref, idempotency_key, expires_at,
	pix_qr_code, pix_copy_paste, boleto_url, metadata, created_at, updated_at`

func (r *ChargeRepository) exec(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return r.db.GetDB()
}

// Create persists a new charge
func (r *ChargeRepository) Create(ctx context.Context, tx ports.DBTX, c domain.Charge) error {
	metadata, err := marshalJSON(c.Metadata)
	if err != nil {
		return err
	}

	var pixQR, pixCopyPaste, boletoURL *string
	if c.Pix != nil {
		pixQR = nullText(c.Pix.QRCode)
		pixCopyPaste = nullText(c.Pix.CopyPaste)
	}
	if c.Boleto != nil {
		boletoURL = nullText(c.Boleto.BoletoURL)
	}

	_, err = r.exec(tx).Exec(ctx, `
		INSERT INTO charges (`+chargeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		c.ID, c.MerchantID, c.AmountCents, c.Currency, string(c.Status), string(c.Method),
		nullText(c.Description), nullText(c.ExternalRef), c.IdempotencyKey, c.ExpiresAt,
		pixQR, pixCopyPaste, boletoURL, metadata, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, chargeIdempotencyConstraint) {
			return domain.WrapError(domain.ErrorCodeIdempotencyConflict, "charge already exists for idempotency key", err).
				WithDetail("idempotency_key", c.IdempotencyKey)
		}
		return fmt.Errorf("create charge: %w", err)
	}
	return nil
}

// FindByID retrieves a charge by its ID
func (r *ChargeRepository) FindByID(ctx context.Context, db ports.DBTX, id string) (domain.Charge, error) {
	row := r.exec(db).QueryRow(ctx, `
		SELECT `+chargeColumns+`
		FROM charges
		WHERE id = $1`, id)
	return r.scan(row, id)
}

// FindByIdempotencyKey retrieves the canonical charge for a (merchant, key) pair
func (r *ChargeRepository) FindByIdempotencyKey(ctx context.Context, db ports.DBTX, merchantID, key string) (domain.Charge, error) {
	row := r.exec(db).QueryRow(ctx, `
		SELECT `+chargeColumns+`
		FROM charges
		WHERE merchant_id = $1 AND idempotency_key = $2`, merchantID, key)
	return r.scan(row, key)
}

// Update persists a new charge snapshot
func (r *ChargeRepository) Update(ctx context.Context, tx ports.DBTX, c domain.Charge) error {
	metadata, err := marshalJSON(c.Metadata)
	if err != nil {
		return err
	}

	var pixQR, pixCopyPaste, boletoURL *string
	if c.Pix != nil {
		pixQR = nullText(c.Pix.QRCode)
		pixCopyPaste = nullText(c.Pix.CopyPaste)
	}
	if c.Boleto != nil {
		boletoURL = nullText(c.Boleto.BoletoURL)
	}

	tag, err := r.exec(tx).Exec(ctx, `
		UPDATE charges
		SET status = $2, method = $3, description = $4, external_ref = $5,
		    expires_at = $6, pix_qr_code = $7, pix_copy_paste = $8,
		    boleto_url = $9, metadata = $10, updated_at = $11
		WHERE id = $1`,
		c.ID, string(c.Status), string(c.Method), nullText(c.Description), nullText(c.ExternalRef),
		c.ExpiresAt, pixQR, pixCopyPaste, boletoURL, metadata, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update charge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewDomainError(domain.ErrorCodeChargeNotFound, "charge not found").WithDetail("charge_id", c.ID)
	}
	return nil
}

// ListByMerchantAndDateRange lists a merchant's charges created inside [start, end]
func (r *ChargeRepository) ListByMerchantAndDateRange(ctx context.Context, db ports.DBTX, merchantID string, start, end time.Time) ([]domain.Charge, error) {
	rows, err := r.exec(db).Query(ctx, `
		SELECT `+chargeColumns+`
		FROM charges
		WHERE merchant_id = $1 AND created_at >= $2 AND created_at <= $3
		ORDER BY created_at`, merchantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list charges: %w", err)
	}
	defer rows.Close()

	var charges []domain.Charge
	for rows.Next() {
		c, err := r.scan(rows, merchantID)
		if err != nil {
			return nil, err
		}
		charges = append(charges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list charges: %w", err)
	}
	return charges, nil
}

func (r *ChargeRepository) scan(row pgx.Row, ref string) (domain.Charge, error) {
	var (
		c                           domain.Charge
		status, method              string
		description, externalRef    *string
		pixQR, pixCopyPaste, boleto *string
		metadata                    []byte
	)

	err := row.Scan(
		&c.ID, &c.MerchantID, &c.AmountCents, &c.Currency, &status, &method,
		&description, &externalRef, &c.IdempotencyKey, &c.ExpiresAt,
		&pixQR, &pixCopyPaste, &boleto, &metadata, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Charge{}, domain.NewDomainError(domain.ErrorCodeChargeNotFound, "charge not found").WithDetail("ref", ref)
		}
		return domain.Charge{}, fmt.Errorf("scan charge: %w", err)
	}

	c.Status = domain.ChargeStatus(status)
	c.Method = domain.ChargeMethod(method)
	c.Description = textOrEmpty(description)
	c.ExternalRef = textOrEmpty(externalRef)
	if pixQR != nil || pixCopyPaste != nil {
		c.Pix = &domain.PixData{QRCode: textOrEmpty(pixQR), CopyPaste: textOrEmpty(pixCopyPaste)}
	}
	if boleto != nil {
		c.Boleto = &domain.BoletoData{BoletoURL: *boleto}
	}
	if c.Metadata, err = unmarshalJSON(metadata); err != nil {
		return domain.Charge{}, err
	}
	return c, nil
}

var _ ports.ChargeRepository = (*ChargeRepository)(nil)
