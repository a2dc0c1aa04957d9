package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/domain"
)

type KYCRepository struct {
	db DBTX
}

func (r *KYCRepository) Create(ctx context.Context, k *domain.KYCSubmission) error {
	query := `INSERT INTO kyc_submissions (user_id, kyc_type, status, submitted_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	if err := r.db.QueryRowContext(ctx, query, k.UserID, k.KYCType, k.Status, k.SubmittedAt).Scan(&k.ID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *KYCRepository) Latest(ctx context.Context, userID int64) (*domain.KYCSubmission, error) {
	query := `SELECT id, user_id, kyc_type, status, admin_note, submitted_at, reviewed_at
		FROM kyc_submissions
		WHERE user_id = $1
		ORDER BY submitted_at DESC, id DESC
		LIMIT 1`

	var (
		k        domain.KYCSubmission
		note     sql.NullString
		reviewed sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&k.ID, &k.UserID, &k.KYCType, &k.Status, &note, &k.SubmittedAt, &reviewed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrKYCNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if note.Valid {
		k.AdminNote = &note.String
	}
	k.ReviewedAt = nullTime(reviewed)
	return &k, nil
}

type WithdrawalRepository struct {
	db DBTX
}

// Upsert keeps one method per seller; a new submission replaces the old one.
func (r *WithdrawalRepository) Upsert(ctx context.Context, m *domain.WithdrawalMethod) error {
	query := `INSERT INTO seller_withdrawal_methods (user_id, method_code, details, active, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, $4, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET method_code = EXCLUDED.method_code,
			details = EXCLUDED.details,
			active = TRUE,
			updated_at = EXCLUDED.updated_at`

	if _, err := r.db.ExecContext(ctx, query, m.UserID, m.MethodCode, []byte(m.Details), m.UpdatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	m.Active = true
	return nil
}

func (r *WithdrawalRepository) FindActive(ctx context.Context, userID int64) (*domain.WithdrawalMethod, error) {
	query := `SELECT user_id, method_code, details, active, updated_at
		FROM seller_withdrawal_methods
		WHERE user_id = $1 AND active`

	var (
		m       domain.WithdrawalMethod
		details []byte
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&m.UserID, &m.MethodCode, &details, &m.Active, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrWithdrawalMethodNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	m.Details = details
	return &m, nil
}

type FileRepository struct {
	db DBTX
}

func (r *FileRepository) Insert(ctx context.Context, f *domain.FileMetadata) error {
	query := `INSERT INTO escrow_files (escrow_id, user_id, file_name, purpose, storage_key, content_type, size_bytes, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	var escrowID any
	if f.EscrowID != nil {
		escrowID = *f.EscrowID
	}
	err := r.db.QueryRowContext(ctx, query,
		escrowID, f.UserID, f.FileName, string(f.Purpose), f.StorageKey, f.ContentType, f.SizeBytes, f.UploadedAt).
		Scan(&f.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

type CredentialRepository struct {
	db DBTX
}

func (r *CredentialRepository) FindByEscrow(ctx context.Context, escrowID int64) (*domain.Credentials, error) {
	query := `SELECT escrow_id, credentials, provided_by, provided_at
		FROM escrow_credentials
		WHERE escrow_id = $1`

	var (
		c  domain.Credentials
		at sql.NullTime
	)
	if err := r.db.QueryRowContext(ctx, query, escrowID).Scan(&c.EscrowID, &c.Credentials, &c.ProvidedBy, &at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	c.ProvidedAt = nullTime(at)
	return &c, nil
}

type PaymentMethodRepository struct {
	db DBTX
}

func (r *PaymentMethodRepository) ListActive(ctx context.Context) ([]domain.PaymentMethod, error) {
	query := `SELECT method_name, description, is_active
		FROM payment_methods
		WHERE is_active
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []domain.PaymentMethod
	for rows.Next() {
		var m domain.PaymentMethod
		if err := rows.Scan(&m.Method, &m.Description, &m.IsActive); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
