package ports

import (
	"context"

	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/domain"
)

type KYCRepository interface {
	Create(ctx context.Context, k *domain.KYCSubmission) error
	// Latest returns the most recent submission, or domain.ErrKYCNotFound.
	Latest(ctx context.Context, userID int64) (*domain.KYCSubmission, error)
}

type WithdrawalRepository interface {
	// Upsert inserts or replaces the user's method and marks it active.
	Upsert(ctx context.Context, m *domain.WithdrawalMethod) error
	FindActive(ctx context.Context, userID int64) (*domain.WithdrawalMethod, error)
}

type FileRepository interface {
	Insert(ctx context.Context, f *domain.FileMetadata) error
}

type CredentialRepository interface {
	FindByEscrow(ctx context.Context, escrowID int64) (*domain.Credentials, error)
}

type PaymentMethodRepository interface {
	ListActive(ctx context.Context) ([]domain.PaymentMethod, error)
}
