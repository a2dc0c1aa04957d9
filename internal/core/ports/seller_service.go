package ports

import (
	"context"
	"encoding/json"

	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/domain"
)

// UploadKYCInput carries a KYC submission and its documents.
type UploadKYCInput struct {
	UserID      int64
	KYCType     string
	Attachments []domain.Attachment
}

// SellerService covers seller account operations outside the escrow lifecycle.
type SellerService interface {
	UploadKYC(ctx context.Context, in UploadKYCInput) (*domain.KYCSubmission, error)
	KYCStatus(ctx context.Context, userID int64) (*domain.KYCSubmission, error)
	SetWithdrawalMethod(ctx context.Context, userID int64, methodCode string, details json.RawMessage) (*domain.WithdrawalMethod, error)
	WithdrawalMethod(ctx context.Context, userID int64) (*domain.WithdrawalMethod, error)
}

// PaymentMethodService lists the payment methods buyers may choose from.
type PaymentMethodService interface {
	List(ctx context.Context) []domain.PaymentMethod
}
