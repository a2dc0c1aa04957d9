package ports

import (
	"context"

	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/domain"
)

// CreateEscrowInput is the DTO passed from the transport layer to EscrowService.
type CreateEscrowInput struct {
	BuyerID        int64
	BuyerEmail     string
	SellerEmail    string
	Amount         domain.Money
	PaymentMethod  string
	IdempotencyKey string
}

// CreateEscrowResult is returned after creating an escrow.
type CreateEscrowResult struct {
	Escrow      domain.Escrow
	BuyerEmail  string
	SellerEmail string
	// Replayed is true when the Idempotency-Key matched an earlier request.
	Replayed bool
}

// TransitionResult describes a successful status change.
type TransitionResult struct {
	EscrowID       int64
	PreviousStatus domain.Status
	NewStatus      domain.Status
}

// ReleaseResult is returned by ReleaseFunds.
type ReleaseResult struct {
	TransitionResult
	AmountReleased   domain.Money
	SellerID         int64
	NewSellerBalance domain.Money
}

// DeliveryInput carries a seller's delivery submission.
type DeliveryInput struct {
	SellerID     int64
	EscrowID     int64
	Terms        string
	Deliverables string
	Attachments  []domain.Attachment
}

// EscrowService is the escrow state machine plus its read models.
type EscrowService interface {
	Create(ctx context.Context, in CreateEscrowInput) (*CreateEscrowResult, error)
	DepositAddress(ctx context.Context, buyerID, escrowID int64) (*domain.DepositInstructions, error)
	ConfirmDeposit(ctx context.Context, buyerID, escrowID int64) (*TransitionResult, error)
	MarkPaid(ctx context.Context, buyerID, escrowID int64) (*TransitionResult, error)
	ReleaseFunds(ctx context.Context, buyerID, escrowID int64) (*ReleaseResult, error)
	Get(ctx context.Context, userID, escrowID int64) (*domain.EscrowView, error)
	Transactions(ctx context.Context, userID, escrowID int64) ([]domain.LedgerEntry, error)
	Credentials(ctx context.Context, buyerID, escrowID int64) (*domain.Credentials, error)

	SellerConfirm(ctx context.Context, sellerID, escrowID int64) (*TransitionResult, error)
	SellerReject(ctx context.Context, sellerID, escrowID int64, reason string) (*TransitionResult, error)
	SubmitDelivery(ctx context.Context, in DeliveryInput) (*TransitionResult, error)
	RequestRelease(ctx context.Context, sellerID, escrowID int64, note string) (*TransitionResult, error)
	ListForSeller(ctx context.Context, sellerID int64) ([]domain.EscrowView, error)
}
