package ports

import (
	"context"
	"time"

	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/domain"
)

// EscrowUpdate is a status-guarded write. It applies only when the row
// matches ID, the Owner predicate and one of the From statuses.
type EscrowUpdate struct {
	ID    int64
	Owner domain.Owner
	From  []domain.Status
	To    domain.Status
	At    time.Time

	// Optional columns written together with the status.
	SellerTerms        *string
	SellerDeliverables *string
	SellerRejectReason *string
	SellerConfirmedAt  *time.Time
	DeliveredAt        *time.Time
	SellerRequestTime  *time.Time
}

// EscrowRepository defines persistence operations for escrows.
type EscrowRepository interface {
	// Create inserts a new escrow and sets ID, CreatedAt and UpdatedAt.
	Create(ctx context.Context, e *domain.Escrow) error
	// FindOwned returns the escrow only when it belongs to owner; otherwise
	// domain.ErrEscrowNotFound.
	FindOwned(ctx context.Context, id int64, owner domain.Owner) (*domain.Escrow, error)
	// FindView is FindOwned joined with both parties' emails.
	FindView(ctx context.Context, id int64, owner domain.Owner) (*domain.EscrowView, error)
	// UpdateStatus returns domain.ErrTransitionConflict when no row matched.
	UpdateStatus(ctx context.Context, u EscrowUpdate) error
	// ListBySeller returns the seller's escrows, newest first, with buyer emails.
	ListBySeller(ctx context.Context, sellerID int64) ([]domain.EscrowView, error)
}

// LedgerRepository is the append-only transaction log.
type LedgerRepository interface {
	Append(ctx context.Context, entry *domain.LedgerEntry) error
	ListByEscrow(ctx context.Context, escrowID int64) ([]domain.LedgerEntry, error)
}
