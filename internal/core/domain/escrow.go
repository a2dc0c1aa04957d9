package domain

import (
	"fmt"
	"time"
)

// Status represents the lifecycle state of an escrow.
type Status string

const (
	StatusPending              Status = "pending"
	StatusPendingDeposit       Status = "pending_deposit"
	StatusFundsInEscrow        Status = "funds_in_escrow"
	StatusPaid                 Status = "paid"
	StatusAwaitingConfirmation Status = "awaiting_confirmation"
	StatusConfirmed            Status = "confirmed"
	StatusAwaitingDelivery     Status = "awaiting_delivery"
	StatusDelivered            Status = "delivered"
	StatusReleaseRequested     Status = "release_requested"
	StatusReleased             Status = "released"
	StatusRejected             Status = "rejected"
	StatusCancelled            Status = "cancelled"
	StatusCompleted            Status = "completed"
)

// AllStatuses lists every value the status column may hold.
var AllStatuses = []Status{
	StatusPending,
	StatusPendingDeposit,
	StatusFundsInEscrow,
	StatusPaid,
	StatusAwaitingConfirmation,
	StatusConfirmed,
	StatusAwaitingDelivery,
	StatusDelivered,
	StatusReleaseRequested,
	StatusReleased,
	StatusRejected,
	StatusCancelled,
	StatusCompleted,
}

// ParseStatus converts a stored value into a Status, rejecting anything
// outside the enum.
func ParseStatus(s string) (Status, error) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// Party identifies which ownership column of an escrow a caller must match.
type Party string

const (
	PartyBuyer  Party = "buyer"
	PartySeller Party = "seller"
	// PartyEither matches the caller against buyer_id or seller_id.
	PartyEither Party = "either"
)

// Owner is the ownership predicate applied to every escrow read and write.
type Owner struct {
	Party  Party
	UserID int64
}

// Escrow is the core aggregate.
type Escrow struct {
	ID                 int64      `json:"id"`
	BuyerID            int64      `json:"buyer_id"`
	SellerID           int64      `json:"seller_id"`
	Amount             Money      `json:"amount"`
	PaymentMethod      string     `json:"payment_method"`
	Status             Status     `json:"status"`
	SellerTerms        string     `json:"seller_terms,omitempty"`
	SellerDeliverables string     `json:"seller_deliverables,omitempty"`
	SellerRejectReason string     `json:"seller_reject_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	SellerConfirmedAt  *time.Time `json:"seller_confirmed_at,omitempty"`
	DeliveredAt        *time.Time `json:"delivered_at,omitempty"`
	SellerRequestTime  *time.Time `json:"seller_request_time,omitempty"`
}

// EscrowView is an escrow joined with the emails of both parties.
type EscrowView struct {
	Escrow
	BuyerEmail  string `json:"buyer_email"`
	SellerEmail string `json:"seller_email"`
}
