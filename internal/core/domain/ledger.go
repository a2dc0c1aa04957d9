package domain

import "time"

// LedgerType classifies an append-only transaction log entry.
type LedgerType string

const (
	LedgerConfirm        LedgerType = "confirm"
	LedgerReject         LedgerType = "reject"
	LedgerDelivery       LedgerType = "delivery"
	LedgerReleaseRequest LedgerType = "release_request"
	LedgerRelease        LedgerType = "release"
)

// LedgerEntry is one row of the per-escrow audit trail. Rows are never
// updated or deleted.
type LedgerEntry struct {
	ID          int64      `json:"id"`
	EscrowID    int64      `json:"escrow_id"`
	Type        LedgerType `json:"type"`
	Amount      *Money     `json:"amount,omitempty"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
}
