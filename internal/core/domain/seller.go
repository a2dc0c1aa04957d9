package domain

import (
	"encoding/json"
	"time"
)

const (
	KYCPending  = "pending"
	KYCApproved = "approved"
	KYCRejected = "rejected"

	DefaultKYCType = "General Verification"
)

// KYCSubmission is a seller identity-verification request.
type KYCSubmission struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"-"`
	KYCType     string     `json:"kyc_type"`
	Status      string     `json:"status"`
	AdminNote   *string    `json:"admin_note"`
	SubmittedAt time.Time  `json:"submitted_at"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
}

// WithdrawalMethod is a seller's payout destination. Details is stored as
// jsonb and passed through untouched.
type WithdrawalMethod struct {
	UserID     int64           `json:"-"`
	MethodCode string          `json:"method_code"`
	Details    json.RawMessage `json:"details"`
	Active     bool            `json:"active"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Credentials are the access details a seller hands over for an escrow.
type Credentials struct {
	EscrowID    int64      `json:"escrow_id"`
	Credentials string     `json:"credentials"`
	ProvidedBy  string     `json:"provided_by"`
	ProvidedAt  *time.Time `json:"provided_at"`
	SellerEmail string     `json:"seller_email"`
}
