package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated    = errors.New("invalid or expired token")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbidden          = errors.New("access forbidden")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidRole        = errors.New("invalid role, must be buyer or seller")
	ErrMissingFields      = errors.New("all fields are required")

	ErrEscrowNotFound     = errors.New("escrow not found or access denied")
	ErrSellerNotFound     = errors.New("seller not found or not a seller")
	ErrSelfEscrow         = errors.New("buyer and seller must be different users")
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrAmountFormat       = errors.New("amount must be a decimal number")
	ErrAmountPrecision    = errors.New("amount must have at most 2 decimal places")
	ErrAmountTooLarge     = errors.New("amount exceeds the maximum of 9999999999999999.99")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrTransitionConflict = fmt.Errorf("%w: escrow status changed concurrently", ErrInvalidTransition)
	ErrUnknownStatus      = errors.New("unknown escrow status")

	ErrNoAttachments            = errors.New("no attachments provided")
	ErrInvalidAttachment        = errors.New("invalid attachment")
	ErrKYCNotFound              = errors.New("no KYC submission found")
	ErrWithdrawalMethodNotFound = errors.New("no withdrawal method found")
	ErrCredentialsNotFound      = errors.New("no credentials found for this escrow")
	ErrIdempotencyInFlight      = errors.New("a request with this Idempotency-Key is still in progress")
)

// TransitionError reports a status precondition miss together with the
// status the escrow was actually in.
type TransitionError struct {
	Op      Operation
	Current Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s in status %s", e.Op, e.Current)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
