package ports

import (
	"context"
	"time"

	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/domain"
)

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	// Create inserts the user and sets its ID and CreatedAt.
	// A duplicate email yields domain.ErrUserExists.
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// CreditBalance adds amount to the user's balance and returns the new balance.
	CreditBalance(ctx context.Context, userID int64, amount domain.Money) (domain.Money, error)
}

// SessionRepository stores opaque login sessions.
type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	// FindIdentity resolves a token whose session expires after now.
	FindIdentity(ctx context.Context, token string, now time.Time) (*domain.Identity, error)
	// Delete removes the session for token. Deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
