package ports

import (
	"context"

	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/domain"
)

// SignupInput carries the fields of a new account.
type SignupInput struct {
	Email    string
	Password string
	Name     string
	Role     string
}

// LoginResult is returned on successful login. Token is opaque.
type LoginResult struct {
	Token string
	Role  string
}

type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, token string) error
}

// Authenticator resolves a bearer token to the user it was issued to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Identity, error)
}
