package domain

import "time"

const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
)

// ValidRole reports whether role is one a user can sign up with.
func ValidRole(role string) bool {
	return role == RoleBuyer || role == RoleSeller
}

// User models an authenticated actor in the system.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Balance      Money     `json:"balance"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session binds an opaque token to one user until ExpiresAt.
type Session struct {
	UserID    int64
	Token     string
	ExpiresAt time.Time
}

// Identity is what a valid session token resolves to.
type Identity struct {
	UserID int64
	Email  string
	Name   string
	Role   string
}
