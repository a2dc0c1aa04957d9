package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/domain"
	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/ports"
)

type stubAuthService struct {
	signupFn func(ctx context.Context, in ports.SignupInput) (*domain.User, error)
	loginFn  func(ctx context.Context, email, password string) (*ports.LoginResult, error)
	logouts  []string
}

func (s *stubAuthService) Signup(ctx context.Context, in ports.SignupInput) (*domain.User, error) {
	return s.signupFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Logout(_ context.Context, token string) error {
	s.logouts = append(s.logouts, token)
	return nil
}

func TestAuthHandler_Signup_Success(t *testing.T) {
	stub := &stubAuthService{
		signupFn: func(_ context.Context, in ports.SignupInput) (*domain.User, error) {
			if in.Email != "A@x.com" || in.Role != "seller" || in.Name != "Ann" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{ID: 7, Email: "a@x.com", Role: in.Role}, nil
		},
	}
	c, rec := newContext(http.MethodPost, "/signup", `{"email":"A@x.com","password":"pw","name":"Ann","role":"seller"}`, nil)

	if err := NewAuthHandler(stub).Signup(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode(t, rec)
	if resp["success"] != true || resp["user_id"] != float64(7) {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_Signup_PropagatesDomainError(t *testing.T) {
	stub := &stubAuthService{
		signupFn: func(context.Context, ports.SignupInput) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	}
	c, _ := newContext(http.MethodPost, "/signup", `{"email":"a@x.com"}`, nil)

	err := NewAuthHandler(stub).Signup(c)
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthHandler_Signup_InvalidPayload(t *testing.T) {
	c, _ := newContext(http.MethodPost, "/signup", `{"email":`, nil)
	expectHTTPError(t, NewAuthHandler(&stubAuthService{}).Signup(c), http.StatusBadRequest)
}

func TestAuthHandler_Login_ReturnsTokenInBody(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(_ context.Context, email, password string) (*ports.LoginResult, error) {
			if email != "b@x.com" || password != "pw" {
				t.Fatalf("unexpected credentials %s/%s", email, password)
			}
			return &ports.LoginResult{Token: "tok", Role: "buyer"}, nil
		},
	}
	c, rec := newContext(http.MethodPost, "/login", `{"email":"b@x.com","password":"pw"}`, nil)

	if err := NewAuthHandler(stub).Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := decode(t, rec)
	if resp["token"] != "tok" || resp["role"] != "buyer" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if rec.Header().Get("Set-Cookie") != "" {
		t.Fatalf("token must not be set as a cookie")
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (*ports.LoginResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	c, _ := newContext(http.MethodPost, "/login", `{"email":"b@x.com","password":"bad"}`, nil)

	if err := NewAuthHandler(stub).Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_Logout_IsIdempotent(t *testing.T) {
	stub := &stubAuthService{}
	h := NewAuthHandler(stub)

	for i := 0; i < 2; i++ {
		c, rec := newContext(http.MethodPost, "/logout", "", nil)
		c.Request().Header.Set("Authorization", "Bearer tok")
		if err := h.Logout(c); err != nil {
			t.Fatalf("logout %d: %v", i, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("logout %d: expected 200, got %d", i, rec.Code)
		}
	}
	if len(stub.logouts) != 2 || stub.logouts[0] != "tok" {
		t.Fatalf("unexpected logout calls: %v", stub.logouts)
	}
}

func TestAuthHandler_Logout_RequiresBearer(t *testing.T) {
	c, _ := newContext(http.MethodPost, "/logout", "", nil)
	expectHTTPError(t, NewAuthHandler(&stubAuthService{}).Logout(c), http.StatusUnauthorized)
}
