package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
// CurrentStatus is set for rejected status transitions.
type errorResponse struct {
	Error         string `json:"error"`
	CurrentStatus string `json:"current_status,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Logs unexpected errors without leaking details to the client.
//   - Renders {"error": "<message>"} for every failure.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, auth middleware).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	var te *domain.TransitionError
	if errors.As(err, &te) {
		return http.StatusBadRequest, errorResponse{
			Error:         capitalize(te.Error()),
			CurrentStatus: string(te.Current),
		}
	}

	switch {
	case errors.Is(err, domain.ErrTransitionConflict):
		return http.StatusBadRequest, errorResponse{Error: "Escrow status changed, reload and retry"}
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusBadRequest, errorResponse{Error: "Invalid status transition"}

	case errors.Is(err, domain.ErrEscrowNotFound):
		return http.StatusNotFound, errorResponse{Error: "Escrow not found or access denied"}
	case errors.Is(err, domain.ErrCredentialsNotFound):
		return http.StatusNotFound, errorResponse{Error: "No credentials found for this escrow"}
	case errors.Is(err, domain.ErrKYCNotFound):
		return http.StatusNotFound, errorResponse{Error: "No KYC submission found"}
	case errors.Is(err, domain.ErrWithdrawalMethodNotFound):
		return http.StatusNotFound, errorResponse{Error: "No withdrawal method found"}

	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, errorResponse{Error: "Invalid or expired token"}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "Invalid email or password"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: "Access forbidden"}

	case errors.Is(err, domain.ErrIdempotencyInFlight):
		return http.StatusConflict, errorResponse{Error: capitalize(err.Error())}

	case errors.Is(err, domain.ErrUserExists):
		return http.StatusBadRequest, errorResponse{Error: "User already exists"}
	case errors.Is(err, domain.ErrSellerNotFound):
		return http.StatusBadRequest, errorResponse{Error: "Seller not found or not a seller"}
	case errors.Is(err, domain.ErrMissingFields),
		errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrAmountFormat),
		errors.Is(err, domain.ErrAmountPrecision),
		errors.Is(err, domain.ErrAmountTooLarge),
		errors.Is(err, domain.ErrSelfEscrow),
		errors.Is(err, domain.ErrNoAttachments),
		errors.Is(err, domain.ErrInvalidAttachment):
		return http.StatusBadRequest, errorResponse{Error: capitalize(err.Error())}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
