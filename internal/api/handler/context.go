package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/AgongaAlpha/vanguardescrow-api/internal/api/middleware"
)

// ctxIdentity extracts the caller injected by the Auth middleware. A missing
// user id means the route was mounted without Auth; reject with 401.
func ctxIdentity(c echo.Context) (userID int64, role, email string, err error) {
	userID, _ = c.Get(middleware.CtxUserID).(int64)
	if userID == 0 {
		return 0, "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	role, _ = c.Get(middleware.CtxRole).(string)
	email, _ = c.Get(middleware.CtxEmail).(string)
	return userID, role, email, nil
}

// bindValid binds the request body into req and runs the registered validator.
func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// queryEscrowID reads the escrow_id query parameter.
func queryEscrowID(c echo.Context) (int64, error) {
	raw := strings.TrimSpace(c.QueryParam("escrow_id"))
	if raw == "" {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "escrow_id is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "escrow_id must be a positive integer")
	}
	return id, nil
}
