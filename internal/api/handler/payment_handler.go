package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/ports"
)

type PaymentHandler struct {
	service ports.PaymentMethodService
}

func NewPaymentHandler(service ports.PaymentMethodService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// List handles GET /paymentMethods. It never fails; the catalogue falls
// back to the built-in methods.
//
// @Summary      Available payment methods
// @Tags         public
// @Produce      json
// @Success      200  {object}  paymentMethodsResponse
// @Router       /paymentMethods [get]
func (h *PaymentHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, paymentMethodsResponse{PaymentMethods: h.service.List(c.Request().Context())})
}
