package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/AgongaAlpha/vanguardescrow-api/internal/api/metrics"
	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/domain"
	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/ports"
)

// SellerHandler serves seller account endpoints: KYC and payout settings.
type SellerHandler struct {
	service            ports.SellerService
	maxAttachmentBytes int
}

func NewSellerHandler(service ports.SellerService, maxAttachmentBytes int) *SellerHandler {
	return &SellerHandler{service: service, maxAttachmentBytes: maxAttachmentBytes}
}

// UploadKYC handles POST /sellerUploadKYC.
//
// @Summary      Submit KYC documents
// @Tags         seller
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      uploadKYCRequest  true  "KYC type and documents"
// @Success      200   {object}  uploadKYCResponse
// @Failure      400   {object}  errorResponse
// @Router       /sellerUploadKYC [post]
func (h *SellerHandler) UploadKYC(c echo.Context) error {
	userID, _, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req uploadKYCRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	atts, err := decodeAttachments(req.Attachments, h.maxAttachmentBytes)
	if err != nil {
		return err
	}

	k, err := h.service.UploadKYC(c.Request().Context(), ports.UploadKYCInput{
		UserID:      userID,
		KYCType:     req.KYCType,
		Attachments: atts,
	})
	if err != nil {
		return err
	}
	metrics.AttachmentsTotal.WithLabelValues(string(domain.PurposeKYC)).Add(float64(len(atts)))

	return c.JSON(http.StatusOK, uploadKYCResponse{
		Message: "KYC submitted successfully",
		KYCID:   k.ID,
		Status:  k.Status,
	})
}

// KYCStatus handles GET /sellerKYCStatus.
//
// @Summary      Latest KYC submission
// @Tags         seller
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  kycStatusResponse
// @Router       /sellerKYCStatus [get]
func (h *SellerHandler) KYCStatus(c echo.Context) error {
	userID, _, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	k, err := h.service.KYCStatus(c.Request().Context(), userID)
	if errors.Is(err, domain.ErrKYCNotFound) {
		return c.JSON(http.StatusOK, kycStatusResponse{Message: "No KYC submission found"})
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, kycStatusResponse{KYC: k})
}

// SetWithdrawalMethod handles POST /setWithdrawalMethod.
//
// @Summary      Save the payout destination
// @Tags         seller
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      withdrawalMethodRequest  true  "Method code and details"
// @Success      200   {object}  withdrawalSavedResponse
// @Failure      400   {object}  errorResponse
// @Router       /setWithdrawalMethod [post]
func (h *SellerHandler) SetWithdrawalMethod(c echo.Context) error {
	userID, _, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req withdrawalMethodRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	m, err := h.service.SetWithdrawalMethod(c.Request().Context(), userID, req.MethodCode, req.Details)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, withdrawalSavedResponse{
		Message:    "Withdrawal method saved",
		MethodCode: m.MethodCode,
	})
}

// WithdrawalMethod handles GET /getWithdrawalMethod.
//
// @Summary      Current payout destination
// @Tags         seller
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  withdrawalMethodResponse
// @Router       /getWithdrawalMethod [get]
func (h *SellerHandler) WithdrawalMethod(c echo.Context) error {
	userID, _, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	m, err := h.service.WithdrawalMethod(c.Request().Context(), userID)
	if errors.Is(err, domain.ErrWithdrawalMethodNotFound) {
		return c.JSON(http.StatusOK, withdrawalMethodResponse{Message: "No withdrawal method found"})
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, withdrawalMethodResponse{Method: m})
}
