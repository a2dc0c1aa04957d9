package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/AgongaAlpha/vanguardescrow-api/internal/api/metrics"
	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/domain"
	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/ports"
)

const headerIdempotencyKey = "Idempotency-Key"

// EscrowHandler serves the buyer and seller escrow lifecycle endpoints.
type EscrowHandler struct {
	service            ports.EscrowService
	maxAttachmentBytes int
}

func NewEscrowHandler(service ports.EscrowService, maxAttachmentBytes int) *EscrowHandler {
	return &EscrowHandler{service: service, maxAttachmentBytes: maxAttachmentBytes}
}

// observe records the outcome of a state machine operation.
func observe(op domain.Operation, start time.Time, err error) {
	metrics.TransitionDuration.WithLabelValues(string(op)).Observe(time.Since(start).Seconds())

	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidTransition):
		result = "invalid_transition"
	case errors.Is(err, domain.ErrEscrowNotFound):
		result = "not_found"
	default:
		result = "error"
	}
	metrics.TransitionsTotal.WithLabelValues(string(op), result).Inc()
}

// CreateEscrow handles POST /createEscrow.
//
// @Summary      Open an escrow
// @Tags         buyer
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string               false  "Replays the original escrow when reused"
// @Param        body             body      createEscrowRequest  true   "Escrow terms"
// @Success      200              {object}  createEscrowResponse
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      403              {object}  errorResponse
// @Failure      409              {object}  errorResponse
// @Failure      500              {object}  errorResponse
// @Router       /createEscrow [post]
func (h *EscrowHandler) CreateEscrow(c echo.Context) error {
	userID, _, email, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req createEscrowRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	amount, err := domain.ParseAmount(req.Amount.String())
	if err != nil {
		return err
	}

	key := strings.TrimSpace(c.Request().Header.Get(headerIdempotencyKey))
	res, err := h.service.Create(c.Request().Context(), ports.CreateEscrowInput{
		BuyerID:        userID,
		BuyerEmail:     email,
		SellerEmail:    req.SellerEmail,
		Amount:         amount,
		PaymentMethod:  req.PaymentMethod,
		IdempotencyKey: key,
	})
	if err != nil {
		return err
	}

	switch {
	case res.Replayed:
		metrics.IdempotencyTotal.WithLabelValues("replayed").Inc()
	case key != "":
		metrics.IdempotencyTotal.WithLabelValues("created").Inc()
	}
	if !res.Replayed {
		metrics.EscrowsCreatedTotal.WithLabelValues(res.Escrow.PaymentMethod).Inc()
	}

	return c.JSON(http.StatusOK, createEscrowResponse{
		Success:       true,
		Message:       "Escrow created successfully",
		EscrowID:      res.Escrow.ID,
		BuyerEmail:    res.BuyerEmail,
		SellerEmail:   res.SellerEmail,
		Amount:        res.Escrow.Amount,
		PaymentMethod: res.Escrow.PaymentMethod,
		Status:        res.Escrow.Status,
		Replayed:      res.Replayed,
	})
}

// DepositAddress handles GET /depositAddress.
//
// @Summary      Deposit instructions for an escrow
// @Tags         buyer
// @Produce      json
// @Security     BearerAuth
// @Param        escrow_id  query     int  true  "Escrow id"
// @Success      200        {object}  domain.DepositInstructions
// @Failure      404        {object}  errorResponse
// @Router       /depositAddress [get]
func (h *EscrowHandler) DepositAddress(c echo.Context) error {
	userID, _, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	escrowID, err := queryEscrowID(c)
	if err != nil {
		return err
	}

	info, err := h.service.DepositAddress(c.Request().Context(), userID, escrowID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, info)
}

// DepositDone handles POST /depositDone.
//
// @Summary      Confirm the buyer deposit
// @Tags         buyer
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      escrowIDCamel  true  "Escrow"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /depositDone [post]
func (h *EscrowHandler) DepositDone(c echo.Context) error {
	userID, _, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req escrowIDCamel
	if err := bindValid(c, &req); err != nil {
		return err
	}

	start := time.Now()
	_, err = h.service.ConfirmDeposit(c.Request().Context(), userID, req.EscrowID)
	observe(domain.OpConfirmDeposit, start, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Deposit confirmed successfully"})
}

// MarkPaid handles POST /markPaid.
//
// @Summary      Mark an escrow paid
// @Tags         buyer
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      escrowIDSnake  true  "Escrow"
// @Success      200   {object}  statusChangeResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /markPaid [post]
func (h *EscrowHandler) MarkPaid(c echo.Context) error {
	userID, _, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req escrowIDSnake
	if err := bindValid(c, &req); err != nil {
		return err
	}

	start := time.Now()
	res, err := h.service.MarkPaid(c.Request().Context(), userID, req.EscrowID)
	observe(domain.OpMarkPaid, start, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, statusChange("Escrow marked as paid", res))
}

// ReleaseFunds handles POST /releaseFunds.
//
// @Summary      Release escrowed funds to the seller
// @Tags         buyer
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      escrowIDSnake  true  "Escrow"
// @Success      200   {object}  releaseFundsResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /releaseFunds [post]
func (h *EscrowHandler) ReleaseFunds(c echo.Context) error {
	userID, _, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req escrowIDSnake
	if err := bindValid(c, &req); err != nil {
		return err
	}

	start := time.Now()
	res, err := h.service.ReleaseFunds(c.Request().Context(), userID, req.EscrowID)
	observe(domain.OpReleaseFunds, start, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, releaseFundsResponse{
		statusChangeResponse: statusChange("Funds released successfully", &res.TransitionResult),
		AmountReleased:       res.AmountReleased,
		SellerID:             res.SellerID,
		NewSellerBalance:     res.NewSellerBalance,
	})
}

// GetEscrow handles GET /getEscrow for either party.
//
// @Summary      Get an escrow
// @Tags         escrow
// @Produce      json
// @Security     BearerAuth
// @Param        escrow_id  query     int  true  "Escrow id"
// @Success      200        {object}  escrowResponse
// @Failure      404        {object}  errorResponse
// @Router       /getEscrow [get]
func (h *EscrowHandler) GetEscrow(c echo.Context) error {
	userID, _, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	escrowID, err := queryEscrowID(c)
	if err != nil {
		return err
	}

	v, err := h.service.Get(c.Request().Context(), userID, escrowID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEscrowResponse(v))
}

// Transactions handles GET /escrowTransactions for either party.
//
// @Summary      Ledger of an escrow
// @Tags         escrow
// @Produce      json
// @Security     BearerAuth
// @Param        escrow_id  query     int  true  "Escrow id"
// @Success      200        {object}  transactionsResponse
// @Failure      404        {object}  errorResponse
// @Router       /escrowTransactions [get]
func (h *EscrowHandler) Transactions(c echo.Context) error {
	userID, _, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	escrowID, err := queryEscrowID(c)
	if err != nil {
		return err
	}

	entries, err := h.service.Transactions(c.Request().Context(), userID, escrowID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transactionsResponse{EscrowID: escrowID, Transactions: entries})
}

// Credentials handles GET /getCredentials.
//
// @Summary      Access credentials handed over by the seller
// @Tags         buyer
// @Produce      json
// @Security     BearerAuth
// @Param        escrow_id  query     int  true  "Escrow id"
// @Success      200        {object}  domain.Credentials
// @Failure      404        {object}  errorResponse
// @Router       /getCredentials [get]
func (h *EscrowHandler) Credentials(c echo.Context) error {
	userID, _, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	escrowID, err := queryEscrowID(c)
	if err != nil {
		return err
	}

	creds, err := h.service.Credentials(c.Request().Context(), userID, escrowID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, creds)
}

// SellerConfirm handles POST /sellerConfirm.
//
// @Summary      Accept an escrow
// @Tags         seller
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      escrowIDCamel  true  "Escrow"
// @Success      200   {object}  sellerStatusResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /sellerConfirm [post]
func (h *EscrowHandler) SellerConfirm(c echo.Context) error {
	userID, _, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req escrowIDCamel
	if err := bindValid(c, &req); err != nil {
		return err
	}

	start := time.Now()
	res, err := h.service.SellerConfirm(c.Request().Context(), userID, req.EscrowID)
	observe(domain.OpSellerConfirm, start, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sellerStatus("Escrow confirmed", res))
}

// SellerReject handles POST /sellerReject.
//
// @Summary      Reject an escrow
// @Tags         seller
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      sellerRejectRequest  true  "Escrow and optional reason"
// @Success      200   {object}  sellerStatusResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /sellerReject [post]
func (h *EscrowHandler) SellerReject(c echo.Context) error {
	userID, _, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req sellerRejectRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	start := time.Now()
	res, err := h.service.SellerReject(c.Request().Context(), userID, req.EscrowID, req.Reason)
	observe(domain.OpSellerReject, start, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sellerStatus("Escrow rejected", res))
}

// SellerSubmitDelivery handles POST /sellerSubmitDelivery.
//
// @Summary      Submit delivery with optional attachments
// @Tags         seller
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      sellerDeliveryRequest  true  "Delivery"
// @Success      200   {object}  sellerStatusResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /sellerSubmitDelivery [post]
func (h *EscrowHandler) SellerSubmitDelivery(c echo.Context) error {
	userID, _, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req sellerDeliveryRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	atts, err := decodeAttachments(req.Attachments, h.maxAttachmentBytes)
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := h.service.SubmitDelivery(c.Request().Context(), ports.DeliveryInput{
		SellerID:     userID,
		EscrowID:     req.EscrowID,
		Terms:        req.DeliveryTerms,
		Deliverables: req.DeliverableContent,
		Attachments:  atts,
	})
	observe(domain.OpSubmitDelivery, start, err)
	if err != nil {
		return err
	}
	metrics.AttachmentsTotal.WithLabelValues(string(domain.PurposeDelivery)).Add(float64(len(atts)))

	return c.JSON(http.StatusOK, sellerStatus("Delivery submitted", res))
}

// SellerRequestRelease handles POST /sellerRequestRelease.
//
// @Summary      Ask the buyer to release funds
// @Tags         seller
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      sellerReleaseRequest  true  "Escrow and optional note"
// @Success      200   {object}  sellerStatusResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /sellerRequestRelease [post]
func (h *EscrowHandler) SellerRequestRelease(c echo.Context) error {
	userID, _, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req sellerReleaseRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	start := time.Now()
	res, err := h.service.RequestRelease(c.Request().Context(), userID, req.EscrowID, req.Note)
	observe(domain.OpRequestRelease, start, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sellerStatus("Release requested", res))
}

// SellerMyEscrows handles GET /sellerMyEscrows.
//
// @Summary      Compact list of the seller's escrows
// @Tags         seller
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  sellerMyEscrowsResponse
// @Router       /sellerMyEscrows [get]
func (h *EscrowHandler) SellerMyEscrows(c echo.Context) error {
	userID, _, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	list, err := h.service.ListForSeller(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	out := make([]sellerEscrowSummary, 0, len(list))
	for _, v := range list {
		out = append(out, sellerEscrowSummary{
			ID:            v.ID,
			Amount:        v.Amount,
			PaymentMethod: v.PaymentMethod,
			Status:        v.Status,
			CreatedAt:     v.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, sellerMyEscrowsResponse{Escrows: out})
}

// SellerEscrows handles GET /sellerEscrows.
//
// @Summary      Seller dashboard list, newest first
// @Tags         seller
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  sellerEscrowItem
// @Router       /sellerEscrows [get]
func (h *EscrowHandler) SellerEscrows(c echo.Context) error {
	userID, _, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	list, err := h.service.ListForSeller(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	out := make([]sellerEscrowItem, 0, len(list))
	for _, v := range list {
		out = append(out, sellerEscrowItem{
			ID:                v.ID,
			Amount:            v.Amount,
			Status:            v.Status,
			Wallet:            v.PaymentMethod,
			CreatedAt:         v.CreatedAt,
			SellerConfirmedAt: v.SellerConfirmedAt,
			DeliveredAt:       v.DeliveredAt,
			BuyerEmail:        v.BuyerEmail,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func statusChange(msg string, r *ports.TransitionResult) statusChangeResponse {
	return statusChangeResponse{
		Success:        true,
		Message:        msg,
		EscrowID:       r.EscrowID,
		PreviousStatus: r.PreviousStatus,
		NewStatus:      r.NewStatus,
	}
}

func sellerStatus(msg string, r *ports.TransitionResult) sellerStatusResponse {
	return sellerStatusResponse{Success: true, Message: msg, EscrowID: r.EscrowID, Status: r.NewStatus}
}
