package handler

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type signupResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  int64  `json:"user_id"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string `json:"message"`
	Role    string `json:"role"`
	Token   string `json:"token"`
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Buyer ---

type createEscrowRequest struct {
	Amount        json.Number `json:"amount"        validate:"required"`
	PaymentMethod string      `json:"paymentMethod" validate:"required"`
	SellerEmail   string      `json:"seller_email"  validate:"required"`
}

type createEscrowResponse struct {
	Success       bool          `json:"success"`
	Message       string        `json:"message"`
	EscrowID      int64         `json:"escrow_id"`
	BuyerEmail    string        `json:"buyer_email"`
	SellerEmail   string        `json:"seller_email"`
	Amount        domain.Money  `json:"amount"`
	PaymentMethod string        `json:"payment_method"`
	Status        domain.Status `json:"status"`
	Replayed      bool          `json:"replayed,omitempty"`
}

// escrowIDCamel is the body shape of the older buyer and seller endpoints.
type escrowIDCamel struct {
	EscrowID int64 `json:"escrowId" validate:"required,gt=0"`
}

type escrowIDSnake struct {
	EscrowID int64 `json:"escrow_id" validate:"required,gt=0"`
}

type statusChangeResponse struct {
	Success        bool          `json:"success"`
	Message        string        `json:"message"`
	EscrowID       int64         `json:"escrow_id"`
	PreviousStatus domain.Status `json:"previous_status"`
	NewStatus      domain.Status `json:"new_status"`
}

type releaseFundsResponse struct {
	statusChangeResponse
	AmountReleased   domain.Money `json:"amount_released"`
	SellerID         int64        `json:"seller_id"`
	NewSellerBalance domain.Money `json:"new_seller_balance"`
}

type escrowResponse struct {
	ID                 int64         `json:"id"`
	Amount             domain.Money  `json:"amount"`
	PaymentMethod      string        `json:"payment_method"`
	Status             domain.Status `json:"status"`
	CreatedAt          time.Time     `json:"created_at"`
	BuyerEmail         string        `json:"buyer_email"`
	SellerEmail        string        `json:"seller_email"`
	SellerTerms        *string       `json:"seller_terms"`
	SellerDeliverables *string       `json:"seller_deliverables"`
	SellerRejectReason *string       `json:"seller_reject_reason"`
	SellerConfirmedAt  *time.Time    `json:"seller_confirmed_at"`
	DeliveredAt        *time.Time    `json:"delivered_at"`
	SellerRequestTime  *time.Time    `json:"seller_request_time"`
}

type transactionsResponse struct {
	EscrowID     int64                `json:"escrow_id"`
	Transactions []domain.LedgerEntry `json:"transactions"`
}

type paymentMethodsResponse struct {
	PaymentMethods []domain.PaymentMethod `json:"payment_methods"`
}

// --- Seller ---

// attachmentRequest carries base64 encoded file content.
type attachmentRequest struct {
	FileName string `json:"filename"`
	Content  string `json:"content"`
}

type sellerRejectRequest struct {
	EscrowID int64  `json:"escrowId" validate:"required,gt=0"`
	Reason   string `json:"reason"`
}

type sellerDeliveryRequest struct {
	EscrowID           int64               `json:"escrowId"           validate:"required,gt=0"`
	DeliveryTerms      string              `json:"deliveryTerms"`
	DeliverableContent string              `json:"deliverableContent"`
	Attachments        []attachmentRequest `json:"attachments"`
}

type sellerReleaseRequest struct {
	EscrowID int64  `json:"escrowId" validate:"required,gt=0"`
	Note     string `json:"note"`
}

type sellerStatusResponse struct {
	Success  bool          `json:"success"`
	Message  string        `json:"message"`
	EscrowID int64         `json:"escrow_id"`
	Status   domain.Status `json:"status"`
}

type sellerEscrowSummary struct {
	ID            int64         `json:"id"`
	Amount        domain.Money  `json:"amount"`
	PaymentMethod string        `json:"payment_method"`
	Status        domain.Status `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
}

type sellerMyEscrowsResponse struct {
	Escrows []sellerEscrowSummary `json:"escrows"`
}

type sellerEscrowItem struct {
	ID                int64         `json:"id"`
	Amount            domain.Money  `json:"amount"`
	Status            domain.Status `json:"status"`
	Wallet            string        `json:"wallet"`
	CreatedAt         time.Time     `json:"created_at"`
	SellerConfirmedAt *time.Time    `json:"seller_confirmed_at"`
	DeliveredAt       *time.Time    `json:"delivered_at"`
	BuyerEmail        string        `json:"buyer_email"`
}

type uploadKYCRequest struct {
	KYCType     string              `json:"kyc_type"`
	Attachments []attachmentRequest `json:"attachments"`
}

type uploadKYCResponse struct {
	Message string `json:"message"`
	KYCID   int64  `json:"kyc_id"`
	Status  string `json:"status"`
}

type kycStatusResponse struct {
	KYC     *domain.KYCSubmission `json:"kyc"`
	Message string                `json:"message,omitempty"`
}

type withdrawalMethodRequest struct {
	MethodCode string          `json:"method_code"`
	Details    json.RawMessage `json:"details"`
}

type withdrawalSavedResponse struct {
	Message    string `json:"message"`
	MethodCode string `json:"method_code"`
}

type withdrawalMethodResponse struct {
	Method  *domain.WithdrawalMethod `json:"method"`
	Message string                   `json:"message,omitempty"`
}

// --- Mapping helpers ---

// decodeAttachments skips entries without a filename or content and rejects
// undecodable or oversized content. maxBytes <= 0 disables the size check.
func decodeAttachments(reqs []attachmentRequest, maxBytes int) ([]domain.Attachment, error) {
	out := make([]domain.Attachment, 0, len(reqs))
	for _, r := range reqs {
		name := strings.TrimSpace(r.FileName)
		if name == "" || r.Content == "" {
			continue
		}

		contentType, payload := splitDataURL(r.Content)
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %s is not valid base64", domain.ErrInvalidAttachment, name)
		}
		if maxBytes > 0 && len(data) > maxBytes {
			return nil, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrInvalidAttachment, name, maxBytes)
		}
		if len(data) == 0 {
			continue
		}
		out = append(out, domain.Attachment{FileName: name, ContentType: contentType, Content: data})
	}
	return out, nil
}

// splitDataURL accepts both raw base64 and "data:<type>;base64,<payload>".
func splitDataURL(s string) (contentType, payload string) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "data:") {
		return "", s
	}
	meta, data, ok := strings.Cut(s, ",")
	if !ok {
		return "", s
	}
	meta = strings.TrimSuffix(strings.TrimPrefix(meta, "data:"), ";base64")
	return meta, data
}

func toEscrowResponse(v *domain.EscrowView) escrowResponse {
	return escrowResponse{
		ID:                 v.ID,
		Amount:             v.Amount,
		PaymentMethod:      v.PaymentMethod,
		Status:             v.Status,
		CreatedAt:          v.CreatedAt,
		BuyerEmail:         v.BuyerEmail,
		SellerEmail:        v.SellerEmail,
		SellerTerms:        optional(v.SellerTerms),
		SellerDeliverables: optional(v.SellerDeliverables),
		SellerRejectReason: optional(v.SellerRejectReason),
		SellerConfirmedAt:  v.SellerConfirmedAt,
		DeliveredAt:        v.DeliveredAt,
		SellerRequestTime:  v.SellerRequestTime,
	}
}

// optional renders unset text columns as JSON null.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
