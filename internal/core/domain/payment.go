package domain

import "fmt"

const (
	MethodBankTransfer = "bank_transfer"
	MethodCrypto       = "crypto"
)

// PaymentMethod is an entry of the public payment method catalogue.
type PaymentMethod struct {
	Method      string `json:"method"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

// DefaultPaymentMethods is served when the catalogue table is empty or unreadable.
func DefaultPaymentMethods() []PaymentMethod {
	return []PaymentMethod{
		{Method: MethodBankTransfer, Description: "Bank Transfer", IsActive: true},
		{Method: MethodCrypto, Description: "Cryptocurrency", IsActive: true},
	}
}

// DepositInstructions tells a buyer where to send funds for an escrow.
// Addresses are mocked; no payment processor is involved.
type DepositInstructions struct {
	EscrowID       int64             `json:"escrow_id"`
	Amount         Money             `json:"amount"`
	PaymentMethod  string            `json:"payment_method"`
	DepositAddress string            `json:"deposit_address"`
	DepositInfo    map[string]string `json:"deposit_info"`
	Status         Status            `json:"status"`
	Instructions   string            `json:"instructions"`
}

// NewDepositInstructions builds the mock deposit address for e.
func NewDepositInstructions(e *Escrow) DepositInstructions {
	ref := fmt.Sprintf("ESCROW-%d", e.ID)

	var addr string
	var info map[string]string
	switch e.PaymentMethod {
	case MethodBankTransfer:
		addr = "BANK-ACC-1234567890"
		info = map[string]string{
			"bank_name":      "Vanguard Bank",
			"account_number": "1234567890",
			"routing_number": "021000021",
			"reference":      ref,
		}
	case MethodCrypto:
		addr = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"
		info = map[string]string{
			"crypto_type": "Bitcoin",
			"network":     "BTC Mainnet",
			"memo":        ref,
		}
	default:
		addr = fmt.Sprintf("PAYMENT-%d-%s", e.ID, e.PaymentMethod)
		info = map[string]string{
			"instructions": fmt.Sprintf("Send payment for escrow %d", e.ID),
			"reference":    ref,
		}
	}

	return DepositInstructions{
		EscrowID:       e.ID,
		Amount:         e.Amount,
		PaymentMethod:  e.PaymentMethod,
		DepositAddress: addr,
		DepositInfo:    info,
		Status:         e.Status,
		Instructions:   fmt.Sprintf("Send %s via %s to the address above", e.Amount, e.PaymentMethod),
	}
}
