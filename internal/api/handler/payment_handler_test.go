package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/domain"
)

type stubPaymentService struct{}

func (stubPaymentService) List(context.Context) []domain.PaymentMethod {
	return domain.DefaultPaymentMethods()
}

func TestPaymentHandler_List(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/paymentMethods", "", nil)
	if err := NewPaymentHandler(stubPaymentService{}).List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	methods, ok := decode(t, rec)["payment_methods"].([]any)
	if !ok || len(methods) != 2 {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	first := methods[0].(map[string]any)
	if first["method"] != "bank_transfer" || first["is_active"] != true {
		t.Fatalf("unexpected first method %+v", first)
	}
}
