package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/domain"
	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/ports"
)

func TestSellerService_UploadKYC_Success(t *testing.T) {
	store := newMemStore()
	blobs := newMemBlobs()
	svc := NewSellerService(store, blobs, discardLogger)
	seller := store.addUser("kyc@example.com", domain.RoleSeller)

	sub, err := svc.UploadKYC(context.Background(), ports.UploadKYCInput{
		UserID: seller.ID,
		Attachments: []domain.Attachment{
			{FileName: "passport.png", Content: []byte("\x89PNG\r\n\x1a\n....")},
			{FileName: "empty.txt"},
		},
	})
	if err != nil {
		t.Fatalf("UploadKYC returned error: %v", err)
	}
	if sub.Status != domain.KYCPending {
		t.Errorf("expected pending, got %s", sub.Status)
	}
	if sub.KYCType != domain.DefaultKYCType {
		t.Errorf("expected default kyc type, got %q", sub.KYCType)
	}

	rows := store.fileRows()
	if len(rows) != 1 {
		t.Fatalf("expected empty attachment to be skipped, got %d rows", len(rows))
	}
	if rows[0].EscrowID != nil {
		t.Error("kyc files are not linked to an escrow")
	}
	if rows[0].Purpose != domain.PurposeKYC || rows[0].ContentType != "image/png" {
		t.Errorf("unexpected file row: %+v", rows[0])
	}

	latest, err := svc.KYCStatus(context.Background(), seller.ID)
	if err != nil {
		t.Fatalf("KYCStatus: %v", err)
	}
	if latest.ID != sub.ID {
		t.Errorf("latest submission: want %d, got %d", sub.ID, latest.ID)
	}
}

func TestSellerService_UploadKYC_NoAttachments(t *testing.T) {
	store := newMemStore()
	blobs := newMemBlobs()
	svc := NewSellerService(store, blobs, discardLogger)

	for _, atts := range [][]domain.Attachment{nil, {{FileName: "blank.pdf"}}} {
		if _, err := svc.UploadKYC(context.Background(), ports.UploadKYCInput{UserID: 1, Attachments: atts}); !errors.Is(err, domain.ErrNoAttachments) {
			t.Errorf("expected ErrNoAttachments, got %v", err)
		}
	}
	if blobs.count() != 0 {
		t.Errorf("expected no uploads, got %d", blobs.count())
	}
}

func TestSellerService_UploadKYC_BlobFailure(t *testing.T) {
	store := newMemStore()
	blobs := newMemBlobs()
	blobs.putErr = errors.New("bucket unavailable")
	svc := NewSellerService(store, blobs, discardLogger)

	_, err := svc.UploadKYC(context.Background(), ports.UploadKYCInput{
		UserID: 1, Attachments: []domain.Attachment{{FileName: "id.jpg", Content: []byte("x")}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(store.kyc) != 0 {
		t.Errorf("expected no submission rows, got %d", len(store.kyc))
	}
}

func TestSellerService_KYCStatus_NotFound(t *testing.T) {
	svc := NewSellerService(newMemStore(), newMemBlobs(), discardLogger)

	if _, err := svc.KYCStatus(context.Background(), 7); !errors.Is(err, domain.ErrKYCNotFound) {
		t.Fatalf("expected ErrKYCNotFound, got %v", err)
	}
}

func TestSellerService_WithdrawalMethod_RoundTrip(t *testing.T) {
	svc := NewSellerService(newMemStore(), newMemBlobs(), discardLogger)
	ctx := context.Background()

	if _, err := svc.WithdrawalMethod(ctx, 3); !errors.Is(err, domain.ErrWithdrawalMethodNotFound) {
		t.Fatalf("expected ErrWithdrawalMethodNotFound, got %v", err)
	}

	details := json.RawMessage(`{"iban":"DE89370400440532013000"}`)
	if _, err := svc.SetWithdrawalMethod(ctx, 3, "bank_transfer", details); err != nil {
		t.Fatalf("SetWithdrawalMethod: %v", err)
	}
	if _, err := svc.SetWithdrawalMethod(ctx, 3, "crypto", json.RawMessage(`{"address":"bc1q"}`)); err != nil {
		t.Fatalf("second SetWithdrawalMethod: %v", err)
	}

	m, err := svc.WithdrawalMethod(ctx, 3)
	if err != nil {
		t.Fatalf("WithdrawalMethod: %v", err)
	}
	if m.MethodCode != "crypto" || !m.Active {
		t.Errorf("expected latest method to replace the previous one, got %+v", m)
	}
}

func TestSellerService_SetWithdrawalMethod_MissingFields(t *testing.T) {
	svc := NewSellerService(newMemStore(), newMemBlobs(), discardLogger)

	for _, tc := range []struct {
		code    string
		details string
	}{
		{"", `{"iban":"x"}`},
		{"bank_transfer", ""},
		{"bank_transfer", "null"},
		{"bank_transfer", "{}"},
	} {
		if _, err := svc.SetWithdrawalMethod(context.Background(), 1, tc.code, json.RawMessage(tc.details)); !errors.Is(err, domain.ErrMissingFields) {
			t.Errorf("(%q, %q): expected ErrMissingFields, got %v", tc.code, tc.details, err)
		}
	}
}

func TestPaymentMethodService_List(t *testing.T) {
	store := newMemStore()
	svc := NewPaymentMethodService(store.PaymentMethods(), discardLogger)

	if got := svc.List(context.Background()); len(got) != 2 {
		t.Errorf("empty catalogue: expected 2 defaults, got %d", len(got))
	}

	store.methodsErr = errors.New("relation does not exist")
	if got := svc.List(context.Background()); len(got) != 2 || got[0].Method != domain.MethodBankTransfer {
		t.Errorf("failing catalogue: expected defaults, got %+v", got)
	}

	store.methodsErr = nil
	store.methods = []domain.PaymentMethod{{Method: "paypal", Description: "PayPal", IsActive: true}}
	if got := svc.List(context.Background()); len(got) != 1 || got[0].Method != "paypal" {
		t.Errorf("expected stored catalogue, got %+v", got)
	}
}
