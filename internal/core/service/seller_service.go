package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/domain"
	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/ports"
)

// SellerService handles KYC submissions and withdrawal methods.
type SellerService struct {
	store  ports.Store
	files  attachmentWriter
	now    func() time.Time
	logger zerolog.Logger
}

func NewSellerService(store ports.Store, blobs ports.BlobStore, logger zerolog.Logger) *SellerService {
	now := func() time.Time { return time.Now().UTC() }
	return &SellerService{
		store:  store,
		files:  attachmentWriter{blobs: blobs, now: now, logger: logger},
		now:    now,
		logger: logger,
	}
}

// UploadKYC records a pending submission and its documents. At least one
// attachment with content is required.
func (s *SellerService) UploadKYC(ctx context.Context, in ports.UploadKYCInput) (*domain.KYCSubmission, error) {
	atts := make([]domain.Attachment, 0, len(in.Attachments))
	for _, a := range in.Attachments {
		if len(a.Content) > 0 {
			atts = append(atts, a)
		}
	}
	if len(atts) == 0 {
		return nil, domain.ErrNoAttachments
	}

	kycType := strings.TrimSpace(in.KYCType)
	if kycType == "" {
		kycType = domain.DefaultKYCType
	}

	metas, err := s.files.upload(ctx, domain.PurposeKYC, in.UserID, atts)
	if err != nil {
		return nil, fmt.Errorf("upload kyc: %w", err)
	}

	sub := &domain.KYCSubmission{
		UserID:      in.UserID,
		KYCType:     kycType,
		Status:      domain.KYCPending,
		SubmittedAt: s.now(),
	}
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		if err := tx.KYC().Create(ctx, sub); err != nil {
			return fmt.Errorf("create submission: %w", err)
		}
		for i := range metas {
			if err := tx.Files().Insert(ctx, &metas[i]); err != nil {
				return fmt.Errorf("insert file metadata: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.files.discard(ctx, metas)
		s.logger.Error().Err(err).Int64("user_id", in.UserID).Msg("kyc upload failed")
		return nil, fmt.Errorf("upload kyc: %w", err)
	}

	s.logger.Info().Int64("user_id", in.UserID).Int64("kyc_id", sub.ID).Int("files", len(metas)).Msg("kyc submitted")
	return sub, nil
}

// KYCStatus returns the latest submission or domain.ErrKYCNotFound.
func (s *SellerService) KYCStatus(ctx context.Context, userID int64) (*domain.KYCSubmission, error) {
	k, err := s.store.KYC().Latest(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrKYCNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("kyc status: %w", err)
	}
	return k, nil
}

func (s *SellerService) SetWithdrawalMethod(ctx context.Context, userID int64, methodCode string, details json.RawMessage) (*domain.WithdrawalMethod, error) {
	methodCode = strings.TrimSpace(methodCode)
	if methodCode == "" || !hasDetails(details) {
		return nil, domain.ErrMissingFields
	}
	m := &domain.WithdrawalMethod{
		UserID:     userID,
		MethodCode: methodCode,
		Details:    details,
		Active:     true,
		UpdatedAt:  s.now(),
	}
	if err := s.store.Withdrawals().Upsert(ctx, m); err != nil {
		return nil, fmt.Errorf("set withdrawal method: %w", err)
	}
	s.logger.Info().Int64("user_id", userID).Str("method_code", methodCode).Msg("withdrawal method saved")
	return m, nil
}

// WithdrawalMethod returns the active method or domain.ErrWithdrawalMethodNotFound.
func (s *SellerService) WithdrawalMethod(ctx context.Context, userID int64) (*domain.WithdrawalMethod, error) {
	m, err := s.store.Withdrawals().FindActive(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrWithdrawalMethodNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get withdrawal method: %w", err)
	}
	return m, nil
}

func hasDetails(raw json.RawMessage) bool {
	v := strings.TrimSpace(string(raw))
	return v != "" && v != "null" && v != "{}" && v != "\"\""
}
