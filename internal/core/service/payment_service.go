package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/domain"
	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/ports"
)

// PaymentMethodService serves the payment method catalogue.
type PaymentMethodService struct {
	repo   ports.PaymentMethodRepository
	logger zerolog.Logger
}

func NewPaymentMethodService(repo ports.PaymentMethodRepository, logger zerolog.Logger) *PaymentMethodService {
	return &PaymentMethodService{repo: repo, logger: logger}
}

// List never fails: an unreadable or empty catalogue falls back to the defaults.
func (s *PaymentMethodService) List(ctx context.Context) []domain.PaymentMethod {
	methods, err := s.repo.ListActive(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("payment methods unavailable, serving defaults")
		return domain.DefaultPaymentMethods()
	}
	if len(methods) == 0 {
		return domain.DefaultPaymentMethods()
	}
	return methods
}
