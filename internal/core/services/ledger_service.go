package services

import (
	"context"
	"fmt"

	"github.com/wekesadev/pos_payments_backend/internal/core/domain"
	portsrepo "github.com/wekesadev/pos_payments_backend/internal/core/ports/repositories"
	portssvc "github.com/wekesadev/pos_payments_backend/internal/core/ports/services"
	"github.com/wekesadev/pos_payments_backend/internal/dto"
)

// ledgerService is the read surface over the transaction ledger for the
// reporting/HTTP layer.
type ledgerService struct {
	ledgerRepo portsrepo.LedgerReader
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(ledgerRepo portsrepo.LedgerReader) portssvc.LedgerSvcFacade {
	return &ledgerService{ledgerRepo: ledgerRepo}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// GetPaymentByID retrieves a single ledger record.
func (s *ledgerService) GetPaymentByID(ctx context.Context, paymentID int64) (*domain.Payment, error) {
	payment, err := s.ledgerRepo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// ListPayments returns ledger records in insertion order, narrowed by the
// optional method/status/time-range filters.
func (s *ledgerService) ListPayments(ctx context.Context, params dto.ListPaymentsParams) ([]domain.Payment, error) {
	filter := portsrepo.ListPaymentsFilter{
		From:   params.From,
		To:     params.To,
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	if params.Method != "" {
		method := domain.PaymentMethod(params.Method)
		filter.Method = &method
	}
	if params.Status != "" {
		status := domain.PaymentStatus(params.Status)
		filter.Status = &status
	}

	payments, err := s.ledgerRepo.ListPayments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger records: %w", err)
	}
	return payments, nil
}
