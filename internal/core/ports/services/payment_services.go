package services

import (
	"context"

	"github.com/wekesadev/pos_payments_backend/internal/core/domain"
	"github.com/wekesadev/pos_payments_backend/internal/dto"
)

// PaymentSvcFacade is the processor's surface: the three entry points a
// terminal can invoke. Each successful call commits exactly one record to
// the ledger; retries with the same idempotency key return the already
// committed record instead of producing a duplicate.
type PaymentSvcFacade interface {
	ProcessCash(ctx context.Context, req dto.CashPaymentRequest) (*domain.Payment, error)
	ProcessCard(ctx context.Context, req dto.CardPaymentRequest) (*domain.Payment, error)
	ProcessMobile(ctx context.Context, req dto.MobilePaymentRequest) (*domain.Payment, error)
}

// LedgerSvcFacade is the read surface for the reporting/HTTP layer.
type LedgerSvcFacade interface {
	GetPaymentByID(ctx context.Context, paymentID int64) (*domain.Payment, error)
	ListPayments(ctx context.Context, params dto.ListPaymentsParams) ([]domain.Payment, error)
}

// AuthSvcFacade authenticates POS terminals and issues session tokens.
type AuthSvcFacade interface {
	LoginTerminal(ctx context.Context, terminalID, secret string) (token string, err error)
}
