package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wekesadev/pos_payments_backend/internal/apperrors"
	"github.com/wekesadev/pos_payments_backend/internal/core/domain"
	portsrepo "github.com/wekesadev/pos_payments_backend/internal/core/ports/repositories"
	portssvc "github.com/wekesadev/pos_payments_backend/internal/core/ports/services"
	"github.com/wekesadev/pos_payments_backend/internal/dto"
	"github.com/wekesadev/pos_payments_backend/internal/middleware"
	"github.com/wekesadev/pos_payments_backend/internal/utils"
)

var (
	ErrNegativeAmount = errors.New("payment amount must not be negative")
)

// CardRejectedError reports card details that failed pre-authorization
// validation. No payment id is consumed and nothing is written to the ledger;
// a rejection is not a transaction.
type CardRejectedError struct {
	Reason CardValidationReason
}

func (e *CardRejectedError) Error() string {
	return fmt.Sprintf("card details rejected: %s", e.Reason)
}

func (e *CardRejectedError) Unwrap() error {
	return apperrors.ErrValidation
}

// paymentService orchestrates the three payment flows: it drives each payment
// through its lifecycle, delegates authorization to the method's gateway, and
// commits exactly one terminal record per logical payment to the ledger.
type paymentService struct {
	ledgerRepo    portsrepo.LedgerRepository
	idGen         *IDGenerator
	cardValidator *CardValidator
	cardGateway   portssvc.CardGateway
	mobileGateway portssvc.MobileMoneyGateway
	publisher     portssvc.EventPublisher
	authTimeout   time.Duration
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	ledgerRepo portsrepo.LedgerRepository,
	idGen *IDGenerator,
	cardGateway portssvc.CardGateway,
	mobileGateway portssvc.MobileMoneyGateway,
	publisher portssvc.EventPublisher,
	authTimeout time.Duration,
) portssvc.PaymentSvcFacade {
	return &paymentService{
		ledgerRepo:    ledgerRepo,
		idGen:         idGen,
		cardValidator: NewCardValidator(),
		cardGateway:   cardGateway,
		mobileGateway: mobileGateway,
		publisher:     publisher,
		authTimeout:   authTimeout,
	}
}

// Ensure paymentService implements the portssvc.PaymentSvcFacade interface
var _ portssvc.PaymentSvcFacade = (*paymentService)(nil)

// ProcessCash takes a cash payment. Change is tendered minus amount; a
// negative change is a valid business outcome (the customer still owes),
// recorded as PARTIALLY_TENDERED rather than treated as an error.
func (s *paymentService) ProcessCash(ctx context.Context, req dto.CashPaymentRequest) (*domain.Payment, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	amount := req.Amount.Round(2)
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, ErrNegativeAmount)
	}
	tendered := req.Tendered.Round(2)

	if existing, err := s.findCommitted(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	} else if existing != nil {
		logger.Info("Returning previously committed cash payment for idempotency key", slog.Int64("payment_id", existing.PaymentID))
		return existing, nil
	}

	payment, err := s.newPayment(domain.MethodCash, amount, req.TerminalID, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	change := tendered.Sub(amount)
	payment.Tendered = &tendered
	payment.ChangeDue = &change

	if change.IsNegative() {
		payment.FailureReason = domain.ReasonInsufficientTender
		if err := payment.TransitionTo(domain.StatusPartiallyTendered); err != nil {
			return nil, err
		}
		logger.Info("Cash payment short-tendered",
			slog.Int64("payment_id", payment.PaymentID),
			slog.String("owed", change.Neg().String()))
	} else {
		if err := payment.TransitionTo(domain.StatusCompleted); err != nil {
			return nil, err
		}
	}

	return s.commit(ctx, payment)
}

// ProcessCard takes a card payment. Card details are validated before any id
// is drawn or ledger write attempted; a validation failure returns a
// CardRejectedError and leaves no trace.
func (s *paymentService) ProcessCard(ctx context.Context, req dto.CardPaymentRequest) (*domain.Payment, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if res := s.cardValidator.Validate(req.CardNumber, req.Expiry, req.CVV); !res.OK {
		logger.Warn("Card details rejected before authorization", slog.String("reason", string(res.Reason)))
		return nil, &CardRejectedError{Reason: res.Reason}
	}

	amount := req.Amount.Round(2)
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, ErrNegativeAmount)
	}

	if existing, err := s.findCommitted(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	} else if existing != nil {
		logger.Info("Returning previously committed card payment for idempotency key", slog.Int64("payment_id", existing.PaymentID))
		return existing, nil
	}

	payment, err := s.newPayment(domain.MethodCard, amount, req.TerminalID, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	payment.CardType = req.CardType

	if err := payment.TransitionTo(domain.StatusAuthorizing); err != nil {
		return nil, err
	}

	result, authErr := s.authorize(ctx, func(authCtx context.Context) (portssvc.AuthorizationResult, error) {
		return s.cardGateway.AuthorizeCard(authCtx, amount, req.CardNumber, req.CardType)
	})
	if err := s.settleAuthorization(ctx, payment, result, authErr, "AUTH"); err != nil {
		return nil, err
	}

	return s.commit(ctx, payment)
}

// ProcessMobile takes a mobile-money payment, delegating authorization to the
// external gateway within the configured timeout.
func (s *paymentService) ProcessMobile(ctx context.Context, req dto.MobilePaymentRequest) (*domain.Payment, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	amount := req.Amount.Round(2)
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, ErrNegativeAmount)
	}

	if existing, err := s.findCommitted(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	} else if existing != nil {
		logger.Info("Returning previously committed mobile payment for idempotency key", slog.Int64("payment_id", existing.PaymentID))
		return existing, nil
	}

	payment, err := s.newPayment(domain.MethodMobile, amount, req.TerminalID, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	payment.PhoneNumber = req.PhoneNumber

	if err := payment.TransitionTo(domain.StatusAuthorizing); err != nil {
		return nil, err
	}

	result, authErr := s.authorize(ctx, func(authCtx context.Context) (portssvc.AuthorizationResult, error) {
		return s.mobileGateway.AuthorizeMobile(authCtx, amount, req.PhoneNumber)
	})
	if err := s.settleAuthorization(ctx, payment, result, authErr, "MP"); err != nil {
		return nil, err
	}

	return s.commit(ctx, payment)
}

// newPayment draws a fresh id and builds an INITIATED payment. Id exhaustion
// is escalated, never wrapped silently.
func (s *paymentService) newPayment(method domain.PaymentMethod, amount decimal.Decimal, terminalID, idempotencyKey string) (*domain.Payment, error) {
	id, err := s.idGen.Next()
	if err != nil {
		return nil, fmt.Errorf("cannot start %s payment: %w", method, err)
	}
	return &domain.Payment{
		PaymentID:         id,
		TerminalID:        terminalID,
		Method:            method,
		Amount:            amount,
		Status:            domain.StatusInitiated,
		AuthorizationCode: domain.NoAuthorizationCode,
		IdempotencyKey:    idempotencyKey,
		CreatedAt:         time.Now().UTC(),
	}, nil
}

// authorize runs a gateway call under the configured deadline. The ledger and
// id generator hold no locks across this call, so a slow gateway never blocks
// other terminals.
func (s *paymentService) authorize(ctx context.Context, call func(context.Context) (portssvc.AuthorizationResult, error)) (portssvc.AuthorizationResult, error) {
	authCtx, cancel := context.WithTimeout(ctx, s.authTimeout)
	defer cancel()
	return call(authCtx)
}

// settleAuthorization moves an AUTHORIZING payment to its terminal status
// based on the gateway outcome.
func (s *paymentService) settleAuthorization(ctx context.Context, payment *domain.Payment, result portssvc.AuthorizationResult, authErr error, codePrefix string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	switch {
	case authErr != nil:
		payment.FailureReason = domain.ReasonDeclined
		if errors.Is(authErr, context.DeadlineExceeded) || errors.Is(authErr, apperrors.ErrGatewayTimeout) {
			payment.FailureReason = domain.ReasonTimeout
		}
		logger.Warn("Gateway authorization failed",
			slog.Int64("payment_id", payment.PaymentID),
			slog.String("reason", string(payment.FailureReason)),
			slog.String("error", authErr.Error()))
		return payment.TransitionTo(domain.StatusFailed)

	case !result.Authorized:
		payment.FailureReason = domain.ReasonDeclined
		logger.Warn("Gateway declined authorization",
			slog.Int64("payment_id", payment.PaymentID),
			slog.String("decline_reason", result.DeclineReason))
		return payment.TransitionTo(domain.StatusFailed)

	default:
		code := result.AuthorizationCode
		if code == "" {
			generated, err := utils.GenerateAuthorizationCode(codePrefix)
			if err != nil {
				return fmt.Errorf("failed to assign authorization code for payment %d: %w", payment.PaymentID, err)
			}
			code = generated
		}
		payment.AuthorizationCode = code
		return payment.TransitionTo(domain.StatusCompleted)
	}
}

// findCommitted resolves an idempotency key to its committed record, if any.
func (s *paymentService) findCommitted(ctx context.Context, key string) (*domain.Payment, error) {
	if key == "" {
		return nil, nil
	}
	existing, err := s.ledgerRepo.FindPaymentByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	return existing, nil
}

// commit appends the terminal record to the ledger. A duplicate-key append
// means a concurrent retry won the race; the committed record is returned so
// the caller still sees exactly one transaction.
func (s *paymentService) commit(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.ledgerRepo.AppendPayment(ctx, *payment); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) && payment.IdempotencyKey != "" {
			existing, findErr := s.ledgerRepo.FindPaymentByIdempotencyKey(ctx, payment.IdempotencyKey)
			if findErr == nil {
				logger.Info("Concurrent retry already committed this payment", slog.Int64("payment_id", existing.PaymentID))
				return existing, nil
			}
		}
		return nil, fmt.Errorf("failed to append payment %d to ledger: %w", payment.PaymentID, err)
	}

	logger.Info("Payment committed to ledger",
		slog.Int64("payment_id", payment.PaymentID),
		slog.String("method", string(payment.Method)),
		slog.String("status", string(payment.Status)))

	if payment.Status == domain.StatusCompleted && s.publisher != nil {
		event := domain.PaymentCompletedEvent{
			PaymentID:         payment.PaymentID,
			TerminalID:        payment.TerminalID,
			Method:            payment.Method,
			Amount:            payment.Amount,
			AuthorizationCode: payment.AuthorizationCode,
			CompletedAt:       payment.CreatedAt,
		}
		if err := s.publisher.PublishPaymentCompleted(ctx, event); err != nil {
			// Best-effort: the ledger record is already durable.
			logger.Error("Failed to publish payment completed event",
				slog.Int64("payment_id", payment.PaymentID),
				slog.String("error", err.Error()))
		}
	}

	return payment, nil
}
