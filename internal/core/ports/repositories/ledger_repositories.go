package repositories

import (
	"context"
	"time"

	"github.com/wekesadev/pos_payments_backend/internal/core/domain"
)

// ListPaymentsFilter narrows a ledger listing. Nil fields are ignored.
type ListPaymentsFilter struct {
	Method *domain.PaymentMethod
	Status *domain.PaymentStatus
	From   *time.Time // inclusive
	To     *time.Time // inclusive
	Limit  int
	Offset int
}

// LedgerReader defines the read surface of the transaction ledger.
type LedgerReader interface {
	// FindPaymentByID retrieves a single ledger record by its payment id.
	// Returns apperrors.ErrNotFound if no record exists.
	FindPaymentByID(ctx context.Context, paymentID int64) (*domain.Payment, error)

	// FindPaymentByIdempotencyKey retrieves the record committed under a
	// caller-supplied idempotency key, or apperrors.ErrNotFound.
	FindPaymentByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error)

	// ListPayments returns ledger records in insertion order. Re-querying
	// with the same filter against the same ledger state yields the same
	// sequence.
	ListPayments(ctx context.Context, filter ListPaymentsFilter) ([]domain.Payment, error)

	// MaxPaymentID returns the highest payment id ever appended, or 0 for an
	// empty ledger. Used to seed the id generator on startup.
	MaxPaymentID(ctx context.Context) (int64, error)
}

// LedgerWriter defines the sole mutation of the ledger: the append.
type LedgerWriter interface {
	// AppendPayment commits a terminal-state payment to the ledger.
	// It returns apperrors.ErrInvalidState if the payment is not in a
	// terminal status, and apperrors.ErrDuplicate if a record with the same
	// payment id or (non-empty) idempotency key already exists.
	// There is no update or delete; appended records are immutable.
	AppendPayment(ctx context.Context, payment domain.Payment) error
}

// LedgerRepository combines the read and write surfaces of the ledger.
type LedgerRepository interface {
	LedgerReader
	LedgerWriter
}
