package memory

import (
	"context"
	"sync"

	"github.com/wekesadev/pos_payments_backend/internal/apperrors"
	"github.com/wekesadev/pos_payments_backend/internal/core/domain"
	portsrepo "github.com/wekesadev/pos_payments_backend/internal/core/ports/repositories"
)

// LedgerRepository is an in-memory, append-only implementation of the ledger.
// It backs the service when no database is configured and is the fixture for
// service tests. Appends are serialized; reads copy, so callers never observe
// a partially constructed record and cannot mutate committed state.
type LedgerRepository struct {
	mu       sync.RWMutex
	payments []domain.Payment
	byID     map[int64]int  // payment id -> index into payments
	byKey    map[string]int // idempotency key -> index into payments
}

// NewLedgerRepository creates an empty in-memory ledger.
func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{
		byID:  make(map[int64]int),
		byKey: make(map[string]int),
	}
}

var _ portsrepo.LedgerRepository = (*LedgerRepository)(nil)

// AppendPayment commits a terminal-state payment. The append is the sole
// mutation; there is no update or delete.
func (r *LedgerRepository) AppendPayment(ctx context.Context, payment domain.Payment) error {
	if !payment.Status.IsTerminal() {
		return apperrors.ErrInvalidState
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[payment.PaymentID]; exists {
		return apperrors.ErrDuplicate
	}
	if payment.IdempotencyKey != "" {
		if _, exists := r.byKey[payment.IdempotencyKey]; exists {
			return apperrors.ErrDuplicate
		}
	}

	r.payments = append(r.payments, payment)
	idx := len(r.payments) - 1
	r.byID[payment.PaymentID] = idx
	if payment.IdempotencyKey != "" {
		r.byKey[payment.IdempotencyKey] = idx
	}
	return nil
}

// FindPaymentByID retrieves a committed record by payment id.
func (r *LedgerRepository) FindPaymentByID(ctx context.Context, paymentID int64) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byID[paymentID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	payment := r.payments[idx]
	return &payment, nil
}

// FindPaymentByIdempotencyKey retrieves the record committed under a key.
func (r *LedgerRepository) FindPaymentByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byKey[key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	payment := r.payments[idx]
	return &payment, nil
}

// ListPayments returns records in insertion order. Re-querying the same
// ledger state yields the same sequence.
func (r *LedgerRepository) ListPayments(ctx context.Context, filter portsrepo.ListPaymentsFilter) ([]domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]domain.Payment, 0, len(r.payments))
	for _, p := range r.payments {
		if filter.Method != nil && p.Method != *filter.Method {
			continue
		}
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.From != nil && p.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && p.CreatedAt.After(*filter.To) {
			continue
		}
		matched = append(matched, p)
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []domain.Payment{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	// copy so callers can't alias internal state
	out := make([]domain.Payment, len(matched))
	copy(out, matched)
	return out, nil
}

// MaxPaymentID returns the highest committed payment id, or 0 when empty.
func (r *LedgerRepository) MaxPaymentID(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var max int64
	for id := range r.byID {
		if id > max {
			max = id
		}
	}
	return max, nil
}

// Len reports the number of committed records. Test helper.
func (r *LedgerRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.payments)
}
