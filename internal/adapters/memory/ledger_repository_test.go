package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wekesadev/pos_payments_backend/internal/adapters/memory"
	"github.com/wekesadev/pos_payments_backend/internal/apperrors"
	"github.com/wekesadev/pos_payments_backend/internal/core/domain"
	portsrepo "github.com/wekesadev/pos_payments_backend/internal/core/ports/repositories"
)

func completedPayment(id int64, method domain.PaymentMethod, createdAt time.Time) domain.Payment {
	return domain.Payment{
		PaymentID:         id,
		TerminalID:        "till-001",
		Method:            method,
		Amount:            decimal.NewFromFloat(100.00),
		Status:            domain.StatusCompleted,
		AuthorizationCode: "MP123456",
		CreatedAt:         createdAt,
	}
}

func TestAppendPayment_RejectsNonTerminal(t *testing.T) {
	repo := memory.NewLedgerRepository()

	p := completedPayment(1001, domain.MethodCash, time.Now())
	p.Status = domain.StatusAuthorizing

	err := repo.AppendPayment(context.Background(), p)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.Equal(t, 0, repo.Len())
}

func TestAppendPayment_ThenFindByID(t *testing.T) {
	repo := memory.NewLedgerRepository()
	ctx := context.Background()

	p := completedPayment(1001, domain.MethodCard, time.Now())
	require.NoError(t, repo.AppendPayment(ctx, p))

	found, err := repo.FindPaymentByID(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, p, *found)

	_, err = repo.FindPaymentByID(ctx, 9999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAppendPayment_DuplicateID(t *testing.T) {
	repo := memory.NewLedgerRepository()
	ctx := context.Background()

	require.NoError(t, repo.AppendPayment(ctx, completedPayment(1001, domain.MethodCash, time.Now())))
	err := repo.AppendPayment(ctx, completedPayment(1001, domain.MethodCash, time.Now()))
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
	assert.Equal(t, 1, repo.Len())
}

func TestAppendPayment_DuplicateIdempotencyKey(t *testing.T) {
	repo := memory.NewLedgerRepository()
	ctx := context.Background()

	first := completedPayment(1001, domain.MethodMobile, time.Now())
	first.IdempotencyKey = "retry-key-1"
	require.NoError(t, repo.AppendPayment(ctx, first))

	second := completedPayment(1002, domain.MethodMobile, time.Now())
	second.IdempotencyKey = "retry-key-1"
	err := repo.AppendPayment(ctx, second)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	found, err := repo.FindPaymentByIdempotencyKey(ctx, "retry-key-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1001), found.PaymentID)
}

func TestFindPaymentByID_ReturnsCopy(t *testing.T) {
	repo := memory.NewLedgerRepository()
	ctx := context.Background()

	original := completedPayment(1001, domain.MethodCard, time.Now())
	require.NoError(t, repo.AppendPayment(ctx, original))

	found, err := repo.FindPaymentByID(ctx, 1001)
	require.NoError(t, err)

	// Mutating the returned record must not affect the committed one.
	found.Status = domain.StatusFailed
	found.Amount = decimal.NewFromInt(1)

	again, err := repo.FindPaymentByID(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, again.Status)
	assert.True(t, again.Amount.Equal(original.Amount))
}

func TestListPayments_InsertionOrderAndRestartable(t *testing.T) {
	repo := memory.NewLedgerRepository()
	ctx := context.Background()

	base := time.Now()
	for i := int64(0); i < 5; i++ {
		require.NoError(t, repo.AppendPayment(ctx, completedPayment(1001+i, domain.MethodCash, base.Add(time.Duration(i)*time.Second))))
	}

	first, err := repo.ListPayments(ctx, portsrepo.ListPaymentsFilter{})
	require.NoError(t, err)
	require.Len(t, first, 5)
	for i := range first {
		assert.Equal(t, int64(1001+i), first[i].PaymentID)
	}

	// Re-querying the same state yields the same sequence.
	second, err := repo.ListPayments(ctx, portsrepo.ListPaymentsFilter{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestListPayments_Filters(t *testing.T) {
	repo := memory.NewLedgerRepository()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	cash := completedPayment(1001, domain.MethodCash, base)
	card := completedPayment(1002, domain.MethodCard, base.Add(time.Hour))
	failed := completedPayment(1003, domain.MethodMobile, base.Add(2*time.Hour))
	failed.Status = domain.StatusFailed
	failed.FailureReason = domain.ReasonTimeout
	failed.AuthorizationCode = domain.NoAuthorizationCode

	require.NoError(t, repo.AppendPayment(ctx, cash))
	require.NoError(t, repo.AppendPayment(ctx, card))
	require.NoError(t, repo.AppendPayment(ctx, failed))

	method := domain.MethodCard
	byMethod, err := repo.ListPayments(ctx, portsrepo.ListPaymentsFilter{Method: &method})
	require.NoError(t, err)
	require.Len(t, byMethod, 1)
	assert.Equal(t, int64(1002), byMethod[0].PaymentID)

	status := domain.StatusFailed
	byStatus, err := repo.ListPayments(ctx, portsrepo.ListPaymentsFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, int64(1003), byStatus[0].PaymentID)

	from := base.Add(30 * time.Minute)
	to := base.Add(90 * time.Minute)
	byRange, err := repo.ListPayments(ctx, portsrepo.ListPaymentsFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, byRange, 1)
	assert.Equal(t, int64(1002), byRange[0].PaymentID)
}

func TestMaxPaymentID(t *testing.T) {
	repo := memory.NewLedgerRepository()
	ctx := context.Background()

	max, err := repo.MaxPaymentID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), max)

	require.NoError(t, repo.AppendPayment(ctx, completedPayment(1004, domain.MethodCash, time.Now())))
	require.NoError(t, repo.AppendPayment(ctx, completedPayment(1002, domain.MethodCash, time.Now())))

	max, err = repo.MaxPaymentID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1004), max)
}
