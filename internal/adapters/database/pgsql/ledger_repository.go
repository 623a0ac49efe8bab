package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wekesadev/pos_payments_backend/internal/apperrors"
	"github.com/wekesadev/pos_payments_backend/internal/core/domain"
	portsrepo "github.com/wekesadev/pos_payments_backend/internal/core/ports/repositories"
)

// uniqueViolation is the Postgres error code for unique constraint breaches.
const uniqueViolation = "23505"

type PgxLedgerRepository struct {
	pool *pgxpool.Pool
}

// NewPgxLedgerRepository creates a Postgres-backed transaction ledger.
func NewPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepository {
	return &PgxLedgerRepository{pool: pool}
}

var _ portsrepo.LedgerRepository = (*PgxLedgerRepository)(nil)

const paymentColumns = `payment_id, terminal_id, method, amount, tendered, change_due, phone_number, card_type, status, failure_reason, authorization_code, idempotency_key, created_at`

// AppendPayment inserts a terminal-state payment. The table carries no update
// path; the unique indexes on payment_id and idempotency_key turn duplicate
// commits into apperrors.ErrDuplicate.
func (r *PgxLedgerRepository) AppendPayment(ctx context.Context, payment domain.Payment) error {
	if !payment.Status.IsTerminal() {
		return apperrors.ErrInvalidState
	}

	query := `
		INSERT INTO transactions (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := r.pool.Exec(ctx, query,
		payment.PaymentID,
		payment.TerminalID,
		payment.Method,
		payment.Amount,
		payment.Tendered,
		payment.ChangeDue,
		nullableString(payment.PhoneNumber),
		nullableString(payment.CardType),
		payment.Status,
		string(payment.FailureReason),
		payment.AuthorizationCode,
		nullableString(payment.IdempotencyKey),
		payment.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("failed to insert payment %d: %w", payment.PaymentID, err)
	}
	return nil
}

// FindPaymentByID retrieves a ledger record by payment id.
func (r *PgxLedgerRepository) FindPaymentByID(ctx context.Context, paymentID int64) (*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM transactions
		WHERE payment_id = $1;
	`
	payment, err := scanPayment(r.pool.QueryRow(ctx, query, paymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Map db not found error to application specific error
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find payment by ID %d: %w", paymentID, err)
	}
	return payment, nil
}

// FindPaymentByIdempotencyKey retrieves the record committed under a key.
func (r *PgxLedgerRepository) FindPaymentByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM transactions
		WHERE idempotency_key = $1;
	`
	payment, err := scanPayment(r.pool.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find payment by idempotency key: %w", err)
	}
	return payment, nil
}

// ListPayments returns ledger records in insertion (payment id) order,
// narrowed by the optional filters.
func (r *PgxLedgerRepository) ListPayments(ctx context.Context, filter portsrepo.ListPaymentsFilter) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM transactions`

	var conditions []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Method != nil {
		conditions = append(conditions, "method = "+arg(*filter.Method))
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = "+arg(*filter.Status))
	}
	if filter.From != nil {
		conditions = append(conditions, "created_at >= "+arg(*filter.From))
	}
	if filter.To != nil {
		conditions = append(conditions, "created_at <= "+arg(*filter.To))
	}

	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}

	query += " ORDER BY payment_id"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger records: %w", err)
	}
	defer rows.Close()

	payments := []domain.Payment{}
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger record: %w", err)
		}
		payments = append(payments, *payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger records: %w", err)
	}
	return payments, nil
}

// MaxPaymentID returns the highest committed payment id, or 0 for an empty
// ledger. Used to seed the id generator on startup.
func (r *PgxLedgerRepository) MaxPaymentID(ctx context.Context) (int64, error) {
	var max int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(MAX(payment_id), 0) FROM transactions;`).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to query max payment id: %w", err)
	}
	return max, nil
}

// scanPayment reads one ledger row.
func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var payment domain.Payment
	var phoneNumber, cardType, idempotencyKey *string
	var failureReason string

	if err := row.Scan(
		&payment.PaymentID,
		&payment.TerminalID,
		&payment.Method,
		&payment.Amount,
		&payment.Tendered,
		&payment.ChangeDue,
		&phoneNumber,
		&cardType,
		&payment.Status,
		&failureReason,
		&payment.AuthorizationCode,
		&idempotencyKey,
		&payment.CreatedAt,
	); err != nil {
		return nil, err
	}

	payment.FailureReason = domain.FailureReason(failureReason)
	if phoneNumber != nil {
		payment.PhoneNumber = *phoneNumber
	}
	if cardType != nil {
		payment.CardType = *cardType
	}
	if idempotencyKey != nil {
		payment.IdempotencyKey = *idempotencyKey
	}
	return &payment, nil
}

// nullableString maps "" to NULL so the partial unique index on
// idempotency_key ignores payments committed without a key.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
