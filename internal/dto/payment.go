package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wekesadev/pos_payments_backend/internal/core/domain"
)

// CashPaymentRequest defines the data needed to take a cash payment.
type CashPaymentRequest struct {
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	Tendered       decimal.Decimal `json:"tendered" binding:"required"`
	TerminalID     string          `json:"-"` // from auth context
	IdempotencyKey string          `json:"-"` // from Idempotency-Key header
}

// CardPaymentRequest defines the data needed to take a card payment.
// Card details never reach the ledger; they are validated, forwarded to the
// gateway, and discarded.
type CardPaymentRequest struct {
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	CardNumber     string          `json:"cardNumber" binding:"required"`
	Expiry         string          `json:"expiry" binding:"required"`
	CVV            string          `json:"cvv" binding:"required"`
	CardType       string          `json:"cardType" binding:"required,oneof=VISA MASTERCARD AMEX"`
	TerminalID     string          `json:"-"`
	IdempotencyKey string          `json:"-"`
}

// MobilePaymentRequest defines the data needed to take a mobile-money payment.
type MobilePaymentRequest struct {
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	PhoneNumber    string          `json:"phoneNumber" binding:"required,numeric,min=10,max=13"`
	TerminalID     string          `json:"-"`
	IdempotencyKey string          `json:"-"`
}

// PaymentResponse is the receipt data for a single payment.
type PaymentResponse struct {
	PaymentID         int64                `json:"paymentID"`
	TerminalID        string               `json:"terminalID"`
	Method            domain.PaymentMethod `json:"method"`
	Amount            decimal.Decimal      `json:"amount"`
	Tendered          *decimal.Decimal     `json:"tendered,omitempty"`
	ChangeDue         *decimal.Decimal     `json:"changeDue,omitempty"`
	Status            domain.PaymentStatus `json:"status"`
	FailureReason     string               `json:"failureReason,omitempty"`
	AuthorizationCode string               `json:"authorizationCode"`
	CreatedAt         time.Time            `json:"createdAt"`
}

// ToPaymentResponse converts a domain.Payment to its response DTO.
func ToPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		PaymentID:         p.PaymentID,
		TerminalID:        p.TerminalID,
		Method:            p.Method,
		Amount:            p.Amount,
		Tendered:          p.Tendered,
		ChangeDue:         p.ChangeDue,
		Status:            p.Status,
		FailureReason:     string(p.FailureReason),
		AuthorizationCode: p.AuthorizationCode,
		CreatedAt:         p.CreatedAt,
	}
}

// ToListPaymentResponse converts a slice of domain.Payment to response DTOs.
func ToListPaymentResponse(payments []domain.Payment) []PaymentResponse {
	res := make([]PaymentResponse, len(payments))
	for i := range payments {
		res[i] = ToPaymentResponse(&payments[i])
	}
	return res
}

// ListPaymentsParams defines query parameters for listing ledger records.
type ListPaymentsParams struct {
	Method string     `form:"method" binding:"omitempty,oneof=CASH CARD MOBILE"`
	Status string     `form:"status" binding:"omitempty,oneof=COMPLETED FAILED PARTIALLY_TENDERED"`
	From   *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To     *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Limit  int        `form:"limit,default=50"`
	Offset int        `form:"offset,default=0"`
}

// ListPaymentsResponse wraps the list of ledger records.
type ListPaymentsResponse struct {
	Payments []PaymentResponse `json:"payments"`
}
