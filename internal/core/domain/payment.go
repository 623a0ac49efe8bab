package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod identifies how a payment was tendered.
type PaymentMethod string

const (
	MethodCash   PaymentMethod = "CASH"
	MethodCard   PaymentMethod = "CARD"
	MethodMobile PaymentMethod = "MOBILE"
)

// PaymentStatus is the lifecycle state of a payment.
type PaymentStatus string

const (
	StatusInitiated   PaymentStatus = "INITIATED"
	StatusAuthorizing PaymentStatus = "AUTHORIZING"
	StatusCompleted   PaymentStatus = "COMPLETED"
	StatusFailed      PaymentStatus = "FAILED"
	// StatusPartiallyTendered is the terminal outcome for a cash payment where
	// the customer tendered less than the amount due. It is deliberately
	// distinct from FAILED: the sale is not void, the customer still owes the
	// (negative) change recorded on the payment.
	StatusPartiallyTendered PaymentStatus = "PARTIALLY_TENDERED"
)

// FailureReason qualifies a FAILED or PARTIALLY_TENDERED status.
type FailureReason string

const (
	ReasonNone               FailureReason = ""
	ReasonDeclined           FailureReason = "DECLINED"
	ReasonTimeout            FailureReason = "TIMEOUT"
	ReasonInsufficientTender FailureReason = "INSUFFICIENT_TENDER"
)

// NoAuthorizationCode is recorded for cash payments and for every
// non-completed record.
const NoAuthorizationCode = "N/A"

// allowedTransitions defines the valid lifecycle transitions.
// The key is the current status, the value the set of valid targets.
var allowedTransitions = map[PaymentStatus][]PaymentStatus{
	StatusInitiated: {
		StatusAuthorizing,
		StatusCompleted,
		StatusPartiallyTendered,
		StatusFailed,
	},
	StatusAuthorizing: {
		StatusCompleted,
		StatusFailed,
	},
	StatusCompleted:         {}, // Terminal
	StatusFailed:            {}, // Terminal
	StatusPartiallyTendered: {}, // Terminal
}

// IsTerminal reports whether no transition leaves the status.
func (s PaymentStatus) IsTerminal() bool {
	targets, ok := allowedTransitions[s]
	return ok && len(targets) == 0
}

// CanTransition checks if a transition from one status to another is allowed.
func CanTransition(from, to PaymentStatus) bool {
	for _, target := range allowedTransitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// Payment is a single point-of-sale payment. It starts as an in-progress
// authorization request and becomes an immutable ledger record once it
// reaches a terminal status.
type Payment struct {
	PaymentID         int64            `json:"paymentID"`
	TerminalID        string           `json:"terminalID"`
	Method            PaymentMethod    `json:"method"`
	Amount            decimal.Decimal  `json:"amount"`
	Tendered          *decimal.Decimal `json:"tendered,omitempty"`  // Cash only
	ChangeDue         *decimal.Decimal `json:"changeDue,omitempty"` // Cash only; negative when the customer still owes
	PhoneNumber       string           `json:"phoneNumber,omitempty"`
	CardType          string           `json:"cardType,omitempty"`
	Status            PaymentStatus    `json:"status"`
	FailureReason     FailureReason    `json:"failureReason,omitempty"`
	AuthorizationCode string           `json:"authorizationCode"`
	IdempotencyKey    string           `json:"idempotencyKey,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
}

// TransitionTo moves the payment to the next status, enforcing the
// transition table. Terminal statuses are absorbing.
func (p *Payment) TransitionTo(next PaymentStatus) error {
	if !CanTransition(p.Status, next) {
		return fmt.Errorf("invalid payment status transition %s -> %s", p.Status, next)
	}
	p.Status = next
	return nil
}
