package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentCompletedEvent is published after a completed payment has been
// committed to the ledger.
type PaymentCompletedEvent struct {
	PaymentID         int64           `json:"paymentID"`
	TerminalID        string          `json:"terminalID"`
	Method            PaymentMethod   `json:"method"`
	Amount            decimal.Decimal `json:"amount"`
	AuthorizationCode string          `json:"authorizationCode"`
	CompletedAt       time.Time       `json:"completedAt"`
}
