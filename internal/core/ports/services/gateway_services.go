package services

import (
	"context"

	"github.com/shopspring/decimal"
)

// AuthorizationResult is the outcome of an external authorization attempt.
type AuthorizationResult struct {
	Authorized        bool
	AuthorizationCode string
	DeclineReason     string
}

// CardGateway authorizes card payments. Real implementations are PCI-scoped
// collaborators outside this service; the core depends only on this contract.
// Implementations must honor ctx cancellation and deadlines.
type CardGateway interface {
	AuthorizeCard(ctx context.Context, amount decimal.Decimal, cardNumber, cardType string) (AuthorizationResult, error)
}

// MobileMoneyGateway authorizes mobile-money payments (e.g. M-Pesa). The core
// depends only on the abstract contract, never on the wire format.
type MobileMoneyGateway interface {
	AuthorizeMobile(ctx context.Context, amount decimal.Decimal, phoneNumber string) (AuthorizationResult, error)
}

// EventPublisher emits payment lifecycle events for downstream consumers.
// Publishing is best-effort: a publish failure never fails the payment.
type EventPublisher interface {
	PublishPaymentCompleted(ctx context.Context, event any) error
}
