// Package simulated provides instant, in-process gateways. They stand in for
// the real PCI-scoped collaborators in development and in the demo
// configuration; tests inject them to exercise payment flows without a
// network.
package simulated

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	portssvc "github.com/wekesadev/pos_payments_backend/internal/core/ports/services"
	"github.com/wekesadev/pos_payments_backend/internal/utils"
)

// CardGateway authorizes every card payment instantly.
type CardGateway struct{}

func NewCardGateway() *CardGateway {
	return &CardGateway{}
}

var _ portssvc.CardGateway = (*CardGateway)(nil)

func (g *CardGateway) AuthorizeCard(ctx context.Context, amount decimal.Decimal, cardNumber, cardType string) (portssvc.AuthorizationResult, error) {
	if err := ctx.Err(); err != nil {
		return portssvc.AuthorizationResult{}, err
	}
	code, err := utils.GenerateAuthorizationCode("AUTH")
	if err != nil {
		return portssvc.AuthorizationResult{}, fmt.Errorf("simulated card gateway: %w", err)
	}
	return portssvc.AuthorizationResult{Authorized: true, AuthorizationCode: code}, nil
}

// MobileMoneyGateway authorizes every mobile payment instantly with an
// MP-prefixed code, matching the shape real gateway confirmations use.
type MobileMoneyGateway struct{}

func NewMobileMoneyGateway() *MobileMoneyGateway {
	return &MobileMoneyGateway{}
}

var _ portssvc.MobileMoneyGateway = (*MobileMoneyGateway)(nil)

func (g *MobileMoneyGateway) AuthorizeMobile(ctx context.Context, amount decimal.Decimal, phoneNumber string) (portssvc.AuthorizationResult, error) {
	if err := ctx.Err(); err != nil {
		return portssvc.AuthorizationResult{}, err
	}
	code, err := utils.GenerateAuthorizationCode("MP")
	if err != nil {
		return portssvc.AuthorizationResult{}, fmt.Errorf("simulated mobile gateway: %w", err)
	}
	return portssvc.AuthorizationResult{Authorized: true, AuthorizationCode: code}, nil
}
