// Package daraja implements the mobile-money gateway contract against a
// Daraja-style HTTP/JSON payment API. The core never sees the wire format;
// only this adapter does.
package daraja

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	portssvc "github.com/wekesadev/pos_payments_backend/internal/core/ports/services"
)

type paymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	PhoneNumber string          `json:"phoneNumber"`
	Description string          `json:"description"`
}

type paymentResponse struct {
	Success           bool   `json:"success"`
	AuthorizationCode string `json:"authorizationCode"`
	Reason            string `json:"reason"`
}

// Gateway authorizes mobile-money payments over HTTP. The per-request
// deadline comes from the caller's context; the embedded client timeout is a
// backstop for callers that forget one.
type Gateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewGateway creates a mobile-money gateway client.
func NewGateway(baseURL, apiKey string, timeout time.Duration) *Gateway {
	return &Gateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

var _ portssvc.MobileMoneyGateway = (*Gateway)(nil)

// AuthorizeMobile submits the payment for authorization. A declined payment
// is reported in the result, not as an error; transport failures and context
// deadlines surface as errors for the caller to classify.
func (g *Gateway) AuthorizeMobile(ctx context.Context, amount decimal.Decimal, phoneNumber string) (portssvc.AuthorizationResult, error) {
	body, err := json.Marshal(paymentRequest{
		Amount:      amount,
		Currency:    "KES",
		PhoneNumber: phoneNumber,
		Description: "POS Payment",
	})
	if err != nil {
		return portssvc.AuthorizationResult{}, fmt.Errorf("failed to encode authorization request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return portssvc.AuthorizationResult{}, fmt.Errorf("failed to build authorization request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return portssvc.AuthorizationResult{}, fmt.Errorf("mobile gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return portssvc.AuthorizationResult{}, fmt.Errorf("mobile gateway returned status %d", resp.StatusCode)
	}

	var payload paymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return portssvc.AuthorizationResult{}, fmt.Errorf("failed to decode gateway response: %w", err)
	}

	return portssvc.AuthorizationResult{
		Authorized:        payload.Success,
		AuthorizationCode: payload.AuthorizationCode,
		DeclineReason:     payload.Reason,
	}, nil
}
