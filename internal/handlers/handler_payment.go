package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wekesadev/pos_payments_backend/internal/apperrors"
	portssvc "github.com/wekesadev/pos_payments_backend/internal/core/ports/services"
	"github.com/wekesadev/pos_payments_backend/internal/core/services"
	"github.com/wekesadev/pos_payments_backend/internal/dto"
	"github.com/wekesadev/pos_payments_backend/internal/middleware"
)

// ErrorResponse is a generic error response structure for handlers.
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// paymentHandler handles HTTP requests for the three payment flows.
type paymentHandler struct {
	paymentService portssvc.PaymentSvcFacade
}

// NewPaymentHandler creates a new paymentHandler.
func NewPaymentHandler(paymentService portssvc.PaymentSvcFacade) *paymentHandler {
	return &paymentHandler{paymentService: paymentService}
}

// ProcessCash godoc
// @Summary Take a cash payment
// @Description Records a cash payment. Short tender is a valid outcome reported as PARTIALLY_TENDERED with a negative changeDue.
// @Tags payments
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Caller-supplied retry token"
// @Param payment body dto.CashPaymentRequest true "Cash payment"
// @Success 200 {object} dto.PaymentResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /payments/cash [post]
func (h *paymentHandler) ProcessCash(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CashPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for ProcessCash", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format"})
		return
	}
	h.fillCallContext(c, &req.TerminalID, &req.IdempotencyKey)

	payment, err := h.paymentService.ProcessCash(c.Request.Context(), req)
	if err != nil {
		h.writeProcessError(c, err, "cash")
		return
	}

	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}

// ProcessCard godoc
// @Summary Take a card payment
// @Description Validates the card details, authorizes through the card gateway, and commits the outcome to the ledger. Rejected card details produce no transaction.
// @Tags payments
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Caller-supplied retry token"
// @Param payment body dto.CardPaymentRequest true "Card payment"
// @Success 200 {object} dto.PaymentResponse
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse "Card details rejected"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /payments/card [post]
func (h *paymentHandler) ProcessCard(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CardPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for ProcessCard", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format"})
		return
	}
	h.fillCallContext(c, &req.TerminalID, &req.IdempotencyKey)

	payment, err := h.paymentService.ProcessCard(c.Request.Context(), req)
	if err != nil {
		var rejected *services.CardRejectedError
		if errors.As(err, &rejected) {
			logger.Warn("Card payment rejected", slog.String("reason", string(rejected.Reason)))
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "Card details rejected", Reason: string(rejected.Reason)})
			return
		}
		h.writeProcessError(c, err, "card")
		return
	}

	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}

// ProcessMobile godoc
// @Summary Take a mobile-money payment
// @Description Authorizes through the mobile-money gateway within the configured timeout and commits the outcome to the ledger.
// @Tags payments
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Caller-supplied retry token"
// @Param payment body dto.MobilePaymentRequest true "Mobile payment"
// @Success 200 {object} dto.PaymentResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /payments/mobile [post]
func (h *paymentHandler) ProcessMobile(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.MobilePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for ProcessMobile", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format"})
		return
	}
	h.fillCallContext(c, &req.TerminalID, &req.IdempotencyKey)

	payment, err := h.paymentService.ProcessMobile(c.Request.Context(), req)
	if err != nil {
		h.writeProcessError(c, err, "mobile")
		return
	}

	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}

// fillCallContext populates the fields that come from the request envelope
// rather than the body: the authenticated terminal and the retry token.
func (h *paymentHandler) fillCallContext(c *gin.Context, terminalID, idempotencyKey *string) {
	if id, ok := middleware.GetTerminalIDFromContext(c); ok {
		*terminalID = id
	}
	*idempotencyKey = c.GetHeader("Idempotency-Key")
}

func (h *paymentHandler) writeProcessError(c *gin.Context, err error, method string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	if errors.Is(err, apperrors.ErrValidation) {
		logger.Warn("Payment request failed validation", slog.String("method", method), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	logger.Error("Failed to process payment", slog.String("method", method), slog.String("error", err.Error()))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to process payment"})
}
