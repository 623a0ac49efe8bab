package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wekesadev/pos_payments_backend/internal/apperrors"
	portssvc "github.com/wekesadev/pos_payments_backend/internal/core/ports/services"
	"github.com/wekesadev/pos_payments_backend/internal/dto"
	"github.com/wekesadev/pos_payments_backend/internal/middleware"
)

// ledgerHandler handles HTTP requests against the transaction ledger's read
// surface.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

// NewLedgerHandler creates a new ledgerHandler.
func NewLedgerHandler(ledgerService portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{ledgerService: ledgerService}
}

// ListPayments godoc
// @Summary List ledger records
// @Description Returns committed transactions in insertion order, optionally filtered by method, status, and time range.
// @Tags transactions
// @Produce json
// @Param method query string false "Payment method" Enums(CASH, CARD, MOBILE)
// @Param status query string false "Terminal status" Enums(COMPLETED, FAILED, PARTIALLY_TENDERED)
// @Param from query string false "Inclusive lower bound (RFC 3339)"
// @Param to query string false "Inclusive upper bound (RFC 3339)"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} dto.ListPaymentsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /transactions [get]
func (h *ledgerHandler) ListPayments(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListPaymentsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Invalid ledger query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters"})
		return
	}

	payments, err := h.ledgerService.ListPayments(c.Request.Context(), params)
	if err != nil {
		logger.Error("Failed to list ledger records", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list transactions"})
		return
	}

	c.JSON(http.StatusOK, dto.ListPaymentsResponse{Payments: dto.ToListPaymentResponse(payments)})
}

// GetPayment godoc
// @Summary Get a ledger record
// @Description Retrieves one committed transaction by its payment id.
// @Tags transactions
// @Produce json
// @Param paymentID path int true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /transactions/{paymentID} [get]
func (h *ledgerHandler) GetPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	paymentID, err := strconv.ParseInt(c.Param("paymentID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Payment ID must be an integer"})
		return
	}

	payment, err := h.ledgerService.GetPaymentByID(c.Request.Context(), paymentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Ledger record not found", slog.Int64("payment_id", paymentID))
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Transaction not found"})
			return
		}
		logger.Error("Failed to get ledger record", slog.String("error", err.Error()), slog.Int64("payment_id", paymentID))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve transaction"})
		return
	}

	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}
