package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/wekesadev/pos_payments_backend/internal/core/domain"
	"github.com/wekesadev/pos_payments_backend/internal/core/services"
	"github.com/wekesadev/pos_payments_backend/internal/dto"
	"github.com/wekesadev/pos_payments_backend/internal/handlers"
	"github.com/wekesadev/pos_payments_backend/internal/middleware"
)

// --- Mock PaymentService ---

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) ProcessCash(ctx context.Context, req dto.CashPaymentRequest) (*domain.Payment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentService) ProcessCard(ctx context.Context, req dto.CardPaymentRequest) (*domain.Payment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentService) ProcessMobile(ctx context.Context, req dto.MobilePaymentRequest) (*domain.Payment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

// --- Test Suite Setup ---

type PaymentHandlerTestSuite struct {
	suite.Suite
	router             *gin.Engine
	mockPaymentService *MockPaymentService
	jwtSecret          string
}

// generateTestToken creates a terminal JWT for testing.
func (suite *PaymentHandlerTestSuite) generateTestToken(terminalID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "pos-test",
		Subject:   terminalID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *PaymentHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	suite.router.Use(middleware.AuthMiddleware(suite.jwtSecret))

	suite.mockPaymentService = new(MockPaymentService)
	handler := handlers.NewPaymentHandler(suite.mockPaymentService)

	payments := suite.router.Group("/api/v1/payments")
	payments.POST("/cash", handler.ProcessCash)
	payments.POST("/card", handler.ProcessCard)
	payments.POST("/mobile", handler.ProcessMobile)
}

func (suite *PaymentHandlerTestSuite) postJSON(url, body, token, idempotencyKey string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

// --- Test Cases ---

func (suite *PaymentHandlerTestSuite) TestProcessCash_Success() {
	tendered := decimal.NewFromFloat(300.00)
	change := decimal.NewFromFloat(-250.00)
	expected := &domain.Payment{
		PaymentID:         1001,
		TerminalID:        "till-001",
		Method:            domain.MethodCash,
		Amount:            decimal.NewFromFloat(550.00),
		Tendered:          &tendered,
		ChangeDue:         &change,
		Status:            domain.StatusPartiallyTendered,
		FailureReason:     domain.ReasonInsufficientTender,
		AuthorizationCode: domain.NoAuthorizationCode,
		CreatedAt:         time.Now(),
	}

	suite.mockPaymentService.On("ProcessCash",
		mock.Anything,
		mock.MatchedBy(func(req dto.CashPaymentRequest) bool {
			// The handler injects the authenticated terminal and retry token.
			return req.TerminalID == "till-001" && req.IdempotencyKey == "retry-1"
		}),
	).Return(expected, nil).Once()

	token := suite.generateTestToken("till-001")
	w := suite.postJSON("/api/v1/payments/cash", `{"amount": 550.00, "tendered": 300.00}`, token, "retry-1")

	suite.Equal(http.StatusOK, w.Code)

	var resp dto.PaymentResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(int64(1001), resp.PaymentID)
	suite.Equal(domain.StatusPartiallyTendered, resp.Status)
	suite.mockPaymentService.AssertExpectations(suite.T())
}

func (suite *PaymentHandlerTestSuite) TestProcessCash_Unauthorized() {
	w := suite.postJSON("/api/v1/payments/cash", `{"amount": 10.00, "tendered": 10.00}`, "", "")
	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockPaymentService.AssertNotCalled(suite.T(), "ProcessCash")
}

func (suite *PaymentHandlerTestSuite) TestProcessCard_Rejected() {
	suite.mockPaymentService.On("ProcessCard",
		mock.Anything,
		mock.AnythingOfType("dto.CardPaymentRequest"),
	).Return(nil, &services.CardRejectedError{Reason: services.ReasonChecksumFailed}).Once()

	token := suite.generateTestToken("till-001")
	body := `{"amount": 1200.00, "cardNumber": "4539451203987357", "expiry": "08/27", "cvv": "123", "cardType": "VISA"}`
	w := suite.postJSON("/api/v1/payments/card", body, token, "")

	suite.Equal(http.StatusUnprocessableEntity, w.Code)

	var resp handlers.ErrorResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(string(services.ReasonChecksumFailed), resp.Reason)
}

func (suite *PaymentHandlerTestSuite) TestProcessMobile_BadRequest() {
	token := suite.generateTestToken("till-001")
	// phoneNumber fails the numeric binding
	w := suite.postJSON("/api/v1/payments/mobile", `{"amount": 200.00, "phoneNumber": "not-a-number"}`, token, "")

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockPaymentService.AssertNotCalled(suite.T(), "ProcessMobile")
}

func TestPaymentHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(PaymentHandlerTestSuite))
}
