package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/wekesadev/pos_payments_backend/internal/adapters/memory"
	"github.com/wekesadev/pos_payments_backend/internal/apperrors"
	"github.com/wekesadev/pos_payments_backend/internal/core/domain"
	portssvc "github.com/wekesadev/pos_payments_backend/internal/core/ports/services"
	"github.com/wekesadev/pos_payments_backend/internal/core/services"
	"github.com/wekesadev/pos_payments_backend/internal/dto"
)

// --- Gateway stubs ---

// stubGateway answers instantly with a fixed result, or blocks until the
// context deadline when hang is set.
type stubGateway struct {
	mu     sync.Mutex
	result portssvc.AuthorizationResult
	err    error
	hang   bool
	calls  int
}

func (g *stubGateway) respond(ctx context.Context) (portssvc.AuthorizationResult, error) {
	g.mu.Lock()
	g.calls++
	hang, result, err := g.hang, g.result, g.err
	g.mu.Unlock()

	if hang {
		<-ctx.Done()
		return portssvc.AuthorizationResult{}, ctx.Err()
	}
	return result, err
}

func (g *stubGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *stubGateway) AuthorizeCard(ctx context.Context, amount decimal.Decimal, cardNumber, cardType string) (portssvc.AuthorizationResult, error) {
	return g.respond(ctx)
}

func (g *stubGateway) AuthorizeMobile(ctx context.Context, amount decimal.Decimal, phoneNumber string) (portssvc.AuthorizationResult, error) {
	return g.respond(ctx)
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []any
}

func (p *recordingPublisher) PublishPaymentCompleted(ctx context.Context, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) published() []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]any(nil), p.events...)
}

// --- Test Suite Setup ---

type PaymentServiceTestSuite struct {
	suite.Suite
	ledger        *memory.LedgerRepository
	cardGateway   *stubGateway
	mobileGateway *stubGateway
	publisher     *recordingPublisher
	service       portssvc.PaymentSvcFacade
}

func (suite *PaymentServiceTestSuite) SetupTest() {
	suite.ledger = memory.NewLedgerRepository()
	suite.cardGateway = &stubGateway{result: portssvc.AuthorizationResult{Authorized: true, AuthorizationCode: "AUTH123456"}}
	suite.mobileGateway = &stubGateway{result: portssvc.AuthorizationResult{Authorized: true, AuthorizationCode: "MP736492"}}
	suite.publisher = &recordingPublisher{}
	suite.service = services.NewPaymentService(
		suite.ledger,
		services.NewIDGenerator(services.DefaultPaymentIDBase),
		suite.cardGateway,
		suite.mobileGateway,
		suite.publisher,
		50*time.Millisecond,
	)
}

// --- Cash ---

func (suite *PaymentServiceTestSuite) TestProcessCash_ExactTender() {
	payment, err := suite.service.ProcessCash(context.Background(), dto.CashPaymentRequest{
		Amount:     decimal.NewFromFloat(250.00),
		Tendered:   decimal.NewFromFloat(250.00),
		TerminalID: "till-001",
	})

	suite.Require().NoError(err)
	suite.Equal(domain.StatusCompleted, payment.Status)
	suite.Equal(int64(1001), payment.PaymentID)
	suite.Equal(domain.NoAuthorizationCode, payment.AuthorizationCode)
	suite.Require().NotNil(payment.ChangeDue)
	suite.True(payment.ChangeDue.IsZero())
	suite.Equal(1, suite.ledger.Len())
}

func (suite *PaymentServiceTestSuite) TestProcessCash_OverTender() {
	payment, err := suite.service.ProcessCash(context.Background(), dto.CashPaymentRequest{
		Amount:   decimal.NewFromFloat(180.50),
		Tendered: decimal.NewFromFloat(200.00),
	})

	suite.Require().NoError(err)
	suite.Equal(domain.StatusCompleted, payment.Status)
	suite.True(payment.ChangeDue.Equal(decimal.NewFromFloat(19.50)))
}

func (suite *PaymentServiceTestSuite) TestProcessCash_ShortTender() {
	payment, err := suite.service.ProcessCash(context.Background(), dto.CashPaymentRequest{
		Amount:   decimal.NewFromFloat(550.00),
		Tendered: decimal.NewFromFloat(300.00),
	})

	suite.Require().NoError(err)
	suite.Equal(domain.StatusPartiallyTendered, payment.Status)
	suite.Equal(domain.ReasonInsufficientTender, payment.FailureReason)
	suite.True(payment.Amount.Equal(decimal.NewFromFloat(550.00)))
	suite.Require().NotNil(payment.Tendered)
	suite.True(payment.Tendered.Equal(decimal.NewFromFloat(300.00)))

	// The shortfall is reported, not clamped: the customer still owes 250.
	suite.Require().NotNil(payment.ChangeDue)
	suite.True(payment.ChangeDue.Equal(decimal.NewFromFloat(-250.00)))

	suite.Equal(1, suite.ledger.Len())

	// Short tender is not a completed sale, so no event goes out.
	suite.Empty(suite.publisher.published())
}

func (suite *PaymentServiceTestSuite) TestProcessCash_NegativeAmount() {
	_, err := suite.service.ProcessCash(context.Background(), dto.CashPaymentRequest{
		Amount:   decimal.NewFromFloat(-5.00),
		Tendered: decimal.NewFromFloat(10.00),
	})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Equal(0, suite.ledger.Len())
}

// --- Card ---

func (suite *PaymentServiceTestSuite) TestProcessCard_EndToEnd() {
	payment, err := suite.service.ProcessCard(context.Background(), dto.CardPaymentRequest{
		Amount:     decimal.NewFromFloat(1200.00),
		CardNumber: "4539451203987356",
		Expiry:     "08/27",
		CVV:        "123",
		CardType:   "VISA",
		TerminalID: "till-002",
	})

	suite.Require().NoError(err)
	suite.Equal(domain.StatusCompleted, payment.Status)
	suite.NotEqual(domain.NoAuthorizationCode, payment.AuthorizationCode)
	suite.Equal(1, suite.ledger.Len())

	// The committed record equals the returned one.
	stored, err := suite.ledger.FindPaymentByID(context.Background(), payment.PaymentID)
	suite.Require().NoError(err)
	suite.Equal(*payment, *stored)

	suite.Len(suite.publisher.published(), 1)
}

func (suite *PaymentServiceTestSuite) TestProcessCard_ChecksumRejectedBeforeAuthorization() {
	_, err := suite.service.ProcessCard(context.Background(), dto.CardPaymentRequest{
		Amount:     decimal.NewFromFloat(1200.00),
		CardNumber: "4539 4512 0398 7357", // checksum broken
		Expiry:     "08/27",
		CVV:        "123",
		CardType:   "VISA",
	})

	suite.Require().Error(err)
	var rejected *services.CardRejectedError
	suite.Require().ErrorAs(err, &rejected)
	suite.Equal(services.ReasonChecksumFailed, rejected.Reason)
	suite.ErrorIs(err, apperrors.ErrValidation)

	// A rejection is not a transaction: no gateway call, no ledger write,
	// and no payment id burned.
	suite.Equal(0, suite.cardGateway.callCount())
	suite.Equal(0, suite.ledger.Len())

	payment, err := suite.service.ProcessCash(context.Background(), dto.CashPaymentRequest{
		Amount:   decimal.NewFromFloat(10.00),
		Tendered: decimal.NewFromFloat(10.00),
	})
	suite.Require().NoError(err)
	suite.Equal(int64(1001), payment.PaymentID)
}

func (suite *PaymentServiceTestSuite) TestProcessCard_Declined() {
	suite.cardGateway.result = portssvc.AuthorizationResult{Authorized: false, DeclineReason: "insufficient funds"}

	payment, err := suite.service.ProcessCard(context.Background(), dto.CardPaymentRequest{
		Amount:     decimal.NewFromFloat(99.99),
		CardNumber: "4539451203987356",
		Expiry:     "08/27",
		CVV:        "123",
		CardType:   "VISA",
	})

	suite.Require().NoError(err)
	suite.Equal(domain.StatusFailed, payment.Status)
	suite.Equal(domain.ReasonDeclined, payment.FailureReason)
	suite.Equal(domain.NoAuthorizationCode, payment.AuthorizationCode)

	// Declines are terminal outcomes and still audited.
	suite.Equal(1, suite.ledger.Len())
	suite.Empty(suite.publisher.published())
}

// --- Mobile ---

func (suite *PaymentServiceTestSuite) TestProcessMobile_Success() {
	payment, err := suite.service.ProcessMobile(context.Background(), dto.MobilePaymentRequest{
		Amount:      decimal.NewFromFloat(200.00),
		PhoneNumber: "254727951049",
	})

	suite.Require().NoError(err)
	suite.Equal(domain.StatusCompleted, payment.Status)
	suite.Equal("MP736492", payment.AuthorizationCode)
	suite.Equal(1, suite.ledger.Len())
}

func (suite *PaymentServiceTestSuite) TestProcessMobile_Timeout() {
	suite.mobileGateway.hang = true

	start := time.Now()
	payment, err := suite.service.ProcessMobile(context.Background(), dto.MobilePaymentRequest{
		Amount:      decimal.NewFromFloat(200.00),
		PhoneNumber: "254727951049",
	})
	elapsed := time.Since(start)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusFailed, payment.Status)
	suite.Equal(domain.ReasonTimeout, payment.FailureReason)
	suite.Equal(domain.NoAuthorizationCode, payment.AuthorizationCode)

	// The configured bound (50ms) cut the call short.
	suite.Less(elapsed, 5*time.Second)

	// Only the terminal record reached the ledger, nothing partial before it.
	suite.Equal(1, suite.ledger.Len())
	suite.Empty(suite.publisher.published())
}

// --- Idempotency ---

func (suite *PaymentServiceTestSuite) TestIdempotentRetry_DoesNotDoubleCommit() {
	req := dto.MobilePaymentRequest{
		Amount:         decimal.NewFromFloat(200.00),
		PhoneNumber:    "254727951049",
		IdempotencyKey: "retry-abc",
	}

	first, err := suite.service.ProcessMobile(context.Background(), req)
	suite.Require().NoError(err)

	second, err := suite.service.ProcessMobile(context.Background(), req)
	suite.Require().NoError(err)

	suite.Equal(first.PaymentID, second.PaymentID)
	suite.Equal(first.AuthorizationCode, second.AuthorizationCode)
	suite.Equal(1, suite.ledger.Len())

	// The retry was answered from the ledger, not re-authorized.
	suite.Equal(1, suite.mobileGateway.callCount())
}

func (suite *PaymentServiceTestSuite) TestIdempotentRetry_AfterTimeoutReturnsFailedRecord() {
	suite.mobileGateway.hang = true

	req := dto.MobilePaymentRequest{
		Amount:         decimal.NewFromFloat(200.00),
		PhoneNumber:    "254727951049",
		IdempotencyKey: "retry-timeout",
	}

	first, err := suite.service.ProcessMobile(context.Background(), req)
	suite.Require().NoError(err)
	suite.Equal(domain.StatusFailed, first.Status)

	// A retry with the same key sees the committed failure; a fresh attempt
	// needs a fresh key.
	second, err := suite.service.ProcessMobile(context.Background(), req)
	suite.Require().NoError(err)
	suite.Equal(first.PaymentID, second.PaymentID)
	suite.Equal(domain.StatusFailed, second.Status)
	suite.Equal(1, suite.ledger.Len())
}

func TestPaymentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceTestSuite))
}
